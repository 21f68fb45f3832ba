package markdown

import (
	"html"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeBlocks_Fenced(t *testing.T) {
	src := []byte("# Title\n\n```python\nx = 1\ny = 2\n```\n\nText\n\n~~~\nplain\n~~~\n")

	blocks := CodeBlocks(src)
	require.Len(t, blocks, 2)

	py := blocks[0]
	assert.True(t, py.Fenced)
	assert.Equal(t, "python", py.Language)
	assert.Equal(t, "x = 1\ny = 2\n", string(py.Body(src)))
	assert.Equal(t, "```python\nx = 1\ny = 2\n```\n", string(src[py.Start:py.End]))

	plain := blocks[1]
	assert.Empty(t, plain.Language)
	assert.Equal(t, "plain\n", string(plain.Body(src)))
	assert.Equal(t, "~~~\nplain\n~~~\n", string(src[plain.Start:plain.End]))
}

func TestCodeBlocks_EmptyAndUnclosed(t *testing.T) {
	src := []byte("```go\n```\n\n```\n```\n\n```rust\nfn main() {}\n")

	blocks := CodeBlocks(src)
	require.Len(t, blocks, 3)
	assert.Equal(t, "```go\n```\n", string(src[blocks[0].Start:blocks[0].End]))
	assert.Empty(t, blocks[0].Body(src))
	assert.Equal(t, "```\n```\n", string(src[blocks[1].Start:blocks[1].End]))
	assert.Equal(t, "fn main() {}\n", string(blocks[2].Body(src)))
	assert.Equal(t, len(src), blocks[2].End)
}

func TestCodeBlocks_Indented(t *testing.T) {
	src := []byte("Para\n\n    indented code\n    more\n\nAfter\n")
	blocks := CodeBlocks(src)
	require.Len(t, blocks, 1)
	assert.False(t, blocks[0].Fenced)
	assert.Contains(t, string(src[blocks[0].Start:blocks[0].End]), "indented code")
}

func TestCodeBlocks_BlockquoteBodyAndRewrite(t *testing.T) {
	src := []byte("Intro\n\n> ```python\n> a = 1\n> b = 2\n> ```\n\nAfter\n")
	blocks := CodeBlocks(src)
	require.Len(t, blocks, 1)
	assert.Equal(t, "a = 1\nb = 2\n", string(blocks[0].Body(src)))

	out, err := ApplyEdits(src, []Edit{blocks[0].Rewrite(src, "c = 3\nd = 4\ne = 5\n")})
	require.NoError(t, err)
	assert.Equal(t, "Intro\n\n> ```python\n> c = 3\n> d = 4\n> e = 5\n> ```\n\nAfter\n", string(out))

	out, err = ApplyEdits(src, []Edit{blocks[0].Rewrite(src, "")})
	require.NoError(t, err)
	assert.Equal(t, "Intro\n\n> ```python\n> ```\n\nAfter\n", string(out))
}

func TestCodeRegions(t *testing.T) {
	src := []byte("Use `{{ x() }}` inline.\n\n```\n{{ y() }}\n```\n\nOutside {{ z() }}\n")
	regions := CodeRegions(src)

	assert.True(t, regions.Contains(strings.Index(string(src), "{{ x")))
	assert.True(t, regions.Contains(strings.Index(string(src), "{{ y")))
	assert.False(t, regions.Contains(strings.Index(string(src), "{{ z")))
	assert.True(t, regions.Contains(strings.Index(string(src), "`{{")))
}

func TestRenderer_HeadingIDsAndRawHTML(t *testing.T) {
	r := NewRenderer()
	out, err := r.Render([]byte("# Über Variablen\n\n## Setup\n\n## Setup\n\n<div class=\"note\">raw</div>\n"))
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, `<h1 id="uber-variablen">`)
	assert.Contains(t, html, `<h2 id="setup">`)
	assert.Contains(t, html, `<h2 id="setup-1">`)
	assert.Contains(t, html, `<div class="note">raw</div>`)
}

var tags = regexp.MustCompile(`<[^>]*>`)

func visibleText(fragment []byte) string {
	return html.UnescapeString(tags.ReplaceAllString(string(fragment), ""))
}

func TestRenderer_HighlightsFencedCode(t *testing.T) {
	out, err := NewRenderer().Render([]byte("```python\ndef area(r):\n    return 3.14 * r ** 2\n```\n"))
	require.NoError(t, err)

	page := string(out)
	assert.Regexp(t, `<pre[^>]* style="[^"]*background-color:`, page)
	assert.Contains(t, page, `<span style="color:`)
	assert.Contains(t, page, `>def</span>`)
	assert.NotContains(t, page, `class="language-python"`)
	assert.Contains(t, visibleText(out), "def area(r):\n    return 3.14 * r ** 2\n")
}

func TestRenderer_UnknownLanguageKeepsCode(t *testing.T) {
	out, err := NewRenderer().Render([]byte("```nosuchlang\n<b> & x\n```\n"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "&lt;b&gt; &amp; x")
	assert.Contains(t, visibleText(out), "<b> & x\n")
}

func TestRenderer_GFMTable(t *testing.T) {
	out, err := NewRenderer().Render([]byte("| a | b |\n|---|---|\n| 1 | 2 |\n"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "<table>")
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Hello, World!":    "hello-world",
		"  Leading space":  "leading-space",
		"Café au lait":     "cafe-au-lait",
		"snake_case_name":  "snake_case_name",
		"Chapter 2: Loops": "chapter-2-loops",
		"!!!":              "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slug(in), in)
	}
}
