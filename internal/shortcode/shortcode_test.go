package shortcode

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"text/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	foundation "git.home.luguber.info/inful/courses/internal/foundation/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func fixtureLibrary(t *testing.T) *Library {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "html", "image.tera.html"), `<figure><img src="{{ .src }}" alt="{{ .alt }}"><figcaption>Figure {{ .num }}</figcaption></figure>`)
	writeFile(t, filepath.Join(dir, "md", "image.tera.md"), `![{{ .alt }}]({{ .src }})`)
	writeFile(t, filepath.Join(dir, "html", "note.html"), `<div class="note {{ .color }}"><strong>{{ .title }}</strong>{{ upper .body }}</div>`)
	writeFile(t, filepath.Join(dir, "md", "note.md"), "> **{{ .title }}**\n> {{ .body }}")
	writeFile(t, filepath.Join(dir, "html", "strict.html"), `{{ .required }}`)
	writeFile(t, filepath.Join(dir, "image.yml"), "parameters:\n  - name: src\n  - name: alt\n    default: \"\"\n")
	writeFile(t, filepath.Join(dir, "note.yml"), "parameters:\n  - name: title\n  - name: color\n    default: blue\n")

	lib, err := Load(dir, template.FuncMap{"upper": strings.ToUpper})
	require.NoError(t, err)
	return lib
}

func TestName(t *testing.T) {
	assert.Equal(t, "image", Name("image.tera.html"))
	assert.Equal(t, "image", Name("image.md"))
	assert.Equal(t, "plain", Name("plain"))
}

func TestExpand_TargetSelectsTemplateSet(t *testing.T) {
	lib := fixtureLibrary(t)
	src := []byte(`Look: {{ image(src="cat.png", alt="A cat") }}`)

	web, err := lib.NewSession(FormatHTML).Expand(src)
	require.NoError(t, err)
	nb, err := lib.NewSession(FormatMarkdown).Expand(src)
	require.NoError(t, err)

	assert.Equal(t, `Look: <figure><img src="cat.png" alt="A cat"><figcaption>Figure 1</figcaption></figure>`, string(web))
	assert.Equal(t, `Look: ![A cat](cat.png)`, string(nb))
	assert.NotEqual(t, string(web), string(nb))
}

func TestExpand_DefaultsPositionalAndNum(t *testing.T) {
	lib := fixtureLibrary(t)
	src := []byte("{{ image(\"a.png\") }}\n{{ image('b.png', 'B') }}\n")

	out, err := lib.NewSession(FormatHTML).Expand(src)
	require.NoError(t, err)
	assert.Contains(t, string(out), `<img src="a.png" alt=""><figcaption>Figure 1`)
	assert.Contains(t, string(out), `<img src="b.png" alt="B"><figcaption>Figure 2`)
}

func TestExpand_NumSpansExpandCalls(t *testing.T) {
	lib := fixtureLibrary(t)
	s := lib.NewSession(FormatHTML)
	_, err := s.Expand([]byte(`{{ image(src="1.png") }}`))
	require.NoError(t, err)
	out, err := s.Expand([]byte(`{{ image(src="2.png") }}`))
	require.NoError(t, err)
	assert.Contains(t, string(out), "Figure 2")
}

func TestExpand_BlockShortcode(t *testing.T) {
	lib := fixtureLibrary(t)
	src := []byte("{% note(title=\"Heads up\") %}\nmind the gap\n{% end_note %}\n")

	web, err := lib.NewSession(FormatHTML).Expand(src)
	require.NoError(t, err)
	assert.Equal(t, "<div class=\"note blue\"><strong>Heads up</strong>MIND THE GAP</div>\n", string(web))

	md, err := lib.NewSession(FormatMarkdown).Expand(src)
	require.NoError(t, err)
	assert.Equal(t, "> **Heads up**\n> mind the gap\n", string(md))
}

func TestExpand_NestedShortcodeInBlockBody(t *testing.T) {
	lib := fixtureLibrary(t)
	src := []byte("{% note(title=\"T\", color=\"red\") %}{{ image(src=\"x.png\") }}{% end_note %}")
	out, err := lib.NewSession(FormatMarkdown).Expand(src)
	require.NoError(t, err)
	assert.Equal(t, "> **T**\n> ![](x.png)", string(out))
}

func TestExpand_SkipsCode(t *testing.T) {
	lib := fixtureLibrary(t)
	src := "Inline `{{ image(src=\"a\") }}` stays.\n\n```\n{{ unknown() }}\n```\n"

	out, err := lib.NewSession(FormatHTML).Expand([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, src, string(out))
}

func TestExpand_IgnoresNonShortcodeBraces(t *testing.T) {
	lib := fixtureLibrary(t)
	src := "Math $\\frac{{a}}{b}$ and {{ not a call }}.\n"
	out, err := lib.NewSession(FormatHTML).Expand([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, src, string(out))
}

func TestExpand_Errors(t *testing.T) {
	lib := fixtureLibrary(t)

	tests := []struct {
		name string
		src  string
		kind foundation.ErrorKind
	}{
		{"unknown shortcode", "text\n{{ video(src=\"a\") }}", foundation.KindUnknownShortcode},
		{"missing argument", `{{ strict() }}`, foundation.KindMissingArgument},
		{"missing required declared param", `{{ image(alt="x") }}`, foundation.KindMissingArgument},
		{"unterminated block", "{% note(title=\"x\") %} body", foundation.KindTemplate},
		{"unterminated string", `{{ image(src="a) }}`, foundation.KindTemplate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := lib.NewSession(FormatHTML).Expand([]byte(tt.src))
			require.Error(t, err)
			assert.True(t, foundation.HasKind(err, tt.kind), "got %v", err)
		})
	}
}

func TestExpand_UnknownShortcodeReportsName(t *testing.T) {
	lib := fixtureLibrary(t)
	_, err := lib.NewSession(FormatMarkdown).Expand([]byte("a\nb\n{{ strict() }}"))
	require.Error(t, err)
	ce, ok := foundation.AsClassified(err)
	require.True(t, ok)
	name, _ := ce.Context().GetString("shortcode")
	assert.Equal(t, "strict", name)
	line, _ := ce.Context().Get("line")
	assert.Equal(t, 3, line)
}

func TestLoad_MissingDirectoryIsEmpty(t *testing.T) {
	lib, err := Load(filepath.Join(t.TempDir(), "nope"), nil)
	require.NoError(t, err)
	assert.Empty(t, lib.Names(FormatHTML))
}

func TestLoad_InvalidTemplate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "html", "bad.html"), `{{ .x `)
	_, err := Load(dir, nil)
	require.Error(t, err)
	assert.True(t, foundation.HasKind(err, foundation.KindTemplate))
}
