package frontmatter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	doc, err := Split(input)
	require.NoError(t, err)
	require.False(t, doc.Present)
	require.Empty(t, doc.Raw)
	require.Equal(t, input, doc.Body)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Intro\n---\n# Title\n")

	doc, err := Split(input)
	require.NoError(t, err)
	require.True(t, doc.Present)
	require.Equal(t, []byte("title: Intro\n"), doc.Raw)
	require.Equal(t, []byte("# Title\n"), doc.Body)
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	doc, err := Split([]byte("---\ntitle: Intro\n# Title\n"))
	require.Error(t, err)
	require.False(t, doc.Present)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestSplit_CRLF_SplitsFrontmatterAndBody(t *testing.T) {
	doc, err := Split([]byte("---\r\ntitle: Intro\r\n---\r\n# Title\r\n"))
	require.NoError(t, err)
	require.True(t, doc.Present)
	require.Equal(t, "\r\n", doc.Style.Newline)
	require.Equal(t, []byte("title: Intro\r\n"), doc.Raw)
	require.Equal(t, []byte("# Title\r\n"), doc.Body)
}

func TestSplit_EmptyFrontmatterBlock(t *testing.T) {
	doc, err := Split([]byte("---\n---\n# Title\n"))
	require.NoError(t, err)
	require.True(t, doc.Present)
	require.Empty(t, doc.Raw)
	require.Equal(t, []byte("# Title\n"), doc.Body)
}

func TestSplit_ClosingDelimiterAtEOF(t *testing.T) {
	doc, err := Split([]byte("---\ntitle: Only header\n---"))
	require.NoError(t, err)
	require.True(t, doc.Present)
	require.Equal(t, []byte("title: Only header\n"), doc.Raw)
	require.Empty(t, doc.Body)
}

func TestJoin_RoundTrip(t *testing.T) {
	inputs := []string{
		"---\ntitle: Intro\n---\n# Title\n",
		"---\r\ntitle: Intro\r\n---\r\nBody\r\n",
		"# No header\n",
	}
	for _, in := range inputs {
		doc, err := Split([]byte(in))
		require.NoError(t, err)
		require.Equal(t, in, string(doc.Join()))
	}
}

func TestFromCell(t *testing.T) {
	t.Run("bare yaml", func(t *testing.T) {
		doc, err := FromCell("title: Loops\ncode_split: false")
		require.NoError(t, err)
		fields, err := doc.Fields()
		require.NoError(t, err)
		require.Equal(t, "Loops", fields["title"])
		require.Equal(t, false, fields["code_split"])
	})

	t.Run("delimited yaml", func(t *testing.T) {
		doc, err := FromCell("---\ntitle: Loops\n---\n")
		require.NoError(t, err)
		fields, err := doc.Fields()
		require.NoError(t, err)
		require.Equal(t, "Loops", fields["title"])
	})

	t.Run("trailing content rejected", func(t *testing.T) {
		_, err := FromCell("---\ntitle: Loops\n---\nprint(1)\n")
		require.Error(t, err)
	})
}

func TestParseYAML_Empty(t *testing.T) {
	fields, err := ParseYAML([]byte("  \n"))
	require.NoError(t, err)
	require.Empty(t, fields)
}
