package notebook

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/courses/internal/frontmatter"
)

const sample = `{
 "cells": [
  {"cell_type": "raw", "metadata": {}, "source": ["title: Loops\n", "code_split: false\n"]},
  {"cell_type": "markdown", "metadata": {}, "source": "# Loops\n\nIterate."},
  {"cell_type": "code", "execution_count": 3, "metadata": {}, "source": ["for i in range(3):\n", "    print(i)"],
   "outputs": [{"output_type": "stream", "name": "stdout", "text": ["0\n", "1\n", "2\n"]}]}
 ],
 "metadata": {"kernelspec": {"language": "python", "name": "python3", "display_name": "Python 3"}},
 "nbformat": 4,
 "nbformat_minor": 5
}`

func TestRead_HeaderAndCells(t *testing.T) {
	nb, err := Read([]byte(sample))
	require.NoError(t, err)
	require.Len(t, nb.Cells, 3)
	assert.Equal(t, "python", nb.Language())

	header, rest, err := nb.Header()
	require.NoError(t, err)
	require.True(t, header.Present)
	fields, err := header.Fields()
	require.NoError(t, err)
	assert.Equal(t, "Loops", fields["title"])
	require.Len(t, rest.Cells, 2)
	assert.Len(t, nb.Cells, 3, "original notebook is not modified")
	assert.Equal(t, "for i in range(3):\n    print(i)", string(rest.Cells[1].Source))
}

func TestHeader_NoRawCell(t *testing.T) {
	nb := New()
	nb.Cells = append(nb.Cells, NewCell(CellMarkdown, "# Hi"))
	header, rest, err := nb.Header()
	require.NoError(t, err)
	assert.False(t, header.Present)
	assert.Len(t, rest.Cells, 1)
}

func TestRead_RejectsOldFormat(t *testing.T) {
	_, err := Read([]byte(`{"cells": [], "metadata": {}, "nbformat": 3, "nbformat_minor": 0}`))
	require.Error(t, err)
	_, err = Read([]byte(`not json`))
	require.Error(t, err)
}

func TestMarshal_CodeCellsCarryRequiredFields(t *testing.T) {
	nb := New()
	nb.Cells = append(nb.Cells, NewCell(CellCode, "x = 1\n"), NewCell(CellMarkdown, "text"))

	data, err := nb.Marshal()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	cells := decoded["cells"].([]any)
	code := cells[0].(map[string]any)
	assert.Contains(t, code, "outputs")
	assert.Contains(t, code, "execution_count")
	assert.Nil(t, code["execution_count"])
	assert.Equal(t, []any{"x = 1\n"}, code["source"])
	assert.NotEmpty(t, code["id"])

	md := cells[1].(map[string]any)
	assert.NotContains(t, md, "outputs")
	assert.EqualValues(t, 4, decoded["nbformat"])
}

func TestRoundTripPreservesOutputs(t *testing.T) {
	nb, err := Read([]byte(sample))
	require.NoError(t, err)
	data, err := nb.Marshal()
	require.NoError(t, err)
	again, err := Read(data)
	require.NoError(t, err)
	require.Len(t, again.Cells[2].Outputs, 1)
	assert.JSONEq(t, string(nb.Cells[2].Outputs[0]), string(again.Cells[2].Outputs[0]))
	require.NotNil(t, again.Cells[2].ExecutionCount)
	assert.Equal(t, 3, *again.Cells[2].ExecutionCount)
}

func TestFromMarkdown(t *testing.T) {
	header, err := frontmatter.Split([]byte("---\ntitle: Intro\n---\n"))
	require.NoError(t, err)

	body := []byte("# Intro\n\nSome text.\n\n```python\nprint('hi')\n```\n\nShell:\n\n```bash\nls\n```\n")
	nb, err := FromMarkdown(header, body)
	require.NoError(t, err)

	require.Len(t, nb.Cells, 4)
	assert.Equal(t, CellRaw, nb.Cells[0].Type)
	assert.Equal(t, "---\ntitle: Intro\n---", string(nb.Cells[0].Source))
	assert.Equal(t, CellMarkdown, nb.Cells[1].Type)
	assert.Equal(t, "# Intro\n\nSome text.", string(nb.Cells[1].Source))
	assert.Equal(t, CellCode, nb.Cells[2].Type)
	assert.Equal(t, "print('hi')", string(nb.Cells[2].Source))
	assert.Equal(t, CellMarkdown, nb.Cells[3].Type)
	assert.Contains(t, string(nb.Cells[3].Source), "```bash")

	h, _, err := nb.Header()
	require.NoError(t, err)
	fields, err := h.Fields()
	require.NoError(t, err)
	assert.Equal(t, "Intro", fields["title"])
}

func TestToMarkdown(t *testing.T) {
	nb, err := Read([]byte(sample))
	require.NoError(t, err)
	_, rest, err := nb.Header()
	require.NoError(t, err)

	with, err := ToMarkdown(rest, true)
	require.NoError(t, err)
	assert.Contains(t, string(with), "```python\nfor i in range(3):\n    print(i)\n```")
	assert.Contains(t, string(with), `<pre class="cell-output stream-stdout">0`)

	without, err := ToMarkdown(rest, false)
	require.NoError(t, err)
	assert.NotContains(t, string(without), "cell-output")
}

func TestRenderOutput(t *testing.T) {
	tests := []struct {
		name string
		out  Output
		want string
	}{
		{"stream escapes", Output{OutputType: "stream", Name: "stdout", Text: "a < b {x} $5\n"},
			`<pre class="cell-output stream-stdout">a &lt; b &#123;x&#125; &#36;5</pre>`},
		{"error strips ansi", Output{OutputType: "error", Traceback: []string{"\x1b[31mValueError\x1b[0m: bad"}},
			`<pre class="cell-output error">ValueError: bad</pre>`},
		{"png", Output{OutputType: "display_data", Data: map[string]Source{"image/png": "iVBOR\nw0K"}},
			`<div class="cell-output"><img src="data:image/png;base64,iVBORw0K" alt=""></div>`},
		{"html preferred", Output{OutputType: "execute_result", Data: map[string]Source{"text/html": "<b>x</b>\n\n<i>y</i>", "text/plain": "x"}},
			"<div class=\"cell-output\"><b>x</b>\n<i>y</i></div>"},
		{"plain", Output{OutputType: "execute_result", Data: map[string]Source{"text/plain": "42"}},
			`<pre class="cell-output result">42</pre>`},
		{"unknown", Output{OutputType: "update_display_data"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderOutput(tt.out))
		})
	}
}

func TestWithHeader_RoundTripsThroughHeader(t *testing.T) {
	nb, err := Read([]byte(sample))
	require.NoError(t, err)
	header, rest, err := nb.Header()
	require.NoError(t, err)

	restored := rest.WithHeader(header)
	require.Len(t, restored.Cells, 3)
	assert.Equal(t, CellRaw, restored.Cells[0].Type)
	assert.Equal(t, "---\ntitle: Loops\ncode_split: false\n---", string(restored.Cells[0].Source))
	assert.Len(t, rest.Cells, 2, "receiver is not modified")

	again, _, err := restored.Header()
	require.NoError(t, err)
	assert.Equal(t, string(header.Raw), string(again.Raw))

	assert.Len(t, rest.WithHeader(frontmatter.Document{}).Cells, 2)
}

func TestClearOutputs(t *testing.T) {
	nb, err := Read([]byte(sample))
	require.NoError(t, err)
	c := nb.Clone()
	c.ClearOutputs()

	assert.Nil(t, c.Cells[2].Outputs)
	assert.Nil(t, c.Cells[2].ExecutionCount)
	assert.Len(t, nb.Cells[2].Outputs, 1, "clone does not share cell values")

	data, err := c.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"outputs": []`)
	assert.Contains(t, string(data), `"execution_count": null`)
}
