// Package notebook reads and writes Jupyter notebooks (nbformat 4).
package notebook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/courses/internal/frontmatter"
)

// CellType enumerates nbformat cell kinds.
type CellType string

const (
	CellMarkdown CellType = "markdown"
	CellCode     CellType = "code"
	CellRaw      CellType = "raw"
)

// Notebook is an nbformat 4 document.
type Notebook struct {
	Cells         []Cell         `json:"cells"`
	Metadata      map[string]any `json:"metadata"`
	NBFormat      int            `json:"nbformat"`
	NBFormatMinor int            `json:"nbformat_minor"`
}

// Cell is a single notebook cell. Outputs are kept verbatim so notebooks
// round-trip without loss.
type Cell struct {
	ID             string            `json:"id,omitempty"`
	Type           CellType          `json:"cell_type"`
	Metadata       map[string]any    `json:"metadata"`
	Source         Source            `json:"source"`
	Attachments    json.RawMessage   `json:"attachments,omitempty"`
	Outputs        []json.RawMessage `json:"outputs,omitempty"`
	ExecutionCount *int              `json:"execution_count,omitempty"`
}

type codeCell struct {
	ID             string            `json:"id,omitempty"`
	Type           CellType          `json:"cell_type"`
	Metadata       map[string]any    `json:"metadata"`
	Source         Source            `json:"source"`
	Outputs        []json.RawMessage `json:"outputs"`
	ExecutionCount *int              `json:"execution_count"`
}

// MarshalJSON emits the fields nbformat requires for each cell type.
func (c Cell) MarshalJSON() ([]byte, error) {
	if c.Metadata == nil {
		c.Metadata = map[string]any{}
	}
	if c.Type == CellCode {
		outputs := c.Outputs
		if outputs == nil {
			outputs = []json.RawMessage{}
		}
		return json.Marshal(codeCell{
			ID:             c.ID,
			Type:           c.Type,
			Metadata:       c.Metadata,
			Source:         c.Source,
			Outputs:        outputs,
			ExecutionCount: c.ExecutionCount,
		})
	}
	type plain Cell
	p := plain(c)
	p.Outputs = nil
	p.ExecutionCount = nil
	return json.Marshal(p)
}

// Source is multiline text stored either as a string or a list of lines.
type Source string

// UnmarshalJSON accepts both nbformat encodings.
func (s *Source) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = Source(str)
		return nil
	}
	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return fmt.Errorf("source must be a string or a list of strings: %w", err)
	}
	*s = Source(strings.Join(lines, ""))
	return nil
}

// MarshalJSON writes the list-of-lines form Jupyter itself produces.
func (s Source) MarshalJSON() ([]byte, error) {
	return json.Marshal(Lines(string(s)))
}

// Lines splits text into lines keeping their terminators.
func Lines(text string) []string {
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if lines == nil {
		return []string{}
	}
	return lines
}

// Read decodes a notebook.
func Read(data []byte) (*Notebook, error) {
	var nb Notebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return nil, fmt.Errorf("invalid notebook: %w", err)
	}
	if nb.NBFormat != 0 && nb.NBFormat < 4 {
		return nil, fmt.Errorf("unsupported nbformat %d", nb.NBFormat)
	}
	if nb.Metadata == nil {
		nb.Metadata = map[string]any{}
	}
	return &nb, nil
}

// Marshal encodes the notebook the way Jupyter formats files on disk.
func (nb *Notebook) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", " ")
	if err := enc.Encode(nb); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// New returns an empty nbformat 4.5 notebook with a Python kernel.
func New() *Notebook {
	return &Notebook{
		Cells: []Cell{},
		Metadata: map[string]any{
			"kernelspec": map[string]any{
				"display_name": "Python 3",
				"language":     "python",
				"name":         "python3",
			},
			"language_info": map[string]any{"name": "python"},
		},
		NBFormat:      4,
		NBFormatMinor: 5,
	}
}

// NewCell creates a cell with a fresh id.
func NewCell(t CellType, source string) Cell {
	return Cell{
		ID:       uuid.NewString(),
		Type:     t,
		Metadata: map[string]any{},
		Source:   Source(source),
	}
}

// Language returns the kernel language, defaulting to python.
func (nb *Notebook) Language() string {
	if ks, ok := nb.Metadata["kernelspec"].(map[string]any); ok {
		if lang, ok := ks["language"].(string); ok && lang != "" {
			return lang
		}
	}
	if li, ok := nb.Metadata["language_info"].(map[string]any); ok {
		if name, ok := li["name"].(string); ok && name != "" {
			return name
		}
	}
	return "python"
}

// Header extracts the configuration header stored in a leading raw cell and
// returns a copy of the notebook without it. Notebooks without such a cell
// yield an empty header.
func (nb *Notebook) Header() (frontmatter.Document, *Notebook, error) {
	rest := *nb
	if len(nb.Cells) == 0 || nb.Cells[0].Type != CellRaw {
		return frontmatter.Document{}, &rest, nil
	}
	doc, err := frontmatter.FromCell(string(nb.Cells[0].Source))
	if err != nil {
		return frontmatter.Document{}, nil, err
	}
	rest.Cells = append([]Cell(nil), nb.Cells[1:]...)
	return doc, &rest, nil
}

// Clone returns a deep enough copy for per-target cell rewriting.
func (nb *Notebook) Clone() *Notebook {
	c := *nb
	c.Cells = append([]Cell(nil), nb.Cells...)
	return &c
}

// WithHeader returns a copy of the notebook with h stored as a leading raw
// cell. Notebooks are returned unchanged when h is absent.
func (nb *Notebook) WithHeader(h frontmatter.Document) *Notebook {
	c := nb.Clone()
	if !h.Present {
		return c
	}
	h.Body = nil
	cell := NewCell(CellRaw, strings.TrimRight(string(h.Join()), "\r\n"))
	c.Cells = append([]Cell{cell}, c.Cells...)
	return c
}

// ClearOutputs drops stored outputs and execution counts from every code cell.
func (nb *Notebook) ClearOutputs() {
	for i := range nb.Cells {
		if nb.Cells[i].Type == CellCode {
			nb.Cells[i].Outputs = nil
			nb.Cells[i].ExecutionCount = nil
		}
	}
}
