package notebook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/courses/internal/frontmatter"
	"git.home.luguber.info/inful/courses/internal/markdown"
)

// Output is the decoded form of a stored cell output.
type Output struct {
	OutputType string            `json:"output_type"`
	Name       string            `json:"name"`
	Text       Source            `json:"text"`
	Data       map[string]Source `json:"data"`
	EName      string            `json:"ename"`
	EValue     string            `json:"evalue"`
	Traceback  []string          `json:"traceback"`
}

var codeLanguages = map[string]bool{"python": true, "python3": true, "py": true, "ipython": true, "ipython3": true}

// FromMarkdown converts a markdown document into a notebook. Fenced blocks in
// the kernel language become code cells and everything between them becomes
// markdown cells. A present header is kept as a leading raw cell so the
// result is again a valid course document.
func FromMarkdown(header frontmatter.Document, body []byte) (*Notebook, error) {
	nb := New()

	if header.Present {
		fields, err := header.Fields()
		if err != nil {
			return nil, err
		}
		raw, err := frontmatter.SerializeYAML(fields, frontmatter.Style{Newline: "\n"})
		if err != nil {
			return nil, err
		}
		nb.Cells = append(nb.Cells, NewCell(CellRaw, "---\n"+string(raw)+"---"))
	}

	pos := 0
	flushMarkdown := func(end int) {
		text := strings.Trim(string(body[pos:end]), "\n")
		if strings.TrimSpace(text) != "" {
			nb.Cells = append(nb.Cells, NewCell(CellMarkdown, text))
		}
	}
	for _, block := range markdown.CodeBlocks(body) {
		if !block.Fenced || !codeLanguages[strings.ToLower(block.Language)] {
			continue
		}
		flushMarkdown(block.Start)
		code := strings.TrimSuffix(string(block.Body(body)), "\n")
		nb.Cells = append(nb.Cells, NewCell(CellCode, code))
		pos = block.End
	}
	flushMarkdown(len(body))
	return nb, nil
}

// ToMarkdown flattens a notebook into markdown for the web pipeline. Code
// cells become fenced blocks in the kernel language, raw cells are dropped and
// stored outputs are rendered as HTML when withOutputs is set.
func ToMarkdown(nb *Notebook, withOutputs bool) ([]byte, error) {
	var buf bytes.Buffer
	lang := nb.Language()
	for i, cell := range nb.Cells {
		switch cell.Type {
		case CellMarkdown:
			buf.WriteString(strings.TrimRight(string(cell.Source), "\n"))
			buf.WriteString("\n\n")
		case CellCode:
			fmt.Fprintf(&buf, "```%s\n", lang)
			src := string(cell.Source)
			buf.WriteString(src)
			if src != "" && !strings.HasSuffix(src, "\n") {
				buf.WriteByte('\n')
			}
			buf.WriteString("```\n\n")
			if !withOutputs {
				continue
			}
			for _, raw := range cell.Outputs {
				var out Output
				if err := json.Unmarshal(raw, &out); err != nil {
					return nil, fmt.Errorf("cell %d: invalid output: %w", i, err)
				}
				if rendered := RenderOutput(out); rendered != "" {
					buf.WriteString(rendered)
					buf.WriteString("\n\n")
				}
			}
		}
	}
	return buf.Bytes(), nil
}

var ansiEscape = regexp.MustCompile("\x1b\\[[0-9;]*[A-Za-z]")

// RenderOutput renders one stored output as a self-contained HTML block.
func RenderOutput(out Output) string {
	switch out.OutputType {
	case "stream":
		return preBlock("stream-"+out.Name, string(out.Text))
	case "error":
		text := out.EName + ": " + out.EValue
		if len(out.Traceback) > 0 {
			text = strings.Join(out.Traceback, "\n")
		}
		return preBlock("error", ansiEscape.ReplaceAllString(text, ""))
	case "execute_result", "display_data":
		return renderData(out.Data)
	}
	return ""
}

func renderData(data map[string]Source) string {
	if v, ok := data["text/html"]; ok {
		return `<div class="cell-output">` + collapseBlankLines(string(v)) + `</div>`
	}
	if v, ok := data["image/svg+xml"]; ok {
		return `<div class="cell-output">` + collapseBlankLines(string(v)) + `</div>`
	}
	for _, mime := range []string{"image/png", "image/jpeg", "image/gif"} {
		if v, ok := data[mime]; ok {
			b64 := strings.ReplaceAll(string(v), "\n", "")
			return fmt.Sprintf(`<div class="cell-output"><img src="data:%s;base64,%s" alt=""></div>`, mime, b64)
		}
	}
	if v, ok := data["text/plain"]; ok {
		return preBlock("result", string(v))
	}
	return ""
}

// preBlock emits an HTML <pre> block. Markdown treats it as raw HTML until
// the closing tag, so blank lines inside are safe. Braces and dollars are
// escaped so later shortcode and math passes leave the text alone.
func preBlock(class, text string) string {
	escaped := html.EscapeString(strings.TrimRight(text, "\n"))
	escaped = strings.NewReplacer("{", "&#123;", "}", "&#125;", "$", "&#36;").Replace(escaped)
	return `<pre class="cell-output ` + class + `">` + escaped + `</pre>`
}

func collapseBlankLines(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	kept := lines[:0]
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}
