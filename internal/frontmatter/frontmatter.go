package frontmatter

import (
	"bytes"
	"errors"
	"strings"

	"gopkg.in/yaml.v3"
)

// Style captures formatting details needed for stable rewriting.
type Style struct {
	Newline            string
	HasTrailingNewline bool
}

// Document is a markdown source split into its YAML header and body.
type Document struct {
	// Raw is the YAML between the `---` delimiters (delimiters excluded).
	Raw []byte
	// Body is everything after the closing delimiter.
	Body []byte
	// Present reports whether the source opened with a delimiter.
	Present bool
	Style   Style
}

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Split separates YAML frontmatter (`---` delimited) from the markdown body.
//
// A document that does not start with a delimiter yields Present=false and the
// whole input as Body.
func Split(content []byte) (Document, error) {
	doc := Document{Style: detectStyle(content)}

	nl := doc.Style.Newline
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		doc.Body = content
		return doc, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		doc.Raw = []byte{}
		doc.Body = content[start+len(open):]
		doc.Present = true
		return doc, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		// A closing delimiter on the final line without a newline is still valid.
		tail := []byte(nl + "---")
		if bytes.HasSuffix(content, tail) {
			doc.Raw = content[start : len(content)-len(tail)+len(nl)]
			doc.Body = []byte{}
			doc.Present = true
			return doc, nil
		}
		return Document{Style: doc.Style}, ErrMissingClosingDelimiter
	}

	doc.Raw = content[start : start+idx+len(nl)]
	doc.Body = content[start+idx+len(closeSeq):]
	doc.Present = true
	return doc, nil
}

// FromCell interprets the source of a notebook raw cell as a configuration
// header. The cell may hold bare YAML or YAML wrapped in `---` delimiters.
func FromCell(source string) (Document, error) {
	trimmed := strings.TrimSpace(source)
	if strings.HasPrefix(trimmed, "---") {
		doc, err := Split([]byte(trimmed + "\n"))
		if err != nil {
			return Document{}, err
		}
		if len(bytes.TrimSpace(doc.Body)) > 0 {
			return Document{}, errors.New("raw cell contains content after the closing delimiter")
		}
		doc.Body = nil
		return doc, nil
	}
	return Document{
		Raw:     []byte(trimmed + "\n"),
		Present: true,
		Style:   Style{Newline: "\n", HasTrailingNewline: true},
	}, nil
}

// Join reassembles a document from its header and body. Without a header the
// body is returned as-is.
func (d Document) Join() []byte {
	if !d.Present {
		return d.Body
	}

	nl := d.Style.Newline
	if nl == "" {
		nl = "\n"
	}

	delim := []byte("---" + nl)
	out := make([]byte, 0, 2*len(delim)+len(d.Raw)+len(d.Body))
	out = append(out, delim...)
	out = append(out, d.Raw...)
	if len(d.Raw) > 0 && !bytes.HasSuffix(d.Raw, []byte(nl)) {
		out = append(out, nl...)
	}
	out = append(out, delim...)
	out = append(out, d.Body...)
	return out
}

// Fields parses the header into a generic map.
func (d Document) Fields() (map[string]any, error) {
	return ParseYAML(d.Raw)
}

// ParseYAML parses raw YAML frontmatter (without --- delimiters) into a map.
func ParseYAML(frontmatter []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(frontmatter)) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(frontmatter, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

func detectStyle(content []byte) Style {
	newline := "\n"
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		newline = "\r\n"
	}

	return Style{
		Newline:            newline,
		HasTrailingNewline: len(content) > 0 && content[len(content)-1] == '\n',
	}
}
