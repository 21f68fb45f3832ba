package content

import (
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/courses/internal/config"
	foundation "git.home.luguber.info/inful/courses/internal/foundation/errors"
	"git.home.luguber.info/inful/courses/internal/frontmatter"
	"git.home.luguber.info/inful/courses/internal/notebook"
)

// Format is the source format of a document.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatNotebook Format = "notebook"
)

// FormatOf classifies a file name. ok is false for passthrough assets.
func FormatOf(name string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md":
		return FormatMarkdown, true
	case ".ipynb":
		return FormatNotebook, true
	}
	return "", false
}

// Document is a loaded source document with its configuration header
// separated from its content.
type Document struct {
	Format Format
	Header frontmatter.Document
	// Body is the markdown content (markdown documents only).
	Body []byte
	// Notebook holds the cells without the header cell (notebooks only).
	Notebook *notebook.Notebook
}

// ReadDocument loads and splits the document at path.
func ReadDocument(path string) (*Document, error) {
	format, ok := FormatOf(path)
	if !ok {
		return nil, foundation.InternalError("not a document").WithContext("path", path).Build()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, foundation.WrapError(err, foundation.CategoryFileSystem, "failed to read document").
			WithContext("path", path).
			Build()
	}
	return ParseDocument(format, data)
}

// ParseDocument splits raw document bytes.
func ParseDocument(format Format, data []byte) (*Document, error) {
	doc := &Document{Format: format}
	switch format {
	case FormatNotebook:
		nb, err := notebook.Read(data)
		if err != nil {
			return nil, headerError("notebook cannot be decoded", err)
		}
		header, rest, err := nb.Header()
		if err != nil {
			return nil, headerError("notebook configuration cell is malformed", err)
		}
		doc.Header = header
		doc.Notebook = rest
	default:
		fm, err := frontmatter.Split(data)
		if err != nil {
			return nil, headerError("frontmatter is malformed", err)
		}
		doc.Header = fm
		doc.Body = fm.Body
	}
	return doc, nil
}

// Resolve resolves the document configuration against the project defaults.
func (d *Document) Resolve(defaults config.DocumentOverrides) (config.DocumentConfig, error) {
	return config.ResolveDocument(d.Header.Raw, defaults)
}

func headerError(msg string, cause error) error {
	return foundation.WrapError(cause, foundation.CategoryConfig, msg).
		WithKind(foundation.KindInvalidSchema).
		Build()
}
