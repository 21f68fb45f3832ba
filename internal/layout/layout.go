// Package layout renders web pages around converted document content.
package layout

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	foundation "git.home.luguber.info/inful/courses/internal/foundation/errors"
)

//go:embed defaults/*.html
var embeddedTemplates embed.FS

// Stylesheet is the default stylesheet written to build/web/assets.
//
//go:embed defaults/courses.css
var Stylesheet []byte

// PageTemplate is the layout every document is rendered with.
const PageTemplate = "page.html"

// Page is the data handed to layout templates.
type Page struct {
	Title   string
	Course  string
	Level   string
	Content template.HTML
	// ShowSidebar is false when the document sets layout.hide_sidebar.
	ShowSidebar bool
	Nav         []NavItem
	Breadcrumbs []Link
	Prev        *Link
	Next        *Link
	TOC         []TOCEntry
	Revision    string
	URLPrefix   string
	Profile     string
	// ClientMath asks the layout to load the KaTeX auto-render script.
	ClientMath bool
}

// Layouts is a parsed layout template set.
type Layouts struct {
	tpl *template.Template
}

// Load parses the embedded layouts and then the project's templates/layouts
// directory, whose files override embedded ones of the same name. A file's
// template name is its base name up to the first dot plus ".html", so
// "page.tera.html" overrides "page.html".
func Load(dir string) (*Layouts, error) {
	root := template.New("layouts")

	embedded, err := fs.Glob(embeddedTemplates, "defaults/*.html")
	if err != nil {
		return nil, err
	}
	for _, name := range embedded {
		data, err := embeddedTemplates.ReadFile(name)
		if err != nil {
			return nil, err
		}
		if _, err := root.New(templateName(name)).Parse(string(data)); err != nil {
			return nil, fmt.Errorf("embedded layout %s: %w", name, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".html") {
			continue
		}
		p := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		if _, err := root.New(templateName(e.Name())).Parse(string(data)); err != nil {
			return nil, foundation.WrapError(err, foundation.CategoryRender, "invalid layout template").
				WithKind(foundation.KindTemplate).
				WithContext("file", p).
				Fatal().
				Build()
		}
	}
	return &Layouts{tpl: root}, nil
}

func templateName(file string) string {
	base := path.Base(filepath.ToSlash(file))
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return base + ".html"
}

// Render executes the page layout.
func (l *Layouts) Render(w io.Writer, page *Page) error {
	if err := l.tpl.ExecuteTemplate(w, PageTemplate, page); err != nil {
		return foundation.WrapError(err, foundation.CategoryRender, "layout rendering failed").
			WithKind(foundation.KindTemplate).
			Build()
	}
	return nil
}
