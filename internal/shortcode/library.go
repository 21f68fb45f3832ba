package shortcode

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	foundation "git.home.luguber.info/inful/courses/internal/foundation/errors"
)

// Format selects the template set a shortcode renders with.
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "md"
)

// Param declares one shortcode parameter.
type Param struct {
	Name    string `yaml:"name"`
	Default any    `yaml:"default"`
	// Optional parameters without a default resolve to an empty string.
	Optional bool `yaml:"optional"`
}

// Definition is the optional <name>.yml file next to the template sets.
type Definition struct {
	Description string  `yaml:"description"`
	Parameters  []Param `yaml:"parameters"`
}

// Library holds the parsed shortcode templates of a project.
type Library struct {
	sets map[Format]map[string]*template.Template
	defs map[string]Definition
}

// Load reads templates from <dir>/html and <dir>/md plus definitions from
// <dir>/*.yml. A shortcode's name is its file name up to the first dot, so
// "image.tera.html" and "image.md" both define "image". A missing directory
// yields an empty library.
func Load(dir string, funcs template.FuncMap) (*Library, error) {
	lib := &Library{
		sets: map[Format]map[string]*template.Template{},
		defs: map[string]Definition{},
	}

	for _, format := range []Format{FormatHTML, FormatMarkdown} {
		set, err := loadSet(filepath.Join(dir, string(format)), funcs)
		if err != nil {
			return nil, err
		}
		lib.sets[format] = set
	}

	defs, err := filepath.Glob(filepath.Join(dir, "*.yml"))
	if err != nil {
		return nil, err
	}
	for _, path := range defs {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var def Definition
		if err := yaml.Unmarshal(data, &def); err != nil {
			return nil, templateError(path, "invalid shortcode definition", err)
		}
		lib.defs[Name(filepath.Base(path))] = def
	}
	return lib, nil
}

func loadSet(dir string, funcs template.FuncMap) (map[string]*template.Template, error) {
	set := map[string]*template.Template{}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return set, nil
	}
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		name := Name(entry.Name())
		if _, dup := set[name]; dup {
			return nil, templateError(path, fmt.Sprintf("shortcode %q is defined twice", name), nil)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		tpl, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(string(data))
		if err != nil {
			return nil, templateError(path, "invalid shortcode template", err)
		}
		set[name] = tpl
	}
	return set, nil
}

// Name derives a shortcode name from a file name.
func Name(file string) string {
	if i := strings.IndexByte(file, '.'); i >= 0 {
		return file[:i]
	}
	return file
}

// Names lists the shortcodes available in format.
func (l *Library) Names(format Format) []string {
	names := make([]string, 0, len(l.sets[format]))
	for name := range l.sets[format] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (l *Library) lookup(format Format, name string) (*template.Template, bool) {
	tpl, ok := l.sets[format][name]
	return tpl, ok
}

// bind maps an invocation's arguments onto the declared parameters.
func (l *Library) bind(inv Invocation) (map[string]any, error) {
	data := make(map[string]any, len(inv.Named)+len(inv.Positional)+3)
	def, declared := l.defs[inv.Name]

	if len(inv.Positional) > 0 {
		if !declared || len(inv.Positional) > len(def.Parameters) {
			return nil, foundation.RenderError(fmt.Sprintf("shortcode %q: too many positional arguments", inv.Name)).
				WithKind(foundation.KindMissingArgument).
				WithContext("shortcode", inv.Name).
				Build()
		}
		for i, v := range inv.Positional {
			data[def.Parameters[i].Name] = v
		}
	}
	for k, v := range inv.Named {
		if _, dup := data[k]; dup {
			return nil, foundation.RenderError(fmt.Sprintf("shortcode %q: argument %q given twice", inv.Name, k)).
				WithKind(foundation.KindMissingArgument).
				WithContext("shortcode", inv.Name).
				Build()
		}
		data[k] = v
	}
	for _, p := range def.Parameters {
		if _, ok := data[p.Name]; ok {
			continue
		}
		switch {
		case p.Default != nil:
			data[p.Name] = p.Default
		case p.Optional:
			data[p.Name] = ""
		}
	}
	return data, nil
}

func templateError(path, msg string, cause error) error {
	b := foundation.RenderError(msg).
		WithKind(foundation.KindTemplate).
		WithContext("file", path).
		Fatal()
	if cause != nil {
		b = b.WithCause(cause)
	}
	return b.Build()
}
