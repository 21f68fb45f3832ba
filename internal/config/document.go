package config

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"

	foundation "git.home.luguber.info/inful/courses/internal/foundation/errors"
)

// LayoutConfig holds per-document page layout switches.
type LayoutConfig struct {
	HideSidebar bool `yaml:"hide_sidebar"`
}

// OutputConfig gates which build targets receive a document.
type OutputConfig struct {
	Web    bool `yaml:"web"`
	Source bool `yaml:"source"`
}

// DocumentConfig is the fully resolved configuration of one document.
type DocumentConfig struct {
	Title          string       `yaml:"title"`
	CodeSplit      bool         `yaml:"code_split"`
	NotebookOutput bool         `yaml:"notebook_output"`
	CellOutputs    bool         `yaml:"cell_outputs"`
	Layout         LayoutConfig `yaml:"layout"`
	Output         OutputConfig `yaml:"output"`
}

// DocumentOverrides is one configuration layer. Nil fields are unset and fall
// through to the next, less specific layer.
type DocumentOverrides struct {
	Title          *string `yaml:"title"`
	CodeSplit      *bool   `yaml:"code_split"`
	NotebookOutput *bool   `yaml:"notebook_output"`
	CellOutputs    *bool   `yaml:"cell_outputs"`
	Layout         struct {
		HideSidebar *bool `yaml:"hide_sidebar"`
	} `yaml:"layout"`
	Output struct {
		Web    *bool `yaml:"web"`
		Source *bool `yaml:"source"`
	} `yaml:"output"`
}

// BuiltinDocumentDefaults are the values used when no layer sets a field.
// Title has no default.
func BuiltinDocumentDefaults() DocumentConfig {
	return DocumentConfig{
		CodeSplit:      true,
		NotebookOutput: true,
		CellOutputs:    true,
		Layout:         LayoutConfig{HideSidebar: false},
		Output:         OutputConfig{Web: true, Source: true},
	}
}

// ParseDocument decodes a document header. Empty input is an empty layer.
func ParseDocument(raw []byte) (DocumentOverrides, error) {
	var o DocumentOverrides
	if len(bytes.TrimSpace(raw)) == 0 {
		return o, nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return o, documentSchemaError("document header is not valid YAML", err)
	}
	if len(root.Content) == 0 {
		return o, nil
	}
	if root.Content[0].Kind != yaml.MappingNode {
		return o, documentSchemaError("document header must be a mapping", nil)
	}
	if err := root.Decode(&o); err != nil {
		return DocumentOverrides{}, documentSchemaError("document header does not match the expected schema", err)
	}
	return o, nil
}

// ResolveDocument merges a document header over the project defaults layer and
// the built-in defaults. It fails with MissingRequiredField when no layer
// provides a title.
func ResolveDocument(raw []byte, defaults DocumentOverrides) (DocumentConfig, error) {
	o, err := ParseDocument(raw)
	if err != nil {
		return DocumentConfig{}, err
	}
	return Merge(o, defaults)
}

// Merge resolves layers from most to least specific and validates the result.
func Merge(layers ...DocumentOverrides) (DocumentConfig, error) {
	cfg := BuiltinDocumentDefaults()
	title := ""
	for i := len(layers) - 1; i >= 0; i-- {
		l := layers[i]
		setString(&title, l.Title)
		setBool(&cfg.CodeSplit, l.CodeSplit)
		setBool(&cfg.NotebookOutput, l.NotebookOutput)
		setBool(&cfg.CellOutputs, l.CellOutputs)
		setBool(&cfg.Layout.HideSidebar, l.Layout.HideSidebar)
		setBool(&cfg.Output.Web, l.Output.Web)
		setBool(&cfg.Output.Source, l.Output.Source)
	}

	cfg.Title = strings.TrimSpace(title)
	if cfg.Title == "" {
		return DocumentConfig{}, foundation.ConfigError("document has no title").
			WithSeverity(foundation.SeverityError).
			WithKind(foundation.KindMissingRequiredField).
			WithContext("field", "title").
			Build()
	}
	return cfg, nil
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func documentSchemaError(msg string, cause error) error {
	b := foundation.ConfigError(msg).
		WithSeverity(foundation.SeverityError).
		WithKind(foundation.KindInvalidSchema)
	if cause != nil {
		b = b.WithCause(cause)
	}
	return b.Build()
}
