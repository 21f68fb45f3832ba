package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	foundation "git.home.luguber.info/inful/courses/internal/foundation/errors"
)

// Well-known profile names. Both always exist after defaults are applied.
const (
	ProfileDev     = "dev"
	ProfileRelease = "release"
)

// FileName is the global configuration file expected at the project root.
const FileName = "config.yml"

// ProfileSettings controls build-time behaviour selected by a profile.
type ProfileSettings struct {
	// KatexOutput precompiles math with KaTeX instead of leaving it for the browser.
	KatexOutput bool `yaml:"katex_output"`
}

// ProjectConfig is the resolved global configuration.
type ProjectConfig struct {
	URLPrefix string                     `yaml:"url_prefix"`
	Profiles  map[string]ProfileSettings `yaml:"build"`
	// Defaults is the project-wide document configuration layer that sits
	// between built-in defaults and a document's own header.
	Defaults DocumentOverrides `yaml:"defaults"`
}

type rawProfile struct {
	KatexOutput *bool `yaml:"katex_output"`
}

type rawProject struct {
	URLPrefix string                 `yaml:"url_prefix"`
	Build     map[string]*rawProfile `yaml:"build"`
	Defaults  DocumentOverrides      `yaml:"defaults"`
}

// DefaultProject returns the configuration used when no config.yml exists.
func DefaultProject() *ProjectConfig {
	return &ProjectConfig{
		Profiles: map[string]ProfileSettings{
			ProfileDev:     {KatexOutput: false},
			ProfileRelease: {KatexOutput: true},
		},
	}
}

// LoadEnv loads .env and .env.local from dir into the process environment.
// Existing variables are never overwritten and missing files are ignored.
func LoadEnv(dir string) error {
	for _, name := range []string{".env", ".env.local"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return foundation.WrapError(err, foundation.CategoryConfig, "failed to load environment file").
				WithKind(foundation.KindInvalidSchema).
				WithContext("file", path).
				Fatal().
				Build()
		}
	}
	return nil
}

// ResolveGlobal reads the global configuration at path. A missing file yields
// DefaultProject. A file that is not a mapping of the known key types fails
// with an InvalidSchema configuration error. Unknown keys are ignored.
func ResolveGlobal(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultProject(), nil
	}
	if err != nil {
		return nil, foundation.WrapError(err, foundation.CategoryFileSystem, "failed to read config file").
			WithContext("file", path).
			Fatal().
			Build()
	}
	return ParseGlobal(data, path)
}

// ParseGlobal resolves a global configuration from raw YAML. ${VAR}
// references are expanded from the environment before decoding; a bare $word
// is left as written.
func ParseGlobal(data []byte, source string) (*ProjectConfig, error) {
	expanded := expandEnv(data)

	cfg := DefaultProject()
	if len(bytes.TrimSpace(expanded)) == 0 {
		return cfg, nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal(expanded, &root); err != nil {
		return nil, schemaError(source, "config file is not valid YAML", err)
	}
	if len(root.Content) == 0 {
		return cfg, nil
	}
	if root.Content[0].Kind != yaml.MappingNode {
		return nil, schemaError(source, "config file must be a mapping", nil)
	}

	var raw rawProject
	if err := root.Decode(&raw); err != nil {
		return nil, schemaError(source, "config file does not match the expected schema", err)
	}

	cfg.URLPrefix = raw.URLPrefix
	cfg.Defaults = raw.Defaults
	for name, p := range raw.Build {
		settings := cfg.Profiles[name]
		if p != nil && p.KatexOutput != nil {
			settings.KatexOutput = *p.KatexOutput
		}
		cfg.Profiles[name] = settings
	}
	return cfg, nil
}

// Profile returns the named profile settings.
func (c *ProjectConfig) Profile(name string) (ProfileSettings, error) {
	settings, ok := c.Profiles[name]
	if !ok {
		return ProfileSettings{}, foundation.ConfigError(fmt.Sprintf("unknown build profile %q", name)).
			WithKind(foundation.KindUnknownProfile).
			WithContext("profile", name).
			WithContext("available", c.ProfileNames()).
			Build()
	}
	return settings, nil
}

// ProfileNames lists the configured profiles in sorted order.
func (c *ProjectConfig) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func schemaError(source, msg string, cause error) error {
	b := foundation.ConfigError(msg).
		WithKind(foundation.KindInvalidSchema).
		WithContext("file", source)
	if cause != nil {
		b = b.WithCause(cause)
	}
	return b.Build()
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${VAR} with the value of VAR, empty when unset.
func expandEnv(data []byte) []byte {
	return envRef.ReplaceAllFunc(data, func(ref []byte) []byte {
		return []byte(os.Getenv(string(ref[2 : len(ref)-1])))
	})
}
