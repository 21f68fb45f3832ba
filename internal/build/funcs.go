package build

import (
	"encoding/base64"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"
)

// shortcodeFuncs are the helpers available to shortcode templates.
//
//	resource "img/plot.png"  ->  <url_prefix>/resources/img/plot.png
//	embed "img/logo.svg"     ->  the SVG markup, inline
//	embed "img/plot.png"     ->  base64 of the file, for data: URLs
func shortcodeFuncs(projectDir, urlPrefix string) template.FuncMap {
	resources := filepath.Join(projectDir, ResourcesDir)
	prefix := strings.TrimRight(urlPrefix, "/")
	return template.FuncMap{
		"resource": func(name string) (string, error) {
			if _, err := resourcePath(resources, name); err != nil {
				return "", fmt.Errorf("resource: %w", err)
			}
			return prefix + "/" + path.Join(ResourcesDir, name), nil
		},
		"embed": func(name string) (string, error) {
			p, err := resourcePath(resources, name)
			if err != nil {
				return "", fmt.Errorf("embed: %w", err)
			}
			data, err := os.ReadFile(p)
			if err != nil {
				return "", fmt.Errorf("embed: %w", err)
			}
			if strings.EqualFold(filepath.Ext(p), ".svg") {
				return string(data), nil
			}
			return base64.StdEncoding.EncodeToString(data), nil
		},
	}
}

// resourcePath resolves name below the resources directory and rejects
// names that escape it.
func resourcePath(resources, name string) (string, error) {
	p := filepath.Join(resources, filepath.FromSlash(name))
	if !strings.HasPrefix(p, filepath.Clean(resources)+string(filepath.Separator)) {
		return "", fmt.Errorf("%q is outside %s", name, ResourcesDir)
	}
	return p, nil
}
