// Package scaffold creates a new course project from an embedded sample.
package scaffold

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"git.home.luguber.info/inful/courses/internal/config"
	foundation "git.home.luguber.info/inful/courses/internal/foundation/errors"
)

//go:embed project
var projectFS embed.FS

const projectRoot = "project"

// renamed maps embedded names to their on-disk names. Dotfiles cannot be
// embedded without the all: prefix.
var renamed = map[string]string{
	"gitignore": ".gitignore",
}

// Files lists the project-relative paths Init writes, in order.
func Files() []string {
	var files []string
	_ = fs.WalkDir(projectFS, projectRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		files = append(files, target(p))
		return nil
	})
	sort.Strings(files)
	return files
}

func target(embedded string) string {
	rel := embedded[len(projectRoot)+1:]
	dir, base := path.Split(rel)
	if name, ok := renamed[base]; ok {
		base = name
	}
	return path.Join(dir, base)
}

// Init writes the sample project into dir. It refuses to touch a directory
// that already holds a config.yml or content/ unless force is set, in which
// case sample files overwrite existing ones of the same name.
func Init(dir string, force bool) ([]string, error) {
	if !force {
		for _, marker := range []string{config.FileName, "content"} {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return nil, foundation.ValidationError(fmt.Sprintf("%s already contains a course project", dir)).
					WithContext("path", filepath.Join(dir, marker)).
					WithContext("hint", "use --force to overwrite").
					Build()
			} else if !errors.Is(err, os.ErrNotExist) {
				return nil, fsError(err, dir)
			}
		}
	}

	var written []string
	err := fs.WalkDir(projectFS, projectRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := projectFS.ReadFile(p)
		if err != nil {
			return err
		}
		rel := target(p)
		dst := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
			return fsError(err, dst)
		}
		if err := os.WriteFile(dst, data, 0o600); err != nil {
			return fsError(err, dst)
		}
		written = append(written, rel)
		return nil
	})
	if err != nil {
		return written, err
	}
	sort.Strings(written)
	return written, nil
}

func fsError(err error, p string) error {
	if foundation.IsClassified(err) {
		return err
	}
	return foundation.WrapError(err, foundation.CategoryFileSystem, "failed to write project file").
		WithContext("path", p).
		Fatal().
		Build()
}
