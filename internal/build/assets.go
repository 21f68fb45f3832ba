package build

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	foundation "git.home.luguber.info/inful/courses/internal/foundation/errors"
	"git.home.luguber.info/inful/courses/internal/layout"
)

// stylesheetPath is where the default layout expects its stylesheet.
const stylesheetPath = "assets/courses.css"

// copyAssets copies content passthrough files into every target directory,
// resources/ into build/web/resources and the layout stylesheet into
// build/web/assets. It returns the number of files copied.
func (r *run) copyAssets() (int, error) {
	copied := 0
	for _, rel := range r.tree.Assets {
		src := filepath.Join(r.contentDir, filepath.FromSlash(rel))
		for _, t := range Targets {
			dst := filepath.Join(r.outDir(t), filepath.FromSlash(rel))
			if err := copyFile(src, dst); err != nil {
				return copied, assetError(err, rel)
			}
			copied++
		}
	}

	resources := filepath.Join(r.projectDir, ResourcesDir)
	n, err := copyDir(resources, filepath.Join(r.outDir(TargetWeb), ResourcesDir))
	copied += n
	if err != nil {
		return copied, assetError(err, ResourcesDir)
	}

	if err := writeOutput(r.outDir(TargetWeb), stylesheetPath, layout.Stylesheet); err != nil {
		return copied, err
	}
	return copied, nil
}

// copyDir recursively copies src into dst, skipping hidden entries. A missing
// src copies nothing.
func copyDir(src, dst string) (int, error) {
	if _, err := os.Stat(src); errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	copied := 0
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != src && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if err := copyFile(path, filepath.Join(dst, rel)); err != nil {
			return err
		}
		copied++
		return nil
	})
	return copied, err
}

// copyFile copies a single file from src to dst, creating parent directories
// and preserving permissions.
func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = srcFile.Close()
	}()

	info, err := srcFile.Stat()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return err
	}
	return dstFile.Close()
}

// writeOutput writes data to rel below root.
func writeOutput(root, rel string, data []byte) error {
	dst := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return outputError(err, dst)
	}
	// #nosec G306 - build output is published as-is
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return outputError(err, dst)
	}
	return nil
}

func assetError(err error, rel string) error {
	return foundation.WrapError(err, foundation.CategoryFileSystem, "failed to copy asset").
		WithContext("path", rel).
		Fatal().
		Build()
}

func outputError(err error, path string) error {
	return foundation.WrapError(err, foundation.CategoryFileSystem, "failed to write output").
		WithContext("path", path).
		Build()
}
