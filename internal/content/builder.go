package content

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/courses/internal/config"
	foundation "git.home.luguber.info/inful/courses/internal/foundation/errors"
)

// Issue is a structural problem that excluded part of the content tree.
type Issue struct {
	// Path is the slash-separated file or directory the issue applies to.
	Path string
	Err  error
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s: %v", i.Path, i.Err)
}

type builder struct {
	root     string
	defaults config.DocumentOverrides
	tree     *Tree
	issues   []Issue
}

// Build classifies contentDir into the project/part/chapter/section
// hierarchy. Structural problems are returned as issues and only exclude the
// affected subtree. The error is reserved for I/O failures.
func Build(contentDir string, defaults config.DocumentOverrides) (*Tree, []Issue, error) {
	info, err := os.Stat(contentDir)
	if err != nil {
		return nil, nil, foundation.WrapError(err, foundation.CategoryFileSystem, "content directory is not accessible").
			WithContext("path", contentDir).
			Fatal().
			Build()
	}
	if !info.IsDir() {
		return nil, nil, foundation.FileSystemError("content path is not a directory").
			WithContext("path", contentDir).
			Fatal().
			Build()
	}

	b := &builder{root: contentDir, defaults: defaults, tree: &Tree{Root: contentDir}}
	if err := b.walkIndexed(".", 0, NoParent); err != nil {
		return nil, nil, err
	}
	sort.Strings(b.tree.Assets)
	sort.SliceStable(b.issues, func(i, j int) bool { return b.issues[i].Path < b.issues[j].Path })
	return b.tree, b.issues, nil
}

type listing struct {
	index *string
	docs  []string
	dirs  []string
}

func (b *builder) list(rel string) (listing, error) {
	var l listing
	entries, err := os.ReadDir(filepath.Join(b.root, filepath.FromSlash(rel)))
	if err != nil {
		return l, foundation.WrapError(err, foundation.CategoryFileSystem, "failed to list directory").
			WithContext("path", rel).
			Fatal().
			Build()
	}
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		p := path.Join(rel, name)
		switch {
		case e.IsDir():
			l.dirs = append(l.dirs, p)
		case isIndexName(name):
			if l.index == nil {
				l.index = &p
				continue
			}
			// index.md wins over index.ipynb whatever the listing order.
			extra := p
			if name == "index.md" {
				extra, l.index = *l.index, &p
			}
			b.issue(extra, foundation.KindMisplacedDocument, "directory already has an index document")
		default:
			if _, ok := FormatOf(name); ok {
				l.docs = append(l.docs, p)
			} else if e.Type().IsRegular() || e.Type()&fs.ModeSymlink != 0 {
				b.tree.Assets = append(b.tree.Assets, p)
			}
		}
	}
	return l, nil
}

func isIndexName(name string) bool {
	return name == "index.md" || name == "index.ipynb"
}

// walkIndexed handles a directory at project, part or chapter depth.
func (b *builder) walkIndexed(rel string, depth int, parent int) error {
	l, err := b.list(rel)
	if err != nil {
		return err
	}

	if l.index == nil {
		has, err := b.containsDocuments(l)
		if err != nil {
			return err
		}
		if has {
			b.issue(rel, foundation.KindMissingIndex, fmt.Sprintf("%s directory has documents but no index.md or index.ipynb", Level(depth)))
		}
		return b.collectAssets(l.dirs)
	}

	id := b.addNode(*l.index, Level(depth), parent)

	if depth == int(LevelChapter) {
		var sections []string
		sections = append(sections, l.docs...)
		for _, d := range l.dirs {
			found, err := b.walkSections(d)
			if err != nil {
				return err
			}
			sections = append(sections, found...)
		}
		sort.Strings(sections)
		for _, s := range sections {
			b.addNode(s, LevelSection, id)
		}
		return nil
	}

	for _, doc := range l.docs {
		b.issue(doc, foundation.KindMisplacedDocument, fmt.Sprintf("only index documents may appear at %s depth", Level(depth)))
	}
	for _, d := range l.dirs {
		if err := b.walkIndexed(d, depth+1, id); err != nil {
			return err
		}
	}
	return nil
}

// walkSections collects section documents below a chapter directory. A
// nested index would add a fifth level, which excludes that subtree.
func (b *builder) walkSections(rel string) ([]string, error) {
	l, err := b.list(rel)
	if err != nil {
		return nil, err
	}
	if l.index != nil {
		b.issue(rel, foundation.KindDepthExceeded, "index document below chapter depth; the hierarchy is project/part/chapter/section")
		return nil, b.collectAssets(l.dirs)
	}

	docs := append([]string(nil), l.docs...)
	for _, d := range l.dirs {
		found, err := b.walkSections(d)
		if err != nil {
			return nil, err
		}
		docs = append(docs, found...)
	}
	return docs, nil
}

// collectAssets records passthrough files below dirs without classifying
// documents. It is used for excluded subtrees and document-free directories.
func (b *builder) collectAssets(dirs []string) error {
	for _, d := range dirs {
		l, err := b.list(d)
		if err != nil {
			return err
		}
		if err := b.collectAssets(l.dirs); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) containsDocuments(l listing) (bool, error) {
	if l.index != nil || len(l.docs) > 0 {
		return true, nil
	}
	for _, d := range l.dirs {
		found := false
		err := filepath.WalkDir(filepath.Join(b.root, filepath.FromSlash(d)), func(p string, e fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if strings.HasPrefix(e.Name(), ".") {
				if e.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if _, ok := FormatOf(e.Name()); ok && !e.IsDir() {
				found = true
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil && !errors.Is(err, filepath.SkipAll) {
			return false, foundation.WrapError(err, foundation.CategoryFileSystem, "failed to scan directory").
				WithContext("path", d).
				Fatal().
				Build()
		}
		if found {
			return true, nil
		}
	}
	return false, nil
}

func (b *builder) addNode(rel string, level Level, parent int) int {
	format, _ := FormatOf(rel)
	id := len(b.tree.Nodes)
	node := Node{ID: id, Level: level, Path: rel, Format: format, Parent: parent}

	doc, err := ReadDocument(filepath.Join(b.root, filepath.FromSlash(rel)))
	if err == nil {
		node.Config, err = doc.Resolve(b.defaults)
	}
	if err != nil {
		node.ConfigErr = err
	}

	b.tree.Nodes = append(b.tree.Nodes, node)
	if parent != NoParent {
		b.tree.Nodes[parent].Children = append(b.tree.Nodes[parent].Children, id)
	}
	return id
}

func (b *builder) issue(rel string, kind foundation.ErrorKind, msg string) {
	b.issues = append(b.issues, Issue{
		Path: rel,
		Err: foundation.TreeError(msg).
			WithKind(kind).
			WithContext("path", rel).
			Build(),
	})
}
