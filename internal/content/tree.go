package content

import (
	"fmt"
	"path"
	"strings"

	"git.home.luguber.info/inful/courses/internal/config"
)

// Level is the fixed position of a node in the course hierarchy.
type Level int

const (
	LevelProject Level = iota
	LevelPart
	LevelChapter
	LevelSection
)

func (l Level) String() string {
	switch l {
	case LevelProject:
		return "project"
	case LevelPart:
		return "part"
	case LevelChapter:
		return "chapter"
	case LevelSection:
		return "section"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// NoParent marks the root node.
const NoParent = -1

// Node is one document in the tree. Nodes live in Tree.Nodes and refer to
// each other by index.
type Node struct {
	ID    int
	Level Level
	// Path is the slash-separated document path relative to the content root.
	Path   string
	Format Format
	// Config is valid only when ConfigErr is nil.
	Config    config.DocumentConfig
	ConfigErr error
	Parent    int
	Children  []int
}

// Dir returns the slash-separated directory of the node.
func (n *Node) Dir() string {
	return path.Dir(n.Path)
}

// IsIndex reports whether the node is a project, part or chapter index.
func (n *Node) IsIndex() bool {
	return n.Level != LevelSection
}

// Title returns the configured title, falling back to the file path.
func (n *Node) Title() string {
	if n.ConfigErr == nil && n.Config.Title != "" {
		return n.Config.Title
	}
	return n.Path
}

// Tree is the classified content directory.
type Tree struct {
	// Root is the content directory on disk.
	Root  string
	Nodes []Node
	// Assets are slash-separated paths of passthrough files.
	Assets []string
}

// HasRoot reports whether a project index was found.
func (t *Tree) HasRoot() bool {
	return len(t.Nodes) > 0
}

// Node returns the node with id.
func (t *Tree) Node(id int) *Node {
	return &t.Nodes[id]
}

// Children returns the ordered children of id.
func (t *Tree) Children(id int) []*Node {
	n := t.Node(id)
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		out = append(out, t.Node(c))
	}
	return out
}

// Ancestors returns the chain from the root down to, but excluding, id.
func (t *Tree) Ancestors(id int) []*Node {
	var chain []*Node
	for p := t.Node(id).Parent; p != NoParent; p = t.Node(p).Parent {
		chain = append([]*Node{t.Node(p)}, chain...)
	}
	return chain
}

// Walk visits nodes depth-first in document order.
func (t *Tree) Walk(fn func(*Node)) {
	if !t.HasRoot() {
		return
	}
	var visit func(id int)
	visit = func(id int) {
		fn(t.Node(id))
		for _, c := range t.Node(id).Children {
			visit(c)
		}
	}
	visit(0)
}

// Count returns the number of nodes at each level.
func (t *Tree) Count() map[Level]int {
	counts := map[Level]int{}
	for i := range t.Nodes {
		counts[t.Nodes[i].Level]++
	}
	return counts
}

// String renders the tree as an indented outline.
func (t *Tree) String() string {
	var b strings.Builder
	t.Walk(func(n *Node) {
		indent := strings.Repeat("  ", int(n.Level))
		fmt.Fprintf(&b, "%s%s %s (%s)\n", indent, n.Level, n.Title(), n.Path)
	})
	return b.String()
}

// WebPath is the slash-separated output path of the node below build/web.
// Index documents become <dir>/index.html, sections <dir>/<name>.html.
func (n *Node) WebPath() string {
	if n.IsIndex() {
		return path.Join(n.Dir(), "index.html")
	}
	return strings.TrimSuffix(n.Path, path.Ext(n.Path)) + ".html"
}

// SourcePath is the output path below build/source for the given extension
// (".ipynb" or ".md").
func (n *Node) SourcePath(ext string) string {
	return strings.TrimSuffix(n.Path, path.Ext(n.Path)) + ext
}
