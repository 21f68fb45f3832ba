package layout

import (
	"strings"

	"git.home.luguber.info/inful/courses/internal/content"
)

// Link is a titled URL.
type Link struct {
	Title string
	URL   string
}

// NavItem is one entry of the navigation sidebar.
type NavItem struct {
	Title    string
	URL      string
	Active   bool
	Children []NavItem
}

// Site answers navigation questions about the pages of one build.
type Site struct {
	tree      *content.Tree
	urlPrefix string
	include   func(*content.Node) bool
	order     []int
	position  map[int]int
}

// NewSite indexes the pages of tree. include selects nodes that get a web
// page; excluded nodes are left out of navigation but their children are
// still reachable.
func NewSite(tree *content.Tree, urlPrefix string, include func(*content.Node) bool) *Site {
	s := &Site{
		tree:      tree,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
		include:   include,
		position:  map[int]int{},
	}
	tree.Walk(func(n *content.Node) {
		if include(n) {
			s.position[n.ID] = len(s.order)
			s.order = append(s.order, n.ID)
		}
	})
	return s
}

// URLPrefix returns the normalized prefix without a trailing slash.
func (s *Site) URLPrefix() string {
	return s.urlPrefix
}

// URL returns the absolute URL of a node's page.
func (s *Site) URL(n *content.Node) string {
	return s.urlPrefix + "/" + n.WebPath()
}

// Course returns the title of the project index.
func (s *Site) Course() string {
	if !s.tree.HasRoot() {
		return ""
	}
	return s.tree.Node(0).Title()
}

// Nav returns the sidebar items below the project root with the chain to
// current marked active.
func (s *Site) Nav(current int) []NavItem {
	if !s.tree.HasRoot() {
		return nil
	}
	active := map[int]bool{current: true}
	for _, a := range s.tree.Ancestors(current) {
		active[a.ID] = true
	}
	return s.items(0, active)
}

func (s *Site) items(parent int, active map[int]bool) []NavItem {
	var out []NavItem
	for _, child := range s.tree.Children(parent) {
		children := s.items(child.ID, active)
		if !s.include(child) {
			out = append(out, children...)
			continue
		}
		out = append(out, NavItem{
			Title:    child.Title(),
			URL:      s.URL(child),
			Active:   active[child.ID],
			Children: children,
		})
	}
	return out
}

// Breadcrumbs links the included ancestors of current.
func (s *Site) Breadcrumbs(current int) []Link {
	var crumbs []Link
	for _, a := range s.tree.Ancestors(current) {
		if s.include(a) {
			crumbs = append(crumbs, Link{Title: a.Title(), URL: s.URL(a)})
		}
	}
	return crumbs
}

// Neighbours returns the previous and next page in reading order.
func (s *Site) Neighbours(current int) (prev, next *Link) {
	pos, ok := s.position[current]
	if !ok {
		return nil, nil
	}
	if pos > 0 {
		n := s.tree.Node(s.order[pos-1])
		prev = &Link{Title: n.Title(), URL: s.URL(n)}
	}
	if pos+1 < len(s.order) {
		n := s.tree.Node(s.order[pos+1])
		next = &Link{Title: n.Title(), URL: s.URL(n)}
	}
	return prev, next
}
