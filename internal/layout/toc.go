package layout

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// TOCEntry is one heading of the page outline.
type TOCEntry struct {
	Level int
	ID    string
	Title string
}

// ExtractTOC lists the h2 and h3 headings that carry an id attribute.
func ExtractTOC(fragment []byte) ([]TOCEntry, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(bytes.NewReader(fragment), body)
	if err != nil {
		return nil, err
	}

	var entries []TOCEntry
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.DataAtom == atom.H2 || n.DataAtom == atom.H3) {
			if id := attr(n, "id"); id != "" {
				level := 2
				if n.DataAtom == atom.H3 {
					level = 3
				}
				entries = append(entries, TOCEntry{Level: level, ID: id, Title: strings.TrimSpace(textContent(n))})
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return entries, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}
