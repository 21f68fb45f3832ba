package frontmatter

import (
	"bytes"
	"sort"

	"gopkg.in/yaml.v3"
)

// SerializeYAML encodes fields as YAML without delimiters. Mapping keys are
// sorted recursively so the output is stable between builds. An empty map
// yields an empty slice.
func SerializeYAML(fields map[string]any, style Style) ([]byte, error) {
	if len(fields) == 0 {
		return []byte{}, nil
	}

	var node yaml.Node
	if err := node.Encode(fields); err != nil {
		return nil, err
	}
	sortMappingKeys(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}

	out := buf.Bytes()
	if nl := style.Newline; nl != "" && nl != "\n" {
		out = bytes.ReplaceAll(out, []byte("\n"), []byte(nl))
	}
	return out, nil
}

func sortMappingKeys(n *yaml.Node) {
	for _, child := range n.Content {
		sortMappingKeys(child)
	}
	if n.Kind != yaml.MappingNode {
		return
	}

	pairs := make([][2]*yaml.Node, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		pairs = append(pairs, [2]*yaml.Node{n.Content[i], n.Content[i+1]})
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i][0].Value < pairs[j][0].Value })

	n.Content = n.Content[:0]
	for _, p := range pairs {
		n.Content = append(n.Content, p[0], p[1])
	}
}
