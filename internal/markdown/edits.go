package markdown

import (
	"bytes"
	"fmt"
	"sort"
)

// Edit replaces source[Start:End] with Replacement. Offsets refer to the
// original source and End is exclusive.
type Edit struct {
	Start       int
	End         int
	Replacement []byte
}

// ApplyEdits applies non-overlapping edits in one pass, leaving every byte
// outside the edited ranges untouched.
func ApplyEdits(source []byte, edits []Edit) ([]byte, error) {
	if len(edits) == 0 {
		return source, nil
	}

	sorted := append([]Edit(nil), edits...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var out bytes.Buffer
	out.Grow(len(source))
	pos := 0
	for i, e := range sorted {
		switch {
		case e.Start < 0 || e.End > len(source) || e.End < e.Start:
			return nil, fmt.Errorf("edit %d: invalid range [%d,%d) for %d bytes", i, e.Start, e.End, len(source))
		case e.Start < pos:
			return nil, fmt.Errorf("edit %d: overlaps previous edit ending at %d", i, pos)
		}
		out.Write(source[pos:e.Start])
		out.Write(e.Replacement)
		pos = e.End
	}
	out.Write(source[pos:])
	return out.Bytes(), nil
}
