package markdown

import (
	"bytes"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// CodeBlock locates a code block inside a markdown source.
type CodeBlock struct {
	// Language is the first word of the fence info string.
	Language string
	Fenced   bool
	// Start and End bound the whole block, fences included.
	Start int
	End   int
	// BodyStart and BodyEnd bound the raw content lines.
	BodyStart int
	BodyEnd   int
	// Lines bound each content line without its container prefix
	// (blockquote markers, list indentation).
	Lines []Region
}

// Body returns the content lines of the block with container prefixes
// removed.
func (b CodeBlock) Body(src []byte) []byte {
	if len(b.Lines) == 0 {
		return nil
	}
	var buf bytes.Buffer
	for _, l := range b.Lines {
		buf.Write(src[l.Start:l.End])
	}
	return buf.Bytes()
}

// Rewrite returns an edit that replaces the block content with body. Every
// line of body is written behind the container prefix of the source line at
// the same position, or of the last source line once body is longer.
func (b CodeBlock) Rewrite(src []byte, body string) Edit {
	if len(b.Lines) == 0 {
		return Edit{Start: b.BodyStart, End: b.BodyEnd, Replacement: []byte(body)}
	}
	prefixes := make([]string, len(b.Lines))
	for i, l := range b.Lines {
		prefixes[i] = string(src[lineStart(src, l.Start):l.Start])
	}

	var buf bytes.Buffer
	for i, line := range splitLines(body) {
		buf.WriteString(prefixes[min(i, len(prefixes)-1)])
		buf.WriteString(line)
	}
	return Edit{Start: lineStart(src, b.Lines[0].Start), End: b.BodyEnd, Replacement: buf.Bytes()}
}

func splitLines(s string) []string {
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func segmentRegions(lines *text.Segments) []Region {
	regions := make([]Region, lines.Len())
	for i := range regions {
		seg := lines.At(i)
		regions[i] = Region{Start: seg.Start, End: seg.Stop}
	}
	return regions
}

// Region is a half-open byte range.
type Region struct {
	Start int
	End   int
}

// Regions is a sorted set of non-overlapping ranges.
type Regions []Region

// Contains reports whether offset falls inside any region.
func (rs Regions) Contains(offset int) bool {
	i := sort.Search(len(rs), func(i int) bool { return rs[i].End > offset })
	return i < len(rs) && rs[i].Start <= offset
}

// Overlaps reports whether [start,end) intersects any region.
func (rs Regions) Overlaps(start, end int) bool {
	i := sort.Search(len(rs), func(i int) bool { return rs[i].End > start })
	return i < len(rs) && rs[i].Start < end
}

var blockParser = goldmark.New(goldmark.WithExtensions(extension.GFM)).Parser()

func parse(src []byte) gmast.Node {
	return blockParser.Parse(text.NewReader(src))
}

// CodeBlocks returns fenced and indented code blocks in source order.
func CodeBlocks(src []byte) []CodeBlock {
	var blocks []CodeBlock
	cursor := 0
	_ = gmast.Walk(parse(src), func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.FencedCodeBlock:
			b := fencedBlock(src, node, cursor)
			cursor = b.End
			blocks = append(blocks, b)
			return gmast.WalkSkipChildren, nil
		case *gmast.CodeBlock:
			lines := node.Lines()
			if lines.Len() == 0 {
				return gmast.WalkSkipChildren, nil
			}
			start := lines.At(0).Start
			end := lines.At(lines.Len() - 1).Stop
			cursor = end
			blocks = append(blocks, CodeBlock{
				Start:     lineStart(src, start),
				End:       end,
				BodyStart: start,
				BodyEnd:   end,
				Lines:     segmentRegions(lines),
			})
			return gmast.WalkSkipChildren, nil
		}
		return gmast.WalkContinue, nil
	})
	return blocks
}

func fencedBlock(src []byte, node *gmast.FencedCodeBlock, cursor int) CodeBlock {
	block := CodeBlock{Fenced: true, Language: string(node.Language(src))}
	lines := node.Lines()

	switch {
	case node.Info != nil:
		block.Start = lineStart(src, node.Info.Segment.Start)
	case lines.Len() > 0:
		block.Start = lineStart(src, lines.At(0).Start-1)
	default:
		// Bare empty fence: goldmark keeps no offsets, so look for it textually.
		block.Start = firstFenceAfter(src, cursor)
	}

	openEnd := nextLine(src, block.Start)
	block.Lines = segmentRegions(lines)
	if lines.Len() > 0 {
		block.BodyStart = lines.At(0).Start
		block.BodyEnd = lines.At(lines.Len() - 1).Stop
	} else {
		block.BodyStart = openEnd
		block.BodyEnd = openEnd
	}

	block.End = block.BodyEnd
	if block.End < len(src) && isFenceLine(src[block.End:nextLine(src, block.End)]) {
		block.End = nextLine(src, block.End)
	}
	return block
}

// CodeRegions returns every region whose content must be treated literally:
// fenced blocks, indented blocks and inline code spans.
func CodeRegions(src []byte) Regions {
	var regions Regions
	for _, b := range CodeBlocks(src) {
		regions = append(regions, Region{Start: b.Start, End: b.End})
	}

	_ = gmast.Walk(parse(src), func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		span, ok := n.(*gmast.CodeSpan)
		if !ok {
			return gmast.WalkContinue, nil
		}
		start, end := -1, -1
		for c := span.FirstChild(); c != nil; c = c.NextSibling() {
			t, ok := c.(*gmast.Text)
			if !ok {
				continue
			}
			if start < 0 {
				start = t.Segment.Start
			}
			end = t.Segment.Stop
		}
		if start < 0 {
			return gmast.WalkSkipChildren, nil
		}
		for start > 0 && src[start-1] == '`' {
			start--
		}
		for end < len(src) && src[end] == '`' {
			end++
		}
		regions = append(regions, Region{Start: start, End: end})
		return gmast.WalkSkipChildren, nil
	})

	sort.Slice(regions, func(i, j int) bool { return regions[i].Start < regions[j].Start })
	return regions
}

func lineStart(src []byte, pos int) int {
	if pos <= 0 {
		return 0
	}
	if pos > len(src) {
		pos = len(src)
	}
	return bytes.LastIndexByte(src[:pos], '\n') + 1
}

func nextLine(src []byte, pos int) int {
	i := bytes.IndexByte(src[pos:], '\n')
	if i < 0 {
		return len(src)
	}
	return pos + i + 1
}

func isFenceLine(line []byte) bool {
	trimmed := bytes.TrimLeft(line, " ")
	return bytes.HasPrefix(trimmed, []byte("```")) || bytes.HasPrefix(trimmed, []byte("~~~"))
}

func firstFenceAfter(src []byte, pos int) int {
	for pos < len(src) {
		end := nextLine(src, pos)
		if isFenceLine(src[pos:end]) {
			return pos
		}
		pos = end
	}
	return len(src)
}
