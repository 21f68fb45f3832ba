package exercise

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	foundation "git.home.luguber.info/inful/courses/internal/foundation/errors"
	"git.home.luguber.info/inful/courses/internal/markdown"
	"git.home.luguber.info/inful/courses/internal/notebook"
)

// Mode selects which side of an exercise is kept.
type Mode int

const (
	// ModeSolution keeps solutions. Used for the web target.
	ModeSolution Mode = iota
	// ModePlaceholder keeps placeholders. Used for the notebook target.
	ModePlaceholder
)

func (m Mode) String() string {
	if m == ModePlaceholder {
		return "placeholder"
	}
	return "solution"
}

// StubText follows the comment leader on lines inserted for solutions
// without a placeholder.
const StubText = "Write your solution here"

var markerLine = regexp.MustCompile(`^([ \t]*)(#|//|--|%)\|[ \t]*(begin|end)_(solution|placeholder)[ \t]*\r?\n?$`)

type regionKind int

const (
	regionText regionKind = iota
	regionSolution
	regionPlaceholder
)

func (k regionKind) String() string {
	if k == regionPlaceholder {
		return "placeholder"
	}
	return "solution"
}

type segment struct {
	kind    regionKind
	lines   []string
	indent  string
	comment string
}

type markerError struct {
	line int
	msg  string
}

// HasMarkers reports whether code contains any exercise marker line.
func HasMarkers(code string) bool {
	for _, l := range strings.SplitAfter(code, "\n") {
		if markerLine.MatchString(l) {
			return true
		}
	}
	return false
}

// Transform rewrites code for mode. Unmatched or nested markers fail with an
// UnbalancedMarker transform error carrying the 1-based line number.
func Transform(code string, mode Mode) (string, error) {
	out, merr := transform(code, mode)
	if merr != nil {
		return "", newUnbalanced(merr, merr.line).Build()
	}
	return out, nil
}

func transform(code string, mode Mode) (string, *markerError) {
	segments, merr := split(code)
	if merr != nil {
		return "", merr
	}

	var b strings.Builder
	b.Grow(len(code))
	for i, seg := range segments {
		switch seg.kind {
		case regionText:
			writeLines(&b, seg.lines)
		case regionSolution:
			if mode == ModeSolution {
				writeLines(&b, seg.lines)
			} else if !followedByPlaceholder(segments, i) {
				fmt.Fprintf(&b, "%s%s %s\n", seg.indent, seg.comment, StubText)
			}
		case regionPlaceholder:
			if mode == ModePlaceholder {
				writeLines(&b, seg.lines)
			}
		}
	}

	out := b.String()
	if !strings.HasSuffix(code, "\n") {
		out = strings.TrimSuffix(out, "\n")
	}
	return out, nil
}

func split(code string) ([]segment, *markerError) {
	var (
		segments []segment
		current  = segment{kind: regionText}
		openLine int
	)
	lines := strings.SplitAfter(code, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	for i, line := range lines {
		m := markerLine.FindStringSubmatch(line)
		if m == nil {
			current.lines = append(current.lines, line)
			continue
		}
		lineNo := i + 1
		kind := regionSolution
		if m[4] == "placeholder" {
			kind = regionPlaceholder
		}

		if m[3] == "begin" {
			if current.kind != regionText {
				return nil, &markerError{line: lineNo, msg: fmt.Sprintf("begin_%s inside %s region opened at line %d", kind, current.kind, openLine)}
			}
			segments = append(segments, current)
			current = segment{kind: kind, indent: m[1], comment: m[2]}
			openLine = lineNo
			continue
		}

		if current.kind == regionText {
			return nil, &markerError{line: lineNo, msg: fmt.Sprintf("end_%s without matching begin_%s", kind, kind)}
		}
		if current.kind != kind {
			return nil, &markerError{line: lineNo, msg: fmt.Sprintf("end_%s closes %s region opened at line %d", kind, current.kind, openLine)}
		}
		segments = append(segments, current)
		current = segment{kind: regionText}
	}

	if current.kind != regionText {
		return nil, &markerError{line: openLine, msg: fmt.Sprintf("begin_%s is never closed", current.kind)}
	}
	return append(segments, current), nil
}

func followedByPlaceholder(segments []segment, i int) bool {
	for _, next := range segments[i+1:] {
		switch next.kind {
		case regionPlaceholder:
			return true
		case regionSolution:
			return false
		}
		for _, l := range next.lines {
			if strings.TrimSpace(l) != "" {
				return false
			}
		}
	}
	return false
}

func writeLines(b *strings.Builder, lines []string) {
	for _, l := range lines {
		b.WriteString(l)
		if !strings.HasSuffix(l, "\n") {
			b.WriteByte('\n')
		}
	}
}

func newUnbalanced(merr *markerError, line int) *foundation.ErrorBuilder {
	return foundation.TransformError("unbalanced exercise marker: "+merr.msg).
		WithKind(foundation.KindUnbalancedMarker).
		WithContext("line", line)
}

// TransformMarkdown rewrites every code block of a markdown body. Reported
// line numbers are relative to src.
func TransformMarkdown(src []byte, mode Mode) ([]byte, error) {
	var edits []markdown.Edit
	for _, block := range markdown.CodeBlocks(src) {
		body := string(block.Body(src))
		if !HasMarkers(body) {
			continue
		}
		out, merr := transform(body, mode)
		if merr != nil {
			line := bytes.Count(src[:block.BodyStart], []byte("\n")) + merr.line
			return nil, newUnbalanced(merr, line).Build()
		}
		edits = append(edits, block.Rewrite(src, out))
	}
	return markdown.ApplyEdits(src, edits)
}

// TransformNotebook rewrites the source of every code cell in place.
func TransformNotebook(nb *notebook.Notebook, mode Mode) error {
	for i := range nb.Cells {
		cell := &nb.Cells[i]
		if cell.Type != notebook.CellCode || !HasMarkers(string(cell.Source)) {
			continue
		}
		out, merr := transform(string(cell.Source), mode)
		if merr != nil {
			return newUnbalanced(merr, merr.line).WithContext("cell", i).Build()
		}
		cell.Source = notebook.Source(out)
	}
	return nil
}
