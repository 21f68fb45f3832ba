package math

import (
	"bytes"

	"git.home.luguber.info/inful/courses/internal/markdown"
)

// Span is one math expression found in markdown.
type Span struct {
	Start   int
	End     int
	TeX     string
	Display bool
}

// FindSpans locates $...$ and $$...$$ expressions outside code. Inline math
// stays on one line, must not start or end with a space and must not be
// followed by a digit, so prices like "$5 and $6" are left alone. A
// backslash escapes a dollar sign.
func FindSpans(src []byte) []Span {
	if bytes.IndexByte(src, '$') < 0 {
		return nil
	}
	code := markdown.CodeRegions(src)

	var spans []Span
	for i := 0; i < len(src); i++ {
		if src[i] != '$' || isEscaped(src, i) || code.Contains(i) {
			continue
		}

		if i+1 < len(src) && src[i+1] == '$' {
			end := findDisplayEnd(src, i+2)
			if end < 0 || code.Overlaps(i, end+2) {
				i++
				continue
			}
			spans = append(spans, Span{Start: i, End: end + 2, TeX: string(bytes.TrimSpace(src[i+2 : end])), Display: true})
			i = end + 1
			continue
		}

		end := findInlineEnd(src, i+1)
		if end < 0 || code.Overlaps(i, end+1) {
			continue
		}
		spans = append(spans, Span{Start: i, End: end + 1, TeX: string(src[i+1 : end])})
		i = end
	}
	return spans
}

func findDisplayEnd(src []byte, from int) int {
	for j := from; j+1 < len(src); j++ {
		if src[j] == '$' && src[j+1] == '$' && !isEscaped(src, j) {
			if j == from {
				return -1
			}
			return j
		}
	}
	return -1
}

func findInlineEnd(src []byte, from int) int {
	if from >= len(src) || isSpace(src[from]) || src[from] == '$' {
		return -1
	}
	for j := from; j < len(src); j++ {
		switch {
		case src[j] == '\n':
			return -1
		case src[j] == '$' && !isEscaped(src, j):
			if isSpace(src[j-1]) || (j+1 < len(src) && src[j+1] >= '0' && src[j+1] <= '9') {
				return -1
			}
			return j
		}
	}
	return -1
}

func isEscaped(src []byte, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && src[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
