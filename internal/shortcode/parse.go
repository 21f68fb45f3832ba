package shortcode

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Invocation is one parsed shortcode call.
type Invocation struct {
	Name string
	// Named holds key=value arguments.
	Named map[string]any
	// Positional holds bare values in call order.
	Positional []any
	// Block is set for {% name() %} ... {% end_name %} calls.
	Block bool
	// Start and End bound the whole call (body included for blocks).
	Start int
	End   int
	// BodyStart and BodyEnd bound a block body.
	BodyStart int
	BodyEnd   int
}

// parseCall parses "name(args)" followed by the closing delimiter, starting at
// pos which points just past the opening delimiter. It returns the offset
// after the closing delimiter.
func parseCall(src string, pos int, closing string) (Invocation, int, error) {
	inv := Invocation{Named: map[string]any{}}
	p := skipSpace(src, pos)

	nameStart := p
	for p < len(src) && isNameChar(rune(src[p]), p == nameStart) {
		p++
	}
	if p == nameStart {
		return inv, 0, errNotShortcode
	}
	inv.Name = src[nameStart:p]

	p = skipSpace(src, p)
	if p >= len(src) || src[p] != '(' {
		return inv, 0, errNotShortcode
	}
	p++

	for {
		p = skipSpace(src, p)
		if p >= len(src) {
			return inv, 0, fmt.Errorf("shortcode %q: unterminated argument list", inv.Name)
		}
		if src[p] == ')' {
			p++
			break
		}

		key := ""
		keyEnd := p
		for keyEnd < len(src) && isNameChar(rune(src[keyEnd]), keyEnd == p) {
			keyEnd++
		}
		if eq := skipSpace(src, keyEnd); keyEnd > p && eq < len(src) && src[eq] == '=' {
			key = src[p:keyEnd]
			p = skipSpace(src, eq+1)
		}

		value, next, err := parseValue(src, p)
		if err != nil {
			return inv, 0, fmt.Errorf("shortcode %q: %w", inv.Name, err)
		}
		if key != "" {
			if _, dup := inv.Named[key]; dup {
				return inv, 0, fmt.Errorf("shortcode %q: argument %q given twice", inv.Name, key)
			}
			inv.Named[key] = value
		} else {
			if len(inv.Named) > 0 {
				return inv, 0, fmt.Errorf("shortcode %q: positional argument after named argument", inv.Name)
			}
			inv.Positional = append(inv.Positional, value)
		}

		p = skipSpace(src, next)
		if p < len(src) && src[p] == ',' {
			p++
		}
	}

	p = skipSpace(src, p)
	if !strings.HasPrefix(src[p:], closing) {
		return inv, 0, fmt.Errorf("shortcode %q: expected %q", inv.Name, closing)
	}
	return inv, p + len(closing), nil
}

func parseValue(src string, p int) (any, int, error) {
	if p >= len(src) {
		return nil, p, fmt.Errorf("missing value")
	}
	if q := src[p]; q == '"' || q == '\'' {
		var b strings.Builder
		for i := p + 1; i < len(src); i++ {
			c := src[i]
			switch {
			case c == '\\' && i+1 < len(src):
				i++
				b.WriteByte(unescape(src[i]))
			case c == q:
				return b.String(), i + 1, nil
			default:
				b.WriteByte(c)
			}
		}
		return nil, p, fmt.Errorf("unterminated string")
	}

	end := p
	for end < len(src) && src[end] != ',' && src[end] != ')' && !unicode.IsSpace(rune(src[end])) {
		end++
	}
	if end == p {
		return nil, p, fmt.Errorf("missing value")
	}
	return bareValue(src[p:end]), end, nil
}

func bareValue(s string) any {
	if b, err := strconv.ParseBool(s); err == nil && (s == "true" || s == "false") {
		return b
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func unescape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	}
	return c
}

func skipSpace(src string, p int) int {
	for p < len(src) && unicode.IsSpace(rune(src[p])) {
		p++
	}
	return p
}

func isNameChar(r rune, first bool) bool {
	if r == '_' || (r < unicode.MaxASCII && unicode.IsLetter(r)) {
		return true
	}
	return !first && (r == '-' || unicode.IsDigit(r))
}
