package shortcode

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	foundation "git.home.luguber.info/inful/courses/internal/foundation/errors"
	"git.home.luguber.info/inful/courses/internal/markdown"
)

var errNotShortcode = errors.New("not a shortcode")

var missingKey = regexp.MustCompile(`map has no entry for key "([^"]+)"`)

// Session expands shortcodes for one document and one format. The num
// counter passed to templates runs across every Expand call of a session, so
// notebooks can expand cell by cell.
type Session struct {
	lib    *Library
	format Format
	counts map[string]int
}

// NewSession starts a document-scoped expansion in format.
func (l *Library) NewSession(format Format) *Session {
	return &Session{lib: l, format: format, counts: map[string]int{}}
}

// Expand replaces every shortcode in src that lies outside code blocks and
// code spans with its rendered template.
func (s *Session) Expand(src []byte) ([]byte, error) {
	text := string(src)
	if !strings.Contains(text, "{{") && !strings.Contains(text, "{%") {
		return src, nil
	}
	out, err := s.expand(text)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

func (s *Session) expand(text string) (string, error) {
	code := markdown.CodeRegions([]byte(text))

	var out strings.Builder
	pos := 0
	for i := 0; i+1 < len(text); i++ {
		if text[i] != '{' || (text[i+1] != '{' && text[i+1] != '%') || code.Contains(i) {
			continue
		}

		inv, ok, err := s.scan(text, i)
		if err != nil {
			return "", s.syntaxError(text, i, err)
		}
		if !ok {
			continue
		}

		rendered, err := s.render(text, inv)
		if err != nil {
			ce, isClassified := foundation.AsClassified(err)
			if isClassified {
				if _, has := ce.Context().Get("line"); !has {
					return "", ce.WithContext("line", lineOf(text, i))
				}
			}
			return "", err
		}
		out.WriteString(text[pos:inv.Start])
		out.WriteString(rendered)
		pos = inv.End
		i = inv.End - 1
	}
	out.WriteString(text[pos:])
	return out.String(), nil
}

// scan parses the shortcode opening at i. ok is false when the text merely
// looks like a delimiter.
func (s *Session) scan(text string, i int) (Invocation, bool, error) {
	block := text[i+1] == '%'
	closing := "}}"
	if block {
		closing = "%}"
	}

	inv, end, err := parseCall(text, i+2, closing)
	if errors.Is(err, errNotShortcode) {
		return inv, false, nil
	}
	if err != nil {
		return inv, false, err
	}
	inv.Start = i
	inv.End = end
	inv.Block = block
	if !block {
		return inv, true, nil
	}

	bodyEnd, closeEnd, found := findBlockEnd(text, end, inv.Name)
	if !found {
		return inv, false, fmt.Errorf("shortcode %q: missing {%% end_%s %%}", inv.Name, inv.Name)
	}
	inv.BodyStart = end
	inv.BodyEnd = bodyEnd
	inv.End = closeEnd
	return inv, true, nil
}

// findBlockEnd finds the end tag matching a block opened before pos,
// honouring nested blocks of the same name.
func findBlockEnd(text string, pos int, name string) (bodyEnd, closeEnd int, found bool) {
	tag := regexp.MustCompile(`\{%\s*(end_)?` + regexp.QuoteMeta(name) + `\s*(\(|%\})`)
	depth := 1
	for _, m := range tag.FindAllStringSubmatchIndex(text[pos:], -1) {
		isEnd := m[2] >= 0
		if !isEnd {
			depth++
			continue
		}
		if text[pos+m[4]:pos+m[5]] != "%}" {
			continue
		}
		depth--
		if depth == 0 {
			return pos + m[0], pos + m[1], true
		}
	}
	return 0, 0, false
}

func (s *Session) render(text string, inv Invocation) (string, error) {
	tpl, ok := s.lib.lookup(s.format, inv.Name)
	if !ok {
		return "", foundation.RenderError(fmt.Sprintf("unknown shortcode %q", inv.Name)).
			WithKind(foundation.KindUnknownShortcode).
			WithContext("shortcode", inv.Name).
			WithContext("format", string(s.format)).
			Build()
	}

	data, err := s.lib.bind(inv)
	if err != nil {
		return "", err
	}
	if inv.Block {
		body, err := s.expand(text[inv.BodyStart:inv.BodyEnd])
		if err != nil {
			return "", err
		}
		data["body"] = strings.Trim(body, "\n")
	}
	s.counts[inv.Name]++
	data["num"] = s.counts[inv.Name]

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		if m := missingKey.FindStringSubmatch(err.Error()); m != nil {
			return "", foundation.WrapError(err, foundation.CategoryRender, fmt.Sprintf("shortcode %q: missing argument %q", inv.Name, m[1])).
				WithKind(foundation.KindMissingArgument).
				WithContext("shortcode", inv.Name).
				WithContext("argument", m[1]).
				Build()
		}
		return "", foundation.WrapError(err, foundation.CategoryRender, fmt.Sprintf("shortcode %q failed", inv.Name)).
			WithKind(foundation.KindTemplate).
			WithContext("shortcode", inv.Name).
			Build()
	}
	return buf.String(), nil
}

func (s *Session) syntaxError(text string, i int, err error) error {
	return foundation.WrapError(err, foundation.CategoryRender, "malformed shortcode").
		WithKind(foundation.KindTemplate).
		WithContext("line", lineOf(text, i)).
		Build()
}

func lineOf(text string, offset int) int {
	return strings.Count(text[:offset], "\n") + 1
}
