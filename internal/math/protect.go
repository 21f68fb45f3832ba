package math

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/google/uuid"

	foundation "git.home.luguber.info/inful/courses/internal/foundation/errors"
)

// Protected holds math pulled out of a markdown source so the markdown
// renderer cannot mangle it.
type Protected struct {
	prefix string
	spans  []Span
	html   []string
}

// Protect replaces every math span in src with an opaque token. With a non-nil
// renderer each expression is precompiled now; otherwise Restore emits the
// original TeX for client-side rendering.
func Protect(ctx context.Context, src []byte, r Renderer) ([]byte, *Protected, error) {
	p := &Protected{prefix: "MATH" + strings.ReplaceAll(uuid.NewString(), "-", "")}
	p.spans = FindSpans(src)
	if len(p.spans) == 0 {
		return src, p, nil
	}

	var out bytes.Buffer
	pos := 0
	for i, s := range p.spans {
		var rendered string
		if r != nil {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			var err error
			rendered, err = r.Render(ctx, s.TeX, s.Display)
			if err != nil {
				return nil, nil, foundation.WrapError(err, foundation.CategoryRender, "math precompilation failed").
					WithKind(foundation.KindMath).
					WithContext("line", bytes.Count(src[:s.Start], []byte("\n"))+1).
					WithContext("tex", s.TeX).
					Build()
			}
		} else {
			rendered = clientSide(s)
		}
		p.html = append(p.html, wrap(rendered, s.Display))

		out.Write(src[pos:s.Start])
		out.WriteString(p.token(i))
		pos = s.End
	}
	out.Write(src[pos:])
	return out.Bytes(), p, nil
}

// Count reports the number of protected expressions.
func (p *Protected) Count() int {
	return len(p.spans)
}

// Restore substitutes rendered math back into HTML produced from the
// protected source. Display math that ended up alone in a paragraph replaces
// the paragraph.
func (p *Protected) Restore(htmlOut []byte) []byte {
	if len(p.spans) == 0 {
		return htmlOut
	}
	pairs := make([]string, 0, 4*len(p.spans))
	for i := range p.spans {
		tok := p.token(i)
		if p.spans[i].Display {
			pairs = append(pairs, "<p>"+tok+"</p>", p.html[i])
		}
		pairs = append(pairs, tok, p.html[i])
	}
	return []byte(strings.NewReplacer(pairs...).Replace(string(htmlOut)))
}

func (p *Protected) token(i int) string {
	return fmt.Sprintf("%sX%dX", p.prefix, i)
}

func clientSide(s Span) string {
	if s.Display {
		return "$$" + html.EscapeString(s.TeX) + "$$"
	}
	return "$" + html.EscapeString(s.TeX) + "$"
}

func wrap(rendered string, display bool) string {
	if display {
		return `<div class="math math-display">` + rendered + `</div>`
	}
	return `<span class="math math-inline">` + rendered + `</span>`
}
