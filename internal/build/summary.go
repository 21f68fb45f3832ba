package build

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	foundation "git.home.luguber.info/inful/courses/internal/foundation/errors"
)

var (
	okStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3FB950"))
	failStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	pathStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF"))
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

// Summary renders the human-readable outcome of a build, listing every
// failed document with the reason and location.
func Summary(res *Result) string {
	var b strings.Builder

	head := fmt.Sprintf("Built %d output(s), %d asset(s) with profile %s in %s",
		res.Written, res.Assets, res.Profile, res.Duration.Truncate(time.Millisecond))
	switch res.Status {
	case StatusSuccess:
		b.WriteString(okStyle.Render("✓ " + head))
	case StatusCanceled:
		b.WriteString(failStyle.Render("✗ Build canceled: " + head))
	default:
		b.WriteString(failStyle.Render("✗ " + head))
	}
	b.WriteByte('\n')

	if len(res.Failures) == 0 {
		return b.String()
	}
	fmt.Fprintf(&b, "%s\n", failStyle.Render(fmt.Sprintf("%d document(s) failed:", len(failedPaths(res.Failures)))))
	for _, f := range res.Failures {
		label := f.Path
		if f.Target != "" {
			label += " [" + string(f.Target) + "]"
		}
		fmt.Fprintf(&b, "  %s %s\n", pathStyle.Render(label), describe(f.Err))
	}
	return b.String()
}

// describe renders an error message followed by its location context.
func describe(err error) string {
	ce, ok := foundation.AsClassified(err)
	if !ok {
		return err.Error()
	}
	msg := ce.Message()
	if cause := ce.Cause(); cause != nil {
		msg += ": " + cause.Error()
	}

	var details []string
	ctx := ce.Context()
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		if k != "document" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		details = append(details, fmt.Sprintf("%s=%v", k, ctx[k]))
	}
	if ce.Kind() != foundation.KindNone {
		details = append([]string{string(ce.Kind())}, details...)
	}
	if len(details) == 0 {
		return msg
	}
	return msg + " " + detailStyle.Render("("+strings.Join(details, ", ")+")")
}
