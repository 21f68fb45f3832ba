package build

import (
	"git.home.luguber.info/inful/courses/internal/content"
	"git.home.luguber.info/inful/courses/internal/exercise"
	"git.home.luguber.info/inful/courses/internal/shortcode"
)

// Target is one of the artifacts a build produces.
type Target string

const (
	TargetWeb      Target = "web"
	TargetNotebook Target = "notebook"
)

// Targets lists every target in build order.
var Targets = []Target{TargetWeb, TargetNotebook}

// Dir is the target's directory below build/.
func (t Target) Dir() string {
	if t == TargetNotebook {
		return "source"
	}
	return "web"
}

// Mode is the exercise transform applied for the target.
func (t Target) Mode() exercise.Mode {
	if t == TargetNotebook {
		return exercise.ModePlaceholder
	}
	return exercise.ModeSolution
}

// ShortcodeFormat is the shortcode template set used for the target.
func (t Target) ShortcodeFormat() shortcode.Format {
	if t == TargetNotebook {
		return shortcode.FormatMarkdown
	}
	return shortcode.FormatHTML
}

// Enabled reports whether a node's output gates select the target.
func (t Target) Enabled(n *content.Node) bool {
	if t == TargetNotebook {
		return n.Config.Output.Source
	}
	return n.Config.Output.Web
}
