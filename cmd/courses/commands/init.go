package commands

import (
	"fmt"

	"git.home.luguber.info/inful/courses/internal/scaffold"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Dir   string `arg:"" optional:"" help:"Directory to create the project in (defaults to --project)" type:"path"`
	Force bool   `help:"Write into a directory that already holds a project"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	dir := i.Dir
	if dir == "" {
		dir = root.ProjectDir()
	}
	out := g.stdout()

	_, _ = fmt.Fprintf(out, "Initializing course project in %s\n", dir)
	written, err := scaffold.Init(dir, i.Force)
	if err != nil {
		_, _ = fmt.Fprintln(out, "Initialization failed")
		return err
	}
	for _, rel := range written {
		_, _ = fmt.Fprintf(out, "  created %s\n", rel)
	}
	_, _ = fmt.Fprintln(out, "initialized successfully")
	return nil
}
