package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/courses/cmd/courses/commands"
	"git.home.luguber.info/inful/courses/internal/build"
	foundation "git.home.luguber.info/inful/courses/internal/foundation/errors"
	"git.home.luguber.info/inful/courses/internal/version"
)

// exitInterrupted follows the shell convention for SIGINT.
const exitInterrupted = 130

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("courses"),
		kong.Description("Build course web sites and student notebooks from one content tree."),
		kong.Vars{"version": version.String()},
		kong.UsageOnError(),
	)

	global := &commands.Global{Logger: slog.Default()}
	err := parser.Run(global, cli)
	if err == nil {
		return
	}
	if errors.Is(err, build.ErrCanceled) {
		slog.Warn("Build interrupted")
		os.Exit(exitInterrupted)
	}
	foundation.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
