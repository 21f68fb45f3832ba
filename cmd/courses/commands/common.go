package commands

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
)

// LogLevelEnv overrides the log level when --verbose is not given.
const LogLevelEnv = "COURSES_LOG_LEVEL"

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
	// Stdout and Stderr default to the process streams.
	Stdout io.Writer
	Stderr io.Writer
}

func (g *Global) stdout() io.Writer {
	if g == nil || g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

func (g *Global) stderr() io.Writer {
	if g == nil || g.Stderr == nil {
		return os.Stderr
	}
	return g.Stderr
}

func (g *Global) logger() *slog.Logger {
	if g == nil || g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

// CLI definition & global flags.
type CLI struct {
	Project string           `short:"C" name:"project" help:"Course project directory" default:"." type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" help:"Build the web site and student sources of a course"`
	Serve ServeCmd `cmd:"" help:"Build, serve build/web and rebuild on change"`
	Init  InitCmd  `cmd:"" help:"Scaffold a new course project"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}))
	slog.SetDefault(logger)
	return nil
}

// ProjectDir returns the absolute project directory.
func (c *CLI) ProjectDir() string {
	abs, err := filepath.Abs(c.Project)
	if err != nil {
		return c.Project
	}
	return abs
}

// parseLogLevel resolves the level from --verbose and COURSES_LOG_LEVEL.
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	var level slog.Level
	if v := strings.TrimSpace(os.Getenv(LogLevelEnv)); v != "" {
		if err := level.UnmarshalText([]byte(v)); err == nil {
			return level
		}
	}
	return slog.LevelInfo
}
