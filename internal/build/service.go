package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/courses/internal/report"
)

// Project layout, relative to the project directory.
const (
	ContentDir    = "content"
	TemplatesDir  = "templates"
	ResourcesDir  = "resources"
	OutputDir     = "build"
	ShortcodesDir = "shortcodes"
	LayoutsDir    = "layouts"
)

// Service is the canonical interface for executing course builds. The CLI
// build command and the serve loop are thin wrappers over it.
type Service interface {
	Run(ctx context.Context, req Request) (*Result, error)
}

// Request contains all inputs required to execute a build.
type Request struct {
	// ProjectDir holds config.yml, content/, templates/ and resources/.
	ProjectDir string
	// Profile selects the build profile (dev, release or a custom one).
	Profile string
	Options Options
}

// Options provides optional build behaviour modifiers.
type Options struct {
	// Workers bounds document parallelism. Zero means GOMAXPROCS.
	Workers int
	// NoClean keeps existing files in build/web and build/source.
	NoClean bool
	// ReportPath writes a JSON build report when set.
	ReportPath string
}

// Result contains the outcome of a build execution.
type Result struct {
	Status  Status
	BuildID string
	Profile string
	// Written is the number of output documents written across all targets.
	Written  int
	Assets   int
	Failures []Failure
	Report   *report.Report

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Status represents the outcome of a build execution.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusPartial  Status = "partial"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// IsSuccess returns true if every document was built.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}
