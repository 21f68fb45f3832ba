package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/courses/internal/build"
	"git.home.luguber.info/inful/courses/internal/config"
	"git.home.luguber.info/inful/courses/internal/logfields"
	"git.home.luguber.info/inful/courses/internal/metrics"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Profile     string `short:"p" help:"Build profile (dev, release or a custom profile from config.yml)" default:"dev"`
	Workers     int    `short:"w" help:"Documents processed in parallel (0 = GOMAXPROCS)" default:"0"`
	NoClean     bool   `name:"no-clean" help:"Keep existing files in build/web and build/source"`
	Report      string `name:"report" help:"Write a JSON build report to this file" type:"path"`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics in textfile format to this file" type:"path"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var recorder *metrics.PrometheusRecorder
	svc := build.NewBuildService().WithLogger(g.logger())
	if b.MetricsFile != "" {
		recorder = metrics.NewPrometheusRecorder(nil)
		svc.WithRecorder(recorder)
	}

	_, err := RunBuild(ctx, g, svc, build.Request{
		ProjectDir: root.ProjectDir(),
		Profile:    b.Profile,
		Options: build.Options{
			Workers:    b.Workers,
			NoClean:    b.NoClean,
			ReportPath: b.Report,
		},
	})

	if recorder != nil {
		if werr := recorder.WriteTextfile(b.MetricsFile); werr != nil {
			g.logger().Warn("Failed to write metrics textfile", logfields.Path(b.MetricsFile), logfields.Error(werr))
		}
	}
	return err
}

// RunBuild runs one build and prints its summary to stderr. Fatal errors
// produce no summary and are returned unchanged.
func RunBuild(ctx context.Context, g *Global, svc build.Service, req build.Request) (*build.Result, error) {
	if req.Profile == "" {
		req.Profile = config.ProfileDev
	}
	res, err := svc.Run(ctx, req)
	if res != nil {
		_, _ = fmt.Fprintln(g.stderr(), build.Summary(res))
	}
	return res, err
}
