package commands

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"

	"git.home.luguber.info/inful/courses/internal/build"
	"git.home.luguber.info/inful/courses/internal/config"
	"git.home.luguber.info/inful/courses/internal/logfields"
	"git.home.luguber.info/inful/courses/internal/metrics"
	"git.home.luguber.info/inful/courses/internal/preview"
	"git.home.luguber.info/inful/courses/internal/watch"
)

const shutdownTimeout = 5 * time.Second

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Profile string        `short:"p" help:"Build profile used for every rebuild" default:"dev"`
	Host    string        `help:"Interface to listen on" default:"localhost"`
	Port    int           `help:"Port to serve build/web on" default:"8000"`
	Poll    time.Duration `help:"Also poll the project for changes at this interval (0 polls only when filesystem notifications are unavailable)" default:"0s"`
	Workers int           `short:"w" help:"Documents processed in parallel (0 = GOMAXPROCS)" default:"0"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	projectDir := root.ProjectDir()
	log := g.logger()
	recorder := metrics.NewPrometheusRecorder(nil)
	sess := &session{
		global: g,
		svc:    build.NewBuildService().WithLogger(log).WithRecorder(recorder),
		req: build.Request{
			ProjectDir: projectDir,
			Profile:    s.Profile,
			Options:    build.Options{Workers: s.Workers},
		},
	}

	// The first build may fail; the author fixes it while we watch.
	if err := sess.rebuild(ctx); err != nil {
		log.Error("Initial build failed", logfields.Error(err))
	}

	srv := preview.New(preview.Options{
		Root:    filepath.Join(projectDir, build.OutputDir, build.TargetWeb.Dir()),
		Addr:    net.JoinHostPort(s.Host, strconv.Itoa(s.Port)),
		Prefix:  urlPrefix(projectDir),
		Metrics: recorder.HTTPHandler(),
		Status:  sess.last,
		Logger:  log,
	})
	if err := srv.Start(ctx); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.stdout(), "Serving course at %s (Ctrl+C to stop)\n", srv.URL())

	err := watch.Run(ctx, watch.Options{
		Roots:  []string{projectDir},
		Ignore: []string{filepath.Join(projectDir, build.OutputDir)},
		Poll:   s.Poll,
		Logger: log,
	}, func(ctx context.Context) {
		log.Info("Change detected, rebuilding")
		if err := sess.rebuild(ctx); err != nil && ctx.Err() == nil {
			log.Error("Rebuild failed", logfields.Error(err))
		}
	})

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		log.Warn("Preview server shutdown failed", logfields.Error(serr))
	}
	return err
}

// session rebuilds one project and remembers the latest result.
type session struct {
	global *Global
	svc    build.Service
	req    build.Request

	mu     sync.Mutex
	result *build.Result
}

func (s *session) rebuild(ctx context.Context) error {
	res, err := RunBuild(ctx, s.global, s.svc, s.req)
	if res != nil {
		s.mu.Lock()
		s.result = res
		s.mu.Unlock()
	}
	return err
}

func (s *session) last() *build.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// urlPrefix reads url_prefix for the preview server. Configuration errors
// are reported by the build itself.
func urlPrefix(projectDir string) string {
	cfg, err := config.ResolveGlobal(filepath.Join(projectDir, config.FileName))
	if err != nil {
		return ""
	}
	return cfg.URLPrefix
}
