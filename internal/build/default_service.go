package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/courses/internal/config"
	"git.home.luguber.info/inful/courses/internal/content"
	foundation "git.home.luguber.info/inful/courses/internal/foundation/errors"
	"git.home.luguber.info/inful/courses/internal/gitinfo"
	"git.home.luguber.info/inful/courses/internal/layout"
	"git.home.luguber.info/inful/courses/internal/logfields"
	"git.home.luguber.info/inful/courses/internal/markdown"
	"git.home.luguber.info/inful/courses/internal/math"
	"git.home.luguber.info/inful/courses/internal/metrics"
	"git.home.luguber.info/inful/courses/internal/report"
	"git.home.luguber.info/inful/courses/internal/shortcode"
)

// MathCacheSize bounds the number of precompiled expressions kept in memory.
const MathCacheSize = 4096

// RevisionFunc returns the revision stamped into pages, or "" for none.
type RevisionFunc func(projectDir string) string

// DefaultBuildService is the standard implementation of Service.
type DefaultBuildService struct {
	recorder metrics.Recorder
	logger   *slog.Logger
	revision RevisionFunc

	mathOnce sync.Once
	math     math.Renderer
	mathErr  error
}

// NewBuildService creates a DefaultBuildService with a Noop recorder, the
// default logger, git revision lookup and the katex binary for math.
func NewBuildService() *DefaultBuildService {
	return &DefaultBuildService{
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
		revision: gitRevision,
	}
}

// WithRecorder sets the metrics recorder.
func (s *DefaultBuildService) WithRecorder(r metrics.Recorder) *DefaultBuildService {
	if r != nil {
		s.recorder = r
	}
	return s
}

// WithLogger sets the logger.
func (s *DefaultBuildService) WithLogger(l *slog.Logger) *DefaultBuildService {
	if l != nil {
		s.logger = l
	}
	return s
}

// WithMathRenderer replaces the KaTeX renderer used by profiles with
// katex_output enabled. The renderer must be safe for concurrent use.
func (s *DefaultBuildService) WithMathRenderer(r math.Renderer) *DefaultBuildService {
	s.mathOnce.Do(func() {})
	s.math = r
	return s
}

// WithRevisionFunc overrides how the page revision is determined.
func (s *DefaultBuildService) WithRevisionFunc(fn RevisionFunc) *DefaultBuildService {
	s.revision = fn
	return s
}

func (s *DefaultBuildService) mathRenderer() (math.Renderer, error) {
	s.mathOnce.Do(func() {
		s.math, s.mathErr = math.NewCachedRenderer(math.NewKatexRenderer(""), MathCacheSize)
	})
	return s.math, s.mathErr
}

func gitRevision(projectDir string) string {
	rev, err := gitinfo.Lookup(projectDir)
	if err != nil {
		if !errors.Is(err, gitinfo.ErrNotRepository) {
			slog.Debug("Revision lookup failed", logfields.Error(err))
		}
		return ""
	}
	return rev.String()
}

// run holds the immutable state shared by the workers of one build.
type run struct {
	projectDir string
	contentDir string
	profile    string
	settings   config.ProfileSettings
	project    *config.ProjectConfig

	tree       *content.Tree
	shortcodes *shortcode.Library
	layouts    *layout.Layouts
	site       *layout.Site
	markdown   *markdown.Renderer
	math       math.Renderer
	revision   string

	recorder  metrics.Recorder
	report    *report.Report
	collector *collector
	log       *slog.Logger
}

func (r *run) outDir(t Target) string {
	return filepath.Join(r.projectDir, OutputDir, t.Dir())
}

// stage times fn and records the duration.
func (r *run) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)
	r.recorder.ObserveStageDuration(name, d)
	r.report.RecordStage(name, d)
	r.log.Debug("Stage finished", logfields.Stage(name), logfields.DurationMS(milliseconds(d)))
	return err
}

// Run executes a complete build. Fatal problems (configuration, templates,
// I/O on the output tree) return a nil Result. Document failures return a
// Result alongside a DocumentsFailed error.
func (s *DefaultBuildService) Run(ctx context.Context, req Request) (*Result, error) {
	if req.Profile == "" {
		req.Profile = config.ProfileDev
	}
	if err := config.LoadEnv(req.ProjectDir); err != nil {
		return nil, err
	}
	project, err := config.ResolveGlobal(filepath.Join(req.ProjectDir, config.FileName))
	if err != nil {
		return nil, err
	}
	settings, err := project.Profile(req.Profile)
	if err != nil {
		return nil, err
	}

	rep := report.New(req.Profile)
	r := &run{
		projectDir: req.ProjectDir,
		contentDir: filepath.Join(req.ProjectDir, ContentDir),
		profile:    req.Profile,
		settings:   settings,
		project:    project,
		markdown:   markdown.NewRenderer(),
		recorder:   s.recorder,
		report:     rep,
		collector:  &collector{},
		log:        s.logger.With(logfields.BuildID(rep.BuildID), logfields.Profile(req.Profile)),
	}
	if settings.KatexOutput {
		if r.math, err = s.mathRenderer(); err != nil {
			return nil, foundation.WrapError(err, foundation.CategoryInternal, "failed to set up math renderer").Fatal().Build()
		}
	}
	if s.revision != nil {
		r.revision = s.revision(req.ProjectDir)
		rep.Revision = r.revision
	}

	r.log.Info("Starting course build", logfields.Path(req.ProjectDir))
	start := time.Now()

	if err := r.prepare(req.Options); err != nil {
		s.recorder.IncBuildOutcome(metrics.BuildOutcomeFailed)
		return nil, err
	}

	workers := req.Options.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	s.recorder.SetWorkers(workers)
	_ = r.stage("documents", func() error {
		r.processDocuments(ctx, workers)
		return nil
	})

	return r.finish(ctx, req, start)
}

// prepare builds the tree, loads templates, cleans the output and copies
// assets.
func (r *run) prepare(opts Options) error {
	err := r.stage("tree", func() error {
		tree, issues, err := content.Build(r.contentDir, r.project.Defaults)
		if err != nil {
			return err
		}
		for _, issue := range issues {
			r.log.Warn("Content tree issue", logfields.Path(issue.Path), logfields.Error(issue.Err))
			r.collector.fail(issue.Path, "", issue.Err)
		}
		r.tree = tree
		r.site = layout.NewSite(tree, r.project.URLPrefix, func(n *content.Node) bool {
			return n.ConfigErr == nil && n.Config.Output.Web
		})
		return nil
	})
	if err != nil {
		return err
	}

	err = r.stage("templates", func() error {
		templates := filepath.Join(r.projectDir, TemplatesDir)
		lib, err := shortcode.Load(filepath.Join(templates, ShortcodesDir), shortcodeFuncs(r.projectDir, r.project.URLPrefix))
		if err != nil {
			return err
		}
		layouts, err := layout.Load(filepath.Join(templates, LayoutsDir))
		if err != nil {
			return err
		}
		r.shortcodes, r.layouts = lib, layouts
		return nil
	})
	if err != nil {
		return err
	}

	if !opts.NoClean {
		for _, t := range Targets {
			if err := os.RemoveAll(r.outDir(t)); err != nil {
				return foundation.WrapError(err, foundation.CategoryFileSystem, "failed to clean output").
					WithContext("path", r.outDir(t)).
					Fatal().
					Build()
			}
		}
	}

	return r.stage("assets", func() error {
		n, err := r.copyAssets()
		r.recorder.AddAssetsCopied(n)
		r.report.SetAssets(n)
		return err
	})
}

func (r *run) processDocuments(ctx context.Context, workers int) {
	var nodes []*content.Node
	r.tree.Walk(func(n *content.Node) { nodes = append(nodes, n) })

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, n := range nodes {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			r.processNode(gctx, n)
			return nil
		})
	}
	_ = g.Wait()
}

func (r *run) finish(ctx context.Context, req Request, start time.Time) (*Result, error) {
	failures, written := r.collector.snapshot()
	for _, f := range failures {
		r.report.AddFailure(f.Path, string(f.Target), f.Err)
	}
	canceled := ctx.Err() != nil
	r.report.Finish(canceled)

	end := time.Now()
	res := &Result{
		BuildID:   r.report.BuildID,
		Profile:   r.profile,
		Written:   written,
		Assets:    r.report.Assets,
		Failures:  failures,
		Report:    r.report,
		StartTime: start,
		EndTime:   end,
		Duration:  end.Sub(start),
	}
	switch r.report.Outcome {
	case report.OutcomeCanceled:
		res.Status = StatusCanceled
	case report.OutcomePartial:
		res.Status = StatusPartial
	case report.OutcomeFailed:
		res.Status = StatusFailed
	default:
		res.Status = StatusSuccess
	}

	r.recorder.ObserveBuildDuration(res.Duration)
	r.recorder.IncBuildOutcome(metrics.BuildOutcomeLabel(res.Status))

	if req.Options.ReportPath != "" {
		if err := r.report.Persist(req.Options.ReportPath); err != nil {
			r.log.Warn("Failed to write build report", logfields.Path(req.Options.ReportPath), logfields.Error(err))
		}
	}

	r.log.Info("Course build finished",
		slog.String("status", string(res.Status)),
		logfields.Count(res.Written),
		slog.Int("failed", len(failedPaths(failures))),
		logfields.DurationMS(milliseconds(res.Duration)))

	if canceled {
		return res, fmt.Errorf("%w: %w", ErrCanceled, ctx.Err())
	}
	if len(failures) > 0 {
		paths := failedPaths(failures)
		return res, foundation.BuildError(fmt.Sprintf("%d document(s) failed", len(paths))).
			WithKind(foundation.KindDocumentsFailed).
			WithContext("documents", paths).
			Build()
	}
	return res, nil
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
