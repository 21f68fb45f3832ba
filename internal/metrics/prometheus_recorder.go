package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "courses"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry         *prom.Registry
	stageDuration    *prom.HistogramVec
	buildDuration    prom.Histogram
	documentDuration *prom.HistogramVec
	documentResults  *prom.CounterVec
	buildOutcome     *prom.CounterVec
	mathExpressions  *prom.CounterVec
	assetsCopied     prom.Counter
	workers          prom.Gauge
}

// NewPrometheusRecorder constructs metrics and registers them with reg
// (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		registry: reg,
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		documentDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "document_duration_seconds",
			Help:      "Time spent converting one document for one target",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"target"}),
		documentResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "document_results_total",
			Help:      "Document conversions by target and result",
		}, []string{"target", "result"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		mathExpressions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "math_expressions_total",
			Help:      "Math expressions by handling mode (precompiled or client)",
		}, []string{"mode"}),
		assetsCopied: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "assets_copied_total",
			Help:      "Passthrough files copied into the build",
		}),
		workers: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "workers",
			Help:      "Document worker pool size of the last build",
		}),
	}
	reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.documentDuration, pr.documentResults,
		pr.buildOutcome, pr.mathExpressions, pr.assetsCopied, pr.workers)
	return pr
}

// Registry returns the registry the metrics are registered with.
func (p *PrometheusRecorder) Registry() *prom.Registry {
	return p.registry
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveDocumentDuration(target string, d time.Duration) {
	p.documentDuration.WithLabelValues(target).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncDocumentResult(target string, result ResultLabel) {
	p.documentResults.WithLabelValues(target, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) AddMathExpressions(mode string, n int) {
	if n > 0 {
		p.mathExpressions.WithLabelValues(mode).Add(float64(n))
	}
}

func (p *PrometheusRecorder) AddAssetsCopied(n int) {
	if n > 0 {
		p.assetsCopied.Add(float64(n))
	}
}

func (p *PrometheusRecorder) SetWorkers(n int) {
	p.workers.Set(float64(n))
}

// WriteTextfile writes the current metrics in the text exposition format,
// suitable for the node exporter textfile collector.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	return prom.WriteToTextfile(path, p.registry)
}
