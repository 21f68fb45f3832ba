package metrics

import "time"

// ResultLabel enumerates per-document result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
	ResultSkipped ResultLabel = "skipped"
)

// BuildOutcomeLabel is the final status of a build.
type BuildOutcomeLabel string

const (
	BuildOutcomeSuccess  BuildOutcomeLabel = "success"
	BuildOutcomePartial  BuildOutcomeLabel = "partial"
	BuildOutcomeFailed   BuildOutcomeLabel = "failed"
	BuildOutcomeCanceled BuildOutcomeLabel = "canceled"
)

// Recorder defines observability hooks for builds. Implementations must be
// safe for concurrent use because document workers report in parallel.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	ObserveDocumentDuration(target string, d time.Duration)
	IncDocumentResult(target string, result ResultLabel)
	IncBuildOutcome(outcome BuildOutcomeLabel)
	AddMathExpressions(mode string, n int)
	AddAssetsCopied(n int)
	SetWorkers(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)    {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)            {}
func (NoopRecorder) ObserveDocumentDuration(string, time.Duration) {}
func (NoopRecorder) IncDocumentResult(string, ResultLabel)         {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)             {}
func (NoopRecorder) AddMathExpressions(string, int)                {}
func (NoopRecorder) AddAssetsCopied(int)                           {}
func (NoopRecorder) SetWorkers(int)                                {}
