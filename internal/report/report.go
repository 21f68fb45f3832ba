// Package report records what a build produced and what failed, and persists
// it as a machine-readable JSON document.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/inful/mdfp"

	foundation "git.home.luguber.info/inful/courses/internal/foundation/errors"
	"git.home.luguber.info/inful/courses/internal/version"
)

// SchemaVersion is bumped whenever a field changes meaning.
const SchemaVersion = 1

// Outcome is the final status of a build.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomePartial  Outcome = "partial"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Document is one successfully written output file.
type Document struct {
	Path        string `json:"path"`
	Target      string `json:"target"`
	Output      string `json:"output"`
	Fingerprint string `json:"fingerprint"`
}

// Failure is one document (or subtree) that produced no output.
type Failure struct {
	Path     string `json:"path"`
	Target   string `json:"target,omitempty"`
	Category string `json:"category,omitempty"`
	Kind     string `json:"kind,omitempty"`
	Message  string `json:"message"`
}

// Report captures a single build invocation. It is safe for concurrent use.
type Report struct {
	mu sync.Mutex

	SchemaVersion  int              `json:"schema_version"`
	BuildID        string           `json:"build_id"`
	Version        string           `json:"version"`
	Profile        string           `json:"profile"`
	Revision       string           `json:"revision,omitempty"`
	Start          time.Time        `json:"start"`
	End            time.Time        `json:"end"`
	Outcome        Outcome          `json:"outcome"`
	Documents      []Document       `json:"documents"`
	Failures       []Failure        `json:"failures"`
	Assets         int              `json:"assets"`
	StageDurations map[string]int64 `json:"stage_durations_ms"`
}

// New starts a report for a build with the given profile.
func New(profile string) *Report {
	return &Report{
		SchemaVersion:  SchemaVersion,
		BuildID:        uuid.NewString(),
		Version:        version.Version,
		Profile:        profile,
		Start:          time.Now(),
		Documents:      []Document{},
		Failures:       []Failure{},
		StageDurations: make(map[string]int64),
	}
}

// AddDocument records a written output.
func (r *Report) AddDocument(d Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Documents = append(r.Documents, d)
}

// AddFailure records a failed document. Classified errors contribute their
// category and kind.
func (r *Report) AddFailure(path, target string, err error) {
	f := Failure{Path: path, Target: target, Message: err.Error()}
	if ce, ok := foundation.AsClassified(err); ok {
		f.Category = string(ce.Category())
		f.Kind = string(ce.Kind())
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Failures = append(r.Failures, f)
}

// SetAssets records how many passthrough files were copied.
func (r *Report) SetAssets(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Assets = n
}

// RecordStage stores the wall-clock duration of a build stage.
func (r *Report) RecordStage(stage string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.StageDurations[stage] = d.Milliseconds()
}

// Finish stamps the end time, sorts entries and derives the outcome.
func (r *Report) Finish(canceled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.End = time.Now()

	sort.Slice(r.Documents, func(i, j int) bool {
		if r.Documents[i].Path != r.Documents[j].Path {
			return r.Documents[i].Path < r.Documents[j].Path
		}
		return r.Documents[i].Target < r.Documents[j].Target
	})
	sort.SliceStable(r.Failures, func(i, j int) bool { return r.Failures[i].Path < r.Failures[j].Path })

	switch {
	case canceled:
		r.Outcome = OutcomeCanceled
	case len(r.Failures) == 0:
		r.Outcome = OutcomeSuccess
	case len(r.Documents) == 0:
		r.Outcome = OutcomeFailed
	default:
		r.Outcome = OutcomePartial
	}
}

// Summary returns a human-readable single-line summary.
func (r *Report) Summary() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fmt.Sprintf("profile=%s documents=%d failures=%d assets=%d duration=%s outcome=%s",
		r.Profile, len(r.Documents), len(r.Failures), r.Assets,
		r.End.Sub(r.Start).Truncate(time.Millisecond), r.Outcome)
}

// Persist writes the report as indented JSON to path atomically.
func (r *Report) Persist(path string) error {
	r.mu.Lock()
	jb, err := json.MarshalIndent(r, "", "  ")
	r.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("ensure report dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(jb, '\n'), 0o600); err != nil {
		return fmt.Errorf("write temp report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("atomic rename report: %w", err)
	}
	return nil
}

// Fingerprint computes the content fingerprint of an emitted document from its
// configuration header and body.
func Fingerprint(header, body []byte) string {
	return mdfp.CalculateFingerprintFromParts(strings.TrimSuffix(string(header), "\n"), string(body))
}
