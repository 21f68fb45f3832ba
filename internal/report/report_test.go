package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	foundation "git.home.luguber.info/inful/courses/internal/foundation/errors"
)

func TestFinish_Outcome(t *testing.T) {
	r := New("dev")
	r.Finish(false)
	assert.Equal(t, OutcomeSuccess, r.Outcome)

	r = New("dev")
	r.AddFailure("part/index.md", "web", os.ErrNotExist)
	r.Finish(false)
	assert.Equal(t, OutcomeFailed, r.Outcome)

	r = New("dev")
	r.AddDocument(Document{Path: "index.md", Target: "web"})
	r.AddFailure("part/index.md", "web", os.ErrNotExist)
	r.Finish(false)
	assert.Equal(t, OutcomePartial, r.Outcome)

	r.Finish(true)
	assert.Equal(t, OutcomeCanceled, r.Outcome)
}

func TestAddFailure_Classified(t *testing.T) {
	r := New("release")
	err := foundation.TransformError("unbalanced marker").WithContext("line", 4).Build()
	r.AddFailure("p/c/index.md", "notebook", err)

	require.Len(t, r.Failures, 1)
	assert.Equal(t, "transform", r.Failures[0].Category)
	assert.Equal(t, "UnbalancedMarker", r.Failures[0].Kind)
}

func TestConcurrentAdds(t *testing.T) {
	r := New("dev")
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.AddDocument(Document{Path: string(rune('a' + i%26)), Target: "web"})
		}()
	}
	wg.Wait()
	r.Finish(false)
	assert.Len(t, r.Documents, 50)
	assert.True(t, r.Documents[0].Path <= r.Documents[49].Path)
}

func TestPersist(t *testing.T) {
	r := New("dev")
	r.AddDocument(Document{Path: "index.md", Target: "web", Output: "web/index.html", Fingerprint: Fingerprint([]byte("title: A\n"), []byte("# A\n"))})
	r.RecordStage("documents", 1500*time.Millisecond)
	r.SetAssets(3)
	r.Finish(false)

	path := filepath.Join(t.TempDir(), "nested", "report.json")
	require.NoError(t, r.Persist(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "success", decoded["outcome"])
	assert.Equal(t, r.BuildID, decoded["build_id"])
	assert.InDelta(t, 1500, decoded["stage_durations_ms"].(map[string]any)["documents"], 0)
	assert.Contains(t, r.Summary(), "outcome=success")
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("title: A\n"), []byte("body"))
	assert.NotEmpty(t, a)
	assert.Equal(t, a, Fingerprint([]byte("title: A"), []byte("body")))
	assert.NotEqual(t, a, Fingerprint([]byte("title: B\n"), []byte("body")))
}
