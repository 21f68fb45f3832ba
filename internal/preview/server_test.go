package preview

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/courses/internal/build"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func webRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "basics"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<h1>Course</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "basics", "index.html"), []byte("<h1>Basics</h1>"), 0o644))
	return root
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHandler_ServesBuiltPages(t *testing.T) {
	s := New(Options{Root: webRoot(t), Logger: quietLogger()})
	h := s.Handler()

	rec := get(t, h, "/basics/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Basics")
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	rec = get(t, h, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Course")

	assert.Equal(t, http.StatusNotFound, get(t, h, "/missing.html").Code)
	assert.Equal(t, "ok\n", get(t, h, "/healthz").Body.String())
}

func TestHandler_URLPrefix(t *testing.T) {
	s := New(Options{Root: webRoot(t), Prefix: "/intro/", Logger: quietLogger()})
	h := s.Handler()

	rec := get(t, h, "/intro/basics/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Basics")

	rec = get(t, h, "/")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/intro/", rec.Header().Get("Location"))

	assert.Equal(t, http.StatusNotFound, get(t, h, "/basics/").Code)
}

func TestHandler_StatusAndMetrics(t *testing.T) {
	var last *build.Result
	s := New(Options{
		Root:    webRoot(t),
		Logger:  quietLogger(),
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("courses_workers 4\n")) }),
		Status:  func() *build.Result { return last },
	})
	h := s.Handler()

	var resp statusResponse
	require.NoError(t, json.Unmarshal(get(t, h, "/_status").Body.Bytes(), &resp))
	assert.Equal(t, "pending", resp.Status)

	last = &build.Result{Status: build.StatusPartial, BuildID: "b1", Profile: "dev", Written: 3,
		Failures: []build.Failure{{Path: "p/c3/index.md", Target: build.TargetWeb, Err: assert.AnError}}}
	require.NoError(t, json.Unmarshal(get(t, h, "/_status").Body.Bytes(), &resp))
	assert.Equal(t, "partial", resp.Status)
	assert.Equal(t, 3, resp.Written)
	require.Len(t, resp.Failures, 1)
	assert.Contains(t, resp.Failures[0], "p/c3/index.md")

	assert.Equal(t, "courses_workers 4\n", get(t, h, "/metrics").Body.String())
}

func TestHandler_RecoversFromPanics(t *testing.T) {
	h := chain(quietLogger(), http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	assert.Equal(t, http.StatusInternalServerError, get(t, h, "/").Code)
}

func TestServer_StartAndShutdown(t *testing.T) {
	s := New(Options{Root: webRoot(t), Addr: "127.0.0.1:0", Logger: quietLogger()})
	require.NoError(t, s.Start(context.Background()))
	assert.NotEmpty(t, s.Addr())

	resp, err := http.Get(s.URL())
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Contains(t, string(body), "Course")

	require.NoError(t, s.Shutdown(context.Background()))
}

func TestServer_StartFailsOnBusyPort(t *testing.T) {
	first := New(Options{Root: t.TempDir(), Addr: "127.0.0.1:0", Logger: quietLogger()})
	require.NoError(t, first.Start(context.Background()))
	defer func() { _ = first.Shutdown(context.Background()) }()

	second := New(Options{Root: t.TempDir(), Addr: first.Addr(), Logger: quietLogger()})
	require.Error(t, second.Start(context.Background()))
}
