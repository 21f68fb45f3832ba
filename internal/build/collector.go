package build

import (
	"fmt"
	"sort"
	"sync"
)

// Failure is a document (or subtree) that produced no output for a target.
// Target is empty when the failure happened before targets were selected.
type Failure struct {
	Path   string
	Target Target
	Err    error
}

func (f Failure) Error() string {
	if f.Target == "" {
		return fmt.Sprintf("%s: %v", f.Path, f.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", f.Path, f.Target, f.Err)
}

// collector gathers per-document outcomes from concurrent workers.
type collector struct {
	mu       sync.Mutex
	failures []Failure
	written  int
}

func (c *collector) fail(path string, target Target, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = append(c.failures, Failure{Path: path, Target: target, Err: err})
}

func (c *collector) wrote() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written++
}

// snapshot returns the failures ordered by path, then target.
func (c *collector) snapshot() ([]Failure, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := append([]Failure(nil), c.failures...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Target < out[j].Target
	})
	return out, c.written
}

// failedPaths lists each failing path once.
func failedPaths(failures []Failure) []string {
	seen := map[string]bool{}
	var paths []string
	for _, f := range failures {
		if !seen[f.Path] {
			seen[f.Path] = true
			paths = append(paths, f.Path)
		}
	}
	return paths
}
