package math

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Renderer turns TeX into HTML.
type Renderer interface {
	Render(ctx context.Context, tex string, display bool) (string, error)
}

// KatexRenderer shells out to the katex command line tool, which reads TeX on
// stdin and writes HTML to stdout.
type KatexRenderer struct {
	// Command is the executable plus leading arguments, e.g. ["npx", "katex"].
	Command []string
}

// NewKatexRenderer returns a renderer for command, defaulting to "katex".
func NewKatexRenderer(command string) *KatexRenderer {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		fields = []string{"katex"}
	}
	return &KatexRenderer{Command: fields}
}

func (k *KatexRenderer) Render(ctx context.Context, tex string, display bool) (string, error) {
	args := append([]string(nil), k.Command[1:]...)
	if display {
		args = append(args, "--display-mode")
	}
	cmd := exec.CommandContext(ctx, k.Command[0], args...)
	cmd.Stdin = strings.NewReader(tex)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("katex: %s: %w", msg, err)
		}
		return "", fmt.Errorf("katex: %w", err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// CachedRenderer memoizes another renderer. It is safe for concurrent use.
type CachedRenderer struct {
	next  Renderer
	cache *lru.Cache[string, string]
}

// NewCachedRenderer wraps next with an LRU cache holding size entries.
func NewCachedRenderer(next Renderer, size int) (*CachedRenderer, error) {
	if size <= 0 {
		size = 1024
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &CachedRenderer{next: next, cache: cache}, nil
}

func (c *CachedRenderer) Render(ctx context.Context, tex string, display bool) (string, error) {
	key := "i:" + tex
	if display {
		key = "d:" + tex
	}
	if html, ok := c.cache.Get(key); ok {
		return html, nil
	}
	html, err := c.next.Render(ctx, tex, display)
	if err != nil {
		return "", err
	}
	c.cache.Add(key, html)
	return html, nil
}

// Len reports the number of cached expressions.
func (c *CachedRenderer) Len() int {
	return c.cache.Len()
}
