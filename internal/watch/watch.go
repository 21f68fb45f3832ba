// Package watch rebuilds a project when its sources change. Filesystem
// notifications drive rebuilds; a periodic poll covers filesystems where
// notifications are unavailable (network mounts, some containers).
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/courses/internal/logfields"
)

const (
	// DefaultDebounce coalesces bursts of events (editor save, git checkout).
	DefaultDebounce = 300 * time.Millisecond
	// DefaultPoll is used when filesystem notifications cannot be set up.
	DefaultPoll = 2 * time.Second
)

// Options configures a watch loop.
type Options struct {
	// Roots are watched recursively.
	Roots []string
	// Ignore lists path prefixes (e.g. the build output) that never trigger.
	Ignore []string
	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration
	// Poll enables the polling fallback at the given interval when > 0.
	Poll time.Duration
	// DisableNotify skips fsnotify entirely and relies on polling.
	DisableNotify bool
	Logger        *slog.Logger
}

// RebuildFunc is invoked once per coalesced batch of changes.
type RebuildFunc func(ctx context.Context)

// Run blocks until ctx is done, calling rebuild after changes settle.
// Rebuilds never overlap; changes during a rebuild queue exactly one more.
func Run(ctx context.Context, opts Options, rebuild RebuildFunc) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	log := opts.Logger

	requests := make(chan struct{}, 1)
	trigger, stop := debouncer(opts.Debounce, requests)
	defer stop()

	var (
		events <-chan fsnotify.Event
		errs   <-chan error
		w      *fsnotify.Watcher
	)
	if !opts.DisableNotify {
		var err error
		w, err = setupWatcher(opts, log)
		if err != nil {
			log.Warn("Filesystem notifications unavailable; falling back to polling", logfields.Error(err))
			if opts.Poll <= 0 {
				opts.Poll = DefaultPoll
			}
		} else {
			defer func() { _ = w.Close() }()
			events, errs = w.Events, w.Errors
		}
	}

	if opts.Poll > 0 {
		p, err := startPoller(opts, trigger)
		if err != nil {
			return err
		}
		defer func() { _ = p.Shutdown() }()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			handleEvent(w, opts, ev, trigger, log)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			log.Warn("Watcher error", logfields.Error(err))
		case <-requests:
			rebuild(ctx)
		}
	}
}

func debouncer(delay time.Duration, out chan<- struct{}) (trigger func(), stop func()) {
	var mu sync.Mutex
	var timer *time.Timer

	trigger = func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(delay, func() {
			select {
			case out <- struct{}{}:
			default:
			}
		})
	}
	stop = func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
	}
	return trigger, stop
}

func setupWatcher(opts Options, log *slog.Logger) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	for _, root := range opts.Roots {
		if _, err := os.Stat(root); err != nil {
			continue
		}
		addDirsRecursive(w, root, opts, log)
	}
	return w, nil
}

func handleEvent(w *fsnotify.Watcher, opts Options, ev fsnotify.Event, trigger func(), log *slog.Logger) {
	if shouldIgnore(ev.Name, opts.Ignore) {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			addDirsRecursive(w, ev.Name, opts, log)
		}
	}
	log.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	trigger()
}

func addDirsRecursive(w *fsnotify.Watcher, root string, opts Options, log *slog.Logger) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && shouldIgnore(path, opts.Ignore) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			log.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// shouldIgnore reports whether a change at path can be disregarded: hidden
// entries, editor swap files and anything below an ignored prefix.
func shouldIgnore(path string, ignore []string) bool {
	clean := filepath.Clean(path)
	for _, prefix := range ignore {
		p := filepath.Clean(prefix)
		if clean == p || strings.HasPrefix(clean, p+string(filepath.Separator)) {
			return true
		}
	}

	base := filepath.Base(clean)
	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") || strings.HasSuffix(base, ".swx") {
		return true
	}
	if strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return false
}

func startPoller(opts Options, trigger func()) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	last := snapshotRoots(opts)
	check := func() {
		current := snapshotRoots(opts)
		if current != last {
			last = current
			opts.Logger.Debug("Polling detected changes", logfields.Count(current.files))
			trigger()
		}
	}

	if _, err := s.NewJob(
		gocron.DurationJob(opts.Poll),
		gocron.NewTask(check),
		gocron.WithName("watch-poll"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create poll job: %w", err)
	}
	s.Start()
	return s, nil
}

type snapshot struct {
	files  int
	size   int64
	latest int64
}

func snapshotRoots(opts Options) snapshot {
	var snap snapshot
	for _, root := range opts.Roots {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if path != root && shouldIgnore(path, opts.Ignore) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			snap.files++
			snap.size += info.Size()
			if mt := info.ModTime().UnixNano(); mt > snap.latest {
				snap.latest = mt
			}
			return nil
		})
	}
	return snap
}
