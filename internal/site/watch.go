package site

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/morstad/vitrine/internal/checksum"
)

// BuildEventFunc receives build lifecycle notifications. kind is one of
// "started", "completed", "failed".
type BuildEventFunc func(kind, detail string)

// Rebuilder serialises builds triggered by file changes. A trigger that
// arrives mid-build queues exactly one follow-up build; redundant triggers
// collapse. Builds whose input fingerprint is unchanged are skipped.
type Rebuilder struct {
	build  func() error
	inputs func() map[string][]byte
	events BuildEventFunc
	logger *slog.Logger

	mu       sync.Mutex
	building bool
	queued   bool
	lastSum  string
}

// NewRebuilder creates a Rebuilder. inputs returns the raw content of every
// build input (data files, template files); its digest gates no-op rebuilds.
// events may be nil.
func NewRebuilder(build func() error, inputs func() map[string][]byte, events BuildEventFunc, logger *slog.Logger) *Rebuilder {
	if logger == nil {
		logger = slog.Default()
	}
	if events == nil {
		events = func(string, string) {}
	}
	return &Rebuilder{build: build, inputs: inputs, events: events, logger: logger}
}

// Trigger requests a rebuild. Non-blocking; safe for concurrent use.
func (r *Rebuilder) Trigger() {
	r.mu.Lock()
	if r.building {
		r.queued = true
		r.mu.Unlock()
		return
	}
	r.building = true
	r.mu.Unlock()

	go r.run()
}

func (r *Rebuilder) run() {
	for {
		r.runOnce()

		r.mu.Lock()
		if r.queued {
			r.queued = false
			r.mu.Unlock()
			continue
		}
		r.building = false
		r.mu.Unlock()
		return
	}
}

func (r *Rebuilder) runOnce() {
	sum := checksum.SumAll(r.inputs())

	r.mu.Lock()
	unchanged := sum != "" && sum == r.lastSum
	r.mu.Unlock()

	if unchanged {
		r.logger.Debug("watcher: inputs unchanged, skipping rebuild")
		return
	}

	r.events("started", "")
	if err := r.build(); err != nil {
		r.logger.Error("watcher: rebuild failed", slog.String("error", err.Error()))
		r.events("failed", err.Error())
		return
	}

	r.mu.Lock()
	r.lastSum = sum
	r.mu.Unlock()
	r.events("completed", "")
}

// LastSum returns the fingerprint of the last successful build.
func (r *Rebuilder) LastSum() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastSum
}

// ReadInputs collects the content of every regular file under the given
// directories and standalone files, keyed by path. Missing entries are
// skipped; the watcher tolerates inputs appearing and disappearing.
func ReadInputs(paths ...string) map[string][]byte {
	out := make(map[string][]byte)
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			if data, err := os.ReadFile(p); err == nil {
				out[p] = data
			}
			continue
		}
		_ = filepath.WalkDir(p, func(sub string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil || d.IsDir() {
				return nil
			}
			if data, err := os.ReadFile(sub); err == nil {
				out[sub] = data
			}
			return nil
		})
	}
	return out
}

// Watch starts an fsnotify watcher over the given paths and triggers the
// rebuilder after a short debounce, coalescing event bursts. Directories are
// watched recursively; new subdirectories are added at runtime. Watch blocks
// until ctx is cancelled.
func Watch(ctx context.Context, rebuilder *Rebuilder, logger *slog.Logger, paths ...string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, p := range paths {
		if _, statErr := os.Stat(p); statErr != nil {
			continue
		}
		if err := addDirsRecursive(w, p); err != nil {
			return err
		}
	}

	logger.Info("watcher: started", slog.Int("roots", len(paths)))

	const debounce = 200 * time.Millisecond
	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			rebuilder.Trigger()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			// Ignore editor temp files and pure chmod noise.
			if ev.Op == fsnotify.Chmod || strings.HasSuffix(ev.Name, "~") {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
				}
			}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return w.Add(filepath.Dir(root))
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
