// Package watch implements tutor mode: a directory of student .py files
// is re-analyzed on every save, producing a fresh set of prompts while
// the student works.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"compass/internal/evaluator"
	"compass/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// ReportFunc receives the evaluation of a changed file.
type ReportFunc func(path string, report *evaluator.Report)

// TutorWatcher watches a directory for .py changes and re-evaluates
// changed files after a debounce window.
type TutorWatcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	eval        *evaluator.CompetenceEvaluator
	dir         string
	onReport    ReportFunc
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
}

// New creates a TutorWatcher over dir. onReport is called for every
// settled change.
func New(dir string, eval *evaluator.CompetenceEvaluator, onReport ReportFunc) (*TutorWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &TutorWatcher{
		watcher:     watcher,
		eval:        eval,
		dir:         dir,
		onReport:    onReport,
		debounceMap: make(map[string]time.Time),
		debounceDur: 500 * time.Millisecond, // rapid editor saves settle first
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; the event loop runs in a
// goroutine until Stop or context cancellation.
func (w *TutorWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.dir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}
	logging.Watch("watching directory: %s", w.dir)

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *TutorWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.Get(logging.CategoryWatch).Error("error closing watcher: %v", err)
	}
	logging.Watch("stopped")
}

// run is the main event loop.
func (w *TutorWatcher) run(ctx context.Context) {
	defer close(w.doneCh)

	debounceTicker := time.NewTicker(100 * time.Millisecond)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Watch("context cancelled")
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryWatch).Error("watcher error: %v", err)

		case <-debounceTicker.C:
			w.processDebounced(ctx)
		}
	}
}

// handleEvent records write/create events for .py files.
func (w *TutorWatcher) handleEvent(event fsnotify.Event) {
	if !strings.HasSuffix(event.Name, ".py") {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	logging.WatchDebug("event %s for %s", event.Op, event.Name)

	w.mu.Lock()
	w.debounceMap[event.Name] = time.Now()
	w.mu.Unlock()
}

// processDebounced evaluates files whose events settled past the window.
func (w *TutorWatcher) processDebounced(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	var toProcess []string
	for path, eventTime := range w.debounceMap {
		if now.Sub(eventTime) >= w.debounceDur {
			toProcess = append(toProcess, path)
			delete(w.debounceMap, path)
		}
	}
	w.mu.Unlock()

	for _, path := range toProcess {
		w.evaluateFile(ctx, path)
	}
}

// evaluateFile runs the evaluator over one file and reports the result.
func (w *TutorWatcher) evaluateFile(ctx context.Context, path string) {
	code, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return // deleted between event and processing
		}
		logging.Get(logging.CategoryWatch).Error("failed to read %s: %v", path, err)
		return
	}

	report, err := w.eval.Evaluate(ctx, string(code))
	if err != nil {
		logging.Get(logging.CategoryWatch).Error("evaluation of %s failed: %v", path, err)
		return
	}

	logging.Watch("re-evaluated %s: %d findings, %d prompts",
		filepath.Base(path), report.Analysis.TotalFindings(), len(report.Prompts))

	if w.onReport != nil {
		w.onReport(path, report)
	}
}
