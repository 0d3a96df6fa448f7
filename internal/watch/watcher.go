// Package watch re-parses a shapes file whenever it changes on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/shape-editor/backend/internal/parser"
)

// Event is delivered to the handler after each settled change.
type Event struct {
	Path   string
	Result *parser.Result // nil when Err is set
	Err    error          // read failure, e.g. the file was removed
	At     time.Time
}

// Handler receives parse results. It runs on the watcher goroutine.
type Handler func(Event)

// Stats tracks watcher activity.
type Stats struct {
	Events       int
	Parses       int
	Errors       int
	LastParse    time.Time
	LastStrategy parser.Strategy
}

// Watcher watches a single shapes file. The parent directory is watched
// rather than the file so editors that save by rename are still seen.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	path        string
	dir         string
	opts        parser.Options
	handler     Handler
	logger      *zap.Logger
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	stats Stats
}

// New creates a Watcher for path. Changes are parsed with opts once no
// further event has arrived for debounce.
func New(path string, opts parser.Options, debounce time.Duration, handler Handler, logger *zap.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	if handler == nil {
		handler = func(Event) {}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	return &Watcher{
		watcher:     fw,
		path:        abs,
		dir:         filepath.Dir(abs),
		opts:        opts,
		handler:     handler,
		logger:      logger.Named("watch").With(zap.String("path", abs)),
		debounceMap: make(map[string]time.Time),
		debounceDur: debounce,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching. It is non-blocking; the event loop runs until
// Stop is called or ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
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
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	w.logger.Info("watching for changes", zap.Duration("debounce", w.debounceDur))

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		w.watcher.Close()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.logger.Error("closing watcher", zap.Error(err))
	}
	w.logger.Info("stopped")
}

// ParseNow parses the file immediately and delivers the result.
func (w *Watcher) ParseNow() Event {
	ev := w.parse()
	w.handler(ev)
	return ev
}

// Stats returns a snapshot of the watcher's counters.
func (w *Watcher) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	tick := w.debounceDur / 2
	if tick <= 0 || tick > 100*time.Millisecond {
		tick = 100 * time.Millisecond
	}
	debounceTicker := time.NewTicker(tick)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("context cancelled")
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
			w.logger.Error("watcher error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-debounceTicker.C:
			w.processDebouncedEvents()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	w.logger.Debug("change", zap.Stringer("op", event.Op))

	w.mu.Lock()
	w.stats.Events++
	w.debounceMap[w.path] = time.Now()
	w.mu.Unlock()
}

// processDebouncedEvents parses once the last event is older than the
// debounce window.
func (w *Watcher) processDebouncedEvents() {
	w.mu.Lock()
	last, pending := w.debounceMap[w.path]
	settled := pending && time.Since(last) >= w.debounceDur
	if settled {
		delete(w.debounceMap, w.path)
	}
	w.mu.Unlock()

	if settled {
		w.handler(w.parse())
	}
}

func (w *Watcher) parse() Event {
	ev := Event{Path: w.path, At: time.Now()}
	res, err := parser.ParseFileWithOptions(w.path, w.opts)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		ev.Err = err
		w.stats.Errors++
		w.logger.Warn("parse failed", zap.Error(err))
		return ev
	}

	ev.Result = res
	w.stats.Parses++
	w.stats.LastParse = ev.At
	w.stats.LastStrategy = res.Strategy
	w.logger.Info("parsed",
		zap.String("strategy", string(res.Strategy)),
		zap.Int("shapes", len(res.File.Shapes)),
		zap.Bool("nothingRecovered", res.NothingRecovered()))
	return ev
}
