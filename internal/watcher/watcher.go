package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	defaultSettle        = 500 * time.Millisecond
	defaultMaxConcurrent = 2
)

// Handler processes one file. Errors are logged, not retried.
type Handler func(ctx context.Context, path string) error

// Config configures a [Watcher].
type Config struct {
	// Dir is the directory to watch. It is not watched recursively.
	Dir string

	// Accept reports whether a file should be handled. nil accepts everything.
	Accept func(path string) bool

	// Settle is how long to wait after a create event before handling the
	// file, so writers can finish. Defaults to 500ms.
	Settle time.Duration

	// MaxConcurrent bounds concurrent handler calls. Defaults to 2.
	MaxConcurrent int

	Logger *slog.Logger
}

// Watcher monitors a directory for newly created files.
type Watcher struct {
	dir       string
	accept    func(string) bool
	settle    time.Duration
	handler   Handler
	logger    *slog.Logger
	fsw       *fsnotify.Watcher
	semaphore chan struct{}
	wg        sync.WaitGroup

	mu       sync.Mutex
	inflight map[string]struct{}
}

// New creates a [Watcher] and registers cfg.Dir with the OS.
// The watch is not serviced until [Watcher.Run] is called.
func New(cfg Config, handler Handler) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, errors.New("watch directory is required")
	}
	if handler == nil {
		return nil, errors.New("handler is required")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(cfg.Dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	if cfg.Settle <= 0 {
		cfg.Settle = defaultSettle
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = defaultMaxConcurrent
	}
	if cfg.Accept == nil {
		cfg.Accept = func(string) bool { return true }
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Watcher{
		dir:       cfg.Dir,
		accept:    cfg.Accept,
		settle:    cfg.Settle,
		handler:   handler,
		logger:    cfg.Logger,
		fsw:       fsw,
		semaphore: make(chan struct{}, cfg.MaxConcurrent),
		inflight:  make(map[string]struct{}),
	}, nil
}

// Run services the watch until ctx is cancelled, then waits for running
// handlers and releases the OS watch. Returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fsw.Close() }()
	defer w.wg.Wait()

	w.logger.Info("drop folder watcher started", "dir", w.dir)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("drop folder watcher stopping")
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !w.accept(event.Name) {
				w.logger.Debug("ignoring unsupported file", "path", event.Name)
				continue
			}
			w.dispatch(ctx, event.Name)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// dispatch handles path in the background after the settle delay.
// A path already being handled is skipped.
func (w *Watcher) dispatch(ctx context.Context, path string) {
	w.mu.Lock()
	if _, busy := w.inflight[path]; busy {
		w.mu.Unlock()
		return
	}
	w.inflight[path] = struct{}{}
	w.mu.Unlock()

	w.logger.Info("new audio file detected", "path", path)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() {
			w.mu.Lock()
			delete(w.inflight, path)
			w.mu.Unlock()
		}()

		select {
		case <-time.After(w.settle):
		case <-ctx.Done():
			return
		}

		select {
		case w.semaphore <- struct{}{}:
		case <-ctx.Done():
			return
		}
		defer func() { <-w.semaphore }()

		if err := w.handler(ctx, path); err != nil {
			w.logger.Error("failed to process dropped file", "path", path, "error", err)
		}
	}()
}
