package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"variant-manager/core/variant"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrAlreadyRunning is returned by Start while a subscription is active.
var ErrAlreadyRunning = errors.New("watcher already running")

// State is the lifecycle state of a Watcher.
type State int

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// Options configures a Watcher.
type Options struct {
	// Roots are the directory trees to watch. Each must exist when Start is called.
	Roots []string
	// Ignore reports whether an absolute path must produce no events.
	Ignore func(path string) bool
	Logger *zap.Logger
}

// Watcher delivers filesystem events below a set of roots to a handler.
type Watcher struct {
	roots  []string
	ignore func(string) bool
	logger *zap.Logger

	mu      sync.Mutex
	state   State
	session string
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
}

// New creates a stopped watcher.
func New(opts Options) *Watcher {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Ignore == nil {
		opts.Ignore = func(string) bool { return false }
	}
	return &Watcher{
		roots:  opts.Roots,
		ignore: opts.Ignore,
		logger: opts.Logger,
	}
}

// Start registers the roots and begins delivering events to handle.
func (w *Watcher) Start(ctx context.Context, handle variant.HandlerFunc) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == Running {
		return ErrAlreadyRunning
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	for _, root := range w.roots {
		if err := w.addTree(fsw, root); err != nil {
			_ = fsw.Close()
			return err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	w.state = Running
	w.session = uuid.NewString()
	w.cancel = cancel
	w.done = make(chan struct{})
	w.err = nil

	logger := w.logger.With(zap.String("session", w.session))
	logger.Debug("Watcher started", zap.Strings("roots", w.roots))
	go w.loop(ctx, fsw, handle, w.done, logger)
	return nil
}

// Stop ends the subscription and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.state != Running {
		w.mu.Unlock()
		return nil
	}
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done
	return nil
}

// State returns the current lifecycle state.
func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Running reports whether the watcher is delivering events.
func (w *Watcher) Running() bool {
	return w.State() == Running
}

// Done is closed when the current subscription ends. Nil before the first Start.
func (w *Watcher) Done() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.done
}

// Err returns the error that ended the last subscription, or nil after a clean stop.
func (w *Watcher) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, handle variant.HandlerFunc, done chan struct{}, logger *zap.Logger) {
	var err error
	defer func() {
		if closeErr := fsw.Close(); closeErr != nil {
			logger.Warn("Close fsnotify watcher", zap.Error(closeErr))
		}
		w.mu.Lock()
		w.state = Stopped
		w.err = err
		w.cancel()
		w.mu.Unlock()
		close(done)
		logger.Debug("Watcher stopped", zap.Error(err))
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-fsw.Events:
			if !ok {
				err = errors.New("fsnotify event channel closed unexpectedly")
				return
			}
			for _, ev := range w.translate(fsw, evt, logger) {
				if ctx.Err() != nil {
					return
				}
				if handleErr := handle(ctx, ev); handleErr != nil {
					if errors.Is(handleErr, context.Canceled) && ctx.Err() != nil {
						return
					}
					err = handleErr
					return
				}
			}
		case watchErr, ok := <-fsw.Errors:
			if !ok {
				err = errors.New("fsnotify error channel closed unexpectedly")
				return
			}
			if isFatalFsnotifyError(watchErr) {
				err = fmt.Errorf("fatal fsnotify error: %w", watchErr)
				return
			}
			logger.Warn("fsnotify error", zap.Error(watchErr))
		}
	}
}

// translate maps one fsnotify notification to the events the reconciler handles.
func (w *Watcher) translate(fsw *fsnotify.Watcher, evt fsnotify.Event, logger *zap.Logger) []variant.Event {
	path := filepath.Clean(evt.Name)
	if w.ignore(path) {
		return nil
	}

	switch {
	case evt.Has(fsnotify.Remove), evt.Has(fsnotify.Rename):
		return []variant.Event{variant.RemoveEvent{Path: path}}
	case evt.Has(fsnotify.Create):
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			return []variant.Event{variant.UpdateEvent{Path: path}}
		}
		return w.addCreatedDir(fsw, path, logger)
	case evt.Has(fsnotify.Write):
		return []variant.Event{variant.UpdateEvent{Path: path}}
	default:
		return []variant.Event{variant.OtherEvent{Path: path, Op: evt.Op.String()}}
	}
}

// addCreatedDir watches a new directory tree and returns an update for every entry in it,
// parents before children.
func (w *Watcher) addCreatedDir(fsw *fsnotify.Watcher, dir string, logger *zap.Logger) []variant.Event {
	var events []variant.Event
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			logger.Debug("Skipping inaccessible path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if w.ignore(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if addErr := fsw.Add(path); addErr != nil {
				logger.Warn("Watch new directory", zap.String("path", path), zap.Error(addErr))
			}
		}
		events = append(events, variant.UpdateEvent{Path: path})
		return nil
	})
	if err != nil {
		logger.Debug("New directory vanished", zap.String("path", dir), zap.Error(err))
		return []variant.Event{variant.UpdateEvent{Path: dir}}
	}
	return events
}

// addTree registers root and every non-ignored directory below it.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, root string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			w.logger.Warn("Skipping inaccessible path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignore(path) {
			return filepath.SkipDir
		}
		if addErr := fsw.Add(path); addErr != nil {
			return fmt.Errorf("watch %s: %w", path, addErr)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch tree %s: %w", root, err)
	}
	return nil
}
