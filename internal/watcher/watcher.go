package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"packscaler/internal/files"
)

// ProcessFunc handles one settled archive.
type ProcessFunc func(ctx context.Context, path string) error

// Watcher runs ProcessFunc for every texture pack dropped into a directory.
type Watcher struct {
	dir     string
	settle  time.Duration
	process ProcessFunc
	logger  logrus.FieldLogger

	watcher *fsnotify.Watcher
	ready   chan string
	done    chan struct{}

	mu      sync.Mutex
	pending map[string]*time.Timer
}

func NewWatcher(dir string, settle time.Duration, process ProcessFunc, logger logrus.FieldLogger) (*Watcher, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if settle <= 0 {
		settle = 500 * time.Millisecond
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch folder %s: %w", dir, err)
	}

	return &Watcher{
		dir:     dir,
		settle:  settle,
		process: process,
		logger:  logger.WithField("dir", dir),
		watcher: fsWatcher,
		ready:   make(chan string),
		done:    make(chan struct{}),
		pending: make(map[string]*time.Timer),
	}, nil
}

// ShouldProcess accepts visible .zip files that are not our own outputs.
func ShouldProcess(path string) bool {
	base := filepath.Base(path)
	return !strings.HasPrefix(base, ".") && files.IsArchive(base) && !files.IsOutput(base)
}

// Run blocks until ctx is done, then waits for running jobs.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var jobs sync.WaitGroup
	defer jobs.Wait()
	defer w.stopPending()
	defer close(w.done)

	w.logger.Info("Watching for texture packs")

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)

		case path := <-w.ready:
			jobs.Add(1)
			go func() {
				defer jobs.Done()
				if err := w.process(ctx, path); err != nil {
					w.logger.WithField("archive", path).Errorf("processing failed: %v", err)
				}
			}()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warnf("Watcher error: %v", err)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !ShouldProcess(event.Name) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, exists := w.pending[event.Name]; exists {
		timer.Stop()
		delete(w.pending, event.Name)
	}

	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	// writes keep pushing the deadline back until the file settles
	path := event.Name
	var timer *time.Timer
	timer = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		if w.pending[path] == timer {
			delete(w.pending, path)
		}
		w.mu.Unlock()

		w.deliver(ctx, path)
	})
	w.pending[path] = timer
}

// deliver hands path to Run. It gives up once ctx is done or Run has returned.
func (w *Watcher) deliver(ctx context.Context, path string) bool {
	select {
	case w.ready <- path:
		return true
	case <-ctx.Done():
	case <-w.done:
	}
	return false
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}
