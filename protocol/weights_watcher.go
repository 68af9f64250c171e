package protocol

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WeightsWatcher notices changes to a single weights file on disk and
// debounces them into one callback invocation, so the adapter doesn't
// reload mid-write or fire once per fsnotify event during a multi-step
// save.
//
// Simplified from AleutianLocal's services/trace/graph/file_watcher.go,
// which recursively watches a whole directory tree and batches
// heterogeneous changes; a weights file is a single path with one kind of
// change that matters (it got rewritten), so this keeps the debounce
// timer but drops the recursive walk, ignore-pattern matching, and
// per-change batching.
type WeightsWatcher struct {
	path     string
	debounce time.Duration
	handler  func()

	watcher *fsnotify.Watcher
	done    chan struct{}
	stopOnce sync.Once
}

// NewWeightsWatcher creates a watcher for path. handler is called (from a
// background goroutine) after the debounce window elapses with no further
// writes.
func NewWeightsWatcher(path string, debounce time.Duration, handler func()) (*WeightsWatcher, error) {
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the containing directory rather than the file itself: many
	// weights-file writers replace the file (write-to-temp then rename),
	// which orphans a direct watch on the old inode.
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, err
	}
	return &WeightsWatcher{
		path:     path,
		debounce: debounce,
		handler:  handler,
		watcher:  w,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching in the background. Stops automatically when ctx
// is canceled or Stop is called.
func (w *WeightsWatcher) Start(ctx context.Context) error {
	go w.loop(ctx)
	return nil
}

// Stop releases the underlying fsnotify watcher. Safe to call more than
// once.
func (w *WeightsWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()
	})
}

func (w *WeightsWatcher) loop(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			if w.handler != nil {
				w.handler()
			}
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}
