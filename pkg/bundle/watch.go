package bundle

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a bundle file for changes and swaps in a freshly
// validated index when the file is rewritten. A bundle that fails
// validation is rejected and the previous index stays live.
type Watcher struct {
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	path     string
	debounce time.Duration

	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// DefaultDebounceInterval is the quiet period after a write event before
// a reload is attempted. Editors and atomic-rename writers produce event
// bursts; debouncing collapses them into a single reload.
const DefaultDebounceInterval = 100 * time.Millisecond

// NewWatcher creates a watcher for the bundle file at path.
func NewWatcher(path string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		watcher:  fsw,
		logger:   logger.With("component", "bundle_watcher"),
		path:     path,
		debounce: DefaultDebounceInterval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Watch blocks processing file events until the context is cancelled or
// Stop is called. On each settled change it re-reads and validates the
// bundle and, only on success, hands the new index to onSwap.
func (w *Watcher) Watch(ctx context.Context, onSwap func(*Index)) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(w.doneCh)
	}()

	// Watch the directory, not the file: atomic renames replace the
	// inode and a file-level watch goes stale after the first swap.
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch bundle directory %q: %w", dir, err)
	}

	w.logger.Info("Bundle watcher started",
		"path", w.path,
		"debounce_ms", w.debounce.Milliseconds(),
	)

	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Bundle watcher stopped (context cancelled)")
			return nil

		case <-w.stopCh:
			w.logger.Info("Bundle watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.shouldProcessEvent(event) {
				continue
			}

			w.logger.Debug("Bundle file event",
				"path", event.Name,
				"op", event.Op.String(),
			)

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			timerCh = timer.C

		case <-timerCh:
			timerCh = nil
			w.reload(onSwap)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("Bundle watcher error", "error", err)
			// Continue watching despite errors
		}
	}
}

// Stop stops the watcher and waits for Watch to return.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return w.watcher.Close()
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

func (w *Watcher) reload(onSwap func(*Index)) {
	b, err := ReadFile(w.path)
	if err != nil {
		w.logger.Error("Bundle reload rejected, keeping previous bundle",
			"path", w.path,
			"error", err,
		)
		return
	}
	idx, err := NewIndex(b)
	if err != nil {
		w.logger.Error("Bundle reload rejected, keeping previous bundle",
			"path", w.path,
			"error", err,
		)
		return
	}

	fp, err := Fingerprint(b)
	if err != nil {
		fp = "unknown"
	}
	w.logger.Info("Bundle reloaded",
		"path", w.path,
		"rules", len(b.Rules),
		"paths", len(b.CompiledPaths),
		"fingerprint", fp,
	)
	onSwap(idx)
}

func (w *Watcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op&fsnotify.Chmod == fsnotify.Chmod {
		return false
	}
	// Only the bundle file itself; ignore temp files from atomic writers.
	if filepath.Clean(event.Name) != filepath.Clean(w.path) {
		return false
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return false
	}
	return true
}
