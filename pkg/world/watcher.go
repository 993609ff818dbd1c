package world

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DriftEvent describes an out-of-band change to the live planet file.
type DriftEvent struct {
	// Path is the planet file location.
	Path string `json:"path"`

	// Size is the file size after the change, zero when removed.
	Size int64 `json:"size"`

	// ModTime is the modification time after the change.
	ModTime time.Time `json:"mod_time"`

	// Op is the filesystem operation that triggered the event.
	Op string `json:"op"`
}

// Watcher observes the live planet file for replacement or removal that
// did not go through the Manager, e.g. a package upgrade overwriting the
// custom planet with the stock one.
type Watcher struct {
	layout  Layout
	logger  zerolog.Logger
	watcher *fsnotify.Watcher

	mu        sync.Mutex
	callbacks []func(DriftEvent)
	lastSize  int64
	lastMod   time.Time
}

// NewWatcher creates a drift watcher for the given data root.
func NewWatcher(dataRoot string, logger zerolog.Logger) *Watcher {
	return &Watcher{
		layout: NewLayout(dataRoot),
		logger: logger.With().Str("component", "world-watcher").Logger(),
	}
}

// OnDrift registers a callback invoked after a settled change.
func (w *Watcher) OnDrift(fn func(DriftEvent)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, fn)
}

// Watch blocks processing filesystem events until ctx is cancelled. The
// data root directory is watched rather than the planet file itself so
// rename-based replacement keeps being observed.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	w.watcher = watcher

	if err := watcher.Add(w.layout.Root); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch data root: %w", err)
	}

	if info, err := os.Stat(w.layout.PlanetPath()); err == nil {
		w.mu.Lock()
		w.lastSize = info.Size()
		w.lastMod = info.ModTime()
		w.mu.Unlock()
	}

	w.logger.Info().
		Str("path", w.layout.PlanetPath()).
		Msg("Watching planet file for drift")

	w.processEvents(ctx)
	return nil
}

// processEvents filters events for the planet file and debounces them so a
// burst of writes yields a single drift check.
func (w *Watcher) processEvents(ctx context.Context) {
	var settleTimer *time.Timer
	settleDelay := 500 * time.Millisecond

	planet := w.layout.PlanetPath()

	for {
		select {
		case <-ctx.Done():
			if w.watcher != nil {
				_ = w.watcher.Close()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if filepath.Clean(event.Name) != planet {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}

			w.logger.Debug().
				Str("file", event.Name).
				Str("op", event.Op.String()).
				Msg("Planet file event")

			op := event.Op.String()
			if settleTimer != nil {
				settleTimer.Stop()
			}
			settleTimer = time.AfterFunc(settleDelay, func() {
				w.checkDrift(op)
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("Watcher error")
		}
	}
}

// checkDrift re-stats the planet file and fires callbacks when the size or
// modification time moved since the last observation.
func (w *Watcher) checkDrift(op string) {
	var size int64
	var mod time.Time
	if info, err := os.Stat(w.layout.PlanetPath()); err == nil {
		size = info.Size()
		mod = info.ModTime()
	}

	w.mu.Lock()
	if size == w.lastSize && mod.Equal(w.lastMod) {
		w.mu.Unlock()
		return
	}
	w.lastSize = size
	w.lastMod = mod
	callbacks := append(([]func(DriftEvent))(nil), w.callbacks...)
	w.mu.Unlock()

	event := DriftEvent{
		Path:    w.layout.PlanetPath(),
		Size:    size,
		ModTime: mod,
		Op:      op,
	}

	w.logger.Warn().
		Int64("size", size).
		Str("op", op).
		Msg("Planet file changed on disk")

	for _, fn := range callbacks {
		fn(event)
	}
}
