package world

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// TestWatcherReportsPlanetChange tests that an out-of-band write fires a
// single settled drift event. Timing is generous because the watcher
// debounces for half a second.
func TestWatcherReportsPlanetChange(t *testing.T) {
	root := t.TempDir()
	planet := filepath.Join(root, "planet")

	watcher := NewWatcher(root, zerolog.Nop())
	events := make(chan DriftEvent, 8)
	watcher.OnDrift(func(ev DriftEvent) {
		events <- ev
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- watcher.Watch(ctx)
	}()

	// Let the watch loop register before mutating the directory.
	time.Sleep(200 * time.Millisecond)

	if err := os.WriteFile(planet, []byte("tampered-world"), 0644); err != nil {
		t.Fatalf("failed to write planet: %v", err)
	}

	select {
	case ev := <-events:
		if ev.Path != planet {
			t.Errorf("unexpected event path: %s", ev.Path)
		}
		if ev.Size != int64(len("tampered-world")) {
			t.Errorf("unexpected event size: %d", ev.Size)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no drift event within the deadline")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("watch returned an error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop on cancellation")
	}
}

// TestWatcherFansOutToAllCallbacks tests the settled drift check directly:
// every registered callback sees the same event.
func TestWatcherFansOutToAllCallbacks(t *testing.T) {
	root := t.TempDir()
	planet := filepath.Join(root, "planet")
	if err := os.WriteFile(planet, []byte("tampered-world"), 0644); err != nil {
		t.Fatalf("failed to write planet: %v", err)
	}

	watcher := NewWatcher(root, zerolog.Nop())
	var first, second []DriftEvent
	watcher.OnDrift(func(ev DriftEvent) { first = append(first, ev) })
	watcher.OnDrift(func(ev DriftEvent) { second = append(second, ev) })

	watcher.checkDrift("WRITE")

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected both callbacks to fire once, got %d and %d", len(first), len(second))
	}
	if first[0] != second[0] {
		t.Errorf("callbacks saw different events: %+v vs %+v", first[0], second[0])
	}

	// An unchanged file must not fire again.
	watcher.checkDrift("WRITE")
	if len(first) != 1 {
		t.Errorf("unchanged planet fired a second event")
	}
}

// TestWatcherIgnoresOtherFiles tests that sibling files do not trigger
// drift events.
func TestWatcherIgnoresOtherFiles(t *testing.T) {
	root := t.TempDir()

	watcher := NewWatcher(root, zerolog.Nop())
	events := make(chan DriftEvent, 8)
	watcher.OnDrift(func(ev DriftEvent) {
		events <- ev
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = watcher.Watch(ctx) }()

	time.Sleep(200 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(root, "controller.db"), []byte("x"), 0644); err != nil {
		t.Fatalf("failed to write sibling file: %v", err)
	}

	select {
	case ev := <-events:
		t.Errorf("unexpected drift event for a sibling file: %+v", ev)
	case <-time.After(1500 * time.Millisecond):
	}
}
