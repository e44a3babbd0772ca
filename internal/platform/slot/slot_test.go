package slot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestFileSlotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileSlot(dir, "bag")
	if err != nil {
		t.Fatalf("NewFileSlot returned error: %v", err)
	}

	data, err := s.Read()
	if err != nil {
		t.Fatalf("reading empty slot: %v", err)
	}
	if data != nil {
		t.Fatalf("expected nil payload for unwritten slot, got %q", data)
	}

	payload := []byte(`[{"id":"p1","qty":2}]`)
	if err := s.Write(payload); err != nil {
		t.Fatalf("writing slot: %v", err)
	}

	data, err = s.Read()
	if err != nil {
		t.Fatalf("reading slot: %v", err)
	}
	if string(data) != string(payload) {
		t.Fatalf("read back %q, want %q", data, payload)
	}
}

func TestFileSlotClear(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileSlot(dir, "bag")
	if err != nil {
		t.Fatalf("NewFileSlot returned error: %v", err)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("clearing absent slot should be a no-op, got %v", err)
	}

	if err := s.Write([]byte("x")); err != nil {
		t.Fatalf("writing slot: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("clearing slot: %v", err)
	}
	data, err := s.Read()
	if err != nil {
		t.Fatalf("reading cleared slot: %v", err)
	}
	if data != nil {
		t.Fatalf("expected nil after clear, got %q", data)
	}
}

func TestFileSlotLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileSlot(dir, "bag")
	if err != nil {
		t.Fatalf("NewFileSlot returned error: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := s.Write([]byte(`[]`)); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading state dir: %v", err)
	}
	if len(entries) != 1 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("expected only the slot file, found %v", names)
	}
}

func TestMemorySlot(t *testing.T) {
	s := NewMemorySlot()
	data, err := s.Read()
	if err != nil || data != nil {
		t.Fatalf("empty memory slot read = (%q, %v)", data, err)
	}

	if err := s.Write([]byte("a")); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, _ = s.Read()
	if string(data) != "a" {
		t.Fatalf("expected a, got %q", data)
	}

	s.FailWrites = true
	if err := s.Write([]byte("b")); err != ErrSlotUnavailable {
		t.Fatalf("expected ErrSlotUnavailable, got %v", err)
	}
}

func TestWatcherNotifiesOnExternalWrite(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileSlot(dir, "bag")
	if err != nil {
		t.Fatalf("NewFileSlot returned error: %v", err)
	}

	notified := make(chan struct{}, 1)
	w, err := NewWatcher(s.Path(), 20*time.Millisecond, func() {
		select {
		case notified <- struct{}{}:
		default:
		}
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewWatcher returned error: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("starting watcher: %v", err)
	}
	defer w.Stop()

	if err := s.Write([]byte(`[{"id":"p1","qty":1}]`)); err != nil {
		t.Fatalf("writing slot: %v", err)
	}

	select {
	case <-notified:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not report the external write")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileSlot(dir, "bag")
	if err != nil {
		t.Fatalf("NewFileSlot returned error: %v", err)
	}

	notified := make(chan struct{}, 1)
	w, err := NewWatcher(s.Path(), 20*time.Millisecond, func() {
		select {
		case notified <- struct{}{}:
		default:
		}
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewWatcher returned error: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("starting watcher: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("writing unrelated file: %v", err)
	}

	select {
	case <-notified:
		t.Fatal("watcher fired for an unrelated file")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherStartFailureLeavesStopSafe(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone", "bag.json")
	w, err := NewWatcher(missing, 20*time.Millisecond, func() {}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewWatcher returned error: %v", err)
	}

	if err := w.Start(context.Background()); err == nil {
		t.Fatal("expected Start to fail for a missing directory")
	}

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked after failed Start")
	}
}
