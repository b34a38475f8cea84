package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	w := New()
	if w == nil {
		t.Fatal("New() returned nil")
	}
	if w.debounce != 100*time.Millisecond {
		t.Errorf("default debounce = %v, want 100ms", w.debounce)
	}
}

func TestNew_WithOptions(t *testing.T) {
	w := New(WithDebounce(50 * time.Millisecond))
	if w.debounce != 50*time.Millisecond {
		t.Errorf("debounce = %v, want 50ms", w.debounce)
	}

	w = New(WithDebounce(-1))
	if w.debounce != 100*time.Millisecond {
		t.Errorf("negative debounce should be ignored, got %v", w.debounce)
	}
}

func TestOperation_String(t *testing.T) {
	tests := []struct {
		op   Operation
		want string
	}{
		{OpWrite, "write"},
		{OpCreate, "create"},
		{OpRemove, "remove"},
		{OpRename, "rename"},
		{Operation(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.op, got, tt.want)
		}
	}
}

func TestWatcher_WatchUnwatch(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "test.toml")

	w := New()
	if err := w.Watch(tmpFile); err != nil {
		t.Errorf("Watch() error = %v", err)
	}
	if err := w.Watch(filepath.Join(tmpDir, "other.toml")); err != nil {
		t.Errorf("Watch() error = %v", err)
	}
	if files := w.WatchedFiles(); len(files) != 2 {
		t.Errorf("WatchedFiles() = %d files, want 2", len(files))
	}

	if err := w.Unwatch(tmpFile); err != nil {
		t.Errorf("Unwatch() error = %v", err)
	}
	if files := w.WatchedFiles(); len(files) != 1 {
		t.Errorf("WatchedFiles() = %d files, want 1", len(files))
	}
}

func TestWatcher_StartStop(t *testing.T) {
	w := New()
	if err := w.Watch(filepath.Join(t.TempDir(), "a.toml")); err != nil {
		t.Fatal(err)
	}

	if w.IsRunning() {
		t.Error("IsRunning() = true before Start()")
	}

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !w.IsRunning() {
		t.Error("IsRunning() = false after Start()")
	}

	if err := w.Start(context.Background()); !errors.Is(err, ErrRunning) {
		t.Errorf("second Start() error = %v, want ErrRunning", err)
	}

	w.Stop()
	if w.IsRunning() {
		t.Error("IsRunning() = true after Stop()")
	}

	// Stop again should be idempotent
	w.Stop()
}

func TestWatcher_StartMissingDirectory(t *testing.T) {
	w := New()
	_ = w.Watch(filepath.Join(t.TempDir(), "missing", "a.toml"))

	if err := w.Start(context.Background()); err == nil {
		w.Stop()
		t.Fatal("Start() should fail for a missing directory")
	}
	if w.IsRunning() {
		t.Error("IsRunning() = true after failed Start()")
	}
}

func startWatcher(t *testing.T, path string, opts ...Option) <-chan Event {
	t.Helper()

	events := make(chan Event, 16)
	w := New(opts...)
	w.OnChange(func(event Event) {
		events <- event
	})
	if err := w.Watch(path); err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(w.Stop)
	return events
}

func waitEvent(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("did not receive file event")
		return Event{}
	}
}

func TestWatcher_DetectsFileModification(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "test.toml")
	if err := os.WriteFile(tmpFile, []byte("initial"), 0o644); err != nil {
		t.Fatal(err)
	}

	events := startWatcher(t, tmpFile, WithDebounce(0))

	if err := os.WriteFile(tmpFile, []byte("modified"), 0o644); err != nil {
		t.Fatal(err)
	}

	ev := waitEvent(t, events)
	if ev.Op != OpWrite {
		t.Errorf("event.Op = %v, want OpWrite", ev.Op)
	}
	if ev.Path != tmpFile {
		t.Errorf("event.Path = %q, want %q", ev.Path, tmpFile)
	}
}

func TestWatcher_DetectsFileCreation(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "new.toml")

	events := startWatcher(t, tmpFile, WithDebounce(0))

	if err := os.WriteFile(tmpFile, []byte("created"), 0o644); err != nil {
		t.Fatal(err)
	}

	if ev := waitEvent(t, events); ev.Op != OpCreate {
		t.Errorf("event.Op = %v, want OpCreate", ev.Op)
	}
}

func TestWatcher_DetectsReplaceByRename(t *testing.T) {
	dir := t.TempDir()
	tmpFile := filepath.Join(dir, "cfg.toml")
	if err := os.WriteFile(tmpFile, []byte("initial"), 0o644); err != nil {
		t.Fatal(err)
	}

	events := startWatcher(t, tmpFile, WithDebounce(20*time.Millisecond))

	staging := tmpFile + ".tmp"
	if err := os.WriteFile(staging, []byte("replaced"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(staging, tmpFile); err != nil {
		t.Fatal(err)
	}

	ev := waitEvent(t, events)
	if ev.Path != tmpFile {
		t.Errorf("event.Path = %q, want %q", ev.Path, tmpFile)
	}
	if ev.Op != OpCreate {
		t.Errorf("event.Op = %v, want OpCreate", ev.Op)
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	events := startWatcher(t, filepath.Join(dir, "watched.toml"), WithDebounce(0))

	if err := os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-events:
		t.Errorf("unexpected event %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatcher_QueueEventCoalesces(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		ops  []Operation
		want Operation
	}{
		{"write write", []Operation{OpWrite, OpWrite}, OpWrite},
		{"create write", []Operation{OpCreate, OpWrite}, OpCreate},
		{"write remove", []Operation{OpWrite, OpRemove}, OpRemove},
		{"remove write", []Operation{OpRemove, OpWrite}, OpRemove},
		{"remove create", []Operation{OpRemove, OpCreate}, OpCreate},
		{"write rename", []Operation{OpWrite, OpRename}, OpRename},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := New()
			for i, op := range tt.ops {
				w.queueEvent(Event{Path: "/a", Op: op, Time: now.Add(time.Duration(i) * time.Millisecond)})
			}
			got := w.pendingFiles["/a"]
			if got.Op != tt.want {
				t.Errorf("pending op = %v, want %v", got.Op, tt.want)
			}
			if want := now.Add(time.Duration(len(tt.ops)-1) * time.Millisecond); !got.Time.Equal(want) {
				t.Errorf("pending time = %v, want latest %v", got.Time, want)
			}
		})
	}
}

func TestWatcher_ProcessPendingEvents(t *testing.T) {
	w := New(WithDebounce(50 * time.Millisecond))

	var got []Event
	w.OnChange(func(event Event) {
		got = append(got, event)
	})

	base := time.Now()
	w.queueEvent(Event{Path: "/old", Op: OpWrite, Time: base})
	w.queueEvent(Event{Path: "/fresh", Op: OpWrite, Time: base.Add(40 * time.Millisecond)})

	w.processPendingEvents(base.Add(60 * time.Millisecond))

	if len(got) != 1 || got[0].Path != "/old" {
		t.Fatalf("emitted %v, want only /old", got)
	}
	if _, ok := w.pendingFiles["/fresh"]; !ok {
		t.Error("/fresh should still be pending")
	}
}

func TestWatcher_HandlerPanicIsContained(t *testing.T) {
	w := New()

	called := false
	w.OnChange(func(Event) { panic("boom") })
	w.OnChange(func(Event) { called = true })

	w.emitEvent(Event{Path: "/a", Op: OpWrite})

	if !called {
		t.Error("second handler was not called after a panic")
	}
}
