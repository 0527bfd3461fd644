package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDebouncer_CoalescesBurst(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	input := make(chan ChangeEvent)
	d := NewDebouncer(input, 50*time.Millisecond, time.Second)
	d.Start(ctx)

	for i := 0; i < 5; i++ {
		input <- ChangeEvent{Paths: []string{"doc.json"}}
	}

	select {
	case event := <-d.Output():
		if len(event.Paths) != 1 || event.Paths[0] != "doc.json" {
			t.Errorf("expected deduplicated path, got %v", event.Paths)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no debounced event")
	}

	select {
	case event := <-d.Output():
		t.Errorf("expected a single event, got another: %v", event)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestDebouncer_MaxWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	input := make(chan ChangeEvent)
	d := NewDebouncer(input, 100*time.Millisecond, 250*time.Millisecond)
	d.Start(ctx)

	// keep writing faster than the quiet period
	stop := time.After(time.Second)
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			select {
			case input <- ChangeEvent{Paths: []string{"doc.json"}}:
			case <-d.Output():
				return
			}
		case <-d.Output():
			return
		case <-stop:
			t.Fatal("max wait did not force a flush")
		}
	}
}

func TestDebouncer_FlushesOnClose(t *testing.T) {
	input := make(chan ChangeEvent, 1)
	d := NewDebouncer(input, time.Hour, time.Hour)
	d.Start(context.Background())

	input <- ChangeEvent{Paths: []string{"a"}}
	close(input)

	event, ok := <-d.Output()
	if !ok || len(event.Paths) != 1 {
		t.Fatalf("expected pending event on close, got %v (ok=%v)", event, ok)
	}
	if _, ok := <-d.Output(); ok {
		t.Error("expected output to be closed")
	}
}

func TestRun_ReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "diagram.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan ChangeEvent, 10)
	err := Run(ctx, path, 20*time.Millisecond, time.Second, func(ctx context.Context, event ChangeEvent) {
		changes <- event
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// unrelated files in the same directory are ignored
	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(`{"data": {}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case event := <-changes:
		for _, p := range event.Paths {
			if filepath.Base(p) != "diagram.json" {
				t.Errorf("unexpected path %s", p)
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestRun_MissingDirectory(t *testing.T) {
	err := Run(context.Background(), filepath.Join(t.TempDir(), "missing", "doc.json"), time.Millisecond, time.Millisecond,
		func(context.Context, ChangeEvent) {})
	if err == nil {
		t.Error("expected error for a directory that does not exist")
	}
}
