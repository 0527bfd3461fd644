package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ritzau/block-visualizer/pkg/logging"
)

// ChangeEvent represents a batch of writes to the watched document
type ChangeEvent struct {
	Paths     []string
	Timestamp time.Time
}

// FileWatcher watches a single document file. Editors often replace a file
// by renaming a temporary over it, so the parent directory is watched and
// events are filtered by name.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	events  chan ChangeEvent
	logger  *logging.Logger
	once    sync.Once
}

// NewFileWatcher creates a watcher for the document at path
func NewFileWatcher(path string) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		watcher: watcher,
		path:    abs,
		events:  make(chan ChangeEvent, 100),
		logger:  logging.New("watcher"),
	}, nil
}

// Start begins watching for file changes
func (fw *FileWatcher) Start(ctx context.Context) error {
	dir := filepath.Dir(fw.path)
	if err := fw.watcher.Add(dir); err != nil {
		fw.watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	fw.logger.Info("started watching document", "path", fw.path)

	go fw.processEvents(ctx)
	return nil
}

// processEvents forwards relevant file system events until ctx is done
func (fw *FileWatcher) processEvents(ctx context.Context) {
	defer close(fw.events)
	defer fw.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !fw.relevant(event) {
				continue
			}
			fw.logger.Debug("document changed", "op", event.Op.String())
			select {
			case fw.events <- ChangeEvent{Paths: []string{event.Name}, Timestamp: time.Now()}:
			case <-ctx.Done():
				return
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Error("watcher error", "error", err)
		}
	}
}

func (fw *FileWatcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != fw.path {
		return false
	}
	// A rename or remove is followed by a create when the file is replaced
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}

// Events returns the channel of change events. It is closed when the watcher
// stops.
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}

// Stop stops the file watcher
func (fw *FileWatcher) Stop() error {
	var err error
	fw.once.Do(func() { err = fw.watcher.Close() })
	return err
}

// Run watches path and calls onChange once per debounced burst of writes
// until ctx is done
func Run(ctx context.Context, path string, quietPeriod, maxWait time.Duration, onChange func(ctx context.Context, event ChangeEvent)) error {
	fw, err := NewFileWatcher(path)
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}

	debouncer := NewDebouncer(fw.Events(), quietPeriod, maxWait)
	debouncer.Start(ctx)

	go func() {
		for event := range debouncer.Output() {
			onChange(ctx, event)
		}
	}()
	return nil
}
