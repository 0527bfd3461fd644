package watcher

import (
	"context"
	"time"

	"github.com/ritzau/block-visualizer/pkg/logging"
)

const (
	// DefaultQuietPeriod is how long writes must pause before a reload
	DefaultQuietPeriod = 200 * time.Millisecond
	// DefaultMaxWait bounds how long a steady stream of writes can delay one
	DefaultMaxWait = 2 * time.Second
)

// Debouncer batches rapid file system events so that an editor saving in
// several writes triggers a single reload
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

// run accumulates events until the input has been quiet for quietPeriod or
// maxWait has passed since the first pending event
func (d *Debouncer) run(ctx context.Context) {
	defer close(d.output)

	var (
		quiet    <-chan time.Time
		deadline <-chan time.Time
		pending  []string
		count    int
	)

	flush := func() {
		quiet, deadline = nil, nil
		if count == 0 {
			return
		}
		logging.Debug("flushing accumulated events", "count", count)
		event := ChangeEvent{Paths: dedupe(pending), Timestamp: time.Now()}
		pending, count = nil, 0
		select {
		case d.output <- event:
		case <-ctx.Done():
		}
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				return
			}
			pending = append(pending, event.Paths...)
			count++
			quiet = time.After(d.quietPeriod)
			if deadline == nil {
				deadline = time.After(d.maxWait)
			}

		case <-quiet:
			flush()

		case <-deadline:
			flush()
		}
	}
}

// Output returns the channel of debounced events
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := paths[:0]
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
