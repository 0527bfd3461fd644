package view

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ritzau/block-visualizer/pkg/cycles"
	"github.com/ritzau/block-visualizer/pkg/graph"
	"github.com/ritzau/block-visualizer/pkg/layout"
	"github.com/ritzau/block-visualizer/pkg/logging"
	"github.com/ritzau/block-visualizer/pkg/mapper"
	"github.com/ritzau/block-visualizer/pkg/model"
	"github.com/ritzau/block-visualizer/pkg/pubsub"
	"github.com/ritzau/block-visualizer/pkg/source"
)

// Options wire a shell. Source is required; a nil Adapter selects the
// layered engine with default spacing and a nil Publisher disables events.
// Rules are used as given, so an empty Namespace reads the document root.
type Options struct {
	Source       source.Source
	Rules        mapper.Rules
	Adapter      *layout.Adapter
	Publisher    pubsub.Publisher
	AutoLayout   *layout.Direction // lay out after every successful load
	FetchTimeout time.Duration
	Now          func() time.Time
}

// Shell owns the diagram the user sees. All mutations, whether they come from
// a fetch, a layout or an edit, go through its lock, so it is the only writer.
type Shell struct {
	mu sync.Mutex

	src          source.Source
	rules        mapper.Rules
	adapter      *layout.Adapter
	publisher    pubsub.Publisher
	autoLayout   *layout.Direction
	fetchTimeout time.Duration
	now          func() time.Time
	logger       *logging.Logger

	state    State
	current  model.Diagram // as edited
	original model.Diagram // as fetched
	lastErr  *LastError
	revision uint64 // bumped on every change to current

	// layout bookkeeping: only the call holding the latest token may apply
	layoutToken  uint64
	layoutCancel context.CancelFunc
	restState    State // state to return to when a layout fails
}

// New creates a shell in the empty state
func New(opts Options) (*Shell, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("view: a source is required")
	}
	adapter := opts.Adapter
	if adapter == nil {
		adapter = layout.NewAdapter(nil, layout.DefaultOptions())
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Shell{
		src:          opts.Source,
		rules:        opts.Rules.WithDefaults(),
		adapter:      adapter,
		publisher:    opts.Publisher,
		autoLayout:   opts.AutoLayout,
		fetchTimeout: opts.FetchTimeout,
		now:          now,
		logger:       logging.New("view"),
		state:        StateEmpty,
		current:      model.NewDiagram(),
		original:     model.NewDiagram(),
	}, nil
}

// State returns the current state
func (s *Shell) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SourceName names where documents come from
func (s *Shell) SourceName() string {
	return s.src.Name()
}

// Load fetches and maps the document, replacing both diagrams on success.
// On failure the shell goes back to empty, keeps whatever it showed before and
// records the error. Any layout in flight is superseded.
func (s *Shell) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateLoading {
		s.mu.Unlock()
		return ErrBusy
	}
	s.supersedeLayoutLocked()
	s.setStateLocked(StateLoading, fmt.Sprintf("fetching %s", s.src.Name()))
	rules := s.rules
	s.mu.Unlock()

	d, report, err := s.fetch(ctx, rules)
	if err != nil {
		s.fail(err, StateEmpty)
		return err
	}

	var layoutErr error
	if s.autoLayout != nil {
		laidOut, err := s.adapter.Apply(ctx, d, *s.autoLayout)
		if err != nil {
			layoutErr = err
		} else {
			d = laidOut
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.original = d.Clone()
	s.current = d
	s.revision++
	s.lastErr = nil
	if layoutErr != nil {
		s.recordErrorLocked(layoutErr)
	}

	msg := fmt.Sprintf("loaded %d nodes, %d edges", report.Nodes, report.Edges)
	if n := len(report.DroppedLinks); n > 0 {
		msg += fmt.Sprintf(" (%d links to unknown blocks dropped)", n)
	}
	s.setStateLocked(StateReady, msg)
	s.publishDiagramLocked("loaded")
	s.logger.Info("document loaded", "source", s.src.Name(), "nodes", report.Nodes,
		"edges", report.Edges, "dropped", len(report.DroppedLinks))

	if layoutErr != nil {
		return fmt.Errorf("auto layout: %w", layoutErr)
	}
	return nil
}

func (s *Shell) fetch(ctx context.Context, rules mapper.Rules) (model.Diagram, mapper.Report, error) {
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}

	data, err := s.src.Fetch(ctx)
	if err != nil {
		return model.Diagram{}, mapper.Report{}, fmt.Errorf("fetch: %w", err)
	}

	// rules.Rand is shared with AddNode, so mapping happens under the lock
	s.mu.Lock()
	defer s.mu.Unlock()
	d, report, err := mapper.Build(data, rules)
	if err != nil {
		return model.Diagram{}, mapper.Report{}, fmt.Errorf("map: %w", err)
	}
	return d, report, nil
}

// Layout runs the layout engine on the current or original diagram. A newer
// Layout or Load cancels this call's context and its result is discarded with
// ErrSuperseded, so a stale layout can never overwrite a newer one.
func (s *Shell) Layout(ctx context.Context, dir layout.Direction, basis Basis) error {
	s.mu.Lock()
	if s.state == StateLoading {
		s.mu.Unlock()
		return ErrBusy
	}

	s.supersedeLayoutLocked()
	s.layoutToken++
	token := s.layoutToken
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.layoutCancel = cancel

	if s.state != StateLayingOut {
		s.restState = s.state
	}
	input := s.current.Clone()
	if basis == BasisOriginal {
		input = s.original.Clone()
	}
	s.setStateLocked(StateLayingOut, fmt.Sprintf("laying out %s (%s)", dir, basis))
	s.mu.Unlock()

	result, err := s.adapter.Apply(ctx, input, dir)

	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.layoutToken {
		s.logger.Debug("discarding superseded layout", "token", token, "latest", s.layoutToken)
		return ErrSuperseded
	}
	s.layoutCancel = nil

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			s.setStateLocked(s.restState, "layout cancelled")
			return err
		}
		s.recordErrorLocked(err)
		s.setStateLocked(s.restState, "layout failed")
		return err
	}

	if basis == BasisOriginal {
		s.current = result
	} else {
		s.applyPositionsLocked(result)
	}
	s.revision++
	// only a successful load leaves the empty state
	next := StateReady
	if s.restState == StateEmpty {
		next = StateEmpty
	}
	s.setStateLocked(next, fmt.Sprintf("laid out %s", dir))
	s.publishDiagramLocked("laid_out")
	return nil
}

// applyPositionsLocked copies positions from a layout result onto current.
// Nodes and edges added while the layout ran are kept.
func (s *Shell) applyPositionsLocked(result model.Diagram) {
	positions := make(map[string]model.Position, len(result.Nodes))
	for _, n := range result.Nodes {
		positions[n.ID] = n.Position
	}
	for i := range s.current.Nodes {
		if p, ok := positions[s.current.Nodes[i].ID]; ok {
			s.current.Nodes[i].Position = p
		}
	}
}

// supersedeLayoutLocked invalidates the in-flight layout, if any
func (s *Shell) supersedeLayoutLocked() {
	if s.layoutCancel != nil {
		s.layoutCancel()
		s.layoutCancel = nil
	}
	if s.state == StateLayingOut {
		// The superseded call will not restore the state itself
		s.state = s.restState
	}
	s.layoutToken++
}

// fail records err and moves to the given state
func (s *Shell) fail(err error, state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordErrorLocked(err)
	s.setStateLocked(state, s.lastErr.Message)
}

func (s *Shell) recordErrorLocked(err error) {
	s.lastErr = &LastError{
		Kind:    classify(err),
		Message: err.Error(),
		At:      s.now(),
	}
	s.logger.Error("operation failed", "kind", string(s.lastErr.Kind), "error", err)
}

func (s *Shell) setStateLocked(state State, message string) {
	s.state = state
	s.publishStatusLocked(message)
}

func (s *Shell) publishStatusLocked(message string) {
	if s.publisher == nil {
		return
	}
	status := pubsub.StatusEvent{
		State:      string(s.state),
		Message:    message,
		Nodes:      len(s.current.Nodes),
		Edges:      len(s.current.Edges),
		Generation: s.revision,
	}
	if s.lastErr != nil {
		status.Error = &pubsub.ErrorInfo{Kind: string(s.lastErr.Kind), Message: s.lastErr.Message}
	}
	if err := s.publisher.Publish(pubsub.TopicView, string(s.state), status); err != nil {
		s.logger.Warn("failed to publish status", "error", err)
	}
}

func (s *Shell) publishDiagramLocked(eventType string) {
	if s.publisher == nil {
		return
	}
	event := pubsub.DiagramEvent{
		Nodes:      len(s.current.Nodes),
		Edges:      len(s.current.Edges),
		Generation: s.revision,
		Cycles:     len(cycles.FindCycles(graph.FromDiagram(s.current))),
	}
	if err := s.publisher.Publish(pubsub.TopicDiagram, eventType, event); err != nil {
		s.logger.Warn("failed to publish diagram change", "error", err)
	}
}
