package layout

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/ritzau/block-visualizer/pkg/logging"
	"github.com/ritzau/block-visualizer/pkg/model"
)

// Adapter runs an injected engine over a diagram
type Adapter struct {
	engine  Engine
	options Options
}

// NewAdapter wires an engine with spacing options. A nil engine selects Layered.
func NewAdapter(engine Engine, opts Options) *Adapter {
	if engine == nil {
		engine = NewLayered()
	}
	if opts.LayerSpacing <= 0 {
		opts.LayerSpacing = DefaultOptions().LayerSpacing
	}
	if opts.NodeSpacing <= 0 {
		opts.NodeSpacing = DefaultOptions().NodeSpacing
	}
	return &Adapter{engine: engine, options: opts}
}

// Options returns the configured spacing
func (a *Adapter) Options() Options {
	return a.options
}

// Apply lays out d in the given direction and returns a copy with new node
// positions. Edges are passed through unchanged. Every node is given the same
// fixed box and is centred inside it.
//
// Engine failures, including a panicking engine and a diagram that fails
// validation, come back as *LayoutEngineError. Cancellation of ctx is returned
// as the context's own error.
func (a *Adapter) Apply(ctx context.Context, d model.Diagram, dir Direction) (model.Diagram, error) {
	logger := logging.New("layout")

	if err := ctx.Err(); err != nil {
		return model.Diagram{}, err
	}

	if err := d.Validate(); err != nil {
		return model.Diagram{}, &LayoutEngineError{Reason: "invalid diagram", Err: err}
	}

	opts := a.options
	opts.Direction = dir
	in := toInput(d, opts)

	out, err := a.run(ctx, in)
	if err != nil {
		var engineErr *LayoutEngineError
		if errors.As(err, &engineErr) {
			return model.Diagram{}, err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return model.Diagram{}, err
		}
		return model.Diagram{}, &LayoutEngineError{Reason: "engine rejected the graph", Err: err}
	}
	// A cancelled run may still return a result; it must not be used
	if err := ctx.Err(); err != nil {
		return model.Diagram{}, err
	}

	placed := make(map[string]Box, len(out.Children))
	for _, b := range out.Children {
		placed[b.ID] = b
	}

	result := d.Clone()
	for i := range result.Nodes {
		n := &result.Nodes[i]
		b, ok := placed[n.ID]
		if !ok {
			return model.Diagram{}, &LayoutEngineError{Reason: fmt.Sprintf("no position for node %q", n.ID)}
		}
		if !finite(b.X) || !finite(b.Y) {
			return model.Diagram{}, &LayoutEngineError{Reason: fmt.Sprintf("non-finite position for node %q", n.ID)}
		}
		n.Position = model.Position{
			X: b.X + (BoxWidth-n.Width)/2,
			Y: b.Y + (BoxHeight-n.Height)/2,
		}
	}

	logger.Info("applied layout", "direction", dir.String(), "nodes", len(result.Nodes), "edges", len(result.Edges))
	return result, nil
}

// run calls the engine, turning a panic into a LayoutEngineError
func (a *Adapter) run(ctx context.Context, in Input) (out Output, err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.New("layout").Error("layout engine panicked", "panic", r)
			out, err = Output{}, &LayoutEngineError{Reason: "engine panicked", Err: fmt.Errorf("%v", r)}
		}
	}()
	return a.engine.Layout(ctx, in)
}

func toInput(d model.Diagram, opts Options) Input {
	in := Input{
		Children: make([]Box, 0, len(d.Nodes)),
		Edges:    make([]EdgeRef, 0, len(d.Edges)),
		Options:  opts,
	}
	for _, n := range d.Nodes {
		in.Children = append(in.Children, Box{ID: n.ID, Width: BoxWidth, Height: BoxHeight})
	}
	for _, e := range d.Edges {
		in.Edges = append(in.Edges, EdgeRef{ID: e.ID, Source: e.Source, Target: e.Target})
	}
	return in
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
