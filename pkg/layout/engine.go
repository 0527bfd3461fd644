package layout

import "context"

// Fixed per-node bounding box handed to the engine
const (
	BoxWidth  = 150.0
	BoxHeight = 50.0
)

// Options configure one layout run
type Options struct {
	Direction    Direction
	LayerSpacing float64 // gap between consecutive layers
	NodeSpacing  float64 // gap between neighbours within a layer
}

// DefaultOptions returns 80/80 spacing flowing downward
func DefaultOptions() Options {
	return Options{Direction: Down, LayerSpacing: 80, NodeSpacing: 80}
}

// Box is a node as the engine sees it. X/Y are the top-left corner.
type Box struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// EdgeRef connects two boxes by id
type EdgeRef struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// Input is the graph handed to an engine
type Input struct {
	Children []Box
	Edges    []EdgeRef
	Options  Options
}

// Output carries a position for every input child
type Output struct {
	Children []Box
}

// Engine computes node positions. Implementations may be slow and must honour
// ctx cancellation.
type Engine interface {
	Layout(ctx context.Context, in Input) (Output, error)
}

// EngineFunc adapts a function to Engine
type EngineFunc func(ctx context.Context, in Input) (Output, error)

func (f EngineFunc) Layout(ctx context.Context, in Input) (Output, error) {
	return f(ctx, in)
}
