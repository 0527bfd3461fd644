package layout

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritzau/block-visualizer/pkg/model"
)

func chain(ids ...string) model.Diagram {
	d := model.NewDiagram()
	for _, id := range ids {
		d.Nodes = append(d.Nodes, model.Node{ID: id, Width: 150, Height: 50})
	}
	for i := 0; i+1 < len(ids); i++ {
		d.Edges = append(d.Edges, model.Edge{ID: ids[i] + "-" + ids[i+1], Source: ids[i], Target: ids[i+1], Type: model.EdgeTypeFloating})
	}
	return d
}

func boxByID(out Output) map[string]Box {
	m := make(map[string]Box, len(out.Children))
	for _, b := range out.Children {
		m[b.ID] = b
	}
	return m
}

func TestParseDirection(t *testing.T) {
	for _, s := range []string{"down", "DOWN", "vertical", "tb"} {
		d, err := ParseDirection(s)
		require.NoError(t, err, s)
		assert.Equal(t, Down, d)
	}
	for _, s := range []string{"right", "Horizontal", "lr"} {
		d, err := ParseDirection(s)
		require.NoError(t, err, s)
		assert.Equal(t, Right, d)
	}
	_, err := ParseDirection("diagonal")
	assert.Error(t, err)
}

func TestLayered_DownChain(t *testing.T) {
	in := toInput(chain("a", "b", "c"), DefaultOptions())
	out, err := NewLayered().Layout(context.Background(), in)
	require.NoError(t, err)

	boxes := boxByID(out)
	require.Len(t, boxes, 3)
	assert.Equal(t, 0.0, boxes["a"].Y)
	assert.Equal(t, 130.0, boxes["b"].Y) // 50 box + 80 spacing
	assert.Equal(t, 260.0, boxes["c"].Y)
	assert.Equal(t, boxes["a"].X, boxes["c"].X)
}

func TestLayered_RightChain(t *testing.T) {
	opts := DefaultOptions()
	opts.Direction = Right
	out, err := NewLayered().Layout(context.Background(), toInput(chain("a", "b"), opts))
	require.NoError(t, err)

	boxes := boxByID(out)
	assert.Equal(t, 0.0, boxes["a"].X)
	assert.Equal(t, 230.0, boxes["b"].X) // 150 box + 80 spacing
	assert.Equal(t, boxes["a"].Y, boxes["b"].Y)
}

func TestLayered_SiblingsShareLayer(t *testing.T) {
	d := chain("root")
	for _, id := range []string{"x", "y"} {
		d.Nodes = append(d.Nodes, model.Node{ID: id, Width: 70, Height: 70})
		d.Edges = append(d.Edges, model.Edge{ID: "root-" + id, Source: "root", Target: id})
	}

	out, err := NewLayered().Layout(context.Background(), toInput(d, DefaultOptions()))
	require.NoError(t, err)

	boxes := boxByID(out)
	assert.Equal(t, boxes["x"].Y, boxes["y"].Y)
	assert.Greater(t, boxes["x"].Y, boxes["root"].Y)
	assert.Equal(t, 230.0, math.Abs(boxes["x"].X-boxes["y"].X), "siblings are one cell plus spacing apart")

	// single root is centred above its two children
	mid := (boxes["x"].X + boxes["y"].X) / 2
	assert.InDelta(t, mid, boxes["root"].X, 1e-9)
}

func TestLayered_CycleStillLayered(t *testing.T) {
	d := chain("a", "b", "c")
	d.Edges = append(d.Edges, model.Edge{ID: "c-a", Source: "c", Target: "a"})

	out, err := NewLayered().Layout(context.Background(), toInput(d, DefaultOptions()))
	require.NoError(t, err)

	boxes := boxByID(out)
	require.Len(t, boxes, 3)
	assert.Less(t, boxes["a"].Y, boxes["b"].Y)
	assert.Less(t, boxes["b"].Y, boxes["c"].Y)
}

func TestLayered_ReducesCrossings(t *testing.T) {
	// a1->b2 and a2->b1 cross when b keeps input order
	d := model.NewDiagram()
	for _, id := range []string{"a1", "a2", "b1", "b2"} {
		d.Nodes = append(d.Nodes, model.Node{ID: id, Width: 150, Height: 50})
	}
	d.Edges = append(d.Edges,
		model.Edge{ID: "e1", Source: "a1", Target: "b2"},
		model.Edge{ID: "e2", Source: "a2", Target: "b1"},
	)

	out, err := NewLayered().Layout(context.Background(), toInput(d, DefaultOptions()))
	require.NoError(t, err)

	boxes := boxByID(out)
	assert.Less(t, boxes["a1"].X, boxes["a2"].X)
	assert.Less(t, boxes["b2"].X, boxes["b1"].X)
}

func TestLayered_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLayered().Layout(ctx, toInput(chain("a", "b"), DefaultOptions()))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLayered_RejectsUnknownEdge(t *testing.T) {
	in := Input{
		Children: []Box{{ID: "a", Width: 150, Height: 50}},
		Edges:    []EdgeRef{{ID: "a-z", Source: "a", Target: "z"}},
		Options:  DefaultOptions(),
	}
	_, err := NewLayered().Layout(context.Background(), in)
	assert.Error(t, err)
}

func TestAdapter_CentresNodesAndKeepsEdges(t *testing.T) {
	d := chain("module")
	d.Nodes = append(d.Nodes, model.Node{ID: "port", Width: 70, Height: 70, Shape: model.ShapeCircle})
	d.Edges = append(d.Edges, model.Edge{ID: "module-port", Source: "module", Target: "port", SourcePort: "p1", TargetPort: "p2", Type: model.EdgeTypeFloating})

	var seen Input
	engine := EngineFunc(func(ctx context.Context, in Input) (Output, error) {
		seen = in
		return Output{Children: []Box{
			{ID: "module", X: 0, Y: 0, Width: BoxWidth, Height: BoxHeight},
			{ID: "port", X: 0, Y: 200, Width: BoxWidth, Height: BoxHeight},
		}}, nil
	})

	a := NewAdapter(engine, Options{LayerSpacing: 80, NodeSpacing: 80})
	got, err := a.Apply(context.Background(), d, Right)
	require.NoError(t, err)

	assert.Equal(t, Right, seen.Options.Direction)
	for _, c := range seen.Children {
		assert.Equal(t, BoxWidth, c.Width)
		assert.Equal(t, BoxHeight, c.Height)
	}

	port, _ := got.NodeByID("port")
	assert.Equal(t, model.Position{X: 40, Y: 190}, port.Position)
	assert.Equal(t, 70.0, port.Width, "style size is preserved")

	assert.Equal(t, d.Edges, got.Edges)
	assert.Zero(t, d.Nodes[1].Position, "input diagram is not mutated")
}

func TestAdapter_EngineFailure(t *testing.T) {
	boom := errors.New("boom")
	a := NewAdapter(EngineFunc(func(ctx context.Context, in Input) (Output, error) {
		return Output{}, boom
	}), DefaultOptions())

	_, err := a.Apply(context.Background(), chain("a"), Down)
	require.ErrorIs(t, err, ErrLayoutEngine)
	assert.ErrorIs(t, err, boom)
}

func TestAdapter_EnginePanic(t *testing.T) {
	a := NewAdapter(EngineFunc(func(ctx context.Context, in Input) (Output, error) {
		panic("index out of range")
	}), DefaultOptions())

	var err error
	require.NotPanics(t, func() {
		_, err = a.Apply(context.Background(), chain("a", "b"), Down)
	})
	require.ErrorIs(t, err, ErrLayoutEngine)
	assert.Contains(t, err.Error(), "index out of range")
}

func TestAdapter_RejectsInvalidDiagram(t *testing.T) {
	called := false
	a := NewAdapter(EngineFunc(func(ctx context.Context, in Input) (Output, error) {
		called = true
		return Output{}, nil
	}), DefaultOptions())

	d := chain("a", "b")
	d.Edges = append(d.Edges, d.Edges[0])
	_, err := a.Apply(context.Background(), d, Down)
	require.ErrorIs(t, err, ErrLayoutEngine)
	assert.False(t, called, "engine must not see an invalid diagram")
}

func TestAdapter_MissingOrBadOutput(t *testing.T) {
	missing := NewAdapter(EngineFunc(func(ctx context.Context, in Input) (Output, error) {
		return Output{Children: in.Children[:1]}, nil
	}), DefaultOptions())
	_, err := missing.Apply(context.Background(), chain("a", "b"), Down)
	assert.ErrorIs(t, err, ErrLayoutEngine)

	nan := NewAdapter(EngineFunc(func(ctx context.Context, in Input) (Output, error) {
		return Output{Children: []Box{{ID: "a", X: math.NaN()}}}, nil
	}), DefaultOptions())
	_, err = nan.Apply(context.Background(), chain("a"), Down)
	assert.ErrorIs(t, err, ErrLayoutEngine)
}

func TestAdapter_CancellationIsNotEngineError(t *testing.T) {
	a := NewAdapter(EngineFunc(func(ctx context.Context, in Input) (Output, error) {
		<-ctx.Done()
		return Output{}, ctx.Err()
	}), DefaultOptions())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.Apply(ctx, chain("a"), Down)
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrLayoutEngine)
}

func TestAdapter_DefaultEngine(t *testing.T) {
	a := NewAdapter(nil, Options{})
	assert.Equal(t, 80.0, a.Options().LayerSpacing)

	got, err := a.Apply(context.Background(), chain("a", "b", "c"), Down)
	require.NoError(t, err)
	require.NoError(t, got.Validate())

	a0, _ := got.NodeByID("a")
	c0, _ := got.NodeByID("c")
	assert.Less(t, a0.Position.Y, c0.Position.Y)
}
