package geometry

import (
	"encoding/json"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-9

// onBorder reports whether p lies on r's border within eps
func onBorder(r Rect, p Point, eps float64) bool {
	r = r.clamped()
	left, right := r.X, r.X+r.Width
	top, bottom := r.Y, r.Y+r.Height

	inX := p.X >= left-eps && p.X <= right+eps
	inY := p.Y >= top-eps && p.Y <= bottom+eps
	if !inX || !inY {
		return false
	}
	return math.Abs(p.X-left) <= eps || math.Abs(p.X-right) <= eps ||
		math.Abs(p.Y-top) <= eps || math.Abs(p.Y-bottom) <= eps
}

func TestEdgeParams_Horizontal(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 100, Height: 50}
	b := Rect{X: 300, Y: 0, Width: 100, Height: 50}

	got := EdgeParams(a, b)

	assert.InDelta(t, 100, got.Source.X, tol)
	assert.InDelta(t, 25, got.Source.Y, tol)
	assert.Equal(t, Right, got.SourcePos)
	assert.InDelta(t, 300, got.Target.X, tol)
	assert.InDelta(t, 25, got.Target.Y, tol)
	assert.Equal(t, Left, got.TargetPos)
}

func TestEdgeParams_Vertical(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 150, Height: 50}
	b := Rect{X: 0, Y: 200, Width: 150, Height: 50}

	got := EdgeParams(a, b)

	assert.Equal(t, Bottom, got.SourcePos)
	assert.Equal(t, Top, got.TargetPos)
	assert.InDelta(t, 75, got.Source.X, tol)
	assert.InDelta(t, 50, got.Source.Y, tol)
	assert.InDelta(t, 200, got.Target.Y, tol)
}

func TestEdgeParams_Diagonal(t *testing.T) {
	// Square boxes on a 45 degree line leave through the corner-adjacent side.
	a := Rect{X: 0, Y: 0, Width: 40, Height: 40}
	b := Rect{X: 100, Y: 150, Width: 40, Height: 40}

	got := EdgeParams(a, b)

	assert.Equal(t, Bottom, got.SourcePos)
	assert.Equal(t, Top, got.TargetPos)
	assert.True(t, onBorder(a, got.Source, 1e-9))
	assert.True(t, onBorder(b, got.Target, 1e-9))
}

func TestEdgeParams_CoincidentCenters(t *testing.T) {
	a := Rect{X: 10, Y: 20, Width: 100, Height: 40}
	b := Rect{X: 35, Y: 30, Width: 50, Height: 20}

	got := EdgeParams(a, b)

	assert.Equal(t, Point{X: 60, Y: 20}, got.Source)
	assert.Equal(t, Point{X: 60, Y: 30}, got.Target)
	assert.Equal(t, Top, got.SourcePos)
	assert.Equal(t, Top, got.TargetPos)
}

func TestEdgeParams_ZeroSize(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 0, Height: 0}
	b := Rect{X: 100, Y: 0, Width: 0, Height: -3}

	got := EdgeParams(a, b)

	for _, v := range []float64{got.Source.X, got.Source.Y, got.Target.X, got.Target.Y} {
		assert.False(t, math.IsNaN(v), "anchor must not be NaN")
		assert.False(t, math.IsInf(v, 0), "anchor must be finite")
	}
	assert.Equal(t, Right, got.SourcePos)
	assert.Equal(t, Left, got.TargetPos)

	// Two zero-sized boxes at the same spot still hit the fallback.
	same := EdgeParams(a, a)
	assert.Equal(t, Top, same.SourcePos)
	assert.False(t, math.IsNaN(same.Source.Y))
}

func TestEdgeParams_AnchorsonBorder(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 2000; i++ {
		a := Rect{X: r.Float64() * 1000, Y: r.Float64() * 1000, Width: 1 + r.Float64()*200, Height: 1 + r.Float64()*200}
		b := Rect{X: r.Float64() * 1000, Y: r.Float64() * 1000, Width: 1 + r.Float64()*200, Height: 1 + r.Float64()*200}
		if a.Center() == b.Center() {
			continue
		}

		got := EdgeParams(a, b)
		require.Truef(t, onBorder(a, got.Source, 1e-6), "source %v not on border of %v", got.Source, a)
		require.Truef(t, onBorder(b, got.Target, 1e-6), "target %v not on border of %v", got.Target, b)
	}
}

func TestPosition_JSON(t *testing.T) {
	data, err := json.Marshal(Anchors{SourcePos: Left, TargetPos: Bottom})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"sourcePosition":"left"`)
	assert.Contains(t, string(data), `"targetPosition":"bottom"`)

	var back Anchors
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, Left, back.SourcePos)
	assert.Equal(t, Bottom, back.TargetPos)
}

func TestBezierPath(t *testing.T) {
	a := EdgeParams(Rect{X: 0, Y: 0, Width: 100, Height: 50}, Rect{X: 0, Y: 200, Width: 100, Height: 50})
	p := BezierPath(a, DefaultCurvature)

	assert.Equal(t, a.Source, p.Start)
	assert.Equal(t, a.Target, p.End)
	// Bottom side pushes the control point down by half the gap.
	assert.InDelta(t, 50+75, p.Control1.Y, tol)
	assert.InDelta(t, 200-75, p.Control2.Y, tol)
	assert.InDelta(t, 125, p.Label.Y, tol)
	assert.Equal(t, "M50.00,50.00 C50.00,125.00 50.00,125.00 50.00,200.00", p.D)
}

func TestBezierPath_Backwards(t *testing.T) {
	// Source anchored on its right side but the target sits to the left: offset uses the sqrt branch.
	a := Anchors{
		Source:    Point{X: 100, Y: 0},
		Target:    Point{X: 0, Y: 0},
		SourcePos: Right,
		TargetPos: Left,
	}
	p := BezierPath(a, DefaultCurvature)
	assert.InDelta(t, 100+0.25*25*10, p.Control1.X, tol)
}
