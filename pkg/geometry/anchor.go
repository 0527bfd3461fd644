package geometry

import (
	"encoding/json"
	"fmt"
	"math"
)

// Epsilon is the size substituted for zero or negative node dimensions.
const Epsilon = 1e-6

// Position names the side of a rectangle an edge leaves through
type Position int

const (
	Top Position = iota
	Right
	Bottom
	Left
)

var positionNames = [...]string{"top", "right", "bottom", "left"}

func (p Position) String() string {
	if p < Top || p > Left {
		return fmt.Sprintf("Position(%d)", int(p))
	}
	return positionNames[p]
}

func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Position) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for i, name := range positionNames {
		if name == s {
			*p = Position(i)
			return nil
		}
	}
	return fmt.Errorf("unknown position %q", s)
}

// Point is a 2D coordinate in diagram space (y grows downward)
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is a positioned node box; X/Y is the top-left corner
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the center of the rectangle after clamping its size
func (r Rect) Center() Point {
	r = r.clamped()
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

func (r Rect) clamped() Rect {
	if !(r.Width > Epsilon) {
		r.Width = Epsilon
	}
	if !(r.Height > Epsilon) {
		r.Height = Epsilon
	}
	return r
}

// Anchors are the two border points of a floating edge
type Anchors struct {
	Source    Point    `json:"source"`
	Target    Point    `json:"target"`
	SourcePos Position `json:"sourcePosition"`
	TargetPos Position `json:"targetPosition"`
}

// EdgeParams computes where the line between the centers of source and target
// crosses each rectangle's border, and which side it crosses on each end.
// When the centers coincide both anchors fall back to the top-center of their rect.
func EdgeParams(source, target Rect) Anchors {
	sp, spos := intersection(source, target)
	tp, tpos := intersection(target, source)
	return Anchors{Source: sp, Target: tp, SourcePos: spos, TargetPos: tpos}
}

// intersection returns the point on node's border toward other's center
func intersection(node, other Rect) (Point, Position) {
	node = node.clamped()
	c := node.Center()
	o := other.Center()

	dx := o.X - c.X
	dy := o.Y - c.Y
	if dx == 0 && dy == 0 {
		return Point{X: c.X, Y: node.Y}, Top
	}

	hw := node.Width / 2
	hh := node.Height / 2

	// Leaves through a vertical side when the slope is flatter than the diagonal.
	if math.Abs(dy)*hw <= math.Abs(dx)*hh {
		t := hw / math.Abs(dx)
		p := Point{X: c.X + dx*t, Y: c.Y + dy*t}
		if dx > 0 {
			return p, Right
		}
		return p, Left
	}

	t := hh / math.Abs(dy)
	p := Point{X: c.X + dx*t, Y: c.Y + dy*t}
	if dy > 0 {
		return p, Bottom
	}
	return p, Top
}
