package geometry

import (
	"fmt"
	"math"
)

// DefaultCurvature matches the curvature browsers use for floating bezier edges
const DefaultCurvature = 0.25

// Path is a cubic bezier between two anchors
type Path struct {
	Start    Point  `json:"start"`
	Control1 Point  `json:"control1"`
	Control2 Point  `json:"control2"`
	End      Point  `json:"end"`
	Label    Point  `json:"label"` // curve midpoint
	D        string `json:"d"`     // SVG path data
}

// BezierPath builds the edge curve for a pair of anchors. Control points are
// pushed out along each side's normal so the curve leaves the border squarely.
func BezierPath(a Anchors, curvature float64) Path {
	c1 := control(a.SourcePos, a.Source, a.Target, curvature)
	c2 := control(a.TargetPos, a.Target, a.Source, curvature)

	p := Path{
		Start:    a.Source,
		Control1: c1,
		Control2: c2,
		End:      a.Target,
	}
	p.Label = Point{
		X: 0.125*a.Source.X + 0.375*c1.X + 0.375*c2.X + 0.125*a.Target.X,
		Y: 0.125*a.Source.Y + 0.375*c1.Y + 0.375*c2.Y + 0.125*a.Target.Y,
	}
	p.D = fmt.Sprintf("M%s,%s C%s,%s %s,%s %s,%s",
		num(p.Start.X), num(p.Start.Y),
		num(c1.X), num(c1.Y),
		num(c2.X), num(c2.Y),
		num(p.End.X), num(p.End.Y))
	return p
}

func control(pos Position, from, to Point, curvature float64) Point {
	switch pos {
	case Left:
		return Point{X: from.X - controlOffset(from.X-to.X, curvature), Y: from.Y}
	case Right:
		return Point{X: from.X + controlOffset(to.X-from.X, curvature), Y: from.Y}
	case Top:
		return Point{X: from.X, Y: from.Y - controlOffset(from.Y-to.Y, curvature)}
	default:
		return Point{X: from.X, Y: from.Y + controlOffset(to.Y-from.Y, curvature)}
	}
}

func controlOffset(distance, curvature float64) float64 {
	if distance >= 0 {
		return 0.5 * distance
	}
	return curvature * 25 * math.Sqrt(-distance)
}

func num(f float64) string {
	return fmt.Sprintf("%.2f", f)
}
