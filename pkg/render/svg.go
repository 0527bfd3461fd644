package render

import (
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo/float"

	"github.com/ritzau/block-visualizer/pkg/model"
	"github.com/ritzau/block-visualizer/pkg/view"
)

// Options control the exported drawing
type Options struct {
	Padding    float64 // space around the diagram bounds
	Title      string  // document <title>, omitted when empty
	Background string  // fill colour, transparent when empty
}

// DefaultOptions returns 40 units of padding on a white background
func DefaultOptions() Options {
	return Options{Padding: 40, Background: "#FFFFFF"}
}

const (
	edgeStyle      = "fill:none;stroke:#555555;stroke-width:1.5"
	cycleEdgeStyle = "fill:none;stroke:#C0392B;stroke-width:1.5"
	portStyle      = "font-family:sans-serif;font-size:9px;fill:#333333;text-anchor:middle"
	kindStyle      = "font-family:sans-serif;font-size:9px;fill:#555555;text-anchor:middle"
	titleStyle     = "font-family:sans-serif;font-size:12px;font-weight:bold;fill:#000000;text-anchor:middle"
	arrowID        = "arrow"
)

// SVG writes a static drawing of v. Nodes are drawn in their style colour with
// the instance_of above a bold label; edges follow their bezier path with port
// names at the anchors. Edges inside a feedback loop are drawn in red.
func SVG(w io.Writer, v view.View, opts Options) error {
	ew := &errWriter{w: w}
	canvas := svg.New(ew)

	minX, minY, maxX, maxY := bounds(v)
	pad := opts.Padding
	width := maxX - minX + 2*pad
	height := maxY - minY + 2*pad
	canvas.Startview(width, height, minX-pad, minY-pad, width, height)

	if opts.Title != "" {
		canvas.Title(opts.Title)
	}
	if opts.Background != "" {
		canvas.Rect(minX-pad, minY-pad, width, height, "fill:"+opts.Background)
	}

	canvas.Def()
	canvas.Marker(arrowID, 10, 5, 10, 10, `orient="auto"`, `markerUnits="strokeWidth"`)
	canvas.Path("M0,0 L10,5 L0,10 z", "fill:#555555")
	canvas.MarkerEnd()
	canvas.DefEnd()

	inCycle := make(map[string]int)
	for i, c := range v.Cycles {
		for _, id := range c.Nodes {
			inCycle[id] = i
		}
	}

	canvas.Gid("edges")
	for _, e := range v.Edges {
		style := edgeStyle
		ci, srcIn := inCycle[e.Source]
		cj, dstIn := inCycle[e.Target]
		if srcIn && dstIn && ci == cj {
			style = cycleEdgeStyle
		}
		attrs := []string{style, fmt.Sprintf(`id="edge-%s"`, attr(e.ID))}
		if e.Marker == model.MarkerArrow {
			attrs = append(attrs, fmt.Sprintf(`marker-end="url(#%s)"`, arrowID))
		}
		canvas.Path(e.Path.D, attrs...)

		if e.SourcePort != "" {
			canvas.Text(e.Anchors.Source.X, e.Anchors.Source.Y-4, e.SourcePort, portStyle)
		}
		if e.TargetPort != "" {
			canvas.Text(e.Anchors.Target.X, e.Anchors.Target.Y-4, e.TargetPort, portStyle)
		}
	}
	canvas.Gend()

	canvas.Gid("nodes")
	for _, n := range v.Nodes {
		fill := fmt.Sprintf("fill:%s;stroke:#333333;stroke-width:1", n.Color)
		cx := n.Position.X + n.Width/2
		cy := n.Position.Y + n.Height/2
		switch n.Shape {
		case model.ShapeCircle:
			canvas.Circle(cx, cy, math.Min(n.Width, n.Height)/2, fill)
		default:
			canvas.Roundrect(n.Position.X, n.Position.Y, n.Width, n.Height, 6, 6, fill)
		}
		if n.InstanceOf != "" {
			canvas.Text(cx, cy-6, n.InstanceOf, kindStyle)
			canvas.Text(cx, cy+10, n.Label, titleStyle)
		} else {
			canvas.Text(cx, cy+4, n.Label, titleStyle)
		}
	}
	canvas.Gend()

	canvas.End()
	return ew.err
}

// bounds covers every node box and every edge control point
func bounds(v view.View) (minX, minY, maxX, maxY float64) {
	if len(v.Nodes) == 0 {
		return 0, 0, 200, 100
	}
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	grow := func(x, y float64) {
		minX, minY = math.Min(minX, x), math.Min(minY, y)
		maxX, maxY = math.Max(maxX, x), math.Max(maxY, y)
	}
	for _, n := range v.Nodes {
		grow(n.Position.X, n.Position.Y)
		grow(n.Position.X+n.Width, n.Position.Y+n.Height)
	}
	for _, e := range v.Edges {
		grow(e.Path.Control1.X, e.Path.Control1.Y)
		grow(e.Path.Control2.X, e.Path.Control2.Y)
	}
	return minX, minY, maxX, maxY
}

// attr strips characters that would break out of an attribute value
func attr(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '"', '<', '>', '&', '\'':
			out = append(out, '_')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

// errWriter keeps the first write error, since svgo ignores them
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return len(p), nil
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}
