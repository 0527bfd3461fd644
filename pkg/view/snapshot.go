package view

import (
	"github.com/ritzau/block-visualizer/pkg/cycles"
	"github.com/ritzau/block-visualizer/pkg/geometry"
	"github.com/ritzau/block-visualizer/pkg/graph"
	"github.com/ritzau/block-visualizer/pkg/model"
)

// EdgeView is an edge with the geometry it is drawn with
type EdgeView struct {
	model.Edge
	Anchors geometry.Anchors `json:"anchors"`
	Path    geometry.Path    `json:"path"`
}

// View is everything needed to draw the shell
type View struct {
	State      State          `json:"state"`
	Generation uint64         `json:"generation"`
	Error      *LastError     `json:"error,omitempty"`
	Nodes      []model.Node   `json:"nodes"`
	Edges      []EdgeView     `json:"edges"`
	Cycles     []cycles.Cycle `json:"feedbackLoops"`
}

// Snapshot copies the current diagram and computes edge geometry from the
// node boxes as they are now
func (s *Shell) Snapshot() View {
	s.mu.Lock()
	d := s.current.Clone()
	v := View{
		State:      s.state,
		Generation: s.revision,
	}
	if s.lastErr != nil {
		e := *s.lastErr
		v.Error = &e
	}
	s.mu.Unlock()

	v.Nodes = d.Nodes
	v.Edges = EdgeViews(d)
	v.Cycles = cycles.FindCycles(graph.FromDiagram(d))
	return v
}

// Diagram returns a copy of the current diagram
func (s *Shell) Diagram() model.Diagram {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// EdgeViews computes anchors and bezier paths for every edge whose endpoints
// exist in d
func EdgeViews(d model.Diagram) []EdgeView {
	rects := make(map[string]geometry.Rect, len(d.Nodes))
	for _, n := range d.Nodes {
		rects[n.ID] = n.Rect()
	}

	edges := make([]EdgeView, 0, len(d.Edges))
	for _, e := range d.Edges {
		src, ok := rects[e.Source]
		if !ok {
			continue
		}
		dst, ok := rects[e.Target]
		if !ok {
			continue
		}
		anchors := geometry.EdgeParams(src, dst)
		edges = append(edges, EdgeView{
			Edge:    e,
			Anchors: anchors,
			Path:    geometry.BezierPath(anchors, geometry.DefaultCurvature),
		})
	}
	return edges
}
