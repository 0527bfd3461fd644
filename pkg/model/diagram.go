package model

import (
	"fmt"

	"github.com/ritzau/block-visualizer/pkg/geometry"
)

// Shape is the visual outline of a node
type Shape string

const (
	ShapeRectangle Shape = "rectangle"
	ShapeCircle    Shape = "circle"
)

// EdgeTypeFloating marks edges whose anchors follow node geometry
const EdgeTypeFloating = "floating"

// MarkerArrow is the end marker for edges drawn by the user
const MarkerArrow = "arrow"

// Position is a node's top-left corner in diagram space
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is the visual counterpart of a Block
type Node struct {
	ID         string    `json:"id"`
	Label      string    `json:"label"`
	Kind       BlockKind `json:"kind"`
	InstanceOf string    `json:"instance_of"`
	Shape      Shape     `json:"shape"`
	Color      string    `json:"color"`
	Position   Position  `json:"position"`
	Width      float64   `json:"width"`
	Height     float64   `json:"height"`
}

// Rect returns the node's box for anchor computation
func (n Node) Rect() geometry.Rect {
	return geometry.Rect{X: n.Position.X, Y: n.Position.Y, Width: n.Width, Height: n.Height}
}

// Edge is the visual counterpart of a Link. Anchor points are never stored here.
type Edge struct {
	ID         string `json:"id"`
	Source     string `json:"source"`
	Target     string `json:"target"`
	SourcePort string `json:"sourcePort,omitempty"`
	TargetPort string `json:"targetPort,omitempty"`
	InstanceOf string `json:"instance_of,omitempty"`
	Type       string `json:"type"`
	Marker     string `json:"marker,omitempty"`
}

// Diagram is the ordered node and edge list the view renders
type Diagram struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// NewDiagram creates an empty diagram
func NewDiagram() Diagram {
	return Diagram{
		Nodes: make([]Node, 0),
		Edges: make([]Edge, 0),
	}
}

// NodeIndex returns the slice index of the node with the given id, or -1
func (d Diagram) NodeIndex(id string) int {
	for i := range d.Nodes {
		if d.Nodes[i].ID == id {
			return i
		}
	}
	return -1
}

// NodeByID looks up a node by id
func (d Diagram) NodeByID(id string) (Node, bool) {
	if i := d.NodeIndex(id); i >= 0 {
		return d.Nodes[i], true
	}
	return Node{}, false
}

// EdgeIndex returns the slice index of the edge with the given id, or -1
func (d Diagram) EdgeIndex(id string) int {
	for i := range d.Edges {
		if d.Edges[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so callers can mutate without sharing backing arrays
func (d Diagram) Clone() Diagram {
	c := Diagram{
		Nodes: make([]Node, len(d.Nodes)),
		Edges: make([]Edge, len(d.Edges)),
	}
	copy(c.Nodes, d.Nodes)
	copy(c.Edges, d.Edges)
	return c
}

// Validate checks that node and edge ids are unique and every edge endpoint
// exists
func (d Diagram) Validate() error {
	ids := make(map[string]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		if ids[n.ID] {
			return fmt.Errorf("duplicate node id %q", n.ID)
		}
		ids[n.ID] = true
	}
	edgeIDs := make(map[string]bool, len(d.Edges))
	for _, e := range d.Edges {
		if edgeIDs[e.ID] {
			return fmt.Errorf("duplicate edge id %q", e.ID)
		}
		edgeIDs[e.ID] = true
		if !ids[e.Source] {
			return fmt.Errorf("edge %q references unknown source node %q", e.ID, e.Source)
		}
		if !ids[e.Target] {
			return fmt.Errorf("edge %q references unknown target node %q", e.ID, e.Target)
		}
	}
	return nil
}
