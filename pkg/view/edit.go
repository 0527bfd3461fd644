package view

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/ritzau/block-visualizer/pkg/mapper"
	"github.com/ritzau/block-visualizer/pkg/model"
)

// MoveNode sets a node's top-left corner, as a drag does
func (s *Shell) MoveNode(id string, x, y float64) (model.Node, error) {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return model.Node{}, fmt.Errorf("invalid position (%v, %v)", x, y)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.current.NodeIndex(id)
	if i < 0 {
		return model.Node{}, fmt.Errorf("%w: %q", ErrUnknownNode, id)
	}
	s.current.Nodes[i].Position = model.Position{X: x, Y: y}
	s.revision++
	s.publishDiagramLocked("moved")
	return s.current.Nodes[i], nil
}

// Connect adds a floating edge with an arrow marker between two existing
// nodes, as drawing a connection does
func (s *Shell) Connect(sourceID, targetID, sourcePort, targetPort string) (model.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range []string{sourceID, targetID} {
		if s.current.NodeIndex(id) < 0 {
			return model.Edge{}, fmt.Errorf("%w: %q", ErrUnknownNode, id)
		}
	}

	link := model.Link{
		Source: model.Endpoint{Block: sourceID, Port: sourcePort},
		Target: model.Endpoint{Block: targetID, Port: targetPort},
	}
	id := s.rules.EdgeID(link)
	for n := 2; s.current.EdgeIndex(id) >= 0; n++ {
		id = fmt.Sprintf("%s#%d", s.rules.EdgeID(link), n)
	}

	edge := model.Edge{
		ID:         id,
		Source:     sourceID,
		Target:     targetID,
		SourcePort: sourcePort,
		TargetPort: targetPort,
		Type:       model.EdgeTypeFloating,
		Marker:     model.MarkerArrow,
	}
	s.current.Edges = append(s.current.Edges, edge)
	s.revision++
	s.publishDiagramLocked("connected")
	s.logger.Debug("connected nodes", "edge", id)
	return edge, nil
}

// AddNode adds a styled node with a fresh id at a random spot in the viewport.
// An empty label defaults to the id.
func (s *Shell) AddNode(label string, kind model.BlockKind) model.Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	node := mapper.NewNode(uuid.NewString(), kind, "", s.rules)
	if label != "" {
		node.Label = label
	}
	s.current.Nodes = append(s.current.Nodes, node)
	s.revision++
	s.publishDiagramLocked("node_added")
	return node
}

// RemoveEdge deletes an edge by id
func (s *Shell) RemoveEdge(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.current.EdgeIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownEdge, id)
	}
	s.current.Edges = append(s.current.Edges[:i], s.current.Edges[i+1:]...)
	s.revision++
	s.publishDiagramLocked("edge_removed")
	return nil
}

// DismissError clears the error banner
func (s *Shell) DismissError() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastErr == nil {
		return
	}
	s.lastErr = nil
	s.publishStatusLocked("error dismissed")
}
