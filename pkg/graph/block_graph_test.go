package graph

import (
	"reflect"
	"testing"

	"github.com/ritzau/block-visualizer/pkg/model"
)

func TestNewBlockGraph(t *testing.T) {
	bg := NewBlockGraph()
	if bg == nil {
		t.Fatal("NewBlockGraph() returned nil")
	}

	if len(bg.Nodes()) != 0 {
		t.Errorf("New graph should have 0 nodes, got %d", len(bg.Nodes()))
	}
}

func TestAddNode(t *testing.T) {
	bg := NewBlockGraph()

	bg.AddNode("regulator")
	bg.AddNode("regulator")

	if bg.Len() != 1 {
		t.Errorf("Expected 1 node, got %d", bg.Len())
	}

	gid, ok := bg.IDOf("regulator")
	if !ok {
		t.Fatal("Node not found in graph")
	}

	id, ok := bg.NodeByID(gid)
	if !ok || id != "regulator" {
		t.Errorf("Expected round trip to regulator, got %q", id)
	}
}

func TestAddEdge(t *testing.T) {
	bg := NewBlockGraph()

	bg.AddEdge("vin", "regulator")
	bg.AddEdge("vin", "regulator")
	bg.AddEdge("regulator", "regulator")

	if bg.Len() != 2 {
		t.Errorf("Expected edge to create 2 nodes, got %d", bg.Len())
	}

	edges := bg.Edges()
	if len(edges) != 1 {
		t.Fatalf("Expected 1 edge (parallel and self edges collapse), got %d", len(edges))
	}
	if edges[0] != [2]string{"vin", "regulator"} {
		t.Errorf("Expected edge vin->regulator, got %v", edges[0])
	}
}

func TestSuccessorsPredecessors(t *testing.T) {
	bg := NewBlockGraph()
	for _, id := range []string{"a", "b", "c", "d"} {
		bg.AddNode(id)
	}
	bg.AddEdge("a", "c")
	bg.AddEdge("a", "b")
	bg.AddEdge("d", "b")

	if got := bg.Successors("a"); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Errorf("Expected successors in insertion order [b c], got %v", got)
	}
	if got := bg.Predecessors("b"); !reflect.DeepEqual(got, []string{"a", "d"}) {
		t.Errorf("Expected predecessors [a d], got %v", got)
	}
	if got := bg.Successors("missing"); got != nil {
		t.Errorf("Expected nil for unknown node, got %v", got)
	}
}

func TestFromDiagram(t *testing.T) {
	d := model.Diagram{
		Nodes: []model.Node{{ID: "A"}, {ID: "B"}, {ID: "C"}},
		Edges: []model.Edge{
			{ID: "A-B", Source: "A", Target: "B"},
			{ID: "B-C", Source: "B", Target: "C"},
			{ID: "C-X", Source: "C", Target: "X"},
		},
	}

	bg := FromDiagram(d)

	if !reflect.DeepEqual(bg.Nodes(), []string{"A", "B", "C"}) {
		t.Errorf("Expected nodes in diagram order, got %v", bg.Nodes())
	}
	if len(bg.Edges()) != 2 {
		t.Errorf("Expected dangling edge to be skipped, got %v", bg.Edges())
	}
	if bg.Has("X") {
		t.Error("Dangling edge must not create a node")
	}
}
