package cycles

import (
	"reflect"
	"testing"

	"github.com/ritzau/block-visualizer/pkg/graph"
)

func TestFindCycles_NoCycles(t *testing.T) {
	bg := graph.NewBlockGraph()

	// Acyclic chain: vin -> regulator -> vout
	bg.AddEdge("vin", "regulator")
	bg.AddEdge("regulator", "vout")

	cycles := FindCycles(bg)

	if len(cycles) != 0 {
		t.Errorf("Expected no cycles, but found %d", len(cycles))
	}
}

func TestFindCycles_SimpleCycle(t *testing.T) {
	bg := graph.NewBlockGraph()

	// Feedback: a -> b -> a
	bg.AddEdge("a", "b")
	bg.AddEdge("b", "a")

	cycles := FindCycles(bg)

	if len(cycles) != 1 {
		t.Fatalf("Expected 1 cycle, but found %d", len(cycles))
	}

	if !reflect.DeepEqual(cycles[0].Nodes, []string{"a", "b"}) {
		t.Errorf("Expected cycle [a b], got %v", cycles[0].Nodes)
	}
}

func TestFindCycles_ThreeNodeCycle(t *testing.T) {
	bg := graph.NewBlockGraph()

	bg.AddEdge("a", "b")
	bg.AddEdge("b", "c")
	bg.AddEdge("c", "a")

	cycles := FindCycles(bg)

	if len(cycles) != 1 {
		t.Fatalf("Expected 1 cycle, but found %d", len(cycles))
	}

	if len(cycles[0].Nodes) != 3 {
		t.Errorf("Expected cycle of length 3, got %d", len(cycles[0].Nodes))
	}
}

func TestFindCycles_MultipleCycles(t *testing.T) {
	bg := graph.NewBlockGraph()

	// Two separate loops joined by a one-way link
	bg.AddEdge("a", "b")
	bg.AddEdge("b", "a")
	bg.AddEdge("b", "c")
	bg.AddEdge("c", "d")
	bg.AddEdge("d", "c")

	cycles := FindCycles(bg)

	if len(cycles) != 2 {
		t.Fatalf("Expected 2 cycles, but found %d", len(cycles))
	}

	m := Membership(cycles)
	if m["a"] != m["b"] {
		t.Error("Expected a and b in the same cycle")
	}
	if m["c"] != m["d"] {
		t.Error("Expected c and d in the same cycle")
	}
	if m["a"] == m["c"] {
		t.Error("Expected the two loops to be separate cycles")
	}
}

func TestFindCycles_Stable(t *testing.T) {
	build := func() *graph.BlockGraph {
		bg := graph.NewBlockGraph()
		bg.AddEdge("x", "y")
		bg.AddEdge("y", "z")
		bg.AddEdge("z", "x")
		bg.AddEdge("p", "q")
		bg.AddEdge("q", "p")
		return bg
	}

	first := FindCycles(build())
	for i := 0; i < 5; i++ {
		if got := FindCycles(build()); !reflect.DeepEqual(got, first) {
			t.Fatalf("Expected stable result %v, got %v", first, got)
		}
	}
}
