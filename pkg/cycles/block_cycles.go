package cycles

import (
	"github.com/ritzau/block-visualizer/pkg/graph"
)

// Cycle is a set of blocks that reach each other through links, i.e. a
// feedback loop in the diagram
type Cycle struct {
	Nodes []string `json:"nodes"`
}

// FindCycles finds all feedback loops in the block graph. Node ids within a
// cycle follow the graph's insertion order.
func FindCycles(bg *graph.BlockGraph) []Cycle {
	sccs := NewTarjanSCC(bg.Graph()).FindSCCs()

	cycles := make([]Cycle, 0, len(sccs))
	for _, scc := range sccs {
		nodes := make([]string, 0, len(scc))
		for _, gid := range scc {
			if id, ok := bg.NodeByID(gid); ok {
				nodes = append(nodes, id)
			}
		}
		if len(nodes) > 1 {
			cycles = append(cycles, Cycle{Nodes: nodes})
		}
	}
	return cycles
}

// Membership maps each node in a cycle to the index of its cycle
func Membership(cycles []Cycle) map[string]int {
	m := make(map[string]int)
	for i, c := range cycles {
		for _, id := range c.Nodes {
			m[id] = i
		}
	}
	return m
}
