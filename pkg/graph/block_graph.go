package graph

import (
	"slices"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/ritzau/block-visualizer/pkg/model"
)

// BlockGraph is the connectivity of a diagram, keyed by node id
type BlockGraph struct {
	graph  *simple.DirectedGraph
	ids    map[string]int64 // node id -> graph ID
	names  map[int64]string // graph ID -> node id
	order  []string         // insertion order
	nextID int64
}

// NewBlockGraph creates an empty graph
func NewBlockGraph() *BlockGraph {
	return &BlockGraph{
		graph: simple.NewDirectedGraph(),
		ids:   make(map[string]int64),
		names: make(map[int64]string),
		order: make([]string, 0),
	}
}

// FromDiagram builds the graph of a diagram. Edges whose endpoints are not
// nodes of the diagram are skipped.
func FromDiagram(d model.Diagram) *BlockGraph {
	bg := NewBlockGraph()
	for _, n := range d.Nodes {
		bg.AddNode(n.ID)
	}
	for _, e := range d.Edges {
		if !bg.Has(e.Source) || !bg.Has(e.Target) {
			continue
		}
		bg.AddEdge(e.Source, e.Target)
	}
	return bg
}

// AddNode adds a node; adding an existing id is a no-op
func (bg *BlockGraph) AddNode(id string) {
	if _, exists := bg.ids[id]; exists {
		return
	}
	bg.ids[id] = bg.nextID
	bg.names[bg.nextID] = id
	bg.order = append(bg.order, id)
	bg.graph.AddNode(simple.Node(bg.nextID))
	bg.nextID++
}

// AddEdge adds a directed edge, creating missing nodes.
// Self loops are ignored since gonum's simple graphs reject them, and parallel
// edges collapse into one.
func (bg *BlockGraph) AddEdge(source, target string) {
	if source == target {
		bg.AddNode(source)
		return
	}
	bg.AddNode(source)
	bg.AddNode(target)

	sourceID, targetID := bg.ids[source], bg.ids[target]
	if !bg.graph.HasEdgeFromTo(sourceID, targetID) {
		bg.graph.SetEdge(bg.graph.NewEdge(bg.graph.Node(sourceID), bg.graph.Node(targetID)))
	}
}

// Has reports whether the node exists
func (bg *BlockGraph) Has(id string) bool {
	_, ok := bg.ids[id]
	return ok
}

// IDOf returns the gonum ID of a node
func (bg *BlockGraph) IDOf(id string) (int64, bool) {
	gid, ok := bg.ids[id]
	return gid, ok
}

// NodeByID returns the node id for a gonum ID
func (bg *BlockGraph) NodeByID(gid int64) (string, bool) {
	id, ok := bg.names[gid]
	return id, ok
}

// Graph returns the underlying directed graph
func (bg *BlockGraph) Graph() *simple.DirectedGraph {
	return bg.graph
}

// Nodes returns node ids in insertion order
func (bg *BlockGraph) Nodes() []string {
	out := make([]string, len(bg.order))
	copy(out, bg.order)
	return out
}

// Len returns the number of nodes
func (bg *BlockGraph) Len() int {
	return len(bg.order)
}

// Edges returns all edges as [source, target] pairs, ordered by source
// insertion order
func (bg *BlockGraph) Edges() [][2]string {
	var edges [][2]string
	for _, id := range bg.order {
		for _, succ := range bg.Successors(id) {
			edges = append(edges, [2]string{id, succ})
		}
	}
	return edges
}

// Successors returns the targets of edges leaving id, in insertion order
func (bg *BlockGraph) Successors(id string) []string {
	gid, ok := bg.ids[id]
	if !ok {
		return nil
	}
	return bg.collect(bg.graph.From(gid))
}

// Predecessors returns the sources of edges entering id, in insertion order
func (bg *BlockGraph) Predecessors(id string) []string {
	gid, ok := bg.ids[id]
	if !ok {
		return nil
	}
	return bg.collect(bg.graph.To(gid))
}

// collect maps gonum nodes back to ids. Graph IDs are handed out in insertion
// order, so sorting them restores it.
func (bg *BlockGraph) collect(it gonum.Nodes) []string {
	gids := make([]int64, 0, max(it.Len(), 0))
	for it.Next() {
		gids = append(gids, it.Node().ID())
	}
	slices.Sort(gids)

	out := make([]string, 0, len(gids))
	for _, gid := range gids {
		out = append(out, bg.names[gid])
	}
	return out
}
