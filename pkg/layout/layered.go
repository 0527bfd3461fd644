package layout

import (
	"context"
	"fmt"
	"slices"
	"sort"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/ritzau/block-visualizer/pkg/cycles"
	"github.com/ritzau/block-visualizer/pkg/graph"
	"github.com/ritzau/block-visualizer/pkg/logging"
)

// DefaultSweeps is the number of down+up barycenter passes
const DefaultSweeps = 4

// Layered is a Sugiyama-style hierarchical layout:
//  1. feedback loops are made acyclic by reversing back edges inside each cycle
//  2. nodes are layered by longest path over a topological order
//  3. crossings are reduced with barycenter sweeps
//  4. layers are placed along the flow direction and centred across it
type Layered struct {
	Sweeps int
}

// NewLayered creates the default engine
func NewLayered() *Layered {
	return &Layered{Sweeps: DefaultSweeps}
}

func (l *Layered) Layout(ctx context.Context, in Input) (Output, error) {
	logger := logging.New("layout.layered")

	if len(in.Children) == 0 {
		return Output{Children: []Box{}}, nil
	}

	boxes := make(map[string]Box, len(in.Children))
	order := make(map[string]int, len(in.Children))
	bg := graph.NewBlockGraph()
	for i, c := range in.Children {
		if _, dup := boxes[c.ID]; dup {
			return Output{}, fmt.Errorf("duplicate child id %q", c.ID)
		}
		boxes[c.ID] = c
		order[c.ID] = i
		bg.AddNode(c.ID)
	}
	for _, e := range in.Edges {
		if !bg.Has(e.Source) || !bg.Has(e.Target) {
			return Output{}, fmt.Errorf("edge %q references unknown child", e.ID)
		}
		bg.AddEdge(e.Source, e.Target)
	}

	// Phase 1: break cycles
	dag := l.acyclic(bg, order)
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}

	// Phase 2: layering
	layers, err := l.assignLayers(dag, order)
	if err != nil {
		return Output{}, err
	}
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}

	// Phase 3: crossing reduction
	sweeps := l.Sweeps
	if sweeps <= 0 {
		sweeps = DefaultSweeps
	}
	for i := 0; i < sweeps; i++ {
		l.sweep(layers, dag, true)
		l.sweep(layers, dag, false)
		if err := ctx.Err(); err != nil {
			return Output{}, err
		}
	}

	// Phase 4: coordinates
	out := place(layers, boxes, in.Options)
	logger.Debug("layout complete", "nodes", len(out.Children), "layers", len(layers),
		"direction", in.Options.Direction.String())
	return out, nil
}

// acyclic copies bg, reversing edges that point backwards in input order when
// both ends sit in the same cycle. Edges between different cycles cannot close
// a loop, so they are kept as is.
func (l *Layered) acyclic(bg *graph.BlockGraph, order map[string]int) *graph.BlockGraph {
	member := cycles.Membership(cycles.FindCycles(bg))

	dag := graph.NewBlockGraph()
	for _, id := range bg.Nodes() {
		dag.AddNode(id)
	}
	for _, e := range bg.Edges() {
		src, dst := e[0], e[1]
		ci, srcIn := member[src]
		cj, dstIn := member[dst]
		if srcIn && dstIn && ci == cj && order[src] > order[dst] {
			src, dst = dst, src
		}
		dag.AddEdge(src, dst)
	}
	return dag
}

// assignLayers puts every node one layer below its deepest predecessor
func (l *Layered) assignLayers(dag *graph.BlockGraph, order map[string]int) ([][]string, error) {
	sorted, err := topo.SortStabilized(dag.Graph(), func(nodes []gonum.Node) {
		sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
	})
	if err != nil {
		return nil, fmt.Errorf("graph still cyclic after cycle breaking: %w", err)
	}

	rank := make(map[string]int, len(sorted))
	depth := 0
	for _, n := range sorted {
		id, _ := dag.NodeByID(n.ID())
		r := 0
		for _, p := range dag.Predecessors(id) {
			r = max(r, rank[p]+1)
		}
		rank[id] = r
		depth = max(depth, r)
	}

	layers := make([][]string, depth+1)
	for _, id := range dag.Nodes() {
		layers[rank[id]] = append(layers[rank[id]], id)
	}
	for _, layer := range layers {
		slices.SortStableFunc(layer, func(a, b string) int { return order[a] - order[b] })
	}
	return layers, nil
}

// sweep reorders each layer by the mean position of its neighbours in already
// placed layers: predecessors going down, successors going up. Nodes without
// such neighbours keep their slot.
func (l *Layered) sweep(layers [][]string, dag *graph.BlockGraph, down bool) {
	pos := make(map[string]int)
	for _, layer := range layers {
		for i, id := range layer {
			pos[id] = i
		}
	}

	reorder := func(layer []string) {
		bary := make(map[string]float64, len(layer))
		for i, id := range layer {
			neighbours := dag.Predecessors(id)
			if !down {
				neighbours = dag.Successors(id)
			}
			if len(neighbours) == 0 {
				bary[id] = float64(i)
				continue
			}
			sum := 0.0
			for _, n := range neighbours {
				sum += float64(pos[n])
			}
			bary[id] = sum / float64(len(neighbours))
		}
		sort.SliceStable(layer, func(i, j int) bool { return bary[layer[i]] < bary[layer[j]] })
		for i, id := range layer {
			pos[id] = i
		}
	}

	if down {
		for i := 1; i < len(layers); i++ {
			reorder(layers[i])
		}
		return
	}
	for i := len(layers) - 2; i >= 0; i-- {
		reorder(layers[i])
	}
}

// place assigns top-left corners. Every cell is as large as the largest box so
// layers line up; each layer is centred across the flow on the widest layer.
func place(layers [][]string, boxes map[string]Box, opts Options) Output {
	cellW, cellH := 0.0, 0.0
	widest := 0
	for _, b := range boxes {
		cellW = max(cellW, b.Width)
		cellH = max(cellH, b.Height)
	}
	for _, layer := range layers {
		widest = max(widest, len(layer))
	}

	// along = flow axis, across = within-layer axis
	alongStep, acrossStep := cellH+opts.LayerSpacing, cellW+opts.NodeSpacing
	if opts.Direction == Right {
		alongStep, acrossStep = cellW+opts.LayerSpacing, cellH+opts.NodeSpacing
	}

	children := make([]Box, 0, len(boxes))
	for li, layer := range layers {
		offset := float64(widest-len(layer)) * acrossStep / 2
		for ni, id := range layer {
			b := boxes[id]
			along := float64(li) * alongStep
			across := offset + float64(ni)*acrossStep
			if opts.Direction == Right {
				b.X, b.Y = along, across
			} else {
				b.X, b.Y = across, along
			}
			children = append(children, b)
		}
	}
	return Output{Children: children}
}
