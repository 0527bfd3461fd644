package mapper

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/ritzau/block-visualizer/pkg/logging"
	"github.com/ritzau/block-visualizer/pkg/model"
)

// Size is a width/height pair in diagram units
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Style is the visual bucket a block kind falls into
type Style struct {
	Shape model.Shape
	Color string
	Size  Size
}

// Style colors
const (
	ColorLightBlue   = "#ADD8E6"
	ColorLightGreen  = "#90EE90"
	ColorLightYellow = "#FFFFE0"
)

// StyleRule picks a style for a block kind
type StyleRule func(kind model.BlockKind) Style

// EdgeIDRule derives an edge id from a link
type EdgeIDRule func(link model.Link) string

// DefaultStyle: interfaces and signals are light-blue circles, modules are
// light-green rectangles, everything else is a light-yellow rectangle.
func DefaultStyle(kind model.BlockKind) Style {
	switch kind {
	case model.BlockKindInterface, model.BlockKindSignal:
		return Style{Shape: model.ShapeCircle, Color: ColorLightBlue, Size: Size{Width: 70, Height: 70}}
	case model.BlockKindModule:
		return Style{Shape: model.ShapeRectangle, Color: ColorLightGreen, Size: Size{Width: 150, Height: 50}}
	default:
		return Style{Shape: model.ShapeRectangle, Color: ColorLightYellow, Size: Size{Width: 150, Height: 50}}
	}
}

// ConcatEdgeID joins the two block ids: "A-B"
func ConcatEdgeID(link model.Link) string {
	return link.Source.Block + "-" + link.Target.Block
}

// DistinctEdgeID also includes the ports, so parallel links between the same
// blocks get different ids: "A.p1-B.p2"
func DistinctEdgeID(link model.Link) string {
	return fmt.Sprintf("%s.%s-%s.%s", link.Source.Block, link.Source.Port, link.Target.Block, link.Target.Port)
}

// EdgeIDRuleByName resolves the configured rule name
func EdgeIDRuleByName(name string) (EdgeIDRule, error) {
	switch name {
	case "", "concat":
		return ConcatEdgeID, nil
	case "distinct":
		return DistinctEdgeID, nil
	default:
		return nil, fmt.Errorf("unknown edge id rule %q", name)
	}
}

// Rules parameterize one mapping: which namespace holds the graph, how blocks
// are styled, how edges are named, and where random initial positions may land.
type Rules struct {
	Namespace string
	Style     StyleRule
	EdgeID    EdgeIDRule
	Viewport  Size
	Rand      *rand.Rand
}

// DefaultRules returns rules matching the "data" namespace with default styling
func DefaultRules() Rules {
	return Rules{
		Namespace: "data",
		Style:     DefaultStyle,
		EdgeID:    ConcatEdgeID,
		Viewport:  Size{Width: 1200, Height: 800},
	}
}

// WithDefaults fills unset rules; a nil Rand is seeded from the clock
func (r Rules) WithDefaults() Rules {
	if r.Style == nil {
		r.Style = DefaultStyle
	}
	if r.EdgeID == nil {
		r.EdgeID = ConcatEdgeID
	}
	if r.Viewport.Width <= 0 || r.Viewport.Height <= 0 {
		r.Viewport = Size{Width: 1200, Height: 800}
	}
	if r.Rand == nil {
		seed := uint64(time.Now().UnixNano())
		r.Rand = rand.New(rand.NewPCG(seed, seed>>17))
	}
	return r
}

// Report summarizes what a mapping kept and dropped
type Report struct {
	Nodes        int          `json:"nodes"`
	Edges        int          `json:"edges"`
	DroppedLinks []model.Link `json:"droppedLinks"`
	RenamedEdges int          `json:"renamedEdges"` // edges whose id collided and got a suffix
}

// Map turns a document into nodes (one per block, sorted by id) and floating
// edges (one per link whose blocks both exist). Links to unknown blocks are
// dropped and reported rather than producing dangling edges.
func Map(doc *model.Document, rules Rules) (model.Diagram, Report) {
	logger := logging.New("mapper")
	rules = rules.WithDefaults()

	d := model.NewDiagram()
	report := Report{DroppedLinks: make([]model.Link, 0)}

	ids := make([]string, 0, len(doc.Blocks))
	for id := range doc.Blocks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		block := doc.Blocks[id]
		d.Nodes = append(d.Nodes, NewNode(block.ID, block.Kind, block.InstanceOf, rules))
	}

	taken := make(map[string]bool, len(doc.Links))
	for _, link := range doc.Links {
		_, srcOK := doc.Blocks[link.Source.Block]
		_, dstOK := doc.Blocks[link.Target.Block]
		if !srcOK || !dstOK {
			logger.Warn("dropping link to unknown block",
				"source", link.Source.Block, "target", link.Target.Block)
			report.DroppedLinks = append(report.DroppedLinks, link)
			continue
		}

		// a suffixed id may itself collide with another link's natural id
		base := rules.EdgeID(link)
		id := base
		for n := 2; taken[id]; n++ {
			id = fmt.Sprintf("%s#%d", base, n)
		}
		if id != base {
			report.RenamedEdges++
		}
		taken[id] = true

		d.Edges = append(d.Edges, model.Edge{
			ID:         id,
			Source:     link.Source.Block,
			Target:     link.Target.Block,
			SourcePort: link.Source.Port,
			TargetPort: link.Target.Port,
			InstanceOf: link.InstanceOf,
			Type:       model.EdgeTypeFloating,
		})
	}

	report.Nodes = len(d.Nodes)
	report.Edges = len(d.Edges)
	logger.Debug("mapped document", "nodes", report.Nodes, "edges", report.Edges, "dropped", len(report.DroppedLinks))
	return d, report
}

// NewNode styles a node and drops it at a random spot inside the viewport
func NewNode(id string, kind model.BlockKind, instanceOf string, rules Rules) model.Node {
	rules = rules.WithDefaults()
	style := rules.Style(kind)

	maxX := rules.Viewport.Width - style.Size.Width
	maxY := rules.Viewport.Height - style.Size.Height
	if maxX < 0 {
		maxX = 0
	}
	if maxY < 0 {
		maxY = 0
	}

	return model.Node{
		ID:         id,
		Label:      id,
		Kind:       kind,
		InstanceOf: instanceOf,
		Shape:      style.Shape,
		Color:      style.Color,
		Position: model.Position{
			X: rules.Rand.Float64() * maxX,
			Y: rules.Rand.Float64() * maxY,
		},
		Width:  style.Size.Width,
		Height: style.Size.Height,
	}
}

// Build decodes and maps a fetched document in one step
func Build(data []byte, rules Rules) (model.Diagram, Report, error) {
	doc, err := Decode(data, rules.Namespace)
	if err != nil {
		return model.Diagram{}, Report{}, err
	}
	d, report := Map(doc, rules)
	return d, report, nil
}
