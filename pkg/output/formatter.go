package output

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/fatih/color"

	"github.com/ritzau/block-visualizer/pkg/cycles"
	"github.com/ritzau/block-visualizer/pkg/mapper"
	"github.com/ritzau/block-visualizer/pkg/model"
)

// Summary is what the inspect command reports about one fetched document
type Summary struct {
	Source  string
	Diagram model.Diagram
	Report  mapper.Report
	Cycles  []cycles.Cycle
}

// PrintSummary prints a nicely formatted diagram summary with colors
func PrintSummary(w io.Writer, s Summary) {
	// Color definitions
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	// Header
	bold.Fprintln(w, "Block Visualizer - Diagram Summary")
	bold.Fprintln(w, "==================================")
	fmt.Fprintf(w, "Source: %s\n", s.Source)
	fmt.Fprintf(w, "Nodes: %d\n", len(s.Diagram.Nodes))
	fmt.Fprintf(w, "Edges: %d\n", len(s.Diagram.Edges))
	fmt.Fprintln(w)

	// Nodes grouped by kind, with the style they are drawn in
	kinds := make(map[model.BlockKind][]model.Node)
	for _, n := range s.Diagram.Nodes {
		kinds[n.Kind] = append(kinds[n.Kind], n)
	}
	bold.Fprintln(w, "NODES BY KIND:")
	for _, kind := range slices.Sorted(maps.Keys(kinds)) {
		nodes := kinds[kind]
		first := nodes[0]
		cyan.Fprintf(w, "  %-10s", kind)
		fmt.Fprintf(w, " %3d  %s %s %gx%g\n", len(nodes), first.Shape, first.Color, first.Width, first.Height)
	}
	fmt.Fprintln(w)

	if len(s.Diagram.Edges) > 0 {
		bold.Fprintln(w, "EDGES:")
		for _, e := range s.Diagram.Edges {
			fmt.Fprintf(w, "  %s: %s -> %s", e.ID, endpoint(e.Source, e.SourcePort), endpoint(e.Target, e.TargetPort))
			if e.InstanceOf != "" {
				cyan.Fprintf(w, " (%s)", e.InstanceOf)
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w)
	}

	if s.Report.RenamedEdges > 0 {
		yellow.Fprintf(w, "Renamed %d edge(s) with colliding ids\n\n", s.Report.RenamedEdges)
	}

	if len(s.Report.DroppedLinks) > 0 {
		red.Fprintln(w, "DROPPED LINKS (unknown blocks):")
		for _, l := range s.Report.DroppedLinks {
			yellow.Fprintf(w, "  %s -> %s\n", endpoint(l.Source.Block, l.Source.Port), endpoint(l.Target.Block, l.Target.Port))
		}
		fmt.Fprintln(w)
	}

	// Summary line colored by what needs attention
	if len(s.Cycles) == 0 {
		green.Fprintln(w, "✓ No feedback loops")
	} else {
		yellow.Fprintf(w, "Feedback loops: %d\n", len(s.Cycles))
		for _, c := range s.Cycles {
			fmt.Fprintf(w, "  %s\n", strings.Join(c.Nodes, " -> "))
		}
	}
	if len(s.Report.DroppedLinks) == 0 {
		green.Fprintln(w, "✓ All links resolved")
	}
}

func endpoint(block, port string) string {
	if port == "" {
		return block
	}
	return block + "." + port
}
