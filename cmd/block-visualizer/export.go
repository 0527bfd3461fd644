package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ritzau/block-visualizer/pkg/cycles"
	"github.com/ritzau/block-visualizer/pkg/graph"
	"github.com/ritzau/block-visualizer/pkg/layout"
	"github.com/ritzau/block-visualizer/pkg/logging"
	"github.com/ritzau/block-visualizer/pkg/render"
	"github.com/ritzau/block-visualizer/pkg/view"
)

var (
	exportOutput string
	exportTitle  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Fetch, lay out and write the diagram as SVG",
	Long: `Writes the laid out diagram as a standalone SVG. Without --layout the
diagram is laid out top to bottom.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "-", "Output file, - for stdout")
	exportCmd.Flags().StringVar(&exportTitle, "title", "", "SVG title (default: the endpoint)")
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	if a.autoLayout == nil {
		dir := layout.Down
		a.autoLayout = &dir
	}

	d, report, err := a.build(cmd.Context())
	if err != nil {
		return err
	}
	if n := len(report.DroppedLinks); n > 0 {
		logging.Warn("links to unknown blocks dropped", "count", n)
	}

	v := view.View{
		State:  view.StateReady,
		Nodes:  d.Nodes,
		Edges:  view.EdgeViews(d),
		Cycles: cycles.FindCycles(graph.FromDiagram(d)),
	}

	opts := render.DefaultOptions()
	opts.Title = exportTitle
	if opts.Title == "" {
		opts.Title = a.src.Name()
	}

	var w io.Writer = os.Stdout
	if exportOutput != "-" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportOutput, err)
		}
		defer f.Close()
		w = f
	}

	if err := render.SVG(w, v, opts); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	logging.Info("exported diagram", "nodes", len(v.Nodes), "edges", len(v.Edges), "output", exportOutput)
	return nil
}
