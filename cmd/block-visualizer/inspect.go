package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ritzau/block-visualizer/pkg/cycles"
	"github.com/ritzau/block-visualizer/pkg/graph"
	"github.com/ritzau/block-visualizer/pkg/mapper"
	"github.com/ritzau/block-visualizer/pkg/model"
	"github.com/ritzau/block-visualizer/pkg/output"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Fetch the document and print a summary",
	RunE:  runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	d, report, err := a.build(cmd.Context())
	if err != nil {
		return err
	}

	output.PrintSummary(os.Stdout, output.Summary{
		Source:  a.src.Name(),
		Diagram: d,
		Report:  report,
		Cycles:  cycles.FindCycles(graph.FromDiagram(d)),
	})
	return nil
}

// build fetches, maps and, when a layout direction is configured, lays out
// the document
func (a *app) build(ctx context.Context) (model.Diagram, mapper.Report, error) {
	if a.cfg.Fetch.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Fetch.Timeout)
		defer cancel()
	}

	data, err := a.src.Fetch(ctx)
	if err != nil {
		return model.Diagram{}, mapper.Report{}, fmt.Errorf("fetch %s: %w", a.src.Name(), err)
	}
	d, report, err := mapper.Build(data, a.rules)
	if err != nil {
		return model.Diagram{}, mapper.Report{}, err
	}

	if a.autoLayout != nil {
		d, err = a.adapter.Apply(ctx, d, *a.autoLayout)
		if err != nil {
			return model.Diagram{}, mapper.Report{}, err
		}
	}
	return d, report, nil
}
