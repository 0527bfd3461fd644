package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ritzau/block-visualizer/pkg/config"
	"github.com/ritzau/block-visualizer/pkg/layout"
	"github.com/ritzau/block-visualizer/pkg/logging"
	"github.com/ritzau/block-visualizer/pkg/mapper"
	"github.com/ritzau/block-visualizer/pkg/source"
)

// app is what every subcommand builds from the layered configuration
type app struct {
	cfg        *config.Config
	src        source.Source
	rules      mapper.Rules
	adapter    *layout.Adapter
	autoLayout *layout.Direction
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := setupLogging(cfg.Log); err != nil {
		return nil, err
	}

	edgeID, err := mapper.EdgeIDRuleByName(cfg.EdgeIDs)
	if err != nil {
		return nil, err
	}
	rules := mapper.DefaultRules()
	rules.Namespace = cfg.Namespace
	rules.EdgeID = edgeID
	rules.Viewport = mapper.Size{Width: cfg.Viewport.Width, Height: cfg.Viewport.Height}

	a := &app{
		cfg:   cfg,
		src:   source.New(cfg),
		rules: rules,
		adapter: layout.NewAdapter(nil, layout.Options{
			LayerSpacing: cfg.Layout.LayerSpacing,
			NodeSpacing:  cfg.Layout.NodeSpacing,
		}),
	}
	if cfg.Layout.Direction != "" {
		dir, err := layout.ParseDirection(cfg.Layout.Direction)
		if err != nil {
			return nil, err
		}
		a.autoLayout = &dir
	}

	logging.Debug("configuration loaded", "endpoint", cfg.Endpoint, "namespace", cfg.Namespace,
		"edgeIDs", cfg.EdgeIDs, "layout", cfg.Layout.Direction)
	return a, nil
}

func setupLogging(c config.LogConfig) error {
	level, err := logging.ParseLevel(c.Verbosity, c.Verbose)
	if err != nil {
		return err
	}
	switch c.Format {
	case "json":
		logging.SetJSONOutput(level)
	case "compact", "":
		logging.SetLevel(level)
	default:
		return fmt.Errorf("unknown log format %q", c.Format)
	}
	return nil
}
