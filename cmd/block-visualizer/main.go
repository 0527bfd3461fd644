package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ritzau/block-visualizer/pkg/config"
)

var rootCmd = &cobra.Command{
	Use:   "block-visualizer",
	Short: "Interactive diagrams of block/link system descriptions",
	Long: `block-visualizer fetches a JSON description of blocks and the links between
them, maps it to a styled diagram and lays it out top-to-bottom or
left-to-right. Serve it in the browser to drag, connect and re-layout
blocks, or inspect and export it from the command line.`,
	SilenceUsage: true,
}

func init() {
	addConfigFlags(rootCmd.PersistentFlags())
	rootCmd.AddCommand(serveCmd, inspectCmd, exportCmd)
}

// addConfigFlags declares the flags config.Load binds
func addConfigFlags(f *pflag.FlagSet) {
	f.String("config", config.DefaultFile, "Path to a TOML config file")
	f.String("endpoint", "", "URL or file path serving the graph document")
	f.String("namespace", "", "Top-level key holding blocks and links (empty: document root)")
	f.String("host", "", "Host for the web server")
	f.Int("port", 0, "Port for the web server")
	f.String("layout", "", "Lay out after every load: down or right")
	f.Float64("layer-spacing", 0, "Spacing between layers")
	f.Float64("node-spacing", 0, "Spacing between nodes in a layer")
	f.String("edge-ids", "", "Edge id rule: concat or distinct")
	f.Duration("fetch-timeout", 0, "Timeout for fetching the document")
	f.String("verbosity", "", "Log level: trace, debug, info, warn or error")
	f.CountP("verbose", "v", "Increase log verbosity (-v debug, -vv trace)")
	f.String("log-format", "", "Log format: compact or json")
	f.Bool("open", false, "Open the viewer in a browser")
	f.Bool("watch", false, "Reload when the document file changes")
}

func main() {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error: loading .env: %v\n", err)
		os.Exit(1)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
