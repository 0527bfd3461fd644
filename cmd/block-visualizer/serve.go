package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ritzau/block-visualizer/pkg/logging"
	"github.com/ritzau/block-visualizer/pkg/pubsub"
	"github.com/ritzau/block-visualizer/pkg/source"
	"github.com/ritzau/block-visualizer/pkg/view"
	"github.com/ritzau/block-visualizer/pkg/watcher"
	"github.com/ritzau/block-visualizer/pkg/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interactive viewer",
	Long: `Starts the web viewer, then fetches the document in the background.
Progress and failures are streamed to the browser, which can retry a failed
fetch, re-layout the diagram and edit it.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	publisher := pubsub.NewDefaultPublisher()
	shell, err := view.New(view.Options{
		Source:       a.src,
		Rules:        a.rules,
		Adapter:      a.adapter,
		Publisher:    publisher,
		AutoLayout:   a.autoLayout,
		FetchTimeout: a.cfg.Fetch.Timeout,
	})
	if err != nil {
		return err
	}
	server := web.NewServer(shell, publisher)

	// Start web server first, then load in background
	addr := a.cfg.Server.Addr()
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(ctx, addr)
	}()

	go func() {
		if err := shell.Load(ctx); err != nil {
			logging.Warn("initial load failed", "source", shell.SourceName(), "error", err)
		}
	}()

	if a.cfg.Watch {
		startWatching(ctx, a.src, shell)
	}

	url := fmt.Sprintf("http://%s", addr)
	fmt.Printf("Serving %s on %s\n", shell.SourceName(), url)
	if a.cfg.Open {
		// Wait a moment for server to start
		time.Sleep(500 * time.Millisecond)
		openBrowser(url)
	}

	return <-errCh
}

func startWatching(ctx context.Context, src source.Source, shell *view.Shell) {
	fileSrc, ok := src.(*source.FileSource)
	if !ok {
		logging.Warn("watch only applies to file endpoints, ignoring", "source", src.Name())
		return
	}

	err := watcher.Run(ctx, fileSrc.Path, watcher.DefaultQuietPeriod, watcher.DefaultMaxWait,
		func(ctx context.Context, event watcher.ChangeEvent) {
			logging.Info("document changed, reloading", "paths", len(event.Paths))
			if err := reloadWhenIdle(ctx, shell.Load, busyRetryInterval); err != nil {
				logging.Warn("reload failed", "error", err)
			}
		})
	if err != nil {
		logging.Warn("failed to watch document", "path", fileSrc.Path, "error", err)
	}
}

const busyRetryInterval = 100 * time.Millisecond

// reloadWhenIdle runs load, retrying while another load is in progress. The
// busy load may have read the file before this change was written, so the
// change is only dropped if ctx ends first. Changes arriving meanwhile are
// held by the debouncer and coalesced into the next call.
func reloadWhenIdle(ctx context.Context, load func(context.Context) error, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		err := load(ctx)
		if !errors.Is(err, view.ErrBusy) {
			return err
		}
		logging.Debug("reload pending, already loading")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		fmt.Printf("Please open your browser to: %s\n", url)
		return
	}

	if err := cmd.Start(); err != nil {
		fmt.Printf("Could not open browser automatically. Please visit: %s\n", url)
	}
}
