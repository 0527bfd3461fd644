package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritzau/block-visualizer/pkg/mapper"
	"github.com/ritzau/block-visualizer/pkg/view"
)

const doc = `{"data": {
	"blocks": {"A": {"type": "module"}, "B": {"type": "interface"}, "C": {"type": "signal"}},
	"links": [
		{"source": {"block": "A", "port": "out"}, "target": {"block": "B", "port": "in"}},
		{"source": {"block": "B"}, "target": {"block": "C"}},
		{"source": {"block": "C"}, "target": {"block": "ghost"}}
	]
}}`

func writeDoc(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "diagram.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestExport(t *testing.T) {
	path := writeDoc(t)
	out := filepath.Join(t.TempDir(), "diagram.svg")

	rootCmd.SetArgs([]string{"export", "--endpoint", path, "--layout", "right", "-o", out})
	require.NoError(t, rootCmd.Execute())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
	assert.Contains(t, string(data), ">A<")
}

func TestBuild_LaysOutWhenConfigured(t *testing.T) {
	path := writeDoc(t)
	cmd := &cobra.Command{Use: "test"}
	addConfigFlags(cmd.Flags())
	require.NoError(t, cmd.Flags().Parse([]string{"--endpoint", path, "--layout", "down"}))

	a, err := newApp(cmd)
	require.NoError(t, err)
	require.NotNil(t, a.autoLayout)

	d, report, err := a.build(t.Context())
	require.NoError(t, err)
	assert.Len(t, d.Nodes, 3)
	assert.Len(t, d.Edges, 2)
	assert.Len(t, report.DroppedLinks, 1)

	a0, _ := d.NodeByID("A")
	c0, _ := d.NodeByID("C")
	assert.Less(t, a0.Position.Y, c0.Position.Y)
}

func TestInspect_BadEndpoint(t *testing.T) {
	var stderr bytes.Buffer
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"inspect", "--endpoint", filepath.Join(t.TempDir(), "missing.json"), "--layout", ""})
	assert.Error(t, rootCmd.Execute())
}

// gatedSource blocks its first fetch until released
type gatedSource struct {
	fetches atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (g *gatedSource) Name() string { return "gated" }

func (g *gatedSource) Fetch(ctx context.Context) ([]byte, error) {
	if g.fetches.Add(1) == 1 {
		close(g.started)
		<-g.release
	}
	return []byte(doc), nil
}

func TestReloadWhenIdle_WaitsForBusyLoad(t *testing.T) {
	src := &gatedSource{started: make(chan struct{}), release: make(chan struct{})}
	shell, err := view.New(view.Options{Source: src, Rules: mapper.DefaultRules()})
	require.NoError(t, err)

	first := make(chan error, 1)
	go func() { first <- shell.Load(context.Background()) }()
	<-src.started

	reloaded := make(chan error, 1)
	go func() {
		reloaded <- reloadWhenIdle(context.Background(), shell.Load, 10*time.Millisecond)
	}()

	time.Sleep(50 * time.Millisecond)
	close(src.release)

	require.NoError(t, <-first)
	select {
	case err := <-reloaded:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("pending reload never ran")
	}
	assert.Equal(t, int32(2), src.fetches.Load())
	assert.Equal(t, view.StateReady, shell.State())
}

func TestReloadWhenIdle_GivesUpOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	busy := func(context.Context) error {
		calls++
		if calls == 3 {
			cancel()
		}
		return view.ErrBusy
	}

	err := reloadWhenIdle(ctx, busy, time.Millisecond)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, calls)
}
