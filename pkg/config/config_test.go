package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func newFlags() *pflag.FlagSet {
	f := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.String("config", "", "")
	f.String("endpoint", "", "")
	f.String("namespace", "", "")
	f.Int("port", 8080, "")
	f.String("layout", "", "")
	f.Duration("fetch-timeout", 10*time.Second, "")
	f.CountP("verbose", "v", "")
	return f
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Endpoint != "http://127.0.0.1:5000/data" {
		t.Errorf("Expected default endpoint, got %s", cfg.Endpoint)
	}
	if cfg.Namespace != "data" {
		t.Errorf("Expected default namespace data, got %s", cfg.Namespace)
	}
	if cfg.Server.Port != 8080 || cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Expected 127.0.0.1:8080, got %s", cfg.Server.Addr())
	}
	if cfg.Fetch.Timeout != 10*time.Second {
		t.Errorf("Expected 10s timeout, got %v", cfg.Fetch.Timeout)
	}
	if cfg.Layout.LayerSpacing != 80 || cfg.Layout.NodeSpacing != 80 {
		t.Errorf("Expected 80/80 spacing, got %v/%v", cfg.Layout.LayerSpacing, cfg.Layout.NodeSpacing)
	}
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	t.Setenv("BLOCK_VISUALIZER_NAMESPACE", "power_supply")
	t.Setenv("BLOCK_VISUALIZER_SERVER_PORT", "9090")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Env keys map underscores to dots, so the namespace value itself keeps its underscore
	if cfg.Namespace != "power_supply" {
		t.Errorf("Expected namespace from env, got %s", cfg.Namespace)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090 from env, got %d", cfg.Server.Port)
	}
}

func TestLoadFlagsOverrideEnvAndFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "viz.toml")
	content := `
endpoint = "http://10.0.0.1/data"
namespace = "ios"

[layout]
direction = "right"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("BLOCK_VISUALIZER_NAMESPACE", "from_env")

	f := newFlags()
	if err := f.Parse([]string{"--config", path, "--port", "7000", "--layout", "down", "-vv"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(f)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Endpoint != "http://10.0.0.1/data" {
		t.Errorf("Expected endpoint from file, got %s", cfg.Endpoint)
	}
	if cfg.Namespace != "from_env" {
		t.Errorf("Expected env to override file, got %s", cfg.Namespace)
	}
	if cfg.Layout.Direction != "down" {
		t.Errorf("Expected flag to override file, got %s", cfg.Layout.Direction)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("Expected port 7000 from flag, got %d", cfg.Server.Port)
	}
	if cfg.Log.Verbose != 2 {
		t.Errorf("Expected verbose count 2, got %d", cfg.Log.Verbose)
	}
}

func TestLoadUnchangedFlagsKeepDefaults(t *testing.T) {
	t.Setenv("BLOCK_VISUALIZER_SERVER_PORT", "9191")

	f := newFlags()
	if err := f.Parse(nil); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(f)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("Unset --port flag must not clobber env, got %d", cfg.Server.Port)
	}
}

func TestLoadMissingExplicitConfig(t *testing.T) {
	f := newFlags()
	if err := f.Parse([]string{"--config", filepath.Join(t.TempDir(), "nope.toml")}); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(f); err == nil {
		t.Error("Expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatal(err)
	}

	bad := *cfg
	bad.Layout.Direction = "diagonal"
	if err := bad.Validate(); err == nil {
		t.Error("Expected error for unknown layout direction")
	}

	bad = *cfg
	bad.EdgeIDs = "random"
	if err := bad.Validate(); err == nil {
		t.Error("Expected error for unknown edge id rule")
	}

	bad = *cfg
	bad.Viewport.Width = 0
	if err := bad.Validate(); err == nil {
		t.Error("Expected error for empty viewport")
	}
}
