package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// DefaultFile is the optional config file looked up in the working directory
const DefaultFile = "block-visualizer.toml"

// EnvPrefix prefixes environment overrides (e.g. BLOCK_VISUALIZER_SERVER_PORT=9090)
const EnvPrefix = "BLOCK_VISUALIZER_"

// Config holds all configuration for the application
type Config struct {
	Endpoint  string         `koanf:"endpoint"`  // URL or file path serving the graph JSON
	Namespace string         `koanf:"namespace"` // Top-level key holding blocks/links; empty = document root
	EdgeIDs   string         `koanf:"edgeids"`   // "concat" or "distinct"
	Open      bool           `koanf:"open"`
	Watch     bool           `koanf:"watch"`
	Server    ServerConfig   `koanf:"server"`
	Fetch     FetchConfig    `koanf:"fetch"`
	Layout    LayoutConfig   `koanf:"layout"`
	Viewport  ViewportConfig `koanf:"viewport"`
	Log       LogConfig      `koanf:"log"`
}

type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type FetchConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

type LayoutConfig struct {
	Direction    string  `koanf:"direction"` // auto-layout after load: "", "down" or "right"
	LayerSpacing float64 `koanf:"layerspacing"`
	NodeSpacing  float64 `koanf:"nodespacing"`
}

type ViewportConfig struct {
	Width  float64 `koanf:"width"`
	Height float64 `koanf:"height"`
}

type LogConfig struct {
	Verbosity string `koanf:"verbosity"`
	Verbose   int    `koanf:"verbose"`
	Format    string `koanf:"format"` // "compact" or "json"
}

// flagKeys maps flag names to their koanf keys. Flags not listed use their own name.
var flagKeys = map[string]string{
	"host":          "server.host",
	"port":          "server.port",
	"fetch-timeout": "fetch.timeout",
	"layout":        "layout.direction",
	"layer-spacing": "layout.layerspacing",
	"node-spacing":  "layout.nodespacing",
	"edge-ids":      "edgeids",
	"verbosity":     "log.verbosity",
	"verbose":       "log.verbose",
	"log-format":    "log.format",
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"endpoint":  "http://127.0.0.1:5000/data",
		"namespace": "data",
		"edgeids":   "concat",
		"open":      false,
		"watch":     false,
		"server": map[string]interface{}{
			"host": "127.0.0.1",
			"port": 8080,
		},
		"fetch": map[string]interface{}{
			"timeout": "10s",
		},
		"layout": map[string]interface{}{
			"direction":    "",
			"layerspacing": 80.0,
			"nodespacing":  80.0,
		},
		"viewport": map[string]interface{}{
			"width":  1200.0,
			"height": 800.0,
		},
		"log": map[string]interface{}{
			"verbosity": "",
			"verbose":   0,
			"format":    "compact",
		},
	}
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(makeMapProvider(defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config File. The default file is optional; an explicit --config must exist.
	path, explicit := DefaultFile, false
	if f != nil {
		if fl := f.Lookup("config"); fl != nil && fl.Changed {
			path, explicit = fl.Value.String(), true
		}
	}
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil && explicit {
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}

	// 3. Environment Variables
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, EnvPrefix)), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		provider := posflag.ProviderWithFlag(f, ".", k, func(fl *pflag.Flag) (string, interface{}) {
			if fl.Name == "config" {
				return "", nil
			}
			key := fl.Name
			if mapped, ok := flagKeys[fl.Name]; ok {
				key = mapped
			}
			return key, posflag.FlagVal(f, fl)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the rest of the program cannot work with
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint must not be empty")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Server.Port)
	}
	switch strings.ToLower(c.Layout.Direction) {
	case "", "down", "vertical", "right", "horizontal":
	default:
		return fmt.Errorf("layout direction must be down or right, got %q", c.Layout.Direction)
	}
	switch c.EdgeIDs {
	case "concat", "distinct":
	default:
		return fmt.Errorf("edge-ids must be concat or distinct, got %q", c.EdgeIDs)
	}
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return fmt.Errorf("viewport must be positive, got %vx%v", c.Viewport.Width, c.Viewport.Height)
	}
	if c.Fetch.Timeout < 0 {
		return fmt.Errorf("fetch timeout must not be negative")
	}
	switch c.Log.Format {
	case "compact", "json":
	default:
		return fmt.Errorf("log format must be compact or json, got %q", c.Log.Format)
	}
	return nil
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
