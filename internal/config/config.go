// Package config loads the optional pebble.yaml file that tunes the
// engine: GC stress mode, the initial heap threshold, execution tracing,
// and REPL color.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EngineConfig mirrors pebble.yaml. Every field has a safe zero-value
// default, so a missing file is not an error — Load returns the defaults.
type EngineConfig struct {
	// GC tunes the collector.
	GC GCConfig `yaml:"gc"`

	// TraceExecution, when true, makes cmd/pebble send the collector's
	// per-collection log (heap size before and after, next threshold) to
	// stderr. Individual instructions are not traced.
	TraceExecution bool `yaml:"trace_execution"`

	// REPLColor selects when the REPL colors its prompt: "auto" (default,
	// only when stdin and stdout are both a TTY), "always", or "never".
	// A non-empty NO_COLOR turns color off in every mode. Diagnostics are
	// never colored.
	REPLColor string `yaml:"repl_color"`
}

// GCConfig tunes the tracing collector.
type GCConfig struct {
	// Stress, when true, runs a full collection before every allocation
	// instead of only when the heap has grown past the threshold.
	Stress bool `yaml:"stress"`

	// InitialThresholdBytes overrides the collector's starting
	// collect-at-this-many-bytes watermark. Zero means use the engine
	// default (1 MiB).
	InitialThresholdBytes int64 `yaml:"initial_threshold_bytes"`
}

// Default returns the configuration pebble runs with when no pebble.yaml
// is found.
func Default() *EngineConfig {
	return &EngineConfig{REPLColor: "auto"}
}

// Load reads the nearest pebble.yaml (or pebble.yml) found in dir or one
// of its ancestors, or returns Default() if none exists. A file that
// exists but fails to parse is a hard error.
func Load(dir string) (*EngineConfig, error) {
	path, err := find(dir)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse parses pebble.yaml content from bytes. path is used only for
// error messages.
func Parse(data []byte, path string) (*EngineConfig, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.setDefaults()
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// find walks upward from dir looking for pebble.yaml or pebble.yml.
func find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range []string{"pebble.yaml", "pebble.yml"} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func (c *EngineConfig) setDefaults() {
	if c.REPLColor == "" {
		c.REPLColor = "auto"
	}
}

func (c *EngineConfig) validate(path string) error {
	switch c.REPLColor {
	case "", "auto", "always", "never":
	default:
		return fmt.Errorf("%s: repl_color must be one of auto, always, never (got %q)", path, c.REPLColor)
	}
	if c.GC.InitialThresholdBytes < 0 {
		return fmt.Errorf("%s: gc.initial_threshold_bytes must not be negative", path)
	}
	return nil
}
