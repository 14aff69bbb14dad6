// Package config loads engine settings from an optional loom.yaml or
// loom.toml file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Backend names accepted in Config.Backend.
const (
	BackendTerm   = "term"
	BackendCanvas = "canvas"
)

// FileNames are the config files LoadOptional looks for, in order.
var FileNames = []string{"loom.yaml", "loom.yml", "loom.toml"}

// Config holds engine and backend settings.
type Config struct {
	// FPS is the frame rate the engine starts with.
	FPS     int  `yaml:"fps" toml:"fps"`
	Verbose bool `yaml:"verbose" toml:"verbose"`
	// Backend is "term" or "canvas".
	Backend string `yaml:"backend" toml:"backend"`
	// Width and Height are in text cells. The canvas backend multiplies
	// them by its font cell size; the terminal backend uses the terminal
	// size and only falls back to these.
	Width  int `yaml:"width" toml:"width"`
	Height int `yaml:"height" toml:"height"`
	// Output is the PNG path written by the canvas backend.
	Output string `yaml:"output,omitempty" toml:"output,omitempty"`
	Debug  Debug  `yaml:"debug" toml:"debug"`
}

// Debug configures the inspection server. An empty Addr disables it.
type Debug struct {
	Addr           string   `yaml:"addr,omitempty" toml:"addr,omitempty"`
	SampleInterval Duration `yaml:"sample_interval,omitempty" toml:"sample_interval,omitempty"`
	TraceSamples   int      `yaml:"trace_samples,omitempty" toml:"trace_samples,omitempty"`
}

// Duration is a time.Duration written as a Go duration string ("250ms").
type Duration time.Duration

func (d Duration) String() string { return time.Duration(d).String() }

// UnmarshalText implements encoding.TextUnmarshaler, which toml uses.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.UnmarshalText([]byte(value.Value))
}

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{
		FPS:     30,
		Backend: BackendTerm,
		Width:   80,
		Height:  24,
		Output:  "frame.png",
		Debug:   Debug{TraceSamples: 120},
	}
}

// Load reads path on top of Default. The format follows the extension:
// .yaml/.yml or .toml.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := decode(path, data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// LoadOptional loads the first of FileNames found in dir, or returns
// Default when there is none.
func LoadOptional(dir string) (Config, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return Default(), fmt.Errorf("failed to stat %s: %w", name, err)
		}
		return Load(path)
	}
	return Default(), nil
}

func decode(path string, data []byte, cfg *Config) error {
	name := filepath.Base(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse %s: %w", name, err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", name, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("%s: unknown key %q", name, undecoded[0].String())
		}
	default:
		return fmt.Errorf("%s: unsupported config format", name)
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.FPS)
	}
	switch c.Backend {
	case BackendTerm, BackendCanvas:
	default:
		return fmt.Errorf("unknown backend %q (want %q or %q)", c.Backend, BackendTerm, BackendCanvas)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("size must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.Backend == BackendCanvas && strings.TrimSpace(c.Output) == "" {
		return errors.New("canvas backend needs an output path")
	}
	if c.Debug.SampleInterval < 0 {
		return fmt.Errorf("debug sample interval must not be negative, got %s", c.Debug.SampleInterval)
	}
	return nil
}

// FrameInterval is the time between frames at c.FPS.
func (c Config) FrameInterval() time.Duration {
	if c.FPS <= 0 {
		return 0
	}
	return time.Second / time.Duration(c.FPS)
}
