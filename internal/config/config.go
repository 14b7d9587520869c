// Package config loads editor configuration from a YAML file.
//
// Every tuned constant of the pipeline lives here: grid and stitch
// dimensions, isolation thresholds, and the generator endpoint. Missing
// file or fields fall back to defaults; thresholds are configuration by
// design, never derived from image content.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all tunable editor settings.
type Config struct {
	// World grid.
	TileSize   int `yaml:"tile_size"`
	StripWidth int `yaml:"strip_width"`
	// NeighborEpsilon is the world-unit slack when matching a base
	// tile to an expected neighbor position. Chosen well above
	// float accumulation drift.
	NeighborEpsilon float64 `yaml:"neighbor_epsilon"`

	// Isolation thresholds (Manhattan distance over RGB, 0-765).
	ChromaThreshold     int `yaml:"chroma_threshold"`
	DifferenceThreshold int `yaml:"difference_threshold"`

	// Tool defaults.
	EraserSize float64 `yaml:"eraser_size"`
	BrushSize  float64 `yaml:"brush_size"`

	Generator GeneratorConfig `yaml:"generator"`
}

// GeneratorConfig configures the external image generation endpoint.
type GeneratorConfig struct {
	Endpoint string   `yaml:"endpoint"`
	Model    string   `yaml:"model"`
	Timeout  Duration `yaml:"timeout"`
}

// Duration wraps time.Duration so YAML accepts values like "120s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		TileSize:            1024,
		StripWidth:          256,
		NeighborEpsilon:     100,
		ChromaThreshold:     100,
		DifferenceThreshold: 35,
		EraserSize:          48,
		BrushSize:           32,
		Generator: GeneratorConfig{
			Endpoint: "http://localhost:8750/v1/images",
			Model:    "default",
			Timeout:  Duration(120 * time.Second),
		},
	}
}

// Load reads a YAML config file, layering it over the defaults. A
// missing file returns the defaults without error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, cfg.validate()
}

// Save writes the configuration as YAML.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (c Config) validate() error {
	if c.TileSize <= 0 {
		return fmt.Errorf("tile_size must be positive, got %d", c.TileSize)
	}
	if c.StripWidth <= 0 || c.StripWidth >= c.TileSize {
		return fmt.Errorf("strip_width must be in (0, tile_size), got %d", c.StripWidth)
	}
	if c.NeighborEpsilon <= 0 {
		return fmt.Errorf("neighbor_epsilon must be positive, got %v", c.NeighborEpsilon)
	}
	if c.ChromaThreshold < 0 || c.ChromaThreshold > 765 {
		return fmt.Errorf("chroma_threshold out of range: %d", c.ChromaThreshold)
	}
	if c.DifferenceThreshold < 0 || c.DifferenceThreshold > 765 {
		return fmt.Errorf("difference_threshold out of range: %d", c.DifferenceThreshold)
	}
	return nil
}
