// Layered configuration: defaults, optional YAML file, ROI_ environment overrides
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Output controls where and how region crops land on disk.
type Output struct {
	Dir     string `koanf:"dir"`
	Prefix  string `koanf:"prefix"`
	Format  string `koanf:"format"`
	Quality int    `koanf:"quality"`
}

// Detect holds detector and merger tuning.
type Detect struct {
	IoUThreshold   float64 `koanf:"iou_threshold"`
	FloodTolerance float64 `koanf:"flood_tolerance"`
	CutExpandX     int     `koanf:"cut_expand_x"`
	CutExpandY     int     `koanf:"cut_expand_y"`
}

// Superpixel holds segmentation grid tuning.
type Superpixel struct {
	RegionSize int     `koanf:"region_size"`
	Ruler      float64 `koanf:"ruler"`
}

type Config struct {
	Output     Output     `koanf:"output"`
	Detect     Detect     `koanf:"detect"`
	Superpixel Superpixel `koanf:"superpixel"`
}

const defaultYAML = `
output:
  dir: ./res_output
  prefix: target_
  format: png
  quality: 95
detect:
  iou_threshold: 0.3
  flood_tolerance: 30
  cut_expand_x: 50
  cut_expand_y: 80
superpixel:
  region_size: 30
  ruler: 10.0
`

// Load builds the configuration from defaults and ROI_ environment
// variables.
func Load() (*Config, error) {
	return LoadWithFile("")
}

// LoadWithFile layers an optional YAML file between the defaults and the
// environment. Env keys map ROI_OUTPUT_DIR -> output.dir.
func LoadWithFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider([]byte(defaultYAML)), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider("ROI_", ".", func(s string) string {
		return strings.Replace(
			strings.ToLower(strings.TrimPrefix(s, "ROI_")), "_", ".", 1)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the pipelines cannot run with.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case "png", "jpg", "jpeg", "webp":
	default:
		return fmt.Errorf("unsupported output format %q", c.Output.Format)
	}
	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output quality %d outside [1,100]", c.Output.Quality)
	}
	if c.Detect.IoUThreshold < 0 || c.Detect.IoUThreshold > 1 {
		return fmt.Errorf("iou threshold %v outside [0,1]", c.Detect.IoUThreshold)
	}
	if c.Detect.FloodTolerance < 0 {
		return fmt.Errorf("flood tolerance %v is negative", c.Detect.FloodTolerance)
	}
	if c.Superpixel.RegionSize < 4 {
		return fmt.Errorf("superpixel region size %d below minimum 4", c.Superpixel.RegionSize)
	}
	if c.Superpixel.Ruler <= 0 {
		return fmt.Errorf("superpixel ruler %v must be positive", c.Superpixel.Ruler)
	}
	return nil
}
