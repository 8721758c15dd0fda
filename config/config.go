package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/fieldops/dispatch/core/dispatch"
	"github.com/fieldops/dispatch/core/geo"
	"github.com/fieldops/dispatch/core/metrics"
	"github.com/fieldops/dispatch/core/resilience"
	"github.com/fieldops/dispatch/core/score"
	"github.com/fieldops/dispatch/infra/notify"
)

// GeoConfig configures the zone map used for proximity scoring.
type GeoConfig struct {
	Zones       []geo.Zone `json:"zones"`
	AvgSpeedKmh float64    `json:"avg_speed_kmh"`
}

// Config is the top-level service configuration.
type Config struct {
	Scoring    score.Config             `json:"scoring"`
	Optimizer  dispatch.OptimizerConfig `json:"optimizer"`
	Resilience resilience.GuardConfig   `json:"resilience"`
	Geo        GeoConfig                `json:"geo"`
	Metrics    metrics.Config           `json:"metrics"`
	Notify     notify.Config            `json:"notify"`
	Logging    LoggingConfig            `json:"logging"`
}

// Load reads the configuration from a YAML or JSON file and applies
// FD_-prefixed environment variable overrides. Invalid configuration
// fails fast with an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("FD_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "fd_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills unset sections with their defaults.
func (c *Config) SetDefaults() {
	c.Scoring.SetDefaults()
	c.Optimizer.SetDefaults()
	c.Resilience.SetDefaults()
	c.Notify.SetDefaults()
	c.Logging.SetDefaults()
	if c.Geo.AvgSpeedKmh <= 0 {
		c.Geo.AvgSpeedKmh = 35
	}
	if len(c.Geo.Zones) == 0 {
		c.Geo.Zones = geo.DefaultZones()
	}
}

// Validate checks every section and returns the first error.
func (c *Config) Validate() error {
	if err := c.Scoring.Validate(); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	if err := c.Optimizer.Validate(); err != nil {
		return fmt.Errorf("optimizer: %w", err)
	}
	if err := c.Resilience.Validate(); err != nil {
		return fmt.Errorf("resilience: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

// ZoneMap builds the geo map described by the configuration.
func (c *Config) ZoneMap() *geo.Map {
	return geo.NewMap(c.Geo.Zones, c.Geo.AvgSpeedKmh)
}
