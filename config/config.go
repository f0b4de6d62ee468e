// Package config loads the application configuration from a yaml or json
// file with optional environment overrides.
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

	"github.com/kilianp07/pvbess/core/metrics"
	"github.com/kilianp07/pvbess/core/model"
	"github.com/kilianp07/pvbess/core/schedule"
)

type Config struct {
	Plant   model.PlantParams `json:"plant"`
	Engine  EngineConfig      `json:"engine"`
	Metrics metrics.Config    `json:"metrics"`
	Logging LoggingConfig     `json:"logging"`
}

// EngineConfig selects and tunes the scheduling engine.
type EngineConfig struct {
	// Mode is one of "exact", "lookahead", "daily".
	Mode   string                `json:"mode"`
	Solver schedule.SolverConfig `json:"solver"`
	Rules  schedule.RuleParams   `json:"rules"`
	Daily  schedule.DailyParams  `json:"daily"`
}

// SetDefaults applies sane defaults.
func (c *EngineConfig) SetDefaults() {
	if c.Mode == "" {
		c.Mode = "exact"
	}
	c.Solver.SetDefaults()
	c.Rules.SetDefaults()
	c.Daily.SetDefaults()
}

// Validate checks the mode and the per-engine tuning.
func (c EngineConfig) Validate() error {
	switch c.Mode {
	case "exact", "lookahead", "daily":
	default:
		return fmt.Errorf("unknown engine mode %q", c.Mode)
	}
	if err := c.Solver.Validate(); err != nil {
		return err
	}
	if err := c.Rules.Validate(); err != nil {
		return err
	}
	return c.Daily.Validate()
}

// Build returns the configured scheduler.
func (c EngineConfig) Build() (schedule.Scheduler, error) {
	return schedule.NewEngine(c.Mode, c.Solver, c.Rules, c.Daily)
}

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
	if err := k.Load(env.Provider("PVBESS_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "pvbess_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Plant.SetDefaults()
	cfg.Engine.SetDefaults()
	cfg.Logging.SetDefaults()
	if err := cfg.Plant.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Engine.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Logging.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
