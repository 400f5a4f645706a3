// Package config loads the simulator configuration from a YAML or JSON file
// with K_SECTION__KEY environment overrides.
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

	"github.com/kilianp07/wrsn/core/mc"
	"github.com/kilianp07/wrsn/core/metrics"
	"github.com/kilianp07/wrsn/core/trace"
	"github.com/kilianp07/wrsn/infra/monitoring"
	"github.com/kilianp07/wrsn/infra/mqtt"
)

type Config struct {
	Charger    ChargerConfig     `json:"charger"`
	Network    NetworkConfig     `json:"network"`
	Simulation SimulationConfig  `json:"simulation"`
	Metrics    metrics.Config    `json:"metrics"`
	Trace      trace.Config      `json:"trace"`
	Telemetry  mqtt.Config       `json:"telemetry"`
	Sentry     monitoring.Config `json:"sentry"`
	API        APIConfig         `json:"api"`
	KPI        KPIConfig         `json:"kpi"`
}

// Default returns a configuration with every section defaulted. Load
// decodes on top of it so partial charger specs keep the default values.
func Default() Config {
	cfg := Config{Charger: ChargerConfig{Spec: mc.DefaultSpec()}}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Charger.SetDefaults()
	c.Network.SetDefaults()
	c.Simulation.SetDefaults()
	c.Trace.SetDefaults()
	c.Telemetry.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	checks := []struct {
		section string
		fn      func() error
	}{
		{"charger", c.Charger.Validate},
		{"network", c.Network.Validate},
		{"simulation", c.Simulation.Validate},
		{"trace", c.Trace.Validate},
		{"telemetry", c.Telemetry.Validate},
		{"sentry", c.Sentry.Validate},
	}
	for _, ch := range checks {
		if err := ch.fn(); err != nil {
			return fmt.Errorf("%s: %w", ch.section, err)
		}
	}
	return nil
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
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	cfg := Config{Charger: ChargerConfig{Spec: mc.DefaultSpec()}}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
