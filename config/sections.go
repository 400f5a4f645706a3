package config

import (
	"fmt"

	"github.com/kilianp07/wrsn/core/factory"
	"github.com/kilianp07/wrsn/core/mc"
	"github.com/kilianp07/wrsn/core/network"
)

// ChargerConfig describes the fleet of mobile chargers. Every charger shares
// the same physical parameters and starts at the base station.
type ChargerConfig struct {
	Count    int     `json:"count"`
	IDPrefix string  `json:"id_prefix"`
	Spec     mc.Spec `json:"spec"`
}

func (c *ChargerConfig) SetDefaults() {
	if c.Count == 0 {
		c.Count = 1
	}
	if c.IDPrefix == "" {
		c.IDPrefix = "mc"
	}
}

func (c ChargerConfig) Validate() error {
	if c.Count < 1 {
		return fmt.Errorf("count must be at least 1")
	}
	return c.Spec.Validate()
}

// IDs returns the charger identifiers, e.g. mc-1, mc-2.
func (c ChargerConfig) IDs() []string {
	ids := make([]string, c.Count)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s-%d", c.IDPrefix, i+1)
	}
	return ids
}

// NetworkConfig points at a scenario file or, when Scenario is empty,
// generates a random topology.
type NetworkConfig struct {
	Scenario string                 `json:"scenario"`
	Generate network.GenerateConfig `json:"generate"`
}

func (c *NetworkConfig) SetDefaults() {
	if c.Scenario == "" {
		c.Generate.SetDefaults()
	}
}

func (c NetworkConfig) Validate() error {
	if c.Scenario != "" {
		return nil
	}
	return c.Generate.Validate()
}

// Build loads or generates the scenario.
func (c NetworkConfig) Build() (network.Scenario, error) {
	if c.Scenario != "" {
		return network.LoadScenario(c.Scenario)
	}
	return network.Generate(c.Generate)
}

// SimulationConfig bounds an episode. Times are virtual seconds.
type SimulationConfig struct {
	Duration float64 `json:"duration"`
	// IdleWait is how long a charger waits after a cycle that consumed no
	// virtual time.
	IdleWait     float64              `json:"idle_wait"`
	MaxDecisions int                  `json:"max_decisions"`
	Policy       factory.ModuleConfig `json:"policy"`
	// PaceMS pauses the runner after every cycle, in wall-clock milliseconds.
	PaceMS int `json:"pace_ms"`
}

func (c *SimulationConfig) SetDefaults() {
	if c.Duration == 0 {
		c.Duration = 86400
	}
	if c.IdleWait == 0 {
		c.IdleWait = 60
	}
	if c.Policy.Type == "" {
		c.Policy.Type = "greedy"
	}
}

func (c SimulationConfig) Validate() error {
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive")
	}
	if c.IdleWait <= 0 {
		return fmt.Errorf("idle_wait must be positive")
	}
	if c.MaxDecisions < 0 || c.PaceMS < 0 {
		return fmt.Errorf("max_decisions and pace_ms must not be negative")
	}
	return nil
}

// APIConfig controls the HTTP server exposing charger status and traces.
// An empty Addr disables it.
type APIConfig struct {
	Addr  string `json:"addr"`
	Token string `json:"token"`
	// KeepServing leaves the API up after the episode until interrupted.
	KeepServing bool `json:"keep_serving"`
}

// KPIConfig points at the SQLite database of charger KPIs. An empty Path
// keeps them in memory for the duration of the process.
type KPIConfig struct {
	Path string `json:"path"`
}
