package network

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidScenario is returned for scenarios that cannot be simulated.
var ErrInvalidScenario = errors.New("invalid scenario")

// Point is a location in the field.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Field is the rectangle [0, Width] x [0, Height] the sensors are deployed in.
type Field struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// NodeSpec describes one sensor in a scenario.
type NodeSpec struct {
	ID          string  `json:"id" yaml:"id"`
	X           float64 `json:"x" yaml:"x"`
	Y           float64 `json:"y" yaml:"y"`
	Energy      float64 `json:"energy" yaml:"energy"`
	Capacity    float64 `json:"capacity" yaml:"capacity"`
	Threshold   float64 `json:"threshold" yaml:"threshold"`
	Consumption float64 `json:"consumption" yaml:"consumption"`
}

// Scenario is a complete network layout.
type Scenario struct {
	BaseStation Point      `json:"base_station" yaml:"base_station"`
	Field       Field      `json:"field" yaml:"field"`
	Nodes       []NodeSpec `json:"nodes" yaml:"nodes"`
}

// Validate checks node parameters and id uniqueness.
func (sc Scenario) Validate() error {
	if !finite(sc.BaseStation.X, sc.BaseStation.Y) {
		return fmt.Errorf("%w: non-finite base station", ErrInvalidScenario)
	}
	seen := make(map[string]struct{}, len(sc.Nodes))
	for i, n := range sc.Nodes {
		if n.ID == "" {
			return fmt.Errorf("%w: node %d has no id", ErrInvalidScenario, i)
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("%w: duplicate node id %q", ErrInvalidScenario, n.ID)
		}
		seen[n.ID] = struct{}{}
		if !finite(n.X, n.Y, n.Energy, n.Capacity, n.Threshold, n.Consumption) {
			return fmt.Errorf("%w: node %q has non-finite values", ErrInvalidScenario, n.ID)
		}
		if n.Capacity <= 0 || n.Threshold < 0 || n.Threshold >= n.Capacity {
			return fmt.Errorf("%w: node %q needs 0 <= threshold < capacity", ErrInvalidScenario, n.ID)
		}
		if n.Energy < 0 || n.Energy > n.Capacity {
			return fmt.Errorf("%w: node %q energy outside [0, capacity]", ErrInvalidScenario, n.ID)
		}
		if n.Consumption < 0 {
			return fmt.Errorf("%w: node %q has negative consumption", ErrInvalidScenario, n.ID)
		}
	}
	return nil
}

// LoadScenario reads a scenario from a YAML or JSON file.
func LoadScenario(path string) (Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return Scenario{}, err
	}
	defer f.Close()
	return DecodeScenario(f, strings.TrimPrefix(filepath.Ext(path), "."))
}

// DecodeScenario decodes a scenario in the given format ("yaml" or "json").
func DecodeScenario(r io.Reader, format string) (Scenario, error) {
	var sc Scenario
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&sc); err != nil {
			return sc, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&sc); err != nil {
			return sc, err
		}
	default:
		return sc, fmt.Errorf("unsupported scenario format: %s", format)
	}
	return sc, sc.Validate()
}

// GenerateConfig drives random scenario generation.
type GenerateConfig struct {
	Nodes       int     `json:"nodes"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Capacity    float64 `json:"capacity"`
	Threshold   float64 `json:"threshold"`
	Consumption float64 `json:"consumption"`
	// Initial energy is drawn uniformly from [MinLevel, MaxLevel] * capacity.
	MinLevel float64 `json:"min_level"`
	MaxLevel float64 `json:"max_level"`
	Seed     int64   `json:"seed"`
}

// SetDefaults fills unset fields.
func (c *GenerateConfig) SetDefaults() {
	if c.Nodes == 0 {
		c.Nodes = 50
	}
	if c.Width == 0 {
		c.Width = 100
	}
	if c.Height == 0 {
		c.Height = 100
	}
	if c.Capacity == 0 {
		c.Capacity = 10800
	}
	if c.Threshold == 0 {
		c.Threshold = 540
	}
	if c.Consumption == 0 {
		c.Consumption = 0.5
	}
	if c.MinLevel == 0 && c.MaxLevel == 0 {
		c.MinLevel, c.MaxLevel = 0.5, 1
	}
}

// Validate checks the generation bounds.
func (c GenerateConfig) Validate() error {
	switch {
	case c.Nodes < 0:
		return fmt.Errorf("%w: negative node count", ErrInvalidScenario)
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: field must have positive size", ErrInvalidScenario)
	case c.MinLevel < 0 || c.MaxLevel > 1 || c.MinLevel > c.MaxLevel:
		return fmt.Errorf("%w: levels must satisfy 0 <= min <= max <= 1", ErrInvalidScenario)
	}
	return nil
}

// Generate builds a reproducible random scenario with the base station at the
// centre of the field.
func Generate(c GenerateConfig) (Scenario, error) {
	if err := c.Validate(); err != nil {
		return Scenario{}, err
	}
	rng := rand.New(rand.NewSource(c.Seed))
	sc := Scenario{
		BaseStation: Point{X: c.Width / 2, Y: c.Height / 2},
		Field:       Field{Width: c.Width, Height: c.Height},
		Nodes:       make([]NodeSpec, c.Nodes),
	}
	for i := range sc.Nodes {
		level := c.MinLevel + rng.Float64()*(c.MaxLevel-c.MinLevel)
		sc.Nodes[i] = NodeSpec{
			ID:          fmt.Sprintf("node-%03d", i),
			X:           rng.Float64() * c.Width,
			Y:           rng.Float64() * c.Height,
			Energy:      level * c.Capacity,
			Capacity:    c.Capacity,
			Threshold:   c.Threshold,
			Consumption: c.Consumption,
		}
	}
	return sc, sc.Validate()
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
