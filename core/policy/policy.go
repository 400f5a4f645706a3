// Package policy produces charger actions. The implementations here are
// heuristics that stand in for a learned controller.
package policy

import (
	"github.com/kilianp07/wrsn/core/factory"
	"github.com/kilianp07/wrsn/core/mc"
	"github.com/kilianp07/wrsn/core/network"
)

// Observation is what a policy sees at the start of a decision cycle.
type Observation struct {
	Now     float64
	Charger mc.Snapshot
	Spec    mc.Spec
	Base    network.Point
	Field   network.Field
	Sensors []network.SensorState
	// Claimed holds the ids of sensors another charger is heading to.
	Claimed map[string]bool
}

// Policy decides the next action of a charger.
type Policy interface {
	Act(Observation) mc.Action
}

// Func adapts a function to Policy.
type Func func(Observation) mc.Action

func (f Func) Act(o Observation) mc.Action { return f(o) }

var registry = factory.NewRegistry[Policy]()

func init() {
	registry.MustRegister("greedy", func(conf map[string]any) (Policy, error) {
		var c GreedyConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewGreedy(c), nil
	})
	registry.MustRegister("random", func(conf map[string]any) (Policy, error) {
		var c RandomConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewRandom(c), nil
	})
}

// Register adds a policy factory.
func Register(name string, f factory.Factory[Policy]) error {
	return registry.Register(name, f)
}

// New builds the policy described by cfg. An empty type selects greedy.
func New(cfg factory.ModuleConfig) (Policy, error) {
	if cfg.Type == "" {
		cfg.Type = "greedy"
	}
	return registry.Create(cfg)
}

// Names lists the registered policies.
func Names() []string { return registry.Names() }
