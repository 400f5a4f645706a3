// Package scenarios replays scripted episodes described in YAML and checks
// their outcome.
package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/wrsn/core/factory"
	"github.com/kilianp07/wrsn/core/mc"
	"github.com/kilianp07/wrsn/core/network"
)

// SpecDef overrides fields of the default charger spec.
type SpecDef struct {
	Capacity      *float64 `yaml:"capacity"`
	Threshold     *float64 `yaml:"threshold"`
	Alpha         *float64 `yaml:"alpha"`
	Beta          *float64 `yaml:"beta"`
	Velocity      *float64 `yaml:"velocity"`
	PM            *float64 `yaml:"pm"`
	ChargingRange *float64 `yaml:"charging_range"`
	Epsilon       *float64 `yaml:"epsilon"`
}

func (d SpecDef) ToModel() mc.Spec {
	s := mc.DefaultSpec()
	for _, f := range []struct {
		src *float64
		dst *float64
	}{
		{d.Capacity, &s.Capacity}, {d.Threshold, &s.Threshold}, {d.Alpha, &s.Alpha}, {d.Beta, &s.Beta},
		{d.Velocity, &s.Velocity}, {d.PM, &s.PM}, {d.ChargingRange, &s.ChargingRange}, {d.Epsilon, &s.Epsilon},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
	return s
}

type ActionDef struct {
	X            float64 `yaml:"x"`
	Y            float64 `yaml:"y"`
	ChargingTime float64 `yaml:"charging_time"`
}

func (a ActionDef) ToModel() mc.Action {
	return mc.Action{X: a.X, Y: a.Y, ChargingTime: a.ChargingTime}
}

type OptionsDef struct {
	Duration     float64 `yaml:"duration"`
	IdleWait     float64 `yaml:"idle_wait"`
	MaxDecisions int     `yaml:"max_decisions"`
}

// Expected lists the checks to run on the summary. Nil fields are skipped.
type Expected struct {
	Reason     string   `yaml:"reason"`
	EndTime    *float64 `yaml:"end_time"`
	Decisions  *int     `yaml:"decisions"`
	Rejections *int     `yaml:"rejections"`
	Depletions *int     `yaml:"depletions"`
	Stranded   *int     `yaml:"stranded"`
	MinAlive   *int     `yaml:"min_alive"`
}

type Scenario struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description,omitempty"`
	Chargers    []string         `yaml:"chargers"`
	Spec        SpecDef          `yaml:"spec"`
	Network     network.Scenario `yaml:"network"`
	// Actions are replayed in order by every charger before it falls back
	// to returning to the base station. Policy is used when empty.
	Actions  []ActionDef          `yaml:"actions,omitempty"`
	Policy   factory.ModuleConfig `yaml:"policy,omitempty"`
	Options  OptionsDef           `yaml:"options"`
	Expected Expected             `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("%s: scenario has no name", path)
	}
	if len(sc.Chargers) == 0 {
		sc.Chargers = []string{"mc-1"}
	}
	return &sc, nil
}
