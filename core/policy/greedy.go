package policy

import (
	"math"

	"github.com/kilianp07/wrsn/core/mc"
	"github.com/kilianp07/wrsn/core/network"
)

// GreedyConfig tunes the Greedy policy.
type GreedyConfig struct {
	// Sensors above this energy ratio are left alone.
	RequestLevel float64 `json:"request_level"`
	// Upper bound on a single charging time.
	MaxChargingTime float64 `json:"max_charging_time"`
}

// Greedy serves the most depleted unclaimed sensor and charges it until
// full, parking on top of it.
type Greedy struct {
	cfg GreedyConfig
}

// NewGreedy fills unset fields with a request level of 0.8 and a 600s cap.
func NewGreedy(cfg GreedyConfig) *Greedy {
	if cfg.RequestLevel <= 0 {
		cfg.RequestLevel = 0.8
	}
	if cfg.MaxChargingTime <= 0 {
		cfg.MaxChargingTime = 600
	}
	return &Greedy{cfg: cfg}
}

// Act returns the base station when no sensor needs charge.
func (g *Greedy) Act(o Observation) mc.Action {
	var target *network.SensorState
	best := math.Inf(1)
	for i := range o.Sensors {
		s := &o.Sensors[i]
		if !s.Alive || o.Claimed[s.ID] || s.Capacity <= 0 {
			continue
		}
		ratio := s.Energy / s.Capacity
		if ratio >= g.cfg.RequestLevel {
			continue
		}
		if ratio < best {
			best, target = ratio, s
		}
	}
	if target == nil {
		return mc.Action{X: o.Base.X, Y: o.Base.Y}
	}
	// Parked on the sensor the link runs at alpha/beta^2.
	gain := o.Spec.LinkPower(0) - target.Consumption
	t := g.cfg.MaxChargingTime
	if gain > 0 {
		t = math.Min(t, (target.Capacity-target.Energy)/gain)
	}
	return mc.Action{X: target.X, Y: target.Y, ChargingTime: t}
}
