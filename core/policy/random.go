package policy

import (
	"math/rand"

	"github.com/kilianp07/wrsn/core/mc"
)

// RandomConfig tunes the Random policy.
type RandomConfig struct {
	Seed            int64   `json:"seed"`
	MaxChargingTime float64 `json:"max_charging_time"`
}

// Random picks uniform destinations in the field and uniform charging times.
// Useful as a baseline and for exercising the rejection path.
type Random struct {
	rng *rand.Rand
	max float64
}

func NewRandom(cfg RandomConfig) *Random {
	if cfg.MaxChargingTime <= 0 {
		cfg.MaxChargingTime = 600
	}
	return &Random{rng: rand.New(rand.NewSource(cfg.Seed)), max: cfg.MaxChargingTime}
}

func (r *Random) Act(o Observation) mc.Action {
	return mc.Action{
		X:            r.rng.Float64() * o.Field.Width,
		Y:            r.rng.Float64() * o.Field.Height,
		ChargingTime: r.rng.Float64() * r.max,
	}
}
