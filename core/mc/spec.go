package mc

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidSpec is returned when a charger specification breaks a
	// physical constraint.
	ErrInvalidSpec = errors.New("invalid charger spec")
	// ErrInvalidAction is returned for actions with non-finite coordinates
	// or a negative charging time.
	ErrInvalidAction = errors.New("invalid action")
)

// Spec holds the immutable physical constants of a charger.
type Spec struct {
	Capacity      float64 `json:"capacity"`       // battery capacity (J)
	Threshold     float64 `json:"threshold"`      // minimum safe energy (J)
	Alpha         float64 `json:"alpha"`          // charging model numerator
	Beta          float64 `json:"beta"`           // charging model distance offset
	Velocity      float64 `json:"velocity"`       // travel speed (m/s)
	PM            float64 `json:"pm"`             // movement cost per metre (J/m)
	ChargingRange float64 `json:"charging_range"` // max charging distance (m)
	Epsilon       float64 `json:"epsilon"`        // base station proximity tolerance (m)
}

// DefaultSpec returns the reference charger used by the sample scenarios.
func DefaultSpec() Spec {
	return Spec{
		Capacity:      108000,
		Threshold:     540,
		Alpha:         3600,
		Beta:          30,
		Velocity:      5,
		PM:            1,
		ChargingRange: 27,
		Epsilon:       1,
	}
}

// Validate checks that every constant is finite and physically sound.
func (s Spec) Validate() error {
	for name, v := range map[string]float64{
		"capacity": s.Capacity, "threshold": s.Threshold, "alpha": s.Alpha, "beta": s.Beta,
		"velocity": s.Velocity, "pm": s.PM, "charging_range": s.ChargingRange, "epsilon": s.Epsilon,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be finite", ErrInvalidSpec, name)
		}
	}
	switch {
	case s.Capacity <= 0:
		return fmt.Errorf("%w: capacity must be positive", ErrInvalidSpec)
	case s.Threshold < 0 || s.Threshold >= s.Capacity:
		return fmt.Errorf("%w: threshold must be in [0, capacity)", ErrInvalidSpec)
	case s.Velocity <= 0:
		return fmt.Errorf("%w: velocity must be positive", ErrInvalidSpec)
	case s.PM < 0:
		return fmt.Errorf("%w: pm must not be negative", ErrInvalidSpec)
	case s.Alpha < 0:
		return fmt.Errorf("%w: alpha must not be negative", ErrInvalidSpec)
	case s.Beta <= 0:
		return fmt.Errorf("%w: beta must be positive", ErrInvalidSpec)
	case s.ChargingRange < 0:
		return fmt.Errorf("%w: charging_range must not be negative", ErrInvalidSpec)
	case s.Epsilon < 0:
		return fmt.Errorf("%w: epsilon must not be negative", ErrInvalidSpec)
	}
	return nil
}

// LinkPower is the power a node at distance d receives from the charger.
func (s Spec) LinkPower(d float64) float64 {
	return s.Alpha / ((d + s.Beta) * (d + s.Beta))
}
