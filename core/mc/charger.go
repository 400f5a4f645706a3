package mc

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// MaxSlice is the longest virtual time span a single process step covers.
const MaxSlice = 1.0

// Status is the binary health state of a charger.
type Status int

const (
	Depleted Status = 0
	Active   Status = 1
)

func (s Status) String() string {
	if s == Active {
		return "active"
	}
	return "depleted"
}

// MarshalText encodes the status as its name.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes a status name.
func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "active":
		*s = Active
	case "depleted":
		*s = Depleted
	default:
		return fmt.Errorf("unknown status %q", b)
	}
	return nil
}

// ActionType is the coarse phase reported to observers.
type ActionType string

const (
	Moving   ActionType = "moving"
	Charging ActionType = "charging"
)

// Action is a request to travel to (X, Y) and charge for ChargingTime.
type Action struct {
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	ChargingTime float64 `json:"charging_time"`
}

// Destination returns the target point.
func (a Action) Destination() r2.Vec { return r2.Vec{X: a.X, Y: a.Y} }

// Validate rejects non-finite coordinates and negative charging times.
func (a Action) Validate() error {
	for _, v := range []float64{a.X, a.Y, a.ChargingTime} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value in %+v", ErrInvalidAction, a)
		}
	}
	if a.ChargingTime < 0 {
		return fmt.Errorf("%w: negative charging time %v", ErrInvalidAction, a.ChargingTime)
	}
	return nil
}

// MobileCharger is one charger agent. Its state is mutated only by its own
// processes and is not safe for concurrent use.
type MobileCharger struct {
	id   string
	spec Spec

	location     r2.Vec
	energy       float64
	chargingRate float64
	status       Status

	action     Action
	actionType ActionType
	last       Decision
}

// New builds a fully charged, active charger at location.
func New(id string, location r2.Vec, spec Spec) (*MobileCharger, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if math.IsNaN(location.X) || math.IsNaN(location.Y) || math.IsInf(location.X, 0) || math.IsInf(location.Y, 0) {
		return nil, fmt.Errorf("charger %s: non-finite location", id)
	}
	m := &MobileCharger{
		id:         id,
		spec:       spec,
		location:   location,
		energy:     spec.Capacity,
		status:     Active,
		actionType: Moving,
	}
	m.checkStatus()
	return m, nil
}

// ID returns the charger identifier.
func (m *MobileCharger) ID() string { return m.id }

// Spec returns the immutable charger parameters.
func (m *MobileCharger) Spec() Spec { return m.spec }

// Location returns the current position.
func (m *MobileCharger) Location() r2.Vec { return m.location }

// Energy returns the battery level (J).
func (m *MobileCharger) Energy() float64 { return m.energy }

// ChargingRate returns the power drawn during the current charging slice,
// zero between slices.
func (m *MobileCharger) ChargingRate() float64 { return m.chargingRate }

// Status reports whether the charger is Active or Depleted.
func (m *MobileCharger) Status() Status { return m.status }

// ActionType reports whether the charger is moving or charging.
func (m *MobileCharger) ActionType() ActionType { return m.actionType }

// CurrentAction returns the action being executed, after any rewrite to a
// return to base.
func (m *MobileCharger) CurrentAction() Action { return m.action }

// LastDecision returns how the most recent Operate call was handled.
func (m *MobileCharger) LastDecision() Decision { return m.last }

func (m *MobileCharger) distanceTo(p r2.Vec) float64 { return r2.Norm(r2.Sub(p, m.location)) }

// Snapshot is the observable state of a charger.
type Snapshot struct {
	ID           string     `json:"id"`
	X            float64    `json:"x"`
	Y            float64    `json:"y"`
	Energy       float64    `json:"energy"`
	Capacity     float64    `json:"capacity"`
	ChargingRate float64    `json:"charging_rate"`
	Status       Status     `json:"status"`
	ActionType   ActionType `json:"action_type"`
	Action       Action     `json:"action"`
}

// Snapshot copies the observable state.
func (m *MobileCharger) Snapshot() Snapshot {
	return Snapshot{
		ID:           m.id,
		X:            m.location.X,
		Y:            m.location.Y,
		Energy:       m.energy,
		Capacity:     m.spec.Capacity,
		ChargingRate: m.chargingRate,
		Status:       m.status,
		ActionType:   m.actionType,
		Action:       m.action,
	}
}

func distance(a, b r2.Vec) float64 { return r2.Norm(r2.Sub(a, b)) }
