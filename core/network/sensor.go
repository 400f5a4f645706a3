package network

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/kilianp07/wrsn/core/mc"
)

// Clock reports the current virtual time.
type Clock interface {
	Now() float64
}

// Sensor is a rechargeable sensor node. It dies permanently once its energy
// reaches the threshold.
type Sensor struct {
	mu sync.Mutex

	id          string
	location    r2.Vec
	capacity    float64
	threshold   float64
	consumption float64
	clock       Clock

	energy   float64
	alive    bool
	diedAt   float64
	last     float64
	received map[string]float64
	gained   float64
}

// SensorState is a point-in-time view of a sensor.
type SensorState struct {
	ID          string  `json:"id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Energy      float64 `json:"energy"`
	Capacity    float64 `json:"capacity"`
	Threshold   float64 `json:"threshold"`
	Consumption float64 `json:"consumption"`
	Received    float64 `json:"received"`
	Alive       bool    `json:"alive"`
	DiedAt      float64 `json:"died_at,omitempty"`
}

func newSensor(spec NodeSpec, clock Clock) *Sensor {
	s := &Sensor{
		id:          spec.ID,
		location:    r2.Vec{X: spec.X, Y: spec.Y},
		capacity:    spec.Capacity,
		threshold:   spec.Threshold,
		consumption: spec.Consumption,
		clock:       clock,
		energy:      spec.Energy,
		alive:       true,
		last:        clock.Now(),
		received:    map[string]float64{},
	}
	if s.energy <= s.threshold {
		s.energy = s.threshold
		s.alive = false
		s.diedAt = s.last
	}
	return s
}

func (s *Sensor) ID() string         { return s.id }
func (s *Sensor) Location() r2.Vec   { return s.location }
func (s *Sensor) Capacity() float64  { return s.capacity }
func (s *Sensor) Threshold() float64 { return s.threshold }

// Alive reports whether the sensor was alive at its last update.
func (s *Sensor) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alive
}

// Energy returns the energy at the current virtual time.
func (s *Sensor) Energy() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.integrate(s.clock.Now())
	return s.energy
}

// Gained is the total energy received from chargers so far.
func (s *Sensor) Gained() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.integrate(s.clock.Now())
	return s.gained
}

// ConnectCharger implements mc.Node. A dead sensor draws nothing.
func (s *Sensor) ConnectCharger(l mc.Link) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.integrate(s.clock.Now())
	if !s.alive {
		return 0
	}
	s.received[l.ChargerID] = l.Power
	return l.Power
}

// DisconnectCharger implements mc.Node.
func (s *Sensor) DisconnectCharger(l mc.Link) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.integrate(s.clock.Now())
	delete(s.received, l.ChargerID)
}

// Refresh brings the sensor up to the current virtual time.
func (s *Sensor) Refresh() {
	s.mu.Lock()
	s.integrate(s.clock.Now())
	s.mu.Unlock()
}

// State returns a snapshot at the current virtual time.
func (s *Sensor) State() SensorState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.integrate(s.clock.Now())
	return SensorState{
		ID:          s.id,
		X:           s.location.X,
		Y:           s.location.Y,
		Energy:      s.energy,
		Capacity:    s.capacity,
		Threshold:   s.threshold,
		Consumption: s.consumption,
		Received:    s.inflow(),
		Alive:       s.alive,
		DiedAt:      s.diedAt,
	}
}

func (s *Sensor) inflow() float64 {
	var p float64
	for _, v := range s.received {
		p += v
	}
	return p
}

// integrate advances the energy from the last update to now. The death time
// is interpolated inside the interval when consumption wins.
func (s *Sensor) integrate(now float64) {
	dt := now - s.last
	if dt <= 0 || !s.alive {
		if now > s.last {
			s.last = now
		}
		return
	}
	in := s.inflow()
	net := in - s.consumption
	if net < 0 {
		if left := (s.energy - s.threshold) / -net; left <= dt {
			s.gained += in * left
			s.energy = s.threshold
			s.alive = false
			s.diedAt = s.last + left
			s.last = now
			return
		}
	}
	s.gained += in * dt
	s.energy += net * dt
	if s.energy > s.capacity {
		s.energy = s.capacity
	}
	s.last = now
}
