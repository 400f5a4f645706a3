package mc

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// MoveProcess translates the charger toward a destination at constant
// velocity. Each slice is applied when its virtual time span has elapsed.
type MoveProcess struct {
	m    *MobileCharger
	dest r2.Vec

	span     float64
	arriving bool
	inFlight bool

	// Distance travelled and energy spent so far.
	Travelled float64
	Spent     float64
}

// Move returns a process that drives the charger to dest.
func (m *MobileCharger) Move(dest r2.Vec) *MoveProcess {
	return &MoveProcess{m: m, dest: dest}
}

// Step settles the slice in flight and plans the next one.
func (p *MoveProcess) Step(float64) (float64, bool) {
	m := p.m
	if p.inFlight {
		p.settle()
	}
	if m.status == Depleted {
		return 0, true
	}
	// Recomputed from the live position on every slice.
	remaining := m.distanceTo(p.dest) / m.spec.Velocity
	if remaining <= 0 {
		return 0, true
	}
	span := math.Min(remaining, MaxSlice)
	if cost := m.spec.PM * m.spec.Velocity; cost > 0 {
		span = math.Min(span, m.headroom()/cost)
	}
	p.span = span
	p.arriving = span >= remaining
	p.inFlight = true
	return span, false
}

func (p *MoveProcess) settle() {
	m := p.m
	dist := m.spec.Velocity * p.span
	if p.arriving {
		dist = m.distanceTo(p.dest)
		m.location = p.dest
	} else {
		dir := r2.Unit(r2.Sub(p.dest, m.location))
		m.location = r2.Add(m.location, r2.Scale(dist, dir))
	}
	used := m.spec.PM * m.spec.Velocity * p.span
	m.energy -= used
	p.Travelled += dist
	p.Spent += used
	p.inFlight = false
	m.checkStatus()
}
