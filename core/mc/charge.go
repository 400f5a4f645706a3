package mc

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// ChargeProcess transfers energy from the parked charger to every node that
// was within range when charging started.
type ChargeProcess struct {
	m         *MobileCharger
	nodes     []Node
	links     []Link
	remaining float64

	span     float64
	inFlight bool

	// Debited is the energy the charger spent; Elapsed the virtual time
	// spent charging.
	Debited float64
	Elapsed float64
}

// Charge snapshots the nodes within charging range of the current location
// and returns a process that charges them for chargingTime. The set of
// nodes is not re-scanned while charging.
func (m *MobileCharger) Charge(net Network, chargingTime float64) *ChargeProcess {
	p := &ChargeProcess{m: m, remaining: chargingTime}
	for _, n := range net.Nodes() {
		d := m.distanceTo(n.Location())
		if d <= m.spec.ChargingRange {
			p.nodes = append(p.nodes, n)
			p.links = append(p.links, Link{ChargerID: m.id, Power: m.spec.LinkPower(d)})
		}
	}
	return p
}

// InRange returns the number of nodes captured by the snapshot.
func (p *ChargeProcess) InRange() int { return len(p.nodes) }

// Step settles the slice in flight, then connects the nodes and sizes the
// next slice from the resulting charging rate.
func (p *ChargeProcess) Step(float64) (float64, bool) {
	m := p.m
	if p.inFlight {
		p.settle()
	}
	if p.remaining <= 0 || m.status == Depleted {
		return 0, true
	}
	drawn := make([]float64, len(p.nodes))
	for i, n := range p.nodes {
		drawn[i] = n.ConnectCharger(p.links[i])
	}
	m.chargingRate = floats.Sum(drawn)

	span := math.Min(p.remaining, MaxSlice)
	if m.chargingRate > 0 {
		span = math.Min(span, m.headroom()/m.chargingRate)
	}
	p.span = span
	p.inFlight = true
	return span, false
}

func (p *ChargeProcess) settle() {
	m := p.m
	used := m.chargingRate * p.span
	m.energy -= used
	m.action.ChargingTime = math.Max(0, m.action.ChargingTime-p.span)
	for i, n := range p.nodes {
		n.DisconnectCharger(p.links[i])
	}
	m.chargingRate = 0
	m.checkStatus()
	p.remaining -= p.span
	p.Debited += used
	p.Elapsed += p.span
	p.inFlight = false
}
