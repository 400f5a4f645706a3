package mc

import (
	"github.com/kilianp07/wrsn/core/sim"
)

// Estimate is the energy budget check made before an action is accepted.
type Estimate struct {
	Travel   float64 `json:"travel"`
	Charging float64 `json:"charging"`
	Return   float64 `json:"return"`
	Total    float64 `json:"total"`
	Budget   float64 `json:"budget"`
	Feasible bool    `json:"feasible"`
}

// Decision records how the last action was handled.
type Decision struct {
	Requested Action   `json:"requested"`
	Executed  Action   `json:"executed"`
	Estimate  Estimate `json:"estimate"`
	Accepted  bool     `json:"accepted"`
}

// EstimateEnergy prices an action: travel to the destination, charging for
// the requested time, and the trip from the destination back to the base
// station. The charging term uses the alive nodes in range of the current
// location, not of the destination. The budget keeps a margin of 0.5% of
// capacity above the headroom.
func (m *MobileCharger) EstimateEnergy(net Network, a Action) Estimate {
	dest := a.Destination()
	base := net.BaseStation()
	var rate float64
	for _, n := range net.Nodes() {
		d := m.distanceTo(n.Location())
		if d <= m.spec.ChargingRange && n.Alive() {
			rate += m.spec.LinkPower(d)
		}
	}
	e := Estimate{
		Travel:   m.spec.PM * m.distanceTo(dest),
		Charging: rate * a.ChargingTime,
		Return:   m.spec.PM * distance(dest, base),
		Budget:   m.headroom() + m.spec.Capacity/200.0,
	}
	e.Total = e.Travel + e.Charging + e.Return
	e.Feasible = e.Total <= e.Budget
	return e
}

// Operate decides how to carry out a and returns the process doing it. It
// must be called when the decision cycle starts. An action that does not fit
// the energy budget is replaced by a return to the base station followed by
// a refill; otherwise the charger moves to the destination and charges.
func (m *MobileCharger) Operate(net Network, a Action) (sim.Process, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	est := m.EstimateEnergy(net, a)
	m.actionType = Moving
	if !est.Feasible {
		base := net.BaseStation()
		m.action = Action{X: base.X, Y: base.Y}
		m.last = Decision{Requested: a, Executed: m.action, Estimate: est}
		return sim.NewSequence(
			func() sim.Process { return m.Move(base) },
			func() sim.Process { return m.Recharge(net) },
		), nil
	}
	m.action = a
	m.last = Decision{Requested: a, Executed: a, Estimate: est, Accepted: true}
	return sim.NewSequence(func() sim.Process { return m.Move(a.Destination()) }).
		Do(func() { m.actionType = Charging }).
		Then(func() sim.Process { return m.Charge(net, a.ChargingTime) }), nil
}
