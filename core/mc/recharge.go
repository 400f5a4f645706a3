package mc

// RechargeProcess refills the charger when it sits at the base station. It
// takes no virtual time but still yields once, like any other process.
type RechargeProcess struct {
	m       *MobileCharger
	net     Network
	yielded bool

	// Refilled reports whether the charger was close enough to refill.
	Refilled bool
}

// Recharge returns the base-station refill process.
func (m *MobileCharger) Recharge(net Network) *RechargeProcess {
	return &RechargeProcess{m: m, net: net}
}

func (p *RechargeProcess) Step(float64) (float64, bool) {
	if p.yielded {
		return 0, true
	}
	p.yielded = true
	m := p.m
	base := p.net.BaseStation()
	if m.distanceTo(base) <= m.spec.Epsilon {
		m.location = base
		m.refill()
		p.Refilled = true
	}
	return 0, false
}
