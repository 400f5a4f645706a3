package mc

// energyTolerance absorbs floating point residue when a slice was sized to
// consume exactly the remaining headroom.
const energyTolerance = 1e-9

// checkStatus latches the charger into Depleted once its energy reaches the
// threshold, clamping the energy to the threshold. It never sets Active.
func (m *MobileCharger) checkStatus() {
	if m.energy-m.spec.Threshold <= energyTolerance {
		m.energy = m.spec.Threshold
		m.status = Depleted
	}
}

// headroom is the energy left above the safety threshold.
func (m *MobileCharger) headroom() float64 {
	return m.energy - m.spec.Threshold
}

// refill restores the battery and the Active status. It is the only
// transition out of Depleted.
func (m *MobileCharger) refill() {
	m.energy = m.spec.Capacity
	m.status = Active
}
