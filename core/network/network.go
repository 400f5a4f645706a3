package network

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/kilianp07/wrsn/core/mc"
)

// Network is the ordered set of sensors plus the base station.
type Network struct {
	base    r2.Vec
	field   Field
	sensors []*Sensor
	byID    map[string]*Sensor
}

// New builds a network from a validated scenario.
func New(clock Clock, sc Scenario) (*Network, error) {
	if clock == nil {
		return nil, fmt.Errorf("network: nil clock")
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	n := &Network{
		base:  r2.Vec{X: sc.BaseStation.X, Y: sc.BaseStation.Y},
		field: sc.Field,
		byID:  make(map[string]*Sensor, len(sc.Nodes)),
	}
	for _, spec := range sc.Nodes {
		s := newSensor(spec, clock)
		n.sensors = append(n.sensors, s)
		n.byID[s.id] = s
	}
	return n, nil
}

// Nodes implements mc.Network. The order matches the scenario.
func (n *Network) Nodes() []mc.Node {
	out := make([]mc.Node, len(n.sensors))
	for i, s := range n.sensors {
		out[i] = s
	}
	return out
}

// BaseStation implements mc.Network.
func (n *Network) BaseStation() r2.Vec { return n.base }

func (n *Network) Field() Field       { return n.field }
func (n *Network) Sensors() []*Sensor { return n.sensors }
func (n *Network) Sensor(id string) (*Sensor, bool) {
	s, ok := n.byID[id]
	return s, ok
}

// Refresh integrates every sensor up to the current virtual time.
func (n *Network) Refresh() {
	for _, s := range n.sensors {
		s.Refresh()
	}
}

// States returns a snapshot of every sensor.
func (n *Network) States() []SensorState {
	out := make([]SensorState, len(n.sensors))
	for i, s := range n.sensors {
		out[i] = s.State()
	}
	return out
}

// AliveCount refreshes the sensors and counts the living ones.
func (n *Network) AliveCount() int {
	var alive int
	for _, s := range n.sensors {
		s.Refresh()
		if s.Alive() {
			alive++
		}
	}
	return alive
}
