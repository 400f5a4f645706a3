package mc

import "gonum.org/v1/gonum/spatial/r2"

type fakeNode struct {
	loc         r2.Vec
	dead        bool
	connects    int
	disconnects int
	drawn       float64
	active      map[string]float64
}

func newFakeNode(x, y float64) *fakeNode {
	return &fakeNode{loc: r2.Vec{X: x, Y: y}, active: map[string]float64{}}
}

func (n *fakeNode) Location() r2.Vec { return n.loc }
func (n *fakeNode) Alive() bool      { return !n.dead }

func (n *fakeNode) ConnectCharger(l Link) float64 {
	n.connects++
	if n.dead {
		return 0
	}
	n.active[l.ChargerID] = l.Power
	return l.Power
}

func (n *fakeNode) DisconnectCharger(l Link) {
	n.disconnects++
	delete(n.active, l.ChargerID)
}

type fakeNetwork struct {
	base  r2.Vec
	nodes []*fakeNode
}

func (f *fakeNetwork) Nodes() []Node {
	out := make([]Node, len(f.nodes))
	for i, n := range f.nodes {
		out[i] = n
	}
	return out
}

func (f *fakeNetwork) BaseStation() r2.Vec { return f.base }

// smallSpec is the charger used throughout the examples: capacity 100,
// threshold 10, unit velocity and movement cost.
func smallSpec() Spec {
	return Spec{
		Capacity:      100,
		Threshold:     10,
		Alpha:         1,
		Beta:          1,
		Velocity:      1,
		PM:            1,
		ChargingRange: 5,
		Epsilon:       0.5,
	}
}
