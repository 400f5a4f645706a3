package mc

import "gonum.org/v1/gonum/spatial/r2"

// Link describes one charger-to-node energy transfer during a charging slice.
type Link struct {
	ChargerID string
	// Power offered to the node given its distance to the charger.
	Power float64
}

// Node is the part of a sensor node the charger interacts with.
type Node interface {
	Location() r2.Vec
	Alive() bool
	// ConnectCharger starts a transfer and returns the power the node
	// actually draws. Dead nodes draw nothing.
	ConnectCharger(l Link) float64
	DisconnectCharger(l Link)
}

// Network exposes the sensor nodes and the base station.
type Network interface {
	Nodes() []Node
	BaseStation() r2.Vec
}
