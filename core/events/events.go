// Package events defines what the episode runner publishes on the event bus.
//
//   - DispatchEvent: one per completed decision cycle
//   - ChargerStateEvent: charger state after a cycle
//   - NetworkEvent: sensor population after a cycle
package events

import (
	"time"

	"github.com/kilianp07/wrsn/core/mc"
)

// DispatchEvent describes how a requested action was handled.
type DispatchEvent struct {
	RunID     string
	ChargerID string
	SimTime   float64
	// Virtual time the cycle took.
	Duration     float64
	Decision     mc.Decision
	EnergyBefore float64
	EnergyAfter  float64
	Depleted     bool
	Timestamp    time.Time
}

// ChargerStateEvent carries a charger snapshot.
type ChargerStateEvent struct {
	RunID     string
	SimTime   float64
	State     mc.Snapshot
	Timestamp time.Time
}

// NetworkEvent reports the sensor population.
type NetworkEvent struct {
	RunID     string
	SimTime   float64
	Alive     int
	Total     int
	Timestamp time.Time
}
