// Package kpi aggregates per-charger performance indicators for a run.
package kpi

import (
	"github.com/kilianp07/wrsn/core/events"
	"github.com/kilianp07/wrsn/core/mc"
	"github.com/kilianp07/wrsn/core/trace"
)

// Record accumulates the cycles of one charger in one run. Adding two
// records for the same key sums their counters.
type Record struct {
	RunID      string `json:"run_id"`
	ChargerID  string `json:"charger_id"`
	Decisions  int    `json:"decisions"`
	Rejections int    `json:"rejections"`
	Depletions int    `json:"depletions"`
	Refills    int    `json:"refills"`
	// EnergySpent is the energy drawn from the charger battery (J).
	EnergySpent float64 `json:"energy_spent"`
	// BusyTime is the virtual time spent on accepted actions (s).
	BusyTime float64 `json:"busy_time"`
}

// RejectionRate is the share of rejected decisions.
func (r Record) RejectionRate() float64 {
	if r.Decisions == 0 {
		return 0
	}
	return float64(r.Rejections) / float64(r.Decisions)
}

// Store persists KPI records.
type Store interface {
	Add(Record) error
	Query(runID string) ([]Record, error)
	Close() error
}

func cycle(runID, chargerID string, accepted, depleted bool, before, after, duration float64) Record {
	r := Record{RunID: runID, ChargerID: chargerID, Decisions: 1}
	if !accepted {
		r.Rejections = 1
	} else {
		r.BusyTime = duration
	}
	if depleted {
		r.Depletions = 1
	}
	switch {
	case after > before:
		r.Refills = 1
	case after < before:
		r.EnergySpent = before - after
	}
	return r
}

// FromDispatch converts one decision cycle.
func FromDispatch(ev events.DispatchEvent) Record {
	return cycle(ev.RunID, ev.ChargerID, ev.Decision.Accepted, ev.Depleted && ev.EnergyBefore > ev.EnergyAfter,
		ev.EnergyBefore, ev.EnergyAfter, ev.Duration)
}

// FromTrace converts a stored cycle. A record counts as a depletion when it
// ends depleted after spending energy.
func FromTrace(rec trace.Record) Record {
	return cycle(rec.RunID, rec.ChargerID, rec.Accepted, rec.Status == mc.Depleted && rec.EnergyBefore > rec.EnergyAfter,
		rec.EnergyBefore, rec.EnergyAfter, rec.Duration)
}
