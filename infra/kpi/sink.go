package kpi

import (
	"github.com/kilianp07/wrsn/core/events"
	core "github.com/kilianp07/wrsn/core/kpi"
)

// Sink is a metrics sink that accumulates every dispatch into a KPI store.
type Sink struct {
	Store core.Store
}

func (s Sink) RecordDispatch(ev events.DispatchEvent) error {
	return s.Store.Add(core.FromDispatch(ev))
}
