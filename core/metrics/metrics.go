package metrics

import (
	"errors"

	"github.com/kilianp07/wrsn/core/events"
)

// MetricsSink records dispatch decisions.
type MetricsSink interface {
	RecordDispatch(ev events.DispatchEvent) error
}

// ChargerStateRecorder records charger snapshots.
type ChargerStateRecorder interface {
	RecordChargerState(ev events.ChargerStateEvent) error
}

// NetworkRecorder records the sensor population.
type NetworkRecorder interface {
	RecordNetwork(ev events.NetworkEvent) error
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) RecordDispatch(events.DispatchEvent) error         { return nil }
func (NopSink) RecordChargerState(events.ChargerStateEvent) error { return nil }
func (NopSink) RecordNetwork(events.NetworkEvent) error           { return nil }

// MultiSink fans out to several sinks. Optional capabilities are forwarded
// only to the sinks that have them.
type MultiSink struct {
	Sinks []MetricsSink
}

func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordDispatch forwards to every sink. A failing sink does not keep the
// event from the others; all failures are joined.
func (m *MultiSink) RecordDispatch(ev events.DispatchEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordDispatch(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordChargerState(ev events.ChargerStateEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(ChargerStateRecorder); ok {
			if err := rec.RecordChargerState(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordNetwork(ev events.NetworkEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(NetworkRecorder); ok {
			if err := rec.RecordNetwork(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close closes the sinks that hold resources.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
