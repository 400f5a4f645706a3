package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/wrsn/core/events"
	"github.com/kilianp07/wrsn/core/mc"
	coremetrics "github.com/kilianp07/wrsn/core/metrics"
)

// PromSink exposes simulation activity as Prometheus metrics.
type PromSink struct {
	decisions  *prometheus.CounterVec
	depletions *prometheus.CounterVec
	cycle      *prometheus.HistogramVec
	energy     *prometheus.GaugeVec
	status     *prometheus.GaugeVec
	alive      prometheus.Gauge
	spent      *prometheus.CounterVec
}

// NewPromSink registers the metrics on the default registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers the metrics on reg, reusing collectors
// that are already registered there. A nil reg means the default registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	var err error
	s := &PromSink{}
	if s.decisions, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wrsn_dispatch_decisions_total",
		Help: "Decision cycles by charger and outcome of the energy check",
	}, []string{"charger_id", "accepted"})); err != nil {
		return nil, err
	}
	if s.depletions, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wrsn_charger_depletions_total",
		Help: "Decision cycles that ended with the charger depleted",
	}, []string{"charger_id"})); err != nil {
		return nil, err
	}
	if s.cycle, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wrsn_dispatch_cycle_sim_seconds",
		Help:    "Virtual duration of a decision cycle",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"charger_id"})); err != nil {
		return nil, err
	}
	if s.spent, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wrsn_charger_energy_spent_joules_total",
		Help: "Energy drawn from the charger battery",
	}, []string{"charger_id"})); err != nil {
		return nil, err
	}
	if s.energy, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "wrsn_charger_energy_joules",
		Help: "Charger battery energy",
	}, []string{"charger_id"})); err != nil {
		return nil, err
	}
	if s.status, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "wrsn_charger_active",
		Help: "1 when the charger is active, 0 when depleted",
	}, []string{"charger_id"})); err != nil {
		return nil, err
	}
	if s.alive, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "wrsn_sensors_alive",
		Help: "Sensors still alive",
	})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (s *PromSink) RecordDispatch(ev events.DispatchEvent) error {
	s.decisions.WithLabelValues(ev.ChargerID, strconv.FormatBool(ev.Decision.Accepted)).Inc()
	if ev.Depleted {
		s.depletions.WithLabelValues(ev.ChargerID).Inc()
	}
	s.cycle.WithLabelValues(ev.ChargerID).Observe(ev.Duration)
	// A refill makes the difference negative.
	if spent := ev.EnergyBefore - ev.EnergyAfter; spent > 0 {
		s.spent.WithLabelValues(ev.ChargerID).Add(spent)
	}
	return nil
}

func (s *PromSink) RecordChargerState(ev events.ChargerStateEvent) error {
	s.energy.WithLabelValues(ev.State.ID).Set(ev.State.Energy)
	active := 0.0
	if ev.State.Status == mc.Active {
		active = 1
	}
	s.status.WithLabelValues(ev.State.ID).Set(active)
	return nil
}

func (s *PromSink) RecordNetwork(ev events.NetworkEvent) error {
	s.alive.Set(float64(ev.Alive))
	return nil
}

var (
	_ coremetrics.MetricsSink          = (*PromSink)(nil)
	_ coremetrics.ChargerStateRecorder = (*PromSink)(nil)
	_ coremetrics.NetworkRecorder      = (*PromSink)(nil)
)
