// Package episode runs chargers against a sensor network on a shared virtual
// clock until the episode ends.
package episode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/kilianp07/wrsn/core/events"
	"github.com/kilianp07/wrsn/core/logger"
	"github.com/kilianp07/wrsn/core/mc"
	"github.com/kilianp07/wrsn/core/monitoring"
	"github.com/kilianp07/wrsn/core/network"
	"github.com/kilianp07/wrsn/core/policy"
	"github.com/kilianp07/wrsn/core/sim"
	"github.com/kilianp07/wrsn/core/trace"
	"github.com/kilianp07/wrsn/internal/eventbus"
)

// Stop reasons reported in Summary.
const (
	StopDuration     = "duration"
	StopNetworkDead  = "network_dead"
	StopMaxDecisions = "max_decisions"
	StopIdle         = "idle"
	StopError        = "error"
	StopCanceled     = "canceled"
)

// Options bounds an episode. Times are virtual seconds.
type Options struct {
	RunID        string
	Duration     float64
	IdleWait     float64
	MaxDecisions int
	// Pace is a wall-clock pause after every cycle so that live consumers
	// of the event bus keep up. Zero runs as fast as possible.
	Pace time.Duration
}

// Fleet describes the chargers to create at the base station.
type Fleet struct {
	IDs  []string
	Spec mc.Spec
}

// Summary is returned once the episode is over.
type Summary struct {
	RunID      string  `json:"run_id"`
	EndTime    float64 `json:"end_time"`
	Reason     string  `json:"reason"`
	Decisions  int     `json:"decisions"`
	Rejections int     `json:"rejections"`
	Depletions int     `json:"depletions"`
	Stranded   int     `json:"stranded"`
	Alive      int     `json:"alive"`
	Total      int     `json:"total"`
}

// Runner plays one episode. It is not safe for concurrent use.
type Runner struct {
	env      *sim.Environment
	net      *network.Network
	chargers []*mc.MobileCharger
	agents   []*agent
	policy   policy.Policy
	opts     Options
	log      logger.Logger
	bus      *eventbus.Bus[any]
	store    trace.Store

	ctx     context.Context
	summary Summary
	halted  bool
	haltAt  float64
	err     error
}

// NewRunner builds the environment, the network and the fleet. Every charger
// starts fully charged at the base station.
func NewRunner(sc network.Scenario, fleet Fleet, pol policy.Policy, opts Options, log logger.Logger) (*Runner, error) {
	if pol == nil {
		return nil, fmt.Errorf("episode: nil policy")
	}
	if len(fleet.IDs) == 0 {
		return nil, fmt.Errorf("episode: empty fleet")
	}
	if opts.Duration <= 0 || opts.IdleWait <= 0 {
		return nil, fmt.Errorf("episode: duration and idle wait must be positive")
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	env := sim.NewEnvironment()
	net, err := network.New(env, sc)
	if err != nil {
		return nil, err
	}
	r := &Runner{
		env:    env,
		net:    net,
		policy: pol,
		opts:   opts,
		log:    logger.OrNop(log),
	}
	seen := make(map[string]bool, len(fleet.IDs))
	for _, id := range fleet.IDs {
		if seen[id] {
			return nil, fmt.Errorf("episode: duplicate charger id %s", id)
		}
		seen[id] = true
		m, err := mc.New(id, net.BaseStation(), fleet.Spec)
		if err != nil {
			return nil, fmt.Errorf("episode: charger %s: %w", id, err)
		}
		r.chargers = append(r.chargers, m)
		r.agents = append(r.agents, &agent{r: r, mc: m})
	}
	r.summary = Summary{RunID: opts.RunID, Total: len(sc.Nodes)}
	return r, nil
}

// SetBus configures where cycle events are published.
func (r *Runner) SetBus(bus *eventbus.Bus[any]) { r.bus = bus }

// SetTraceStore configures the store receiving one record per cycle.
func (r *Runner) SetTraceStore(store trace.Store) { r.store = store }

// RunID returns the identifier stamped on every event and record.
func (r *Runner) RunID() string { return r.opts.RunID }

// Environment returns the shared virtual clock.
func (r *Runner) Environment() *sim.Environment { return r.env }

// Network returns the sensor network.
func (r *Runner) Network() *network.Network { return r.net }

// Chargers returns the fleet in configuration order.
func (r *Runner) Chargers() []*mc.MobileCharger { return r.chargers }

// Run plays the episode. A context cancellation ends it early and is
// returned together with the partial summary.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	r.log.Infof("episode %s: %d chargers, %d sensors, duration %.0fs", r.opts.RunID, len(r.agents), r.summary.Total, r.opts.Duration)
	r.ctx = ctx
	for _, a := range r.agents {
		r.env.Spawn(a, nil)
	}
	err := r.drive(ctx)
	switch {
	case r.halted:
		r.summary.EndTime = r.haltAt
	case r.env.Now() >= r.opts.Duration:
		r.summary.EndTime = r.opts.Duration
		r.summary.Reason = StopDuration
	default:
		r.summary.EndTime = r.env.Now()
		r.summary.Reason = StopError
		if ctx.Err() != nil {
			r.summary.Reason = StopCanceled
		}
	}
	r.summary.Alive = r.net.AliveCount()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		r.log.Warnf("episode %s interrupted at t=%.1f", r.opts.RunID, r.env.Now())
	} else if err != nil {
		monitoring.CaptureException(err, map[string]string{"run_id": r.opts.RunID})
		r.log.Errorf("episode %s failed: %v", r.opts.RunID, err)
	}
	r.log.Infof("episode %s ended at t=%.1f (%s): %d decisions, %d rejections, %d/%d sensors alive",
		r.opts.RunID, r.summary.EndTime, r.summary.Reason, r.summary.Decisions, r.summary.Rejections, r.summary.Alive, r.summary.Total)
	return r.summary, err
}

// drive steps the environment until the episode halts or the next
// resumption falls past the duration.
func (r *Runner) drive(ctx context.Context) error {
	for !r.halted {
		if err := ctx.Err(); err != nil {
			return err
		}
		at, ok := r.env.Peek()
		if !ok {
			// Every charger is stranded.
			r.halt(r.env.Now(), StopIdle)
			return nil
		}
		if at > r.opts.Duration {
			return r.env.RunUntil(ctx, r.opts.Duration)
		}
		if _, err := r.env.Step(); err != nil {
			return err
		}
	}
	return r.err
}

func (r *Runner) halt(now float64, reason string) {
	if r.halted {
		return
	}
	r.halted = true
	r.haltAt = now
	r.summary.Reason = reason
}

func (r *Runner) fail(now float64, err error) {
	if r.err == nil {
		r.err = err
	}
	r.halt(now, StopError)
}

// observe builds the policy input for m. Sensors another charger is
// currently travelling to or charging are marked as claimed.
func (r *Runner) observe(now float64, m *mc.MobileCharger) policy.Observation {
	o := policy.Observation{
		Now:     now,
		Charger: m.Snapshot(),
		Spec:    m.Spec(),
		Base:    network.Point{X: r.net.BaseStation().X, Y: r.net.BaseStation().Y},
		Field:   r.net.Field(),
		Sensors: r.net.States(),
		Claimed: map[string]bool{},
	}
	for _, other := range r.agents {
		if other.mc == m || other.cur == nil || !other.mc.LastDecision().Accepted {
			continue
		}
		dest := other.mc.CurrentAction().Destination()
		for _, s := range o.Sensors {
			if r2.Norm(r2.Sub(dest, r2.Vec{X: s.X, Y: s.Y})) <= m.Spec().Epsilon {
				o.Claimed[s.ID] = true
			}
		}
	}
	return o
}

// complete books a finished cycle: counters, events and the trace record.
func (r *Runner) complete(a *agent, now float64) {
	m := a.mc
	dec := m.LastDecision()
	depleted := m.Status() == mc.Depleted
	r.summary.Decisions++
	if !dec.Accepted {
		r.summary.Rejections++
	}
	if depleted && !a.wasDepleted {
		r.summary.Depletions++
		r.log.Warnf("charger %s depleted at t=%.1f (%.1f, %.1f)", m.ID(), now, m.Location().X, m.Location().Y)
	}
	r.log.Debugw("cycle complete", map[string]any{
		"charger_id": m.ID(),
		"sim_time":   now,
		"duration":   now - a.start,
		"accepted":   dec.Accepted,
		"energy":     m.Energy(),
	})

	ts := time.Now().UTC()
	snap := m.Snapshot()
	if r.bus != nil {
		r.bus.Publish(events.ChargerStateEvent{RunID: r.opts.RunID, SimTime: now, State: snap, Timestamp: ts})
		r.bus.Publish(events.DispatchEvent{
			RunID:        r.opts.RunID,
			ChargerID:    m.ID(),
			SimTime:      now,
			Duration:     now - a.start,
			Decision:     dec,
			EnergyBefore: a.before,
			EnergyAfter:  m.Energy(),
			Depleted:     depleted,
			Timestamp:    ts,
		})
	}
	alive := r.net.AliveCount()
	if r.bus != nil {
		r.bus.Publish(events.NetworkEvent{RunID: r.opts.RunID, SimTime: now, Alive: alive, Total: r.summary.Total, Timestamp: ts})
	}
	if r.store != nil {
		rec := trace.Record{
			RunID:        r.opts.RunID,
			Timestamp:    ts,
			SimTime:      now,
			Duration:     now - a.start,
			ChargerID:    m.ID(),
			Requested:    dec.Requested,
			Executed:     dec.Executed,
			Accepted:     dec.Accepted,
			Estimate:     dec.Estimate,
			EnergyBefore: a.before,
			EnergyAfter:  m.Energy(),
			X:            snap.X,
			Y:            snap.Y,
			Status:       snap.Status,
		}
		if err := r.store.Append(context.Background(), rec); err != nil {
			r.log.Warnf("trace append failed: %v", err)
			monitoring.CaptureException(err, map[string]string{"run_id": r.opts.RunID, "charger_id": m.ID()})
		}
	}

	if r.opts.Pace > 0 {
		select {
		case <-r.ctx.Done():
		case <-time.After(r.opts.Pace):
		}
	}

	switch {
	case alive == 0 && r.summary.Total > 0:
		r.halt(now, StopNetworkDead)
	case r.opts.MaxDecisions > 0 && r.summary.Decisions >= r.opts.MaxDecisions:
		r.halt(now, StopMaxDecisions)
	}
}
