package episode

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/wrsn/core/events"
	"github.com/kilianp07/wrsn/core/mc"
	"github.com/kilianp07/wrsn/core/network"
	"github.com/kilianp07/wrsn/core/policy"
	"github.com/kilianp07/wrsn/core/trace"
	"github.com/kilianp07/wrsn/internal/eventbus"
)

func testSpec() mc.Spec {
	return mc.Spec{
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

func oneSensor(energy, consumption float64) network.Scenario {
	return network.Scenario{
		Field: network.Field{Width: 20, Height: 20},
		Nodes: []network.NodeSpec{{
			ID: "s1", X: 10, Y: 0, Energy: energy, Capacity: 100, Threshold: 1, Consumption: consumption,
		}},
	}
}

// scripted replays actions in order, then keeps sending the charger home.
func scripted(actions ...mc.Action) policy.Policy {
	i := 0
	return policy.Func(func(o policy.Observation) mc.Action {
		if i < len(actions) {
			i++
			return actions[i-1]
		}
		return mc.Action{X: o.Base.X, Y: o.Base.Y}
	})
}

func drain(ch <-chan any) []any {
	var out []any
	for {
		select {
		case ev := <-ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestRunChargesThenIdlesUntilDuration(t *testing.T) {
	r, err := NewRunner(oneSensor(50, 0), Fleet{IDs: []string{"mc-1"}, Spec: testSpec()},
		scripted(mc.Action{X: 10, Y: 0, ChargingTime: 5}),
		Options{RunID: "run-1", Duration: 100, IdleWait: 10}, nil)
	require.NoError(t, err)
	bus := eventbus.New[any]()
	sub := bus.SubscribeBuffered(1024)
	store := trace.NewMemoryStore()
	r.SetBus(bus)
	r.SetTraceStore(store)

	sum, err := r.Run(context.Background())
	require.NoError(t, err)

	// charge cycle ends at t=15, the trip home at t=25, then idle cycles
	// at 25, 35, ..., 95
	assert.Equal(t, "run-1", sum.RunID)
	assert.Equal(t, StopDuration, sum.Reason)
	assert.Equal(t, 100.0, sum.EndTime)
	assert.Equal(t, 10, sum.Decisions)
	assert.Zero(t, sum.Rejections)
	assert.Equal(t, 1, sum.Alive)

	m := r.Chargers()[0]
	assert.InDelta(t, 75, m.Energy(), 1e-9)
	s, ok := r.Network().Sensor("s1")
	require.True(t, ok)
	assert.InDelta(t, 55, s.Energy(), 1e-9)

	recs, err := store.Query(context.Background(), trace.Query{RunID: "run-1"})
	require.NoError(t, err)
	require.Len(t, recs, 10)
	assert.True(t, recs[0].Accepted)
	assert.Equal(t, 15.0, recs[0].SimTime)
	assert.Equal(t, 15.0, recs[0].Duration)
	assert.Equal(t, 100.0, recs[0].EnergyBefore)
	assert.InDelta(t, 85, recs[0].EnergyAfter, 1e-9)
	assert.Equal(t, 25.0, recs[1].SimTime)

	evs := drain(sub)
	require.Len(t, evs, 30)
	// State goes out before the decision so status readers never see a
	// charger without a snapshot.
	st, ok := evs[0].(events.ChargerStateEvent)
	require.True(t, ok)
	assert.Equal(t, 10.0, st.State.X)
	d, ok := evs[1].(events.DispatchEvent)
	require.True(t, ok)
	assert.Equal(t, "mc-1", d.ChargerID)
	assert.True(t, d.Decision.Accepted)
	nev, ok := evs[2].(events.NetworkEvent)
	require.True(t, ok)
	assert.Equal(t, 1, nev.Alive)
}

func TestRunRejectedActionRechargesAtBase(t *testing.T) {
	r, err := NewRunner(oneSensor(50, 0), Fleet{IDs: []string{"mc-1"}, Spec: testSpec()},
		scripted(mc.Action{X: 50, Y: 0}),
		Options{Duration: 100, IdleWait: 10, MaxDecisions: 1}, nil)
	require.NoError(t, err)

	sum, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, StopMaxDecisions, sum.Reason)
	assert.Equal(t, 1, sum.Decisions)
	assert.Equal(t, 1, sum.Rejections)
	assert.Zero(t, sum.EndTime)
	assert.Equal(t, 100.0, r.Chargers()[0].Energy())
}

func TestRunStopsWhenNetworkDies(t *testing.T) {
	r, err := NewRunner(oneSensor(2, 1), Fleet{IDs: []string{"mc-1"}, Spec: testSpec()},
		scripted(), Options{Duration: 100, IdleWait: 10}, nil)
	require.NoError(t, err)

	sum, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopNetworkDead, sum.Reason)
	assert.Equal(t, 10.0, sum.EndTime)
	assert.Equal(t, 2, sum.Decisions)
	assert.Zero(t, sum.Alive)
}

func TestRunStrandsDepletedChargerAwayFromBase(t *testing.T) {
	spec := testSpec()
	spec.Alpha = 100
	r, err := NewRunner(oneSensor(50, 0), Fleet{IDs: []string{"mc-1"}, Spec: spec},
		scripted(mc.Action{X: 10, Y: 0, ChargingTime: 5}),
		Options{Duration: 100, IdleWait: 10}, nil)
	require.NoError(t, err)

	sum, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopIdle, sum.Reason)
	assert.InDelta(t, 10.8, sum.EndTime, 1e-9)
	assert.Equal(t, 2, sum.Decisions)
	assert.Equal(t, 1, sum.Rejections)
	assert.Equal(t, 1, sum.Depletions)
	assert.Equal(t, 1, sum.Stranded)

	m := r.Chargers()[0]
	assert.Equal(t, mc.Depleted, m.Status())
	assert.Equal(t, 10.0, m.Energy())
	assert.Equal(t, 10.0, m.Location().X)
}

func TestRunRefillsChargerDepletedAtBase(t *testing.T) {
	// Out to (45,0) and back spends exactly the 90 J above the threshold.
	r, err := NewRunner(oneSensor(50, 0), Fleet{IDs: []string{"mc-1"}, Spec: testSpec()},
		scripted(mc.Action{X: 45, Y: 0}),
		Options{Duration: 120, IdleWait: 10}, nil)
	require.NoError(t, err)

	sum, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopDuration, sum.Reason)
	assert.Equal(t, 1, sum.Depletions)
	assert.Zero(t, sum.Stranded)

	m := r.Chargers()[0]
	assert.Equal(t, mc.Active, m.Status())
	assert.Equal(t, 100.0, m.Energy())
	assert.Equal(t, 0.0, m.Location().X)
}

func TestRunFailsOnMalformedAction(t *testing.T) {
	r, err := NewRunner(oneSensor(50, 0), Fleet{IDs: []string{"mc-1"}, Spec: testSpec()},
		scripted(mc.Action{X: math.NaN()}), Options{Duration: 100, IdleWait: 10}, nil)
	require.NoError(t, err)

	sum, err := r.Run(context.Background())
	assert.ErrorIs(t, err, mc.ErrInvalidAction)
	assert.Equal(t, StopError, sum.Reason)
	assert.Zero(t, sum.Decisions)
}

func TestRunHonoursCancelledContext(t *testing.T) {
	r, err := NewRunner(oneSensor(50, 0), Fleet{IDs: []string{"mc-1"}, Spec: testSpec()},
		scripted(), Options{Duration: 100, IdleWait: 10}, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := r.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, StopCanceled, sum.Reason)
}

func TestObserveMarksSensorsClaimedByOtherChargers(t *testing.T) {
	var seen []map[string]bool
	target := mc.Action{X: 10, Y: 0, ChargingTime: 5}
	pol := policy.Func(func(o policy.Observation) mc.Action {
		seen = append(seen, o.Claimed)
		if o.Charger.ID == "mc-1" && len(seen) == 1 {
			return target
		}
		return mc.Action{X: o.Base.X, Y: o.Base.Y}
	})
	r, err := NewRunner(oneSensor(50, 0), Fleet{IDs: []string{"mc-1", "mc-2"}, Spec: testSpec()},
		pol, Options{Duration: 1, IdleWait: 10}, nil)
	require.NoError(t, err)

	_, err = r.Run(context.Background())
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(seen), 2)
	assert.Empty(t, seen[0])
	assert.True(t, seen[1]["s1"])
}

func TestNewRunnerValidation(t *testing.T) {
	sc := oneSensor(50, 0)
	fleet := Fleet{IDs: []string{"mc-1"}, Spec: testSpec()}
	opts := Options{Duration: 10, IdleWait: 1}

	_, err := NewRunner(sc, fleet, nil, opts, nil)
	assert.Error(t, err)
	_, err = NewRunner(sc, Fleet{Spec: testSpec()}, scripted(), opts, nil)
	assert.Error(t, err)
	_, err = NewRunner(sc, Fleet{IDs: []string{"a", "a"}, Spec: testSpec()}, scripted(), opts, nil)
	assert.Error(t, err)
	_, err = NewRunner(sc, Fleet{IDs: []string{"a"}}, scripted(), opts, nil)
	assert.ErrorIs(t, err, mc.ErrInvalidSpec)
	_, err = NewRunner(sc, fleet, scripted(), Options{IdleWait: 1}, nil)
	assert.Error(t, err)
}
