package network

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/kilianp07/wrsn/core/mc"
	"github.com/kilianp07/wrsn/core/sim"
)

type manualClock struct{ t float64 }

func (c *manualClock) Now() float64 { return c.t }

func oneNode(energy, consumption float64) Scenario {
	return Scenario{Nodes: []NodeSpec{{
		ID: "n1", X: 1, Y: 1, Energy: energy, Capacity: 200, Threshold: 10, Consumption: consumption,
	}}}
}

func TestSensorConsumesLazily(t *testing.T) {
	clk := &manualClock{}
	n, err := New(clk, oneNode(100, 1))
	require.NoError(t, err)
	s, _ := n.Sensor("n1")

	clk.t = 10
	assert.InDelta(t, 90.0, s.Energy(), 1e-12)
	assert.True(t, s.Alive())
}

func TestReceivedPowerIsAdditive(t *testing.T) {
	clk := &manualClock{}
	n, err := New(clk, oneNode(100, 1))
	require.NoError(t, err)
	s, _ := n.Sensor("n1")

	assert.Equal(t, 2.0, s.ConnectCharger(mc.Link{ChargerID: "a", Power: 2}))
	assert.Equal(t, 3.0, s.ConnectCharger(mc.Link{ChargerID: "b", Power: 3}))
	assert.InDelta(t, 5.0, s.State().Received, 1e-12)

	clk.t = 1
	s.DisconnectCharger(mc.Link{ChargerID: "a", Power: 2})
	assert.InDelta(t, 104.0, s.Energy(), 1e-12)

	clk.t = 2
	s.DisconnectCharger(mc.Link{ChargerID: "b", Power: 3})
	assert.InDelta(t, 106.0, s.Energy(), 1e-12)
	assert.InDelta(t, 8.0, s.Gained(), 1e-12)
	assert.Zero(t, s.State().Received)
}

func TestSensorEnergyCappedAtCapacity(t *testing.T) {
	clk := &manualClock{}
	n, err := New(clk, oneNode(195, 0))
	require.NoError(t, err)
	s, _ := n.Sensor("n1")
	s.ConnectCharger(mc.Link{ChargerID: "a", Power: 10})
	clk.t = 5
	assert.Equal(t, 200.0, s.Energy())
}

func TestSensorDeathIsPermanent(t *testing.T) {
	clk := &manualClock{}
	n, err := New(clk, oneNode(20, 2))
	require.NoError(t, err)
	s, _ := n.Sensor("n1")

	clk.t = 10
	n.Refresh()
	st := s.State()
	assert.False(t, st.Alive)
	assert.InDelta(t, 5.0, st.DiedAt, 1e-12)
	assert.Equal(t, 10.0, st.Energy)

	assert.Zero(t, s.ConnectCharger(mc.Link{ChargerID: "a", Power: 50}))
	clk.t = 20
	assert.Equal(t, 10.0, s.Energy())
	assert.False(t, s.Alive())
	assert.Zero(t, n.AliveCount())
}

func TestSensorStartingBelowThresholdIsDead(t *testing.T) {
	n, err := New(&manualClock{}, oneNode(5, 0))
	require.NoError(t, err)
	assert.Zero(t, n.AliveCount())
}

func TestNetworkImplementsChargerView(t *testing.T) {
	sc := Scenario{
		BaseStation: Point{X: 50, Y: 50},
		Nodes: []NodeSpec{
			{ID: "b", X: 1, Capacity: 10, Energy: 5},
			{ID: "a", X: 2, Capacity: 10, Energy: 5},
		},
	}
	n, err := New(&manualClock{}, sc)
	require.NoError(t, err)
	var view mc.Network = n
	assert.Equal(t, r2.Vec{X: 50, Y: 50}, view.BaseStation())
	nodes := view.Nodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, r2.Vec{X: 1}, nodes[0].Location())
	assert.Equal(t, "b", n.States()[0].ID)
}

func TestChargerFeedsSensorThroughNetwork(t *testing.T) {
	env := sim.NewEnvironment()
	n, err := New(env, Scenario{Nodes: []NodeSpec{
		{ID: "n1", X: 0, Y: 0, Energy: 50, Capacity: 100, Threshold: 5, Consumption: 0},
	}})
	require.NoError(t, err)

	spec := mc.DefaultSpec()
	spec.Alpha, spec.Beta = 1, 1
	charger, err := mc.New("mc-1", r2.Vec{}, spec)
	require.NoError(t, err)

	env.Spawn(charger.Charge(n, 3), nil)
	require.NoError(t, env.Run(context.Background()))

	s, _ := n.Sensor("n1")
	assert.InDelta(t, 53.0, s.Energy(), 1e-9)
	assert.InDelta(t, spec.Capacity-3, charger.Energy(), 1e-9)
}

func TestDecodeScenario(t *testing.T) {
	yml := `
base_station: {x: 10, y: 20}
field: {width: 100, height: 50}
nodes:
  - {id: n1, x: 1, y: 2, energy: 50, capacity: 100, threshold: 5, consumption: 0.1}
`
	sc, err := DecodeScenario(strings.NewReader(yml), "yaml")
	require.NoError(t, err)
	assert.Equal(t, Point{X: 10, Y: 20}, sc.BaseStation)
	assert.Equal(t, 100.0, sc.Field.Width)
	require.Len(t, sc.Nodes, 1)
	assert.Equal(t, 0.1, sc.Nodes[0].Consumption)

	js := `{"base_station":{"x":1,"y":1},"nodes":[{"id":"a","capacity":10,"energy":3}]}`
	sc, err = DecodeScenario(strings.NewReader(js), "json")
	require.NoError(t, err)
	assert.Equal(t, "a", sc.Nodes[0].ID)

	_, err = DecodeScenario(strings.NewReader(js), "toml")
	assert.Error(t, err)
}

func TestScenarioValidation(t *testing.T) {
	cases := map[string]Scenario{
		"missing id":   {Nodes: []NodeSpec{{Capacity: 1}}},
		"duplicate id": {Nodes: []NodeSpec{{ID: "a", Capacity: 1}, {ID: "a", Capacity: 1}}},
		"threshold":    {Nodes: []NodeSpec{{ID: "a", Capacity: 1, Threshold: 1}}},
		"energy":       {Nodes: []NodeSpec{{ID: "a", Capacity: 1, Energy: 2}}},
		"consumption":  {Nodes: []NodeSpec{{ID: "a", Capacity: 1, Consumption: -1}}},
	}
	for name, sc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.True(t, errors.Is(sc.Validate(), ErrInvalidScenario))
		})
	}
}

func TestLoadScenarioFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "net.yml")
	require.NoError(t, os.WriteFile(path, []byte("nodes:\n  - {id: x, capacity: 5, energy: 5}\n"), 0o600))
	sc, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Len(t, sc.Nodes, 1)

	_, err = LoadScenario(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestGenerateIsReproducible(t *testing.T) {
	cfg := GenerateConfig{Nodes: 20, Seed: 42}
	cfg.SetDefaults()
	a, err := Generate(cfg)
	require.NoError(t, err)
	b, err := Generate(cfg)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a.Nodes, 20)
	assert.Equal(t, Point{X: 50, Y: 50}, a.BaseStation)
	for _, n := range a.Nodes {
		assert.GreaterOrEqual(t, n.X, 0.0)
		assert.LessOrEqual(t, n.X, 100.0)
		assert.GreaterOrEqual(t, n.Energy, 0.5*n.Capacity)
	}

	cfg.Seed = 43
	c, err := Generate(cfg)
	require.NoError(t, err)
	assert.NotEqual(t, a.Nodes, c.Nodes)
}

func TestGenerateRejectsBadBounds(t *testing.T) {
	_, err := Generate(GenerateConfig{Nodes: 1, Width: 0, Height: 1})
	assert.Error(t, err)
	_, err = Generate(GenerateConfig{Nodes: 1, Width: 1, Height: 1, MinLevel: 0.9, MaxLevel: 0.1})
	assert.Error(t, err)
}
