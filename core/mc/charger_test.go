package mc

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestNewChargerStartsFullAndActive(t *testing.T) {
	m, err := New("mc-1", r2.Vec{X: 3, Y: 4}, smallSpec())
	require.NoError(t, err)
	assert.Equal(t, 100.0, m.Energy())
	assert.Equal(t, Active, m.Status())
	assert.Equal(t, Moving, m.ActionType())
	assert.Zero(t, m.ChargingRate())
}

func TestSpecValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Spec)
	}{
		{"capacity", func(s *Spec) { s.Capacity = 0 }},
		{"threshold above capacity", func(s *Spec) { s.Threshold = 100 }},
		{"negative threshold", func(s *Spec) { s.Threshold = -1 }},
		{"velocity", func(s *Spec) { s.Velocity = 0 }},
		{"pm", func(s *Spec) { s.PM = -1 }},
		{"beta", func(s *Spec) { s.Beta = 0 }},
		{"alpha", func(s *Spec) { s.Alpha = -2 }},
		{"range", func(s *Spec) { s.ChargingRange = -1 }},
		{"epsilon", func(s *Spec) { s.Epsilon = -1 }},
		{"nan", func(s *Spec) { s.Alpha = math.NaN() }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := smallSpec()
			c.mutate(&s)
			_, err := New("mc", r2.Vec{}, s)
			assert.True(t, errors.Is(err, ErrInvalidSpec), "got %v", err)
		})
	}
	assert.NoError(t, DefaultSpec().Validate())
}

func TestNewRejectsNonFiniteLocation(t *testing.T) {
	_, err := New("mc", r2.Vec{X: math.Inf(1)}, smallSpec())
	assert.Error(t, err)
}

func TestCheckStatusClampsAndLatches(t *testing.T) {
	m, err := New("mc", r2.Vec{}, smallSpec())
	require.NoError(t, err)
	m.energy = 9.5
	m.checkStatus()
	assert.Equal(t, 10.0, m.Energy())
	assert.Equal(t, Depleted, m.Status())

	// More energy alone does not revive the charger.
	m.energy = 50
	m.checkStatus()
	assert.Equal(t, Depleted, m.Status())
}

func TestStatusText(t *testing.T) {
	b, err := Active.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "active", string(b))
	var s Status
	require.NoError(t, s.UnmarshalText([]byte("depleted")))
	assert.Equal(t, Depleted, s)
	assert.Error(t, s.UnmarshalText([]byte("sleeping")))
}

func TestSnapshotReflectsState(t *testing.T) {
	m, err := New("mc-7", r2.Vec{X: 1, Y: 2}, smallSpec())
	require.NoError(t, err)
	s := m.Snapshot()
	assert.Equal(t, "mc-7", s.ID)
	assert.Equal(t, 1.0, s.X)
	assert.Equal(t, 2.0, s.Y)
	assert.Equal(t, 100.0, s.Capacity)
	assert.Equal(t, Active, s.Status)
}

func TestLinkPower(t *testing.T) {
	s := smallSpec()
	assert.InDelta(t, 1.0, s.LinkPower(0), 1e-12)
	assert.InDelta(t, 0.25, s.LinkPower(1), 1e-12)
}
