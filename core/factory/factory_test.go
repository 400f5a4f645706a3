package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct{ Rate float64 }

type sampleConf struct {
	Rate float64 `json:"rate"`
}

func newSample(conf map[string]any) (*sample, error) {
	var c sampleConf
	if err := Decode(conf, &c); err != nil {
		return nil, err
	}
	return &sample{Rate: c.Rate}, nil
}

func TestRegistryCreate(t *testing.T) {
	reg := NewRegistry[*sample]()
	require.NoError(t, reg.Register("s", newSample))

	inst, err := reg.Create(ModuleConfig{Type: "s", Conf: map[string]any{"rate": 2.5}})
	require.NoError(t, err)
	assert.Equal(t, 2.5, inst.Rate)
}

func TestDecodeAcceptsStringNumbers(t *testing.T) {
	var c sampleConf
	require.NoError(t, Decode(map[string]any{"rate": "0.75"}, &c))
	assert.Equal(t, 0.75, c.Rate)
}

func TestRegistryErrors(t *testing.T) {
	reg := NewRegistry[int]()
	require.NoError(t, reg.Register("x", func(map[string]any) (int, error) { return 1, nil }))
	assert.Error(t, reg.Register("x", func(map[string]any) (int, error) { return 2, nil }))
	assert.Error(t, reg.Register("z", nil))
	_, err := reg.Create(ModuleConfig{Type: "y"})
	assert.ErrorContains(t, err, "unknown module type")
	assert.Panics(t, func() { reg.MustRegister("x", func(map[string]any) (int, error) { return 0, nil }) })
}

func TestRegistryNamesSorted(t *testing.T) {
	reg := NewRegistry[int]()
	reg.MustRegister("b", func(map[string]any) (int, error) { return 0, nil })
	reg.MustRegister("a", func(map[string]any) (int, error) { return 0, nil })
	assert.Equal(t, []string{"a", "b"}, reg.Names())
}
