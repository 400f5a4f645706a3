package kpi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/wrsn/core/events"
	core "github.com/kilianp07/wrsn/core/kpi"
	"github.com/kilianp07/wrsn/core/mc"
	coremetrics "github.com/kilianp07/wrsn/core/metrics"
)

type failingSink struct{}

func (failingSink) RecordDispatch(events.DispatchEvent) error { return errors.New("write timeout") }

func TestSinkRecordsBehindFailingSink(t *testing.T) {
	mem := core.NewMemoryStore()
	multi := coremetrics.NewMultiSink(failingSink{}, Sink{Store: mem})

	for i := 0; i < 3; i++ {
		err := multi.RecordDispatch(events.DispatchEvent{
			RunID: "r1", ChargerID: "mc-1", Duration: 5, Decision: mc.Decision{Accepted: true},
			EnergyBefore: 100, EnergyAfter: 90,
		})
		assert.Error(t, err)
	}

	recs, err := mem.Query("r1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 3, recs[0].Decisions)
	assert.InDelta(t, 30, recs[0].EnergySpent, 1e-9)
}
