package monitoring

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremon "github.com/kilianp07/wrsn/core/monitoring"
)

func TestNoDSNIsNop(t *testing.T) {
	m, err := NewSentryMonitor(Config{})
	require.NoError(t, err)
	assert.IsType(t, coremon.NopMonitor{}, m)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Config{TracesSampleRate: 0.2}.Validate())
	assert.Error(t, Config{TracesSampleRate: 2}.Validate())
}

func TestSentryMonitorTagsEvents(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []*sentry.Event
	)
	m, err := newSentryMonitor(sentry.ClientOptions{
		Dsn: "https://public@127.0.0.1/1",
		BeforeSend: func(ev *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			mu.Lock()
			seen = append(seen, ev)
			mu.Unlock()
			return nil
		},
	})
	require.NoError(t, err)

	m.CaptureException(nil, nil)
	m.CaptureException(errors.New("charger stuck"), map[string]string{"charger_id": "mc-1"})
	m.CapturePanic("kaboom", map[string]string{"component": "runner"})
	m.Flush(time.Second)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	assert.Equal(t, "mc-1", seen[0].Tags["charger_id"])
	assert.Equal(t, "runner", seen[1].Tags["component"])
}
