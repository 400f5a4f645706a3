// Package monitoring reports errors and panics to an external tracker. The
// process-wide monitor defaults to a no-op until Init is called.
package monitoring

import (
	"sync"
	"time"
)

// Monitor is an error tracker.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	// CapturePanic reports a recovered panic value.
	CapturePanic(v any, tags map[string]string)
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) CapturePanic(any, map[string]string)       {}
func (NopMonitor) Flush(time.Duration)                       {}

var (
	mu      sync.RWMutex
	current Monitor = NopMonitor{}
)

// Init replaces the process-wide monitor. nil is ignored.
func Init(m Monitor) {
	if m == nil {
		return
	}
	mu.Lock()
	current = m
	mu.Unlock()
}

func get() Monitor {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// CaptureException records err with optional tags. nil errors are ignored.
func CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	get().CaptureException(err, tags)
}

// RecoverAndReport is deferred at the top of goroutines: it reports a panic,
// flushes, and re-panics.
//
//	defer monitoring.RecoverAndReport(map[string]string{"component": "runner"})
func RecoverAndReport(tags map[string]string) {
	if r := recover(); r != nil {
		m := get()
		m.CapturePanic(r, tags)
		m.Flush(2 * time.Second)
		panic(r)
	}
}

// Flush waits for buffered events to be sent.
func Flush(d time.Duration) { get().Flush(d) }
