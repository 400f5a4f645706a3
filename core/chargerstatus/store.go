// Package chargerstatus keeps the latest known state of every charger.
package chargerstatus

import (
	"context"
	"sort"
	"sync"

	"github.com/kilianp07/wrsn/core/events"
	"github.com/kilianp07/wrsn/core/mc"
	"github.com/kilianp07/wrsn/internal/eventbus"
)

// LastDispatch summarises the most recent decision of a charger.
type LastDispatch struct {
	SimTime   float64   `json:"sim_time"`
	Requested mc.Action `json:"requested"`
	Executed  mc.Action `json:"executed"`
	Accepted  bool      `json:"accepted"`
}

// Status is the latest state of one charger.
type Status struct {
	mc.Snapshot
	RunID        string        `json:"run_id"`
	SimTime      float64       `json:"sim_time"`
	Decisions    int           `json:"decisions"`
	Rejections   int           `json:"rejections"`
	LastDispatch *LastDispatch `json:"last_dispatch,omitempty"`

	// hasState is false until a ChargerStateEvent was seen, so the
	// embedded snapshot is not yet meaningful.
	hasState bool
}

// Filter narrows List. Empty fields match everything.
type Filter struct {
	Status string
	RunID  string
}

// Store is fed by Follow and read by the status API.
type Store interface {
	SetState(events.ChargerStateEvent)
	RecordDispatch(events.DispatchEvent)
	List(Filter) []Status
}

// MemoryStore is a Store kept in memory and safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Status
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]Status{}}
}

// SetState replaces the snapshot of the charger.
func (s *MemoryStore) SetState(ev events.ChargerStateEvent) {
	s.mu.Lock()
	st := s.data[ev.State.ID]
	st.Snapshot = ev.State
	st.RunID = ev.RunID
	st.SimTime = ev.SimTime
	st.hasState = true
	s.data[ev.State.ID] = st
	s.mu.Unlock()
}

// RecordDispatch counts the decision and keeps it as the last dispatch.
func (s *MemoryStore) RecordDispatch(ev events.DispatchEvent) {
	s.mu.Lock()
	st := s.data[ev.ChargerID]
	if st.ID == "" {
		st.ID = ev.ChargerID
	}
	st.RunID = ev.RunID
	st.Decisions++
	if !ev.Decision.Accepted {
		st.Rejections++
	}
	st.LastDispatch = &LastDispatch{
		SimTime:   ev.SimTime,
		Requested: ev.Decision.Requested,
		Executed:  ev.Decision.Executed,
		Accepted:  ev.Decision.Accepted,
	}
	s.data[ev.ChargerID] = st
	s.mu.Unlock()
}

// List returns the matching chargers sorted by id.
func (s *MemoryStore) List(f Filter) []Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]Status, 0, len(s.data))
	for _, st := range s.data {
		if f.Status != "" && (!st.hasState || st.Status.String() != f.Status) {
			continue
		}
		if f.RunID != "" && st.RunID != f.RunID {
			continue
		}
		res = append(res, st)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// Follow feeds store from the bus until ctx is done or the bus closes. The
// returned channel is closed on exit.
func Follow(ctx context.Context, bus *eventbus.Bus[any], store Store) <-chan struct{} {
	done := make(chan struct{})
	sub := bus.SubscribeBuffered(1024)
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				switch e := ev.(type) {
				case events.ChargerStateEvent:
					store.SetState(e)
				case events.DispatchEvent:
					store.RecordDispatch(e)
				}
			}
		}
	}()
	return done
}
