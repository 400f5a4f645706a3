package kpi

import (
	"sort"
	"sync"
)

type key struct{ run, charger string }

// MemoryStore keeps records in memory.
type MemoryStore struct {
	mu   sync.Mutex
	data map[key]Record
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{data: map[key]Record{}} }

func (s *MemoryStore) Add(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{r.RunID, r.ChargerID}
	s.data[k] = Merge(s.data[k], r)
	return nil
}

// Query returns the records of runID sorted by charger.
func (s *MemoryStore) Query(runID string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []Record
	for k, r := range s.data {
		if k.run == runID {
			res = append(res, r)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ChargerID < res[j].ChargerID })
	return res, nil
}

func (s *MemoryStore) Close() error { return nil }

// Merge sums b into a. The identity fields of b win.
func Merge(a, b Record) Record {
	a.RunID, a.ChargerID = b.RunID, b.ChargerID
	a.Decisions += b.Decisions
	a.Rejections += b.Rejections
	a.Depletions += b.Depletions
	a.Refills += b.Refills
	a.EnergySpent += b.EnergySpent
	a.BusyTime += b.BusyTime
	return a
}
