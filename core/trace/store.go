// Package trace persists one record per charger decision cycle so runs can
// be inspected after the fact.
package trace

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/wrsn/core/mc"
)

// Record is one completed decision cycle.
type Record struct {
	RunID        string      `json:"run_id"`
	Timestamp    time.Time   `json:"timestamp"`
	SimTime      float64     `json:"sim_time"`
	Duration     float64     `json:"duration"`
	ChargerID    string      `json:"charger_id"`
	Requested    mc.Action   `json:"requested"`
	Executed     mc.Action   `json:"executed"`
	Accepted     bool        `json:"accepted"`
	Estimate     mc.Estimate `json:"estimate"`
	EnergyBefore float64     `json:"energy_before"`
	EnergyAfter  float64     `json:"energy_after"`
	X            float64     `json:"x"`
	Y            float64     `json:"y"`
	Status       mc.Status   `json:"status"`
}

// Query filters records. Zero values match everything; ToSim of zero means
// no upper bound.
type Query struct {
	RunID     string
	ChargerID string
	Accepted  *bool
	FromSim   float64
	ToSim     float64
	Limit     int
}

// Match reports whether r passes the filter.
func (q Query) Match(r Record) bool {
	if q.RunID != "" && r.RunID != q.RunID {
		return false
	}
	if q.ChargerID != "" && r.ChargerID != q.ChargerID {
		return false
	}
	if q.Accepted != nil && r.Accepted != *q.Accepted {
		return false
	}
	if r.SimTime < q.FromSim {
		return false
	}
	if q.ToSim > 0 && r.SimTime > q.ToSim {
		return false
	}
	return true
}

// Store persists trace records.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	// Backend is one of "memory", "jsonl", "rotating" or "sqlite". Empty
	// means memory.
	Backend    string `json:"backend"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// SetDefaults fills rotation limits.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = 10
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = 5
	}
	if c.MaxAgeDays == 0 {
		c.MaxAgeDays = 30
	}
}

// Validate checks that file backends have a path.
func (c Config) Validate() error {
	switch c.Backend {
	case "", "memory":
		return nil
	case "jsonl", "rotating", "sqlite":
		if c.Path == "" {
			return fmt.Errorf("trace: backend %s requires a path", c.Backend)
		}
		return nil
	}
	return fmt.Errorf("trace: unknown backend %q", c.Backend)
}

// Open builds the configured store.
func Open(cfg Config) (Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case "jsonl":
		return NewJSONLStore(cfg.Path)
	case "rotating":
		return NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	default:
		return NewMemoryStore(), nil
	}
}

func limit(res []Record, n int) []Record {
	if n > 0 && len(res) > n {
		return res[:n]
	}
	return res
}
