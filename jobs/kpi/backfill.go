// Package kpi rebuilds charger KPIs from stored traces.
package kpi

import (
	"context"

	core "github.com/kilianp07/wrsn/core/kpi"
	"github.com/kilianp07/wrsn/core/trace"
)

// Backfill replays the trace records of runID into store. It returns the
// number of records replayed.
func Backfill(ctx context.Context, src trace.Store, dst core.Store, runID string) (int, error) {
	recs, err := src.Query(ctx, trace.Query{RunID: runID})
	if err != nil {
		return 0, err
	}
	for i, rec := range recs {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := dst.Add(core.FromTrace(rec)); err != nil {
			return i, err
		}
	}
	return len(recs), nil
}
