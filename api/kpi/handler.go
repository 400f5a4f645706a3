package kpi

import (
	"encoding/json"
	"net/http"
	"strings"

	core "github.com/kilianp07/wrsn/core/kpi"
)

// NewHandler exposes charger KPIs via GET /api/runs/{id}/kpis.
func NewHandler(store core.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		path := strings.TrimPrefix(r.URL.Path, "/api/runs/")
		parts := strings.Split(path, "/")
		if len(parts) != 2 || parts[0] == "" || parts[1] != "kpis" {
			http.NotFound(w, r)
			return
		}
		recs, err := store.Query(parts[0])
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		type out struct {
			core.Record
			RejectionRate float64 `json:"rejection_rate"`
		}
		outSlice := make([]out, len(recs))
		for i, rec := range recs {
			outSlice[i] = out{Record: rec, RejectionRate: rec.RejectionRate()}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(outSlice)
	})
}
