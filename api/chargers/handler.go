package chargers

import (
	"encoding/json"
	"net/http"

	"github.com/kilianp07/wrsn/core/chargerstatus"
)

// NewStatusHandler serves GET /api/chargers/status. The status and run_id
// query parameters filter the result.
func NewStatusHandler(store chargerstatus.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		f := chargerstatus.Filter{
			Status: r.URL.Query().Get("status"),
			RunID:  r.URL.Query().Get("run_id"),
		}
		if f.Status != "" && f.Status != "active" && f.Status != "depleted" {
			http.Error(w, "status must be active or depleted", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(store.List(f)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}
