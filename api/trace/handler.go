package trace

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/kilianp07/wrsn/core/trace"
)

// NewHandler serves GET /api/trace from store. When token is set the
// request must carry "Authorization: Bearer <token>".
//
// Query parameters: run_id, charger_id, accepted (true/false), from, to
// (virtual time) and limit.
func NewHandler(store trace.Store, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		q, err := parseQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []trace.Record{}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

func parseQuery(r *http.Request) (trace.Query, error) {
	v := r.URL.Query()
	q := trace.Query{RunID: v.Get("run_id"), ChargerID: v.Get("charger_id")}
	if s := v.Get("accepted"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return q, err
		}
		q.Accepted = &b
	}
	var err error
	if s := v.Get("from"); s != "" {
		if q.FromSim, err = strconv.ParseFloat(s, 64); err != nil {
			return q, err
		}
	}
	if s := v.Get("to"); s != "" {
		if q.ToSim, err = strconv.ParseFloat(s, 64); err != nil {
			return q, err
		}
	}
	if s := v.Get("limit"); s != "" {
		if q.Limit, err = strconv.Atoi(s); err != nil {
			return q, err
		}
	}
	return q, nil
}
