package kpi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	core "github.com/kilianp07/wrsn/core/kpi"
)

func TestKPIHandler(t *testing.T) {
	store := core.NewMemoryStore()
	require.NoError(t, store.Add(core.Record{RunID: "r1", ChargerID: "mc-1", Decisions: 4, Rejections: 1}))
	h := NewHandler(store)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/runs/r1/kpis", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var body []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "mc-1", body[0]["charger_id"])
	assert.Equal(t, 0.25, body[0]["rejection_rate"])

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/runs/r1", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/runs/r1/kpis", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
