package trace

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/wrsn/core/trace"
)

func store(t *testing.T) trace.Store {
	s := trace.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, trace.Record{RunID: "r1", ChargerID: "mc-1", SimTime: 1, Accepted: true}))
	require.NoError(t, s.Append(ctx, trace.Record{RunID: "r1", ChargerID: "mc-1", SimTime: 2, Accepted: false}))
	require.NoError(t, s.Append(ctx, trace.Record{RunID: "r1", ChargerID: "mc-2", SimTime: 3, Accepted: true}))
	return s
}

func TestHandlerFilters(t *testing.T) {
	h := NewHandler(store(t), "")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/trace?charger_id=mc-1&accepted=false", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var out []trace.Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, 2.0, out[0].SimTime)
}

func TestHandlerAuth(t *testing.T) {
	h := NewHandler(store(t), "secret")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/trace", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/trace?limit=2", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	var out []trace.Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Len(t, out, 2)
}

func TestHandlerBadQuery(t *testing.T) {
	h := NewHandler(store(t), "")
	for _, url := range []string{"/api/trace?accepted=maybe", "/api/trace?from=x", "/api/trace?limit=-"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, url, nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code, url)
	}
}

func TestHandlerEmptyResultIsArray(t *testing.T) {
	h := NewHandler(store(t), "")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/trace?run_id=none", nil))
	assert.JSONEq(t, "[]", rr.Body.String())
}
