package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/wrsn/config"
	"github.com/kilianp07/wrsn/core/chargerstatus"
	"github.com/kilianp07/wrsn/core/trace"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Charger.Count = 2
	cfg.Network.Generate.Nodes = 20
	cfg.Network.Generate.Seed = 42
	cfg.Simulation.Duration = 3600
	cfg.Trace.Backend = "sqlite"
	cfg.Trace.Path = filepath.Join(t.TempDir(), "trace.db")
	cfg.API.Token = "secret"
	cfg.KPI.Path = filepath.Join(t.TempDir(), "kpi.db")
	return &cfg
}

func TestServiceRunsEpisodeAndFeedsObservers(t *testing.T) {
	svc, err := New(testConfig(t))
	require.NoError(t, err)
	defer func() { assert.NoError(t, svc.Close()) }()

	sum, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Positive(t, sum.Decisions)
	assert.Equal(t, 20, sum.Total)

	recs, err := svc.store.Query(context.Background(), trace.Query{RunID: sum.RunID})
	require.NoError(t, err)
	assert.Len(t, recs, sum.Decisions)

	rr := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/chargers/status", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var sts []chargerstatus.Status
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sts))
	require.Len(t, sts, 2)
	assert.Equal(t, "mc-1", sts[0].ID)
	assert.Equal(t, sum.RunID, sts[0].RunID)
	assert.Equal(t, sum.Decisions, sts[0].Decisions+sts[1].Decisions)

	rr = httptest.NewRecorder()
	svc.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/trace", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	kpis, err := svc.kpis.Query(sum.RunID)
	require.NoError(t, err)
	require.Len(t, kpis, 2)
	assert.Equal(t, sum.Decisions, kpis[0].Decisions+kpis[1].Decisions)

	rr = httptest.NewRecorder()
	svc.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/runs/"+sum.RunID+"/kpis", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestNewRejectsUnknownPolicy(t *testing.T) {
	cfg := testConfig(t)
	cfg.Simulation.Policy.Type = "ppo"
	_, err := New(cfg)
	assert.ErrorContains(t, err, "policy")
}
