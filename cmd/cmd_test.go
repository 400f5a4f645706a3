package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/wrsn/core/mc"
	"github.com/kilianp07/wrsn/core/trace"
)

func writeConfig(t *testing.T, tracePath string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "network:\n  generate:\n    nodes: 5\n    seed: 1\n" +
		"trace:\n  backend: jsonl\n  path: " + tracePath + "\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestCheckPricesAction(t *testing.T) {
	cfg := writeConfig(t, filepath.Join(t.TempDir(), "trace.jsonl"))

	var res checkResult
	require.NoError(t, json.Unmarshal([]byte(execute(t, "check", "-c", cfg, "--x", "50", "--y", "50", "--time", "0")), &res))
	assert.True(t, res.Estimate.Feasible)
	assert.Zero(t, res.Estimate.Total)
	assert.Equal(t, 50.0, res.Charger.X)

	require.NoError(t, json.Unmarshal([]byte(execute(t, "check", "-c", cfg, "--x", "60050", "--y", "50", "--time", "0")), &res))
	assert.False(t, res.Estimate.Feasible)
	assert.InDelta(t, 120000, res.Estimate.Total, 1e-6)
}

func TestTraceLsFiltersRejected(t *testing.T) {
	tracePath := filepath.Join(t.TempDir(), "trace.jsonl")
	cfg := writeConfig(t, tracePath)

	store, err := trace.NewJSONLStore(tracePath)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, trace.Record{RunID: "r1", ChargerID: "mc-1", Accepted: true, Status: mc.Active}))
	require.NoError(t, store.Append(ctx, trace.Record{RunID: "r1", ChargerID: "mc-2", Status: mc.Active}))
	require.NoError(t, store.Close())

	out := execute(t, "trace", "ls", "-c", cfg, "--run", "r1", "--rejected")
	assert.Contains(t, out, "mc-2")
	assert.NotContains(t, out, "mc-1")
}

func TestTraceExportCSV(t *testing.T) {
	tracePath := filepath.Join(t.TempDir(), "trace.jsonl")
	cfg := writeConfig(t, tracePath)
	store, err := trace.NewJSONLStore(tracePath)
	require.NoError(t, err)
	require.NoError(t, store.Append(context.Background(), trace.Record{RunID: "r9", ChargerID: "mc-1", Accepted: true}))
	require.NoError(t, store.Close())

	out := execute(t, "trace", "export", "-c", cfg, "--run", "r9", "--rejected=false", "--format", "csv")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "run_id,charger_id"))
	assert.True(t, strings.HasPrefix(lines[1], "r9,mc-1"))
}
