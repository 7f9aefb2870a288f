package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/daniacca/achem-ssa/internal/ssa"
	"github.com/stretchr/testify/require"
)

func bytesReader(b []byte) *bytes.Reader { return bytes.NewReader(b) }

func testDecayNetworkConfig() ssa.NetworkConfig {
	return ssa.NetworkConfig{
		Name: "decay",
		Species: []ssa.SpeciesConfig{
			{Name: "A", Count: 50},
			{Name: "B"},
		},
		Reactions: []ssa.ReactionConfig{
			{
				ID:        "decay",
				Reactants: []ssa.StoichEdgeConfig{{Species: "A", Stoichiometry: 1}},
				Products:  []ssa.StoichEdgeConfig{{Species: "B", Stoichiometry: 1}},
				RateLaw:   ssa.RateLawConfig{Kind: "mass_action", K: 1.0},
			},
		},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv := NewServer(NewLogger("error"), nil)
	store, err := ssa.OpenSnapshotStore(t.TempDir() + "/snapshots.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	srv.SetSnapshotStore(store)
	return srv
}

func createTestRun(t *testing.T, srv *Server) string {
	t.Helper()
	body, err := json.Marshal(createNetworkRequest{Network: testDecayNetworkConfig(), Seed: 42, MaxIter: 100, MaxTime: ssa.UnboundedTime})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/networks", bytesReader(body))
	w := httptest.NewRecorder()
	srv.handleCreateNetwork(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp["run_id"]
}

func TestHandleCreateNetworkReturnsRunID(t *testing.T) {
	srv := newTestServer(t)
	runID := createTestRun(t, srv)
	require.NotEmpty(t, runID)
	require.Contains(t, srv.manager.ListRuns(), runID)
}

func TestHandleCreateNetworkRejectsInvalidConfig(t *testing.T) {
	srv := newTestServer(t)
	body, _ := json.Marshal(createNetworkRequest{Network: ssa.NetworkConfig{}})

	req := httptest.NewRequest(http.MethodPost, "/networks", bytesReader(body))
	w := httptest.NewRecorder()
	srv.handleCreateNetwork(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleSeedSetsSpeciesCounts(t *testing.T) {
	srv := newTestServer(t)
	runID := createTestRun(t, srv)

	body, _ := json.Marshal(seedRequest{Counts: map[string]int64{"A": 7, "B": 3}})
	req := httptest.NewRequest(http.MethodPost, "/networks/"+runID+"/seed", bytesReader(body))
	w := httptest.NewRecorder()
	srv.handleSeed(w, req, runID)
	require.Equal(t, http.StatusOK, w.Code)

	run, ok := srv.manager.GetRun(runID)
	require.True(t, ok)
	count, ok := run.Net.SpeciesCount("A")
	require.True(t, ok)
	require.Equal(t, int64(7), count)
}

func TestHandleRunSynchronousReachesTerminalStatus(t *testing.T) {
	srv := newTestServer(t)
	runID := createTestRun(t, srv)

	req := httptest.NewRequest(http.MethodPost, "/networks/"+runID+"/run?async=false", nil)
	w := httptest.NewRecorder()
	srv.handleRun(w, req, runID)
	require.Equal(t, http.StatusAccepted, w.Code)

	run, ok := srv.manager.GetRun(runID)
	require.True(t, ok)
	require.NotEqual(t, ssa.RunStatusRunning, run.Status())
}

func TestHandleStateReportsCounts(t *testing.T) {
	srv := newTestServer(t)
	runID := createTestRun(t, srv)

	w := httptest.NewRecorder()
	srv.handleState(w, runID)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	counts, ok := resp["counts"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, counts, "A")
}

func TestHandleReportRendersHTML(t *testing.T) {
	srv := newTestServer(t)
	runID := createTestRun(t, srv)

	w := httptest.NewRecorder()
	srv.handleReport(w, runID)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "text/html")
	require.Contains(t, w.Body.String(), "Final species counts")
}

func TestHandleSaveAndGetSnapshot(t *testing.T) {
	srv := newTestServer(t)
	runID := createTestRun(t, srv)

	w := httptest.NewRecorder()
	srv.handleSaveSnapshot(w, runID)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	srv.handleGetSnapshot(w, runID)
	require.Equal(t, http.StatusOK, w.Code)

	var snap ssa.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	require.Equal(t, runID, snap.RunID)
}

func TestHandleGetSnapshotMissingReturnsNotFound(t *testing.T) {
	srv := newTestServer(t)
	runID := createTestRun(t, srv)

	w := httptest.NewRecorder()
	srv.handleGetSnapshot(w, runID)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleDeleteNetworkRemovesRun(t *testing.T) {
	srv := newTestServer(t)
	runID := createTestRun(t, srv)

	w := httptest.NewRecorder()
	srv.handleDeleteNetwork(w, runID)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, srv.manager.ListRuns(), runID)
}

func TestHandleRegisterListUnregisterNotifier(t *testing.T) {
	srv := newTestServer(t)

	body, _ := json.Marshal(registerNotifierRequest{
		Type:   "webhook",
		ID:     "wh-1",
		Config: map[string]any{"url": "http://example.invalid/hook"},
	})
	req := httptest.NewRequest(http.MethodPost, "/notifiers", bytesReader(body))
	w := httptest.NewRecorder()
	srv.handleRegisterNotifier(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	srv.handleListNotifiers(w, httptest.NewRequest(http.MethodGet, "/notifiers", nil))
	require.Contains(t, w.Body.String(), "wh-1")

	req = httptest.NewRequest(http.MethodDelete, "/notifiers/wh-1", nil)
	w = httptest.NewRecorder()
	srv.handleUnregisterNotifier(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestHandleRegisterNotifierRejectsUnknownType(t *testing.T) {
	srv := newTestServer(t)

	body, _ := json.Marshal(registerNotifierRequest{Type: "carrier-pigeon", ID: "x"})
	req := httptest.NewRequest(http.MethodPost, "/notifiers", bytesReader(body))
	w := httptest.NewRecorder()
	srv.handleRegisterNotifier(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExtractRunID(t *testing.T) {
	id, rest := extractRunID("/networks/abc123/state")
	require.Equal(t, "abc123", id)
	require.Equal(t, "/state", rest)

	id, rest = extractRunID("/networks/abc123")
	require.Equal(t, "abc123", id)
	require.Equal(t, "", rest)

	id, _ = extractRunID("/healthz")
	require.Equal(t, "", id)
}

func TestLoadServerConfigDefaults(t *testing.T) {
	for _, v := range []string{"ACHEM_SSA_ADDR", "ACHEM_SSA_NETWORK_FILE", "ACHEM_SSA_SNAPSHOT_PATH", "ACHEM_SSA_SNAPSHOT_EVERY", "ACHEM_SSA_SNAPSHOT_CRON", "ACHEM_SSA_LOG_LEVEL"} {
		require.NoError(t, os.Unsetenv(v))
	}
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	os.Args = []string{"achem-ssa-server"}

	cfg := loadServerConfig()
	require.Equal(t, ":8080", cfg.Addr)
	require.Equal(t, int64(1000), cfg.SnapshotEvery)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoadServerConfigFlagsOverrideEnvVars(t *testing.T) {
	require.NoError(t, os.Setenv("ACHEM_SSA_ADDR", ":9090"))
	t.Cleanup(func() { os.Unsetenv("ACHEM_SSA_ADDR") })

	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	os.Args = []string{"achem-ssa-server", "-addr", ":7070", "-log-level", "debug"}

	cfg := loadServerConfig()
	require.Equal(t, ":7070", cfg.Addr)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestLoggerLevelsParseCaseInsensitively(t *testing.T) {
	require.Equal(t, LogLevelDebug, NewLogger("DEBUG").level)
	require.Equal(t, LogLevelWarn, NewLogger("Warn").level)
	require.Equal(t, LogLevelInfo, NewLogger("bogus").level)
}
