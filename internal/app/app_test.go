package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaxpulse/internal/config"
	"vaxpulse/internal/shared/testutil"
	"vaxpulse/pkg/contracts"
)

const recordsCSV = "District,Village,Child ID,Vaccine Type,Date,Age Group,Gender,Coverage Percentage\n" +
	"mohali,phase 1,M1,BCG,2024-01-10,0-1 years,Male,92\n" +
	"mohali,phase 1,M2,OPV,2024-01-11,0-1 years,Female,81\n" +
	"chandigarh,sector 9,C1,BCG,2024-02-03,1-2 years,Female,67\n" +
	"chandigarh,sector 9,C2,OPV,not-a-date,1-2 years,Male,70\n"

// testConfig returns a config rooted in a temp dir with a file source
// pointing at records.csv in the data directory, when withSource is set.
func testConfig(t *testing.T, withSource bool) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.BaseDir = t.TempDir()
	cfg.Server.RateLimit.Enabled = false
	cfg.Server.Port = 0

	if withSource {
		dataDir := filepath.Join(cfg.Paths.BaseDir, config.DefaultDataDir)
		require.NoError(t, os.MkdirAll(dataDir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dataDir, "records.csv"), []byte(recordsCSV), 0o644))
		cfg.Source.Kind = config.SourceFile
		cfg.Source.File = "records.csv"
	}
	return cfg
}

func newTestApp(t *testing.T, withSource bool) *Application {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	app, err := New(testConfig(t, withSource), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.OTelProviders.Shutdown(context.Background()) })
	return app
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestNew_CreatesDirectories(t *testing.T) {
	app := newTestApp(t, false)

	for _, dir := range []string{app.Paths.DataDir, app.Paths.ReportsDir, app.Paths.UploadsDir, app.Paths.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err, dir)
		assert.True(t, info.IsDir())
	}
	assert.NotNil(t, app.Router)
	assert.NotNil(t, app.Server)
	assert.Equal(t, ":0", app.Server.Addr)
}

func TestNew_UnknownSource(t *testing.T) {
	cfg := testConfig(t, false)
	cfg.Source.Kind = "mongodb"

	logger, _ := testutil.NewTestLogger(t)
	_, err := New(cfg, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset source")
}

func TestLoadInitialDataset(t *testing.T) {
	app := newTestApp(t, true)
	app.LoadInitialDataset(context.Background())

	status := app.Coverage.Status()
	assert.True(t, status.Loaded)
	assert.Equal(t, 3, status.Records)
	assert.Equal(t, 1, status.Dropped)
}

func TestLoadInitialDataset_MissingFileLeavesServiceEmpty(t *testing.T) {
	cfg := testConfig(t, false)
	cfg.Source.Kind = config.SourceFile
	cfg.Source.File = "absent.csv"

	logger, logs := testutil.NewTestLogger(t)
	app, err := New(cfg, logger)
	require.NoError(t, err)

	app.LoadInitialDataset(context.Background())

	assert.False(t, app.Coverage.Status().Loaded)
	assert.True(t, logs.ContainsMessage("initial dataset load failed"))
}

func TestRouter(t *testing.T) {
	loaded := newTestApp(t, true)
	loaded.LoadInitialDataset(context.Background())
	empty := newTestApp(t, false)

	tests := []struct {
		name     string
		app      *Application
		target   string
		wantCode int
	}{
		{"health", empty, "/healthz", http.StatusOK},
		{"live", empty, "/healthz/live", http.StatusOK},
		{"ready with dataset", loaded, "/healthz/ready", http.StatusOK},
		{"not ready without dataset", empty, "/healthz/ready", http.StatusServiceUnavailable},
		{"summary", loaded, "/api/v1/summary", http.StatusOK},
		{"summary trailing slash", loaded, "/api/v1/summary/", http.StatusOK},
		{"summary without dataset", empty, "/api/v1/summary", http.StatusNotFound},
		{"filtered districts", loaded, "/api/v1/districts?district=Mohali", http.StatusOK},
		{"csv export", loaded, "/api/v1/export/csv", http.StatusOK},
		{"version", empty, "/api/v1/version", http.StatusOK},
		{"unknown route", empty, "/api/v2/summary", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, tt.app.Router, tt.target)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}

func TestRouter_NotFoundIsProblemJSON(t *testing.T) {
	app := newTestApp(t, false)

	rec := get(t, app.Router, "/nowhere")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var problem map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.EqualValues(t, http.StatusNotFound, problem["status"])
	assert.Equal(t, "/nowhere", problem["instance"])
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	app := newTestApp(t, false)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/summary", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_Version(t *testing.T) {
	app := newTestApp(t, false)

	rec := get(t, app.Router, "/api/v1/version")

	var info contracts.VersionInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, contracts.Version, info.Version)
}

func TestRouter_MetricsExposePipelineCounters(t *testing.T) {
	app := newTestApp(t, true)
	app.LoadInitialDataset(context.Background())
	get(t, app.Router, "/api/v1/summary")

	rec := get(t, app.Router, "/metrics")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "vaxpulse_records_loaded"), body)
	assert.True(t, strings.Contains(body, "http_requests"), body)
}

func TestRouter_RateLimited(t *testing.T) {
	cfg := testConfig(t, false)
	cfg.Server.RateLimit.Enabled = true
	cfg.Server.RateLimit.RPS = 0.001
	cfg.Server.RateLimit.Burst = 1

	logger, _ := testutil.NewTestLogger(t)
	app, err := New(cfg, logger)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, get(t, app.Router, "/healthz").Code)
	rec := get(t, app.Router, "/healthz")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestPerformStartupHealthCheck(t *testing.T) {
	app := newTestApp(t, false)
	assert.NoError(t, app.performStartupHealthCheck(context.Background()))
}

func TestStop_BeforeServe(t *testing.T) {
	app := newTestApp(t, false)
	assert.NoError(t, app.Stop(context.Background()))
}
