package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     string
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no file and no env",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultPort, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, DefaultRequiredVaccines, cfg.Analysis.RequiredVaccines)
				assert.Equal(t, 70.0, cfg.Analysis.LowCoverageThreshold)
				assert.Equal(t, PDFEngineNative, cfg.Report.PDFEngine)
				assert.Equal(t, SourceNone, cfg.Source.Kind)
				assert.Equal(t, DefaultKeepUploads, cfg.Paths.KeepUploads)
			},
		},
		{
			name: "file overrides defaults and keeps unset keys",
			file: `
server:
  port: 9090
analysis:
  required_vaccines: 5
report:
  region: Punjab
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 5, cfg.Analysis.RequiredVaccines)
				assert.Equal(t, "Punjab", cfg.Report.Region)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 90.0, cfg.Analysis.WHOTarget)
			},
		},
		{
			name: "env overrides file",
			file: "server:\n  port: 9090\n",
			env: map[string]string{
				"VAX_SERVER_PORT":                "7070",
				"VAX_ANALYSIS_WHO_TARGET":        "95",
				"VAX_REPORT_PDF_ENGINE":          "CHROME",
				"VAX_SERVER_RATE_LIMIT_ENABLED":  "false",
				"VAX_ANALYSIS_REQUIRED_VACCINES": "8",
				"VAX_PATHS_KEEP_UPLOADS":         "3",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7070, cfg.Server.Port)
				assert.Equal(t, 95.0, cfg.Analysis.WHOTarget)
				assert.Equal(t, PDFEngineChrome, cfg.Report.PDFEngine)
				assert.False(t, cfg.Server.RateLimit.Enabled)
				assert.Equal(t, 8, cfg.Analysis.RequiredVaccines)
				assert.Equal(t, 3, cfg.Paths.KeepUploads)
			},
		},
		{
			name: "sql source gets default query",
			env: map[string]string{
				"VAX_SOURCE_KIND": "SQLite",
				"VAX_SOURCE_DSN":  "file:test.db",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, SourceSQLite, cfg.Source.Kind)
				assert.Equal(t, DefaultSourceQuery, cfg.Source.Query)
			},
		},
		{
			name:    "file source without path",
			env:     map[string]string{"VAX_SOURCE_KIND": "file"},
			wantErr: "source file is required",
		},
		{
			name:    "unknown source kind",
			env:     map[string]string{"VAX_SOURCE_KIND": "mongo"},
			wantErr: "unknown source kind",
		},
		{
			name:    "invalid port",
			file:    "server:\n  port: 70000\n",
			wantErr: "invalid server port",
		},
		{
			name:    "threshold out of range",
			env:     map[string]string{"VAX_ANALYSIS_LOW_COVERAGE_THRESHOLD": "120"},
			wantErr: "low_coverage_threshold",
		},
		{
			name:    "unknown pdf engine",
			env:     map[string]string{"VAX_REPORT_PDF_ENGINE": "latex"},
			wantErr: "unknown pdf engine",
		},
		{
			name:    "malformed env value",
			env:     map[string]string{"VAX_SERVER_PORT": "eighty"},
			wantErr: "failed to load config from env",
		},
		{
			name:    "malformed yaml",
			file:    "server: [",
			wantErr: "failed to load config from file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeConfig(t, tt.file)
			}

			cfg, err := LoadFile(path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoad_ConfigFileEnv(t *testing.T) {
	path := writeConfig(t, "report:\n  region: Haryana\n")
	t.Setenv("VAX_CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Haryana", cfg.Report.Region)
}

func TestResolvePaths(t *testing.T) {
	base := t.TempDir()
	abs := filepath.Join(t.TempDir(), "out")

	paths, err := ResolvePaths(PathsConfig{BaseDir: base, ReportsDir: abs})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, DefaultDataDir), paths.DataDir)
	assert.Equal(t, abs, paths.ReportsDir)
	assert.Equal(t, filepath.Join(base, DefaultLogsDir), paths.LogsDir)

	require.NoError(t, paths.EnsureDirectories())
	for _, dir := range []string{paths.DataDir, paths.ReportsDir, paths.UploadsDir, paths.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err, dir)
		assert.True(t, info.IsDir(), dir)
	}
}
