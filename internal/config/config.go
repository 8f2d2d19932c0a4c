package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment override, e.g. VAX_SERVER_PORT.
const EnvPrefix = "VAX"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Source    SourceConfig    `yaml:"source" envconfig:"SOURCE"`
	Analysis  AnalysisConfig  `yaml:"analysis" envconfig:"ANALYSIS"`
	Report    ReportConfig    `yaml:"report" envconfig:"REPORT"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int             `yaml:"port" split_words:"true"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" split_words:"true"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" split_words:"true"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" split_words:"true"`
	MaxHeaderBytes  int             `yaml:"max_header_bytes" split_words:"true"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" split_words:"true"`
	MaxUploadBytes  int64           `yaml:"max_upload_bytes" split_words:"true"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" split_words:"true"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" split_words:"true"`
	RPS     float64 `yaml:"rps" split_words:"true"`
	Burst   int     `yaml:"burst" split_words:"true"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" split_words:"true"`
	Output      string `yaml:"output" split_words:"true"`
	FilePath    string `yaml:"file_path" split_words:"true"`
	Development bool   `yaml:"development" split_words:"true"`
}

// PathsConfig contains file system paths configuration. Relative entries are
// resolved against BaseDir, or the executable directory when BaseDir is empty.
type PathsConfig struct {
	BaseDir    string `yaml:"base_dir" split_words:"true"`
	DataDir    string `yaml:"data_dir" split_words:"true"`
	ReportsDir string `yaml:"reports_dir" split_words:"true"`
	UploadsDir string `yaml:"uploads_dir" split_words:"true"`
	LogsDir    string `yaml:"logs_dir" split_words:"true"`

	// KeepUploads caps the accepted uploads kept on disk; <= 0 keeps all.
	KeepUploads int `yaml:"keep_uploads" split_words:"true"`
}

// SourceConfig selects where the canonical dataset is loaded from.
type SourceConfig struct {
	Kind    string        `yaml:"kind" split_words:"true"`
	File    string        `yaml:"file" split_words:"true"`
	Sheet   string        `yaml:"sheet" split_words:"true"`
	DSN     string        `yaml:"dsn" split_words:"true"`
	Query   string        `yaml:"query" split_words:"true"`
	Timeout time.Duration `yaml:"timeout" split_words:"true"`
}

// AnalysisConfig holds the coverage thresholds used by aggregation and the
// recommendation rules.
type AnalysisConfig struct {
	RequiredVaccines      int     `yaml:"required_vaccines" split_words:"true"`
	LowCoverageThreshold  float64 `yaml:"low_coverage_threshold" split_words:"true"`
	CriticalThreshold     float64 `yaml:"critical_threshold" split_words:"true"`
	WHOTarget             float64 `yaml:"who_target" split_words:"true"`
	VaccineThreshold      float64 `yaml:"vaccine_threshold" split_words:"true"`
	AgeGroupThreshold     float64 `yaml:"age_group_threshold" split_words:"true"`
	GenderGapThreshold    float64 `yaml:"gender_gap_threshold" split_words:"true"`
	SeasonalDropThreshold float64 `yaml:"seasonal_drop_threshold" split_words:"true"`
	PriorityDistrictLimit int     `yaml:"priority_district_limit" split_words:"true"`
}

// ReportConfig controls the export builder.
type ReportConfig struct {
	Region        string        `yaml:"region" split_words:"true"`
	PDFEngine     string        `yaml:"pdf_engine" split_words:"true"`
	TopDistricts  int           `yaml:"top_districts" split_words:"true"`
	ChromeTimeout time.Duration `yaml:"chrome_timeout" split_words:"true"`
	MapCenterLat  float64       `yaml:"map_center_lat" split_words:"true"`
	MapCenterLon  float64       `yaml:"map_center_lon" split_words:"true"`
}

// TelemetryConfig controls OpenTelemetry providers.
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" split_words:"true"`
	TraceExporter  string `yaml:"trace_exporter" split_words:"true"`
	MetricsEnabled bool   `yaml:"metrics_enabled" split_words:"true"`
}

// Load builds the configuration from defaults, the optional YAML file and
// VAX_* environment variables, in that order of precedence (lowest first).
func Load() (*Config, error) {
	return LoadFile(getConfigFilePath())
}

// LoadFile is Load with an explicit YAML path. An empty path skips the file.
func LoadFile(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML document onto cfg. Keys absent from the file
// keep their current value.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive")
	}

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid logging output %q", c.Logging.Output)
	}

	c.Source.Kind = strings.ToLower(strings.TrimSpace(c.Source.Kind))
	switch c.Source.Kind {
	case SourceNone:
	case SourceFile:
		if c.Source.File == "" {
			return fmt.Errorf("source file is required for kind %q", c.Source.Kind)
		}
	case SourcePostgres, SourceSQLite:
		if c.Source.DSN == "" {
			return fmt.Errorf("source dsn is required for kind %q", c.Source.Kind)
		}
		if c.Source.Query == "" {
			c.Source.Query = DefaultSourceQuery
		}
	default:
		return fmt.Errorf("unknown source kind %q", c.Source.Kind)
	}

	a := c.Analysis
	if a.RequiredVaccines <= 0 {
		return fmt.Errorf("required vaccines must be positive")
	}
	for name, v := range map[string]float64{
		"low_coverage_threshold":  a.LowCoverageThreshold,
		"critical_threshold":      a.CriticalThreshold,
		"who_target":              a.WHOTarget,
		"vaccine_threshold":       a.VaccineThreshold,
		"age_group_threshold":     a.AgeGroupThreshold,
		"gender_gap_threshold":    a.GenderGapThreshold,
		"seasonal_drop_threshold": a.SeasonalDropThreshold,
	} {
		if v < 0 || v > 100 {
			return fmt.Errorf("analysis %s must be within [0,100], got %v", name, v)
		}
	}
	if a.CriticalThreshold > a.WHOTarget {
		return fmt.Errorf("critical threshold %v exceeds WHO target %v", a.CriticalThreshold, a.WHOTarget)
	}

	c.Report.PDFEngine = strings.ToLower(c.Report.PDFEngine)
	if c.Report.PDFEngine != PDFEngineNative && c.Report.PDFEngine != PDFEngineChrome {
		return fmt.Errorf("unknown pdf engine %q", c.Report.PDFEngine)
	}
	if c.Report.TopDistricts <= 0 {
		c.Report.TopDistricts = DefaultTopDistricts
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG_FILE"); explicit != "" {
		return explicit
	}

	locations := []string{
		"config.yaml",
		filepath.Join("configs", "config.yaml"),
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            DefaultPort,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
			MaxUploadBytes:  DefaultMaxUploadBytes,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Output:   "console",
			FilePath: filepath.Join(DefaultLogsDir, "vaxpulse.log"),
		},
		Paths: PathsConfig{
			DataDir:     DefaultDataDir,
			ReportsDir:  DefaultReportsDir,
			UploadsDir:  DefaultUploadsDir,
			LogsDir:     DefaultLogsDir,
			KeepUploads: DefaultKeepUploads,
		},
		Source: SourceConfig{
			Kind:    SourceNone,
			Timeout: DefaultSourceTimeout,
		},
		Analysis: AnalysisConfig{
			RequiredVaccines:      DefaultRequiredVaccines,
			LowCoverageThreshold:  DefaultLowCoverageThreshold,
			CriticalThreshold:     DefaultMinimumTarget,
			WHOTarget:             DefaultWHOTarget,
			VaccineThreshold:      DefaultMinimumTarget,
			AgeGroupThreshold:     DefaultAgeGroupThreshold,
			GenderGapThreshold:    DefaultGenderGapThreshold,
			SeasonalDropThreshold: DefaultSeasonalDropThreshold,
			PriorityDistrictLimit: DefaultPriorityDistrictLimit,
		},
		Report: ReportConfig{
			Region:        DefaultRegion,
			PDFEngine:     PDFEngineNative,
			TopDistricts:  DefaultTopDistricts,
			ChromeTimeout: 30 * time.Second,
			MapCenterLat:  DefaultMapCenterLat,
			MapCenterLon:  DefaultMapCenterLon,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    AppName,
			TraceExporter:  "none",
			MetricsEnabled: true,
		},
	}
}
