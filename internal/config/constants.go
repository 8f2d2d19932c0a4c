package config

import "time"

// Application constants
const (
	AppName    = "vaxpulse"
	AppTitle   = "VaxPulse Immunization Coverage"
	AppVersion = "1.0.0"

	// Server
	DefaultPort           = 8080
	DefaultMaxUploadBytes = 32 << 20
	DefaultRateLimit      = 50 // requests per second
	DefaultBurstSize      = 100

	// File Paths (relative to the base directory)
	DefaultDataDir    = "data"
	DefaultReportsDir = "data/reports"
	DefaultUploadsDir = "data/uploads"
	DefaultLogsDir    = "logs"

	DefaultKeepUploads = 10

	// Log Settings
	DefaultLogLevel = "info"

	// Sources
	SourceNone           = "none"
	SourceFile           = "file"
	SourcePostgres       = "postgres"
	SourceSQLite         = "sqlite"
	DefaultSourceTimeout = 30 * time.Second
	DefaultSourceQuery   = "SELECT district, village, child_id, vaccine_type, date, age_group, gender, coverage_percentage FROM vaccination_records"

	// Analysis thresholds, all in coverage percentage points except the
	// dose count and the district limit.
	DefaultRequiredVaccines      = 6
	DefaultLowCoverageThreshold  = 70.0
	DefaultMinimumTarget         = 75.0
	DefaultWHOTarget             = 90.0
	DefaultAgeGroupThreshold     = 80.0
	DefaultGenderGapThreshold    = 10.0
	DefaultSeasonalDropThreshold = 5.0
	DefaultPriorityDistrictLimit = 3

	// Reports
	DefaultRegion       = "Chandigarh"
	DefaultTopDistricts = 10
	PDFEngineNative     = "fpdf"
	PDFEngineChrome     = "chrome"

	// Illustrative map centre (Chandigarh)
	DefaultMapCenterLat = 30.7333
	DefaultMapCenterLon = 76.7794

	// API
	APIBasePath     = "/api/v1"
	HealthEndpoint  = "/healthz"
	MetricsEndpoint = "/metrics"
)
