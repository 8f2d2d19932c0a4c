// Package config loads vaxpulse configuration.
//
// Configuration is layered, lowest precedence first:
//
//  1. Default() values
//  2. a YAML file (VAX_CONFIG_FILE, ./config.yaml or ./configs/config.yaml)
//  3. VAX_* environment variables
//
// Environment keys are derived from the section and field names:
//
//	VAX_SERVER_PORT=9090
//	VAX_SOURCE_KIND=sqlite
//	VAX_SOURCE_DSN=file:coverage.db
//	VAX_ANALYSIS_REQUIRED_VACCINES=6
//	VAX_REPORT_PDF_ENGINE=chrome
//
// Only variables that are actually set override lower layers.
package config
