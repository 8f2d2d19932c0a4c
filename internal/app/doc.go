// Package app wires the coverage service into a runnable HTTP application.
// It loads configuration, initializes logging and OpenTelemetry, builds the
// dataset source and services, and owns the server lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration from the YAML file and VAX_* environment
//	2. Initialize the slog logger
//	3. Resolve and create the data, reports, uploads and logs directories
//	4. Initialize OpenTelemetry tracing and the Prometheus meter
//	5. Build the dataset source, CoverageService and HealthService
//	6. Set up the chi router and the HTTP server
//
// # Usage
//
//	app, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := app.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// Start performs the initial dataset load. A source that fails to load is
// logged, not fatal: the API answers 404 NO_DATA until a dataset is uploaded
// or reloaded.
//
// # Graceful Shutdown
//
// Run blocks until SIGINT or SIGTERM, then drains in-flight requests within
// the configured shutdown timeout and flushes the telemetry providers.
package app
