// Package services implements the business logic layer of the coverage
// service. It sits between the HTTP handlers and the pure pipeline packages
// (dataprocessing, analytics, charts, exporter) and owns the active dataset.
//
// # Architecture
//
// Services follow these architectural principles:
//
//	1. The canonical table is immutable once published
//	2. Context propagation for cancellation and tracing
//	3. Dependency injection for loose coupling
//	4. Per-request work runs on a filtered copy
//
// # Dataset Lifecycle
//
// CoverageService holds one validated dataset behind an RWMutex. Reload
// pulls a fresh table from the configured source.Loader, Upload parses a
// CSV or XLSX stream, and both swap the dataset wholesale only after it has
// passed validation. A rejected load leaves the previous dataset live.
//
//	svc := services.NewCoverageService(cfg, loader, logger,
//	    services.WithMetrics(metrics),
//	)
//	if _, err := svc.Reload(ctx); err != nil {
//	    return err
//	}
//	summary, err := svc.Summary(ctx, domain.AllSelection())
//
// # Available Services
//
//	- CoverageService: dataset ownership, queries, charts and exports
//	- HealthService: liveness and readiness reporting
//
// # Error Handling
//
// Errors are *errors.AppError values tagged with the failing stage. A
// selection that matches nothing is an empty-result error, which the HTTP
// layer reports as 404 NO_DATA.
package services
