package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"vaxpulse/internal/infrastructure"
)

// Health status values
const (
	HealthOK       = "ok"
	HealthReady    = "ready"
	HealthNotReady = "not_ready"
	HealthAlive    = "alive"
)

// DatasetStatusProvider reports the active dataset.
type DatasetStatusProvider interface {
	Status() DatasetStatus
}

// HealthService provides health check functionality
type HealthService struct {
	version    string
	dataset    DatasetStatusProvider
	reportsDir string
	startTime  time.Time
	logger     *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Dataset   *DatasetStatus           `json:"dataset,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service reporting on dataset. reportsDir
// is checked for existence during readiness probes; empty skips the check.
func NewHealthService(version string, dataset DatasetStatusProvider, reportsDir string, logger *slog.Logger) *HealthService {
	return &HealthService{
		version:    version,
		dataset:    dataset,
		reportsDir: reportsDir,
		startTime:  time.Now(),
		logger:     infrastructure.ComponentLogger(logger, "health_service"),
	}
}

// HealthCheck returns overall health status. The process is healthy whether
// or not a dataset has been loaded.
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    HealthOK,
		Timestamp: time.Now(),
		Version:   hs.version,
	}
	if hs.dataset != nil {
		ds := hs.dataset.Status()
		status.Dataset = &ds
	}

	hs.logger.DebugContext(ctx, "health check completed",
		slog.String("status", status.Status),
		slog.String("uptime", time.Since(hs.startTime).String()))

	return status
}

// ReadinessCheck reports ready once a dataset is loaded and the reports
// directory is present.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    HealthReady,
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]ServiceHealth{
			"dataset": hs.checkDataset(),
			"reports": hs.checkReportsDir(),
		},
	}

	for name, svc := range status.Services {
		if svc.Status != HealthReady {
			status.Status = HealthNotReady
			hs.logger.InfoContext(ctx, "readiness check failed",
				slog.String("service", name),
				slog.String("reason", svc.Message))
		}
	}

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    HealthAlive,
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Uptime returns how long the service has been running.
func (hs *HealthService) Uptime() time.Duration {
	return time.Since(hs.startTime)
}

func (hs *HealthService) checkDataset() ServiceHealth {
	if hs.dataset == nil {
		return ServiceHealth{Status: HealthNotReady, Message: "no dataset provider"}
	}
	ds := hs.dataset.Status()
	if !ds.Loaded {
		return ServiceHealth{Status: HealthNotReady, Message: "no dataset loaded"}
	}
	return ServiceHealth{
		Status:  HealthReady,
		Message: fmt.Sprintf("%d records from %s", ds.Records, ds.Source),
	}
}

func (hs *HealthService) checkReportsDir() ServiceHealth {
	if hs.reportsDir == "" {
		return ServiceHealth{Status: HealthReady, Message: "reports directory not configured"}
	}
	info, err := os.Stat(hs.reportsDir)
	if err != nil {
		return ServiceHealth{Status: HealthNotReady, Message: fmt.Sprintf("reports directory unavailable: %v", err)}
	}
	if !info.IsDir() {
		return ServiceHealth{Status: HealthNotReady, Message: fmt.Sprintf("%s is not a directory", hs.reportsDir)}
	}
	return ServiceHealth{Status: HealthReady}
}
