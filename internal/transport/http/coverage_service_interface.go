package http

import (
	"context"
	"io"

	"vaxpulse/internal/analytics"
	"vaxpulse/internal/charts"
	"vaxpulse/internal/exporter"
	"vaxpulse/internal/services"
	"vaxpulse/pkg/contracts/domain"
)

// CoverageServiceInterface defines the coverage operations the HTTP layer
// needs. *services.CoverageService implements it.
type CoverageServiceInterface interface {
	Status() services.DatasetStatus
	Reload(ctx context.Context) (*services.LoadResult, error)
	Upload(ctx context.Context, filename string, r io.Reader) (*services.LoadResult, error)

	Summary(ctx context.Context, sel domain.FilterSelection) (domain.SummaryStatistics, error)
	Indicators(ctx context.Context, sel domain.FilterSelection) (domain.KeyIndicators, error)
	Districts(ctx context.Context, sel domain.FilterSelection) ([]domain.DistrictSummary, error)
	LowCoverage(ctx context.Context, sel domain.FilterSelection, threshold float64) ([]domain.DistrictCoverage, error)
	Demographics(ctx context.Context, sel domain.FilterSelection) ([]domain.DemographicCell, error)
	Recommendations(ctx context.Context, sel domain.FilterSelection) ([]analytics.Recommendation, error)
	Chart(ctx context.Context, id string, sel domain.FilterSelection) (charts.Spec, error)
	Export(ctx context.Context, format domain.ReportFormat, sel domain.FilterSelection) (exporter.Artifact, error)

	Quality() (domain.DataQualityReport, error)
	Options() (domain.FilterOptions, error)
}

var _ CoverageServiceInterface = (*services.CoverageService)(nil)
