package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"vaxpulse/internal/analytics"
	"vaxpulse/internal/config"
	apperrors "vaxpulse/internal/errors"
	"vaxpulse/internal/infrastructure"
	"vaxpulse/pkg/contracts/domain"
)

// ReportOptions configures a ReportBuilder.
type ReportOptions struct {
	Region               string
	TopDistricts         int
	LowCoverageThreshold float64
	PDFEngine            string
	ChromeTimeout        time.Duration
	CSVByteOrderMark     bool
	Recommendations      analytics.RecommendationConfig

	// Clock supplies the generation time stamped on reports and file names.
	Clock func() time.Time
}

// DefaultReportOptions returns the options used when no configuration is
// available.
func DefaultReportOptions() ReportOptions {
	return ReportOptions{
		Region:               config.DefaultRegion,
		TopDistricts:         config.DefaultTopDistricts,
		LowCoverageThreshold: config.DefaultLowCoverageThreshold,
		PDFEngine:            config.PDFEngineNative,
		ChromeTimeout:        30 * time.Second,
		Recommendations:      analytics.DefaultRecommendationConfig(),
		Clock:                time.Now,
	}
}

// ReportOptionsFrom maps the application configuration onto builder options.
func ReportOptionsFrom(cfg *config.Config) ReportOptions {
	opts := DefaultReportOptions()
	if cfg == nil {
		return opts
	}
	opts.Region = cfg.Report.Region
	opts.TopDistricts = cfg.Report.TopDistricts
	opts.PDFEngine = cfg.Report.PDFEngine
	opts.ChromeTimeout = cfg.Report.ChromeTimeout
	opts.LowCoverageThreshold = cfg.Analysis.LowCoverageThreshold
	opts.Recommendations = analytics.RecommendationConfigFrom(cfg.Analysis)
	return opts
}

// ReportBuilder renders filtered records into downloadable artifacts. It
// never mutates its input and is safe for concurrent use.
type ReportBuilder struct {
	opts        ReportOptions
	logger      *slog.Logger
	metrics     *infrastructure.PipelineMetrics
	recommender *analytics.Recommender
	pdf         pdfRenderer
}

// NewReportBuilder creates a builder. Zero-valued options fall back to their
// defaults.
func NewReportBuilder(opts ReportOptions, logger *slog.Logger) *ReportBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultReportOptions()
	if strings.TrimSpace(opts.Region) == "" {
		opts.Region = defaults.Region
	}
	if opts.TopDistricts <= 0 {
		opts.TopDistricts = defaults.TopDistricts
	}
	if opts.LowCoverageThreshold <= 0 {
		opts.LowCoverageThreshold = defaults.LowCoverageThreshold
	}
	if opts.ChromeTimeout <= 0 {
		opts.ChromeTimeout = defaults.ChromeTimeout
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Recommendations == (analytics.RecommendationConfig{}) {
		opts.Recommendations = defaults.Recommendations
	}

	b := &ReportBuilder{
		opts:        opts,
		logger:      infrastructure.ComponentLogger(logger, "report_builder"),
		recommender: analytics.NewRecommender(opts.Recommendations),
	}
	switch strings.ToLower(opts.PDFEngine) {
	case config.PDFEngineChrome:
		b.pdf = chromeRenderer{timeout: opts.ChromeTimeout}
	default:
		b.pdf = nativeRenderer{}
	}
	return b
}

// WithMetrics attaches export instruments to the builder.
func (b *ReportBuilder) WithMetrics(m *infrastructure.PipelineMetrics) *ReportBuilder {
	b.metrics = m
	return b
}

// Options returns the effective builder options.
func (b *ReportBuilder) Options() ReportOptions {
	return b.opts
}

// CSV renders the records as CSV text.
func (b *ReportBuilder) CSV(records []domain.VaccinationRecord) Artifact {
	return b.Build(context.Background(), domain.ReportFormatCSV, records)
}

// Spreadsheet renders the three-sheet workbook.
func (b *ReportBuilder) Spreadsheet(records []domain.VaccinationRecord) Artifact {
	return b.Build(context.Background(), domain.ReportFormatExcel, records)
}

// PDF renders the coverage report document.
func (b *ReportBuilder) PDF(records []domain.VaccinationRecord) Artifact {
	return b.Build(context.Background(), domain.ReportFormatPDF, records)
}

// Text renders the plain-text summary report.
func (b *ReportBuilder) Text(records []domain.VaccinationRecord) Artifact {
	return b.Build(context.Background(), domain.ReportFormatText, records)
}

// Build renders one format stamped with the current clock reading.
func (b *ReportBuilder) Build(ctx context.Context, format domain.ReportFormat, records []domain.VaccinationRecord) Artifact {
	return b.buildAt(ctx, format, records, b.opts.Clock())
}

// buildAt renders format at a fixed generation time. Renderer errors and
// panics end up in Artifact.Err as EXPORT errors; they never propagate.
func (b *ReportBuilder) buildAt(ctx context.Context, format domain.ReportFormat, records []domain.VaccinationRecord, at time.Time) (art Artifact) {
	art = newArtifact(format, at)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			art.Data = nil
			art.Err = apperrors.NewExportError(string(format), fmt.Errorf("panic: %v", r)).
				WithContext("stack", string(debug.Stack()))
		}
		b.metrics.RecordExport(ctx, string(format), art.Err == nil, time.Since(start))
		b.logResult(ctx, art, time.Since(start))
	}()

	var (
		data []byte
		err  error
	)
	switch format {
	case domain.ReportFormatCSV:
		data, err = b.renderCSV(records)
	case domain.ReportFormatExcel:
		data, err = b.renderSpreadsheet(records)
	case domain.ReportFormatPDF:
		data, err = b.pdf.render(ctx, b.content(records, at))
	case domain.ReportFormatText:
		data, err = b.renderText(b.content(records, at))
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		art.Err = apperrors.NewExportError(string(format), err)
		return art
	}
	art.Data = data
	return art
}

func (b *ReportBuilder) logResult(ctx context.Context, art Artifact, elapsed time.Duration) {
	if art.Err != nil {
		b.logger.WarnContext(ctx, "export unavailable",
			slog.String("format", string(art.Format)),
			slog.String("error", art.Err.Error()))
		return
	}
	b.logger.DebugContext(ctx, "export built",
		slog.String("format", string(art.Format)),
		slog.String("file_name", art.FileName),
		slog.Int("bytes", art.Size()),
		slog.Duration("elapsed", elapsed))
}
