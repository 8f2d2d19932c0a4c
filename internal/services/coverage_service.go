package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"vaxpulse/internal/analytics"
	"vaxpulse/internal/charts"
	"vaxpulse/internal/config"
	"vaxpulse/internal/dataprocessing"
	apperrors "vaxpulse/internal/errors"
	"vaxpulse/internal/exporter"
	"vaxpulse/internal/files"
	"vaxpulse/internal/infrastructure"
	"vaxpulse/internal/source"
	"vaxpulse/internal/validation"
	"vaxpulse/pkg/contracts/domain"
)

// dataset is one validated canonical table. It is never modified after it
// has been published; reloads replace it wholesale.
type dataset struct {
	records  []domain.VaccinationRecord
	quality  domain.DataQualityReport
	source   string
	loadedAt time.Time
}

// DatasetStatus describes the active canonical table.
type DatasetStatus struct {
	Loaded   bool      `json:"loaded"`
	Source   string    `json:"source,omitempty"`
	Records  int       `json:"records"`
	Dropped  int       `json:"dropped"`
	LoadedAt time.Time `json:"loaded_at,omitempty"`
}

// LoadResult summarises one ingestion.
type LoadResult struct {
	Source  string                   `json:"source"`
	RawRows int                      `json:"raw_rows"`
	Records int                      `json:"records"`
	Dropped dataprocessing.DropStats `json:"dropped"`
}

// Option configures a CoverageService.
type Option func(*CoverageService)

// WithMetrics records loads and exports on m.
func WithMetrics(m *infrastructure.PipelineMetrics) Option {
	return func(s *CoverageService) { s.metrics = m }
}

// WithTracer replaces the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(s *CoverageService) { s.tracer = t }
}

// WithClock fixes the time used for export names and report stamps.
func WithClock(clock func() time.Time) Option {
	return func(s *CoverageService) { s.clock = clock }
}

// WithUploadDir keeps a copy of every accepted upload in dir.
func WithUploadDir(dir string) Option {
	return func(s *CoverageService) { s.uploadDir = dir }
}

// CoverageService owns the canonical vaccination table and answers filtered
// queries over it. Every query works on a private filtered copy, so readers
// never block each other and never observe a half-loaded dataset.
type CoverageService struct {
	mu   sync.RWMutex
	data *dataset

	cfg       *config.Config
	loader    source.Loader
	validator *dataprocessing.Validator
	files     *validation.FileValidator
	reports   *exporter.ReportBuilder
	charts    *charts.Builder
	recommend *analytics.Recommender
	targets   analytics.Targets
	uploadDir string

	clock   func() time.Time
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
	logger  *slog.Logger
}

// NewCoverageService wires the pipeline from cfg. loader may be nil when data
// only arrives through uploads.
func NewCoverageService(cfg *config.Config, loader source.Loader, logger *slog.Logger, opts ...Option) *CoverageService {
	if cfg == nil {
		cfg = config.Default()
	}
	logger = infrastructure.ComponentLogger(logger, "coverage_service")

	s := &CoverageService{
		cfg:    cfg,
		loader: loader,
		validator: dataprocessing.NewValidator(logger, dataprocessing.ValidatorConfig{
			RequiredVaccines: cfg.Analysis.RequiredVaccines,
		}),
		files:     validation.NewFileValidator(logger),
		charts:    charts.NewBuilder(charts.ConfigFrom(cfg)),
		recommend: analytics.NewRecommender(analytics.RecommendationConfigFrom(cfg.Analysis)),
		targets: analytics.Targets{
			Minimum:      cfg.Analysis.CriticalThreshold,
			WHO:          cfg.Analysis.WHOTarget,
			LowThreshold: cfg.Analysis.LowCoverageThreshold,
		},
		clock:  time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(infrastructure.InstrumentationName)
	}

	reportOpts := exporter.ReportOptionsFrom(cfg)
	reportOpts.Clock = s.clock
	s.reports = exporter.NewReportBuilder(reportOpts, logger).WithMetrics(s.metrics)
	return s
}

// Reload reads the configured source and replaces the canonical table.
func (s *CoverageService) Reload(ctx context.Context) (*LoadResult, error) {
	ctx, span := s.tracer.Start(ctx, "coverage.reload")
	defer span.End()

	if s.loader == nil {
		err := apperrors.NewConfigError("no data source configured", nil).WithStage(apperrors.StageLoad)
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	raw, err := s.loader.Load(ctx)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}
	return s.ingest(ctx, raw, s.loader.Describe())
}

// Upload parses an uploaded CSV or XLSX dataset and, when it passes schema
// validation, replaces the canonical table. A rejected upload leaves the
// current table in place.
func (s *CoverageService) Upload(ctx context.Context, filename string, r io.Reader) (*LoadResult, error) {
	ctx, span := s.tracer.Start(ctx, "coverage.upload", trace.WithAttributes(attribute.String("file", filename)))
	defer span.End()

	if err := s.files.ValidateDatasetName(filename); err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.NewStorageError("read upload", err)
	}

	name := filepath.Base(filename)
	var raw domain.RawTable
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		raw, err = dataprocessing.ReadWorkbook(bytes.NewReader(data), name, "")
	default:
		raw, err = dataprocessing.ReadCSV(bytes.NewReader(data), name)
	}
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	result, err := s.ingest(ctx, raw, name)
	if err != nil {
		return nil, err
	}
	s.keepUpload(ctx, name, data)
	return result, nil
}

// keepUpload stores an accepted upload. Failure to do so is logged only; the
// dataset is already live.
func (s *CoverageService) keepUpload(ctx context.Context, name string, data []byte) {
	if s.uploadDir == "" {
		return
	}
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		s.logger.WarnContext(ctx, "upload not kept", slog.String("error", err.Error()))
		return
	}
	path := filepath.Join(s.uploadDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.logger.WarnContext(ctx, "upload not kept", slog.String("error", err.Error()))
		return
	}
	s.logger.InfoContext(ctx, "upload kept", slog.String("path", path))

	removed, err := files.NewDiscovery(s.uploadDir).Prune(s.cfg.Paths.KeepUploads)
	if err != nil {
		s.logger.WarnContext(ctx, "upload pruning failed", slog.String("error", err.Error()))
	}
	if len(removed) > 0 {
		s.logger.InfoContext(ctx, "old uploads pruned", slog.Int("removed", len(removed)))
	}
}

// Ingest validates raw and publishes it as the canonical table.
func (s *CoverageService) Ingest(ctx context.Context, raw domain.RawTable) (*LoadResult, error) {
	return s.ingest(ctx, raw, raw.Source)
}

func (s *CoverageService) ingest(ctx context.Context, raw domain.RawTable, src string) (*LoadResult, error) {
	ctx, span := s.tracer.Start(ctx, "coverage.validate")
	defer span.End()

	result, err := s.validator.Validate(raw)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	next := &dataset{
		records:  result.Records,
		quality:  dataprocessing.QualityReport(raw, result),
		source:   src,
		loadedAt: s.clock(),
	}
	s.mu.Lock()
	s.data = next
	s.mu.Unlock()

	s.metrics.RecordLoad(ctx, src, len(result.Records), result.Drops.AsMap())
	span.SetAttributes(
		attribute.Int("records", len(result.Records)),
		attribute.Int("dropped", result.Drops.Total()))
	s.logger.InfoContext(ctx, "dataset published",
		slog.String("source", src),
		slog.Int("records", len(result.Records)),
		slog.Int("dropped", result.Drops.Total()))

	return &LoadResult{
		Source:  src,
		RawRows: result.RawRows,
		Records: len(result.Records),
		Dropped: result.Drops,
	}, nil
}

// Status describes the active dataset.
func (s *CoverageService) Status() DatasetStatus {
	d := s.snapshot()
	if d == nil {
		return DatasetStatus{}
	}
	return DatasetStatus{
		Loaded:   true,
		Source:   d.source,
		Records:  len(d.records),
		Dropped:  d.quality.DroppedRows,
		LoadedAt: d.loadedAt,
	}
}

func (s *CoverageService) snapshot() *dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

// loaded returns the active dataset or a NO_DATA error.
func (s *CoverageService) loaded() (*dataset, error) {
	d := s.snapshot()
	if d == nil || len(d.records) == 0 {
		return nil, apperrors.NewEmptyResultError(apperrors.StageLoad)
	}
	return d, nil
}

// Select returns a private filtered copy of the canonical table. An empty
// selection is ErrEmptyResult.
func (s *CoverageService) Select(ctx context.Context, sel domain.FilterSelection) ([]domain.VaccinationRecord, error) {
	records, err := s.selectAllowEmpty(ctx, sel)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperrors.NewEmptyResultError(apperrors.StageFilter)
	}
	return records, nil
}

func (s *CoverageService) selectAllowEmpty(ctx context.Context, sel domain.FilterSelection) ([]domain.VaccinationRecord, error) {
	_, span := s.tracer.Start(ctx, "coverage.filter")
	defer span.End()

	if err := dataprocessing.ValidateSelection(sel); err != nil {
		return nil, err
	}
	d, err := s.loaded()
	if err != nil {
		return nil, err
	}
	records := dataprocessing.Filter(d.records, sel)
	span.SetAttributes(attribute.Int("matched", len(records)))
	return records, nil
}

// Summary returns the coverage and demographic statistics of a selection.
func (s *CoverageService) Summary(ctx context.Context, sel domain.FilterSelection) (domain.SummaryStatistics, error) {
	records, err := s.Select(ctx, sel)
	if err != nil {
		return domain.SummaryStatistics{}, err
	}
	return analytics.SummaryStatistics(records, s.cfg.Analysis.LowCoverageThreshold), nil
}

// Indicators returns the headline KPIs of a selection.
func (s *CoverageService) Indicators(ctx context.Context, sel domain.FilterSelection) (domain.KeyIndicators, error) {
	records, err := s.Select(ctx, sel)
	if err != nil {
		return domain.KeyIndicators{}, err
	}
	return analytics.KeyIndicators(records, s.targets), nil
}

// Districts returns per-district summaries, best first.
func (s *CoverageService) Districts(ctx context.Context, sel domain.FilterSelection) ([]domain.DistrictSummary, error) {
	records, err := s.Select(ctx, sel)
	if err != nil {
		return nil, err
	}
	return analytics.DistrictSummaries(records), nil
}

// LowCoverage returns the districts below the configured threshold, worst
// first. threshold <= 0 uses the configured one.
func (s *CoverageService) LowCoverage(ctx context.Context, sel domain.FilterSelection, threshold float64) ([]domain.DistrictCoverage, error) {
	records, err := s.Select(ctx, sel)
	if err != nil {
		return nil, err
	}
	if threshold <= 0 {
		threshold = s.cfg.Analysis.LowCoverageThreshold
	}
	return analytics.LowCoverageDistricts(records, threshold), nil
}

// Demographics returns the age group by gender breakdown.
func (s *CoverageService) Demographics(ctx context.Context, sel domain.FilterSelection) ([]domain.DemographicCell, error) {
	records, err := s.Select(ctx, sel)
	if err != nil {
		return nil, err
	}
	return analytics.DemographicBreakdown(records), nil
}

// Recommendations runs the rule engine. An empty selection yields the
// no-data recommendation rather than an error.
func (s *CoverageService) Recommendations(ctx context.Context, sel domain.FilterSelection) ([]analytics.Recommendation, error) {
	records, err := s.selectAllowEmpty(ctx, sel)
	if err != nil {
		return nil, err
	}
	return s.recommend.Generate(records), nil
}

// Chart builds one dashboard chart for a selection.
func (s *CoverageService) Chart(ctx context.Context, id string, sel domain.FilterSelection) (charts.Spec, error) {
	records, err := s.Select(ctx, sel)
	if err != nil {
		return charts.Spec{}, err
	}
	return s.charts.Build(id, records)
}

// Export builds one artifact for a selection. A failed render is returned as
// the artifact error, wrapped as an EXPORT AppError.
func (s *CoverageService) Export(ctx context.Context, format domain.ReportFormat, sel domain.FilterSelection) (exporter.Artifact, error) {
	ctx, span := s.tracer.Start(ctx, "coverage.export", trace.WithAttributes(attribute.String("format", string(format))))
	defer span.End()

	records, err := s.Select(ctx, sel)
	if err != nil {
		return exporter.Artifact{}, err
	}
	art := s.reports.Build(ctx, format, records)
	if art.Err != nil {
		infrastructure.RecordError(ctx, art.Err)
		return art, art.Err
	}
	span.SetAttributes(attribute.Int("bytes", art.Size()))
	return art, nil
}

// ExportAll builds every format concurrently and writes the available ones
// into dir. It returns the written paths and the artifacts, including failed
// ones.
func (s *CoverageService) ExportAll(ctx context.Context, sel domain.FilterSelection, dir string) ([]string, []exporter.Artifact, error) {
	ctx, span := s.tracer.Start(ctx, "coverage.export_all")
	defer span.End()

	records, err := s.Select(ctx, sel)
	if err != nil {
		return nil, nil, err
	}
	if err := s.files.ValidateOutputDirectory(dir); err != nil {
		return nil, nil, err
	}

	artifacts := s.reports.Bundle(ctx, records)
	written, err := exporter.WriteBundle(dir, artifacts)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return written, artifacts, err
	}
	if len(written) == 0 {
		return nil, artifacts, apperrors.NewExportError("bundle", fmt.Errorf("no artifact could be built"))
	}
	return written, artifacts, nil
}

// Quality returns the data quality report of the active dataset.
func (s *CoverageService) Quality() (domain.DataQualityReport, error) {
	d := s.snapshot()
	if d == nil {
		return dataprocessing.QualityReport(domain.RawTable{}, nil), apperrors.NewEmptyResultError(apperrors.StageLoad)
	}
	return d.quality, nil
}

// Options lists the selectable filter values over the whole dataset.
func (s *CoverageService) Options() (domain.FilterOptions, error) {
	d, err := s.loaded()
	if err != nil {
		return domain.FilterOptions{}, err
	}
	return dataprocessing.Options(d.records), nil
}
