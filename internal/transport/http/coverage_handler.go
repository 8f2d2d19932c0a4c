package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "vaxpulse/internal/errors"
	"vaxpulse/internal/infrastructure"
	customMiddleware "vaxpulse/internal/middleware"
	api "vaxpulse/pkg/contracts/api/v1"
	"vaxpulse/pkg/contracts/domain"
)

// UploadField is the multipart form field carrying the dataset file.
const UploadField = "file"

// uploadMemory is the part of a multipart upload kept in memory; the rest
// spills to temporary files.
const uploadMemory = 8 << 20

// CoverageHandler serves the coverage API with RFC 7807 error responses.
type CoverageHandler struct {
	service        CoverageServiceInterface
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
	queries        *customMiddleware.QueryParamValidator
	maxUploadBytes int64
	lowThreshold   float64
}

// NewCoverageHandler creates a coverage handler. maxUploadBytes caps dataset
// uploads; lowThreshold is the default of the low-coverage query.
func NewCoverageHandler(service CoverageServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, maxUploadBytes int64, lowThreshold float64) *CoverageHandler {
	logger = infrastructure.ComponentLogger(logger, "coverage_handler")
	return &CoverageHandler{
		service:        service,
		logger:         logger,
		errorHandler:   errorHandler,
		queries:        customMiddleware.NewQueryParamValidator(logger, errorHandler),
		maxUploadBytes: maxUploadBytes,
		lowThreshold:   lowThreshold,
	}
}

// Routes returns the coverage routes, mounted under /api/v1.
func (h *CoverageHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/summary", h.GetSummary)
		r.Get("/indicators", h.GetIndicators)
		r.Get("/districts", h.GetDistricts)
		r.Get("/low-coverage", h.GetLowCoverage)
		r.Get("/demographics", h.GetDemographics)
		r.Get("/recommendations", h.GetRecommendations)
		r.Get("/options", h.GetOptions)
		r.Get("/quality", h.GetQuality)
		r.Get("/charts/{chart}", h.GetChart)

		r.Route("/dataset", func(r chi.Router) {
			audit := customMiddleware.AuditLog(h.logger)
			r.Get("/", h.GetDatasetStatus)
			r.With(audit, customMiddleware.ContentTypeValidator("multipart/form-data")).Post("/", h.UploadDataset)
			r.With(audit).Post("/reload", h.ReloadDataset)
		})
	})

	r.Get("/export/{format}", h.Export)

	return r
}

// GetSummary handles GET /api/v1/summary
func (h *CoverageHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.queries.ParseSelection(w, r)
	if !ok {
		return
	}
	summary, err := h.service.Summary(r.Context(), sel)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.OK(summary))
}

// GetIndicators handles GET /api/v1/indicators
func (h *CoverageHandler) GetIndicators(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.queries.ParseSelection(w, r)
	if !ok {
		return
	}
	kpi, err := h.service.Indicators(r.Context(), sel)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.OK(kpi))
}

// GetDistricts handles GET /api/v1/districts
func (h *CoverageHandler) GetDistricts(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.queries.ParseSelection(w, r)
	if !ok {
		return
	}
	districts, err := h.service.Districts(r.Context(), sel)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.List(districts, len(districts)))
}

// GetLowCoverage handles GET /api/v1/low-coverage?threshold=70
func (h *CoverageHandler) GetLowCoverage(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.queries.ParseSelection(w, r)
	if !ok {
		return
	}
	threshold, ok := h.queries.ValidateFloat(w, r, "threshold", 0, 100, h.lowThreshold)
	if !ok {
		return
	}
	low, err := h.service.LowCoverage(r.Context(), sel, threshold)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.List(low, len(low)))
}

// GetDemographics handles GET /api/v1/demographics
func (h *CoverageHandler) GetDemographics(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.queries.ParseSelection(w, r)
	if !ok {
		return
	}
	cells, err := h.service.Demographics(r.Context(), sel)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.List(cells, len(cells)))
}

// GetRecommendations handles GET /api/v1/recommendations
func (h *CoverageHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.queries.ParseSelection(w, r)
	if !ok {
		return
	}
	recs, err := h.service.Recommendations(r.Context(), sel)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.List(recs, len(recs)))
}

// GetOptions handles GET /api/v1/options
func (h *CoverageHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.service.Options()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.OK(opts))
}

// GetQuality handles GET /api/v1/quality
func (h *CoverageHandler) GetQuality(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Quality()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.OK(report))
}

// GetDatasetStatus handles GET /api/v1/dataset
func (h *CoverageHandler) GetDatasetStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, api.OK(h.service.Status()))
}

// GetChart handles GET /api/v1/charts/{chart}
func (h *CoverageHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.queries.ParseSelection(w, r)
	if !ok {
		return
	}
	spec, err := h.service.Chart(r.Context(), chi.URLParam(r, "chart"), sel)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.OK(spec))
}

// Export handles GET /api/v1/export/{format} and streams the artifact as an
// attachment.
func (h *CoverageHandler) Export(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "format")
	format, known := domain.ParseReportFormat(name)
	if !known {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format",
			fmt.Sprintf("unknown export format %q; use csv, xlsx, pdf or txt", name)))
		return
	}

	sel, ok := h.queries.ParseSelection(w, r)
	if !ok {
		return
	}

	art, err := h.service.Export(r.Context(), format, sel)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "export served",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("format", string(format)),
		slog.String("file", art.FileName),
		slog.Int("bytes", art.Size()),
	)

	w.Header().Set("Content-Type", art.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", art.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(art.Size()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(art.Data)
}

// UploadDataset handles POST /api/v1/dataset with a multipart CSV or XLSX
// file. The dataset replaces the active one only if it is accepted.
func (h *CoverageHandler) UploadDataset(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	if err := r.ParseMultipartForm(uploadMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusRequestEntityTooLarge,
				apierrors.ErrPayloadTooLarge.ErrorCode,
				apierrors.ErrPayloadTooLarge.Message,
				map[string]interface{}{"max_bytes": tooLarge.Limit},
			))
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile(UploadField)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation(UploadField, "a CSV or XLSX file is required"))
		return
	}
	defer file.Close()

	result, err := h.service.Upload(r.Context(), header.Filename, file)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, api.OK(h.uploadResponse(result.Source, result.RawRows, result.Records, result.Dropped.AsMap())))
}

// ReloadDataset handles POST /api/v1/dataset/reload
func (h *CoverageHandler) ReloadDataset(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Reload(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.OK(h.uploadResponse(result.Source, result.RawRows, result.Records, result.Dropped.AsMap())))
}

func (h *CoverageHandler) uploadResponse(source string, rawRows, records int, dropped map[string]int) api.UploadResponse {
	return api.UploadResponse{
		Source:   source,
		RawRows:  rawRows,
		Records:  records,
		Dropped:  dropped,
		LoadedAt: h.service.Status().LoadedAt,
	}
}
