package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaxpulse/internal/config"
	"vaxpulse/internal/dataprocessing"
	apierrors "vaxpulse/internal/errors"
	customMiddleware "vaxpulse/internal/middleware"
	"vaxpulse/internal/services"
	"vaxpulse/internal/shared/testutil"
	"vaxpulse/pkg/contracts/domain"
)

var handlerNow = time.Date(2024, time.May, 1, 9, 30, 0, 0, time.UTC)

const ludhianaCSV = "District,Village,Child ID,Vaccine Type,Date,Age Group,Gender,Coverage Percentage\n" +
	"ludhiana,model town,L1,BCG,2024-02-01,0-1 years,Male,88\n" +
	"ludhiana,model town,L2,BCG,2024-02-02,0-1 years,Female,91\n"

type fixtureLoader struct{}

func (fixtureLoader) Load(ctx context.Context) (domain.RawTable, error) {
	return dataprocessing.ToRawTable("fixture", testutil.SampleRecords()), nil
}

func (fixtureLoader) Describe() string { return "fixture" }

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Count  *int            `json:"count"`
}

func newTestRouter(t *testing.T, withLoader, load bool, maxUpload int64) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)

	opts := []services.Option{
		services.WithClock(func() time.Time { return handlerNow }),
		services.WithUploadDir(t.TempDir()),
	}
	var svc *services.CoverageService
	if withLoader {
		svc = services.NewCoverageService(config.Default(), fixtureLoader{}, logger, opts...)
	} else {
		svc = services.NewCoverageService(config.Default(), nil, logger, opts...)
	}
	if load {
		_, err := svc.Reload(context.Background())
		require.NoError(t, err)
	}

	errorHandler := apierrors.NewErrorHandler(logger, false)
	h := NewCoverageHandler(svc, logger, errorHandler, maxUpload, 70)

	r := chi.NewRouter()
	r.Use(customMiddleware.RequestID)
	r.Mount("/api/v1", h.Routes())
	return r
}

func do(t *testing.T, h http.Handler, method, target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, body)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, into interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	assert.Equal(t, "success", env.Status)
	if into != nil {
		require.NoError(t, json.Unmarshal(env.Data, into))
	}
	return env
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(UploadField, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestCoverageHandler_Summary(t *testing.T) {
	r := newTestRouter(t, true, true, 1<<20)

	rec := do(t, r, http.MethodGet, "/api/v1/summary", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary domain.SummaryStatistics
	decodeEnvelope(t, rec, &summary)
	assert.Equal(t, 6, summary.Coverage.RecordCount)
	assert.InDelta(t, 76.1667, summary.Coverage.OverallCoverage, 0.001)
	assert.Equal(t, 2, summary.Demographics.TotalDistricts)
}

func TestCoverageHandler_SelectionQuery(t *testing.T) {
	r := newTestRouter(t, true, true, 1<<20)

	tests := []struct {
		name      string
		target    string
		wantCode  int
		wantType  string
		wantCount int
	}{
		{
			name:      "district filter",
			target:    "/api/v1/districts?district=mohali",
			wantCode:  http.StatusOK,
			wantCount: 1,
		},
		{
			name:      "date range",
			target:    "/api/v1/districts?start=2024-01-01&end=2024-01-31",
			wantCode:  http.StatusOK,
			wantCount: 2,
		},
		{
			name:     "no match",
			target:   "/api/v1/districts?district=Nowhere",
			wantCode: http.StatusNotFound,
			wantType: apierrors.TypeNoData,
		},
		{
			name:     "malformed date",
			target:   "/api/v1/summary?start=01/02/2024&end=2024-03-01",
			wantCode: http.StatusBadRequest,
			wantType: apierrors.TypeValidation,
		},
		{
			name:     "inverted range",
			target:   "/api/v1/summary?start=2024-03-01&end=2024-01-01",
			wantCode: http.StatusBadRequest,
			wantType: apierrors.TypeFilterInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, r, http.MethodGet, tt.target, nil, "")
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantType != "" {
				body := decodeProblem(t, rec)
				assert.Equal(t, tt.wantType, body["type"])
				assert.NotEmpty(t, body["trace_id"])
				return
			}
			env := decodeEnvelope(t, rec, nil)
			require.NotNil(t, env.Count)
			assert.Equal(t, tt.wantCount, *env.Count)
		})
	}
}

func TestCoverageHandler_LowCoverage(t *testing.T) {
	r := newTestRouter(t, true, true, 1<<20)

	var low []domain.DistrictCoverage
	rec := do(t, r, http.MethodGet, "/api/v1/low-coverage", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeEnvelope(t, rec, &low)
	require.Len(t, low, 1)
	assert.Equal(t, "Mohali", low[0].District)

	rec = do(t, r, http.MethodGet, "/api/v1/low-coverage?threshold=95", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeEnvelope(t, rec, &low)
	assert.Len(t, low, 2)

	rec = do(t, r, http.MethodGet, "/api/v1/low-coverage?threshold=high", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCoverageHandler_Lists(t *testing.T) {
	r := newTestRouter(t, true, true, 1<<20)

	for _, path := range []string{"/api/v1/demographics", "/api/v1/recommendations"} {
		t.Run(path, func(t *testing.T) {
			rec := do(t, r, http.MethodGet, path, nil, "")
			require.Equal(t, http.StatusOK, rec.Code)
			env := decodeEnvelope(t, rec, nil)
			require.NotNil(t, env.Count)
			assert.Positive(t, *env.Count)
		})
	}

	for _, path := range []string{"/api/v1/indicators", "/api/v1/options", "/api/v1/quality", "/api/v1/dataset"} {
		t.Run(path, func(t *testing.T) {
			rec := do(t, r, http.MethodGet, path, nil, "")
			require.Equal(t, http.StatusOK, rec.Code)
			env := decodeEnvelope(t, rec, nil)
			assert.Nil(t, env.Count)
			assert.NotEmpty(t, env.Data)
		})
	}
}

func TestCoverageHandler_Charts(t *testing.T) {
	r := newTestRouter(t, true, true, 1<<20)

	rec := do(t, r, http.MethodGet, "/api/v1/charts/district-coverage", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var spec struct {
		ID     string `json:"id"`
		Series []struct {
			Labels []string `json:"labels"`
		} `json:"series"`
	}
	decodeEnvelope(t, rec, &spec)
	assert.Equal(t, "district-coverage", spec.ID)
	assert.Equal(t, []string{"Mohali", "Chandigarh"}, spec.Series[0].Labels)

	rec = do(t, r, http.MethodGet, "/api/v1/charts/radar", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apierrors.TypeNotFound, decodeProblem(t, rec)["type"])
}

func TestCoverageHandler_Export(t *testing.T) {
	r := newTestRouter(t, true, true, 1<<20)

	rec := do(t, r, http.MethodGet, "/api/v1/export/txt", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="vaccination_summary_20240501.txt"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "VACCINATION COVERAGE SUMMARY REPORT"))
	assert.Equal(t, strconv.Itoa(rec.Body.Len()), rec.Header().Get("Content-Length"))

	rec = do(t, r, http.MethodGet, "/api/v1/export/csv?district=Chandigarh", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	parsed, err := dataprocessing.ReadCSV(rec.Body, "export")
	require.NoError(t, err)
	assert.Equal(t, 3, parsed.Len())

	rec = do(t, r, http.MethodGet, "/api/v1/export/docx", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/v1/export/pdf?vaccine=Polio", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCoverageHandler_NoDataset(t *testing.T) {
	r := newTestRouter(t, false, false, 1<<20)

	rec := do(t, r, http.MethodGet, "/api/v1/summary", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, "NO_DATA", body["error_code"])
	assert.Equal(t, apierrors.StageLoad, body["stage"])

	rec = do(t, r, http.MethodPost, "/api/v1/dataset/reload", nil, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apierrors.TypeNotConfigured, decodeProblem(t, rec)["type"])
}

func TestCoverageHandler_Reload(t *testing.T) {
	r := newTestRouter(t, true, false, 1<<20)

	rec := do(t, r, http.MethodPost, "/api/v1/dataset/reload", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Source  string `json:"source"`
		Records int    `json:"records"`
	}
	decodeEnvelope(t, rec, &resp)
	assert.Equal(t, "fixture", resp.Source)
	assert.Equal(t, 6, resp.Records)

	rec = do(t, r, http.MethodGet, "/api/v1/summary", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCoverageHandler_Upload(t *testing.T) {
	r := newTestRouter(t, false, false, 1<<20)

	body, contentType := multipartBody(t, "ludhiana.csv", ludhianaCSV)
	rec := do(t, r, http.MethodPost, "/api/v1/dataset", body, contentType)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Source   string         `json:"source"`
		Records  int            `json:"records"`
		Dropped  map[string]int `json:"dropped"`
		LoadedAt time.Time      `json:"loaded_at"`
	}
	decodeEnvelope(t, rec, &resp)
	assert.Equal(t, "ludhiana.csv", resp.Source)
	assert.Equal(t, 2, resp.Records)
	assert.Equal(t, 0, resp.Dropped[dataprocessing.DropBadDate])
	assert.True(t, handlerNow.Equal(resp.LoadedAt))

	var districts []domain.DistrictSummary
	rec = do(t, r, http.MethodGet, "/api/v1/districts", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeEnvelope(t, rec, &districts)
	require.Len(t, districts, 1)
	assert.Equal(t, "Ludhiana", districts[0].District)
}

func TestCoverageHandler_UploadRejected(t *testing.T) {
	tests := []struct {
		name        string
		maxUpload   int64
		file        string
		content     string
		contentType string
		wantCode    int
		wantType    string
	}{
		{
			name:      "missing columns",
			maxUpload: 1 << 20,
			file:      "records.csv",
			content:   "district,village\na,b\n",
			wantCode:  http.StatusUnprocessableEntity,
			wantType:  apierrors.TypeSchemaRejected,
		},
		{
			name:      "unsupported type",
			maxUpload: 1 << 20,
			file:      "records.json",
			content:   "{}",
			wantCode:  http.StatusBadRequest,
			wantType:  apierrors.TypeValidation,
		},
		{
			name:      "too large",
			maxUpload: 64,
			file:      "records.csv",
			content:   ludhianaCSV,
			wantCode:  http.StatusRequestEntityTooLarge,
			wantType:  apierrors.TypePayloadTooLarge,
		},
		{
			name:        "not multipart",
			maxUpload:   1 << 20,
			contentType: "text/csv",
			content:     ludhianaCSV,
			wantCode:    http.StatusUnsupportedMediaType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(t, true, true, tt.maxUpload)

			var body *bytes.Buffer
			contentType := tt.contentType
			if contentType == "" {
				body, contentType = multipartBody(t, tt.file, tt.content)
			} else {
				body = bytes.NewBufferString(tt.content)
			}

			rec := do(t, r, http.MethodPost, "/api/v1/dataset", body, contentType)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantType != "" {
				assert.Equal(t, tt.wantType, decodeProblem(t, rec)["type"])
			}

			var status services.DatasetStatus
			rec = do(t, r, http.MethodGet, "/api/v1/dataset", nil, "")
			decodeEnvelope(t, rec, &status)
			assert.Equal(t, 6, status.Records, "previous dataset stays live")
		})
	}
}
