package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "vaxpulse/internal/errors"
	"vaxpulse/internal/infrastructure"
	"vaxpulse/pkg/contracts/domain"
)

// DateLayout is the calendar date format accepted in query parameters.
const DateLayout = "2006-01-02"

// SelectionQuery is the raw filter selection as it arrives in the query
// string.
type SelectionQuery struct {
	District string `query:"district" validate:"omitempty,max=120"`
	Vaccine  string `query:"vaccine" validate:"omitempty,max=120"`
	AgeGroup string `query:"age_group" validate:"omitempty,max=60"`
	Gender   string `query:"gender" validate:"omitempty,max=30"`
	Start    string `query:"start" validate:"required_with=End,omitempty,isodate"`
	End      string `query:"end" validate:"required_with=Start,omitempty,isodate"`
}

// QueryParamValidator validates query parameters
type QueryParamValidator struct {
	validator    *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewQueryParamValidator creates a new query parameter validator
func NewQueryParamValidator(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *QueryParamValidator {
	v := validator.New()
	_ = v.RegisterValidation("isodate", isISODate)

	// Use query tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("query")
	})

	return &QueryParamValidator{
		validator:    v,
		logger:       infrastructure.ComponentLogger(logger, "query_validator"),
		errorHandler: errorHandler,
	}
}

// ParseSelection reads the filter selection from the query string. Absent
// categorical parameters mean "All"; the date range applies only when both
// start and end are present. On failure the problem response has already
// been written and ok is false.
func (v *QueryParamValidator) ParseSelection(w http.ResponseWriter, r *http.Request) (sel domain.FilterSelection, ok bool) {
	q := r.URL.Query()
	raw := SelectionQuery{
		District: strings.TrimSpace(q.Get("district")),
		Vaccine:  strings.TrimSpace(q.Get("vaccine")),
		AgeGroup: strings.TrimSpace(q.Get("age_group")),
		Gender:   strings.TrimSpace(q.Get("gender")),
		Start:    strings.TrimSpace(q.Get("start")),
		End:      strings.TrimSpace(q.Get("end")),
	}

	if err := v.validator.Struct(raw); err != nil {
		var fieldErrors []apierrors.ValidationError
		if verrs, isValidation := err.(validator.ValidationErrors); isValidation {
			for _, fe := range verrs {
				fieldErrors = append(fieldErrors, apierrors.ValidationError{
					Field:   fe.Field(),
					Message: formatValidationError(fe),
				})
			}
		}
		v.logger.DebugContext(r.Context(), "selection rejected",
			slog.String("query", r.URL.RawQuery),
			slog.Int("errors", len(fieldErrors)),
		)
		v.errorHandler.HandleError(w, r, apierrors.NewValidationErrors(fieldErrors))
		return sel, false
	}

	sel = domain.FilterSelection{
		District: orAll(raw.District),
		Vaccine:  orAll(raw.Vaccine),
		AgeGroup: orAll(raw.AgeGroup),
		Gender:   orAll(raw.Gender),
	}
	if raw.Start != "" && raw.End != "" {
		// both already passed isodate
		sel.DateRange.Start, _ = time.Parse(DateLayout, raw.Start)
		sel.DateRange.End, _ = time.Parse(DateLayout, raw.End)
	}
	return sel, true
}

// ValidateFloat validates a float query parameter
func (v *QueryParamValidator) ValidateFloat(w http.ResponseWriter, r *http.Request, param string, min, max, defaultValue float64) (float64, bool) {
	value := strings.TrimSpace(r.URL.Query().Get(param))
	if value == "" {
		return defaultValue, true
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		v.errorHandler.HandleError(w, r, apierrors.ErrValidation(param, fmt.Sprintf("%s must be a number", param)))
		return 0, false
	}
	if f < min || f > max {
		v.errorHandler.HandleError(w, r, apierrors.ErrValidation(param, fmt.Sprintf("%s must be between %g and %g", param, min, max)))
		return 0, false
	}
	return f, true
}

// ContentTypeValidator ensures requests with a body carry one of the allowed
// content types.
func ContentTypeValidator(contentTypes ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodDelete {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			for _, allowed := range contentTypes {
				if strings.HasPrefix(contentType, allowed) {
					next.ServeHTTP(w, r)
					return
				}
			}

			detail := "Content-Type header is required"
			if contentType != "" {
				detail = fmt.Sprintf("Unsupported content type %q", contentType)
			}
			render.Render(w, r, apierrors.NewProblemDetails(
				http.StatusUnsupportedMediaType,
				apierrors.TypeValidation,
				"Unsupported Media Type",
				detail,
				r.URL.Path,
			).WithExtension("allowed", contentTypes))
		})
	}
}

// formatValidationError formats validation error messages
func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	switch err.Tag() {
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, err.Param())
	case "isodate":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD form", field)
	case "required_with":
		return fmt.Sprintf("%s is required when %s is set", field, strings.ToLower(err.Param()))
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// isISODate validates the YYYY-MM-DD calendar date format
func isISODate(fl validator.FieldLevel) bool {
	_, err := time.Parse(DateLayout, fl.Field().String())
	return err == nil
}

func orAll(value string) string {
	if value == "" {
		return domain.AllValues
	}
	return value
}
