package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeSchema      ErrorType = "SCHEMA"
	ErrTypeValidation  ErrorType = "VALIDATION"
	ErrTypeFilter      ErrorType = "FILTER"
	ErrTypeAggregation ErrorType = "AGGREGATION"
	ErrTypeExport      ErrorType = "EXPORT"
	ErrTypeParsing     ErrorType = "PARSING"
	ErrTypeStorage     ErrorType = "STORAGE"
	ErrTypeConfig      ErrorType = "CONFIG"
	ErrTypeNotFound    ErrorType = "NOT_FOUND"
)

// Pipeline stages reported on AppError.Stage.
const (
	StageLoad      = "load"
	StageValidate  = "validate"
	StageFilter    = "filter"
	StageAggregate = "aggregate"
	StageRecommend = "recommend"
	StageExport    = "export"
)

var (
	// ErrSchema is the sentinel wrapped by every SchemaError.
	ErrSchema = errors.New("dataset schema invalid")

	// ErrEmptyResult marks an operation that had nothing to work on.
	ErrEmptyResult = errors.New("no records match the current selection")
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Stage   string
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	prefix := string(e.Type)
	if e.Stage != "" {
		prefix = fmt.Sprintf("%s/%s", e.Type, e.Stage)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", prefix, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithStage records the pipeline stage that failed.
func (e *AppError) WithStage(stage string) *AppError {
	e.Stage = stage
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// SchemaError reports required columns absent from a raw dataset.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// Unwrap lets errors.Is(err, ErrSchema) match.
func (e *SchemaError) Unwrap() error {
	return ErrSchema
}

// NewSchemaError wraps a SchemaError in a validate-stage AppError.
func NewSchemaError(missing []string) *AppError {
	cause := &SchemaError{Missing: append([]string(nil), missing...)}
	return NewAppError(ErrTypeSchema, "dataset rejected", cause).
		WithStage(StageValidate).
		WithContext("missing_columns", cause.Missing)
}

// MissingColumns extracts the missing column list from err, if any.
func MissingColumns(err error) []string {
	var se *SchemaError
	if errors.As(err, &se) {
		return se.Missing
	}
	return nil
}

// IsSchemaError reports whether err is a schema rejection.
func IsSchemaError(err error) bool {
	return errors.Is(err, ErrSchema)
}

// NewEmptyResultError reports that a stage received no records.
func NewEmptyResultError(stage string) *AppError {
	return NewAppError(ErrTypeNotFound, "empty result", ErrEmptyResult).WithStage(stage)
}

// IsEmptyResult reports whether err signals an empty selection.
func IsEmptyResult(err error) bool {
	return errors.Is(err, ErrEmptyResult)
}

// ErrorTypeOf returns the AppError type of err, or "" when err is not one.
func ErrorTypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// Helper functions for common error types

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause).WithStage(StageLoad)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause).WithStage(StageLoad)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil).WithStage(StageValidate)
}

// NewFilterError creates a filter selection error
func NewFilterError(message string, cause error) *AppError {
	return NewAppError(ErrTypeFilter, message, cause).WithStage(StageFilter)
}

// NewAggregationError creates an aggregation error
func NewAggregationError(message string, cause error) *AppError {
	return NewAppError(ErrTypeAggregation, message, cause).WithStage(StageAggregate)
}

// NewExportError creates an export error for one format
func NewExportError(format string, cause error) *AppError {
	return NewAppError(ErrTypeExport, fmt.Sprintf("%s export failed", format), cause).
		WithStage(StageExport).
		WithContext("format", format)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
