package source

import (
	"context"
	"log/slog"
	"os"
	"time"

	"vaxpulse/internal/dataprocessing"
	apperrors "vaxpulse/internal/errors"
	"vaxpulse/internal/files"
	"vaxpulse/internal/infrastructure"
	"vaxpulse/internal/validation"
	"vaxpulse/pkg/contracts/domain"
)

// FileSource reads a .csv or .xlsx dataset from disk. A directory path loads
// the most recently modified dataset inside it.
type FileSource struct {
	path   string
	sheet  string
	logger *slog.Logger
}

// NewFileSource creates a file loader. sheet is optional and only used for
// workbooks.
func NewFileSource(path, sheet string, logger *slog.Logger) *FileSource {
	return &FileSource{
		path:   path,
		sheet:  sheet,
		logger: infrastructure.ComponentLogger(logger, "file_source"),
	}
}

// Describe returns the dataset path.
func (s *FileSource) Describe() string { return s.path }

// Load reads the file.
func (s *FileSource) Load(ctx context.Context) (domain.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return domain.RawTable{}, err
	}

	path, err := s.resolve(ctx)
	if err != nil {
		return domain.RawTable{}, err
	}

	start := time.Now()
	table, err := dataprocessing.ReadFile(path, s.sheet)
	if err != nil {
		s.logger.ErrorContext(ctx, "dataset read failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return domain.RawTable{}, err
	}

	s.logger.InfoContext(ctx, "dataset read",
		slog.String("path", path),
		slog.Int("rows", table.Len()),
		slog.Int("columns", len(table.Columns)),
		slog.Duration("duration", time.Since(start)))
	return table, nil
}

// resolve returns the file to read: the configured path, or the latest
// dataset when the path is a directory.
func (s *FileSource) resolve(ctx context.Context) (string, error) {
	info, err := os.Stat(s.path)
	if err != nil || !info.IsDir() {
		if err := validation.NewFileValidator(s.logger).ValidateDatasetFile(s.path); err != nil {
			return "", err
		}
		return s.path, nil
	}

	latest, err := files.NewDiscovery(s.path).Latest()
	if err != nil {
		return "", apperrors.NewStorageError("no dataset to load", err).WithContext("dir", s.path)
	}
	s.logger.DebugContext(ctx, "dataset discovered",
		slog.String("dir", s.path),
		slog.String("file", latest.Name))
	return latest.Path, nil
}
