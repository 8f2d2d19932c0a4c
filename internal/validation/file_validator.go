package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "vaxpulse/internal/errors"
)

// DatasetExtensions are the file types the readers understand.
var DatasetExtensions = []string{".csv", ".xlsx"}

// FileValidator checks dataset files and output directories for the web
// server and the report CLI.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger.With(slog.String("component", "file_validator")),
	}
}

// ValidateDatasetName checks an uploaded or configured file name: a
// supported extension and not an office lock file.
func (v *FileValidator) ValidateDatasetName(name string) error {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return apperrors.NewAppValidationError("dataset file name is required")
	}

	if strings.HasPrefix(base, "~$") {
		v.logger.Warn("rejected temporary office file", slog.String("file", base))
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is a temporary office file", base))
	}

	ext := strings.ToLower(filepath.Ext(base))
	for _, ok := range DatasetExtensions {
		if ext == ok {
			return nil
		}
	}
	v.logger.Warn("rejected dataset extension",
		slog.String("file", base),
		slog.String("extension", ext))
	return apperrors.NewAppValidationError(
		fmt.Sprintf("unsupported dataset type %q (want %s)", ext, strings.Join(DatasetExtensions, " or "))).
		WithContext("file", base)
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("file does not exist", slog.String("file", path))
		return apperrors.NewStorageError(fmt.Sprintf("file %s does not exist", path), err)
	}
	if err != nil {
		v.logger.Error("failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("stat %s", path), err)
	}
	if info.IsDir() {
		v.logger.Error("path is a directory, not a file", slog.String("path", path))
		return apperrors.NewStorageError(fmt.Sprintf("%s is a directory, not a file", path), nil)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("file is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("file %s is not readable", path), err)
	}
	file.Close()

	v.logger.Debug("file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateDatasetFile checks that path is a readable dataset of a supported
// type.
func (v *FileValidator) ValidateDatasetFile(path string) error {
	if err := v.ValidateDatasetName(path); err != nil {
		return err
	}
	return v.ValidateFile(path)
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		v.logger.Error("failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("create output directory %s", dir), err)
	}

	// probe writability; MkdirAll succeeds on existing read-only dirs
	probe, err := os.CreateTemp(dir, ".write_test_*")
	if err != nil {
		v.logger.Error("output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)

	v.logger.Debug("output directory validated", slog.String("directory", dir))
	return nil
}
