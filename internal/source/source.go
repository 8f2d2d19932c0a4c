// Package source loads raw vaccination tables from files or SQL databases.
package source

import (
	"context"
	"fmt"
	"log/slog"

	"vaxpulse/internal/config"
	apperrors "vaxpulse/internal/errors"
	"vaxpulse/pkg/contracts/domain"
)

// Loader fetches a raw table. Implementations never validate rows; that is
// the validator's job.
type Loader interface {
	Load(ctx context.Context) (domain.RawTable, error)
	Describe() string
}

// New selects a loader for cfg. A "none" source returns nil and no error.
func New(cfg config.SourceConfig, logger *slog.Logger) (Loader, error) {
	switch cfg.Kind {
	case config.SourceNone, "":
		return nil, nil
	case config.SourceFile:
		return NewFileSource(cfg.File, cfg.Sheet, logger), nil
	case config.SourcePostgres:
		return NewSQLSource(DriverPostgres, cfg.DSN, cfg.Query, cfg.Timeout, logger), nil
	case config.SourceSQLite:
		return NewSQLSource(DriverSQLite, cfg.DSN, cfg.Query, cfg.Timeout, logger), nil
	default:
		return nil, apperrors.NewConfigError(fmt.Sprintf("unknown source kind %q", cfg.Kind), nil)
	}
}
