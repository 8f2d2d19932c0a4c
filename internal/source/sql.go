package source

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"vaxpulse/internal/config"
	"vaxpulse/internal/dataprocessing"
	apperrors "vaxpulse/internal/errors"
	"vaxpulse/internal/infrastructure"
	"vaxpulse/pkg/contracts/domain"
)

// database/sql driver names registered by the blank imports above.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

// SQLSource runs a query and turns the result set into a raw table. Every
// value is rendered as text so the validator sees the same cells it would
// read from a file.
type SQLSource struct {
	driver  string
	dsn     string
	query   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewSQLSource creates a SQL loader. An empty query selects the canonical
// columns from vaccination_records.
func NewSQLSource(driver, dsn, query string, timeout time.Duration, logger *slog.Logger) *SQLSource {
	if query == "" {
		query = config.DefaultSourceQuery
	}
	if timeout <= 0 {
		timeout = config.DefaultSourceTimeout
	}
	return &SQLSource{
		driver:  driver,
		dsn:     dsn,
		query:   query,
		timeout: timeout,
		logger:  infrastructure.ComponentLogger(logger, "sql_source"),
	}
}

// Describe names the driver; the DSN may carry credentials.
func (s *SQLSource) Describe() string { return s.driver + " query" }

// Load opens a connection, runs the query and closes the connection again.
func (s *SQLSource) Load(ctx context.Context) (domain.RawTable, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	db, err := sql.Open(s.driver, s.dsn)
	if err != nil {
		return domain.RawTable{}, apperrors.NewStorageError("open database", err).WithContext("driver", s.driver)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return domain.RawTable{}, apperrors.NewStorageError("connect database", err).WithContext("driver", s.driver)
	}

	rows, err := db.QueryContext(ctx, s.query)
	if err != nil {
		return domain.RawTable{}, apperrors.NewStorageError("query dataset", err).WithContext("driver", s.driver)
	}
	defer rows.Close()

	table, err := scanTable(rows, s.Describe())
	if err != nil {
		return domain.RawTable{}, err
	}

	s.logger.InfoContext(ctx, "dataset queried",
		slog.String("driver", s.driver),
		slog.Int("rows", table.Len()),
		slog.Int("columns", len(table.Columns)),
		slog.Duration("duration", time.Since(start)))
	return table, nil
}

func scanTable(rows *sql.Rows, source string) (domain.RawTable, error) {
	columns, err := rows.Columns()
	if err != nil {
		return domain.RawTable{}, apperrors.NewStorageError("read columns", err)
	}

	table := domain.RawTable{Source: source, Columns: make([]string, len(columns))}
	for i, c := range columns {
		table.Columns[i] = dataprocessing.NormalizeColumnName(c)
	}

	values := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return domain.RawTable{}, apperrors.NewStorageError("scan row", err)
		}
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = cellText(v)
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return domain.RawTable{}, apperrors.NewStorageError("iterate rows", err)
	}
	return table, nil
}

// cellText renders a driver value the way a CSV export would show it.
func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
