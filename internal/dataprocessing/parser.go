package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "vaxpulse/internal/errors"
	"vaxpulse/pkg/contracts/domain"
)

// ReadFile reads a .csv or .xlsx dataset into a raw table. sheet is only
// used for workbooks; empty selects the first sheet with the required header.
func ReadFile(path, sheet string) (domain.RawTable, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		f, err := os.Open(path)
		if err != nil {
			return domain.RawTable{}, apperrors.NewStorageError("open dataset", err).WithContext("path", path)
		}
		defer f.Close()
		return ReadCSV(f, path)
	case ".xlsx", ".xlsm":
		f, err := os.Open(path)
		if err != nil {
			return domain.RawTable{}, apperrors.NewStorageError("open dataset", err).WithContext("path", path)
		}
		defer f.Close()
		return ReadWorkbook(f, path, sheet)
	default:
		return domain.RawTable{}, apperrors.NewParsingError(
			fmt.Sprintf("unsupported dataset extension %q", filepath.Ext(path)), nil).WithContext("path", path)
	}
}

// ReadCSV reads a delimited dataset. The first non-blank record is the header.
func ReadCSV(r io.Reader, source string) (domain.RawTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return domain.RawTable{}, apperrors.NewParsingError("read csv", err).WithContext("source", source)
	}
	return buildTable(source, records), nil
}

// ReadWorkbook reads a spreadsheet dataset with excelize.
func ReadWorkbook(r io.Reader, source, sheet string) (domain.RawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return domain.RawTable{}, apperrors.NewParsingError("open workbook", err).WithContext("source", source)
	}
	defer f.Close()

	name, rows, err := findDataSheet(f, sheet)
	if err != nil {
		return domain.RawTable{}, apperrors.NewParsingError("read workbook", err).WithContext("source", source)
	}

	slog.Debug("found dataset sheet",
		slog.String("source", source),
		slog.String("sheet_name", name),
		slog.Int("total_rows", len(rows)))

	return buildTable(source, rows), nil
}

// rawCells keeps date cells as Excel serial numbers so the validator parses
// them independently of the workbook's number formats.
var rawCells = excelize.Options{RawCellValue: true}

// findDataSheet returns the requested sheet, or the first sheet whose first
// non-blank row contains every required column, or the first sheet.
func findDataSheet(f *excelize.File, want string) (string, [][]string, error) {
	if want != "" {
		rows, err := f.GetRows(want, rawCells)
		if err != nil {
			return "", nil, fmt.Errorf("sheet %q: %w", want, err)
		}
		return want, rows, nil
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", nil, fmt.Errorf("workbook has no sheets")
	}
	for _, name := range sheets {
		rows, err := f.GetRows(name, rawCells)
		if err != nil {
			continue
		}
		if header := firstNonBlank(rows); header >= 0 && len(MissingColumns(rows[header])) == 0 {
			return name, rows, nil
		}
	}

	rows, err := f.GetRows(sheets[0], rawCells)
	if err != nil {
		return "", nil, fmt.Errorf("sheet %q: %w", sheets[0], err)
	}
	return sheets[0], rows, nil
}

// buildTable turns raw records into a RawTable. Leading blank rows are
// skipped, blank data rows dropped and short rows padded to the header width.
func buildTable(source string, records [][]string) domain.RawTable {
	table := domain.RawTable{Source: source}

	header := firstNonBlank(records)
	if header < 0 {
		return table
	}

	columns := make([]string, len(records[header]))
	for i, c := range records[header] {
		if i == 0 {
			c = strings.TrimPrefix(c, "\ufeff")
		}
		columns[i] = strings.TrimSpace(c)
	}
	table.Columns = columns

	for _, rec := range records[header+1:] {
		if isBlank(rec) {
			continue
		}
		row := make([]string, len(columns))
		copy(row, rec)
		table.Rows = append(table.Rows, row)
	}
	return table
}

func firstNonBlank(records [][]string) int {
	for i, rec := range records {
		if !isBlank(rec) {
			return i
		}
	}
	return -1
}

func isBlank(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// NormalizeColumnName maps a header cell onto the canonical column naming:
// trimmed, lower case, spaces and hyphens as underscores.
func NormalizeColumnName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer(" ", "_", "-", "_").Replace(n)
	return n
}

// MissingColumns returns the required columns absent from header, in
// required-column order.
func MissingColumns(header []string) []string {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[NormalizeColumnName(h)] = true
	}
	var missing []string
	for _, col := range domain.RequiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}
