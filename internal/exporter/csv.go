package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	"vaxpulse/internal/dataprocessing"
	"vaxpulse/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// renderCSV writes the export columns in fixed order with YYYY-MM-DD dates.
func (b *ReportBuilder) renderCSV(records []domain.VaccinationRecord) ([]byte, error) {
	var buf bytes.Buffer
	// BOM helps Excel recognise UTF-8
	if b.opts.CSVByteOrderMark {
		buf.Write(utf8BOM)
	}
	if err := WriteCSV(&buf, dataprocessing.ToRawTable("export", records)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteCSV writes a raw table, header first.
func WriteCSV(w io.Writer, table domain.RawTable) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(table.Columns); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, row := range table.Rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ParseExportCSV reads a CSV export back into records. Flags already present
// in the fully_vaccinated column are kept as written.
func ParseExportCSV(data []byte, logger *slog.Logger) ([]domain.VaccinationRecord, error) {
	raw, err := dataprocessing.ReadCSV(bytes.NewReader(data), "export")
	if err != nil {
		return nil, err
	}
	cfg := dataprocessing.DefaultValidatorConfig()
	cfg.TrustFullyVaccinated = true
	result, err := dataprocessing.NewValidator(logger, cfg).Validate(raw)
	if err != nil {
		return nil, err
	}
	return result.Records, nil
}
