package domain

import (
	"fmt"
	"strings"
	"time"
)

// ReportFormat identifies an export payload.
type ReportFormat string

const (
	ReportFormatCSV   ReportFormat = "csv"
	ReportFormatExcel ReportFormat = "xlsx"
	ReportFormatPDF   ReportFormat = "pdf"
	ReportFormatText  ReportFormat = "txt"
)

// ReportFormats lists every export format in presentation order.
var ReportFormats = []ReportFormat{
	ReportFormatCSV,
	ReportFormatExcel,
	ReportFormatPDF,
	ReportFormatText,
}

// ContentType returns the MIME type of the format.
func (f ReportFormat) ContentType() string {
	switch f {
	case ReportFormatCSV:
		return "text/csv"
	case ReportFormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ReportFormatPDF:
		return "application/pdf"
	case ReportFormatText:
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// FilePrefix returns the download file name prefix used for the format.
func (f ReportFormat) FilePrefix() string {
	switch f {
	case ReportFormatCSV:
		return "vaccination_data"
	case ReportFormatText:
		return "vaccination_summary"
	default:
		return "vaccination_report"
	}
}

// FileName returns the date-stamped download name, e.g.
// vaccination_report_20240131.pdf.
func (f ReportFormat) FileName(at time.Time) string {
	return fmt.Sprintf("%s_%s.%s", f.FilePrefix(), at.Format("20060102"), string(f))
}

// ParseReportFormat maps a user supplied name to a ReportFormat.
func ParseReportFormat(name string) (ReportFormat, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "csv":
		return ReportFormatCSV, true
	case "xlsx", "excel", "spreadsheet":
		return ReportFormatExcel, true
	case "pdf":
		return ReportFormatPDF, true
	case "txt", "text", "summary":
		return ReportFormatText, true
	}
	return "", false
}
