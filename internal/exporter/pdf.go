package exporter

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// pdfRenderer turns report content into a PDF document.
type pdfRenderer interface {
	render(ctx context.Context, c reportContent) ([]byte, error)
}

// nativeRenderer draws the report with fpdf core fonts. Output is byte-stable
// for a fixed generation time.
type nativeRenderer struct{}

const (
	pdfLineHeight = 7.0
	pdfFont       = "Helvetica"
)

func (nativeRenderer) render(_ context.Context, c reportContent) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(c.GeneratedAt)
	pdf.SetModificationDate(c.GeneratedAt)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(c.title(), true)
	pdf.SetSubject("Immunization coverage", true)
	pdf.SetCreator("vaxpulse", true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AliasNbPages("")

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(pdfFont, "I", 8)
		pdf.SetTextColor(128, 128, 128)
		footer := fmt.Sprintf("Generated %s - page %d/{nb}", c.GeneratedAt.Format("2006-01-02 15:04"), pdf.PageNo())
		pdf.CellFormat(0, 10, footer, "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	width, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	content := width - left - right

	// Title
	pdf.SetFont(pdfFont, "B", 18)
	pdf.SetTextColor(0, 0, 139)
	pdf.CellFormat(0, 12, tr(c.title()), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	heading := func(text string) {
		pdf.SetFont(pdfFont, "B", 14)
		pdf.SetTextColor(0, 0, 0)
		pdf.CellFormat(0, 10, tr(text), "", 1, "L", false, 0, "")
	}
	body := func() {
		pdf.SetFont(pdfFont, "", 11)
		pdf.SetTextColor(0, 0, 0)
	}

	heading("Executive Summary")
	body()
	pdf.MultiCell(0, 6, tr(c.executiveSummary()), "", "L", false)
	pdf.Ln(6)

	heading("Key Performance Indicators")
	metrics := make([][]string, 0, 5)
	for _, m := range c.keyMetrics() {
		metrics = append(metrics, []string{m.Metric, m.Value})
	}
	pdfTable(pdf, tr, []string{"Metric", "Value"}, metrics, []float64{content / 2, content / 2})
	pdf.Ln(6)

	heading("District Performance Summary")
	districts := make([][]string, 0, len(c.Districts))
	for _, d := range c.Districts {
		districts = append(districts, districtRow(d))
	}
	pdfTable(pdf, tr, districtHeader, districts, []float64{content * 0.34, content * 0.22, content * 0.22, content * 0.22})
	pdf.Ln(6)

	heading("Recommendations")
	body()
	for i, rec := range c.Recommendations {
		pdf.MultiCell(0, 6, tr(fmt.Sprintf("%d. %s", i+1, rec)), "", "L", false)
		pdf.Ln(2)
	}

	if !pdf.Ok() {
		return nil, pdf.Error()
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// pdfTable draws a gridded table with a grey header row and beige body.
func pdfTable(pdf *fpdf.Fpdf, tr func(string) string, header []string, rows [][]string, widths []float64) {
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.2)

	pdf.SetFont(pdfFont, "B", 12)
	pdf.SetFillColor(128, 128, 128)
	pdf.SetTextColor(245, 245, 245)
	for i, h := range header {
		pdf.CellFormat(widths[i], pdfLineHeight+2, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(pdfFont, "", 10)
	pdf.SetFillColor(245, 245, 220)
	pdf.SetTextColor(0, 0, 0)
	for _, row := range rows {
		for i, cell := range row {
			pdf.CellFormat(widths[i], pdfLineHeight, tr(cell), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}
}
