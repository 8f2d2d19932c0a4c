// Package exporter renders filtered vaccination records into downloadable
// reports.
//
// ReportBuilder produces four formats:
//
//   - CSV: the export columns in fixed order with YYYY-MM-DD dates.
//   - Spreadsheet: a workbook with Vaccination Data, Summary Statistics and
//     District Summary sheets.
//   - PDF: title, executive summary, key metrics, top districts and the
//     recommendation list as plain text. Drawn with fpdf by default or
//     printed through headless Chrome when the chrome engine is selected.
//   - Text: a fixed-layout plain-text summary.
//
// Rendering failures never escape as errors or panics. They come back as an
// Artifact whose Err is set and whose Available method reports false, so a
// caller can disable one download and keep the rest.
//
// Example usage:
//
//	builder := exporter.NewReportBuilder(exporter.ReportOptionsFrom(cfg), logger)
//	artifacts := builder.Bundle(ctx, filtered)
//	paths, err := exporter.WriteBundle(reportsDir, artifacts)
package exporter
