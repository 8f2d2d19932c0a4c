package exporter

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"vaxpulse/internal/analytics"
	"vaxpulse/pkg/contracts/domain"
)

// Sheet names of the spreadsheet export.
const (
	SheetData      = "Vaccination Data"
	SheetSummary   = "Summary Statistics"
	SheetDistricts = "District Summary"
)

var districtSheetHeader = []interface{}{
	"district",
	"Avg Coverage (%)",
	"Min Coverage (%)",
	"Max Coverage (%)",
	"Std Dev (%)",
	"Children Tracked",
	"Vaccines Administered",
	"Villages Covered",
}

func (b *ReportBuilder) renderSpreadsheet(records []domain.VaccinationRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			b.logger.Warn("failed to close workbook", "error", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", SheetData); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{SheetSummary, SheetDistricts} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeDataSheet(f, records, header); err != nil {
		return nil, err
	}
	if err := writeSummarySheet(f, analytics.SummaryStatistics(records, b.opts.LowCoverageThreshold), header); err != nil {
		return nil, err
	}
	if err := writeDistrictSheet(f, analytics.DistrictSummaries(records), header); err != nil {
		return nil, err
	}

	f.SetActiveSheet(0)
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   b.opts.Region + " Vaccination Coverage",
		Creator: "vaxpulse",
	}); err != nil {
		return nil, fmt.Errorf("failed to set document properties: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeDataSheet(f *excelize.File, records []domain.VaccinationRecord, header int) error {
	if err := writeRow(f, SheetData, 1, toCells(domain.ExportColumns)); err != nil {
		return err
	}
	for i, r := range records {
		row := []interface{}{
			r.District,
			r.Village,
			r.ChildID,
			r.VaccineType,
			r.DateString(),
			r.AgeGroup,
			r.Gender,
			r.CoveragePercentage,
			r.FullyVaccinated,
		}
		if err := writeRow(f, SheetData, i+2, row); err != nil {
			return err
		}
	}
	if err := f.SetRowStyle(SheetData, 1, 1, header); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	if err := f.SetColWidth(SheetData, "A", "I", 16); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}
	return freezeHeader(f, SheetData)
}

func writeSummarySheet(f *excelize.File, stats domain.SummaryStatistics, header int) error {
	cov, demo := stats.Coverage, stats.Demographics

	var std interface{} = ""
	if cov.StdCoverage != nil {
		std = *cov.StdCoverage
	}
	rows := [][]interface{}{
		{"Coverage Statistics"},
		{"overall_coverage", cov.OverallCoverage},
		{"median_coverage", cov.MedianCoverage},
		{"min_coverage", cov.MinCoverage},
		{"max_coverage", cov.MaxCoverage},
		{"std_coverage", std},
		{"districts_above_90", cov.DistrictsAbove90},
		{fmt.Sprintf("districts_below_%g", cov.Threshold), cov.DistrictsBelowThreshold},
		{},
		{"Demographic Statistics"},
		{"total_children", demo.TotalChildren},
		{"total_districts", demo.TotalDistricts},
		{"total_villages", demo.TotalVillages},
		{"male_children", demo.MaleChildren},
		{"female_children", demo.FemaleChildren},
		{"fully_vaccinated_count", demo.FullyVaccinatedCount},
	}
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		if err := writeRow(f, SheetSummary, i+1, row); err != nil {
			return err
		}
	}
	for _, r := range []int{1, 10} {
		if err := f.SetRowStyle(SheetSummary, r, r, header); err != nil {
			return fmt.Errorf("failed to style section: %w", err)
		}
	}
	return f.SetColWidth(SheetSummary, "A", "A", 26)
}

func writeDistrictSheet(f *excelize.File, summaries []domain.DistrictSummary, header int) error {
	if err := writeRow(f, SheetDistricts, 1, districtSheetHeader); err != nil {
		return err
	}
	for i, d := range summaries {
		var std interface{} = ""
		if d.StdDev != nil {
			std = round2(*d.StdDev)
		}
		row := []interface{}{
			d.District,
			round2(d.AvgCoverage),
			round2(d.MinCoverage),
			round2(d.MaxCoverage),
			std,
			d.ChildrenTracked,
			d.VaccinesAdministered,
			d.VillagesCovered,
		}
		if err := writeRow(f, SheetDistricts, i+2, row); err != nil {
			return err
		}
	}
	if err := f.SetRowStyle(SheetDistricts, 1, 1, header); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	if err := f.SetColWidth(SheetDistricts, "A", "H", 18); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}
	return freezeHeader(f, SheetDistricts)
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func freezeHeader(f *excelize.File, sheet string) error {
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze %s header: %w", sheet, err)
	}
	return nil
}

func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
