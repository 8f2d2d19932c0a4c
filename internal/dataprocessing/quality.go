package dataprocessing

import (
	"vaxpulse/pkg/contracts/domain"
)

// StatusNoData is the quality status of a dataset without usable records.
const StatusNoData = "No data available"

// QualityReport describes a loaded dataset. Missing values and completeness
// are measured on the raw cells; counts and the date span on the validated
// records.
func QualityReport(raw domain.RawTable, result *ValidationResult) domain.DataQualityReport {
	report := domain.DataQualityReport{
		MissingValues: make(map[string]int, len(raw.Columns)),
	}
	if result != nil {
		report.DroppedRows = result.Drops.Total()
	}
	if result == nil || len(result.Records) == 0 {
		report.Status = StatusNoData
		return report
	}

	records := result.Records
	report.TotalRecords = len(records)

	districts := make(map[string]struct{})
	villages := make(map[string]struct{})
	vaccines := make(map[string]struct{})
	start, end := records[0].Date, records[0].Date
	for _, r := range records {
		districts[r.District] = struct{}{}
		villages[r.Village] = struct{}{}
		vaccines[r.VaccineType] = struct{}{}
		if r.Date.Before(start) {
			start = r.Date
		}
		if r.Date.After(end) {
			end = r.Date
		}
	}
	report.StartDate = start.Format("2006-01-02")
	report.EndDate = end.Format("2006-01-02")
	report.DistrictsCovered = len(districts)
	report.VillagesCovered = len(villages)
	report.VaccinesTracked = len(vaccines)

	missing := 0
	for i, col := range raw.Columns {
		name := NormalizeColumnName(col)
		n := 0
		for _, row := range raw.Rows {
			if i >= len(row) || isBlank(row[i:i+1]) {
				n++
			}
		}
		report.MissingValues[name] += n
		missing += n
	}

	cells := len(raw.Rows) * len(raw.Columns)
	if cells > 0 {
		report.Completeness = float64(cells-missing) / float64(cells) * 100
	}
	return report
}
