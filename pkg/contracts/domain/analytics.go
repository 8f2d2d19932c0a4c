package domain

import (
	"fmt"
	"time"
)

// DistrictCoverage pairs a district with its mean coverage.
type DistrictCoverage struct {
	District string  `json:"district"`
	Coverage float64 `json:"coverage_percentage"`
}

// DistrictSummary holds per-district coverage statistics.
// StdDev is nil when the district has a single record.
type DistrictSummary struct {
	District             string   `json:"district"`
	AvgCoverage          float64  `json:"avg_coverage"`
	MinCoverage          float64  `json:"min_coverage"`
	MaxCoverage          float64  `json:"max_coverage"`
	StdDev               *float64 `json:"std_dev"`
	ChildrenTracked      int      `json:"children_tracked"`
	VaccinesAdministered int      `json:"vaccines_administered"`
	VillagesCovered      int      `json:"villages_covered"`
	Records              int      `json:"records"`
}

// DemographicCell is one (age group, gender) row of the demographic analysis.
type DemographicCell struct {
	AgeGroup           string  `json:"age_group"`
	Gender             string  `json:"gender"`
	AvgCoverage        float64 `json:"avg_coverage"`
	ChildrenCount      int     `json:"children_count"`
	FullyVaccinated    int     `json:"fully_vaccinated"`
	FullyVaccinatedPct float64 `json:"fully_vaccinated_pct"`
}

// CoverageStats is the coverage half of the summary statistics.
type CoverageStats struct {
	RecordCount             int      `json:"record_count"`
	OverallCoverage         float64  `json:"overall_coverage"`
	MedianCoverage          float64  `json:"median_coverage"`
	MinCoverage             float64  `json:"min_coverage"`
	MaxCoverage             float64  `json:"max_coverage"`
	StdCoverage             *float64 `json:"std_coverage"`
	DistrictsAbove90        int      `json:"districts_above_90"`
	DistrictsBelowThreshold int      `json:"districts_below_threshold"`
	// Threshold is the low coverage cut-off DistrictsBelowThreshold was
	// counted against.
	Threshold float64 `json:"low_coverage_threshold"`
}

// DemographicStats is the population half of the summary statistics.
type DemographicStats struct {
	TotalChildren        int `json:"total_children"`
	TotalDistricts       int `json:"total_districts"`
	TotalVillages        int `json:"total_villages"`
	MaleChildren         int `json:"male_children"`
	FemaleChildren       int `json:"female_children"`
	FullyVaccinatedCount int `json:"fully_vaccinated_count"`
}

// SummaryStatistics groups the two statistic maps shown on reports.
type SummaryStatistics struct {
	Coverage     CoverageStats    `json:"coverage_stats"`
	Demographics DemographicStats `json:"demographic_stats"`
}

// GroupCoverage is a mean coverage for one categorical key.
type GroupCoverage struct {
	Key      string  `json:"key"`
	Coverage float64 `json:"coverage_percentage"`
	Records  int     `json:"records"`
}

// VaccineStats summarises the coverage distribution of one vaccine.
type VaccineStats struct {
	VaccineType string   `json:"vaccine_type"`
	Mean        float64  `json:"mean"`
	StdDev      *float64 `json:"std"`
	Min         float64  `json:"min"`
	Max         float64  `json:"max"`
	Count       int      `json:"count"`
}

// TimelinePoint is the mean coverage of a vaccine on a date.
type TimelinePoint struct {
	Date        time.Time `json:"date"`
	VaccineType string    `json:"vaccine_type"`
	Coverage    float64   `json:"coverage_percentage"`
}

// MonthlyCount is the number of vaccination records in a calendar month.
type MonthlyCount struct {
	Year         int `json:"year"`
	Month        int `json:"month"`
	Vaccinations int `json:"vaccinations"`
}

// Label renders the month as YYYY-MM.
func (m MonthlyCount) Label() string {
	return fmt.Sprintf("%d-%02d", m.Year, m.Month)
}

// MonthCoverage is the mean coverage of a calendar month across years.
type MonthCoverage struct {
	Month    int     `json:"month"`
	Coverage float64 `json:"coverage_percentage"`
}

// Name returns the English calendar month name.
func (m MonthCoverage) Name() string {
	return time.Month(m.Month).String()
}

// GenderVaccineCoverage is the mean coverage of a vaccine for one gender.
type GenderVaccineCoverage struct {
	Gender      string  `json:"gender"`
	VaccineType string  `json:"vaccine_type"`
	Coverage    float64 `json:"coverage_percentage"`
}

// HistogramBin is one bucket of the coverage distribution, [Lower, Upper).
// The last bin is closed on both ends.
type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// KeyIndicators are the headline dashboard numbers for a selection.
type KeyIndicators struct {
	TotalRecords         int     `json:"total_records"`
	AverageCoverage      float64 `json:"average_coverage"`
	CoverageVsMinimum    float64 `json:"coverage_vs_minimum"`
	FullyVaccinatedPct   float64 `json:"fully_vaccinated_pct"`
	FullyVaccinatedVsWHO float64 `json:"fully_vaccinated_vs_who"`
	DistrictsCovered     int     `json:"districts_covered"`
	LowCoverageDistricts int     `json:"low_coverage_districts"`
}

// DataQualityReport describes completeness of a loaded dataset.
type DataQualityReport struct {
	Status           string         `json:"status,omitempty"`
	TotalRecords     int            `json:"total_records"`
	StartDate        string         `json:"start_date"`
	EndDate          string         `json:"end_date"`
	DistrictsCovered int            `json:"districts_covered"`
	VillagesCovered  int            `json:"villages_covered"`
	VaccinesTracked  int            `json:"vaccines_tracked"`
	MissingValues    map[string]int `json:"missing_values"`
	Completeness     float64        `json:"data_completeness"`
	DroppedRows      int            `json:"dropped_rows"`
}
