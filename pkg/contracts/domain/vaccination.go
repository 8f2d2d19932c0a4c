package domain

import (
	"time"
)

// Canonical column names of a vaccination dataset.
const (
	ColumnDistrict           = "district"
	ColumnVillage            = "village"
	ColumnChildID            = "child_id"
	ColumnVaccineType        = "vaccine_type"
	ColumnDate               = "date"
	ColumnAgeGroup           = "age_group"
	ColumnGender             = "gender"
	ColumnCoveragePercentage = "coverage_percentage"
	ColumnFullyVaccinated    = "fully_vaccinated"
)

// RequiredColumns lists the columns every raw dataset must provide, in the
// order they are reported when missing.
var RequiredColumns = []string{
	ColumnDistrict,
	ColumnVillage,
	ColumnChildID,
	ColumnVaccineType,
	ColumnDate,
	ColumnAgeGroup,
	ColumnGender,
	ColumnCoveragePercentage,
}

// ExportColumns is the fixed column order of tabular exports.
var ExportColumns = []string{
	ColumnDistrict,
	ColumnVillage,
	ColumnChildID,
	ColumnVaccineType,
	ColumnDate,
	ColumnAgeGroup,
	ColumnGender,
	ColumnCoveragePercentage,
	ColumnFullyVaccinated,
}

// Gender values recognised by the demographic statistics.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

// VaccinationRecord is one child-vaccine-dose event after validation.
type VaccinationRecord struct {
	District           string    `json:"district" db:"district" validate:"required"`
	Village            string    `json:"village" db:"village" validate:"required"`
	ChildID            string    `json:"child_id" db:"child_id"`
	VaccineType        string    `json:"vaccine_type" db:"vaccine_type"`
	Date               time.Time `json:"date" db:"date"`
	AgeGroup           string    `json:"age_group" db:"age_group"`
	Gender             string    `json:"gender" db:"gender"`
	CoveragePercentage float64   `json:"coverage_percentage" db:"coverage_percentage" validate:"min=0,max=100"`
	FullyVaccinated    bool      `json:"fully_vaccinated" db:"fully_vaccinated"`
	Month              int       `json:"month" db:"month"`
	Year               int       `json:"year" db:"year"`
	Quarter            int       `json:"quarter" db:"quarter"`
}

// DateString returns the record date formatted as YYYY-MM-DD.
func (r VaccinationRecord) DateString() string {
	return r.Date.Format("2006-01-02")
}

// RawTable is an untyped tabular dataset as read from a file, upload or query.
// Every cell is kept as text; coercion happens during validation.
type RawTable struct {
	Source  string     `json:"source,omitempty"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Len returns the number of data rows.
func (t RawTable) Len() int {
	return len(t.Rows)
}

// IsEmpty reports whether the table carries no data rows.
func (t RawTable) IsEmpty() bool {
	return len(t.Rows) == 0
}

// CloneRecords returns an independent copy of records.
func CloneRecords(records []VaccinationRecord) []VaccinationRecord {
	out := make([]VaccinationRecord, len(records))
	copy(out, records)
	return out
}
