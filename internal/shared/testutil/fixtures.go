package testutil

import (
	"fmt"
	"time"

	"vaxpulse/pkg/contracts/domain"
)

// RecordBuilder builds validated vaccination records for tests.
type RecordBuilder struct {
	rec domain.VaccinationRecord
}

// Record starts a builder with plausible defaults.
func Record() *RecordBuilder {
	return &RecordBuilder{rec: domain.VaccinationRecord{
		District:           "Chandigarh",
		Village:            "Village1",
		ChildID:            "C0001",
		VaccineType:        "BCG",
		Date:               time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		AgeGroup:           "0-1 years",
		Gender:             domain.GenderMale,
		CoveragePercentage: 80,
	}}
}

func (b *RecordBuilder) District(v string) *RecordBuilder {
	b.rec.District = v
	return b
}

func (b *RecordBuilder) Village(v string) *RecordBuilder {
	b.rec.Village = v
	return b
}

func (b *RecordBuilder) Child(v string) *RecordBuilder {
	b.rec.ChildID = v
	return b
}

func (b *RecordBuilder) Vaccine(v string) *RecordBuilder {
	b.rec.VaccineType = v
	return b
}

func (b *RecordBuilder) Age(v string) *RecordBuilder {
	b.rec.AgeGroup = v
	return b
}

func (b *RecordBuilder) Gender(v string) *RecordBuilder {
	b.rec.Gender = v
	return b
}

func (b *RecordBuilder) Coverage(v float64) *RecordBuilder {
	b.rec.CoveragePercentage = v
	return b
}

func (b *RecordBuilder) Fully(v bool) *RecordBuilder {
	b.rec.FullyVaccinated = v
	return b
}

// On sets the record date.
func (b *RecordBuilder) On(year int, month time.Month, day int) *RecordBuilder {
	b.rec.Date = time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return b
}

// Build fills the derived calendar fields and returns the record.
func (b *RecordBuilder) Build() domain.VaccinationRecord {
	r := b.rec
	r.Year = r.Date.Year()
	r.Month = int(r.Date.Month())
	r.Quarter = (r.Month-1)/3 + 1
	return r
}

// CoverageRecords returns one record per coverage value for district.
func CoverageRecords(district string, coverages ...float64) []domain.VaccinationRecord {
	out := make([]domain.VaccinationRecord, 0, len(coverages))
	for i, c := range coverages {
		out = append(out, Record().
			District(district).
			Village(fmt.Sprintf("%s-V%d", district, i%3+1)).
			Child(fmt.Sprintf("%s-%04d", district, i+1)).
			Coverage(c).
			Build())
	}
	return out
}

// RawTable builds a raw table with the required column header.
func RawTable(rows ...[]string) domain.RawTable {
	return domain.RawTable{
		Source:  "test",
		Columns: append([]string(nil), domain.RequiredColumns...),
		Rows:    rows,
	}
}

// RawRow is a convenience constructor for a raw row in required column order.
func RawRow(district, village, child, vaccine, date, age, gender, coverage string) []string {
	return []string{district, village, child, vaccine, date, age, gender, coverage}
}

// SampleRecords is a small two district dataset used across packages.
//
//	Chandigarh: 95, 85, 90 over three vaccines
//	Mohali:     65, 72, 50 over three vaccines
func SampleRecords() []domain.VaccinationRecord {
	vaccines := []string{"BCG", "DPT", "Measles"}
	var out []domain.VaccinationRecord
	for i, c := range []float64{95, 85, 90} {
		out = append(out, Record().
			District("Chandigarh").Village("Sector 1").
			Child("CH-1").Vaccine(vaccines[i]).
			On(2024, time.Month(i+1), 10).
			Gender(domain.GenderMale).
			Coverage(c).Build())
	}
	for i, c := range []float64{65, 72, 50} {
		out = append(out, Record().
			District("Mohali").Village("Phase 7").
			Child("MO-1").Vaccine(vaccines[i]).
			On(2024, time.Month(i+1), 20).
			Gender(domain.GenderFemale).
			Age("1-2 years").
			Coverage(c).Build())
	}
	return out
}
