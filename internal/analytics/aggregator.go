package analytics

import (
	"sort"

	"vaxpulse/pkg/contracts/domain"
)

// WHOTarget is the coverage benchmark used for the "above 90" district count.
const WHOTarget = 90.0

// DistrictMeans returns the mean coverage of every district, sorted by name.
func DistrictMeans(records []domain.VaccinationRecord) []domain.DistrictCoverage {
	groups := groupCoverage(records, byDistrict).means()
	out := make([]domain.DistrictCoverage, 0, len(groups))
	for _, g := range groups {
		out = append(out, domain.DistrictCoverage{District: g.Key, Coverage: g.Coverage})
	}
	return out
}

// LowCoverageDistricts returns districts whose mean coverage is below
// threshold, lowest first. Equal means are ordered by name.
func LowCoverageDistricts(records []domain.VaccinationRecord, threshold float64) []domain.DistrictCoverage {
	out := make([]domain.DistrictCoverage, 0)
	for _, d := range DistrictMeans(records) {
		if d.Coverage < threshold {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Coverage < out[j].Coverage
	})
	return out
}

// DistrictSummaries computes per-district statistics, highest mean first.
// StdDev is nil for districts with a single record.
func DistrictSummaries(records []domain.VaccinationRecord) []domain.DistrictSummary {
	byName := make(map[string][]domain.VaccinationRecord)
	for _, r := range records {
		byName[r.District] = append(byName[r.District], r)
	}

	out := make([]domain.DistrictSummary, 0, len(byName))
	for name, rows := range byName {
		values := make([]float64, len(rows))
		for i, r := range rows {
			values[i] = r.CoveragePercentage
		}
		lo, hi := minMax(values)
		out = append(out, domain.DistrictSummary{
			District:             name,
			AvgCoverage:          mean(values),
			MinCoverage:          lo,
			MaxCoverage:          hi,
			StdDev:               sampleStd(values),
			ChildrenTracked:      distinct(rows, byChild),
			VaccinesAdministered: distinct(rows, byVaccine),
			VillagesCovered:      distinct(rows, byVillage),
			Records:              len(rows),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgCoverage != out[j].AvgCoverage {
			return out[i].AvgCoverage > out[j].AvgCoverage
		}
		return out[i].District < out[j].District
	})
	return out
}

// DemographicBreakdown groups records by age group and gender. The fully
// vaccinated share is 0 for a cell without identified children.
func DemographicBreakdown(records []domain.VaccinationRecord) []domain.DemographicCell {
	type cellKey struct{ age, gender string }
	cells := make(map[cellKey][]domain.VaccinationRecord)
	for _, r := range records {
		k := cellKey{r.AgeGroup, r.Gender}
		cells[k] = append(cells[k], r)
	}

	out := make([]domain.DemographicCell, 0, len(cells))
	for k, rows := range cells {
		values := make([]float64, len(rows))
		fully := make(map[string]struct{})
		for i, r := range rows {
			values[i] = r.CoveragePercentage
			if r.FullyVaccinated && r.ChildID != "" {
				fully[r.ChildID] = struct{}{}
			}
		}

		cell := domain.DemographicCell{
			AgeGroup:        k.age,
			Gender:          k.gender,
			AvgCoverage:     mean(values),
			ChildrenCount:   distinct(rows, byChild),
			FullyVaccinated: len(fully),
		}
		if cell.ChildrenCount > 0 {
			cell.FullyVaccinatedPct = float64(cell.FullyVaccinated) / float64(cell.ChildrenCount) * 100
		}
		out = append(out, cell)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].AgeGroup != out[j].AgeGroup {
			return out[i].AgeGroup < out[j].AgeGroup
		}
		return out[i].Gender < out[j].Gender
	})
	return out
}

// SummaryStatistics computes the coverage and demographic statistic groups.
// District counts use district means: at or above WHOTarget, and below
// threshold.
func SummaryStatistics(records []domain.VaccinationRecord, threshold float64) domain.SummaryStatistics {
	var stats domain.SummaryStatistics
	if len(records) == 0 {
		return stats
	}

	values := make([]float64, len(records))
	for i, r := range records {
		values[i] = r.CoveragePercentage
	}
	lo, hi := minMax(values)

	cov := domain.CoverageStats{
		RecordCount:     len(records),
		OverallCoverage: mean(values),
		MedianCoverage:  median(values),
		MinCoverage:     lo,
		MaxCoverage:     hi,
		StdCoverage:     sampleStd(values),
		Threshold:       threshold,
	}
	for _, d := range DistrictMeans(records) {
		if d.Coverage >= WHOTarget {
			cov.DistrictsAbove90++
		}
		if d.Coverage < threshold {
			cov.DistrictsBelowThreshold++
		}
	}

	male := make(map[string]struct{})
	female := make(map[string]struct{})
	fully := make(map[string]struct{})
	for _, r := range records {
		if r.ChildID == "" {
			continue
		}
		switch r.Gender {
		case domain.GenderMale:
			male[r.ChildID] = struct{}{}
		case domain.GenderFemale:
			female[r.ChildID] = struct{}{}
		}
		if r.FullyVaccinated {
			fully[r.ChildID] = struct{}{}
		}
	}

	stats.Coverage = cov
	stats.Demographics = domain.DemographicStats{
		TotalChildren:        distinct(records, byChild),
		TotalDistricts:       distinct(records, byDistrict),
		TotalVillages:        distinct(records, byVillage),
		MaleChildren:         len(male),
		FemaleChildren:       len(female),
		FullyVaccinatedCount: len(fully),
	}
	return stats
}

// OverallCoverage is the plain mean of every record's coverage.
func OverallCoverage(records []domain.VaccinationRecord) float64 {
	var sum float64
	for _, r := range records {
		sum += r.CoveragePercentage
	}
	if len(records) == 0 {
		return 0
	}
	return sum / float64(len(records))
}

// VaccineCoverage returns the mean coverage per vaccine, sorted by name.
func VaccineCoverage(records []domain.VaccinationRecord) []domain.GroupCoverage {
	return groupCoverage(records, byVaccine).means()
}

// AgeGroupCoverage returns the mean coverage per age group, sorted by name.
func AgeGroupCoverage(records []domain.VaccinationRecord) []domain.GroupCoverage {
	return groupCoverage(records, byAgeGroup).means()
}

// GenderCoverage returns the mean coverage per gender, sorted by name.
func GenderCoverage(records []domain.VaccinationRecord) []domain.GroupCoverage {
	return groupCoverage(records, byGender).means()
}
