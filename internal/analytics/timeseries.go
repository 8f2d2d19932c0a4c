package analytics

import (
	"math"
	"sort"
	"time"

	"vaxpulse/pkg/contracts/domain"
)

// DefaultHistogramBins is the bin count of the coverage distribution chart.
const DefaultHistogramBins = 20

// CoverageTimeline returns the mean coverage of each (date, vaccine) pair,
// ordered by date then vaccine.
func CoverageTimeline(records []domain.VaccinationRecord) []domain.TimelinePoint {
	type key struct {
		date    time.Time
		vaccine string
	}
	values := make(map[key][]float64)
	for _, r := range records {
		k := key{r.Date, r.VaccineType}
		values[k] = append(values[k], r.CoveragePercentage)
	}

	out := make([]domain.TimelinePoint, 0, len(values))
	for k, v := range values {
		out = append(out, domain.TimelinePoint{Date: k.date, VaccineType: k.vaccine, Coverage: mean(v)})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].VaccineType < out[j].VaccineType
	})
	return out
}

// MonthlyActivity counts records per calendar month, oldest first.
func MonthlyActivity(records []domain.VaccinationRecord) []domain.MonthlyCount {
	type key struct{ year, month int }
	counts := make(map[key]int)
	for _, r := range records {
		counts[key{r.Year, r.Month}]++
	}

	out := make([]domain.MonthlyCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, domain.MonthlyCount{Year: k.year, Month: k.month, Vaccinations: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// SeasonalCoverage returns the mean coverage of each calendar month across
// all years, in month order.
func SeasonalCoverage(records []domain.VaccinationRecord) []domain.MonthCoverage {
	values := make(map[int][]float64)
	for _, r := range records {
		values[r.Month] = append(values[r.Month], r.CoveragePercentage)
	}

	out := make([]domain.MonthCoverage, 0, len(values))
	for m, v := range values {
		out = append(out, domain.MonthCoverage{Month: m, Coverage: mean(v)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// VaccineStatistics summarises the coverage distribution of each vaccine,
// sorted by vaccine name.
func VaccineStatistics(records []domain.VaccinationRecord) []domain.VaccineStats {
	groups := groupCoverage(records, byVaccine)

	out := make([]domain.VaccineStats, 0, len(groups.keys))
	for _, k := range groups.keys {
		v := groups.values[k]
		lo, hi := minMax(v)
		out = append(out, domain.VaccineStats{
			VaccineType: k,
			Mean:        mean(v),
			StdDev:      sampleStd(v),
			Min:         lo,
			Max:         hi,
			Count:       len(v),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VaccineType < out[j].VaccineType })
	return out
}

// GenderVaccineCoverage returns the mean coverage per (gender, vaccine),
// ordered by vaccine then gender.
func GenderVaccineCoverage(records []domain.VaccinationRecord) []domain.GenderVaccineCoverage {
	type key struct{ gender, vaccine string }
	values := make(map[key][]float64)
	for _, r := range records {
		k := key{r.Gender, r.VaccineType}
		values[k] = append(values[k], r.CoveragePercentage)
	}

	out := make([]domain.GenderVaccineCoverage, 0, len(values))
	for k, v := range values {
		out = append(out, domain.GenderVaccineCoverage{Gender: k.gender, VaccineType: k.vaccine, Coverage: mean(v)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].VaccineType != out[j].VaccineType {
			return out[i].VaccineType < out[j].VaccineType
		}
		return out[i].Gender < out[j].Gender
	})
	return out
}

// CoverageDistribution buckets coverage values into bins equal-width bins
// spanning the observed range. A single distinct value yields one bin.
func CoverageDistribution(records []domain.VaccinationRecord, bins int) []domain.HistogramBin {
	if len(records) == 0 {
		return []domain.HistogramBin{}
	}
	if bins <= 0 {
		bins = DefaultHistogramBins
	}

	values := make([]float64, len(records))
	for i, r := range records {
		values[i] = r.CoveragePercentage
	}
	lo, hi := minMax(values)
	if lo == hi {
		return []domain.HistogramBin{{Lower: lo, Upper: hi, Count: len(values)}}
	}

	width := (hi - lo) / float64(bins)
	out := make([]domain.HistogramBin, bins)
	for i := range out {
		out[i].Lower = lo + float64(i)*width
		out[i].Upper = lo + float64(i+1)*width
	}
	out[bins-1].Upper = hi

	for _, v := range values {
		i := int(math.Floor((v - lo) / width))
		if i >= bins {
			i = bins - 1
		}
		out[i].Count++
	}
	return out
}
