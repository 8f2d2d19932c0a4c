package analytics

import (
	"math"
	"sort"

	"vaxpulse/pkg/contracts/domain"
)

// mean returns the arithmetic mean of values, 0 for none.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// median returns the middle value of values, averaging the two middle values
// for an even count. values is not reordered.
func median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// sampleStd returns the n-1 standard deviation, nil below two values.
func sampleStd(values []float64) *float64 {
	n := len(values)
	if n < 2 {
		return nil
	}
	m := mean(values)
	var ss float64
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	std := math.Sqrt(ss / float64(n-1))
	return &std
}

func minMax(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// coverageGroups holds coverage values by key, keeping first-seen key order.
type coverageGroups struct {
	keys   []string
	values map[string][]float64
}

func groupCoverage(records []domain.VaccinationRecord, key func(domain.VaccinationRecord) string) coverageGroups {
	g := coverageGroups{values: make(map[string][]float64)}
	for _, r := range records {
		k := key(r)
		if _, ok := g.values[k]; !ok {
			g.keys = append(g.keys, k)
		}
		g.values[k] = append(g.values[k], r.CoveragePercentage)
	}
	return g
}

// means returns the mean of each group sorted by key.
func (g coverageGroups) means() []domain.GroupCoverage {
	out := make([]domain.GroupCoverage, 0, len(g.keys))
	for _, k := range g.keys {
		out = append(out, domain.GroupCoverage{
			Key:      k,
			Coverage: mean(g.values[k]),
			Records:  len(g.values[k]),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// distinct counts the distinct non-empty values of field over records.
func distinct(records []domain.VaccinationRecord, field func(domain.VaccinationRecord) string) int {
	seen := make(map[string]struct{})
	for _, r := range records {
		if v := field(r); v != "" {
			seen[v] = struct{}{}
		}
	}
	return len(seen)
}

func byDistrict(r domain.VaccinationRecord) string { return r.District }
func byVillage(r domain.VaccinationRecord) string { return r.Village }
func byChild(r domain.VaccinationRecord) string { return r.ChildID }
func byVaccine(r domain.VaccinationRecord) string { return r.VaccineType }
func byAgeGroup(r domain.VaccinationRecord) string { return r.AgeGroup }
func byGender(r domain.VaccinationRecord) string { return r.Gender }
