package analytics

import (
	"vaxpulse/pkg/contracts/domain"
)

// Targets are the reference levels the dashboard numbers are compared with.
type Targets struct {
	Minimum      float64 // national minimum coverage, 75 by default
	WHO          float64 // WHO coverage target, 90 by default
	LowThreshold float64 // district low coverage alert level, 70 by default
}

// KeyIndicators computes the headline numbers of a selection. The average
// coverage is the mean of the per-vaccine means, so vaccines with many
// records do not dominate it. The fully vaccinated share counts records.
func KeyIndicators(records []domain.VaccinationRecord, targets Targets) domain.KeyIndicators {
	var ki domain.KeyIndicators
	if len(records) == 0 {
		return ki
	}

	perVaccine := VaccineCoverage(records)
	means := make([]float64, len(perVaccine))
	for i, v := range perVaccine {
		means[i] = v.Coverage
	}

	fully := 0
	for _, r := range records {
		if r.FullyVaccinated {
			fully++
		}
	}

	ki.TotalRecords = len(records)
	ki.AverageCoverage = mean(means)
	ki.CoverageVsMinimum = ki.AverageCoverage - targets.Minimum
	ki.FullyVaccinatedPct = float64(fully) / float64(len(records)) * 100
	ki.FullyVaccinatedVsWHO = ki.FullyVaccinatedPct - targets.WHO
	ki.DistrictsCovered = distinct(records, byDistrict)
	ki.LowCoverageDistricts = len(LowCoverageDistricts(records, targets.LowThreshold))
	return ki
}
