package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaxpulse/internal/shared/testutil"
	"vaxpulse/pkg/contracts/domain"
)

// twoDistricts is ten records: District A averaging 65 and District B 96.5.
func twoDistricts() []domain.VaccinationRecord {
	records := testutil.CoverageRecords("District A", 60, 70, 60, 70, 65)
	return append(records, testutil.CoverageRecords("District B", 95, 98, 95, 98, 96.5)...)
}

func districtsOf(list []domain.DistrictCoverage) []string {
	names := make([]string, len(list))
	for i, d := range list {
		names[i] = d.District
	}
	return names
}

func TestLowCoverageDistricts(t *testing.T) {
	var records []domain.VaccinationRecord
	records = append(records, testutil.CoverageRecords("Xdistrict", 65)...)
	records = append(records, testutil.CoverageRecords("Ydistrict", 72)...)
	records = append(records, testutil.CoverageRecords("Zdistrict", 50)...)

	tests := []struct {
		name      string
		records   []domain.VaccinationRecord
		threshold float64
		want      []domain.DistrictCoverage
	}{
		{
			name:      "means 65 72 50",
			records:   records,
			threshold: 70,
			want: []domain.DistrictCoverage{
				{District: "Zdistrict", Coverage: 50},
				{District: "Xdistrict", Coverage: 65},
			},
		},
		{
			name:      "two district scenario",
			records:   twoDistricts(),
			threshold: 70,
			want:      []domain.DistrictCoverage{{District: "District A", Coverage: 65}},
		},
		{
			name:      "threshold is exclusive",
			records:   records,
			threshold: 65,
			want:      []domain.DistrictCoverage{{District: "Zdistrict", Coverage: 50}},
		},
		{
			name:      "none qualify",
			records:   twoDistricts(),
			threshold: 10,
			want:      []domain.DistrictCoverage{},
		},
		{
			name:      "empty input",
			records:   nil,
			threshold: 70,
			want:      []domain.DistrictCoverage{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LowCoverageDistricts(tt.records, tt.threshold))
		})
	}
}

func TestLowCoverageDistricts_TiesByName(t *testing.T) {
	records := testutil.CoverageRecords("Beta", 40)
	records = append(records, testutil.CoverageRecords("Alpha", 40)...)

	assert.Equal(t, []string{"Alpha", "Beta"}, districtsOf(LowCoverageDistricts(records, 70)))
}

func TestDistrictSummaries(t *testing.T) {
	summaries := DistrictSummaries(twoDistricts())
	require.Len(t, summaries, 2)

	b, a := summaries[0], summaries[1]
	assert.Equal(t, "District B", b.District)
	assert.InDelta(t, 96.5, b.AvgCoverage, 1e-9)
	assert.Equal(t, "District A", a.District)
	assert.InDelta(t, 65.0, a.AvgCoverage, 1e-9)

	assert.Equal(t, 60.0, a.MinCoverage)
	assert.Equal(t, 70.0, a.MaxCoverage)
	require.NotNil(t, a.StdDev)
	assert.InDelta(t, 5.0, *a.StdDev, 1e-9)
	assert.Equal(t, 5, a.ChildrenTracked)
	assert.Equal(t, 1, a.VaccinesAdministered)
	assert.Equal(t, 3, a.VillagesCovered)
	assert.Equal(t, 5, a.Records)
}

func TestDistrictSummaries_MeanIsArithmetic(t *testing.T) {
	records := testutil.SampleRecords()
	for _, s := range DistrictSummaries(records) {
		var sum float64
		n := 0
		for _, r := range records {
			if r.District == s.District {
				sum += r.CoveragePercentage
				n++
			}
		}
		assert.InDelta(t, sum/float64(n), s.AvgCoverage, 1e-9, s.District)
	}
}

func TestDistrictSummaries_SingleRecord(t *testing.T) {
	summaries := DistrictSummaries(testutil.CoverageRecords("Solo", 88))
	require.Len(t, summaries, 1)
	assert.Nil(t, summaries[0].StdDev)
	assert.Equal(t, 88.0, summaries[0].AvgCoverage)
}

func TestDemographicBreakdown(t *testing.T) {
	records := testutil.SampleRecords()
	records = append(records,
		testutil.Record().Child("CH-2").Gender(domain.GenderMale).Coverage(100).Fully(true).Build(),
		testutil.Record().Child("CH-2").Gender(domain.GenderMale).Vaccine("DPT").Coverage(100).Fully(true).Build(),
		testutil.Record().Child("").Gender(domain.GenderFemale).Coverage(30).Build(),
	)

	cells := DemographicBreakdown(records)
	require.Len(t, cells, 3)

	assert.Equal(t, "0-1 years", cells[0].AgeGroup)
	assert.Equal(t, domain.GenderFemale, cells[0].Gender)
	assert.Equal(t, 0, cells[0].ChildrenCount, "blank child ids are not children")
	assert.Equal(t, 0.0, cells[0].FullyVaccinatedPct)

	male := cells[1]
	assert.Equal(t, domain.GenderMale, male.Gender)
	assert.InDelta(t, 94.0, male.AvgCoverage, 1e-9)
	assert.Equal(t, 2, male.ChildrenCount)
	assert.Equal(t, 1, male.FullyVaccinated)
	assert.InDelta(t, 50.0, male.FullyVaccinatedPct, 1e-9)

	assert.Equal(t, "1-2 years", cells[2].AgeGroup)
	assert.Equal(t, 1, cells[2].ChildrenCount)
}

func TestSummaryStatistics(t *testing.T) {
	stats := SummaryStatistics(testutil.SampleRecords(), 70)

	cov := stats.Coverage
	assert.Equal(t, 6, cov.RecordCount)
	assert.InDelta(t, 457.0/6, cov.OverallCoverage, 1e-9)
	assert.InDelta(t, 78.5, cov.MedianCoverage, 1e-9)
	assert.Equal(t, 50.0, cov.MinCoverage)
	assert.Equal(t, 95.0, cov.MaxCoverage)
	require.NotNil(t, cov.StdCoverage)
	assert.Greater(t, *cov.StdCoverage, 0.0)
	assert.Equal(t, 1, cov.DistrictsAbove90, "Chandigarh averages exactly 90")
	assert.Equal(t, 1, cov.DistrictsBelowThreshold)
	assert.Equal(t, 70.0, cov.Threshold)

	demo := stats.Demographics
	assert.Equal(t, 2, demo.TotalChildren)
	assert.Equal(t, 2, demo.TotalDistricts)
	assert.Equal(t, 2, demo.TotalVillages)
	assert.Equal(t, 1, demo.MaleChildren)
	assert.Equal(t, 1, demo.FemaleChildren)
	assert.Equal(t, 0, demo.FullyVaccinatedCount)
}

func TestSummaryStatistics_ThresholdFollowsArgument(t *testing.T) {
	tests := []struct {
		threshold float64
		want      int
	}{
		{60, 0},
		{65, 1},
		{95, 2},
	}

	for _, tt := range tests {
		cov := SummaryStatistics(testutil.SampleRecords(), tt.threshold).Coverage
		assert.Equal(t, tt.threshold, cov.Threshold)
		assert.Equal(t, tt.want, cov.DistrictsBelowThreshold, "threshold %v", tt.threshold)
	}
}

func TestGroupCoverage(t *testing.T) {
	records := testutil.SampleRecords()

	assert.Equal(t, []domain.GroupCoverage{
		{Key: "BCG", Coverage: 80, Records: 2},
		{Key: "DPT", Coverage: 78.5, Records: 2},
		{Key: "Measles", Coverage: 70, Records: 2},
	}, VaccineCoverage(records))

	genders := GenderCoverage(records)
	require.Len(t, genders, 2)
	assert.Equal(t, domain.GenderFemale, genders[0].Key)
	assert.InDelta(t, 187.0/3, genders[0].Coverage, 1e-9)

	ages := AgeGroupCoverage(records)
	require.Len(t, ages, 2)
	assert.Equal(t, "0-1 years", ages[0].Key)
	assert.InDelta(t, 90.0, ages[0].Coverage, 1e-9)
}

func TestAggregations_EmptyInput(t *testing.T) {
	var none []domain.VaccinationRecord

	assert.Empty(t, DistrictMeans(none))
	assert.Empty(t, LowCoverageDistricts(none, 70))
	assert.Empty(t, DistrictSummaries(none))
	assert.Empty(t, DemographicBreakdown(none))
	assert.Equal(t, domain.SummaryStatistics{}, SummaryStatistics(none, 70))
	assert.Zero(t, OverallCoverage(none))
	assert.Empty(t, VaccineCoverage(none))
	assert.Empty(t, AgeGroupCoverage(none))
	assert.Empty(t, GenderCoverage(none))
	assert.Empty(t, VaccineStatistics(none))
	assert.Empty(t, CoverageTimeline(none))
	assert.Empty(t, MonthlyActivity(none))
	assert.Empty(t, SeasonalCoverage(none))
	assert.Empty(t, GenderVaccineCoverage(none))
	assert.Empty(t, CoverageDistribution(none, 20))
	assert.Equal(t, domain.KeyIndicators{}, KeyIndicators(none, Targets{Minimum: 75, WHO: 90, LowThreshold: 70}))
}

func TestAggregations_DoNotMutateInput(t *testing.T) {
	records := testutil.SampleRecords()
	before := domain.CloneRecords(records)

	DistrictSummaries(records)
	SummaryStatistics(records, 70)
	DemographicBreakdown(records)
	CoverageTimeline(records)
	CoverageDistribution(records, 5)
	NewRecommender(DefaultRecommendationConfig()).Generate(records)

	assert.Equal(t, before, records)
}
