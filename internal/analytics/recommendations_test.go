package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaxpulse/internal/config"
	"vaxpulse/internal/shared/testutil"
	"vaxpulse/pkg/contracts/domain"
)

func rulesOf(recs []Recommendation) []Rule {
	rules := make([]Rule, len(recs))
	for i, r := range recs {
		rules[i] = r.Rule
	}
	return rules
}

// healthy returns records that fire no rule: one district, one gender, one
// age group, one month, all at 95.
func healthy(n int) []domain.VaccinationRecord {
	return testutil.CoverageRecords("Chandigarh", make95(n)...)
}

func make95(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 95
	}
	return out
}

func TestGenerate_EmptyInput(t *testing.T) {
	recs := NewRecommender(DefaultRecommendationConfig()).Generate(nil)
	require.Len(t, recs, 1)
	assert.Equal(t, RuleNoData, recs[0].Rule)
	assert.NotEmpty(t, recs[0].Message)
}

func TestGenerate_GoodPerformance(t *testing.T) {
	recs := NewRecommender(DefaultRecommendationConfig()).Generate(healthy(4))
	require.Len(t, recs, 1)
	assert.Equal(t, RuleGoodPerformance, recs[0].Rule)
	assert.Equal(t, "✅ **Good Performance**: Current vaccination coverage is meeting targets. Continue monitoring and maintain quality standards.", recs[0].Markdown())
}

func TestGenerate_OverallCoverageIsExclusive(t *testing.T) {
	tests := []struct {
		name     string
		coverage float64
		want     Rule
		notWant  Rule
	}{
		{"72 is critical only", 72, RuleOverallCritical, RuleOverallAction},
		{"80 needs action", 80, RuleOverallAction, RuleOverallCritical},
		{"75 is not critical", 75, RuleOverallAction, RuleOverallCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := testutil.CoverageRecords("Chandigarh", tt.coverage, tt.coverage)
			rules := rulesOf(NewRecommender(DefaultRecommendationConfig()).Generate(records))

			assert.Equal(t, tt.want, rules[0])
			assert.NotContains(t, rules, tt.notWant)
		})
	}

	recs := NewRecommender(DefaultRecommendationConfig()).Generate(testutil.CoverageRecords("Chandigarh", 72))
	assert.Equal(t, "🚨 **Critical**: Overall coverage is 72.0%. Immediate intervention required across all districts.", recs[0].Markdown())
	assert.Equal(t, "Critical: Overall coverage is 72.0%. Immediate intervention required across all districts.", recs[0].Plain())
}

func TestGenerate_PriorityDistricts(t *testing.T) {
	var records []domain.VaccinationRecord
	for name, c := range map[string]float64{"Alpha": 60, "Bravo": 40, "Charlie": 55, "Delta": 65, "Echo": 99} {
		records = append(records, testutil.CoverageRecords(name, c)...)
	}

	recs := NewRecommender(DefaultRecommendationConfig()).Generate(records)
	var priority *Recommendation
	for i := range recs {
		if recs[i].Rule == RulePriorityDistricts {
			priority = &recs[i]
		}
	}
	require.NotNil(t, priority)
	assert.Equal(t, "Focus resources on Bravo, Charlie, Alpha - these areas have critically low coverage.", priority.Message)
}

func TestGenerate_GenderEquity(t *testing.T) {
	male := testutil.Record().Gender(domain.GenderMale).Coverage(100).Build()
	female := testutil.Record().Gender(domain.GenderFemale).Coverage(88).Build()
	other := testutil.Record().Gender("Other").Coverage(100).Build()

	tests := []struct {
		name    string
		records []domain.VaccinationRecord
		fires   bool
	}{
		{"gap of 12", []domain.VaccinationRecord{male, female}, true},
		{"single gender is skipped", []domain.VaccinationRecord{male, male}, false},
		{"three genders are skipped", []domain.VaccinationRecord{male, female, other}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := rulesOf(NewRecommender(DefaultRecommendationConfig()).Generate(tt.records))
			if tt.fires {
				assert.Contains(t, rules, RuleGenderEquity)
			} else {
				assert.NotContains(t, rules, RuleGenderEquity)
			}
		})
	}

	recs := NewRecommender(DefaultRecommendationConfig()).Generate([]domain.VaccinationRecord{male, female})
	for _, r := range recs {
		if r.Rule == RuleGenderEquity {
			assert.Contains(t, r.Message, "12.0% coverage gap")
		}
	}

	gapOfTen := []domain.VaccinationRecord{male, testutil.Record().Gender(domain.GenderFemale).Coverage(90).Build()}
	assert.NotContains(t, rulesOf(NewRecommender(DefaultRecommendationConfig()).Generate(gapOfTen)), RuleGenderEquity,
		"the gap must exceed the threshold")
}

func TestGenerate_Seasonal(t *testing.T) {
	records := []domain.VaccinationRecord{
		testutil.Record().On(2024, time.January, 1).Coverage(95).Build(),
		testutil.Record().On(2024, time.February, 1).Coverage(95).Build(),
		testutil.Record().On(2024, time.March, 1).Coverage(80).Build(),
		testutil.Record().On(2024, time.November, 1).Coverage(82).Build(),
	}

	recs := NewRecommender(DefaultRecommendationConfig()).Generate(records)
	var seasonal []string
	for _, r := range recs {
		if r.Rule == RuleSeasonal {
			seasonal = append(seasonal, r.Message)
		}
	}
	require.Len(t, seasonal, 1)
	assert.Equal(t, "Plan intensive campaigns during March, November - historically low coverage months.", seasonal[0])

	// a single month has nothing to compare against
	single := testutil.CoverageRecords("Chandigarh", 95, 60)
	assert.NotContains(t, rulesOf(NewRecommender(DefaultRecommendationConfig()).Generate(single)), RuleSeasonal)
}

func TestGenerate_RuleOrder(t *testing.T) {
	records := []domain.VaccinationRecord{
		testutil.Record().District("Low").Gender(domain.GenderMale).Vaccine("Polio").Age("0-1 years").On(2024, time.January, 1).Coverage(40).Build(),
		testutil.Record().District("Low").Gender(domain.GenderMale).Vaccine("Polio").Age("0-1 years").On(2024, time.February, 1).Coverage(45).Build(),
		testutil.Record().District("High").Gender(domain.GenderFemale).Vaccine("BCG").Age("1-2 years").On(2024, time.March, 1).Coverage(95).Build(),
		testutil.Record().District("High").Gender(domain.GenderFemale).Vaccine("BCG").Age("1-2 years").On(2024, time.April, 1).Coverage(95).Build(),
	}

	recs := NewRecommender(DefaultRecommendationConfig()).Generate(records)
	assert.Equal(t, []Rule{
		RuleOverallCritical,
		RulePriorityDistricts,
		RuleGenderEquity,
		RuleVaccineFocus,
		RuleSeasonal,
		RuleAgeOutreach,
	}, rulesOf(recs))

	assert.Equal(t, "Strengthen campaigns for Polio - these have below-target coverage.", recs[3].Message)
	assert.Equal(t, "Design targeted programs for 0-1 years age groups with lower coverage.", recs[5].Message)
}

func TestRecommendationConfigFrom(t *testing.T) {
	cfg := config.Default().Analysis
	cfg.CriticalThreshold = 50
	cfg.WHOTarget = 60
	cfg.PriorityDistrictLimit = 0

	rc := NewRecommender(RecommendationConfigFrom(cfg))
	assert.Equal(t, config.DefaultPriorityDistrictLimit, rc.cfg.PriorityDistrictLimit)

	// 72 clears both lowered overall thresholds
	rules := rulesOf(rc.Generate(testutil.CoverageRecords("Chandigarh", 72, 72)))
	assert.NotContains(t, rules, RuleOverallCritical)
	assert.NotContains(t, rules, RuleOverallAction)
}

func TestStrings(t *testing.T) {
	recs := NewRecommender(DefaultRecommendationConfig()).Generate(healthy(1))
	assert.Equal(t, []string{recs[0].Markdown()}, Strings(recs))
}
