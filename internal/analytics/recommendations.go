package analytics

import (
	"fmt"
	"math"
	"strings"

	"vaxpulse/internal/config"
	"vaxpulse/pkg/contracts/domain"
)

// Severity ranks a recommendation for display.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
	SeveritySuccess  Severity = "success"
)

// Rule names the check that produced a recommendation.
type Rule string

const (
	RuleOverallCritical   Rule = "overall_critical"
	RuleOverallAction     Rule = "overall_action"
	RulePriorityDistricts Rule = "priority_districts"
	RuleGenderEquity      Rule = "gender_equity"
	RuleVaccineFocus      Rule = "vaccine_focus"
	RuleSeasonal          Rule = "seasonal_planning"
	RuleAgeOutreach       Rule = "age_outreach"
	RuleGoodPerformance   Rule = "good_performance"
	RuleNoData            Rule = "no_data"
)

// Recommendation is one action item for the current selection.
type Recommendation struct {
	Rule     Rule     `json:"rule"`
	Severity Severity `json:"severity"`
	Icon     string   `json:"icon"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
}

// Markdown renders the decorated dashboard form, e.g.
// "🚨 **Critical**: Overall coverage is 72.0%. ...".
func (r Recommendation) Markdown() string {
	return fmt.Sprintf("%s **%s**: %s", r.Icon, r.Title, r.Message)
}

// Plain renders the recommendation without icon or emphasis.
func (r Recommendation) Plain() string {
	return fmt.Sprintf("%s: %s", r.Title, r.Message)
}

func (r Recommendation) String() string {
	return r.Markdown()
}

// RecommendationConfig holds the rule thresholds.
type RecommendationConfig struct {
	CriticalThreshold     float64
	WHOTarget             float64
	LowCoverageThreshold  float64
	PriorityDistrictLimit int
	GenderGapThreshold    float64
	VaccineThreshold      float64
	SeasonalDropThreshold float64
	AgeGroupThreshold     float64
}

// DefaultRecommendationConfig returns the standard rule thresholds.
func DefaultRecommendationConfig() RecommendationConfig {
	return RecommendationConfig{
		CriticalThreshold:     config.DefaultMinimumTarget,
		WHOTarget:             config.DefaultWHOTarget,
		LowCoverageThreshold:  config.DefaultLowCoverageThreshold,
		PriorityDistrictLimit: config.DefaultPriorityDistrictLimit,
		GenderGapThreshold:    config.DefaultGenderGapThreshold,
		VaccineThreshold:      config.DefaultMinimumTarget,
		SeasonalDropThreshold: config.DefaultSeasonalDropThreshold,
		AgeGroupThreshold:     config.DefaultAgeGroupThreshold,
	}
}

// RecommendationConfigFrom maps the analysis section of the application
// config onto rule thresholds.
func RecommendationConfigFrom(cfg config.AnalysisConfig) RecommendationConfig {
	return RecommendationConfig{
		CriticalThreshold:     cfg.CriticalThreshold,
		WHOTarget:             cfg.WHOTarget,
		LowCoverageThreshold:  cfg.LowCoverageThreshold,
		PriorityDistrictLimit: cfg.PriorityDistrictLimit,
		GenderGapThreshold:    cfg.GenderGapThreshold,
		VaccineThreshold:      cfg.VaccineThreshold,
		SeasonalDropThreshold: cfg.SeasonalDropThreshold,
		AgeGroupThreshold:     cfg.AgeGroupThreshold,
	}
}

// Recommender evaluates the recommendation rules. It holds no state besides
// its thresholds and is safe for concurrent use.
type Recommender struct {
	cfg RecommendationConfig
}

// NewRecommender creates a recommender. A non-positive district limit falls
// back to the default.
func NewRecommender(cfg RecommendationConfig) *Recommender {
	if cfg.PriorityDistrictLimit <= 0 {
		cfg.PriorityDistrictLimit = config.DefaultPriorityDistrictLimit
	}
	return &Recommender{cfg: cfg}
}

// Generate evaluates every rule in order and returns the ones that fired.
// An empty selection yields a single no-data item; a selection that fires
// nothing yields a single good-performance item.
func (rc *Recommender) Generate(records []domain.VaccinationRecord) []Recommendation {
	if len(records) == 0 {
		return []Recommendation{{
			Rule:     RuleNoData,
			Severity: SeverityInfo,
			Icon:     "📭",
			Title:    "No Data",
			Message:  "No vaccination records match the current selection. Adjust the filters to see recommendations.",
		}}
	}

	var out []Recommendation
	checks := []func([]domain.VaccinationRecord) *Recommendation{
		rc.overallCoverage,
		rc.priorityDistricts,
		rc.genderEquity,
		rc.vaccineFocus,
		rc.seasonalPlanning,
		rc.ageOutreach,
	}
	for _, check := range checks {
		if rec := check(records); rec != nil {
			out = append(out, *rec)
		}
	}

	if len(out) == 0 {
		out = append(out, Recommendation{
			Rule:     RuleGoodPerformance,
			Severity: SeveritySuccess,
			Icon:     "✅",
			Title:    "Good Performance",
			Message:  "Current vaccination coverage is meeting targets. Continue monitoring and maintain quality standards.",
		})
	}
	return out
}

func (rc *Recommender) overallCoverage(records []domain.VaccinationRecord) *Recommendation {
	avg := OverallCoverage(records)
	switch {
	case avg < rc.cfg.CriticalThreshold:
		return &Recommendation{
			Rule:     RuleOverallCritical,
			Severity: SeverityCritical,
			Icon:     "🚨",
			Title:    "Critical",
			Message:  fmt.Sprintf("Overall coverage is %.1f%%. Immediate intervention required across all districts.", avg),
		}
	case avg < rc.cfg.WHOTarget:
		return &Recommendation{
			Rule:     RuleOverallAction,
			Severity: SeverityWarning,
			Icon:     "⚠️",
			Title:    "Action Needed",
			Message:  fmt.Sprintf("Overall coverage is %.1f%%. Focus on improving coverage to reach WHO targets.", avg),
		}
	}
	return nil
}

func (rc *Recommender) priorityDistricts(records []domain.VaccinationRecord) *Recommendation {
	low := LowCoverageDistricts(records, rc.cfg.LowCoverageThreshold)
	if len(low) == 0 {
		return nil
	}
	if len(low) > rc.cfg.PriorityDistrictLimit {
		low = low[:rc.cfg.PriorityDistrictLimit]
	}
	names := make([]string, len(low))
	for i, d := range low {
		names[i] = d.District
	}
	return &Recommendation{
		Rule:     RulePriorityDistricts,
		Severity: SeverityCritical,
		Icon:     "📍",
		Title:    "Priority Districts",
		Message:  fmt.Sprintf("Focus resources on %s - these areas have critically low coverage.", strings.Join(names, ", ")),
	}
}

// genderEquity only compares selections with exactly two genders.
func (rc *Recommender) genderEquity(records []domain.VaccinationRecord) *Recommendation {
	genders := GenderCoverage(records)
	if len(genders) != 2 {
		return nil
	}
	gap := math.Abs(genders[0].Coverage - genders[1].Coverage)
	if gap <= rc.cfg.GenderGapThreshold {
		return nil
	}
	return &Recommendation{
		Rule:     RuleGenderEquity,
		Severity: SeverityWarning,
		Icon:     "👥",
		Title:    "Gender Equity",
		Message:  fmt.Sprintf("Address %.1f%% coverage gap between genders through targeted outreach.", gap),
	}
}

func (rc *Recommender) vaccineFocus(records []domain.VaccinationRecord) *Recommendation {
	names := keysBelow(VaccineCoverage(records), rc.cfg.VaccineThreshold)
	if len(names) == 0 {
		return nil
	}
	return &Recommendation{
		Rule:     RuleVaccineFocus,
		Severity: SeverityWarning,
		Icon:     "💉",
		Title:    "Vaccine Focus",
		Message:  fmt.Sprintf("Strengthen campaigns for %s - these have below-target coverage.", strings.Join(names, ", ")),
	}
}

// seasonalPlanning flags calendar months well below the mean of the monthly
// means. It needs at least two months to compare.
func (rc *Recommender) seasonalPlanning(records []domain.VaccinationRecord) *Recommendation {
	months := SeasonalCoverage(records)
	if len(months) < 2 {
		return nil
	}
	means := make([]float64, len(months))
	for i, m := range months {
		means[i] = m.Coverage
	}
	cutoff := mean(means) - rc.cfg.SeasonalDropThreshold

	var names []string
	for _, m := range months {
		if m.Coverage < cutoff {
			names = append(names, m.Name())
		}
	}
	if len(names) == 0 {
		return nil
	}
	return &Recommendation{
		Rule:     RuleSeasonal,
		Severity: SeverityInfo,
		Icon:     "📅",
		Title:    "Seasonal Planning",
		Message:  fmt.Sprintf("Plan intensive campaigns during %s - historically low coverage months.", strings.Join(names, ", ")),
	}
}

func (rc *Recommender) ageOutreach(records []domain.VaccinationRecord) *Recommendation {
	names := keysBelow(AgeGroupCoverage(records), rc.cfg.AgeGroupThreshold)
	if len(names) == 0 {
		return nil
	}
	return &Recommendation{
		Rule:     RuleAgeOutreach,
		Severity: SeverityInfo,
		Icon:     "👶",
		Title:    "Age-Specific Outreach",
		Message:  fmt.Sprintf("Design targeted programs for %s age groups with lower coverage.", strings.Join(names, ", ")),
	}
}

func keysBelow(groups []domain.GroupCoverage, threshold float64) []string {
	var names []string
	for _, g := range groups {
		if g.Coverage < threshold {
			names = append(names, g.Key)
		}
	}
	return names
}

// Strings renders recommendations in their decorated form.
func Strings(recs []Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Markdown()
	}
	return out
}
