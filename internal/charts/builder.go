package charts

import (
	"fmt"
	"sort"

	"vaxpulse/internal/analytics"
	"vaxpulse/internal/config"
	apperrors "vaxpulse/internal/errors"
	"vaxpulse/pkg/contracts/domain"
)

// Chart identifiers accepted by Build.
const (
	ChartDistrictCoverage  = "district-coverage"
	ChartVaccineCoverage   = "vaccine-coverage"
	ChartDistribution      = "coverage-distribution"
	ChartVaccineComparison = "vaccine-comparison"
	ChartTimeline          = "timeline"
	ChartMonthlyActivity   = "monthly-activity"
	ChartSeasonalPattern   = "seasonal-pattern"
	ChartAgeGroup          = "age-group"
	ChartGender            = "gender"
	ChartCoverageMap       = "coverage-map"
)

// IDs lists every chart in dashboard order.
var IDs = []string{
	ChartDistrictCoverage,
	ChartCoverageMap,
	ChartVaccineCoverage,
	ChartDistribution,
	ChartVaccineComparison,
	ChartTimeline,
	ChartMonthlyActivity,
	ChartSeasonalPattern,
	ChartAgeGroup,
	ChartGender,
}

// Config holds the reference levels and map settings.
type Config struct {
	Region        string
	WHOTarget     float64
	MinimumTarget float64
	HistogramBins int
	CenterLat     float64
	CenterLon     float64
}

// DefaultConfig returns the standard chart settings.
func DefaultConfig() Config {
	return Config{
		Region:        config.DefaultRegion,
		WHOTarget:     config.DefaultWHOTarget,
		MinimumTarget: config.DefaultMinimumTarget,
		HistogramBins: analytics.DefaultHistogramBins,
		CenterLat:     config.DefaultMapCenterLat,
		CenterLon:     config.DefaultMapCenterLon,
	}
}

// ConfigFrom maps the application configuration onto chart settings.
func ConfigFrom(cfg *config.Config) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	c.Region = cfg.Report.Region
	c.WHOTarget = cfg.Analysis.WHOTarget
	c.MinimumTarget = cfg.Analysis.CriticalThreshold
	c.CenterLat = cfg.Report.MapCenterLat
	c.CenterLon = cfg.Report.MapCenterLon
	return c
}

// Builder turns aggregations into chart specs. It is stateless apart from its
// configuration.
type Builder struct {
	cfg Config
}

// NewBuilder creates a chart builder.
func NewBuilder(cfg Config) *Builder {
	if cfg.HistogramBins <= 0 {
		cfg.HistogramBins = analytics.DefaultHistogramBins
	}
	return &Builder{cfg: cfg}
}

// Build renders the chart named id over records.
func (b *Builder) Build(id string, records []domain.VaccinationRecord) (Spec, error) {
	var spec Spec
	switch id {
	case ChartDistrictCoverage:
		spec = b.DistrictCoverage(records)
	case ChartVaccineCoverage:
		spec = b.VaccineCoverage(records)
	case ChartDistribution:
		spec = b.CoverageDistribution(records)
	case ChartVaccineComparison:
		spec = b.VaccineComparison(records)
	case ChartTimeline:
		spec = b.Timeline(records)
	case ChartMonthlyActivity:
		spec = b.MonthlyActivity(records)
	case ChartSeasonalPattern:
		spec = b.SeasonalPattern(records)
	case ChartAgeGroup:
		spec = b.AgeGroup(records)
	case ChartGender:
		spec = b.Gender(records)
	case ChartCoverageMap:
		spec = b.CoverageMap(records)
	default:
		return Spec{}, apperrors.NewNotFoundError(fmt.Sprintf("chart %q", id))
	}
	spec.Empty = len(records) == 0
	return spec, nil
}

// All renders every chart in IDs order.
func (b *Builder) All(records []domain.VaccinationRecord) []Spec {
	out := make([]Spec, 0, len(IDs))
	for _, id := range IDs {
		spec, _ := b.Build(id, records)
		out = append(out, spec)
	}
	return out
}

func (b *Builder) whoLine(axis string) ReferenceLine {
	return ReferenceLine{
		Axis:  axis,
		Value: b.cfg.WHOTarget,
		Label: fmt.Sprintf("WHO Target (%.0f%%)", b.cfg.WHOTarget),
		Color: "red",
		Dash:  true,
	}
}

func (b *Builder) status(coverage float64) Status {
	return StatusFor(coverage, b.cfg.WHOTarget, b.cfg.MinimumTarget)
}

// DistrictCoverage is a horizontal bar per district, lowest first, coloured
// by status.
func (b *Builder) DistrictCoverage(records []domain.VaccinationRecord) Spec {
	means := analytics.DistrictMeans(records)
	sort.SliceStable(means, func(i, j int) bool { return means[i].Coverage < means[j].Coverage })

	s := Series{Name: "Coverage", Kind: KindBar}
	for _, d := range means {
		s.Labels = append(s.Labels, d.District)
		s.Values = append(s.Values, d.Coverage)
		s.Colors = append(s.Colors, b.status(d.Coverage).Color)
		s.Text = append(s.Text, fmt.Sprintf("%.1f%%", d.Coverage))
	}
	return Spec{
		ID:          ChartDistrictCoverage,
		Title:       fmt.Sprintf("Vaccination Coverage by %s District", b.cfg.Region),
		Orientation: Horizontal,
		Height:      400,
		XAxis:       Axis{Title: "Coverage Percentage (%)"},
		YAxis:       Axis{Title: "District"},
		Series:      []Series{s},
	}
}

// VaccineCoverage is a horizontal bar per vaccine, lowest first, with the
// WHO target line.
func (b *Builder) VaccineCoverage(records []domain.VaccinationRecord) Spec {
	groups := analytics.VaccineCoverage(records)
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Coverage < groups[j].Coverage })

	s := groupSeries("Coverage", KindBar, groups)
	for _, g := range groups {
		s.Colors = append(s.Colors, b.status(g.Coverage).Color)
	}
	return Spec{
		ID:          ChartVaccineCoverage,
		Title:       "Average Vaccination Coverage by Vaccine Type",
		Orientation: Horizontal,
		Height:      400,
		XAxis:       Axis{Title: "Coverage Percentage (%)", Range: percentRange()},
		YAxis:       Axis{Title: "Vaccine Type"},
		Series:      []Series{s},
		Lines:       []ReferenceLine{b.whoLine("x")},
	}
}

// CoverageDistribution is a histogram of record coverage with WHO and
// minimum target lines.
func (b *Builder) CoverageDistribution(records []domain.VaccinationRecord) Spec {
	s := Series{Name: "Records", Kind: KindBar}
	for _, bin := range analytics.CoverageDistribution(records, b.cfg.HistogramBins) {
		s.Labels = append(s.Labels, fmt.Sprintf("%.1f-%.1f", bin.Lower, bin.Upper))
		s.Values = append(s.Values, float64(bin.Count))
	}
	return Spec{
		ID:     ChartDistribution,
		Title:  "Distribution of Vaccination Coverage Percentages",
		Height: 400,
		XAxis:  Axis{Title: "Coverage Percentage (%)"},
		YAxis:  Axis{Title: "Number of Records"},
		Series: []Series{s},
		Lines: []ReferenceLine{
			{Axis: "x", Value: b.cfg.WHOTarget, Label: "WHO Target", Color: "green", Dash: true},
			{Axis: "x", Value: b.cfg.MinimumTarget, Label: "Minimum Target", Color: "orange", Dash: true},
		},
	}
}

// VaccineComparison is a four panel chart: mean, min/max range, standard
// deviation and sample size per vaccine.
func (b *Builder) VaccineComparison(records []domain.VaccinationRecord) Spec {
	stats := analytics.VaccineStatistics(records)

	var (
		names                       []string
		means, mins, maxs, std, cnt []float64
	)
	for _, v := range stats {
		names = append(names, v.VaccineType)
		means = append(means, v.Mean)
		mins = append(mins, v.Min)
		maxs = append(maxs, v.Max)
		cnt = append(cnt, float64(v.Count))
		if v.StdDev != nil {
			std = append(std, *v.StdDev)
		} else {
			std = append(std, 0)
		}
	}

	panel := func(title string, series ...Series) Spec {
		return Spec{Title: title, XAxis: Axis{Title: "Vaccine Type"}, Series: series}
	}
	return Spec{
		ID:     ChartVaccineComparison,
		Title:  "Comprehensive Vaccine Analysis",
		Height: 600,
		Panels: []Spec{
			panel("Average Coverage", Series{Name: "Average", Kind: KindBar, Labels: names, Values: means}),
			panel("Coverage Range",
				Series{Name: "Max", Kind: KindScatter, Labels: names, Values: maxs, Colors: repeat("green", len(names))},
				Series{Name: "Min", Kind: KindScatter, Labels: names, Values: mins, Colors: repeat("red", len(names))}),
			panel("Standard Deviation", Series{Name: "Std Dev", Kind: KindBar, Labels: names, Values: std}),
			panel("Sample Size", Series{Name: "Count", Kind: KindBar, Labels: names, Values: cnt}),
		},
	}
}

// Timeline draws one line per vaccine over dates with the WHO target.
func (b *Builder) Timeline(records []domain.VaccinationRecord) Spec {
	byVaccine := map[string]*Series{}
	var order []string
	for _, p := range analytics.CoverageTimeline(records) {
		s, ok := byVaccine[p.VaccineType]
		if !ok {
			s = &Series{Name: p.VaccineType, Kind: KindLine}
			byVaccine[p.VaccineType] = s
			order = append(order, p.VaccineType)
		}
		s.Labels = append(s.Labels, p.Date.Format("2006-01-02"))
		s.Values = append(s.Values, p.Coverage)
	}
	sort.Strings(order)

	series := make([]Series, 0, len(order))
	for _, name := range order {
		series = append(series, *byVaccine[name])
	}
	return Spec{
		ID:     ChartTimeline,
		Title:  "Vaccination Coverage Trends Over Time",
		Height: 500,
		XAxis:  Axis{Title: "Date"},
		YAxis:  Axis{Title: "Coverage Percentage (%)"},
		Series: series,
		Lines:  []ReferenceLine{b.whoLine("y")},
	}
}

// MonthlyActivity counts vaccinations per YYYY-MM.
func (b *Builder) MonthlyActivity(records []domain.VaccinationRecord) Spec {
	s := Series{Name: "Vaccinations", Kind: KindBar}
	for _, m := range analytics.MonthlyActivity(records) {
		s.Labels = append(s.Labels, m.Label())
		s.Values = append(s.Values, float64(m.Vaccinations))
	}
	return Spec{
		ID:     ChartMonthlyActivity,
		Title:  "Monthly Vaccination Activity",
		Height: 400,
		XAxis:  Axis{Title: "Month"},
		YAxis:  Axis{Title: "Number of Vaccinations"},
		Series: []Series{s},
	}
}

// SeasonalPattern plots the mean coverage of each calendar month.
func (b *Builder) SeasonalPattern(records []domain.VaccinationRecord) Spec {
	s := Series{Name: "Average Coverage", Kind: KindLine}
	for _, m := range analytics.SeasonalCoverage(records) {
		s.Labels = append(s.Labels, m.Name())
		s.Values = append(s.Values, m.Coverage)
	}
	return Spec{
		ID:     ChartSeasonalPattern,
		Title:  "Seasonal Vaccination Patterns",
		Height: 400,
		XAxis:  Axis{Title: "Month"},
		YAxis:  Axis{Title: "Average Coverage (%)"},
		Series: []Series{s},
	}
}

// AgeGroup is a bar per age group, highest coverage first.
func (b *Builder) AgeGroup(records []domain.VaccinationRecord) Spec {
	groups := analytics.AgeGroupCoverage(records)
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Coverage > groups[j].Coverage })

	line := b.whoLine("y")
	line.Label = ""
	return Spec{
		ID:          ChartAgeGroup,
		Title:       "Vaccination Coverage by Age Group",
		Orientation: Vertical,
		Height:      400,
		XAxis:       Axis{Title: "Age Group"},
		YAxis:       Axis{Title: "Coverage Percentage (%)"},
		Series:      []Series{groupSeries("Coverage", KindBar, groups)},
		Lines:       []ReferenceLine{line},
	}
}

// Gender groups bars by vaccine with one series per gender.
func (b *Builder) Gender(records []domain.VaccinationRecord) Spec {
	cells := analytics.GenderVaccineCoverage(records)

	vaccineSet := map[string]struct{}{}
	genderSet := map[string]struct{}{}
	values := map[[2]string]float64{}
	for _, c := range cells {
		vaccineSet[c.VaccineType] = struct{}{}
		genderSet[c.Gender] = struct{}{}
		values[[2]string{c.Gender, c.VaccineType}] = c.Coverage
	}
	vaccines := sortedSet(vaccineSet)

	var series []Series
	for _, g := range sortedSet(genderSet) {
		s := Series{Name: g, Kind: KindBar}
		for _, v := range vaccines {
			cov, ok := values[[2]string{g, v}]
			if !ok {
				continue
			}
			s.Labels = append(s.Labels, v)
			s.Values = append(s.Values, cov)
		}
		series = append(series, s)
	}

	line := b.whoLine("y")
	line.Label = ""
	return Spec{
		ID:      ChartGender,
		Title:   "Vaccination Coverage by Gender",
		Grouped: true,
		Height:  400,
		XAxis:   Axis{Title: "Vaccine Type"},
		YAxis:   Axis{Title: "Coverage Percentage (%)"},
		Series:  series,
		Lines:   []ReferenceLine{line},
	}
}

func groupSeries(name string, kind Kind, groups []domain.GroupCoverage) Series {
	s := Series{Name: name, Kind: kind}
	for _, g := range groups {
		s.Labels = append(s.Labels, g.Key)
		s.Values = append(s.Values, g.Coverage)
	}
	return s
}

func repeat(v string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
