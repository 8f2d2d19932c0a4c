package exporter

import (
	"time"

	"vaxpulse/internal/analytics"
	"vaxpulse/pkg/contracts/domain"
)

// reportContent is the data shared by the PDF and text reports.
type reportContent struct {
	Region          string
	GeneratedAt     time.Time
	Stats           domain.SummaryStatistics
	Districts       []domain.DistrictSummary
	Recommendations []string
}

func (b *ReportBuilder) content(records []domain.VaccinationRecord, at time.Time) reportContent {
	districts := analytics.DistrictSummaries(records)
	if len(districts) > b.opts.TopDistricts {
		districts = districts[:b.opts.TopDistricts]
	}

	recs := b.recommender.Generate(records)
	plain := make([]string, len(recs))
	for i, r := range recs {
		plain[i] = StripMarkup(r.Markdown())
	}

	return reportContent{
		Region:          b.opts.Region,
		GeneratedAt:     at,
		Stats:           analytics.SummaryStatistics(records, b.opts.LowCoverageThreshold),
		Districts:       districts,
		Recommendations: plain,
	}
}

// metricRow is one line of the key performance indicator table.
type metricRow struct {
	Metric string
	Value  string
}

func (c reportContent) keyMetrics() []metricRow {
	demo := c.Stats.Demographics
	return []metricRow{
		{"Total Children", formatCount(demo.TotalChildren)},
		{"Districts Covered", formatCount(demo.TotalDistricts)},
		{"Villages Covered", formatCount(demo.TotalVillages)},
		{"Average Coverage", formatPercent(c.Stats.Coverage.OverallCoverage)},
		{"Fully Vaccinated", formatCount(demo.FullyVaccinatedCount)},
	}
}

func (c reportContent) executiveSummary() string {
	return "This report analyzes vaccination coverage data for " +
		formatCount(c.Stats.Demographics.TotalChildren) + " children across " +
		formatCount(c.Stats.Demographics.TotalDistricts) + " districts in " + c.Region +
		". The overall coverage rate is " + formatPercent(c.Stats.Coverage.OverallCoverage) + "."
}

func (c reportContent) title() string {
	return c.Region + " Vaccination Coverage Report"
}

var districtHeader = []string{"District", "Avg Coverage (%)", "Children Tracked", "Villages"}

func districtRow(d domain.DistrictSummary) []string {
	return []string{
		d.District,
		formatPercent(d.AvgCoverage),
		formatCount(d.ChildrenTracked),
		formatCount(d.VillagesCovered),
	}
}
