package exporter

import (
	"fmt"
	"strings"
)

const (
	textRule    = "=================================================="
	textSection = "--------------------"
)

// renderText lays out the plain-text summary. Apart from the generation
// line the output depends only on the records and thresholds.
func (b *ReportBuilder) renderText(c reportContent) ([]byte, error) {
	var sb strings.Builder
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(&sb, format, args...)
		sb.WriteByte('\n')
	}

	line("VACCINATION COVERAGE SUMMARY REPORT")
	line(textRule)
	line("Generated on: %s", c.GeneratedAt.Format("2006-01-02 15:04:05"))
	line("")

	line("OVERALL STATISTICS")
	line(textSection)
	line("Total children tracked: %s", formatCount(c.Stats.Demographics.TotalChildren))
	line("Districts covered: %d", c.Stats.Demographics.TotalDistricts)
	line("Villages covered: %d", c.Stats.Demographics.TotalVillages)
	line("Average coverage: %s", formatPercent(c.Stats.Coverage.OverallCoverage))
	line("")

	line("DISTRICT PERFORMANCE")
	line(textSection)
	for _, d := range c.Districts {
		line("%s: %s", d.District, formatPercent(d.AvgCoverage))
	}
	line("")

	line("KEY RECOMMENDATIONS")
	line(textSection)
	for i, rec := range c.Recommendations {
		line("%d. %s", i+1, rec)
	}

	return []byte(strings.TrimSuffix(sb.String(), "\n")), nil
}
