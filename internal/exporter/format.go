package exporter

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// formatCount renders an integer with English thousands separators.
func formatCount(n int) string {
	return message.NewPrinter(language.English).Sprintf("%d", n)
}

// formatPercent renders a coverage value with one decimal, e.g. "72.5%".
func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// round2 rounds to two decimals for tabular sheets.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
