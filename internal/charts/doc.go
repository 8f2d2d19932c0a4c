// Package charts builds render-agnostic chart descriptions for the coverage
// dashboard.
//
// A Spec carries titles, axes, series and reference lines; the web client
// turns it into a plot. Every chart takes the already filtered record slice,
// so the same selection drives the charts, the indicators and the exports.
//
//	b := charts.NewBuilder(charts.ConfigFrom(cfg))
//	spec, err := b.Build(charts.ChartDistrictCoverage, records)
package charts
