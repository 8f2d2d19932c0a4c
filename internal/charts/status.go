package charts

// Status is the coverage bucket a district or vaccine falls in.
type Status struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

var (
	StatusGood           = Status{Name: "Good", Color: "green"}
	StatusNeedsAttention = Status{Name: "Needs Attention", Color: "orange"}
	StatusCritical       = Status{Name: "Critical", Color: "red"}
)

// StatusFor buckets a coverage value: at or above good is Good, at or above
// attention needs attention, anything lower is critical.
func StatusFor(coverage, good, attention float64) Status {
	switch {
	case coverage >= good:
		return StatusGood
	case coverage >= attention:
		return StatusNeedsAttention
	default:
		return StatusCritical
	}
}
