package charts

// Kind is the mark type of a series.
type Kind string

const (
	KindBar     Kind = "bar"
	KindLine    Kind = "line"
	KindScatter Kind = "scatter"
	KindMap     Kind = "map"
)

// Orientation of bar charts.
const (
	Horizontal = "h"
	Vertical   = "v"
)

// Series is one trace of a chart. Labels and Values are parallel; Colors and
// Text, when set, are parallel to them too.
type Series struct {
	Name   string    `json:"name"`
	Kind   Kind      `json:"kind"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
	Colors []string  `json:"colors,omitempty"`
	Text   []string  `json:"text,omitempty"`
}

// ReferenceLine is a target marker drawn across the plot.
type ReferenceLine struct {
	Axis  string  `json:"axis"`
	Value float64 `json:"value"`
	Label string  `json:"label,omitempty"`
	Color string  `json:"color"`
	Dash  bool    `json:"dash"`
}

// Axis describes one plot axis. Range is optional.
type Axis struct {
	Title string      `json:"title"`
	Range *[2]float64 `json:"range,omitempty"`
}

// Marker is one district pin on the coverage map.
type Marker struct {
	District string  `json:"district"`
	Village  string  `json:"village"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Coverage float64 `json:"coverage_percentage"`
	Status   string  `json:"status"`
	Color    string  `json:"color"`
	Tooltip  string  `json:"tooltip"`
}

// Spec is a render-agnostic chart description. Multi-panel charts carry
// their sub-plots in Panels.
type Spec struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Orientation string          `json:"orientation,omitempty"`
	Grouped     bool            `json:"grouped,omitempty"`
	Height      int             `json:"height"`
	XAxis       Axis            `json:"x_axis"`
	YAxis       Axis            `json:"y_axis"`
	Series      []Series        `json:"series"`
	Lines       []ReferenceLine `json:"reference_lines,omitempty"`
	Panels      []Spec          `json:"panels,omitempty"`
	Markers     []Marker        `json:"markers,omitempty"`
	Center      *[2]float64     `json:"center,omitempty"`
	Empty       bool            `json:"empty"`
}

func percentRange() *[2]float64 {
	return &[2]float64{0, 100}
}
