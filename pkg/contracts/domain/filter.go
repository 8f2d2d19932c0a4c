package domain

import (
	"strings"
	"time"
)

// AllValues is the selection value that disables a categorical filter.
const AllValues = "All"

// DateRange is an inclusive calendar date range. The range only applies when
// both bounds are set.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end" validate:"omitempty,gtefield=Start"`
}

// IsSet reports whether both bounds are present.
func (d DateRange) IsSet() bool {
	return !d.Start.IsZero() && !d.End.IsZero()
}

// FilterSelection is the five-tuple supplied by the presentation layer.
type FilterSelection struct {
	District  string    `json:"district" validate:"max=120"`
	Vaccine   string    `json:"vaccine" validate:"max=120"`
	DateRange DateRange `json:"date_range"`
	AgeGroup  string    `json:"age_group" validate:"max=60"`
	Gender    string    `json:"gender" validate:"max=30"`
}

// AllSelection returns a selection that matches every record.
func AllSelection() FilterSelection {
	return FilterSelection{
		District: AllValues,
		Vaccine:  AllValues,
		AgeGroup: AllValues,
		Gender:   AllValues,
	}
}

// IsAll reports whether a categorical selection value matches everything.
func IsAll(value string) bool {
	v := strings.TrimSpace(value)
	return v == "" || strings.EqualFold(v, AllValues)
}

// FilterOptions lists the distinct values available for each filter control.
type FilterOptions struct {
	Districts []string  `json:"districts"`
	Vaccines  []string  `json:"vaccines"`
	AgeGroups []string  `json:"age_groups"`
	Genders   []string  `json:"genders"`
	MinDate   time.Time `json:"min_date"`
	MaxDate   time.Time `json:"max_date"`
}
