package dataprocessing

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	apperrors "vaxpulse/internal/errors"
	"vaxpulse/pkg/contracts/domain"
)

var (
	selectionValidator     *validator.Validate
	selectionValidatorOnce sync.Once
)

func getSelectionValidator() *validator.Validate {
	selectionValidatorOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		v.RegisterStructValidation(dateRangeBounds, domain.DateRange{})
		selectionValidator = v
	})
	return selectionValidator
}

// dateRangeBounds rejects a range with only one bound; Filter would
// otherwise ignore it.
func dateRangeBounds(sl validator.StructLevel) {
	r := sl.Current().Interface().(domain.DateRange)
	switch {
	case r.Start.IsZero() && !r.End.IsZero():
		sl.ReportError(r.Start, "start", "Start", "required_with", "end")
	case !r.Start.IsZero() && r.End.IsZero():
		sl.ReportError(r.End, "end", "End", "required_with", "start")
	}
}

// ValidateSelection rejects selections the filter cannot apply: an inverted
// date range or one with a single bound.
func ValidateSelection(sel domain.FilterSelection) error {
	err := getSelectionValidator().Struct(sel)
	if err == nil {
		return nil
	}

	var fields []string
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
		}
	}
	appErr := apperrors.NewFilterError("invalid filter selection", err)
	if len(fields) > 0 {
		appErr = appErr.WithContext("fields", fields)
	}
	return appErr
}

// Filter returns the records matching every active criterion of sel. "All"
// or an empty value disables a categorical criterion, matched without regard
// to case. The date range is inclusive on both ends and compares calendar
// dates only. records is never modified; the result is a new slice and is
// empty, not nil, when nothing matches.
func Filter(records []domain.VaccinationRecord, sel domain.FilterSelection) []domain.VaccinationRecord {
	var start, end time.Time
	useRange := sel.DateRange.IsSet()
	if useRange {
		start = toDate(sel.DateRange.Start)
		end = toDate(sel.DateRange.End)
	}

	out := make([]domain.VaccinationRecord, 0, len(records))
	for _, r := range records {
		if !matches(sel.District, r.District) ||
			!matches(sel.Vaccine, r.VaccineType) ||
			!matches(sel.AgeGroup, r.AgeGroup) ||
			!matches(sel.Gender, r.Gender) {
			continue
		}
		if useRange {
			d := toDate(r.Date)
			if d.Before(start) || d.After(end) {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

func matches(selected, value string) bool {
	if domain.IsAll(selected) {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(selected), value)
}

// Options lists the distinct, sorted values of each filter control and the
// date span of records.
func Options(records []domain.VaccinationRecord) domain.FilterOptions {
	districts := make(map[string]struct{})
	vaccines := make(map[string]struct{})
	ages := make(map[string]struct{})
	genders := make(map[string]struct{})

	var opts domain.FilterOptions
	for i, r := range records {
		districts[r.District] = struct{}{}
		vaccines[r.VaccineType] = struct{}{}
		ages[r.AgeGroup] = struct{}{}
		genders[r.Gender] = struct{}{}

		if i == 0 || r.Date.Before(opts.MinDate) {
			opts.MinDate = r.Date
		}
		if i == 0 || r.Date.After(opts.MaxDate) {
			opts.MaxDate = r.Date
		}
	}

	opts.Districts = sortedKeys(districts)
	opts.Vaccines = sortedKeys(vaccines)
	opts.AgeGroups = sortedKeys(ages)
	opts.Genders = sortedKeys(genders)
	return opts
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		if k == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
