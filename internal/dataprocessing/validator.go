package dataprocessing

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"vaxpulse/internal/config"
	apperrors "vaxpulse/internal/errors"
	"vaxpulse/pkg/contracts/domain"
)

// Drop reasons reported in DropStats.AsMap and the records_dropped metric.
const (
	DropBadDate         = "bad_date"
	DropBadCoverage     = "bad_coverage"
	DropOutOfRange      = "out_of_range"
	DropMissingLocation = "missing_location"
)

// dateLayouts are tried in order after the Excel serial check.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-1-2",
	"2006/01/02",
	"2006/1/2",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04:05",
	"02-Jan-2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006-01",
}

// ValidatorConfig holds the normalisation parameters.
type ValidatorConfig struct {
	// RequiredVaccines is the distinct vaccine count that marks a child fully
	// vaccinated.
	RequiredVaccines int
	// TrustFullyVaccinated keeps a parseable fully_vaccinated cell instead of
	// recomputing it. Used when re-checking records that were validated before.
	TrustFullyVaccinated bool
}

// DefaultValidatorConfig returns the standard six-vaccine schedule.
func DefaultValidatorConfig() ValidatorConfig {
	return ValidatorConfig{RequiredVaccines: config.DefaultRequiredVaccines}
}

// DropStats counts raw rows discarded during validation. Each row is counted
// under the first reason it hits.
type DropStats struct {
	BadDate         int `json:"bad_date"`
	BadCoverage     int `json:"bad_coverage"`
	OutOfRange      int `json:"out_of_range"`
	MissingLocation int `json:"missing_location"`
}

// Total returns the number of dropped rows.
func (d DropStats) Total() int {
	return d.BadDate + d.BadCoverage + d.OutOfRange + d.MissingLocation
}

// AsMap keys the counts by drop reason.
func (d DropStats) AsMap() map[string]int {
	return map[string]int{
		DropBadDate:         d.BadDate,
		DropBadCoverage:     d.BadCoverage,
		DropOutOfRange:      d.OutOfRange,
		DropMissingLocation: d.MissingLocation,
	}
}

// ValidationResult is the canonical table produced from a raw table.
type ValidationResult struct {
	Records []domain.VaccinationRecord
	Drops   DropStats
	RawRows int
}

// Validator turns raw tables into canonical vaccination records.
type Validator struct {
	logger *slog.Logger
	config ValidatorConfig
}

// NewValidator creates a validator. A non-positive RequiredVaccines falls
// back to the default schedule.
func NewValidator(logger *slog.Logger, cfg ValidatorConfig) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RequiredVaccines <= 0 {
		cfg.RequiredVaccines = config.DefaultRequiredVaccines
	}
	return &Validator{
		logger: logger.With(slog.String("component", "validator")),
		config: cfg,
	}
}

// RequiredVaccines returns the configured full-schedule size.
func (v *Validator) RequiredVaccines() int {
	return v.config.RequiredVaccines
}

// Validate checks the schema of raw and coerces its rows. Missing required
// columns are a hard error; malformed rows are dropped and counted. An empty
// table, or one where every row was dropped, yields an empty result.
func (v *Validator) Validate(raw domain.RawTable) (*ValidationResult, error) {
	if missing := MissingColumns(raw.Columns); len(missing) > 0 {
		v.logger.Warn("dataset rejected",
			slog.String("source", raw.Source),
			slog.Any("missing_columns", missing))
		return nil, apperrors.NewSchemaError(missing).WithContext("source", raw.Source)
	}

	idx := columnIndex(raw.Columns)
	fullyIdx, hasFully := idx[domain.ColumnFullyVaccinated]

	result := &ValidationResult{
		Records: make([]domain.VaccinationRecord, 0, len(raw.Rows)),
		RawRows: len(raw.Rows),
	}
	// cases.Caser keeps state between calls and is not safe for concurrent use.
	title := cases.Title(language.Und)
	trusted := make([]*bool, 0, len(raw.Rows))

	for _, row := range raw.Rows {
		cell := func(col string) string {
			i := idx[col]
			if i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		date, ok := ParseDate(cell(domain.ColumnDate))
		if !ok {
			result.Drops.BadDate++
			continue
		}
		coverage, ok := ParseCoverage(cell(domain.ColumnCoveragePercentage))
		if !ok {
			result.Drops.BadCoverage++
			continue
		}
		if coverage < 0 || coverage > 100 {
			result.Drops.OutOfRange++
			continue
		}
		district := cell(domain.ColumnDistrict)
		village := cell(domain.ColumnVillage)
		if district == "" || village == "" {
			result.Drops.MissingLocation++
			continue
		}

		var flag *bool
		if v.config.TrustFullyVaccinated && hasFully && fullyIdx < len(row) {
			if b, err := strconv.ParseBool(strings.TrimSpace(row[fullyIdx])); err == nil {
				flag = &b
			}
		}
		trusted = append(trusted, flag)

		result.Records = append(result.Records, domain.VaccinationRecord{
			District:           title.String(district),
			Village:            title.String(village),
			ChildID:            cell(domain.ColumnChildID),
			VaccineType:        cell(domain.ColumnVaccineType),
			Date:               date,
			AgeGroup:           cell(domain.ColumnAgeGroup),
			Gender:             cell(domain.ColumnGender),
			CoveragePercentage: coverage,
			Month:              int(date.Month()),
			Year:               date.Year(),
			Quarter:            (int(date.Month())-1)/3 + 1,
		})
	}

	fully := FullyVaccinatedChildren(result.Records, v.config.RequiredVaccines)
	for i := range result.Records {
		if trusted[i] != nil {
			result.Records[i].FullyVaccinated = *trusted[i]
			continue
		}
		result.Records[i].FullyVaccinated = fully[result.Records[i].ChildID]
	}

	level := slog.LevelInfo
	if result.Drops.Total() > 0 {
		level = slog.LevelWarn
	}
	v.logger.Log(context.Background(), level, "dataset validated",
		slog.String("source", raw.Source),
		slog.Int("raw_rows", result.RawRows),
		slog.Int("records", len(result.Records)),
		slog.Int("dropped", result.Drops.Total()),
		slog.Int("bad_date", result.Drops.BadDate),
		slog.Int("bad_coverage", result.Drops.BadCoverage),
		slog.Int("out_of_range", result.Drops.OutOfRange),
		slog.Int("missing_location", result.Drops.MissingLocation))

	return result, nil
}

// Revalidate runs already canonical records back through validation,
// keeping their fully_vaccinated flags. For records produced by Validate and
// then filtered the output equals the input.
func (v *Validator) Revalidate(records []domain.VaccinationRecord) []domain.VaccinationRecord {
	cfg := v.config
	cfg.TrustFullyVaccinated = true
	again := &Validator{logger: v.logger, config: cfg}

	result, err := again.Validate(ToRawTable("revalidate", records))
	if err != nil {
		// ToRawTable always carries the full header
		return []domain.VaccinationRecord{}
	}
	return result.Records
}

// FullyVaccinatedChildren maps each child id to whether it has at least
// required distinct vaccine types. Records without a child id are ignored.
func FullyVaccinatedChildren(records []domain.VaccinationRecord, required int) map[string]bool {
	vaccines := make(map[string]map[string]struct{})
	for _, r := range records {
		if r.ChildID == "" {
			continue
		}
		set, ok := vaccines[r.ChildID]
		if !ok {
			set = make(map[string]struct{})
			vaccines[r.ChildID] = set
		}
		set[r.VaccineType] = struct{}{}
	}

	fully := make(map[string]bool, len(vaccines))
	for child, set := range vaccines {
		fully[child] = len(set) >= required
	}
	return fully
}

// ParseDate parses a date cell and truncates it to a UTC calendar date.
// Plain numbers are read as Excel serial day numbers, except a bare
// four-digit year, which is January 1 of that year.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	if isYear(value) {
		t, err := time.Parse("2006", value)
		if err != nil {
			return time.Time{}, false
		}
		return toDate(t), true
	}

	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		// 1 is 1900-01-01, 2958465 is 9999-12-31
		if serial < 1 || serial > 2958465 {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		return toDate(t), true
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return toDate(t), true
		}
	}
	return time.Time{}, false
}

func isYear(value string) bool {
	if len(value) != 4 {
		return false
	}
	for _, c := range value {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func toDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseCoverage parses a coverage cell. A trailing percent sign is accepted;
// NaN and infinities are rejected. Range checks are left to the caller.
func ParseCoverage(value string) (float64, bool) {
	value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "%"))
	if value == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// FormatCoverage renders a coverage value in its shortest round-trip form.
func FormatCoverage(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ToRawTable renders records back into a raw table with the export column
// order. Validating the result reproduces the records.
func ToRawTable(source string, records []domain.VaccinationRecord) domain.RawTable {
	table := domain.RawTable{
		Source:  source,
		Columns: append([]string(nil), domain.ExportColumns...),
		Rows:    make([][]string, 0, len(records)),
	}
	for _, r := range records {
		table.Rows = append(table.Rows, []string{
			r.District,
			r.Village,
			r.ChildID,
			r.VaccineType,
			r.DateString(),
			r.AgeGroup,
			r.Gender,
			FormatCoverage(r.CoveragePercentage),
			strconv.FormatBool(r.FullyVaccinated),
		})
	}
	return table
}

// columnIndex maps normalised column names to their first position.
func columnIndex(columns []string) map[string]int {
	idx := make(map[string]int, len(columns))
	for i, c := range columns {
		name := NormalizeColumnName(c)
		if _, seen := idx[name]; !seen {
			idx[name] = i
		}
	}
	return idx
}
