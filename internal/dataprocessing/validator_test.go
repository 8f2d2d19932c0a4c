package dataprocessing

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "vaxpulse/internal/errors"
	"vaxpulse/internal/shared/testutil"
	"vaxpulse/pkg/contracts/domain"
)

func TestValidate_SchemaError(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	v := NewValidator(logger, DefaultValidatorConfig())

	raw := domain.RawTable{
		Source:  "upload.csv",
		Columns: []string{"district", "village", "child_id", "vaccine_type", "date", "age_group"},
		Rows:    [][]string{{"A", "B", "C", "BCG", "2024-01-01", "0-1 years"}},
	}

	result, err := v.Validate(raw)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, apperrors.IsSchemaError(err))
	assert.Equal(t, []string{"gender", "coverage_percentage"}, apperrors.MissingColumns(err))
	assert.Contains(t, err.Error(), "[SCHEMA/validate]")
	testutil.AssertLogContains(t, handler, slog.LevelWarn, "dataset rejected")
}

func TestValidate_EmptyInput(t *testing.T) {
	v := NewValidator(nil, DefaultValidatorConfig())

	result, err := v.Validate(testutil.RawTable())
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Empty(t, result.Records)
	assert.NotNil(t, result.Records)
	assert.Zero(t, result.Drops.Total())
}

func TestValidate_AllRowsDropped(t *testing.T) {
	v := NewValidator(nil, DefaultValidatorConfig())

	result, err := v.Validate(testutil.RawTable(
		testutil.RawRow("A", "B", "C1", "BCG", "someday", "0-1 years", "Male", "80"),
		testutil.RawRow("A", "B", "C1", "BCG", "2024-01-01", "0-1 years", "Male", "180"),
	))
	require.NoError(t, err, "cleaning everything away is not a schema failure")
	assert.Empty(t, result.Records)
	assert.Equal(t, 2, result.Drops.Total())
	assert.Equal(t, 2, result.RawRows)
}

func TestValidate_Normalizes(t *testing.T) {
	v := NewValidator(nil, DefaultValidatorConfig())

	result, err := v.Validate(testutil.RawTable(
		testutil.RawRow("  new DELHI ", "rajpur village", " C9 ", " BCG ", "2024-05-17T10:30:00Z", " 0-1 years", "Female ", "87.5%"),
	))
	require.NoError(t, err)
	require.Len(t, result.Records, 1)

	r := result.Records[0]
	assert.Equal(t, "New Delhi", r.District)
	assert.Equal(t, "Rajpur Village", r.Village)
	assert.Equal(t, "C9", r.ChildID)
	assert.Equal(t, "BCG", r.VaccineType)
	assert.Equal(t, "0-1 years", r.AgeGroup)
	assert.Equal(t, "Female", r.Gender)
	assert.Equal(t, 87.5, r.CoveragePercentage)
	assert.Equal(t, time.Date(2024, time.May, 17, 0, 0, 0, 0, time.UTC), r.Date)
	assert.Equal(t, 2024, r.Year)
	assert.Equal(t, 5, r.Month)
	assert.Equal(t, 2, r.Quarter)
}

func TestValidate_Drops(t *testing.T) {
	tests := []struct {
		name string
		row  []string
		want DropStats
	}{
		{"unparseable date", testutil.RawRow("A", "B", "C", "BCG", "31/31/2024", "x", "Male", "80"), DropStats{BadDate: 1}},
		{"empty date", testutil.RawRow("A", "B", "C", "BCG", "", "x", "Male", "80"), DropStats{BadDate: 1}},
		{"non numeric coverage", testutil.RawRow("A", "B", "C", "BCG", "2024-01-01", "x", "Male", "n/a"), DropStats{BadCoverage: 1}},
		{"nan coverage", testutil.RawRow("A", "B", "C", "BCG", "2024-01-01", "x", "Male", "NaN"), DropStats{BadCoverage: 1}},
		{"infinite coverage", testutil.RawRow("A", "B", "C", "BCG", "2024-01-01", "x", "Male", "+Inf"), DropStats{BadCoverage: 1}},
		{"above range", testutil.RawRow("A", "B", "C", "BCG", "2024-01-01", "x", "Male", "100.01"), DropStats{OutOfRange: 1}},
		{"below range", testutil.RawRow("A", "B", "C", "BCG", "2024-01-01", "x", "Male", "-1"), DropStats{OutOfRange: 1}},
		{"missing district", testutil.RawRow("  ", "B", "C", "BCG", "2024-01-01", "x", "Male", "50"), DropStats{MissingLocation: 1}},
		{"missing village", testutil.RawRow("A", "", "C", "BCG", "2024-01-01", "x", "Male", "50"), DropStats{MissingLocation: 1}},
		{"first reason wins", testutil.RawRow("", "", "C", "BCG", "never", "x", "Male", "500"), DropStats{BadDate: 1}},
		{"bounds are inclusive", testutil.RawRow("A", "B", "C", "BCG", "2024-01-01", "x", "Male", "100"), DropStats{}},
		{"zero is valid", testutil.RawRow("A", "B", "C", "BCG", "2024-01-01", "x", "Male", "0"), DropStats{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(nil, DefaultValidatorConfig())
			result, err := v.Validate(testutil.RawTable(tt.row))
			require.NoError(t, err)

			assert.Equal(t, tt.want, result.Drops)
			assert.Len(t, result.Records, 1-tt.want.Total())
		})
	}
}

func TestValidate_DropStatsLogged(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	v := NewValidator(logger, DefaultValidatorConfig())

	result, err := v.Validate(testutil.RawTable(
		testutil.RawRow("A", "B", "C", "BCG", "bad", "x", "Male", "80"),
		testutil.RawRow("A", "B", "C", "BCG", "2024-01-01", "x", "Male", "80"),
	))
	require.NoError(t, err)

	assert.Equal(t, map[string]int{
		DropBadDate:         1,
		DropBadCoverage:     0,
		DropOutOfRange:      0,
		DropMissingLocation: 0,
	}, result.Drops.AsMap())
	testutil.AssertLogContains(t, handler, slog.LevelWarn, "dataset validated")
	assert.True(t, handler.ContainsAttr("dropped", int64(1)))
	assert.True(t, handler.ContainsAttr("component", "validator"))
}

func childRows(child string, vaccines ...string) [][]string {
	rows := make([][]string, 0, len(vaccines))
	for i, vac := range vaccines {
		date := fmt.Sprintf("2024-%02d-01", i%12+1)
		rows = append(rows, testutil.RawRow("Chandigarh", "Sector 1", child, vac, date, "0-1 years", "Male", "90"))
	}
	return rows
}

func TestValidate_FullyVaccinated(t *testing.T) {
	six := []string{"BCG", "DPT1", "DPT2", "DPT3", "Polio", "Measles"}
	fiveWithRepeat := []string{"BCG", "DPT1", "DPT2", "DPT3", "Polio", "Polio"}

	var rows [][]string
	rows = append(rows, childRows("SIX", six...)...)
	rows = append(rows, childRows("FIVE", fiveWithRepeat...)...)
	// one of LOST's six doses has a bad date, leaving five valid vaccines
	lost := childRows("LOST", six...)
	lost[5][4] = "not a date"
	rows = append(rows, lost...)

	tests := []struct {
		name     string
		required int
		want     map[string]bool
	}{
		{"default schedule of six", 0, map[string]bool{"SIX": true, "FIVE": false, "LOST": false}},
		{"schedule of five", 5, map[string]bool{"SIX": true, "FIVE": true, "LOST": true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(nil, ValidatorConfig{RequiredVaccines: tt.required})
			result, err := v.Validate(testutil.RawTable(rows...))
			require.NoError(t, err)
			require.Len(t, result.Records, 17)

			for _, r := range result.Records {
				assert.Equal(t, tt.want[r.ChildID], r.FullyVaccinated, "child %s", r.ChildID)
			}
		})
	}
}

func TestValidate_RecordInvariants(t *testing.T) {
	v := NewValidator(nil, DefaultValidatorConfig())
	result, err := v.Validate(testutil.RawTable(
		testutil.RawRow("A", "B", "C1", "BCG", "2024-02-29", "x", "Male", "99.9"),
		testutil.RawRow("A", "B", "C1", "BCG", "2023-02-29", "x", "Male", "50"),
		testutil.RawRow("A", "B", "C2", "DPT1", "45306", "x", "Female", "0"),
		testutil.RawRow("A", "B", "C3", "DPT1", "01/31/2024", "x", "Female", "101"),
		testutil.RawRow("A", "B", "C3", "DPT1", "2024/03/05", "x", "Female", " 64 "),
	))
	require.NoError(t, err)
	require.Len(t, result.Records, 3)

	for _, r := range result.Records {
		assert.GreaterOrEqual(t, r.CoveragePercentage, 0.0)
		assert.LessOrEqual(t, r.CoveragePercentage, 100.0)
		assert.False(t, r.Date.IsZero())
		assert.Equal(t, time.UTC, r.Date.Location())
	}
	assert.Equal(t, 1, result.Drops.BadDate, "2023-02-29 is not a calendar date")
	assert.Equal(t, 1, result.Drops.OutOfRange)
}

func TestValidateFilterIdempotence(t *testing.T) {
	v := NewValidator(nil, DefaultValidatorConfig())

	var rows [][]string
	rows = append(rows, childRows("SIX", "BCG", "DPT1", "DPT2", "DPT3", "Polio", "Measles")...)
	rows = append(rows,
		testutil.RawRow("mohali", "phase 7", "M1", "BCG", "2024-03-03", "1-2 years", "Female", "55.25"),
		testutil.RawRow("mohali", "phase 7", "M2", "Measles", "2024-04-04", "1-2 years", "Male", "bad"),
		testutil.RawRow("mohali", "", "M3", "Measles", "2024-04-04", "1-2 years", "Male", "70"),
		testutil.RawRow("panchkula", "sector 9", "P1", "Polio", "2024-06-30", "0-1 years", "Female", "100"),
	)

	validated, err := v.Validate(testutil.RawTable(rows...))
	require.NoError(t, err)

	jan := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)

	selections := []struct {
		name string
		sel  domain.FilterSelection
	}{
		{"all", domain.AllSelection()},
		{"district", domain.FilterSelection{District: "Chandigarh"}},
		// filtering to one vaccine would flip fully_vaccinated if it were recomputed
		{"vaccine", domain.FilterSelection{Vaccine: "BCG"}},
		{"date range", domain.FilterSelection{DateRange: domain.DateRange{Start: jan, End: mar}}},
		{"gender and age", domain.FilterSelection{Gender: "Female", AgeGroup: "1-2 years"}},
		{"nothing", domain.FilterSelection{District: "Nowhere"}},
	}

	for _, tt := range selections {
		t.Run(tt.name, func(t *testing.T) {
			filtered := Filter(validated.Records, tt.sel)
			assert.Equal(t, filtered, v.Revalidate(filtered))
		})
	}
}

func TestParseDate(t *testing.T) {
	jan15 := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	jan1 := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		input string
		want  time.Time
		ok    bool
	}{
		{"2024-01-15", jan15, true},
		{"2024-01-15 08:45:00", jan15, true},
		{"2024-01-15 10:30", jan15, true},
		{"2024-01-15T10:30", jan15, true},
		{"2024-01-15T23:59:59+05:30", jan15, true},
		{"2024/01/15", jan15, true},
		{"01/15/2024", jan15, true},
		{"1/15/2024", jan15, true},
		{"15-Jan-2024", jan15, true},
		{"Jan 15, 2024", jan15, true},
		{"45306", jan15, true},
		{"2024-01", jan1, true},
		{"2024", jan1, true},
		{" 2024 ", jan1, true},
		{"0", time.Time{}, false},
		{"yesterday", time.Time{}, false},
		{"", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestValidate_MinutePrecisionAndYearDates(t *testing.T) {
	raw := testutil.RawTable(
		testutil.RawRow("mohali", "phase 1", "M1", "BCG", "2024-01-15 10:30", "0-1 years", "Male", "90"),
		testutil.RawRow("mohali", "phase 1", "M2", "OPV", "2024", "0-1 years", "Female", "80"),
	)

	result, err := NewValidator(nil, DefaultValidatorConfig()).Validate(raw)
	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	assert.Zero(t, result.Drops.BadDate)
	assert.Equal(t, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), result.Records[0].Date)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), result.Records[1].Date)
}

func TestParseCoverage(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"85", 85, true},
		{" 72.5 ", 72.5, true},
		{"90%", 90, true},
		{"90 %", 90, true},
		{"-4", -4, true},
		{"", 0, false},
		{"%", 0, false},
		{"eighty", 0, false},
		{"NaN", 0, false},
		{"-Inf", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseCoverage(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToRawTable(t *testing.T) {
	rec := testutil.Record().Coverage(66.666).Fully(true).Build()
	table := ToRawTable("export", []domain.VaccinationRecord{rec})

	assert.Equal(t, domain.ExportColumns, table.Columns)
	assert.Equal(t, []string{"Chandigarh", "Village1", "C0001", "BCG", "2024-01-15", "0-1 years", "Male", "66.666", "true"}, table.Rows[0])
}
