package testutil

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures log records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("test message", slog.String("key", "value"))
		logger.Error("error message", slog.Int("code", 500))

		require.Len(t, handler.GetRecords(), 2)
		assert.True(t, handler.ContainsMessage("test message"))
		assert.True(t, handler.ContainsAttr("key", "value"))
		assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)
	})

	t.Run("derived loggers share the sink", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.With(slog.String("component", "validator")).Warn("rows dropped")

		assert.Equal(t, 1, handler.Count())
		assert.True(t, handler.ContainsAttr("component", "validator"))
		AssertLogContains(t, handler, slog.LevelWarn, "dropped")
	})

	t.Run("groups prefix keys", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.WithGroup("export").Info("done", slog.String("format", "pdf"))

		assert.True(t, handler.ContainsAttr("export.format", "pdf"))
		AssertNoErrors(t, handler)
	})
}

func TestRecordBuilder(t *testing.T) {
	rec := Record().On(2024, time.August, 3).Coverage(42.5).Build()

	assert.Equal(t, 2024, rec.Year)
	assert.Equal(t, 8, rec.Month)
	assert.Equal(t, 3, rec.Quarter)
	assert.Equal(t, 42.5, rec.CoveragePercentage)
	assert.Equal(t, "2024-08-03", rec.DateString())
}

func TestSampleRecords(t *testing.T) {
	records := SampleRecords()
	require.Len(t, records, 6)
	assert.Equal(t, "Chandigarh", records[0].District)
	assert.Equal(t, "Mohali", records[5].District)
}
