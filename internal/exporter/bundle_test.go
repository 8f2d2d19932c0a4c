package exporter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "vaxpulse/internal/errors"
	"vaxpulse/internal/shared/testutil"
	"vaxpulse/pkg/contracts/domain"
)

func TestBundle(t *testing.T) {
	artifacts := newTestBuilder(t).Bundle(context.Background(), testutil.SampleRecords())
	require.Len(t, artifacts, len(domain.ReportFormats))

	wantNames := []string{
		"vaccination_data_20240501.csv",
		"vaccination_report_20240501.xlsx",
		"vaccination_report_20240501.pdf",
		"vaccination_summary_20240501.txt",
	}
	for i, art := range artifacts {
		assert.Equal(t, domain.ReportFormats[i], art.Format)
		assert.Equal(t, wantNames[i], art.FileName)
		assert.True(t, art.Available(), "%s: %v", art.Format, art.Err)
		assert.Equal(t, generatedAt, art.GeneratedAt)
	}
}

func TestBundle_MatchesSequentialBuilds(t *testing.T) {
	b := newTestBuilder(t)
	records := testutil.SampleRecords()
	artifacts := b.Bundle(context.Background(), records)

	assert.Equal(t, b.CSV(records).Data, artifacts[0].Data)
	assert.Equal(t, b.Text(records).Data, artifacts[3].Data)
}

func TestBundle_FailureIsIsolated(t *testing.T) {
	b := newTestBuilder(t)
	b.pdf = failingRenderer{err: errors.New("renderer offline")}

	artifacts := b.Bundle(context.Background(), testutil.SampleRecords())
	for _, art := range artifacts {
		if art.Format == domain.ReportFormatPDF {
			assert.False(t, art.Available())
			continue
		}
		assert.True(t, art.Available(), art.Format)
	}
}

func TestBundle_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	artifacts := newTestBuilder(t).Bundle(ctx, testutil.SampleRecords())
	for _, art := range artifacts {
		assert.False(t, art.Available())
		assert.Equal(t, apperrors.ErrTypeExport, apperrors.ErrorTypeOf(art.Err))
		assert.ErrorIs(t, art.Err, context.Canceled)
	}
}

func TestWriteBundle(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")

	artifacts := []Artifact{
		{Format: domain.ReportFormatCSV, FileName: "vaccination_data_20240501.csv", Data: []byte("a,b\n")},
		{Format: domain.ReportFormatPDF, FileName: "vaccination_report_20240501.pdf", Err: errors.New("boom")},
		{Format: domain.ReportFormatText, FileName: "vaccination_summary_20240501.txt", Data: []byte("summary")},
	}

	written, err := WriteBundle(dir, artifacts)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "vaccination_data_20240501.csv"),
		filepath.Join(dir, "vaccination_summary_20240501.txt"),
	}, written)

	data, err := os.ReadFile(written[1])
	require.NoError(t, err)
	assert.Equal(t, "summary", string(data))

	_, err = os.Stat(filepath.Join(dir, "vaccination_report_20240501.pdf"))
	assert.True(t, os.IsNotExist(err))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files left behind")
}

func TestWriteBundle_Overwrites(t *testing.T) {
	dir := t.TempDir()
	art := Artifact{Format: domain.ReportFormatText, FileName: "vaccination_summary_20240501.txt", Data: []byte("v1")}

	_, err := WriteBundle(dir, []Artifact{art})
	require.NoError(t, err)
	art.Data = []byte("v2")
	written, err := WriteBundle(dir, []Artifact{art})
	require.NoError(t, err)

	data, err := os.ReadFile(written[0])
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}

func TestWriteBundle_UnwritableDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := WriteBundle(filepath.Join(file, "reports"), nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeStorage, apperrors.ErrorTypeOf(err))
}
