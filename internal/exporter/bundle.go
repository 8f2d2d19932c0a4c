package exporter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	apperrors "vaxpulse/internal/errors"
	"vaxpulse/pkg/contracts/domain"
)

// Bundle builds every export format concurrently. Each worker renders its
// own copy of records and all artifacts share one generation time. The
// result follows domain.ReportFormats order; failed formats carry Err.
func (b *ReportBuilder) Bundle(ctx context.Context, records []domain.VaccinationRecord) []Artifact {
	at := b.opts.Clock()
	artifacts := make([]Artifact, len(domain.ReportFormats))

	g, gctx := errgroup.WithContext(ctx)
	for i, format := range domain.ReportFormats {
		own := domain.CloneRecords(records)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				art := newArtifact(format, at)
				art.Err = apperrors.NewExportError(string(format), err)
				artifacts[i] = art
				return nil
			}
			artifacts[i] = b.buildAt(gctx, format, own, at)
			return nil
		})
	}
	// workers report failures through their artifacts
	_ = g.Wait()

	return artifacts
}

// WriteBundle writes the available artifacts into dir under their
// date-stamped names and returns the written paths. Unavailable artifacts
// are skipped.
func WriteBundle(dir string, artifacts []Artifact) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.NewStorageError("failed to create report directory", err).
			WithContext("dir", dir)
	}

	written := make([]string, 0, len(artifacts))
	for _, art := range artifacts {
		if !art.Available() {
			continue
		}
		path := filepath.Join(dir, art.FileName)
		if err := writeFileAtomic(path, art.Data); err != nil {
			return written, apperrors.NewStorageError(fmt.Sprintf("failed to write %s", art.FileName), err).
				WithContext("path", path)
		}
		written = append(written, path)
	}
	return written, nil
}

// writeFileAtomic writes through a temp file in the same directory so a
// reader never sees a partial report.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path))
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
