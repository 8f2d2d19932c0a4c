package exporter

import (
	"time"

	"vaxpulse/pkg/contracts/domain"
)

// Artifact is one rendered export. A failed render keeps Format and
// FileName, carries the cause in Err and has no Data.
type Artifact struct {
	Format      domain.ReportFormat `json:"format"`
	FileName    string              `json:"file_name"`
	ContentType string              `json:"content_type"`
	Data        []byte              `json:"-"`
	Err         error               `json:"-"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// Available reports whether the artifact carries a payload that can be
// offered for download.
func (a Artifact) Available() bool {
	return a.Err == nil && len(a.Data) > 0
}

// Size returns the payload length in bytes.
func (a Artifact) Size() int {
	return len(a.Data)
}

func newArtifact(format domain.ReportFormat, at time.Time) Artifact {
	return Artifact{
		Format:      format,
		FileName:    format.FileName(at),
		ContentType: format.ContentType(),
		GeneratedAt: at,
	}
}
