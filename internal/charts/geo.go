package charts

import (
	"fmt"
	"hash/fnv"

	"vaxpulse/internal/analytics"
	"vaxpulse/pkg/contracts/domain"
)

// Datasets carry no coordinates, so districts are placed at a stable pseudo
// random offset of up to one degree around the configured centre.
func districtOffset(district, axis string) float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(axis))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(district))
	// top 53 bits as a fraction in [0, 1)
	frac := float64(h.Sum64()>>11) / float64(uint64(1)<<53)
	return frac*2 - 1
}

// CoverageMap places one marker per district, coloured by status.
func (b *Builder) CoverageMap(records []domain.VaccinationRecord) Spec {
	firstVillage := map[string]string{}
	for _, r := range records {
		if _, ok := firstVillage[r.District]; !ok {
			firstVillage[r.District] = r.Village
		}
	}

	var markers []Marker
	for _, d := range analytics.DistrictMeans(records) {
		status := b.status(d.Coverage)
		markers = append(markers, Marker{
			District: d.District,
			Village:  firstVillage[d.District],
			Lat:      b.cfg.CenterLat + districtOffset(d.District, "lat"),
			Lon:      b.cfg.CenterLon + districtOffset(d.District, "lon"),
			Coverage: d.Coverage,
			Status:   status.Name,
			Color:    status.Color,
			Tooltip:  fmt.Sprintf("%s: %.1f%%", d.District, d.Coverage),
		})
	}
	return Spec{
		ID:      ChartCoverageMap,
		Title:   fmt.Sprintf("%s Vaccination Coverage Map", b.cfg.Region),
		Height:  500,
		Markers: markers,
		Center:  &[2]float64{b.cfg.CenterLat, b.cfg.CenterLon},
	}
}
