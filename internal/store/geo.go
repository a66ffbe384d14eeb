package store

import (
	"math"
	"sort"

	"github.com/teemow/calsync/internal/domain"
)

const earthRadiusKm = 6371.0

// DistanceKm is the great-circle distance between two points.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// boundingBox returns the lat/lon window that contains every point within
// radiusKm of the center. Used to prefilter before the exact distance check.
func boundingBox(lat, lon, radiusKm float64) (minLat, maxLat, minLon, maxLon float64) {
	dLat := radiusKm / earthRadiusKm * 180 / math.Pi
	minLat, maxLat = math.Max(lat-dLat, -90), math.Min(lat+dLat, 90)
	cos := math.Cos(lat * math.Pi / 180)
	if cos < 1e-6 || maxLat >= 90 || minLat <= -90 {
		return minLat, maxLat, -180, 180
	}
	dLon := dLat / cos
	return minLat, maxLat, math.Max(lon-dLon, -180), math.Min(lon+dLon, 180)
}

// withinRadius filters locs to those within radiusKm and sorts them by distance.
func withinRadius(locs []domain.Location, lat, lon, radiusKm float64) []domain.Location {
	type scored struct {
		loc  domain.Location
		dist float64
	}
	hits := make([]scored, 0, len(locs))
	for _, l := range locs {
		if l.Latitude == nil || l.Longitude == nil {
			continue
		}
		if d := DistanceKm(lat, lon, *l.Latitude, *l.Longitude); d <= radiusKm {
			hits = append(hits, scored{loc: l, dist: d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })
	out := make([]domain.Location, len(hits))
	for i, h := range hits {
		out[i] = h.loc
	}
	return out
}
