package locations

import (
	"strconv"

	"github.com/teemow/calsync/internal/cache"
	"github.com/teemow/calsync/internal/domain"
)

// locationInvalidation lists the entries made stale by a write to the
// given location. Event-side entries are dropped by the orchestrator when
// it pushes the change.
func locationInvalidation(locationID string, eventIDs ...string) cache.Invalidation {
	inv := &cache.Invalidation{}
	inv.Key(cache.Location, locationID)
	for _, id := range eventIDs {
		inv.Key(cache.EventLocations, id).Key(cache.Event, id)
	}
	inv.All(cache.Locations, cache.LocationSearch, cache.LocationsByCity,
		cache.LocationsByCountry, cache.NearbyLocations)
	return *inv
}

func pageKey(name string, page domain.Page, parts ...string) string {
	return cache.Key(name, append(parts, strconv.Itoa(page.Number), strconv.Itoa(page.Size))...)
}

func coordKey(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
