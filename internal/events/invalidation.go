package events

import (
	"strconv"

	"github.com/teemow/calsync/internal/cache"
	"github.com/teemow/calsync/internal/domain"
)

// eventInvalidation lists the entries made stale by a write to events of
// one calendar. Every list that may contain them is dropped.
func eventInvalidation(calendarID, userID string, eventIDs ...string) cache.Invalidation {
	inv := &cache.Invalidation{}
	for _, id := range eventIDs {
		inv.Key(cache.Event, id).Key(cache.EventLocations, id)
	}
	inv.Scoped(cache.CalendarEvents, calendarID).
		Scoped(cache.UserEvents, userID).
		All(cache.AllEvents, cache.EventSearch, cache.BulkEvents)
	return *inv
}

// conferenceInvalidation lists the entries made stale by a write to the
// given conferences.
func conferenceInvalidation(conferenceIDs ...string) cache.Invalidation {
	inv := &cache.Invalidation{}
	for _, id := range conferenceIDs {
		inv.Key(cache.Conference, id)
	}
	inv.All(cache.Conferences)
	return *inv
}

// locationInvalidation lists the entries made stale by creating or
// changing the given locations.
func locationInvalidation(locationIDs ...string) cache.Invalidation {
	inv := &cache.Invalidation{}
	for _, id := range locationIDs {
		inv.Key(cache.Location, id)
	}
	inv.All(cache.Locations, cache.LocationSearch, cache.LocationsByCity,
		cache.LocationsByCountry, cache.NearbyLocations)
	return *inv
}

func pageKey(name string, page domain.Page, parts ...string) string {
	page = page.Normalize()
	return cache.Key(name, append(parts, strconv.Itoa(page.Number), strconv.Itoa(page.Size))...)
}
