package calendars

import (
	"strconv"

	"github.com/teemow/calsync/internal/cache"
	"github.com/teemow/calsync/internal/domain"
)

// calendarInvalidation lists the entries made stale by a write to the
// given calendars of userID.
func calendarInvalidation(userID string, calendarIDs ...string) cache.Invalidation {
	inv := &cache.Invalidation{}
	for _, id := range calendarIDs {
		inv.Key(cache.Calendar, id)
	}
	inv.Key(cache.UserCalendars, userID).
		Key(cache.UserPrimaryCalendar, userID).
		Scoped(cache.CalendarByTitle, userID).
		All(cache.AllCalendars)
	return *inv
}

// pageKey keys one page of a paginated list.
func pageKey(name string, page domain.Page) string {
	return cache.Key(name, strconv.Itoa(page.Number), strconv.Itoa(page.Size))
}
