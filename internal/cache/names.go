package cache

import (
	"strings"
	"time"
)

// Cache names. Each read path caches under one name with its own TTL.
const (
	Event          = "event"
	AllEvents      = "allEvents"
	CalendarEvents = "calendarEvents"
	UserEvents     = "userEvents"
	EventSearch    = "eventSearch"
	BulkEvents     = "bulkEvents"

	Calendar            = "calendar"
	AllCalendars        = "allCalendars"
	UserCalendars       = "userCalendars"
	UserPrimaryCalendar = "userPrimaryCalendar"
	CalendarByTitle     = "calendarByTitle"

	Location           = "location"
	Locations          = "locations"
	EventLocations     = "eventLocations"
	LocationSearch     = "locationSearch"
	LocationsByCity    = "locationsByCity"
	LocationsByCountry = "locationsByCountry"
	NearbyLocations    = "nearbyLocations"

	Conference  = "conference"
	Conferences = "conferences"
)

// DefaultTTL applies to cache names without an explicit entry.
const DefaultTTL = 30 * time.Minute

var ttls = map[string]time.Duration{
	Event:          2 * time.Hour,
	AllEvents:      15 * time.Minute,
	CalendarEvents: 30 * time.Minute,
	UserEvents:     30 * time.Minute,
	EventSearch:    10 * time.Minute,
	BulkEvents:     5 * time.Minute,

	Calendar:            2 * time.Hour,
	AllCalendars:        15 * time.Minute,
	UserCalendars:       30 * time.Minute,
	UserPrimaryCalendar: time.Hour,
	CalendarByTitle:     45 * time.Minute,

	Location:           time.Hour,
	Locations:          15 * time.Minute,
	EventLocations:     30 * time.Minute,
	LocationSearch:     10 * time.Minute,
	LocationsByCity:    30 * time.Minute,
	LocationsByCountry: 30 * time.Minute,
	NearbyLocations:    10 * time.Minute,

	Conference:  time.Hour,
	Conferences: 15 * time.Minute,
}

// TTL returns the time-to-live for entries of the named cache.
func TTL(name string) time.Duration {
	if ttl, ok := ttls[name]; ok {
		return ttl
	}
	return DefaultTTL
}

// Key builds the key "name:part1:part2..." for an entry of the named cache.
func Key(name string, parts ...string) string {
	if len(parts) == 0 {
		return name
	}
	return name + ":" + strings.Join(parts, ":")
}

// globEscaper quotes the characters Valkey MATCH and path.Match treat as
// pattern syntax.
var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// EscapePattern quotes s so that it only matches itself inside a glob.
func EscapePattern(s string) string {
	return globEscaper.Replace(s)
}

// Invalidation is the set of entries a mutation makes stale: exact keys
// plus glob patterns.
type Invalidation struct {
	Keys     []string
	Patterns []string
}

// Key adds the exact entry name:parts.
func (inv *Invalidation) Key(name string, parts ...string) *Invalidation {
	inv.Keys = append(inv.Keys, Key(name, parts...))
	return inv
}

// All adds every entry of the named caches.
func (inv *Invalidation) All(names ...string) *Invalidation {
	for _, name := range names {
		inv.Patterns = append(inv.Patterns, EscapePattern(name)+":*")
	}
	return inv
}

// Scoped adds every entry of the named cache whose key starts with parts,
// e.g. all pages of one calendar's event list. Parts are matched literally.
func (inv *Invalidation) Scoped(name string, parts ...string) *Invalidation {
	inv.Patterns = append(inv.Patterns, EscapePattern(Key(name, parts...))+":*")
	return inv
}

// Merge appends other's keys and patterns.
func (inv *Invalidation) Merge(other Invalidation) *Invalidation {
	inv.Keys = append(inv.Keys, other.Keys...)
	inv.Patterns = append(inv.Patterns, other.Patterns...)
	return inv
}

// Empty reports whether the invalidation touches nothing.
func (inv Invalidation) Empty() bool {
	return len(inv.Keys) == 0 && len(inv.Patterns) == 0
}
