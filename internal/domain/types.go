package domain

import (
	"strings"
	"time"
)

// DefaultCalendarColor is applied when a calendar is created without a color.
const DefaultCalendarColor = "#4285F4"

// DefaultTimezone is applied when a calendar is created without a timezone.
const DefaultTimezone = "UTC"

// Calendar is a named container of events owned by one user.
type Calendar struct {
	ID          string    `json:"id" bun:"id,pk"`
	UserID      string    `json:"userId" bun:"user_id,notnull"`
	Title       string    `json:"title" bun:"title,notnull"`
	Description string    `json:"description,omitempty" bun:"description"`
	ColorHex    string    `json:"colorHex" bun:"color_hex"`
	Timezone    string    `json:"timezone" bun:"timezone"`
	IsPrimary   bool      `json:"isPrimary" bun:"is_primary,notnull"`
	IsDeleted   bool      `json:"isDeleted" bun:"is_deleted,notnull"`
	CreatedAt   time.Time `json:"createdAt" bun:"created_at,notnull"`
	UpdatedAt   time.Time `json:"updatedAt" bun:"updated_at,notnull"`
}

// Event is a calendar entry. ExternalID is empty until the first successful
// push to the external calendar provider.
type Event struct {
	ID          string      `json:"id" bun:"id,pk"`
	CalendarID  string      `json:"calendarId" bun:"calendar_id,notnull"`
	Title       string      `json:"title" bun:"title"`
	Description string      `json:"description,omitempty" bun:"description"`
	ColorHex    string      `json:"colorHex,omitempty" bun:"color_hex"`
	Type        EventType   `json:"type" bun:"type"`
	StartTime   time.Time   `json:"startTime" bun:"start_time"`
	EndTime     time.Time   `json:"endTime" bun:"end_time"`
	AllDay      bool        `json:"allDay" bun:"all_day,notnull"`
	Status      EventStatus `json:"status" bun:"status"`
	ExternalID  string      `json:"externalId,omitempty" bun:"external_id,nullzero"`
	SyncStatus  SyncStatus  `json:"syncStatus" bun:"sync_status"`
	LocationID  string      `json:"locationId,omitempty" bun:"location_id,nullzero"`
	CreatedAt   time.Time   `json:"createdAt" bun:"created_at,notnull"`
	UpdatedAt   time.Time   `json:"updatedAt" bun:"updated_at,notnull"`
}

// Synced reports whether the event has been pushed to the external provider.
func (e *Event) Synced() bool {
	return e.ExternalID != ""
}

// Conference holds the join information of a meeting attached to an event.
// EventID is the exclusive back-reference and is empty while unattached.
type Conference struct {
	ID                   string               `json:"id" bun:"id,pk"`
	EventID              string               `json:"eventId,omitempty" bun:"event_id,nullzero"`
	Type                 ConferenceType       `json:"type" bun:"type,notnull"`
	MeetLink             string               `json:"meetLink,omitempty" bun:"meet_link"`
	MeetingCode          string               `json:"meetingCode,omitempty" bun:"meeting_code"`
	PhoneNumber          string               `json:"phoneNumber,omitempty" bun:"phone_number"`
	Pin                  string               `json:"pin,omitempty" bun:"pin"`
	ConferenceLink       string               `json:"conferenceLink,omitempty" bun:"conference_link"`
	Password             string               `json:"password,omitempty" bun:"password"`
	PlatformName         string               `json:"platformName,omitempty" bun:"platform_name"`
	ExternalConferenceID string               `json:"externalConferenceId,omitempty" bun:"external_conference_id"`
	SyncStatus           ConferenceSyncStatus `json:"syncStatus" bun:"sync_status"`
	LastSyncedAt         time.Time            `json:"lastSyncedAt,omitzero" bun:"last_synced_at,nullzero"`
	CreatedAt            time.Time            `json:"createdAt" bun:"created_at,notnull"`
	UpdatedAt            time.Time            `json:"updatedAt" bun:"updated_at,notnull"`
}

// JoinURL returns the link participants use, whichever provider produced it.
func (c *Conference) JoinURL() string {
	if c.ConferenceLink != "" {
		return c.ConferenceLink
	}
	return c.MeetLink
}

// Location is a place that any number of events may reference.
type Location struct {
	ID            string    `json:"id" bun:"id,pk"`
	PlaceName     string    `json:"placeName" bun:"place_name,notnull"`
	StreetAddress string    `json:"streetAddress,omitempty" bun:"street_address"`
	City          string    `json:"city,omitempty" bun:"city"`
	Country       string    `json:"country,omitempty" bun:"country"`
	BuildingName  string    `json:"buildingName,omitempty" bun:"building_name"`
	Floor         string    `json:"floor,omitempty" bun:"floor"`
	Room          string    `json:"room,omitempty" bun:"room"`
	Latitude      *float64  `json:"latitude,omitempty" bun:"latitude"`
	Longitude     *float64  `json:"longitude,omitempty" bun:"longitude"`
	PlaceID       string    `json:"placeId,omitempty" bun:"place_id"`
	CreatedAt     time.Time `json:"createdAt" bun:"created_at,notnull"`
	UpdatedAt     time.Time `json:"updatedAt" bun:"updated_at,notnull"`
}

// Address joins the non-blank place name, street, city and country with
// ", ". It is the text pushed to the external calendar as the event location.
func (l *Location) Address() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{l.PlaceName, l.StreetAddress, l.City, l.Country} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Task is a checklist item owned by an event.
type Task struct {
	ID      string `json:"id" bun:"id,pk"`
	EventID string `json:"eventId" bun:"event_id,notnull"`
	Title   string `json:"title" bun:"title"`
	Done    bool   `json:"done" bun:"done,notnull"`
}

// Attachment references a file stored elsewhere and linked to an event.
type Attachment struct {
	ID       string `json:"id" bun:"id,pk"`
	EventID  string `json:"eventId" bun:"event_id,notnull"`
	FileURL  string `json:"fileUrl" bun:"file_url"`
	Title    string `json:"title,omitempty" bun:"title"`
	MimeType string `json:"mimeType,omitempty" bun:"mime_type"`
	FileSize int64  `json:"fileSize,omitempty" bun:"file_size"`
}

// Page selects a zero-based page of a list.
type Page struct {
	Number int `json:"page"`
	Size   int `json:"size"`
}

// Pagination defaults.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Normalize clamps the page into valid bounds.
func (p Page) Normalize() Page {
	if p.Number < 0 {
		p.Number = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset returns the index of the first element on the page.
func (p Page) Offset() int {
	return p.Number * p.Size
}

// Slice returns the items on page p of items.
func Slice[T any](items []T, p Page) []T {
	p = p.Normalize()
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.Size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
