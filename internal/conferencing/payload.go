package conferencing

import (
	"strings"
	"time"

	"github.com/teemow/calsync/internal/domain"
)

// Conference solution types understood by the external calendar.
const (
	SolutionNative = "hangoutsMeet"
	SolutionAddOn  = "addOn"
)

// Entry point types.
const (
	EntryPointVideo = "video"
	EntryPointPhone = "phone"
)

// Payload is the conference data carried on an external calendar event,
// independent of the provider SDK.
type Payload struct {
	ConferenceID string
	SolutionType string
	Notes        string
	EntryPoints  []EntryPoint
}

// EntryPoint is one way of joining a conference.
type EntryPoint struct {
	Type  string
	URI   string
	Label string
	Pin   string
}

// Empty reports whether the payload carries no joinable conference.
func (p *Payload) Empty() bool {
	return p == nil || (p.ConferenceID == "" && len(p.EntryPoints) == 0)
}

// StandalonePayload builds the conference data embedded for a standalone
// meeting: one video entry point plus a password note.
func StandalonePayload(m *Meeting) *Payload {
	pw := m.Password
	if pw == "" {
		pw = "None"
	}
	return &Payload{
		ConferenceID: m.ID,
		SolutionType: SolutionAddOn,
		Notes:        platformName(m.PlatformName) + " Meeting Password: " + pw,
		EntryPoints: []EntryPoint{
			{Type: EntryPointVideo, URI: m.JoinURL, Label: m.JoinURL},
		},
	}
}

// ParseNative extracts a native conference from an event payload. It
// returns nil, without error, for all-day events and payloads without
// conference data.
func ParseNative(p *Payload, allDay bool, now time.Time) *domain.Conference {
	if allDay || p.Empty() {
		return nil
	}

	c := &domain.Conference{
		Type:                 domain.ConferenceTypeMeet,
		ExternalConferenceID: p.ConferenceID,
		PlatformName:         MeetPlatformName,
		SyncStatus:           domain.ConferenceSynced,
		LastSyncedAt:         now,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	for _, ep := range p.EntryPoints {
		switch ep.Type {
		case EntryPointVideo:
			c.MeetLink = ep.URI
			c.MeetingCode = meetingCode(ep.URI)
		case EntryPointPhone:
			c.PhoneNumber = strings.TrimPrefix(ep.URI, "tel:")
			c.Pin = ep.Pin
		}
	}
	return c
}

// meetingCode returns the trailing path segment of a join link.
func meetingCode(link string) string {
	link = strings.TrimRight(link, "/")
	if i := strings.Index(link, "?"); i >= 0 {
		link = link[:i]
	}
	i := strings.LastIndex(link, "/")
	if i < 0 {
		return ""
	}
	return link[i+1:]
}
