package domain

import (
	"strings"
)

// EventType categorizes an event. Each type maps to a color on the
// external calendar.
type EventType string

const (
	EventTypeOthers      EventType = "OTHERS"
	EventTypeMeeting     EventType = "MEETING"
	EventTypeAppointment EventType = "APPOINTMENT"
	EventTypeReminder    EventType = "REMINDER"
	EventTypeBirthday    EventType = "BIRTHDAY"
	EventTypeHoliday     EventType = "HOLIDAY"
	EventTypeTask        EventType = "TASK"
	EventTypeStudy       EventType = "STUDY"
	EventTypeWork        EventType = "WORK"
	EventTypeRoute       EventType = "ROUTE"
)

var eventTypes = []EventType{
	EventTypeOthers, EventTypeMeeting, EventTypeAppointment, EventTypeReminder, EventTypeBirthday,
	EventTypeHoliday, EventTypeTask, EventTypeStudy, EventTypeWork, EventTypeRoute,
}

// ParseEventType accepts a type name in any case. Blank input yields OTHERS.
func ParseEventType(s string) (EventType, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return EventTypeOthers, nil
	}
	for _, t := range eventTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", Validationf("parse event type", "unknown event type %q", s)
}

// EventStatus is the attendance state of an event.
type EventStatus string

const (
	EventStatusConfirmed EventStatus = "CONFIRMED"
	EventStatusTentative EventStatus = "TENTATIVE"
	EventStatusCancelled EventStatus = "CANCELLED"
)

// ParseEventStatus accepts a status name in any case. Blank input yields CONFIRMED.
func ParseEventStatus(s string) (EventStatus, error) {
	switch EventStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case "", EventStatusConfirmed:
		return EventStatusConfirmed, nil
	case EventStatusTentative:
		return EventStatusTentative, nil
	case EventStatusCancelled:
		return EventStatusCancelled, nil
	default:
		return "", Validationf("parse event status", "unknown event status %q", s)
	}
}

// SyncStatus tracks whether the local event matches the external calendar.
type SyncStatus string

const (
	SyncStatusSynced  SyncStatus = "SYNCED"
	SyncStatusPending SyncStatus = "PENDING"
)

// ConferenceType identifies the provider that produced a conference.
type ConferenceType string

const (
	// ConferenceTypeMeet is conferencing native to the external calendar.
	ConferenceTypeMeet ConferenceType = "MEET"
	// ConferenceTypeStandalone is a meeting created through a separate provider API.
	ConferenceTypeStandalone ConferenceType = "STANDALONE_MEETING"
)

func (t ConferenceType) String() string { return string(t) }

// ConferenceSyncStatus tracks the conference against the external calendar.
type ConferenceSyncStatus string

const (
	ConferenceSynced        ConferenceSyncStatus = "SYNCED"
	ConferencePendingUpload ConferenceSyncStatus = "PENDING_UPLOAD"
	ConferencePendingUpdate ConferenceSyncStatus = "PENDING_UPDATE"
	ConferencePendingDelete ConferenceSyncStatus = "PENDING_DELETE"
)

// ParseConferenceType accepts MEET or STANDALONE_MEETING (ZOOM is an alias
// of the latter).
func ParseConferenceType(s string) (ConferenceType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(ConferenceTypeMeet):
		return ConferenceTypeMeet, nil
	case string(ConferenceTypeStandalone), "ZOOM":
		return ConferenceTypeStandalone, nil
	default:
		return "", Validationf("parse conference type", "unknown conference type %q", s)
	}
}
