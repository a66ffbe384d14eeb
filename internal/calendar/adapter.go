package calendar

import (
	"context"
	"time"

	"github.com/teemow/calsync/internal/conferencing"
	"github.com/teemow/calsync/internal/domain"
)

// DefaultCalendarID targets the user's primary calendar on the provider.
const DefaultCalendarID = "primary"

// ErrEventNotFound reports that the provider no longer knows an event.
// It matches domain.ErrNotFound.
var ErrEventNotFound error = &domain.Error{Kind: domain.KindNotFound, Msg: "external event not found"}

// Adapter writes events to an external calendar on behalf of user.
type Adapter interface {
	CreateEvent(ctx context.Context, user string, in EventInput) (*Result, error)
	CreateAllDayEvent(ctx context.Context, user string, in EventInput) (*Result, error)
	CreateEventWithConference(ctx context.Context, user string, in EventInput, m *conferencing.Meeting) (*Result, error)
	SetConferenceData(ctx context.Context, user, externalID string, m *conferencing.Meeting) (*Result, error)
	ClearConferenceData(ctx context.Context, user, externalID string) error
	UpdateEvent(ctx context.Context, user, externalID string, in EventInput) error
	UpdateEventLocation(ctx context.Context, user, externalID, location string) error
	DeleteEvent(ctx context.Context, user, externalID string) error
}

// EventInput is the provider-independent shape of an event write.
type EventInput struct {
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Type        domain.EventType
	// TimeZone defaults to UTC.
	TimeZone string
}

// InputFromEvent builds the write for e. loc may be nil.
func InputFromEvent(e *domain.Event, loc *domain.Location, timezone string) EventInput {
	in := EventInput{
		Title:       e.Title,
		Description: e.Description,
		Start:       e.StartTime,
		End:         e.EndTime,
		AllDay:      e.AllDay,
		Type:        e.Type,
		TimeZone:    timezone,
	}
	if loc != nil {
		in.Location = loc.Address()
	}
	return in
}

// Result is what the provider returned for a write.
type Result struct {
	ExternalID string
	HTMLLink   string
	// Conference is nil when the event carries no conference data.
	Conference *conferencing.Payload
}

// colorIDs maps event types to the provider's event color palette.
var colorIDs = map[domain.EventType]string{
	domain.EventTypeOthers:      "9",
	domain.EventTypeMeeting:     "1",
	domain.EventTypeAppointment: "3",
	domain.EventTypeReminder:    "4",
	domain.EventTypeBirthday:    "6",
	domain.EventTypeHoliday:     "7",
	domain.EventTypeTask:        "5",
	domain.EventTypeStudy:       "11",
	domain.EventTypeWork:        "2",
	domain.EventTypeRoute:       "8",
}

// ColorID returns the provider color for t, or "" for unknown types.
func ColorID(t domain.EventType) string {
	return colorIDs[t]
}

// Disabled is the adapter used when the external calendar is turned off.
type Disabled struct{}

const disabledName = "google calendar"

func (Disabled) CreateEvent(context.Context, string, EventInput) (*Result, error) {
	return nil, domain.ProviderDisabled("calendar.create", disabledName)
}

func (Disabled) CreateAllDayEvent(context.Context, string, EventInput) (*Result, error) {
	return nil, domain.ProviderDisabled("calendar.create", disabledName)
}

func (Disabled) CreateEventWithConference(context.Context, string, EventInput, *conferencing.Meeting) (*Result, error) {
	return nil, domain.ProviderDisabled("calendar.create", disabledName)
}

func (Disabled) SetConferenceData(context.Context, string, string, *conferencing.Meeting) (*Result, error) {
	return nil, domain.ProviderDisabled("calendar.conference", disabledName)
}

func (Disabled) ClearConferenceData(context.Context, string, string) error {
	return domain.ProviderDisabled("calendar.conference", disabledName)
}

func (Disabled) UpdateEvent(context.Context, string, string, EventInput) error {
	return domain.ProviderDisabled("calendar.update", disabledName)
}

func (Disabled) UpdateEventLocation(context.Context, string, string, string) error {
	return domain.ProviderDisabled("calendar.update", disabledName)
}

func (Disabled) DeleteEvent(context.Context, string, string) error {
	return domain.ProviderDisabled("calendar.delete", disabledName)
}

// IsEnabled reports whether a can reach a provider.
func IsEnabled(a Adapter) bool {
	if a == nil {
		return false
	}
	_, disabled := a.(Disabled)
	return !disabled
}
