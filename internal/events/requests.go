package events

import (
	"strings"
	"time"

	"github.com/teemow/calsync/internal/domain"
)

// CreateRequest describes a new event. Location creates a new location row
// linked to the event; LocationID links an existing one. Location wins when
// both are set.
type CreateRequest struct {
	CalendarID  string            `json:"calendarId"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	ColorHex    string            `json:"colorHex,omitempty"`
	Type        string            `json:"type,omitempty"`
	StartTime   time.Time         `json:"startTime"`
	EndTime     time.Time         `json:"endTime"`
	AllDay      bool              `json:"allDay,omitempty"`
	Status      string            `json:"status,omitempty"`
	LocationID  string            `json:"locationId,omitempty"`
	Location    *LocationInput    `json:"location,omitempty"`
	Tasks       []TaskInput       `json:"tasks,omitempty"`
	Attachments []AttachmentInput `json:"attachments,omitempty"`
}

// UpdateRequest carries a partial update. Zero fields are kept; AllDay is
// only applied when set.
type UpdateRequest struct {
	Title       string           `json:"title,omitempty"`
	Description string           `json:"description,omitempty"`
	ColorHex    string           `json:"colorHex,omitempty"`
	Type        string           `json:"type,omitempty"`
	StartTime   time.Time        `json:"startTime,omitzero"`
	EndTime     time.Time        `json:"endTime,omitzero"`
	AllDay      *bool            `json:"allDay,omitempty"`
	Status      string           `json:"status,omitempty"`
	Location    *LocationInput   `json:"location,omitempty"`
	Conference  *ConferenceInput `json:"conference,omitempty"`
}

// LocationInput is the writable part of a location.
type LocationInput struct {
	PlaceName     string   `json:"placeName,omitempty"`
	StreetAddress string   `json:"streetAddress,omitempty"`
	City          string   `json:"city,omitempty"`
	Country       string   `json:"country,omitempty"`
	BuildingName  string   `json:"buildingName,omitempty"`
	Floor         string   `json:"floor,omitempty"`
	Room          string   `json:"room,omitempty"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
	PlaceID       string   `json:"placeId,omitempty"`
}

// NewLocation validates in and builds a location row.
func (in *LocationInput) NewLocation(op, id string, now time.Time) (*domain.Location, error) {
	if strings.TrimSpace(in.PlaceName) == "" {
		return nil, domain.Validationf(op, "place name is required")
	}
	l := &domain.Location{ID: id, CreatedAt: now}
	in.Apply(l, now)
	if err := ValidateCoordinates(op, l.Latitude, l.Longitude); err != nil {
		return nil, err
	}
	return l, nil
}

// Apply copies the non-empty fields of in onto l.
func (in *LocationInput) Apply(l *domain.Location, now time.Time) {
	setString(&l.PlaceName, in.PlaceName)
	setString(&l.StreetAddress, in.StreetAddress)
	setString(&l.City, in.City)
	setString(&l.Country, in.Country)
	setString(&l.BuildingName, in.BuildingName)
	setString(&l.Floor, in.Floor)
	setString(&l.Room, in.Room)
	setString(&l.PlaceID, in.PlaceID)
	if in.Latitude != nil {
		lat := *in.Latitude
		l.Latitude = &lat
	}
	if in.Longitude != nil {
		lon := *in.Longitude
		l.Longitude = &lon
	}
	l.UpdatedAt = now
}

// ValidateCoordinates checks that latitude and longitude are in range.
// Either may be nil.
func ValidateCoordinates(op string, lat, lon *float64) error {
	if lat != nil && (*lat < -90 || *lat > 90) {
		return domain.Validationf(op, "latitude %v out of range [-90, 90]", *lat)
	}
	if lon != nil && (*lon < -180 || *lon > 180) {
		return domain.Validationf(op, "longitude %v out of range [-180, 180]", *lon)
	}
	return nil
}

// ConferenceInput is the writable part of a conference.
type ConferenceInput struct {
	Type                 string `json:"type,omitempty"`
	MeetLink             string `json:"meetLink,omitempty"`
	MeetingCode          string `json:"meetingCode,omitempty"`
	PhoneNumber          string `json:"phoneNumber,omitempty"`
	Pin                  string `json:"pin,omitempty"`
	ConferenceLink       string `json:"conferenceLink,omitempty"`
	Password             string `json:"password,omitempty"`
	PlatformName         string `json:"platformName,omitempty"`
	ExternalConferenceID string `json:"externalConferenceId,omitempty"`
}

// NewConference builds a conference row for eventID. Type is required.
func (in *ConferenceInput) NewConference(op, id, eventID string, now time.Time) (*domain.Conference, error) {
	t, err := domain.ParseConferenceType(in.Type)
	if err != nil {
		return nil, err
	}
	c := &domain.Conference{
		ID:         id,
		EventID:    eventID,
		Type:       t,
		SyncStatus: domain.ConferencePendingUpload,
		CreatedAt:  now,
	}
	if err := in.Apply(c, now); err != nil {
		return nil, err
	}
	return c, nil
}

// Apply copies the non-empty fields of in onto c and marks it for update.
func (in *ConferenceInput) Apply(c *domain.Conference, now time.Time) error {
	if in.Type != "" {
		t, err := domain.ParseConferenceType(in.Type)
		if err != nil {
			return err
		}
		c.Type = t
	}
	setString(&c.MeetLink, in.MeetLink)
	setString(&c.MeetingCode, in.MeetingCode)
	setString(&c.PhoneNumber, in.PhoneNumber)
	setString(&c.Pin, in.Pin)
	setString(&c.ConferenceLink, in.ConferenceLink)
	setString(&c.Password, in.Password)
	setString(&c.PlatformName, in.PlatformName)
	setString(&c.ExternalConferenceID, in.ExternalConferenceID)
	if c.SyncStatus == domain.ConferenceSynced {
		c.SyncStatus = domain.ConferencePendingUpdate
	}
	c.UpdatedAt = now
	return nil
}

// TaskInput is a task created with its event.
type TaskInput struct {
	Title string `json:"title"`
	Done  bool   `json:"done,omitempty"`
}

// AttachmentInput is an attachment created with its event.
type AttachmentInput struct {
	FileURL  string `json:"fileUrl"`
	Title    string `json:"title,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	FileSize int64  `json:"fileSize,omitempty"`
}

// Details is an event with everything linked to it.
type Details struct {
	domain.Event
	Location    *domain.Location    `json:"location,omitempty"`
	Conference  *domain.Conference  `json:"conference,omitempty"`
	Tasks       []domain.Task       `json:"tasks"`
	Attachments []domain.Attachment `json:"attachments"`
}

// newEvent validates req and builds the event row in the PENDING state.
func (o *Orchestrator) newEvent(op string, req CreateRequest) (*domain.Event, error) {
	if strings.TrimSpace(req.CalendarID) == "" {
		return nil, domain.Validationf(op, "calendar id is required")
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, domain.Validationf(op, "title is required")
	}
	typ, err := domain.ParseEventType(req.Type)
	if err != nil {
		return nil, err
	}
	status, err := domain.ParseEventStatus(req.Status)
	if err != nil {
		return nil, err
	}
	e := &domain.Event{
		ID:          o.newID(),
		CalendarID:  req.CalendarID,
		Title:       req.Title,
		Description: req.Description,
		ColorHex:    req.ColorHex,
		Type:        typ,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		AllDay:      req.AllDay,
		Status:      status,
		SyncStatus:  domain.SyncStatusPending,
		LocationID:  req.LocationID,
	}
	if err := validateWindow(op, e); err != nil {
		return nil, err
	}
	now := o.now()
	e.CreatedAt, e.UpdatedAt = now, now
	return e, nil
}

// merge applies req onto a copy of e.
func merge(op string, e domain.Event, req UpdateRequest) (*domain.Event, error) {
	if req.Title != "" && strings.TrimSpace(req.Title) == "" {
		return nil, domain.Validationf(op, "title cannot be blank")
	}
	setString(&e.Title, req.Title)
	setString(&e.Description, req.Description)
	setString(&e.ColorHex, req.ColorHex)
	if req.Type != "" {
		t, err := domain.ParseEventType(req.Type)
		if err != nil {
			return nil, err
		}
		e.Type = t
	}
	if req.Status != "" {
		s, err := domain.ParseEventStatus(req.Status)
		if err != nil {
			return nil, err
		}
		e.Status = s
	}
	if !req.StartTime.IsZero() {
		e.StartTime = req.StartTime
	}
	if !req.EndTime.IsZero() {
		e.EndTime = req.EndTime
	}
	if req.AllDay != nil {
		e.AllDay = *req.AllDay
	}
	if err := validateWindow(op, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// validateWindow requires a start time, and for timed events an end no
// earlier than the start.
func validateWindow(op string, e *domain.Event) error {
	if e.StartTime.IsZero() {
		return domain.Validationf(op, "start time is required")
	}
	if e.AllDay {
		return nil
	}
	if e.EndTime.IsZero() {
		return domain.Validationf(op, "end time is required for timed events")
	}
	if e.EndTime.Before(e.StartTime) {
		return domain.Validationf(op, "end time must not be before start time")
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
