package conferencing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/teemow/calsync/internal/domain"
)

// DefaultMeetingDuration is used when a MeetingRequest has no duration.
const DefaultMeetingDuration = 60 * time.Minute

// Provider creates and removes meetings for one conference type.
type Provider interface {
	Type() domain.ConferenceType
	CreateMeeting(ctx context.Context, req MeetingRequest) (*Meeting, error)
	DeleteMeeting(ctx context.Context, meetingID string) error
	Describe(ctx context.Context, user string, c *domain.Conference) Description
}

// MeetingRequest describes a meeting to create.
type MeetingRequest struct {
	Topic    string
	Start    time.Time
	Duration time.Duration
	// User owns the meeting. Native meetings are created as this user.
	User string
}

// Meeting is the provider-side result of CreateMeeting.
type Meeting struct {
	Type domain.ConferenceType
	// ID is the provider meeting id. Empty for native meetings until the
	// calendar materializes them.
	ID           string
	JoinURL      string
	Password     string
	PlatformName string
	// CreateRequestID is set for native meetings and embedded in the
	// calendar write that creates the conference.
	CreateRequestID string
}

// Native reports whether the meeting is created by the calendar itself.
func (m *Meeting) Native() bool {
	return m != nil && m.Type == domain.ConferenceTypeMeet
}

// Conference builds the local record for a standalone meeting.
func (m *Meeting) Conference(id, eventID string, status domain.ConferenceSyncStatus, now time.Time) *domain.Conference {
	c := &domain.Conference{
		ID:                   id,
		EventID:              eventID,
		Type:                 domain.ConferenceTypeStandalone,
		ConferenceLink:       m.JoinURL,
		Password:             m.Password,
		PlatformName:         m.PlatformName,
		ExternalConferenceID: m.ID,
		SyncStatus:           status,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if status == domain.ConferenceSynced {
		c.LastSyncedAt = now
	}
	return c
}

// Description is the join information shown to participants.
type Description struct {
	Platform    string `json:"platform"`
	JoinURL     string `json:"joinUrl,omitempty"`
	MeetingCode string `json:"meetingCode,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Pin         string `json:"pin,omitempty"`
	Password    string `json:"password,omitempty"`
	// AccessType is filled from the Meet space when a lookup is configured.
	AccessType string `json:"accessType,omitempty"`
}

func (d Description) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s meeting", d.Platform)
	if d.JoinURL != "" {
		fmt.Fprintf(&b, "\nJoin: %s", d.JoinURL)
	}
	if d.MeetingCode != "" {
		fmt.Fprintf(&b, "\nMeeting code: %s", d.MeetingCode)
	}
	if d.Password != "" {
		fmt.Fprintf(&b, "\nPassword: %s", d.Password)
	}
	if d.PhoneNumber != "" {
		fmt.Fprintf(&b, "\nDial-in: %s", d.PhoneNumber)
		if d.Pin != "" {
			fmt.Fprintf(&b, " (PIN %s)", d.Pin)
		}
	}
	if d.AccessType != "" {
		fmt.Fprintf(&b, "\nAccess: %s", strings.ToLower(d.AccessType))
	}
	return b.String()
}

// Disabled is the provider used when a conferencing integration is turned
// off. Create and delete fail with ProviderDisabled.
type Disabled struct {
	Kind domain.ConferenceType
}

func (d Disabled) Type() domain.ConferenceType { return d.Kind }

func (d Disabled) name() string {
	if d.Kind == domain.ConferenceTypeMeet {
		return "meet"
	}
	return "standalone meeting"
}

func (d Disabled) CreateMeeting(context.Context, MeetingRequest) (*Meeting, error) {
	return nil, domain.ProviderDisabled("conferencing.create", d.name())
}

func (d Disabled) DeleteMeeting(context.Context, string) error {
	return domain.ProviderDisabled("conferencing.delete", d.name())
}

// Describe still reports what is stored locally.
func (d Disabled) Describe(_ context.Context, _ string, c *domain.Conference) Description {
	return describeStored(c)
}

// IsEnabled reports whether p can create meetings.
func IsEnabled(p Provider) bool {
	if p == nil {
		return false
	}
	_, disabled := p.(Disabled)
	return !disabled
}

func describeStored(c *domain.Conference) Description {
	if c == nil {
		return Description{}
	}
	d := Description{
		Platform:    c.PlatformName,
		JoinURL:     c.JoinURL(),
		MeetingCode: c.MeetingCode,
		PhoneNumber: c.PhoneNumber,
		Pin:         c.Pin,
		Password:    c.Password,
	}
	if d.Platform == "" {
		if c.Type == domain.ConferenceTypeMeet {
			d.Platform = MeetPlatformName
		} else {
			d.Platform = DefaultPlatformName
		}
	}
	return d
}
