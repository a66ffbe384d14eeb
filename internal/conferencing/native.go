package conferencing

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/teemow/calsync/internal/domain"
	"github.com/teemow/calsync/internal/logging"
	"github.com/teemow/calsync/internal/meet"
)

// MeetPlatformName labels native conferences.
const MeetPlatformName = "Google Meet"

// SpaceLookup resolves a meeting code to its Meet space.
type SpaceLookup interface {
	GetSpace(ctx context.Context, user, meetingCode string) (*meet.Space, error)
}

// NativeProvider produces conference create requests for the external
// calendar. It never talks to a remote API when creating or deleting.
type NativeProvider struct {
	spaces SpaceLookup
	logger *slog.Logger
	newID  func() string
}

// NewNativeProvider returns a native provider. spaces may be nil, in which
// case descriptions only contain what is stored locally.
func NewNativeProvider(spaces SpaceLookup, logger *slog.Logger) *NativeProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &NativeProvider{spaces: spaces, logger: logger, newID: uuid.NewString}
}

func (p *NativeProvider) Type() domain.ConferenceType { return domain.ConferenceTypeMeet }

// CreateMeeting returns a fresh create request id.
func (p *NativeProvider) CreateMeeting(_ context.Context, _ MeetingRequest) (*Meeting, error) {
	return &Meeting{
		Type:            domain.ConferenceTypeMeet,
		PlatformName:    MeetPlatformName,
		CreateRequestID: p.newID(),
	}, nil
}

// DeleteMeeting is a no-op: the conference goes away with the event payload.
func (p *NativeProvider) DeleteMeeting(context.Context, string) error {
	return nil
}

// Describe formats the stored join information and, when a space lookup is
// configured, adds the space access type. Lookup failures are logged only.
func (p *NativeProvider) Describe(ctx context.Context, user string, c *domain.Conference) Description {
	d := describeStored(c)
	if p.spaces == nil || c == nil || c.MeetingCode == "" {
		return d
	}

	space, err := p.spaces.GetSpace(ctx, user, c.MeetingCode)
	if err != nil {
		p.logger.Warn("meet space lookup failed",
			logging.Operation("conferencing.describe"),
			logging.UserHash(user),
			logging.Err(err))
		return d
	}
	d.AccessType = space.AccessType
	if d.JoinURL == "" {
		d.JoinURL = space.MeetingURI
	}
	return d
}
