package meet

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	meet "google.golang.org/api/meet/v2"
	"google.golang.org/api/option"

	"github.com/teemow/calsync/internal/google"
	"github.com/teemow/calsync/internal/instrumentation"
)

// ServiceFactory builds a Meet service authenticated as user.
type ServiceFactory func(ctx context.Context, user string) (*meet.Service, error)

// NewServiceFactory returns a factory that authenticates with the user's
// token from provider. Extra options are appended to every service.
func NewServiceFactory(conf *oauth2.Config, provider google.TokenProvider, timeout time.Duration, opts ...option.ClientOption) ServiceFactory {
	return func(ctx context.Context, user string) (*meet.Service, error) {
		client, err := google.HTTPClientForUser(ctx, conf, provider, user, nil)
		if err != nil {
			return nil, err
		}
		client.Timeout = timeout
		svc, err := meet.NewService(ctx, append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)...)
		if err != nil {
			return nil, fmt.Errorf("failed to create Meet service: %w", err)
		}
		return svc, nil
	}
}

// StaticServiceFactory returns a factory that ignores the user and talks to
// endpoint with client.
func StaticServiceFactory(endpoint string, client *http.Client) ServiceFactory {
	return func(ctx context.Context, _ string) (*meet.Service, error) {
		svc, err := meet.NewService(ctx, option.WithEndpoint(endpoint), option.WithHTTPClient(client))
		if err != nil {
			return nil, fmt.Errorf("failed to create Meet service: %w", err)
		}
		return svc, nil
	}
}

// Client wraps the Google Meet service
type Client struct {
	factory ServiceFactory
	metrics *instrumentation.Metrics
}

// NewClient creates a Meet lookup client. metrics may be nil.
func NewClient(factory ServiceFactory, metrics *instrumentation.Metrics) *Client {
	return &Client{factory: factory, metrics: metrics}
}

// GetSpace retrieves the space for a meeting code or space resource name.
func (c *Client) GetSpace(ctx context.Context, user, meetingCode string) (space *Space, err error) {
	name := spaceName(meetingCode)
	if name == "" {
		return nil, fmt.Errorf("meeting code cannot be empty")
	}

	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceMeet, instrumentation.OperationGet)
	start := time.Now()
	defer func() {
		c.metrics.RecordExternalOperation(ctx, instrumentation.ServiceMeet, instrumentation.OperationGet,
			instrumentation.StatusFor(err), time.Since(start))
		instrumentation.EndSpan(span, err)
	}()

	svc, err := c.factory(ctx, user)
	if err != nil {
		return nil, err
	}

	s, err := svc.Spaces.Get(name).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get space: %w", err)
	}
	return toSpace(s), nil
}

// spaceName turns a meeting code into a spaces.get resource name.
func spaceName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" || strings.HasPrefix(code, "spaces/") {
		return code
	}
	return "spaces/" + code
}

// toSpace converts a Meet API Space to our Space type
func toSpace(s *meet.Space) *Space {
	space := &Space{
		Name:        s.Name,
		MeetingURI:  s.MeetingUri,
		MeetingCode: s.MeetingCode,
	}
	if s.ActiveConference != nil {
		space.ActiveConference = s.ActiveConference.ConferenceRecord
	}
	if s.Config != nil {
		space.AccessType = s.Config.AccessType
		space.EntryPointAccess = s.Config.EntryPointAccess
	}
	return space
}
