package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/teemow/calsync/internal/conferencing"
	"github.com/teemow/calsync/internal/domain"
	"github.com/teemow/calsync/internal/google"
	"github.com/teemow/calsync/internal/instrumentation"
	"github.com/teemow/calsync/internal/logging"
)

// ServiceFactory builds a Calendar service authenticated as user.
type ServiceFactory func(ctx context.Context, user string) (*calendar.Service, error)

// NewServiceFactory returns a factory that authenticates with the user's
// token from provider.
func NewServiceFactory(conf *oauth2.Config, provider google.TokenProvider, timeout time.Duration, opts ...option.ClientOption) ServiceFactory {
	return func(ctx context.Context, user string) (*calendar.Service, error) {
		client, err := google.HTTPClientForUser(ctx, conf, provider, user, nil)
		if err != nil {
			return nil, err
		}
		client.Timeout = timeout
		svc, err := calendar.NewService(ctx, append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)...)
		if err != nil {
			return nil, fmt.Errorf("failed to create Calendar service: %w", err)
		}
		return svc, nil
	}
}

// StaticServiceFactory returns a factory that ignores the user and talks to
// endpoint with client.
func StaticServiceFactory(endpoint string, client *http.Client) ServiceFactory {
	return func(ctx context.Context, _ string) (*calendar.Service, error) {
		svc, err := calendar.NewService(ctx, option.WithEndpoint(endpoint), option.WithHTTPClient(client))
		if err != nil {
			return nil, fmt.Errorf("failed to create Calendar service: %w", err)
		}
		return svc, nil
	}
}

// Google is the Adapter backed by the Google Calendar API.
type Google struct {
	factory    ServiceFactory
	calendarID string
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
}

// NewGoogle creates the adapter. An empty calendarID targets "primary".
func NewGoogle(factory ServiceFactory, calendarID string, logger *slog.Logger, metrics *instrumentation.Metrics) *Google {
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Google{
		factory:    factory,
		calendarID: calendarID,
		logger:     logger.With(logging.Service(instrumentation.ServiceCalendar)),
		metrics:    metrics,
	}
}

// call runs fn with a service for user inside a span, records the
// operation and classifies the error.
func (g *Google) call(ctx context.Context, user, op, action, externalID string, fn func(context.Context, *calendar.Service) error) (err error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, op)
	start := time.Now()
	defer func() {
		g.metrics.RecordExternalOperation(ctx, instrumentation.ServiceCalendar, op, instrumentation.StatusFor(err), time.Since(start))
		instrumentation.EndSpan(span, err)
	}()

	svc, err := g.factory(ctx, user)
	if err != nil {
		g.logger.Error("failed to create calendar service", logging.Operation(action), logging.UserHash(user), logging.Err(err))
		return domain.ExternalSyncFailure("calendar."+op, "failed to authenticate with google calendar", err)
	}
	if err := fn(ctx, svc); err != nil {
		return g.classify(op, action, externalID, user, err)
	}
	return nil
}

func (g *Google) classify(op, action, externalID, user string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone) {
		return fmt.Errorf("failed to %s event %s: %w", action, externalID, ErrEventNotFound)
	}
	g.logger.Error("google calendar call failed",
		logging.Operation(action),
		logging.EventID(externalID),
		logging.UserHash(user),
		logging.Err(err))
	return domain.ExternalSyncFailure("calendar."+op, "failed to "+action+" google calendar event", err)
}

func (g *Google) insert(ctx context.Context, user string, ev *calendar.Event, withConference bool) (*Result, error) {
	var created *calendar.Event
	err := g.call(ctx, user, instrumentation.OperationCreate, "create", "", func(ctx context.Context, svc *calendar.Service) error {
		call := svc.Events.Insert(g.calendarID, ev).Context(ctx)
		if withConference {
			call = call.ConferenceDataVersion(1)
		}
		var err error
		created, err = call.Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	g.logger.Debug("google calendar event created", logging.EventID(created.Id))
	return toResult(created), nil
}

// CreateEvent inserts a timed event.
func (g *Google) CreateEvent(ctx context.Context, user string, in EventInput) (*Result, error) {
	in.AllDay = false
	return g.insert(ctx, user, toEvent(in), false)
}

// CreateAllDayEvent inserts an all-day event on the start date.
func (g *Google) CreateAllDayEvent(ctx context.Context, user string, in EventInput) (*Result, error) {
	in.AllDay = true
	return g.insert(ctx, user, toEvent(in), false)
}

// CreateEventWithConference inserts an event with m embedded. All-day
// events never get native conferencing.
func (g *Google) CreateEventWithConference(ctx context.Context, user string, in EventInput, m *conferencing.Meeting) (*Result, error) {
	if m.Native() && in.AllDay {
		return g.CreateAllDayEvent(ctx, user, in)
	}
	ev := toEvent(in)
	embedMeeting(ev, m)
	return g.insert(ctx, user, ev, true)
}

// SetConferenceData attaches m to an existing event. A native conference
// the event already carries is reused.
func (g *Google) SetConferenceData(ctx context.Context, user, externalID string, m *conferencing.Meeting) (*Result, error) {
	var out *calendar.Event
	err := g.call(ctx, user, instrumentation.OperationUpdate, "attach conference to", externalID, func(ctx context.Context, svc *calendar.Service) error {
		ev, err := svc.Events.Get(g.calendarID, externalID).Context(ctx).Do()
		if err != nil {
			return err
		}
		if m.Native() && fromConferenceData(ev.ConferenceData) != nil {
			out = ev
			return nil
		}
		embedMeeting(ev, m)
		out, err = svc.Events.Update(g.calendarID, externalID, ev).ConferenceDataVersion(1).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	return toResult(out), nil
}

// ClearConferenceData removes the conference payload and any embedded
// join block from the description.
func (g *Google) ClearConferenceData(ctx context.Context, user, externalID string) error {
	return g.call(ctx, user, instrumentation.OperationUpdate, "clear conference on", externalID, func(ctx context.Context, svc *calendar.Service) error {
		ev, err := svc.Events.Get(g.calendarID, externalID).Context(ctx).Do()
		if err != nil {
			return err
		}
		ev.ConferenceData = nil
		ev.NullFields = append(ev.NullFields, "ConferenceData")
		ev.Description = conferencing.StripDescription(ev.Description)
		_, err = svc.Events.Update(g.calendarID, externalID, ev).ConferenceDataVersion(1).Context(ctx).Do()
		return err
	})
}

// UpdateEvent re-pushes title, description, time window and location. An
// embedded join block survives description changes.
func (g *Google) UpdateEvent(ctx context.Context, user, externalID string, in EventInput) error {
	return g.call(ctx, user, instrumentation.OperationUpdate, "update", externalID, func(ctx context.Context, svc *calendar.Service) error {
		ev, err := svc.Events.Get(g.calendarID, externalID).Context(ctx).Do()
		if err != nil {
			return err
		}
		ev.Summary = in.Title
		ev.Description = conferencing.ReplaceOriginal(ev.Description, in.Description)
		ev.Location = in.Location
		if color := ColorID(in.Type); color != "" {
			ev.ColorId = color
		}
		if in.Location == "" {
			ev.NullFields = append(ev.NullFields, "Location")
		}
		setWindow(ev, in)
		_, err = svc.Events.Update(g.calendarID, externalID, ev).ConferenceDataVersion(1).Context(ctx).Do()
		return err
	})
}

// UpdateEventLocation patches only the location text. An empty location
// clears it.
func (g *Google) UpdateEventLocation(ctx context.Context, user, externalID, location string) error {
	return g.call(ctx, user, instrumentation.OperationUpdate, "update location of", externalID, func(ctx context.Context, svc *calendar.Service) error {
		patch := &calendar.Event{Location: location}
		if location == "" {
			patch.NullFields = []string{"Location"}
		}
		_, err := svc.Events.Patch(g.calendarID, externalID, patch).Context(ctx).Do()
		return err
	})
}

// DeleteEvent removes the event from the provider.
func (g *Google) DeleteEvent(ctx context.Context, user, externalID string) error {
	return g.call(ctx, user, instrumentation.OperationDelete, "delete", externalID, func(ctx context.Context, svc *calendar.Service) error {
		return svc.Events.Delete(g.calendarID, externalID).Context(ctx).Do()
	})
}
