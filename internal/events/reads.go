package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/teemow/calsync/internal/cache"
	"github.com/teemow/calsync/internal/domain"
	"github.com/teemow/calsync/internal/store"
)

// Get returns an event with its location, conference, tasks and attachments.
func (o *Orchestrator) Get(ctx context.Context, eventID string) (*Details, error) {
	if eventID == "" {
		return nil, domain.Validationf("events.get", "event id is required")
	}
	d, err := cache.Fetch(ctx, o.cache, cache.Event, cache.Key(cache.Event, eventID),
		func(ctx context.Context) (Details, error) {
			d, err := o.details(ctx, eventID)
			if err != nil {
				return Details{}, err
			}
			return *d, nil
		})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// details loads an event and everything linked to it from the store.
func (o *Orchestrator) details(ctx context.Context, eventID string) (*Details, error) {
	e, err := o.store.Events().Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	d := &Details{Event: *e}

	g, gctx := errgroup.WithContext(ctx)
	if e.LocationID != "" {
		g.Go(func() error {
			loc, err := o.store.Locations().Get(gctx, e.LocationID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			d.Location = loc
			return nil
		})
	}
	g.Go(func() error {
		conf, err := o.store.Conferences().GetByEvent(gctx, e.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		d.Conference = conf
		return nil
	})
	g.Go(func() error {
		var err error
		d.Tasks, err = o.store.Tasks().ListByEvent(gctx, e.ID)
		return err
	})
	g.Go(func() error {
		var err error
		d.Attachments, err = o.store.Attachments().ListByEvent(gctx, e.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if d.Tasks == nil {
		d.Tasks = []domain.Task{}
	}
	if d.Attachments == nil {
		d.Attachments = []domain.Attachment{}
	}
	return d, nil
}

// List returns a page of all events.
func (o *Orchestrator) List(ctx context.Context, page domain.Page) ([]domain.Event, error) {
	page = page.Normalize()
	return cache.Fetch(ctx, o.cache, cache.AllEvents, pageKey(cache.AllEvents, page),
		func(ctx context.Context) ([]domain.Event, error) {
			return o.store.Events().List(ctx, page)
		})
}

// ListByCalendar returns a page of one calendar's events.
func (o *Orchestrator) ListByCalendar(ctx context.Context, calendarID string, page domain.Page) ([]domain.Event, error) {
	const op = "events.list_by_calendar"
	if calendarID == "" {
		return nil, domain.Validationf(op, "calendar id is required")
	}
	page = page.Normalize()
	return cache.Fetch(ctx, o.cache, cache.CalendarEvents, pageKey(cache.CalendarEvents, page, calendarID),
		func(ctx context.Context) ([]domain.Event, error) {
			if _, err := o.store.Calendars().Get(ctx, calendarID); err != nil {
				return nil, err
			}
			return o.store.Events().ListByCalendar(ctx, calendarID, page)
		})
}

// ListByUser returns a page of the user's events across their calendars.
func (o *Orchestrator) ListByUser(ctx context.Context, userID string, page domain.Page) ([]domain.Event, error) {
	const op = "events.list_by_user"
	if userID == "" {
		return nil, domain.Validationf(op, "user id is required")
	}
	page = page.Normalize()
	return cache.Fetch(ctx, o.cache, cache.UserEvents, pageKey(cache.UserEvents, page, userID),
		func(ctx context.Context) ([]domain.Event, error) {
			events, err := o.store.Events().ListByUser(ctx, userID, page)
			if err != nil {
				return nil, err
			}
			if len(events) == 0 {
				return nil, domain.NotFoundf(op, "no events found for user %q", userID)
			}
			return events, nil
		})
}

// Search filters the user's events by time range and keyword.
func (o *Orchestrator) Search(ctx context.Context, filter store.EventFilter, page domain.Page) ([]domain.Event, error) {
	const op = "events.search"
	if filter.UserID == "" {
		return nil, domain.Validationf(op, "user id is required")
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return nil, domain.Validationf(op, "search range end must not be before its start")
	}
	filter.Keyword = strings.TrimSpace(filter.Keyword)
	page = page.Normalize()
	key := pageKey(cache.EventSearch, page, filter.UserID, formatBound(filter.From), formatBound(filter.To), strings.ToLower(filter.Keyword))
	return cache.Fetch(ctx, o.cache, cache.EventSearch, key,
		func(ctx context.Context) ([]domain.Event, error) {
			return o.store.Events().Search(ctx, filter, page)
		})
}

// GetMany returns the existing events among ids, in ids order.
func (o *Orchestrator) GetMany(ctx context.Context, ids []string) ([]domain.Event, error) {
	if len(ids) == 0 {
		return []domain.Event{}, nil
	}
	if len(ids) > domain.MaxPageSize {
		return nil, domain.Validationf("events.get_many", "at most %d ids per request", domain.MaxPageSize)
	}
	return cache.Fetch(ctx, o.cache, cache.BulkEvents, cache.Key(cache.BulkEvents, ids...),
		func(ctx context.Context) ([]domain.Event, error) {
			return o.store.Events().GetMany(ctx, ids)
		})
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
