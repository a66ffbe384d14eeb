package store

import (
	"context"
	"time"

	"github.com/teemow/calsync/internal/domain"
)

// Store is the system of record. Every repository enforces foreign-key
// integrity on write; multi-row mutations run inside InTx.
type Store interface {
	Calendars() CalendarRepository
	Events() EventRepository
	Conferences() ConferenceRepository
	Locations() LocationRepository
	Tasks() TaskRepository
	Attachments() AttachmentRepository

	// InTx runs fn inside a transaction. The Store passed to fn is bound to
	// the transaction; fn's error rolls everything back. Calls nest: InTx on a
	// transactional Store runs fn in the same transaction.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error

	Ping(ctx context.Context) error
	Close() error
}

// CalendarRepository persists calendars.
type CalendarRepository interface {
	Insert(ctx context.Context, c *domain.Calendar) error
	Update(ctx context.Context, c *domain.Calendar) error
	Get(ctx context.Context, id string) (*domain.Calendar, error)
	// List returns a page of non-deleted calendars across all users.
	List(ctx context.Context, page domain.Page) ([]domain.Calendar, error)
	// ListByUser returns the user's calendars in creation order.
	ListByUser(ctx context.Context, userID string, includeDeleted bool) ([]domain.Calendar, error)
	// FindByTitle matches the title exactly among non-deleted calendars.
	FindByTitle(ctx context.Context, userID, title string) (*domain.Calendar, error)
	FindPrimary(ctx context.Context, userID string) (*domain.Calendar, error)
}

// EventFilter narrows an event search. Zero fields do not filter.
type EventFilter struct {
	UserID  string
	From    time.Time
	To      time.Time
	Keyword string
}

// EventRepository persists events. Delete cascades to the event's
// conference, tasks and attachments.
type EventRepository interface {
	Insert(ctx context.Context, e *domain.Event) error
	Update(ctx context.Context, e *domain.Event) error
	Get(ctx context.Context, id string) (*domain.Event, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, page domain.Page) ([]domain.Event, error)
	ListByCalendar(ctx context.Context, calendarID string, page domain.Page) ([]domain.Event, error)
	ListByUser(ctx context.Context, userID string, page domain.Page) ([]domain.Event, error)
	ListByLocation(ctx context.Context, locationID string) ([]domain.Event, error)
	Search(ctx context.Context, filter EventFilter, page domain.Page) ([]domain.Event, error)
	// GetMany returns the events that exist among ids, in ids order.
	GetMany(ctx context.Context, ids []string) ([]domain.Event, error)
}

// ConferenceRepository persists conferences. At most one conference may
// reference a given event.
type ConferenceRepository interface {
	Insert(ctx context.Context, c *domain.Conference) error
	Update(ctx context.Context, c *domain.Conference) error
	Get(ctx context.Context, id string) (*domain.Conference, error)
	GetByEvent(ctx context.Context, eventID string) (*domain.Conference, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, page domain.Page) ([]domain.Conference, error)
}

// LocationRepository persists locations.
type LocationRepository interface {
	Insert(ctx context.Context, l *domain.Location) error
	Update(ctx context.Context, l *domain.Location) error
	Get(ctx context.Context, id string) (*domain.Location, error)
	// Delete fails with Conflict while any event still references the location.
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, page domain.Page) ([]domain.Location, error)
	// Search matches query case-insensitively against name, street, city and country.
	Search(ctx context.Context, query string, page domain.Page) ([]domain.Location, error)
	ByCity(ctx context.Context, city string) ([]domain.Location, error)
	ByCountry(ctx context.Context, country string) ([]domain.Location, error)
	// Nearby returns geocoded locations within radiusKm, closest first.
	Nearby(ctx context.Context, lat, lon, radiusKm float64) ([]domain.Location, error)
}

// TaskRepository persists event tasks.
type TaskRepository interface {
	Insert(ctx context.Context, t *domain.Task) error
	ListByEvent(ctx context.Context, eventID string) ([]domain.Task, error)
}

// AttachmentRepository persists event attachments.
type AttachmentRepository interface {
	Insert(ctx context.Context, a *domain.Attachment) error
	ListByEvent(ctx context.Context, eventID string) ([]domain.Attachment, error)
}
