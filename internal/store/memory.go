package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/teemow/calsync/internal/domain"
)

// arena holds every entity by id. Values are stored by copy, so cloning
// the maps is enough to snapshot the whole graph.
type arena struct {
	calendars   map[string]domain.Calendar
	events      map[string]domain.Event
	conferences map[string]domain.Conference
	locations   map[string]domain.Location
	tasks       map[string]domain.Task
	attachments map[string]domain.Attachment
}

func newArena() *arena {
	return &arena{
		calendars:   map[string]domain.Calendar{},
		events:      map[string]domain.Event{},
		conferences: map[string]domain.Conference{},
		locations:   map[string]domain.Location{},
		tasks:       map[string]domain.Task{},
		attachments: map[string]domain.Attachment{},
	}
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (a *arena) clone() *arena {
	return &arena{
		calendars:   cloneMap(a.calendars),
		events:      cloneMap(a.events),
		conferences: cloneMap(a.conferences),
		locations:   cloneMap(a.locations),
		tasks:       cloneMap(a.tasks),
		attachments: cloneMap(a.attachments),
	}
}

// Memory is an in-process Store. It is safe for concurrent use;
// transactions are serialized.
type Memory struct {
	mu   sync.Mutex
	data *arena
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: newArena()}
}

func (m *Memory) with(fn func(a *arena) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m.data)
}

func (m *Memory) Calendars() CalendarRepository     { return memCalendars{m.with} }
func (m *Memory) Events() EventRepository           { return memEvents{m.with} }
func (m *Memory) Conferences() ConferenceRepository { return memConferences{m.with} }
func (m *Memory) Locations() LocationRepository     { return memLocations{m.with} }
func (m *Memory) Tasks() TaskRepository             { return memTasks{m.with} }
func (m *Memory) Attachments() AttachmentRepository { return memAttachments{m.with} }

// InTx runs fn against a clone of the arena and installs the clone only if
// fn succeeds.
func (m *Memory) InTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{data: m.data.clone()}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.data = tx.data
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }
func (m *Memory) Close() error               { return nil }

// memTx is the Store handed to an InTx callback. The parent lock is held
// for its whole lifetime.
type memTx struct {
	data *arena
}

func (t *memTx) with(fn func(a *arena) error) error { return fn(t.data) }

func (t *memTx) Calendars() CalendarRepository     { return memCalendars{t.with} }
func (t *memTx) Events() EventRepository           { return memEvents{t.with} }
func (t *memTx) Conferences() ConferenceRepository { return memConferences{t.with} }
func (t *memTx) Locations() LocationRepository     { return memLocations{t.with} }
func (t *memTx) Tasks() TaskRepository             { return memTasks{t.with} }
func (t *memTx) Attachments() AttachmentRepository { return memAttachments{t.with} }

func (t *memTx) InTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return fn(ctx, t)
}

func (t *memTx) Ping(context.Context) error { return nil }
func (t *memTx) Close() error               { return nil }

type scope func(fn func(a *arena) error) error

// --- calendars ---

type memCalendars struct{ with scope }

func (r memCalendars) Insert(_ context.Context, c *domain.Calendar) error {
	return r.with(func(a *arena) error {
		if _, ok := a.calendars[c.ID]; ok {
			return domain.Conflictf("store.calendars.insert", "calendar %q already exists", c.ID)
		}
		a.calendars[c.ID] = *c
		return nil
	})
}

func (r memCalendars) Update(_ context.Context, c *domain.Calendar) error {
	return r.with(func(a *arena) error {
		if _, ok := a.calendars[c.ID]; !ok {
			return calendarNotFound(c.ID)
		}
		a.calendars[c.ID] = *c
		return nil
	})
}

func (r memCalendars) Get(_ context.Context, id string) (*domain.Calendar, error) {
	var out *domain.Calendar
	err := r.with(func(a *arena) error {
		c, ok := a.calendars[id]
		if !ok {
			return calendarNotFound(id)
		}
		out = &c
		return nil
	})
	return out, err
}

func (r memCalendars) List(_ context.Context, page domain.Page) ([]domain.Calendar, error) {
	var out []domain.Calendar
	err := r.with(func(a *arena) error {
		out = filterCalendars(a, func(c domain.Calendar) bool { return !c.IsDeleted })
		return nil
	})
	return domain.Slice(out, page), err
}

func (r memCalendars) ListByUser(_ context.Context, userID string, includeDeleted bool) ([]domain.Calendar, error) {
	var out []domain.Calendar
	err := r.with(func(a *arena) error {
		out = filterCalendars(a, func(c domain.Calendar) bool {
			return c.UserID == userID && (includeDeleted || !c.IsDeleted)
		})
		return nil
	})
	return out, err
}

func (r memCalendars) FindByTitle(ctx context.Context, userID, title string) (*domain.Calendar, error) {
	return r.findOne(userID, func(c domain.Calendar) bool { return c.Title == title },
		"calendar with title %q not found", title)
}

func (r memCalendars) FindPrimary(ctx context.Context, userID string) (*domain.Calendar, error) {
	return r.findOne(userID, func(c domain.Calendar) bool { return c.IsPrimary },
		"primary calendar not found")
}

func (r memCalendars) findOne(userID string, match func(domain.Calendar) bool, format string, args ...any) (*domain.Calendar, error) {
	var out *domain.Calendar
	err := r.with(func(a *arena) error {
		found := filterCalendars(a, func(c domain.Calendar) bool {
			return c.UserID == userID && !c.IsDeleted && match(c)
		})
		if len(found) == 0 {
			return domain.NotFoundf("store.calendars.find", format, args...)
		}
		out = &found[0]
		return nil
	})
	return out, err
}

func filterCalendars(a *arena, keep func(domain.Calendar) bool) []domain.Calendar {
	out := []domain.Calendar{}
	for _, c := range a.calendars {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// --- events ---

type memEvents struct{ with scope }

func (r memEvents) checkRefs(a *arena, e *domain.Event) error {
	if _, ok := a.calendars[e.CalendarID]; !ok {
		return calendarNotFound(e.CalendarID)
	}
	if e.LocationID != "" {
		if _, ok := a.locations[e.LocationID]; !ok {
			return locationNotFound(e.LocationID)
		}
	}
	return nil
}

func (r memEvents) Insert(_ context.Context, e *domain.Event) error {
	return r.with(func(a *arena) error {
		if _, ok := a.events[e.ID]; ok {
			return domain.Conflictf("store.events.insert", "event %q already exists", e.ID)
		}
		if err := r.checkRefs(a, e); err != nil {
			return err
		}
		a.events[e.ID] = *e
		return nil
	})
}

func (r memEvents) Update(_ context.Context, e *domain.Event) error {
	return r.with(func(a *arena) error {
		if _, ok := a.events[e.ID]; !ok {
			return eventNotFound(e.ID)
		}
		if err := r.checkRefs(a, e); err != nil {
			return err
		}
		a.events[e.ID] = *e
		return nil
	})
}

func (r memEvents) Get(_ context.Context, id string) (*domain.Event, error) {
	var out *domain.Event
	err := r.with(func(a *arena) error {
		e, ok := a.events[id]
		if !ok {
			return eventNotFound(id)
		}
		out = &e
		return nil
	})
	return out, err
}

func (r memEvents) Delete(_ context.Context, id string) error {
	return r.with(func(a *arena) error {
		if _, ok := a.events[id]; !ok {
			return eventNotFound(id)
		}
		for cid, c := range a.conferences {
			if c.EventID == id {
				delete(a.conferences, cid)
			}
		}
		for tid, t := range a.tasks {
			if t.EventID == id {
				delete(a.tasks, tid)
			}
		}
		for aid, att := range a.attachments {
			if att.EventID == id {
				delete(a.attachments, aid)
			}
		}
		delete(a.events, id)
		return nil
	})
}

func (r memEvents) List(_ context.Context, page domain.Page) ([]domain.Event, error) {
	return r.filter(page, func(*arena, domain.Event) bool { return true })
}

func (r memEvents) ListByCalendar(_ context.Context, calendarID string, page domain.Page) ([]domain.Event, error) {
	return r.filter(page, func(_ *arena, e domain.Event) bool { return e.CalendarID == calendarID })
}

func (r memEvents) ListByUser(_ context.Context, userID string, page domain.Page) ([]domain.Event, error) {
	return r.filter(page, func(a *arena, e domain.Event) bool { return a.calendars[e.CalendarID].UserID == userID })
}

func (r memEvents) ListByLocation(_ context.Context, locationID string) ([]domain.Event, error) {
	return r.filter(domain.Page{Size: -1}, func(_ *arena, e domain.Event) bool { return e.LocationID == locationID })
}

func (r memEvents) Search(_ context.Context, f EventFilter, page domain.Page) ([]domain.Event, error) {
	keyword := strings.ToLower(strings.TrimSpace(f.Keyword))
	return r.filter(page, func(a *arena, e domain.Event) bool {
		if f.UserID != "" && a.calendars[e.CalendarID].UserID != f.UserID {
			return false
		}
		if !f.From.IsZero() && e.StartTime.Before(f.From) {
			return false
		}
		if !f.To.IsZero() && e.StartTime.After(f.To) {
			return false
		}
		if keyword != "" &&
			!strings.Contains(strings.ToLower(e.Title), keyword) &&
			!strings.Contains(strings.ToLower(e.Description), keyword) {
			return false
		}
		return true
	})
}

func (r memEvents) GetMany(_ context.Context, ids []string) ([]domain.Event, error) {
	out := []domain.Event{}
	err := r.with(func(a *arena) error {
		for _, id := range ids {
			if e, ok := a.events[id]; ok {
				out = append(out, e)
			}
		}
		return nil
	})
	return out, err
}

// filter returns matching events ordered by start time. A negative page
// size returns everything.
func (r memEvents) filter(page domain.Page, keep func(*arena, domain.Event) bool) ([]domain.Event, error) {
	out := []domain.Event{}
	err := r.with(func(a *arena) error {
		for _, e := range a.events {
			if keep(a, e) {
				out = append(out, e)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})
	if page.Size < 0 {
		return out, err
	}
	return domain.Slice(out, page), err
}

// --- conferences ---

type memConferences struct{ with scope }

func (r memConferences) checkExclusive(a *arena, c *domain.Conference) error {
	if c.EventID == "" {
		return nil
	}
	if _, ok := a.events[c.EventID]; !ok {
		return eventNotFound(c.EventID)
	}
	for _, other := range a.conferences {
		if other.ID != c.ID && other.EventID == c.EventID {
			return domain.Conflictf("store.conferences", "event %q already has a conference", c.EventID)
		}
	}
	return nil
}

func (r memConferences) Insert(_ context.Context, c *domain.Conference) error {
	return r.with(func(a *arena) error {
		if _, ok := a.conferences[c.ID]; ok {
			return domain.Conflictf("store.conferences.insert", "conference %q already exists", c.ID)
		}
		if err := r.checkExclusive(a, c); err != nil {
			return err
		}
		a.conferences[c.ID] = *c
		return nil
	})
}

func (r memConferences) Update(_ context.Context, c *domain.Conference) error {
	return r.with(func(a *arena) error {
		if _, ok := a.conferences[c.ID]; !ok {
			return conferenceNotFound(c.ID)
		}
		if err := r.checkExclusive(a, c); err != nil {
			return err
		}
		a.conferences[c.ID] = *c
		return nil
	})
}

func (r memConferences) Get(_ context.Context, id string) (*domain.Conference, error) {
	var out *domain.Conference
	err := r.with(func(a *arena) error {
		c, ok := a.conferences[id]
		if !ok {
			return conferenceNotFound(id)
		}
		out = &c
		return nil
	})
	return out, err
}

func (r memConferences) GetByEvent(_ context.Context, eventID string) (*domain.Conference, error) {
	var out *domain.Conference
	err := r.with(func(a *arena) error {
		for _, c := range a.conferences {
			if eventID != "" && c.EventID == eventID {
				out = &c
				return nil
			}
		}
		return domain.NotFoundf("store.conferences.get_by_event", "no conference attached to event %q", eventID)
	})
	return out, err
}

func (r memConferences) Delete(_ context.Context, id string) error {
	return r.with(func(a *arena) error {
		if _, ok := a.conferences[id]; !ok {
			return conferenceNotFound(id)
		}
		delete(a.conferences, id)
		return nil
	})
}

func (r memConferences) List(_ context.Context, page domain.Page) ([]domain.Conference, error) {
	out := []domain.Conference{}
	err := r.with(func(a *arena) error {
		for _, c := range a.conferences {
			out = append(out, c)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return domain.Slice(out, page), err
}

// --- locations ---

type memLocations struct{ with scope }

func copyLocation(l domain.Location) domain.Location {
	if l.Latitude != nil {
		v := *l.Latitude
		l.Latitude = &v
	}
	if l.Longitude != nil {
		v := *l.Longitude
		l.Longitude = &v
	}
	return l
}

func (r memLocations) Insert(_ context.Context, l *domain.Location) error {
	return r.with(func(a *arena) error {
		if _, ok := a.locations[l.ID]; ok {
			return domain.Conflictf("store.locations.insert", "location %q already exists", l.ID)
		}
		a.locations[l.ID] = copyLocation(*l)
		return nil
	})
}

func (r memLocations) Update(_ context.Context, l *domain.Location) error {
	return r.with(func(a *arena) error {
		if _, ok := a.locations[l.ID]; !ok {
			return locationNotFound(l.ID)
		}
		a.locations[l.ID] = copyLocation(*l)
		return nil
	})
}

func (r memLocations) Get(_ context.Context, id string) (*domain.Location, error) {
	var out *domain.Location
	err := r.with(func(a *arena) error {
		l, ok := a.locations[id]
		if !ok {
			return locationNotFound(id)
		}
		l = copyLocation(l)
		out = &l
		return nil
	})
	return out, err
}

func (r memLocations) Delete(_ context.Context, id string) error {
	return r.with(func(a *arena) error {
		if _, ok := a.locations[id]; !ok {
			return locationNotFound(id)
		}
		for _, e := range a.events {
			if e.LocationID == id {
				return domain.Conflictf("store.locations.delete", "location %q is still referenced by event %q", id, e.ID)
			}
		}
		delete(a.locations, id)
		return nil
	})
}

func (r memLocations) List(_ context.Context, page domain.Page) ([]domain.Location, error) {
	out, err := r.filter(func(domain.Location) bool { return true })
	return domain.Slice(out, page), err
}

func (r memLocations) Search(_ context.Context, query string, page domain.Page) ([]domain.Location, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	out, err := r.filter(func(l domain.Location) bool {
		for _, f := range []string{l.PlaceName, l.StreetAddress, l.City, l.Country} {
			if strings.Contains(strings.ToLower(f), q) {
				return true
			}
		}
		return false
	})
	return domain.Slice(out, page), err
}

func (r memLocations) ByCity(_ context.Context, city string) ([]domain.Location, error) {
	q := strings.ToLower(strings.TrimSpace(city))
	return r.filter(func(l domain.Location) bool { return strings.Contains(strings.ToLower(l.City), q) })
}

func (r memLocations) ByCountry(_ context.Context, country string) ([]domain.Location, error) {
	q := strings.ToLower(strings.TrimSpace(country))
	return r.filter(func(l domain.Location) bool { return strings.Contains(strings.ToLower(l.Country), q) })
}

func (r memLocations) Nearby(_ context.Context, lat, lon, radiusKm float64) ([]domain.Location, error) {
	all, err := r.filter(func(l domain.Location) bool { return l.Latitude != nil && l.Longitude != nil })
	if err != nil {
		return nil, err
	}
	return withinRadius(all, lat, lon, radiusKm), nil
}

func (r memLocations) filter(keep func(domain.Location) bool) ([]domain.Location, error) {
	out := []domain.Location{}
	err := r.with(func(a *arena) error {
		for _, l := range a.locations {
			if keep(l) {
				out = append(out, copyLocation(l))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].PlaceName != out[j].PlaceName {
			return out[i].PlaceName < out[j].PlaceName
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

// --- tasks and attachments ---

type memTasks struct{ with scope }

func (r memTasks) Insert(_ context.Context, t *domain.Task) error {
	return r.with(func(a *arena) error {
		if _, ok := a.events[t.EventID]; !ok {
			return eventNotFound(t.EventID)
		}
		a.tasks[t.ID] = *t
		return nil
	})
}

func (r memTasks) ListByEvent(_ context.Context, eventID string) ([]domain.Task, error) {
	out := []domain.Task{}
	err := r.with(func(a *arena) error {
		for _, t := range a.tasks {
			if t.EventID == eventID {
				out = append(out, t)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

type memAttachments struct{ with scope }

func (r memAttachments) Insert(_ context.Context, att *domain.Attachment) error {
	return r.with(func(a *arena) error {
		if _, ok := a.events[att.EventID]; !ok {
			return eventNotFound(att.EventID)
		}
		a.attachments[att.ID] = *att
		return nil
	})
}

func (r memAttachments) ListByEvent(_ context.Context, eventID string) ([]domain.Attachment, error) {
	out := []domain.Attachment{}
	err := r.with(func(a *arena) error {
		for _, att := range a.attachments {
			if att.EventID == eventID {
				out = append(out, att)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func calendarNotFound(id string) error {
	return domain.NotFoundf("store.calendars", "calendar %q not found", id)
}

func eventNotFound(id string) error {
	return domain.NotFoundf("store.events", "event %q not found", id)
}

func conferenceNotFound(id string) error {
	return domain.NotFoundf("store.conferences", "conference %q not found", id)
}

func locationNotFound(id string) error {
	return domain.NotFoundf("store.locations", "location %q not found", id)
}
