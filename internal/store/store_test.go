package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calsync/internal/domain"
)

type backend struct {
	name string
	open func(t *testing.T) Store
}

func backends() []backend {
	return []backend{
		{"memory", func(t *testing.T) Store { return NewMemory() }},
		{"sqlite", func(t *testing.T) Store {
			s, err := OpenSQLite(context.Background(), ":memory:")
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		}},
	}
}

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func seedCalendar(t *testing.T, s Store, id, user string, offset time.Duration) *domain.Calendar {
	t.Helper()
	c := &domain.Calendar{ID: id, UserID: user, Title: "cal " + id, ColorHex: domain.DefaultCalendarColor,
		Timezone: domain.DefaultTimezone, CreatedAt: t0.Add(offset), UpdatedAt: t0.Add(offset)}
	require.NoError(t, s.Calendars().Insert(context.Background(), c))
	return c
}

func seedEvent(t *testing.T, s Store, id, calID string, start time.Time) *domain.Event {
	t.Helper()
	e := &domain.Event{ID: id, CalendarID: calID, Title: "event " + id, StartTime: start, EndTime: start.Add(time.Hour),
		Type: domain.EventTypeMeeting, Status: domain.EventStatusConfirmed, SyncStatus: domain.SyncStatusPending,
		CreatedAt: t0, UpdatedAt: t0}
	require.NoError(t, s.Events().Insert(context.Background(), e))
	return e
}

func TestCalendars(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := b.open(t)

			c1 := seedCalendar(t, s, "c1", "u1", 0)
			seedCalendar(t, s, "c2", "u1", time.Minute)
			seedCalendar(t, s, "c3", "u2", 2*time.Minute)

			got, err := s.Calendars().Get(ctx, "c1")
			require.NoError(t, err)
			assert.Equal(t, "cal c1", got.Title)
			assert.True(t, got.CreatedAt.Equal(c1.CreatedAt))

			_, err = s.Calendars().Get(ctx, "missing")
			assert.ErrorIs(t, err, domain.ErrNotFound)

			c1.IsPrimary = true
			require.NoError(t, s.Calendars().Update(ctx, c1))
			primary, err := s.Calendars().FindPrimary(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, "c1", primary.ID)

			_, err = s.Calendars().FindPrimary(ctx, "u2")
			assert.ErrorIs(t, err, domain.ErrNotFound)

			byTitle, err := s.Calendars().FindByTitle(ctx, "u1", "cal c2")
			require.NoError(t, err)
			assert.Equal(t, "c2", byTitle.ID)

			c1.IsDeleted = true
			require.NoError(t, s.Calendars().Update(ctx, c1))

			live, err := s.Calendars().ListByUser(ctx, "u1", false)
			require.NoError(t, err)
			require.Len(t, live, 1)
			assert.Equal(t, "c2", live[0].ID)

			all, err := s.Calendars().ListByUser(ctx, "u1", true)
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, "c1", all[0].ID)

			_, err = s.Calendars().FindPrimary(ctx, "u1")
			assert.ErrorIs(t, err, domain.ErrNotFound, "deleted calendars are never primary candidates")

			page, err := s.Calendars().List(ctx, domain.Page{Number: 0, Size: 1})
			require.NoError(t, err)
			require.Len(t, page, 1)
			assert.Equal(t, "c2", page[0].ID)

			err = s.Calendars().Update(ctx, &domain.Calendar{ID: "nope"})
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

func TestEventsReferentialIntegrity(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := b.open(t)

			err := s.Events().Insert(ctx, &domain.Event{ID: "e1", CalendarID: "missing", StartTime: t0, EndTime: t0})
			assert.ErrorIs(t, err, domain.ErrNotFound)

			seedCalendar(t, s, "c1", "u1", 0)
			err = s.Events().Insert(ctx, &domain.Event{ID: "e1", CalendarID: "c1", LocationID: "nowhere", StartTime: t0, EndTime: t0})
			assert.ErrorIs(t, err, domain.ErrNotFound)

			e := seedEvent(t, s, "e1", "c1", t0)
			require.NoError(t, s.Tasks().Insert(ctx, &domain.Task{ID: "t1", EventID: e.ID, Title: "prepare"}))
			require.NoError(t, s.Attachments().Insert(ctx, &domain.Attachment{ID: "a1", EventID: e.ID, FileURL: "https://files/x"}))
			require.NoError(t, s.Conferences().Insert(ctx, &domain.Conference{ID: "k1", EventID: e.ID,
				Type: domain.ConferenceTypeMeet, CreatedAt: t0, UpdatedAt: t0}))

			assert.ErrorIs(t, s.Tasks().Insert(ctx, &domain.Task{ID: "t2", EventID: "missing"}), domain.ErrNotFound)

			require.NoError(t, s.Events().Delete(ctx, e.ID))

			_, err = s.Events().Get(ctx, e.ID)
			assert.ErrorIs(t, err, domain.ErrNotFound)
			_, err = s.Conferences().Get(ctx, "k1")
			assert.ErrorIs(t, err, domain.ErrNotFound)
			tasks, err := s.Tasks().ListByEvent(ctx, e.ID)
			require.NoError(t, err)
			assert.Empty(t, tasks)
			atts, err := s.Attachments().ListByEvent(ctx, e.ID)
			require.NoError(t, err)
			assert.Empty(t, atts)

			assert.ErrorIs(t, s.Events().Delete(ctx, e.ID), domain.ErrNotFound)
		})
	}
}

func TestConferenceExclusivity(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := b.open(t)
			seedCalendar(t, s, "c1", "u1", 0)
			seedEvent(t, s, "e1", "c1", t0)
			seedEvent(t, s, "e2", "c1", t0.Add(time.Hour))

			k1 := &domain.Conference{ID: "k1", EventID: "e1", Type: domain.ConferenceTypeMeet, CreatedAt: t0, UpdatedAt: t0}
			require.NoError(t, s.Conferences().Insert(ctx, k1))

			k2 := &domain.Conference{ID: "k2", EventID: "e1", Type: domain.ConferenceTypeStandalone, CreatedAt: t0, UpdatedAt: t0}
			assert.ErrorIs(t, s.Conferences().Insert(ctx, k2), domain.ErrConflict)

			k2.EventID = ""
			require.NoError(t, s.Conferences().Insert(ctx, k2), "unattached conferences never collide")
			k3 := &domain.Conference{ID: "k3", Type: domain.ConferenceTypeStandalone, CreatedAt: t0, UpdatedAt: t0}
			require.NoError(t, s.Conferences().Insert(ctx, k3))

			got, err := s.Conferences().GetByEvent(ctx, "e1")
			require.NoError(t, err)
			assert.Equal(t, "k1", got.ID)

			_, err = s.Conferences().GetByEvent(ctx, "e2")
			assert.ErrorIs(t, err, domain.ErrNotFound)

			k2.EventID = "e2"
			require.NoError(t, s.Conferences().Update(ctx, k2))
			got, err = s.Conferences().GetByEvent(ctx, "e2")
			require.NoError(t, err)
			assert.Equal(t, "k2", got.ID)

			all, err := s.Conferences().List(ctx, domain.Page{})
			require.NoError(t, err)
			assert.Len(t, all, 3)

			require.NoError(t, s.Conferences().Delete(ctx, "k3"))
			assert.ErrorIs(t, s.Conferences().Delete(ctx, "k3"), domain.ErrNotFound)
		})
	}
}

func TestEventQueries(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := b.open(t)
			seedCalendar(t, s, "c1", "u1", 0)
			seedCalendar(t, s, "c2", "u2", time.Minute)

			e1 := seedEvent(t, s, "e1", "c1", t0.Add(2*time.Hour))
			e1.Title = "Team standup"
			require.NoError(t, s.Events().Update(ctx, e1))
			seedEvent(t, s, "e2", "c1", t0)
			e3 := seedEvent(t, s, "e3", "c2", t0.Add(time.Hour))
			e3.Description = "quarterly STANDUP review"
			require.NoError(t, s.Events().Update(ctx, e3))

			all, err := s.Events().List(ctx, domain.Page{})
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, []string{"e2", "e3", "e1"}, ids(all), "ordered by start time")

			byCal, err := s.Events().ListByCalendar(ctx, "c1", domain.Page{})
			require.NoError(t, err)
			assert.Equal(t, []string{"e2", "e1"}, ids(byCal))

			byUser, err := s.Events().ListByUser(ctx, "u2", domain.Page{})
			require.NoError(t, err)
			assert.Equal(t, []string{"e3"}, ids(byUser))

			found, err := s.Events().Search(ctx, EventFilter{Keyword: "standup"}, domain.Page{})
			require.NoError(t, err)
			assert.Equal(t, []string{"e3", "e1"}, ids(found))

			found, err = s.Events().Search(ctx, EventFilter{UserID: "u1", Keyword: "standup"}, domain.Page{})
			require.NoError(t, err)
			assert.Equal(t, []string{"e1"}, ids(found))

			found, err = s.Events().Search(ctx, EventFilter{From: t0.Add(30 * time.Minute), To: t0.Add(90 * time.Minute)}, domain.Page{})
			require.NoError(t, err)
			assert.Equal(t, []string{"e3"}, ids(found))

			many, err := s.Events().GetMany(ctx, []string{"e3", "missing", "e1"})
			require.NoError(t, err)
			assert.Equal(t, []string{"e3", "e1"}, ids(many))
		})
	}
}

func TestLocations(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := b.open(t)

			berlinLat, berlinLon := 52.5200, 13.4050
			potsdamLat, potsdamLon := 52.3906, 13.0645
			munichLat, munichLon := 48.1351, 11.5820

			for _, l := range []*domain.Location{
				{ID: "l1", PlaceName: "Alexanderplatz", City: "Berlin", Country: "Germany", Latitude: &berlinLat, Longitude: &berlinLon},
				{ID: "l2", PlaceName: "Sanssouci", City: "Potsdam", Country: "Germany", Latitude: &potsdamLat, Longitude: &potsdamLon},
				{ID: "l3", PlaceName: "Marienplatz", City: "Munich", Country: "Germany", Latitude: &munichLat, Longitude: &munichLon},
				{ID: "l4", PlaceName: "Home office", Country: "Austria"},
			} {
				l.CreatedAt, l.UpdatedAt = t0, t0
				require.NoError(t, s.Locations().Insert(ctx, l))
			}

			found, err := s.Locations().Search(ctx, "PLATZ", domain.Page{})
			require.NoError(t, err)
			assert.Equal(t, []string{"l1", "l3"}, locIDs(found))

			byCity, err := s.Locations().ByCity(ctx, "berl")
			require.NoError(t, err)
			assert.Equal(t, []string{"l1"}, locIDs(byCity))

			byCountry, err := s.Locations().ByCountry(ctx, "austria")
			require.NoError(t, err)
			assert.Equal(t, []string{"l4"}, locIDs(byCountry))

			near, err := s.Locations().Nearby(ctx, berlinLat, berlinLon, 50)
			require.NoError(t, err)
			assert.Equal(t, []string{"l1", "l2"}, locIDs(near), "closest first, Munich out of range")

			seedCalendar(t, s, "c1", "u1", 0)
			e := seedEvent(t, s, "e1", "c1", t0)
			e.LocationID = "l1"
			require.NoError(t, s.Events().Update(ctx, e))

			assert.ErrorIs(t, s.Locations().Delete(ctx, "l1"), domain.ErrConflict)

			linked, err := s.Events().ListByLocation(ctx, "l1")
			require.NoError(t, err)
			assert.Equal(t, []string{"e1"}, ids(linked))

			e.LocationID = ""
			require.NoError(t, s.Events().Update(ctx, e))
			require.NoError(t, s.Locations().Delete(ctx, "l1"))
			_, err = s.Locations().Get(ctx, "l1")
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

func TestInTx(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := b.open(t)
			seedCalendar(t, s, "c1", "u1", 0)

			boom := errors.New("boom")
			err := s.InTx(ctx, func(ctx context.Context, tx Store) error {
				c, err := tx.Calendars().Get(ctx, "c1")
				require.NoError(t, err)
				c.IsPrimary = true
				require.NoError(t, tx.Calendars().Update(ctx, c))
				require.NoError(t, tx.Calendars().Insert(ctx, &domain.Calendar{ID: "c2", UserID: "u1", Title: "x", CreatedAt: t0, UpdatedAt: t0}))
				return boom
			})
			assert.ErrorIs(t, err, boom)

			c, err := s.Calendars().Get(ctx, "c1")
			require.NoError(t, err)
			assert.False(t, c.IsPrimary, "rolled back")
			_, err = s.Calendars().Get(ctx, "c2")
			assert.ErrorIs(t, err, domain.ErrNotFound)

			err = s.InTx(ctx, func(ctx context.Context, tx Store) error {
				return tx.InTx(ctx, func(ctx context.Context, inner Store) error {
					return inner.Calendars().Insert(ctx, &domain.Calendar{ID: "c2", UserID: "u1", Title: "x", CreatedAt: t0, UpdatedAt: t0})
				})
			})
			require.NoError(t, err)
			_, err = s.Calendars().Get(ctx, "c2")
			assert.NoError(t, err)

			assert.NoError(t, s.Ping(ctx))
		})
	}
}

func TestDistanceKm(t *testing.T) {
	assert.InDelta(t, 0, DistanceKm(10, 10, 10, 10), 1e-9)
	// Berlin to Munich is roughly 504 km.
	assert.InDelta(t, 504, DistanceKm(52.5200, 13.4050, 48.1351, 11.5820), 5)
}

func ids(events []domain.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

func locIDs(locs []domain.Location) []string {
	out := make([]string, len(locs))
	for i, l := range locs {
		out[i] = l.ID
	}
	return out
}
