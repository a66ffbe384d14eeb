package locations

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calsync/internal/cache"
	"github.com/teemow/calsync/internal/domain"
	"github.com/teemow/calsync/internal/events"
	"github.com/teemow/calsync/internal/logging"
	"github.com/teemow/calsync/internal/store"
)

// fakeSync links locations directly in the store and records pushes.
type fakeSync struct {
	st       store.Store
	pushed   []string
	pushErr  error
	attached []string
}

func (f *fakeSync) AttachLocation(ctx context.Context, eventID, locationID string) (*events.Details, error) {
	e, err := f.st.Events().Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	e.LocationID = locationID
	if err := f.st.Events().Update(ctx, e); err != nil {
		return nil, err
	}
	f.attached = append(f.attached, eventID)
	return &events.Details{Event: *e}, f.pushErr
}

func (f *fakeSync) PushLocation(_ context.Context, eventID string) error {
	f.pushed = append(f.pushed, eventID)
	return f.pushErr
}

func newService(t *testing.T) (*Service, *fakeSync, store.Store) {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemory()
	sync := &fakeSync{st: st}
	s := NewService(st, sync, cache.New(cache.NewMemoryBackend(), cache.WithLogger(logging.Discard())), logging.Discard().Logger())
	seq := 0
	s.newID = func() string {
		seq++
		return fmt.Sprintf("loc-%d", seq)
	}

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, st.Calendars().Insert(ctx, &domain.Calendar{ID: "cal-1", UserID: "u1", Title: "Work", CreatedAt: now, UpdatedAt: now}))
	for _, id := range []string{"ev-1", "ev-2"} {
		require.NoError(t, st.Events().Insert(ctx, &domain.Event{
			ID: id, CalendarID: "cal-1", Title: id,
			StartTime: now, EndTime: now.Add(time.Hour),
			CreatedAt: now, UpdatedAt: now,
		}))
	}
	return s, sync, st
}

func float(v float64) *float64 { return &v }

func TestAddLocation(t *testing.T) {
	s, sync, _ := newService(t)
	ctx := context.Background()

	loc, err := s.AddLocation(ctx, "ev-1", events.LocationInput{PlaceName: "HQ", City: "Berlin"})
	require.NoError(t, err)
	assert.Equal(t, "loc-1", loc.ID)
	assert.Equal(t, []string{"ev-1"}, sync.attached)

	byEvent, err := s.ByEvent(ctx, "ev-1")
	require.NoError(t, err)
	assert.Equal(t, "HQ", byEvent.PlaceName)

	_, err = s.ByEvent(ctx, "ev-2")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestAddLocation_Validation(t *testing.T) {
	tests := []struct {
		name    string
		eventID string
		in      events.LocationInput
		kind    domain.Kind
	}{
		{"blank event", "", events.LocationInput{PlaceName: "HQ"}, domain.KindValidation},
		{"missing event", "ev-404", events.LocationInput{PlaceName: "HQ"}, domain.KindNotFound},
		{"missing place name", "ev-1", events.LocationInput{City: "Berlin"}, domain.KindValidation},
		{"bad latitude", "ev-1", events.LocationInput{PlaceName: "HQ", Latitude: float(91)}, domain.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, sync, _ := newService(t)
			_, err := s.AddLocation(context.Background(), tt.eventID, tt.in)
			assert.Equal(t, tt.kind, domain.KindOf(err))
			assert.Empty(t, sync.attached)
		})
	}
}

func TestAddLocation_SyncFailureReturnsLocation(t *testing.T) {
	s, sync, _ := newService(t)
	sync.pushErr = domain.ExternalSyncFailure("events.attach_location", "push failed", errors.New("503"))

	loc, err := s.AddLocation(context.Background(), "ev-1", events.LocationInput{PlaceName: "HQ"})
	assert.Equal(t, domain.KindExternalSyncFailure, domain.KindOf(err))
	require.NotNil(t, loc)
}

func TestUpdate_PushesToReferencingEvents(t *testing.T) {
	s, sync, st := newService(t)
	ctx := context.Background()
	loc, err := s.AddLocation(ctx, "ev-1", events.LocationInput{PlaceName: "HQ"})
	require.NoError(t, err)
	e2, err := st.Events().Get(ctx, "ev-2")
	require.NoError(t, err)
	e2.LocationID = loc.ID
	require.NoError(t, st.Events().Update(ctx, e2))

	cached, err := s.Get(ctx, loc.ID)
	require.NoError(t, err)
	assert.Equal(t, "HQ", cached.PlaceName)

	updated, err := s.Update(ctx, loc.ID, events.LocationInput{Room: "3.01"})
	require.NoError(t, err)
	assert.Equal(t, "HQ", updated.PlaceName)
	assert.Equal(t, "3.01", updated.Room)
	assert.ElementsMatch(t, []string{"ev-1", "ev-2"}, sync.pushed)

	got, err := s.Get(ctx, loc.ID)
	require.NoError(t, err)
	assert.Equal(t, "3.01", got.Room, "cache entry is invalidated")
}

func TestUpdate_JoinsPushFailures(t *testing.T) {
	s, sync, _ := newService(t)
	ctx := context.Background()
	loc, err := s.AddLocation(ctx, "ev-1", events.LocationInput{PlaceName: "HQ"})
	require.NoError(t, err)
	sync.pushErr = domain.ExternalSyncFailure("events.push_location", "push failed", errors.New("timeout"))

	updated, err := s.Update(ctx, loc.ID, events.LocationInput{City: "Hamburg"})
	assert.Equal(t, domain.KindExternalSyncFailure, domain.KindOf(err))
	assert.Equal(t, "Hamburg", updated.City)
}

func TestDelete_DetachesEvents(t *testing.T) {
	s, sync, st := newService(t)
	ctx := context.Background()
	loc, err := s.AddLocation(ctx, "ev-1", events.LocationInput{PlaceName: "HQ"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, loc.ID))
	assert.Equal(t, []string{"ev-1"}, sync.pushed)

	e, err := st.Events().Get(ctx, "ev-1")
	require.NoError(t, err)
	assert.Empty(t, e.LocationID)

	_, err = s.Get(ctx, loc.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.True(t, errors.Is(s.Delete(ctx, loc.ID), domain.ErrNotFound))
}

func TestQueries(t *testing.T) {
	s, _, st := newService(t)
	ctx := context.Background()
	for _, l := range []domain.Location{
		{ID: "a", PlaceName: "Brandenburg Gate", City: "Berlin", Country: "Germany", Latitude: float(52.5163), Longitude: float(13.3777)},
		{ID: "b", PlaceName: "Reichstag", City: "Berlin", Country: "Germany", Latitude: float(52.5186), Longitude: float(13.3762)},
		{ID: "c", PlaceName: "Elbphilharmonie", City: "Hamburg", Country: "Germany", Latitude: float(53.5413), Longitude: float(9.9841)},
		{ID: "d", PlaceName: "Louvre", City: "Paris", Country: "France"},
	} {
		l := l
		require.NoError(t, st.Locations().Insert(ctx, &l))
	}

	all, err := s.List(ctx, domain.Page{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	berlin, err := s.ByCity(ctx, "berl", domain.Page{})
	require.NoError(t, err)
	assert.Len(t, berlin, 2)

	page, err := s.ByCountry(ctx, "germany", domain.Page{Number: 1, Size: 2})
	require.NoError(t, err)
	assert.Len(t, page, 1)

	found, err := s.Search(ctx, "louvre", domain.Page{})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "d", found[0].ID)

	near, err := s.Nearby(ctx, 52.5170, 13.3780, 1, domain.Page{})
	require.NoError(t, err)
	require.Len(t, near, 2)
	assert.Equal(t, "a", near[0].ID, "closest first")

	_, err = s.Nearby(ctx, 100, 0, 1, domain.Page{})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	_, err = s.Nearby(ctx, 0, 0, MaxRadiusKm+1, domain.Page{})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	_, err = s.Search(ctx, "  ", domain.Page{})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestOpenInMaps(t *testing.T) {
	s, _, st := newService(t)
	ctx := context.Background()
	require.NoError(t, st.Locations().Insert(ctx, &domain.Location{ID: "a", PlaceName: "Red Square", City: "Moscow"}))

	links, err := s.OpenInMaps(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "https://www.google.com/maps/search/?api=1&query=Red+Square%2C+Moscow", links.GoogleMapsURL)
	assert.Equal(t, "https://maps.yandex.ru/?text=Red+Square%2C+Moscow", links.YandexMapsWebURL)
	assert.Equal(t, "yandexmaps://maps.yandex.ru/?text=Red+Square%2C+Moscow", links.YandexMapsAppURL)
}
