package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calsync/internal/logging"
)

type item struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func TestTTL(t *testing.T) {
	tests := map[string]time.Duration{
		Event:               2 * time.Hour,
		AllEvents:           15 * time.Minute,
		CalendarEvents:      30 * time.Minute,
		EventSearch:         10 * time.Minute,
		BulkEvents:          5 * time.Minute,
		Calendar:            2 * time.Hour,
		UserPrimaryCalendar: time.Hour,
		CalendarByTitle:     45 * time.Minute,
		Location:            time.Hour,
		Conference:          time.Hour,
		Conferences:         15 * time.Minute,
		"somethingElse":     DefaultTTL,
	}
	for name, want := range tests {
		assert.Equal(t, want, TTL(name), name)
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "event", Key(Event))
	assert.Equal(t, "event:e1", Key(Event, "e1"))
	assert.Equal(t, "calendarEvents:c1:0:20", Key(CalendarEvents, "c1", "0", "20"))
}

func TestFetchReadThrough(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryBackend(), WithPrefix("test:"), WithLogger(logging.Discard()))

	calls := 0
	load := func(context.Context) (item, error) {
		calls++
		return item{ID: "e1", Title: "standup"}, nil
	}

	first, err := Fetch(ctx, c, Event, Key(Event, "e1"), load)
	require.NoError(t, err)
	second, err := Fetch(ctx, c, Event, Key(Event, "e1"), load)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls, "second read is served from cache")
}

func TestFetchDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryBackend(), WithLogger(logging.Discard()))

	boom := errors.New("not found")
	calls := 0
	load := func(context.Context) (item, error) {
		calls++
		return item{}, boom
	}

	_, err := Fetch(ctx, c, Event, Key(Event, "missing"), load)
	assert.ErrorIs(t, err, boom)
	_, err = Fetch(ctx, c, Event, Key(Event, "missing"), load)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestNilCachePassesThrough(t *testing.T) {
	var c *Cache
	v, err := Fetch(context.Background(), c, Event, "event:e1", func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	c.Invalidate(context.Background(), Invalidation{Keys: []string{"x"}})
	assert.NoError(t, c.Ping(context.Background()))
	assert.NoError(t, c.Close())
}

type failingBackend struct{ MemoryBackend }

func (*failingBackend) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (*failingBackend) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

func (*failingBackend) Delete(context.Context, ...string) error { return errors.New("connection refused") }

func (*failingBackend) DeletePattern(context.Context, string) error {
	return errors.New("connection refused")
}

func TestBackendErrorsAreSwallowed(t *testing.T) {
	ctx := context.Background()
	c := New(&failingBackend{}, WithLogger(logging.Discard()))

	v, err := Fetch(ctx, c, Calendar, Key(Calendar, "c1"), func(context.Context) (string, error) { return "fresh", nil })
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)

	inv := Invalidation{}
	inv.Key(Calendar, "c1").All(AllCalendars)
	c.Invalidate(ctx, inv)
}

func TestInvalidate(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	c := New(backend, WithPrefix("p:"), WithLogger(logging.Discard()))

	seed := func(key string) {
		_, err := Fetch(ctx, c, "n", key, func(context.Context) (string, error) { return key, nil })
		require.NoError(t, err)
	}
	seed(Key(Event, "e1"))
	seed(Key(Event, "e2"))
	seed(Key(CalendarEvents, "c1", "0", "20"))
	seed(Key(CalendarEvents, "c1", "1", "20"))
	seed(Key(CalendarEvents, "c2", "0", "20"))
	seed(Key(AllEvents, "0", "20"))
	require.Equal(t, 6, backend.Len())

	inv := Invalidation{}
	inv.Key(Event, "e1").Scoped(CalendarEvents, "c1").All(AllEvents)
	c.Invalidate(ctx, inv)

	assert.Equal(t, 2, backend.Len())
	_, ok, _ := backend.Get(ctx, "p:"+Key(Event, "e2"))
	assert.True(t, ok)
	_, ok, _ = backend.Get(ctx, "p:"+Key(CalendarEvents, "c2", "0", "20"))
	assert.True(t, ok)
}

func TestInvalidate_GlobCharactersInIDs(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		other string
	}{
		{"open bracket", "team[eng", "team-eng"},
		{"bracket class", "team[ab]", "teama"},
		{"star", "ops*", "ops-east"},
		{"question mark", "u?", "u1"},
		{"backslash", `dom\user`, "dom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			backend := NewMemoryBackend()
			c := New(backend, WithPrefix("p[1]:"), WithLogger(logging.Discard()))
			for _, id := range []string{tt.id, tt.other} {
				_, err := Fetch(ctx, c, UserEvents, Key(UserEvents, id, "0", "20"), func(context.Context) (string, error) { return id, nil })
				require.NoError(t, err)
			}

			inv := Invalidation{}
			inv.Scoped(UserEvents, tt.id)
			c.Invalidate(ctx, inv)

			_, ok, _ := backend.Get(ctx, "p[1]:"+Key(UserEvents, tt.id, "0", "20"))
			assert.False(t, ok, "scoped entry is removed")
			_, ok, _ = backend.Get(ctx, "p[1]:"+Key(UserEvents, tt.other, "0", "20"))
			assert.True(t, ok, "only the literal scope is removed")
		})
	}
}

func TestEscapePattern(t *testing.T) {
	assert.Equal(t, `team\[eng\]`, EscapePattern("team[eng]"))
	assert.Equal(t, `a\*b\?c\\\\d`, EscapePattern(`a*b?c\\d`))
	assert.Equal(t, "plain:id", EscapePattern("plain:id"))
}

func TestInvalidationMerge(t *testing.T) {
	a := Invalidation{}
	a.Key(Event, "e1")
	b := Invalidation{}
	b.All(AllEvents)
	a.Merge(b)

	assert.Equal(t, []string{"event:e1"}, a.Keys)
	assert.Equal(t, []string{"allEvents:*"}, a.Patterns)
	assert.True(t, Invalidation{}.Empty())
	assert.False(t, a.Empty())
}

func TestMemoryBackendExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemoryBackend()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))
	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok, err = m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Error(t, m.DeletePattern(ctx, "[bad"))
}

func TestValkeyBackend(t *testing.T) {
	addr := os.Getenv("CALSYNC_TEST_VALKEY_URL")
	if addr == "" {
		t.Skip("CALSYNC_TEST_VALKEY_URL not set")
	}
	ctx := context.Background()
	v, err := NewValkeyBackend(ValkeyConfig{URL: addr})
	require.NoError(t, err)
	defer v.Close()

	require.NoError(t, v.Ping(ctx))
	require.NoError(t, v.Set(ctx, "calsync-test:event:e1", []byte(`{"id":"e1"}`), time.Minute))
	require.NoError(t, v.Set(ctx, "calsync-test:event:e2", []byte(`{"id":"e2"}`), time.Minute))

	got, ok, err := v.Get(ctx, "calsync-test:event:e1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"id":"e1"}`, string(got))

	require.NoError(t, v.DeletePattern(ctx, "calsync-test:event:*"))
	_, ok, err = v.Get(ctx, "calsync-test:event:e2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewValkeyBackendRequiresURL(t *testing.T) {
	_, err := NewValkeyBackend(ValkeyConfig{})
	assert.Error(t, err)
}
