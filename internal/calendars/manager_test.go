package calendars

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calsync/internal/cache"
	"github.com/teemow/calsync/internal/domain"
	"github.com/teemow/calsync/internal/logging"
	"github.com/teemow/calsync/internal/store"
)

// countingStore counts calendar updates, including those inside transactions.
type countingStore struct {
	store.Store
	updates *int
}

type countingCalendars struct {
	store.CalendarRepository
	updates *int
}

func (c countingCalendars) Update(ctx context.Context, cal *domain.Calendar) error {
	*c.updates++
	return c.CalendarRepository.Update(ctx, cal)
}

func (s countingStore) Calendars() store.CalendarRepository {
	return countingCalendars{s.Store.Calendars(), s.updates}
}

func (s countingStore) InTx(ctx context.Context, fn func(context.Context, store.Store) error) error {
	return s.Store.InTx(ctx, func(ctx context.Context, tx store.Store) error {
		return fn(ctx, countingStore{tx, s.updates})
	})
}

func newManager(t *testing.T) (*Manager, *cache.MemoryBackend, *int) {
	t.Helper()
	updates := 0
	backend := cache.NewMemoryBackend()
	c := cache.New(backend, cache.WithLogger(logging.Discard()))
	m := NewManager(countingStore{store.NewMemory(), &updates}, c, nil)
	seq := 0
	m.newID = func() string {
		seq++
		return fmt.Sprintf("cal-%d", seq)
	}
	return m, backend, &updates
}

func primaries(t *testing.T, m *Manager, userID string) int {
	t.Helper()
	cals, err := m.store.Calendars().ListByUser(context.Background(), userID, false)
	require.NoError(t, err)
	n := 0
	for _, c := range cals {
		if c.IsPrimary {
			n++
		}
	}
	return n
}

func TestCreate_FirstCalendarIsPrimary(t *testing.T) {
	m, _, _ := newManager(t)
	ctx := context.Background()

	first, err := m.Create(ctx, CreateRequest{UserID: "u1", Title: "Personal"})
	require.NoError(t, err)
	assert.True(t, first.IsPrimary)
	assert.Equal(t, domain.DefaultCalendarColor, first.ColorHex)
	assert.Equal(t, domain.DefaultTimezone, first.Timezone)

	second, err := m.Create(ctx, CreateRequest{UserID: "u1", Title: "Work", ColorHex: "#000000"})
	require.NoError(t, err)
	assert.False(t, second.IsPrimary)
	assert.Equal(t, "#000000", second.ColorHex)
}

func TestCreate_RequestedPrimaryDemotesWithOneSave(t *testing.T) {
	m, _, updates := newManager(t)
	ctx := context.Background()

	first, err := m.Create(ctx, CreateRequest{UserID: "u1", Title: "A"})
	require.NoError(t, err)
	require.Equal(t, 0, *updates)

	second, err := m.Create(ctx, CreateRequest{UserID: "u1", Title: "B", Primary: true})
	require.NoError(t, err)
	assert.True(t, second.IsPrimary)
	assert.Equal(t, 1, *updates, "the previous primary is saved exactly once")

	got, err := m.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPrimary)
	assert.Equal(t, 1, primaries(t, m, "u1"))
}

func TestCreate_Validation(t *testing.T) {
	m, _, _ := newManager(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  CreateRequest
		want error
	}{
		{"blank user", CreateRequest{Title: "A"}, domain.ErrValidation},
		{"blank title", CreateRequest{UserID: "u1", Title: "  "}, domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Create(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreate_DuplicateTitle(t *testing.T) {
	m, _, _ := newManager(t)
	ctx := context.Background()

	_, err := m.Create(ctx, CreateRequest{UserID: "u1", Title: "Work"})
	require.NoError(t, err)

	_, err = m.Create(ctx, CreateRequest{UserID: "u1", Title: "Work"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = m.Create(ctx, CreateRequest{UserID: "u1", Title: "work"})
	assert.NoError(t, err, "titles are case-sensitive")

	_, err = m.Create(ctx, CreateRequest{UserID: "u2", Title: "Work"})
	assert.NoError(t, err, "titles are unique per user")
}

func TestPromote(t *testing.T) {
	m, _, _ := newManager(t)
	ctx := context.Background()

	a, _ := m.Create(ctx, CreateRequest{UserID: "u1", Title: "A"})
	b, _ := m.Create(ctx, CreateRequest{UserID: "u1", Title: "B"})
	other, _ := m.Create(ctx, CreateRequest{UserID: "u2", Title: "C"})

	promoted, err := m.Promote(ctx, b.ID, "u1")
	require.NoError(t, err)
	assert.True(t, promoted.IsPrimary)

	primary, err := m.Primary(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, b.ID, primary.ID)

	got, err := m.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPrimary)

	_, err = m.Promote(ctx, other.ID, "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound, "a calendar of another user")

	_, err = m.SoftDelete(ctx, a.ID)
	require.NoError(t, err)
	_, err = m.Promote(ctx, a.ID, "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound, "a deleted calendar")
}

func TestSoftDeleteAndRecover(t *testing.T) {
	m, _, _ := newManager(t)
	ctx := context.Background()

	cal, err := m.Create(ctx, CreateRequest{UserID: "u1", Title: "A"})
	require.NoError(t, err)
	require.True(t, cal.IsPrimary)

	deleted, err := m.SoftDelete(ctx, cal.ID)
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted)
	assert.True(t, deleted.IsPrimary, "soft delete keeps the primary flag")

	_, err = m.Primary(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	recovered, err := m.Recover(ctx, cal.ID)
	require.NoError(t, err)
	assert.False(t, recovered.IsDeleted)
	assert.False(t, recovered.IsPrimary)

	_, err = m.Recover(ctx, cal.ID)
	assert.ErrorIs(t, err, domain.ErrValidation, "recovering a live calendar")

	_, err = m.SoftDelete(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecover_TitleTaken(t *testing.T) {
	m, _, _ := newManager(t)
	ctx := context.Background()

	old, _ := m.Create(ctx, CreateRequest{UserID: "u1", Title: "A"})
	_, err := m.SoftDelete(ctx, old.ID)
	require.NoError(t, err)
	_, err = m.Create(ctx, CreateRequest{UserID: "u1", Title: "A"})
	require.NoError(t, err)

	_, err = m.Recover(ctx, old.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUpdate(t *testing.T) {
	m, _, _ := newManager(t)
	ctx := context.Background()

	a, _ := m.Create(ctx, CreateRequest{UserID: "u1", Title: "A", Description: "keep"})
	_, _ = m.Create(ctx, CreateRequest{UserID: "u1", Title: "B"})

	// Warm the title cache so the rename must invalidate it.
	_, err := m.ByTitle(ctx, "u1", "A")
	require.NoError(t, err)

	updated, err := m.Update(ctx, a.ID, UpdateRequest{Title: "A2", Timezone: "Europe/Berlin"})
	require.NoError(t, err)
	assert.Equal(t, "A2", updated.Title)
	assert.Equal(t, "keep", updated.Description)
	assert.Equal(t, "Europe/Berlin", updated.Timezone)

	_, err = m.ByTitle(ctx, "u1", "A")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = m.Update(ctx, a.ID, UpdateRequest{Title: "B"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = m.Update(ctx, a.ID, UpdateRequest{Title: "A2"})
	assert.NoError(t, err, "renaming to the current title is a no-op")
}

func TestReads(t *testing.T) {
	m, backend, _ := newManager(t)
	ctx := context.Background()

	_, err := m.ListByUser(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = m.Get(ctx, "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	a, _ := m.Create(ctx, CreateRequest{UserID: "u1", Title: "A"})
	list, err := m.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Positive(t, backend.Len(), "reads populate the cache")

	_, err = m.Create(ctx, CreateRequest{UserID: "u1", Title: "B"})
	require.NoError(t, err)
	list, err = m.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 2, "create invalidates the user list")

	all, err := m.List(ctx, domain.Page{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = m.SoftDelete(ctx, a.ID)
	require.NoError(t, err)
	all, err = m.List(ctx, domain.Page{})
	require.NoError(t, err)
	assert.Len(t, all, 1, "soft delete invalidates the global list")

	got, err := m.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)
}

func TestPrimaryInvariant_RandomSequences(t *testing.T) {
	m, _, _ := newManager(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	var ids []string
	for i := 0; i < 300; i++ {
		switch op := rng.Intn(4); {
		case op == 0 || len(ids) == 0:
			c, err := m.Create(ctx, CreateRequest{UserID: "u1", Title: fmt.Sprintf("t%d", i), Primary: rng.Intn(2) == 0})
			require.NoError(t, err)
			ids = append(ids, c.ID)
		case op == 1:
			_, _ = m.Promote(ctx, ids[rng.Intn(len(ids))], "u1")
		case op == 2:
			_, _ = m.SoftDelete(ctx, ids[rng.Intn(len(ids))])
		default:
			_, _ = m.Recover(ctx, ids[rng.Intn(len(ids))])
		}
		n := primaries(t, m, "u1")
		require.True(t, n == 0 || n == 1, "step %d: %d primaries", i, n)
	}
}
