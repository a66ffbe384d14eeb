package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calsync/internal/instrumentation"
	"github.com/teemow/calsync/internal/store"
)

func TestNewServerContext_RequiresServices(t *testing.T) {
	_, err := NewServerContext(context.Background(), Services{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store is required")

	_, err = NewServerContext(context.Background(), Services{Store: store.NewMemory()}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "calendar manager is required")
}

func TestServerContext_Shutdown(t *testing.T) {
	sc := newTestContext(t, store.NewMemory())
	assert.False(t, sc.IsShutdown())

	require.NoError(t, sc.Shutdown())
	assert.True(t, sc.IsShutdown())
	assert.Error(t, sc.Context().Err())

	// second call is a no-op
	assert.NoError(t, sc.Shutdown())
}

func TestServerContext_Metrics(t *testing.T) {
	sc := newTestContext(t, store.NewMemory())
	assert.Nil(t, sc.Metrics())

	m := &instrumentation.Metrics{}
	sc.SetMetrics(m)
	assert.Same(t, m, sc.Metrics())
	assert.NotNil(t, sc.Calendars())
	assert.NotNil(t, sc.Events())
	assert.NotNil(t, sc.Locations())
}
