package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teemow/calsync/internal/cache"
	"github.com/teemow/calsync/internal/calendars"
	"github.com/teemow/calsync/internal/events"
	"github.com/teemow/calsync/internal/instrumentation"
	"github.com/teemow/calsync/internal/locations"
	"github.com/teemow/calsync/internal/store"
)

// Services are the dependencies a ServerContext hands out.
type Services struct {
	Store     store.Store
	Cache     *cache.Cache
	Calendars *calendars.Manager
	Events    *events.Orchestrator
	Locations *locations.Service
}

// ServerContext holds the application services for the HTTP and MCP
// surfaces.
type ServerContext struct {
	ctx      context.Context
	cancel   context.CancelFunc
	services Services
	logger   *slog.Logger
	metrics  *instrumentation.Metrics
	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a server context. Store and the three services
// are required; a nil cache disables caching.
func NewServerContext(ctx context.Context, services Services, logger *slog.Logger) (*ServerContext, error) {
	switch {
	case services.Store == nil:
		return nil, fmt.Errorf("store is required")
	case services.Calendars == nil:
		return nil, fmt.Errorf("calendar manager is required")
	case services.Events == nil:
		return nil, fmt.Errorf("event orchestrator is required")
	case services.Locations == nil:
		return nil, fmt.Errorf("location service is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:      shutdownCtx,
		cancel:   cancel,
		services: services,
		logger:   logger,
	}, nil
}

// Context returns the server context, cancelled on Shutdown.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

func (sc *ServerContext) Store() store.Store            { return sc.services.Store }
func (sc *ServerContext) Cache() *cache.Cache           { return sc.services.Cache }
func (sc *ServerContext) Calendars() *calendars.Manager { return sc.services.Calendars }
func (sc *ServerContext) Events() *events.Orchestrator  { return sc.services.Events }
func (sc *ServerContext) Locations() *locations.Service { return sc.services.Locations }
func (sc *ServerContext) Logger() *slog.Logger          { return sc.logger }

// Metrics returns the metrics recorder, or nil if none was set.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetMetrics sets the recorder used for tool instrumentation.
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the context and closes the cache and the store.
// Calling it again is a no-op.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}
	sc.shutdown = true
	sc.cancel()

	var errs []error
	if err := sc.services.Cache.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close cache: %w", err))
	}
	if err := sc.services.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close store: %w", err))
	}
	return errors.Join(errs...)
}
