package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/calsync/internal/cache"
	"github.com/teemow/calsync/internal/calendar"
	"github.com/teemow/calsync/internal/conferencing"
	"github.com/teemow/calsync/internal/domain"
	"github.com/teemow/calsync/internal/instrumentation"
	"github.com/teemow/calsync/internal/logging"
	"github.com/teemow/calsync/internal/store"
)

// Deps are the collaborators of an Orchestrator. Nil providers are
// replaced by their Disabled variants.
type Deps struct {
	Store      store.Store
	Calendar   calendar.Adapter
	Native     conferencing.Provider
	Standalone conferencing.Provider
	Cache      *cache.Cache
	Logger     *slog.Logger
	Metrics    *instrumentation.Metrics
}

// Orchestrator runs event operations.
type Orchestrator struct {
	store      store.Store
	calendar   calendar.Adapter
	native     conferencing.Provider
	standalone conferencing.Provider
	cache      *cache.Cache
	logger     *slog.Logger
	metrics    *instrumentation.Metrics

	now   func() time.Time
	newID func() string
}

// New creates an Orchestrator.
func New(d Deps) *Orchestrator {
	o := &Orchestrator{
		store:      d.Store,
		calendar:   d.Calendar,
		native:     d.Native,
		standalone: d.Standalone,
		cache:      d.Cache,
		logger:     d.Logger,
		metrics:    d.Metrics,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
	if o.calendar == nil {
		o.calendar = calendar.Disabled{}
	}
	if o.native == nil {
		o.native = conferencing.Disabled{Kind: domain.ConferenceTypeMeet}
	}
	if o.standalone == nil {
		o.standalone = conferencing.Disabled{Kind: domain.ConferenceTypeStandalone}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// owner returns the calendar an event belongs to.
func (o *Orchestrator) owner(ctx context.Context, tx store.Store, calendarID string) (*domain.Calendar, error) {
	cal, err := tx.Calendars().Get(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	return cal, nil
}

// loadEvent returns the event and its calendar.
func (o *Orchestrator) loadEvent(ctx context.Context, op, eventID string) (*domain.Event, *domain.Calendar, error) {
	if eventID == "" {
		return nil, nil, domain.Validationf(op, "event id is required")
	}
	e, err := o.store.Events().Get(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	cal, err := o.owner(ctx, o.store, e.CalendarID)
	if err != nil {
		return nil, nil, err
	}
	return e, cal, nil
}

// input builds the external write for e, resolving its location.
func (o *Orchestrator) input(ctx context.Context, tx store.Store, e *domain.Event, cal *domain.Calendar) (calendar.EventInput, error) {
	var loc *domain.Location
	if e.LocationID != "" {
		l, err := tx.Locations().Get(ctx, e.LocationID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return calendar.EventInput{}, err
		}
		loc = l
	}
	return calendar.InputFromEvent(e, loc, cal.Timezone), nil
}

// setSync persists the event's sync fields.
func (o *Orchestrator) setSync(ctx context.Context, e *domain.Event, externalID string, status domain.SyncStatus) error {
	if externalID != "" {
		e.ExternalID = externalID
	}
	e.SyncStatus = status
	e.UpdatedAt = o.now()
	if err := o.store.Events().Update(ctx, e); err != nil {
		return domain.Internal("events.sync", err)
	}
	return nil
}

// syncOutcome classifies the error of an external write for metrics.
func syncOutcome(err error) string {
	switch {
	case err == nil:
		return instrumentation.SyncSynced
	case errors.Is(err, domain.ErrProviderDisabled):
		return instrumentation.SyncSkipped
	default:
		return instrumentation.SyncPending
	}
}

// syncFailure makes sure an external error carries the ExternalSyncFailure
// kind. ProviderDisabled and ProviderMisconfigured pass through.
func syncFailure(op, msg string, err error) error {
	switch domain.KindOf(err) {
	case domain.KindExternalSyncFailure, domain.KindProviderDisabled, domain.KindProviderMisconfigured:
		return err
	}
	return domain.ExternalSyncFailure(op, msg, err)
}

func (o *Orchestrator) logSyncFailure(op string, e *domain.Event, err error) {
	if errors.Is(err, domain.ErrProviderDisabled) {
		o.logger.Debug("external calendar disabled, event kept local",
			logging.Operation(op), logging.EventID(e.ID))
		return
	}
	o.logger.Warn("external sync failed, event kept as pending",
		logging.Operation(op),
		logging.EventID(e.ID),
		logging.CalendarID(e.CalendarID),
		logging.Err(err))
}

func (o *Orchestrator) span(ctx context.Context, op string) (context.Context, func(error)) {
	ctx, span := instrumentation.StartSpan(ctx, op)
	return ctx, func(err error) { instrumentation.EndSpan(span, err) }
}
