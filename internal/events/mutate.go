package events

import (
	"context"
	"errors"

	"github.com/teemow/calsync/internal/conferencing"
	"github.com/teemow/calsync/internal/domain"
	"github.com/teemow/calsync/internal/instrumentation"
	"github.com/teemow/calsync/internal/logging"
	"github.com/teemow/calsync/internal/store"
)

// Update merges req into the event and re-pushes a synced event. The local
// update is kept when the push fails.
func (o *Orchestrator) Update(ctx context.Context, eventID string, req UpdateRequest) (_ *Details, err error) {
	const op = "events.update"
	ctx, end := o.span(ctx, op)
	defer func() { end(err) }()

	current, cal, err := o.loadEvent(ctx, op, eventID)
	if err != nil {
		return nil, err
	}
	e, err := merge(op, *current, req)
	if err != nil {
		return nil, err
	}
	now := o.now()
	e.UpdatedAt = now

	inv := eventInvalidation(cal.ID, cal.UserID, e.ID)
	err = o.store.InTx(ctx, func(ctx context.Context, tx store.Store) error {
		if req.Location != nil {
			id, err := o.upsertLocation(ctx, op, tx, e.LocationID, req.Location)
			if err != nil {
				return err
			}
			e.LocationID = id
			inv.Merge(locationInvalidation(id))
		}
		if req.Conference != nil {
			id, err := o.upsertConference(ctx, op, tx, e.ID, req.Conference)
			if err != nil {
				return err
			}
			inv.Merge(conferenceInvalidation(id))
		}
		return tx.Events().Update(ctx, e)
	})
	if err != nil {
		return nil, err
	}
	o.cache.Invalidate(ctx, inv)

	if e.Synced() {
		if err := o.repush(ctx, op, e, cal); err != nil {
			d, derr := o.details(ctx, e.ID)
			if derr != nil {
				return nil, err
			}
			return d, err
		}
	} else {
		o.metrics.RecordSync(ctx, op, instrumentation.SyncNoChange)
	}
	return o.details(ctx, e.ID)
}

// repush sends the full event to the external calendar and records the
// resulting sync state.
func (o *Orchestrator) repush(ctx context.Context, op string, e *domain.Event, cal *domain.Calendar) error {
	in, err := o.input(ctx, o.store, e, cal)
	if err != nil {
		return err
	}
	err = o.calendar.UpdateEvent(ctx, cal.UserID, e.ExternalID, in)
	return o.settle(ctx, op, e, cal, err)
}

// settle records the sync state after an external write on a synced event.
// ProviderDisabled leaves the state unchanged.
func (o *Orchestrator) settle(ctx context.Context, op string, e *domain.Event, cal *domain.Calendar, err error) error {
	if errors.Is(err, domain.ErrProviderDisabled) {
		o.metrics.RecordSync(ctx, op, instrumentation.SyncSkipped)
		return nil
	}
	status := domain.SyncStatusSynced
	if err != nil {
		status = domain.SyncStatusPending
	}
	if serr := o.setSync(ctx, e, "", status); serr != nil {
		return serr
	}
	o.cache.Invalidate(ctx, eventInvalidation(cal.ID, cal.UserID, e.ID))
	if err != nil {
		return o.syncFailed(ctx, op, e, err)
	}
	o.metrics.RecordSync(ctx, op, instrumentation.SyncSynced)
	return nil
}

func (o *Orchestrator) upsertLocation(ctx context.Context, op string, tx store.Store, locationID string, in *LocationInput) (string, error) {
	now := o.now()
	if locationID != "" {
		loc, err := tx.Locations().Get(ctx, locationID)
		if err != nil {
			return "", err
		}
		in.Apply(loc, now)
		if err := ValidateCoordinates(op, loc.Latitude, loc.Longitude); err != nil {
			return "", err
		}
		return loc.ID, tx.Locations().Update(ctx, loc)
	}
	loc, err := in.NewLocation(op, o.newID(), now)
	if err != nil {
		return "", err
	}
	return loc.ID, tx.Locations().Insert(ctx, loc)
}

func (o *Orchestrator) upsertConference(ctx context.Context, op string, tx store.Store, eventID string, in *ConferenceInput) (string, error) {
	now := o.now()
	conf, err := tx.Conferences().GetByEvent(ctx, eventID)
	switch {
	case err == nil:
		if err := in.Apply(conf, now); err != nil {
			return "", err
		}
		return conf.ID, tx.Conferences().Update(ctx, conf)
	case errors.Is(err, domain.ErrNotFound):
		conf, err := in.NewConference(op, o.newID(), eventID, now)
		if err != nil {
			return "", err
		}
		return conf.ID, tx.Conferences().Insert(ctx, conf)
	default:
		return "", err
	}
}

// Delete removes the external copy, then the event with its conference,
// tasks and attachments. An external copy that is already gone counts as
// removed.
func (o *Orchestrator) Delete(ctx context.Context, eventID string) (err error) {
	const op = "events.delete"
	ctx, end := o.span(ctx, op)
	defer func() { end(err) }()

	e, cal, err := o.loadEvent(ctx, op, eventID)
	if err != nil {
		return err
	}
	if e.Synced() {
		err := o.calendar.DeleteEvent(ctx, cal.UserID, e.ExternalID)
		switch {
		case err == nil:
			o.metrics.RecordSync(ctx, op, instrumentation.SyncSynced)
		case errors.Is(err, domain.ErrProviderDisabled):
			o.metrics.RecordSync(ctx, op, instrumentation.SyncSkipped)
		case errors.Is(err, domain.ErrNotFound):
			o.logger.Info("external event already removed",
				logging.Operation(op), logging.EventID(e.ID))
			o.metrics.RecordSync(ctx, op, instrumentation.SyncSynced)
		default:
			return o.syncFailed(ctx, op, e, err)
		}
	}

	inv := eventInvalidation(cal.ID, cal.UserID, e.ID)
	if conf, err := o.store.Conferences().GetByEvent(ctx, e.ID); err == nil {
		inv.Merge(conferenceInvalidation(conf.ID))
		if conf.Type == domain.ConferenceTypeStandalone && conf.ExternalConferenceID != "" && conferencing.IsEnabled(o.standalone) {
			if err := o.standalone.DeleteMeeting(ctx, conf.ExternalConferenceID); err != nil {
				o.logger.Warn("failed to delete meeting of removed event",
					logging.Operation(op), logging.EventID(e.ID), logging.Err(err))
			}
		}
	}

	if err := o.store.InTx(ctx, func(ctx context.Context, tx store.Store) error {
		return tx.Events().Delete(ctx, e.ID)
	}); err != nil {
		return err
	}
	o.cache.Invalidate(ctx, inv)
	o.logger.Info("event deleted", logging.Operation(op), logging.EventID(e.ID))
	return nil
}

// AttachLocation links an existing location to an event and pushes the new
// location text when the event is synced.
func (o *Orchestrator) AttachLocation(ctx context.Context, eventID, locationID string) (*Details, error) {
	const op = "events.attach_location"
	if locationID == "" {
		return nil, domain.Validationf(op, "location id is required")
	}
	e, cal, err := o.loadEvent(ctx, op, eventID)
	if err != nil {
		return nil, err
	}
	loc, err := o.store.Locations().Get(ctx, locationID)
	if err != nil {
		return nil, err
	}
	e.LocationID = loc.ID
	e.UpdatedAt = o.now()
	if err := o.store.Events().Update(ctx, e); err != nil {
		return nil, err
	}
	o.cache.Invalidate(ctx, eventInvalidation(cal.ID, cal.UserID, e.ID))

	if err := o.pushLocation(ctx, op, e, cal, loc.Address()); err != nil {
		d, derr := o.details(ctx, e.ID)
		if derr != nil {
			return nil, err
		}
		return d, err
	}
	return o.details(ctx, e.ID)
}

// PushLocation re-sends the event's current location text to the external
// calendar. Unsynced events are left alone.
func (o *Orchestrator) PushLocation(ctx context.Context, eventID string) error {
	const op = "events.push_location"
	e, cal, err := o.loadEvent(ctx, op, eventID)
	if err != nil {
		return err
	}
	var address string
	if e.LocationID != "" {
		loc, err := o.store.Locations().Get(ctx, e.LocationID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if loc != nil {
			address = loc.Address()
		}
	}
	o.cache.Invalidate(ctx, eventInvalidation(cal.ID, cal.UserID, e.ID))
	return o.pushLocation(ctx, op, e, cal, address)
}

func (o *Orchestrator) pushLocation(ctx context.Context, op string, e *domain.Event, cal *domain.Calendar, address string) error {
	if !e.Synced() {
		o.metrics.RecordSync(ctx, op, instrumentation.SyncNoChange)
		return nil
	}
	err := o.calendar.UpdateEventLocation(ctx, cal.UserID, e.ExternalID, address)
	return o.settle(ctx, op, e, cal, err)
}
