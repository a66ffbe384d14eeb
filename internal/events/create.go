package events

import (
	"context"

	"github.com/teemow/calsync/internal/calendar"
	"github.com/teemow/calsync/internal/conferencing"
	"github.com/teemow/calsync/internal/domain"
	"github.com/teemow/calsync/internal/logging"
	"github.com/teemow/calsync/internal/store"
)

// Create persists a new event and pushes it to the external calendar. The
// event is returned even when the push fails; it then stays PENDING.
func (o *Orchestrator) Create(ctx context.Context, req CreateRequest) (_ *Details, err error) {
	const op = "events.create"
	ctx, end := o.span(ctx, op)
	defer func() { end(err) }()

	e, err := o.newEvent(op, req)
	if err != nil {
		return nil, err
	}
	d, cal, err := o.persist(ctx, op, e, req, nil)
	if err != nil {
		return nil, err
	}
	return d, o.push(ctx, op, d, cal)
}

// CreateWithMeet creates an event with a native conference. All-day events
// are created without one.
func (o *Orchestrator) CreateWithMeet(ctx context.Context, req CreateRequest) (_ *Details, err error) {
	const op = "events.create_with_meet"
	ctx, end := o.span(ctx, op)
	defer func() { end(err) }()

	if !conferencing.IsEnabled(o.native) {
		return nil, domain.ProviderDisabled(op, "native conferencing")
	}
	e, err := o.newEvent(op, req)
	if err != nil {
		return nil, err
	}
	d, cal, err := o.persist(ctx, op, e, req, nil)
	if err != nil {
		return nil, err
	}
	if d.AllDay {
		return d, o.push(ctx, op, d, cal)
	}

	meeting, err := o.native.CreateMeeting(ctx, conferencing.MeetingRequest{
		Topic: d.Title,
		Start: d.StartTime,
		User:  cal.UserID,
	})
	if err != nil {
		return d, err
	}
	in := calendar.InputFromEvent(&d.Event, d.Location, cal.Timezone)
	res, err := o.calendar.CreateEventWithConference(ctx, cal.UserID, in, meeting)
	if err != nil {
		return d, o.syncFailed(ctx, op, &d.Event, err)
	}

	conf := conferencing.ParseNative(res.Conference, false, o.now())
	if conf != nil {
		conf.ID = o.newID()
		conf.EventID = d.ID
	}
	if err := o.recordSynced(ctx, op, d, cal, res.ExternalID, conf); err != nil {
		return d, err
	}
	return d, nil
}

// CreateWithMeeting creates a standalone meeting, then an event with the
// meeting embedded. Nothing is persisted when the meeting cannot be created.
func (o *Orchestrator) CreateWithMeeting(ctx context.Context, req CreateRequest) (_ *Details, err error) {
	const op = "events.create_with_meeting"
	ctx, end := o.span(ctx, op)
	defer func() { end(err) }()

	e, err := o.newEvent(op, req)
	if err != nil {
		return nil, err
	}
	cal, err := o.owner(ctx, o.store, e.CalendarID)
	if err != nil {
		return nil, err
	}
	meeting, err := o.standalone.CreateMeeting(ctx, conferencing.MeetingRequest{
		Topic:    e.Title,
		Start:    e.StartTime,
		Duration: conferencing.DefaultMeetingDuration,
		User:     cal.UserID,
	})
	if err != nil {
		return nil, err
	}

	d, cal, err := o.persist(ctx, op, e, req, func(e *domain.Event) *domain.Conference {
		return meeting.Conference(o.newID(), e.ID, domain.ConferencePendingUpload, o.now())
	})
	if err != nil {
		o.discardMeeting(ctx, op, meeting)
		return nil, err
	}

	in := calendar.InputFromEvent(&d.Event, d.Location, cal.Timezone)
	res, err := o.calendar.CreateEventWithConference(ctx, cal.UserID, in, meeting)
	if err != nil {
		return d, o.syncFailed(ctx, op, &d.Event, err)
	}

	conf := *d.Conference
	now := o.now()
	conf.SyncStatus = domain.ConferenceSynced
	conf.LastSyncedAt = now
	conf.UpdatedAt = now
	if err := o.recordSynced(ctx, op, d, cal, res.ExternalID, &conf); err != nil {
		return d, err
	}
	return d, nil
}

// persist stores e with its location, tasks, attachments and an optional
// conference in one transaction.
func (o *Orchestrator) persist(ctx context.Context, op string, e *domain.Event, req CreateRequest, conference func(*domain.Event) *domain.Conference) (*Details, *domain.Calendar, error) {
	d := &Details{Tasks: []domain.Task{}, Attachments: []domain.Attachment{}}
	var cal *domain.Calendar
	err := o.store.InTx(ctx, func(ctx context.Context, tx store.Store) error {
		var err error
		if cal, err = o.owner(ctx, tx, e.CalendarID); err != nil {
			return err
		}
		if cal.IsDeleted {
			return domain.Validationf(op, "calendar %q is deleted", cal.ID)
		}

		switch {
		case req.Location != nil:
			loc, err := req.Location.NewLocation(op, o.newID(), e.CreatedAt)
			if err != nil {
				return err
			}
			if err := tx.Locations().Insert(ctx, loc); err != nil {
				return err
			}
			e.LocationID = loc.ID
			d.Location = loc
		case e.LocationID != "":
			if d.Location, err = tx.Locations().Get(ctx, e.LocationID); err != nil {
				return err
			}
		}

		if err := tx.Events().Insert(ctx, e); err != nil {
			return err
		}
		for _, t := range req.Tasks {
			task := domain.Task{ID: o.newID(), EventID: e.ID, Title: t.Title, Done: t.Done}
			if err := tx.Tasks().Insert(ctx, &task); err != nil {
				return err
			}
			d.Tasks = append(d.Tasks, task)
		}
		for _, a := range req.Attachments {
			if a.FileURL == "" {
				return domain.Validationf(op, "attachment file url is required")
			}
			att := domain.Attachment{
				ID:       o.newID(),
				EventID:  e.ID,
				FileURL:  a.FileURL,
				Title:    a.Title,
				MimeType: a.MimeType,
				FileSize: a.FileSize,
			}
			if err := tx.Attachments().Insert(ctx, &att); err != nil {
				return err
			}
			d.Attachments = append(d.Attachments, att)
		}
		if conference != nil {
			d.Conference = conference(e)
			if err := tx.Conferences().Insert(ctx, d.Conference); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	d.Event = *e

	inv := eventInvalidation(cal.ID, cal.UserID, e.ID)
	if d.Location != nil && req.Location != nil {
		inv.Merge(locationInvalidation(d.Location.ID))
	}
	if d.Conference != nil {
		inv.Merge(conferenceInvalidation(d.Conference.ID))
	}
	o.cache.Invalidate(ctx, inv)

	o.logger.Info("event created",
		logging.Operation(op),
		logging.EventID(e.ID),
		logging.CalendarID(cal.ID))
	return d, cal, nil
}

// push creates the external copy of a persisted event without conferencing.
func (o *Orchestrator) push(ctx context.Context, op string, d *Details, cal *domain.Calendar) error {
	in := calendar.InputFromEvent(&d.Event, d.Location, cal.Timezone)
	var (
		res *calendar.Result
		err error
	)
	if d.AllDay {
		res, err = o.calendar.CreateAllDayEvent(ctx, cal.UserID, in)
	} else {
		res, err = o.calendar.CreateEvent(ctx, cal.UserID, in)
	}
	if err != nil {
		return o.syncFailed(ctx, op, &d.Event, err)
	}
	return o.recordSynced(ctx, op, d, cal, res.ExternalID, nil)
}

// recordSynced stores the external id and the SYNCED state, together with
// conf when given, in one save.
func (o *Orchestrator) recordSynced(ctx context.Context, op string, d *Details, cal *domain.Calendar, externalID string, conf *domain.Conference) error {
	e := d.Event
	e.ExternalID = externalID
	e.SyncStatus = domain.SyncStatusSynced
	e.UpdatedAt = o.now()

	err := o.store.InTx(ctx, func(ctx context.Context, tx store.Store) error {
		if err := tx.Events().Update(ctx, &e); err != nil {
			return err
		}
		if conf == nil {
			return nil
		}
		if d.Conference != nil && d.Conference.ID == conf.ID {
			return tx.Conferences().Update(ctx, conf)
		}
		return tx.Conferences().Insert(ctx, conf)
	})
	if err != nil {
		return domain.Internal(op, err)
	}

	d.Event = e
	inv := eventInvalidation(cal.ID, cal.UserID, e.ID)
	if conf != nil {
		d.Conference = conf
		inv.Merge(conferenceInvalidation(conf.ID))
	}
	o.cache.Invalidate(ctx, inv)
	o.metrics.RecordSync(ctx, op, syncOutcome(nil))
	return nil
}

// syncFailed records a failed external write. The event keeps its state
// and the error is returned with an external kind.
func (o *Orchestrator) syncFailed(ctx context.Context, op string, e *domain.Event, err error) error {
	o.metrics.RecordSync(ctx, op, syncOutcome(err))
	o.logSyncFailure(op, e, err)
	return syncFailure(op, "failed to sync event with external calendar", err)
}

// discardMeeting best-effort deletes a meeting that no event will reference.
func (o *Orchestrator) discardMeeting(ctx context.Context, op string, m *conferencing.Meeting) {
	if m == nil || m.ID == "" || m.Native() {
		return
	}
	if err := o.standalone.DeleteMeeting(ctx, m.ID); err != nil {
		o.logger.Warn("failed to delete orphaned meeting",
			logging.Operation(op),
			logging.Provider(string(m.Type)),
			logging.Err(err))
	}
}
