package events

import (
	"context"
	"errors"

	"github.com/teemow/calsync/internal/calendar"
	"github.com/teemow/calsync/internal/conferencing"
	"github.com/teemow/calsync/internal/domain"
	"github.com/teemow/calsync/internal/instrumentation"
	"github.com/teemow/calsync/internal/logging"
	"github.com/teemow/calsync/internal/store"
)

// AddMeet adds a native conference to a synced, timed event. It returns a
// nil conference when the calendar answers without conference data.
func (o *Orchestrator) AddMeet(ctx context.Context, eventID string) (_ *domain.Conference, err error) {
	const op = "events.add_meet"
	ctx, end := o.span(ctx, op)
	defer func() { end(err) }()

	if !conferencing.IsEnabled(o.native) {
		return nil, domain.ProviderDisabled(op, "native conferencing")
	}
	if !calendar.IsEnabled(o.calendar) {
		return nil, domain.ProviderDisabled(op, "calendar")
	}
	e, cal, err := o.loadEvent(ctx, op, eventID)
	if err != nil {
		return nil, err
	}
	if !e.Synced() {
		return nil, domain.Validationf(op, "event %q is not synced with the external calendar", e.ID)
	}
	if e.AllDay {
		return nil, domain.Validationf(op, "all-day events cannot have native conferencing")
	}
	if err := o.requireNoConference(ctx, op, e.ID); err != nil {
		return nil, err
	}

	meeting, err := o.native.CreateMeeting(ctx, conferencing.MeetingRequest{Topic: e.Title, Start: e.StartTime, User: cal.UserID})
	if err != nil {
		return nil, err
	}
	res, err := o.calendar.SetConferenceData(ctx, cal.UserID, e.ExternalID, meeting)
	if err != nil {
		return nil, o.syncFailed(ctx, op, e, err)
	}
	conf := conferencing.ParseNative(res.Conference, false, o.now())
	if conf == nil {
		o.logger.Warn("external calendar returned no conference data",
			logging.Operation(op), logging.EventID(e.ID))
		o.metrics.RecordSync(ctx, op, syncOutcome(nil))
		return nil, nil
	}
	conf.ID = o.newID()
	conf.EventID = e.ID
	if err := o.store.Conferences().Insert(ctx, conf); err != nil {
		return nil, err
	}

	o.metrics.RecordSync(ctx, op, syncOutcome(nil))
	o.invalidateConference(ctx, e, cal, conf.ID)
	return conf, nil
}

// AddMeeting creates a standalone meeting for an event and embeds it into
// the external copy when there is one. Without an external copy, or with
// the calendar disabled, the conference stays PENDING_UPLOAD.
func (o *Orchestrator) AddMeeting(ctx context.Context, eventID string) (_ *domain.Conference, err error) {
	const op = "events.add_meeting"
	ctx, end := o.span(ctx, op)
	defer func() { end(err) }()

	e, cal, err := o.loadEvent(ctx, op, eventID)
	if err != nil {
		return nil, err
	}
	if err := o.requireNoConference(ctx, op, e.ID); err != nil {
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

	conf := meeting.Conference(o.newID(), e.ID, domain.ConferencePendingUpload, o.now())
	if err := o.store.Conferences().Insert(ctx, conf); err != nil {
		o.discardMeeting(ctx, op, meeting)
		return nil, err
	}
	defer o.invalidateConference(ctx, e, cal, conf.ID)

	if !e.Synced() {
		o.metrics.RecordSync(ctx, op, instrumentation.SyncSkipped)
		return conf, nil
	}
	_, err = o.calendar.SetConferenceData(ctx, cal.UserID, e.ExternalID, meeting)
	switch {
	case errors.Is(err, domain.ErrProviderDisabled):
		o.metrics.RecordSync(ctx, op, syncOutcome(err))
		return conf, nil
	case err != nil:
		if serr := o.setSync(ctx, e, "", domain.SyncStatusPending); serr != nil {
			return conf, serr
		}
		return conf, o.syncFailed(ctx, op, e, err)
	}

	now := o.now()
	conf.SyncStatus = domain.ConferenceSynced
	conf.LastSyncedAt = now
	conf.UpdatedAt = now
	if err := o.store.Conferences().Update(ctx, conf); err != nil {
		return conf, err
	}
	o.metrics.RecordSync(ctx, op, syncOutcome(nil))
	return conf, nil
}

// RemoveMeet detaches a native conference. It is a no-op when the event has
// none.
func (o *Orchestrator) RemoveMeet(ctx context.Context, eventID string) error {
	return o.removeConference(ctx, "events.remove_meet", eventID, domain.ConferenceTypeMeet)
}

// RemoveMeeting deletes the provider-side meeting and detaches it. It is a
// no-op when the event has no standalone meeting.
func (o *Orchestrator) RemoveMeeting(ctx context.Context, eventID string) error {
	return o.removeConference(ctx, "events.remove_meeting", eventID, domain.ConferenceTypeStandalone)
}

func (o *Orchestrator) removeConference(ctx context.Context, op, eventID string, kind domain.ConferenceType) (err error) {
	ctx, end := o.span(ctx, op)
	defer func() { end(err) }()

	e, cal, err := o.loadEvent(ctx, op, eventID)
	if err != nil {
		return err
	}
	conf, err := o.store.Conferences().GetByEvent(ctx, e.ID)
	if errors.Is(err, domain.ErrNotFound) {
		o.metrics.RecordSync(ctx, op, instrumentation.SyncNoChange)
		return nil
	}
	if err != nil {
		return err
	}
	if conf.Type != kind {
		o.metrics.RecordSync(ctx, op, instrumentation.SyncNoChange)
		return nil
	}

	if kind == domain.ConferenceTypeStandalone && conf.ExternalConferenceID != "" && conferencing.IsEnabled(o.standalone) {
		if err := o.standalone.DeleteMeeting(ctx, conf.ExternalConferenceID); err != nil {
			return err
		}
	}
	if e.Synced() {
		err := o.calendar.ClearConferenceData(ctx, cal.UserID, e.ExternalID)
		if err != nil && !errors.Is(err, domain.ErrProviderDisabled) {
			return o.syncFailed(ctx, op, e, err)
		}
		o.metrics.RecordSync(ctx, op, syncOutcome(err))
	}

	if err := o.store.Conferences().Delete(ctx, conf.ID); err != nil {
		return err
	}
	o.invalidateConference(ctx, e, cal, conf.ID)
	o.logger.Info("conference removed",
		logging.Operation(op),
		logging.EventID(e.ID),
		logging.Provider(kind.String()))
	return nil
}

// AttachConference links an existing conference to an event.
func (o *Orchestrator) AttachConference(ctx context.Context, eventID, conferenceID string) (*domain.Conference, error) {
	const op = "events.attach_conference"
	if conferenceID == "" {
		return nil, domain.Validationf(op, "conference id is required")
	}
	e, cal, err := o.loadEvent(ctx, op, eventID)
	if err != nil {
		return nil, err
	}

	var conf *domain.Conference
	err = o.store.InTx(ctx, func(ctx context.Context, tx store.Store) error {
		var err error
		if conf, err = tx.Conferences().Get(ctx, conferenceID); err != nil {
			return err
		}
		if conf.EventID != "" && conf.EventID != e.ID {
			return domain.Conflictf(op, "conference %q is linked to another event", conf.ID)
		}
		existing, err := tx.Conferences().GetByEvent(ctx, e.ID)
		switch {
		case err == nil && existing.ID != conf.ID:
			return domain.Conflictf(op, "event %q already has a conference", e.ID)
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return err
		}
		conf.EventID = e.ID
		conf.UpdatedAt = o.now()
		return tx.Conferences().Update(ctx, conf)
	})
	if err != nil {
		return nil, err
	}
	o.invalidateConference(ctx, e, cal, conf.ID)
	return conf, nil
}

// JoinInfo describes how to join the event's conference.
func (o *Orchestrator) JoinInfo(ctx context.Context, eventID string) (conferencing.Description, error) {
	const op = "events.join_info"
	e, cal, err := o.loadEvent(ctx, op, eventID)
	if err != nil {
		return conferencing.Description{}, err
	}
	conf, err := o.store.Conferences().GetByEvent(ctx, e.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return conferencing.Description{}, domain.NotFoundf(op, "event %q has no conference", e.ID)
	}
	if err != nil {
		return conferencing.Description{}, err
	}
	p := o.native
	if conf.Type == domain.ConferenceTypeStandalone {
		p = o.standalone
	}
	return p.Describe(ctx, cal.UserID, conf), nil
}

func (o *Orchestrator) requireNoConference(ctx context.Context, op, eventID string) error {
	_, err := o.store.Conferences().GetByEvent(ctx, eventID)
	switch {
	case err == nil:
		return domain.Conflictf(op, "event %q already has a conference", eventID)
	case errors.Is(err, domain.ErrNotFound):
		return nil
	default:
		return err
	}
}

func (o *Orchestrator) invalidateConference(ctx context.Context, e *domain.Event, cal *domain.Calendar, conferenceIDs ...string) {
	inv := eventInvalidation(cal.ID, cal.UserID, e.ID)
	inv.Merge(conferenceInvalidation(conferenceIDs...))
	o.cache.Invalidate(ctx, inv)
}
