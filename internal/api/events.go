package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/teemow/calsync/internal/domain"
	"github.com/teemow/calsync/internal/events"
	"github.com/teemow/calsync/internal/store"
)

// writeDetails answers a create or update. A disabled external calendar
// is a 400 that still carries the event kept locally.
func (h *handlers) writeDetails(w http.ResponseWriter, r *http.Request, status int, d *events.Details, err error) {
	if err != nil {
		if d != nil && errors.Is(err, domain.ErrProviderDisabled) {
			writeErrorSaved(w, r, h.logger, err, d)
			return
		}
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, status, d)
}

// create decodes a CreateRequest and answers 201 with the created event.
func (h *handlers) create(op string, fn func(context.Context, events.CreateRequest) (*events.Details, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req events.CreateRequest
		if err := decode(r, op, &req); err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		d, err := fn(r.Context(), req)
		h.writeDetails(w, r, http.StatusCreated, d, err)
	}
}

func (h *handlers) getEvent(w http.ResponseWriter, r *http.Request) {
	d, err := h.events.Get(r.Context(), pathVar(r, "eventId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *handlers) listEvents(w http.ResponseWriter, r *http.Request) {
	page, err := pageFrom(r, "events.list")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	list, err := h.events.List(r.Context(), page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handlers) listCalendarEvents(w http.ResponseWriter, r *http.Request) {
	page, err := pageFrom(r, "events.list_by_calendar")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	list, err := h.events.ListByCalendar(r.Context(), pathVar(r, "calendarId"), page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handlers) listUserEvents(w http.ResponseWriter, r *http.Request) {
	page, err := pageFrom(r, "events.list_by_user")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	list, err := h.events.ListByUser(r.Context(), pathVar(r, "userId"), page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// searchEvents filters by userId, an optional from/to window and keyword q.
func (h *handlers) searchEvents(w http.ResponseWriter, r *http.Request) {
	const op = "events.search"
	filter, page, err := searchParams(r, op)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	list, err := h.events.Search(r.Context(), filter, page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func searchParams(r *http.Request, op string) (store.EventFilter, domain.Page, error) {
	var f store.EventFilter
	page, err := pageFrom(r, op)
	if err != nil {
		return f, page, err
	}
	if f.UserID, err = requiredQuery(r, op, "userId"); err != nil {
		return f, page, err
	}
	if f.From, err = timeQuery(r, op, "from"); err != nil {
		return f, page, err
	}
	if f.To, err = timeQuery(r, op, "to"); err != nil {
		return f, page, err
	}
	f.Keyword = r.URL.Query().Get("q")
	return f, page, nil
}

type bulkRequest struct {
	IDs []string `json:"ids"`
}

func (h *handlers) bulkEvents(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := decode(r, "events.get_many", &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	list, err := h.events.GetMany(r.Context(), req.IDs)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handlers) updateEvent(w http.ResponseWriter, r *http.Request) {
	var req events.UpdateRequest
	if err := decode(r, "events.update", &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	d, err := h.events.Update(r.Context(), pathVar(r, "eventId"), req)
	h.writeDetails(w, r, http.StatusAccepted, d, err)
}

func (h *handlers) deleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.events.Delete(r.Context(), pathVar(r, "eventId")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// exportEvent serves the event as an iCalendar attachment.
func (h *handlers) exportEvent(w http.ResponseWriter, r *http.Request) {
	id := pathVar(r, "eventId")
	body, err := h.events.ExportICS(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(id+".ics"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *handlers) addMeet(w http.ResponseWriter, r *http.Request) {
	c, err := h.events.AddMeet(r.Context(), pathVar(r, "eventId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if c == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeJSON(w, http.StatusAccepted, c)
}

func (h *handlers) addMeeting(w http.ResponseWriter, r *http.Request) {
	c, err := h.events.AddMeeting(r.Context(), pathVar(r, "eventId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusAccepted, c)
}

func (h *handlers) removeMeet(w http.ResponseWriter, r *http.Request) {
	if err := h.events.RemoveMeet(r.Context(), pathVar(r, "eventId")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *handlers) removeMeeting(w http.ResponseWriter, r *http.Request) {
	if err := h.events.RemoveMeeting(r.Context(), pathVar(r, "eventId")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *handlers) joinInfo(w http.ResponseWriter, r *http.Request) {
	desc, err := h.events.JoinInfo(r.Context(), pathVar(r, "eventId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, desc)
}

func (h *handlers) attachConference(w http.ResponseWriter, r *http.Request) {
	c, err := h.events.AttachConference(r.Context(), pathVar(r, "eventId"), pathVar(r, "conferenceId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusAccepted, c)
}

func (h *handlers) attachLocation(w http.ResponseWriter, r *http.Request) {
	d, err := h.events.AttachLocation(r.Context(), pathVar(r, "eventId"), pathVar(r, "locationId"))
	h.writeDetails(w, r, http.StatusAccepted, d, err)
}
