package api

import (
	"net/http"

	"github.com/teemow/calsync/internal/calendars"
)

func (h *handlers) createCalendar(w http.ResponseWriter, r *http.Request) {
	var req calendars.CreateRequest
	if err := decode(r, "calendars.create", &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	cal, err := h.calendars.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, cal)
}

func (h *handlers) listCalendars(w http.ResponseWriter, r *http.Request) {
	page, err := pageFrom(r, "calendars.list")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	list, err := h.calendars.List(r.Context(), page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handlers) getCalendar(w http.ResponseWriter, r *http.Request) {
	cal, err := h.calendars.Get(r.Context(), pathVar(r, "calendarId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cal)
}

func (h *handlers) updateCalendar(w http.ResponseWriter, r *http.Request) {
	var req calendars.UpdateRequest
	if err := decode(r, "calendars.update", &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	cal, err := h.calendars.Update(r.Context(), pathVar(r, "calendarId"), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusAccepted, cal)
}

func (h *handlers) deleteCalendar(w http.ResponseWriter, r *http.Request) {
	cal, err := h.calendars.SoftDelete(r.Context(), pathVar(r, "calendarId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusAccepted, cal)
}

func (h *handlers) recoverCalendar(w http.ResponseWriter, r *http.Request) {
	cal, err := h.calendars.Recover(r.Context(), pathVar(r, "calendarId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusAccepted, cal)
}

// promoteCalendar makes the calendar primary for the userId query parameter.
func (h *handlers) promoteCalendar(w http.ResponseWriter, r *http.Request) {
	userID, err := requiredQuery(r, "calendars.promote", "userId")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	cal, err := h.calendars.Promote(r.Context(), pathVar(r, "calendarId"), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusAccepted, cal)
}

func (h *handlers) listUserCalendars(w http.ResponseWriter, r *http.Request) {
	list, err := h.calendars.ListByUser(r.Context(), pathVar(r, "userId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handlers) primaryCalendar(w http.ResponseWriter, r *http.Request) {
	cal, err := h.calendars.Primary(r.Context(), pathVar(r, "userId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cal)
}

func (h *handlers) calendarByTitle(w http.ResponseWriter, r *http.Request) {
	title, err := requiredQuery(r, "calendars.by_title", "title")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	cal, err := h.calendars.ByTitle(r.Context(), pathVar(r, "userId"), title)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cal)
}
