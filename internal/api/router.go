package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/teemow/calsync/internal/calendars"
	"github.com/teemow/calsync/internal/events"
	"github.com/teemow/calsync/internal/instrumentation"
	"github.com/teemow/calsync/internal/locations"
)

// Deps are the services behind the REST surface.
type Deps struct {
	Calendars *calendars.Manager
	Events    *events.Orchestrator
	Locations *locations.Service

	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
	// Limiter is optional; nil disables rate limiting.
	Limiter *RateLimiter
}

type handlers struct {
	calendars *calendars.Manager
	events    *events.Orchestrator
	locations *locations.Service
	logger    *slog.Logger
}

// NewRouter builds the router with every REST route mounted under /api.
// Callers may register further routes (health, MCP) on the result.
func NewRouter(d Deps) *mux.Router {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &handlers{
		calendars: d.Calendars,
		events:    d.Events,
		locations: d.Locations,
		logger:    logger,
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.Use(Observe(logger, d.Metrics))
	api.Use(Recover(logger))
	if d.Limiter != nil {
		api.Use(d.Limiter.Middleware(logger))
	}
	api.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "route not found"})
	})

	// Calendars
	api.HandleFunc("/calendars", h.createCalendar).Methods(http.MethodPost)
	api.HandleFunc("/calendars", h.listCalendars).Methods(http.MethodGet)
	api.HandleFunc("/calendars/{calendarId}", h.getCalendar).Methods(http.MethodGet)
	api.HandleFunc("/calendars/{calendarId}", h.updateCalendar).Methods(http.MethodPut)
	api.HandleFunc("/calendars/{calendarId}", h.deleteCalendar).Methods(http.MethodDelete)
	api.HandleFunc("/calendars/{calendarId}/recover", h.recoverCalendar).Methods(http.MethodPost)
	api.HandleFunc("/calendars/{calendarId}/primary", h.promoteCalendar).Methods(http.MethodPost)
	api.HandleFunc("/calendars/{calendarId}/events", h.listCalendarEvents).Methods(http.MethodGet)

	// Per-user views
	api.HandleFunc("/users/{userId}/calendars", h.listUserCalendars).Methods(http.MethodGet)
	api.HandleFunc("/users/{userId}/calendars/primary", h.primaryCalendar).Methods(http.MethodGet)
	api.HandleFunc("/users/{userId}/calendars/by-title", h.calendarByTitle).Methods(http.MethodGet)
	api.HandleFunc("/users/{userId}/events", h.listUserEvents).Methods(http.MethodGet)

	// Events. Fixed paths come before /events/{eventId}.
	api.HandleFunc("/events", h.create("events.create", h.events.Create)).Methods(http.MethodPost)
	api.HandleFunc("/events", h.listEvents).Methods(http.MethodGet)
	api.HandleFunc("/events/with-meet", h.create("events.create_with_meet", h.events.CreateWithMeet)).Methods(http.MethodPost)
	api.HandleFunc("/events/with-meeting", h.create("events.create_with_meeting", h.events.CreateWithMeeting)).Methods(http.MethodPost)
	api.HandleFunc("/events/search", h.searchEvents).Methods(http.MethodGet)
	api.HandleFunc("/events/bulk", h.bulkEvents).Methods(http.MethodPost)
	api.HandleFunc("/events/{eventId}", h.getEvent).Methods(http.MethodGet)
	api.HandleFunc("/events/{eventId}", h.updateEvent).Methods(http.MethodPut)
	api.HandleFunc("/events/{eventId}", h.deleteEvent).Methods(http.MethodDelete)
	api.HandleFunc("/events/{eventId}/ics", h.exportEvent).Methods(http.MethodGet)
	api.HandleFunc("/events/{eventId}/meet", h.addMeet).Methods(http.MethodPost)
	api.HandleFunc("/events/{eventId}/meet", h.removeMeet).Methods(http.MethodDelete)
	api.HandleFunc("/events/{eventId}/meeting", h.addMeeting).Methods(http.MethodPost)
	api.HandleFunc("/events/{eventId}/meeting", h.removeMeeting).Methods(http.MethodDelete)
	api.HandleFunc("/events/{eventId}/conference", h.joinInfo).Methods(http.MethodGet)
	api.HandleFunc("/events/{eventId}/conference/{conferenceId}", h.attachConference).Methods(http.MethodPut)
	api.HandleFunc("/events/{eventId}/location", h.eventLocation).Methods(http.MethodGet)
	api.HandleFunc("/events/{eventId}/location", h.addLocation).Methods(http.MethodPost)
	api.HandleFunc("/events/{eventId}/location/{locationId}", h.attachLocation).Methods(http.MethodPut)

	// Locations
	api.HandleFunc("/locations", h.listLocations).Methods(http.MethodGet)
	api.HandleFunc("/locations/search", h.searchLocations).Methods(http.MethodGet)
	api.HandleFunc("/locations/by-city", h.locationsByCity).Methods(http.MethodGet)
	api.HandleFunc("/locations/by-country", h.locationsByCountry).Methods(http.MethodGet)
	api.HandleFunc("/locations/nearby", h.nearbyLocations).Methods(http.MethodGet)
	api.HandleFunc("/locations/{locationId}", h.getLocation).Methods(http.MethodGet)
	api.HandleFunc("/locations/{locationId}", h.updateLocation).Methods(http.MethodPut)
	api.HandleFunc("/locations/{locationId}", h.deleteLocation).Methods(http.MethodDelete)
	api.HandleFunc("/locations/{locationId}/maps", h.openInMaps).Methods(http.MethodGet)

	return r
}
