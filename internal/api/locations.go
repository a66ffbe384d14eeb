package api

import (
	"errors"
	"net/http"

	"github.com/teemow/calsync/internal/domain"
	"github.com/teemow/calsync/internal/events"
)

// addLocation creates a location and links it to the event.
func (h *handlers) addLocation(w http.ResponseWriter, r *http.Request) {
	var in events.LocationInput
	if err := decode(r, "locations.add", &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	loc, err := h.locations.AddLocation(r.Context(), pathVar(r, "eventId"), in)
	if err != nil {
		if loc != nil && errors.Is(err, domain.ErrProviderDisabled) {
			writeErrorSaved(w, r, h.logger, err, loc)
			return
		}
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, loc)
}

func (h *handlers) eventLocation(w http.ResponseWriter, r *http.Request) {
	loc, err := h.locations.ByEvent(r.Context(), pathVar(r, "eventId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (h *handlers) getLocation(w http.ResponseWriter, r *http.Request) {
	loc, err := h.locations.Get(r.Context(), pathVar(r, "locationId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (h *handlers) listLocations(w http.ResponseWriter, r *http.Request) {
	page, err := pageFrom(r, "locations.list")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	list, err := h.locations.List(r.Context(), page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handlers) searchLocations(w http.ResponseWriter, r *http.Request) {
	page, err := pageFrom(r, "locations.search")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	list, err := h.locations.Search(r.Context(), r.URL.Query().Get("q"), page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handlers) locationsByCity(w http.ResponseWriter, r *http.Request) {
	const op = "locations.by_city"
	page, err := pageFrom(r, op)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	city, err := requiredQuery(r, op, "city")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	list, err := h.locations.ByCity(r.Context(), city, page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handlers) locationsByCountry(w http.ResponseWriter, r *http.Request) {
	const op = "locations.by_country"
	page, err := pageFrom(r, op)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	country, err := requiredQuery(r, op, "country")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	list, err := h.locations.ByCountry(r.Context(), country, page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// nearbyLocations takes lat, lon and an optional radius in kilometres.
func (h *handlers) nearbyLocations(w http.ResponseWriter, r *http.Request) {
	const op = "locations.nearby"
	page, err := pageFrom(r, op)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	lat, err := floatQuery(r, op, "lat", true)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	lon, err := floatQuery(r, op, "lon", true)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	radius, err := floatQuery(r, op, "radius", false)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	list, err := h.locations.Nearby(r.Context(), lat, lon, radius, page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handlers) openInMaps(w http.ResponseWriter, r *http.Request) {
	links, err := h.locations.OpenInMaps(r.Context(), pathVar(r, "locationId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

func (h *handlers) updateLocation(w http.ResponseWriter, r *http.Request) {
	var in events.LocationInput
	if err := decode(r, "locations.update", &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	loc, err := h.locations.Update(r.Context(), pathVar(r, "locationId"), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusAccepted, loc)
}

func (h *handlers) deleteLocation(w http.ResponseWriter, r *http.Request) {
	if err := h.locations.Delete(r.Context(), pathVar(r, "locationId")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
