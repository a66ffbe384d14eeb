package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/teemow/calsync/internal/domain"
	"github.com/teemow/calsync/internal/logging"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	// Saved is the local record a create or update kept even though the
	// external provider is disabled.
	Saved any `json:"saved,omitempty"`
}

// statusFor maps a domain error kind to its HTTP status.
func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindValidation, domain.KindConflict,
		domain.KindProviderDisabled, domain.KindProviderMisconfigured:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err as an ErrorResponse. Server-side failures are
// logged with their cause; the client only sees the generic message.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	writeErrorSaved(w, r, logger, err, nil)
}

// writeErrorSaved is writeError with the locally persisted record attached.
func writeErrorSaved(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, saved any) {
	kind := domain.KindOf(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"code", kind.String(),
			logging.Err(err))
	}
	writeJSON(w, status, ErrorResponse{Error: kind.String(), Message: domain.Message(err), Saved: saved})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// decode reads a JSON body into dst. Malformed bodies are validation errors.
func decode(r *http.Request, op string, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.Validationf(op, "invalid request body: %v", err)
	}
	return nil
}
