// Package api serves the calsync REST surface under /api.
//
// Handlers decode JSON requests, call the calendar, event and location
// services and map domain error kinds to HTTP status codes:
//
//   - NotFound: 404
//   - Validation, Conflict, ProviderDisabled, ProviderMisconfigured: 400
//   - ExternalSyncFailure and anything else: 500
//
// Error bodies have the shape {"error": "<code>", "message": "<text>"}.
// A create or update refused with provider_disabled also carries the
// record kept locally under "saved".
// Creates answer 201, updates, deletes and attaches 202, reads 200.
package api
