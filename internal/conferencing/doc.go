// Package conferencing creates and removes the meetings attached to events.
//
// Two providers implement Provider:
//
//   - NativeProvider: conferencing that is native to the external calendar
//     (Google Meet). Meetings are materialized by the calendar itself when
//     the event is written with a create request, so the provider only
//     mints request ids and parses the returned payload.
//   - StandaloneProvider: a Zoom-style REST API reached with a server to
//     server OAuth grant. Meetings are created before the event and their
//     join details are embedded into the event description.
//
// Disabled stands in for a provider that is turned off. The standalone
// description block is produced and parsed only by template.go.
package conferencing
