// Package calendar pushes local events to an external calendar provider.
//
// Adapter is the capability the event orchestrator depends on. Google
// implements it on top of the Google Calendar v3 API, authenticating each
// call as the calendar's owner through a per-user token. Disabled stands in
// when the integration is turned off and fails every call with
// ProviderDisabled.
//
// Conference data travels as conferencing.Payload so that callers never
// see the Google SDK types. Provider 404 and 410 responses surface as
// ErrEventNotFound; every other provider failure is an external sync
// failure.
package calendar
