// Package meet_tools provides MCP tools for event conferencing.
//
// Two kinds of conference are supported: native conferencing created by
// the external calendar (Meet) and standalone meetings created through a
// separate provider API and embedded into the event.
//
// Available tools:
//
// Read:
//   - event_join_info - Describe how to join the event's conference
//
// Write:
//   - event_add_meet - Add native conferencing to a synced, timed event
//   - event_add_meeting - Create a standalone meeting for an event
//   - event_remove_meet - Remove native conferencing from an event
//   - event_remove_meeting - Delete the standalone meeting of an event
//   - event_attach_conference - Link an existing conference record to an event
//
// An event holds at most one conference; adding a second one fails with a
// conflict.
package meet_tools
