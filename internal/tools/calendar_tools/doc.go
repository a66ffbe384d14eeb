// Package calendar_tools exposes calendars, events and locations as MCP
// tools.
//
// Read tools are always registered. Tools that change state are only
// registered when the server is not read-only.
//
// Available tools:
//
// Calendars:
//   - calendar_list, calendar_get, calendar_list_by_user, calendar_primary, calendar_by_title
//   - calendar_create, calendar_update, calendar_promote, calendar_delete, calendar_recover (write)
//
// Events:
//   - event_get, event_get_many, event_list, event_list_by_calendar, event_list_by_user, event_export_ics
//   - event_search
//   - event_create, event_update, event_delete, event_attach_location (write)
//
// Locations:
//   - location_get, location_by_event, location_list, location_search, location_by_city,
//     location_by_country, location_nearby, location_maps
//   - location_add, location_update, location_delete (write)
//
// Errors from the services are reported as tool errors prefixed with their
// code, e.g. "not_found: calendar abc not found".
package calendar_tools
