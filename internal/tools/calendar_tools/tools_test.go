package calendar_tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calsync/internal/calendar"
	"github.com/teemow/calsync/internal/calendar/calendartest"
	"github.com/teemow/calsync/internal/calendars"
	"github.com/teemow/calsync/internal/domain"
	"github.com/teemow/calsync/internal/events"
	"github.com/teemow/calsync/internal/locations"
	"github.com/teemow/calsync/internal/logging"
	"github.com/teemow/calsync/internal/server"
	"github.com/teemow/calsync/internal/store"
	"github.com/teemow/calsync/internal/tools/batch"
)

func newServerContext(t *testing.T) *server.ServerContext {
	t.Helper()
	return newServerContextWith(t, calendartest.New())
}

func newServerContextWith(t *testing.T, adapter calendar.Adapter) *server.ServerContext {
	t.Helper()
	st := store.NewMemory()
	logger := logging.Discard().Logger()
	ev := events.New(events.Deps{Store: st, Calendar: adapter, Logger: logger})
	sc, err := server.NewServerContext(context.Background(), server.Services{
		Store:     st,
		Calendars: calendars.NewManager(st, nil, logger),
		Events:    ev,
		Locations: locations.NewService(st, ev, nil, logger),
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func call(t *testing.T, sc *server.ServerContext, h handlerFunc, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	result, err := h(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: args},
	}, sc)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func text(t *testing.T, result *mcp.CallToolResult, i int) string {
	t.Helper()
	require.Greater(t, len(result.Content), i)
	tc, ok := result.Content[i].(mcp.TextContent)
	require.True(t, ok, "content %d is not text", i)
	return tc.Text
}

func decode[T any](t *testing.T, result *mcp.CallToolResult) T {
	t.Helper()
	require.False(t, result.IsError, text(t, result, 0))
	var v T
	require.NoError(t, json.Unmarshal([]byte(text(t, result, 0)), &v))
	return v
}

func listToolNames(t *testing.T, s *mcpserver.MCPServer) []string {
	t.Helper()
	resp := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	var body struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	names := make([]string, 0, len(body.Result.Tools))
	for _, tool := range body.Result.Tools {
		names = append(names, tool.Name)
	}
	return names
}

func TestRegisterCalendarTools(t *testing.T) {
	tests := []struct {
		name     string
		readOnly bool
		present  []string
		absent   []string
	}{
		{
			name:     "read-only",
			readOnly: true,
			present:  []string{"calendar_list", "calendar_primary", "event_get", "event_search", "event_export_ics", "location_nearby", "location_maps"},
			absent:   []string{"calendar_create", "calendar_delete", "event_create", "event_delete", "location_add", "location_delete"},
		},
		{
			name:    "read-write",
			present: []string{"calendar_create", "calendar_promote", "calendar_recover", "event_create", "event_update", "event_attach_location", "location_add", "location_update"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mcpserver.NewMCPServer("test", "1.0.0", mcpserver.WithToolCapabilities(true))
			require.NoError(t, RegisterCalendarTools(s, newServerContext(t), tt.readOnly))

			names := listToolNames(t, s)
			for _, n := range tt.present {
				assert.Contains(t, names, n)
			}
			for _, n := range tt.absent {
				assert.NotContains(t, names, n)
			}
		})
	}
}

func TestRegisterCalendarTools_RequiresContext(t *testing.T) {
	s := mcpserver.NewMCPServer("test", "1.0.0")
	assert.Error(t, RegisterCalendarTools(s, nil, false))
}

func createCalendar(t *testing.T, sc *server.ServerContext, user, title string) domain.Calendar {
	t.Helper()
	return decode[domain.Calendar](t, call(t, sc, handleCreateCalendar, map[string]any{
		"userId": user,
		"title":  title,
	}))
}

func TestCalendarTools(t *testing.T) {
	sc := newServerContext(t)

	work := createCalendar(t, sc, "alice", "Work")
	assert.True(t, work.IsPrimary, "first calendar becomes primary")
	home := createCalendar(t, sc, "alice", "Home")
	assert.False(t, home.IsPrimary)

	res := call(t, sc, handleCreateCalendar, map[string]any{"userId": "alice", "title": "Work"})
	assert.True(t, res.IsError)
	assert.True(t, strings.HasPrefix(text(t, res, 0), "conflict: "))

	res = call(t, sc, handleCreateCalendar, map[string]any{"title": "Nobody"})
	assert.True(t, res.IsError)

	promoted := decode[domain.Calendar](t, call(t, sc, handlePromoteCalendar, map[string]any{"calendarId": home.ID, "userId": "alice"}))
	assert.True(t, promoted.IsPrimary)

	primary := decode[domain.Calendar](t, call(t, sc, handlePrimaryCalendar, map[string]any{"userId": "alice"}))
	assert.Equal(t, home.ID, primary.ID)

	byTitle := decode[domain.Calendar](t, call(t, sc, handleCalendarByTitle, map[string]any{"userId": "alice", "title": "Work"}))
	assert.Equal(t, work.ID, byTitle.ID)

	updated := decode[domain.Calendar](t, call(t, sc, handleUpdateCalendar, map[string]any{"calendarId": work.ID, "colorHex": "#0B8043"}))
	assert.Equal(t, "#0B8043", updated.ColorHex)
	assert.Equal(t, "Work", updated.Title)

	deleted := decode[domain.Calendar](t, call(t, sc, handleDeleteCalendar, map[string]any{"calendarId": work.ID}))
	assert.True(t, deleted.IsDeleted)
	assert.Len(t, decode[[]domain.Calendar](t, call(t, sc, handleListUserCalendars, map[string]any{"userId": "alice"})), 1)
	assert.Len(t, decode[[]domain.Calendar](t, call(t, sc, handleListCalendars, map[string]any{})), 1)

	recovered := decode[domain.Calendar](t, call(t, sc, handleRecoverCalendar, map[string]any{"calendarId": work.ID}))
	assert.False(t, recovered.IsDeleted)

	res = call(t, sc, handleGetCalendar, map[string]any{"calendarId": "missing"})
	assert.True(t, res.IsError)
	assert.True(t, strings.HasPrefix(text(t, res, 0), "not_found: "))

	res = call(t, sc, handleGetCalendar, map[string]any{})
	assert.Equal(t, "calendarId is required", text(t, res, 0))
}

func createEvent(t *testing.T, sc *server.ServerContext, calendarID, title string, extra map[string]any) events.Details {
	t.Helper()
	args := map[string]any{
		"calendarId": calendarID,
		"title":      title,
		"start":      "2026-03-02T09:00:00Z",
		"end":        "2026-03-02T10:00:00Z",
	}
	for k, v := range extra {
		args[k] = v
	}
	res := call(t, sc, handleCreateEvent, args)
	return decode[events.Details](t, res)
}

func TestEventTools(t *testing.T) {
	sc := newServerContext(t)
	cal := createCalendar(t, sc, "bob", "Work")

	res := call(t, sc, handleCreateEvent, map[string]any{
		"calendarId": cal.ID,
		"title":      "Planning",
		"start":      "2026-03-02T09:00:00Z",
		"end":        "2026-03-02T10:00:00Z",
		"tasks":      []any{"agenda", "notes"},
		"placeName":  "HQ",
		"city":       "Berlin",
	})
	planning := decode[events.Details](t, res)
	assert.Equal(t, domain.SyncStatusSynced, planning.SyncStatus)
	assert.NotEmpty(t, planning.ExternalID)
	assert.Len(t, planning.Tasks, 2)
	require.NotNil(t, planning.Location)
	assert.Equal(t, "Berlin", planning.Location.City)

	retro := createEvent(t, sc, cal.ID, "Retro", map[string]any{"type": "meeting"})
	assert.Equal(t, domain.EventTypeMeeting, retro.Type)

	t.Run("invalid conference", func(t *testing.T) {
		res := call(t, sc, handleCreateEvent, map[string]any{
			"calendarId": cal.ID, "title": "x",
			"start": "2026-03-02T09:00:00Z", "end": "2026-03-02T10:00:00Z",
			"conference": "carrier-pigeon",
		})
		assert.True(t, res.IsError)
	})

	t.Run("meet requires provider", func(t *testing.T) {
		res := call(t, sc, handleCreateEvent, map[string]any{
			"calendarId": cal.ID, "title": "x",
			"start": "2026-03-02T09:00:00Z", "end": "2026-03-02T10:00:00Z",
			"conference": "meet",
		})
		assert.True(t, res.IsError)
		assert.True(t, strings.HasPrefix(text(t, res, 0), "provider_disabled: "))
	})

	t.Run("bad time", func(t *testing.T) {
		res := call(t, sc, handleCreateEvent, map[string]any{"calendarId": cal.ID, "start": "tomorrow"})
		assert.True(t, res.IsError)
	})

	t.Run("end before start", func(t *testing.T) {
		res := call(t, sc, handleCreateEvent, map[string]any{
			"calendarId": cal.ID, "title": "x",
			"start": "2026-03-02T10:00:00Z", "end": "2026-03-02T09:00:00Z",
		})
		assert.True(t, res.IsError)
		assert.True(t, strings.HasPrefix(text(t, res, 0), "validation_error: "))
	})

	got := decode[events.Details](t, call(t, sc, handleGetEvent, map[string]any{"eventId": planning.ID}))
	assert.Equal(t, "Planning", got.Title)

	updated := decode[events.Details](t, call(t, sc, handleUpdateEvent, map[string]any{
		"eventId": planning.ID,
		"title":   "Quarterly planning",
		"allDay":  false,
	}))
	assert.Equal(t, "Quarterly planning", updated.Title)

	byCal := decode[[]domain.Event](t, call(t, sc, handleListCalendarEvents, map[string]any{"calendarId": cal.ID}))
	assert.Len(t, byCal, 2)
	byUser := decode[[]domain.Event](t, call(t, sc, handleListUserEvents, map[string]any{"userId": "bob", "size": float64(1)}))
	assert.Len(t, byUser, 1)
	assert.Len(t, decode[[]domain.Event](t, call(t, sc, handleListEvents, map[string]any{})), 2)

	many := decode[[]domain.Event](t, call(t, sc, handleGetManyEvents, map[string]any{"eventIds": []any{planning.ID, "missing", retro.ID}}))
	assert.Len(t, many, 2)

	found := decode[[]domain.Event](t, call(t, sc, handleSearchEvents, map[string]any{
		"userId":  "bob",
		"timeMin": "2026-03-01T00:00:00Z",
		"timeMax": "2026-03-03T00:00:00Z",
		"query":   "quarterly",
	}))
	require.Len(t, found, 1)
	assert.Equal(t, planning.ID, found[0].ID)

	ics := text(t, call(t, sc, handleExportEvent, map[string]any{"eventId": retro.ID}), 0)
	assert.Contains(t, ics, "BEGIN:VCALENDAR")
	assert.Contains(t, ics, "SUMMARY:Retro")

	res = call(t, sc, handleDeleteEvents, map[string]any{"eventIds": []any{retro.ID, "missing"}})
	var summary batch.Summary
	require.NoError(t, json.Unmarshal([]byte(text(t, res, 0)), &summary))
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Successful)
	assert.Equal(t, "not_found", summary.Results[1].Code)

	res = call(t, sc, handleGetEvent, map[string]any{"eventId": retro.ID})
	assert.True(t, res.IsError)
}

func TestCreateEvent_CalendarDisabled(t *testing.T) {
	sc := newServerContextWith(t, calendar.Disabled{})
	cal := createCalendar(t, sc, "bob", "Work")

	res := call(t, sc, handleCreateEvent, map[string]any{
		"calendarId": cal.ID,
		"title":      "Planning",
		"start":      "2026-03-02T09:00:00Z",
		"end":        "2026-03-02T10:00:00Z",
	})
	require.True(t, res.IsError)
	assert.True(t, strings.HasPrefix(text(t, res, 0), "provider_disabled: "))

	var saved events.Details
	require.NoError(t, json.Unmarshal([]byte(text(t, res, 1)), &saved), "the local event follows the error")
	assert.Equal(t, domain.SyncStatusPending, saved.SyncStatus)
	assert.Empty(t, saved.ExternalID)

	got := decode[events.Details](t, call(t, sc, handleGetEvent, map[string]any{"eventId": saved.ID}))
	assert.Equal(t, "Planning", got.Title)
}

func TestLocationTools(t *testing.T) {
	sc := newServerContext(t)
	cal := createCalendar(t, sc, "carol", "Travel")
	ev := createEvent(t, sc, cal.ID, "Tour", nil)

	res := call(t, sc, handleAddLocation, map[string]any{
		"eventId":   ev.ID,
		"placeName": "Red Square",
		"city":      "Moscow",
		"country":   "Russia",
		"latitude":  55.7539,
		"longitude": 37.6208,
	})
	loc := decode[domain.Location](t, res)
	assert.Equal(t, "Red Square", loc.PlaceName)

	byEvent := decode[domain.Location](t, call(t, sc, handleEventLocation, map[string]any{"eventId": ev.ID}))
	assert.Equal(t, loc.ID, byEvent.ID)

	assert.Len(t, decode[[]domain.Location](t, call(t, sc, handleSearchLocations, map[string]any{"query": "red"})), 1)
	assert.Len(t, decode[[]domain.Location](t, call(t, sc, handleLocationsByCity, map[string]any{"city": "moscow"})), 1)
	assert.Len(t, decode[[]domain.Location](t, call(t, sc, handleLocationsByCountry, map[string]any{"country": "Germany"})), 0)
	assert.Len(t, decode[[]domain.Location](t, call(t, sc, handleListLocations, map[string]any{})), 1)

	nearby := decode[[]domain.Location](t, call(t, sc, handleNearbyLocations, map[string]any{
		"latitude": 55.75, "longitude": 37.62, "radiusKm": 5.0,
	}))
	assert.Len(t, nearby, 1)

	res = call(t, sc, handleNearbyLocations, map[string]any{"latitude": 55.75})
	assert.Equal(t, "longitude is required", text(t, res, 0))

	links := decode[locations.MapLinks](t, call(t, sc, handleLocationMaps, map[string]any{"locationId": loc.ID}))
	assert.Contains(t, links.GoogleMapsURL, "google")
	assert.Contains(t, links.YandexMapsWebURL, "yandex")

	res = call(t, sc, handleAddLocation, map[string]any{"eventId": ev.ID, "latitude": 120.0, "placeName": "Nowhere"})
	assert.True(t, res.IsError)
	assert.True(t, strings.HasPrefix(text(t, res, 0), "validation_error: "))

	res = call(t, sc, handleAddLocation, map[string]any{"eventId": ev.ID})
	assert.Equal(t, "placeName is required", text(t, res, 0))

	updated := decode[domain.Location](t, call(t, sc, handleUpdateLocation, map[string]any{"locationId": loc.ID, "room": "101"}))
	assert.Equal(t, "101", updated.Room)
	assert.Equal(t, "Red Square", updated.PlaceName)

	res = call(t, sc, handleDeleteLocation, map[string]any{"locationId": loc.ID})
	require.False(t, res.IsError, text(t, res, 0))

	res = call(t, sc, handleGetLocation, map[string]any{"locationId": loc.ID})
	assert.True(t, res.IsError)

	detached := decode[events.Details](t, call(t, sc, handleGetEvent, map[string]any{"eventId": ev.ID}))
	assert.Empty(t, detached.LocationID)
}

func TestLocationInput(t *testing.T) {
	in, err := locationInput(map[string]any{})
	require.NoError(t, err)
	assert.Nil(t, in)

	in, err = locationInput(map[string]any{"latitude": 0.0})
	require.NoError(t, err)
	require.NotNil(t, in)
	require.NotNil(t, in.Latitude)
	assert.Zero(t, *in.Latitude)

	_, err = locationInput(map[string]any{"longitude": "east"})
	assert.Error(t, err)
}
