package meet_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calsync/internal/calendars"
	"github.com/teemow/calsync/internal/conferencing"
	"github.com/teemow/calsync/internal/domain"
	"github.com/teemow/calsync/internal/events"
	"github.com/teemow/calsync/internal/locations"
	"github.com/teemow/calsync/internal/logging"
	"github.com/teemow/calsync/internal/server"
	"github.com/teemow/calsync/internal/store"
)

// fakeMeetings is a standalone provider that hands out numbered meetings.
type fakeMeetings struct {
	created atomic.Int32
	deleted atomic.Int32
}

func (f *fakeMeetings) Type() domain.ConferenceType { return domain.ConferenceTypeStandalone }

func (f *fakeMeetings) CreateMeeting(context.Context, conferencing.MeetingRequest) (*conferencing.Meeting, error) {
	id := fmt.Sprintf("9100%d", f.created.Add(1))
	return &conferencing.Meeting{
		Type:         domain.ConferenceTypeStandalone,
		ID:           id,
		JoinURL:      "https://zoom.example.com/j/" + id,
		Password:     "s3cret",
		PlatformName: "Zoom",
	}, nil
}

func (f *fakeMeetings) DeleteMeeting(context.Context, string) error {
	f.deleted.Add(1)
	return nil
}

func (f *fakeMeetings) Describe(_ context.Context, _ string, c *domain.Conference) conferencing.Description {
	return conferencing.Description{Platform: c.PlatformName, JoinURL: c.JoinURL(), Password: c.Password}
}

func newServerContext(t *testing.T, standalone conferencing.Provider) (*server.ServerContext, string) {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemory()
	logger := logging.Discard().Logger()
	ev := events.New(events.Deps{Store: st, Standalone: standalone, Logger: logger})
	cals := calendars.NewManager(st, nil, logger)

	sc, err := server.NewServerContext(ctx, server.Services{
		Store:     st,
		Calendars: cals,
		Events:    ev,
		Locations: locations.NewService(st, ev, nil, logger),
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	cal, err := cals.Create(ctx, calendars.CreateRequest{UserID: "dana", Title: "Work"})
	require.NoError(t, err)
	start := time.Date(2026, 4, 7, 15, 0, 0, 0, time.UTC)
	d, err := ev.Create(ctx, events.CreateRequest{
		CalendarID: cal.ID,
		Title:      "Design review",
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
	})
	require.Error(t, err, "calendar adapter is disabled")
	require.NotNil(t, d)
	return sc, d.ID
}

func call(t *testing.T, sc *server.ServerContext, h func(context.Context, mcp.CallToolRequest, *server.ServerContext) (*mcp.CallToolResult, error), args map[string]any) *mcp.CallToolResult {
	t.Helper()
	result, err := h(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: args},
	}, sc)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func text(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestRegisterMeetTools(t *testing.T) {
	tests := []struct {
		name     string
		readOnly bool
		want     []string
	}{
		{name: "read-only", readOnly: true, want: []string{"event_join_info"}},
		{name: "read-write", want: []string{
			"event_add_meet", "event_add_meeting", "event_attach_conference",
			"event_join_info", "event_remove_meet", "event_remove_meeting",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, _ := newServerContext(t, nil)
			s := mcpserver.NewMCPServer("test", "1.0.0", mcpserver.WithToolCapabilities(true))
			require.NoError(t, RegisterMeetTools(s, sc, tt.readOnly))

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

			var names []string
			for _, tool := range body.Result.Tools {
				names = append(names, tool.Name)
			}
			assert.ElementsMatch(t, tt.want, names)
		})
	}
}

func TestStandaloneMeetingLifecycle(t *testing.T) {
	provider := &fakeMeetings{}
	sc, eventID := newServerContext(t, provider)

	res := call(t, sc, handleJoinInfo, map[string]any{"eventId": eventID})
	assert.True(t, res.IsError)
	assert.True(t, strings.HasPrefix(text(t, res), "not_found: "))

	res = call(t, sc, handleAddMeeting, map[string]any{"eventId": eventID})
	require.False(t, res.IsError, text(t, res))
	var conf domain.Conference
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &conf))
	assert.Equal(t, domain.ConferenceTypeStandalone, conf.Type)
	assert.Equal(t, domain.ConferencePendingUpload, conf.SyncStatus, "event is not synced yet")
	assert.Equal(t, eventID, conf.EventID)

	res = call(t, sc, handleAddMeeting, map[string]any{"eventId": eventID})
	assert.True(t, res.IsError)
	assert.True(t, strings.HasPrefix(text(t, res), "conflict: "))
	assert.Equal(t, int32(1), provider.created.Load())

	info := text(t, call(t, sc, handleJoinInfo, map[string]any{"eventId": eventID}))
	assert.Contains(t, info, "Zoom meeting")
	assert.Contains(t, info, conf.ConferenceLink)
	assert.Contains(t, info, "Password: s3cret")

	res = call(t, sc, handleRemoveMeet, map[string]any{"eventId": eventID})
	require.False(t, res.IsError)
	assert.Equal(t, int32(0), provider.deleted.Load(), "removing native conferencing leaves the meeting")

	res = call(t, sc, handleRemoveMeeting, map[string]any{"eventId": eventID})
	require.False(t, res.IsError, text(t, res))
	assert.Equal(t, int32(1), provider.deleted.Load())

	res = call(t, sc, handleJoinInfo, map[string]any{"eventId": eventID})
	assert.True(t, res.IsError)
}

func TestAddMeet_ProviderDisabled(t *testing.T) {
	sc, eventID := newServerContext(t, nil)

	res := call(t, sc, handleAddMeet, map[string]any{"eventId": eventID})
	assert.True(t, res.IsError)
	assert.True(t, strings.HasPrefix(text(t, res), "provider_disabled: "))

	res = call(t, sc, handleAddMeeting, map[string]any{"eventId": eventID})
	assert.True(t, res.IsError)
	assert.True(t, strings.HasPrefix(text(t, res), "provider_disabled: "))
}

func TestAttachConference(t *testing.T) {
	sc, eventID := newServerContext(t, nil)

	res := call(t, sc, handleAttachConference, map[string]any{"eventId": eventID})
	assert.Equal(t, "conferenceId is required", text(t, res))

	res = call(t, sc, handleAttachConference, map[string]any{"eventId": eventID, "conferenceId": "missing"})
	assert.True(t, res.IsError)
	assert.True(t, strings.HasPrefix(text(t, res), "not_found: "))
}

func TestHandlers_RequireEventID(t *testing.T) {
	sc, _ := newServerContext(t, nil)
	handlers := map[string]func(context.Context, mcp.CallToolRequest, *server.ServerContext) (*mcp.CallToolResult, error){
		"event_join_info":      handleJoinInfo,
		"event_add_meet":       handleAddMeet,
		"event_add_meeting":    handleAddMeeting,
		"event_remove_meet":    handleRemoveMeet,
		"event_remove_meeting": handleRemoveMeeting,
	}
	for name, h := range handlers {
		t.Run(name, func(t *testing.T) {
			res := call(t, sc, h, map[string]any{})
			assert.True(t, res.IsError)
			assert.Equal(t, "eventId is required", text(t, res))
		})
	}
}
