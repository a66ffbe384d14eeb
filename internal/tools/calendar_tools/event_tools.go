package calendar_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/calsync/internal/events"
	"github.com/teemow/calsync/internal/server"
	"github.com/teemow/calsync/internal/tools/batch"
	"github.com/teemow/calsync/internal/tools/common"
)

// Values of the conference argument of event_create.
const (
	conferenceNone    = "none"
	conferenceMeet    = "meet"
	conferenceMeeting = "meeting"
)

// RegisterEventTools registers event tools.
func RegisterEventTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	addTool(s, sc, mcp.NewTool("event_get",
		mcp.WithDescription("Get an event with its location, conference, tasks and attachments"),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event to retrieve"),
		),
	), handleGetEvent)

	addTool(s, sc, mcp.NewTool("event_get_many",
		mcp.WithDescription("Get several events by ID. Unknown IDs are skipped."),
		mcp.WithString("eventIds",
			mcp.Required(),
			mcp.Description("Event ID (string) or array of event IDs"),
		),
	), handleGetManyEvents)

	addTool(s, sc, withOptions("event_list", []mcp.ToolOption{
		mcp.WithDescription("List all events ordered by start time"),
	}, pageOptions()), handleListEvents)

	addTool(s, sc, withOptions("event_list_by_calendar", []mcp.ToolOption{
		mcp.WithDescription("List the events of a calendar ordered by start time"),
		mcp.WithString("calendarId",
			mcp.Required(),
			mcp.Description("The ID of the calendar"),
		),
	}, pageOptions()), handleListCalendarEvents)

	addTool(s, sc, withOptions("event_list_by_user", []mcp.ToolOption{
		mcp.WithDescription("List the events in all calendars of a user"),
		mcp.WithString("userId",
			mcp.Required(),
			mcp.Description("The owning user"),
		),
	}, pageOptions()), handleListUserEvents)

	addTool(s, sc, mcp.NewTool("event_export_ics",
		mcp.WithDescription("Export an event as an iCalendar (RFC 5545) document"),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event to export"),
		),
	), handleExportEvent)

	if readOnly {
		return nil
	}

	addTool(s, sc, withOptions("event_create", []mcp.ToolOption{
		mcp.WithDescription("Create an event and push it to the external calendar. " +
			"When the external calendar is unavailable or disabled the call fails but the event is kept locally with syncStatus PENDING."),
		mcp.WithString("calendarId",
			mcp.Required(),
			mcp.Description("The ID of the owning calendar"),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Event title"),
		),
		mcp.WithString("description",
			mcp.Description("Event description"),
		),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Start time (RFC3339 format, e.g., '2026-01-15T14:00:00Z')"),
		),
		mcp.WithString("end",
			mcp.Required(),
			mcp.Description("End time (RFC3339 format, e.g., '2026-01-15T15:00:00Z')"),
		),
		mcp.WithBoolean("allDay",
			mcp.Description("Create as all-day event"),
		),
		mcp.WithString("type",
			mcp.Description("Event type: OTHERS (default), MEETING, APPOINTMENT, REMINDER, BIRTHDAY, HOLIDAY, TASK, STUDY, WORK, ROUTE"),
		),
		mcp.WithString("status",
			mcp.Description("Event status: CONFIRMED (default), TENTATIVE, CANCELLED"),
		),
		mcp.WithString("colorHex",
			mcp.Description("Display color, e.g. '#0B8043'"),
		),
		mcp.WithString("conference",
			mcp.Description("Conference to create with the event: 'none' (default), 'meet' for native conferencing, 'meeting' for a standalone meeting"),
		),
		mcp.WithString("locationId",
			mcp.Description("Link an existing location. Ignored when location fields are given."),
		),
		mcp.WithString("tasks",
			mcp.Description("Task title (string) or array of task titles"),
		),
		mcp.WithString("attachmentUrls",
			mcp.Description("Attachment URL (string) or array of attachment URLs"),
		),
	}, locationOptions()), handleCreateEvent)

	addTool(s, sc, withOptions("event_update", []mcp.ToolOption{
		mcp.WithDescription("Update an event and push the change to the external calendar. Empty fields are kept."),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event to update"),
		),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("description", mcp.Description("New description")),
		mcp.WithString("start", mcp.Description("New start time (RFC3339 format)")),
		mcp.WithString("end", mcp.Description("New end time (RFC3339 format)")),
		mcp.WithBoolean("allDay", mcp.Description("Change the all-day flag")),
		mcp.WithString("type", mcp.Description("New event type")),
		mcp.WithString("status", mcp.Description("New event status")),
		mcp.WithString("colorHex", mcp.Description("New display color")),
	}, locationOptions()), handleUpdateEvent)

	addTool(s, sc, mcp.NewTool("event_delete",
		mcp.WithDescription("Delete events locally and from the external calendar, including their conferences"),
		mcp.WithString("eventIds",
			mcp.Required(),
			mcp.Description("Event ID (string) or array of event IDs"),
		),
	), handleDeleteEvents)

	addTool(s, sc, mcp.NewTool("event_attach_location",
		mcp.WithDescription("Link an existing location to an event and push its address"),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event"),
		),
		mcp.WithString("locationId",
			mcp.Required(),
			mcp.Description("The ID of the location"),
		),
	), handleAttachLocation)

	return nil
}

func handleGetEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	id, err := common.RequiredString(request.GetArguments(), "eventId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := sc.Events().Get(ctx, id)
	return common.Outcome(d, err), nil
}

func handleGetManyEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	ids, err := batch.ParseStringOrArray(request.GetArguments()["eventIds"], "eventIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	evs, err := sc.Events().GetMany(ctx, ids)
	return common.Outcome(evs, err), nil
}

func handleListEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	page, err := common.Page(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	evs, err := sc.Events().List(ctx, page)
	return common.Outcome(evs, err), nil
}

func handleListCalendarEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	id, err := common.RequiredString(args, "calendarId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := common.Page(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	evs, err := sc.Events().ListByCalendar(ctx, id, page)
	return common.Outcome(evs, err), nil
}

func handleListUserEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	userID, err := common.RequiredString(args, "userId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := common.Page(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	evs, err := sc.Events().ListByUser(ctx, userID, page)
	return common.Outcome(evs, err), nil
}

func handleExportEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	id, err := common.RequiredString(request.GetArguments(), "eventId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := sc.Events().ExportICS(ctx, id)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return mcp.NewToolResultText(string(doc)), nil
}

func handleCreateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	req, err := createRequest(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	ev := sc.Events()
	var d *events.Details
	switch conference := strings.ToLower(common.String(args, "conference")); conference {
	case "", conferenceNone:
		d, err = ev.Create(ctx, req)
	case conferenceMeet:
		d, err = ev.CreateWithMeet(ctx, req)
	case conferenceMeeting:
		d, err = ev.CreateWithMeeting(ctx, req)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("conference must be one of %q, %q or %q, got %q",
			conferenceNone, conferenceMeet, conferenceMeeting, conference)), nil
	}
	return common.Outcome(d, err), nil
}

// createRequest builds an event creation request from tool arguments.
func createRequest(args map[string]any) (events.CreateRequest, error) {
	calendarID, err := common.RequiredString(args, "calendarId")
	if err != nil {
		return events.CreateRequest{}, err
	}
	start, err := common.Time(args, "start")
	if err != nil {
		return events.CreateRequest{}, err
	}
	end, err := common.Time(args, "end")
	if err != nil {
		return events.CreateRequest{}, err
	}
	allDay, _, err := common.Bool(args, "allDay")
	if err != nil {
		return events.CreateRequest{}, err
	}
	loc, err := locationInput(args)
	if err != nil {
		return events.CreateRequest{}, err
	}

	req := events.CreateRequest{
		CalendarID:  calendarID,
		Title:       common.String(args, "title"),
		Description: common.String(args, "description"),
		ColorHex:    common.String(args, "colorHex"),
		Type:        common.String(args, "type"),
		Status:      common.String(args, "status"),
		StartTime:   start,
		EndTime:     end,
		AllDay:      allDay,
		LocationID:  common.String(args, "locationId"),
		Location:    loc,
	}

	if raw, ok := args["tasks"]; ok && raw != nil {
		titles, err := batch.ParseStringOrArray(raw, "tasks")
		if err != nil {
			return events.CreateRequest{}, err
		}
		for _, t := range titles {
			req.Tasks = append(req.Tasks, events.TaskInput{Title: t})
		}
	}
	if raw, ok := args["attachmentUrls"]; ok && raw != nil {
		urls, err := batch.ParseStringOrArray(raw, "attachmentUrls")
		if err != nil {
			return events.CreateRequest{}, err
		}
		for _, u := range urls {
			req.Attachments = append(req.Attachments, events.AttachmentInput{FileURL: u})
		}
	}
	return req, nil
}

func handleUpdateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	id, err := common.RequiredString(args, "eventId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	start, err := common.Time(args, "start")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	end, err := common.Time(args, "end")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	loc, err := locationInput(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := events.UpdateRequest{
		Title:       common.String(args, "title"),
		Description: common.String(args, "description"),
		ColorHex:    common.String(args, "colorHex"),
		Type:        common.String(args, "type"),
		Status:      common.String(args, "status"),
		StartTime:   start,
		EndTime:     end,
		Location:    loc,
	}
	allDay, ok, err := common.Bool(args, "allDay")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if ok {
		req.AllDay = &allDay
	}

	d, err := sc.Events().Update(ctx, id, req)
	return common.Outcome(d, err), nil
}

func handleDeleteEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	ids, err := batch.ParseStringOrArray(request.GetArguments()["eventIds"], "eventIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results := batch.Process(ctx, ids, func(ctx context.Context, id string) (any, error) {
		if err := sc.Events().Delete(ctx, id); err != nil {
			return nil, err
		}
		return "deleted", nil
	})
	return mcp.NewToolResultText(batch.FormatResults(results)), nil
}

func handleAttachLocation(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	eventID, err := common.RequiredString(args, "eventId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	locationID, err := common.RequiredString(args, "locationId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := sc.Events().AttachLocation(ctx, eventID, locationID)
	return common.Outcome(d, err), nil
}
