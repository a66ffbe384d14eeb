package calendar_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/calsync/internal/calendars"
	"github.com/teemow/calsync/internal/server"
	"github.com/teemow/calsync/internal/tools/common"
)

// RegisterCalendarListTools registers calendar management tools.
func RegisterCalendarListTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	addTool(s, sc, withOptions("calendar_list", []mcp.ToolOption{
		mcp.WithDescription("List active calendars across all users"),
	}, pageOptions()), handleListCalendars)

	addTool(s, sc, mcp.NewTool("calendar_get",
		mcp.WithDescription("Get a calendar by ID"),
		mcp.WithString("calendarId",
			mcp.Required(),
			mcp.Description("The ID of the calendar"),
		),
	), handleGetCalendar)

	addTool(s, sc, mcp.NewTool("calendar_list_by_user",
		mcp.WithDescription("List the active calendars of a user"),
		mcp.WithString("userId",
			mcp.Required(),
			mcp.Description("The owning user"),
		),
	), handleListUserCalendars)

	addTool(s, sc, mcp.NewTool("calendar_primary",
		mcp.WithDescription("Get the primary calendar of a user"),
		mcp.WithString("userId",
			mcp.Required(),
			mcp.Description("The owning user"),
		),
	), handlePrimaryCalendar)

	addTool(s, sc, mcp.NewTool("calendar_by_title",
		mcp.WithDescription("Find a user's calendar by its exact title"),
		mcp.WithString("userId",
			mcp.Required(),
			mcp.Description("The owning user"),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Calendar title"),
		),
	), handleCalendarByTitle)

	if readOnly {
		return nil
	}

	addTool(s, sc, mcp.NewTool("calendar_create",
		mcp.WithDescription("Create a calendar. The first calendar of a user always becomes primary."),
		mcp.WithString("userId",
			mcp.Required(),
			mcp.Description("The owning user"),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Calendar title, unique per user"),
		),
		mcp.WithString("description",
			mcp.Description("Calendar description"),
		),
		mcp.WithString("colorHex",
			mcp.Description("Display color, e.g. '#4285F4'"),
		),
		mcp.WithString("timezone",
			mcp.Description("IANA time zone (default: 'UTC')"),
		),
		mcp.WithBoolean("primary",
			mcp.Description("Make this the user's primary calendar"),
		),
	), handleCreateCalendar)

	addTool(s, sc, mcp.NewTool("calendar_update",
		mcp.WithDescription("Update calendar fields. Empty fields are kept."),
		mcp.WithString("calendarId",
			mcp.Required(),
			mcp.Description("The ID of the calendar to update"),
		),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("description", mcp.Description("New description")),
		mcp.WithString("colorHex", mcp.Description("New display color")),
		mcp.WithString("timezone", mcp.Description("New IANA time zone")),
	), handleUpdateCalendar)

	addTool(s, sc, mcp.NewTool("calendar_promote",
		mcp.WithDescription("Make a calendar the user's primary calendar"),
		mcp.WithString("calendarId",
			mcp.Required(),
			mcp.Description("The ID of the calendar to promote"),
		),
		mcp.WithString("userId",
			mcp.Required(),
			mcp.Description("The owning user"),
		),
	), handlePromoteCalendar)

	addTool(s, sc, mcp.NewTool("calendar_delete",
		mcp.WithDescription("Soft-delete a calendar. The primary calendar cannot be deleted."),
		mcp.WithString("calendarId",
			mcp.Required(),
			mcp.Description("The ID of the calendar to delete"),
		),
	), handleDeleteCalendar)

	addTool(s, sc, mcp.NewTool("calendar_recover",
		mcp.WithDescription("Recover a soft-deleted calendar"),
		mcp.WithString("calendarId",
			mcp.Required(),
			mcp.Description("The ID of the calendar to recover"),
		),
	), handleRecoverCalendar)

	return nil
}

func handleListCalendars(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	page, err := common.Page(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cals, err := sc.Calendars().List(ctx, page)
	return common.Outcome(cals, err), nil
}

func handleGetCalendar(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	id, err := common.RequiredString(request.GetArguments(), "calendarId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cal, err := sc.Calendars().Get(ctx, id)
	return common.Outcome(cal, err), nil
}

func handleListUserCalendars(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	userID, err := common.RequiredString(request.GetArguments(), "userId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cals, err := sc.Calendars().ListByUser(ctx, userID)
	return common.Outcome(cals, err), nil
}

func handlePrimaryCalendar(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	userID, err := common.RequiredString(request.GetArguments(), "userId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cal, err := sc.Calendars().Primary(ctx, userID)
	return common.Outcome(cal, err), nil
}

func handleCalendarByTitle(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	userID, err := common.RequiredString(args, "userId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := common.RequiredString(args, "title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cal, err := sc.Calendars().ByTitle(ctx, userID, title)
	return common.Outcome(cal, err), nil
}

func handleCreateCalendar(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	primary, _, err := common.Bool(args, "primary")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	cal, err := sc.Calendars().Create(ctx, calendars.CreateRequest{
		UserID:      common.String(args, "userId"),
		Title:       common.String(args, "title"),
		Description: common.String(args, "description"),
		ColorHex:    common.String(args, "colorHex"),
		Timezone:    common.String(args, "timezone"),
		Primary:     primary,
	})
	return common.Outcome(cal, err), nil
}

func handleUpdateCalendar(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	id, err := common.RequiredString(args, "calendarId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cal, err := sc.Calendars().Update(ctx, id, calendars.UpdateRequest{
		Title:       common.String(args, "title"),
		Description: common.String(args, "description"),
		ColorHex:    common.String(args, "colorHex"),
		Timezone:    common.String(args, "timezone"),
	})
	return common.Outcome(cal, err), nil
}

func handlePromoteCalendar(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	id, err := common.RequiredString(args, "calendarId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	userID, err := common.RequiredString(args, "userId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cal, err := sc.Calendars().Promote(ctx, id, userID)
	return common.Outcome(cal, err), nil
}

func handleDeleteCalendar(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	id, err := common.RequiredString(request.GetArguments(), "calendarId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cal, err := sc.Calendars().SoftDelete(ctx, id)
	return common.Outcome(cal, err), nil
}

func handleRecoverCalendar(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	id, err := common.RequiredString(request.GetArguments(), "calendarId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cal, err := sc.Calendars().Recover(ctx, id)
	return common.Outcome(cal, err), nil
}
