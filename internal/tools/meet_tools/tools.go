package meet_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/calsync/internal/server"
	"github.com/teemow/calsync/internal/tools/common"
)

// RegisterMeetTools registers conferencing tools with the MCP server.
func RegisterMeetTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if s == nil || sc == nil {
		return fmt.Errorf("mcp server and server context are required")
	}

	eventIDOption := mcp.WithString("eventId",
		mcp.Required(),
		mcp.Description("The ID of the event"),
	)

	joinInfoTool := mcp.NewTool("event_join_info",
		mcp.WithDescription("Describe how to join the event's conference: platform, link, meeting code, dial-in and password"),
		eventIDOption,
	)
	s.AddTool(joinInfoTool, common.InstrumentedToolHandler("event_join_info", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleJoinInfo(ctx, request, sc)
		}))

	if readOnly {
		return nil
	}

	addMeetTool := mcp.NewTool("event_add_meet",
		mcp.WithDescription("Add native conferencing to an event. The event must be synced and not all-day."),
		eventIDOption,
	)
	s.AddTool(addMeetTool, common.InstrumentedToolHandler("event_add_meet", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAddMeet(ctx, request, sc)
		}))

	addMeetingTool := mcp.NewTool("event_add_meeting",
		mcp.WithDescription("Create a standalone meeting for an event and embed it into the external calendar entry"),
		eventIDOption,
	)
	s.AddTool(addMeetingTool, common.InstrumentedToolHandler("event_add_meeting", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAddMeeting(ctx, request, sc)
		}))

	removeMeetTool := mcp.NewTool("event_remove_meet",
		mcp.WithDescription("Remove native conferencing from an event. No-op when the event has none."),
		eventIDOption,
	)
	s.AddTool(removeMeetTool, common.InstrumentedToolHandler("event_remove_meet", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleRemoveMeet(ctx, request, sc)
		}))

	removeMeetingTool := mcp.NewTool("event_remove_meeting",
		mcp.WithDescription("Delete the standalone meeting of an event. No-op when the event has none."),
		eventIDOption,
	)
	s.AddTool(removeMeetingTool, common.InstrumentedToolHandler("event_remove_meeting", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleRemoveMeeting(ctx, request, sc)
		}))

	attachTool := mcp.NewTool("event_attach_conference",
		mcp.WithDescription("Link an existing conference record to an event"),
		eventIDOption,
		mcp.WithString("conferenceId",
			mcp.Required(),
			mcp.Description("The ID of the conference"),
		),
	)
	s.AddTool(attachTool, common.InstrumentedToolHandler("event_attach_conference", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAttachConference(ctx, request, sc)
		}))

	return nil
}

func handleJoinInfo(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	eventID, err := common.RequiredString(request.GetArguments(), "eventId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	desc, err := sc.Events().JoinInfo(ctx, eventID)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return mcp.NewToolResultText(desc.String()), nil
}

func handleAddMeet(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	eventID, err := common.RequiredString(request.GetArguments(), "eventId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	conf, err := sc.Events().AddMeet(ctx, eventID)
	if err == nil && conf == nil {
		return mcp.NewToolResultText("The calendar returned no conference data; no conference was added."), nil
	}
	return common.Outcome(conf, err), nil
}

func handleAddMeeting(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	eventID, err := common.RequiredString(request.GetArguments(), "eventId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	conf, err := sc.Events().AddMeeting(ctx, eventID)
	return common.Outcome(conf, err), nil
}

func handleRemoveMeet(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	eventID, err := common.RequiredString(request.GetArguments(), "eventId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := sc.Events().RemoveMeet(ctx, eventID); err != nil {
		return common.ErrorResult(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("native conference removed from event %s", eventID)), nil
}

func handleRemoveMeeting(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	eventID, err := common.RequiredString(request.GetArguments(), "eventId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := sc.Events().RemoveMeeting(ctx, eventID); err != nil {
		return common.ErrorResult(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("standalone meeting removed from event %s", eventID)), nil
}

func handleAttachConference(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	eventID, err := common.RequiredString(args, "eventId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	conferenceID, err := common.RequiredString(args, "conferenceId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	conf, err := sc.Events().AttachConference(ctx, eventID, conferenceID)
	return common.Outcome(conf, err), nil
}
