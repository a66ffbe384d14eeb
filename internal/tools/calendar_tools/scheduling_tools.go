package calendar_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/calsync/internal/server"
	"github.com/teemow/calsync/internal/store"
	"github.com/teemow/calsync/internal/tools/common"
)

// RegisterSchedulingTools registers event search tools.
func RegisterSchedulingTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	addTool(s, sc, withOptions("event_search", []mcp.ToolOption{
		mcp.WithDescription("Search a user's events overlapping a time window, optionally filtered by a keyword in title or description"),
		mcp.WithString("userId",
			mcp.Required(),
			mcp.Description("The owning user"),
		),
		mcp.WithString("timeMin",
			mcp.Description("Start of the window (RFC3339 format, e.g., '2026-01-01T00:00:00Z')"),
		),
		mcp.WithString("timeMax",
			mcp.Description("End of the window (RFC3339 format, e.g., '2026-01-31T23:59:59Z')"),
		),
		mcp.WithString("query",
			mcp.Description("Case-insensitive keyword"),
		),
	}, pageOptions()), handleSearchEvents)

	return nil
}

func handleSearchEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	userID, err := common.RequiredString(args, "userId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	from, err := common.Time(args, "timeMin")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	to, err := common.Time(args, "timeMax")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := common.Page(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	evs, err := sc.Events().Search(ctx, store.EventFilter{
		UserID:  userID,
		From:    from,
		To:      to,
		Keyword: common.String(args, "query"),
	}, page)
	return common.Outcome(evs, err), nil
}
