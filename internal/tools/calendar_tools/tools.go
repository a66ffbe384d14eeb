package calendar_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/calsync/internal/events"
	"github.com/teemow/calsync/internal/server"
	"github.com/teemow/calsync/internal/tools/common"
)

type handlerFunc func(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error)

// addTool registers tool with an instrumented handler bound to sc.
func addTool(s *mcpserver.MCPServer, sc *server.ServerContext, tool mcp.Tool, h handlerFunc) {
	s.AddTool(tool, common.InstrumentedToolHandler(tool.Name, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return h(ctx, request, sc)
		}))
}

// RegisterCalendarTools registers all calendar, event and location tools.
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if s == nil || sc == nil {
		return fmt.Errorf("mcp server and server context are required")
	}

	if err := RegisterCalendarListTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register calendar list tools: %w", err)
	}

	if err := RegisterEventTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register event tools: %w", err)
	}

	if err := RegisterSchedulingTools(s, sc); err != nil {
		return fmt.Errorf("failed to register scheduling tools: %w", err)
	}

	if err := RegisterLocationTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register location tools: %w", err)
	}

	return nil
}

// pageOptions are the paging arguments shared by list tools.
func pageOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithNumber("page",
			mcp.Description("Zero-based page number (default: 0)"),
		),
		mcp.WithNumber("size",
			mcp.Description("Page size (default: 20, max: 100)"),
		),
	}
}

// locationOptions are the location fields accepted by event and location tools.
func locationOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("placeName", mcp.Description("Name of the place, e.g. 'Red Square'")),
		mcp.WithString("streetAddress", mcp.Description("Street address")),
		mcp.WithString("city", mcp.Description("City")),
		mcp.WithString("country", mcp.Description("Country")),
		mcp.WithString("buildingName", mcp.Description("Building name")),
		mcp.WithString("floor", mcp.Description("Floor")),
		mcp.WithString("room", mcp.Description("Room")),
		mcp.WithNumber("latitude", mcp.Description("Latitude in degrees, -90 to 90")),
		mcp.WithNumber("longitude", mcp.Description("Longitude in degrees, -180 to 180")),
		mcp.WithString("placeId", mcp.Description("Provider place identifier")),
	}
}

// locationInput reads the location fields from args. It returns nil when
// none of them is set.
func locationInput(args map[string]any) (*events.LocationInput, error) {
	in := &events.LocationInput{
		PlaceName:     common.String(args, "placeName"),
		StreetAddress: common.String(args, "streetAddress"),
		City:          common.String(args, "city"),
		Country:       common.String(args, "country"),
		BuildingName:  common.String(args, "buildingName"),
		Floor:         common.String(args, "floor"),
		Room:          common.String(args, "room"),
		PlaceID:       common.String(args, "placeId"),
	}
	set := *in != events.LocationInput{}

	if lat, ok, err := common.Float(args, "latitude"); err != nil {
		return nil, err
	} else if ok {
		in.Latitude = &lat
		set = true
	}
	if lon, ok, err := common.Float(args, "longitude"); err != nil {
		return nil, err
	} else if ok {
		in.Longitude = &lon
		set = true
	}

	if !set {
		return nil, nil
	}
	return in, nil
}

func withOptions(name string, base []mcp.ToolOption, extra ...[]mcp.ToolOption) mcp.Tool {
	opts := base
	for _, e := range extra {
		opts = append(opts, e...)
	}
	return mcp.NewTool(name, opts...)
}
