package calendar_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/calsync/internal/server"
	"github.com/teemow/calsync/internal/tools/common"
)

// RegisterLocationTools registers location tools.
func RegisterLocationTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	addTool(s, sc, mcp.NewTool("location_get",
		mcp.WithDescription("Get a location by ID"),
		mcp.WithString("locationId",
			mcp.Required(),
			mcp.Description("The ID of the location"),
		),
	), handleGetLocation)

	addTool(s, sc, mcp.NewTool("location_by_event",
		mcp.WithDescription("Get the location linked to an event"),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event"),
		),
	), handleEventLocation)

	addTool(s, sc, withOptions("location_list", []mcp.ToolOption{
		mcp.WithDescription("List all locations"),
	}, pageOptions()), handleListLocations)

	addTool(s, sc, withOptions("location_search", []mcp.ToolOption{
		mcp.WithDescription("Search locations by place name, street address, city or country"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Case-insensitive text to match"),
		),
	}, pageOptions()), handleSearchLocations)

	addTool(s, sc, withOptions("location_by_city", []mcp.ToolOption{
		mcp.WithDescription("List locations in a city"),
		mcp.WithString("city",
			mcp.Required(),
			mcp.Description("City name, matched case-insensitively"),
		),
	}, pageOptions()), handleLocationsByCity)

	addTool(s, sc, withOptions("location_by_country", []mcp.ToolOption{
		mcp.WithDescription("List locations in a country"),
		mcp.WithString("country",
			mcp.Required(),
			mcp.Description("Country name, matched case-insensitively"),
		),
	}, pageOptions()), handleLocationsByCountry)

	addTool(s, sc, withOptions("location_nearby", []mcp.ToolOption{
		mcp.WithDescription("List locations within a radius of a point, nearest first"),
		mcp.WithNumber("latitude",
			mcp.Required(),
			mcp.Description("Latitude of the center in degrees"),
		),
		mcp.WithNumber("longitude",
			mcp.Required(),
			mcp.Description("Longitude of the center in degrees"),
		),
		mcp.WithNumber("radiusKm",
			mcp.Description("Search radius in kilometers (default: 10)"),
		),
	}, pageOptions()), handleNearbyLocations)

	addTool(s, sc, mcp.NewTool("location_maps",
		mcp.WithDescription("Get links that open a location in Google Maps and Yandex Maps"),
		mcp.WithString("locationId",
			mcp.Required(),
			mcp.Description("The ID of the location"),
		),
	), handleLocationMaps)

	if readOnly {
		return nil
	}

	addTool(s, sc, withOptions("location_add", []mcp.ToolOption{
		mcp.WithDescription("Create a location and link it to an event"),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event"),
		),
	}, locationOptions()), handleAddLocation)

	addTool(s, sc, withOptions("location_update", []mcp.ToolOption{
		mcp.WithDescription("Update location fields and push the new address to linked events. Empty fields are kept."),
		mcp.WithString("locationId",
			mcp.Required(),
			mcp.Description("The ID of the location to update"),
		),
	}, locationOptions()), handleUpdateLocation)

	addTool(s, sc, mcp.NewTool("location_delete",
		mcp.WithDescription("Delete a location and detach it from its events"),
		mcp.WithString("locationId",
			mcp.Required(),
			mcp.Description("The ID of the location to delete"),
		),
	), handleDeleteLocation)

	return nil
}

func handleGetLocation(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	id, err := common.RequiredString(request.GetArguments(), "locationId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	loc, err := sc.Locations().Get(ctx, id)
	return common.Outcome(loc, err), nil
}

func handleEventLocation(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	id, err := common.RequiredString(request.GetArguments(), "eventId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	loc, err := sc.Locations().ByEvent(ctx, id)
	return common.Outcome(loc, err), nil
}

func handleListLocations(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	page, err := common.Page(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	locs, err := sc.Locations().List(ctx, page)
	return common.Outcome(locs, err), nil
}

func handleSearchLocations(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	q, err := common.RequiredString(args, "query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := common.Page(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	locs, err := sc.Locations().Search(ctx, q, page)
	return common.Outcome(locs, err), nil
}

func handleLocationsByCity(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	city, err := common.RequiredString(args, "city")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := common.Page(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	locs, err := sc.Locations().ByCity(ctx, city, page)
	return common.Outcome(locs, err), nil
}

func handleLocationsByCountry(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	country, err := common.RequiredString(args, "country")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := common.Page(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	locs, err := sc.Locations().ByCountry(ctx, country, page)
	return common.Outcome(locs, err), nil
}

func handleNearbyLocations(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	lat, ok, err := common.Float(args, "latitude")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !ok {
		return mcp.NewToolResultError("latitude is required"), nil
	}
	lon, ok, err := common.Float(args, "longitude")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !ok {
		return mcp.NewToolResultError("longitude is required"), nil
	}
	radius, _, err := common.Float(args, "radiusKm")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := common.Page(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	locs, err := sc.Locations().Nearby(ctx, lat, lon, radius, page)
	return common.Outcome(locs, err), nil
}

func handleLocationMaps(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	id, err := common.RequiredString(request.GetArguments(), "locationId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	links, err := sc.Locations().OpenInMaps(ctx, id)
	return common.Outcome(links, err), nil
}

func handleAddLocation(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	eventID, err := common.RequiredString(args, "eventId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	in, err := locationInput(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if in == nil {
		return mcp.NewToolResultError("placeName is required"), nil
	}
	loc, err := sc.Locations().AddLocation(ctx, eventID, *in)
	return common.Outcome(loc, err), nil
}

func handleUpdateLocation(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	id, err := common.RequiredString(args, "locationId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	in, err := locationInput(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if in == nil {
		return mcp.NewToolResultError("at least one location field is required"), nil
	}
	loc, err := sc.Locations().Update(ctx, id, *in)
	return common.Outcome(loc, err), nil
}

func handleDeleteLocation(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	id, err := common.RequiredString(request.GetArguments(), "locationId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := sc.Locations().Delete(ctx, id); err != nil {
		return common.ErrorResult(err), nil
	}
	return mcp.NewToolResultText("location " + id + " deleted"), nil
}
