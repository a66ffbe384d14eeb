package cmd

import (
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
)

func TestGetCategoryFromToolName(t *testing.T) {
	tests := map[string]string{
		"calendar_list":           "Calendar Tools",
		"event_get":               "Event Tools",
		"event_search":            "Event Tools",
		"event_add_meet":          "Conference Tools",
		"event_remove_meeting":    "Conference Tools",
		"event_attach_conference": "Conference Tools",
		"event_join_info":         "Conference Tools",
		"event_attach_location":   "Event Tools",
		"location_nearby":         "Location Tools",
		"unknown":                 "Other",
	}
	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, want, getCategoryFromToolName(name))
		})
	}
}

func TestGenerateToolsMarkdown(t *testing.T) {
	tools := []mcp.Tool{
		mcp.NewTool("location_get",
			mcp.WithDescription("Get a location"),
			mcp.WithString("locationId", mcp.Required(), mcp.Description("Location ID")),
		),
		mcp.NewTool("calendar_create",
			mcp.WithDescription("Create a calendar"),
			mcp.WithString("userId", mcp.Required(), mcp.Description("Owner")),
			mcp.WithBoolean("primary", mcp.Description("Make it the primary calendar")),
		),
	}

	md := generateToolsMarkdown(tools)

	assert.Contains(t, md, "# MCP Tools Reference")
	assert.Contains(t, md, "- [Calendar Tools](#calendar-tools) (1)")
	assert.Contains(t, md, "### calendar_create")
	assert.Contains(t, md, "| `userId` | string | yes | Owner |")
	assert.Contains(t, md, "| `primary` | boolean | no | Make it the primary calendar |")
	assert.NotContains(t, md, "## Event Tools")
	assert.Less(t, strings.Index(md, "## Calendar Tools"), strings.Index(md, "## Location Tools"))
	assert.Less(t, strings.Index(md, "`userId`"), strings.Index(md, "`primary`"), "required arguments come first")
}
