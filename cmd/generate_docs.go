package cmd

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/calsync/internal/logging"
	"github.com/teemow/calsync/internal/server"
)

func newGenerateDocsCmd() *cobra.Command {
	var (
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate markdown documentation for all available MCP tools.
This command introspects the registered tools and outputs their documentation
in markdown format, ensuring the documentation is always accurate and in sync
with the actual tool implementations.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateDocs(outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runGenerateDocs(outputFile string) error {
	// Tool definitions don't depend on provider configuration, so a
	// memory store without external providers is enough.
	cfg := Config{
		Store: StoreConfig{Driver: StoreMemory},
		Cache: CacheConfig{Backend: CacheNone},
	}
	logger := logging.Discard().Logger()
	ctx := context.Background()
	services, err := buildServices(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	serverContext, err := server.NewServerContext(ctx, services, logger)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		_ = serverContext.Shutdown()
	}()

	mcpSrv := mcpserver.NewMCPServer("calsync", version,
		mcpserver.WithToolCapabilities(true),
	)

	// Register every group in write mode to document all tools.
	if err := registerAllTools(mcpSrv, serverContext, []string{ToolGroupCalendar, ToolGroupMeet}, false); err != nil {
		return err
	}

	tools := make([]mcp.Tool, 0)
	for _, st := range mcpSrv.ListTools() {
		tools = append(tools, st.Tool)
	}
	markdown := generateToolsMarkdown(tools)

	if outputFile == "" {
		fmt.Print(markdown)
		return nil
	}
	if err := os.WriteFile(outputFile, []byte(markdown), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Documentation written to: %s\n", outputFile)
	return nil
}

// categoryOrder fixes the section order of the generated reference.
var categoryOrder = []string{"Calendar Tools", "Event Tools", "Conference Tools", "Location Tools", "Other"}

func generateToolsMarkdown(tools []mcp.Tool) string {
	var sb strings.Builder

	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("Tools available when running `calsync serve` with MCP enabled.\n\n")
	sb.WriteString("**Note:** This documentation is generated from the tool definitions by `calsync generate-docs`.\n\n")

	byCategory := make(map[string][]mcp.Tool)
	for _, tool := range tools {
		c := getCategoryFromToolName(tool.Name)
		byCategory[c] = append(byCategory[c], tool)
	}

	sb.WriteString("## Table of Contents\n\n")
	for _, c := range categoryOrder {
		if len(byCategory[c]) == 0 {
			continue
		}
		anchor := strings.ToLower(strings.ReplaceAll(c, " ", "-"))
		fmt.Fprintf(&sb, "- [%s](#%s) (%d)\n", c, anchor, len(byCategory[c]))
	}
	sb.WriteString("\n")

	sb.WriteString("## Read-only Mode\n\n")
	sb.WriteString("Without `--yolo` only tools that read state are registered. ")
	sb.WriteString("Tools that create, update or delete calendars, events, locations or conferences require `--yolo`.\n\n")

	for _, c := range categoryOrder {
		list := byCategory[c]
		if len(list) == 0 {
			continue
		}
		sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
		fmt.Fprintf(&sb, "## %s\n\n", c)
		for _, tool := range list {
			sb.WriteString(generateToolMarkdown(tool))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func getCategoryFromToolName(name string) string {
	prefix, rest, _ := strings.Cut(name, "_")
	switch prefix {
	case "calendar":
		return "Calendar Tools"
	case "location":
		return "Location Tools"
	case "event":
		for _, k := range []string{"meet", "meeting", "conference", "join"} {
			if strings.Contains(rest, k) {
				return "Conference Tools"
			}
		}
		return "Event Tools"
	default:
		return "Other"
	}
}

func generateToolMarkdown(tool mcp.Tool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "### %s\n\n", tool.Name)
	if tool.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", tool.Description)
	}

	props := tool.InputSchema.Properties
	if len(props) == 0 {
		return sb.String()
	}
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	// Required arguments first, then alphabetical.
	sort.Slice(names, func(i, j int) bool {
		ri := slices.Contains(tool.InputSchema.Required, names[i])
		rj := slices.Contains(tool.InputSchema.Required, names[j])
		if ri != rj {
			return ri
		}
		return names[i] < names[j]
	})

	sb.WriteString("| Argument | Type | Required | Description |\n|---|---|---|---|\n")
	for _, name := range names {
		prop, ok := props[name].(map[string]any)
		if !ok {
			continue
		}
		propType, _ := prop["type"].(string)
		if propType == "" {
			propType = "any"
		}
		desc, _ := prop["description"].(string)
		required := "no"
		if slices.Contains(tool.InputSchema.Required, name) {
			required = "yes"
		}
		fmt.Fprintf(&sb, "| `%s` | %s | %s | %s |\n", name, propType, required, desc)
	}
	sb.WriteString("\n")
	return sb.String()
}
