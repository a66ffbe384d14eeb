package common

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/calsync/internal/domain"
)

// JSONResult renders v as indented JSON text.
func JSONResult(v any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err))
	}
	return mcp.NewToolResultText(string(b))
}

// ErrorResult turns a service error into a tool error carrying the error
// code, e.g. "not_found: event abc not found". Internal causes are not
// exposed.
func ErrorResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(domain.KindOf(err).String() + ": " + domain.Message(err))
}

// Outcome renders v, or err when set. A value that was kept locally despite
// the error is appended after it so the caller sees the local state.
func Outcome(v any, err error) *mcp.CallToolResult {
	if err == nil {
		return JSONResult(v)
	}
	encoded := encodeValue(v)
	res := ErrorResult(err)
	if encoded != "" {
		res.Content = append(res.Content, mcp.NewTextContent(encoded))
	}
	return res
}

func encodeValue(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil || string(b) == "null" {
		return ""
	}
	return string(b)
}
