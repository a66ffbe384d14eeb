// Package common provides shared helpers for the calsync MCP tools:
// argument extraction, result encoding and handler instrumentation.
package common
