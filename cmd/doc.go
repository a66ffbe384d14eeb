// Package cmd implements the command-line interface for calsync.
//
// This package provides the following commands:
//   - serve: Start the REST API and the MCP server
//   - auth: Authorize calsync against a user's Google account
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
//
// Configuration is read from the environment, optionally seeded from a
// .env file in the working directory; command flags take precedence.
package cmd
