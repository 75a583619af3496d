// Package cmd implements the command-line interface for agentgate.
//
// This package provides the following commands:
//   - serve: Start the delegation service (HTTP API, MCP stdio, or both)
//   - version: Display version information
//
// The serve command is the default command when no subcommand is specified.
package cmd
