// Package calendar_tools provides MCP tools for delegated Google Calendar
// access. All operations target the connected account's primary calendar
// and take a required agentId argument.
package calendar_tools
