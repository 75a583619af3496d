// Package secret_tools provides MCP tools for the per-agent encrypted
// secret store. Secrets are grouped by service name and stored as string
// maps; a put replaces the whole map for that service.
package secret_tools
