// Package auth_tools provides MCP tools for the OAuth authorization flow:
// auth_begin hands the agent a Google authorization URL, auth_complete
// exchanges the resulting code and stores the encrypted credential.
package auth_tools
