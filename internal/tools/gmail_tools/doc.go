// Package gmail_tools provides MCP tools for delegated Gmail access.
//
// Every tool takes a required agentId argument and operates on the Google
// account that agent was authorized for. Tools surface credential lifecycle
// errors with machine-readable prefixes (not_connected, reauth_required) so
// calling agents can trigger the authorization flow.
package gmail_tools
