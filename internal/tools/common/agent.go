package common

import (
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/avollmer/agentgate/internal/google"
)

// AgentIDFromArgs extracts the required agentId argument. Every delegated
// tool call is bound to exactly one agent identity.
func AgentIDFromArgs(args map[string]interface{}) (string, bool) {
	agentID, ok := args["agentId"].(string)
	return agentID, ok && agentID != ""
}

// MissingAgentIDResult is the tool error returned when agentId is absent.
func MissingAgentIDResult() *mcp.CallToolResult {
	return mcp.NewToolResultError("'agentId' field is required")
}

// CredentialErrorResult renders a credential lifecycle error as a tool
// result. The sentinel name is surfaced so agents can react:
// not_connected means run the authorization flow, reauth_required means the
// stored grant is dead and the flow must be repeated.
func CredentialErrorResult(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, google.ErrNotConnected):
		return mcp.NewToolResultError("not_connected: agent has no stored credential; run auth_begin first")
	case errors.Is(err, google.ErrReauthRequired):
		return mcp.NewToolResultError("reauth_required: stored credential can no longer be refreshed; run auth_begin again")
	case errors.Is(err, google.ErrRefreshFailed):
		return mcp.NewToolResultError(fmt.Sprintf("refresh_failed: %v", err))
	default:
		return mcp.NewToolResultError(err.Error())
	}
}
