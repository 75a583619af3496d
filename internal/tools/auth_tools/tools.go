package auth_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/avollmer/agentgate/internal/server"
	"github.com/avollmer/agentgate/internal/tools/common"
)

// RegisterAuthTools registers the authorization flow tools with the MCP
// server.
func RegisterAuthTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	beginTool := mcp.NewTool("auth_begin",
		mcp.WithDescription("Begin the Google authorization flow for an agent. Returns the URL a human must open to grant access."),
		mcp.WithString("agentId",
			mcp.Required(),
			mcp.Description("Agent identity to connect a Google account for"),
		),
	)
	s.AddTool(beginTool, common.InstrumentedToolHandler("auth_begin", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleBegin(ctx, request, sc)
		}))

	completeTool := mcp.NewTool("auth_complete",
		mcp.WithDescription("Complete the authorization flow with the code Google returned after consent"),
		mcp.WithString("agentId",
			mcp.Required(),
			mcp.Description("Agent identity the authorization was started for"),
		),
		mcp.WithString("code",
			mcp.Required(),
			mcp.Description("Authorization code from the consent redirect"),
		),
	)
	s.AddTool(completeTool, common.InstrumentedToolHandler("auth_complete", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleComplete(ctx, request, sc)
		}))

	return nil
}

func handleBegin(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	agentID, ok := common.AgentIDFromArgs(request.GetArguments())
	if !ok {
		return common.MissingAgentIDResult(), nil
	}

	url := sc.Authenticator().AuthURL(agentID)
	return mcp.NewToolResultText(fmt.Sprintf("Open this URL to authorize access for the agent:\n%s", url)), nil
}

func handleComplete(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	agentID, ok := common.AgentIDFromArgs(args)
	if !ok {
		return common.MissingAgentIDResult(), nil
	}

	code, ok := args["code"].(string)
	if !ok || code == "" {
		return mcp.NewToolResultError("'code' field is required"), nil
	}

	if err := sc.Authenticator().ExchangeCode(ctx, agentID, code); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Authorization failed: %v", err)), nil
	}

	return mcp.NewToolResultText("Google account connected"), nil
}
