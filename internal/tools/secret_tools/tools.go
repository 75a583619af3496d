package secret_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/avollmer/agentgate/internal/server"
	"github.com/avollmer/agentgate/internal/store"
	"github.com/avollmer/agentgate/internal/tools/common"
)

// RegisterSecretTools registers the secret store tools with the MCP server.
func RegisterSecretTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	putTool := mcp.NewTool("secrets_put",
		mcp.WithDescription("Store credentials for a third-party service, encrypted at rest. Replaces any existing secret for that service."),
		mcp.WithString("agentId",
			mcp.Required(),
			mcp.Description("Agent identity the secret belongs to"),
		),
		mcp.WithString("service",
			mcp.Required(),
			mcp.Description("Service name the secret is for (e.g., 'openai', 'github')"),
		),
		mcp.WithString("data",
			mcp.Required(),
			mcp.Description("JSON object of string key/value pairs to store"),
		),
	)
	s.AddTool(putTool, common.InstrumentedToolHandler("secrets_put", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handlePut(ctx, request, sc)
		}))

	getTool := mcp.NewTool("secrets_get",
		mcp.WithDescription("Retrieve the stored credentials for a third-party service"),
		mcp.WithString("agentId",
			mcp.Required(),
			mcp.Description("Agent identity the secret belongs to"),
		),
		mcp.WithString("service",
			mcp.Required(),
			mcp.Description("Service name the secret is for"),
		),
	)
	s.AddTool(getTool, common.InstrumentedToolHandler("secrets_get", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGet(ctx, request, sc)
		}))

	deleteTool := mcp.NewTool("secrets_delete",
		mcp.WithDescription("Delete the stored credentials for a third-party service"),
		mcp.WithString("agentId",
			mcp.Required(),
			mcp.Description("Agent identity the secret belongs to"),
		),
		mcp.WithString("service",
			mcp.Required(),
			mcp.Description("Service name the secret is for"),
		),
	)
	s.AddTool(deleteTool, common.InstrumentedToolHandler("secrets_delete", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDelete(ctx, request, sc)
		}))

	return nil
}

func requireService(args map[string]interface{}) (string, *mcp.CallToolResult) {
	service, ok := args["service"].(string)
	if !ok || service == "" {
		return "", mcp.NewToolResultError("'service' field is required")
	}
	return service, nil
}

func handlePut(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	agentID, ok := common.AgentIDFromArgs(args)
	if !ok {
		return common.MissingAgentIDResult(), nil
	}

	service, errResult := requireService(args)
	if errResult != nil {
		return errResult, nil
	}

	raw, ok := args["data"].(string)
	if !ok || raw == "" {
		return mcp.NewToolResultError("'data' field is required"), nil
	}

	var data map[string]string
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("'data' must be a JSON object of strings: %v", err)), nil
	}
	if len(data) == 0 {
		return mcp.NewToolResultError("'data' must not be empty"), nil
	}

	if _, err := sc.Secrets().Put(ctx, agentID, service, data); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to store secret: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Secret stored for service %s", service)), nil
}

func handleGet(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	agentID, ok := common.AgentIDFromArgs(args)
	if !ok {
		return common.MissingAgentIDResult(), nil
	}

	service, errResult := requireService(args)
	if errResult != nil {
		return errResult, nil
	}

	secret, err := sc.Secrets().Get(ctx, agentID, service)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("No secret stored for service %s", service)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to read secret: %v", err)), nil
	}

	out, err := json.MarshalIndent(map[string]any{
		"service": secret.ServiceName,
		"data":    secret.Data,
	}, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format secret: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func handleDelete(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	agentID, ok := common.AgentIDFromArgs(args)
	if !ok {
		return common.MissingAgentIDResult(), nil
	}

	service, errResult := requireService(args)
	if errResult != nil {
		return errResult, nil
	}

	if err := sc.Secrets().Delete(ctx, agentID, service); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("No secret stored for service %s", service)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to delete secret: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Secret deleted for service %s", service)), nil
}
