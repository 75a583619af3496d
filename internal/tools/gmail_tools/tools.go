package gmail_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/avollmer/agentgate/internal/instrumentation"
	"github.com/avollmer/agentgate/internal/server"
	"github.com/avollmer/agentgate/internal/tools/common"
)

// RegisterGmailTools registers all Gmail tools with the MCP server.
func RegisterGmailTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listMessagesTool := mcp.NewTool("gmail_list_messages",
		mcp.WithDescription("List recent Gmail messages for an agent's connected account"),
		mcp.WithString("agentId",
			mcp.Required(),
			mcp.Description("Agent identity the Gmail account was connected under"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of messages to return (default: 5)"),
		),
	)
	s.AddTool(listMessagesTool, common.InstrumentedToolHandlerWithService(
		"gmail_list_messages", instrumentation.ServiceGmail, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListMessages(ctx, request, sc)
		}))

	readMessageTool := mcp.NewTool("gmail_read_message",
		mcp.WithDescription("Read one Gmail message: subject, sender and a plain-text body preview"),
		mcp.WithString("agentId",
			mcp.Required(),
			mcp.Description("Agent identity the Gmail account was connected under"),
		),
		mcp.WithString("messageId",
			mcp.Required(),
			mcp.Description("The ID of the message to read"),
		),
	)
	s.AddTool(readMessageTool, common.InstrumentedToolHandlerWithService(
		"gmail_read_message", instrumentation.ServiceGmail, instrumentation.OperationGet, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleReadMessage(ctx, request, sc)
		}))

	sendMessageTool := mcp.NewTool("gmail_send_message",
		mcp.WithDescription("Send a plain-text email from the agent's connected account"),
		mcp.WithString("agentId",
			mcp.Required(),
			mcp.Description("Agent identity the Gmail account was connected under"),
		),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Recipient email address"),
		),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.Description("Email subject"),
		),
		mcp.WithString("body",
			mcp.Required(),
			mcp.Description("Email body content"),
		),
	)
	s.AddTool(sendMessageTool, common.InstrumentedToolHandlerWithService(
		"gmail_send_message", instrumentation.ServiceGmail, instrumentation.OperationSend, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSendMessage(ctx, request, sc)
		}))

	listLabelsTool := mcp.NewTool("gmail_list_labels",
		mcp.WithDescription("List the labels of the agent's connected Gmail account"),
		mcp.WithString("agentId",
			mcp.Required(),
			mcp.Description("Agent identity the Gmail account was connected under"),
		),
	)
	s.AddTool(listLabelsTool, common.InstrumentedToolHandlerWithService(
		"gmail_list_labels", instrumentation.ServiceGmail, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListLabels(ctx, request, sc)
		}))

	modifyMessageTool := mcp.NewTool("gmail_modify_message",
		mcp.WithDescription("Add or remove labels on a Gmail message"),
		mcp.WithString("agentId",
			mcp.Required(),
			mcp.Description("Agent identity the Gmail account was connected under"),
		),
		mcp.WithString("messageId",
			mcp.Required(),
			mcp.Description("The ID of the message to modify"),
		),
		mcp.WithString("addLabels",
			mcp.Description("Comma-separated label IDs to add"),
		),
		mcp.WithString("removeLabels",
			mcp.Description("Comma-separated label IDs to remove"),
		),
	)
	s.AddTool(modifyMessageTool, common.InstrumentedToolHandlerWithService(
		"gmail_modify_message", instrumentation.ServiceGmail, instrumentation.OperationModify, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleModifyMessage(ctx, request, sc)
		}))

	return nil
}

func handleListMessages(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	agentID, ok := common.AgentIDFromArgs(args)
	if !ok {
		return common.MissingAgentIDResult(), nil
	}

	var maxResults int64
	if v, ok := args["maxResults"].(float64); ok {
		maxResults = int64(v)
	}

	client, err := sc.GmailClient(agentID)
	if err != nil {
		return common.CredentialErrorResult(err), nil
	}

	messages, err := client.ListMessages(maxResults)
	if err != nil {
		return common.CredentialErrorResult(err), nil
	}

	out, err := json.MarshalIndent(map[string]any{"messages": messages}, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format messages: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func handleReadMessage(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	agentID, ok := common.AgentIDFromArgs(args)
	if !ok {
		return common.MissingAgentIDResult(), nil
	}

	messageID, ok := args["messageId"].(string)
	if !ok || messageID == "" {
		return mcp.NewToolResultError("'messageId' field is required"), nil
	}

	client, err := sc.GmailClient(agentID)
	if err != nil {
		return common.CredentialErrorResult(err), nil
	}

	details, err := client.GetMessage(messageID)
	if err != nil {
		return common.CredentialErrorResult(err), nil
	}

	out, err := json.MarshalIndent(details, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format message: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func handleSendMessage(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	agentID, ok := common.AgentIDFromArgs(args)
	if !ok {
		return common.MissingAgentIDResult(), nil
	}

	to, ok := args["to"].(string)
	if !ok || to == "" {
		return mcp.NewToolResultError("'to' field is required"), nil
	}
	subject, _ := args["subject"].(string)
	body, _ := args["body"].(string)

	client, err := sc.GmailClient(agentID)
	if err != nil {
		return common.CredentialErrorResult(err), nil
	}

	messageID, err := client.SendMessage(to, subject, body)
	if err != nil {
		return common.CredentialErrorResult(err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Message sent with ID %s", messageID)), nil
}

func handleListLabels(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	agentID, ok := common.AgentIDFromArgs(request.GetArguments())
	if !ok {
		return common.MissingAgentIDResult(), nil
	}

	client, err := sc.GmailClient(agentID)
	if err != nil {
		return common.CredentialErrorResult(err), nil
	}

	labels, err := client.ListLabels()
	if err != nil {
		return common.CredentialErrorResult(err), nil
	}

	out, err := json.MarshalIndent(map[string]any{"labels": labels}, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format labels: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func handleModifyMessage(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	agentID, ok := common.AgentIDFromArgs(args)
	if !ok {
		return common.MissingAgentIDResult(), nil
	}

	messageID, ok := args["messageId"].(string)
	if !ok || messageID == "" {
		return mcp.NewToolResultError("'messageId' field is required"), nil
	}

	addLabels := splitLabels(args["addLabels"])
	removeLabels := splitLabels(args["removeLabels"])
	if len(addLabels) == 0 && len(removeLabels) == 0 {
		return mcp.NewToolResultError("at least one of 'addLabels' or 'removeLabels' is required"), nil
	}

	client, err := sc.GmailClient(agentID)
	if err != nil {
		return common.CredentialErrorResult(err), nil
	}

	if err := client.ModifyMessage(messageID, addLabels, removeLabels); err != nil {
		return common.CredentialErrorResult(err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Message %s modified", messageID)), nil
}

func splitLabels(v interface{}) []string {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}

	var labels []string
	for _, label := range strings.Split(s, ",") {
		label = strings.TrimSpace(label)
		if label != "" {
			labels = append(labels, label)
		}
	}
	return labels
}
