package calendar_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/avollmer/agentgate/internal/calendar"
	"github.com/avollmer/agentgate/internal/instrumentation"
	"github.com/avollmer/agentgate/internal/server"
	"github.com/avollmer/agentgate/internal/tools/common"
)

// RegisterCalendarTools registers all Calendar tools with the MCP server.
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listEventsTool := mcp.NewTool("calendar_list_events",
		mcp.WithDescription("List upcoming events on the agent's primary calendar"),
		mcp.WithString("agentId",
			mcp.Required(),
			mcp.Description("Agent identity the calendar was connected under"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of events to return (default: 10)"),
		),
		mcp.WithString("timeMin",
			mcp.Description("Earliest event start time, RFC3339 (default: now)"),
		),
	)
	s.AddTool(listEventsTool, common.InstrumentedToolHandlerWithService(
		"calendar_list_events", instrumentation.ServiceCalendar, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListEvents(ctx, request, sc)
		}))

	getEventTool := mcp.NewTool("calendar_get_event",
		mcp.WithDescription("Get one calendar event including attendees"),
		mcp.WithString("agentId",
			mcp.Required(),
			mcp.Description("Agent identity the calendar was connected under"),
		),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event to fetch"),
		),
	)
	s.AddTool(getEventTool, common.InstrumentedToolHandlerWithService(
		"calendar_get_event", instrumentation.ServiceCalendar, instrumentation.OperationGet, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetEvent(ctx, request, sc)
		}))

	createEventTool := mcp.NewTool("calendar_create_event",
		mcp.WithDescription("Create an event on the agent's primary calendar"),
		mcp.WithString("agentId",
			mcp.Required(),
			mcp.Description("Agent identity the calendar was connected under"),
		),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("Event title"),
		),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Start time (RFC3339 format)"),
		),
		mcp.WithString("end",
			mcp.Required(),
			mcp.Description("End time (RFC3339 format)"),
		),
		mcp.WithString("description",
			mcp.Description("Event description"),
		),
		mcp.WithString("location",
			mcp.Description("Event location"),
		),
		mcp.WithString("attendees",
			mcp.Description("Comma-separated list of attendee email addresses"),
		),
	)
	s.AddTool(createEventTool, common.InstrumentedToolHandlerWithService(
		"calendar_create_event", instrumentation.ServiceCalendar, instrumentation.OperationCreate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateEvent(ctx, request, sc)
		}))

	updateEventTool := mcp.NewTool("calendar_update_event",
		mcp.WithDescription("Update an existing calendar event; only the supplied fields change"),
		mcp.WithString("agentId",
			mcp.Required(),
			mcp.Description("Agent identity the calendar was connected under"),
		),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event to update"),
		),
		mcp.WithString("summary",
			mcp.Description("New event title"),
		),
		mcp.WithString("description",
			mcp.Description("New event description"),
		),
		mcp.WithString("location",
			mcp.Description("New event location"),
		),
		mcp.WithString("start",
			mcp.Description("New start time (RFC3339 format)"),
		),
		mcp.WithString("end",
			mcp.Description("New end time (RFC3339 format)"),
		),
	)
	s.AddTool(updateEventTool, common.InstrumentedToolHandlerWithService(
		"calendar_update_event", instrumentation.ServiceCalendar, instrumentation.OperationUpdate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdateEvent(ctx, request, sc)
		}))

	deleteEventTool := mcp.NewTool("calendar_delete_event",
		mcp.WithDescription("Delete an event from the agent's primary calendar"),
		mcp.WithString("agentId",
			mcp.Required(),
			mcp.Description("Agent identity the calendar was connected under"),
		),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event to delete"),
		),
	)
	s.AddTool(deleteEventTool, common.InstrumentedToolHandlerWithService(
		"calendar_delete_event", instrumentation.ServiceCalendar, instrumentation.OperationDelete, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteEvent(ctx, request, sc)
		}))

	return nil
}

func handleListEvents(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	agentID, ok := common.AgentIDFromArgs(args)
	if !ok {
		return common.MissingAgentIDResult(), nil
	}

	var maxResults int64
	if v, ok := args["maxResults"].(float64); ok {
		maxResults = int64(v)
	}

	var timeMin time.Time
	if v, ok := args["timeMin"].(string); ok && v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid timeMin format: %v", err)), nil
		}
		timeMin = parsed
	}

	client, err := sc.CalendarClient(agentID)
	if err != nil {
		return common.CredentialErrorResult(err), nil
	}

	events, err := client.ListEvents(maxResults, timeMin)
	if err != nil {
		return common.CredentialErrorResult(err), nil
	}

	out, err := json.MarshalIndent(map[string]any{"events": events}, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format events: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func handleGetEvent(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	agentID, ok := common.AgentIDFromArgs(args)
	if !ok {
		return common.MissingAgentIDResult(), nil
	}

	eventID, ok := args["eventId"].(string)
	if !ok || eventID == "" {
		return mcp.NewToolResultError("'eventId' field is required"), nil
	}

	client, err := sc.CalendarClient(agentID)
	if err != nil {
		return common.CredentialErrorResult(err), nil
	}

	details, err := client.GetEvent(eventID)
	if err != nil {
		return common.CredentialErrorResult(err), nil
	}

	out, err := json.MarshalIndent(details, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format event: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// eventInputFromArgs builds an EventInput from tool arguments. Required
// fields are enforced by the caller; absent strings stay zero so updates
// remain partial.
func eventInputFromArgs(args map[string]interface{}) (calendar.EventInput, error) {
	input := calendar.EventInput{}

	if v, ok := args["summary"].(string); ok {
		input.Summary = v
	}
	if v, ok := args["description"].(string); ok {
		input.Description = v
	}
	if v, ok := args["location"].(string); ok {
		input.Location = v
	}
	if v, ok := args["start"].(string); ok && v != "" {
		start, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return input, fmt.Errorf("invalid start format: %w", err)
		}
		input.Start = start
	}
	if v, ok := args["end"].(string); ok && v != "" {
		end, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return input, fmt.Errorf("invalid end format: %w", err)
		}
		input.End = end
	}
	if v, ok := args["attendees"].(string); ok && v != "" {
		for _, email := range strings.Split(v, ",") {
			email = strings.TrimSpace(email)
			if email != "" {
				input.Attendees = append(input.Attendees, email)
			}
		}
	}

	return input, nil
}

func handleCreateEvent(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	agentID, ok := common.AgentIDFromArgs(args)
	if !ok {
		return common.MissingAgentIDResult(), nil
	}

	summary, _ := args["summary"].(string)
	if summary == "" {
		return mcp.NewToolResultError("'summary' field is required"), nil
	}
	if s, _ := args["start"].(string); s == "" {
		return mcp.NewToolResultError("'start' field is required"), nil
	}
	if e, _ := args["end"].(string); e == "" {
		return mcp.NewToolResultError("'end' field is required"), nil
	}

	input, err := eventInputFromArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := sc.CalendarClient(agentID)
	if err != nil {
		return common.CredentialErrorResult(err), nil
	}

	details, err := client.CreateEvent(input)
	if err != nil {
		return common.CredentialErrorResult(err), nil
	}

	out, err := json.MarshalIndent(details, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format event: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func handleUpdateEvent(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	agentID, ok := common.AgentIDFromArgs(args)
	if !ok {
		return common.MissingAgentIDResult(), nil
	}

	eventID, ok := args["eventId"].(string)
	if !ok || eventID == "" {
		return mcp.NewToolResultError("'eventId' field is required"), nil
	}

	input, err := eventInputFromArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := sc.CalendarClient(agentID)
	if err != nil {
		return common.CredentialErrorResult(err), nil
	}

	details, err := client.UpdateEvent(eventID, input)
	if err != nil {
		return common.CredentialErrorResult(err), nil
	}

	out, err := json.MarshalIndent(details, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format event: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func handleDeleteEvent(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	agentID, ok := common.AgentIDFromArgs(args)
	if !ok {
		return common.MissingAgentIDResult(), nil
	}

	eventID, ok := args["eventId"].(string)
	if !ok || eventID == "" {
		return mcp.NewToolResultError("'eventId' field is required"), nil
	}

	client, err := sc.CalendarClient(agentID)
	if err != nil {
		return common.CredentialErrorResult(err), nil
	}

	if err := client.DeleteEvent(eventID); err != nil {
		return common.CredentialErrorResult(err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Event %s deleted", eventID)), nil
}
