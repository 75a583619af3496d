package gmail_tools

import (
	"context"
	"reflect"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/avollmer/agentgate/internal/server"
)

func newToolRequest(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func TestSplitLabels(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want []string
	}{
		{
			name: "single label",
			in:   "INBOX",
			want: []string{"INBOX"},
		},
		{
			name: "multiple labels with spaces",
			in:   "INBOX, UNREAD ,STARRED",
			want: []string{"INBOX", "UNREAD", "STARRED"},
		},
		{
			name: "empty string",
			in:   "",
			want: nil,
		},
		{
			name: "missing value",
			in:   nil,
			want: nil,
		},
		{
			name: "wrong type",
			in:   42,
			want: nil,
		},
		{
			name: "stray commas",
			in:   ",INBOX,,",
			want: []string{"INBOX"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := splitLabels(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitLabels(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestHandlers_RequireAgentID(t *testing.T) {
	sc := server.NewServerContext(context.Background(), nil, nil)
	defer func() { _ = sc.Shutdown() }()

	handlers := map[string]func(context.Context, mcp.CallToolRequest, *server.ServerContext) (*mcp.CallToolResult, error){
		"list":   handleListMessages,
		"read":   handleReadMessage,
		"send":   handleSendMessage,
		"labels": handleListLabels,
		"modify": handleModifyMessage,
	}

	for name, handler := range handlers {
		t.Run(name, func(t *testing.T) {
			result, err := handler(context.Background(), newToolRequest(nil), sc)
			if err != nil {
				t.Fatalf("expected no transport error, got %v", err)
			}
			if !result.IsError {
				t.Error("expected error result without agentId")
			}
		})
	}
}

func TestHandleModifyMessage_RequiresLabels(t *testing.T) {
	sc := server.NewServerContext(context.Background(), nil, nil)
	defer func() { _ = sc.Shutdown() }()

	result, err := handleModifyMessage(context.Background(), newToolRequest(map[string]interface{}{
		"agentId":   "agent-1",
		"messageId": "msg-1",
	}), sc)
	if err != nil {
		t.Fatalf("expected no transport error, got %v", err)
	}
	if !result.IsError {
		t.Error("expected error result without label changes")
	}
}
