package common

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/avollmer/agentgate/internal/google"
)

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("expected result content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func TestAgentIDFromArgs(t *testing.T) {
	tests := []struct {
		name   string
		args   map[string]interface{}
		wantID string
		wantOK bool
	}{
		{
			name:   "agent id provided",
			args:   map[string]interface{}{"agentId": "research-agent"},
			wantID: "research-agent",
			wantOK: true,
		},
		{
			name:   "missing agent id",
			args:   map[string]interface{}{},
			wantOK: false,
		},
		{
			name:   "empty agent id",
			args:   map[string]interface{}{"agentId": ""},
			wantOK: false,
		},
		{
			name:   "wrong type",
			args:   map[string]interface{}{"agentId": 42},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := AgentIDFromArgs(tt.args)
			if ok != tt.wantOK {
				t.Errorf("AgentIDFromArgs() ok = %v, want %v", ok, tt.wantOK)
			}
			if id != tt.wantID {
				t.Errorf("AgentIDFromArgs() id = %q, want %q", id, tt.wantID)
			}
		})
	}
}

func TestCredentialErrorResult(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantPrefix string
	}{
		{
			name:       "not connected",
			err:        fmt.Errorf("%w: no credential", google.ErrNotConnected),
			wantPrefix: "not_connected",
		},
		{
			name:       "reauth required",
			err:        fmt.Errorf("%w: refresh token gone", google.ErrReauthRequired),
			wantPrefix: "reauth_required",
		},
		{
			name:       "refresh failed",
			err:        fmt.Errorf("%w: upstream 500", google.ErrRefreshFailed),
			wantPrefix: "refresh_failed",
		},
		{
			name:       "other error",
			err:        errors.New("quota exceeded"),
			wantPrefix: "quota exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CredentialErrorResult(tt.err)
			if !result.IsError {
				t.Error("expected error result")
			}
			if text := resultText(t, result); !strings.HasPrefix(text, tt.wantPrefix) {
				t.Errorf("expected prefix %q, got %q", tt.wantPrefix, text)
			}
		})
	}
}

func TestMissingAgentIDResult(t *testing.T) {
	result := MissingAgentIDResult()
	if !result.IsError {
		t.Error("expected error result")
	}
	if text := resultText(t, result); !strings.Contains(text, "agentId") {
		t.Errorf("expected agentId mention, got %q", text)
	}
}
