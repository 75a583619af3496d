package common

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/avollmer/agentgate/internal/instrumentation"
	"github.com/avollmer/agentgate/internal/server"
)

func newToolRequest(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func TestInstrumentedToolHandler_PassthroughWithoutInstrumentation(t *testing.T) {
	sc := server.NewServerContext(context.Background(), nil, nil)
	defer func() { _ = sc.Shutdown() }()

	called := false
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		called = true
		return mcp.NewToolResultText("ok"), nil
	}

	wrapped := InstrumentedToolHandler("test_tool", sc, handler)

	result, err := wrapped(context.Background(), newToolRequest(nil))
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if !called {
		t.Error("expected handler to be called")
	}
	if result == nil {
		t.Error("expected result, got nil")
	}
}

func TestInstrumentedToolHandler_AuditsSuccess(t *testing.T) {
	sc := server.NewServerContext(context.Background(), nil, nil)
	defer func() { _ = sc.Shutdown() }()

	var buf bytes.Buffer
	audit := instrumentation.NewAuditLogger(
		slog.New(slog.NewJSONHandler(&buf, nil)),
		instrumentation.AuditLoggingConfig{Enabled: true},
	)
	sc.SetInstrumentation(&instrumentation.Metrics{}, audit)

	wrapped := InstrumentedToolHandler("gmail_list_messages", sc,
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("ok"), nil
		})

	req := newToolRequest(map[string]interface{}{"agentId": "agent-1"})
	if _, err := wrapped(context.Background(), req); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "agent_action") {
		t.Errorf("expected audit entry, got %q", out)
	}
	if !strings.Contains(out, "gmail_list_messages") {
		t.Errorf("expected tool name in audit entry, got %q", out)
	}
	if strings.Contains(out, `"agent-1"`) {
		t.Error("expected agent id to be anonymized in audit entry")
	}
}

func TestInstrumentedToolHandler_AuditsHandlerError(t *testing.T) {
	sc := server.NewServerContext(context.Background(), nil, nil)
	defer func() { _ = sc.Shutdown() }()

	var buf bytes.Buffer
	audit := instrumentation.NewAuditLogger(
		slog.New(slog.NewJSONHandler(&buf, nil)),
		instrumentation.AuditLoggingConfig{Enabled: true},
	)
	sc.SetInstrumentation(nil, audit)

	wantErr := errors.New("backend down")
	wrapped := InstrumentedToolHandler("test_tool", sc,
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return nil, wantErr
		})

	_, err := wrapped(context.Background(), newToolRequest(nil))
	if !errors.Is(err, wantErr) {
		t.Errorf("expected handler error to be returned, got %v", err)
	}

	if !strings.Contains(buf.String(), "agent_action_failed") {
		t.Errorf("expected failure audit entry, got %q", buf.String())
	}
}

func TestInstrumentedToolHandler_ErrorResultCountsAsFailure(t *testing.T) {
	sc := server.NewServerContext(context.Background(), nil, nil)
	defer func() { _ = sc.Shutdown() }()

	var buf bytes.Buffer
	audit := instrumentation.NewAuditLogger(
		slog.New(slog.NewJSONHandler(&buf, nil)),
		instrumentation.AuditLoggingConfig{Enabled: true},
	)
	sc.SetInstrumentation(nil, audit)

	wrapped := InstrumentedToolHandler("test_tool", sc,
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultError("bad input"), nil
		})

	if _, err := wrapped(context.Background(), newToolRequest(nil)); err != nil {
		t.Fatalf("expected no transport error, got %v", err)
	}

	if !strings.Contains(buf.String(), "agent_action_failed") {
		t.Errorf("expected failure audit entry for error result, got %q", buf.String())
	}
}
