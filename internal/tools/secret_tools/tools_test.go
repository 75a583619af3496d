package secret_tools

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/avollmer/agentgate/internal/crypto"
	"github.com/avollmer/agentgate/internal/server"
	"github.com/avollmer/agentgate/internal/store"
)

func newToolRequest(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func setupContext(t *testing.T) *server.ServerContext {
	t.Helper()

	db, err := store.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	gate, err := crypto.New(bytes.Repeat([]byte{0x22}, crypto.KeySize))
	if err != nil {
		t.Fatalf("create gate: %v", err)
	}

	sc := server.NewServerContext(context.Background(), nil, store.NewSecretStore(db, gate))
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestSecretTools_PutGetDelete(t *testing.T) {
	sc := setupContext(t)
	ctx := context.Background()

	result, err := handlePut(ctx, newToolRequest(map[string]interface{}{
		"agentId": "agent-1",
		"service": "openai",
		"data":    `{"api_key":"sk-123"}`,
	}), sc)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if result.IsError {
		t.Fatalf("put failed: %s", resultText(t, result))
	}

	result, err = handleGet(ctx, newToolRequest(map[string]interface{}{
		"agentId": "agent-1",
		"service": "openai",
	}), sc)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if result.IsError {
		t.Fatalf("get failed: %s", resultText(t, result))
	}
	if text := resultText(t, result); !strings.Contains(text, "sk-123") {
		t.Errorf("expected secret value in result, got %q", text)
	}

	result, err = handleDelete(ctx, newToolRequest(map[string]interface{}{
		"agentId": "agent-1",
		"service": "openai",
	}), sc)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if result.IsError {
		t.Fatalf("delete failed: %s", resultText(t, result))
	}

	result, err = handleGet(ctx, newToolRequest(map[string]interface{}{
		"agentId": "agent-1",
		"service": "openai",
	}), sc)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if !result.IsError {
		t.Error("expected error result after delete")
	}
}

func TestSecretTools_PutReplacesWholeMap(t *testing.T) {
	sc := setupContext(t)
	ctx := context.Background()

	for _, data := range []string{`{"a":"1","b":"2"}`, `{"c":"3"}`} {
		result, err := handlePut(ctx, newToolRequest(map[string]interface{}{
			"agentId": "agent-1",
			"service": "svc",
			"data":    data,
		}), sc)
		if err != nil || result.IsError {
			t.Fatalf("put failed: %v %v", err, result)
		}
	}

	result, err := handleGet(ctx, newToolRequest(map[string]interface{}{
		"agentId": "agent-1",
		"service": "svc",
	}), sc)
	if err != nil || result.IsError {
		t.Fatalf("get failed: %v %v", err, result)
	}

	text := resultText(t, result)
	if strings.Contains(text, `"a"`) {
		t.Errorf("expected old keys to be replaced, got %q", text)
	}
	if !strings.Contains(text, `"c"`) {
		t.Errorf("expected new key present, got %q", text)
	}
}

func TestSecretTools_Validation(t *testing.T) {
	sc := setupContext(t)
	ctx := context.Background()

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{
			name: "missing agent id",
			args: map[string]interface{}{"service": "svc", "data": `{"a":"1"}`},
		},
		{
			name: "missing service",
			args: map[string]interface{}{"agentId": "agent-1", "data": `{"a":"1"}`},
		},
		{
			name: "missing data",
			args: map[string]interface{}{"agentId": "agent-1", "service": "svc"},
		},
		{
			name: "malformed data",
			args: map[string]interface{}{"agentId": "agent-1", "service": "svc", "data": "not json"},
		},
		{
			name: "empty data object",
			args: map[string]interface{}{"agentId": "agent-1", "service": "svc", "data": "{}"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := handlePut(ctx, newToolRequest(tt.args), sc)
			if err != nil {
				t.Fatalf("expected no transport error, got %v", err)
			}
			if !result.IsError {
				t.Error("expected error result")
			}
		})
	}
}

func TestSecretTools_DeleteMissing(t *testing.T) {
	sc := setupContext(t)

	result, err := handleDelete(context.Background(), newToolRequest(map[string]interface{}{
		"agentId": "agent-1",
		"service": "unknown",
	}), sc)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !result.IsError {
		t.Error("expected error result for unknown service")
	}
}
