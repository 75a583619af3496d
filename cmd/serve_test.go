package cmd

import (
	"context"
	"testing"

	"github.com/avollmer/agentgate/internal/server"
)

func TestNewServeCmd_FlagDefaults(t *testing.T) {
	cmd := newServeCmd()

	transport, err := cmd.Flags().GetString("transport")
	if err != nil {
		t.Fatalf("expected transport flag, got %v", err)
	}
	if transport != "http" {
		t.Errorf("expected default transport http, got %q", transport)
	}

	for _, name := range []string{"listen", "metrics-addr", "db", "client-secrets", "redirect-url"} {
		v, err := cmd.Flags().GetString(name)
		if err != nil {
			t.Fatalf("expected %s flag, got %v", name, err)
		}
		if v != "" {
			t.Errorf("expected %s to default to empty (env fallback), got %q", name, v)
		}
	}
}

func TestBuildMCPServer_RegistersTools(t *testing.T) {
	sc := server.NewServerContext(context.Background(), nil, nil)
	defer func() { _ = sc.Shutdown() }()

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("tool registration panicked: %v", r)
		}
	}()

	mcpSrv := buildMCPServer(sc)
	if mcpSrv == nil {
		t.Fatal("expected MCP server")
	}
}
