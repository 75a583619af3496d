package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/avollmer/agentgate/internal/config"
	"github.com/avollmer/agentgate/internal/crypto"
	"github.com/avollmer/agentgate/internal/google"
	"github.com/avollmer/agentgate/internal/instrumentation"
	"github.com/avollmer/agentgate/internal/logging"
	"github.com/avollmer/agentgate/internal/server"
	"github.com/avollmer/agentgate/internal/store"
	"github.com/avollmer/agentgate/internal/tools/auth_tools"
	"github.com/avollmer/agentgate/internal/tools/calendar_tools"
	"github.com/avollmer/agentgate/internal/tools/gmail_tools"
	"github.com/avollmer/agentgate/internal/tools/secret_tools"
)

// serveOptions holds flag overrides for the serve command. Empty values
// fall back to environment configuration.
type serveOptions struct {
	transport         string
	listenAddr        string
	metricsAddr       string
	dbPath            string
	clientSecretsPath string
	redirectURL       string
	debug             bool
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the delegation service",
		Long: `Start the agentgate delegation service.

Supports multiple transport types:
  - http: HTTP API for agents and the OAuth consent callback (default)
  - stdio: MCP (Model Context Protocol) server on standard input/output
  - both: HTTP API plus the MCP stdio server

Configuration:
  AGENTGATE_ENCRYPTION_KEY (required):
    AES-256 key protecting tokens and secrets at rest, base64 encoded.
    Generate with: openssl rand -base64 32

  AGENTGATE_CLIENT_SECRETS, AGENTGATE_REDIRECT_URL, AGENTGATE_SCOPES,
  AGENTGATE_LISTEN_ADDR, AGENTGATE_METRICS_ADDR, AGENTGATE_DB_PATH:
    Optional, with defaults suitable for local development. Flags
    override environment variables.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	cmd.Flags().StringVar(&opts.transport, "transport", "http", "Transport type: http, stdio or both")
	cmd.Flags().StringVar(&opts.listenAddr, "listen", "", "HTTP API listen address. Can also use AGENTGATE_LISTEN_ADDR env var.")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Metrics server address. Can also use AGENTGATE_METRICS_ADDR env var.")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "Path to the SQLite database file. Can also use AGENTGATE_DB_PATH env var.")
	cmd.Flags().StringVar(&opts.clientSecretsPath, "client-secrets", "", "Path to the Google OAuth client secrets JSON file. Can also use AGENTGATE_CLIENT_SECRETS env var.")
	cmd.Flags().StringVar(&opts.redirectURL, "redirect-url", "", "OAuth redirect URL registered with Google. Can also use AGENTGATE_REDIRECT_URL env var.")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	return cmd
}

func runServe(opts serveOptions) error {
	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if opts.listenAddr != "" {
		cfg.ListenAddr = opts.listenAddr
	}
	if opts.metricsAddr != "" {
		cfg.MetricsAddr = opts.metricsAddr
	}
	if opts.dbPath != "" {
		cfg.DBPath = opts.dbPath
	}
	if opts.clientSecretsPath != "" {
		cfg.ClientSecretsPath = opts.clientSecretsPath
	}
	if opts.redirectURL != "" {
		cfg.RedirectURL = opts.redirectURL
	}

	// Logs go to stderr so the stdio transport keeps stdout for MCP frames.
	logger := logging.New(os.Stderr, opts.debug)

	gate, err := crypto.New(cfg.EncryptionKey)
	if err != nil {
		return fmt.Errorf("failed to initialize encryption: %w", err)
	}

	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("error closing database", logging.Err(err))
		}
	}()

	creds := store.NewCredentialStore(db, gate)
	secrets := store.NewSecretStore(db, gate)

	clientSecrets, err := google.LoadClientSecrets(cfg.ClientSecretsPath)
	if err != nil {
		return fmt.Errorf("failed to load client secrets: %w", err)
	}
	auth := google.NewAuthenticator(clientSecrets.OAuthConfig(cfg.RedirectURL, cfg.Scopes), creds, logger)

	serverContext := server.NewServerContext(ctx, auth, secrets)
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Error("error during server context shutdown", logging.Err(err))
		}
	}()

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Error("error during instrumentation shutdown", logging.Err(err))
		}
	}()

	if provider.Enabled() {
		audit := instrumentation.NewAuditLogger(logger, instrConfig.AuditLogging)
		serverContext.SetInstrumentation(provider.Metrics(), audit)
		auth.SetMetrics(provider.Metrics())
	}

	switch opts.transport {
	case "stdio":
		return runStdioServer(buildMCPServer(serverContext))
	case "http":
		return runHTTPServer(ctx, cfg, serverContext, logger, provider)
	case "both":
		stdioErr := make(chan error, 1)
		go func() {
			stdioErr <- runStdioServer(buildMCPServer(serverContext))
		}()
		httpErr := make(chan error, 1)
		go func() {
			httpErr <- runHTTPServer(ctx, cfg, serverContext, logger, provider)
		}()
		select {
		case err := <-stdioErr:
			cancel()
			<-httpErr
			return err
		case err := <-httpErr:
			return err
		}
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: http, stdio, both)", opts.transport)
	}
}

// buildMCPServer creates the MCP server and registers all tool groups.
func buildMCPServer(sc *server.ServerContext) *mcpserver.MCPServer {
	mcpSrv := mcpserver.NewMCPServer("agentgate", version,
		mcpserver.WithToolCapabilities(true),
	)

	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Auth",
			register: func() error {
				return auth_tools.RegisterAuthTools(mcpSrv, sc)
			},
		},
		{
			name: "Gmail",
			register: func() error {
				return gmail_tools.RegisterGmailTools(mcpSrv, sc)
			},
		},
		{
			name: "Calendar",
			register: func() error {
				return calendar_tools.RegisterCalendarTools(mcpSrv, sc)
			},
		},
		{
			name: "Secrets",
			register: func() error {
				return secret_tools.RegisterSecretTools(mcpSrv, sc)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			// Registration only fails on programmer error (duplicate tool
			// names), which should never survive development.
			panic(fmt.Sprintf("failed to register %s tools: %v", reg.name, err))
		}
	}

	return mcpSrv
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	if err := mcpserver.ServeStdio(mcpSrv); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runHTTPServer(ctx context.Context, cfg *config.Config, sc *server.ServerContext, logger *slog.Logger, provider *instrumentation.Provider) error {
	api := server.NewAPI(sc, logger, sc.Metrics(), sc.AuditLogger())
	httpSrv := server.NewHTTPServer(cfg.ListenAddr, api.Handler(), logger)

	var metricsServer *server.MetricsServer
	if provider.Enabled() {
		var err error
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    cfg.MetricsAddr,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", logging.Err(err))
			}
		}()
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	api.Health().SetReady(true)

	select {
	case <-ctx.Done():
		api.Health().SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("error during metrics server shutdown", logging.Err(err))
			}
		}
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	return nil
}
