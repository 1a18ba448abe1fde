package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/servar-dev/servar/internal/config"
	"github.com/servar-dev/servar/internal/google"
	"github.com/servar-dev/servar/internal/instrumentation"
	"github.com/servar-dev/servar/internal/server"
	"github.com/servar-dev/servar/internal/tools/classroom_tools"
	"github.com/servar-dev/servar/internal/tools/drive_tools"
	"github.com/servar-dev/servar/internal/tools/gmail_tools"
)

const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"

	defaultMetricsAddr = "127.0.0.1:9090"
	shutdownTimeout    = 30 * time.Second
)

// serveOptions holds the flags of the serve command.
type serveOptions struct {
	commonFlags

	transport      string
	httpAddr       string
	metricsEnabled bool
	metricsAddr    string
	warm           bool
	noInteractive  bool
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server providing Gmail, Google Drive
and Google Classroom tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport at /mcp, with /healthz and /readyz

Configuration is read from (lowest to highest precedence) built-in defaults,
the YAML file given by --config or SERVAR_CONFIG, the .env file, the
environment and finally command line flags.

Provider clients are built on first use. Use --warm to authorize every
provider before serving, and --no-interactive to fail instead of opening a
browser when a token file is missing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&opts.transport, "transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", server.DefaultHTTPAddr, "HTTP server address (for streamable-http transport)")
	cmd.Flags().BoolVar(&opts.metricsEnabled, "metrics-enabled", true, "Serve Prometheus metrics (for streamable-http transport)")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", defaultMetricsAddr, "Metrics server address")
	cmd.Flags().BoolVar(&opts.warm, "warm", false, "Authorize all providers before serving")
	cmd.Flags().BoolVar(&opts.noInteractive, "no-interactive", false, "Never open a browser; fail when a token file is missing")

	return cmd
}

func runServe(cmd *cobra.Command, opts *serveOptions) error {
	if opts.transport != transportStdio && opts.transport != transportStreamableHTTP {
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", opts.transport)
	}

	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger, err := opts.setupLogger()
	if err != nil {
		return err
	}

	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Warn("error during instrumentation shutdown", "error", err)
		}
	}()

	serverContext, err := newServerContext(shutdownCtx, cfg, logger, provider, instrConfig, !opts.noInteractive)
	if err != nil {
		return err
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("error during server context shutdown", "error", err)
		}
	}()

	if opts.warm {
		if err := serverContext.Warm(shutdownCtx); err != nil {
			// Failed providers are retried on their first tool call.
			logger.Warn("provider warm-up incomplete", "error", err)
		}
	}

	mcpSrv := mcpserver.NewMCPServer("servar", version,
		mcpserver.WithToolCapabilities(true),
	)
	if err := registerAllTools(mcpSrv, serverContext); err != nil {
		return err
	}

	switch opts.transport {
	case transportStreamableHTTP:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, provider, opts, logger)
	default:
		return runStdioServer(mcpSrv, logger)
	}
}

func newServerContext(
	ctx context.Context,
	cfg config.Config,
	logger *slog.Logger,
	provider *instrumentation.Provider,
	instrConfig instrumentation.Config,
	interactive bool,
) (*server.ServerContext, error) {
	scOpts := []server.Option{server.WithLogger(logger)}

	// Set metrics and audit logger on server context for tool instrumentation
	if provider.Enabled() {
		scOpts = append(scOpts,
			server.WithMetrics(provider.Metrics()),
			server.WithAuditLogger(instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging)),
		)
	}

	if interactive {
		scOpts = append(scOpts, server.WithHandshaker(newHandshaker(cfg, logger)))
	} else {
		scOpts = append(scOpts, server.WithHandshaker(nil))
	}

	serverContext, err := server.NewServerContext(ctx, cfg, scOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create server context: %w", err)
	}
	return serverContext, nil
}

func newHandshaker(cfg config.Config, logger *slog.Logger) *google.LocalServerHandshake {
	return &google.LocalServerHandshake{
		OpenBrowser: google.OpenBrowser,
		Out:         os.Stderr,
		Timeout:     cfg.HandshakeTimeout,
		Logger:      logger,
	}
}

// registerAllTools registers all MCP tools
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext) error {
	if err := gmail_tools.RegisterGmailTools(mcpSrv, sc); err != nil {
		return fmt.Errorf("failed to register Gmail tools: %w", err)
	}

	if err := drive_tools.RegisterDriveTools(mcpSrv, sc); err != nil {
		return fmt.Errorf("failed to register Drive tools: %w", err)
	}

	if err := classroom_tools.RegisterClassroomTools(mcpSrv, sc); err != nil {
		return fmt.Errorf("failed to register Classroom tools: %w", err)
	}

	return nil
}

func runStdioServer(mcpSrv *mcpserver.MCPServer, logger *slog.Logger) error {
	logger.Debug("serving MCP over stdio")

	errLogger := slog.NewLogLogger(logger.Handler(), slog.LevelError)
	if err := mcpserver.ServeStdio(mcpSrv, mcpserver.WithErrorLogger(errLogger)); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(
	ctx context.Context,
	mcpSrv *mcpserver.MCPServer,
	sc *server.ServerContext,
	provider *instrumentation.Provider,
	opts *serveOptions,
	logger *slog.Logger,
) error {
	if opts.metricsEnabled && provider.PrometheusHandler() != nil {
		metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    opts.metricsAddr,
			InstrumentationProvider: provider,
			Logger:                  logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		if err := metricsServer.Listen(); err != nil {
			return fmt.Errorf("metrics server failed to start: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.Error("metrics server stopped with error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("error during metrics server shutdown", "error", err)
			}
		}()
		logger.Info("metrics server started", "addr", metricsServer.Addr())
	}

	health := server.NewHealthChecker(sc)
	httpServer, err := server.NewHTTPServer(server.HTTPServerConfig{
		Addr:      opts.httpAddr,
		MCPServer: mcpSrv,
		Health:    health,
		Metrics:   sc.Metrics(),
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}
	if err := httpServer.Listen(); err != nil {
		return err
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(); err != nil {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}
