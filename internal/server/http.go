package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/servar-dev/servar/internal/instrumentation"
)

const (
	// DefaultHTTPAddr is the default listen address of the streamable HTTP transport.
	DefaultHTTPAddr = "127.0.0.1:8080"

	// MCPEndpointPath is where the streamable HTTP transport is mounted.
	MCPEndpointPath = "/mcp"
)

// HTTPServerConfig configures an HTTPServer.
type HTTPServerConfig struct {
	Addr      string
	MCPServer *mcpserver.MCPServer
	Health    *HealthChecker
	Metrics   *instrumentation.Metrics
	Logger    *slog.Logger
}

// HTTPServer serves MCP over streamable HTTP alongside the health endpoints.
type HTTPServer struct {
	httpServer *http.Server
	listener   net.Listener
	addr       string
	logger     *slog.Logger
}

// NewHTTPServer creates the streamable HTTP transport.
func NewHTTPServer(cfg HTTPServerConfig) (*HTTPServer, error) {
	if cfg.MCPServer == nil {
		return nil, fmt.Errorf("MCP server is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultHTTPAddr
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle(MCPEndpointPath, mcpserver.NewStreamableHTTPServer(cfg.MCPServer,
		mcpserver.WithEndpointPath(MCPEndpointPath),
	))
	if cfg.Health != nil {
		cfg.Health.RegisterHealthEndpoints(mux)
	}

	return &HTTPServer{
		addr:   cfg.Addr,
		logger: cfg.Logger,
		httpServer: &http.Server{
			Handler:           instrumentHTTP(cfg.Metrics, mux),
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}, nil
}

// Handler returns the root handler, for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.httpServer.Handler
}

// Listen binds the configured address. After Listen, Addr reports the bound address.
func (s *HTTPServer) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln
	s.addr = ln.Addr().String()
	return nil
}

// Start serves until Shutdown, binding first if Listen was not called.
func (s *HTTPServer) Start() error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	s.logger.Info("starting streamable HTTP server", "addr", s.addr, "endpoint", MCPEndpointPath)
	if err := s.httpServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the server address.
func (s *HTTPServer) Addr() string {
	return s.addr
}

// knownPaths bounds the path label of http_requests_total.
var knownPaths = map[string]bool{
	MCPEndpointPath:     true,
	"/healthz":          true,
	"/readyz":           true,
	"/healthz/detailed": true,
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func instrumentHTTP(m *instrumentation.Metrics, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if !knownPaths[path] {
			path = "other"
		}
		m.RecordHTTPRequest(r.Context(), r.Method, path, rec.status, time.Since(start))
	})
}
