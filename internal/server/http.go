package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

const (
	// DefaultHTTPAddr is the default address of the application server.
	DefaultHTTPAddr = ":8080"

	DefaultReadTimeout  = 15 * time.Second
	DefaultWriteTimeout = 30 * time.Second
	DefaultIdleTimeout  = 120 * time.Second

	// MCPEndpoint is where the streamable HTTP MCP transport is mounted.
	MCPEndpoint = "/mcp"
)

// HTTPServerConfig configures the application HTTP server.
type HTTPServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Router carries the REST routes. Required.
	Router *mux.Router
	// MCPServer is mounted at /mcp when set.
	MCPServer *mcpserver.MCPServer
	// DisableStreaming turns off SSE streaming on the MCP endpoint.
	DisableStreaming bool
	// Health registers /healthz, /readyz and /healthz/detailed when set.
	Health *HealthChecker
}

// HTTPServer serves the REST API, the MCP endpoint and the health probes
// on one listener.
type HTTPServer struct {
	httpServer *http.Server
	addr       string
}

// NewHTTPServer mounts the configured surfaces on config.Router.
func NewHTTPServer(config HTTPServerConfig) (*HTTPServer, error) {
	if config.Router == nil {
		return nil, fmt.Errorf("router is required for HTTP server")
	}
	if config.Addr == "" {
		config.Addr = DefaultHTTPAddr
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = DefaultReadTimeout
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultWriteTimeout
	}

	r := config.Router
	if config.Health != nil {
		config.Health.RegisterHealthEndpoints(r)
	}
	if config.MCPServer != nil {
		opts := []mcpserver.StreamableHTTPOption{mcpserver.WithEndpointPath(MCPEndpoint)}
		if config.DisableStreaming {
			opts = append(opts, mcpserver.WithDisableStreaming(true))
		}
		r.Handle(MCPEndpoint, mcpserver.NewStreamableHTTPServer(config.MCPServer, opts...))
	}

	return &HTTPServer{
		addr: config.Addr,
		httpServer: &http.Server{
			Addr:              config.Addr,
			Handler:           r,
			ReadHeaderTimeout: config.ReadTimeout,
			ReadTimeout:       config.ReadTimeout,
			WriteTimeout:      config.WriteTimeout,
			IdleTimeout:       DefaultIdleTimeout,
		},
	}, nil
}

// Start listens on the configured address and serves until Shutdown.
// It returns nil after a graceful shutdown.
func (s *HTTPServer) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown.
func (s *HTTPServer) Serve(ln net.Listener) error {
	slog.Info("starting HTTP server", "addr", ln.Addr().String())
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	slog.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the root handler, for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the configured address.
func (s *HTTPServer) Addr() string {
	return s.addr
}
