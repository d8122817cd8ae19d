package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"
)

// Transport type names accepted by NewTransport.
const (
	TransportStdio          = "stdio"
	TransportSSE            = "sse"
	TransportStreamableHTTP = "streamablehttp"
)

// TransportStarter binds an MCP server to a wire transport.
type TransportStarter interface {
	// Start serves mcpServer and blocks until the transport stops or fails.
	Start(ctx context.Context, mcpServer *server.MCPServer) error

	// Shutdown stops accepting new sessions and closes the active ones.
	Shutdown(ctx context.Context) error

	// Type returns the transport name, one of "stdio", "sse", "streamablehttp".
	Type() string
}

// StdioTransport speaks MCP over stdin and stdout. Logs must go to stderr
// so they never interleave with protocol messages.
type StdioTransport struct {
	logger *slog.Logger
}

// Start serves mcpServer on stdin/stdout until ctx is cancelled or the client
// closes its end.
func (s *StdioTransport) Start(ctx context.Context, mcpServer *server.MCPServer) error {
	stdio := server.NewStdioServer(mcpServer)
	if s.logger != nil {
		stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))
	}
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// Shutdown is a no-op; the streams belong to the process.
func (s *StdioTransport) Shutdown(ctx context.Context) error {
	return nil
}

// Type returns "stdio".
func (s *StdioTransport) Type() string {
	return TransportStdio
}

// SSETransport serves MCP over HTTP with server-sent events.
type SSETransport struct {
	address string
	server  *server.SSEServer
}

// Start listens on the configured address and blocks until the HTTP server
// stops.
func (s *SSETransport) Start(ctx context.Context, mcpServer *server.MCPServer) error {
	s.server = server.NewSSEServer(mcpServer,
		server.WithBaseURL("http://"+s.address),
	)
	return s.server.Start(s.address)
}

// Shutdown stops the HTTP server. It is safe to call before Start.
func (s *SSETransport) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Type returns "sse".
func (s *SSETransport) Type() string {
	return TransportSSE
}

// StreamableHTTPTransport serves MCP over the streamable HTTP transport at
// /mcp.
type StreamableHTTPTransport struct {
	address string
	server  *server.StreamableHTTPServer
}

// Start listens on the configured address and blocks until the HTTP server
// stops.
func (s *StreamableHTTPTransport) Start(ctx context.Context, mcpServer *server.MCPServer) error {
	s.server = server.NewStreamableHTTPServer(mcpServer,
		server.WithEndpointPath("/mcp"),
	)
	return s.server.Start(s.address)
}

// Shutdown stops the HTTP server. It is safe to call before Start.
func (s *StreamableHTTPTransport) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Type returns "streamablehttp".
func (s *StreamableHTTPTransport) Type() string {
	return TransportStreamableHTTP
}

// NewTransport creates the transport named by cfg. Network transports need a
// port. logger may be nil.
func NewTransport(cfg transportConfig, logger *slog.Logger) (TransportStarter, error) {
	var transport TransportStarter

	switch cfg.GetTransportType() {
	case TransportStdio:
		transport = &StdioTransport{logger: logger}
	case TransportSSE:
		if cfg.GetPort() == 0 {
			return nil, fmt.Errorf("port must be configured for SSE transport")
		}
		transport = &SSETransport{address: cfg.GetTransportAddress()}
	case TransportStreamableHTTP:
		if cfg.GetPort() == 0 {
			return nil, fmt.Errorf("port must be configured for StreamableHTTP transport")
		}
		transport = &StreamableHTTPTransport{address: cfg.GetTransportAddress()}
	default:
		return nil, fmt.Errorf("unsupported transport type: %s (must be one of: stdio, sse, streamablehttp)", cfg.GetTransportType())
	}

	if logger != nil {
		logger.Debug("Transport created",
			"transport", transport.Type(),
			"address", cfg.GetTransportAddress())
	}
	return transport, nil
}

// transportConfig is the part of config.Config that NewTransport reads.
type transportConfig interface {
	GetTransportType() string
	GetPort() int
	GetTransportAddress() string
}
