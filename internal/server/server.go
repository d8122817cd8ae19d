// Package server provides the MCP server core implementation, handling protocol
// communication, tool registration, and request routing.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/j4ng5y/quasar-docs-mcp-server/internal/config"
	"github.com/j4ng5y/quasar-docs-mcp-server/internal/docs"
	"github.com/j4ng5y/quasar-docs-mcp-server/internal/fetcher"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// watcher is implemented by sources that can report changes to their files.
type watcher interface {
	Watch(ctx context.Context, onChange func(path string)) error
}

// Server represents the MCP server instance with all its dependencies.
// It exposes the documentation Service as MCP tools over the configured transport.
type Server struct {
	config      *config.Config
	service     *docs.Service
	source      fetcher.Source
	logger      *slog.Logger
	mcpServer   *server.MCPServer
	transport   TransportStarter
	initialized bool
}

// NewServer creates a new MCP server over source. The server is not started
// until Start() is called.
//
// Returns an error if the configuration is invalid or transport creation fails.
func NewServer(cfg *config.Config, source fetcher.Source, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if source == nil {
		return nil, fmt.Errorf("source cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	if err := cfg.ValidateTransport(); err != nil {
		return nil, fmt.Errorf("invalid transport configuration: %w", err)
	}

	mcpServer := server.NewMCPServer(
		"quasar-docs-mcp-server",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	service := docs.NewService(source, logger, docs.Options{
		IndexTTL:        cfg.IndexTTL,
		DefaultLimit:    cfg.DefaultSearchLimit,
		MaxResults:      cfg.MaxSearchResults,
		ContentMaxPages: cfg.ContentSearchMaxPages,
		MaxConcurrent:   cfg.MaxConcurrent,
		DocsRoot:        cfg.DocsRoot,
	})

	transport, err := NewTransport(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	return &Server{
		config:    cfg,
		service:   service,
		source:    source,
		logger:    logger,
		mcpServer: mcpServer,
		transport: transport,
	}, nil
}

// Initialize warms the documentation index. A failed warm-up is logged and
// not returned: the first request retries the build.
func (s *Server) Initialize(ctx context.Context) error {
	if s.initialized {
		return fmt.Errorf("server already initialized")
	}

	s.logger.Info("Starting server initialization")

	idx, err := s.service.Index(ctx)
	if err != nil {
		s.logger.Warn("Failed to build documentation index, will retry on first request", "error", err)
	} else {
		s.logger.Info("Documentation index ready",
			"pages", idx.Len(),
			"sections", len(idx.Sections()))
	}

	s.initialized = true
	return nil
}

// RegisterTools registers all MCP tools with the server.
// This should be called after Initialize() and before Start().
func (s *Server) RegisterTools() error {
	if !s.initialized {
		return fmt.Errorf("server not initialized, call Initialize() first")
	}

	s.logger.Info("Registering MCP tools")

	listTool := mcp.NewTool(
		"list_quasar_sections",
		mcp.WithDescription("List the sections of the Quasar documentation with their page counts, or the pages of one section."),
		mcp.WithString("section",
			mcp.Description("Section name (e.g. 'vue-components'). Omit to list all sections."),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.mcpServer.AddTool(listTool, s.handleListSectionsTool)

	pageTool := mcp.NewTool(
		"get_quasar_page",
		mcp.WithDescription("Retrieve the markdown source of a Quasar documentation page by path or URL."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Page path (e.g. 'vue-components/button') or a quasar.dev URL"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.mcpServer.AddTool(pageTool, s.handleGetPageTool)

	componentTool := mcp.NewTool(
		"get_quasar_component",
		mcp.WithDescription("Retrieve the documentation page of a Quasar Vue component."),
		mcp.WithString("component",
			mcp.Required(),
			mcp.Description("Component name, e.g. 'QBtn', 'q-btn', 'btn' or 'button'"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.mcpServer.AddTool(componentTool, s.handleGetComponentTool)

	searchTool := mcp.NewTool(
		"search_quasar_docs",
		mcp.WithDescription("Search the Quasar documentation by keywords. Returns ranked pages with links, optionally searching page contents."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query (keywords or topic)"),
		),
		mcp.WithString("section",
			mcp.Description("Restrict the search to one section"),
		),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum number of results (default: %d)", s.config.DefaultSearchLimit)),
		),
		mcp.WithBoolean("includeContent",
			mcp.Description("Also search the contents of the best matching pages (slower)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.mcpServer.AddTool(searchTool, s.handleSearchTool)

	refreshTool := mcp.NewTool(
		"refresh_quasar_docs",
		mcp.WithDescription("Drop cached pages and rebuild the documentation index now."),
		mcp.WithIdempotentHintAnnotation(true),
	)
	s.mcpServer.AddTool(refreshTool, s.handleRefreshTool)

	s.logger.Info("MCP tools registered successfully")
	return nil
}

// Start starts the MCP server and begins listening for client connections.
// This is a blocking call that runs until the context is cancelled or an error occurs.
// Sources able to watch their files invalidate the index on every change.
func (s *Server) Start(ctx context.Context) error {
	if !s.initialized {
		return fmt.Errorf("server not initialized, call Initialize() first")
	}

	if w, ok := s.source.(watcher); ok {
		go func() {
			err := w.Watch(ctx, func(path string) {
				s.logger.Debug("Documentation changed, invalidating index", "path", path)
				s.service.Invalidate()
			})
			if err != nil {
				s.logger.Warn("Documentation watcher stopped", "error", err)
			}
		}()
	}

	s.logger.Info("Starting MCP server", "transport", s.transport.Type())
	if addr := s.config.GetTransportAddress(); addr != "" {
		s.logger.Info("Transport address", "address", addr)
	}

	if err := s.transport.Start(ctx, s.mcpServer); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("MCP server error", "error", err, "transport", s.transport.Type())
		return fmt.Errorf("MCP server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server and cleans up resources.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server", "transport", s.transport.Type())

	if err := s.transport.Shutdown(ctx); err != nil {
		s.logger.Error("Error during transport shutdown", "error", err, "transport", s.transport.Type())
		return fmt.Errorf("transport shutdown error: %w", err)
	}

	s.logger.Info("Server shutdown complete", "transport", s.transport.Type())
	return nil
}

// handleListSectionsTool handles the list_quasar_sections tool invocation
func (s *Server) handleListSectionsTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	section := request.GetString("section", "")

	text, err := s.service.ListSections(ctx, section)
	if err != nil {
		s.logger.Error("Listing sections failed", "section", section, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to list sections: %v", err)), nil
	}

	s.logger.Info("Sections listed", "section", section)
	return mcp.NewToolResultText(text), nil
}

// handleGetPageTool handles the get_quasar_page tool invocation
func (s *Server) handleGetPageTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("path parameter is required and must be a string"), nil
	}

	result, err := s.service.GetPage(ctx, path)
	if err != nil {
		s.logger.Error("Page retrieval failed", "path", path, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to retrieve page: %v", err)), nil
	}

	s.logger.Info("Page retrieved", "path", path, "found", result.Found())
	return pageResult(result)
}

// handleGetComponentTool handles the get_quasar_component tool invocation
func (s *Server) handleGetComponentTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("component")
	if err != nil {
		return mcp.NewToolResultError("component parameter is required and must be a string"), nil
	}

	result, err := s.service.GetComponent(ctx, name)
	if err != nil {
		s.logger.Error("Component retrieval failed", "component", name, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to retrieve component: %v", err)), nil
	}

	s.logger.Info("Component retrieved", "component", name, "found", result.Found())
	return pageResult(result)
}

// handleSearchTool handles the search_quasar_docs tool invocation
func (s *Server) handleSearchTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query parameter is required and must be a non-empty string"), nil
	}

	req := docs.SearchRequest{
		Query:          query,
		Section:        request.GetString("section", ""),
		Limit:          request.GetInt("limit", s.config.DefaultSearchLimit),
		IncludeContent: request.GetBool("includeContent", false),
	}

	text, err := s.service.SearchDocs(ctx, req)
	if err != nil {
		if errors.Is(err, docs.ErrEmptyQuery) {
			return mcp.NewToolResultError("query parameter is required and must be a non-empty string"), nil
		}
		s.logger.Error("Search failed", "query", query, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// handleRefreshTool handles the refresh_quasar_docs tool invocation
func (s *Server) handleRefreshTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.service.Refresh(ctx)
	if err != nil {
		s.logger.Error("Refresh failed", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("refresh failed: %v", err)), nil
	}

	return jsonResult(result)
}

// pageResult renders a page lookup. A lookup that did not resolve becomes an
// error result carrying the message.
func pageResult(result docs.PageResult) (*mcp.CallToolResult, error) {
	if !result.Found() {
		return mcp.NewToolResultError(result.Error), nil
	}
	return jsonResult(result)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
