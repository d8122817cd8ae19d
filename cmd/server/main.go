// Quasar Documentation MCP Server
//
// This is the main entry point for the Quasar Documentation MCP Server.
// It provides LLMs with programmatic access to the Quasar Framework
// documentation through the Model Context Protocol (MCP).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/j4ng5y/quasar-docs-mcp-server/internal/config"
	"github.com/j4ng5y/quasar-docs-mcp-server/internal/logger"
	"github.com/j4ng5y/quasar-docs-mcp-server/internal/server"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configFile    string
	logLevel      string
	showVersion   bool
	transportType string
	host          string
	port          int
	localDocsDir  string
	indexTTL      time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "quasar-docs-mcp-server",
		Short: "Quasar Documentation MCP Server",
		Long: `Quasar Documentation MCP Server provides LLMs with programmatic access
to the Quasar Framework documentation through the Model Context Protocol (MCP).

The server exposes five tools:
  - list_quasar_sections: List documentation sections or the pages of one section
  - get_quasar_page: Retrieve a documentation page by path or URL
  - get_quasar_component: Retrieve the page of a Vue component (QBtn, q-btn, btn)
  - search_quasar_docs: Search the documentation, optionally page contents
  - refresh_quasar_docs: Rebuild the documentation index now

Pages are read from the quasarframework/quasar repository on GitHub, or from
a local checkout with --local-docs-dir. The page index is rebuilt when it is
older than the configured TTL.`,
		RunE:         runServer,
		SilenceUsage: true,
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&configFile, "config", "c", "", "Path to configuration file (optional)")
	flags.StringVarP(&logLevel, "log-level", "l", "", "Log level (debug, info, warn, error)")
	flags.BoolVarP(&showVersion, "version", "v", false, "Show version information")
	flags.StringVarP(&transportType, "transport", "t", "", "Transport type (stdio, sse, streamablehttp)")
	flags.StringVar(&host, "host", "", "Bind host for network transports")
	flags.IntVarP(&port, "port", "p", 0, "Bind port for network transports")
	flags.StringVar(&localDocsDir, "local-docs-dir", "", "Read pages from this directory instead of GitHub")
	flags.DurationVar(&indexTTL, "index-ttl", 0, "Maximum age of the documentation index (e.g. 30m)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// flagOverrides collects the flags the user actually set.
func flagOverrides(cmd *cobra.Command) map[string]interface{} {
	overrides := make(map[string]interface{})
	flags := cmd.Flags()

	if flags.Changed("log-level") {
		overrides["log_level"] = logLevel
	}
	if flags.Changed("transport") {
		overrides["transport_type"] = transportType
	}
	if flags.Changed("host") {
		overrides["host"] = host
	}
	if flags.Changed("port") {
		overrides["port"] = port
	}
	if flags.Changed("local-docs-dir") {
		overrides["local_docs_dir"] = localDocsDir
	}
	if flags.Changed("index-ttl") {
		overrides["index_ttl"] = indexTTL
	}
	return overrides
}

func runServer(cmd *cobra.Command, args []string) error {
	if showVersion {
		fmt.Printf("Quasar Documentation MCP Server\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Commit:  %s\n", commit)
		fmt.Printf("Built:   %s\n", date)
		return nil
	}

	// Precedence: flags > config file > environment > defaults
	cfg, err := config.LoadWithFlags(configFile, flagOverrides(cmd))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Logs go to stderr, stdout carries the stdio transport
	log, err := logger.NewLogger(cfg.LogLevel, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	fetchLog, err := logger.NewFetchLogger(cfg.LogLevel, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to create fetch logger: %w", err)
	}

	log.Info("Starting Quasar Documentation MCP Server",
		"version", version,
		"commit", commit,
		"date", date)

	source, err := server.NewSource(cfg, fetchLog)
	if err != nil {
		log.Error("Failed to create documentation source", "error", err)
		return fmt.Errorf("failed to create documentation source: %w", err)
	}
	if cfg.LocalDocsDir != "" {
		log.Info("Reading documentation from local directory", "dir", cfg.LocalDocsDir)
	} else {
		log.Info("Reading documentation from GitHub",
			"repository", cfg.GitHubOwner+"/"+cfg.GitHubRepo,
			"branch", cfg.GitHubBranch,
			"authenticated", cfg.GitHubToken != "")
	}

	srv, err := server.NewServer(cfg, source, log)
	if err != nil {
		log.Error("Failed to create server", "error", err)
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		log.Info("Initializing server (building documentation index)")
		if err := srv.Initialize(ctx); err != nil {
			errChan <- fmt.Errorf("server initialization failed: %w", err)
			return
		}

		if err := srv.RegisterTools(); err != nil {
			errChan <- fmt.Errorf("tool registration failed: %w", err)
			return
		}

		log.Info("Server initialized successfully, starting MCP server")

		// Blocks until shutdown
		if err := srv.Start(ctx); err != nil {
			errChan <- fmt.Errorf("server error: %w", err)
			return
		}

		errChan <- nil
	}()

	select {
	case err := <-errChan:
		if err != nil {
			log.Error("Server error", "error", err)
			return err
		}
		log.Info("Server stopped normally")
		return nil

	case sig := <-sigChan:
		log.Info("Received shutdown signal", "signal", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Error during shutdown", "error", err)
			return fmt.Errorf("shutdown error: %w", err)
		}

		log.Info("Server shutdown complete")
		return nil
	}
}
