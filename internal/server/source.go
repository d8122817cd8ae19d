package server

import (
	"fmt"

	"github.com/j4ng5y/quasar-docs-mcp-server/internal/config"
	"github.com/j4ng5y/quasar-docs-mcp-server/internal/fetcher"
	"github.com/rs/zerolog"
)

// NewSource creates the documentation source described by cfg: a local
// directory when LocalDocsDir is set, the GitHub repository otherwise.
func NewSource(cfg *config.Config, logger zerolog.Logger) (fetcher.Source, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if cfg.LocalDocsDir != "" {
		src, err := fetcher.NewLocalSource(cfg.LocalDocsDir, cfg.DocsSiteURL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open local docs: %w", err)
		}
		return src, nil
	}

	client := fetcher.NewHTTPClient(cfg.FetchTimeoutDuration(), cfg.MaxRetries, cfg.MaxConcurrent)
	if cfg.GitHubToken != "" {
		client = client.WithToken(cfg.GitHubToken)
	}

	return fetcher.NewGitHubSource(client, fetcher.GitHubConfig{
		Owner:      cfg.GitHubOwner,
		Repo:       cfg.GitHubRepo,
		Branch:     cfg.GitHubBranch,
		DocsRoot:   cfg.DocsRoot,
		APIBaseURL: cfg.GitHubAPIURL,
		RawBaseURL: cfg.RawBaseURL,
		SiteURL:    cfg.DocsSiteURL,
	}, logger), nil
}
