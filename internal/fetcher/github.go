package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/j4ng5y/quasar-docs-mcp-server/internal/cache"
	"github.com/rs/zerolog"
)

// GitHubConfig locates the documentation inside a GitHub repository.
type GitHubConfig struct {
	Owner      string // Repository owner (e.g., "quasarframework")
	Repo       string // Repository name (e.g., "quasar")
	Branch     string // Branch to read from (e.g., "dev")
	DocsRoot   string // Directory holding the pages (e.g., "docs/src/pages")
	APIBaseURL string // e.g. "https://api.github.com"
	RawBaseURL string // e.g. "https://raw.githubusercontent.com"
	SiteURL    string // Public docs site, e.g. "https://quasar.dev"
}

// gitHubTreeEntry represents an entry in the GitHub tree API response
type gitHubTreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
	Size int    `json:"size,omitempty"`
}

// gitHubTreeResponse represents the GitHub tree API response
type gitHubTreeResponse struct {
	SHA       string            `json:"sha"`
	Tree      []gitHubTreeEntry `json:"tree"`
	Truncated bool              `json:"truncated"`
}

// gitHubContentEntry represents one element of the GitHub contents API
// response for a directory.
type gitHubContentEntry struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Type    string `json:"type"`
	HTMLURL string `json:"html_url"`
}

// GitHubSource reads documentation pages from a GitHub repository.
// Raw files are served from the raw content host and kept in memory until
// ClearCache is called; trees and directory listings always hit the API.
type GitHubSource struct {
	client *HTTPClient
	cfg    GitHubConfig
	files  *cache.ContentCache
	logger zerolog.Logger
}

var _ Source = (*GitHubSource)(nil)

// NewGitHubSource creates a GitHub backed documentation source.
func NewGitHubSource(client *HTTPClient, cfg GitHubConfig, logger zerolog.Logger) *GitHubSource {
	cfg.DocsRoot = strings.Trim(cfg.DocsRoot, "/")
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	cfg.RawBaseURL = strings.TrimRight(cfg.RawBaseURL, "/")

	return &GitHubSource{
		client: client,
		cfg:    cfg,
		files:  cache.NewContentCache(),
		logger: logger,
	}
}

// FetchRawFile fetches a page from the raw content host.
func (gs *GitHubSource) FetchRawFile(ctx context.Context, path string) (string, bool, error) {
	rel, ok := cleanPath(path)
	if !ok || rel == "" {
		return "", false, nil
	}

	if content, ok := gs.files.Get(rel); ok {
		gs.logger.Debug().Str("path", rel).Msg("Raw file served from cache")
		return content, true, nil
	}

	rawURL := fmt.Sprintf("%s/%s/%s/%s/%s",
		gs.cfg.RawBaseURL, gs.cfg.Owner, gs.cfg.Repo, gs.cfg.Branch, gs.repoPath(rel))

	gs.logger.Debug().
		Str("url", rawURL).
		Str("path", rel).
		Msg("Fetching raw file")

	body, err := gs.client.Fetch(ctx, rawURL)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			gs.logger.Debug().Str("path", rel).Msg("Raw file not found")
			return "", false, nil
		}
		gs.logger.Error().
			Err(err).
			Str("url", rawURL).
			Str("path", rel).
			Msg("Failed to fetch raw file")
		return "", false, fmt.Errorf("failed to fetch %s: %w", rel, err)
	}

	content := string(body)
	gs.files.Put(rel, content)

	gs.logger.Debug().
		Str("path", rel).
		Int("content_size", len(body)).
		Msg("Fetched raw file")

	return content, true, nil
}

// FetchDirectoryContents lists a directory through the GitHub contents API.
func (gs *GitHubSource) FetchDirectoryContents(ctx context.Context, path string) ([]DirEntry, error) {
	rel, ok := cleanPath(path)
	if !ok {
		return nil, fmt.Errorf("invalid directory path: %s", path)
	}

	apiURL := fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s",
		gs.cfg.APIBaseURL, gs.cfg.Owner, gs.cfg.Repo, gs.repoPath(rel), url.QueryEscape(gs.cfg.Branch))

	body, err := gs.client.Fetch(ctx, apiURL)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []DirEntry{}, nil
		}
		return nil, fmt.Errorf("failed to list directory %s: %w", rel, err)
	}

	var listing []gitHubContentEntry
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("failed to parse directory listing for %s: %w", rel, err)
	}

	entries := make([]DirEntry, 0, len(listing))
	for _, item := range listing {
		entryType := EntryFile
		if item.Type == "dir" {
			entryType = EntryDir
		}
		entries = append(entries, DirEntry{
			Name: item.Name,
			Path: gs.relativePath(item.Path),
			Type: entryType,
			URL:  item.HTMLURL,
		})
	}
	sortEntries(entries)

	return entries, nil
}

// FetchAllMarkdownFiles walks the repository tree and returns every markdown
// file below the docs root, relative to it.
func (gs *GitHubSource) FetchAllMarkdownFiles(ctx context.Context) ([]string, error) {
	apiURL := fmt.Sprintf("%s/repos/%s/%s/git/trees/%s?recursive=1",
		gs.cfg.APIBaseURL, gs.cfg.Owner, gs.cfg.Repo, url.PathEscape(gs.cfg.Branch))

	gs.logger.Info().
		Str("owner", gs.cfg.Owner).
		Str("repo", gs.cfg.Repo).
		Str("branch", gs.cfg.Branch).
		Msg("Enumerating documentation pages")

	body, err := gs.client.Fetch(ctx, apiURL)
	if err != nil {
		if isRateLimitError(err) {
			return nil, fmt.Errorf("failed to fetch repository tree (rate limited, set GITHUB_TOKEN to raise the limit): %w", err)
		}
		return nil, fmt.Errorf("failed to fetch repository tree: %w", err)
	}

	var tree gitHubTreeResponse
	if err := json.Unmarshal(body, &tree); err != nil {
		return nil, fmt.Errorf("failed to parse tree response: %w", err)
	}

	if tree.Truncated {
		gs.logger.Warn().
			Str("repo", gs.cfg.Repo).
			Msg("GitHub tree response was truncated, some pages may be missing")
	}

	prefix := ""
	if gs.cfg.DocsRoot != "" {
		prefix = gs.cfg.DocsRoot + "/"
	}

	var paths []string
	for _, entry := range tree.Tree {
		if entry.Type != "blob" || !isMarkdown(entry.Path) {
			continue
		}
		if !strings.HasPrefix(entry.Path, prefix) {
			continue
		}
		if strings.Contains(entry.Path, "/node_modules/") {
			continue
		}
		paths = append(paths, strings.TrimPrefix(entry.Path, prefix))
	}
	sort.Strings(paths)

	gs.logger.Info().
		Int("count", len(paths)).
		Msg("Discovered documentation pages")

	return paths, nil
}

// BuildDocsURL maps a page path to its public documentation URL.
func (gs *GitHubSource) BuildDocsURL(path string) string {
	return buildDocsURL(gs.cfg.SiteURL, path)
}

// ClearCache drops all cached raw files.
func (gs *GitHubSource) ClearCache() {
	n := gs.files.Clear()
	gs.logger.Info().Int("files", n).Msg("Cleared raw file cache")
}

func (gs *GitHubSource) repoPath(rel string) string {
	if gs.cfg.DocsRoot == "" {
		return rel
	}
	if rel == "" {
		return gs.cfg.DocsRoot
	}
	return gs.cfg.DocsRoot + "/" + rel
}

func (gs *GitHubSource) relativePath(repoPath string) string {
	if gs.cfg.DocsRoot == "" {
		return repoPath
	}
	return strings.TrimPrefix(strings.TrimPrefix(repoPath, gs.cfg.DocsRoot), "/")
}

// isRateLimitError checks if an error indicates GitHub API rate limiting
func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "403") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit")
}
