// Package docs is the query façade over the documentation corpus. A Service
// owns the cached index and answers the section listing, page, component and
// search requests exposed as MCP tools.
package docs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/j4ng5y/quasar-docs-mcp-server/internal/cache"
	"github.com/j4ng5y/quasar-docs-mcp-server/internal/fetcher"
	"github.com/j4ng5y/quasar-docs-mcp-server/internal/index"
	"github.com/j4ng5y/quasar-docs-mcp-server/internal/parser"
	"github.com/j4ng5y/quasar-docs-mcp-server/internal/search"
)

// ErrEmptyQuery is returned by SearchDocs for a blank query.
var ErrEmptyQuery = errors.New("search query cannot be empty")

// Options tunes a Service. Zero values fall back to the defaults below.
type Options struct {
	IndexTTL        time.Duration // default 1h
	DefaultLimit    int           // default 10
	MaxResults      int           // default 50
	ContentMaxPages int           // default 40
	MaxConcurrent   int           // default 5
	DocsRoot        string        // stripped from page references, default index.DefaultDocsRoot
	Clock           func() time.Time
}

func (o Options) withDefaults() Options {
	if o.IndexTTL <= 0 {
		o.IndexTTL = time.Hour
	}
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = search.DefaultLimit
	}
	if o.MaxResults <= 0 {
		o.MaxResults = 50
	}
	if o.ContentMaxPages <= 0 {
		o.ContentMaxPages = 40
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = 5
	}
	if o.DocsRoot == "" {
		o.DocsRoot = index.DefaultDocsRoot
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

// Service answers documentation queries against a Source.
type Service struct {
	source  fetcher.Source
	index   *cache.IndexCache[*index.DocIndex]
	content *search.ContentSearcher
	logger  *slog.Logger
	opts    Options
}

// PageResult is the outcome of a page or component lookup. A page that does
// not resolve is reported through Error, not through a Go error.
type PageResult struct {
	Path    string `json:"path,omitempty"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Found reports whether the lookup resolved to a page.
func (r PageResult) Found() bool {
	return r.Error == ""
}

// SearchRequest holds the parameters of a documentation search.
type SearchRequest struct {
	Query          string
	Section        string
	Limit          int
	IncludeContent bool
}

// RefreshResult reports the outcome of a forced rebuild.
type RefreshResult struct {
	Pages    int       `json:"pages"`
	Sections int       `json:"sections"`
	Changed  bool      `json:"changed"`
	BuiltAt  time.Time `json:"built_at"`
}

// NewService creates a Service. The index is built lazily on first use.
func NewService(source fetcher.Source, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	opts = opts.withDefaults()

	builder := index.NewBuilder(source, logger)
	build := func(ctx context.Context) (*index.DocIndex, error) {
		// Page contents are refreshed together with the index.
		source.ClearCache()
		return builder.Build(ctx)
	}

	return &Service{
		source:  source,
		index:   cache.NewIndexCache(opts.IndexTTL, build, logger, cache.WithClock(opts.Clock)),
		content: search.NewContentSearcher(source, opts.MaxConcurrent, logger),
		logger:  logger,
		opts:    opts,
	}
}

// Index returns the current index, rebuilding it when it is older than the
// TTL. When a rebuild fails but an older index exists, that index is
// returned together with an error wrapping cache.ErrStale.
func (s *Service) Index(ctx context.Context) (*index.DocIndex, error) {
	return s.index.Get(ctx)
}

// Invalidate forces the next request to rebuild the index.
func (s *Service) Invalidate() {
	s.index.Invalidate()
}

// acquire returns a usable index and, when it is stale, a notice for the
// current caller.
func (s *Service) acquire(ctx context.Context) (*index.DocIndex, string, error) {
	idx, err := s.index.Get(ctx)
	if err == nil {
		return idx, "", nil
	}
	if errors.Is(err, cache.ErrStale) && idx != nil {
		builtAt := "an earlier build"
		if entry, ok := s.index.Peek(); ok && !entry.BuiltAt.IsZero() {
			builtAt = entry.BuiltAt.UTC().Format(time.RFC3339)
		}
		notice := fmt.Sprintf("Note: the documentation index could not be refreshed (%v). Showing the index from %s.", err, builtAt)
		return idx, notice, nil
	}
	return nil, "", err
}

// ListSections renders every section with its page count, or the pages of a
// single section. An unknown section yields a message naming the valid
// sections.
func (s *Service) ListSections(ctx context.Context, section string) (string, error) {
	idx, notice, err := s.acquire(ctx)
	if err != nil {
		return "", err
	}

	var out string
	section = strings.TrimSpace(section)
	if section == "" {
		out = formatSections(idx)
	} else {
		pages := index.FilterBySection(idx, section)
		if len(pages) == 0 {
			out = sectionNotFound(idx, section)
		} else {
			sec, _ := idx.Section(section)
			out = formatSectionPages(sec, pages, s.source.BuildDocsURL)
		}
	}

	return withNotice(notice, out), nil
}

// GetPage fetches one page. ref may be a page path, a file path or a site URL.
func (s *Service) GetPage(ctx context.Context, ref string) (PageResult, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return PageResult{Error: "a page path is required"}, nil
	}

	path := index.TrimDocsRoot(index.NormalizePath(ref), s.opts.DocsRoot)
	lookup := path
	if path == "" {
		path = "index"
	}
	title := ""

	idx, _, err := s.acquire(ctx)
	if err != nil {
		// The page may still be fetched directly.
		s.logger.Warn("Index unavailable, fetching page without it", "path", ref, "error", err)
	} else if page, ok := idx.Lookup(lookup); ok {
		path = page.Path
		title = page.Title
	}

	return s.fetchPage(ctx, ref, path, title)
}

func (s *Service) fetchPage(ctx context.Context, ref, path, title string) (PageResult, error) {
	file := index.FilePath(path)

	content, found, err := s.source.FetchRawFile(ctx, file)
	if err != nil {
		return PageResult{}, fmt.Errorf("failed to fetch page %s: %w", path, err)
	}
	if !found {
		s.logger.Info("Page not found", "path", ref)
		return PageResult{Path: ref, Error: fmt.Sprintf("page not found: %s", ref)}, nil
	}

	doc, err := parser.ParseMarkdown([]byte(content), file)
	if err == nil && doc.Title != "" {
		title = doc.Title
	}

	return PageResult{
		Path:    path,
		Title:   title,
		Content: content,
		URL:     s.source.BuildDocsURL(path),
	}, nil
}

// GetComponent fetches the page documenting a Vue component. The name may be
// given as QBtn, q-btn, btn or by its page name, e.g. button.
func (s *Service) GetComponent(ctx context.Context, name string) (PageResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return PageResult{Error: "a component name is required"}, nil
	}

	idx, _, err := s.acquire(ctx)
	if err != nil {
		return PageResult{}, err
	}

	page, ok := resolveComponent(idx, name)
	if !ok {
		return PageResult{
			Path:  name,
			Error: fmt.Sprintf("component not found: %s (try search_quasar_docs)", name),
		}, nil
	}

	return s.fetchPage(ctx, name, page.Path, page.Title)
}

// SearchDocs ranks pages for the query, optionally within one section. With
// IncludeContent the bodies of the best index matches are searched as well
// and both rankings are merged.
func (s *Service) SearchDocs(ctx context.Context, req SearchRequest) (string, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return "", ErrEmptyQuery
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.opts.DefaultLimit
	}
	if limit > s.opts.MaxResults {
		limit = s.opts.MaxResults
	}

	idx, notice, err := s.acquire(ctx)
	if err != nil {
		return "", err
	}

	pages := idx.Pages()
	section := strings.TrimSpace(req.Section)
	if section != "" {
		pages = index.FilterBySection(idx, section)
		if len(pages) == 0 {
			return withNotice(notice, sectionNotFound(idx, section)), nil
		}
	}

	results := search.SearchIndex(pages, query, limit)

	if req.IncludeContent {
		results, err = s.searchContent(ctx, pages, query, limit)
		if err != nil {
			return "", err
		}
	}

	s.logger.Info("Search completed",
		"query", query,
		"section", section,
		"include_content", req.IncludeContent,
		"results", len(results))

	return withNotice(notice, formatResults(query, section, results, s.source.BuildDocsURL)), nil
}

// searchContent searches the bodies of the best index matches. When the
// index finds nothing, the first pages of the searched set (the section or
// the whole corpus) are searched instead.
func (s *Service) searchContent(ctx context.Context, pages []index.DocPage, query string, limit int) ([]search.Result, error) {
	indexResults := search.SearchIndex(pages, query, s.opts.ContentMaxPages)

	byPath := make(map[string]index.DocPage, len(pages))
	for _, p := range pages {
		byPath[p.Path] = p
	}

	candidates := make([]index.DocPage, 0, len(indexResults))
	for _, r := range indexResults {
		candidates = append(candidates, byPath[r.Path])
	}
	if len(candidates) == 0 {
		candidates = pages
		if len(candidates) > s.opts.ContentMaxPages {
			candidates = candidates[:s.opts.ContentMaxPages]
		}
	}

	contentResults, err := s.content.Search(ctx, query, candidates, limit)
	if err != nil {
		return nil, fmt.Errorf("content search failed: %w", err)
	}

	return search.Merge(indexResults, contentResults, pages, limit), nil
}

// Refresh drops cached page contents and rebuilds the index now.
func (s *Service) Refresh(ctx context.Context) (RefreshResult, error) {
	var before uint64
	prev, hadPrev := s.index.Peek()
	if hadPrev {
		before = prev.Value.Fingerprint()
	}

	idx, err := s.index.Rebuild(ctx)
	if err != nil {
		return RefreshResult{}, err
	}

	entry, _ := s.index.Peek()
	result := RefreshResult{
		Pages:    idx.Len(),
		Sections: len(idx.Sections()),
		Changed:  !hadPrev || idx.Fingerprint() != before,
		BuiltAt:  entry.BuiltAt,
	}

	s.logger.Info("Documentation refreshed",
		"pages", result.Pages,
		"sections", result.Sections,
		"changed", result.Changed)

	return result, nil
}

func withNotice(notice, text string) string {
	if notice == "" {
		return text
	}
	return notice + "\n\n" + text
}
