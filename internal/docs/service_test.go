package docs_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/j4ng5y/quasar-docs-mcp-server/internal/cache"
	"github.com/j4ng5y/quasar-docs-mcp-server/internal/docs"
	"github.com/j4ng5y/quasar-docs-mcp-server/internal/fetcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// source is an in-memory fetcher.Source.
type source struct {
	mu        sync.Mutex
	files     map[string]string
	enumErr   error
	fetchErr  map[string]error
	enumCalls int
	clears    int
}

var _ fetcher.Source = (*source)(nil)

func newSource() *source {
	return &source{
		files: map[string]string{
			"index.md":                              "# Quasar\n\nWelcome.",
			"start/quick-start.md":                  "---\ntitle: Quick Start\n---\nInstall the CLI and create a project.",
			"style/index.md":                        "---\ntitle: Style & Identity\n---\nColors and typography.",
			"style/spacing.md":                      "---\ntitle: Spacing\n---\nUse q-pa-md for padding.",
			"vue-components/button.md":              "---\ntitle: Button\nkeys: QBtn\n---\nQBtn is a button with a few extra useful features.",
			"vue-components/card.md":                "---\ntitle: Card\nkeys: QCard\n---\nThe QCard component is a great way to display content. A card may contain a button.",
			"vue-components/list-and-list-items.md": "---\ntitle: Lists and List Items\n---\nQList and QItem render vertical lists.",
		},
		fetchErr: map[string]error{},
	}
}

func (s *source) FetchRawFile(_ context.Context, path string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fetchErr[path]; err != nil {
		return "", false, err
	}
	content, ok := s.files[path]
	return content, ok, nil
}

func (s *source) FetchDirectoryContents(_ context.Context, _ string) ([]fetcher.DirEntry, error) {
	return []fetcher.DirEntry{}, nil
}

func (s *source) FetchAllMarkdownFiles(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enumCalls++
	if s.enumErr != nil {
		return nil, s.enumErr
	}
	paths := make([]string, 0, len(s.files))
	for p := range s.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *source) BuildDocsURL(path string) string {
	return "https://quasar.dev/" + strings.TrimSuffix(path, ".md")
}

func (s *source) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
}

func (s *source) set(fn func(s *source)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

func (s *source) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enumCalls
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newService(t *testing.T) (*docs.Service, *source, *clock) {
	t.Helper()
	src := newSource()
	clk := &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	svc := docs.NewService(src, nil, docs.Options{Clock: clk.Now, MaxConcurrent: 2})
	return svc, src, clk
}

func TestService_ListSections(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("all sections with page counts", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newService(t)

		out, err := svc.ListSections(ctx, "")

		require.NoError(t, err)
		assert.Contains(t, out, "4 sections, 7 pages")
		assert.Contains(t, out, "**Vue Components** (`vue-components`)")
		assert.Contains(t, out, "(3 pages)")
		assert.Contains(t, out, "**Getting Started** (`start`)")
	})

	t.Run("pages of one section", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newService(t)

		out, err := svc.ListSections(ctx, "STYLE")

		require.NoError(t, err)
		assert.Contains(t, out, "# Style & Identity")
		assert.Contains(t, out, "`style/spacing` (https://quasar.dev/style/spacing)")
		assert.NotContains(t, out, "vue-components")
	})

	t.Run("unknown section lists valid names", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newService(t)

		out, err := svc.ListSections(ctx, "unknown")

		require.NoError(t, err)
		assert.Contains(t, out, `Section "unknown" not found`)
		assert.Contains(t, out, "Available sections are: general, start, style, vue-components")
	})

	t.Run("first build failure is an error", func(t *testing.T) {
		t.Parallel()
		svc, src, _ := newService(t)
		src.set(func(s *source) { s.enumErr = errors.New("github unreachable") })

		_, err := svc.ListSections(ctx, "")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "github unreachable")
	})
}

func TestService_GetPage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("returns content, title and url", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newService(t)

		page, err := svc.GetPage(ctx, "vue-components/button")

		require.NoError(t, err)
		assert.True(t, page.Found())
		assert.Equal(t, "vue-components/button", page.Path)
		assert.Equal(t, "Button", page.Title)
		assert.Equal(t, "https://quasar.dev/vue-components/button", page.URL)
		assert.Contains(t, page.Content, "QBtn is a button")
	})

	t.Run("accepts file paths, urls and section directories", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newService(t)

		for ref, want := range map[string]string{
			"/style/spacing.md":                    "style/spacing",
			"https://quasar.dev/style/spacing#top": "style/spacing",
			"style":                                "style/index",
			"/":                                    "index",
		} {
			page, err := svc.GetPage(ctx, ref)
			require.NoError(t, err, ref)
			assert.Equal(t, want, page.Path, ref)
			assert.True(t, page.Found(), ref)
		}
	})

	t.Run("strips the configured docs root from repository paths", func(t *testing.T) {
		t.Parallel()

		svc, _, _ := newService(t)
		page, err := svc.GetPage(ctx, "docs/src/pages/vue-components/button.md")
		require.NoError(t, err)
		assert.True(t, page.Found())
		assert.Equal(t, "vue-components/button", page.Path)

		custom := docs.NewService(newSource(), nil, docs.Options{MaxConcurrent: 2, DocsRoot: "/site/pages/"})
		page, err = custom.GetPage(ctx, "site/pages/style/spacing.md")
		require.NoError(t, err)
		assert.True(t, page.Found())
		assert.Equal(t, "style/spacing", page.Path)

		page, err = custom.GetPage(ctx, "docs/src/pages/style/spacing.md")
		require.NoError(t, err)
		assert.False(t, page.Found())
	})

	t.Run("missing page is an error value", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newService(t)

		page, err := svc.GetPage(ctx, "/nonexistent")

		require.NoError(t, err)
		assert.False(t, page.Found())
		assert.Contains(t, page.Error, "/nonexistent")
		assert.Empty(t, page.Content)
	})

	t.Run("empty path is an error value", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newService(t)

		page, err := svc.GetPage(ctx, "  ")

		require.NoError(t, err)
		assert.False(t, page.Found())
	})

	t.Run("transport failure is an error", func(t *testing.T) {
		t.Parallel()
		svc, src, _ := newService(t)
		src.set(func(s *source) { s.fetchErr["style/spacing.md"] = errors.New("timeout") })

		_, err := svc.GetPage(ctx, "style/spacing")

		require.Error(t, err)
	})

	t.Run("works without an index", func(t *testing.T) {
		t.Parallel()
		svc, src, _ := newService(t)
		src.set(func(s *source) { s.enumErr = errors.New("github unreachable") })

		page, err := svc.GetPage(ctx, "style/spacing")

		require.NoError(t, err)
		assert.Equal(t, "Spacing", page.Title)
	})
}

func TestService_GetComponent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for _, name := range []string{"QBtn", "q-btn", "btn", "button", "qbtn", " QBtn "} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			svc, _, _ := newService(t)

			page, err := svc.GetComponent(ctx, name)

			require.NoError(t, err)
			require.True(t, page.Found(), page.Error)
			assert.Equal(t, "vue-components/button", page.Path)
			assert.Equal(t, "https://quasar.dev/vue-components/button", page.URL)
		})
	}

	t.Run("aliases to shared pages", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newService(t)

		page, err := svc.GetComponent(ctx, "QItemSection")

		require.NoError(t, err)
		assert.Equal(t, "vue-components/list-and-list-items", page.Path)
	})

	t.Run("unknown component", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newService(t)

		page, err := svc.GetComponent(ctx, "QFluxCapacitor")

		require.NoError(t, err)
		assert.False(t, page.Found())
		assert.Contains(t, page.Error, "QFluxCapacitor")
	})
}

func TestService_SearchDocs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("ranks index matches", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newService(t)

		out, err := svc.SearchDocs(ctx, docs.SearchRequest{Query: "btn"})

		require.NoError(t, err)
		assert.Contains(t, out, "Found 1 results for query: btn")
		assert.Contains(t, out, "1. Button [vue-components]")
		assert.Contains(t, out, "URL: https://quasar.dev/vue-components/button")
	})

	t.Run("empty query", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newService(t)

		_, err := svc.SearchDocs(ctx, docs.SearchRequest{Query: "  "})

		assert.ErrorIs(t, err, docs.ErrEmptyQuery)
	})

	t.Run("unknown section", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newService(t)

		out, err := svc.SearchDocs(ctx, docs.SearchRequest{Query: "button", Section: "nope"})

		require.NoError(t, err)
		assert.Contains(t, out, "Available sections are:")
	})

	t.Run("section filter", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newService(t)

		out, err := svc.SearchDocs(ctx, docs.SearchRequest{Query: "style", Section: "vue-components"})

		require.NoError(t, err)
		assert.Contains(t, out, "No results found for query: style in section vue-components")
	})

	t.Run("include content adds snippets and body matches", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newService(t)

		out, err := svc.SearchDocs(ctx, docs.SearchRequest{
			Query:          "display content",
			Section:        "vue-components",
			IncludeContent: true,
		})

		require.NoError(t, err)
		assert.Contains(t, out, "Card [vue-components]")
		assert.Contains(t, out, "Summary: The QCard component is a great way to display content.")
	})

	t.Run("include content searches the whole corpus when the index finds nothing", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newService(t)

		out, err := svc.SearchDocs(ctx, docs.SearchRequest{Query: "typography"})
		require.NoError(t, err)
		assert.Contains(t, out, "No results found for query: typography")

		out, err = svc.SearchDocs(ctx, docs.SearchRequest{Query: "typography", IncludeContent: true})

		require.NoError(t, err)
		assert.Contains(t, out, "Found 1 results for query: typography")
		assert.Contains(t, out, "Path: style/index")
		assert.Contains(t, out, "Summary: Colors and typography.")
	})

	t.Run("limit", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newService(t)

		out, err := svc.SearchDocs(ctx, docs.SearchRequest{Query: "vue", Limit: 2})

		require.NoError(t, err)
		assert.Contains(t, out, "Found 2 results")
	})
}

func TestService_IndexTTL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, src, clk := newService(t)

	first, err := svc.Index(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, src.calls())

	clk.Advance(30 * time.Minute)
	second, err := svc.Index(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, src.calls())

	clk.Advance(31 * time.Minute)
	third, err := svc.Index(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 2, src.calls())
}

func TestService_StaleFallback(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, src, clk := newService(t)

	built, err := svc.Index(ctx)
	require.NoError(t, err)

	src.set(func(s *source) { s.enumErr = errors.New("github unreachable") })
	clk.Advance(2 * time.Hour)

	idx, err := svc.Index(ctx)
	assert.ErrorIs(t, err, cache.ErrStale)
	assert.Same(t, built, idx)

	out, err := svc.ListSections(ctx, "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Note: the documentation index could not be refreshed"))
	assert.Contains(t, out, "2024-05-01T12:00:00Z")
	assert.Contains(t, out, "vue-components")

	// The failed rebuild did not refresh the timestamp, so the next request retries.
	calls := src.calls()
	_, _ = svc.Index(ctx)
	assert.Equal(t, calls+1, src.calls())

	src.set(func(s *source) { s.enumErr = nil })
	fresh, err := svc.Index(ctx)
	require.NoError(t, err)
	assert.NotSame(t, built, fresh)
}

func TestService_Refresh(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, src, _ := newService(t)

	res, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, 7, res.Pages)
	assert.Equal(t, 4, res.Sections)

	res, err = svc.Refresh(ctx)
	require.NoError(t, err)
	assert.False(t, res.Changed)

	src.set(func(s *source) { s.files["style/typography.md"] = "# Typography" })
	res, err = svc.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, 8, res.Pages)

	src.set(func(s *source) { s.enumErr = errors.New("down") })
	_, err = svc.Refresh(ctx)
	assert.ErrorIs(t, err, cache.ErrStale)

	src.mu.Lock()
	defer src.mu.Unlock()
	assert.Equal(t, 4, src.clears)
}

func TestService_Invalidate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, src, _ := newService(t)

	_, err := svc.Index(ctx)
	require.NoError(t, err)

	svc.Invalidate()
	_, err = svc.Index(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls())
}
