package index

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/j4ng5y/quasar-docs-mcp-server/internal/parser"
)

// Enumerator lists every markdown page of the corpus, relative to the docs root.
type Enumerator interface {
	FetchAllMarkdownFiles(ctx context.Context) ([]string, error)
}

// Builder builds a DocIndex from the file tree alone. Page bodies are never
// fetched, which keeps a rebuild to a single enumeration call.
type Builder struct {
	source Enumerator
	logger *slog.Logger
}

// NewBuilder creates a builder reading from source.
func NewBuilder(source Enumerator, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{source: source, logger: logger}
}

// Build enumerates the corpus and returns a complete index, or an error and
// no index at all.
func (b *Builder) Build(ctx context.Context) (*DocIndex, error) {
	start := time.Now()

	files, err := b.source.FetchAllMarkdownFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate documentation: %w", err)
	}

	var sections []Section
	sectionByKey := make(map[string]Section)
	pages := make([]DocPage, 0, len(files))

	for _, file := range files {
		p := NormalizePath(file)
		if p == "" {
			continue
		}

		name := GeneralSection
		if i := strings.Index(p, "/"); i >= 0 {
			name = p[:i]
		}
		section, ok := sectionByKey[strings.ToLower(name)]
		if !ok {
			section = describeSection(name)
			sectionByKey[strings.ToLower(name)] = section
			sections = append(sections, section)
		}

		pages = append(pages, newPage(p, section))
	}

	if len(pages) == 0 {
		return nil, ErrEmptyCorpus
	}

	idx, err := New(sections, pages)
	if err != nil {
		return nil, fmt.Errorf("failed to build index: %w", err)
	}

	b.logger.Info("Documentation index built",
		"pages", idx.Len(),
		"sections", len(sections),
		"duration", time.Since(start).String())

	return idx, nil
}

func newPage(p string, section Section) DocPage {
	base := path.Base(p)

	title := parser.TitleFromPath(p)
	if base == "index" {
		title = section.Title
	}

	keywords := pathKeywords(p)
	if section.Name == ComponentSection {
		for _, name := range componentNames(base) {
			keywords = append(keywords, name, "q-"+name, "q"+strings.ReplaceAll(name, "-", ""))
		}
	}

	return DocPage{
		Path:     p,
		Title:    title,
		Section:  section.Name,
		Keywords: dedupe(keywords),
	}
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := values[:0]
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
