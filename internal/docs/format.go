package docs

import (
	"fmt"
	"strings"

	"github.com/j4ng5y/quasar-docs-mcp-server/internal/index"
	"github.com/j4ng5y/quasar-docs-mcp-server/internal/search"
)

func formatSections(idx *index.DocIndex) string {
	sections := idx.Sections()

	var content strings.Builder
	content.WriteString("# Quasar Documentation Sections\n\n")
	content.WriteString(fmt.Sprintf("%d sections, %d pages\n\n", len(sections), idx.Len()))

	for _, s := range sections {
		content.WriteString(fmt.Sprintf("- **%s** (`%s`): %s (%d pages)\n",
			s.Title, s.Name, s.Description, idx.PageCount(s.Name)))
	}

	return content.String()
}

func formatSectionPages(section index.Section, pages []index.DocPage, docsURL func(string) string) string {
	var content strings.Builder
	content.WriteString(fmt.Sprintf("# %s\n\n", section.Title))
	if section.Description != "" {
		content.WriteString(section.Description + "\n\n")
	}
	content.WriteString(fmt.Sprintf("%d pages in `%s`:\n\n", len(pages), section.Name))

	for _, p := range pages {
		content.WriteString(fmt.Sprintf("- %s: `%s` (%s)\n", p.Title, p.Path, docsURL(p.Path)))
	}

	return content.String()
}

func sectionNotFound(idx *index.DocIndex, section string) string {
	sections := idx.Sections()
	names := make([]string, len(sections))
	for i, s := range sections {
		names[i] = s.Name
	}
	return fmt.Sprintf("Section %q not found. Available sections are: %s", section, strings.Join(names, ", "))
}

func formatResults(query, section string, results []search.Result, docsURL func(string) string) string {
	var content strings.Builder

	if len(results) == 0 {
		if section != "" {
			return fmt.Sprintf("No results found for query: %s in section %s\n", query, section)
		}
		return fmt.Sprintf("No results found for query: %s\n", query)
	}

	content.WriteString(fmt.Sprintf("Found %d results for query: %s\n\n", len(results), query))

	for i, r := range results {
		content.WriteString(fmt.Sprintf("%d. %s [%s]\n", i+1, r.Title, r.Section))
		content.WriteString(fmt.Sprintf("   Path: %s\n", r.Path))
		content.WriteString(fmt.Sprintf("   URL: %s\n", docsURL(r.Path)))
		content.WriteString(fmt.Sprintf("   Relevance: %.2f\n", r.Score))
		if r.Snippet != "" {
			content.WriteString(fmt.Sprintf("   Summary: %s\n", r.Snippet))
		}
		content.WriteString("\n")
	}

	return content.String()
}
