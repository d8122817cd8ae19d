package docs

import (
	"path"
	"strings"
	"unicode"

	"github.com/j4ng5y/quasar-docs-mcp-server/internal/index"
	"github.com/j4ng5y/quasar-docs-mcp-server/internal/search"
)

// componentKey turns QBtnDropdown, q-btn-dropdown or btn-dropdown into
// "btn-dropdown".
func componentKey(name string) string {
	var b strings.Builder
	runes := []rune(strings.TrimSpace(name))
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('-')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		if r == '_' || unicode.IsSpace(r) {
			r = '-'
		}
		b.WriteRune(r)
	}

	parts := strings.FieldsFunc(b.String(), func(r rune) bool { return r == '-' })
	if len(parts) > 1 && parts[0] == "q" {
		parts = parts[1:]
	}
	return strings.Join(parts, "-")
}

// resolveComponent finds the component page by file name, then title, then
// keyword, and finally by searching the component section.
func resolveComponent(idx *index.DocIndex, name string) (index.DocPage, bool) {
	pages := index.FilterBySection(idx, index.ComponentSection)
	if len(pages) == 0 {
		return index.DocPage{}, false
	}

	key := componentKey(name)
	lower := strings.ToLower(strings.TrimSpace(name))
	file := index.ComponentFileName(key)

	for _, p := range pages {
		if base := path.Base(p.Path); base == file || base == key {
			return p, true
		}
	}

	for _, p := range pages {
		title := strings.ToLower(p.Title)
		if title == lower || strings.ReplaceAll(title, " ", "-") == key {
			return p, true
		}
	}

	for _, p := range pages {
		for _, kw := range p.Keywords {
			if kw == lower || kw == key {
				return p, true
			}
		}
	}

	results := search.SearchIndex(pages, strings.ReplaceAll(key, "-", " "), 1)
	if len(results) == 0 {
		return index.DocPage{}, false
	}
	for _, p := range pages {
		if p.Path == results[0].Path {
			return p, true
		}
	}
	return index.DocPage{}, false
}
