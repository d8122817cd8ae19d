package search

import (
	"sort"

	"github.com/j4ng5y/quasar-docs-mcp-server/internal/index"
)

// Merge combines index and content results for the same query. A page found
// by both sums its scores and takes the content snippet. The union is ranked
// by score, equal scores in the order of pages, and truncated to limit.
// Results for paths missing from pages rank after those present.
func Merge(indexResults, contentResults []Result, pages []index.DocPage, limit int) []Result {
	if limit <= 0 {
		limit = DefaultLimit
	}

	merged := make([]Result, 0, len(indexResults)+len(contentResults))
	positions := make(map[string]int, cap(merged))

	add := func(r Result) {
		if i, ok := positions[r.Path]; ok {
			merged[i].Score += r.Score
			if r.Snippet != "" {
				merged[i].Snippet = r.Snippet
			}
			return
		}
		positions[r.Path] = len(merged)
		merged = append(merged, r)
	}

	for _, r := range indexResults {
		add(r)
	}
	for _, r := range contentResults {
		add(r)
	}

	order := make(map[string]int, len(pages))
	for i, p := range pages {
		if _, ok := order[p.Path]; !ok {
			order[p.Path] = i
		}
	}
	pageOrder := func(path string) int {
		if i, ok := order[path]; ok {
			return i
		}
		return len(pages)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return pageOrder(merged[i].Path) < pageOrder(merged[j].Path)
	})

	return rank(merged, limit)
}
