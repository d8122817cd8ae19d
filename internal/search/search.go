// Package search ranks documentation pages for a query. Index search scores
// the lightweight page records; content search fetches page bodies and scores
// term occurrences and proximity.
package search

import (
	"sort"
	"strings"

	"github.com/j4ng5y/quasar-docs-mcp-server/internal/index"
)

// DefaultLimit is used when a caller passes a non-positive limit.
const DefaultLimit = 10

// Index search weights. Title matches rank above path matches, which rank
// above keyword matches.
const (
	WeightTitleExact    = 100
	WeightTitleContains = 50
	WeightTitleTerm     = 10
	WeightPathContains  = 30
	WeightPathTerm      = 5
	WeightKeyword       = 2
)

// Result is a ranked reference to a documentation page.
type Result struct {
	Path    string  `json:"path"`
	Title   string  `json:"title"`
	Section string  `json:"section"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet,omitempty"`
}

// SearchIndex scores pages against the query and returns at most limit
// results ordered by descending score. Equal scores keep page order. Pages
// without any match are left out.
func SearchIndex(pages []index.DocPage, query string, limit int) []Result {
	if limit <= 0 {
		limit = DefaultLimit
	}

	q := normalizeQuery(query)
	if q == "" {
		return []Result{}
	}
	terms := queryTerms(q)

	results := make([]Result, 0)
	for _, page := range pages {
		score := scorePage(page, q, terms)
		if score <= 0 {
			continue
		}
		results = append(results, Result{
			Path:    page.Path,
			Title:   page.Title,
			Section: page.Section,
			Score:   score,
		})
	}

	return rank(results, limit)
}

func scorePage(page index.DocPage, q string, terms []string) float64 {
	title := strings.ToLower(page.Title)
	path := strings.ToLower(page.Path)

	score := 0
	switch {
	case title == q:
		score += WeightTitleExact
	case strings.Contains(title, q):
		score += WeightTitleContains
	}
	if strings.Contains(path, q) {
		score += WeightPathContains
	}

	for _, term := range terms {
		if strings.Contains(title, term) {
			score += WeightTitleTerm
		}
		if strings.Contains(path, term) {
			score += WeightPathTerm
		}
		for _, kw := range page.Keywords {
			if strings.HasPrefix(kw, term) {
				score += WeightKeyword
				break
			}
		}
	}

	return float64(score)
}

// rank sorts by descending score, keeping input order for ties, and truncates.
func rank(results []Result, limit int) []Result {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

func normalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// queryTerms returns the distinct tokens of a normalized query. Single
// character tokens are dropped unless nothing else remains.
func queryTerms(q string) []string {
	tokens := tokenize(q)

	seen := make(map[string]bool, len(tokens))
	var terms, short []string
	for _, tok := range tokens {
		if seen[tok] {
			continue
		}
		seen[tok] = true
		if len([]rune(tok)) < 2 {
			short = append(short, tok)
			continue
		}
		terms = append(terms, tok)
	}
	if len(terms) == 0 {
		return short
	}
	return terms
}
