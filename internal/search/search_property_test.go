//go:build property
// +build property

package search

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/j4ng5y/quasar-docs-mcp-server/internal/index"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var words = []string{"button", "card", "dialog", "layout", "drawer", "table", "select", "input", "btn", "style"}

func genPages() gopter.Gen {
	return gen.SliceOf(gen.IntRange(0, 999)).Map(func(seeds []int) []index.DocPage {
		pages := make([]index.DocPage, len(seeds))
		for i, seed := range seeds {
			a := words[seed%len(words)]
			b := words[(seed/10)%len(words)]
			pages[i] = index.DocPage{
				Path:     fmt.Sprintf("%s/%s-%d", a, b, i),
				Title:    a + " " + b,
				Section:  a,
				Keywords: []string{a, b},
			}
		}
		return pages
	})
}

func genQuery() gopter.Gen {
	return gen.OneGenOf(
		gen.OneConstOf(words[0], words[1], words[2], words[3], words[4], words[8]),
		gen.OneConstOf("layout drawer", "BUTTON", " card ", "q btn", "nothing"),
	)
}

// TestPropertySearchIndexOrdering verifies that results never exceed the
// limit and that scores are non-increasing with ties in page order.
func TestPropertySearchIndexOrdering(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("bounded, sorted, stable", prop.ForAll(
		func(pages []index.DocPage, query string, limit int) bool {
			results := SearchIndex(pages, query, limit)

			effective := limit
			if effective <= 0 {
				effective = DefaultLimit
			}
			if len(results) > effective {
				return false
			}

			position := make(map[string]int, len(pages))
			for i, p := range pages {
				position[p.Path] = i
			}
			for i := 1; i < len(results); i++ {
				prev, cur := results[i-1], results[i]
				if cur.Score > prev.Score {
					return false
				}
				if cur.Score == prev.Score && position[cur.Path] < position[prev.Path] {
					return false
				}
			}
			for _, r := range results {
				if r.Score <= 0 {
					return false
				}
			}
			return true
		},
		genPages(),
		genQuery(),
		gen.IntRange(-2, 15),
	))

	properties.TestingRun(t)
}

// TestPropertySearchIndexDeterministic verifies that identical inputs give
// identical sequences.
func TestPropertySearchIndexDeterministic(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("same input same output", prop.ForAll(
		func(pages []index.DocPage, query string) bool {
			return reflect.DeepEqual(SearchIndex(pages, query, 10), SearchIndex(pages, query, 10))
		},
		genPages(),
		genQuery(),
	))

	properties.TestingRun(t)
}

// TestPropertyMergeBounded verifies Merge respects the limit, keeps every
// path at most once and orders equal scores by page position.
func TestPropertyMergeBounded(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("merge is bounded and unique", prop.ForAll(
		func(pages []index.DocPage, query string, limit int) bool {
			a := SearchIndex(pages, query, 50)
			b := SearchIndex(pages, "button", 50)
			merged := Merge(a, b, pages, limit)
			if len(merged) > limit {
				return false
			}
			seen := make(map[string]bool)
			for _, r := range merged {
				if seen[r.Path] {
					return false
				}
				seen[r.Path] = true
			}
			position := make(map[string]int, len(pages))
			for i := len(pages) - 1; i >= 0; i-- {
				position[pages[i].Path] = i
			}
			for i := 1; i < len(merged); i++ {
				if merged[i].Score == merged[i-1].Score &&
					position[merged[i].Path] < position[merged[i-1].Path] {
					return false
				}
			}
			return true
		},
		genPages(),
		genQuery(),
		gen.IntRange(1, 20),
	))

	properties.TestingRun(t)
}
