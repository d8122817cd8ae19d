package search

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/j4ng5y/quasar-docs-mcp-server/internal/index"
	"github.com/j4ng5y/quasar-docs-mcp-server/internal/parser"
	"golang.org/x/sync/errgroup"
)

// Content search weights.
const (
	PhraseWeight   = 5
	ProximityBonus = 10
)

// RawFetcher returns the raw content of a documentation file. A missing file
// is reported with found == false and a nil error.
type RawFetcher interface {
	FetchRawFile(ctx context.Context, path string) (content string, found bool, err error)
}

// ContentSearcher scores page bodies fetched on demand.
type ContentSearcher struct {
	fetcher       RawFetcher
	maxConcurrent int
	logger        *slog.Logger
}

// NewContentSearcher creates a searcher that fetches at most maxConcurrent
// pages at a time.
func NewContentSearcher(fetcher RawFetcher, maxConcurrent int, logger *slog.Logger) *ContentSearcher {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ContentSearcher{
		fetcher:       fetcher,
		maxConcurrent: maxConcurrent,
		logger:        logger,
	}
}

// Search fetches every candidate page and ranks them by term occurrences,
// phrase occurrences and term proximity. Pages that are missing or fail to
// fetch are skipped. Ordering depends only on the scores and on candidate
// order, never on fetch completion order. The only error returned is
// cancellation of ctx.
func (cs *ContentSearcher) Search(ctx context.Context, query string, candidates []index.DocPage, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	q := normalizeQuery(query)
	if q == "" || len(candidates) == 0 {
		return []Result{}, nil
	}
	terms := queryTerms(q)

	scored := make([]*Result, len(candidates))
	var failed atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cs.maxConcurrent)

	for i, page := range candidates {
		g.Go(func() error {
			content, found, err := cs.fetcher.FetchRawFile(gctx, index.FilePath(page.Path))
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				failed.Add(1)
				cs.logger.Warn("Skipping page in content search",
					"path", page.Path,
					"error", err)
				return nil
			}
			if !found {
				return nil
			}

			text := parser.PlainText([]byte(content))
			score := scoreContent(lowerASCII(text), q, terms)
			if score <= 0 {
				return nil
			}
			scored[i] = &Result{
				Path:    page.Path,
				Title:   page.Title,
				Section: page.Section,
				Score:   score,
				Snippet: Snippet(text, q, SnippetLength),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(candidates))
	for _, r := range scored {
		if r != nil {
			results = append(results, *r)
		}
	}

	cs.logger.Debug("Content search completed",
		"query", q,
		"candidates", len(candidates),
		"matched", len(results),
		"failed", failed.Load())

	return rank(results, limit), nil
}

// scoreContent scores lower-cased plain text. Every token starting with a
// query term counts once; multi-term queries also earn PhraseWeight per
// phrase occurrence and a proximity bonus that is largest when all terms are
// adjacent.
func scoreContent(text, q string, terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}

	tokens := tokenize(text)
	score := 0.0
	for _, tok := range tokens {
		for _, term := range terms {
			if strings.HasPrefix(tok, term) {
				score++
			}
		}
	}
	if score == 0 {
		return 0
	}

	if len(terms) > 1 {
		score += float64(PhraseWeight * strings.Count(text, q))
		if span := minSpan(tokens, terms); span > 0 {
			gap := 1 + span - len(terms)
			if gap < 1 {
				gap = 1
			}
			score += ProximityBonus / float64(gap)
		}
	}

	return score
}

// minSpan returns the length in tokens of the shortest window containing
// every term, or 0 when some term never occurs.
func minSpan(tokens, terms []string) int {
	matches := make([][]int, len(tokens))
	for i, tok := range tokens {
		for t, term := range terms {
			if strings.HasPrefix(tok, term) {
				matches[i] = append(matches[i], t)
			}
		}
	}

	counts := make([]int, len(terms))
	covered := 0
	best := 0
	left := 0

	for right := range tokens {
		for _, t := range matches[right] {
			if counts[t] == 0 {
				covered++
			}
			counts[t]++
		}
		for covered == len(terms) {
			if span := right - left + 1; best == 0 || span < best {
				best = span
			}
			for _, t := range matches[left] {
				counts[t]--
				if counts[t] == 0 {
					covered--
				}
			}
			left++
		}
	}

	return best
}
