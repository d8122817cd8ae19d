package search

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SnippetLength is the maximum snippet size in bytes.
const SnippetLength = 200

// tokenize splits text into lowercase tokens of letters and digits.
func tokenize(text string) []string {
	text = strings.ToLower(text)

	tokens := []string{}
	var currentToken strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			currentToken.WriteRune(r)
		} else if currentToken.Len() > 0 {
			tokens = append(tokens, currentToken.String())
			currentToken.Reset()
		}
	}

	if currentToken.Len() > 0 {
		tokens = append(tokens, currentToken.String())
	}

	return tokens
}

// lowerASCII lower-cases ASCII letters only, so byte offsets into the result
// are valid offsets into s.
func lowerASCII(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}

// Snippet returns an excerpt of at most maxLength bytes centred on the first
// occurrence of the query phrase, or on the earliest query term when the
// phrase does not occur. Cut ends are marked with "...".
func Snippet(content, query string, maxLength int) string {
	if len(content) <= maxLength {
		return content
	}

	const ellipsis = "..."
	window := maxLength - 2*len(ellipsis)
	if window <= 0 {
		return truncateRunes(content, maxLength)
	}

	lowerContent := lowerASCII(content)
	q := normalizeQuery(query)

	bestPos := -1
	if q != "" {
		bestPos = strings.Index(lowerContent, q)
	}
	if bestPos < 0 {
		for _, term := range queryTerms(q) {
			pos := strings.Index(lowerContent, term)
			if pos >= 0 && (bestPos < 0 || pos < bestPos) {
				bestPos = pos
			}
		}
	}

	start := 0
	if bestPos >= 0 {
		start = bestPos - window/2
		if start < 0 {
			start = 0
		}
		if start+window > len(content) {
			start = len(content) - window
		}
	}
	end := start + window

	for start > 0 && start < len(content) && !utf8.RuneStart(content[start]) {
		start++
	}
	for end < len(content) && !utf8.RuneStart(content[end]) {
		end--
	}
	if end < start {
		end = start
	}

	summary := content[start:end]

	// Trim to word boundaries
	if start > 0 {
		if idx := strings.Index(summary, " "); idx >= 0 && idx < len(summary)-1 {
			summary = summary[idx+1:]
		}
		summary = ellipsis + summary
	}
	if end < len(content) {
		if idx := strings.LastIndex(summary, " "); idx > len(ellipsis) {
			summary = summary[:idx]
		}
		summary += ellipsis
	}

	return summary
}

func truncateRunes(s string, maxLength int) string {
	end := maxLength
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	return s[:end]
}
