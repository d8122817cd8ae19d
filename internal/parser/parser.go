// Package parser extracts structured content from markdown documentation
// pages: front matter, titles, heading sections and plain text.
package parser

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"gopkg.in/yaml.v3"
)

// Document represents a parsed documentation page
type Document struct {
	Title       string
	Description string
	Keys        []string // component names the page documents, e.g. QBtn
	Related     []string
	Sections    []Section
	Body        string // markdown without front matter
}

// Section represents a subsection within a document
type Section struct {
	Heading string
	Content string
	Level   int
}

// FrontMatter holds the YAML header fields used by the documentation pages.
type FrontMatter struct {
	Title       string     `yaml:"title"`
	Description string     `yaml:"desc"`
	Keys        stringList `yaml:"keys"`
	Related     stringList `yaml:"related"`
}

var frontMatterPattern = regexp.MustCompile(`(?s)\A---[ \t]*\r?\n(.*?)\r?\n---[ \t]*(?:\r?\n|\z)`)

// SplitFrontMatter separates a leading YAML block from the markdown body.
// Content without front matter is returned unchanged with an empty header.
func SplitFrontMatter(content []byte) (FrontMatter, []byte, error) {
	var fm FrontMatter

	loc := frontMatterPattern.FindSubmatchIndex(content)
	if len(loc) < 4 {
		return fm, content, nil
	}

	body := content[loc[1]:]
	if err := yaml.Unmarshal(content[loc[2]:loc[3]], &fm); err != nil {
		return FrontMatter{}, body, err
	}
	return fm, body, nil
}

// stringList accepts either a YAML sequence or a comma separated scalar.
type stringList []string

func (l *stringList) UnmarshalYAML(node *yaml.Node) error {
	var values []string

	switch node.Kind {
	case yaml.SequenceNode:
		for _, child := range node.Content {
			values = append(values, child.Value)
		}
	case yaml.ScalarNode:
		values = strings.Split(node.Value, ",")
	default:
		return nil
	}

	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	*l = out
	return nil
}

// StripHTML returns the text content of an HTML fragment. Script and style
// elements are dropped.
func StripHTML(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return fragment
	}

	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return fragment
	}

	var text strings.Builder
	for _, n := range nodes {
		text.WriteString(extractText(n))
	}
	return text.String()
}

// extractText recursively extracts all text content from a node and its children
func extractText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return ""
	}

	var text strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		text.WriteString(extractText(c))
	}

	return text.String()
}

var whitespacePattern = regexp.MustCompile(`\s+`)

// NormalizeWhitespace collapses runs of whitespace into single spaces.
func NormalizeWhitespace(content string) string {
	return whitespacePattern.ReplaceAllString(strings.TrimSpace(content), " ")
}
