package parser

import (
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ParseMarkdown parses markdown content and extracts front matter, title and
// sections. Malformed front matter is ignored rather than failing the page.
func ParseMarkdown(content []byte, filepath string) (*Document, error) {
	fm, body, err := SplitFrontMatter(content)
	if err != nil {
		fm = FrontMatter{}
	}

	doc := goldmark.New().Parser().Parse(text.NewReader(body))

	title := fm.Title
	if title == "" {
		title = firstHeading(doc, body)
	}
	if title == "" {
		title = TitleFromPath(filepath)
	}

	return &Document{
		Title:       title,
		Description: fm.Description,
		Keys:        fm.Keys,
		Related:     fm.Related,
		Sections:    extractMarkdownSections(doc, body),
		Body:        string(body),
	}, nil
}

// PlainText renders markdown as whitespace-normalized plain text: front
// matter dropped, markup removed, HTML reduced to its text content.
func PlainText(content []byte) string {
	_, body, _ := SplitFrontMatter(content)
	doc := goldmark.New().Parser().Parse(text.NewReader(body))
	return NormalizeWhitespace(nodeText(doc, body))
}

// TitleFromPath derives a display title from a page path:
// "start/pick-quasar-flavour.md" becomes "Pick Quasar Flavour". An index page
// takes the name of its directory.
func TitleFromPath(p string) string {
	p = strings.Trim(p, "/")
	p = strings.TrimSuffix(p, ".md")
	name := path.Base(p)
	if name == "index" {
		name = path.Base(path.Dir(p))
	}
	if name == "." || name == "/" || name == "" || name == "index" {
		return "Untitled"
	}
	return titleCase(name)
}

// titleCase upper-cases the first letter of every word, treating hyphens and
// underscores as word separators.
func titleCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '_' || unicode.IsSpace(r)
	})
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// firstHeading returns the text of the first level 1 heading, if any.
func firstHeading(doc ast.Node, source []byte) string {
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if heading, ok := n.(*ast.Heading); ok && heading.Level == 1 {
			if t := NormalizeWhitespace(nodeText(heading, source)); t != "" {
				return t
			}
		}
	}
	return ""
}

// extractMarkdownSections splits the top-level blocks at each heading
func extractMarkdownSections(doc ast.Node, source []byte) []Section {
	var sections []Section
	var current *Section
	var content strings.Builder

	flush := func() {
		if current == nil {
			return
		}
		current.Content = strings.TrimSpace(content.String())
		sections = append(sections, *current)
		content.Reset()
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if heading, ok := n.(*ast.Heading); ok {
			flush()
			current = &Section{
				Heading: NormalizeWhitespace(nodeText(heading, source)),
				Level:   heading.Level,
			}
			continue
		}
		if current == nil {
			continue
		}
		if t := strings.TrimSpace(nodeText(n, source)); t != "" {
			content.WriteString(t)
			content.WriteString("\n")
		}
	}
	flush()

	// No headings: the whole page is one section
	if len(sections) == 0 {
		if all := strings.TrimSpace(nodeText(doc, source)); all != "" {
			sections = append(sections, Section{
				Heading: "Content",
				Content: all,
				Level:   1,
			})
		}
	}

	return sections
}

// nodeText collects the readable text below node. Block boundaries become
// newlines; code is kept verbatim.
func nodeText(node ast.Node, source []byte) string {
	var buf strings.Builder

	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n != node && n.Type() == ast.TypeBlock {
				buf.WriteByte('\n')
			}
			return ast.WalkContinue, nil
		}

		switch v := n.(type) {
		case *ast.Text:
			buf.Write(v.Segment.Value(source))
			if v.SoftLineBreak() || v.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(v.Value)
		case *ast.AutoLink:
			buf.Write(v.Label(source))
			return ast.WalkSkipChildren, nil
		case *ast.RawHTML:
			var raw strings.Builder
			for i := 0; i < v.Segments.Len(); i++ {
				segment := v.Segments.At(i)
				raw.Write(segment.Value(source))
			}
			buf.WriteString(StripHTML(raw.String()))
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock:
			raw := linesText(v, source)
			if v.HasClosure() {
				raw += string(v.ClosureLine.Value(source))
			}
			buf.WriteString(StripHTML(raw))
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			buf.WriteString(linesText(n, source))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return buf.String()
}

func linesText(n ast.Node, source []byte) string {
	var buf strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(source))
	}
	return buf.String()
}
