// Package index provides the in-memory documentation index: sections, the
// pages that belong to them, and lookups over both. A DocIndex is immutable
// once built; rebuilding produces a new value.
package index

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ErrEmptyCorpus is returned when enumeration succeeds but yields no pages.
var ErrEmptyCorpus = errors.New("documentation corpus is empty")

// Section is a named grouping of documentation pages.
type Section struct {
	Name        string `json:"name"`        // Short identifier, e.g. "vue-components"
	Title       string `json:"title"`       // Display title
	Path        string `json:"path"`        // Canonical root path of the section
	Description string `json:"description"` // Short summary
}

// DocPage is a single documentation page.
type DocPage struct {
	Path     string   `json:"path"`               // Unique identifier, e.g. "vue-components/button"
	Title    string   `json:"title"`              // Human-readable title
	Section  string   `json:"section"`            // Name of the owning section
	Keywords []string `json:"keywords,omitempty"` // Lowercase terms used for cheap scoring
}

// DocIndex is the full set of sections and pages built from the corpus at a
// point in time.
type DocIndex struct {
	sections  []Section
	pages     []DocPage
	byPath    map[string]int
	bySection map[string]int // lowercase name -> position in sections
	counts    map[string]int // section name -> page count
}

// New assembles an index and checks its invariants: section names are unique
// case-insensitively, page paths are unique, and every page references a
// section of the index.
func New(sections []Section, pages []DocPage) (*DocIndex, error) {
	idx := &DocIndex{
		sections:  append([]Section(nil), sections...),
		pages:     make([]DocPage, len(pages)),
		byPath:    make(map[string]int, len(pages)),
		bySection: make(map[string]int, len(sections)),
		counts:    make(map[string]int, len(sections)),
	}

	for i, s := range idx.sections {
		if s.Name == "" {
			return nil, fmt.Errorf("section %d has an empty name", i)
		}
		key := strings.ToLower(s.Name)
		if _, dup := idx.bySection[key]; dup {
			return nil, fmt.Errorf("duplicate section name: %s", s.Name)
		}
		idx.bySection[key] = i
	}

	for i, p := range pages {
		if p.Path == "" {
			return nil, fmt.Errorf("page %d has an empty path", i)
		}
		if _, dup := idx.byPath[p.Path]; dup {
			return nil, fmt.Errorf("duplicate page path: %s", p.Path)
		}
		si, ok := idx.bySection[strings.ToLower(p.Section)]
		if !ok {
			return nil, fmt.Errorf("page %s references unknown section %q", p.Path, p.Section)
		}
		p.Section = idx.sections[si].Name
		p.Keywords = append([]string(nil), p.Keywords...)

		idx.pages[i] = p
		idx.byPath[p.Path] = i
		idx.counts[p.Section]++
	}

	return idx, nil
}

// Sections returns the sections in discovery order.
func (idx *DocIndex) Sections() []Section {
	return append([]Section(nil), idx.sections...)
}

// Pages returns every page in insertion order.
func (idx *DocIndex) Pages() []DocPage {
	return append([]DocPage(nil), idx.pages...)
}

// Len returns the number of pages.
func (idx *DocIndex) Len() int {
	return len(idx.pages)
}

// Section looks up a section by name, ignoring case.
func (idx *DocIndex) Section(name string) (Section, bool) {
	i, ok := idx.bySection[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Section{}, false
	}
	return idx.sections[i], true
}

// PageCount returns the number of pages in the named section.
func (idx *DocIndex) PageCount(section string) int {
	s, ok := idx.Section(section)
	if !ok {
		return 0
	}
	return idx.counts[s.Name]
}

// Page returns the page with exactly the given path.
func (idx *DocIndex) Page(path string) (DocPage, bool) {
	i, ok := idx.byPath[path]
	if !ok {
		return DocPage{}, false
	}
	return idx.pages[i], true
}

// Lookup resolves a caller supplied reference to a page. It accepts paths
// with or without slashes and the .md extension, site URLs, and section
// directories whose index page is meant.
func (idx *DocIndex) Lookup(ref string) (DocPage, bool) {
	p := NormalizePath(ref)
	if p == "" {
		return idx.Page("index")
	}
	if page, ok := idx.Page(p); ok {
		return page, true
	}
	return idx.Page(p + "/index")
}

// Validate re-checks referential integrity: every page resolves to a section
// of the same index.
func (idx *DocIndex) Validate() error {
	for _, p := range idx.pages {
		if _, ok := idx.Section(p.Section); !ok {
			return fmt.Errorf("page %s references unknown section %q", p.Path, p.Section)
		}
	}
	return nil
}

// Fingerprint hashes the index structure. Two indexes with the same sections
// and pages in the same order have the same fingerprint.
func (idx *DocIndex) Fingerprint() uint64 {
	h := xxhash.New()
	for _, s := range idx.sections {
		h.WriteString("s\x00" + s.Name + "\x00" + s.Title + "\x00" + s.Path + "\x00" + s.Description + "\n")
	}
	for _, p := range idx.pages {
		h.WriteString("p\x00" + p.Path + "\x00" + p.Title + "\x00" + p.Section + "\x00" + strings.Join(p.Keywords, ",") + "\n")
	}
	h.WriteString(strconv.Itoa(len(idx.pages)))
	return h.Sum64()
}

// FilterBySection returns the pages of the named section, matching the name
// case-insensitively. An unknown section yields an empty slice.
func FilterBySection(idx *DocIndex, name string) []DocPage {
	pages := []DocPage{}
	s, ok := idx.Section(name)
	if !ok {
		return pages
	}
	for _, p := range idx.pages {
		if p.Section == s.Name {
			pages = append(pages, p)
		}
	}
	return pages
}

// NormalizePath turns a page reference into an index path: surrounding
// whitespace and slashes, the .md extension, URL scheme and host, query and
// fragment are removed. Repository paths keep their docs root; see TrimDocsRoot.
func NormalizePath(ref string) string {
	p := strings.TrimSpace(ref)

	if strings.Contains(p, "://") {
		if u, err := url.Parse(p); err == nil {
			p = u.Path
		}
	}
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}

	p = strings.Trim(p, "/")
	if len(p) > 3 && strings.EqualFold(p[len(p)-3:], ".md") {
		p = p[:len(p)-3]
	}
	return strings.Trim(p, "/")
}

// TrimDocsRoot removes a leading docs root directory from a normalized page
// path, so repository paths such as "docs/src/pages/style/spacing" resolve like
// "style/spacing". An empty root leaves path unchanged.
func TrimDocsRoot(path, root string) string {
	root = strings.Trim(root, "/")
	if root == "" {
		return path
	}

	p := strings.TrimLeft(path, "/")
	if p == root {
		return ""
	}
	if rest, ok := strings.CutPrefix(p, root+"/"); ok {
		return rest
	}
	return path
}

// FilePath maps a page path to its markdown file path relative to the docs root.
func FilePath(pagePath string) string {
	return pagePath + ".md"
}
