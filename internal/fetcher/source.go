package fetcher

import (
	"context"
	"path"
	"sort"
	"strings"
)

// Entry types reported by FetchDirectoryContents.
const (
	EntryFile = "file"
	EntryDir  = "dir"
)

// DirEntry is an immediate child of a documentation directory.
type DirEntry struct {
	Name string `json:"name"`
	Path string `json:"path"` // relative to the docs root
	Type string `json:"type"` // EntryFile or EntryDir
	URL  string `json:"url"`
}

// Source is a read-only documentation corpus addressed by paths relative to
// its docs root, e.g. "vue-components/button.md".
type Source interface {
	// FetchRawFile returns the raw content of a file. A missing file is
	// reported with found == false and a nil error; err is reserved for
	// transport failures.
	FetchRawFile(ctx context.Context, path string) (content string, found bool, err error)

	// FetchDirectoryContents lists the immediate children of a directory.
	FetchDirectoryContents(ctx context.Context, path string) ([]DirEntry, error)

	// FetchAllMarkdownFiles enumerates every markdown page, sorted.
	FetchAllMarkdownFiles(ctx context.Context) ([]string, error)

	// BuildDocsURL maps a page path to its public documentation URL.
	BuildDocsURL(path string) string

	// ClearCache drops any content the source keeps in memory.
	ClearCache()
}

// buildDocsURL joins the site URL with a page path, dropping the .md
// extension and a trailing index segment.
func buildDocsURL(siteURL, p string) string {
	p = strings.Trim(p, "/")
	p = strings.TrimSuffix(p, ".md")
	if p == "index" {
		p = ""
	}
	p = strings.TrimSuffix(p, "/index")

	base := strings.TrimRight(siteURL, "/")
	if p == "" {
		return base + "/"
	}
	return base + "/" + p
}

// cleanPath normalizes a caller supplied relative path. It returns false for
// paths escaping the docs root.
func cleanPath(p string) (string, bool) {
	p = strings.TrimSpace(p)
	p = strings.Trim(p, "/")
	if p == "" {
		return "", true
	}
	cleaned := path.Clean(p)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", false
	}
	return cleaned, true
}

func isMarkdown(p string) bool {
	return strings.HasSuffix(strings.ToLower(p), ".md")
}

func sortEntries(entries []DirEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Type != entries[j].Type {
			return entries[i].Type == EntryDir
		}
		return entries[i].Name < entries[j].Name
	})
}
