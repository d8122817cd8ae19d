package index

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeEnumerator struct {
	files []string
	err   error
	calls int
}

func (f *fakeEnumerator) FetchAllMarkdownFiles(ctx context.Context) ([]string, error) {
	f.calls++
	return f.files, f.err
}

var testFiles = []string{
	"index.md",
	"start/quick-start.md",
	"style/index.md",
	"style/spacing.md",
	"vue-components/button.md",
	"vue-components/card.md",
	"my-custom-area/notes.md",
}

func buildTestIndex(t *testing.T) *DocIndex {
	t.Helper()
	idx, err := NewBuilder(&fakeEnumerator{files: testFiles}, nil).Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return idx
}

func TestBuild(t *testing.T) {
	idx := buildTestIndex(t)

	if idx.Len() != len(testFiles) {
		t.Fatalf("Expected %d pages, got %d", len(testFiles), idx.Len())
	}

	var names []string
	for _, s := range idx.Sections() {
		names = append(names, s.Name)
	}
	want := "general,start,style,vue-components,my-custom-area"
	if strings.Join(names, ",") != want {
		t.Errorf("Expected sections in discovery order %s, got %s", want, strings.Join(names, ","))
	}

	if err := idx.Validate(); err != nil {
		t.Errorf("Expected valid index, got %v", err)
	}
}

func TestBuildPageMetadata(t *testing.T) {
	idx := buildTestIndex(t)

	tests := []struct {
		path    string
		title   string
		section string
	}{
		{"index", "General", "general"},
		{"start/quick-start", "Quick Start", "start"},
		{"style/index", "Style & Identity", "style"},
		{"vue-components/button", "Button", "vue-components"},
		{"my-custom-area/notes", "Notes", "my-custom-area"},
	}

	for _, tt := range tests {
		page, ok := idx.Page(tt.path)
		if !ok {
			t.Errorf("Expected page %s to exist", tt.path)
			continue
		}
		if page.Title != tt.title {
			t.Errorf("Page %s: expected title %q, got %q", tt.path, tt.title, page.Title)
		}
		if page.Section != tt.section {
			t.Errorf("Page %s: expected section %q, got %q", tt.path, tt.section, page.Section)
		}
	}

	custom, _ := idx.Section("my-custom-area")
	if custom.Title != "My Custom Area" {
		t.Errorf("Expected derived section title, got %q", custom.Title)
	}
}

func TestBuildComponentKeywords(t *testing.T) {
	idx := buildTestIndex(t)

	page, _ := idx.Page("vue-components/button")
	keywords := strings.Join(page.Keywords, ",")
	for _, want := range []string{"button", "btn", "q-btn", "qbtn"} {
		if !strings.Contains(","+keywords+",", ","+want+",") {
			t.Errorf("Expected keyword %q in %s", want, keywords)
		}
	}

	// Non-component pages only carry path keywords.
	spacing, _ := idx.Page("style/spacing")
	if strings.Join(spacing.Keywords, ",") != "style,spacing" {
		t.Errorf("Unexpected keywords: %v", spacing.Keywords)
	}
}

func TestBuildEnumerationError(t *testing.T) {
	boom := errors.New("network down")
	idx, err := NewBuilder(&fakeEnumerator{err: boom}, nil).Build(context.Background())
	if idx != nil {
		t.Error("Expected no index on failure")
	}
	if !errors.Is(err, boom) {
		t.Errorf("Expected wrapped enumeration error, got %v", err)
	}
}

func TestBuildEmptyCorpus(t *testing.T) {
	_, err := NewBuilder(&fakeEnumerator{files: []string{"/", ""}}, nil).Build(context.Background())
	if !errors.Is(err, ErrEmptyCorpus) {
		t.Errorf("Expected ErrEmptyCorpus, got %v", err)
	}
}

func TestBuildDuplicatePathsFail(t *testing.T) {
	files := []string{"style/spacing.md", "style/spacing.MD"}
	if _, err := NewBuilder(&fakeEnumerator{files: files}, nil).Build(context.Background()); err == nil {
		t.Error("Expected duplicate paths to fail the build")
	}
}

func TestBuildMergesSectionCase(t *testing.T) {
	files := []string{"Style/a.md", "style/b.md"}
	idx, err := NewBuilder(&fakeEnumerator{files: files}, nil).Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(idx.Sections()) != 1 {
		t.Fatalf("Expected one section, got %v", idx.Sections())
	}
	if idx.PageCount("STYLE") != 2 {
		t.Errorf("Expected 2 pages, got %d", idx.PageCount("STYLE"))
	}
}

func TestNew(t *testing.T) {
	sections := []Section{{Name: "a"}, {Name: "b"}}

	tests := []struct {
		name     string
		sections []Section
		pages    []DocPage
		wantErr  bool
	}{
		{"valid", sections, []DocPage{{Path: "a/x", Section: "a"}, {Path: "b/y", Section: "B"}}, false},
		{"duplicate path", sections, []DocPage{{Path: "a/x", Section: "a"}, {Path: "a/x", Section: "a"}}, true},
		{"unknown section", sections, []DocPage{{Path: "c/x", Section: "c"}}, true},
		{"empty path", sections, []DocPage{{Path: "", Section: "a"}}, true},
		{"duplicate section", []Section{{Name: "A"}, {Name: "a"}}, nil, true},
		{"empty section name", []Section{{Name: ""}}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.sections, tt.pages)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewCanonicalizesSectionName(t *testing.T) {
	idx, err := New([]Section{{Name: "Style"}}, []DocPage{{Path: "style/x", Section: "style"}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	page, _ := idx.Page("style/x")
	if page.Section != "Style" {
		t.Errorf("Expected section reference to use the section's name, got %q", page.Section)
	}
}

func TestIndexIsImmutable(t *testing.T) {
	idx := buildTestIndex(t)

	pages := idx.Pages()
	pages[0].Title = "changed"
	sections := idx.Sections()
	sections[0].Name = "changed"

	if p, _ := idx.Page(pages[0].Path); p.Title == "changed" {
		t.Error("Mutating Pages() result changed the index")
	}
	if idx.Sections()[0].Name == "changed" {
		t.Error("Mutating Sections() result changed the index")
	}
}

func TestFilterBySection(t *testing.T) {
	idx := buildTestIndex(t)

	pages := FilterBySection(idx, "Vue-Components")
	if len(pages) != 2 {
		t.Fatalf("Expected 2 pages, got %d", len(pages))
	}
	if pages[0].Path != "vue-components/button" || pages[1].Path != "vue-components/card" {
		t.Errorf("Expected insertion order, got %v", pages)
	}

	missing := FilterBySection(idx, "nonexistent")
	if missing == nil || len(missing) != 0 {
		t.Errorf("Expected empty non-nil slice, got %#v", missing)
	}
}

func TestPageCount(t *testing.T) {
	idx := buildTestIndex(t)

	if n := idx.PageCount("style"); n != 2 {
		t.Errorf("Expected 2 pages in style, got %d", n)
	}
	if n := idx.PageCount("nope"); n != 0 {
		t.Errorf("Expected 0 for unknown section, got %d", n)
	}
}

func TestLookup(t *testing.T) {
	idx := buildTestIndex(t)

	tests := []struct {
		ref  string
		want string
		ok   bool
	}{
		{"vue-components/button", "vue-components/button", true},
		{"/vue-components/button.md", "vue-components/button", true},
		{"https://quasar.dev/vue-components/button#usage", "vue-components/button", true},
		{"style", "style/index", true},
		{"/", "index", true},
		{"/nonexistent", "", false},
	}

	for _, tt := range tests {
		page, ok := idx.Lookup(tt.ref)
		if ok != tt.ok || page.Path != tt.want {
			t.Errorf("Lookup(%q) = (%q, %v), want (%q, %v)", tt.ref, page.Path, ok, tt.want, tt.ok)
		}
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  /style/spacing.md/ ", "style/spacing"},
		{"style/spacing.MD", "style/spacing"},
		{"https://quasar.dev/layout/drawer?x=1", "layout/drawer"},
		{"docs/src/pages/start/index.md", "docs/src/pages/start/index"},
		{".md", ".md"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizePath(tt.in); got != tt.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTrimDocsRoot(t *testing.T) {
	tests := []struct {
		path string
		root string
		want string
	}{
		{"docs/src/pages/style/spacing", "docs/src/pages", "style/spacing"},
		{"docs/src/pages/style/spacing", "/docs/src/pages/", "style/spacing"},
		{"site/pages/layout/drawer", "site/pages", "layout/drawer"},
		{"docs/src/pages/style/spacing", "site/pages", "docs/src/pages/style/spacing"},
		{"docs/src/pages", "docs/src/pages", ""},
		{"docs/src/pagesextra/x", "docs/src/pages", "docs/src/pagesextra/x"},
		{"style/spacing", "", "style/spacing"},
	}

	for _, tt := range tests {
		if got := TrimDocsRoot(tt.path, tt.root); got != tt.want {
			t.Errorf("TrimDocsRoot(%q, %q) = %q, want %q", tt.path, tt.root, got, tt.want)
		}
	}

	idx := buildTestIndex(t)
	page, ok := idx.Lookup(TrimDocsRoot(NormalizePath("docs/src/pages/style/spacing.md"), DefaultDocsRoot))
	if !ok || page.Path != "style/spacing" {
		t.Errorf("Lookup of a repository path = (%q, %v), want (\"style/spacing\", true)", page.Path, ok)
	}
}

func TestFingerprint(t *testing.T) {
	a := buildTestIndex(t)
	b := buildTestIndex(t)
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("Expected identical corpora to have identical fingerprints")
	}

	files := append(append([]string(nil), testFiles...), "style/new-page.md")
	c, err := NewBuilder(&fakeEnumerator{files: files}, nil).Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("Expected a new page to change the fingerprint")
	}
}

func TestComponentFileName(t *testing.T) {
	if got := ComponentFileName("btn"); got != "button" {
		t.Errorf("Expected button, got %s", got)
	}
	if got := ComponentFileName("card"); got != "card" {
		t.Errorf("Expected card, got %s", got)
	}
}

func TestFilePath(t *testing.T) {
	if got := FilePath("vue-components/button"); got != "vue-components/button.md" {
		t.Errorf("Unexpected file path: %s", got)
	}
}
