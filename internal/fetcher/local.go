package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/j4ng5y/quasar-docs-mcp-server/internal/cache"
	"github.com/rs/zerolog"
)

// LocalSource reads documentation pages from a directory on disk, e.g. a
// checkout of the documentation repository.
type LocalSource struct {
	root    string
	siteURL string
	files   *cache.ContentCache
	logger  zerolog.Logger
}

var _ Source = (*LocalSource)(nil)

// NewLocalSource creates a source rooted at dir.
func NewLocalSource(dir, siteURL string, logger zerolog.Logger) (*LocalSource, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve docs directory: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat docs directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("docs path is not a directory: %s", abs)
	}

	return &LocalSource{
		root:    abs,
		siteURL: siteURL,
		files:   cache.NewContentCache(),
		logger:  logger,
	}, nil
}

// FetchRawFile reads a page from disk.
func (ls *LocalSource) FetchRawFile(ctx context.Context, path string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	rel, ok := cleanPath(path)
	if !ok || rel == "" {
		return "", false, nil
	}

	if content, ok := ls.files.Get(rel); ok {
		return content, true, nil
	}

	if info, err := os.Stat(ls.abs(rel)); err == nil && info.IsDir() {
		return "", false, nil
	}

	data, err := os.ReadFile(ls.abs(rel))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read %s: %w", rel, err)
	}

	content := string(data)
	ls.files.Put(rel, content)
	return content, true, nil
}

// FetchDirectoryContents lists a directory on disk.
func (ls *LocalSource) FetchDirectoryContents(ctx context.Context, path string) ([]DirEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rel, ok := cleanPath(path)
	if !ok {
		return nil, fmt.Errorf("invalid directory path: %s", path)
	}

	items, err := os.ReadDir(ls.abs(rel))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []DirEntry{}, nil
		}
		return nil, fmt.Errorf("failed to list directory %s: %w", rel, err)
	}

	entries := make([]DirEntry, 0, len(items))
	for _, item := range items {
		childPath := item.Name()
		if rel != "" {
			childPath = rel + "/" + item.Name()
		}
		entryType := EntryFile
		if item.IsDir() {
			entryType = EntryDir
		}
		entries = append(entries, DirEntry{
			Name: item.Name(),
			Path: childPath,
			Type: entryType,
			URL:  "file://" + filepath.ToSlash(ls.abs(childPath)),
		})
	}
	sortEntries(entries)

	return entries, nil
}

// FetchAllMarkdownFiles walks the directory tree for markdown pages.
func (ls *LocalSource) FetchAllMarkdownFiles(ctx context.Context) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(ls.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if d.Name() == "node_modules" || (strings.HasPrefix(d.Name(), ".") && p != ls.root) {
				return filepath.SkipDir
			}
			return nil
		}
		if !isMarkdown(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(ls.root, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk docs directory: %w", err)
	}

	sort.Strings(paths)

	ls.logger.Info().
		Str("root", ls.root).
		Int("count", len(paths)).
		Msg("Discovered documentation pages")

	return paths, nil
}

// BuildDocsURL maps a page path to its public documentation URL.
func (ls *LocalSource) BuildDocsURL(path string) string {
	return buildDocsURL(ls.siteURL, path)
}

// ClearCache drops all cached file contents.
func (ls *LocalSource) ClearCache() {
	n := ls.files.Clear()
	ls.logger.Debug().Int("files", n).Msg("Cleared file cache")
}

// Watch clears the cache and calls onChange whenever a markdown file under
// the root changes. It blocks until ctx is done.
func (ls *LocalSource) Watch(ctx context.Context, onChange func(path string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	err = filepath.WalkDir(ls.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(p)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to watch docs directory: %w", err)
	}

	ls.logger.Info().Str("root", ls.root).Msg("Watching documentation directory")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watcher.Add(event.Name); err != nil {
						ls.logger.Warn().Err(err).Str("dir", event.Name).Msg("Failed to watch new directory")
					}
					continue
				}
			}
			if !isMarkdown(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}

			rel, err := filepath.Rel(ls.root, event.Name)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			ls.logger.Debug().
				Str("path", rel).
				Str("op", event.Op.String()).
				Msg("Documentation file changed")

			ls.ClearCache()
			if onChange != nil {
				onChange(rel)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			ls.logger.Warn().Err(err).Msg("Watcher error")
		}
	}
}

func (ls *LocalSource) abs(rel string) string {
	if rel == "" {
		return ls.root
	}
	return filepath.Join(ls.root, filepath.FromSlash(rel))
}
