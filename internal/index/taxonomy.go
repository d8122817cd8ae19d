package index

import (
	"sort"
	"strings"

	"github.com/j4ng5y/quasar-docs-mcp-server/internal/parser"
)

// DefaultDocsRoot is where the pages live inside the documentation repository.
const DefaultDocsRoot = "docs/src/pages"

// GeneralSection holds pages that sit directly under the docs root.
const GeneralSection = "general"

// ComponentSection holds the Vue component reference pages.
const ComponentSection = "vue-components"

type sectionInfo struct {
	title       string
	description string
}

// knownSections describes the top-level directories of the documentation.
var knownSections = map[string]sectionInfo{
	GeneralSection:           {"General", "Pages at the root of the documentation"},
	"start":                  {"Getting Started", "Installation, project setup and first steps"},
	"introduction-to-quasar": {"Introduction to Quasar", "What Quasar is and why to use it"},
	"quasar-cli-vite":        {"Quasar CLI with Vite", "Developing, configuring and building apps with the Vite based CLI"},
	"quasar-cli-webpack":     {"Quasar CLI with Webpack", "Developing, configuring and building apps with the Webpack based CLI"},
	"style":                  {"Style & Identity", "Colors, typography, spacing, breakpoints and other CSS helpers"},
	"layout":                 {"Layout and Grid", "QLayout, headers, drawers, pages and the flex grid"},
	ComponentSection:         {"Vue Components", "Reference for every Quasar Vue component"},
	"vue-directives":         {"Vue Directives", "Ripple, touch, scroll, intersection and other directives"},
	"vue-composables":        {"Vue Composables", "Composition API helpers such as useQuasar"},
	"quasar-plugins":         {"Quasar Plugins", "Notify, Dialog, Loading, LocalStorage and other plugins"},
	"quasar-utils":           {"Quasar Utils", "Utility functions shipped with Quasar"},
	"options":                {"Options & Helpers", "App icons, language packs, theming and global configuration"},
	"icongenie":              {"Icon Genie CLI", "Generating app icons and splash screens"},
	"app-extensions":         {"App Extensions", "Using and writing Quasar App Extensions"},
	"security":               {"Security", "Security guidelines and disclosure policy"},
	"integrations":           {"Integrations", "Using Quasar with other tools and frameworks"},
	"contribution-guide":     {"Contribution Guide", "How to contribute to Quasar"},
	"faq":                    {"FAQ", "Frequently asked questions"},
}

// componentAliases maps the kebab-case component name (without the q- prefix)
// to the page file name when the two differ.
var componentAliases = map[string]string{
	"btn":            "button",
	"btn-dropdown":   "button-dropdown",
	"btn-group":      "button-group",
	"btn-toggle":     "button-toggle",
	"chat-message":   "chat",
	"color":          "color-picker",
	"fab":            "floating-action-button",
	"fab-action":     "floating-action-button",
	"file":           "file-picker",
	"list":           "list-and-list-items",
	"item":           "list-and-list-items",
	"item-section":   "list-and-list-items",
	"item-label":     "list-and-list-items",
	"spinner":        "spinners",
	"tab":            "tabs",
	"route-tab":      "tabs",
	"tab-panel":      "tab-panels",
	"step":           "stepper",
	"carousel-slide": "carousel",
	"card-section":   "card",
	"card-actions":   "card",
	"toolbar-title":  "toolbar",
	"timeline-entry": "timeline",
}

// ComponentFileName returns the page file name documenting a component
// given in kebab case without the q- prefix, e.g. "btn" -> "button".
func ComponentFileName(name string) string {
	if alias, ok := componentAliases[name]; ok {
		return alias
	}
	return name
}

// componentNames lists the kebab-case component names documented by a page file.
func componentNames(file string) []string {
	var aliases []string
	for name, target := range componentAliases {
		if target == file {
			aliases = append(aliases, name)
		}
	}
	sort.Strings(aliases)
	return append([]string{file}, aliases...)
}

// describeSection returns the section metadata, falling back to a title
// derived from the directory name.
func describeSection(name string) Section {
	path := name
	if name == GeneralSection {
		path = ""
	}
	if info, ok := knownSections[name]; ok {
		return Section{Name: name, Title: info.title, Path: path, Description: info.description}
	}
	title := parser.TitleFromPath(name)
	return Section{
		Name:        name,
		Title:       title,
		Path:        path,
		Description: title + " documentation",
	}
}

// pathKeywords derives lowercase keywords from the segments of a page path.
func pathKeywords(p string) []string {
	return strings.FieldsFunc(strings.ToLower(p), func(r rune) bool {
		return r == '/' || r == '-' || r == '_' || r == '.' || r == ' '
	})
}
