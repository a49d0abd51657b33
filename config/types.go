// Package config loads the registry's hierarchical configuration tree —
// a base document plus any number of transitively `extends`-ed documents,
// including named collection presets resolved under a shared collections
// directory — into a single typed Configuration (spec.md §3, §4.4). It is
// grounded on config/layered.go's map-merge helpers (shallow-merge here,
// since §4.4 step 4 is explicit that the merge is "shallow-per-key", unlike
// layered.go's deep recursive merge used for the teacher's own overlay
// config) and on original_source's preprocess_configuration (the extends
// walk, the default-title/description assignment, and the pages/schemas
// split confirmed by configuration.cc's `summary()` stripping both keys).
package config

// Action is the configuration's optional call-to-action link.
type Action struct {
	URL   string `json:"url"`
	Icon  string `json:"icon"`
	Title string `json:"title"`
}

// Page is the metadata shared by a plain navigation page and a Collection.
type Page struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Email       string `json:"email,omitempty"`
	GitHub      string `json:"github,omitempty"`
	Website     string `json:"website,omitempty"`
}

// Collection is a directory of schemas sharing a base URI, mounted at an
// entry's relative path under the registry.
type Collection struct {
	Page
	AbsolutePath   string
	Base           string
	DefaultDialect string
	// Resolve is the per-collection escape hatch mapping a reference
	// string to a rebased reference string (spec.md §3 "Configuration").
	Resolve map[string]string
	// Extra holds every "x-…" boolean-true flag found on the entry,
	// keyed by the full flag name including the "x-" prefix.
	Extra map[string]bool
}

// Entry is exactly one of a Page or a Collection, distinguished by the
// presence of a "path" property in the raw document (spec.md §4.4).
type Entry struct {
	Page       Page
	Collection *Collection
}

// IsCollection reports whether this entry carries collection data.
func (e Entry) IsCollection() bool { return e.Collection != nil }

// Configuration is the fully merged and validated registry configuration.
type Configuration struct {
	URL         string
	Port        int
	Title       string
	Description string
	Head        string
	Hero        string
	Action      *Action
	// Entries is keyed by relative path, e.g. "vendor/api".
	Entries map[string]Entry
	// Pages holds per-path metadata overlays applied to directory
	// navigation targets that don't already define the given field
	// (original_source's Configuration::inflate).
	Pages map[string]Page
}

// Inflate copies any Pages[path] fields that target doesn't already carry
// into target. Mirrors original_source's inflate-by-path-if-missing
// semantics used when rendering directory navigation documents.
func (c *Configuration) Inflate(path string, target *Page) {
	overlay, ok := c.Pages[path]
	if !ok {
		return
	}
	if target.Title == "" {
		target.Title = overlay.Title
	}
	if target.Description == "" {
		target.Description = overlay.Description
	}
	if target.Email == "" {
		target.Email = overlay.Email
	}
	if target.GitHub == "" {
		target.GitHub = overlay.GitHub
	}
	if target.Website == "" {
		target.Website = overlay.Website
	}
}
