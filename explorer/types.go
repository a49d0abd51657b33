// Package explorer builds the registry's browsing surface: per-directory
// and per-schema navigation documents, the flat JSONL search index, and
// the HTML pages served from them (spec.md §4.7). Grounded throughout on
// original_source's src/index/explorer.h (GENERATE_NAV_SCHEMA,
// GENERATE_NAV_DIRECTORY, GENERATE_SEARCH_INDEX, GENERATE_EXPLORER_*),
// reimplemented against this module's metapack/config/frame packages
// instead of sourcemeta::core::JSON and std::filesystem::directory_iterator.
package explorer

// Breadcrumb is one `{name, path}` step from the root to an entry.
type Breadcrumb struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Entry is one child of a directory navigation document — either a
// subdirectory (carrying page metadata) or a schema (carrying its
// pre-computed artifact fields), distinguished by Type.
type Entry struct {
	Type string `json:"type"`
	Name string `json:"name"`
	Path string `json:"path"`

	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Email       string `json:"email,omitempty"`
	GitHub      string `json:"github,omitempty"`
	Website     string `json:"website,omitempty"`

	Identifier  string `json:"identifier,omitempty"`
	Dialect     string `json:"dialect,omitempty"`
	BaseDialect string `json:"baseDialect,omitempty"`
	Bytes       int    `json:"bytes,omitempty"`
	Health      int    `json:"health,omitempty"`
}

// DirectoryNav is the navigation document written at `<dir>/index.nav`.
type DirectoryNav struct {
	Path        string       `json:"path"`
	URL         string       `json:"url"`
	Canonical   string       `json:"canonical"`
	Breadcrumb  []Breadcrumb `json:"breadcrumb"`
	Entries     []Entry      `json:"entries"`
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Email       string       `json:"email,omitempty"`
	GitHub      string       `json:"github,omitempty"`
	Website     string       `json:"website,omitempty"`
}

// SchemaNav is the navigation document written at `<collection>/<path>.nav`.
type SchemaNav struct {
	Path        string       `json:"path"`
	URL         string       `json:"url"`
	Canonical   string       `json:"canonical"`
	Breadcrumb  []Breadcrumb `json:"breadcrumb"`
	Identifier  string       `json:"identifier"`
	Dialect     string       `json:"dialect"`
	BaseDialect string       `json:"baseDialect"`
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Bytes       int          `json:"bytes"`
	Health      int          `json:"health"`
	Examples    []any        `json:"examples,omitempty"`
}
