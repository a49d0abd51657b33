// Package resolver registers every schema the driver discovers under a
// canonical registry URI, normalises its internal references to match, and
// serves both original and previously-materialised forms on demand
// (spec.md §4.5). It is grounded on original_source's
// src/resolver/resolver.cc (registration and resolution algorithms,
// carried over near-verbatim in control flow). Official meta-schemas are
// recognised from a fixed table of their URIs (official.go), and the
// self-contained frame package stands in for the spec's out-of-scope
// schema-dialect-walker.
package resolver

import "github.com/sourcemeta-go/registryindex/config"

// Entry is everything the resolver knows about one registered schema
// (spec.md §3 "Resolver entry").
type Entry struct {
	// CachePath, once set by Materialise, short-circuits Resolve to read
	// this pre-rewritten file instead of re-deriving the schema.
	CachePath string
	// Path is the original on-disk file (YAML or JSON).
	Path string
	// Dialect is the effective $schema URI, rebased under the registry
	// unless it names an official meta-schema.
	Dialect string
	// RelativePath is the schema's identifier expressed relative to the
	// registry base URL.
	RelativePath string
	// OriginalIdentifier is the identifier declared inside the schema
	// (or the collection-derived default), before registry rewriting.
	OriginalIdentifier string
	// Collection is the owning collection, consulted for its `resolve`
	// escape hatch and default dialect during resolution.
	Collection *config.Collection
}
