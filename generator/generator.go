// Package generator implements the registry's eight per-schema artifact
// handlers (spec.md §4.6): materialised, bundle, unidentified, dependencies,
// health, pointer-positions, frame-locations and compiled-template. Every
// handler has the buildengine.Handler signature and is a pure function of
// its declared dependencies plus the *Context carried through ctx — grounded
// on original_source's eight freestanding GENERATE_* functions in
// src/index/generators.h, each of which takes the same four arguments
// (destination, dependencies, dynamic-dependency callback, a context) and
// writes exactly one MetaPack file.
package generator

import (
	"github.com/sourcemeta-go/registryindex/resolver"
)

// HealthRule is one schema-quality lint rule (spec.md §4.6.1 SUPPLEMENT).
// Each rule inspects the decoded schema document and reports zero or more
// violations; the health handler subtracts Weight from a starting score of
// 100 for every violation reported.
type HealthRule struct {
	Name        string
	Weight      int
	Description string
	Check       func(doc map[string]any, compiled CompiledValidator) []HealthError
}

// HealthError is one lint violation, matching the `{pointer, name, message,
// description}` shape spec.md §4.6 requires of the health report.
// Description is a pointer so an empty description serialises as JSON
// null rather than `""`, matching GENERATE_HEALTH's behaviour.
type HealthError struct {
	Pointer     string  `json:"pointer"`
	Name        string  `json:"name"`
	Message     string  `json:"message"`
	Description *string `json:"description"`
}

// CompiledValidator is the narrow slice of *jsonschema.Schema the health
// rules need — just enough to check that a value validates, without
// leaking the santhosti-tekuri type into every rule's signature.
type CompiledValidator interface {
	Validate(v any) error
}

// Context is threaded through every generator's buildengine.Handler as its
// opaque ctx parameter. Identifier is the final (registry) identifier of
// the schema the handlers in this call are producing artifacts for.
type Context struct {
	Resolver   *resolver.Resolver
	Identifier string
	Rules      []HealthRule
}
