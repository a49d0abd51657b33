// Package frame is a hand-rolled stand-in for spec.md §1's "schema-dialect-
// walker or reference-frame analyser" — explicitly named as consumed-not-
// specified, but with no such library anywhere in the example corpus to
// wire it to. It walks a decoded JSON Schema document once, resolving
// every nested `$id`/`id` declaration against its enclosing base URI and
// recording the static location (JSON Pointer, dialect, base dialect) of
// the root and of every subschema that declares its own identifier — one
// entry per identifier, so a subschema without an identifier of its own
// gets no separate entry — plus every `$ref`-like keyword and the base it
// should be resolved against.
//
// Grounded on original_source's sourcemeta::core::SchemaFrame usage in
// src/resolver/resolver.cc and src/index/generators.h (GENERATE_FRAME_LOCATIONS,
// GENERATE_DEPENDENCIES): a single-pass walk producing a location map keyed
// by resolved identifier, plus a reference list consumed by the resolver's
// ref-normalisation step and by the bundle/dependencies generators. Unlike
// the original's vocabulary-precise walker, this one recurses into every
// object key except a short deny-list of keywords known to hold arbitrary
// instance data ("enum", "const", "default", "examples") rather than
// tracking the full JSON Schema vocabulary keyword-by-keyword — a
// deliberate scope trade.
package frame

import (
	"strconv"
	"strings"

	"github.com/sourcemeta-go/registryindex/uri"
)

// BaseDialect is the normalised short form of a dialect URI.
type BaseDialect string

const (
	BaseDialectDraft4  BaseDialect = "draft4"
	BaseDialectDraft6  BaseDialect = "draft6"
	BaseDialectDraft7  BaseDialect = "draft7"
	BaseDialect2019    BaseDialect = "2019-09"
	BaseDialect2020    BaseDialect = "2020-12"
	BaseDialectUnknown BaseDialect = "unknown"
)

var dialectSuffixes = []struct {
	suffix string
	base   BaseDialect
}{
	{"draft/2020-12/schema", BaseDialect2020},
	{"draft/2019-09/schema", BaseDialect2019},
	{"draft-07/schema", BaseDialectDraft7},
	{"draft-06/schema", BaseDialectDraft6},
	{"draft-04/schema", BaseDialectDraft4},
}

// ClassifyDialect maps a full dialect URI onto its short base-dialect form.
// A trailing empty fragment ("#", as in the draft-04 to draft-07 URIs) is
// ignored.
func ClassifyDialect(dialect string) BaseDialect {
	dialect = strings.TrimSuffix(dialect, "#")
	for _, candidate := range dialectSuffixes {
		if strings.HasSuffix(dialect, candidate.suffix) {
			return candidate.base
		}
	}
	return BaseDialectUnknown
}

// Location is one subschema's static position (spec.md §3
// "frame-locations": "mapping from static location URI to
// dialect/base-dialect/pointer").
type Location struct {
	Pointer     string
	Dialect     string
	BaseDialect BaseDialect
}

// Reference is one `$ref`-like edge discovered during the walk, together
// with the base URI it must be resolved against.
type Reference struct {
	Keyword string
	Value   string
	Pointer string
	Base    string
}

// Frame is the result of analysing one schema document in isolation.
type Frame struct {
	Locations  map[string]Location
	References []Reference
}

// nonSchemaKeys lists keywords whose values hold arbitrary instance data,
// never nested schemas — the walker must not recurse into them.
var nonSchemaKeys = map[string]bool{
	"enum": true, "const": true, "default": true, "examples": true,
}

// Analyse walks schema (a document already decoded into Go's generic JSON
// representation), resolving every nested identifier declaration and
// recording the location of the root and of every identified subschema,
// plus every reference keyword it encounters.
// rootID is the schema's own identifier, used as the initial base before
// any nested `$id`/`id` is seen; dialect is the schema's declared
// `$schema`.
func Analyse(schema any, rootID, dialect string) (*Frame, error) {
	rootBase, err := uri.Parse(rootID)
	if err != nil {
		return nil, err
	}
	f := &Frame{Locations: make(map[string]Location)}
	f.walk(schema, "", rootBase.Canonicalize(), dialect, ClassifyDialect(dialect))
	return f, nil
}

func (f *Frame) walk(node any, pointer string, base uri.URI, dialect string, baseDialect BaseDialect) {
	switch v := node.(type) {
	case map[string]any:
		f.visitObject(v, pointer, base, dialect, baseDialect)
	case []any:
		for i, child := range v {
			f.walk(child, pointer+"/"+strconv.Itoa(i), base, dialect, baseDialect)
		}
	}
}

func (f *Frame) visitObject(v map[string]any, pointer string, base uri.URI, dialect string, baseDialect BaseDialect) {
	idKeyword := "$id"
	if baseDialect == BaseDialectDraft4 {
		idKeyword = "id"
	}
	if rawID, ok := v[idKeyword].(string); ok && rawID != "" {
		if idURI, err := uri.Parse(rawID); err == nil {
			base = idURI.ResolveReference(base).Canonicalize()
		}
	}

	// The walk is pre-order, so the first object seen under a base is the
	// one that introduced it (the root, or the subschema declaring the id).
	if _, seen := f.Locations[base.String()]; !seen {
		f.Locations[base.String()] = Location{Pointer: pointer, Dialect: dialect, BaseDialect: baseDialect}
	}

	if ref, ok := v["$ref"].(string); ok {
		f.References = append(f.References, Reference{Keyword: "$ref", Value: ref, Pointer: pointer, Base: base.String()})
	}
	if baseDialect == BaseDialect2020 {
		if ref, ok := v["$dynamicRef"].(string); ok {
			f.References = append(f.References, Reference{Keyword: "$dynamicRef", Value: ref, Pointer: pointer, Base: base.String()})
		}
	}
	if baseDialect == BaseDialect2019 {
		// Draft 2019-09's $recursiveRef value can only ever be "#" —
		// spec.md §4.5.4 says no rewriting is ever performed on it.
		if ref, ok := v["$recursiveRef"].(string); ok {
			f.References = append(f.References, Reference{Keyword: "$recursiveRef", Value: ref, Pointer: pointer, Base: base.String()})
		}
	}

	for key, child := range v {
		if nonSchemaKeys[key] {
			continue
		}
		f.walk(child, pointer+"/"+escapePointerSegment(key), base, dialect, baseDialect)
	}
}

// escapePointerSegment applies RFC 6901 escaping to a single JSON Pointer
// reference token.
func escapePointerSegment(segment string) string {
	segment = strings.ReplaceAll(segment, "~", "~0")
	segment = strings.ReplaceAll(segment, "/", "~1")
	return segment
}
