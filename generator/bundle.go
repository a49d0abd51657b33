package generator

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/sourcemeta-go/registryindex/frame"
	"github.com/sourcemeta-go/registryindex/metapack"
	"github.com/sourcemeta-go/registryindex/resolver"
	"github.com/sourcemeta-go/registryindex/uri"
)

// Bundle inlines every external `$ref` target transitively under a
// `$defs`/`definitions` key, rewriting the reference to point inside.
// Grounded on GENERATE_BUNDLE / sourcemeta::core::bundle, reimplemented in
// terms of this module's own frame.Analyse + resolver.Resolver rather than
// the original's SchemaFrame+bundle pair, since neither exists in the
// corpus (spec.md explicitly treats the frame walker as "consumed, not
// specified" — see frame/frame.go's package doc).
func Bundle(destination string, dependencies []string, addDynamic func(string), ctxAny any) error {
	gctx := ctxAny.(*Context)

	var schema map[string]any
	if _, err := metapack.ReadJSON(dependencies[0], &schema); err != nil {
		return err
	}

	if err := bundleDoc(schema, gctx.Resolver, gctx.Identifier, addDynamic); err != nil {
		return err
	}

	dialectID, _ := schema["$schema"].(string)
	_, err := metapack.WriteJSON(destination, schema, metapack.WriteOptions{
		MIME:      "application/schema+json",
		Encoding:  metapack.EncodingGzip,
		Extension: dialectID,
	})
	return err
}

// bundleDoc mutates doc in place, inlining every external reference it can
// resolve. It terminates once a full pass over the document finds nothing
// left to inline (invariant 8: idempotent — a second call on an
// already-bundled document finds every $ref either internal or
// unresolvable and changes nothing).
func bundleDoc(doc map[string]any, res *resolver.Resolver, rootIdentifier string, addDynamic func(string)) error {
	dialectID, _ := doc["$schema"].(string)
	defsKey := defsKeyFor(dialectID)

	inlined := map[string]string{} // lowercased absolute target identifier -> slug
	used := map[string]bool{}

	// Every slug already present in the document (from a prior bundling
	// pass, or authored by hand) must not be reassigned to a different
	// target — seed `used` from any existing $defs/definitions container.
	if existing, ok := doc[defsKey].(map[string]any); ok {
		for slug := range existing {
			used[slug] = true
		}
	}

	for {
		fr, err := frame.Analyse(doc, rootIdentifier, dialectID)
		if err != nil {
			return fmt.Errorf("generator: bundling %s: %w", rootIdentifier, err)
		}

		changed := false
		for _, ref := range fr.References {
			if strings.HasPrefix(ref.Value, "#") {
				continue
			}
			target, err := resolveReference(ref.Base, ref.Value)
			if err != nil {
				continue
			}
			key := strings.ToLower(target)

			container, ok := pointerGet(doc, ref.Pointer)
			if !ok {
				continue
			}

			if slug, already := inlined[key]; already {
				newValue := "#/" + defsKey + "/" + slug
				if container[ref.Keyword] != newValue {
					container[ref.Keyword] = newValue
					changed = true
				}
				continue
			}

			resolved, err := res.Resolve(target, addDynamic)
			if err != nil {
				return err
			}
			targetSchema, ok := resolved.(map[string]any)
			if !ok || targetSchema == nil {
				// Unresolvable (e.g. an official meta-schema with no local
				// body) — leave the reference as an absolute external URI.
				continue
			}

			// Strip the inlined subtree's own top-level identifier: once
			// spliced under $defs it is addressed by its slug, not by a
			// second independent resource identity, so nested relative
			// refs inside it must resolve against the root document's base
			// rather than its former absolute one.
			delete(targetSchema, dialectKeyword(targetSchema))

			slug := slugFor(key, used)
			defs, _ := doc[defsKey].(map[string]any)
			if defs == nil {
				defs = make(map[string]any)
				doc[defsKey] = defs
			}
			defs[slug] = targetSchema
			inlined[key] = slug
			container[ref.Keyword] = "#/" + defsKey + "/" + slug
			changed = true
		}

		if !changed {
			return nil
		}
	}
}

// defsKeyFor returns the dialect-appropriate container keyword for inlined
// subschemas: `$defs` from draft 2019-09 onward, `definitions` before.
func defsKeyFor(dialectID string) string {
	switch frame.ClassifyDialect(dialectID) {
	case frame.BaseDialect2019, frame.BaseDialect2020:
		return "$defs"
	default:
		return "definitions"
	}
}

// resolveReference resolves a (possibly relative) reference value against
// base, returning the absolute, canonicalised target identifier with any
// fragment stripped — bundling always inlines a whole document, never a
// fragment of one.
func resolveReference(base, value string) (string, error) {
	baseURI, err := uri.Parse(base)
	if err != nil {
		return "", err
	}
	valueURI, err := uri.Parse(value)
	if err != nil {
		return "", err
	}
	resolved := valueURI.ResolveReference(baseURI).Canonicalize()
	s := resolved.String()
	if idx := strings.IndexByte(s, '#'); idx >= 0 {
		s = s[:idx]
	}
	return s, nil
}

// slugFor derives a short, readable, collision-free $defs/definitions key
// from a target identifier — its final path segment, de-duplicated with a
// numeric suffix when two distinct targets would otherwise collide.
func slugFor(identifier string, used map[string]bool) string {
	u, err := uri.Parse(identifier)
	base := ""
	if err == nil {
		base = path.Base(u.Path())
	}
	base = strings.TrimSuffix(base, path.Ext(base))
	base = sanitizeSlug(base)
	if base == "" {
		base = "schema"
	}

	candidate := base
	for n := 2; used[candidate]; n++ {
		candidate = base + "-" + strconv.Itoa(n)
	}
	used[candidate] = true
	return candidate
}

// sanitizeSlug keeps a slug a valid, unescaped JSON Pointer reference token
// by replacing characters JSON Pointer would otherwise need to escape.
func sanitizeSlug(s string) string {
	s = strings.ReplaceAll(s, "~", "-")
	s = strings.ReplaceAll(s, "/", "-")
	return s
}
