package generator

import (
	"github.com/sourcemeta-go/registryindex/frame"
	"github.com/sourcemeta-go/registryindex/metapack"
	"github.com/sourcemeta-go/registryindex/runerr"
)

// Materialised writes the resolver's rewritten form of the schema — `$id`,
// `$schema` and every `$ref`-like keyword already normalised to the
// registry's identifier space. Grounded on GENERATE_MATERIALISED_SCHEMA:
// the resolver does the actual rewriting (spec.md §4.5.2 steps 3-6), so this
// handler's only job is to call it and serialise the result.
func Materialised(destination string, _ []string, addDynamic func(string), ctxAny any) error {
	gctx := ctxAny.(*Context)

	doc, err := gctx.Resolver.Resolve(gctx.Identifier, addDynamic)
	if err != nil {
		return err
	}
	schema, ok := doc.(map[string]any)
	if !ok || schema == nil {
		return runerr.New(runerr.KindSchemaResolution, "cannot materialise unknown identifier %s", gctx.Identifier)
	}

	dialectID, _ := schema["$schema"].(string)
	_, err = metapack.WriteJSON(destination, schema, metapack.WriteOptions{
		MIME:      "application/schema+json",
		Encoding:  metapack.EncodingGzip,
		Extension: dialectID,
	})
	return err
}

// dialectKeyword resolves the identifier keyword ($id vs id) this
// document's dialect expects — reused by bundle/unidentified for the same
// stripping/rewriting decisions the materialised form already made.
func dialectKeyword(schema map[string]any) string {
	schemaDialect, _ := schema["$schema"].(string)
	if frame.ClassifyDialect(schemaDialect) == frame.BaseDialectDraft4 {
		return "id"
	}
	return "$id"
}
