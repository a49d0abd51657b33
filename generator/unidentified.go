package generator

import (
	"github.com/sourcemeta-go/registryindex/metapack"
)

// Unidentified bundles the schema and then strips every `$id`/`id` below
// the root, leaving exactly one identifier in the whole document — spec.md
// §4.6: "bundle, then strip every $id below the root so the schema has
// exactly one identifier." Grounded on GENERATE_UNIDENTIFIED.
func Unidentified(destination string, dependencies []string, addDynamic func(string), ctxAny any) error {
	gctx := ctxAny.(*Context)

	var schema map[string]any
	if _, err := metapack.ReadJSON(dependencies[0], &schema); err != nil {
		return err
	}

	if err := bundleDoc(schema, gctx.Resolver, gctx.Identifier, addDynamic); err != nil {
		return err
	}

	walkObjects(schema, "", func(pointer string, obj map[string]any) {
		if pointer == "" {
			return
		}
		// Rather than branching on each node's dialect (inlined subschemas
		// keep their own $schema), both "$id" and "id" are dropped;
		// deleting the keyword a node never had is a no-op.
		delete(obj, "$id")
		delete(obj, "id")
	})

	dialectID, _ := schema["$schema"].(string)
	_, err := metapack.WriteJSON(destination, schema, metapack.WriteOptions{
		MIME:      "application/schema+json",
		Encoding:  metapack.EncodingGzip,
		Extension: dialectID,
	})
	return err
}
