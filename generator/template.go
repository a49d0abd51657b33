package generator

import (
	"fmt"

	"github.com/sourcemeta-go/registryindex/metapack"
)

// compiledTemplate is the simplified, documented stand-in for Blaze's
// exhaustive evaluation template (see DESIGN.md): this indexer has no
// equivalent of Blaze's serialisable bytecode compiler in its dependency
// set, so the "compiled template" artifact here records that the schema
// compiled successfully against santhosh-tekuri/jsonschema/v5 plus the
// identifier a future evaluator would recompile from, rather than an
// opaque portable instruction stream.
type compiledTemplate struct {
	Identifier string `json:"identifier"`
	Compiled   bool   `json:"compiled"`
}

// CompiledTemplate compiles the materialised schema and writes a record of
// the outcome, uncompressed — the one generator spec.md marks `identity`
// encoding, since (per GENERATE_BLAZE_TEMPLATE_EXHAUSTIVE's comment) a real
// evaluation template needs to be read back without a decompression step
// on every validation call.
func CompiledTemplate(destination string, _ []string, _ func(string), ctxAny any) error {
	gctx := ctxAny.(*Context)

	if _, err := compileSchema(gctx.Resolver, gctx.Identifier); err != nil {
		return fmt.Errorf("generator: compiling template for %s: %w", gctx.Identifier, err)
	}

	_, err := metapack.WriteJSON(destination, compiledTemplate{Identifier: gctx.Identifier, Compiled: true}, metapack.WriteOptions{
		MIME:     "application/json",
		Encoding: metapack.EncodingIdentity,
	})
	return err
}
