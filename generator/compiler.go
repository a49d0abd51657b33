package generator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/sourcemeta-go/registryindex/resolver"
)

// newCompiler builds a jsonschema.Compiler whose LoadURL hook is backed by
// res, so every reference the compiler follows — including the schema
// being compiled itself — is served from the registry's already-rewritten
// form rather than touching the filesystem or network. Grounded on
// schema/validator.go's newCompiler/localLoader pattern, adapted to route
// through the resolver instead of a metaschema directory on disk.
func newCompiler(res *resolver.Resolver) *jsonschema.Compiler {
	compiler := jsonschema.NewCompiler()
	compiler.LoadURL = (&resolverLoader{resolver: res}).Load
	return compiler
}

// compileSchema compiles identifier (already registered with res) through
// a fresh compiler instance, returning the resulting validator.
func compileSchema(res *resolver.Resolver, identifier string) (*jsonschema.Schema, error) {
	return newCompiler(res).Compile(identifier)
}

type resolverLoader struct {
	resolver *resolver.Resolver
}

func (l *resolverLoader) Load(url string) (io.ReadCloser, error) {
	doc, err := l.resolver.Resolve(url, nil)
	if err != nil {
		return nil, fmt.Errorf("generator: resolving %s for compilation: %w", url, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("generator: cannot resolve schema %s", url)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
