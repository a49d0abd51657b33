package generator

import (
	"strings"

	"github.com/sourcemeta-go/registryindex/frame"
	"github.com/sourcemeta-go/registryindex/metapack"
)

// dependencyEdge is one `{from, to, at}` entry in the dependencies output.
type dependencyEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
	At   string `json:"at"`
}

// Dependencies writes the schema's transitive `$ref` graph as an array of
// `{from, to, at}` edges, resolving every external target through the
// resolver to discover further edges inside it. Grounded on
// GENERATE_DEPENDENCIES.
func Dependencies(destination string, dependencies []string, addDynamic func(string), ctxAny any) error {
	gctx := ctxAny.(*Context)

	var schema map[string]any
	if _, err := metapack.ReadJSON(dependencies[0], &schema); err != nil {
		return err
	}
	dialectID, _ := schema["$schema"].(string)

	var edges []dependencyEdge
	visited := map[string]bool{}
	if err := collectDependencyEdges(schema, gctx.Identifier, dialectID, gctx, addDynamic, visited, &edges); err != nil {
		return err
	}
	if edges == nil {
		edges = []dependencyEdge{}
	}

	_, err := metapack.WriteJSON(destination, edges, metapack.WriteOptions{
		MIME:     "application/json",
		Encoding: metapack.EncodingGzip,
	})
	return err
}

func collectDependencyEdges(doc any, rootIdentifier, dialectID string, gctx *Context, addDynamic func(string), visited map[string]bool, edges *[]dependencyEdge) error {
	fr, err := frame.Analyse(doc, rootIdentifier, dialectID)
	if err != nil {
		return err
	}

	for _, ref := range fr.References {
		if strings.HasPrefix(ref.Value, "#") {
			continue
		}
		target, err := resolveReference(ref.Base, ref.Value)
		if err != nil {
			continue
		}
		*edges = append(*edges, dependencyEdge{From: ref.Base, To: target, At: ref.Pointer})

		key := strings.ToLower(target)
		if visited[key] {
			continue
		}
		visited[key] = true

		resolved, err := gctx.Resolver.Resolve(target, addDynamic)
		if err != nil {
			return err
		}
		targetSchema, ok := resolved.(map[string]any)
		if !ok || targetSchema == nil {
			continue
		}
		targetDialect, _ := targetSchema["$schema"].(string)
		if err := collectDependencyEdges(targetSchema, target, targetDialect, gctx, addDynamic, visited, edges); err != nil {
			return err
		}
	}
	return nil
}
