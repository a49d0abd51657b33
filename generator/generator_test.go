package generator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sourcemeta-go/registryindex/buildengine"
	"github.com/sourcemeta-go/registryindex/config"
	"github.com/sourcemeta-go/registryindex/metapack"
	"github.com/sourcemeta-go/registryindex/resolver"
)

func writeSchema(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newFixture(t *testing.T) (*resolver.Resolver, string, string) {
	t.Helper()
	root := t.TempDir()
	writeSchema(t, filepath.Join(root, "a.json"), `{
		"$schema":"https://json-schema.org/draft/2020-12/schema",
		"$id":"https://example.com/schemas/a",
		"title":"A",
		"type":"string"
	}`)
	writeSchema(t, filepath.Join(root, "b.json"), `{
		"$schema":"https://json-schema.org/draft/2020-12/schema",
		"$id":"https://example.com/schemas/b",
		"title":"B",
		"$ref":"https://example.com/schemas/a"
	}`)

	r := resolver.New("http://localhost:8000")
	col := &config.Collection{AbsolutePath: root, Base: "https://example.com/schemas"}
	if _, _, err := r.Add("example", col, filepath.Join(root, "a.json")); err != nil {
		t.Fatalf("Add(a): %v", err)
	}
	_, finalB, err := r.Add("example", col, filepath.Join(root, "b.json"))
	if err != nil {
		t.Fatalf("Add(b): %v", err)
	}
	return r, finalB, filepath.Join(root, "b.json")
}

func TestMaterialisedWritesRewrittenSchema(t *testing.T) {
	r, finalB, _ := newFixture(t)
	out := filepath.Join(t.TempDir(), "b.json")
	ctx := &Context{Resolver: r, Identifier: finalB}

	if err := Materialised(out, nil, func(string) {}, ctx); err != nil {
		t.Fatalf("Materialised: %v", err)
	}

	var doc map[string]any
	header, err := metapack.ReadJSON(out, &doc)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if header.MIME != "application/schema+json" || header.Encoding != metapack.EncodingGzip {
		t.Fatalf("unexpected header %+v", header)
	}
	if doc["$ref"] != "a" {
		t.Fatalf("$ref = %v, want relative 'a'", doc["$ref"])
	}
}

func TestBundleInlinesExternalRefAndIsIdempotent(t *testing.T) {
	r, finalB, _ := newFixture(t)
	materialisedPath := filepath.Join(t.TempDir(), "b.json")
	ctx := &Context{Resolver: r, Identifier: finalB}
	if err := Materialised(materialisedPath, nil, func(string) {}, ctx); err != nil {
		t.Fatal(err)
	}

	bundlePath := filepath.Join(t.TempDir(), "b.bundle")
	if err := Bundle(bundlePath, []string{materialisedPath}, func(string) {}, ctx); err != nil {
		t.Fatalf("Bundle: %v", err)
	}

	var first map[string]any
	if _, err := metapack.ReadJSON(bundlePath, &first); err != nil {
		t.Fatal(err)
	}
	defs, ok := first["$defs"].(map[string]any)
	if !ok || len(defs) != 1 {
		t.Fatalf("expected exactly one inlined $defs entry, got %v", first["$defs"])
	}
	if ref, ok := first["$ref"].(string); !ok || ref == "" || ref[0] != '#' {
		t.Fatalf("expected $ref rewritten to an internal pointer, got %v", first["$ref"])
	}

	// Re-bundling the already-bundled document must be a no-op (invariant 8).
	again := filepath.Join(t.TempDir(), "b.bundle.json")
	writeJSON(t, again, first)
	secondPath := filepath.Join(t.TempDir(), "b.bundle2")
	if err := Bundle(secondPath, []string{again}, func(string) {}, ctx); err != nil {
		t.Fatalf("second Bundle: %v", err)
	}
	var second map[string]any
	if _, err := metapack.ReadJSON(secondPath, &second); err != nil {
		t.Fatal(err)
	}
	if len(second["$defs"].(map[string]any)) != 1 {
		t.Fatalf("bundling again should not duplicate entries, got %v", second["$defs"])
	}
}

func TestUnidentifiedStripsNestedIDs(t *testing.T) {
	r, finalB, _ := newFixture(t)
	materialisedPath := filepath.Join(t.TempDir(), "b.json")
	ctx := &Context{Resolver: r, Identifier: finalB}
	if err := Materialised(materialisedPath, nil, func(string) {}, ctx); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "b.unidentified")
	if err := Unidentified(out, []string{materialisedPath}, func(string) {}, ctx); err != nil {
		t.Fatalf("Unidentified: %v", err)
	}
	var doc map[string]any
	if _, err := metapack.ReadJSON(out, &doc); err != nil {
		t.Fatal(err)
	}
	if _, ok := doc["$id"]; !ok {
		t.Fatalf("root $id must survive: %v", doc)
	}
	defs, ok := doc["$defs"].(map[string]any)
	if !ok {
		t.Fatalf("expected $defs from bundling, got %v", doc)
	}
	for name, sub := range defs {
		m := sub.(map[string]any)
		if _, ok := m["$id"]; ok {
			t.Fatalf("inlined def %q retained an $id: %v", name, m)
		}
	}
}

func TestDependenciesReportsExternalEdge(t *testing.T) {
	r, finalB, _ := newFixture(t)
	materialisedPath := filepath.Join(t.TempDir(), "b.json")
	ctx := &Context{Resolver: r, Identifier: finalB}
	if err := Materialised(materialisedPath, nil, func(string) {}, ctx); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "b.deps")
	if err := Dependencies(out, []string{materialisedPath}, func(string) {}, ctx); err != nil {
		t.Fatalf("Dependencies: %v", err)
	}
	var edges []dependencyEdge
	if _, err := metapack.ReadJSON(out, &edges); err != nil {
		t.Fatal(err)
	}
	if len(edges) != 1 {
		t.Fatalf("expected exactly one dependency edge, got %v", edges)
	}
	if edges[0].At != "" {
		t.Fatalf("expected the $ref to sit at the document root, got %q", edges[0].At)
	}
}

func TestFrameLocationsIncludesRoot(t *testing.T) {
	r, finalB, _ := newFixture(t)
	materialisedPath := filepath.Join(t.TempDir(), "b.json")
	ctx := &Context{Resolver: r, Identifier: finalB}
	if err := Materialised(materialisedPath, nil, func(string) {}, ctx); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "b.locations")
	if err := FrameLocations(out, []string{materialisedPath}, func(string) {}, ctx); err != nil {
		t.Fatalf("FrameLocations: %v", err)
	}
	var locations map[string]struct {
		Pointer string `json:"Pointer"`
	}
	if _, err := metapack.ReadJSON(out, &locations); err != nil {
		t.Fatal(err)
	}
	if _, ok := locations[finalB]; !ok {
		t.Fatalf("expected a location entry for the schema's own final identifier, got %v", locations)
	}
}

func TestPointerPositionsTracksNestedKeys(t *testing.T) {
	_, _, bPath := newFixture(t)
	out := filepath.Join(t.TempDir(), "b.positions")
	if err := PointerPositions(out, []string{bPath}, func(string) {}, nil); err != nil {
		t.Fatalf("PointerPositions: %v", err)
	}
	var positions map[string]Position
	if _, err := metapack.ReadJSON(out, &positions); err != nil {
		t.Fatal(err)
	}
	root, ok := positions[""]
	if !ok || root.Line != 1 {
		t.Fatalf("expected a root position on line 1, got %v", positions[""])
	}
	if _, ok := positions["/title"]; !ok {
		t.Fatalf("expected a position for /title, got %v", positions)
	}
}

func TestHealthFlagsMissingTitleAndRedundantTypeArray(t *testing.T) {
	root := t.TempDir()
	writeSchema(t, filepath.Join(root, "c.json"), `{
		"$schema":"https://json-schema.org/draft/2020-12/schema",
		"$id":"https://example.com/schemas/c",
		"type":["string"],
		"properties": {"name": {"type":"string"}}
	}`)
	r := resolver.New("http://localhost:8000")
	col := &config.Collection{AbsolutePath: root, Base: "https://example.com/schemas"}
	_, finalC, err := r.Add("example", col, filepath.Join(root, "c.json"))
	if err != nil {
		t.Fatal(err)
	}
	materialisedPath := filepath.Join(t.TempDir(), "c.json")
	ctx := &Context{Resolver: r, Identifier: finalC}
	if err := Materialised(materialisedPath, nil, func(string) {}, ctx); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "c.health")
	if err := Health(out, []string{materialisedPath}, func(string) {}, ctx); err != nil {
		t.Fatalf("Health: %v", err)
	}
	var report healthReport
	if _, err := metapack.ReadJSON(out, &report); err != nil {
		t.Fatal(err)
	}
	if report.Score >= 100 {
		t.Fatalf("expected a deduction for the missing title/description and the redundant type array, got score %d", report.Score)
	}
	foundRedundant := false
	for _, e := range report.Errors {
		if e.Name == "redundant-type-array" {
			foundRedundant = true
		}
	}
	if !foundRedundant {
		t.Fatalf("expected a redundant-type-array violation, got %+v", report.Errors)
	}
}

func TestCompiledTemplateCompilesSuccessfully(t *testing.T) {
	r, finalB, _ := newFixture(t)
	materialisedPath := filepath.Join(t.TempDir(), "b.json")
	ctx := &Context{Resolver: r, Identifier: finalB}
	if err := Materialised(materialisedPath, nil, func(string) {}, ctx); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "b.blaze")
	if err := CompiledTemplate(out, []string{materialisedPath}, func(string) {}, ctx); err != nil {
		t.Fatalf("CompiledTemplate: %v", err)
	}
	header, err := metapack.ReadJSON(out, &compiledTemplate{})
	if err != nil {
		t.Fatal(err)
	}
	if header.Encoding != metapack.EncodingIdentity {
		t.Fatalf("expected identity encoding, got %v", header.Encoding)
	}
}

func TestGeneratorsIntegrateWithBuildEngine(t *testing.T) {
	r, finalB, _ := newFixture(t)
	engine, err := buildengine.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := &Context{Resolver: r, Identifier: finalB}
	dest := filepath.Join(t.TempDir(), "out", "b.json")
	rebuilt, err := engine.Build(dest, nil, Materialised, ctx)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !rebuilt {
		t.Fatal("expected the first build to report rebuilt=true")
	}
	rebuilt, err = engine.Build(dest, nil, Materialised, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if rebuilt {
		t.Fatal("expected the second build of an unchanged destination to be a no-op")
	}
}

func writeJSON(t *testing.T, path string, value map[string]any) {
	t.Helper()
	if _, err := metapack.WriteJSON(path, value, metapack.WriteOptions{MIME: "application/schema+json", Encoding: metapack.EncodingGzip}); err != nil {
		t.Fatal(err)
	}
}
