package resolver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sourcemeta-go/registryindex/config"
	"github.com/sourcemeta-go/registryindex/metapack"
	"github.com/sourcemeta-go/registryindex/runerr"
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

func newCollection(t *testing.T, root string) *config.Collection {
	return &config.Collection{AbsolutePath: root, Base: "https://example.com/schemas"}
}

// TestResolverScenarioS1 mirrors spec.md §8 scenario S1.
func TestResolverScenarioS1(t *testing.T) {
	root := t.TempDir()
	writeSchema(t, filepath.Join(root, "a.json"), `{"$schema":"https://json-schema.org/draft/2020-12/schema","$id":"https://example.com/schemas/a"}`)

	r := New("http://localhost:8000")
	col := newCollection(t, root)
	_, finalID, err := r.Add("example", col, filepath.Join(root, "a.json"))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if finalID != "http://localhost:8000/example/a.json" {
		t.Fatalf("finalID = %q", finalID)
	}
	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}

	doc, err := r.Resolve(finalID, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	m := doc.(map[string]any)
	if m["$id"] != "http://localhost:8000/example/a.json" {
		t.Fatalf("$id = %v", m["$id"])
	}
	if m["$schema"] != "https://json-schema.org/draft/2020-12/schema" {
		t.Fatalf("$schema = %v", m["$schema"])
	}
}

// TestResolverScenarioS2 mirrors spec.md §8 scenario S2.
func TestResolverScenarioS2(t *testing.T) {
	root := t.TempDir()
	writeSchema(t, filepath.Join(root, "a.json"), `{"$schema":"https://json-schema.org/draft/2020-12/schema","$id":"https://example.com/schemas/a"}`)
	writeSchema(t, filepath.Join(root, "b.json"), `{"$schema":"https://json-schema.org/draft/2020-12/schema","$id":"https://example.com/schemas/b","$ref":"https://example.com/schemas/a"}`)

	r := New("http://localhost:8000")
	col := newCollection(t, root)
	if _, _, err := r.Add("example", col, filepath.Join(root, "a.json")); err != nil {
		t.Fatal(err)
	}
	_, finalB, err := r.Add("example", col, filepath.Join(root, "b.json"))
	if err != nil {
		t.Fatal(err)
	}

	doc, err := r.Resolve(finalB, nil)
	if err != nil {
		t.Fatal(err)
	}
	// The raw $id values here ("...schemas/a", "...schemas/b") carry no
	// .json suffix, so the relative form computed against them doesn't
	// either — only final (rebased) identifiers are forced to ".json".
	m := doc.(map[string]any)
	if m["$ref"] != "a" {
		t.Fatalf("$ref = %v, want relative 'a'", m["$ref"])
	}
}

// TestResolverScenarioS3 mirrors spec.md §8 scenario S3 — case-insensitive lookup.
func TestResolverScenarioS3(t *testing.T) {
	root := t.TempDir()
	writeSchema(t, filepath.Join(root, "a.json"), `{"$schema":"https://json-schema.org/draft/2020-12/schema","$id":"https://example.com/schemas/a"}`)

	r := New("http://localhost:8000")
	col := newCollection(t, root)
	if _, _, err := r.Add("example", col, filepath.Join(root, "a.json")); err != nil {
		t.Fatal(err)
	}

	lower, err := r.Resolve("http://localhost:8000/example/a.json", nil)
	if err != nil {
		t.Fatal(err)
	}
	upper, err := r.Resolve("HTTP://LOCALHOST:8000/EXAMPLE/A.JSON", nil)
	if err != nil {
		t.Fatal(err)
	}
	if lower.(map[string]any)["$id"] != upper.(map[string]any)["$id"] {
		t.Fatalf("case-insensitive lookups diverged: %v vs %v", lower, upper)
	}
}

// TestResolverScenarioS4 mirrors spec.md §8 scenario S4 — duplicate identifier is fatal.
func TestResolverScenarioS4(t *testing.T) {
	root := t.TempDir()
	writeSchema(t, filepath.Join(root, "x1.json"), `{"$schema":"https://json-schema.org/draft/2020-12/schema","$id":"https://example.com/schemas/x"}`)
	writeSchema(t, filepath.Join(root, "x2.json"), `{"$schema":"https://json-schema.org/draft/2020-12/schema","$id":"https://example.com/schemas/x"}`)

	r := New("http://localhost:8000")
	col := newCollection(t, root)
	if _, _, err := r.Add("example", col, filepath.Join(root, "x1.json")); err != nil {
		t.Fatal(err)
	}
	_, _, err := r.Add("example", col, filepath.Join(root, "x2.json"))
	if err == nil {
		t.Fatal("expected a DuplicateIdentifierError")
	}
	env, ok := err.(*runerr.Envelope)
	if !ok || env.Kind != runerr.KindDuplicateIdentifier {
		t.Fatalf("expected DuplicateIdentifierError, got %v", err)
	}
}

func TestResolverAddIsIdempotentForSamePath(t *testing.T) {
	root := t.TempDir()
	writeSchema(t, filepath.Join(root, "a.json"), `{"$schema":"https://json-schema.org/draft/2020-12/schema","$id":"https://example.com/schemas/a"}`)

	r := New("http://localhost:8000")
	col := newCollection(t, root)
	if _, _, err := r.Add("example", col, filepath.Join(root, "a.json")); err != nil {
		t.Fatal(err)
	}
	if _, _, err := r.Add("example", col, filepath.Join(root, "a.json")); err != nil {
		t.Fatalf("re-adding the same path should be idempotent: %v", err)
	}
	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 after idempotent re-add", r.Len())
	}
}

func TestResolverOutsideBaseFails(t *testing.T) {
	root := t.TempDir()
	writeSchema(t, filepath.Join(root, "a.json"), `{"$schema":"https://json-schema.org/draft/2020-12/schema","$id":"https://other.example/schemas/a"}`)

	r := New("http://localhost:8000")
	col := newCollection(t, root)
	_, _, err := r.Add("example", col, filepath.Join(root, "a.json"))
	if err == nil {
		t.Fatal("expected a ResolverOutsideBaseError")
	}
	env, ok := err.(*runerr.Envelope)
	if !ok || env.Kind != runerr.KindResolverOutsideBase {
		t.Fatalf("expected ResolverOutsideBaseError, got %v", err)
	}
}

func TestResolverMaterialiseShortCircuitsReads(t *testing.T) {
	root := t.TempDir()
	writeSchema(t, filepath.Join(root, "a.json"), `{"$schema":"https://json-schema.org/draft/2020-12/schema","$id":"https://example.com/schemas/a"}`)
	cache := filepath.Join(root, "cache.json")
	cached := map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"$id":     "http://localhost:8000/example/a.json",
		"cached":  true,
	}
	if _, err := metapack.WriteJSON(cache, cached, metapack.WriteOptions{
		MIME: "application/json", Encoding: metapack.EncodingGzip,
	}); err != nil {
		t.Fatal(err)
	}

	r := New("http://localhost:8000")
	col := newCollection(t, root)
	_, finalID, err := r.Add("example", col, filepath.Join(root, "a.json"))
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Materialise(finalID, cache); err != nil {
		t.Fatal(err)
	}

	var readPath string
	doc, err := r.Resolve(finalID, func(p string) { readPath = p })
	if err != nil {
		t.Fatal(err)
	}
	if readPath != cache {
		t.Fatalf("onRead path = %q, want cache path %q", readPath, cache)
	}
	if doc.(map[string]any)["cached"] != true {
		t.Fatalf("expected the cached document's contents, got %v", doc)
	}
}

func TestResolverDefaultDialectFallback(t *testing.T) {
	root := t.TempDir()
	writeSchema(t, filepath.Join(root, "a.json"), `{"$id":"https://example.com/schemas/a"}`)

	r := New("http://localhost:8000")
	col := newCollection(t, root)
	col.DefaultDialect = "https://json-schema.org/draft/2020-12/schema"
	_, finalID, err := r.Add("example", col, filepath.Join(root, "a.json"))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	doc, err := r.Resolve(finalID, nil)
	if err != nil {
		t.Fatal(err)
	}
	if doc.(map[string]any)["$schema"] != col.DefaultDialect {
		t.Fatalf("expected the collection default dialect to be applied")
	}
}
