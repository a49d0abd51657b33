package explorer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sourcemeta-go/registryindex/config"
	"github.com/sourcemeta-go/registryindex/metapack"
)

func TestTryParseVersion(t *testing.T) {
	v, ok := tryParseVersion("v1.2.10")
	if !ok || v.major != 1 || v.minor != 2 || v.patch != 10 {
		t.Fatalf("got %+v, %v", v, ok)
	}
	if _, ok := tryParseVersion("latest"); ok {
		t.Fatal("expected no match for a non-version name")
	}
}

func TestSortEntriesDirectoriesFirstThenSemverDescending(t *testing.T) {
	entries := []Entry{
		{Type: "schema", Name: "1.0.0"},
		{Type: "directory", Name: "zzz"},
		{Type: "schema", Name: "2.0.0"},
		{Type: "schema", Name: "banana"},
		{Type: "schema", Name: "apple"},
	}
	sortEntries(entries)
	if entries[0].Type != "directory" {
		t.Fatalf("expected the directory first, got %+v", entries[0])
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	joined := strings.Join(names[1:], ",")
	if joined != "banana,apple,2.0.0,1.0.0" {
		t.Fatalf("unexpected order: %s", joined)
	}
}

func TestBuildSchemaNavAndDirectoryNav(t *testing.T) {
	root := t.TempDir()
	schemaDir := filepath.Join(root, "schemas", "example")
	explorerDir := filepath.Join(root, "explorer", "example")
	if err := os.MkdirAll(schemaDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(explorerDir, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Configuration{URL: "http://localhost:8000", Title: "Test"}

	materialisedPath := filepath.Join(schemaDir, "a.json")
	if _, err := metapack.WriteJSON(materialisedPath, map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"$id":     "http://localhost:8000/example/a.json",
		"title":   "A",
	}, metapack.WriteOptions{MIME: "application/schema+json", Encoding: metapack.EncodingGzip}); err != nil {
		t.Fatal(err)
	}
	healthPath := filepath.Join(schemaDir, "a.health")
	if _, err := metapack.WriteJSON(healthPath, map[string]any{"score": 95, "errors": []any{}}, metapack.WriteOptions{
		MIME: "application/json", Encoding: metapack.EncodingGzip,
	}); err != nil {
		t.Fatal(err)
	}

	navPath := filepath.Join(explorerDir, "a.nav")
	schemaCtx := &SchemaNavContext{Configuration: cfg, RelativePath: "example/a", Identifier: "http://localhost:8000/example/a.json"}
	if err := BuildSchemaNav(navPath, []string{materialisedPath, healthPath}, func(string) {}, schemaCtx); err != nil {
		t.Fatalf("BuildSchemaNav: %v", err)
	}
	var nav SchemaNav
	if _, err := metapack.ReadJSON(navPath, &nav); err != nil {
		t.Fatal(err)
	}
	if nav.Title != "A" || nav.Health != 95 || nav.BaseDialect != "2020-12" {
		t.Fatalf("unexpected schema nav: %+v", nav)
	}

	dirNavPath := filepath.Join(root, "explorer", "example", "index.nav")
	dirCtx := &DirectoryNavContext{
		Configuration:     cfg,
		PageKey:           "example",
		SchemaDirectory:   schemaDir,
		ExplorerDirectory: explorerDir,
	}
	if err := BuildDirectoryNav(dirNavPath, nil, func(string) {}, dirCtx); err != nil {
		t.Fatalf("BuildDirectoryNav: %v", err)
	}
	var dirNav DirectoryNav
	if _, err := metapack.ReadJSON(dirNavPath, &dirNav); err != nil {
		t.Fatal(err)
	}
	if len(dirNav.Entries) != 1 || dirNav.Entries[0].Name != "a" || dirNav.Entries[0].Type != "schema" {
		t.Fatalf("unexpected directory nav entries: %+v", dirNav.Entries)
	}
}

func TestBuildSearchIndexOrdersByMetadataThenURL(t *testing.T) {
	root := t.TempDir()
	writeNav := func(name string, nav SchemaNav) string {
		p := filepath.Join(root, name+".nav")
		if _, err := metapack.WriteJSON(p, nav, metapack.WriteOptions{MIME: "application/json", Encoding: metapack.EncodingGzip}); err != nil {
			t.Fatal(err)
		}
		return p
	}
	deps := []string{
		writeNav("bare", SchemaNav{URL: "/z"}),
		writeNav("rich", SchemaNav{URL: "/a", Title: "A", Description: "desc"}),
	}

	out := filepath.Join(root, "search.jsonl")
	if err := BuildSearchIndex(out, deps, func(string) {}, nil); err != nil {
		t.Fatalf("BuildSearchIndex: %v", err)
	}
	file, err := metapack.Read(out)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(file.Payload)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two JSONL lines, got %d: %q", len(lines), file.Payload)
	}
	if !strings.HasPrefix(lines[0], `["/a","A","desc"]`) {
		t.Fatalf("expected the richer entry first, got %q", lines[0])
	}
}

func TestBuildIndexHTMLEscapesUserContent(t *testing.T) {
	root := t.TempDir()
	navPath := filepath.Join(root, "index.nav")
	nav := DirectoryNav{URL: "/", Canonical: "http://localhost:8000", Entries: []Entry{
		{Type: "schema", Name: "<script>", Path: "example/evil", Title: "title & stuff"},
	}}
	if _, err := metapack.WriteJSON(navPath, nav, metapack.WriteOptions{MIME: "application/json", Encoding: metapack.EncodingGzip}); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Configuration{URL: "http://localhost:8000", Title: "Test"}
	out := filepath.Join(root, "index.html")
	if err := BuildIndexHTML(out, []string{navPath}, func(string) {}, &HTMLContext{Configuration: cfg}); err != nil {
		t.Fatalf("BuildIndexHTML: %v", err)
	}
	file, err := metapack.Read(out)
	if err != nil {
		t.Fatal(err)
	}
	html := string(file.Payload)
	if strings.Contains(html, "<script>") {
		t.Fatalf("expected the entry name to be escaped, got %s", html)
	}
	if !strings.Contains(html, "&lt;script&gt;") {
		t.Fatalf("expected an escaped entry name in output, got %s", html)
	}
}
