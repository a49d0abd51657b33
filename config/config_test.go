package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadMinimal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json"), `{
		"url": "http://localhost:8000",
		"port": 8000,
		"schemas": {"example": {"path": "schemas", "base": "https://example.com/schemas"}}
	}`)

	cfg, err := Load(filepath.Join(dir, "config.json"), filepath.Join(dir, "collections"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.URL != "http://localhost:8000" {
		t.Fatalf("URL = %q", cfg.URL)
	}
	if cfg.Title != defaultTitle || cfg.Description != defaultDescription {
		t.Fatalf("expected default title/description, got %q / %q", cfg.Title, cfg.Description)
	}
	entry, ok := cfg.Entries["example"]
	if !ok || !entry.IsCollection() {
		t.Fatalf("expected a collection entry named 'example'")
	}
	if entry.Collection.Base != "https://example.com/schemas" {
		t.Fatalf("Base = %q", entry.Collection.Base)
	}
}

func TestLoadExtendsRelative(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "base", "registry.json"), `{
		"schemas": {"vendor": {"path": "schemas", "base": "https://vendor.example/schemas"}}
	}`)
	writeFile(t, filepath.Join(dir, "config.json"), `{
		"url": "http://localhost:9000",
		"port": 9000,
		"extends": ["base"]
	}`)

	cfg, err := Load(filepath.Join(dir, "config.json"), filepath.Join(dir, "collections"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	entry, ok := cfg.Entries["vendor"]
	if !ok || !entry.IsCollection() {
		t.Fatalf("expected extended collection 'vendor' to be present")
	}
	want := filepath.Join(dir, "base", "schemas")
	if entry.Collection.AbsolutePath != want {
		t.Fatalf("AbsolutePath = %q, want %q (rewritten relative to extension dir)", entry.Collection.AbsolutePath, want)
	}
}

func TestLoadExtendsNamedCollection(t *testing.T) {
	dir := t.TempDir()
	collections := filepath.Join(dir, "collections")
	writeFile(t, filepath.Join(collections, "acme", "registry.json"), `{
		"schemas": {"acme": {"path": "schemas", "base": "https://acme.example/schemas"}}
	}`)
	writeFile(t, filepath.Join(dir, "config.json"), `{
		"url": "http://localhost:9100",
		"port": 9100,
		"extends": ["@acme"]
	}`)

	cfg, err := Load(filepath.Join(dir, "config.json"), collections)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := cfg.Entries["acme"]; !ok {
		t.Fatalf("expected '@acme' preset entries to be merged in")
	}
}

func TestLoadDetectsExtendsCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a", "registry.json"), `{"extends": ["../b"], "schemas": {}}`)
	writeFile(t, filepath.Join(dir, "b", "registry.json"), `{"extends": ["../a"], "schemas": {}}`)
	writeFile(t, filepath.Join(dir, "config.json"), `{
		"url": "http://localhost:9200", "port": 9200, "extends": ["a"]
	}`)

	_, err := Load(filepath.Join(dir, "config.json"), filepath.Join(dir, "collections"))
	if err == nil {
		t.Fatal("expected a cycle error")
	}
	if _, ok := err.(*CycleError); !ok {
		t.Fatalf("expected *CycleError, got %T: %v", err, err)
	}
}

func TestLoadMissingURLFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json"), `{"port": 1234, "schemas": {}}`)

	_, err := Load(filepath.Join(dir, "config.json"), filepath.Join(dir, "collections"))
	if err == nil {
		t.Fatal("expected a validation error")
	}
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if ve.Message == "" {
		t.Fatal("expected a message")
	}
}

func TestLoadHeadAndHeroAreDistinct(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json"), `{
		"url": "http://localhost:8300", "port": 8300,
		"hero": "<h1>hero</h1>", "head": "<meta name=\"x\">",
		"schemas": {}
	}`)

	cfg, err := Load(filepath.Join(dir, "config.json"), filepath.Join(dir, "collections"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Hero != "<h1>hero</h1>" {
		t.Fatalf("Hero = %q", cfg.Hero)
	}
	if cfg.Head != `<meta name="x">` {
		t.Fatalf("Head = %q, want the head string unaffected by hero processing", cfg.Head)
	}
}

func TestLoadExtraFlagsAndResolve(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json"), `{
		"url": "http://localhost:8400", "port": 8400,
		"schemas": {
			"example": {
				"path": "schemas", "base": "https://example.com/schemas",
				"resolve": {"https://example.com/old": "https://example.com/new"},
				"x-sourcemeta-registry:blaze-exhaustive": true,
				"x-disabled-flag": false
			}
		}
	}`)

	cfg, err := Load(filepath.Join(dir, "config.json"), filepath.Join(dir, "collections"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	col := cfg.Entries["example"].Collection
	if col.Resolve["https://example.com/old"] != "https://example.com/new" {
		t.Fatalf("Resolve map not parsed: %+v", col.Resolve)
	}
	if !col.Extra["x-sourcemeta-registry:blaze-exhaustive"] {
		t.Fatal("expected the true x- flag to be recorded")
	}
	if col.Extra["x-disabled-flag"] {
		t.Fatal("a false-valued x- flag must not be recorded")
	}
}

func TestLoadPagesOverlay(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json"), `{
		"url": "http://localhost:8500", "port": 8500,
		"schemas": {},
		"pages": {"vendor/api": {"title": "Vendor API"}}
	}`)

	cfg, err := Load(filepath.Join(dir, "config.json"), filepath.Join(dir, "collections"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	target := Page{}
	cfg.Inflate("vendor/api", &target)
	if target.Title != "Vendor API" {
		t.Fatalf("Inflate did not apply pages overlay: %+v", target)
	}
}
