package frame

import "testing"

const dialect2020 = "https://json-schema.org/draft/2020-12/schema"

func TestAnalyseRecordsRootLocation(t *testing.T) {
	schema := map[string]any{
		"$schema": dialect2020,
		"$id":     "https://example.com/schemas/a.json",
	}
	f, err := Analyse(schema, "https://example.com/schemas/a.json", dialect2020)
	if err != nil {
		t.Fatal(err)
	}
	loc, ok := f.Locations["https://example.com/schemas/a.json"]
	if !ok {
		t.Fatal("expected root location to be recorded")
	}
	if loc.BaseDialect != BaseDialect2020 {
		t.Fatalf("BaseDialect = %q", loc.BaseDialect)
	}
}

func TestAnalyseFindsNestedRefAndNestedID(t *testing.T) {
	schema := map[string]any{
		"$schema": dialect2020,
		"$id":     "https://example.com/schemas/a.json",
		"properties": map[string]any{
			"child": map[string]any{
				"$id":  "nested.json",
				"$ref": "other.json",
			},
		},
	}
	f, err := Analyse(schema, "https://example.com/schemas/a.json", dialect2020)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := f.Locations["https://example.com/schemas/nested.json"]; !ok {
		t.Fatalf("expected nested $id to resolve against the root base, got %v", f.Locations)
	}
	if len(f.References) != 1 || f.References[0].Value != "other.json" {
		t.Fatalf("expected exactly one $ref to 'other.json', got %+v", f.References)
	}
	if f.References[0].Base != "https://example.com/schemas/nested.json" {
		t.Fatalf("reference base = %q, want the nested $id", f.References[0].Base)
	}
}

func TestAnalyseIgnoresRefLikeKeysInsideEnum(t *testing.T) {
	schema := map[string]any{
		"$schema": dialect2020,
		"$id":     "https://example.com/schemas/a.json",
		"enum":    []any{map[string]any{"$ref": "should-not-count"}},
	}
	f, err := Analyse(schema, "https://example.com/schemas/a.json", dialect2020)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.References) != 0 {
		t.Fatalf("expected no references from inside 'enum', got %+v", f.References)
	}
}

func TestClassifyDialectDraft4(t *testing.T) {
	if got := ClassifyDialect("http://json-schema.org/draft-04/schema#"); got != BaseDialectDraft4 {
		t.Fatalf("ClassifyDialect = %q", got)
	}
}
