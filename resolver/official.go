package resolver

import "strings"

// officialDialects lists the meta-schema URIs every JSON Schema draft
// publishes for itself. A schema declaring one of these verbatim is left
// alone by rebasing — only user-defined meta-schemas are pulled under the
// registry (spec.md §4.5.1 step 6).
var officialDialects = map[string]bool{
	"https://json-schema.org/draft/2020-12/schema": true,
	"https://json-schema.org/draft/2019-09/schema": true,
	"http://json-schema.org/draft-07/schema#":      true,
	"http://json-schema.org/draft-06/schema#":      true,
	"http://json-schema.org/draft-04/schema#":      true,
}

func isOfficialDialect(dialect string) bool {
	return officialDialects[strings.TrimSuffix(dialect, "#")] || officialDialects[dialect]
}

// officialResolve returns a minimal stand-in document for an official
// meta-schema identifier, used only so an unresolved `$ref` to e.g. the
// 2020-12 meta-schema doesn't hard-fail — the full meta-schema contents are
// supplied by the compiler (github.com/santhosh-tekuri/jsonschema/v5)
// during validation, not by this resolver.
func officialResolve(identifier string) (any, bool) {
	if !isOfficialDialect(identifier) {
		return nil, false
	}
	return map[string]any{"$schema": identifier, "$id": identifier}, true
}
