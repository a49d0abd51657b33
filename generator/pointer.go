package generator

import (
	"strconv"
	"strings"
)

// pointerGet navigates a decoded JSON document by JSON Pointer (RFC 6901)
// and returns the object found there. Duplicated from resolver/document.go's
// helper of the same name — each package that walks pointers keeps its own
// small copy rather than sharing one, matching frame's similarly
// self-contained escapePointerSegment.
func pointerGet(root any, pointer string) (map[string]any, bool) {
	if pointer == "" {
		m, ok := root.(map[string]any)
		return m, ok
	}
	current := root
	for _, raw := range strings.Split(strings.TrimPrefix(pointer, "/"), "/") {
		token := strings.ReplaceAll(strings.ReplaceAll(raw, "~1", "/"), "~0", "~")
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[token]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(token)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	m, ok := current.(map[string]any)
	return m, ok
}

// nonSchemaKeys lists keywords whose values hold arbitrary instance data
// rather than nested schemas — mirrors frame.nonSchemaKeys so walkObjects
// never descends into example payloads or default/enum/const values.
var nonSchemaKeys = map[string]bool{
	"enum": true, "const": true, "default": true, "examples": true,
}

// walkObjects visits every nested JSON object in node, depth-first,
// invoking fn with its JSON Pointer ("" for the root object). Used by the unidentified generator to strip non-root
// `$id`/`id` declarations and by the health linter's rule checks, and
// kept separate from frame.Analyse since it doesn't need dialect-aware
// base tracking — just every schema-bearing object in the tree.
func walkObjects(node any, pointer string, fn func(pointer string, obj map[string]any)) {
	switch v := node.(type) {
	case map[string]any:
		fn(pointer, v)
		for key, child := range v {
			if nonSchemaKeys[key] {
				continue
			}
			walkObjects(child, pointer+"/"+escapeSegment(key), fn)
		}
	case []any:
		for i, child := range v {
			walkObjects(child, pointer+"/"+strconv.Itoa(i), fn)
		}
	}
}

func escapeSegment(segment string) string {
	segment = strings.ReplaceAll(segment, "~", "~0")
	segment = strings.ReplaceAll(segment, "/", "~1")
	return segment
}
