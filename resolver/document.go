package resolver

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// readYAMLOrJSON loads a schema file, dispatching on file extension only —
// never by content sniffing (spec.md §9 design note).
func readYAMLOrJSON(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var content any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &content); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &content); err != nil {
			return nil, err
		}
	}

	normalized, err := toStringKeyedMap(content)
	if err != nil {
		return nil, err
	}
	return normalized, nil
}

func toStringKeyedMap(value any) (map[string]any, error) {
	m, err := normalizeJSONValue(value)
	if err != nil {
		return nil, err
	}
	asMap, ok := m.(map[string]any)
	if !ok {
		return nil, errNotAnObject
	}
	return asMap, nil
}

func normalizeJSONValue(value any) (any, error) {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			nv, err := normalizeJSONValue(val)
			if err != nil {
				return nil, err
			}
			out[k] = nv
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			key, ok := k.(string)
			if !ok {
				return nil, errNonStringKey
			}
			nv, err := normalizeJSONValue(val)
			if err != nil {
				return nil, err
			}
			out[key] = nv
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			nv, err := normalizeJSONValue(elem)
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil
	default:
		return v, nil
	}
}

// pointerGet navigates a decoded JSON document by JSON Pointer (RFC 6901),
// returning the object at that location. An empty pointer returns root.
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
