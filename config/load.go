package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultTitle       = "Registry"
	defaultDescription = "A JSON Schema registry"
	registryFileName   = "registry.json"
)

// Load reads the configuration document at path, recursively inlines every
// `extends` reference (resolving "@name" entries under collectionsDir),
// and parses the merged result into a typed Configuration.
func Load(path, collectionsDir string) (*Configuration, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	raw, err := loadRaw(abs, collectionsDir, map[string]bool{})
	if err != nil {
		return nil, err
	}
	return parse(raw, abs)
}

func loadRaw(absPath, collectionsDir string, visiting map[string]bool) (map[string]any, error) {
	if visiting[absPath] {
		return nil, &CycleError{Path: absPath}
	}
	visiting[absPath] = true
	defer delete(visiting, absPath)

	doc, err := readDocument(absPath)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(absPath)

	merged := make(map[string]any)
	if rawExtends, ok := doc["extends"]; ok {
		names, err := stringSlice(rawExtends)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			extPath, err := resolveExtends(name, dir, collectionsDir)
			if err != nil {
				return nil, err
			}
			extDoc, err := loadRaw(extPath, collectionsDir, visiting)
			if err != nil {
				return nil, err
			}
			rewriteSchemaPaths(extDoc, filepath.Dir(extPath))
			merged = shallowMerge(merged, extDoc)
		}
	}
	delete(doc, "extends")
	merged = shallowMerge(merged, doc)
	applyDefaults(merged)
	return merged, nil
}

// resolveExtends turns one `extends` entry into an absolute registry.json
// path: entries starting with "@" resolve under the shared collections
// directory ("@foo/bar" -> "<collections>/foo/bar/registry.json"); every
// other entry resolves relative to the extending file's directory.
func resolveExtends(name, dir, collectionsDir string) (string, error) {
	if strings.HasPrefix(name, "@") {
		return filepath.Join(collectionsDir, strings.TrimPrefix(name, "@"), registryFileName), nil
	}
	return filepath.Join(dir, name, registryFileName), nil
}

// rewriteSchemaPaths makes every relative `schemas.<entry>.path` absolute,
// relative to the extension document's own directory — otherwise a
// collection declared inside an extended file would resolve its on-disk
// path relative to the wrong directory once merged into the parent.
func rewriteSchemaPaths(doc map[string]any, dir string) {
	schemas, ok := doc["schemas"].(map[string]any)
	if !ok {
		return
	}
	for _, raw := range schemas {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		rawPath, ok := entry["path"].(string)
		if !ok || filepath.IsAbs(rawPath) {
			continue
		}
		entry["path"] = filepath.Join(dir, rawPath)
	}
}

func applyDefaults(doc map[string]any) {
	if _, ok := doc["title"]; !ok {
		doc["title"] = defaultTitle
	}
	if _, ok := doc["description"]; !ok {
		doc["description"] = defaultDescription
	}
}

func readDocument(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var content any
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &content); err != nil {
			return nil, &ValidationError{File: path, Message: "invalid YAML: " + err.Error()}
		}
	case ".json":
		if err := json.Unmarshal(data, &content); err != nil {
			return nil, &ValidationError{File: path, Message: "invalid JSON: " + err.Error()}
		}
	default:
		return nil, &ValidationError{File: path, Message: "unsupported configuration format: " + ext}
	}

	normalized, err := normalizeToStringMap(content)
	if err != nil {
		return nil, &ValidationError{File: path, Message: err.Error()}
	}
	return normalized, nil
}

// normalizeToStringMap recursively converts YAML's map[any]any nodes into
// map[string]any so the rest of the package can treat JSON and YAML
// documents identically (grounded on config/layered.go's helper of the
// same name, which solves the same yaml.v3-vs-encoding/json impedance).
func normalizeToStringMap(value any) (map[string]any, error) {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			nv, err := normalizeValue(val)
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
				return nil, &ValidationError{Message: "non-string key in configuration document"}
			}
			nv, err := normalizeValue(val)
			if err != nil {
				return nil, err
			}
			out[key] = nv
		}
		return out, nil
	default:
		return nil, &ValidationError{Message: "configuration document must contain an object at the top level"}
	}
}

func normalizeValue(value any) (any, error) {
	switch v := value.(type) {
	case map[string]any, map[any]any:
		return normalizeToStringMap(v)
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			nv, err := normalizeValue(elem)
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
