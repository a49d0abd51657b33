package config

import (
	"fmt"
	"strings"

	"github.com/sourcemeta-go/registryindex/uri"
)

// parse validates the merged raw document and constructs the typed
// Configuration (spec.md §4.4 "Parsing").
func parse(raw map[string]any, file string) (*Configuration, error) {
	cfg := &Configuration{Entries: make(map[string]Entry)}

	rawURL, ok := raw["url"].(string)
	if !ok || rawURL == "" {
		return nil, &ValidationError{File: file, Message: "Missing 'url' required property"}
	}
	parsedURL, err := uri.Parse(rawURL)
	if err != nil {
		return nil, &ValidationError{File: file, Pointer: "/url", Message: "the 'url' property must be a valid URI: " + err.Error()}
	}
	cfg.URL = strings.TrimRight(parsedURL.Canonicalize().String(), "/")

	port, err := requireInt(raw, "port", file)
	if err != nil {
		return nil, err
	}
	if port <= 0 {
		return nil, &ValidationError{File: file, Pointer: "/port", Message: "the 'port' property must be a positive integer"}
	}
	cfg.Port = port

	cfg.Title, _ = raw["title"].(string)
	cfg.Description, _ = raw["description"].(string)

	if rawHero, ok := raw["hero"]; ok {
		s, ok := rawHero.(string)
		if !ok {
			return nil, &ValidationError{File: file, Pointer: "/hero", Message: "the 'hero' property must be a string"}
		}
		cfg.Hero = s
	}
	// Unlike the original parser (which assigns `head` into the `hero`
	// field), `head` is stored under its own field — spec.md §9 flags the
	// original behaviour as a likely bug and asks for this fix.
	if rawHead, ok := raw["head"]; ok {
		s, ok := rawHead.(string)
		if !ok {
			return nil, &ValidationError{File: file, Pointer: "/head", Message: "the 'head' property must be a string"}
		}
		cfg.Head = s
	}

	if rawAction, ok := raw["action"]; ok {
		action, err := parseAction(rawAction, file)
		if err != nil {
			return nil, err
		}
		cfg.Action = action
	}

	schemas, ok := raw["schemas"]
	if ok {
		schemasMap, ok := schemas.(map[string]any)
		if !ok {
			return nil, &ValidationError{File: file, Pointer: "/schemas", Message: "the 'schemas' property must be an object"}
		}
		for relPath, rawEntry := range schemasMap {
			entryMap, ok := rawEntry.(map[string]any)
			if !ok {
				return nil, &ValidationError{File: file, Pointer: "/schemas/" + relPath, Message: "every schemas entry must be an object"}
			}
			entry, err := parseEntry(entryMap, file, "/schemas/"+relPath)
			if err != nil {
				return nil, err
			}
			cfg.Entries[relPath] = entry
		}
	}

	if rawPages, ok := raw["pages"]; ok {
		pagesMap, ok := rawPages.(map[string]any)
		if !ok {
			return nil, &ValidationError{File: file, Pointer: "/pages", Message: "the 'pages' property must be an object"}
		}
		cfg.Pages = make(map[string]Page, len(pagesMap))
		for relPath, rawPage := range pagesMap {
			pageMap, ok := rawPage.(map[string]any)
			if !ok {
				return nil, &ValidationError{File: file, Pointer: "/pages/" + relPath, Message: "every pages entry must be an object"}
			}
			cfg.Pages[relPath] = parsePage(pageMap)
		}
	}

	return cfg, nil
}

func parsePage(m map[string]any) Page {
	var p Page
	p.Title, _ = m["title"].(string)
	p.Description, _ = m["description"].(string)
	p.Email, _ = m["email"].(string)
	p.GitHub, _ = m["github"].(string)
	p.Website, _ = m["website"].(string)
	return p
}

// parseEntry distinguishes a Page from a Collection by the presence of a
// "path" property, per spec.md §4.4 step 4: "presence of a `path` property
// distinguishes Collection from Page".
func parseEntry(m map[string]any, file, pointer string) (Entry, error) {
	page := parsePage(m)

	rawPath, hasPath := m["path"]
	if !hasPath {
		return Entry{Page: page}, nil
	}

	absolutePath, ok := rawPath.(string)
	if !ok || absolutePath == "" {
		return Entry{}, &ValidationError{File: file, Pointer: pointer + "/path", Message: "the 'path' property must be a non-empty string"}
	}

	rawBase, ok := m["base"].(string)
	if !ok || rawBase == "" {
		return Entry{}, &ValidationError{File: file, Pointer: pointer + "/base", Message: "a collection entry requires a 'base' property"}
	}
	baseURI, err := uri.Parse(rawBase)
	if err != nil {
		return Entry{}, &ValidationError{File: file, Pointer: pointer + "/base", Message: "the 'base' property must be a valid URI: " + err.Error()}
	}

	col := &Collection{
		Page:         page,
		AbsolutePath: absolutePath,
		Base:         baseURI.Canonicalize().String(),
	}

	if dialect, ok := m["defaultDialect"].(string); ok {
		col.DefaultDialect = dialect
	}

	if rawResolve, ok := m["resolve"].(map[string]any); ok {
		col.Resolve = make(map[string]string, len(rawResolve))
		for from, to := range rawResolve {
			toStr, ok := to.(string)
			if !ok {
				return Entry{}, &ValidationError{File: file, Pointer: pointer + "/resolve/" + from, Message: "every 'resolve' value must be a string"}
			}
			col.Resolve[from] = toStr
		}
	}

	for key, value := range m {
		if !strings.HasPrefix(key, "x-") {
			continue
		}
		if flag, ok := value.(bool); ok && flag {
			if col.Extra == nil {
				col.Extra = make(map[string]bool)
			}
			col.Extra[key] = true
		}
	}

	return Entry{Collection: col}, nil
}

func parseAction(raw any, file string) (*Action, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, &ValidationError{File: file, Pointer: "/action", Message: "the 'action' property must be an object"}
	}
	action := &Action{}
	for _, field := range []struct {
		name string
		dst  *string
	}{
		{"url", &action.URL},
		{"icon", &action.Icon},
		{"title", &action.Title},
	} {
		value, ok := m[field.name]
		if !ok {
			return nil, &ValidationError{File: file, Pointer: "/action", Message: fmt.Sprintf("the 'action' property must define a '%s' property", field.name)}
		}
		s, ok := value.(string)
		if !ok {
			return nil, &ValidationError{File: file, Pointer: "/action/" + field.name, Message: fmt.Sprintf("the 'action/%s' property must be a string", field.name)}
		}
		*field.dst = s
	}
	return action, nil
}

func requireInt(raw map[string]any, key, file string) (int, error) {
	value, ok := raw[key]
	if !ok {
		return 0, &ValidationError{File: file, Message: fmt.Sprintf("Missing '%s' required property", key)}
	}
	switch n := value.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, &ValidationError{File: file, Pointer: "/" + key, Message: fmt.Sprintf("the '%s' property must be an integer", key)}
		}
		return int(n), nil
	default:
		return 0, &ValidationError{File: file, Pointer: "/" + key, Message: fmt.Sprintf("the '%s' property must be an integer", key)}
	}
}
