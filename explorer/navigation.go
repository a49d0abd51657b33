package explorer

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/sourcemeta-go/registryindex/config"
	"github.com/sourcemeta-go/registryindex/frame"
	"github.com/sourcemeta-go/registryindex/metapack"
)

// SchemaNavContext carries the schema-specific inputs BuildSchemaNav needs
// beyond its declared dependencies.
type SchemaNavContext struct {
	Configuration *config.Configuration
	// RelativePath is slash-separated and extension-free, e.g.
	// "example/vendor/a" — the schema's location under the server root.
	RelativePath string
	Identifier   string
}

// BuildSchemaNav writes the schema navigation document for one schema,
// reading its materialised form (dependencies[0]) for title/description/
// dialect/examples/byte count and its health report (dependencies[1]) for
// the score. Grounded on GENERATE_NAV_SCHEMA.
func BuildSchemaNav(destination string, dependencies []string, _ func(string), ctxAny any) error {
	nctx := ctxAny.(*SchemaNavContext)

	var schema map[string]any
	header, err := metapack.ReadJSON(dependencies[0], &schema)
	if err != nil {
		return err
	}

	var health struct {
		Score int `json:"score"`
	}
	if _, err := metapack.ReadJSON(dependencies[1], &health); err != nil {
		return err
	}

	dialectID, _ := schema["$schema"].(string)
	baseDialect := frame.ClassifyDialect(dialectID)

	nav := SchemaNav{
		Path:        nctx.RelativePath,
		URL:         "/" + nctx.RelativePath,
		Canonical:   nctx.Configuration.URL + "/" + nctx.RelativePath,
		Identifier:  nctx.Identifier,
		Dialect:     dialectID,
		BaseDialect: string(baseDialect),
		Bytes:       header.Bytes,
		Health:      health.Score,
	}
	if title, ok := schema["title"].(string); ok {
		nav.Title = strings.TrimSpace(title)
	}
	if description, ok := schema["description"].(string); ok {
		nav.Description = strings.TrimSpace(description)
	}
	if examples, ok := schema["examples"].([]any); ok {
		nav.Examples = examples
	}
	nav.Breadcrumb = breadcrumbFor(nctx.RelativePath)

	_, err = metapack.WriteJSON(destination, nav, metapack.WriteOptions{
		MIME: "application/json", Encoding: metapack.EncodingGzip,
	})
	return err
}

// DirectoryNavContext carries the directory-specific inputs BuildDirectoryNav
// needs. SchemaDirectory and ExplorerDirectory are the physical directories
// mirrored under the schemas/ and explorer/ output trees respectively — the
// driver builds navigation bottom-up so every child's .nav file already
// exists in ExplorerDirectory by the time a directory is processed.
type DirectoryNavContext struct {
	Configuration     *config.Configuration
	PageKey           string // "" at the server root
	SchemaDirectory   string
	ExplorerDirectory string
}

// BuildDirectoryNav writes the directory navigation document for one
// directory, assembling Entries from its immediate children: subdirectories
// become directory entries; materialised schema files (".json") become
// schema entries, read back from their already-built sibling .nav file.
// Grounded on GENERATE_NAV_DIRECTORY.
func BuildDirectoryNav(destination string, _ []string, _ func(string), ctxAny any) error {
	dctx := ctxAny.(*DirectoryNavContext)

	children, err := os.ReadDir(dctx.SchemaDirectory)
	if err != nil {
		return fmt.Errorf("explorer: reading %s: %w", dctx.SchemaDirectory, err)
	}

	var entries []Entry
	for _, child := range children {
		if child.IsDir() {
			childKey := joinPageKey(dctx.PageKey, child.Name())
			entry := Entry{Type: "directory", Name: child.Name(), Path: childKey}
			var page config.Page
			dctx.Configuration.Inflate(childKey, &page)
			applyPage(&entry, page)
			entries = append(entries, entry)
			continue
		}
		if path.Ext(child.Name()) != ".json" {
			continue
		}
		name := strings.TrimSuffix(child.Name(), ".json")
		childKey := joinPageKey(dctx.PageKey, name)
		navPath := path.Join(dctx.ExplorerDirectory, name+".nav")
		var nav SchemaNav
		if _, err := metapack.ReadJSON(navPath, &nav); err != nil {
			return fmt.Errorf("explorer: reading schema nav %s: %w", navPath, err)
		}
		entries = append(entries, Entry{
			Type: "schema", Name: name, Path: childKey,
			Title: nav.Title, Description: nav.Description,
			Identifier: nav.Identifier, Dialect: nav.Dialect, BaseDialect: nav.BaseDialect,
			Bytes: nav.Bytes, Health: nav.Health,
		})
	}
	sortEntries(entries)

	nav := DirectoryNav{
		Path:    dctx.PageKey,
		URL:     "/" + dctx.PageKey,
		Entries: entries,
	}
	if dctx.PageKey == "" {
		nav.Canonical = dctx.Configuration.URL
	} else {
		nav.Canonical = dctx.Configuration.URL + "/" + dctx.PageKey
	}
	var page config.Page
	dctx.Configuration.Inflate(dctx.PageKey, &page)
	nav.Title, nav.Description = page.Title, page.Description
	nav.Email, nav.GitHub, nav.Website = page.Email, page.GitHub, page.Website
	nav.Breadcrumb = breadcrumbFor(dctx.PageKey)

	_, err = metapack.WriteJSON(destination, nav, metapack.WriteOptions{
		MIME: "application/json", Encoding: metapack.EncodingGzip,
	})
	return err
}

func applyPage(entry *Entry, page config.Page) {
	entry.Title, entry.Description = page.Title, page.Description
	entry.Email, entry.GitHub, entry.Website = page.Email, page.GitHub, page.Website
}

func joinPageKey(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

func breadcrumbFor(relativePath string) []Breadcrumb {
	if relativePath == "" {
		return []Breadcrumb{}
	}
	parts := strings.Split(relativePath, "/")
	out := make([]Breadcrumb, 0, len(parts))
	current := ""
	for _, part := range parts {
		current = joinPageKey(current, part)
		out = append(out, Breadcrumb{Name: part, Path: "/" + current})
	}
	return out
}

// sortEntries orders directories before schemas; within a type, SemVer-aware
// names compare descending by (major,minor,patch), otherwise descending by
// Unicode collation order (locale-independent, so accented and mixed-case
// names compare sensibly rather than by raw byte value). Grounded on
// GENERATE_NAV_DIRECTORY's std::sort comparator; the collation comparison
// itself is a new Collator per call since collate.Collator is not safe for
// concurrent use and directories sort concurrently across the driver's
// navigation-build phase.
func sortEntries(entries []Entry) {
	collator := collate.New(language.Und)
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Type != entries[j].Type {
			return entries[i].Type < entries[j].Type
		}
		vi, oki := tryParseVersion(entries[i].Name)
		vj, okj := tryParseVersion(entries[j].Name)
		if oki && okj {
			return vj.less(vi)
		}
		return collator.CompareString(entries[i].Name, entries[j].Name) > 0
	})
}
