package resolver

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/sourcemeta-go/registryindex/config"
	"github.com/sourcemeta-go/registryindex/frame"
	"github.com/sourcemeta-go/registryindex/metapack"
	"github.com/sourcemeta-go/registryindex/runerr"
	"github.com/sourcemeta-go/registryindex/uri"
)

// ReadCallback is invoked with every file path Resolve reads from disk —
// the build engine's dynamic-dependency hook (spec.md §4.5's "optional
// read callback").
type ReadCallback func(path string)

// Resolver registers every schema under a canonical registry URI and
// serves both the original and the rewritten form on demand.
type Resolver struct {
	serverURL string

	mu      sync.RWMutex
	schemas map[string]*Entry
}

// New creates a Resolver scoped to serverURL, which must already be
// canonical (spec.md requires the configuration's `url` be canonicalised
// before constructing the resolver).
func New(serverURL string) *Resolver {
	return &Resolver{serverURL: serverURL, schemas: make(map[string]*Entry)}
}

// Len reports how many schemas are currently registered.
func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.schemas)
}

// Identifiers returns a snapshot of every registered final identifier, for
// callers that need to iterate the registration set (the driver's
// per-schema build phase).
func (r *Resolver) Identifiers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.schemas))
	for id := range r.schemas {
		out = append(out, id)
	}
	return out
}

// Entry returns a copy of the registered entry for identifier, if any.
func (r *Resolver) Entry(identifier string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.schemas[strings.ToLower(identifier)]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Add registers the schema file at path as belonging to collection,
// mounted at collectionRelativePath under the registry, and returns its
// original (pre-rewrite) identifier and its final registry identifier
// (spec.md §4.5.1).
func (r *Resolver) Add(collectionRelativePath string, collection *config.Collection, path string) (originalIdentifier, finalIdentifier string, err error) {
	doc, err := readYAMLOrJSON(path)
	if err != nil {
		return "", "", runerr.New(runerr.KindSchemaResolution, "reading %s: %v", path, err)
	}

	relToCollection, err := filepath.Rel(collection.AbsolutePath, path)
	if err != nil {
		return "", "", runerr.New(runerr.KindSchemaResolution, "%s is not under collection root %s", path, collection.AbsolutePath)
	}
	defaultIdentifier, err := appendPath(collection.Base, filepath.ToSlash(relToCollection))
	if err != nil {
		return "", "", runerr.New(runerr.KindURIParse, "%v", err)
	}

	rawDialect, err := determineDialect(doc, collection.DefaultDialect)
	if err != nil {
		return "", "", err
	}

	rawIdentifier := determineIdentifier(doc, rawDialect)
	idURI, err := uri.Parse(strings.ToLower(rawIdentifier))
	if err != nil {
		return "", "", runerr.New(runerr.KindURIParse, "invalid identifier %q in %s: %v", rawIdentifier, path, err)
	}
	idURI = idURI.Canonicalize()

	var identifier string
	if idURI.IsRelative() {
		identifier = strings.TrimSuffix(collection.Base, "/") + "/" + strings.TrimPrefix(idURI.String(), "/")
	} else {
		identifier = idURI.String()
	}
	if uri.TrimmedBase(identifier, collection.Base) {
		identifier = defaultIdentifier
	}
	if !uri.HasPrefixSegments(identifier, collection.Base) {
		return "", "", &runerr.Envelope{
			Kind:     runerr.KindResolverOutsideBase,
			Message:  "schema identifier " + identifier + " falls outside its collection base " + collection.Base,
			File:     path,
			Severity: runerr.SeverityError,
		}
	}

	finalIdentifier, err = rebase(collection.Base, identifier, r.serverURL, collectionRelativePath)
	if err != nil {
		return "", "", err
	}
	if uri.ContainsDotDot(finalIdentifier) {
		return "", "", runerr.New(runerr.KindResolverOutsideBase, "final identifier %s contains a '..' segment", finalIdentifier)
	}

	var dialect string
	if isOfficialDialect(rawDialect) {
		dialect = rawDialect
	} else {
		dialect, err = rebase(collection.Base, strings.ToLower(rawDialect), r.serverURL, collectionRelativePath)
		if err != nil {
			return "", "", err
		}
	}

	entry := &Entry{
		Path:               path,
		Dialect:            dialect,
		OriginalIdentifier: identifier,
		Collection:         collection,
	}
	relBase, err := uri.Parse(r.serverURL)
	if err == nil {
		finalURI, err2 := uri.Parse(finalIdentifier)
		if err2 == nil {
			entry.RelativePath = finalURI.RelativeTo(relBase).String()
		}
	}

	key := strings.ToLower(finalIdentifier)
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.schemas[key]; ok {
		if existing.Path != path {
			return "", "", runerr.New(runerr.KindDuplicateIdentifier, "identifier %s is produced by both %s and %s", finalIdentifier, existing.Path, path)
		}
		return existing.OriginalIdentifier, key, nil
	}
	r.schemas[key] = entry
	return identifier, finalIdentifier, nil
}

// Materialise records that final_identifier's rewritten form has been
// written to artifactPath, so future Resolve calls read that file directly
// instead of re-deriving the schema (spec.md §4.5.3).
func (r *Resolver) Materialise(finalIdentifier, artifactPath string) error {
	key := strings.ToLower(finalIdentifier)
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.schemas[key]
	if !ok {
		return runerr.New(runerr.KindSchemaResolution, "cannot materialise unknown identifier %s", finalIdentifier)
	}
	entry.CachePath = artifactPath
	return nil
}

// Resolve returns the schema registered under identifier, rewritten so its
// references and `$id` match the registry (spec.md §4.5.2). onRead, if
// non-nil, is invoked with every file path read off disk — the caller uses
// this to register dynamic build dependencies.
func (r *Resolver) Resolve(identifier string, onRead ReadCallback) (any, error) {
	lower := strings.ToLower(identifier)
	matchedKey := lower

	r.mu.RLock()
	entry, ok := r.schemas[lower]
	if !ok && !strings.HasSuffix(lower, ".json") {
		entry, ok = r.schemas[lower+".json"]
		if ok {
			matchedKey = lower + ".json"
		}
	}
	r.mu.RUnlock()

	if !ok {
		if doc, isOfficial := officialResolve(identifier); isOfficial {
			return doc, nil
		}
		return nil, nil
	}

	if entry.CachePath != "" {
		// CachePath points at a MetaPack artifact (header + gzip payload)
		// written by generator.Materialised, not a plain schema file —
		// it must be decoded with metapack.ReadJSON, not readYAMLOrJSON.
		var doc map[string]any
		if _, err := metapack.ReadJSON(entry.CachePath, &doc); err != nil {
			return nil, runerr.New(runerr.KindSchemaResolution, "reading materialised cache %s: %v", entry.CachePath, err)
		}
		if onRead != nil {
			onRead(entry.CachePath)
		}
		return doc, nil
	}

	doc, err := readYAMLOrJSON(entry.Path)
	if err != nil {
		return nil, runerr.New(runerr.KindSchemaResolution, "reading %s: %v", entry.Path, err)
	}
	if onRead != nil {
		onRead(entry.Path)
	}

	doc["$schema"] = entry.Dialect

	fr, err := frame.Analyse(doc, entry.OriginalIdentifier, entry.Dialect)
	if err != nil {
		return nil, runerr.New(runerr.KindSchemaResolution, "framing %s: %v", entry.Path, err)
	}

	for _, ref := range fr.References {
		if strings.HasPrefix(ref.Value, "#") {
			continue
		}
		container, ok := pointerGet(doc, ref.Pointer)
		if !ok {
			continue
		}
		container[ref.Keyword] = normaliseReference(entry.Collection, ref.Base, ref.Value)
	}

	idKeyword := "$id"
	if frame.ClassifyDialect(entry.Dialect) == frame.BaseDialectDraft4 {
		idKeyword = "id"
	}
	doc[idKeyword] = matchedKey

	return doc, nil
}

func normaliseReference(collection *config.Collection, base, reference string) string {
	if replacement, ok := collection.Resolve[reference]; ok {
		return replacement
	}

	value, err := uri.Parse(reference)
	if err != nil {
		return reference
	}
	if value.IsRelative() {
		return value.String()
	}

	baseURI, err := uri.Parse(base)
	if err != nil {
		return value.String()
	}
	lowered := value.WithPath(strings.ToLower(value.Path()))
	return lowered.RelativeTo(baseURI).String()
}

// rebase replaces a value's prefix (collection.base) with newBase+newPrefix,
// canonicalising and forcing a ".json" extension — spec.md §4.5.1 step 5's
// `rebase(collection, identifier, server_url, collection_relative_path)`.
func rebase(base, value, newBase, newPrefix string) (string, error) {
	baseURI, err := uri.Parse(base)
	if err != nil {
		return "", runerr.New(runerr.KindURIParse, "%v", err)
	}
	valueURI, err := uri.Parse(value)
	if err != nil {
		return "", runerr.New(runerr.KindURIParse, "%v", err)
	}

	rel := valueURI.RelativeTo(baseURI)
	if !rel.IsRelative() {
		return rel.String(), nil
	}

	newBaseURI, err := uri.Parse(newBase)
	if err != nil {
		return "", runerr.New(runerr.KindURIParse, "%v", err)
	}
	result := newBaseURI.AppendPath(newPrefix).AppendPath(rel.String()).Canonicalize().Extension(".json")
	return result.String(), nil
}

func appendPath(base, suffix string) (string, error) {
	baseURI, err := uri.Parse(base)
	if err != nil {
		return "", err
	}
	return baseURI.AppendPath(suffix).Canonicalize().String(), nil
}

func determineDialect(doc map[string]any, defaultDialect string) (string, error) {
	if raw, ok := doc["$schema"].(string); ok && raw != "" {
		return raw, nil
	}
	if raw, ok := doc["schema"].(string); ok && raw != "" {
		// draft-04 documents occasionally omit `$schema` but this indexer
		// never emits this form itself; kept only as a defensive fallback.
		return raw, nil
	}
	if defaultDialect != "" {
		return defaultDialect, nil
	}
	return "", runerr.New(runerr.KindSchemaResolution, "cannot determine the schema's dialect: no '$schema' and no collection default")
}

func determineIdentifier(doc map[string]any, dialect string) string {
	idKeyword := "$id"
	if frame.ClassifyDialect(dialect) == frame.BaseDialectDraft4 {
		idKeyword = "id"
	}
	if raw, ok := doc[idKeyword].(string); ok {
		return raw
	}
	return ""
}
