package driver

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/sourcemeta-go/registryindex/buildengine"
	"github.com/sourcemeta-go/registryindex/config"
	"github.com/sourcemeta-go/registryindex/explorer"
	"github.com/sourcemeta-go/registryindex/resolver"
	"github.com/sourcemeta-go/registryindex/runerr"
)

// buildNavigationTree builds every schema navigation document first (each
// depends only on its own materialised form and health report, so the
// phase runs in parallel), then every directory navigation document
// (spec.md §4.8's "bottom-up" requirement reduces to this one barrier: a
// directory only ever reads its immediate schema children's already-built
// .nav files, never another directory's, so directories themselves need no
// further ordering among each other). Grounded on GENERATE_NAV_SCHEMA /
// GENERATE_NAV_DIRECTORY's two-pass structure in main.cc.
func buildNavigationTree(ctx context.Context, engine *buildengine.Engine, res *resolver.Resolver, cfg *config.Configuration, schemasRoot, explorerRoot string, slot *runerr.FirstErrorSlot) error {
	if err := runParallel(ctx, res.Identifiers(), slot, func(identifier string) error {
		return buildSchemaNav(engine, res, cfg, schemasRoot, explorerRoot, identifier)
	}); err != nil {
		return err
	}

	directories, err := listDirectories(schemasRoot)
	if err != nil {
		return err
	}
	return runParallel(ctx, directories, slot, func(dirPath string) error {
		return buildDirectoryNav(engine, cfg, schemasRoot, explorerRoot, dirPath)
	})
}

func buildSchemaNav(engine *buildengine.Engine, res *resolver.Resolver, cfg *config.Configuration, schemasRoot, explorerRoot, identifier string) error {
	entry, ok := res.Entry(identifier)
	if !ok {
		return nil
	}
	relNoExt := strings.TrimSuffix(entry.RelativePath, ".json")
	schemaBase := schemaBasePath(schemasRoot, entry.RelativePath)
	navBase := schemaBasePath(explorerRoot, entry.RelativePath)

	dctx := &explorer.SchemaNavContext{
		Configuration: cfg,
		RelativePath:  relNoExt,
		Identifier:    identifier,
	}
	_, err := engine.Build(navBase+".nav", []string{schemaBase + ".json", schemaBase + ".health"}, explorer.BuildSchemaNav, dctx)
	return err
}

func buildDirectoryNav(engine *buildengine.Engine, cfg *config.Configuration, schemasRoot, explorerRoot, dirPath string) error {
	pageKey, err := pageKeyFor(schemasRoot, dirPath)
	if err != nil {
		return err
	}
	explorerDir := explorerRoot
	if pageKey != "" {
		explorerDir = filepath.Join(explorerRoot, filepath.FromSlash(pageKey))
	}

	deps, err := directoryNavDependencies(dirPath, explorerDir)
	if err != nil {
		return err
	}

	dctx := &explorer.DirectoryNavContext{
		Configuration:     cfg,
		PageKey:           pageKey,
		SchemaDirectory:   dirPath,
		ExplorerDirectory: explorerDir,
	}
	_, err = engine.Build(filepath.Join(explorerDir, "index.nav"), deps, explorer.BuildDirectoryNav, dctx)
	return err
}

// directoryNavDependencies declares each immediate child's artifact as a
// freshness dependency so an unrelated sibling's rebuild doesn't churn this
// directory's navigation document every run: subdirectories contribute
// nothing (their presence, not their metadata, is what this directory
// renders) and schema children contribute their already-built .nav file.
func directoryNavDependencies(schemaDir, explorerDir string) ([]string, error) {
	children, err := os.ReadDir(schemaDir)
	if err != nil {
		return nil, err
	}
	var deps []string
	for _, child := range children {
		if child.IsDir() || filepath.Ext(child.Name()) != ".json" {
			continue
		}
		name := strings.TrimSuffix(child.Name(), ".json")
		deps = append(deps, filepath.Join(explorerDir, name+".nav"))
	}
	return deps, nil
}

// buildHTMLTree renders the root index, every directory page, every schema
// page and the 404 page from the navigation documents buildNavigationTree
// already produced. Grounded on GENERATE_EXPLORER_INDEX /
// GENERATE_EXPLORER_DIRECTORY_PAGE / GENERATE_EXPLORER_SCHEMA_PAGE /
// GENERATE_EXPLORER_404.
func buildHTMLTree(ctx context.Context, engine *buildengine.Engine, res *resolver.Resolver, cfg *config.Configuration, schemasRoot, explorerRoot string, slot *runerr.FirstErrorSlot) error {
	hctx := &explorer.HTMLContext{Configuration: cfg}

	if _, err := engine.Build(filepath.Join(explorerRoot, "index.html"),
		[]string{filepath.Join(explorerRoot, "index.nav")}, explorer.BuildIndexHTML, hctx); err != nil {
		return err
	}
	if _, err := engine.Build(filepath.Join(explorerRoot, "404.html"), nil, explorer.BuildNotFoundHTML, hctx); err != nil {
		return err
	}

	directories, err := listDirectories(schemasRoot)
	if err != nil {
		return err
	}
	if err := runParallel(ctx, directories, slot, func(dirPath string) error {
		if dirPath == schemasRoot {
			return nil
		}
		pageKey, err := pageKeyFor(schemasRoot, dirPath)
		if err != nil {
			return err
		}
		explorerDir := filepath.Join(explorerRoot, filepath.FromSlash(pageKey))
		navPath := filepath.Join(explorerDir, "index.nav")
		_, err = engine.Build(filepath.Join(explorerDir, "index.html"), []string{navPath}, explorer.BuildDirectoryHTML, hctx)
		return err
	}); err != nil {
		return err
	}

	return runParallel(ctx, res.Identifiers(), slot, func(identifier string) error {
		return buildSchemaHTMLPage(engine, res, schemasRoot, explorerRoot, identifier, hctx)
	})
}

func buildSchemaHTMLPage(engine *buildengine.Engine, res *resolver.Resolver, schemasRoot, explorerRoot, identifier string, hctx *explorer.HTMLContext) error {
	entry, ok := res.Entry(identifier)
	if !ok {
		return nil
	}
	schemaBase := schemaBasePath(schemasRoot, entry.RelativePath)
	navBase := schemaBasePath(explorerRoot, entry.RelativePath)
	deps := []string{navBase + ".nav", schemaBase + ".json", schemaBase + ".deps"}
	_, err := engine.Build(navBase+".html", deps, explorer.BuildSchemaHTML, hctx)
	return err
}

// buildSearchIndex collects every schema navigation document and writes the
// flat, sorted JSONL search index at the output root. Grounded on
// GENERATE_SEARCH_INDEX.
func buildSearchIndex(engine *buildengine.Engine, res *resolver.Resolver, schemasRoot, explorerRoot, outputRoot string) error {
	identifiers := res.Identifiers()
	deps := make([]string, 0, len(identifiers))
	for _, identifier := range identifiers {
		entry, ok := res.Entry(identifier)
		if !ok {
			continue
		}
		deps = append(deps, schemaBasePath(explorerRoot, entry.RelativePath)+".nav")
	}
	_, err := engine.Build(filepath.Join(outputRoot, "search.jsonl"), deps, explorer.BuildSearchIndex, nil)
	return err
}

func listDirectories(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			out = append(out, path)
		}
		return nil
	})
	return out, err
}

func pageKeyFor(schemasRoot, dirPath string) (string, error) {
	rel, err := filepath.Rel(schemasRoot, dirPath)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return "", nil
	}
	return filepath.ToSlash(rel), nil
}
