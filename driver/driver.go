// Package driver orchestrates one complete registry build (spec.md §4.8):
// walk every configured collection into the resolver, run the generator set
// over every registered schema, assemble the explorer's navigation and HTML
// tree bottom-up, write the flat search index, and garbage-collect whatever
// a prior run left behind that this one no longer touches. It is grounded
// on original_source's `main.cc` driving loop (register, then per-schema
// artifacts, then navigation, then HTML, then search, each phase a barrier
// before the next) and on MacroPower-x's errgroup-based worker-pool usage
// for the parallel phases — the idiomatic Go replacement for the original's
// hand-rolled work-stealing thread pool (SPEC_FULL.md §5).
package driver

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sourcemeta-go/registryindex/buildengine"
	"github.com/sourcemeta-go/registryindex/config"
	"github.com/sourcemeta-go/registryindex/generator"
	"github.com/sourcemeta-go/registryindex/metapack"
	"github.com/sourcemeta-go/registryindex/resolver"
	"github.com/sourcemeta-go/registryindex/runerr"
)

// Options carries everything one driver run needs beyond the signal-aware
// context the caller derives via runctl.WithSignals.
type Options struct {
	Configuration *config.Configuration
	OutputRoot    string
	Logger        *zap.Logger
}

// schemasDirName and explorerDirName are the two mirrored subtrees the
// output layout table (spec.md §6) names.
const (
	schemasDirName  = "schemas"
	explorerDirName = "explorer"
)

// Run executes one full build: register every collection's schemas, produce
// every schema's artifact set, rebuild the explorer's navigation/HTML tree,
// write the search index and the trimmed configuration snapshot, then
// garbage-collect stale output. It returns the first error any phase
// reports, matching spec.md §5's "first exception wins, re-thrown on the
// main thread after join."
func Run(ctx context.Context, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	engine, err := buildengine.New(opts.OutputRoot)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := engine.Close(); closeErr != nil {
			logger.Warn("driver: garbage collection failed", zap.Error(closeErr))
		}
	}()

	res := resolver.New(opts.Configuration.URL)
	schemasRoot := filepath.Join(opts.OutputRoot, schemasDirName)
	explorerRoot := filepath.Join(opts.OutputRoot, explorerDirName)

	var slot runerr.FirstErrorSlot

	logger.Info("driver: registering collections")
	if err := registerCollections(res, opts.Configuration); err != nil {
		return err
	}
	logger.Info("driver: registered schemas", zap.Int("count", res.Len()))

	if err := runParallel(ctx, res.Identifiers(), &slot, func(identifier string) error {
		return buildSchemaArtifacts(engine, res, identifier, schemasRoot)
	}); err != nil {
		return err
	}

	if err := buildNavigationTree(ctx, engine, res, opts.Configuration, schemasRoot, explorerRoot, &slot); err != nil {
		return err
	}

	if err := buildHTMLTree(ctx, engine, res, opts.Configuration, schemasRoot, explorerRoot, &slot); err != nil {
		return err
	}

	if err := buildSearchIndex(engine, res, schemasRoot, explorerRoot, opts.OutputRoot); err != nil {
		return err
	}

	if err := writeTrimmedConfiguration(engine, opts.Configuration, opts.OutputRoot); err != nil {
		return err
	}

	logger.Info("driver: build complete")
	return nil
}

// registerCollections walks every collection in configuration order (sorted
// by relative path — the configuration loader's map has no insertion order
// of its own to preserve, and collections write to disjoint subtrees, so a
// deterministic substitute order changes nothing observable). Walking
// itself stays sequential per spec.md §4.8's "for each Collection... walk
// ... recursively": only the per-schema artifact phase that follows is
// parallelised.
func registerCollections(res *resolver.Resolver, cfg *config.Configuration) error {
	keys := make([]string, 0, len(cfg.Entries))
	for key := range cfg.Entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		entry := cfg.Entries[key]
		if !entry.IsCollection() {
			continue
		}
		if err := walkCollection(res, key, entry.Collection); err != nil {
			return err
		}
	}
	return nil
}

// schemaFilePattern is the doublestar glob every collection member must
// match, grounded on pathfinder/finder.go's FilepathGlob-based file
// selection (the one other corpus use of this matcher).
const schemaFilePattern = "*.{json,yaml,yml}"

func walkCollection(res *resolver.Resolver, relativePath string, collection *config.Collection) error {
	return filepath.WalkDir(collection.AbsolutePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") {
			return nil
		}
		matched, err := doublestar.Match(schemaFilePattern, strings.ToLower(name))
		if err != nil {
			return err
		}
		if !matched {
			return nil
		}
		_, _, err = res.Add(relativePath, collection, path)
		return err
	})
}

// runParallel fans work out across a fixed-size pool sized to
// runtime.GOMAXPROCS(0) (SPEC_FULL.md §4.3's worker pool note), reporting
// every error into slot so the caller sees the first one regardless of
// which worker produced it, while still letting every in-flight worker run
// to completion before Run returns — no cooperative cancellation mid-task.
func runParallel[T any](ctx context.Context, items []T, slot *runerr.FirstErrorSlot, fn func(T) error) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(runtime.GOMAXPROCS(0))
	for _, item := range items {
		item := item
		group.Go(func() error {
			select {
			case <-groupCtx.Done():
				return groupCtx.Err()
			default:
			}
			if err := fn(item); err != nil {
				slot.Report(err)
				return err
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}
	return slot.Err()
}

// buildSchemaArtifacts runs the full eight-generator set for one registered
// schema, grounded on GENERATE_* dispatch in original_source's main.cc: the
// materialised form is built (and cached into the resolver) first since
// every other generator reads it back, except pointer-positions, which
// tracks source locations in the original on-disk file.
func buildSchemaArtifacts(engine *buildengine.Engine, res *resolver.Resolver, identifier, schemasRoot string) error {
	entry, ok := res.Entry(identifier)
	if !ok {
		return fmt.Errorf("driver: unknown identifier %s", identifier)
	}
	base := schemaBasePath(schemasRoot, entry.RelativePath)
	gctx := &generator.Context{Resolver: res, Identifier: identifier}

	materialisedPath := base + ".json"
	if _, err := engine.Build(materialisedPath, nil, generator.Materialised, gctx); err != nil {
		return fmt.Errorf("driver: materialising %s: %w", identifier, err)
	}
	if err := res.Materialise(identifier, materialisedPath); err != nil {
		return err
	}

	deps := []string{materialisedPath}
	steps := []struct {
		extension string
		handler   buildengine.Handler
		deps      []string
	}{
		{".bundle", generator.Bundle, deps},
		{".unidentified", generator.Unidentified, deps},
		{".deps", generator.Dependencies, deps},
		{".health", generator.Health, deps},
		{".locations", generator.FrameLocations, deps},
		{".positions", generator.PointerPositions, []string{entry.Path}},
		{".blaze", generator.CompiledTemplate, deps},
	}
	for _, step := range steps {
		if _, err := engine.Build(base+step.extension, step.deps, step.handler, gctx); err != nil {
			return fmt.Errorf("driver: building %s%s: %w", identifier, step.extension, err)
		}
	}
	return nil
}

// schemaBasePath maps a resolver entry's server-relative identifier (e.g.
// "example/a.json") onto its extension-free base path under root (e.g.
// "<root>/example/a").
func schemaBasePath(root, relativePath string) string {
	return filepath.Join(root, filepath.FromSlash(strings.TrimSuffix(relativePath, ".json")))
}

// writeTrimmedConfiguration writes the single-key `{port}` snapshot the
// explorer's client-side code reads at runtime. Grounded on
// GENERATE_SERVER_CONFIGURATION.
func writeTrimmedConfiguration(engine *buildengine.Engine, cfg *config.Configuration, outputRoot string) error {
	destination := filepath.Join(outputRoot, "configuration.json")
	_, err := engine.Build(destination, nil, func(destination string, _ []string, _ func(string), _ any) error {
		_, err := metapack.WriteJSON(destination, map[string]any{"port": cfg.Port}, metapack.WriteOptions{
			MIME: "application/json", Encoding: metapack.EncodingGzip,
		})
		return err
	}, nil)
	return err
}
