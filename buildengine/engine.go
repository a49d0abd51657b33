// Package buildengine implements the indexer's single build primitive
// (spec.md §4.3): for a destination path and a declared dependency set,
// decide whether the destination is fresh, and if not, invoke a handler
// that (re)produces it while discovering further dependencies along the
// way. The engine also tracks every destination it touches during a run
// so that, on Close, any artifact from a prior run that nothing touched
// this time is deleted — incremental reuse plus stale-artifact GC.
//
// It is grounded on original_source's freestanding `build()` template in
// src/index/generators.h: the mtime-vs-sidecar freshness check, the
// create-parent-directories-then-invoke-handler path, and the
// "touch destination and deps file either way" bookkeeping are all
// carried over; the exception-based control flow becomes Go error
// returns per spec.md §9's design note.
package buildengine

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/sourcemeta-go/registryindex/fingerprint"
)

// Handler performs the work that produces destination from dependencies.
// It may call addDynamic to register further inputs discovered while
// running (e.g. schemas pulled in transitively by a bundler) — these are
// added to the dependency set persisted alongside destination. ctx carries
// whatever read-only context the caller's generator needs (a resolver, a
// configuration, …).
type Handler func(destination string, dependencies []string, addDynamic func(path string), ctx any) error

// Engine tracks every path it has touched (written or confirmed fresh)
// under its output root during one run.
type Engine struct {
	outputRoot string
	mu         sync.Mutex
	touched    map[string]bool
}

// New creates the output root if necessary and returns an Engine scoped to
// it. The engine itself tracks existing files lazily, at Close time,
// rather than walking the tree up front — a file never looked at by any
// Build call in the run is simply one Close will find untouched.
func New(outputRoot string) (*Engine, error) {
	if err := os.MkdirAll(outputRoot, 0o755); err != nil {
		return nil, fmt.Errorf("buildengine: create output root %s: %w", outputRoot, err)
	}
	return &Engine{outputRoot: outputRoot, touched: make(map[string]bool)}, nil
}

func (e *Engine) touch(paths ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, p := range paths {
		e.touched[p] = true
	}
}

// Build is the engine's single operation. It returns rebuilt=true if the
// handler ran (the destination was stale or absent), false if the
// destination was already fresh and nothing happened.
//
// Safe to call concurrently across distinct destinations; the engine does
// not itself prevent two concurrent Build calls from racing on the same
// destination — spec.md §5 assigns that invariant to the driver, which
// partitions the output tree so no two handlers ever write the same path.
func (e *Engine) Build(destination string, dependencies []string, handler Handler, ctx any) (bool, error) {
	sidecar := sidecarPath(destination)

	fresh, err := isFresh(destination, sidecar)
	if err != nil {
		return false, err
	}
	if fresh {
		e.touch(destination, sidecar)
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return false, fmt.Errorf("buildengine: create parent of %s: %w", destination, err)
	}

	all := append([]string(nil), dependencies...)
	var dynMu sync.Mutex
	addDynamic := func(path string) {
		dynMu.Lock()
		defer dynMu.Unlock()
		all = append(all, path)
	}

	if err := handler(destination, dependencies, addDynamic, ctx); err != nil {
		return false, err
	}
	if _, err := os.Stat(destination); err != nil {
		return false, fmt.Errorf("buildengine: handler for %s did not produce its destination: %w", destination, err)
	}

	if err := writeSidecar(sidecar, all); err != nil {
		return false, err
	}
	e.touch(destination, sidecar)
	return true, nil
}

// Close deletes every regular file under the engine's output root that no
// Build call touched during this run, implementing the garbage collection
// spec.md §4.3 and §8 (invariant 7) require.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return filepath.WalkDir(e.outputRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		if e.touched[path] {
			return nil
		}
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			return rmErr
		}
		return nil
	})
}

// sidecarPath is the engine's own freshness ledger for destination — not
// to be confused with the "dependencies" generator's `.deps` MetaPack
// artifact (spec.md §4.6), which records the schema's $ref graph for
// consumers, not the build engine's own input set.
func sidecarPath(destination string) string {
	return destination + ".buildsidecar"
}

// sidecarRecord is the engine's on-disk freshness ledger for one
// destination: the dependency set Build was last called with, plus an
// xxh3 fingerprint of each dependency's head taken at that time (SPEC_FULL.md
// §3.1 SUPPLEMENT's content-fingerprint pre-check).
type sidecarRecord struct {
	Dependencies []string          `json:"dependencies"`
	Fingerprints map[string]string `json:"fingerprints"`
}

// isFresh decides whether destination can be reused as-is. Timestamps
// remain the authoritative signal (spec.md invariant 6): any dependency
// whose mtime is newer than destination's forces a rebuild regardless of
// content. Only once the timestamp check passes does the fingerprint
// pre-check run, and only in the direction of narrowing false "fresh"
// verdicts — a fingerprint mismatch forces a rebuild the timestamps alone
// would have called fresh; a fingerprint match never overrides a
// timestamp-says-stale verdict.
func isFresh(destination, sidecar string) (bool, error) {
	destInfo, err := os.Stat(destination)
	if err != nil {
		return false, nil
	}
	data, err := os.ReadFile(sidecar)
	if err != nil {
		return false, nil
	}
	var record sidecarRecord
	if err := json.Unmarshal(data, &record); err != nil || len(record.Dependencies) == 0 {
		return false, nil
	}
	for _, dep := range record.Dependencies {
		info, err := os.Stat(dep)
		if err != nil {
			return false, nil
		}
		if info.ModTime().After(destInfo.ModTime()) {
			return false, nil
		}
	}
	for _, dep := range record.Dependencies {
		previous, ok := record.Fingerprints[dep]
		if !ok {
			continue
		}
		current, _, err := fingerprint.OfFileHead(dep)
		if err != nil {
			return false, nil
		}
		if current.Hex() != previous {
			return false, nil
		}
	}
	return true, nil
}

func writeSidecar(path string, deps []string) error {
	record := sidecarRecord{Dependencies: deps, Fingerprints: make(map[string]string, len(deps))}
	for _, dep := range deps {
		digest, _, err := fingerprint.OfFileHead(dep)
		if err != nil {
			continue
		}
		record.Fingerprints[dep] = digest.Hex()
	}

	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
