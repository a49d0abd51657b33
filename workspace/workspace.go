// Package workspace locates the two filesystem roots the configuration
// loader needs beyond the config file's own path: the registry root (the
// nearest ancestor directory holding registry.json) and the global
// collections directory (used to resolve "@name" extends entries, spec
// §4.4 step 2). It is grounded on appidentity's ancestor-directory search
// (cache.go / loader.go's findIdentityFile), trimmed of the identity-file
// schema concerns that do not apply here — the registry only ever looks
// for a marker file name, never parses its contents during discovery.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnvCollectionsDir overrides the discovered collections directory.
const EnvCollectionsDir = "REGISTRY_COLLECTIONS_DIR"

// DefaultCollectionsDirName is the directory name looked for relative to
// the discovered root when no explicit override is given.
const DefaultCollectionsDirName = "collections"

// maxSearchDepth bounds the ancestor walk so a misconfigured filesystem
// cannot loop forever searching for a root that does not exist.
const maxSearchDepth = 32

// NotFoundError reports that no root marker was found while walking
// upward from the start directory.
type NotFoundError struct {
	Marker        string
	StartDir      string
	SearchedPaths []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("workspace: %q not found above %s (searched %d directories)", e.Marker, e.StartDir, len(e.SearchedPaths))
}

// FindRoot walks upward from startDir (or the current working directory if
// startDir is empty) looking for a directory containing marker (e.g.
// "registry.json" or ".git"). It returns the absolute path to the
// directory that contains marker.
func FindRoot(startDir, marker string) (string, error) {
	absStart, err := absOrCwd(startDir)
	if err != nil {
		return "", err
	}

	searched := make([]string, 0, maxSearchDepth)
	current := absStart
	for depth := 0; depth < maxSearchDepth; depth++ {
		candidate := filepath.Join(current, marker)
		searched = append(searched, candidate)
		if _, err := os.Stat(candidate); err == nil {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	return "", &NotFoundError{Marker: marker, StartDir: absStart, SearchedPaths: searched}
}

// CollectionsDir resolves the global collections directory used for
// "@name" extends entries (spec §4.4 step 2):
//
//  1. REGISTRY_COLLECTIONS_DIR environment variable, if set;
//  2. a "collections" directory next to the registry root located by
//     walking up from startDir looking for "registry.json";
//  3. a "collections" directory inside startDir (the current working
//     directory when startDir is empty), as a last resort so the loader always has a (possibly nonexistent) path
//     to report in error messages.
func CollectionsDir(startDir string) string {
	if env := os.Getenv(EnvCollectionsDir); env != "" {
		if abs, err := filepath.Abs(env); err == nil {
			return abs
		}
		return env
	}

	if root, err := FindRoot(startDir, "registry.json"); err == nil {
		return filepath.Join(root, DefaultCollectionsDirName)
	}

	if abs, err := absOrCwd(startDir); err == nil {
		return filepath.Join(abs, DefaultCollectionsDirName)
	}
	return DefaultCollectionsDirName
}

func absOrCwd(dir string) (string, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("workspace: getwd: %w", err)
		}
		return cwd, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("workspace: abs(%s): %w", dir, err)
	}
	return abs, nil
}
