// Package filex holds filesystem helpers for the updater.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnsureSubdDir creates dirName under the current working directory and
// returns its absolute path.
func EnsureSubdDir(dirName string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getwd: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// SafeJoin joins an archive entry name onto root and fails when the result
// would escape root.
func SafeJoin(root, name string) (string, error) {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return "", fmt.Errorf("illegal path %q: absolute", name)
	}

	cleanRoot := filepath.Clean(root)
	p := filepath.Join(cleanRoot, filepath.FromSlash(name))

	rel, err := filepath.Rel(cleanRoot, p)
	if err != nil {
		return "", fmt.Errorf("illegal path %q: %w", name, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("illegal path %q: outside %s", name, root)
	}
	return p, nil
}
