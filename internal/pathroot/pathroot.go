// Package pathroot confines filesystem paths to a designated root.
// A Root is the only way to turn untrusted relative path strings into
// absolute paths, and every resolution is checked against the root, so
// callers cannot construct an escaping path by hand.
package pathroot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EscapeError indicates a path resolved outside its confined root.
type EscapeError struct {
	Root string // Confined root
	Path string // Offending path as given
}

func (e *EscapeError) Error() string {
	return fmt.Sprintf("path %q escapes the confined root %q", e.Path, e.Root)
}

// Root is a confined filesystem root. The zero value is not usable;
// construct one with New or Reroot.
type Root struct {
	path string
}

// New creates a confined root at the given directory path. Relative
// paths are made absolute against the working directory.
func New(path string) (*Root, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %q: %w", path, err)
	}
	return &Root{path: abs}, nil
}

// Path returns the absolute path of the root.
func (r *Root) Path() string {
	return r.path
}

// Join resolves a path relative to the root and returns the absolute
// result. It fails with an EscapeError if the resolved path is not the
// root itself or a descendant of it, covering ".." traversal and
// absolute-path overrides.
func (r *Root) Join(elem ...string) (string, error) {
	given := filepath.Join(elem...)
	if filepath.IsAbs(given) {
		return "", &EscapeError{Root: r.path, Path: given}
	}

	joined := filepath.Join(r.path, given)

	rel, err := filepath.Rel(r.path, joined)
	if err != nil {
		return "", &EscapeError{Root: r.path, Path: given}
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &EscapeError{Root: r.path, Path: given}
	}

	return joined, nil
}

// Reroot returns a new confined root at the named subdirectory of this
// root, creating the directory if needed since it will serve as a
// write destination. Paths confined to the new root are transitively
// confined to this one.
func (r *Root) Reroot(sub string) (*Root, error) {
	path, err := r.Join(sub)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory %q: %w", path, err)
	}
	return &Root{path: path}, nil
}
