// Package specifier defines the file-matching rules that group discovered
// source files, and resolves them to concrete file sets.
//
// A Specifier is an immutable value type and is used directly as a map key
// by the index cache, so two specifiers with identical fields are the same
// specifier.
package specifier

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// SnapshotExt marks legacy snapshot artifacts that are never indexed.
const SnapshotExt = ".snap"

// Specifier identifies a group of source files via a directory and a glob.
type Specifier struct {
	// Directory is the root to resolve Files against, relative to the
	// project working directory (e.g. "./src").
	Directory string

	// Files is a doublestar-compatible glob pattern relative to Directory
	// (e.g. "**/*.stories.{json,yaml,yml}").
	Files string

	// TitlePrefix is prepended to automatically derived entry titles.
	TitlePrefix string
}

// String returns a compact human-readable form for logs and errors.
func (s Specifier) String() string {
	return filepath.ToSlash(filepath.Join(s.Directory, s.Files))
}

// AbsDirectory resolves the specifier directory against the working directory.
func (s Specifier) AbsDirectory(workingDir string) string {
	if filepath.IsAbs(s.Directory) {
		return filepath.Clean(s.Directory)
	}
	return filepath.Join(workingDir, s.Directory)
}

// Resolve expands the specifier glob into the set of absolute file paths,
// sorted lexicographically for determinism. Snapshot files are skipped with
// a notice. A specifier matching zero files is valid; a warning is logged
// and an empty result is returned.
func (s Specifier) Resolve(workingDir string) ([]string, error) {
	dir := s.AbsDirectory(workingDir)

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat specifier directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("specifier path is not a directory: %s", dir)
	}

	matches, err := doublestar.Glob(os.DirFS(dir), s.Files)
	if err != nil {
		return nil, fmt.Errorf("failed to expand glob %q: %w", s.String(), err)
	}

	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		abs := filepath.Join(dir, filepath.FromSlash(m))
		if strings.HasSuffix(abs, SnapshotExt) {
			slog.Info("skipping snapshot file", slog.String("path", abs))
			continue
		}
		fi, err := os.Stat(abs)
		if err != nil || fi.IsDir() {
			continue
		}
		paths = append(paths, abs)
	}

	sort.Strings(paths)

	if len(paths) == 0 {
		slog.Warn("specifier matched no files", slog.String("specifier", s.String()))
	}

	return paths, nil
}

// Matches reports whether an absolute file path falls under this specifier.
// Used by the watcher to attribute change notifications.
func (s Specifier) Matches(workingDir, absPath string) bool {
	dir := s.AbsDirectory(workingDir)

	rel, err := filepath.Rel(dir, absPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	if strings.HasSuffix(absPath, SnapshotExt) {
		return false
	}

	ok, err := doublestar.Match(s.Files, filepath.ToSlash(rel))
	return err == nil && ok
}

// ImportPath converts an absolute file path into the project-relative,
// slash-separated form used in published entries (e.g. "./src/a.stories.json").
func ImportPath(workingDir, absPath string) string {
	rel, err := filepath.Rel(workingDir, absPath)
	if err != nil {
		return filepath.ToSlash(absPath)
	}
	return "./" + filepath.ToSlash(rel)
}
