package site

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dgallion1/pagekit/internal/parser"
)

// DefaultExcludes are directory names never descended into.
var DefaultExcludes = []string{
	".git",
	"node_modules",
	"vendor",
	".idea",
	".vscode",
	"_site",
}

// Filter selects source files by glob. Patterns use doublestar syntax and are
// matched against the slash-separated path relative to the source root and
// against the base name.
type Filter struct {
	Include []string // Empty means everything.
	Exclude []string
}

// Match reports whether a relative path passes the filter.
func (f Filter) Match(relPath string) bool {
	if len(f.Include) > 0 && !matchesAny(relPath, f.Include) {
		return false
	}
	return !matchesAny(relPath, f.Exclude)
}

// Validate rejects malformed patterns up front.
func (f Filter) Validate() error {
	for _, p := range append(append([]string{}, f.Include...), f.Exclude...) {
		if !doublestar.ValidatePattern(filepath.ToSlash(p)) {
			return &PatternError{Pattern: p}
		}
	}
	return nil
}

// PatternError reports a malformed glob.
type PatternError struct {
	Pattern string
}

func (e *PatternError) Error() string {
	return "invalid glob pattern: " + e.Pattern
}

func matchesAny(relPath string, patterns []string) bool {
	normalized := filepath.ToSlash(relPath)
	base := filepath.Base(normalized)
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		if matched, err := doublestar.PathMatch(pattern, normalized); err == nil && matched {
			return true
		}
		if matched, err := doublestar.PathMatch(pattern, base); err == nil && matched {
			return true
		}
	}
	return false
}

// IsExcludedDir reports whether a directory name is one of DefaultExcludes.
func IsExcludedDir(name string) bool {
	for _, excl := range DefaultExcludes {
		if strings.EqualFold(name, excl) {
			return true
		}
	}
	return false
}

// Collect expands args into supported source files. Directories are walked
// recursively, skipping skipDir and the default excludes; files named
// directly bypass the filter but must still have a supported extension.
func Collect(args []string, f Filter, skipDir string) ([]Source, error) {
	var out []Source
	seen := make(map[string]bool)
	add := func(root, path string) {
		abs, err := filepath.Abs(path)
		if err != nil || seen[abs] {
			return
		}
		seen[abs] = true
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		out = append(out, Source{Path: path, Rel: filepath.ToSlash(rel)})
	}

	skipAbs := ""
	if skipDir != "" {
		skipAbs, _ = filepath.Abs(skipDir)
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if !parser.IsSupportedExtension(arg) {
				return nil, &UnsupportedError{Path: arg}
			}
			add(filepath.Dir(arg), arg)
			continue
		}

		root := arg
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path == root {
					return nil
				}
				if IsExcludedDir(d.Name()) {
					return filepath.SkipDir
				}
				if abs, _ := filepath.Abs(path); skipAbs != "" && abs == skipAbs {
					return filepath.SkipDir
				}
				return nil
			}
			if !parser.IsSupportedExtension(path) {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			if f.Match(rel) {
				add(root, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Rel < out[j].Rel })
	return out, nil
}

// UnsupportedError reports a file named on the command line that no parser handles.
type UnsupportedError struct {
	Path string
}

func (e *UnsupportedError) Error() string {
	return "unsupported file type: " + e.Path
}
