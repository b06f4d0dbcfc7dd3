package scanner

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultIgnoreDirs are common directories to skip during traversal
var DefaultIgnoreDirs = []string{
	"node_modules", "vendor", ".git", ".svn", ".hg",
	"dist", "build", "bin", "tmp", "temp", "coverage",
	"__pycache__", ".venv", "venv", "env", ".tox", ".mypy_cache", ".pytest_cache",
	".next", ".nuxt", "testdata",
	".idea", ".vscode", ".vs",
}

// WalkOptions configures directory traversal behavior
type WalkOptions struct {
	IgnoreDirs    []string // Directory names to skip (default: DefaultIgnoreDirs)
	Exclude       []string // Glob patterns matched against "/"+relative path
	IncludeHidden bool     // Include hidden files/dirs (default: false)
}

// Walk traverses root and calls visitor with the slash-separated relative
// path of every source file osprey understands
func Walk(root string, opts WalkOptions, visitor func(rel string) error) error {
	ignoreDirs := opts.IgnoreDirs
	if len(ignoreDirs) == 0 {
		ignoreDirs = DefaultIgnoreDirs
	}

	excludes := make([]glob.Glob, 0, len(opts.Exclude))
	for _, p := range opts.Exclude {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return fmt.Errorf("compiling exclude pattern %q: %w", p, err)
		}
		excludes = append(excludes, g)
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil // unreadable subtree, keep walking
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		// Skip hidden files/directories unless explicitly included
		if !opts.IncludeHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if slices.Contains(ignoreDirs, d.Name()) || excluded(excludes, rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if LanguageOf(rel) == "" || excluded(excludes, rel) {
			return nil
		}

		return visitor(rel)
	})
}

func excluded(globs []glob.Glob, rel string) bool {
	subject := "/" + rel
	for _, g := range globs {
		if g.Match(subject) {
			return true
		}
	}
	return false
}
