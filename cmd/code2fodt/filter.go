package main

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
)

const ignoreFileName = ".code2fodtignore"

// Filter decides which tracked files are printed.
type Filter struct {
	ignore          *ignore.GitIgnore
	includePatterns []string
	excludePatterns []string
	excludedDirs    []string
}

// NewFilter creates a filter for files listed relative to dir.
// Exclude patterns ending with "/" are treated as directory excludes; otherwise, file excludes.
func NewFilter(dir string, includePatterns []string, excludePatterns []string) (*Filter, error) {
	var excludedDirs []string
	var fileExcludePatterns []string

	for _, pat := range excludePatterns {
		if strings.HasSuffix(pat, "/") {
			excludedDirs = append(excludedDirs, strings.Trim(pat, "/"))
		} else {
			fileExcludePatterns = append(fileExcludePatterns, pat)
		}
	}

	for _, pat := range append(append([]string{}, includePatterns...), fileExcludePatterns...) {
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("invalid pattern %q", pat)
		}
	}

	f := &Filter{
		includePatterns: includePatterns,
		excludePatterns: fileExcludePatterns,
		excludedDirs:    excludedDirs,
	}

	ignorePath := filepath.Join(dir, ignoreFileName)
	if _, err := os.Stat(ignorePath); err == nil {
		gitIgnore, err := ignore.CompileIgnoreFile(ignorePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", ignoreFileName, err)
		}
		f.ignore = gitIgnore
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	return f, nil
}

// ShouldInclude reports whether the slash-separated relative path is printed.
func (f *Filter) ShouldInclude(rel string) bool {
	if f.ignore != nil && f.ignore.MatchesPath(rel) {
		return false
	}

	if f.isExcludedDir(rel) {
		return false
	}

	if f.matchesAnyPattern(rel, f.excludePatterns) {
		return false
	}

	// If include patterns exist, file must match at least one
	if len(f.includePatterns) > 0 {
		return f.matchesAnyPattern(rel, f.includePatterns)
	}

	return true
}

// Apply keeps the paths ShouldInclude accepts, in their original order.
func (f *Filter) Apply(paths []string) []string {
	kept := make([]string, 0, len(paths))
	for _, p := range paths {
		if f.ShouldInclude(p) {
			kept = append(kept, p)
		}
	}
	return kept
}

func (f *Filter) isExcludedDir(rel string) bool {
	for _, dir := range f.excludedDirs {
		if strings.HasPrefix(rel, dir+"/") {
			return true
		}
		if ok, _ := doublestar.Match(dir+"/**", rel); ok {
			return true
		}
	}
	return false
}

// matchesAnyPattern matches patterns with a slash against the whole path
// and patterns without one against the base name.
func (f *Filter) matchesAnyPattern(rel string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	base := path.Base(rel)
	for _, pattern := range patterns {
		target := rel
		if !strings.Contains(pattern, "/") {
			target = base
		}
		matched, err := doublestar.Match(pattern, target)
		if err == nil && matched {
			return true
		}
	}
	return false
}
