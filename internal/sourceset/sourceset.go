// Package sourceset discovers the filesystem source paths that feed a
// rule key, applying gitignore-style exclusion rules so that build
// output, VCS metadata, and editor scratch files never contribute to a
// digest.
package sourceset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gobwas/glob"

	"rulekeybuilder/internal/rulekey"
)

// IgnoreRules manages gitignore-style pattern matching for file exclusion.
// It supports standard gitignore syntax including negation (!), directory-only
// patterns (/), and provides caching for performance optimization.
type IgnoreRules struct {
	patterns []ignorePattern
	cache    map[string]bool
	cacheMu  sync.RWMutex
}

// ignorePattern represents a single ignore rule with its compiled glob and metadata.
type ignorePattern struct {
	pattern    string
	glob       glob.Glob
	negate     bool
	dirOnly    bool
	hasSlash   bool
	isAbsolute bool
}

// NewIgnoreRules creates a new ignore rules manager with default exclusions.
func NewIgnoreRules() *IgnoreRules {
	rules := &IgnoreRules{
		patterns: make([]ignorePattern, 0),
		cache:    make(map[string]bool),
	}

	defaultPatterns := []string{
		".git/",
		".svn/",
		".hg/",
		"node_modules/",
		".DS_Store",
		"Thumbs.db",
		"*.tmp",
		"*.swp",
		"*.swo",
		"*~",
		".rulekeybuilder/",
	}

	for _, pattern := range defaultPatterns {
		if err := rules.AddPattern(pattern); err != nil {
			continue
		}
	}

	return rules
}

// LoadFromFile loads ignore patterns from a .rkbignore file.
func (r *IgnoreRules) LoadFromFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // No ignore file is not an error
		}
		return fmt.Errorf("failed to open ignore file %s: %w", filename, err)
	}
	defer file.Close()

	return r.LoadFromReader(file)
}

// LoadFromReader loads ignore patterns from an io.Reader.
func (r *IgnoreRules) LoadFromReader(reader io.Reader) error {
	scanner := bufio.NewScanner(reader)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if err := r.AddPattern(line); err != nil {
			return fmt.Errorf("invalid pattern on line %d: %w", lineNum, err)
		}
	}

	return scanner.Err()
}

// AddPattern adds a single ignore pattern to the rules.
func (r *IgnoreRules) AddPattern(pattern string) error {
	if pattern == "" {
		return nil
	}

	negate := strings.HasPrefix(pattern, "!")
	if negate {
		pattern = pattern[1:]
	}

	dirOnly := strings.HasSuffix(pattern, "/")
	if dirOnly {
		pattern = strings.TrimSuffix(pattern, "/")
	}

	hasSlash := strings.Contains(pattern, "/")
	isAbsolute := strings.HasPrefix(pattern, "/")
	if isAbsolute {
		pattern = pattern[1:]
		hasSlash = true
	}

	globPattern, err := r.compileGlobPattern(pattern, hasSlash, isAbsolute)
	if err != nil {
		return fmt.Errorf("failed to compile pattern '%s': %w", pattern, err)
	}

	r.patterns = append(r.patterns, ignorePattern{
		pattern:    pattern,
		glob:       globPattern,
		negate:     negate,
		dirOnly:    dirOnly,
		hasSlash:   hasSlash,
		isAbsolute: isAbsolute,
	})

	r.cacheMu.Lock()
	r.cache = make(map[string]bool)
	r.cacheMu.Unlock()

	return nil
}

func (r *IgnoreRules) compileGlobPattern(pattern string, hasSlash, isAbsolute bool) (glob.Glob, error) {
	globPattern := pattern

	if !hasSlash {
		globPattern = "{" + pattern + ",**/" + pattern + "}"
	}
	if isAbsolute {
		globPattern = pattern
	}
	if !strings.HasSuffix(globPattern, "/**") && !strings.Contains(globPattern, "*") {
		globPattern += "/**"
	}

	return glob.Compile(globPattern, '/')
}

// ShouldIgnore determines if a file path should be ignored based on the loaded patterns.
// The path should be relative to the workspace root and use forward slashes.
func (r *IgnoreRules) ShouldIgnore(path string, isDir bool) bool {
	path = filepath.ToSlash(path)
	path = strings.TrimPrefix(path, "./")

	cacheKey := path
	if isDir {
		cacheKey += "/"
	}

	r.cacheMu.RLock()
	if result, exists := r.cache[cacheKey]; exists {
		r.cacheMu.RUnlock()
		return result
	}
	r.cacheMu.RUnlock()

	result := r.evaluatePatterns(path, isDir)

	r.cacheMu.Lock()
	r.cache[cacheKey] = result
	r.cacheMu.Unlock()

	return result
}

func (r *IgnoreRules) evaluatePatterns(path string, isDir bool) bool {
	ignored := false

	for _, pattern := range r.patterns {
		if pattern.dirOnly && !isDir {
			continue
		}
		if r.matchesPattern(pattern, path, isDir) {
			ignored = !pattern.negate
		}
	}

	return ignored
}

func (r *IgnoreRules) matchesPattern(pattern ignorePattern, path string, isDir bool) bool {
	if !pattern.hasSlash {
		basename := filepath.Base(path)
		if pattern.glob.Match(basename) {
			return true
		}
	}

	testPath := path
	if isDir && !strings.HasSuffix(testPath, "/") {
		testPath += "/"
	}

	return pattern.glob.Match(testPath)
}

// LoadFromWorkspace loads .rkbignore rules from a workspace root. A
// missing ignore file is not an error; the default exclusions still apply.
func LoadFromWorkspace(workspaceRoot string) (*IgnoreRules, error) {
	rules := NewIgnoreRules()
	ignoreFile := filepath.Join(workspaceRoot, ".rkbignore")
	if err := rules.LoadFromFile(ignoreFile); err != nil {
		return nil, fmt.Errorf("failed to load ignore rules from %s: %w", ignoreFile, err)
	}
	return rules, nil
}

// Discover walks workspaceRoot and returns a FilesystemSourcePath for
// every regular file not excluded by rules, sorted by workspace-relative
// path so that the resulting Sequence is independent of directory
// iteration order.
func Discover(workspaceRoot string, rules *IgnoreRules) ([]rulekey.SourcePath, error) {
	var rels []string

	err := filepath.Walk(workspaceRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == workspaceRoot {
			return nil
		}
		rel, err := filepath.Rel(workspaceRoot, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if rules.ShouldIgnore(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if rules.ShouldIgnore(rel, false) {
			return nil
		}
		rels = append(rels, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", workspaceRoot, err)
	}

	sort.Strings(rels)

	paths := make([]rulekey.SourcePath, 0, len(rels))
	for _, rel := range rels {
		paths = append(paths, rulekey.NewFilesystemSourcePath(rel))
	}
	return paths, nil
}
