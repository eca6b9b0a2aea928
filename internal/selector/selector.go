// Package selector evaluates user supplied include and exclude glob patterns
// against slash-normalized relative paths.
package selector

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/temirov/dumpo/internal/utils"
)

const (
	// IncludeFlag names the source of include patterns in error messages.
	IncludeFlag = "--include"
	// ExcludeFlag names the source of exclude patterns in error messages.
	ExcludeFlag = "--exclude"

	pathSeparator           = '/'
	pathSeparatorString     = "/"
	anyDirectoryPrefix      = "**/"
	compileErrorFormat      = "%s: invalid glob pattern %q: %v"
	compileErrorShortFormat = "%s: invalid glob pattern %q"
)

// CompileError reports a pattern that could not be compiled.
type CompileError struct {
	Flag    string
	Pattern string
	Err     error
}

func (compileError *CompileError) Error() string {
	if compileError.Err == nil {
		return fmt.Sprintf(compileErrorShortFormat, compileError.Flag, compileError.Pattern)
	}
	return fmt.Sprintf(compileErrorFormat, compileError.Flag, compileError.Pattern, compileError.Err)
}

func (compileError *CompileError) Unwrap() error {
	return compileError.Err
}

// IgnoreMatcher is an additional narrowing rule, satisfied by
// *gitignore.GitIgnore.
type IgnoreMatcher interface {
	MatchesPath(path string) bool
}

// Option customizes a Selector.
type Option func(*Selector)

// WithIgnoreMatcher rejects every path the matcher ignores.
func WithIgnoreMatcher(matcher IgnoreMatcher) Option {
	return func(selector *Selector) {
		selector.ignore = matcher
	}
}

// Selector accepts a path when it matches an include pattern (or no include
// patterns exist) and matches no exclude pattern. It is immutable once built.
type Selector struct {
	include []compiledPattern
	exclude []compiledPattern
	ignore  IgnoreMatcher
}

// New compiles the include and exclude patterns. Blank and duplicate patterns
// are dropped. An empty include list matches everything and an empty exclude
// list matches nothing.
func New(includePatterns []string, excludePatterns []string, options ...Option) (*Selector, error) {
	include, includeError := compilePatterns(IncludeFlag, includePatterns)
	if includeError != nil {
		return nil, includeError
	}
	exclude, excludeError := compilePatterns(ExcludeFlag, excludePatterns)
	if excludeError != nil {
		return nil, excludeError
	}
	selector := &Selector{include: include, exclude: exclude}
	for _, option := range options {
		if option != nil {
			option(selector)
		}
	}
	return selector, nil
}

// MatchAll returns a selector without patterns.
func MatchAll() *Selector {
	return &Selector{}
}

// Matches reports whether the relative path is accepted. Backslashes are
// converted to forward slashes before matching.
func (selector *Selector) Matches(relativePath string) bool {
	if selector == nil {
		return true
	}
	normalizedPath := utils.NormalizeSlashes(relativePath)
	baseName := normalizedPath[strings.LastIndex(normalizedPath, pathSeparatorString)+1:]

	included := len(selector.include) == 0 || anyMatches(selector.include, normalizedPath, baseName)
	notExcluded := len(selector.exclude) == 0 || !anyMatches(selector.exclude, normalizedPath, baseName)
	notIgnored := selector.ignore == nil || !selector.ignore.MatchesPath(normalizedPath)

	return included && notExcluded && notIgnored
}

// HasPatterns reports whether any include or exclude pattern was supplied.
func (selector *Selector) HasPatterns() bool {
	return selector != nil && (len(selector.include) > 0 || len(selector.exclude) > 0)
}

type compiledPattern struct {
	matcher glob.Glob
	// rootMatcher lets a leading "**/" also match entries at the root.
	rootMatcher glob.Glob
	// matchBaseName is set for patterns without a separator.
	matchBaseName bool
}

func (pattern compiledPattern) matches(path string, baseName string) bool {
	if pattern.matcher.Match(path) {
		return true
	}
	if pattern.rootMatcher != nil && pattern.rootMatcher.Match(path) {
		return true
	}
	return pattern.matchBaseName && pattern.matcher.Match(baseName)
}

func anyMatches(patterns []compiledPattern, path string, baseName string) bool {
	for _, pattern := range patterns {
		if pattern.matches(path, baseName) {
			return true
		}
	}
	return false
}

func compilePatterns(flag string, patterns []string) ([]compiledPattern, error) {
	cleaned := utils.DeduplicatePatterns(utils.TrimPatterns(patterns))
	if len(cleaned) == 0 {
		return nil, nil
	}
	compiled := make([]compiledPattern, 0, len(cleaned))
	for _, pattern := range cleaned {
		matcher, compileError := glob.Compile(pattern, pathSeparator)
		if compileError != nil {
			return nil, &CompileError{Flag: flag, Pattern: pattern, Err: compileError}
		}
		entry := compiledPattern{
			matcher:       matcher,
			matchBaseName: !strings.Contains(pattern, pathSeparatorString),
		}
		if remainder := strings.TrimPrefix(pattern, anyDirectoryPrefix); remainder != pattern && remainder != "" {
			rootMatcher, rootError := glob.Compile(remainder, pathSeparator)
			if rootError != nil {
				return nil, &CompileError{Flag: flag, Pattern: pattern, Err: rootError}
			}
			entry.rootMatcher = rootMatcher
		}
		compiled = append(compiled, entry)
	}
	return compiled, nil
}
