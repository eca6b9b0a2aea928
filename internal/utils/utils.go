// Package utils contains general helper functions shared across dumpo.
package utils

import (
	"strings"
)

// Configuration and path constants used across the project.
const (
	// ConfigFileName is the name of the configuration file discovered in the root or its ancestors.
	ConfigFileName = "dumpo.toml"
	// GlobalConfigDirectoryName is the directory under the user's home holding the global configuration.
	GlobalConfigDirectoryName = ".dumpo"
	// GitIgnoreFileName is the name of the Git ignore file.
	GitIgnoreFileName = ".gitignore"
)

const (
	pathSegmentSeparator = "/"
	windowsPathSeparator = "\\"
)

// NormalizeSlashes converts backslash separators to forward slashes so that
// glob patterns behave the same on every platform.
func NormalizeSlashes(path string) string {
	return strings.ReplaceAll(path, windowsPathSeparator, pathSegmentSeparator)
}

// TrimPatterns returns the patterns with surrounding whitespace removed and
// blank entries dropped.
func TrimPatterns(patterns []string) []string {
	trimmedPatterns := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		trimmedPattern := strings.TrimSpace(pattern)
		if trimmedPattern == "" {
			continue
		}
		trimmedPatterns = append(trimmedPatterns, trimmedPattern)
	}
	return trimmedPatterns
}

// DeduplicatePatterns removes duplicate patterns from a slice while preserving order.
// The first occurrence of each unique pattern is kept.
func DeduplicatePatterns(patterns []string) []string {
	encounteredPatterns := make(map[string]struct{})
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if _, exists := encounteredPatterns[pattern]; !exists {
			encounteredPatterns[pattern] = struct{}{}
			result = append(result, pattern)
		}
	}
	return result
}

// MergePatterns appends override patterns to base patterns, dropping blanks
// and duplicates.
func MergePatterns(basePatterns []string, overridePatterns []string) []string {
	combined := make([]string, 0, len(basePatterns)+len(overridePatterns))
	combined = append(combined, basePatterns...)
	combined = append(combined, overridePatterns...)
	return DeduplicatePatterns(TrimPatterns(combined))
}
