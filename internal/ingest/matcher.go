package ingest

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const patternPathSeparator = "/"

// Matcher evaluates include and exclude patterns against slash-separated
// paths relative to the ingestion root. Include patterns override excludes.
type Matcher struct {
	includePatterns []string
	excludePatterns []string
}

// NewMatcher builds a Matcher from raw pattern slices.
func NewMatcher(includePatterns []string, excludePatterns []string) Matcher {
	return Matcher{
		includePatterns: normalizePatterns(includePatterns),
		excludePatterns: normalizePatterns(excludePatterns),
	}
}

// HasIncludes reports whether any include patterns were configured.
func (matcher Matcher) HasIncludes() bool {
	return len(matcher.includePatterns) > 0
}

// IsExcluded reports whether the relative path is excluded from ingestion.
func (matcher Matcher) IsExcluded(relativePath string, isDirectory bool) bool {
	normalizedPath := strings.Trim(path.Clean(strings.ReplaceAll(relativePath, "\\", patternPathSeparator)), patternPathSeparator)
	if normalizedPath == "." || normalizedPath == "" {
		return false
	}
	if matchesAny(matcher.includePatterns, normalizedPath, isDirectory) {
		return false
	}
	return matchesAny(matcher.excludePatterns, normalizedPath, isDirectory)
}

func normalizePatterns(rawPatterns []string) []string {
	normalized := make([]string, 0, len(rawPatterns))
	for _, rawPattern := range rawPatterns {
		trimmedPattern := strings.TrimSpace(strings.ReplaceAll(rawPattern, "\\", patternPathSeparator))
		if trimmedPattern == "" {
			continue
		}
		normalized = append(normalized, trimmedPattern)
	}
	return normalized
}

// matchesAny evaluates every pattern against the path, its base name for
// single-segment patterns, and its ancestors for directory patterns.
func matchesAny(patternValues []string, normalizedPath string, isDirectory bool) bool {
	for _, patternValue := range patternValues {
		isDirectoryPattern := strings.HasSuffix(patternValue, patternPathSeparator)
		trimmedPattern := strings.TrimSuffix(patternValue, patternPathSeparator)
		if trimmedPattern == "" {
			continue
		}

		if matched, matchError := doublestar.Match(trimmedPattern, normalizedPath); matchError == nil && matched {
			if !isDirectoryPattern || isDirectory {
				return true
			}
		}

		if isDirectoryPattern && matchesAncestor(trimmedPattern, normalizedPath) {
			return true
		}

		if !strings.Contains(trimmedPattern, patternPathSeparator) {
			if matched, matchError := doublestar.Match(trimmedPattern, path.Base(normalizedPath)); matchError == nil && matched {
				return true
			}
		}
	}
	return false
}

// matchesAncestor reports whether any ancestor directory of the path matches
// the pattern, so directory patterns cover everything beneath them.
func matchesAncestor(trimmedPattern string, normalizedPath string) bool {
	ancestorPath := path.Dir(normalizedPath)
	for ancestorPath != "." && ancestorPath != patternPathSeparator {
		if matched, matchError := doublestar.Match(trimmedPattern, ancestorPath); matchError == nil && matched {
			return true
		}
		ancestorPath = path.Dir(ancestorPath)
	}
	return false
}
