// Package patterns normalizes raw generation output into clean exclusion patterns.
package patterns

import (
	"errors"
	"regexp"
	"sort"
	"strings"
)

// ErrUnsupportedPayload reports a payload that is neither text nor an item sequence.
// It propagates to the generator so a malformed response consumes a retry attempt.
var ErrUnsupportedPayload = errors.New("payload must be text or a sequence of items")

// fencedBlockPattern matches leading and trailing fenced code block markers,
// optionally carrying a language tag.
var fencedBlockPattern = regexp.MustCompile("(?m)(^```[a-zA-Z]*\\s*|\\s*```$)")

// surroundingTrimCutset lists quote characters and whitespace stripped from each token.
const surroundingTrimCutset = "'\"` "

const (
	tokenSeparator       = ","
	pathSeparator        = "/"
	doubledPathSeparator = "//"
)

// Payload is the tagged input accepted by Normalize. Exactly two variants
// exist: TextPayload for a single raw string and ItemsPayload for an already
// split sequence.
type Payload interface {
	isPayload()
}

// TextPayload carries a raw comma-separated string, typically a model response.
type TextPayload string

// ItemsPayload carries pre-split pattern candidates.
type ItemsPayload []string

func (TextPayload) isPayload()  {}
func (ItemsPayload) isPayload() {}

// Normalize cleans the payload into an order-preserving pattern slice.
//
// Text payloads are stripped of fenced code block markers and split on commas.
// Every token is trimmed of surrounding whitespace and quote characters, and
// doubled path separators collapse to one. Empty tokens are discarded. A nil
// or unknown payload fails with ErrUnsupportedPayload.
func Normalize(payload Payload) ([]string, error) {
	var rawTokens []string

	switch typedPayload := payload.(type) {
	case TextPayload:
		cleanedText := strings.TrimSpace(fencedBlockPattern.ReplaceAllString(string(typedPayload), ""))
		for _, token := range strings.Split(cleanedText, tokenSeparator) {
			trimmedToken := strings.TrimSpace(token)
			if trimmedToken != "" {
				rawTokens = append(rawTokens, trimmedToken)
			}
		}
	case ItemsPayload:
		for _, item := range typedPayload {
			trimmedItem := strings.TrimSpace(item)
			if trimmedItem != "" {
				rawTokens = append(rawTokens, trimmedItem)
			}
		}
	default:
		return nil, ErrUnsupportedPayload
	}

	validPatterns := make([]string, 0, len(rawTokens))
	for _, rawToken := range rawTokens {
		cleanedPattern := strings.Trim(rawToken, surroundingTrimCutset)
		cleanedPattern = strings.ReplaceAll(cleanedPattern, doubledPathSeparator, pathSeparator)
		if cleanedPattern != "" {
			validPatterns = append(validPatterns, cleanedPattern)
		}
	}
	return validPatterns, nil
}

// Set stores unique patterns. Storage order is insignificant; Sorted provides
// the display order.
type Set map[string]struct{}

// NewSet builds a Set from the provided patterns, skipping empties.
func NewSet(patternValues ...string) Set {
	set := make(Set, len(patternValues))
	set.Add(patternValues...)
	return set
}

// Add inserts patterns into the set. Entries that are empty after trimming
// surrounding whitespace are dropped to preserve the set invariant.
func (set Set) Add(patternValues ...string) {
	for _, patternValue := range patternValues {
		trimmedPattern := strings.TrimSpace(patternValue)
		if trimmedPattern == "" {
			continue
		}
		set[trimmedPattern] = struct{}{}
	}
}

// Union merges the other set into the receiver and returns the receiver.
func (set Set) Union(other Set) Set {
	for patternValue := range other {
		set[patternValue] = struct{}{}
	}
	return set
}

// Sorted returns the patterns in lexicographic order for display.
func (set Set) Sorted() []string {
	sortedPatterns := make([]string, 0, len(set))
	for patternValue := range set {
		sortedPatterns = append(sortedPatterns, patternValue)
	}
	sort.Strings(sortedPatterns)
	return sortedPatterns
}
