package utils

import (
	"regexp"
	"strings"
)

// CompileRegexPatterns compiles regex strings into usable *regexp.Regexp objects.
// Returns an error if any pattern is invalid.
func CompileRegexPatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for i, pattern := range patterns {
		if pattern == "" { // Skip empty patterns silently
			continue
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, WrapErrorf(ErrConfigValidation, "invalid regex pattern #%d ('%s')", i+1, pattern)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// CompileAlternation joins words into a single `a|b|c` pattern.
// Empty words are dropped; a nil regexp is returned when nothing remains.
func CompileAlternation(words []string) (*regexp.Regexp, error) {
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if w != "" {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 {
		return nil, nil
	}
	pattern := strings.Join(kept, "|")
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, WrapErrorf(ErrConfigValidation, "invalid strip pattern '%s': %v", pattern, err)
	}
	return re, nil
}
