// SPDX-License-Identifier: MPL-2.0

package tree

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// RegexValidatorPrefix marks a validator reference holding a pattern.
	RegexValidatorPrefix = "regex:"
	// MaxRegexPatternLength is the maximum length of a validator pattern.
	MaxRegexPatternLength = 1000
	// MaxNestedGroups is the maximum depth of nested groups in a pattern.
	MaxNestedGroups = 10
)

// RegexValidator extracts the pattern from a "regex:" validator reference.
func RegexValidator(ref string) (string, bool) {
	return strings.CutPrefix(ref, RegexValidatorPrefix)
}

// ValidateRegexPattern checks that a validator pattern is bounded and compiles.
func ValidateRegexPattern(pattern string) error {
	if pattern == "" {
		return fmt.Errorf("regex pattern is empty")
	}
	if len(pattern) > MaxRegexPatternLength {
		return fmt.Errorf("regex pattern too long (%d chars, max %d)", len(pattern), MaxRegexPatternLength)
	}
	if err := checkNestingDepth(pattern); err != nil {
		return err
	}
	if _, err := regexp.Compile(pattern); err != nil {
		return fmt.Errorf("invalid regex: %w", err)
	}
	return nil
}

// checkNestingDepth counts the maximum depth of nested groups.
func checkNestingDepth(pattern string) error {
	maxDepth := 0
	depth := 0
	escaped := false
	for i := 0; i < len(pattern); i++ {
		if escaped {
			escaped = false
			continue
		}
		switch pattern[i] {
		case '\\':
			escaped = true
		case '(':
			depth++
			maxDepth = max(maxDepth, depth)
		case ')':
			if depth > 0 {
				depth--
			}
		}
	}
	if maxDepth > MaxNestedGroups {
		return fmt.Errorf("regex pattern has too many nested groups (%d, max %d)", maxDepth, MaxNestedGroups)
	}
	return nil
}
