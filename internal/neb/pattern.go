package neb

import (
	"fmt"
	"strings"

	"github.com/swarmforge/core/internal/swarmerr"
)

// validatePattern rejects malformed subscription patterns. ** is fixed as
// the final component only; a pattern using ** anywhere else is rejected at
// Subscribe time rather than silently mismatching at publish time, since
// the source's own inconsistent handling of a non-terminal ** is exactly
// the ambiguity this core resolves.
func validatePattern(pattern string) error {
	if pattern == "" {
		return fmt.Errorf("empty pattern: %w", swarmerr.ErrInvalidPattern)
	}
	segments := strings.Split(pattern, ".")
	for i, seg := range segments {
		if seg == "" {
			return fmt.Errorf("pattern %q has an empty segment: %w", pattern, swarmerr.ErrInvalidPattern)
		}
		if seg == "**" && i != len(segments)-1 {
			return fmt.Errorf("pattern %q: ** must be the final component: %w", pattern, swarmerr.ErrInvalidPattern)
		}
	}
	return nil
}

// topicMatches reports whether topic satisfies pattern under the rules:
// literal segments match exactly, * matches exactly one segment, ** (only
// legal as the final component) matches one or more trailing segments.
func topicMatches(pattern, topic string) bool {
	pSegs := strings.Split(pattern, ".")
	tSegs := strings.Split(topic, ".")

	for i, p := range pSegs {
		if p == "**" {
			// ** requires at least one remaining segment.
			return i < len(tSegs)
		}
		if i >= len(tSegs) {
			return false
		}
		if p == "*" {
			continue
		}
		if p != tSegs[i] {
			return false
		}
	}
	return len(pSegs) == len(tSegs)
}
