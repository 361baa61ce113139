package admission

import (
	"regexp"
	"strings"
)

// Wildcard is the token variable path segments are normalized to.
const Wildcard = "*"

var (
	numericSegment = regexp.MustCompile(`^\d+$`)
	hexSegment     = regexp.MustCompile(`^[0-9a-fA-F]{24,}$`)
	uuidSegment    = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	fileSegment    = regexp.MustCompile(`^[^/]+\.[A-Za-z0-9]{1,8}$`)
)

// Matcher resolves a raw request path to an endpoint pattern and its
// policy. Deterministic and side-effect-free: patterns are compiled once
// at construction and matching never mutates state.
type Matcher struct {
	rules    []compiledRule
	fallback EndpointPolicy
}

type compiledRule struct {
	pattern  string
	segments []string
	policy   EndpointPolicy
}

// NewMatcher compiles the ordered rule list. First match wins; paths
// matching no rule get the fallback policy. Rule policies inherit the
// fallback's budgets for dimensions they leave unset.
func NewMatcher(rules []EndpointRule, fallback EndpointPolicy) *Matcher {
	compiled := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		compiled = append(compiled, compiledRule{
			pattern:  rule.Pattern,
			segments: splitPath(rule.Pattern),
			policy:   rule.Policy.Merge(fallback),
		})
	}

	return &Matcher{
		rules:    compiled,
		fallback: fallback,
	}
}

// Normalize replaces variable path segments (numeric ids, hex identifiers
// of 24+ chars, UUIDs, a trailing file name with extension) with the
// wildcard token so requests group under one endpoint pattern regardless
// of embedded identifiers.
func (m *Matcher) Normalize(path string) string {
	segments := splitPath(path)
	if len(segments) == 0 {
		return "/"
	}

	for i, seg := range segments {
		if numericSegment.MatchString(seg) ||
			hexSegment.MatchString(seg) ||
			uuidSegment.MatchString(seg) {
			segments[i] = Wildcard
			continue
		}
		// Only a trailing segment is treated as a file name.
		if i == len(segments)-1 && fileSegment.MatchString(seg) {
			segments[i] = Wildcard
		}
	}

	return "/" + strings.Join(segments, "/")
}

// Resolve normalizes the path and matches it against the registered rules.
// Returns the matched pattern and policy; unmatched paths return the
// normalized path itself with the fallback policy, so unknown endpoints
// keep distinct budgets under the default policy.
func (m *Matcher) Resolve(path string) (string, EndpointPolicy) {
	normalized := m.Normalize(path)
	segments := splitPath(normalized)

	for _, rule := range m.rules {
		if matchSegments(rule.segments, segments) {
			return rule.pattern, rule.policy
		}
	}

	return normalized, m.fallback
}

// matchSegments performs wildcard-aware exact matching: ":param" and "*"
// pattern segments match any single path segment, and a "*" path segment
// (produced by normalization) matches any pattern segment.
func matchSegments(pattern, path []string) bool {
	if len(pattern) != len(path) {
		return false
	}

	for i, ps := range pattern {
		if ps == Wildcard || strings.HasPrefix(ps, ":") {
			continue
		}
		if path[i] == Wildcard {
			continue
		}
		if ps != path[i] {
			return false
		}
	}

	return true
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
