// Package filter decides which template entries are skipped, which are
// copied verbatim, and which are rendered.
package filter

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/goliatone/go-diecut/pkg/errs"
)

// GlobSet matches slash-separated relative paths against a list of
// doublestar patterns. A pattern without a "/" also matches the base name at
// any depth, so "*.png" catches "assets/logo.png". A path also matches when
// one of its parent directories does, so "assets/*" covers
// "assets/js/app.js"; "*" itself never crosses a "/".
type GlobSet struct {
	patterns []string
}

// NewGlobSet validates every pattern.
func NewGlobSet(patterns []string) (*GlobSet, error) {
	set := &GlobSet{}
	for _, p := range patterns {
		if err := set.Add(p); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// Add appends a pattern after validating it.
func (g *GlobSet) Add(pattern string) error {
	normalized := strings.TrimPrefix(strings.TrimSpace(pattern), "./")
	if normalized == "" || !doublestar.ValidatePattern(normalized) {
		return &errs.GlobPatternError{Pattern: pattern, Err: doublestar.ErrBadPattern}
	}
	g.patterns = append(g.patterns, normalized)
	return nil
}

// Len returns the number of patterns.
func (g *GlobSet) Len() int {
	if g == nil {
		return 0
	}
	return len(g.patterns)
}

// Match reports whether rel matches any pattern.
func (g *GlobSet) Match(rel string) bool {
	if g == nil || rel == "" {
		return false
	}
	rel = strings.Trim(strings.TrimPrefix(rel, "./"), "/")
	for candidate := rel; candidate != "" && candidate != "."; candidate = path.Dir(candidate) {
		if g.matchPath(candidate) {
			return true
		}
	}
	return false
}

func (g *GlobSet) matchPath(rel string) bool {
	base := path.Base(rel)
	for _, p := range g.patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
		if !strings.Contains(p, "/") {
			if ok, _ := doublestar.Match(p, base); ok {
				return true
			}
		}
	}
	return false
}
