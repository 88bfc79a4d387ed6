package variant

import (
	"fmt"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// Matcher reports whether a relative path matches one of the ignore patterns.
type Matcher struct {
	patterns []string
}

// NewMatcher validates the patterns eagerly so a bad glob fails at startup.
func NewMatcher(patterns []string) (*Matcher, error) {
	kept := make([]string, 0, len(patterns))
	for _, pat := range patterns {
		if pat == "" {
			continue
		}
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("%w: invalid ignore pattern %q", ErrInvalidConfig, pat)
		}
		kept = append(kept, pat)
	}
	return &Matcher{patterns: kept}, nil
}

// Match reports whether rel, relative to a tree root, is ignored.
func (m *Matcher) Match(rel string) bool {
	if m == nil || rel == "" {
		return false
	}
	normalized := filepath.ToSlash(rel)
	for _, pat := range m.patterns {
		if matched, err := doublestar.Match(pat, normalized); err == nil && matched {
			return true
		}
	}
	return false
}

// Ignored reports whether an absolute input path is ignored.
func (m *Matcher) Ignored(r *Resolver, path string) bool {
	loc, ok := r.Relativize(path)
	if !ok {
		return false
	}
	return m.Match(loc.Rel)
}
