package watch

import (
	"github.com/bmatcuk/doublestar/v4"
)

// Filter decides which root-relative paths count as traced artifacts.
// Patterns use doublestar globs, matching the project configuration.
type Filter struct {
	Include []string
	Exclude []string
}

// NewFilter creates a filter from include and exclude glob patterns.
func NewFilter(include, exclude []string) *Filter {
	return &Filter{
		Include: include,
		Exclude: exclude,
	}
}

// Matches reports whether the path passes the filter. Excludes win
// over includes; with no include patterns, everything passes.
func (f *Filter) Matches(path string) bool {
	for _, pattern := range f.Exclude {
		if matched, _ := doublestar.Match(pattern, path); matched {
			return false
		}
	}

	if len(f.Include) == 0 {
		return true
	}

	for _, pattern := range f.Include {
		if matched, _ := doublestar.Match(pattern, path); matched {
			return true
		}
	}
	return false
}
