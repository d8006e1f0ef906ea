package runner

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// filter selects tests by matching their slash-joined path against a glob,
// e.g. "Math/**" or "**/concat".
type filter struct {
	pattern string
}

func newFilter(pattern string) (*filter, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, nil
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid grep pattern %q", pattern)
	}
	return &filter{pattern: pattern}, nil
}

// match reports whether the test at path is selected. A nil filter selects everything.
func (f *filter) match(path []string) bool {
	if f == nil {
		return true
	}
	ok, err := doublestar.Match(f.pattern, joinPath(path))
	return err == nil && ok
}
