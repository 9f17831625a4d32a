package walker

import (
	"fmt"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// dependencyDirs hold pages shipped by front-end package managers, not by
// the site itself.
var dependencyDirs = []string{"node_modules", "bower_components", "jspm_packages"}

// skipDir reports whether a directory is left out of the walk. Hidden
// directories (.git, .lexhover, editor state) and dependency trees are
// skipped.
func skipDir(name string) bool {
	if len(name) > 1 && name[0] == '.' && name != ".." {
		return true
	}
	return slices.Contains(dependencyDirs, strings.ToLower(name))
}

// pageFilter applies the include and exclude globs to slash-separated paths
// relative to the walk root.
type pageFilter struct {
	include []string
	exclude []string
}

// newPageFilter validates the globs up front so a typo in a pattern fails
// the walk instead of silently matching nothing.
func newPageFilter(include, exclude []string) (*pageFilter, error) {
	f := &pageFilter{}
	for _, p := range include {
		p = filepath.ToSlash(p)
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("walker: bad include pattern %q", p)
		}
		f.include = append(f.include, p)
	}
	for _, p := range exclude {
		p = filepath.ToSlash(p)
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("walker: bad exclude pattern %q", p)
		}
		f.exclude = append(f.exclude, p)
	}
	return f, nil
}

// keep reports whether relPath is selected: it must match an include glob
// (or there are none) and no exclude glob.
func (f *pageFilter) keep(relPath string) bool {
	rel := filepath.ToSlash(relPath)
	if len(f.include) > 0 && !globMatch(f.include, rel) {
		return false
	}
	return !globMatch(f.exclude, rel)
}

// globMatch matches each pattern against the full relative path and, for
// patterns without a slash, against the file name alone, so "*.md" selects
// Markdown pages at any depth.
func globMatch(patterns []string, rel string) bool {
	base := path.Base(rel)
	for _, p := range patterns {
		if doublestar.MatchUnvalidated(p, rel) {
			return true
		}
		if !strings.Contains(p, "/") && doublestar.MatchUnvalidated(p, base) {
			return true
		}
	}
	return false
}
