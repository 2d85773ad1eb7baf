package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// PathFilter keeps commits by the paths they change. Patterns use
// gitignore syntax, so "**" matches across directories.
type PathFilter struct {
	Include []string
	Exclude []string
}

// Empty reports whether the filter accepts every commit.
func (f PathFilter) Empty() bool {
	return len(f.Include) == 0 && len(f.Exclude) == 0
}

// Keep reports whether a commit changing paths passes the filter: at least
// one changed path must survive Exclude and, when Include is set, match it.
func (f PathFilter) Keep(paths []string) bool {
	include := compilePatterns(f.Include)
	exclude := compilePatterns(f.Exclude)
	for _, p := range paths {
		parts := strings.Split(p, "/")
		if matchAny(exclude, parts) {
			continue
		}
		if len(include) == 0 || matchAny(include, parts) {
			return true
		}
	}
	return false
}

func compilePatterns(globs []string) []gitignore.Pattern {
	patterns := make([]gitignore.Pattern, 0, len(globs))
	for _, g := range globs {
		patterns = append(patterns, gitignore.ParsePattern(g, nil))
	}
	return patterns
}

func matchAny(patterns []gitignore.Pattern, parts []string) bool {
	for _, p := range patterns {
		if p.Match(parts, false) == gitignore.Exclude {
			return true
		}
	}
	return false
}

func (w *Walker) filterPaths(ctx context.Context, commits []*Commit) ([]*Commit, error) {
	kept := commits[:0:0]
	for _, c := range commits {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		paths, err := w.store.ChangedPaths(c.ID)
		if err != nil {
			return nil, fmt.Errorf("listing changes of %s: %w", c.ID, err)
		}
		if w.Paths.Keep(paths) {
			kept = append(kept, c)
		}
	}
	return kept, nil
}
