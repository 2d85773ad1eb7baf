package history

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/Masterminds/semver/v3"
)

// TagFilter decides which tags are release boundaries.
type TagFilter struct {
	// Pattern accepts tags whose name matches. Nil accepts every tag.
	Pattern *regexp.Regexp
	// Skip marks tags whose release is dropped together with its commits.
	// Skipped tags still close their bucket.
	Skip *regexp.Regexp
	// Ignore removes tags from the boundary set. Their commits fall through
	// to the next boundary.
	Ignore *regexp.Regexp
}

// Boundary is a tag that closes a release bucket.
type Boundary struct {
	Tag
	// Skip is set when the tag matched TagFilter.Skip.
	Skip bool
}

// Tags returns the release boundaries accepted by filter, oldest first.
// When several accepted tags point at one commit, the highest semantic
// version wins, then the lexically greatest name.
func (w *Walker) Tags(filter TagFilter) ([]Boundary, error) {
	tags, err := w.store.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	byTarget := map[string]Boundary{}
	for _, t := range tags {
		if filter.Pattern != nil && !filter.Pattern.MatchString(t.Name) {
			continue
		}
		skip := filter.Skip != nil && filter.Skip.MatchString(t.Name)
		if !skip && filter.Ignore != nil && filter.Ignore.String() != "" && filter.Ignore.MatchString(t.Name) {
			continue
		}
		b := Boundary{Tag: t, Skip: skip}
		if prev, ok := byTarget[t.Target]; ok && !tagGreater(b.Name, prev.Name) {
			continue
		}
		byTarget[t.Target] = b
	}

	out := make([]Boundary, 0, len(byTarget))
	for _, b := range byTarget {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].When.Equal(out[j].When) {
			return out[i].When.Before(out[j].When)
		}
		return tagLess(out[i].Name, out[j].Name)
	})
	return out, nil
}

// tagGreater reports whether tag a sorts after tag b.
func tagGreater(a, b string) bool {
	return tagLess(b, a)
}

func tagLess(a, b string) bool {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	switch {
	case errA == nil && errB == nil && !va.Equal(vb):
		return va.LessThan(vb)
	case errA == nil && errB != nil:
		return false
	case errA != nil && errB == nil:
		return true
	}
	return a < b
}
