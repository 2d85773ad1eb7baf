package history

import "context"

// Bucket is the set of commits released under one tag. Tag is nil for the
// Unreleased bucket.
type Bucket struct {
	Tag *Boundary
	// Commits in walker emission order, most recent first.
	Commits []*Commit
}

// Unreleased reports whether the bucket has no closing tag.
func (b Bucket) Unreleased() bool {
	return b.Tag == nil
}

// Partition splits commits (most recent first, as returned by Walk) into
// release buckets. A commit belongs to the oldest boundary that contains
// it, following parents within commits only. Commits no boundary contains
// form the Unreleased bucket, which is omitted when empty. Boundaries whose
// target is not among commits get no bucket. Buckets are returned most
// recent first and keep the emission order of commits.
func Partition(commits []*Commit, boundaries []Boundary) []Bucket {
	byID := make(map[string]*Commit, len(commits))
	for _, c := range commits {
		byID[c.ID] = c
	}

	owner := make(map[string]int, len(commits))
	for i, b := range boundaries {
		if _, ok := byID[b.Target]; !ok {
			continue
		}
		if _, taken := owner[b.Target]; taken {
			continue
		}
		owner[b.Target] = i
		queue := []string{b.Target}
		for len(queue) > 0 {
			c := byID[queue[0]]
			queue = queue[1:]
			for _, p := range c.Parents {
				if _, ok := byID[p]; !ok {
					continue
				}
				if _, taken := owner[p]; taken {
					continue
				}
				owner[p] = i
				queue = append(queue, p)
			}
		}
	}

	tagged := make([][]*Commit, len(boundaries))
	var unreleased []*Commit
	for _, c := range commits {
		if i, ok := owner[c.ID]; ok {
			tagged[i] = append(tagged[i], c)
		} else {
			unreleased = append(unreleased, c)
		}
	}

	var buckets []Bucket
	if len(unreleased) > 0 {
		buckets = append(buckets, Bucket{Commits: unreleased})
	}
	for i := len(boundaries) - 1; i >= 0; i-- {
		if len(tagged[i]) > 0 {
			buckets = append(buckets, Bucket{Tag: &boundaries[i], Commits: tagged[i]})
		}
	}
	return buckets
}

// Buckets walks rng and partitions every commit in it by containment, then
// applies the path filter and the limit. Tagged buckets left empty by the
// path filter are kept; buckets whose commits all fall past the limit are
// dropped, and so is an empty Unreleased bucket.
func (w *Walker) Buckets(ctx context.Context, rng Range, order Order, boundaries []Boundary) ([]Bucket, error) {
	all, err := w.walk(ctx, rng, order)
	if err != nil {
		return nil, err
	}
	buckets := Partition(all, boundaries)
	if w.Paths.Empty() && w.Limit <= 0 {
		return buckets, nil
	}

	matched := all
	if !w.Paths.Empty() {
		if matched, err = w.filterPaths(ctx, all); err != nil {
			return nil, err
		}
	}
	limited := matched
	if w.Limit > 0 && len(limited) > w.Limit {
		limited = limited[:w.Limit]
	}
	keep := make(map[string]bool, len(limited))
	for _, c := range limited {
		keep[c.ID] = true
	}
	inRange := make(map[string]bool, len(matched))
	for _, c := range matched {
		inRange[c.ID] = true
	}

	out := buckets[:0]
	for _, b := range buckets {
		var commits []*Commit
		cut := false
		for _, c := range b.Commits {
			switch {
			case keep[c.ID]:
				commits = append(commits, c)
			case inRange[c.ID]:
				cut = true
			}
		}
		if len(commits) == 0 && (cut || b.Unreleased()) {
			continue
		}
		b.Commits = commits
		out = append(out, b)
	}
	return out, nil
}
