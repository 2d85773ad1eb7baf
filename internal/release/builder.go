package release

import (
	"sort"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/chachako/pretty-changelog/internal/commit"
)

// Builder turns buckets into releases.
type Builder struct {
	opts Options
}

// NewBuilder creates a Builder with opts.
func NewBuilder(opts Options) *Builder {
	if opts.Sort == "" {
		opts.Sort = SortNewest
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Builder{opts: opts}
}

// Build converts buckets, most recent first, into releases in the same
// order. Buckets closed by a skipped tag are dropped with their commits.
func (b *Builder) Build(buckets []Bucket) []*Release {
	var candidates []*Release
	for _, bucket := range buckets {
		if bucket.Tag != nil && bucket.Tag.Skip {
			continue
		}
		candidates = append(candidates, b.release(bucket))
	}

	emitted := make([]*Release, 0, len(candidates))
	for _, r := range candidates {
		if b.opts.OmitEmpty && len(r.Commits) == 0 {
			continue
		}
		emitted = append(emitted, r)
	}

	chain := emitted
	if b.opts.LinkOmitted {
		chain = candidates
	}
	link(chain, b.opts.PreviousLabel)
	return emitted
}

func link(chain []*Release, previous string) {
	for i, r := range chain {
		if i > 0 {
			r.Next = chain[i-1].Version
		}
		if i+1 < len(chain) {
			r.Previous = chain[i+1].Version
		} else {
			r.Previous = previous
		}
	}
}

func (b *Builder) release(bucket Bucket) *Release {
	r := &Release{}
	if bucket.Tag != nil {
		r.Version = bucket.Tag.Name
		r.CommitID = bucket.Tag.Target
		r.Timestamp = bucket.Tag.When
		if v, err := semver.NewVersion(r.Version); err == nil {
			r.SemVer = v
		}
	} else {
		r.Version = UnreleasedLabel
		r.Unreleased = true
		r.Timestamp = b.opts.Now()
		if len(bucket.Commits) > 0 {
			r.CommitID = bucket.Commits[0].ID
		}
	}

	commits := b.filter(bucket.Commits)
	if b.opts.Sort == SortOldest {
		for i, j := 0, len(commits)-1; i < j; i, j = i+1, j-1 {
			commits[i], commits[j] = commits[j], commits[i]
		}
	}
	sort.SliceStable(commits, func(i, j int) bool {
		return b.groupLess(commits[i].Group, commits[j].Group)
	})

	r.Commits = commits
	r.CommitCount = len(commits)
	r.Groups = b.groups(commits)
	return r
}

// filter drops skipped commits and applies the group filters.
func (b *Builder) filter(in []*commit.Commit) []*commit.Commit {
	out := make([]*commit.Commit, 0, len(in))
	for _, c := range in {
		if c.Skip {
			continue
		}
		if len(b.opts.IncludeGroups) > 0 && !contains(b.opts.IncludeGroups, c.Group) {
			continue
		}
		if contains(b.opts.ExcludeGroups, c.Group) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// groups splits sorted commits into display groups and adds the breaking
// group at its ordered position.
func (b *Builder) groups(commits []*commit.Commit) []Group {
	var groups []Group
	for _, c := range commits {
		if n := len(groups); n > 0 && groups[n-1].Name == c.Group {
			groups[n-1].Commits = append(groups[n-1].Commits, c)
			continue
		}
		groups = append(groups, Group{Name: c.Group, Commits: []*commit.Commit{c}})
	}

	name := b.opts.BreakingGroup
	if name == "" {
		return groups
	}
	var breaking []*commit.Commit
	for _, c := range commits {
		if c.Breaking() && c.Group != name {
			breaking = append(breaking, c)
		}
	}
	if len(breaking) == 0 {
		return groups
	}

	for i := range groups {
		if groups[i].Name == name {
			groups[i].Commits = append(groups[i].Commits, breaking...)
			return groups
		}
	}
	at := len(groups)
	for i := range groups {
		if b.groupLess(name, groups[i].Name) {
			at = i
			break
		}
	}
	groups = append(groups, Group{})
	copy(groups[at+1:], groups[at:])
	groups[at] = Group{Name: name, Commits: breaking}
	return groups
}

// groupLess orders listed groups by list position, then unlisted groups by
// name, then the empty group. An unlisted breaking group sorts first.
func (b *Builder) groupLess(x, y string) bool {
	rx, ry := b.rank(x), b.rank(y)
	if rx != ry {
		return rx < ry
	}
	return x < y
}

func (b *Builder) rank(group string) int {
	for i, g := range b.opts.GroupOrder {
		if g == group {
			return i + 1
		}
	}
	switch {
	case group == "":
		return len(b.opts.GroupOrder) + 2
	case group == b.opts.BreakingGroup:
		return 0
	}
	return len(b.opts.GroupOrder) + 1
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
