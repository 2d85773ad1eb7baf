// Package release groups classified commits into releases.
package release

import (
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/chachako/pretty-changelog/internal/commit"
	"github.com/chachako/pretty-changelog/internal/history"
)

// UnreleasedLabel is the version label of the release holding commits newer
// than the last tag.
const UnreleasedLabel = "Unreleased"

// Sort selects the commit order inside a group.
type Sort string

const (
	// SortNewest keeps the walker's emission order, most recent first.
	SortNewest Sort = "newest"
	// SortOldest reverses it.
	SortOldest Sort = "oldest"
)

// Bucket is one tag bucket of classified commits, most recent first.
type Bucket struct {
	Tag     *history.Boundary
	Commits []*commit.Commit
}

// Group is a display group. Commits are shared with Release.Commits.
type Group struct {
	Name    string           `json:"name"`
	Commits []*commit.Commit `json:"commits"`
}

// Release is one rendered changelog section.
type Release struct {
	Version    string          `json:"version"`
	SemVer     *semver.Version `json:"-"`
	CommitID   string          `json:"commit_id,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	Unreleased bool            `json:"unreleased"`
	// Commits sorted by group, each commit once.
	Commits []*commit.Commit `json:"commits"`
	// Groups in display order. The breaking group, when enabled, repeats
	// breaking commits already listed under their own group.
	Groups      []Group `json:"groups"`
	Previous    string  `json:"previous,omitempty"`
	Next        string  `json:"next,omitempty"`
	CommitCount int     `json:"commit_count"`
}

// Options configures the builder.
type Options struct {
	// IncludeGroups keeps only commits in these groups when non-empty.
	IncludeGroups []string
	// ExcludeGroups drops commits in these groups.
	ExcludeGroups []string
	// GroupOrder lists groups in display order. Unlisted groups follow
	// alphabetically and ungrouped commits come last.
	GroupOrder []string
	Sort       Sort
	// OmitEmpty drops releases without surviving commits. Off by default:
	// empty releases are kept with an empty commit list.
	OmitEmpty bool
	// LinkOmitted keeps omitted releases in the previous/next chain, so
	// their neighbours link to them. Off by default: neighbours link past.
	LinkOmitted bool
	// BreakingGroup also lists breaking commits in a group of this name.
	// Empty disables it.
	BreakingGroup string
	// PreviousLabel becomes the previous link of the oldest release.
	PreviousLabel string
	// Now stamps the Unreleased release. Defaults to time.Now.
	Now func() time.Time
}
