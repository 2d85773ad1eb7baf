package changelog

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/chachako/pretty-changelog/internal/commit"
	"github.com/chachako/pretty-changelog/internal/github"
	"github.com/chachako/pretty-changelog/internal/history"
	"github.com/chachako/pretty-changelog/internal/release"
)

// Repository describes the repository being documented. URL is empty when
// it is unknown.
type Repository struct {
	Owner string `json:"owner,omitempty"`
	Name  string `json:"name,omitempty"`
	URL   string `json:"url,omitempty"`
}

// Metadata is the global data supplied alongside the releases.
type Metadata struct {
	Repository Repository
	// Timestamp is the generation time.
	Timestamp time.Time
	// Remote maps commit ids to enrichment results. Nil when enrichment
	// was disabled or failed.
	Remote github.Result
}

// Context is the data passed to the header and footer templates.
type Context struct {
	Releases   []*ReleaseView `json:"releases"`
	Timestamp  time.Time      `json:"timestamp"`
	Repository Repository     `json:"repository"`
}

// ReleaseView is one release as seen by templates.
type ReleaseView struct {
	Version     string        `json:"version"`
	SemVer      string        `json:"semver,omitempty"`
	CommitID    string        `json:"commit_id,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`
	Unreleased  bool          `json:"unreleased"`
	Previous    string        `json:"previous,omitempty"`
	Next        string        `json:"next,omitempty"`
	CommitCount int           `json:"commit_count"`
	Commits     []*CommitView `json:"commits"`
	Groups      []GroupView   `json:"groups"`
}

// ReleaseData is the data passed to the body template, rendered once per
// release.
type ReleaseData struct {
	*ReleaseView
	Repository Repository
	Now        time.Time
}

// GroupView is a display group. Name keeps any ordering prefix, Title is
// the name without it.
type GroupView struct {
	Name    string        `json:"name"`
	Title   string        `json:"title"`
	Commits []*CommitView `json:"commits"`
	Scopes  []ScopeView   `json:"scopes"`
}

// ScopeView holds the commits of a group sharing one scope. The unscoped
// entry has an empty Name and comes last.
type ScopeView struct {
	Name    string        `json:"name"`
	Title   string        `json:"title"`
	Commits []*CommitView `json:"commits"`
}

// FooterView is a footer after link substitution.
type FooterView struct {
	Token     string `json:"token"`
	Separator string `json:"separator"`
	Value     string `json:"value"`
	Breaking  bool   `json:"breaking"`
}

// CommitView is a commit as seen by templates. A commit listed in two
// groups of a release is the same *CommitView in both.
type CommitView struct {
	ID           string `json:"id"`
	ShortID      string `json:"short_id"`
	Message      string `json:"message"`
	Conventional bool   `json:"conventional"`
	// Summary is the conventional description, or the first message line.
	Summary             string              `json:"summary"`
	Body                string              `json:"body,omitempty"`
	Footers             []FooterView        `json:"footers,omitempty"`
	Type                string              `json:"type,omitempty"`
	Scope               string              `json:"scope,omitempty"`
	Breaking            bool                `json:"breaking"`
	BreakingDescription string              `json:"breaking_description,omitempty"`
	Group               string              `json:"group,omitempty"`
	Links               []commit.Link       `json:"links,omitempty"`
	Author              history.Signature   `json:"author"`
	Committer           history.Signature   `json:"committer"`
	Coauthors           []history.Signature `json:"coauthors,omitempty"`
	PullRequests        []int               `json:"pull_requests,omitempty"`
	// Remote is nil when no enrichment result exists for the commit.
	Remote *github.Metadata `json:"remote,omitempty"`
}

// GitHubAuthors returns the resolved usernames of the author and
// co-authors.
func (c *CommitView) GitHubAuthors() []string {
	if c.Remote == nil {
		return nil
	}
	var out []string
	if c.Remote.Username != "" {
		out = append(out, c.Remote.Username)
	}
	for _, u := range c.Remote.CoauthorUsernames {
		if u != "" && u != c.Remote.Username {
			out = append(out, u)
		}
	}
	return out
}

// Credits returns the usernames to credit for the commit. A commit whose
// only author is owner credits nobody.
func (c *CommitView) Credits(owner string) []string {
	authors := c.GitHubAuthors()
	if len(authors) == 1 && strings.EqualFold(authors[0], owner) {
		return nil
	}
	return authors
}

// orderPrefix matches the ordering prefixes allowed in group names, such
// as "<!-- 0 -->" or "1. ".
var orderPrefix = regexp.MustCompile(`^(?:<!--\s*\d+\s*-->\s*|\d+\.\s+)`)

// GroupTitle strips the ordering prefix from a group name.
func GroupTitle(name string) string {
	return orderPrefix.ReplaceAllString(name, "")
}

// builder assembles views for one render.
type builder struct {
	links  []commit.LinkParser
	remote github.Result
}

// NewContext builds the template context for releases.
func NewContext(releases []*release.Release, md Metadata, links []commit.LinkParser) *Context {
	b := builder{links: links, remote: md.Remote}
	ctx := &Context{
		Releases:   make([]*ReleaseView, 0, len(releases)),
		Timestamp:  md.Timestamp,
		Repository: md.Repository,
	}
	for _, r := range releases {
		ctx.Releases = append(ctx.Releases, b.release(r))
	}
	return ctx
}

func (b builder) release(r *release.Release) *ReleaseView {
	v := &ReleaseView{
		Version:     r.Version,
		CommitID:    r.CommitID,
		Timestamp:   r.Timestamp,
		Unreleased:  r.Unreleased,
		Previous:    r.Previous,
		Next:        r.Next,
		CommitCount: r.CommitCount,
		Commits:     make([]*CommitView, 0, len(r.Commits)),
		Groups:      make([]GroupView, 0, len(r.Groups)),
	}
	if r.SemVer != nil {
		v.SemVer = r.SemVer.String()
	}

	views := make(map[*commit.Commit]*CommitView, len(r.Commits))
	view := func(c *commit.Commit) *CommitView {
		if cv, ok := views[c]; ok {
			return cv
		}
		cv := b.commit(c)
		views[c] = cv
		return cv
	}

	for _, c := range r.Commits {
		v.Commits = append(v.Commits, view(c))
	}
	for _, g := range r.Groups {
		gv := GroupView{Name: g.Name, Title: GroupTitle(g.Name)}
		for _, c := range g.Commits {
			gv.Commits = append(gv.Commits, view(c))
		}
		gv.Scopes = scopes(gv.Commits)
		v.Groups = append(v.Groups, gv)
	}
	return v
}

func (b builder) commit(c *commit.Commit) *CommitView {
	cv := &CommitView{
		ID:           c.ID,
		ShortID:      shortID(c.ID),
		Message:      c.Message,
		Conventional: c.IsConventional(),
		Scope:        c.EffectiveScope(),
		Breaking:     c.Breaking(),
		Group:        c.Group,
		Links:        c.Links,
		Author:       c.Author,
		Committer:    c.Committer,
		Coauthors:    c.Coauthors,
	}

	if c.Conv != nil {
		cv.Type = c.Conv.Type
		cv.Summary = c.Conv.Description
		cv.BreakingDescription = c.Conv.BreakingDescription
		for _, f := range c.Conv.Footers {
			cv.Footers = append(cv.Footers, FooterView{
				Token:     f.Token,
				Separator: f.Separator,
				Value:     SubstituteLinks(f.Value, b.links),
				Breaking:  f.Breaking,
			})
		}
	} else {
		cv.Summary, _, _ = strings.Cut(c.Message, "\n")
		cv.Summary = strings.TrimSpace(cv.Summary)
	}
	cv.Body = SubstituteLinks(strings.TrimSpace(c.Body()), b.links)

	if md, ok := b.remote[c.ID]; ok {
		cv.Remote = &md
		cv.PullRequests = md.PullRequests
	}
	return cv
}

// scopes splits group commits by scope. Named scopes are sorted by name,
// commits keep their group order.
func scopes(commits []*CommitView) []ScopeView {
	index := map[string]int{}
	var out []ScopeView
	for _, c := range commits {
		i, ok := index[c.Scope]
		if !ok {
			i = len(out)
			index[c.Scope] = i
			out = append(out, ScopeView{Name: c.Scope, Title: c.Scope})
		}
		out[i].Commits = append(out[i].Commits, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Name, out[j].Name
		if (a == "") != (b == "") {
			return b == ""
		}
		return a < b
	})
	return out
}

func shortID(id string) string {
	if len(id) > 7 {
		return id[:7]
	}
	return id
}
