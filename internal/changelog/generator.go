package changelog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chachako/pretty-changelog/internal/commit"
	"github.com/chachako/pretty-changelog/internal/config"
	"github.com/chachako/pretty-changelog/internal/github"
	"github.com/chachako/pretty-changelog/internal/history"
	"github.com/chachako/pretty-changelog/internal/logging"
	"github.com/chachako/pretty-changelog/internal/progress"
	"github.com/chachako/pretty-changelog/internal/release"
)

// DefaultEnrichTimeout bounds remote enrichment when no timeout is set.
const DefaultEnrichTimeout = 10 * time.Second

// ErrNoTag is returned by --current when no tag is reachable from HEAD.
var ErrNoTag = errors.New("no release tag is reachable from HEAD")

// Options selects what a run covers. At most one of Range, Unreleased,
// Latest and Current is set.
type Options struct {
	// Range is "from..to", "from.." or a single end reference.
	Range string
	// Unreleased covers commits after the last tag reachable from HEAD.
	Unreleased bool
	// Latest covers the commits of the newest tag.
	Latest bool
	// Current covers the commits of the newest tag reachable from HEAD.
	Current bool
	// Tag names the newest, untagged commits as a release.
	Tag string
	// WithCommits are extra "<sha> message" or "message" commits added to
	// the newest release.
	WithCommits []string
	Paths       history.PathFilter
	// DateOrder forces date order regardless of the configuration.
	DateOrder bool
	// Sort overrides the configured commit order inside groups.
	Sort release.Sort
}

// Enricher fetches remote metadata for commits.
type Enricher interface {
	Enrich(ctx context.Context, commits []*commit.Commit) github.Result
}

// Generator runs the changelog pipeline against one store.
type Generator struct {
	store    history.Store
	rules    *config.RuleSet
	renderer *Renderer

	// Enricher is optional. It runs concurrently with bucketing and
	// release building and is joined before rendering.
	Enricher      Enricher
	EnrichTimeout time.Duration
	Repository    Repository
	// Spinner reports progress. Nil is fine.
	Spinner *progress.Spinner
	Now     func() time.Time
}

// NewGenerator creates a Generator.
func NewGenerator(store history.Store, rules *config.RuleSet, renderer *Renderer) *Generator {
	return &Generator{
		store:    store,
		rules:    rules,
		renderer: renderer,
		Now:      time.Now,
	}
}

// Result is the output of the pipeline before rendering.
type Result struct {
	Releases []*release.Release
	Metadata Metadata
}

// Generate runs the pipeline and renders the changelog.
func (g *Generator) Generate(ctx context.Context, opts Options) ([]byte, error) {
	res, err := g.Build(ctx, opts)
	if err != nil {
		return nil, err
	}
	return g.renderer.Render(res.Releases, res.Metadata)
}

// Prepend runs the pipeline and renders the new releases above existing.
func (g *Generator) Prepend(ctx context.Context, opts Options, existing []byte) ([]byte, error) {
	res, err := g.Build(ctx, opts)
	if err != nil {
		return nil, err
	}
	return g.renderer.Prepend(res.Releases, res.Metadata, existing)
}

// Context runs the pipeline and returns the template context as JSON.
func (g *Generator) Context(ctx context.Context, opts Options) ([]byte, error) {
	res, err := g.Build(ctx, opts)
	if err != nil {
		return nil, err
	}
	return MarshalContext(g.renderer.Context(res.Releases, res.Metadata))
}

// Build resolves the range, walks it and builds the releases.
func (g *Generator) Build(ctx context.Context, opts Options) (*Result, error) {
	log := logging.With("changelog")
	now := g.Now()

	walker := history.NewWalker(g.store)
	walker.Paths = opts.Paths
	walker.Limit = g.rules.Limit

	g.Spinner.Start("Reading history")
	defer g.Spinner.Stop()

	boundaries, err := walker.Tags(g.rules.Tags)
	if err != nil {
		return nil, err
	}
	rng, previous, err := g.resolveRange(ctx, walker, boundaries, opts)
	if err != nil {
		return nil, err
	}

	order := g.rules.Order
	if opts.DateOrder {
		order = history.OrderDate
	}
	if opts.Tag != "" {
		head, err := walker.Resolve(rng.Head())
		if err != nil {
			return nil, err
		}
		boundaries = tagHead(boundaries, opts.Tag, head, now)
	}
	walked, err := walker.Buckets(ctx, rng, order, boundaries)
	if err != nil {
		return nil, err
	}
	var raws []*history.Commit
	for _, b := range walked {
		raws = append(raws, b.Commits...)
	}
	log.Debug("walked history", "range", rng.String(), "order", order.String(), "commits", len(raws), "buckets", len(walked))

	g.Spinner.Update("Classifying commits")
	parsed := make(map[string]*commit.Commit, len(raws))
	var kept []*commit.Commit
	for _, raw := range raws {
		c := g.classify(raw)
		parsed[raw.ID] = c
		if !c.Skip {
			kept = append(kept, c)
		}
	}
	custom := make([]*commit.Commit, 0, len(opts.WithCommits))
	for _, msg := range opts.WithCommits {
		custom = append(custom, g.classify(commit.FromMessage(msg)))
	}

	remote, stop := g.startEnrichment(ctx, kept)
	defer stop()

	buckets := make([]release.Bucket, 0, len(walked)+1)
	for _, b := range walked {
		rb := release.Bucket{Tag: b.Tag, Commits: make([]*commit.Commit, 0, len(b.Commits))}
		for _, raw := range b.Commits {
			rb.Commits = append(rb.Commits, parsed[raw.ID])
		}
		buckets = append(buckets, rb)
	}
	// Custom commits always go to the Unreleased release.
	if len(custom) > 0 {
		if len(buckets) == 0 || buckets[0].Tag != nil {
			buckets = append([]release.Bucket{{}}, buckets...)
		}
		buckets[0].Commits = append(custom, buckets[0].Commits...)
	}

	relOpts := g.rules.Release
	relOpts.PreviousLabel = previous
	relOpts.Now = func() time.Time { return now }
	if opts.Sort != "" {
		relOpts.Sort = opts.Sort
	}
	releases := release.NewBuilder(relOpts).Build(buckets)
	log.Debug("built releases", "buckets", len(buckets), "releases", len(releases))

	md := Metadata{Repository: g.Repository, Timestamp: now}
	if remote != nil {
		g.Spinner.Update("Resolving GitHub metadata")
		select {
		case md.Remote = <-remote:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Result{Releases: releases, Metadata: md}, nil
}

func (g *Generator) classify(raw *history.Commit) *commit.Commit {
	c := g.rules.Parser.Parse(raw)
	g.rules.Classifier.Classify(c)
	return c
}

// startEnrichment runs the enricher in the background. The channel is nil
// when there is nothing to enrich. stop releases the timeout.
func (g *Generator) startEnrichment(ctx context.Context, commits []*commit.Commit) (<-chan github.Result, func()) {
	if g.Enricher == nil || len(commits) == 0 {
		return nil, func() {}
	}
	timeout := g.EnrichTimeout
	if timeout <= 0 {
		timeout = DefaultEnrichTimeout
	}
	ectx, cancel := context.WithTimeout(ctx, timeout)
	out := make(chan github.Result, 1)
	go func() {
		out <- g.Enricher.Enrich(ectx, commits)
	}()
	return out, cancel
}

// resolveRange turns the run options into a walk range and the label of
// the release preceding it.
func (g *Generator) resolveRange(ctx context.Context, w *history.Walker, boundaries []history.Boundary, opts Options) (history.Range, string, error) {
	switch {
	case opts.Range != "":
		rng := ParseRange(opts.Range)
		if rng.From == "" {
			return rng, "", nil
		}
		id, err := w.Resolve(rng.From)
		if err != nil {
			return history.Range{}, "", err
		}
		previous := rng.From
		for _, b := range boundaries {
			if b.Target == id {
				previous = b.Name
			}
		}
		return rng, previous, nil

	case opts.Latest:
		n := len(boundaries)
		switch n {
		case 0:
			return history.Range{}, "", nil
		case 1:
			return history.Range{To: boundaries[0].Target}, "", nil
		}
		prev := boundaries[n-2]
		return history.Range{From: prev.Target, To: boundaries[n-1].Target}, prev.Name, nil

	case opts.Unreleased, opts.Current:
		reach, err := w.Reachable(ctx, history.DefaultTo)
		if err != nil {
			return history.Range{}, "", err
		}
		var reachable []history.Boundary
		for _, b := range boundaries {
			if reach[b.Target] {
				reachable = append(reachable, b)
			}
		}
		n := len(reachable)

		if opts.Unreleased {
			if n == 0 {
				return history.Range{}, "", nil
			}
			last := reachable[n-1]
			return history.Range{From: last.Target}, last.Name, nil
		}
		switch n {
		case 0:
			return history.Range{}, "", ErrNoTag
		case 1:
			return history.Range{To: reachable[0].Target}, "", nil
		}
		prev := reachable[n-2]
		return history.Range{From: prev.Target, To: reachable[n-1].Target}, prev.Name, nil
	}
	return history.Range{}, "", nil
}

// ParseRange parses "from..to", "from.." or a single end reference.
func ParseRange(s string) history.Range {
	from, to, ok := strings.Cut(s, "..")
	if !ok {
		return history.Range{To: s}
	}
	return history.Range{From: from, To: to}
}

// ValidateRange reports whether s is a usable range expression.
func ValidateRange(s string) error {
	if strings.Contains(s, "...") {
		return fmt.Errorf("symmetric difference %q is not supported", s)
	}
	rng := ParseRange(s)
	if strings.Contains(rng.To, "..") || (strings.Contains(s, "..") && rng.From == "") {
		return fmt.Errorf("invalid range %q", s)
	}
	return nil
}

// tagHead adds a boundary named tag at head unless head already carries
// a tag.
func tagHead(boundaries []history.Boundary, tag, head string, now time.Time) []history.Boundary {
	for _, b := range boundaries {
		if b.Target == head {
			logging.Warn("commit is already tagged, ignoring --tag", "commit", shortID(head), "tag", b.Name, "requested", tag)
			return boundaries
		}
	}
	out := make([]history.Boundary, len(boundaries), len(boundaries)+1)
	copy(out, boundaries)
	return append(out, history.Boundary{Tag: history.Tag{Name: tag, Target: head, When: now}})
}
