package github

import (
	"context"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/chachako/pretty-changelog/internal/commit"
	"github.com/chachako/pretty-changelog/internal/logging"
)

// DefaultConcurrency bounds parallel API requests.
const DefaultConcurrency = 8

const cacheSize = 1024

// Metadata is the remote information found for one commit.
type Metadata struct {
	Username          string   `json:"username,omitempty"`
	PullRequests      []int    `json:"pull_requests,omitempty"`
	CoauthorUsernames []string `json:"coauthor_usernames,omitempty"`
}

// Result maps commit ids to metadata. Commits whose lookup failed are
// absent.
type Result map[string]Metadata

// API is the subset of Client used by Enricher.
type API interface {
	CommitAuthor(ctx context.Context, sha string) (string, error)
	PullRequests(ctx context.Context, sha string) ([]int, error)
	PullRequestAuthors(ctx context.Context, n int) ([]string, error)
}

// Enricher resolves metadata for many commits concurrently.
type Enricher struct {
	api            API
	concurrency    int
	resolveAuthors bool

	// email -> login
	usernames *lru.Cache[string, string]
	// co-author set -> logins
	coauthors *lru.Cache[string, []string]
}

// NewEnricher returns an enricher issuing at most concurrency requests at
// once. Without resolveAuthors only pull request numbers are looked up.
func NewEnricher(api API, concurrency int, resolveAuthors bool) *Enricher {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	usernames, _ := lru.New[string, string](cacheSize)
	coauthors, _ := lru.New[string, []string](cacheSize)
	return &Enricher{
		api:            api,
		concurrency:    concurrency,
		resolveAuthors: resolveAuthors,
		usernames:      usernames,
		coauthors:      coauthors,
	}
}

// pullRequestPattern matches the "(#123)" suffix GitHub appends to squash
// merge titles.
var pullRequestPattern = regexp.MustCompile(`(?m)\s\(#(\d+)\)$`)

// Enrich looks up every commit. It never fails: a lookup that errors or runs
// past ctx is logged and keeps only what it found before failing, or is
// left out of the result when that is nothing.
func (e *Enricher) Enrich(ctx context.Context, commits []*commit.Commit) Result {
	log := logging.With("github")
	result := make(Result, len(commits))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for _, c := range commits {
		g.Go(func() error {
			md, err := e.lookup(ctx, c)
			if err != nil {
				log.Debug("lookup failed", "commit", shortID(c.ID), "err", err)
				if md.empty() {
					return nil
				}
			}
			mu.Lock()
			result[c.ID] = md
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	log.Debug("enrichment finished", "resolved", len(result), "total", len(commits))
	return result
}

func (e *Enricher) lookup(ctx context.Context, c *commit.Commit) (Metadata, error) {
	if err := ctx.Err(); err != nil {
		return Metadata{}, err
	}

	// Local data survives a failed remote call.
	md := Metadata{PullRequests: PullRequestNumbers(c.Message)}
	if e.resolveAuthors && c.Author.Email != "" {
		if login, ok := e.usernames.Get(c.Author.Email); ok {
			md.Username = login
		} else {
			login, err := e.api.CommitAuthor(ctx, c.ID)
			if err != nil {
				return md, err
			}
			md.Username = login
			if login != "" {
				e.usernames.Add(c.Author.Email, login)
			}
		}
	}

	if !e.resolveAuthors || len(c.Coauthors) == 0 {
		return md, nil
	}

	cached := make([]string, 0, len(c.Coauthors))
	for _, co := range c.Coauthors {
		if login, ok := e.usernames.Get(co.Email); ok {
			cached = append(cached, login)
		}
	}
	if len(cached) == len(c.Coauthors) {
		md.CoauthorUsernames = cached
		return md, nil
	}

	key := coauthorKey(c)
	if logins, ok := e.coauthors.Get(key); ok {
		md.CoauthorUsernames = logins
		return md, nil
	}

	if md.PullRequests == nil {
		prs, err := e.api.PullRequests(ctx, c.ID)
		if err != nil {
			return md, err
		}
		md.PullRequests = prs
	}
	var logins []string
	for _, n := range md.PullRequests {
		authors, err := e.api.PullRequestAuthors(ctx, n)
		if err != nil {
			return md, err
		}
		for _, a := range authors {
			if a != md.Username && !slices.Contains(logins, a) {
				logins = append(logins, a)
			}
		}
	}
	e.coauthors.Add(key, logins)
	md.CoauthorUsernames = logins
	return md, nil
}

func (md Metadata) empty() bool {
	return md.Username == "" && len(md.PullRequests) == 0 && len(md.CoauthorUsernames) == 0
}

// PullRequestNumbers returns the pull request referenced by a trailing
// "(#123)" on any line of message, or nil.
func PullRequestNumbers(message string) []int {
	m := pullRequestPattern.FindStringSubmatch(message)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return []int{n}
}

func coauthorKey(c *commit.Commit) string {
	parts := make([]string, 0, len(c.Coauthors))
	for _, co := range c.Coauthors {
		parts = append(parts, co.Name+"<"+co.Email+">")
	}
	return strings.Join(parts, ",")
}

func shortID(id string) string {
	if len(id) > 7 {
		return id[:7]
	}
	return id
}
