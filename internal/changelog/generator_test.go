// Package changelog tests the generator pipeline end to end against real
// repositories.
// Related: internal/changelog/generator.go
// Tags: changelog, generator, pipeline, go-git
package changelog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chachako/pretty-changelog/internal/commit"
	"github.com/chachako/pretty-changelog/internal/config"
	"github.com/chachako/pretty-changelog/internal/git"
	"github.com/chachako/pretty-changelog/internal/github"
	"github.com/chachako/pretty-changelog/internal/history"
	"github.com/chachako/pretty-changelog/internal/release"
	"github.com/chachako/pretty-changelog/internal/template"
	"github.com/chachako/pretty-changelog/internal/testutil"
)

// releasedRepo builds v1.0.0 {A "feat: x", B "fix: y"} and v1.1.0
// {C "feat!: z"}.
func releasedRepo(t *testing.T) (tr *testutil.GitRepo, a, b, c string) {
	t.Helper()
	tr = testutil.NewGitRepo(t)
	a = tr.Commit("feat: x", nil)
	b = tr.Commit("fix: y", nil)
	tr.Tag("v1.0.0", b)
	c = tr.Commit("feat!: z", nil)
	tr.AnnotatedTag("v1.1.0", c, "v1.1.0")
	return tr, a, b, c
}

func defaultConfig(t *testing.T, mutate func(*config.Configuration)) *config.Configuration {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cliff.toml")
	require.NoError(t, os.WriteFile(path, config.DefaultConfig(), 0o644))
	cfg, err := config.LoadWithOptions(config.LoadOptions{Path: path, SkipWarnings: true})
	require.NoError(t, err)
	if mutate != nil {
		mutate(cfg)
	}
	return cfg
}

func newTestGenerator(t *testing.T, dir string, cfg *config.Configuration) *Generator {
	t.Helper()
	repo, err := git.Open(dir)
	require.NoError(t, err)
	renderer, err := NewRenderer(RendererOptions{
		Header: cfg.Changelog.Header,
		Body:   cfg.Changelog.Body,
		Footer: cfg.Changelog.Footer,
		Trim:   cfg.Changelog.Trim,
		Links:  cfg.Rules().Links,
	})
	require.NoError(t, err)
	g := NewGenerator(repo, cfg.Rules(), renderer)
	g.Now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	return g
}

func versions(releases []*release.Release) []string {
	out := make([]string, len(releases))
	for i, r := range releases {
		out[i] = r.Version
	}
	return out
}

func commitIDs(cs []*commit.Commit) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

func TestGenerate_EndToEnd(t *testing.T) {
	t.Parallel()

	tr, a, b, c := releasedRepo(t)
	g := newTestGenerator(t, tr.Dir, defaultConfig(t, nil))

	out, err := g.Generate(context.Background(), Options{DateOrder: true})
	require.NoError(t, err)

	want := strings.Join([]string{
		"# Changelog",
		"",
		"All notable changes to this project will be documented in this file.",
		"",
		"## [1.1.0] - 2024-01-01",
		"",
		"### Breaking Changes",
		"",
		"- `" + c[:7] + "` Z",
		"",
		"### Features",
		"",
		"- `" + c[:7] + "` Z",
		"",
		"## [1.0.0] - 2024-01-01",
		"",
		"### Features",
		"",
		"- `" + a[:7] + "` X",
		"",
		"### Bug Fixes",
		"",
		"- `" + b[:7] + "` Y",
		"",
		"<!-- generated by pretty-changelog -->",
		"",
	}, "\n")
	assert.Equal(t, want, string(out))
}

func TestBuild_BreakingGroupSharesCommit(t *testing.T) {
	t.Parallel()

	tr, _, _, c := releasedRepo(t)
	g := newTestGenerator(t, tr.Dir, defaultConfig(t, nil))

	res, err := g.Build(context.Background(), Options{})
	require.NoError(t, err)
	require.Equal(t, []string{"v1.1.0", "v1.0.0"}, versions(res.Releases))

	latest := res.Releases[0]
	require.Len(t, latest.Groups, 2)
	assert.Equal(t, c, latest.Groups[0].Commits[0].ID)
	assert.Same(t, latest.Groups[0].Commits[0], latest.Groups[1].Commits[0])
	assert.Equal(t, "v1.0.0", latest.Previous)
	assert.Empty(t, latest.Next)
	assert.Equal(t, "v1.1.0", res.Releases[1].Next)
}

func TestBuild_Ranges(t *testing.T) {
	t.Parallel()

	tr, a, b, c := releasedRepo(t)
	d := tr.Commit("fix: after release", nil)
	e := tr.Commit("chore(release): prepare", nil)

	tests := map[string]struct {
		opts         Options
		wantVersions []string
		wantCommits  [][]string
		wantPrevious string
	}{
		"full history": {
			opts:         Options{},
			wantVersions: []string{"Unreleased", "v1.1.0", "v1.0.0"},
			wantCommits:  [][]string{{d}, {c}, {a, b}},
		},
		"unreleased": {
			opts:         Options{Unreleased: true},
			wantVersions: []string{"Unreleased"},
			wantCommits:  [][]string{{d}},
			wantPrevious: "v1.1.0",
		},
		"latest": {
			opts:         Options{Latest: true},
			wantVersions: []string{"v1.1.0"},
			wantCommits:  [][]string{{c}},
			wantPrevious: "v1.0.0",
		},
		"current": {
			opts:         Options{Current: true},
			wantVersions: []string{"v1.1.0"},
			wantCommits:  [][]string{{c}},
			wantPrevious: "v1.0.0",
		},
		"explicit range": {
			opts:         Options{Range: "v1.0.0..v1.1.0"},
			wantVersions: []string{"v1.1.0"},
			wantCommits:  [][]string{{c}},
			wantPrevious: "v1.0.0",
		},
		"open range": {
			opts:         Options{Range: "v1.1.0.."},
			wantVersions: []string{"Unreleased"},
			wantCommits:  [][]string{{d}},
			wantPrevious: "v1.1.0",
		},
		"tag the unreleased commits": {
			opts:         Options{Unreleased: true, Tag: "v1.2.0"},
			wantVersions: []string{"v1.2.0"},
			wantCommits:  [][]string{{d}},
			wantPrevious: "v1.1.0",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			g := newTestGenerator(t, tr.Dir, defaultConfig(t, nil))
			res, err := g.Build(context.Background(), tt.opts)
			require.NoError(t, err)
			require.Equal(t, tt.wantVersions, versions(res.Releases))
			for i, r := range res.Releases {
				assert.ElementsMatch(t, tt.wantCommits[i], commitIDs(r.Commits), r.Version)
				assert.NotContains(t, commitIDs(r.Commits), e, "skipped commit must not appear")
			}
			assert.Equal(t, tt.wantPrevious, res.Releases[len(res.Releases)-1].Previous)
		})
	}
}

func TestBuild_WithCommit(t *testing.T) {
	t.Parallel()

	tr, _, _, _ := releasedRepo(t)
	tr.Commit("fix: pending", nil)

	tests := map[string]struct {
		opts          Options
		wantVersions  []string
		wantUnrelease []string
	}{
		"new unreleased release above a tagged head": {
			opts:          Options{Latest: true, WithCommits: []string{"feat: extra entry"}},
			wantVersions:  []string{"Unreleased", "v1.1.0"},
			wantUnrelease: []string{"extra entry"},
		},
		"joins the existing unreleased release": {
			opts:          Options{WithCommits: []string{"feat: extra entry"}},
			wantVersions:  []string{"Unreleased", "v1.1.0", "v1.0.0"},
			wantUnrelease: []string{"extra entry", "pending"},
		},
		"stays unreleased when the head is tagged": {
			opts:          Options{Unreleased: true, Tag: "v1.2.0", WithCommits: []string{"feat: extra entry"}},
			wantVersions:  []string{"Unreleased", "v1.2.0"},
			wantUnrelease: []string{"extra entry"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			g := newTestGenerator(t, tr.Dir, defaultConfig(t, nil))

			res, err := g.Build(context.Background(), tt.opts)
			require.NoError(t, err)
			require.Equal(t, tt.wantVersions, versions(res.Releases))
			var summaries []string
			for _, c := range res.Releases[0].Commits {
				summaries = append(summaries, c.Conv.Description)
			}
			assert.ElementsMatch(t, tt.wantUnrelease, summaries)
		})
	}
}

func TestBuild_MergedBranchStaysOutOfOlderTag(t *testing.T) {
	t.Parallel()

	// The side commit is older than the tag but only reachable via the merge.
	tr := testutil.NewGitRepo(t)
	root := tr.Commit("feat: root", nil)
	side := tr.CommitWithParents("fix: side branch", root)
	tagged := tr.Commit("feat: tagged", nil)
	tr.Tag("v1.0.0", tagged)
	tr.SetHead(tr.CommitWithParents("chore: merge side branch", tagged, side))

	for _, order := range []bool{false, true} {
		g := newTestGenerator(t, tr.Dir, defaultConfig(t, nil))
		res, err := g.Build(context.Background(), Options{DateOrder: order})
		require.NoError(t, err)
		require.Equal(t, []string{"Unreleased", "v1.0.0"}, versions(res.Releases))
		assert.Contains(t, commitIDs(res.Releases[0].Commits), side, "date order %v", order)
		assert.ElementsMatch(t, []string{root, tagged}, commitIDs(res.Releases[1].Commits), "date order %v", order)
	}
}

func TestBuild_CurrentWithoutTag(t *testing.T) {
	t.Parallel()

	tr := testutil.NewGitRepo(t)
	tr.Commit("feat: x", nil)
	g := newTestGenerator(t, tr.Dir, defaultConfig(t, nil))

	_, err := g.Build(context.Background(), Options{Current: true})
	assert.ErrorIs(t, err, ErrNoTag)
}

func TestGenerate_Failures(t *testing.T) {
	t.Parallel()

	tr, _, _, _ := releasedRepo(t)

	t.Run("unknown reference", func(t *testing.T) {
		t.Parallel()
		g := newTestGenerator(t, tr.Dir, defaultConfig(t, nil))
		out, err := g.Generate(context.Background(), Options{Range: "v9.9.9..HEAD"})
		require.Error(t, err)
		assert.Nil(t, out)
		var refErr *history.ReferenceError
		assert.True(t, errors.As(err, &refErr))
	})

	t.Run("template failure", func(t *testing.T) {
		t.Parallel()
		cfg := defaultConfig(t, func(c *config.Configuration) {
			c.Changelog.Body = "{{ .Missing }}"
		})
		g := newTestGenerator(t, tr.Dir, cfg)
		out, err := g.Generate(context.Background(), Options{})
		require.Error(t, err)
		assert.Nil(t, out)
		var re *template.RenderError
		assert.True(t, errors.As(err, &re))
	})

	t.Run("cancelled", func(t *testing.T) {
		t.Parallel()
		g := newTestGenerator(t, tr.Dir, defaultConfig(t, nil))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		out, err := g.Generate(ctx, Options{})
		require.Error(t, err)
		assert.Nil(t, out)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

type stubEnricher struct {
	result github.Result
	delay  time.Duration
}

func (s *stubEnricher) Enrich(ctx context.Context, _ []*commit.Commit) github.Result {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil
		}
	}
	return s.result
}

func TestGenerate_Enrichment(t *testing.T) {
	t.Parallel()

	tr, _, b, _ := releasedRepo(t)

	t.Run("joined by commit id", func(t *testing.T) {
		t.Parallel()
		g := newTestGenerator(t, tr.Dir, defaultConfig(t, nil))
		g.Repository = Repository{Owner: "o", Name: "r", URL: "https://github.com/o/r"}
		g.Enricher = &stubEnricher{result: github.Result{
			b: {Username: "alice", PullRequests: []int{4}},
		}}
		out, err := g.Generate(context.Background(), Options{})
		require.NoError(t, err)
		assert.Contains(t, string(out), "Y by [@alice](https://github.com/alice) in [#4](https://github.com/o/r/pull/4)")
		assert.Contains(t, string(out), "_**Full changes: https://github.com/o/r/compare/v1.0.0...v1.1.0**_")
	})

	t.Run("timeout degrades to absent fields", func(t *testing.T) {
		t.Parallel()
		g := newTestGenerator(t, tr.Dir, defaultConfig(t, nil))
		g.Enricher = &stubEnricher{
			result: github.Result{b: {Username: "alice"}},
			delay:  time.Minute,
		}
		g.EnrichTimeout = 10 * time.Millisecond
		out, err := g.Generate(context.Background(), Options{})
		require.NoError(t, err)
		assert.NotContains(t, string(out), "@alice")
		assert.Contains(t, string(out), "## [1.0.0]")
	})
}

func TestParseRange(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input   string
		want    history.Range
		wantErr bool
	}{
		"two dots":  {input: "v1..v2", want: history.Range{From: "v1", To: "v2"}},
		"open end":  {input: "v1..", want: history.Range{From: "v1"}},
		"end only":  {input: "v2", want: history.Range{To: "v2"}},
		"no start":  {input: "..v2", want: history.Range{To: "v2"}, wantErr: true},
		"symmetric": {input: "v1...v2", want: history.Range{From: "v1", To: ".v2"}, wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseRange(tt.input))
			if tt.wantErr {
				assert.Error(t, ValidateRange(tt.input))
			} else {
				assert.NoError(t, ValidateRange(tt.input))
			}
		})
	}
}
