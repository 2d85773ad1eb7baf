// Package cli tests changelog generation through the root command.
// Related: internal/cli/generate.go
// Tags: cli, generate, output, flags, errors

package cli

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clierrors "github.com/chachako/pretty-changelog/internal/errors"
	"github.com/chachako/pretty-changelog/internal/testutil"
)

func TestGenerate_Selection(t *testing.T) {
	tests := map[string]struct {
		args        []string
		untagged    bool
		contains    []string
		notContains []string
	}{
		"full history": {
			contains: []string{
				"# Changelog",
				"## [1.1.0]",
				"## [1.0.0]",
				"### Features",
				"#### cli",
				"Add --latest flag",
				"### Bug Fixes",
				"<!-- generated by pretty-changelog -->",
			},
		},
		"latest": {
			args:        []string{"--latest"},
			contains:    []string{"## [1.1.0]", "Add --latest flag"},
			notContains: []string{"## [1.0.0]", "Handle empty input"},
		},
		"unreleased": {
			args:        []string{"--unreleased"},
			untagged:    true,
			contains:    []string{"## [Unreleased]", "Write docs"},
			notContains: []string{"## [1.1.0]"},
		},
		"tag names the untagged commits": {
			args:        []string{"--unreleased", "--tag", "v2.0.0"},
			untagged:    true,
			contains:    []string{"## [2.0.0]", "Write docs"},
			notContains: []string{"[Unreleased]"},
		},
		"explicit range": {
			args:        []string{"v1.0.0..v1.1.0"},
			contains:    []string{"## [1.1.0]"},
			notContains: []string{"## [1.0.0]"},
		},
		"strip header and footer": {
			args:        []string{"--strip", "all"},
			contains:    []string{"## [1.0.0]"},
			notContains: []string{"# Changelog", "generated by"},
		},
		"body override": {
			args:     []string{"--body", "{{ .Version }}:{{ .CommitCount }}\n", "--strip", "all"},
			contains: []string{"v1.1.0:1", "v1.0.0:2"},
		},
		"with commit": {
			args:     []string{"--latest", "--with-commit", "feat: custom entry"},
			contains: []string{"Custom entry"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			repo := taggedRepo(t)
			if tt.untagged {
				repo.Commit("docs: write docs", nil)
			}
			args := append([]string{"--config", configFile(t), "--repository", repo.Dir}, tt.args...)

			stdout, stderr, err := run(t, args...)

			require.NoError(t, err, stderr)
			for _, want := range tt.contains {
				assert.Contains(t, stdout, want)
			}
			for _, unwanted := range tt.notContains {
				assert.NotContains(t, stdout, unwanted)
			}
		})
	}
}

func TestGenerate_Context(t *testing.T) {
	repo := taggedRepo(t)

	stdout, _, err := run(t, "--config", configFile(t), "--repository", repo.Dir, "--latest", "--context")
	require.NoError(t, err)

	var ctx struct {
		Releases []struct {
			Version     string `json:"version"`
			Previous    string `json:"previous"`
			CommitCount int    `json:"commit_count"`
		} `json:"releases"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &ctx))
	require.Len(t, ctx.Releases, 1)
	assert.Equal(t, "v1.1.0", ctx.Releases[0].Version)
	assert.Equal(t, "v1.0.0", ctx.Releases[0].Previous)
	assert.Equal(t, 1, ctx.Releases[0].CommitCount)
}

func TestGenerate_OutputFile(t *testing.T) {
	repo := taggedRepo(t)
	out := filepath.Join(t.TempDir(), "docs", "CHANGELOG.md")

	stdout, _, err := run(t, "--config", configFile(t), "--repository", repo.Dir, "-o", out)
	require.NoError(t, err)

	assert.Empty(t, stdout)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "## [1.1.0]")
}

func TestGenerate_Prepend(t *testing.T) {
	repo := taggedRepo(t)
	cfg := configFile(t)
	path := filepath.Join(t.TempDir(), "CHANGELOG.md")

	_, _, err := run(t, "--config", cfg, "--repository", repo.Dir, "v1.0.0", "-o", path)
	require.NoError(t, err)

	stdout, _, err := run(t, "--config", cfg, "--repository", repo.Dir, "--latest", "--prepend", path)
	require.NoError(t, err)
	assert.Empty(t, stdout, "prepend without --output writes nothing to stdout")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "## [1.1.0]")
	assert.Contains(t, text, "## [1.0.0]")
	assert.Less(t, strings.Index(text, "## [1.1.0]"), strings.Index(text, "## [1.0.0]"))
	assert.Equal(t, 1, strings.Count(text, "# Changelog\n"), "header is not duplicated")
}

func TestGenerate_Errors(t *testing.T) {
	tests := map[string]struct {
		args     func(t *testing.T, repo string) []string
		wantCode int
		wantCat  clierrors.ErrorCategory
	}{
		"conflicting selectors": {
			args:     func(t *testing.T, repo string) []string { return []string{"--latest", "--unreleased"} },
			wantCode: ExitInvalidArguments,
			wantCat:  clierrors.Argument,
		},
		"range with selector": {
			args:     func(t *testing.T, repo string) []string { return []string{"--latest", "v1.0.0.."} },
			wantCode: ExitInvalidArguments,
			wantCat:  clierrors.Argument,
		},
		"three dot range": {
			args:     func(t *testing.T, repo string) []string { return []string{"v1.0.0...HEAD"} },
			wantCode: ExitInvalidArguments,
			wantCat:  clierrors.Argument,
		},
		"prepend without range": {
			args:     func(t *testing.T, repo string) []string { return []string{"--prepend", "CHANGELOG.md"} },
			wantCode: ExitInvalidArguments,
			wantCat:  clierrors.Argument,
		},
		"prepend with output": {
			args: func(t *testing.T, repo string) []string {
				return []string{"--latest", "--prepend", "CHANGELOG.md", "--output", "out.md"}
			},
			wantCode: ExitInvalidArguments,
			wantCat:  clierrors.Argument,
		},
		"invalid strip": {
			args:     func(t *testing.T, repo string) []string { return []string{"--strip", "middle"} },
			wantCode: ExitInvalidArguments,
			wantCat:  clierrors.Argument,
		},
		"invalid sort": {
			args:     func(t *testing.T, repo string) []string { return []string{"--sort", "random"} },
			wantCode: ExitInvalidArguments,
			wantCat:  clierrors.Argument,
		},
		"missing config": {
			args: func(t *testing.T, repo string) []string {
				return []string{"--config", filepath.Join(t.TempDir(), "missing.toml"), "--repository", repo}
			},
			wantCode: ExitInvalidArguments,
			wantCat:  clierrors.Configuration,
		},
		"not a repository": {
			args: func(t *testing.T, repo string) []string {
				return []string{"--config", configFile(t), "--repository", t.TempDir()}
			},
			wantCode: ExitMissingDependencies,
			wantCat:  clierrors.Prerequisite,
		},
		"unknown reference": {
			args: func(t *testing.T, repo string) []string {
				return []string{"--config", configFile(t), "--repository", repo, "v9.9.9..HEAD"}
			},
			wantCode: ExitInvalidArguments,
			wantCat:  clierrors.Configuration,
		},
		"broken body template": {
			args: func(t *testing.T, repo string) []string {
				return []string{"--config", configFile(t), "--repository", repo, "--body", "{{ .Version"}
			},
			wantCode: ExitFailure,
			wantCat:  clierrors.Render,
		},
		"missing template field": {
			args: func(t *testing.T, repo string) []string {
				return []string{"--config", configFile(t), "--repository", repo, "--body", "{{ .Nope }}"}
			},
			wantCode: ExitFailure,
			wantCat:  clierrors.Render,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			repo := taggedRepo(t)

			stdout, stderr, err := run(t, tt.args(t, repo.Dir)...)

			require.Error(t, err)
			assert.Empty(t, stdout)
			assert.Equal(t, tt.wantCode, ExitCode(err))
			cliErr := clierrors.AsCLIError(err)
			require.NotNil(t, cliErr)
			assert.Equal(t, tt.wantCat, cliErr.Category)
			assert.Contains(t, stderr, tt.wantCat.String())
		})
	}
}

func TestGenerate_CurrentWithoutTag(t *testing.T) {
	repo := testutil.NewGitRepo(t)
	repo.Commit("feat: first", nil)

	_, stderr, err := run(t, "--config", configFile(t), "--repository", repo.Dir, "--current")

	require.Error(t, err)
	assert.Equal(t, ExitMissingDependencies, ExitCode(err))
	assert.Contains(t, stderr, "git tag v0.1.0")
}

func TestClassifyError_Runtime(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk full")
	err := classifyError(cause)

	cliErr := clierrors.AsCLIError(err)
	require.NotNil(t, cliErr)
	assert.Equal(t, clierrors.Runtime, cliErr.Category)
	assert.Equal(t, "disk full", cliErr.Message)
	assert.NotEmpty(t, cliErr.Remediation)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ExitFailure, ExitCode(err))
}
