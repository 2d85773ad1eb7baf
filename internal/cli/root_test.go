// Package cli tests root command structure and global flags for pretty-changelog.
// Related: internal/cli/root.go
// Tags: cli, root, commands, global-flags

package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chachako/pretty-changelog/internal/config"
	"github.com/chachako/pretty-changelog/internal/testutil"
)

// run executes a fresh command tree and returns its stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := execute(context.Background(), cmd)
	return stdout.String(), stderr.String(), err
}

// configFile writes the default configuration to a temp file.
func configFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cliff.toml")
	require.NoError(t, os.WriteFile(path, config.DefaultConfig(), 0o644))
	return path
}

// taggedRepo creates v1.0.0 and v1.1.0 releases.
func taggedRepo(t *testing.T) *testutil.GitRepo {
	t.Helper()
	r := testutil.NewGitRepo(t)
	r.Commit("feat: add parser", nil)
	r.Tag("v1.0.0", r.Commit("fix: handle empty input", nil))
	r.AnnotatedTag("v1.1.0", r.Commit("feat(cli): add --latest flag", nil), "v1.1.0")
	return r
}

func TestRootCmd_Structure(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "pretty-changelog", rootCmd.Name())
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.NotEmpty(t, rootCmd.Example)
	assert.True(t, rootCmd.SilenceUsage)
	assert.True(t, rootCmd.SilenceErrors)
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		flagName  string
		shorthand string
	}{
		"config flag exists":     {flagName: "config", shorthand: "c"},
		"workdir flag exists":    {flagName: "workdir", shorthand: "w"},
		"repository flag exists": {flagName: "repository", shorthand: "r"},
		"verbose flag exists":    {flagName: "verbose", shorthand: "v"},
		"debug flag exists":      {flagName: "debug"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			flag := rootCmd.PersistentFlags().Lookup(tt.flagName)
			require.NotNil(t, flag, "Flag %s should exist", tt.flagName)
			assert.Equal(t, tt.shorthand, flag.Shorthand)
		})
	}
}

func TestRootCmd_GenerateFlags(t *testing.T) {
	t.Parallel()

	flags := []string{
		"output", "prepend", "context", "unreleased", "latest", "current", "tag",
		"body", "strip", "date-order", "sort", "with-commit", "include-path",
		"exclude-path", "github-token", "github-repo", "no-enrich",
	}
	for _, name := range flags {
		assert.NotNil(t, rootCmd.Flags().Lookup(name), "Flag %s should exist", name)
	}
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	t.Parallel()

	names := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{"init", "check", "version"} {
		assert.True(t, names[want], "Root command should have %s", want)
	}
}

func TestRootCmd_CanShowHelp(t *testing.T) {
	stdout, _, err := run(t, "--help")

	require.NoError(t, err)
	assert.Contains(t, stdout, "Generate a changelog from conventional commits")
	assert.Contains(t, stdout, "--unreleased")
}

func TestExecute_UnknownFlag(t *testing.T) {
	_, stderr, err := run(t, "--no-such-flag")

	require.Error(t, err)
	assert.Equal(t, ExitInvalidArguments, ExitCode(err))
	assert.Contains(t, stderr, "unknown flag")
}
