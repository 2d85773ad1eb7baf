// Package cli tests the init command.
// Related: internal/cli/init.go
// Tags: cli, init, config

package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chachako/pretty-changelog/internal/config"
)

func TestInit(t *testing.T) {
	tests := map[string]struct {
		existing string
		args     func(dir string) []string
		wantFile string
		wantErr  bool
		wantOut  string
	}{
		"default path in workdir": {
			args:     func(dir string) []string { return []string{"init", "--workdir", dir} },
			wantFile: "cliff.toml",
			wantOut:  "✓ Created",
		},
		"explicit path": {
			args:     func(dir string) []string { return []string{"init", filepath.Join(dir, "conf", "changelog.toml")} },
			wantFile: filepath.Join("conf", "changelog.toml"),
		},
		"existing file is kept": {
			existing: "custom",
			args:     func(dir string) []string { return []string{"init", "--workdir", dir} },
			wantErr:  true,
		},
		"force overwrites": {
			existing: "custom",
			args:     func(dir string) []string { return []string{"init", "--workdir", dir, "--force"} },
			wantFile: "cliff.toml",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.existing != "" {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "cliff.toml"), []byte(tt.existing), 0o644))
			}

			stdout, _, err := run(t, tt.args(dir)...)

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, ExitInvalidArguments, ExitCode(err))
				data, readErr := os.ReadFile(filepath.Join(dir, "cliff.toml"))
				require.NoError(t, readErr)
				assert.Equal(t, tt.existing, string(data))
				return
			}
			require.NoError(t, err)
			assert.Contains(t, stdout, tt.wantOut)
			data, err := os.ReadFile(filepath.Join(dir, tt.wantFile))
			require.NoError(t, err)
			assert.Equal(t, config.DefaultConfig(), data)
		})
	}
}

func TestInit_Stdout(t *testing.T) {
	stdout, _, err := run(t, "init", "-")

	require.NoError(t, err)
	assert.Equal(t, string(config.DefaultConfig()), stdout)
}

func TestInit_WrittenConfigLoads(t *testing.T) {
	dir := t.TempDir()
	_, _, err := run(t, "init", "--workdir", dir)
	require.NoError(t, err)

	cfg, err := config.LoadWithOptions(config.LoadOptions{WorkDir: dir, SkipWarnings: true})
	require.NoError(t, err)
	assert.Equal(t, config.SourceProject, cfg.Source)
}
