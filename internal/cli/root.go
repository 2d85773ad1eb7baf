// Package cli implements the pretty-changelog command line.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	clierrors "github.com/chachako/pretty-changelog/internal/errors"
	"github.com/chachako/pretty-changelog/internal/git"
	"github.com/chachako/pretty-changelog/internal/logging"
)

// options holds every flag value for one command tree.
type options struct {
	configPath string
	workdir    string
	repository string
	verbose    bool
	debug      bool

	output      string
	prepend     string
	tag         string
	body        string
	strip       string
	unreleased  bool
	latest      bool
	current     bool
	dateOrder   bool
	sort        string
	context     bool
	withCommits []string
	include     []string
	exclude     []string
	githubToken string
	githubRepo  string
	noEnrich    bool
}

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "pretty-changelog [range]",
		Short: "Generate a changelog from conventional commits",
		Long: `pretty-changelog walks the git history, groups commits into releases by tag,
classifies them with the rules in cliff.toml and renders a Markdown changelog.

The optional range is "<from>..<to>", "<from>.." or a single reference that
includes all of its history. Without a range the whole history is rendered.`,
		Example: `  # Render the full changelog to stdout
  pretty-changelog

  # Only the commits since the last tag, prepended to an existing file
  pretty-changelog --unreleased --prepend CHANGELOG.md

  # Name the unreleased commits as the upcoming release
  pretty-changelog --tag v1.2.0 -o CHANGELOG.md

  # Dump the template context as JSON
  pretty-changelog --latest --context`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(opts, cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts, args)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "Path to the config file (default: ./cliff.toml, then the user config)")
	pf.StringVarP(&opts.workdir, "workdir", "w", "", "Working directory (default: current directory)")
	pf.StringVarP(&opts.repository, "repository", "r", "", "Path to the git repository (default: the working directory)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Log progress at info level")
	pf.BoolVar(&opts.debug, "debug", false, "Log debug output, including git and GitHub calls")

	addGenerateFlags(cmd, opts)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the changelog to a file instead of stdout")
	cmd.Flags().StringVarP(&opts.prepend, "prepend", "p", "", "Prepend the new releases to an existing changelog file")
	cmd.Flags().BoolVarP(&opts.context, "context", "x", false, "Print the template context as JSON instead of rendering")

	cmd.AddCommand(newInitCmd(opts))
	cmd.AddCommand(newCheckCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// addGenerateFlags registers the flags that select and shape the releases.
func addGenerateFlags(cmd *cobra.Command, opts *options) {
	f := cmd.Flags()
	f.BoolVarP(&opts.unreleased, "unreleased", "u", false, "Only the commits after the last tag reachable from HEAD")
	f.BoolVarP(&opts.latest, "latest", "l", false, "Only the commits of the newest tag")
	f.BoolVar(&opts.current, "current", false, "Only the commits of the newest tag reachable from HEAD")
	f.StringVarP(&opts.tag, "tag", "t", "", "Name the untagged commits at HEAD as this release")
	f.StringVarP(&opts.body, "body", "b", "", "Override the body template")
	f.StringVarP(&opts.strip, "strip", "s", "", "Strip rendered parts: header, footer or all")
	f.BoolVar(&opts.dateOrder, "date-order", false, "Order tags by date instead of topology")
	f.StringVar(&opts.sort, "sort", "", "Commit order inside groups: newest or oldest")
	f.StringArrayVar(&opts.withCommits, "with-commit", nil, "Add a custom commit message to the newest release (repeatable)")
	f.StringArrayVar(&opts.include, "include-path", nil, "Only commits touching paths matching this pattern (repeatable)")
	f.StringArrayVar(&opts.exclude, "exclude-path", nil, "Skip commits touching only paths matching this pattern (repeatable)")
	f.StringVar(&opts.githubToken, "github-token", "", "GitHub token (default: $GITHUB_TOKEN or .env)")
	f.StringVar(&opts.githubRepo, "github-repo", "", "GitHub repository as owner/name (default: detected from origin)")
	f.BoolVar(&opts.noEnrich, "no-enrich", false, "Skip fetching usernames and pull requests from GitHub")
}

func configureLogging(opts *options, cmd *cobra.Command) {
	level := ""
	switch {
	case opts.debug:
		level = "debug"
	case opts.verbose:
		level = "info"
	}
	logging.Configure(level, cmd.ErrOrStderr())
	if opts.debug {
		git.SetDebugLogger(logging.Debugf)
	} else {
		git.SetDebugLogger(nil)
	}
}

// Execute runs the root command and reports any error on stderr.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return execute(ctx, rootCmd)
}

func execute(ctx context.Context, cmd *cobra.Command) error {
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	if _, reported := err.(*ExitError); reported {
		return err
	}
	// Anything unclassified here comes from cobra's argument parsing.
	cliErr := clierrors.AsCLIError(err)
	if cliErr == nil {
		cliErr = clierrors.Wrap(err, clierrors.Argument, "Run 'pretty-changelog --help' for usage")
	}
	clierrors.FprintError(cmd.ErrOrStderr(), cliErr)
	return cliErr
}
