package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/chachako/pretty-changelog/internal/changelog"
	"github.com/chachako/pretty-changelog/internal/config"
	clierrors "github.com/chachako/pretty-changelog/internal/errors"
	"github.com/chachako/pretty-changelog/internal/git"
	"github.com/chachako/pretty-changelog/internal/github"
	"github.com/chachako/pretty-changelog/internal/history"
	"github.com/chachako/pretty-changelog/internal/logging"
	"github.com/chachako/pretty-changelog/internal/progress"
	"github.com/chachako/pretty-changelog/internal/release"
	"github.com/chachako/pretty-changelog/internal/template"
)

func runGenerate(cmd *cobra.Command, opts *options, args []string) error {
	if err := opts.validate(args); err != nil {
		return err
	}
	if opts.prepend != "" && opts.context {
		return clierrors.ConflictingFlags("prepend", "context")
	}
	if opts.prepend != "" && opts.output != "" {
		return clierrors.ConflictingFlags("prepend", "output")
	}
	if opts.prepend != "" && !opts.bounded(args) {
		return clierrors.PrependWithoutRange()
	}

	g, err := opts.generator(cmd)
	if err != nil {
		return err
	}
	genOpts := opts.generateOptions(args)
	ctx := cmd.Context()

	var out []byte
	switch {
	case opts.context:
		out, err = g.Context(ctx, genOpts)
	case opts.prepend != "":
		existing, readErr := os.ReadFile(opts.prepend)
		if readErr != nil && !errors.Is(readErr, os.ErrNotExist) {
			return clierrors.Wrap(readErr, clierrors.Prerequisite)
		}
		out, err = g.Prepend(ctx, genOpts, existing)
	default:
		out, err = g.Generate(ctx, genOpts)
	}
	if err != nil {
		return classifyError(err)
	}

	if opts.prepend != "" {
		if err := changelog.WriteFile(opts.prepend, out); err != nil {
			return clierrors.OutputFailed(opts.prepend, err)
		}
		logging.Info("prepended changelog", "path", opts.prepend)
		return nil
	}
	return writeOutput(cmd, opts.output, out)
}

// writeOutput writes to path, or to stdout when path is empty or "-".
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" || path == "-" {
		if _, err := cmd.OutOrStdout().Write(data); err != nil {
			return clierrors.OutputFailed("stdout", err)
		}
		return nil
	}
	if err := changelog.WriteFile(path, data); err != nil {
		return clierrors.OutputFailed(path, err)
	}
	logging.Info("wrote changelog", "path", path)
	return nil
}

// validate checks flag combinations shared by the generating commands.
func (o *options) validate(args []string) error {
	selectors := []struct {
		name string
		set  bool
	}{
		{"unreleased", o.unreleased},
		{"latest", o.latest},
		{"current", o.current},
	}
	var chosen string
	for _, s := range selectors {
		if !s.set {
			continue
		}
		if chosen != "" {
			return clierrors.ConflictingFlags(chosen, s.name)
		}
		chosen = s.name
	}
	if len(args) > 0 {
		if chosen != "" {
			return clierrors.NewArgumentErrorWithUsage(
				"a commit range cannot be combined with --"+chosen,
				"pretty-changelog [<from>..<to>]",
				"Remove either the range or --"+chosen,
			)
		}
		if err := changelog.ValidateRange(args[0]); err != nil {
			return clierrors.InvalidRange(args[0])
		}
	}
	switch o.strip {
	case "", changelog.StripHeader, changelog.StripFooter, changelog.StripAll:
	default:
		return clierrors.NewArgumentError("invalid --strip value: "+o.strip,
			"Use one of: header, footer, all")
	}
	switch release.Sort(o.sort) {
	case "", release.SortNewest, release.SortOldest:
	default:
		return clierrors.NewArgumentError("invalid --sort value: "+o.sort,
			"Use one of: newest, oldest")
	}
	return nil
}

// bounded reports whether the selected range excludes older releases.
func (o *options) bounded(args []string) bool {
	return o.unreleased || o.latest || o.current || len(args) > 0
}

func (o *options) generateOptions(args []string) changelog.Options {
	opts := changelog.Options{
		Unreleased:  o.unreleased,
		Latest:      o.latest,
		Current:     o.current,
		Tag:         o.tag,
		WithCommits: o.withCommits,
		Paths:       history.PathFilter{Include: o.include, Exclude: o.exclude},
		DateOrder:   o.dateOrder,
		Sort:        release.Sort(o.sort),
	}
	if len(args) > 0 {
		opts.Range = args[0]
	}
	return opts
}

func (o *options) workDir() string {
	if o.workdir != "" {
		return o.workdir
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// loadConfig loads the configuration and applies the --body override.
func (o *options) loadConfig(cmd *cobra.Command) (*config.Configuration, error) {
	cfg, err := config.LoadWithOptions(config.LoadOptions{
		Path:          o.configPath,
		WorkDir:       o.workDir(),
		WarningWriter: cmd.ErrOrStderr(),
	})
	if err != nil {
		var notFound *config.NotFoundError
		if errors.As(err, &notFound) {
			return nil, clierrors.ConfigNotFound(notFound.Path)
		}
		return nil, clierrors.InvalidConfig(err)
	}
	if o.body != "" {
		cfg.Changelog.Body = o.body
	}
	logging.Debug("loaded config", "source", cfg.Source, "path", cfg.Path)
	return cfg, nil
}

// generator wires the config, repository, renderer and optional GitHub
// enrichment into a changelog.Generator.
func (o *options) generator(cmd *cobra.Command) (*changelog.Generator, error) {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	repoPath := o.repository
	if repoPath == "" {
		repoPath = o.workDir()
	}
	repo, err := git.Open(repoPath)
	if err != nil {
		return nil, clierrors.NotARepository(repoPath, err)
	}

	rules := cfg.Rules()
	renderer, err := changelog.NewRenderer(changelog.RendererOptions{
		Header: cfg.Changelog.Header,
		Body:   cfg.Changelog.Body,
		Footer: cfg.Changelog.Footer,
		Trim:   cfg.Changelog.Trim,
		Strip:  o.strip,
		Links:  rules.Links,
	})
	if err != nil {
		return nil, classifyError(err)
	}

	g := changelog.NewGenerator(repo, rules, renderer)

	slug, err := o.slug(cfg, repo)
	if err != nil {
		return nil, err
	}
	if !slug.IsZero() {
		g.Repository = changelog.Repository{Owner: slug.Owner, Name: slug.Name, URL: slug.URL()}
		g.Enricher, g.EnrichTimeout = o.enricher(cfg, slug, repo.Root())
	}

	if !o.verbose && !o.debug {
		g.Spinner = progress.NewSpinner(cmd.ErrOrStderr(), progress.DetectTerminalCapabilities(os.Stderr))
	}
	return g, nil
}

// slug picks the GitHub repository: --github-repo, then github.repo, then
// the origin remote.
func (o *options) slug(cfg *config.Configuration, repo *git.Repository) (github.Slug, error) {
	for _, s := range []string{o.githubRepo, cfg.GitHub.Repo} {
		if s == "" {
			continue
		}
		slug, err := github.ParseSlug(s)
		if err != nil {
			return github.Slug{}, clierrors.NewArgumentError(err.Error(), "Use the owner/name form, e.g. octocat/hello-world")
		}
		return slug, nil
	}
	slug, _ := github.SlugFromRemote(repo.RemoteURL("origin"))
	return slug, nil
}

// enricher returns nil unless enrichment is enabled and a token is
// available. Unauthenticated requests exhaust the rate limit within one run.
func (o *options) enricher(cfg *config.Configuration, slug github.Slug, root string) (changelog.Enricher, time.Duration) {
	if o.noEnrich {
		return nil, 0
	}
	explicit := o.githubToken
	if explicit == "" {
		explicit = cfg.GitHub.Token
	}
	token := github.ResolveToken(explicit, root)
	if token == "" {
		logging.Debug("no GitHub token, skipping enrichment", "repo", slug.String())
		return nil, 0
	}
	client := github.NewClient(slug, github.ClientOptions{
		BaseURL:    cfg.GitHub.APIURL,
		Token:      token,
		HTTPClient: &http.Client{Timeout: cfg.GitHub.Timeout},
	})
	return github.NewEnricher(client, cfg.GitHub.Concurrency, cfg.GitHub.ResolveAuthors), cfg.GitHub.Timeout
}

// classifyError maps pipeline errors to CLI errors.
func classifyError(err error) error {
	if clierrors.IsCLIError(err) {
		return err
	}
	var (
		refErr    *history.ReferenceError
		renderErr *template.RenderError
		cfgErr    *config.ValidationError
	)
	switch {
	case errors.As(err, &refErr):
		return clierrors.UnresolvedReference(err)
	case errors.As(err, &renderErr):
		return clierrors.TemplateFailed(err)
	case errors.As(err, &cfgErr):
		return clierrors.InvalidConfig(err)
	case errors.Is(err, changelog.ErrNoTag):
		return clierrors.Wrap(err, clierrors.Prerequisite,
			"Create a release tag first: git tag v0.1.0",
			"Or render the untagged commits with: pretty-changelog --unreleased",
		)
	case errors.Is(err, context.Canceled):
		return clierrors.WrapWithMessage(err, clierrors.Runtime, "generation interrupted")
	default:
		rt := clierrors.NewRuntimeError(err.Error(), "Re-run with --debug to see the git and GitHub calls")
		rt.Cause = err
		return rt
	}
}
