// Package config loads the pretty-changelog configuration using koanf.
//
// Layers, lowest priority first: built-in defaults, then one config file
// (--config, ./cliff.toml, or the user config file; the embedded default
// config when none exists), then PRETTY_CHANGELOG_* environment variables.
// The loaded configuration is validated and its patterns compiled into the
// rule sets consumed by the commit, history and release packages.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes environment overrides. "__" separates nesting levels:
// PRETTY_CHANGELOG_GIT__DATE_ORDER=true sets git.date_order.
const EnvPrefix = "PRETTY_CHANGELOG_"

// ConfigSource tracks where the configuration file came from.
type ConfigSource string

const (
	SourceExplicit ConfigSource = "explicit"
	SourceProject  ConfigSource = "project"
	SourceUser     ConfigSource = "user"
	SourceEmbedded ConfigSource = "embedded"
)

// Configuration mirrors cliff.toml.
type Configuration struct {
	Changelog ChangelogConfig `koanf:"changelog"`
	Git       GitConfig       `koanf:"git"`
	Release   ReleaseConfig   `koanf:"release"`
	GitHub    GitHubConfig    `koanf:"github"`

	// Path is the loaded config file, empty for the embedded default.
	Path   string       `koanf:"-"`
	Source ConfigSource `koanf:"-"`

	rules *RuleSet
}

// ChangelogConfig holds the templates.
type ChangelogConfig struct {
	Header string `koanf:"header"`
	Body   string `koanf:"body"`
	Footer string `koanf:"footer"`
	// Trim strips surrounding whitespace from every rendered part.
	Trim bool `koanf:"trim"`
}

// GitConfig controls commit parsing, classification and the walk.
type GitConfig struct {
	ConventionalCommits    bool                 `koanf:"conventional_commits"`
	FilterUnconventional   bool                 `koanf:"filter_unconventional"`
	FilterCommits          bool                 `koanf:"filter_commits"`
	ProtectBreakingCommits bool                 `koanf:"protect_breaking_commits"`
	CommitPreprocessors    []PreprocessorConfig `koanf:"commit_preprocessors" validate:"dive"`
	CommitParsers          []CommitParserConfig `koanf:"commit_parsers" validate:"dive"`
	LinkParsers            []LinkParserConfig   `koanf:"link_parsers" validate:"dive"`
	TagPattern             string               `koanf:"tag_pattern"`
	SkipTags               string               `koanf:"skip_tags"`
	IgnoreTags             string               `koanf:"ignore_tags"`
	DateOrder              bool                 `koanf:"date_order"`
	SortCommits            string               `koanf:"sort_commits" validate:"omitempty,oneof=newest oldest"`
	LimitCommits           int                  `koanf:"limit_commits" validate:"min=0"`
	DefaultGroup           string               `koanf:"default_group"`
}

// PreprocessorConfig is one commit_preprocessors entry.
type PreprocessorConfig struct {
	Pattern string `koanf:"pattern" validate:"required"`
	Replace string `koanf:"replace"`
}

// CommitParserConfig is one commit_parsers entry.
type CommitParserConfig struct {
	Message      string `koanf:"message" validate:"required_without=Body"`
	Body         string `koanf:"body"`
	Group        string `koanf:"group"`
	Scope        string `koanf:"scope"`
	DefaultScope string `koanf:"default_scope"`
	Skip         bool   `koanf:"skip"`
}

// LinkParserConfig is one link_parsers entry.
type LinkParserConfig struct {
	Pattern string `koanf:"pattern" validate:"required"`
	Href    string `koanf:"href" validate:"required"`
	Text    string `koanf:"text"`
}

// ReleaseConfig controls release assembly.
type ReleaseConfig struct {
	OmitEmpty     bool     `koanf:"omit_empty"`
	LinkOmitted   bool     `koanf:"link_omitted"`
	BreakingGroup string   `koanf:"breaking_group"`
	GroupOrder    []string `koanf:"group_order"`
	IncludeGroups []string `koanf:"include_groups"`
	ExcludeGroups []string `koanf:"exclude_groups"`
}

// GitHubConfig controls remote enrichment.
type GitHubConfig struct {
	// Repo is "owner/name". Empty means detect from the origin remote.
	Repo           string        `koanf:"repo" validate:"omitempty,contains=/"`
	Token          string        `koanf:"token"`
	ResolveAuthors bool          `koanf:"resolve_authors"`
	APIURL         string        `koanf:"api_url" validate:"omitempty,url"`
	Timeout        time.Duration `koanf:"timeout" validate:"min=0"`
	Concurrency    int           `koanf:"concurrency" validate:"min=1,max=64"`
}

// LoadOptions configures how configuration is loaded.
type LoadOptions struct {
	// Path is an explicit config file. It must exist.
	Path string
	// WorkDir is searched for cliff.toml. Defaults to the current directory.
	WorkDir string
	// WarningWriter receives warnings (default: os.Stderr).
	WarningWriter io.Writer
	// SkipWarnings suppresses warnings.
	SkipWarnings bool
}

// Load loads configuration, using path when non-empty.
func Load(path string) (*Configuration, error) {
	return LoadWithOptions(LoadOptions{Path: path})
}

// LoadWithOptions loads configuration with custom options.
func LoadWithOptions(opts LoadOptions) (*Configuration, error) {
	k := koanf.New(".")
	warningWriter := getWarningWriter(opts.WarningWriter)

	loadDefaults(k)

	path, source, err := locateConfig(opts)
	if err != nil {
		return nil, err
	}
	if source == SourceEmbedded {
		if !opts.SkipWarnings {
			fmt.Fprintf(warningWriter, "Warning: no %s found, using the built-in default configuration\n", DefaultConfigName)
			fmt.Fprintf(warningWriter, "  Run 'pretty-changelog init' to create one.\n\n")
		}
		if err := loadEmbeddedConfig(k); err != nil {
			return nil, err
		}
	} else if err := loadConfigFile(k, path); err != nil {
		return nil, err
	}

	if err := loadEnvironmentConfig(k); err != nil {
		return nil, err
	}

	cfg, err := finalizeConfig(k, path)
	if err != nil {
		return nil, err
	}
	cfg.Path, cfg.Source = path, source
	return cfg, nil
}

// getWarningWriter returns the warning writer or defaults to stderr
func getWarningWriter(w io.Writer) io.Writer {
	if w == nil {
		return os.Stderr
	}
	return w
}

// loadDefaults applies default configuration values
func loadDefaults(k *koanf.Koanf) {
	for key, value := range GetDefaults() {
		k.Set(key, value)
	}
}

// locateConfig picks the config file: explicit path, project file, user
// file, else the embedded default.
func locateConfig(opts LoadOptions) (string, ConfigSource, error) {
	if opts.Path != "" {
		if !fileExists(opts.Path) {
			return "", "", &NotFoundError{Path: opts.Path}
		}
		return opts.Path, SourceExplicit, nil
	}
	if p := ProjectConfigPath(opts.WorkDir); fileExists(p) {
		return p, SourceProject, nil
	}
	if p, err := UserConfigPath(); err == nil && fileExists(p) {
		return p, SourceUser, nil
	}
	return "", SourceEmbedded, nil
}

// loadConfigFile validates and loads a config file with the parser its
// extension selects.
func loadConfigFile(k *koanf.Koanf, path string) error {
	parser := parserFor(path)
	if _, isYAML := parser.(*yaml.YAML); isYAML {
		if err := ValidateYAMLSyntax(path); err != nil {
			return fmt.Errorf("validating YAML syntax: %w", err)
		}
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return &ValidationError{FilePath: path, Message: err.Error()}
	}
	return nil
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return yaml.Parser()
	case ".json":
		return json.Parser()
	default:
		return toml.Parser()
	}
}

func loadEmbeddedConfig(k *koanf.Koanf) error {
	if err := k.Load(rawbytes.Provider(DefaultConfig()), toml.Parser()); err != nil {
		return fmt.Errorf("loading embedded config: %w", err)
	}
	return nil
}

// loadEnvironmentConfig loads environment variable overrides
func loadEnvironmentConfig(k *koanf.Koanf) error {
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return fmt.Errorf("failed to load environment config: %w", err)
	}
	return nil
}

// finalizeConfig unmarshals, validates, and compiles the rule sets
func finalizeConfig(k *koanf.Koanf, path string) (*Configuration, error) {
	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if path == "" {
		path = DefaultConfigName + " (built-in)"
	}

	if err := ValidateConfigValues(&cfg, path); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if strings.TrimSpace(cfg.Changelog.Body) == "" {
		cfg.Changelog.Body = DefaultBody()
	}

	rules, err := compile(&cfg, path)
	if err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	cfg.rules = rules
	return &cfg, nil
}

// Rules returns the compiled rule sets.
func (c *Configuration) Rules() *RuleSet {
	return c.rules
}

// fileExists returns true if the file exists and is readable
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// envTransform converts environment variable names to config keys
// Example: PRETTY_CHANGELOG_GIT__SORT_COMMITS -> git.sort_commits
func envTransform(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// NotFoundError reports an explicitly requested config file that is missing.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("config file not found: %s", e.Path)
}
