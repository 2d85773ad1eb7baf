package errors

import "fmt"

// Common error messages for the pretty-changelog CLI.

// NotARepository creates an error when no git repository is found at path.
func NotARepository(path string, err error) *CLIError {
	return WrapWithMessage(err, Prerequisite,
		fmt.Sprintf("no git repository found at %s", path),
		"Run the command inside a git working tree",
		"Or point at one with: pretty-changelog --repository <path>",
	)
}

// ConfigNotFound creates an error for an explicitly requested config file that does not exist.
func ConfigNotFound(path string) *CLIError {
	return NewConfigError(
		fmt.Sprintf("config file not found: %s", path),
		"Check the path passed to --config",
		"Create a default config with: pretty-changelog init",
	)
}

// InvalidConfig wraps a config loading or validation failure.
func InvalidConfig(err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		"invalid configuration",
		"Fix the reported field in your config file",
		"Compare with the default config: pretty-changelog init -",
	)
}

// UnresolvedReference wraps a reference that does not exist in the repository.
func UnresolvedReference(err error) *CLIError {
	return Wrap(err, Configuration,
		"List available tags with: git tag --list",
		"Check the commit range argument (e.g. v1.0.0..HEAD)",
	)
}

// InvalidRange creates an error for a malformed commit range argument.
func InvalidRange(provided string) *CLIError {
	return NewArgumentErrorWithUsage(
		fmt.Sprintf("invalid commit range: %q", provided),
		"pretty-changelog [<from>..<to>]",
		"Separate the two references with '..'",
		"Pass a single reference to include all of its history: v1.0.0",
	)
}

// ConflictingFlags creates an error for mutually exclusive flags.
func ConflictingFlags(a, b string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("--%s cannot be used together with --%s", a, b),
		fmt.Sprintf("Remove either --%s or --%s", a, b),
	)
}

// PrependWithoutRange creates an error for --prepend used without a bounded range.
func PrependWithoutRange() *CLIError {
	return NewArgumentErrorWithUsage(
		"--prepend requires --unreleased, --latest, or a commit range",
		"pretty-changelog --unreleased --prepend CHANGELOG.md",
		"Prepending the full history would duplicate existing entries",
	)
}

// TemplateFailed wraps a template parse or execution failure.
func TemplateFailed(err error) *CLIError {
	return Wrap(err, Render,
		"Check the [changelog] templates in your config",
		"Dump the template context with: pretty-changelog --context",
	)
}

// OutputFailed wraps a failure to write the changelog.
func OutputFailed(path string, err error) *CLIError {
	return WrapWithMessage(err, Runtime,
		fmt.Sprintf("failed to write %s", path),
		"Check that the directory exists and is writable",
	)
}
