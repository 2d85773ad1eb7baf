package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chachako/pretty-changelog/internal/build"
)

// SourceURL is the project source URL
const SourceURL = "https://github.com/chachako/pretty-changelog"

func newVersionCmd() *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  "Display version, commit, build date, and Go version information for pretty-changelog",
		Example: `  # Show version info
  pretty-changelog version

  # Plain output (for scripts)
  pretty-changelog version --plain`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if plain {
				printPlainVersion(cmd.OutOrStdout())
			} else {
				printPrettyVersion(cmd.OutOrStdout())
			}
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "Plain output without formatting")
	return cmd
}

// printPlainVersion prints a simple version output for scripting
func printPlainVersion(w io.Writer) {
	fmt.Fprintf(w, "pretty-changelog %s\n", build.Version)
	fmt.Fprintf(w, "commit: %s\n", build.Commit)
	fmt.Fprintf(w, "built: %s\n", build.BuildDate)
	fmt.Fprintf(w, "go: %s\n", runtime.Version())
	fmt.Fprintf(w, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

func printPrettyVersion(w io.Writer) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	white := color.New(color.FgWhite, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	if build.IsDevBuild() {
		fmt.Fprintf(w, "%s %s %s\n", cyan("pretty-changelog"), white(build.Version), dim("(development build)"))
	} else {
		fmt.Fprintf(w, "%s %s\n", cyan("pretty-changelog"), white(build.Version))
	}
	fmt.Fprintln(w, dim(SourceURL))
	fmt.Fprintln(w)

	info := []struct {
		label string
		value string
	}{
		{"Commit", truncateCommit(build.Commit)},
		{"Built", build.BuildDate},
		{"Go", runtime.Version()},
		{"Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)},
	}
	for _, item := range info {
		fmt.Fprintf(w, "  %s  %s\n", yellow(fmt.Sprintf("%-8s", item.label)), item.value)
	}
}

// truncateCommit shortens commit hash if it's too long
func truncateCommit(commit string) string {
	if len(commit) > 8 {
		return commit[:8]
	}
	return commit
}
