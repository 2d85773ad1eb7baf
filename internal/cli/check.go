package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	clierrors "github.com/chachako/pretty-changelog/internal/errors"
)

// diffContext is the number of unchanged lines shown around a change.
const diffContext = 3

func newCheckCmd(opts *options) *cobra.Command {
	var rangeArg string

	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Verify a changelog file matches the generated output",
		Long: `Verify that a changelog file (default: CHANGELOG.md in the working directory)
is identical to what pretty-changelog would generate now.

Returns exit code 0 if in sync. Otherwise prints a line diff and returns
exit code 2, which makes the command usable as a CI gate.`,
		Example: `  pretty-changelog check
  pretty-changelog check docs/CHANGES.md --range v1.0.0..`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(opts.workDir(), "CHANGELOG.md")
			if len(args) > 0 {
				path = args[0]
			}
			var rangeArgs []string
			if rangeArg != "" {
				rangeArgs = []string{rangeArg}
			}
			return runCheck(cmd, opts, path, rangeArgs)
		},
	}

	addGenerateFlags(cmd, opts)
	cmd.Flags().StringVar(&rangeArg, "range", "", "Commit range to generate, as for the root command")
	return cmd
}

func runCheck(cmd *cobra.Command, opts *options, path string, args []string) error {
	if err := opts.validate(args); err != nil {
		return err
	}

	actual, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return clierrors.NewPrerequisiteError(
				fmt.Sprintf("cannot find %s", path),
				"Generate it with: pretty-changelog -o "+path,
			)
		}
		return clierrors.Wrap(err, clierrors.Prerequisite)
	}

	g, err := opts.generator(cmd)
	if err != nil {
		return err
	}
	expected, err := g.Generate(cmd.Context(), opts.generateOptions(args))
	if err != nil {
		return classifyError(err)
	}

	out := cmd.OutOrStdout()
	if bytes.Equal(expected, actual) {
		fmt.Fprintf(out, "✓ %s is up to date\n", path)
		return nil
	}

	fmt.Fprintf(out, "✗ %s is out of date\n\n", path)
	writeLineDiff(out, string(actual), string(expected))
	fmt.Fprintf(out, "\nTo fix, run:\n  pretty-changelog -o %s\n", path)
	return NewExitError(ExitOutOfSync)
}

// writeLineDiff prints the line changes turning from into to, with a few
// lines of unchanged context around each change.
func writeLineDiff(w io.Writer, from, to string) {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(from, to)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	removed := color.New(color.FgRed).SprintFunc()
	added := color.New(color.FgGreen).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	for i, d := range diffs {
		text := splitLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			for _, l := range text {
				fmt.Fprintln(w, removed("-"+l))
			}
		case diffmatchpatch.DiffInsert:
			for _, l := range text {
				fmt.Fprintln(w, added("+"+l))
			}
		case diffmatchpatch.DiffEqual:
			for _, l := range contextLines(text, i > 0, i < len(diffs)-1) {
				if l == nil {
					fmt.Fprintln(w, faint("..."))
					continue
				}
				fmt.Fprintln(w, " "+*l)
			}
		}
	}
}

// contextLines keeps the lines of an unchanged run that border a change.
// A nil entry marks skipped lines.
func contextLines(lines []string, afterChange, beforeChange bool) []*string {
	keep := make([]bool, len(lines))
	for i := range lines {
		if afterChange && i < diffContext {
			keep[i] = true
		}
		if beforeChange && i >= len(lines)-diffContext {
			keep[i] = true
		}
	}

	var out []*string
	skipped := false
	for i := range lines {
		if !keep[i] {
			if !skipped {
				out = append(out, nil)
				skipped = true
			}
			continue
		}
		skipped = false
		out = append(out, &lines[i])
	}
	return out
}

func splitLines(s string) []string {
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
