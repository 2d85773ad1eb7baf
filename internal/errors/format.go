package errors

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// palette holds the styling used for one formatted error. The plain palette
// returns its input unchanged.
type palette struct {
	label, message, fix, usageLabel, usage, bullet, category func(a ...interface{}) string
}

var colored = palette{
	label:      color.New(color.FgRed, color.Bold).SprintFunc(),
	message:    color.New(color.FgRed).SprintFunc(),
	fix:        color.New(color.FgGreen, color.Bold).SprintFunc(),
	usageLabel: color.New(color.FgCyan, color.Bold).SprintFunc(),
	usage:      color.New(color.FgCyan).SprintFunc(),
	bullet:     color.New(color.FgGreen).SprintFunc(),
	category:   color.New(color.FgYellow).SprintFunc(),
}

var plain = palette{
	label: fmt.Sprint, message: fmt.Sprint, fix: fmt.Sprint, usageLabel: fmt.Sprint,
	usage: fmt.Sprint, bullet: fmt.Sprint, category: fmt.Sprint,
}

// FormatError formats a CLIError for display in the terminal.
// fatih/color disables itself when stdout is not a terminal or NO_COLOR is set.
func FormatError(err *CLIError) string {
	if err == nil {
		return ""
	}
	return formatError(err, colored)
}

// FormatErrorPlain formats a CLIError without colors.
func FormatErrorPlain(err *CLIError) string {
	if err == nil {
		return ""
	}
	return formatError(err, plain)
}

func formatError(err *CLIError, p palette) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s [%s]: %s\n", p.label("Error"), p.category(err.Category.String()), p.message(err.Message))

	if err.Usage != "" {
		fmt.Fprintf(&sb, "\n%s%s\n", p.usageLabel("Usage: "), p.usage(err.Usage))
	}

	if len(err.Remediation) > 0 {
		fmt.Fprintf(&sb, "\n%s\n", p.fix("To fix this:"))
		for _, step := range err.Remediation {
			fmt.Fprintf(&sb, "  %s %s\n", p.bullet("•"), step)
		}
	}

	return sb.String()
}

// FprintError prints a formatted CLIError to w. Colors are used only when
// w is a terminal and color output is enabled.
func FprintError(w io.Writer, err *CLIError) {
	if err == nil {
		return
	}
	if f, ok := w.(*os.File); ok && !color.NoColor && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(w, FormatError(err))
		return
	}
	fmt.Fprint(w, FormatErrorPlain(err))
}
