// Package progress shows a spinner on stderr while the changelog is being
// generated. It stays silent when stderr is not a terminal.
package progress

import (
	"os"

	"golang.org/x/term"
)

// TerminalCapabilities describes what the attached terminal supports.
type TerminalCapabilities struct {
	IsTTY           bool
	SupportsColor   bool
	SupportsUnicode bool
	Width           int
}

// DetectTerminalCapabilities inspects f and the NO_COLOR and
// PRETTY_CHANGELOG_ASCII environment variables.
func DetectTerminalCapabilities(f *os.File) TerminalCapabilities {
	fd := int(f.Fd())
	isTTY := term.IsTerminal(fd)

	noColor := os.Getenv("NO_COLOR") != ""
	forceASCII := os.Getenv("PRETTY_CHANGELOG_ASCII") == "1"

	width := 0
	if isTTY {
		if w, _, err := term.GetSize(fd); err == nil {
			width = w
		}
	}

	return TerminalCapabilities{
		IsTTY:           isTTY,
		SupportsColor:   isTTY && !noColor,
		SupportsUnicode: isTTY && !forceASCII,
		Width:           width,
	}
}

// SpinnerSet picks a braille spinner (set 14) for Unicode terminals and
// |/-\ (set 9) otherwise.
func SpinnerSet(caps TerminalCapabilities) int {
	if caps.SupportsUnicode {
		return 14
	}
	return 9
}
