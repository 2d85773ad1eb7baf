package commit

import (
	"errors"
	"regexp"
	"strings"
)

// Grammar mismatch reasons.
var (
	errEmptyMessage     = errors.New("empty message")
	errMissingType      = errors.New("missing type")
	errInvalidType      = errors.New("type contains invalid characters")
	errUnclosedScope    = errors.New("unclosed scope")
	errEmptyScope       = errors.New("empty scope")
	errMissingSeparator = errors.New("missing ': ' after type")
	errEmptyDescription = errors.New("empty description")
)

// footerLine matches the first line of a footer: a token followed by
// ": " or " #". Tokens use '-' in place of spaces except BREAKING CHANGE.
var footerLine = regexp.MustCompile(`^(BREAKING CHANGE|[A-Za-z][A-Za-z0-9-]*)(: | #)(.*)$`)

func isBreakingToken(token string) bool {
	return token == "BREAKING CHANGE" || token == "BREAKING-CHANGE"
}

// ParseConventional parses message as a conventional commit:
//
//	type(scope)!: description
//
//	body paragraphs
//
//	Token: value
//	Token #value
func ParseConventional(message string) (*Conventional, error) {
	header, rest := splitHeader(strings.TrimSpace(message))
	if header == "" {
		return nil, errEmptyMessage
	}

	conv, err := parseHeader(header)
	if err != nil {
		return nil, err
	}

	conv.Body, conv.Footers = parseBodyAndFooters(rest)
	for _, f := range conv.Footers {
		if f.Breaking {
			conv.Breaking = true
			if conv.BreakingDescription == "" {
				conv.BreakingDescription = f.Value
			}
		}
	}
	if conv.Breaking && conv.BreakingDescription == "" {
		conv.BreakingDescription = conv.Description
	}
	return conv, nil
}

// splitHeader returns the first line and the remaining text with the
// separating blank line removed.
func splitHeader(message string) (string, string) {
	header, rest, _ := strings.Cut(message, "\n")
	header = strings.TrimRight(header, "\r")
	rest = strings.TrimLeft(rest, "\r\n")
	return header, strings.TrimRight(rest, "\r\n \t")
}

func parseHeader(header string) (*Conventional, error) {
	end := strings.IndexAny(header, "(!:")
	if end <= 0 {
		if end == 0 {
			return nil, errMissingType
		}
		return nil, errMissingSeparator
	}
	conv := &Conventional{Type: header[:end]}
	if !validType(conv.Type) {
		return nil, errInvalidType
	}
	rest := header[end:]

	if strings.HasPrefix(rest, "(") {
		closing := strings.IndexByte(rest, ')')
		if closing < 0 {
			return nil, errUnclosedScope
		}
		conv.Scope = strings.TrimSpace(rest[1:closing])
		if conv.Scope == "" {
			return nil, errEmptyScope
		}
		rest = rest[closing+1:]
	}
	if strings.HasPrefix(rest, "!") {
		conv.Breaking = true
		rest = rest[1:]
	}
	if !strings.HasPrefix(rest, ": ") {
		return nil, errMissingSeparator
	}
	conv.Description = strings.TrimSpace(rest[2:])
	if conv.Description == "" {
		return nil, errEmptyDescription
	}
	return conv, nil
}

func validType(t string) bool {
	for _, r := range t {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

// parseBodyAndFooters splits the text below the header. The last paragraph
// holds the footers when its first line is a footer; lines that do not start
// a footer continue the previous one.
func parseBodyAndFooters(text string) (string, []Footer) {
	if text == "" {
		return "", nil
	}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	start := 0
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i-1]) == "" {
			start = i
			break
		}
	}
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	if start >= len(lines) || !footerLine.MatchString(lines[start]) {
		return text, nil
	}

	var footers []Footer
	for _, line := range lines[start:] {
		if m := footerLine.FindStringSubmatch(line); m != nil {
			footers = append(footers, Footer{
				Token:     m[1],
				Separator: m[2],
				Value:     m[3],
				Breaking:  isBreakingToken(m[1]),
			})
			continue
		}
		last := &footers[len(footers)-1]
		last.Value += "\n" + line
	}
	for i := range footers {
		footers[i].Value = strings.TrimSpace(footers[i].Value)
	}

	body := strings.TrimSpace(strings.Join(lines[:start], "\n"))
	return body, footers
}
