package commit

import (
	"regexp"
	"strings"

	"github.com/chachako/pretty-changelog/internal/history"
)

// Preprocessor rewrites the raw message before grammar parsing. Replace
// may reference capture groups as $1 or ${name}.
type Preprocessor struct {
	Pattern *regexp.Regexp
	Replace string
}

// Apply runs the preprocessor over message. A pattern that does not match
// leaves the message unchanged.
func (p Preprocessor) Apply(message string) string {
	if p.Pattern == nil {
		return message
	}
	return p.Pattern.ReplaceAllString(message, p.Replace)
}

var (
	coauthorLine = regexp.MustCompile(`(?mi)^Co-authored-by:\s*(?P<name>[^<\n]+?)\s*<(?P<email>[^>\n]+)>`)
	shaPrefixed  = regexp.MustCompile(`(?s)^([a-f0-9]{40}) (.*)$`)
)

// Parser turns raw history commits into Commits.
type Parser struct {
	Preprocessors []Preprocessor
	// Conventional enables the conventional commit grammar. When false every
	// commit is kept unparsed without a failure reason.
	Conventional bool
}

// Parse preprocesses and parses one commit. It never fails.
func (p *Parser) Parse(raw *history.Commit) *Commit {
	c := &Commit{
		ID:        raw.ID,
		Message:   p.preprocess(raw.Message),
		Author:    raw.Author,
		Committer: raw.Committer,
	}
	c.Coauthors = parseCoauthors(c.Message)

	if p.Conventional {
		conv, err := ParseConventional(c.Message)
		if err != nil {
			c.ParseFailure = err.Error()
		} else {
			c.Conv = conv
		}
	}
	return c
}

func (p *Parser) preprocess(message string) string {
	for _, pre := range p.Preprocessors {
		message = pre.Apply(message)
	}
	return message
}

func parseCoauthors(message string) []history.Signature {
	var out []history.Signature
	for _, m := range coauthorLine.FindAllStringSubmatch(message, -1) {
		out = append(out, history.Signature{
			Name:  strings.TrimSpace(m[1]),
			Email: strings.TrimSpace(m[2]),
		})
	}
	return out
}

// FromMessage builds a raw commit from "<sha1> <message>" or a bare message.
// A bare message gets the all-zero id.
func FromMessage(text string) *history.Commit {
	if m := shaPrefixed.FindStringSubmatch(text); m != nil {
		return &history.Commit{ID: m[1], Message: m[2]}
	}
	return &history.Commit{ID: strings.Repeat("0", 40), Message: text}
}
