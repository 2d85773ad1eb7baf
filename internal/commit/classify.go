package commit

import (
	"regexp"
)

// Rule is one entry of the ordered commit parser list. A rule matches when
// its message pattern matches the message or its body pattern matches the
// body. A rule without patterns never matches.
type Rule struct {
	Message      *regexp.Regexp
	Body         *regexp.Regexp
	Group        string
	Scope        string
	DefaultScope string
	Skip         bool
}

func (r Rule) matches(c *Commit) bool {
	if r.Message != nil && r.Message.MatchString(c.Message) {
		return true
	}
	return r.Body != nil && r.Body.MatchString(c.Body())
}

// Classifier assigns groups and skip flags.
type Classifier struct {
	Rules []Rule
	// FilterUnconventional skips commits that failed the grammar.
	FilterUnconventional bool
	// FilterCommits skips commits no rule matched.
	FilterCommits bool
	// ProtectBreaking keeps breaking commits that a skip rule matched.
	ProtectBreaking bool
	// DefaultGroup is assigned when no rule matched.
	DefaultGroup string
	Links        []LinkParser
}

// Skip reasons.
const (
	SkipUnconventional = "unconventional"
	SkipRule           = "skip rule"
	SkipUnmatched      = "no matching rule"
)

// Classify sets the group, scope and skip fields of c and collects its
// links. The first matching rule wins.
func (cl *Classifier) Classify(c *Commit) {
	c.Links = ExtractLinks(c.Message, cl.Links)

	if cl.FilterUnconventional && c.ParseFailure != "" {
		c.Skip, c.SkipReason = true, SkipUnconventional
		return
	}

	for _, r := range cl.Rules {
		if !r.matches(c) {
			continue
		}
		c.Group = r.Group
		if r.Scope != "" {
			c.Scope = r.Scope
		}
		c.DefaultScope = r.DefaultScope
		if r.Skip && !(cl.ProtectBreaking && c.Breaking()) {
			c.Skip, c.SkipReason = true, SkipRule
		}
		return
	}

	switch {
	case cl.FilterCommits:
		c.Skip, c.SkipReason = true, SkipUnmatched
	case cl.DefaultGroup != "":
		c.Group = cl.DefaultGroup
	case c.Conv != nil:
		c.Group = c.Conv.Type
	}
}
