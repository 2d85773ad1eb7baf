// Package commit turns raw history commits into classified changelog entries.
//
// Parsing applies the configured preprocessors and the conventional commit
// grammar. Classification walks the ordered rule list and stops at the first
// match. Neither step fails: a message that does not fit the grammar is kept
// with its raw fields only and ParseFailure set.
package commit

import (
	"github.com/chachako/pretty-changelog/internal/history"
)

// Separators between a footer token and its value.
const (
	SeparatorColon = ": "
	SeparatorHash  = " #"
)

// Footer is one trailer of a conventional commit message.
type Footer struct {
	Token     string `json:"token"`
	Separator string `json:"separator"`
	Value     string `json:"value"`
	Breaking  bool   `json:"breaking"`
}

// Conventional holds the structured fields of a message that matched the
// conventional commit grammar.
type Conventional struct {
	Type        string `json:"type"`
	Scope       string `json:"scope,omitempty"`
	Description string `json:"description"`
	Body        string `json:"body,omitempty"`
	// Footers in message order.
	Footers             []Footer `json:"footers"`
	Breaking            bool     `json:"breaking"`
	BreakingDescription string   `json:"breaking_description,omitempty"`
}

// Link is a reference found in a commit message by a link parser.
type Link struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// Commit is a parsed and classified commit. Only Group, Scope, Skip and
// SkipReason change after parsing, and only during classification.
type Commit struct {
	ID string `json:"id"`
	// Message is the commit message after preprocessing.
	Message string `json:"message"`
	// Conv is nil when the message did not match the grammar.
	Conv *Conventional `json:"conventional,omitempty"`
	// ParseFailure explains why Conv is nil. Empty when the grammar was
	// not attempted.
	ParseFailure string `json:"-"`

	Group        string `json:"group,omitempty"`
	Scope        string `json:"scope,omitempty"`
	DefaultScope string `json:"default_scope,omitempty"`
	Skip         bool   `json:"-"`
	SkipReason   string `json:"-"`

	Links     []Link              `json:"links"`
	Author    history.Signature   `json:"author"`
	Committer history.Signature   `json:"committer"`
	Coauthors []history.Signature `json:"coauthors,omitempty"`
}

// IsConventional reports whether the message matched the grammar.
func (c *Commit) IsConventional() bool {
	return c.Conv != nil
}

// Breaking reports whether the commit is a conventional breaking change.
func (c *Commit) Breaking() bool {
	return c.Conv != nil && c.Conv.Breaking
}

// EffectiveScope returns the scope to display: the classifier override, the
// parsed scope, or the rule's default scope, in that order.
func (c *Commit) EffectiveScope() string {
	if c.Scope != "" {
		return c.Scope
	}
	if c.Conv != nil && c.Conv.Scope != "" {
		return c.Conv.Scope
	}
	return c.DefaultScope
}

// Body returns the parsed body, or the message below the first line for an
// unparsed commit.
func (c *Commit) Body() string {
	if c.Conv != nil {
		return c.Conv.Body
	}
	_, body := splitHeader(c.Message)
	return body
}
