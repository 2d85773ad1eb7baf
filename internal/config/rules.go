package config

import (
	"fmt"
	"regexp"

	"github.com/chachako/pretty-changelog/internal/commit"
	"github.com/chachako/pretty-changelog/internal/history"
	"github.com/chachako/pretty-changelog/internal/release"
)

// RuleSet is the compiled, read-only form of the configuration consumed by
// the pipeline.
type RuleSet struct {
	Parser     commit.Parser
	Classifier commit.Classifier
	Tags       history.TagFilter
	Order      history.Order
	// Limit keeps only the N most recent commits when positive.
	Limit      int
	Release    release.Options
	Links      []commit.LinkParser
}

// compile turns pattern strings into regexps. The first invalid pattern is
// reported with its config key.
func compile(cfg *Configuration, path string) (*RuleSet, error) {
	c := compiler{path: path}
	git := cfg.Git

	rs := &RuleSet{
		Parser: commit.Parser{Conventional: git.ConventionalCommits},
		Classifier: commit.Classifier{
			FilterUnconventional: git.ConventionalCommits && git.FilterUnconventional,
			FilterCommits:        git.FilterCommits,
			ProtectBreaking:      git.ProtectBreakingCommits,
			DefaultGroup:         git.DefaultGroup,
		},
		Tags: history.TagFilter{
			Pattern: c.optional("git.tag_pattern", git.TagPattern),
			Skip:    c.optional("git.skip_tags", git.SkipTags),
			Ignore:  c.optional("git.ignore_tags", git.IgnoreTags),
		},
		Release: release.Options{
			IncludeGroups: cfg.Release.IncludeGroups,
			ExcludeGroups: cfg.Release.ExcludeGroups,
			GroupOrder:    cfg.Release.GroupOrder,
			Sort:          release.Sort(git.SortCommits),
			OmitEmpty:     cfg.Release.OmitEmpty,
			LinkOmitted:   cfg.Release.LinkOmitted,
			BreakingGroup: cfg.Release.BreakingGroup,
		},
	}
	rs.Limit = git.LimitCommits
	if git.DateOrder {
		rs.Order = history.OrderDate
	}

	for i, p := range git.CommitPreprocessors {
		rs.Parser.Preprocessors = append(rs.Parser.Preprocessors, commit.Preprocessor{
			Pattern: c.required(fmt.Sprintf("git.commit_preprocessors[%d].pattern", i), p.Pattern),
			Replace: p.Replace,
		})
	}
	for i, p := range git.CommitParsers {
		rs.Classifier.Rules = append(rs.Classifier.Rules, commit.Rule{
			Message:      c.optional(fmt.Sprintf("git.commit_parsers[%d].message", i), p.Message),
			Body:         c.optional(fmt.Sprintf("git.commit_parsers[%d].body", i), p.Body),
			Group:        p.Group,
			Scope:        p.Scope,
			DefaultScope: p.DefaultScope,
			Skip:         p.Skip,
		})
	}
	for i, p := range git.LinkParsers {
		rs.Links = append(rs.Links, commit.LinkParser{
			Pattern: c.required(fmt.Sprintf("git.link_parsers[%d].pattern", i), p.Pattern),
			Href:    p.Href,
			Text:    p.Text,
		})
	}
	rs.Classifier.Links = rs.Links

	if c.err != nil {
		return nil, c.err
	}
	return rs, nil
}

// compiler keeps the first compile error.
type compiler struct {
	path string
	err  error
}

func (c *compiler) optional(field, pattern string) *regexp.Regexp {
	if pattern == "" {
		return nil
	}
	return c.required(field, pattern)
}

func (c *compiler) required(field, pattern string) *regexp.Regexp {
	re, err := regexp.Compile(pattern)
	if err != nil && c.err == nil {
		c.err = &ValidationError{
			FilePath: c.path,
			Field:    field,
			Message:  fmt.Sprintf("invalid pattern: %v", err),
		}
	}
	return re
}
