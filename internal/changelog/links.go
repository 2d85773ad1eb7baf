package changelog

import (
	"sort"
	"strings"

	"github.com/chachako/pretty-changelog/internal/commit"
)

type linkMatch struct {
	start, end int
	parser     int
	link       commit.Link
}

// SubstituteLinks replaces link parser matches in text with markdown links.
// Matches of all parsers are considered together: the earliest match wins,
// then the longest, then the first declared parser. Overlapping matches are
// dropped and replaced text is not scanned again.
func SubstituteLinks(text string, parsers []commit.LinkParser) string {
	if text == "" || len(parsers) == 0 {
		return text
	}

	var matches []linkMatch
	for i, lp := range parsers {
		if lp.Pattern == nil {
			continue
		}
		for _, m := range lp.Pattern.FindAllStringSubmatchIndex(text, -1) {
			if m[0] == m[1] {
				continue
			}
			matches = append(matches, linkMatch{
				start:  m[0],
				end:    m[1],
				parser: i,
				link:   lp.Expand(text, m),
			})
		}
	}
	if len(matches) == 0 {
		return text
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.start != b.start {
			return a.start < b.start
		}
		if a.end != b.end {
			return a.end > b.end
		}
		return a.parser < b.parser
	})

	var sb strings.Builder
	pos := 0
	for _, m := range matches {
		if m.start < pos {
			continue
		}
		sb.WriteString(text[pos:m.start])
		sb.WriteString("[" + m.link.Text + "](" + m.link.Href + ")")
		pos = m.end
	}
	sb.WriteString(text[pos:])
	return sb.String()
}
