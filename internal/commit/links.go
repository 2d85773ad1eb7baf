package commit

import (
	"regexp"
)

// LinkParser maps pattern matches in a message to links. Href and Text may
// reference capture groups; an empty Text uses the matched text.
type LinkParser struct {
	Pattern *regexp.Regexp
	Href    string
	Text    string
}

// Expand returns the link for one match, where m holds submatch indices
// into text.
func (lp LinkParser) Expand(text string, m []int) Link {
	href := string(lp.Pattern.ExpandString(nil, lp.Href, text, m))
	label := text[m[0]:m[1]]
	if lp.Text != "" {
		label = string(lp.Pattern.ExpandString(nil, lp.Text, text, m))
	}
	return Link{Text: label, Href: href}
}

// ExtractLinks collects the links every parser finds in message, in parser
// order and then match order.
func ExtractLinks(message string, parsers []LinkParser) []Link {
	var links []Link
	for _, lp := range parsers {
		if lp.Pattern == nil {
			continue
		}
		for _, m := range lp.Pattern.FindAllStringSubmatchIndex(message, -1) {
			links = append(links, lp.Expand(message, m))
		}
	}
	return links
}
