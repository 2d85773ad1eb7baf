package github

import (
	"fmt"
	"regexp"
	"strings"
)

// Slug identifies a repository as owner/name.
type Slug struct {
	Owner string
	Name  string
}

func (s Slug) String() string {
	return s.Owner + "/" + s.Name
}

// URL returns the repository's web URL.
func (s Slug) URL() string {
	return "https://github.com/" + s.String()
}

// IsZero reports whether the slug is unset.
func (s Slug) IsZero() bool {
	return s.Owner == "" && s.Name == ""
}

// ParseSlug parses "owner/name".
func ParseSlug(s string) (Slug, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return Slug{}, fmt.Errorf("invalid repository %q: expected owner/name", s)
	}
	return Slug{Owner: owner, Name: name}, nil
}

// remotePattern matches https, ssh and scp-style GitHub remotes.
var remotePattern = regexp.MustCompile(`^(?:https?://|ssh://)?(?:[^@/]+@)?github\.com[:/]([^/]+)/([^/]+?)(?:\.git)?/?$`)

// SlugFromRemote extracts the slug of a GitHub remote URL. ok is false for
// remotes hosted elsewhere.
func SlugFromRemote(url string) (Slug, bool) {
	m := remotePattern.FindStringSubmatch(strings.TrimSpace(url))
	if m == nil {
		return Slug{}, false
	}
	return Slug{Owner: m[1], Name: m[2]}, true
}
