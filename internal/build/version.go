// Package build provides version and build information for pretty-changelog.
// This package intentionally has no dependencies on other internal packages
// to avoid import cycles.
package build

import "strings"

var (
	// Version information - set via ldflags during build
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// IsDevBuild returns true if running a development build (not a release).
func IsDevBuild() bool {
	return Version == "dev"
}

// UserAgent returns the User-Agent sent with remote API requests.
func UserAgent() string {
	return "pretty-changelog/" + strings.TrimPrefix(Version, "v")
}
