package config

import (
	_ "embed"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

//go:embed cliff.toml
var defaultConfig []byte

// DefaultConfig returns the embedded default cliff.toml.
func DefaultConfig() []byte {
	return defaultConfig
}

var defaultBody = sync.OnceValue(func() string {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(defaultConfig), toml.Parser()); err != nil {
		panic("embedded cliff.toml: " + err.Error())
	}
	return k.String("changelog.body")
})

// DefaultBody returns the body template of the embedded default config.
func DefaultBody() string {
	return defaultBody()
}

// GetDefaults returns values applied below any config file.
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"changelog.trim":               true,
		"git.conventional_commits":     true,
		"git.filter_unconventional":    true,
		"git.filter_commits":           false,
		"git.protect_breaking_commits": false,
		"git.tag_pattern":              "",
		"git.date_order":               false,
		"git.sort_commits":             "newest",
		"git.limit_commits":            0,
		"release.omit_empty":           false,
		"release.link_omitted":         false,
		"github.resolve_authors":       false,
		"github.api_url":               "https://api.github.com",
		"github.timeout":               10 * time.Second,
		"github.concurrency":           8,
	}
}
