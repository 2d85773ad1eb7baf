// Package changelog turns classified releases into changelog text.
//
// The Renderer assembles the template context: one view per release with
// its commits grouped for display, link substitution applied to commit
// bodies and footers, and remote metadata joined by commit id. The
// Generator runs the whole pipeline: it resolves the requested range, walks
// history, parses and classifies commits, buckets them by tag, builds
// releases and renders them. A run either returns the complete text or an
// error; no partial output is produced.
package changelog
