// Package history walks a commit graph between two references and partitions
// the result into per-tag release buckets.
//
// The object store is abstracted behind Store so the walker can run against
// a go-git repository or an in-memory graph in tests.
package history

import (
	"errors"
	"fmt"
	"time"
)

// DefaultTo is the end reference used when a Range leaves To empty.
const DefaultTo = "HEAD"

// ErrReferenceNotFound is returned by Store.ResolveRef for unknown references.
var ErrReferenceNotFound = errors.New("reference not found")

// Signature identifies the author or committer of a commit.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// Commit is a raw commit object as read from the store.
type Commit struct {
	ID        string
	Message   string
	Author    Signature
	Committer Signature
	// Parents in the order recorded by the commit object; the first entry is
	// the first parent.
	Parents []string
}

// Tag is a named reference pointing at a commit.
type Tag struct {
	Name string
	// Target is the peeled commit id.
	Target string
	// When is the committer time of the target commit.
	When time.Time
}

// Store is the read-only object store the walker consumes.
type Store interface {
	// ResolveRef resolves a branch, tag, revision expression or commit id to
	// a commit id. Unknown references return an error wrapping
	// ErrReferenceNotFound.
	ResolveRef(ref string) (string, error)
	// Commit returns the commit with the given id.
	Commit(id string) (*Commit, error)
	// Tags returns every tag in the store with its peeled target.
	Tags() ([]Tag, error)
	// ChangedPaths lists the paths touched by a commit relative to its first
	// parent, or every path for a root commit.
	ChangedPaths(id string) ([]string, error)
}

// Order selects the walker's emission order.
type Order int

const (
	// OrderTopological emits children before parents. Default.
	OrderTopological Order = iota
	// OrderDate emits commits by committer timestamp, newest first.
	OrderDate
)

// String returns the config name of the order.
func (o Order) String() string {
	if o == OrderDate {
		return "date"
	}
	return "topological"
}

// Range selects commits reachable from To and not reachable from From.
// An empty From walks to the root commits.
type Range struct {
	From string
	To   string
}

// Head returns the end reference, defaulting to HEAD.
func (r Range) Head() string {
	if r.To == "" {
		return DefaultTo
	}
	return r.To
}

// String renders the range in git's two-dot notation.
func (r Range) String() string {
	if r.From == "" {
		return r.Head()
	}
	return r.From + ".." + r.Head()
}

// ReferenceError reports a reference that does not resolve in the store.
// It is a configuration error and aborts the run.
type ReferenceError struct {
	Ref string
	Err error
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("resolving reference %q: %v", e.Ref, e.Err)
}

func (e *ReferenceError) Unwrap() error {
	return e.Err
}
