// Package git reads commits, tags and remotes from a repository using go-git.
// Repository implements history.Store; nothing in this package writes to the
// repository.
package git

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/chachako/pretty-changelog/internal/history"
)

// debugLogger is a function that logs debug messages when debug mode is enabled.
// By default, it's a no-op. Set it via SetDebugLogger to enable debug output.
var debugLogger func(format string, args ...any)

// SetDebugLogger configures the debug logger for git operations.
// Pass nil to disable debug logging. The logger function should format
// and output the message (similar to log.Printf signature).
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

// logDebug logs a debug message if the debug logger is set.
func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

// openRepo opens a git repository at the specified path or current working directory.
// It uses go-git's PlainOpenWithOptions with DetectDotGit enabled to traverse
// up the directory tree to find the repository root.
// If path is empty, the current working directory is used.
func openRepo(path string) (*git.Repository, error) {
	if path == "" {
		var err error
		path, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting current directory: %w", err)
		}
	}

	logDebug("[git] opening repository at %s", path)

	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", path, err)
	}

	logDebug("[git] repository opened successfully")
	return repo, nil
}

// Repository is a read-only view of a git repository.
type Repository struct {
	repo *git.Repository
	// commits caches decoded commits; tag peeling and the walk read the same
	// objects repeatedly.
	commits map[string]*history.Commit
}

var _ history.Store = (*Repository)(nil)

// Open opens the repository containing path, or the current directory.
func Open(path string) (*Repository, error) {
	repo, err := openRepo(path)
	if err != nil {
		return nil, err
	}
	return &Repository{repo: repo, commits: map[string]*history.Commit{}}, nil
}

// Root returns the worktree root, or "" for a bare repository.
func (r *Repository) Root() string {
	wt, err := r.repo.Worktree()
	if err != nil {
		return ""
	}
	root := wt.Filesystem.Root()
	logDebug("[git] Root: %s", root)
	return root
}

// ResolveRef resolves a branch, tag, revision expression or commit id.
func (r *Repository) ResolveRef(ref string) (string, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) || errors.Is(err, plumbing.ErrObjectNotFound) {
			return "", fmt.Errorf("%s: %w", ref, history.ErrReferenceNotFound)
		}
		return "", fmt.Errorf("resolving %s: %w", ref, err)
	}
	if _, err := r.repo.CommitObject(*hash); err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return "", fmt.Errorf("%s: %w", ref, history.ErrReferenceNotFound)
		}
		return "", fmt.Errorf("reading %s: %w", ref, err)
	}
	logDebug("[git] ResolveRef: %s -> %s", ref, hash)
	return hash.String(), nil
}

// Commit reads one commit object.
func (r *Repository) Commit(id string) (*history.Commit, error) {
	if c, ok := r.commits[id]; ok {
		return c, nil
	}
	obj, err := r.repo.CommitObject(plumbing.NewHash(id))
	if err != nil {
		return nil, fmt.Errorf("reading commit %s: %w", id, err)
	}
	c := convertCommit(obj)
	r.commits[id] = c
	return c, nil
}

func convertCommit(obj *object.Commit) *history.Commit {
	parents := make([]string, len(obj.ParentHashes))
	for i, p := range obj.ParentHashes {
		parents[i] = p.String()
	}
	return &history.Commit{
		ID:      obj.Hash.String(),
		Message: obj.Message,
		Author: history.Signature{
			Name:  obj.Author.Name,
			Email: obj.Author.Email,
			When:  obj.Author.When,
		},
		Committer: history.Signature{
			Name:  obj.Committer.Name,
			Email: obj.Committer.Email,
			When:  obj.Committer.When,
		},
		Parents: parents,
	}
}

// Tags lists lightweight and annotated tags peeled to their commits. Tags
// pointing at trees or blobs are left out.
func (r *Repository) Tags() ([]history.Tag, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	var tags []history.Tag
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		target, err := r.peel(ref.Hash())
		if err != nil {
			logDebug("[git] skipping tag %s: %v", ref.Name().Short(), err)
			return nil
		}
		c, err := r.Commit(target.String())
		if err != nil {
			return err
		}
		tags = append(tags, history.Tag{
			Name:   ref.Name().Short(),
			Target: c.ID,
			When:   c.Committer.When,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterating tags: %w", err)
	}

	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	logDebug("[git] Tags: found %d tags", len(tags))
	return tags, nil
}

// peel follows annotated tag objects down to a commit.
func (r *Repository) peel(hash plumbing.Hash) (plumbing.Hash, error) {
	for {
		tag, err := r.repo.TagObject(hash)
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			break
		}
		if err != nil {
			return plumbing.ZeroHash, err
		}
		if tag.TargetType != plumbing.CommitObject && tag.TargetType != plumbing.TagObject {
			return plumbing.ZeroHash, fmt.Errorf("tag targets a %s", tag.TargetType)
		}
		hash = tag.Target
	}
	if _, err := r.repo.CommitObject(hash); err != nil {
		return plumbing.ZeroHash, err
	}
	return hash, nil
}

// ChangedPaths lists the paths a commit changes against its first parent.
// A root commit reports every file it contains.
func (r *Repository) ChangedPaths(id string) ([]string, error) {
	obj, err := r.repo.CommitObject(plumbing.NewHash(id))
	if err != nil {
		return nil, fmt.Errorf("reading commit %s: %w", id, err)
	}
	tree, err := obj.Tree()
	if err != nil {
		return nil, fmt.Errorf("reading tree of %s: %w", id, err)
	}

	if obj.NumParents() == 0 {
		var paths []string
		err := tree.Files().ForEach(func(f *object.File) error {
			paths = append(paths, f.Name)
			return nil
		})
		return paths, err
	}

	parent, err := obj.Parent(0)
	if err != nil {
		return nil, fmt.Errorf("reading parent of %s: %w", id, err)
	}
	parentTree, err := parent.Tree()
	if err != nil {
		return nil, fmt.Errorf("reading tree of %s: %w", parent.Hash, err)
	}
	changes, err := object.DiffTree(parentTree, tree)
	if err != nil {
		return nil, fmt.Errorf("diffing %s: %w", id, err)
	}

	seen := map[string]bool{}
	var paths []string
	for _, ch := range changes {
		for _, name := range []string{ch.From.Name, ch.To.Name} {
			if name != "" && !seen[name] {
				seen[name] = true
				paths = append(paths, name)
			}
		}
	}
	return paths, nil
}

// RemoteURL returns the first URL of the named remote, or "" when the remote
// does not exist.
func (r *Repository) RemoteURL(name string) string {
	remote, err := r.repo.Remote(name)
	if err != nil {
		logDebug("[git] RemoteURL: no remote %q: %v", name, err)
		return ""
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return ""
	}
	return strings.TrimSpace(urls[0])
}
