// Package testutil provides test helpers shared across pretty-changelog packages.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// Epoch is the timestamp of the first commit created by a GitRepo.
var Epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// GitRepo builds a throwaway repository with deterministic timestamps.
type GitRepo struct {
	t    *testing.T
	Dir  string
	Repo *git.Repository
	// Clock is the committer time of the next commit. Each commit advances
	// it by one minute unless the test sets it explicitly.
	Clock time.Time
}

// NewGitRepo initializes an empty repository in a temp dir.
func NewGitRepo(t *testing.T) *GitRepo {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	return &GitRepo{t: t, Dir: dir, Repo: repo, Clock: Epoch}
}

// Commit writes files (path -> content) and commits them with message.
// With no files a marker file is touched so every commit has a change.
func (r *GitRepo) Commit(message string, files map[string]string) string {
	r.t.Helper()
	wt, err := r.Repo.Worktree()
	require.NoError(r.t, err)

	if len(files) == 0 {
		files = map[string]string{".marker": message}
	}
	for name, content := range files {
		path := filepath.Join(r.Dir, name)
		require.NoError(r.t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(r.t, os.WriteFile(path, []byte(content), 0o644))
		_, err := wt.Add(name)
		require.NoError(r.t, err)
	}

	sig := &object.Signature{Name: "Test", Email: "test@example.com", When: r.Clock}
	hash, err := wt.Commit(message, &git.CommitOptions{Author: sig, Committer: sig})
	require.NoError(r.t, err)
	r.Clock = r.Clock.Add(time.Minute)
	return hash.String()
}

// Tag creates a lightweight tag at id.
func (r *GitRepo) Tag(name, id string) {
	r.t.Helper()
	_, err := r.Repo.CreateTag(name, plumbing.NewHash(id), nil)
	require.NoError(r.t, err)
}

// AnnotatedTag creates an annotated tag at id.
func (r *GitRepo) AnnotatedTag(name, id, message string) {
	r.t.Helper()
	_, err := r.Repo.CreateTag(name, plumbing.NewHash(id), &git.CreateTagOptions{
		Tagger:  &object.Signature{Name: "Test", Email: "test@example.com", When: r.Clock},
		Message: message,
	})
	require.NoError(r.t, err)
}

// Remote adds a remote with one URL.
func (r *GitRepo) Remote(name, url string) {
	r.t.Helper()
	_, err := r.Repo.CreateRemote(&gitconfig.RemoteConfig{Name: name, URLs: []string{url}})
	require.NoError(r.t, err)
}

// CommitWithParents stores a commit with the given parents and the tree of
// the first one, without touching the worktree or HEAD. It builds side
// branches and merges.
func (r *GitRepo) CommitWithParents(message string, parents ...string) string {
	r.t.Helper()
	require.NotEmpty(r.t, parents)
	first, err := r.Repo.CommitObject(plumbing.NewHash(parents[0]))
	require.NoError(r.t, err)

	sig := object.Signature{Name: "Test", Email: "test@example.com", When: r.Clock}
	c := &object.Commit{Author: sig, Committer: sig, Message: message, TreeHash: first.TreeHash}
	for _, p := range parents {
		c.ParentHashes = append(c.ParentHashes, plumbing.NewHash(p))
	}
	obj := r.Repo.Storer.NewEncodedObject()
	require.NoError(r.t, c.Encode(obj))
	hash, err := r.Repo.Storer.SetEncodedObject(obj)
	require.NoError(r.t, err)
	r.Clock = r.Clock.Add(time.Minute)
	return hash.String()
}

// SetHead points the current branch at id.
func (r *GitRepo) SetHead(id string) {
	r.t.Helper()
	head, err := r.Repo.Head()
	require.NoError(r.t, err)
	require.NoError(r.t, r.Repo.Storer.SetReference(plumbing.NewHashReference(head.Name(), plumbing.NewHash(id))))
}
