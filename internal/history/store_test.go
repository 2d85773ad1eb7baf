package history

import (
	"fmt"
	"time"
)

// memStore is an in-memory Store for walker tests.
type memStore struct {
	commits map[string]*Commit
	refs    map[string]string
	tags    []Tag
	paths   map[string][]string
}

func newMemStore() *memStore {
	return &memStore{
		commits: map[string]*Commit{},
		refs:    map[string]string{},
		paths:   map[string][]string{},
	}
}

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// add records a commit at epoch+minutes and points HEAD at it.
func (s *memStore) add(id string, minutes int, parents ...string) *memStore {
	when := epoch.Add(time.Duration(minutes) * time.Minute)
	s.commits[id] = &Commit{
		ID:        id,
		Message:   "commit " + id,
		Author:    Signature{Name: "dev", Email: "dev@example.com", When: when},
		Committer: Signature{Name: "dev", Email: "dev@example.com", When: when},
		Parents:   parents,
	}
	s.refs["HEAD"] = id
	return s
}

func (s *memStore) tag(name, target string) *memStore {
	s.tags = append(s.tags, Tag{Name: name, Target: target, When: s.commits[target].Committer.When})
	s.refs[name] = target
	return s
}

func (s *memStore) ResolveRef(ref string) (string, error) {
	if id, ok := s.refs[ref]; ok {
		return id, nil
	}
	if _, ok := s.commits[ref]; ok {
		return ref, nil
	}
	return "", fmt.Errorf("%s: %w", ref, ErrReferenceNotFound)
}

func (s *memStore) Commit(id string) (*Commit, error) {
	c, ok := s.commits[id]
	if !ok {
		return nil, fmt.Errorf("object %s not found", id)
	}
	return c, nil
}

func (s *memStore) Tags() ([]Tag, error) {
	return s.tags, nil
}

func (s *memStore) ChangedPaths(id string) ([]string, error) {
	return s.paths[id], nil
}

func ids(commits []*Commit) []string {
	out := make([]string, len(commits))
	for i, c := range commits {
		out[i] = c.ID
	}
	return out
}
