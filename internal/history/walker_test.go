// Package history tests commit graph traversal order and range selection.
// Related: internal/history/walker.go
// Tags: history, walker, topological, date-order
package history

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mergeGraph builds:
//
//	a - b - c ------- f (merge) - g
//	     \           /
//	      d ------- e
//
// with the feature branch d, e committed after c.
func mergeGraph() *memStore {
	return newMemStore().
		add("a", 0).
		add("b", 1, "a").
		add("c", 2, "b").
		add("d", 3, "b").
		add("e", 4, "d").
		add("f", 5, "c", "e").
		add("g", 6, "f")
}

func TestWalk_TopologicalChildBeforeParent(t *testing.T) {
	t.Parallel()

	store := mergeGraph()
	got, err := NewWalker(store).Walk(context.Background(), Range{}, OrderTopological)
	require.NoError(t, err)
	require.Len(t, got, 7)

	pos := map[string]int{}
	for i, c := range got {
		pos[c.ID] = i
	}
	for _, c := range got {
		for _, p := range c.Parents {
			assert.Less(t, pos[c.ID], pos[p], "%s must precede its parent %s", c.ID, p)
		}
	}
	// first-parent chain g, f, c is emitted contiguously
	assert.Equal(t, []string{"g", "f", "c", "e", "d", "b", "a"}, ids(got))
}

func TestWalk_DateOrder(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		store *memStore
		want  []string
	}{
		"distinct timestamps ignore parentage": {
			// e is older than c although it is merged later
			store: newMemStore().
				add("a", 0).
				add("e", 1, "a").
				add("c", 2, "a").
				add("f", 3, "c", "e"),
			want: []string{"f", "c", "e", "a"},
		},
		"equal timestamps keep child before ancestor": {
			// rebased chain: every commit shares one timestamp
			store: newMemStore().
				add("a", 0).
				add("b", 5, "a").
				add("c", 5, "b").
				add("d", 5, "c"),
			want: []string{"d", "c", "b", "a"},
		},
		"unrelated ties follow arrival order": {
			store: newMemStore().
				add("a", 0).
				add("x", 5, "a").
				add("y", 5, "a").
				add("m", 9, "x", "y"),
			want: []string{"m", "x", "y", "a"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := NewWalker(tt.store).Walk(context.Background(), Range{}, OrderDate)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
			for i := 1; i < len(got); i++ {
				assert.False(t, got[i].Committer.When.After(got[i-1].Committer.When),
					"timestamps must be non-increasing")
			}
		})
	}
}

func TestWalk_Range(t *testing.T) {
	t.Parallel()

	store := mergeGraph().tag("v0.1.0", "b")

	tests := map[string]struct {
		rng  Range
		want []string
	}{
		"from tag excludes its ancestors": {
			rng:  Range{From: "v0.1.0"},
			want: []string{"g", "f", "c", "e", "d"},
		},
		"explicit end": {
			rng:  Range{From: "b", To: "e"},
			want: []string{"e", "d"},
		},
		"empty range": {
			rng:  Range{From: "g", To: "f"},
			want: []string{},
		},
		"root to tag": {
			rng:  Range{To: "v0.1.0"},
			want: []string{"b", "a"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := NewWalker(store).Walk(context.Background(), tt.rng, OrderTopological)
			require.NoError(t, err)
			assert.Equal(t, tt.want, append([]string{}, ids(got)...))
		})
	}
}

func TestWalk_UnresolvableReference(t *testing.T) {
	t.Parallel()

	tests := map[string]Range{
		"unknown start": {From: "v9.9.9"},
		"unknown end":   {To: "missing-branch"},
	}

	for name, rng := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := NewWalker(mergeGraph()).Walk(context.Background(), rng, OrderTopological)
			require.Error(t, err)
			var refErr *ReferenceError
			require.True(t, errors.As(err, &refErr))
			assert.ErrorIs(t, err, ErrReferenceNotFound)
		})
	}
}

func TestWalk_LimitAndPaths(t *testing.T) {
	t.Parallel()

	store := mergeGraph()
	store.paths["g"] = []string{"docs/readme.md"}
	store.paths["f"] = []string{"internal/git/git.go", "docs/git.md"}
	store.paths["c"] = []string{"internal/cli/root.go"}

	w := NewWalker(store)
	w.Paths = PathFilter{Include: []string{"internal/**"}, Exclude: []string{"internal/cli/**"}}
	got, err := w.Walk(context.Background(), Range{}, OrderTopological)
	require.NoError(t, err)
	assert.Equal(t, []string{"f"}, ids(got))

	w = NewWalker(store)
	w.Limit = 3
	got, err = w.Walk(context.Background(), Range{}, OrderTopological)
	require.NoError(t, err)
	assert.Equal(t, []string{"g", "f", "c"}, ids(got))
}

func TestWalk_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewWalker(mergeGraph()).Walk(ctx, Range{}, OrderTopological)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRange_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "HEAD", Range{}.String())
	assert.Equal(t, "v1.0.0..HEAD", Range{From: "v1.0.0"}.String())
	assert.Equal(t, "a..b", Range{From: "a", To: "b"}.String())
}

func TestWalker_Reachable(t *testing.T) {
	t.Parallel()

	w := NewWalker(mergeGraph())
	got, err := w.Reachable(context.Background(), "e")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"a": true, "b": true, "d": true, "e": true}, got)

	_, err = w.Reachable(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrReferenceNotFound)
}
