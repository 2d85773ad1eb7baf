package history

import (
	"context"
	"fmt"
	"sort"
)

// Walker enumerates commits from a Store.
type Walker struct {
	store Store
	// Paths restricts the walk to commits touching matching paths.
	Paths PathFilter
	// Limit keeps only the N most recent commits when positive.
	Limit int
}

// NewWalker creates a Walker reading from store.
func NewWalker(store Store) *Walker {
	return &Walker{store: store}
}

// graph is the in-range subgraph collected by a walk.
type graph struct {
	commits map[string]*Commit
	// arrival is the breadth-first discovery order from the range end.
	arrival []string
	index   map[string]int
}

func (g *graph) contains(id string) bool {
	_, ok := g.commits[id]
	return ok
}

// Walk returns the commits reachable from rng.To and not reachable from
// rng.From, most recent first, in the requested order, after the path
// filter and the limit.
func (w *Walker) Walk(ctx context.Context, rng Range, order Order) ([]*Commit, error) {
	out, err := w.walk(ctx, rng, order)
	if err != nil {
		return nil, err
	}
	if !w.Paths.Empty() {
		out, err = w.filterPaths(ctx, out)
		if err != nil {
			return nil, err
		}
	}
	if w.Limit > 0 && len(out) > w.Limit {
		out = out[:w.Limit]
	}
	return out, nil
}

// walk returns every commit of rng in order, unfiltered.
func (w *Walker) walk(ctx context.Context, rng Range, order Order) ([]*Commit, error) {
	head, err := w.resolve(rng.Head())
	if err != nil {
		return nil, err
	}

	var excluded map[string]bool
	if rng.From != "" {
		base, err := w.resolve(rng.From)
		if err != nil {
			return nil, err
		}
		excluded, err = w.ancestors(ctx, base)
		if err != nil {
			return nil, err
		}
	}

	g, err := w.collect(ctx, head, excluded)
	if err != nil {
		return nil, err
	}

	if order == OrderDate {
		return dateOrder(g), nil
	}
	return topoOrder(g, head), nil
}

// Resolve resolves ref to a commit id, returning a *ReferenceError on failure.
func (w *Walker) Resolve(ref string) (string, error) {
	return w.resolve(ref)
}

func (w *Walker) resolve(ref string) (string, error) {
	id, err := w.store.ResolveRef(ref)
	if err != nil {
		return "", &ReferenceError{Ref: ref, Err: err}
	}
	return id, nil
}

// Reachable returns the ids of all commits reachable from ref, including
// the commit ref resolves to.
func (w *Walker) Reachable(ctx context.Context, ref string) (map[string]bool, error) {
	id, err := w.resolve(ref)
	if err != nil {
		return nil, err
	}
	return w.ancestors(ctx, id)
}

// ancestors returns the set of commits reachable from id, id included.
func (w *Walker) ancestors(ctx context.Context, id string) (map[string]bool, error) {
	seen := map[string]bool{id: true}
	queue := []string{id}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c, err := w.store.Commit(queue[0])
		queue = queue[1:]
		if err != nil {
			return nil, fmt.Errorf("reading commit: %w", err)
		}
		for _, p := range c.Parents {
			if !seen[p] {
				seen[p] = true
				queue = append(queue, p)
			}
		}
	}
	return seen, nil
}

// collect reads every commit reachable from head that is not excluded.
func (w *Walker) collect(ctx context.Context, head string, excluded map[string]bool) (*graph, error) {
	g := &graph{commits: map[string]*Commit{}, index: map[string]int{}}
	if excluded[head] {
		return g, nil
	}
	queued := map[string]bool{head: true}
	queue := []string{head}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := queue[0]
		queue = queue[1:]
		c, err := w.store.Commit(id)
		if err != nil {
			return nil, fmt.Errorf("reading commit %s: %w", id, err)
		}
		g.index[id] = len(g.arrival)
		g.arrival = append(g.arrival, id)
		g.commits[id] = c
		for _, p := range c.Parents {
			if !queued[p] && !excluded[p] {
				queued[p] = true
				queue = append(queue, p)
			}
		}
	}
	return g, nil
}

// topoOrder emits every commit before its parents. Parents are pushed in
// reverse so the first-parent chain is popped first and stays contiguous.
func topoOrder(g *graph, head string) []*Commit {
	if len(g.commits) == 0 {
		return nil
	}
	pending := make(map[string]int, len(g.commits))
	for _, c := range g.commits {
		for _, p := range c.Parents {
			if g.contains(p) {
				pending[p]++
			}
		}
	}

	out := make([]*Commit, 0, len(g.commits))
	stack := []string{head}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		c := g.commits[id]
		out = append(out, c)
		for i := len(c.Parents) - 1; i >= 0; i-- {
			p := c.Parents[i]
			if !g.contains(p) {
				continue
			}
			pending[p]--
			if pending[p] == 0 {
				stack = append(stack, p)
			}
		}
	}
	return out
}

// dateOrder sorts by committer time, newest first. Commits sharing a
// timestamp keep child-before-ancestor order and otherwise arrival order.
func dateOrder(g *graph) []*Commit {
	out := make([]*Commit, 0, len(g.arrival))
	for _, id := range g.arrival {
		out = append(out, g.commits[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Committer.When.After(out[j].Committer.When)
	})

	for start := 0; start < len(out); {
		end := start + 1
		for end < len(out) && out[end].Committer.When.Equal(out[start].Committer.When) {
			end++
		}
		if end-start > 1 {
			orderTies(g, out[start:end])
		}
		start = end
	}
	return out
}

// orderTies reorders commits sharing a timestamp in place: a commit is
// emitted once no other pending tie member reaches it, lowest arrival first.
func orderTies(g *graph, ties []*Commit) {
	members := make(map[string]int, len(ties))
	for i, c := range ties {
		members[c.ID] = i
	}
	// blockers[i] counts tie members that reach ties[i].
	blockers := make([]int, len(ties))
	reaches := make([][]int, len(ties))
	for i, c := range ties {
		for _, j := range reachableMembers(g, c.ID, members) {
			reaches[i] = append(reaches[i], j)
			blockers[j]++
		}
	}

	byArrival := make([]int, len(ties))
	for i := range byArrival {
		byArrival[i] = i
	}
	sort.Slice(byArrival, func(a, b int) bool {
		return g.index[ties[byArrival[a]].ID] < g.index[ties[byArrival[b]].ID]
	})

	done := make([]bool, len(ties))
	ordered := make([]*Commit, 0, len(ties))
	for len(ordered) < len(ties) {
		for _, i := range byArrival {
			if done[i] || blockers[i] > 0 {
				continue
			}
			done[i] = true
			ordered = append(ordered, ties[i])
			for _, j := range reaches[i] {
				blockers[j]--
			}
			break
		}
	}
	copy(ties, ordered)
}

// reachableMembers returns the indices of tie members that are proper
// ancestors of id within the walked graph.
func reachableMembers(g *graph, id string, members map[string]int) []int {
	var found []int
	seen := map[string]bool{id: true}
	queue := append([]string(nil), g.commits[id].Parents...)
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		if seen[p] || !g.contains(p) {
			continue
		}
		seen[p] = true
		if j, ok := members[p]; ok {
			found = append(found, j)
		}
		queue = append(queue, g.commits[p].Parents...)
	}
	return found
}
