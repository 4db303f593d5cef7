package query

import (
	"sort"

	"github.com/ravescovi/codegraph/internal/store"
)

// Direction selects which edges a traversal follows.
type Direction int

const (
	// Outbound follows edges source-to-target.
	Outbound Direction = iota
	// Inbound follows edges target-to-source.
	Inbound
	// Both follows edges either way.
	Both
)

// TraverseOptions bounds and filters a traversal.
type TraverseOptions struct {
	MaxDepth  int
	MaxNodes  int
	Direction Direction
	// EdgeKinds restricts expansion; empty means all resolved edges.
	EdgeKinds []store.EdgeKind
	// NodeKinds restricts which nodes enter the result; empty means all.
	NodeKinds []store.NodeKind
}

// DefaultTraverseOptions returns the standard bounds: depth 2, 50 nodes.
func DefaultTraverseOptions() TraverseOptions {
	return TraverseOptions{MaxDepth: DefaultMaxDepth, MaxNodes: DefaultMaxNodes}
}

// withDefaults fills only the node cap; a MaxDepth of zero is meaningful
// (exactly the starting nodes) and stays as given.
func (o TraverseOptions) withDefaults() TraverseOptions {
	if o.MaxNodes <= 0 {
		o.MaxNodes = DefaultMaxNodes
	}
	return o
}

// TraverseStats summarizes a traversal.
type TraverseStats struct {
	NodesVisited int  `json:"nodes_visited"`
	EdgesWalked  int  `json:"edges_walked"`
	MaxDepthHit  int  `json:"max_depth_hit"`
	Truncated    bool `json:"truncated"`
}

// Subgraph is the result of a traversal: the nodes keyed by id, the edges
// between them, and the entry points the walk started from.
type Subgraph struct {
	Nodes       map[string]*store.Node `json:"nodes"`
	Edges       []*store.Edge          `json:"edges"`
	EntryPoints []string               `json:"entry_points"`
	Stats       TraverseStats          `json:"stats"`
}

// Traverse runs a bounded breadth-first walk from the start ids. The result
// never holds more than MaxNodes nodes; a MaxDepth of zero returns
// exactly the starting nodes and no edges.
func (e *Engine) Traverse(starts []string, opts TraverseOptions) (*Subgraph, error) {
	opts = opts.withDefaults()

	sg := &Subgraph{Nodes: make(map[string]*store.Node)}
	wantedEdges := kindSet(opts.EdgeKinds)
	wantedNodes := nodeKindSet(opts.NodeKinds)

	startNodes, err := e.store.GetNodesByIDs(starts)
	if err != nil {
		return nil, err
	}
	sortNodesDeterministic(startNodes)

	type queued struct {
		node  *store.Node
		depth int
	}
	var queue []queued
	for _, n := range startNodes {
		if len(sg.Nodes) >= opts.MaxNodes {
			sg.Stats.Truncated = true
			break
		}
		sg.Nodes[n.ID] = n
		sg.EntryPoints = append(sg.EntryPoints, n.ID)
		queue = append(queue, queued{node: n, depth: 0})
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		sg.Stats.NodesVisited++
		if current.depth > sg.Stats.MaxDepthHit {
			sg.Stats.MaxDepthHit = current.depth
		}
		if current.depth >= opts.MaxDepth {
			continue
		}

		edges, nextIDs, err := e.expand(current.node.ID, opts.Direction, wantedEdges)
		if err != nil {
			return nil, err
		}
		sg.Stats.EdgesWalked += len(edges)

		fresh := make([]string, 0, len(nextIDs))
		for _, id := range nextIDs {
			if _, ok := sg.Nodes[id]; !ok {
				fresh = append(fresh, id)
			}
		}
		nodes, err := e.store.GetNodesByIDs(fresh)
		if err != nil {
			return nil, err
		}
		sortNodesDeterministic(nodes)

		for _, n := range nodes {
			if wantedNodes != nil && !wantedNodes[n.Kind] {
				continue
			}
			if len(sg.Nodes) >= opts.MaxNodes {
				sg.Stats.Truncated = true
				break
			}
			sg.Nodes[n.ID] = n
			queue = append(queue, queued{node: n, depth: current.depth + 1})
		}

		for _, edge := range edges {
			_, haveSource := sg.Nodes[edge.SourceID]
			_, haveTarget := sg.Nodes[edge.TargetID]
			if haveSource && haveTarget {
				sg.Edges = append(sg.Edges, edge)
			}
		}
	}

	sort.Slice(sg.Edges, func(i, j int) bool {
		a, b := sg.Edges[i], sg.Edges[j]
		if a.SourceID != b.SourceID {
			return a.SourceID < b.SourceID
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.TargetID < b.TargetID
	})
	return sg, nil
}

// expand lists the resolved edges of one node in the requested direction
// and the neighbor ids they lead to.
func (e *Engine) expand(id string, dir Direction, wanted map[store.EdgeKind]bool) ([]*store.Edge, []string, error) {
	var edges []*store.Edge
	if dir == Outbound || dir == Both {
		out, err := e.store.GetEdgesFrom(id)
		if err != nil {
			return nil, nil, err
		}
		edges = append(edges, out...)
	}
	if dir == Inbound || dir == Both {
		in, err := e.store.GetEdgesTo(id)
		if err != nil {
			return nil, nil, err
		}
		edges = append(edges, in...)
	}

	var kept []*store.Edge
	var next []string
	for _, edge := range edges {
		if !edge.Resolved {
			continue
		}
		if len(wanted) > 0 && !wanted[edge.Kind] {
			continue
		}
		kept = append(kept, edge)
		if edge.SourceID != id {
			next = append(next, edge.SourceID)
		}
		if edge.TargetID != id && edge.TargetID != "" {
			next = append(next, edge.TargetID)
		}
	}
	return kept, next, nil
}

// ImpactRadius returns the nodes that could be affected by a change to id:
// the inbound transitive closure over the dependency kinds, bounded like
// any traversal.
func (e *Engine) ImpactRadius(id string, opts TraverseOptions) (*Subgraph, error) {
	opts.Direction = Inbound
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if len(opts.EdgeKinds) == 0 {
		opts.EdgeKinds = DependencyKinds
	}
	return e.Traverse([]string{id}, opts)
}

// Path is one simple path between two nodes.
type Path struct {
	NodeIDs []string `json:"node_ids"`
}

// FindPaths enumerates up to maxPaths simple paths from one node to
// another, shortest first, each no longer than maxDepth edges.
func (e *Engine) FindPaths(from, to string, maxDepth, maxPaths int) ([]Path, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth * 2
	}
	if maxPaths <= 0 {
		maxPaths = 5
	}

	var paths []Path
	onPath := map[string]bool{from: true}
	trail := []string{from}

	var dfs func(current string, depth int) error
	dfs = func(current string, depth int) error {
		if len(paths) >= maxPaths*4 {
			return nil
		}
		if current == to {
			paths = append(paths, Path{NodeIDs: append([]string{}, trail...)})
			return nil
		}
		if depth >= maxDepth {
			return nil
		}

		edges, err := e.store.GetEdgesFrom(current)
		if err != nil {
			return err
		}
		var nexts []string
		for _, edge := range edges {
			if edge.Resolved && edge.TargetID != "" && !onPath[edge.TargetID] {
				nexts = append(nexts, edge.TargetID)
			}
		}
		sort.Strings(nexts)

		for _, next := range nexts {
			onPath[next] = true
			trail = append(trail, next)
			if err := dfs(next, depth+1); err != nil {
				return err
			}
			trail = trail[:len(trail)-1]
			delete(onPath, next)
		}
		return nil
	}

	if err := dfs(from, 0); err != nil {
		return nil, err
	}

	// Shortest first, then lexicographic for determinism.
	sort.SliceStable(paths, func(i, j int) bool {
		if len(paths[i].NodeIDs) != len(paths[j].NodeIDs) {
			return len(paths[i].NodeIDs) < len(paths[j].NodeIDs)
		}
		for k := range paths[i].NodeIDs {
			if paths[i].NodeIDs[k] != paths[j].NodeIDs[k] {
				return paths[i].NodeIDs[k] < paths[j].NodeIDs[k]
			}
		}
		return false
	})
	if len(paths) > maxPaths {
		paths = paths[:maxPaths]
	}
	return paths, nil
}
