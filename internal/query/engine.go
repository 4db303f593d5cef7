// Package query answers graph questions over the store: direct-edge
// lookups, bounded breadth-first traversal, impact radius, path search, and
// ranked lexical search.
package query

import (
	"sort"

	"github.com/ravescovi/codegraph/internal/store"
)

// Defaults bounding every traversal.
const (
	DefaultMaxDepth = 2
	DefaultMaxNodes = 50
)

// DependencyKinds is the edge-kind union used by Dependencies, Dependents,
// and the context builder's expansion.
var DependencyKinds = []store.EdgeKind{
	store.EdgeImports,
	store.EdgeCalls,
	store.EdgeExtends,
	store.EdgeImplements,
	store.EdgeReferences,
}

// Engine answers queries over one store.
type Engine struct {
	store *store.Store
}

// New creates a query engine.
func New(s *store.Store) *Engine {
	return &Engine{store: s}
}

// Store exposes the underlying store to collaborators.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Callers returns the direct callers of a node.
func (e *Engine) Callers(id string) ([]*store.Node, error) {
	return e.neighbors(id, directionIn, []store.EdgeKind{store.EdgeCalls})
}

// Callees returns the nodes a node directly calls.
func (e *Engine) Callees(id string) ([]*store.Node, error) {
	return e.neighbors(id, directionOut, []store.EdgeKind{store.EdgeCalls})
}

// Dependencies returns the direct outbound neighbors over the dependency
// kinds.
func (e *Engine) Dependencies(id string) ([]*store.Node, error) {
	return e.neighbors(id, directionOut, DependencyKinds)
}

// Dependents returns the direct inbound neighbors over the dependency
// kinds.
func (e *Engine) Dependents(id string) ([]*store.Node, error) {
	return e.neighbors(id, directionIn, DependencyKinds)
}

type direction int

const (
	directionOut direction = iota
	directionIn
)

func (e *Engine) neighbors(id string, dir direction, kinds []store.EdgeKind) ([]*store.Node, error) {
	var edges []*store.Edge
	var err error
	if dir == directionOut {
		edges, err = e.store.GetEdgesFrom(id)
	} else {
		edges, err = e.store.GetEdgesTo(id)
	}
	if err != nil {
		return nil, err
	}

	wanted := kindSet(kinds)
	seen := make(map[string]bool)
	var ids []string
	for _, edge := range edges {
		if !wanted[edge.Kind] || !edge.Resolved {
			continue
		}
		other := edge.TargetID
		if dir == directionIn {
			other = edge.SourceID
		}
		if other == "" || seen[other] {
			continue
		}
		seen[other] = true
		ids = append(ids, other)
	}
	return e.store.GetNodesByIDs(ids)
}

func kindSet(kinds []store.EdgeKind) map[store.EdgeKind]bool {
	s := make(map[store.EdgeKind]bool, len(kinds))
	for _, k := range kinds {
		s[k] = true
	}
	return s
}

func nodeKindSet(kinds []store.NodeKind) map[store.NodeKind]bool {
	if len(kinds) == 0 {
		return nil
	}
	s := make(map[store.NodeKind]bool, len(kinds))
	for _, k := range kinds {
		s[k] = true
	}
	return s
}

// sortNodesDeterministic orders nodes by kind bonus, then path length, then
// id; the tie-break used across traversal and search.
func sortNodesDeterministic(nodes []*store.Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		ba, bb := kindBonus(a.Kind), kindBonus(b.Kind)
		if ba != bb {
			return ba > bb
		}
		if len(a.FilePath) != len(b.FilePath) {
			return len(a.FilePath) < len(b.FilePath)
		}
		return a.ID < b.ID
	})
}
