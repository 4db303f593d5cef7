package index

import (
	"context"
	"sort"
	"strings"

	"github.com/ravescovi/codegraph/internal/store"
)

// Resolve ties pending references to concrete nodes for a set of freshly
// indexed paths. Two directions matter: references recorded in those files,
// and references elsewhere that name entities the files now define. Names
// with no match become unresolved edges carrying the raw text; that is an
// outcome, not an error.
func (ix *Indexer) Resolve(ctx context.Context, paths []string) error {
	var edges []*store.Edge

	newNames := make(map[string]bool)
	for _, rel := range paths {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		refs, err := ix.store.GetUnresolvedRefsByFile(rel)
		if err != nil {
			return err
		}
		for _, ref := range refs {
			edge, err := ix.resolveRef(ref)
			if err != nil {
				return err
			}
			if edge != nil {
				edges = append(edges, edge)
			}
		}

		nodes, err := ix.store.GetNodesByFile(rel)
		if err != nil {
			return err
		}
		for _, n := range nodes {
			newNames[n.Name] = true
		}
	}

	// Re-link references elsewhere that point at names these files define;
	// their previous targets may have moved or just come into existence.
	for name := range newNames {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		refs, err := ix.store.GetUnresolvedRefsByName(name)
		if err != nil {
			return err
		}
		for _, ref := range refs {
			edge, err := ix.resolveRef(ref)
			if err != nil {
				return err
			}
			if edge != nil && edge.Resolved {
				edges = append(edges, edge)
			}
		}
	}

	if err := ix.store.InsertEdges(edges); err != nil {
		return err
	}

	// Re-indexing moves node ids when lines shift; drop resolved edges that
	// now point at nothing.
	_, err := ix.store.DeleteDanglingResolvedEdges()
	return err
}

// resolveRef turns one pending reference into an edge. Imports stay
// unresolved by design: their targets are module paths, not graph nodes.
func (ix *Indexer) resolveRef(ref *store.UnresolvedRef) (*store.Edge, error) {
	edge := &store.Edge{
		SourceID:   ref.FromNodeID,
		Kind:       ref.ReferenceKind,
		TargetName: ref.ReferenceName,
		LineNumber: ref.Line,
	}

	if ref.ReferenceKind == store.EdgeImports {
		return edge, nil
	}

	target, err := ix.findTarget(ref)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return edge, nil
	}
	if target.ID == ref.FromNodeID {
		// Direct recursion still counts as an edge; anything else pointing
		// at itself is a self-name collision and gets dropped.
		if ref.ReferenceKind != store.EdgeCalls {
			return nil, nil
		}
	}
	edge.TargetID = target.ID
	edge.Resolved = true
	return edge, nil
}

// findTarget picks the node a reference points at: exact name match,
// preferring the kind kindPreference ranks highest (callables for calls,
// types for inheritance), then the same file, then the smallest id for
// determinism.
func (ix *Indexer) findTarget(ref *store.UnresolvedRef) (*store.Node, error) {
	name := ref.ReferenceName
	// Scoped references resolve on their final segment.
	if i := strings.LastIndex(name, "::"); i >= 0 {
		name = name[i+2:]
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}

	candidates, err := ix.store.GetNodesByName(name)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		ka, kb := kindPreference(ref.ReferenceKind, a.Kind), kindPreference(ref.ReferenceKind, b.Kind)
		if ka != kb {
			return ka > kb
		}
		sameA, sameB := a.FilePath == ref.FilePath, b.FilePath == ref.FilePath
		if sameA != sameB {
			return sameA
		}
		return a.ID < b.ID
	})
	return candidates[0], nil
}

// kindPreference ranks candidate kinds per reference kind: calls want
// callables, inheritance wants types.
func kindPreference(refKind store.EdgeKind, kind store.NodeKind) int {
	switch refKind {
	case store.EdgeCalls, store.EdgeInstantiates:
		switch kind {
		case store.KindFunction, store.KindMethod:
			return 2
		case store.KindClass, store.KindStruct:
			// Constructor calls land on the type.
			return 1
		}
	case store.EdgeExtends, store.EdgeImplements:
		switch kind {
		case store.KindClass, store.KindStruct, store.KindInterface, store.KindTrait, store.KindProtocol:
			return 2
		}
	}
	return 0
}
