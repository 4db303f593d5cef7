// Package contextual assembles a bounded, task-relevant subgraph: lexical
// search picks entry points, bounded traversal expands them, and code
// excerpts are read from disk under hard size caps.
package contextual

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/ravescovi/codegraph/internal/embeddings"
	"github.com/ravescovi/codegraph/internal/query"
	"github.com/ravescovi/codegraph/internal/store"
)

// Option defaults; every bound is a hard cap.
const (
	DefaultSearchLimit      = 10
	DefaultTraversalDepth   = 2
	DefaultMaxNodes         = 50
	DefaultMaxCodeBlocks    = 5
	DefaultMaxCodeBlockSize = 4000
)

// truncationMarker ends a code block cut short by MaxCodeBlockSize.
const truncationMarker = "\n// ... truncated ..."

// Options bounds context assembly.
type Options struct {
	SearchLimit      int
	TraversalDepth   int
	MaxNodes         int
	MaxCodeBlocks    int
	MaxCodeBlockSize int
}

// DefaultOptions returns the standard bounds.
func DefaultOptions() Options {
	return Options{
		SearchLimit:      DefaultSearchLimit,
		TraversalDepth:   DefaultTraversalDepth,
		MaxNodes:         DefaultMaxNodes,
		MaxCodeBlocks:    DefaultMaxCodeBlocks,
		MaxCodeBlockSize: DefaultMaxCodeBlockSize,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.SearchLimit <= 0 {
		o.SearchLimit = d.SearchLimit
	}
	if o.TraversalDepth <= 0 {
		o.TraversalDepth = d.TraversalDepth
	}
	if o.MaxNodes <= 0 {
		o.MaxNodes = d.MaxNodes
	}
	if o.MaxCodeBlocks <= 0 {
		o.MaxCodeBlocks = d.MaxCodeBlocks
	}
	if o.MaxCodeBlockSize <= 0 {
		o.MaxCodeBlockSize = d.MaxCodeBlockSize
	}
	return o
}

// EntryPoint is one search hit chosen as a traversal root.
type EntryPoint struct {
	Node  *store.Node `json:"node"`
	Score float64     `json:"score"`
}

// CodeBlock is a source excerpt for one entry point.
type CodeBlock struct {
	NodeID    string `json:"node_id"`
	Name      string `json:"name"`
	Path      string `json:"path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Content   string `json:"content"`
	Truncated bool   `json:"truncated,omitempty"`
}

// Context is the assembled result.
type Context struct {
	Query         string                   `json:"query"`
	Terms         []string                 `json:"terms"`
	EntryPoints   []EntryPoint             `json:"entry_points"`
	RelatedByFile map[string][]*store.Node `json:"related_by_file"`
	CodeBlocks    []CodeBlock              `json:"code_blocks"`
	NodeCount     int                      `json:"node_count"`
	SemanticUsed  bool                     `json:"semantic_used,omitempty"`
}

// Builder assembles contexts for one project.
type Builder struct {
	engine   *query.Engine
	embedder embeddings.Embedder
	root     string
}

// New creates a builder. embedder may be nil; semantic reranking is
// optional.
func New(engine *query.Engine, embedder embeddings.Embedder, root string) *Builder {
	return &Builder{engine: engine, embedder: embedder, root: root}
}

// Build assembles the context for a task description.
func (b *Builder) Build(ctx context.Context, task string, opts Options) (*Context, error) {
	opts = opts.withDefaults()

	terms := query.ExtractTerms(task)
	result := &Context{
		Query:         task,
		Terms:         terms,
		RelatedByFile: make(map[string][]*store.Node),
	}

	hits, err := b.engine.Search(task, query.SearchOptions{Limit: opts.SearchLimit * 3})
	if err != nil {
		return nil, err
	}

	hits, result.SemanticUsed = b.rerank(ctx, task, hits)
	if len(hits) > opts.SearchLimit {
		hits = hits[:opts.SearchLimit]
	}

	starts := make([]string, 0, len(hits))
	for _, h := range hits {
		result.EntryPoints = append(result.EntryPoints, EntryPoint{Node: h.Node, Score: h.Score})
		starts = append(starts, h.Node.ID)
	}
	if len(starts) == 0 {
		return result, nil
	}

	sg, err := b.engine.Traverse(starts, query.TraverseOptions{
		MaxDepth:  opts.TraversalDepth,
		MaxNodes:  opts.MaxNodes,
		Direction: query.Both,
		EdgeKinds: query.DependencyKinds,
	})
	if err != nil {
		return nil, err
	}
	result.NodeCount = len(sg.Nodes)

	entrySet := make(map[string]bool, len(starts))
	for _, id := range starts {
		entrySet[id] = true
	}
	for id, n := range sg.Nodes {
		if entrySet[id] {
			continue
		}
		result.RelatedByFile[n.FilePath] = append(result.RelatedByFile[n.FilePath], n)
	}
	for _, nodes := range result.RelatedByFile {
		sort.Slice(nodes, func(i, j int) bool { return nodes[i].StartLine < nodes[j].StartLine })
	}

	// Code blocks come from entry points only, never from expansion nodes.
	for _, ep := range result.EntryPoints {
		if len(result.CodeBlocks) >= opts.MaxCodeBlocks {
			break
		}
		block, err := b.readBlock(ep.Node, opts.MaxCodeBlockSize)
		if err != nil {
			log.WithError(err).WithField("file", ep.Node.FilePath).Debug("code block unavailable")
			continue
		}
		result.CodeBlocks = append(result.CodeBlocks, block)
	}

	return result, nil
}

// rerank merges the lexical order with semantic similarity by reciprocal
// rank fusion. Collaborator failures degrade to lexical-only.
func (b *Builder) rerank(ctx context.Context, task string, hits []query.SearchResult) ([]query.SearchResult, bool) {
	if b.embedder == nil || len(hits) < 2 {
		return hits, false
	}

	taskVec, err := b.embedder.Embed(ctx, task)
	if err != nil {
		log.WithError(err).Debug("semantic rerank unavailable")
		return hits, false
	}

	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = embeddingText(h.Node)
	}
	vectors, err := b.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		log.WithError(err).Debug("semantic rerank unavailable")
		return hits, false
	}

	type scored struct {
		hit query.SearchResult
		sim float64
	}
	semantic := make([]scored, len(hits))
	for i, h := range hits {
		semantic[i] = scored{hit: h, sim: embeddings.CosineSimilarity(taskVec, vectors[i])}
	}
	bySim := append([]scored{}, semantic...)
	sort.SliceStable(bySim, func(i, j int) bool { return bySim[i].sim > bySim[j].sim })

	// Reciprocal rank fusion with the conventional k=60.
	const k = 60
	fused := make(map[string]float64, len(hits))
	for rank, h := range hits {
		fused[h.Node.ID] += 1.0 / float64(k+rank+1)
	}
	for rank, s := range bySim {
		fused[s.hit.Node.ID] += 1.0 / float64(k+rank+1)
	}

	merged := append([]query.SearchResult{}, hits...)
	sort.SliceStable(merged, func(i, j int) bool {
		fi, fj := fused[merged[i].Node.ID], fused[merged[j].Node.ID]
		if fi != fj {
			return fi > fj
		}
		return merged[i].Node.ID < merged[j].Node.ID
	})
	return merged, true
}

// embeddingText is what the collaborator sees for a node.
func embeddingText(n *store.Node) string {
	parts := []string{string(n.Kind), n.Name, n.Signature, n.Docstring}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// readBlock loads the node's source slice from disk, honoring the size cap
// with a truncation marker.
func (b *Builder) readBlock(n *store.Node, maxSize int) (CodeBlock, error) {
	block := CodeBlock{
		NodeID:    n.ID,
		Name:      n.Name,
		Path:      n.FilePath,
		StartLine: n.StartLine,
		EndLine:   n.EndLine,
	}

	data, err := os.ReadFile(filepath.Join(b.root, filepath.FromSlash(n.FilePath)))
	if err != nil {
		return block, err
	}
	lines := strings.Split(string(data), "\n")
	if n.StartLine < 1 || n.StartLine > len(lines) {
		return block, fmt.Errorf("start line %d outside file", n.StartLine)
	}
	end := n.EndLine
	if end > len(lines) {
		end = len(lines)
	}
	content := strings.Join(lines[n.StartLine-1:end], "\n")
	if len(content) > maxSize {
		cut := maxSize - len(truncationMarker)
		if cut < 0 {
			cut = 0
		}
		content = content[:cut] + truncationMarker
		block.Truncated = true
	}
	block.Content = content
	return block, nil
}
