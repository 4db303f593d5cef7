// Package embeddings defines the optional semantic collaborator. The
// engine works fully without it; when configured, the context builder uses
// it to rerank lexical candidates by similarity to the task description.
package embeddings

import (
	"context"
	"fmt"
	"math"
)

// Embedder generates vector embeddings from text.
type Embedder interface {
	// Embed generates an embedding vector for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// ModelVersion returns the model identifier for cache invalidation.
	ModelVersion() string

	// Dimensions returns the embedding vector dimension.
	Dimensions() int

	// Close releases resources held by the embedder.
	Close() error
}

// VectorError wraps a collaborator failure. Callers degrade to
// lexical-only behavior on it.
type VectorError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *VectorError) Error() string {
	return fmt.Sprintf("embeddings: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *VectorError) Unwrap() error {
	return e.Err
}

// CosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched or empty vectors score zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
