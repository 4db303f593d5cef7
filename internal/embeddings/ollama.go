package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

const (
	// DefaultModel is the embedding model used when none is configured.
	DefaultModel = "all-minilm"
	// DefaultOllamaURL is the default Ollama API endpoint.
	DefaultOllamaURL = "http://localhost:11434"
	// embeddingDimensions is the output dimension of all-minilm.
	embeddingDimensions = 384
)

// OllamaEmbedder implements Embedder against a local Ollama instance.
type OllamaEmbedder struct {
	client  *http.Client
	baseURL string
	model   string
}

type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"` // string or []string
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewOllamaEmbedder creates an embedder for the given model; an empty model
// falls back to DefaultModel. The endpoint comes from OLLAMA_HOST, or
// DefaultOllamaURL when that is unset.
func NewOllamaEmbedder(model string) *OllamaEmbedder {
	baseURL := os.Getenv("OLLAMA_HOST")
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &OllamaEmbedder{
		client:  &http.Client{Timeout: 60 * time.Second},
		baseURL: baseURL,
		model:   model,
	}
}

// Embed generates an embedding vector for the given text.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.doEmbed(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, &VectorError{Op: "embed", Err: fmt.Errorf("no embeddings returned")}
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one request.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := e.doEmbed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, &VectorError{Op: "embed batch", Err: fmt.Errorf("got %d embeddings for %d texts", len(vectors), len(texts))}
	}
	return vectors, nil
}

func (e *OllamaEmbedder) doEmbed(ctx context.Context, input any) ([][]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: e.model, Input: input})
	if err != nil {
		return nil, &VectorError{Op: "marshal request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, &VectorError{Op: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, &VectorError{Op: "call ollama", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &VectorError{Op: "call ollama", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var parsed ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &VectorError{Op: "decode response", Err: err}
	}
	return parsed.Embeddings, nil
}

// ModelVersion returns the model identifier.
func (e *OllamaEmbedder) ModelVersion() string {
	return e.model
}

// Dimensions returns the embedding vector dimension.
func (e *OllamaEmbedder) Dimensions() int {
	return embeddingDimensions
}

// Close releases resources; the HTTP client holds none worth freeing.
func (e *OllamaEmbedder) Close() error {
	return nil
}
