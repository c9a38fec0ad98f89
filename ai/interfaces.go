package ai

import (
	"context"
	"encoding/json"

	"github.com/poiesic/storyboard/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Empty or whitespace-only text fails with ErrEmptyInput.
	// The returned vector always has Scheme().Dimensions elements.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any text is empty or any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// Scheme identifies the model and dimensionality of produced vectors.
	Scheme() core.Scheme
}

// Converter turns extracted document text into storyboard JSON.
// Implementations must be thread-safe for concurrent use.
type Converter interface {
	// Convert calls the generative model once and returns the parsed
	// storyboard object. A reply that is not JSON after fence stripping
	// fails with ErrMalformedModelOutput and is not retried.
	Convert(ctx context.Context, text string) (json.RawMessage, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Converter returns the storyboard conversion service.
	Converter() Converter

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
