package ai

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/poiesic/storyboard/core"
	"github.com/tmc/langchaingo/embeddings"
)

// CheckedEmbedder enforces the Embedder contract around a langchaingo
// embedder: no empty inputs, one vector per input, every vector exactly
// as wide as the scheme declares.
type CheckedEmbedder struct {
	inner  embeddings.Embedder
	scheme core.Scheme
	logger *slog.Logger
}

var _ Embedder = (*CheckedEmbedder)(nil)

// NewCheckedEmbedder wraps inner for the given scheme.
func NewCheckedEmbedder(inner embeddings.Embedder, scheme core.Scheme, logger *slog.Logger) (*CheckedEmbedder, error) {
	if err := scheme.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CheckedEmbedder{
		inner:  inner,
		scheme: scheme,
		logger: logger.With("scheme", scheme.Version),
	}, nil
}

// Scheme returns the embedding scheme of produced vectors.
func (e *CheckedEmbedder) Scheme() core.Scheme {
	return e.scheme
}

// EmbedText generates a vector embedding for a single text string.
func (e *CheckedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	e.logger.Debug("generating embedding for single text", "length", len(text))

	vectors, err := e.inner.EmbedDocuments(ctx, []string{text})
	if err != nil {
		e.logger.Error("failed to generate embedding", "err", err)
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: got %d, want 1", ErrEmbeddingCount, len(vectors))
	}
	if err := e.scheme.CheckVector(vectors[0]); err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings.
func (e *CheckedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, &EmptyInputError{Index: i}
		}
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	// langchaingo may rewrite the slice in place when stripping newlines
	vectors, err := e.inner.EmbedDocuments(ctx, slices.Clone(texts))
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrEmbeddingCount, len(vectors), len(texts))
	}
	for i, v := range vectors {
		if err := e.scheme.CheckVector(v); err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
	}
	return vectors, nil
}
