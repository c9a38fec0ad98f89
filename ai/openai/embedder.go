package openai

import (
	"log/slog"

	"github.com/poiesic/storyboard/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// noneToken is sent to local OpenAI-compatible services that don't require
// authentication.
const noneToken = "none"

func token(key string) string {
	if key == "" {
		return noneToken
	}
	return key
}

// newEmbeddingClient builds the langchaingo client that backs the embedder.
func newEmbeddingClient(config *ai.Config) (*openai.LLM, error) {
	opts := []openai.Option{
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken(token(config.OpenAIAPIKey)),
		openai.WithEmbeddingModel(config.EmbeddingScheme.Model),
	}
	// text-embedding-3 models return the requested width
	if config.EmbeddingScheme.Dimensions > 0 {
		opts = append(opts, openai.WithEmbeddingDimensions(config.EmbeddingScheme.Dimensions))
	}
	return openai.New(opts...)
}

// NewEmbedder creates a scheme-checked embedder backed by an
// OpenAI-compatible embedding API.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := newEmbeddingClient(config)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client,
		embeddings.WithStripNewLines(true),
		embeddings.WithBatchSize(config.EmbeddingBatchSize),
	)
	if err != nil {
		return nil, err
	}

	return ai.NewCheckedEmbedder(embedder, config.EmbeddingScheme,
		slog.Default().With("component", "openai-embedder"))
}
