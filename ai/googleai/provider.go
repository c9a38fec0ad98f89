// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package googleai

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/storyboard/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/googleai"
)

// newClient opens a Gemini client configured from config. The key is taken
// from config only; an empty key is rejected by ai.Config.Validate.
func newClient(ctx context.Context, config *ai.Config) (*googleai.GoogleAI, error) {
	client, err := googleai.New(ctx,
		googleai.WithAPIKey(config.GoogleAPIKey),
		googleai.WithDefaultModel(config.ConverterModel),
		googleai.WithDefaultEmbeddingModel(config.EmbeddingScheme.Model),
	)
	if err != nil {
		if client != nil {
			client.Close()
		}
		return nil, fmt.Errorf("googleai: %w", err)
	}
	return client, nil
}

func converterFor(client *googleai.GoogleAI, config *ai.Config) ai.Converter {
	return ai.NewLLMConverter(client,
		ai.WithMaxInputChars(config.MaxInputChars),
		ai.WithTemperature(config.Temperature),
		ai.WithJSONMode(config.JSONMode),
		ai.WithConverterLogger(slog.Default().With("component", "googleai-converter")),
	)
}

func embedderFor(client *googleai.GoogleAI, config *ai.Config) (ai.Embedder, error) {
	embedder, err := embeddings.NewEmbedder(client,
		embeddings.WithStripNewLines(true),
		embeddings.WithBatchSize(config.EmbeddingBatchSize),
	)
	if err != nil {
		return nil, err
	}
	return ai.NewCheckedEmbedder(embedder, config.EmbeddingScheme,
		slog.Default().With("component", "googleai-embedder"))
}

// NewConverter creates a Gemini-backed storyboard converter. The returned
// closer releases the underlying client.
func NewConverter(ctx context.Context, config *ai.Config) (ai.Converter, io.Closer, error) {
	if err := config.Validate(); err != nil {
		return nil, nil, err
	}
	client, err := newClient(ctx, config)
	if err != nil {
		return nil, nil, err
	}
	return converterFor(client, config), client, nil
}

// NewEmbedder creates a Gemini-backed, scheme-checked embedder. The returned
// closer releases the underlying client.
func NewEmbedder(ctx context.Context, config *ai.Config) (ai.Embedder, io.Closer, error) {
	if err := config.Validate(); err != nil {
		return nil, nil, err
	}
	client, err := newClient(ctx, config)
	if err != nil {
		return nil, nil, err
	}
	embedder, err := embedderFor(client, config)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return embedder, client, nil
}

// NewProvider creates an AI provider whose converter and embedder share one
// Gemini client.
func NewProvider(ctx context.Context, config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.ConverterProvider != ai.ProviderGoogleAI || config.EmbeddingProvider != ai.ProviderGoogleAI {
		return nil, fmt.Errorf("googleai provider: both services must use %q", ai.ProviderGoogleAI)
	}

	client, err := newClient(ctx, config)
	if err != nil {
		return nil, err
	}
	embedder, err := embedderFor(client, config)
	if err != nil {
		client.Close()
		return nil, err
	}
	return ai.NewProvider(converterFor(client, config), embedder, client), nil
}
