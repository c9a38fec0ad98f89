package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/poiesic/storyboard/ai"
	"github.com/poiesic/storyboard/core"
	"github.com/poiesic/storyboard/storage"
)

// StoreSink inserts each storyboard into a repository and embeds the text
// found at a content field.
type StoreSink struct {
	repo      storage.StoryboardRepository
	embedder  ai.Embedder
	fieldPath string
	logger    *slog.Logger
}

var _ Sink = (*StoreSink)(nil)

// NewStoreSink creates a store sink. An empty fieldPath selects
// core.DefaultEmbeddingField.
func NewStoreSink(repo storage.StoryboardRepository, embedder ai.Embedder, fieldPath string, logger *slog.Logger) (*StoreSink, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if fieldPath == "" {
		fieldPath = core.DefaultEmbeddingField
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreSink{
		repo:      repo,
		embedder:  embedder,
		fieldPath: fieldPath,
		logger:    logger.With("sink", "store"),
	}, nil
}

// Put inserts content, then writes its embedding. A storyboard with no text
// at the field is stored unembedded; reindexing picks it up once the field
// is filled.
func (s *StoreSink) Put(ctx context.Context, source string, content json.RawMessage) (core.ID, error) {
	id, err := s.repo.Insert(ctx, content)
	if err != nil {
		return 0, err
	}

	text := core.FieldText(content, s.fieldPath)
	if text == "" {
		s.logger.Warn("no text to embed, stored without embedding", "source", source, "id", id, "field", s.fieldPath)
		return id, nil
	}

	vector, err := s.embedder.EmbedText(ctx, text)
	if err == nil {
		err = s.repo.UpsertEmbedding(ctx, id, vector, s.embedder.Scheme().Version)
	}
	if err != nil {
		s.logger.Error("error embedding storyboard", "source", source, "id", id, "err", err)
		return id, fmt.Errorf("%w (id %d): %w", ErrNotEmbedded, id, err)
	}

	s.logger.Debug("stored storyboard", "source", source, "id", id)
	return id, nil
}
