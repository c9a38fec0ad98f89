package search

import (
	"context"
	"log/slog"

	"github.com/poiesic/storyboard/ai"
	"github.com/poiesic/storyboard/core"
	"github.com/poiesic/storyboard/storage"
)

// Searcher ranks stored storyboards by similarity to a query text.
type Searcher struct {
	repo     storage.StoryboardRepository
	embedder ai.Embedder
	cache    *queryCache
	monitor  SearchMonitor
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithQueryCache keeps the embeddings of the size most recent queries.
func WithQueryCache(size int) Option {
	return func(s *Searcher) error {
		c, err := newQueryCache(size)
		if err != nil {
			return err
		}
		s.cache = c
		return nil
	}
}

// WithMonitor reports the stages of every search to monitor.
func WithMonitor(monitor SearchMonitor) Option {
	return func(s *Searcher) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		s.monitor = monitor
		return nil
	}
}

// NewSearcher creates a new searcher. embedder must produce vectors of the
// scheme used when the storyboards were indexed.
func NewSearcher(repo storage.StoryboardRepository, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		repo:     repo,
		embedder: embedder,
		monitor:  &noopMonitor{},
		logger:   slog.Default().With("component", "searcher"),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search returns up to k storyboards ranked by similarity to query, highest
// score first. An empty store yields an empty, non-nil slice.
func (s *Searcher) Search(ctx context.Context, query string, k int) ([]*core.SearchResult, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}

	s.monitor.Start(query, k)

	vector, cached, err := s.embed(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "err", err)
		return nil, err
	}
	s.monitor.AfterEmbedding(len(vector), cached)

	eligible, err := s.repo.CountEligible(ctx, len(vector))
	if err != nil {
		s.logger.Error("error counting searchable records", "err", err)
		return nil, err
	}
	k = min(k, eligible)
	s.monitor.AfterEligibility(eligible, k)

	if k == 0 {
		results := []*core.SearchResult{}
		s.monitor.Finish(results)
		return results, nil
	}

	results, err := s.repo.SimilaritySearch(ctx, vector, k)
	if err != nil {
		s.logger.Error("error querying for similar records", "err", err)
		return nil, err
	}

	s.logger.Debug("search complete", "k", k, "eligible", eligible, "results", len(results))
	s.monitor.Finish(results)
	return results, nil
}

func (s *Searcher) embed(ctx context.Context, query string) ([]float32, bool, error) {
	load := func(ctx context.Context) ([]float32, error) {
		return s.embedder.EmbedText(ctx, query)
	}
	if s.cache == nil {
		v, err := load(ctx)
		return v, false, err
	}
	// keys carry the scheme version
	return s.cache.get(ctx, s.embedder.Scheme().Version+"\x00"+query, load)
}
