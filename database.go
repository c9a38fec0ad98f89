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
// Package storyboard wires the storyboard store and the AI services
// described by a config.Config into ready-to-use pipelines.
package storyboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/poiesic/storyboard/ai"
	"github.com/poiesic/storyboard/ai/googleai"
	"github.com/poiesic/storyboard/ai/openai"
	"github.com/poiesic/storyboard/config"
	"github.com/poiesic/storyboard/core"
	"github.com/poiesic/storyboard/extract"
	"github.com/poiesic/storyboard/ingestion"
	"github.com/poiesic/storyboard/reembed"
	"github.com/poiesic/storyboard/search"
	"github.com/poiesic/storyboard/storage"
	"github.com/poiesic/storyboard/storage/badger"
	"github.com/poiesic/storyboard/storage/postgres"
)

var (
	// ErrProviderRequired is returned by operations that need the AI services
	// when the database was opened WithoutProvider.
	ErrProviderRequired = errors.New("AI provider required")

	// ErrSchemaUnsupported is returned by schema operations on a store
	// without a fixed embedding width.
	ErrSchemaUnsupported = errors.New("schema operations require the postgres store")

	// ErrStoreRequired is returned by operations that read or write stored
	// storyboards when the database was opened WithoutStore.
	ErrStoreRequired = errors.New("storyboard store required")
)

type Database struct {
	cfg         *config.Config
	schemes     *core.SchemeRegistry
	aiConfig    *ai.Config
	pool        *pgxpool.Pool
	pgRepo      *postgres.StoryboardRepository
	backend     *badger.Backend
	storyboards storage.StoryboardRepository
	ledger      storage.LedgerRepository
	provider    ai.AIProvider
	extractor   extract.Extractor
	logger      *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	provider   ai.AIProvider
	noProvider bool
	noStore    bool
}

// WithProvider uses provider in place of the services named by the config.
// The Database takes ownership and closes it.
func WithProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithoutStore opens only the AI provider. Converting documents into a
// directory of JSON files needs nothing else.
func WithoutStore() DatabaseOption {
	return func(o *databaseOptions) {
		o.noStore = true
	}
}

// WithoutProvider opens only the store. Schema and read-only commands use it
// so they need no API keys.
func WithoutProvider() DatabaseOption {
	return func(o *databaseOptions) {
		o.noProvider = true
	}
}

// NewDatabase opens the configured store and AI provider. cfg must already
// be validated.
func NewDatabase(ctx context.Context, cfg *config.Config, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{}
	for _, opt := range opts {
		opt(options)
	}

	schemes, err := cfg.SchemeRegistry()
	if err != nil {
		return nil, err
	}
	aiConfig, err := cfg.AIServiceConfig(schemes)
	if err != nil {
		return nil, err
	}

	db := &Database{
		cfg:       cfg,
		schemes:   schemes,
		aiConfig:  aiConfig,
		extractor: extract.New(),
		logger:    slog.Default().With("component", "database"),
	}

	if !options.noStore {
		if err := db.openStore(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}

	switch {
	case options.provider != nil:
		db.provider = options.provider
	case !options.noProvider:
		provider, err := NewProvider(ctx, aiConfig)
		if err != nil {
			db.Close()
			return nil, err
		}
		db.provider = provider
	}

	db.logger.Debug("database opened", "config", cfg)
	return db, nil
}

func (db *Database) openStore(ctx context.Context) error {
	switch db.cfg.Store.Backend {
	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, db.cfg.Store.DatabaseURL,
			postgres.WithMaxConns(db.cfg.Store.MaxConns),
			postgres.WithAfterConnect(postgres.RegisterVectorTypes),
		)
		if err != nil {
			return err
		}
		db.pool = pool

		if err := postgres.EnsureSchema(ctx, pool, db.aiConfig.EmbeddingScheme.Dimensions); err != nil {
			return err
		}
		repo, err := postgres.NewStoryboardRepository(ctx, pool, db.schemes)
		if err != nil {
			return err
		}
		db.pgRepo = repo
		db.storyboards = repo

		// the ingestion ledger is local to this machine
		backend, err := badger.OpenBackend(db.cfg.Store.LedgerPath, false)
		if err != nil {
			return fmt.Errorf("failed to open ledger: %w", err)
		}
		db.backend = backend
		db.ledger = badger.NewLedgerRepository(backend)
		return nil

	case config.BackendBadger:
		backend, err := badger.OpenBackend(db.cfg.Store.BadgerPath, false)
		if err != nil {
			return err
		}
		db.backend = backend
		repo, err := badger.NewStoryboardRepository(backend, db.schemes)
		if err != nil {
			return err
		}
		db.storyboards = repo
		db.ledger = badger.NewLedgerRepository(backend)
		return nil

	default:
		return fmt.Errorf("%w: unknown store backend %q", config.ErrInvalidConfig, db.cfg.Store.Backend)
	}
}

// NewProvider opens the converter and embedder named by aiConfig. The two
// services may come from different providers.
func NewProvider(ctx context.Context, aiConfig *ai.Config) (ai.AIProvider, error) {
	if err := aiConfig.Validate(); err != nil {
		return nil, err
	}

	switch {
	case aiConfig.ConverterProvider == ai.ProviderOpenAI && aiConfig.EmbeddingProvider == ai.ProviderOpenAI:
		return openai.NewProvider(aiConfig)
	case aiConfig.ConverterProvider == ai.ProviderGoogleAI && aiConfig.EmbeddingProvider == ai.ProviderGoogleAI:
		return googleai.NewProvider(ctx, aiConfig)
	}

	var closers []io.Closer
	closeAll := func() {
		for _, c := range closers {
			c.Close()
		}
	}

	var converter ai.Converter
	if aiConfig.ConverterProvider == ai.ProviderGoogleAI {
		conv, closer, err := googleai.NewConverter(ctx, aiConfig)
		if err != nil {
			return nil, err
		}
		converter = conv
		closers = append(closers, closer)
	} else {
		conv, err := openai.NewConverter(aiConfig)
		if err != nil {
			return nil, err
		}
		converter = conv
	}

	var embedder ai.Embedder
	if aiConfig.EmbeddingProvider == ai.ProviderGoogleAI {
		emb, closer, err := googleai.NewEmbedder(ctx, aiConfig)
		if err != nil {
			closeAll()
			return nil, err
		}
		embedder = emb
		closers = append(closers, closer)
	} else {
		emb, err := openai.NewEmbedder(aiConfig)
		if err != nil {
			closeAll()
			return nil, err
		}
		embedder = emb
	}

	return ai.NewProvider(converter, embedder, closers...), nil
}

func (db *Database) Close() error {
	var errs []error

	// Close AI provider first
	if db.provider != nil {
		if err := db.provider.Close(); err != nil {
			db.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}

	// Close repositories
	if db.storyboards != nil {
		if err := db.storyboards.Close(); err != nil {
			db.logger.Error("error closing storyboard repository", "err", err)
			errs = append(errs, err)
		}
	}
	if db.ledger != nil {
		if err := db.ledger.Close(); err != nil {
			db.logger.Error("error closing ledger", "err", err)
			errs = append(errs, err)
		}
	}

	// Close backends
	if db.pool != nil {
		db.pool.Close()
	}
	if db.backend != nil {
		if err := db.backend.Close(); err != nil {
			db.logger.Error("error closing backend storage", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (db *Database) Storyboards() storage.StoryboardRepository {
	return db.storyboards
}

func (db *Database) Ledger() storage.LedgerRepository {
	return db.ledger
}

// Config returns the configuration the database was opened with.
func (db *Database) Config() *config.Config {
	return db.cfg
}

func (db *Database) Schemes() *core.SchemeRegistry {
	return db.schemes
}

// Provider returns the AI provider, or nil when opened WithoutProvider.
func (db *Database) Provider() ai.AIProvider {
	return db.provider
}

// NewConvertPipeline returns a pipeline writing converted storyboards to outputDir.
func (db *Database) NewConvertPipeline(outputDir string, opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	if db.provider == nil {
		return nil, ErrProviderRequired
	}
	sink, err := ingestion.NewDirectorySink(outputDir)
	if err != nil {
		return nil, err
	}
	return ingestion.NewPipeline(db.extractor, db.provider.Converter(), sink, db.ingestOptions(false, opts)...)
}

// NewIngestionPipeline returns a pipeline that converts documents, stores
// them and embeds the configured field. The ledger skips sources ingested
// before unless force is set.
func (db *Database) NewIngestionPipeline(force bool, opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	sink, err := db.storeSink()
	if err != nil {
		return nil, err
	}
	return ingestion.NewPipeline(db.extractor, db.provider.Converter(), sink, db.ingestOptions(true, append(opts, ingestion.WithForce(force)))...)
}

// NewLoader returns a pipeline that stores and embeds previously converted
// storyboard JSON files.
func (db *Database) NewLoader(force bool, opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	sink, err := db.storeSink()
	if err != nil {
		return nil, err
	}
	return ingestion.NewLoader(sink, db.ingestOptions(true, append(opts, ingestion.WithForce(force)))...)
}

func (db *Database) storeSink() (*ingestion.StoreSink, error) {
	if db.storyboards == nil {
		return nil, ErrStoreRequired
	}
	if db.provider == nil {
		return nil, ErrProviderRequired
	}
	return ingestion.NewStoreSink(db.storyboards, db.provider.Embedder(), db.cfg.Ingest.FieldPath, nil)
}

func (db *Database) ingestOptions(withLedger bool, extra []ingestion.Option) []ingestion.Option {
	opts := []ingestion.Option{ingestion.WithPoolSize(db.cfg.Ingest.Workers)}
	if withLedger {
		opts = append(opts, ingestion.WithLedger(db.ledger))
	}
	return append(opts, extra...)
}

// NewReindexer returns a reindexing job configured from the reindex section.
func (db *Database) NewReindexer(progress io.Writer) (*reembed.Reindexer, error) {
	if db.storyboards == nil {
		return nil, ErrStoreRequired
	}
	if db.provider == nil {
		return nil, ErrProviderRequired
	}
	rc := db.cfg.Reindex
	return reembed.NewReindexer(db.storyboards, db.provider.Embedder(), &reembed.Config{
		FieldPath:      db.cfg.Ingest.FieldPath,
		SkipCurrent:    rc.SkipCurrent,
		Workers:        rc.Workers,
		MaxAttempts:    rc.MaxAttempts,
		RetryDelay:     rc.RetryDelay,
		ReportInterval: rc.ReportInterval,
	}, progress)
}

// NewSearcher returns a searcher using the configured query cache.
func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	if db.storyboards == nil {
		return nil, ErrStoreRequired
	}
	if db.provider == nil {
		return nil, ErrProviderRequired
	}
	if db.cfg.Search.CacheSize > 0 {
		opts = append([]search.Option{search.WithQueryCache(db.cfg.Search.CacheSize)}, opts...)
	}
	return search.NewSearcher(db.storyboards, db.provider.Embedder(), opts...)
}

// SchemaWidth returns the declared width of the embedding column.
func (db *Database) SchemaWidth(ctx context.Context) (int, error) {
	if db.pgRepo == nil {
		return 0, ErrSchemaUnsupported
	}
	if err := db.pgRepo.RefreshWidth(ctx); err != nil {
		return 0, err
	}
	return db.pgRepo.Width(), nil
}

// WidenSchema changes the embedding column width to dims. With clear set,
// embeddings of another width are removed in the same transaction; it
// returns how many were removed.
func (db *Database) WidenSchema(ctx context.Context, dims int, clear bool) (int64, error) {
	if db.pgRepo == nil {
		return 0, ErrSchemaUnsupported
	}
	return db.pgRepo.Widen(ctx, dims, clear)
}
