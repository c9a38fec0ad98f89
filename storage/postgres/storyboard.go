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
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/poiesic/storyboard/core"
	"github.com/poiesic/storyboard/storage"
)

const (
	defaultPageSize = 256

	selectColumns = `id, content::text, embedding, embedding_scheme, inserted_at, updated_at`
)

// StoryboardRepository implements storage.StoryboardRepository on PostgreSQL
// with pgvector. The pool is owned by the caller.
type StoryboardRepository struct {
	db       *pgxpool.Pool
	schemes  *core.SchemeRegistry
	width    atomic.Int64
	pageSize int
	logger   *slog.Logger
}

var _ storage.StoryboardRepository = (*StoryboardRepository)(nil)

// NewStoryboardRepository creates a repository over an existing storyboards
// table and reads the declared width of its embedding column. A nil registry
// means the built-in schemes only. The pool must have pgvector types
// registered (see RegisterVectorTypes).
func NewStoryboardRepository(ctx context.Context, db *pgxpool.Pool, schemes *core.SchemeRegistry) (*StoryboardRepository, error) {
	if schemes == nil {
		schemes = core.NewSchemeRegistry()
	}
	r := &StoryboardRepository{
		db:       db,
		schemes:  schemes,
		pageSize: defaultPageSize,
		logger:   slog.Default().With("component", "postgres-storyboards"),
	}
	if err := r.RefreshWidth(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Width returns the embedding column width last read from the database, or
// 0 if the column has no fixed width.
func (r *StoryboardRepository) Width() int {
	return int(r.width.Load())
}

// RefreshWidth re-reads the embedding column width.
func (r *StoryboardRepository) RefreshWidth(ctx context.Context) error {
	width, err := ColumnWidth(ctx, r.db)
	if err != nil {
		return err
	}
	r.width.Store(int64(width))
	return nil
}

// Widen changes the embedding column width (see Widen) and refreshes the
// cached width.
func (r *StoryboardRepository) Widen(ctx context.Context, dims int, clear bool) (int64, error) {
	cleared, err := Widen(ctx, r.db, dims, clear)
	if err != nil {
		return 0, err
	}
	r.width.Store(int64(dims))
	r.logger.Info("embedding column altered", "dims", dims, "cleared", cleared)
	return cleared, nil
}

// Close is a no-op; the pool is owned by the caller.
func (r *StoryboardRepository) Close() error {
	return nil
}

// Insert stores content verbatim in a json column without an embedding.
func (r *StoryboardRepository) Insert(ctx context.Context, content json.RawMessage) (core.ID, error) {
	if err := core.ValidateContent(content); err != nil {
		return 0, err
	}

	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO storyboards (content) VALUES ($1::json) RETURNING id`,
		string(content),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert storyboard: %w", err)
	}

	r.logger.Debug("inserted storyboard", "id", id, "bytes", len(content))
	return core.ID(id), nil
}

// Get retrieves a single record by ID.
func (r *StoryboardRepository) Get(ctx context.Context, id core.ID) (*core.StoryboardRecord, error) {
	row := r.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM storyboards WHERE id = $1`, int64(id))
	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: storyboard %d", storage.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get storyboard: %w", err)
	}
	return record, nil
}

// UpsertEmbedding writes vector and scheme version in one UPDATE. A scheme
// whose width differs from the column fails with storage.ErrSchemaWidth
// before anything is written.
func (r *StoryboardRepository) UpsertEmbedding(ctx context.Context, id core.ID, vector []float32, schemeVersion string) error {
	scheme, err := r.schemes.Lookup(schemeVersion)
	if err != nil {
		return err
	}
	if err := scheme.CheckVector(vector); err != nil {
		return err
	}
	if width := r.Width(); width > 0 && width != scheme.Dimensions {
		return fmt.Errorf("%w: scheme %s has %d dimensions, column is vector(%d)",
			storage.ErrSchemaWidth, scheme.Version, scheme.Dimensions, width)
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE storyboards SET embedding = $2, embedding_scheme = $3, updated_at = now()
		WHERE id = $1`,
		int64(id), pgvector.NewVector(vector), scheme.Version,
	)
	if err != nil {
		return fmt.Errorf("upsert embedding: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: storyboard %d", storage.ErrNotFound, id)
	}
	return nil
}

// ScanAll pages through the table by ID.
func (r *StoryboardRepository) ScanAll(ctx context.Context) iter.Seq2[*core.StoryboardRecord, error] {
	return func(yield func(*core.StoryboardRecord, error) bool) {
		var after int64
		for {
			page, err := r.readPage(ctx, after)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, record := range page {
				if !yield(record, nil) {
					return
				}
			}
			if len(page) < r.pageSize {
				return
			}
			after = int64(page[len(page)-1].ID)
		}
	}
}

func (r *StoryboardRepository) readPage(ctx context.Context, after int64) ([]*core.StoryboardRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+selectColumns+` FROM storyboards WHERE id > $1 ORDER BY id LIMIT $2`,
		after, r.pageSize,
	)
	if err != nil {
		return nil, fmt.Errorf("scan storyboards: %w", err)
	}
	defer rows.Close()

	var page []*core.StoryboardRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan storyboard: %w", err)
		}
		page = append(page, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating storyboards: %w", err)
	}
	return page, nil
}

// SimilaritySearch uses cosine distance (<=>); score = 1 - distance.
func (r *StoryboardRepository) SimilaritySearch(ctx context.Context, query []float32, k int) ([]*core.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", storage.ErrInvalidQuery, k)
	}
	if len(query) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", storage.ErrInvalidQuery)
	}
	results := []*core.SearchResult{}
	// a fixed-width column cannot hold vectors of another width
	if width := r.Width(); width > 0 && width != len(query) {
		return results, nil
	}

	// <=> is NaN when either vector has zero magnitude; such pairs score 0
	rows, err := r.db.Query(ctx, `
		SELECT `+selectColumns+`,
			CASE WHEN distance = 'NaN' THEN 0 ELSE 1 - distance END AS score
		FROM (
			SELECT *, embedding <=> $1 AS distance
			FROM storyboards
			WHERE embedding IS NOT NULL AND vector_dims(embedding) = $2
		) AS candidates
		ORDER BY score DESC, id
		LIMIT $3`,
		pgvector.NewVector(query), len(query), k,
	)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var score float64
		record, err := scanRecord(rows, &score)
		if err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		results = append(results, &core.SearchResult{Record: record, Score: float32(score)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}
	return results, nil
}

// Count returns the number of stored records.
func (r *StoryboardRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM storyboards`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count storyboards: %w", err)
	}
	return n, nil
}

// CountEligible returns the number of records with a dims-wide embedding.
func (r *StoryboardRepository) CountEligible(ctx context.Context, dims int) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM storyboards WHERE embedding IS NOT NULL AND vector_dims(embedding) = $1`,
		dims,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count eligible storyboards: %w", err)
	}
	return n, nil
}

// scanRecord reads selectColumns followed by any extra destinations.
func scanRecord(row pgx.Row, extra ...any) (*core.StoryboardRecord, error) {
	var (
		id         int64
		content    string
		embedding  *pgvector.Vector
		scheme     *string
		insertedAt time.Time
		updatedAt  time.Time
	)
	dest := append([]any{&id, &content, &embedding, &scheme, &insertedAt, &updatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	record := &core.StoryboardRecord{
		ID:         core.ID(id),
		Content:    json.RawMessage(content),
		Seq:        uint64(id),
		InsertedAt: insertedAt.UTC(),
		UpdatedAt:  updatedAt.UTC(),
	}
	if embedding != nil {
		record.Embedding = embedding.Slice()
	}
	if scheme != nil {
		record.SchemeVersion = *scheme
	}
	return record, nil
}
