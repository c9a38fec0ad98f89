package badger

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/storyboard/core"
	"github.com/poiesic/storyboard/storage"
)

const defaultPageSize = 256

// StoryboardRepository implements storage.StoryboardRepository for BadgerDB.
// Similarity search is a brute-force scan; it suits corpora of a few
// thousand storyboards.
type StoryboardRepository struct {
	backend  *Backend
	idSeq    *badger.Sequence
	schemes  *core.SchemeRegistry
	pageSize int
	logger   *slog.Logger
}

var _ storage.StoryboardRepository = (*StoryboardRepository)(nil)

// NewStoryboardRepository creates a new StoryboardRepository. A nil registry
// means the built-in schemes only.
func NewStoryboardRepository(backend *Backend, schemes *core.SchemeRegistry) (*StoryboardRepository, error) {
	idSeq, err := backend.GetSequence(storyboardIDSeq)
	if err != nil {
		return nil, err
	}
	if schemes == nil {
		schemes = core.NewSchemeRegistry()
	}

	return &StoryboardRepository{
		backend:  backend,
		idSeq:    idSeq,
		schemes:  schemes,
		pageSize: defaultPageSize,
		logger:   slog.Default().With("component", "badger-storyboards"),
	}, nil
}

// Close releases the ID sequence. The backend stays open.
func (r *StoryboardRepository) Close() error {
	return r.idSeq.Release()
}

func (r *StoryboardRepository) nextID() (core.ID, error) {
	nextID, err := r.idSeq.Next()
	if err != nil {
		return 0, err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if nextID == 0 {
		nextID, err = r.idSeq.Next()
		if err != nil {
			return 0, err
		}
	}
	return core.ID(nextID), nil
}

// Insert stores content without an embedding.
func (r *StoryboardRepository) Insert(ctx context.Context, content json.RawMessage) (core.ID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := core.ValidateContent(content); err != nil {
		return 0, err
	}

	var id core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		id, err = r.nextID()
		if err != nil {
			return err
		}

		now := time.Now().UTC().Truncate(time.Microsecond)
		record := &core.StoryboardRecord{
			ID:         id,
			Content:    bytes.Clone(content),
			Seq:        uint64(id),
			InsertedAt: now,
			UpdatedAt:  now,
		}
		if err := r.writeRecord(tx, record); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, err
	}

	r.logger.Debug("inserted storyboard", "id", id, "bytes", len(content))
	return id, nil
}

// Get retrieves a single record by ID.
func (r *StoryboardRepository) Get(ctx context.Context, id core.ID) (*core.StoryboardRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result *core.StoryboardRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readRecord(tx, id)
		return err
	}, false)
	return result, err
}

// UpsertEmbedding replaces the vector and scheme version of a record in one transaction.
func (r *StoryboardRepository) UpsertEmbedding(ctx context.Context, id core.ID, vector []float32, schemeVersion string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	scheme, err := r.schemes.Lookup(schemeVersion)
	if err != nil {
		return err
	}
	if err := scheme.CheckVector(vector); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		record, err := r.readRecord(tx, id)
		if err != nil {
			return err
		}

		record.Embedding = slices.Clone(vector)
		record.SchemeVersion = scheme.Version
		record.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)

		if err := r.writeRecord(tx, record); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ScanAll yields records in ID order, one page per read transaction.
func (r *StoryboardRepository) ScanAll(ctx context.Context) iter.Seq2[*core.StoryboardRecord, error] {
	return func(yield func(*core.StoryboardRecord, error) bool) {
		start := []byte(storyboardPrefix)
		for start != nil {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			page, next, err := r.readPage(start)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, record := range page {
				if !yield(record, nil) {
					return
				}
			}
			start = next
		}
	}
}

// readPage reads up to pageSize records starting at key start. next is the
// key of the first record after the page, or nil at the end.
func (r *StoryboardRepository) readPage(start []byte) ([]*core.StoryboardRecord, []byte, error) {
	var page []*core.StoryboardRecord
	var next []byte

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(storyboardPrefix)
		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Seek(start); it.Valid(); it.Next() {
			item := it.Item()
			if len(page) == r.pageSize {
				next = item.KeyCopy(nil)
				return nil
			}
			record, err := decodeItem(item)
			if err != nil {
				return err
			}
			page = append(page, record)
		}
		return nil
	}, false)

	return page, next, err
}

// SimilaritySearch ranks every record whose vector has the query's width.
func (r *StoryboardRepository) SimilaritySearch(ctx context.Context, query []float32, k int) ([]*core.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", storage.ErrInvalidQuery, k)
	}
	if len(query) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", storage.ErrInvalidQuery)
	}

	results := []*core.SearchResult{}
	for record, err := range r.ScanAll(ctx) {
		if err != nil {
			return nil, err
		}
		if !record.HasEmbedding(len(query)) {
			continue
		}
		results = append(results, &core.SearchResult{
			Record: record,
			Score:  core.CosineSimilarity(query, record.Embedding),
		})
	}

	slices.SortStableFunc(results, func(a, b *core.SearchResult) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Record.Seq, b.Record.Seq)
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Count returns the number of stored records.
func (r *StoryboardRepository) Count(ctx context.Context) (int, error) {
	return r.count(ctx, nil)
}

// CountEligible returns the number of records with a dims-wide embedding.
func (r *StoryboardRepository) CountEligible(ctx context.Context, dims int) (int, error) {
	return r.count(ctx, func(record *core.StoryboardRecord) bool {
		return record.HasEmbedding(dims)
	})
}

func (r *StoryboardRepository) count(ctx context.Context, match func(*core.StoryboardRecord) bool) (int, error) {
	n := 0
	for record, err := range r.ScanAll(ctx) {
		if err != nil {
			return 0, err
		}
		if match == nil || match(record) {
			n++
		}
	}
	return n, nil
}

// readRecord reads a record inside tx. Returns storage.ErrNotFound if absent.
func (r *StoryboardRepository) readRecord(tx *badger.Txn, id core.ID) (*core.StoryboardRecord, error) {
	item, err := tx.Get(makeStoryboardKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: storyboard %d", storage.ErrNotFound, id)
		}
		return nil, err
	}
	return decodeItem(item)
}

func (r *StoryboardRepository) writeRecord(tx *badger.Txn, record *core.StoryboardRecord) error {
	return tx.Set(makeStoryboardKey(record.ID), storage.MarshalStoryboardRecord(record))
}

// decodeItem decodes a record and checks it against the ID in its key.
func decodeItem(item *badger.Item) (*core.StoryboardRecord, error) {
	id, err := idFromStoryboardKey(item.Key())
	if err != nil {
		return nil, err
	}
	var record *core.StoryboardRecord
	err = item.Value(func(val []byte) error {
		var err error
		record, err = storage.UnmarshalStoryboardRecord(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	if record.ID != id {
		return nil, fmt.Errorf("%w: key holds id %d but value holds id %d",
			storage.ErrSerializationFailed, id, record.ID)
	}
	return record, nil
}
