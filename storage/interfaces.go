package storage

import (
	"context"
	"encoding/json"
	"iter"

	"github.com/poiesic/storyboard/core"
)

// StoryboardRepository persists storyboards and their embeddings and serves
// nearest-neighbour queries over them.
// Implementations must be thread-safe and support concurrent access.
type StoryboardRepository interface {
	// Insert validates content and stores it without an embedding.
	// The bytes are kept exactly as given. Returns the new record's ID.
	Insert(ctx context.Context, content json.RawMessage) (core.ID, error)

	// Get retrieves a single record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	Get(ctx context.Context, id core.ID) (*core.StoryboardRecord, error)

	// UpsertEmbedding replaces the vector and scheme version of an existing
	// record in a single atomic write.
	// Returns core.ErrUnknownScheme for an unregistered version,
	// core.ErrDimensionMismatch if the vector does not match the scheme, and
	// ErrNotFound if the record doesn't exist.
	UpsertEmbedding(ctx context.Context, id core.ID, vector []float32, schemeVersion string) error

	// ScanAll yields every record in ascending ID order. Records are fetched
	// lazily in pages; ranging again starts a fresh scan.
	ScanAll(ctx context.Context) iter.Seq2[*core.StoryboardRecord, error]

	// SimilaritySearch returns up to k records ranked by cosine similarity to
	// query, highest first, ties broken by insertion order. Only records whose
	// embedding has len(query) elements are considered.
	// Returns ErrInvalidQuery if k <= 0 or query is empty.
	SimilaritySearch(ctx context.Context, query []float32, k int) ([]*core.SearchResult, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// CountEligible returns the number of records holding an embedding of
	// exactly dims elements.
	CountEligible(ctx context.Context, dims int) (int, error)

	// Close releases resources held by the repository.
	Close() error
}

// LedgerRepository remembers which source documents have been ingested.
type LedgerRepository interface {
	// Lookup returns the ledger entry for a source fingerprint.
	// Returns nil, nil if the fingerprint has not been recorded.
	Lookup(ctx context.Context, fingerprint string) (*core.LedgerEntry, error)

	// Record persists an entry, replacing any previous entry for the same fingerprint.
	Record(ctx context.Context, entry *core.LedgerEntry) error

	// Close releases resources held by the repository.
	Close() error
}
