package core

import (
	"encoding/json"
	"time"
)

// ID is a unique identifier for a stored storyboard.
// IDs are assigned by the store on insert and never change.
type ID uint64

// StoryboardRecord is a persisted storyboard together with its embedding.
type StoryboardRecord struct {
	ID ID

	// Content is the storyboard JSON document exactly as inserted.
	Content json.RawMessage

	// Embedding is nil until an embedding has been written.
	Embedding []float32

	// SchemeVersion names the embedding scheme that produced Embedding.
	// Empty whenever Embedding is nil.
	SchemeVersion string

	// Seq is the insertion sequence. Earlier records have smaller values.
	Seq uint64

	InsertedAt time.Time
	UpdatedAt  time.Time
}

// HasEmbedding reports whether the record carries a vector of the given width.
func (r *StoryboardRecord) HasEmbedding(dims int) bool {
	return r.Embedding != nil && len(r.Embedding) == dims
}

// SearchResult is one ranked hit from a similarity search.
type SearchResult struct {
	Record *StoryboardRecord
	// Score is 1 - cosine distance: 1.0 identical, 0.0 orthogonal, negative opposite.
	Score float32
}
