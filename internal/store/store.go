package store

import "context"

// Result is one nearest-neighbor hit. Results are ordered most similar
// first; Similarity is cosine similarity in [-1, 1].
type Result struct {
	ID         string
	Content    string
	Similarity float32
}

// VectorStore indexes (id, text, embedding) records and retrieves them by
// nearest-neighbor search. It is the only shared mutable resource in the
// pipeline; concurrent upserts to the same id race and the last writer
// wins.
type VectorStore interface {
	// Upsert inserts or replaces the record at id. Re-adding the same id
	// overwrites rather than duplicates.
	Upsert(ctx context.Context, id, content string, embedding []float32) error
	// Query returns at most topK records ordered by descending similarity.
	// An empty store yields an empty result, not an error.
	Query(ctx context.Context, embedding []float32, topK int) ([]Result, error)
	// Delete removes records by id. Unknown ids are a no-op.
	Delete(ctx context.Context, ids ...string) error
	Count() (int, error)
	Close() error
}
