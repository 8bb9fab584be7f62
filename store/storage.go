// Package store holds the two persisted stores the engine coordinates: the
// metadata side-table and the vector index.
package store

import (
	"context"

	"docindex/types"
)

// MetadataStorer is the durable doc_id -> Document mapping. Implementations
// must persist on Save and survive process restarts.
type MetadataStorer interface {
	Load() error
	Save() error
	Contains(docID string) bool
	Get(docID string) (types.Document, bool)
	Put(docID string, doc types.Document)
	Remove(docID string)
	List() []types.Document
	Reset()
	Len() int
}

// VectorIndexer stores chunk embeddings and serves nearest-neighbour and
// exact lookups. Embedding happens inside the implementation; the engine
// only passes text. LookupExact returns (nil, nil) when the chunk does not
// exist.
type VectorIndexer interface {
	Add(ctx context.Context, chunks []types.Chunk) error
	Rebuild(ctx context.Context, chunks []types.Chunk) error
	Search(ctx context.Context, query string, k int) ([]types.ScoredChunk, error)
	LookupExact(ctx context.Context, docID string, chunkIndex int) (*types.Chunk, error)
	Close() error
}
