package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"docindex/model"
	"docindex/types"
)

// MemoryIndex is a brute-force in-memory vector index. It backs local runs
// without Postgres and the test suite. Scores are cosine distances, same as
// the pgvector adapter.
type MemoryIndex struct {
	mu       sync.RWMutex
	embedder model.Embedder
	chunks   []types.Chunk
}

func NewMemoryIndex(embedder model.Embedder) *MemoryIndex {
	return &MemoryIndex{embedder: embedder}
}

func (m *MemoryIndex) Add(ctx context.Context, chunks []types.Chunk) error {
	embedded, err := m.embedAll(chunks)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = append(m.chunks, embedded...)
	return nil
}

func (m *MemoryIndex) Rebuild(ctx context.Context, chunks []types.Chunk) error {
	embedded, err := m.embedAll(chunks)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = embedded
	return nil
}

func (m *MemoryIndex) embedAll(chunks []types.Chunk) ([]types.Chunk, error) {
	embedded := make([]types.Chunk, len(chunks))
	for i, c := range chunks {
		if c.Embedding == nil {
			vec, err := m.embedder.Embed(c.Content)
			if err != nil {
				return nil, fmt.Errorf("embed chunk %s: %w", c.ReferenceID, err)
			}
			c.Embedding = vec
		}
		embedded[i] = c
	}
	return embedded, nil
}

func (m *MemoryIndex) Search(ctx context.Context, query string, k int) ([]types.ScoredChunk, error) {
	vec, err := m.embedder.Embed(query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]types.ScoredChunk, 0, len(m.chunks))
	for _, c := range m.chunks {
		results = append(results, types.ScoredChunk{
			Chunk: c,
			Score: cosineDistance(vec, c.Embedding),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score < results[j].Score
	})
	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

func (m *MemoryIndex) LookupExact(ctx context.Context, docID string, chunkIndex int) (*types.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.chunks {
		if m.chunks[i].DocID == docID && m.chunks[i].ChunkIndex == chunkIndex {
			c := m.chunks[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (m *MemoryIndex) Close() error { return nil }

func cosineDistance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
