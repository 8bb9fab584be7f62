package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docindex/types"
)

// letterEmbedder maps text to letter frequencies: deterministic, and texts
// sharing words land close together under cosine distance.
type letterEmbedder struct{}

func (letterEmbedder) Embed(text string) ([]float32, error) {
	vec := make([]float32, 26)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			vec[r-'a']++
		}
	}
	return vec, nil
}

func memChunk(docID string, index int, content string) types.Chunk {
	return types.Chunk{
		Content:     content,
		Source:      docID + ".txt",
		DocID:       docID,
		ChunkIndex:  index,
		ReferenceID: docID + "." + string(rune('0'+index)),
		Page:        index + 1,
	}
}

func TestMemoryIndex_SearchOrdersByDistance(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(letterEmbedder{})

	require.NoError(t, idx.Add(ctx, []types.Chunk{
		memChunk("doc", 0, "aaaa"),
		memChunk("doc", 1, "zzzz"),
		memChunk("doc", 2, "aazz"),
	}))

	results, err := idx.Search(ctx, "aaaa", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "aaaa", results[0].Chunk.Content)
	assert.InDelta(t, 0, results[0].Score, 1e-6)
	assert.True(t, results[0].Score <= results[1].Score)
	assert.True(t, results[1].Score <= results[2].Score)
	assert.Equal(t, "zzzz", results[2].Chunk.Content)
}

func TestMemoryIndex_SearchEmptyIndex(t *testing.T) {
	idx := NewMemoryIndex(letterEmbedder{})
	results, err := idx.Search(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemoryIndex_SearchReturnsAtMostK(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(letterEmbedder{})
	require.NoError(t, idx.Add(ctx, []types.Chunk{
		memChunk("doc", 0, "alpha"),
		memChunk("doc", 1, "beta"),
		memChunk("doc", 2, "gamma"),
	}))

	results, err := idx.Search(ctx, "alpha", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestMemoryIndex_LookupExact(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(letterEmbedder{})
	require.NoError(t, idx.Add(ctx, []types.Chunk{
		memChunk("doc", 0, "first"),
		memChunk("doc", 1, "second"),
	}))

	chunk, err := idx.LookupExact(ctx, "doc", 1)
	require.NoError(t, err)
	require.NotNil(t, chunk)
	assert.Equal(t, "second", chunk.Content)

	missing, err := idx.LookupExact(ctx, "doc", 7)
	require.NoError(t, err)
	assert.Nil(t, missing)

	missing, err = idx.LookupExact(ctx, "other", 0)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryIndex_RebuildReplacesContents(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(letterEmbedder{})
	require.NoError(t, idx.Add(ctx, []types.Chunk{memChunk("old", 0, "stale")}))

	require.NoError(t, idx.Rebuild(ctx, []types.Chunk{memChunk("new", 0, "fresh")}))

	gone, err := idx.LookupExact(ctx, "old", 0)
	require.NoError(t, err)
	assert.Nil(t, gone)

	kept, err := idx.LookupExact(ctx, "new", 0)
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.Equal(t, "fresh", kept.Content)

	require.NoError(t, idx.Rebuild(ctx, nil))
	results, err := idx.Search(ctx, "fresh", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}
