package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docindex/types"
)

func testDoc(name string) types.Document {
	return types.Document{
		FileName:    name,
		Size:        42,
		Chunks:      2,
		ProcessedAt: time.Now().UTC().Truncate(time.Second),
		RefIDs:      []string{"aaaa.0", "aaaa.1"},
	}
}

func TestMetadataStore_LoadMissingFile(t *testing.T) {
	s := NewMetadataStore(filepath.Join(t.TempDir(), "metadata.json"))
	require.NoError(t, s.Load())
	assert.Equal(t, 0, s.Len())
}

func TestMetadataStore_LoadCorruptFileResets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	s := NewMetadataStore(path)
	err := s.Load()
	assert.ErrorIs(t, err, types.ErrMetadataCorrupt)
	assert.Equal(t, 0, s.Len(), "corrupt mapping resets to empty")
}

func TestMetadataStore_SaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")

	s := NewMetadataStore(path)
	require.NoError(t, s.Load())
	s.Put("doc1", testDoc("one.txt"))
	s.Put("doc2", testDoc("two.txt"))
	require.NoError(t, s.Save())

	// no temp file left behind
	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	reloaded := NewMetadataStore(path)
	require.NoError(t, reloaded.Load())
	assert.Equal(t, 2, reloaded.Len())
	assert.True(t, reloaded.Contains("doc1"))
	assert.True(t, reloaded.Contains("doc2"))

	doc, ok := reloaded.Get("doc1")
	require.True(t, ok)
	assert.Equal(t, "one.txt", doc.FileName)
	assert.Equal(t, "doc1", doc.DocID)
	assert.Equal(t, []string{"aaaa.0", "aaaa.1"}, doc.RefIDs)
}

func TestMetadataStore_PersistedLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")

	s := NewMetadataStore(path)
	require.NoError(t, s.Load())
	s.Put("doc1", testDoc("one.txt"))
	require.NoError(t, s.Save())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// a JSON object keyed by doc_id, values with the documented fields
	var raw map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Contains(t, raw, "doc1")
	entry := raw["doc1"]
	assert.Contains(t, entry, "file_name")
	assert.Contains(t, entry, "size")
	assert.Contains(t, entry, "chunks")
	assert.Contains(t, entry, "processed_at")
	assert.Contains(t, entry, "ref_ids")

	// processed_at serializes as an ISO-8601 timestamp
	_, err = time.Parse(time.RFC3339, entry["processed_at"].(string))
	assert.NoError(t, err)
}

func TestMetadataStore_RemoveAndReset(t *testing.T) {
	s := NewMetadataStore(filepath.Join(t.TempDir(), "metadata.json"))
	require.NoError(t, s.Load())

	s.Put("doc1", testDoc("one.txt"))
	s.Put("doc2", testDoc("two.txt"))
	s.Remove("doc1")
	assert.False(t, s.Contains("doc1"))
	assert.True(t, s.Contains("doc2"))

	s.Reset()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.List())
}

func TestMetadataStore_ListOrder(t *testing.T) {
	s := NewMetadataStore(filepath.Join(t.TempDir(), "metadata.json"))
	require.NoError(t, s.Load())

	older := testDoc("old.txt")
	older.ProcessedAt = time.Now().UTC().Add(-time.Hour)
	s.Put("doc2", testDoc("new.txt"))
	s.Put("doc1", older)

	docs := s.List()
	require.Len(t, docs, 2)
	assert.Equal(t, "old.txt", docs[0].FileName)
	assert.Equal(t, "new.txt", docs[1].FileName)
}
