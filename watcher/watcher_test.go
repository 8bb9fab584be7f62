package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docindex/engine"
	"docindex/store"
	"docindex/types"
)

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

func TestWatcher_IngestsAndArchivesDroppedFile(t *testing.T) {
	if testing.Short() {
		t.Skip("polling watcher test needs a few seconds")
	}

	base := t.TempDir()
	cfg := types.Config{
		ChunkSize:      500,
		ChunkOverlap:   100,
		MaxDocBytes:    10 * 1024 * 1024,
		MaxChunks:      200,
		MaxDistance:    0.9,
		MetadataPath:   filepath.Join(base, "metadata.json"),
		SourceDir:      filepath.Join(base, "source"),
		ArchiveDir:     filepath.Join(base, "archive"),
		BadDir:         filepath.Join(base, "bad"),
		MonitoringTime: 100 * time.Millisecond,
	}

	meta := store.NewMetadataStore(cfg.MetadataPath)
	e := engine.New(cfg, meta, store.NewMemoryIndex(letterEmbedder{}))
	require.NoError(t, e.Open())

	w := New(cfg, e)

	dropped := filepath.Join(cfg.SourceDir, "dropped.txt")
	require.NoError(t, os.WriteFile(dropped, []byte("watched folder ingestion payload"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()

	// the scanner ticks once a second, so give it a few cycles
	deadline := time.Now().Add(8 * time.Second)
	for time.Now().Before(deadline) {
		if len(e.ListDocuments()) == 1 {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	cancel()
	<-done

	docs := e.ListDocuments()
	require.Len(t, docs, 1)
	assert.Equal(t, "dropped.txt", docs[0].FileName)

	// source file was moved into the dated archive directory
	_, err := os.Stat(dropped)
	assert.True(t, os.IsNotExist(err))
	archived := filepath.Join(cfg.ArchiveDir, time.Now().Format("2006-01-02"), "dropped.txt")
	_, err = os.Stat(archived)
	assert.NoError(t, err)
}
