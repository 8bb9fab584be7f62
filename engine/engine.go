// Package engine orchestrates document ingestion, retrieval, reference
// resolution and deletion over two independently persisted stores: the
// metadata side-table and the vector index. An ingestion either commits
// both stores or commits neither.
package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"docindex/chunker"
	"docindex/loader"
	"docindex/store"
	"docindex/types"
)

// referenceID is "{doc_id}.{chunk_index}": a sha256 hex digest, a literal
// dot, and a non-negative integer.
var referenceID = regexp.MustCompile(`^([0-9a-f]{64})\.([0-9]+)$`)

// Identify computes the content-derived document id: the SHA-256 hex digest
// of the exact raw bytes. Re-uploading identical bytes always resolves to
// the same id.
func Identify(contents []byte) string {
	sum := sha256.Sum256(contents)
	return hex.EncodeToString(sum[:])
}

// MakeReferenceID builds the stable citation handle for one chunk.
func MakeReferenceID(docID string, chunkIndex int) string {
	return fmt.Sprintf("%s.%d", docID, chunkIndex)
}

// Engine is the single shared retrieval engine behind the request handlers.
// Reads share the lock; writes (ingest, delete, cleanup) are exclusive with
// each other and with any in-flight rebuild, because a rebuild passes
// through a partially-filled index state.
type Engine struct {
	mu       sync.RWMutex
	cfg      types.Config
	meta     store.MetadataStorer
	index    store.VectorIndexer
	splitter *chunker.Splitter
	logger   *slog.Logger
}

func New(cfg types.Config, meta store.MetadataStorer, index store.VectorIndexer) *Engine {
	return &Engine{
		cfg:      cfg,
		meta:     meta,
		index:    index,
		splitter: chunker.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
		logger:   slog.Default(),
	}
}

// Open loads the persisted metadata. Call once before serving requests.
// A corrupt metadata file is recoverable: the store resets it to empty and
// the engine starts with no documents.
func (e *Engine) Open() error {
	if err := e.meta.Load(); err != nil {
		if !errors.Is(err, types.ErrMetadataCorrupt) {
			return fmt.Errorf("load metadata: %w", err)
		}
		e.logger.Warn("starting with empty metadata after corruption", "error", err.Error())
	}
	e.logger.Info("engine opened", "documents", e.meta.Len())
	return nil
}

func (e *Engine) Close() error {
	return e.index.Close()
}

// ProcessDocument ingests one uploaded document. It returns true when the
// content was already indexed (dedup hit) and reprocessing was skipped.
// Guards run before any store is touched; a failure anywhere before the
// vector index commit leaves both stores unchanged.
func (e *Engine) ProcessDocument(ctx context.Context, contents []byte, fileName string) (bool, error) {
	docID := Identify(contents)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.meta.Contains(docID) {
		e.logger.Info("document already processed", "file", fileName, "doc_id", docID)
		return true, nil
	}

	if int64(len(contents)) > e.cfg.MaxDocBytes {
		return false, fmt.Errorf("%w: %s is %d bytes, limit %d",
			types.ErrDocumentTooLarge, fileName, len(contents), e.cfg.MaxDocBytes)
	}

	extracted, err := loader.ForFile(fileName).Load(contents)
	if err != nil {
		e.logger.Error("document load failed", "file", fileName, "doc_id", docID, "error", err.Error())
		return false, err
	}
	if strings.TrimSpace(extracted.Text) == "" {
		return false, fmt.Errorf("%w: %s", types.ErrEmptyDocument, fileName)
	}

	spans := e.splitter.Split(extracted.Text)
	if len(spans) == 0 {
		return false, fmt.Errorf("%w: %s", types.ErrEmptyDocument, fileName)
	}
	if len(spans) > e.cfg.MaxChunks {
		return false, fmt.Errorf("%w: %s would produce %d chunks, limit %d",
			types.ErrTooManyChunks, fileName, len(spans), e.cfg.MaxChunks)
	}

	chunks := annotate(spans, extracted, docID, fileName)

	if err := e.index.Add(ctx, chunks); err != nil {
		e.logger.Error("vector index add failed", "file", fileName, "doc_id", docID, "error", err.Error())
		return false, err
	}

	refIDs := make([]string, len(chunks))
	for i, c := range chunks {
		refIDs[i] = c.ReferenceID
	}
	e.meta.Put(docID, types.Document{
		FileName:    fileName,
		Size:        int64(len(contents)),
		Chunks:      len(chunks),
		ProcessedAt: time.Now().UTC(),
		RefIDs:      refIDs,
	})
	if err := e.meta.Save(); err != nil {
		return false, fmt.Errorf("save metadata for %s: %w", docID, err)
	}

	e.logger.Info("document processed", "file", fileName, "doc_id", docID, "chunks", len(chunks))
	return false, nil
}

// annotate turns raw spans into citable chunks with dense 0-based indices.
// The page falls back to chunk_index+1 when the format carries no pages.
func annotate(spans []chunker.Span, extracted *types.ExtractedDoc, docID, fileName string) []types.Chunk {
	chunks := make([]types.Chunk, len(spans))
	for i, span := range spans {
		page := extracted.PageAt(span.Start)
		if page == 0 {
			page = i + 1
		}
		chunks[i] = types.Chunk{
			Content:     span.Text,
			Source:      fileName,
			DocID:       docID,
			ChunkIndex:  i,
			ReferenceID: MakeReferenceID(docID, i),
			Page:        page,
		}
	}
	return chunks
}

// GetRelevantContext returns up to k chunks relevant to the query, sorted
// ascending by distance, each below the similarity ceiling. Retrieval never
// fails the caller: index errors degrade to an empty result.
func (e *Engine) GetRelevantContext(ctx context.Context, query string, k int) []types.ScoredChunk {
	if k <= 0 {
		k = 3
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.meta.Len() == 0 {
		return nil
	}

	// over-fetch so the threshold filter still leaves k candidates
	hits, err := e.index.Search(ctx, query, k*2)
	if err != nil {
		e.logger.Error("vector search failed", "error", err.Error())
		return nil
	}

	results := make([]types.ScoredChunk, 0, len(hits))
	for _, hit := range hits {
		if hit.Score < e.cfg.MaxDistance {
			results = append(results, hit)
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score < results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}

	if len(results) == 0 {
		e.logger.Warn("no relevant chunks for query", "query", query)
	}
	return results
}

// GetReferenceContent dereferences a citation handle produced during
// ingestion.
func (e *Engine) GetReferenceContent(ctx context.Context, refID string) (*types.Chunk, error) {
	m := referenceID.FindStringSubmatch(refID)
	if m == nil {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidReference, refID)
	}
	docID := m[1]
	chunkIndex, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidReference, refID)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.meta.Contains(docID) {
		return nil, fmt.Errorf("%w: %s", types.ErrReferenceNotFound, refID)
	}
	chunk, err := e.index.LookupExact(ctx, docID, chunkIndex)
	if err != nil {
		return nil, err
	}
	if chunk == nil {
		return nil, fmt.Errorf("%w: %s", types.ErrReferenceNotFound, refID)
	}
	return chunk, nil
}

// ListDocuments projects the metadata store contents.
func (e *Engine) ListDocuments() []types.Document {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.meta.List()
}

// DeleteDocument removes one document and rebuilds the vector index from
// the chunks of all remaining documents, so unrelated documents stay
// searchable with their original reference ids.
func (e *Engine) DeleteDocument(ctx context.Context, docID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.meta.Contains(docID) {
		return fmt.Errorf("%w: %s", types.ErrDocumentNotFound, docID)
	}

	remaining, err := e.collectRemaining(ctx, docID)
	if err != nil {
		return fmt.Errorf("collect surviving chunks: %w", err)
	}

	if err := e.index.Rebuild(ctx, remaining); err != nil {
		return fmt.Errorf("rebuild index after delete of %s: %w", docID, err)
	}

	e.meta.Remove(docID)
	if err := e.meta.Save(); err != nil {
		return fmt.Errorf("save metadata after delete of %s: %w", docID, err)
	}

	e.logger.Info("document deleted", "doc_id", docID, "remaining_chunks", len(remaining))
	return nil
}

// collectRemaining re-derives the chunk set of every document except the
// one being deleted, via exact lookups on the current index.
func (e *Engine) collectRemaining(ctx context.Context, deleteID string) ([]types.Chunk, error) {
	var remaining []types.Chunk
	for _, doc := range e.meta.List() {
		if doc.DocID == deleteID {
			continue
		}
		for i := 0; i < doc.Chunks; i++ {
			chunk, err := e.index.LookupExact(ctx, doc.DocID, i)
			if err != nil {
				return nil, err
			}
			if chunk == nil {
				return nil, fmt.Errorf("%w: chunk %s missing from index",
					types.ErrReferenceNotFound, MakeReferenceID(doc.DocID, i))
			}
			remaining = append(remaining, *chunk)
		}
	}
	return remaining, nil
}

// Cleanup wipes both stores entirely.
func (e *Engine) Cleanup(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.index.Rebuild(ctx, nil); err != nil {
		e.logger.Error("index cleanup failed", "error", err.Error())
	}
	e.meta.Reset()
	if err := e.meta.Save(); err != nil {
		e.logger.Error("metadata cleanup save failed", "error", err.Error())
	}
	e.logger.Info("cleanup completed")
	return nil
}
