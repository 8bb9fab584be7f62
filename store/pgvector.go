package store

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"docindex/model"
	"docindex/types"
)

// PgVectorIndex persists chunk embeddings in Postgres with the pgvector
// extension. Cosine distance (`<=>`) is the score surfaced to the engine,
// so lower means more similar.
type PgVectorIndex struct {
	pool     *pgxpool.Pool
	embedder model.Embedder
	dim      int
}

func NewPgVectorIndex(ctx context.Context, connStr string, embedder model.Embedder, dim int) (*PgVectorIndex, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if dim <= 0 {
		dim = 768
	}

	return &PgVectorIndex{
		pool:     pool,
		embedder: embedder,
		dim:      dim,
	}, nil
}

func (p *PgVectorIndex) Init(ctx context.Context) error {
	query := fmt.Sprintf(`
    CREATE EXTENSION IF NOT EXISTS vector;

    CREATE TABLE IF NOT EXISTS chunks (
        id UUID PRIMARY KEY,
        doc_id TEXT NOT NULL,
        chunk_index INT NOT NULL,
        reference_id TEXT NOT NULL,
        source TEXT NOT NULL,
        page INT NOT NULL,
        content TEXT NOT NULL,
        embedding vector(%d),
        UNIQUE (doc_id, chunk_index)
    );

	CREATE INDEX IF NOT EXISTS idx_chunks_embedding ON chunks USING ivfflat (embedding vector_cosine_ops)
	WITH (lists = 100);

	CREATE INDEX IF NOT EXISTS idx_chunks_doc_id ON chunks(doc_id);
    `, p.dim)
	_, err := p.pool.Exec(ctx, query)
	return err
}

// Add embeds and appends the given chunks. The engine guarantees it never
// re-adds an already indexed document, so plain inserts are enough.
func (p *PgVectorIndex) Add(ctx context.Context, chunks []types.Chunk) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrVectorStoreUnavailable, err)
	}
	defer tx.Rollback(ctx)

	if err := p.insertChunks(ctx, tx, chunks); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Rebuild atomically replaces the whole index contents with exactly the
// given chunk set.
func (p *PgVectorIndex) Rebuild(ctx context.Context, chunks []types.Chunk) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrVectorStoreUnavailable, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM chunks"); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}
	if err := p.insertChunks(ctx, tx, chunks); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (p *PgVectorIndex) insertChunks(ctx context.Context, tx pgx.Tx, chunks []types.Chunk) error {
	query := `
    INSERT INTO chunks (id, doc_id, chunk_index, reference_id, source, page, content, embedding)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `
	for _, c := range chunks {
		embedding := c.Embedding
		if embedding == nil {
			var err error
			embedding, err = p.embedder.Embed(c.Content)
			if err != nil {
				return fmt.Errorf("embed chunk %s: %w", c.ReferenceID, err)
			}
		}
		_, err := tx.Exec(ctx, query,
			uuid.New(), c.DocID, c.ChunkIndex, c.ReferenceID, c.Source, c.Page, c.Content,
			pgvector.NewVector(embedding),
		)
		if err != nil {
			return fmt.Errorf("insert chunk %s: %w", c.ReferenceID, err)
		}
	}
	return nil
}

func (p *PgVectorIndex) Search(ctx context.Context, query string, k int) ([]types.ScoredChunk, error) {
	vec, err := p.embedder.Embed(query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	sql := `
		SELECT doc_id, chunk_index, reference_id, source, page, content,
		       embedding <=> $1 AS distance
		FROM chunks
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $2
	`
	rows, err := p.pool.Query(ctx, sql, pgvector.NewVector(vec), k)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrVectorStoreUnavailable, err)
	}
	defer rows.Close()

	var results []types.ScoredChunk
	for rows.Next() {
		var sc types.ScoredChunk
		if err := rows.Scan(
			&sc.Chunk.DocID,
			&sc.Chunk.ChunkIndex,
			&sc.Chunk.ReferenceID,
			&sc.Chunk.Source,
			&sc.Chunk.Page,
			&sc.Chunk.Content,
			&sc.Score,
		); err != nil {
			return nil, err
		}
		log.Printf("[SEARCH] hit %s (distance: %.4f)", sc.Chunk.ReferenceID, sc.Score)
		results = append(results, sc)
	}
	return results, rows.Err()
}

// LookupExact is a point lookup by (doc_id, chunk_index), not a similarity
// search.
func (p *PgVectorIndex) LookupExact(ctx context.Context, docID string, chunkIndex int) (*types.Chunk, error) {
	sql := `
		SELECT doc_id, chunk_index, reference_id, source, page, content, embedding
		FROM chunks
		WHERE doc_id = $1 AND chunk_index = $2
	`
	var (
		c   types.Chunk
		vec pgvector.Vector
	)
	err := p.pool.QueryRow(ctx, sql, docID, chunkIndex).Scan(
		&c.DocID, &c.ChunkIndex, &c.ReferenceID, &c.Source, &c.Page, &c.Content, &vec,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrVectorStoreUnavailable, err)
	}
	c.Embedding = vec.Slice()
	return &c, nil
}

func (p *PgVectorIndex) Close() error {
	if p.pool != nil {
		p.pool.Close()
		slog.Default().Info("postgres connection pool closed")
	}
	return nil
}
