package types

import (
	"os"
	"strconv"
	"time"
)

// Document is the per-document bookkeeping record kept in the metadata store.
// The persisted file is keyed by doc_id, so the id is not serialized inside
// the value.
type Document struct {
	DocID       string    `json:"-"`
	FileName    string    `json:"file_name"`
	Size        int64     `json:"size"`
	Chunks      int       `json:"chunks"`
	ProcessedAt time.Time `json:"processed_at"`
	RefIDs      []string  `json:"ref_ids"`
}

// Chunk is a bounded span of extracted text, the unit of embedding and
// retrieval. ReferenceID is the only handle exposed to callers for
// dereferencing chunk content later.
type Chunk struct {
	Content     string
	Source      string
	DocID       string
	ChunkIndex  int
	ReferenceID string
	Page        int
	Embedding   []float32
}

// ScoredChunk pairs a chunk with its vector distance. Lower score means
// more similar.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// ExtractedDoc is the output of a format loader: plain text plus optional
// page boundaries. PageStarts holds the rune offset at which each page
// begins; it stays empty for formats without a page notion.
type ExtractedDoc struct {
	Text       string
	PageStarts []int
}

// PageAt returns the 1-based page containing the given rune offset,
// or 0 when page boundaries are unknown.
func (d *ExtractedDoc) PageAt(offset int) int {
	if len(d.PageStarts) == 0 {
		return 0
	}
	page := 1
	for i, start := range d.PageStarts {
		if offset < start {
			break
		}
		page = i + 1
	}
	return page
}

type Config struct {
	ChunkSize      int
	ChunkOverlap   int
	MaxDocBytes    int64
	MaxChunks      int
	MaxDistance    float64
	MetadataPath   string
	SourceDir      string
	ArchiveDir     string
	BadDir         string
	MonitoringTime time.Duration
}

// ConfigFromEnv builds the runtime config from environment variables,
// falling back to the reference defaults where a variable is unset.
func ConfigFromEnv() Config {
	return Config{
		ChunkSize:      envInt("CHUNK_SIZE", 500),
		ChunkOverlap:   envInt("CHUNK_OVERLAP", 100),
		MaxDocBytes:    int64(envInt("MAX_DOC_BYTES", 10*1024*1024)),
		MaxChunks:      envInt("MAX_CHUNKS", 200),
		MaxDistance:    envFloat("MAX_DISTANCE", 0.9),
		MetadataPath:   envStr("METADATA_PATH", "data/metadata.json"),
		SourceDir:      envStr("LOADER_SOURCE_DIR", "data/source"),
		ArchiveDir:     envStr("LOADER_ARCHIVE_DIR", "data/archive"),
		BadDir:         envStr("LOADER_BAD_DIR", "data/bad"),
		MonitoringTime: time.Duration(envInt("MONITORING_TIME_SEC", 3)) * time.Second,
	}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func envFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return def
	}
	return v
}
