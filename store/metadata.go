package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"docindex/types"
)

// MetadataStore keeps the doc_id -> Document mapping in a single JSON file.
// Every mutation is followed by Save; writes go to a temp file first and are
// renamed into place so a crash mid-save cannot truncate the mapping.
type MetadataStore struct {
	mu     sync.Mutex
	path   string
	docs   map[string]types.Document
	logger *slog.Logger
}

func NewMetadataStore(path string) *MetadataStore {
	return &MetadataStore{
		path:   path,
		docs:   make(map[string]types.Document),
		logger: slog.Default(),
	}
}

// Load reads the persisted mapping. A missing file starts an empty mapping.
// An unparsable file resets the mapping to empty and reports
// types.ErrMetadataCorrupt so the caller can decide whether to continue.
func (s *MetadataStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.docs = make(map[string]types.Document)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read metadata file: %w", err)
	}

	docs := make(map[string]types.Document)
	if err := json.Unmarshal(data, &docs); err != nil {
		s.logger.Error("metadata file is corrupt, resetting to empty",
			"path", s.path, "error", err.Error())
		s.docs = make(map[string]types.Document)
		return fmt.Errorf("%w: %s: %v", types.ErrMetadataCorrupt, s.path, err)
	}
	s.docs = docs
	return nil
}

// Save overwrites the persisted mapping atomically.
func (s *MetadataStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *MetadataStore) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create metadata directory: %w", err)
	}

	data, err := json.Marshal(s.docs)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write metadata temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename metadata file: %w", err)
	}
	return nil
}

func (s *MetadataStore) Contains(docID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.docs[docID]
	return ok
}

func (s *MetadataStore) Get(docID string) (types.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[docID]
	if ok {
		doc.DocID = docID
	}
	return doc, ok
}

func (s *MetadataStore) Put(docID string, doc types.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc.DocID = docID
	s.docs[docID] = doc
}

func (s *MetadataStore) Remove(docID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, docID)
}

// List returns the documents sorted by processing time so callers see a
// stable order.
func (s *MetadataStore) List() []types.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := make([]types.Document, 0, len(s.docs))
	for id, doc := range s.docs {
		doc.DocID = id
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].ProcessedAt.Equal(docs[j].ProcessedAt) {
			return docs[i].DocID < docs[j].DocID
		}
		return docs[i].ProcessedAt.Before(docs[j].ProcessedAt)
	})
	return docs
}

func (s *MetadataStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[string]types.Document)
}

func (s *MetadataStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}
