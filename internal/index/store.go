// Package index manages the persistent vector index: building it from
// ingestion sources on process start, backing up the previous
// generation, and serving similarity searches during request handling.
//
// The index is an on-disk chromem-go collection. It is destroyed and
// rebuilt wholesale on every start, before the HTTP server accepts
// traffic; afterwards it is read-only and safe for concurrent use.
package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"runtime"

	chromem "github.com/philippgille/chromem-go"
)

// collectionName is the single chromem collection holding all chunks.
const collectionName = "documents"

// Store provides similarity search over the built vector index.
// Safe for concurrent use by multiple goroutines once built.
type Store struct {
	collection *chromem.Collection
	logger     *slog.Logger
}

// newStore creates a persistent chromem DB at path and fills its
// collection with the given chunks. Embeddings are computed through
// embedFn. Any failure here is fatal to the caller: a partial index is
// not an acceptable end state.
func newStore(ctx context.Context, path string, embedFn chromem.EmbeddingFunc, chunks []Chunk, logger *slog.Logger) (*Store, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("creating persistent index at %q: %w", path, err)
	}

	collection, err := db.GetOrCreateCollection(collectionName, nil, embedFn)
	if err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}

	docs := make([]chromem.Document, 0, len(chunks))
	for i, c := range chunks {
		docs = append(docs, chromem.Document{
			ID:       chunkID(c, i),
			Content:  c.Text,
			Metadata: c.Metadata,
		})
	}

	if len(docs) > 0 {
		if err := collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			return nil, fmt.Errorf("embedding %d chunks: %w", len(docs), err)
		}
	}

	logger.Info("vector index built", "path", path, "chunks", collection.Count())

	return &Store{collection: collection, logger: logger}, nil
}

// SimilaritySearch returns up to k chunks ordered by descending
// relevance to the query. k is clamped to the collection size; an
// empty collection yields no results.
func (s *Store) SimilaritySearch(ctx context.Context, query string, k int) ([]Chunk, error) {
	count := s.collection.Count()
	if count == 0 || k <= 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := s.collection.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	chunks := make([]Chunk, 0, len(results))
	for _, r := range results {
		chunks = append(chunks, Chunk{
			Text:     r.Content,
			Metadata: r.Metadata,
		})
	}
	return chunks, nil
}

// Count returns the number of indexed chunks.
func (s *Store) Count() int {
	return s.collection.Count()
}

// NewEphemeral builds an in-memory store from the given chunks without
// touching disk. Used by tests and tooling that need search semantics
// without the persistent lifecycle.
func NewEphemeral(ctx context.Context, embedFn chromem.EmbeddingFunc, chunks []Chunk, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db := chromem.NewDB()
	collection, err := db.GetOrCreateCollection(collectionName, nil, embedFn)
	if err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}

	docs := make([]chromem.Document, 0, len(chunks))
	for i, c := range chunks {
		docs = append(docs, chromem.Document{
			ID:       chunkID(c, i),
			Content:  c.Text,
			Metadata: c.Metadata,
		})
	}
	if len(docs) > 0 {
		if err := collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			return nil, fmt.Errorf("embedding %d chunks: %w", len(docs), err)
		}
	}

	return &Store{collection: collection, logger: logger}, nil
}

// chunkID generates a stable document ID from chunk provenance and
// position. chromem requires unique IDs within a collection.
func chunkID(c Chunk, position int) string {
	hash := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%d|%s", c.SourceType(), c.Source(), position, c.Text))
	return hex.EncodeToString(hash[:16])
}
