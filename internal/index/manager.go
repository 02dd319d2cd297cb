package index

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/firebase/genkit/go/ai"
)

// Source produces chunks for the index from one ingestion adapter.
// Implementations live in internal/ingest; the interface is defined
// here, on the consumer side.
//
// A Source must isolate per-document failures (log and skip) and treat
// a missing optional directory as an empty result, not an error. An
// error return is fatal to the rebuild.
type Source interface {
	// Name identifies the source in logs.
	Name() string

	// Read produces all chunks for this source.
	Read(ctx context.Context) ([]Chunk, error)
}

// Manager rebuilds the vector index on process start.
type Manager struct {
	indexPath  string
	backupPath string
	embedder   ai.Embedder
	sources    []Source
	logger     *slog.Logger
}

// NewManager creates a rebuild manager. sources are read in order; the
// resulting chunk sequences are concatenated before embedding.
func NewManager(indexPath, backupPath string, embedder ai.Embedder, sources []Source, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		indexPath:  indexPath,
		backupPath: backupPath,
		embedder:   embedder,
		sources:    sources,
		logger:     logger,
	}
}

// Rebuild backs up the previous index generation, destroys it, reads
// all sources and constructs a fresh persistent index.
//
// Backup and deletion are best-effort: a failure there is logged and
// the rebuild proceeds. Reading a source or constructing the index is
// fatal: the service must not come up half-indexed.
func (m *Manager) Rebuild(ctx context.Context) (*Store, error) {
	m.backupCurrent()

	if _, err := os.Stat(m.indexPath); err == nil {
		if err := os.RemoveAll(m.indexPath); err != nil {
			// Proceed anyway; the store overwrites what it can.
			m.logger.Warn("could not remove previous index, rebuilding in place",
				"path", m.indexPath, "error", err)
		}
	}

	var all []Chunk
	for _, src := range m.sources {
		chunks, err := src.Read(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading source %s: %w", src.Name(), err)
		}
		m.logger.Info("source ingested", "source", src.Name(), "chunks", len(chunks))
		all = append(all, chunks...)
	}

	store, err := newStore(ctx, m.indexPath, NewEmbeddingFunc(m.embedder), all, m.logger)
	if err != nil {
		return nil, fmt.Errorf("building index: %w", err)
	}

	return store, nil
}

// backupCurrent keeps a single previous generation of the index.
// Best-effort: failures are logged, never returned.
func (m *Manager) backupCurrent() {
	if m.backupPath == "" {
		return
	}
	if _, err := os.Stat(m.indexPath); err != nil {
		m.logger.Info("no existing index, first build", "path", m.indexPath)
		return
	}

	if err := os.RemoveAll(m.backupPath); err != nil {
		m.logger.Warn("could not remove old index backup", "path", m.backupPath, "error", err)
		return
	}
	if err := copyDir(m.indexPath, m.backupPath); err != nil {
		m.logger.Warn("could not back up index", "path", m.backupPath, "error", err)
		return
	}
	m.logger.Info("backed up previous index", "backup", m.backupPath)
}

// copyDir recursively copies src to dst, preserving file modes.
func copyDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if info.IsDir() {
			return os.MkdirAll(target, info.Mode())
		}
		return copyFile(path, target, info.Mode())
	})
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
