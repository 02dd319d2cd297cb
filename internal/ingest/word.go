package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	docx "github.com/fumiama/go-docx"

	"github.com/cloudshift-ai/migbot/internal/index"
)

// WordReader ingests all Word documents from a directory.
type WordReader struct {
	dir    string
	cfg    ChunkConfig
	logger *slog.Logger
}

// NewWordReader creates a Word ingestion adapter for dir.
func NewWordReader(dir string, cfg ChunkConfig, logger *slog.Logger) *WordReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &WordReader{dir: dir, cfg: cfg, logger: logger}
}

// Name implements index.Source.
func (r *WordReader) Name() string { return "doc" }

// Read extracts the paragraph and table text of every .docx file in
// the directory. Malformed documents are logged and skipped.
func (r *WordReader) Read(ctx context.Context) ([]index.Chunk, error) {
	files, ok := listDir(r.dir, ".docx", r.logger)
	if !ok {
		return nil, nil
	}

	var chunks []index.Chunk
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(r.dir, name)
		text, err := extractDocxText(path)
		if err != nil {
			r.logger.Warn("skipping malformed document", "file", name, "error", err)
			continue
		}
		chunks = append(chunks, makeChunks(text, index.SourceTypeDoc, name, r.cfg)...)
	}
	return chunks, nil
}

func extractDocxText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, item := range doc.Document.Body.Items {
		switch item.(type) {
		case *docx.Paragraph, *docx.Table:
			sb.WriteString(fmt.Sprint(item))
			sb.WriteString("\n\n")
		}
	}
	return sb.String(), nil
}
