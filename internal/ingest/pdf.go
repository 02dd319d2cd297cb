package ingest

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/cloudshift-ai/migbot/internal/index"
)

// PDFReader ingests all PDF files from a directory.
type PDFReader struct {
	dir    string
	cfg    ChunkConfig
	logger *slog.Logger
}

// NewPDFReader creates a PDF ingestion adapter for dir. A missing dir
// is not an error; Read returns no chunks.
func NewPDFReader(dir string, cfg ChunkConfig, logger *slog.Logger) *PDFReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFReader{dir: dir, cfg: cfg, logger: logger}
}

// Name implements index.Source.
func (r *PDFReader) Name() string { return "pdf" }

// Read extracts and chunks the text of every .pdf file in the
// directory. Malformed files are logged and skipped.
func (r *PDFReader) Read(ctx context.Context) ([]index.Chunk, error) {
	files, ok := listDir(r.dir, ".pdf", r.logger)
	if !ok {
		return nil, nil
	}

	var chunks []index.Chunk
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(r.dir, name)
		text, err := extractPDFText(path)
		if err != nil {
			r.logger.Warn("skipping malformed PDF", "file", name, "error", err)
			continue
		}
		chunks = append(chunks, makeChunks(text, index.SourceTypePDF, name, r.cfg)...)
	}
	return chunks, nil
}

func extractPDFText(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// listDir returns the names of files in dir with the given extension.
// The second return is false when the directory does not exist.
func listDir(dir, ext string, logger *slog.Logger) ([]string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("could not read source directory", "dir", dir, "error", err)
		}
		return nil, false
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ext) {
			names = append(names, e.Name())
		}
	}
	return names, true
}

// makeChunks splits text and tags every chunk with its provenance.
func makeChunks(text, sourceType, source string, cfg ChunkConfig) []index.Chunk {
	pieces := Split(text, cfg)
	chunks := make([]index.Chunk, 0, len(pieces))
	for _, p := range pieces {
		chunks = append(chunks, index.Chunk{
			Text: p,
			Metadata: map[string]string{
				index.MetaSourceType: sourceType,
				index.MetaSource:     source,
			},
		})
	}
	return chunks
}
