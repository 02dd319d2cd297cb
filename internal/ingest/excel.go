package ingest

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/cloudshift-ai/migbot/internal/index"
)

// ExcelReader ingests all Excel workbooks from a directory.
type ExcelReader struct {
	dir    string
	cfg    ChunkConfig
	logger *slog.Logger
}

// NewExcelReader creates an Excel ingestion adapter for dir.
func NewExcelReader(dir string, cfg ChunkConfig, logger *slog.Logger) *ExcelReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelReader{dir: dir, cfg: cfg, logger: logger}
}

// Name implements index.Source.
func (r *ExcelReader) Name() string { return "excel" }

// Read extracts every sheet of every .xlsx workbook as tab-separated
// rows, one text block per sheet. Malformed workbooks are logged and
// skipped.
func (r *ExcelReader) Read(ctx context.Context) ([]index.Chunk, error) {
	files, ok := listDir(r.dir, ".xlsx", r.logger)
	if !ok {
		return nil, nil
	}

	var chunks []index.Chunk
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(r.dir, name)
		text, err := extractWorkbookText(path)
		if err != nil {
			r.logger.Warn("skipping malformed workbook", "file", name, "error", err)
			continue
		}
		chunks = append(chunks, makeChunks(text, index.SourceTypeExcel, name, r.cfg)...)
	}
	return chunks, nil
}

func extractWorkbookText(path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	var sb strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", err
		}

		sb.WriteString("Sheet: ")
		sb.WriteString(sheet)
		sb.WriteString("\n")
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, "\t"))
			if line == "" {
				continue
			}
			sb.WriteString(line)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
