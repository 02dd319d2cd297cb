package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudshift-ai/migbot/internal/index"
	"github.com/cloudshift-ai/migbot/internal/log"
)

func TestReadersMissingDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "does-not-exist")
	cfg := DefaultChunkConfig()

	sources := []index.Source{
		NewPDFReader(dir, cfg, log.NewNop()),
		NewExcelReader(dir, cfg, log.NewNop()),
		NewWordReader(dir, cfg, log.NewNop()),
	}

	for _, src := range sources {
		chunks, err := src.Read(context.Background())
		assert.NoError(t, err, "source %s", src.Name())
		assert.Empty(t, chunks, "source %s", src.Name())
	}
}

func TestReadersSkipMalformedFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.pdf"), []byte("not a pdf"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.xlsx"), []byte("not a workbook"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.docx"), []byte("not a document"), 0o600))

	sources := []index.Source{
		NewPDFReader(dir, DefaultChunkConfig(), log.NewNop()),
		NewExcelReader(dir, DefaultChunkConfig(), log.NewNop()),
		NewWordReader(dir, DefaultChunkConfig(), log.NewNop()),
	}

	for _, src := range sources {
		chunks, err := src.Read(context.Background())
		assert.NoError(t, err, "malformed files are skipped, not fatal (source %s)", src.Name())
		assert.Empty(t, chunks, "source %s", src.Name())
	}
}

func TestListDirFiltersByExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), nil, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.PDF"), nil, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.pdf"), 0o755))

	files, ok := listDir(dir, ".pdf", log.NewNop())
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"a.pdf", "b.PDF"}, files)
}

func TestMakeChunksTagsMetadata(t *testing.T) {
	t.Parallel()

	chunks := makeChunks("some document text long enough to pass the minimum chunk size filter easily, repeated for good measure.",
		index.SourceTypePDF, "guide.pdf", DefaultChunkConfig())
	require.NotEmpty(t, chunks)
	assert.Equal(t, index.SourceTypePDF, chunks[0].SourceType())
	assert.Equal(t, "guide.pdf", chunks[0].Source())
	assert.True(t, chunks[0].IsLocal())
}
