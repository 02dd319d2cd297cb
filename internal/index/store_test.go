package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudshift-ai/migbot/internal/log"
	"github.com/cloudshift-ai/migbot/internal/testutil"
)

func testChunk(sourceType, source, text string) Chunk {
	return Chunk{
		Text: text,
		Metadata: map[string]string{
			MetaSourceType: sourceType,
			MetaSource:     source,
		},
	}
}

func TestSimilaritySearchReturnsMetadata(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	emb := testutil.NewMockEmbedder(8)

	store, err := NewEphemeral(ctx, emb.EmbeddingFunc(), []Chunk{
		testChunk(SourceTypePDF, "guide.pdf", "export the workspace"),
		testChunk(SourceTypeWeb, "https://blog/1", "blog article text"),
	}, log.NewNop())
	require.NoError(t, err)

	got, err := store.SimilaritySearch(ctx, "export the workspace", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)

	var sawLocal, sawBlog bool
	for _, c := range got {
		switch c.SourceType() {
		case SourceTypePDF:
			sawLocal = true
			assert.Equal(t, "guide.pdf", c.Source())
			assert.True(t, c.IsLocal())
		case SourceTypeWeb:
			sawBlog = true
			assert.False(t, c.IsLocal())
		}
	}
	assert.True(t, sawLocal)
	assert.True(t, sawBlog)
}

func TestSimilaritySearchOrdersByRelevance(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	emb := testutil.NewMockEmbedder(4)
	emb.SetVector("near", []float32{1, 0, 0, 0})
	emb.SetVector("far", []float32{0, 1, 0, 0})
	emb.SetVector("query text", []float32{0.9, 0.1, 0, 0})

	store, err := NewEphemeral(ctx, emb.EmbeddingFunc(), []Chunk{
		testChunk(SourceTypePDF, "a.pdf", "far"),
		testChunk(SourceTypePDF, "b.pdf", "near"),
	}, log.NewNop())
	require.NoError(t, err)

	got, err := store.SimilaritySearch(ctx, "query text", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "near", got[0].Text)
	assert.Equal(t, "far", got[1].Text)
}

func TestSimilaritySearchClampsK(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	emb := testutil.NewMockEmbedder(8)

	store, err := NewEphemeral(ctx, emb.EmbeddingFunc(), []Chunk{
		testChunk(SourceTypePDF, "a.pdf", "only one chunk indexed"),
	}, log.NewNop())
	require.NoError(t, err)

	// Asking for far more results than exist must not error.
	got, err := store.SimilaritySearch(ctx, "anything", 100)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSimilaritySearchEmptyIndex(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	emb := testutil.NewMockEmbedder(8)

	store, err := NewEphemeral(ctx, emb.EmbeddingFunc(), nil, log.NewNop())
	require.NoError(t, err)

	got, err := store.SimilaritySearch(ctx, "anything", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, store.Count())
}

func TestChunkIDStable(t *testing.T) {
	t.Parallel()

	c := testChunk(SourceTypePDF, "a.pdf", "same text")
	assert.Equal(t, chunkID(c, 3), chunkID(c, 3))
	assert.NotEqual(t, chunkID(c, 3), chunkID(c, 4))
	assert.NotEqual(t, chunkID(c, 3), chunkID(testChunk(SourceTypePDF, "b.pdf", "same text"), 3))
}
