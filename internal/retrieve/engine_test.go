package retrieve

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudshift-ai/migbot/internal/index"
	"github.com/cloudshift-ai/migbot/internal/log"
)

// fakeSearcher returns canned results per query and records calls.
type fakeSearcher struct {
	results map[string][]index.Chunk
	errs    map[string]error
	calls   []string
}

func (f *fakeSearcher) SimilaritySearch(_ context.Context, query string, _ int) ([]index.Chunk, error) {
	f.calls = append(f.calls, query)
	if err, ok := f.errs[query]; ok {
		return nil, err
	}
	return f.results[query], nil
}

type fakeRephraser struct {
	phrasings []string
	err       error
}

func (f *fakeRephraser) Rephrase(context.Context, string) ([]string, error) {
	return f.phrasings, f.err
}

func localChunk(source, text string) index.Chunk {
	return index.Chunk{
		Text: text,
		Metadata: map[string]string{
			index.MetaSourceType: index.SourceTypePDF,
			index.MetaSource:     source,
		},
	}
}

func blogChunk(source, text string) index.Chunk {
	return index.Chunk{
		Text: text,
		Metadata: map[string]string{
			index.MetaSourceType: index.SourceTypeWeb,
			index.MetaSource:     source,
		},
	}
}

func TestRetrieveComposition(t *testing.T) {
	t.Parallel()

	// 12 local and 30 blog matches in the broad pass compose to
	// exactly 10 local + 5 blog before fan-out.
	var broad []index.Chunk
	for i := range 12 {
		broad = append(broad, localChunk("doc.pdf", fmt.Sprintf("local content %d", i)))
	}
	for i := range 30 {
		broad = append(broad, blogChunk(fmt.Sprintf("https://blog/%d", i), fmt.Sprintf("blog content %d", i)))
	}

	s := &fakeSearcher{results: map[string][]index.Chunk{"q": broad}}
	e := NewEngine(s, nil, log.NewNop())

	got, err := e.Retrieve(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, got, 15)

	for i := range 10 {
		assert.True(t, got[i].IsLocal(), "position %d should be local", i)
	}
	for i := 10; i < 15; i++ {
		assert.False(t, got[i].IsLocal(), "position %d should be blog", i)
	}
}

func TestRetrieveBroadFailureIsFatal(t *testing.T) {
	t.Parallel()

	s := &fakeSearcher{errs: map[string]error{"q": errors.New("index gone")}}
	e := NewEngine(s, nil, log.NewNop())

	_, err := e.Retrieve(context.Background(), "q")
	require.Error(t, err)
}

func TestRetrieveFallbackSkippedWhenLocalFound(t *testing.T) {
	t.Parallel()

	s := &fakeSearcher{results: map[string][]index.Chunk{
		"Slack export": {localChunk("doc.pdf", "one local match")},
	}}
	e := NewEngine(s, nil, log.NewNop())

	_, err := e.Retrieve(context.Background(), "Slack export")
	require.NoError(t, err)
	assert.Equal(t, []string{"Slack export"}, s.calls, "no variant searches after a local hit")
}

func TestRetrieveFallbackVariants(t *testing.T) {
	t.Parallel()

	// Broad pass finds only blog; the lower-cased variant finds locals.
	s := &fakeSearcher{results: map[string][]index.Chunk{
		"Slack Export": {blogChunk("https://blog/1", "blog only")},
		"slack export": {
			localChunk("a.pdf", "local one"),
			localChunk("b.pdf", "local two"),
		},
	}}
	e := NewEngine(s, nil, log.NewNop())

	got, err := e.Retrieve(context.Background(), "Slack Export")
	require.NoError(t, err)

	var locals int
	for _, c := range got {
		if c.IsLocal() {
			locals++
		}
	}
	assert.Equal(t, 2, locals)
	assert.Contains(t, s.calls, "slack export")
}

func TestRetrieveFallbackSwallowsVariantErrors(t *testing.T) {
	t.Parallel()

	s := &fakeSearcher{
		results: map[string][]index.Chunk{
			"Slack Export": {blogChunk("https://blog/1", "blog only")},
			"Slack":        {localChunk("a.pdf", "found via first token")},
		},
		errs: map[string]error{
			"slack export": errors.New("variant failed"),
		},
	}
	e := NewEngine(s, nil, log.NewNop())

	got, err := e.Retrieve(context.Background(), "Slack Export")
	require.NoError(t, err)

	var foundLocal bool
	for _, c := range got {
		if c.IsLocal() {
			foundLocal = true
		}
	}
	assert.True(t, foundLocal, "later variants still run after one fails")
}

func TestRetrieveFallbackStopsAtTarget(t *testing.T) {
	t.Parallel()

	var many []index.Chunk
	for i := range 8 {
		many = append(many, localChunk("a.pdf", fmt.Sprintf("distinct local chunk number %d", i)))
	}
	s := &fakeSearcher{results: map[string][]index.Chunk{
		"NoLocal Anywhere": {blogChunk("https://blog/1", "blog")},
		"nolocal anywhere": many,
	}}
	e := NewEngine(s, nil, log.NewNop())

	got, err := e.Retrieve(context.Background(), "NoLocal Anywhere")
	require.NoError(t, err)

	var locals int
	for _, c := range got {
		if c.IsLocal() {
			locals++
		}
	}
	assert.Equal(t, 5, locals, "fallback accumulates at most five locals")
	// The verbatim variant matched nothing and the lower-cased variant
	// filled the quota; remaining variants are not searched.
	assert.NotContains(t, s.calls, "NoLocal")
}

func TestRetrieveRephraseFanOut(t *testing.T) {
	t.Parallel()

	s := &fakeSearcher{results: map[string][]index.Chunk{
		"q":  {localChunk("a.pdf", "primary local")},
		"r1": {localChunk("b.pdf", "rephrase local"), blogChunk("https://blog/1", "rephrase blog")},
	}}
	e := NewEngine(s, &fakeRephraser{phrasings: []string{"r1"}}, log.NewNop())

	got, err := e.Retrieve(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, got, 3)

	texts := []string{got[0].Text, got[1].Text, got[2].Text}
	assert.Equal(t, []string{"primary local", "rephrase local", "rephrase blog"}, texts)
}

func TestRetrieveRephraseLimitedToTwo(t *testing.T) {
	t.Parallel()

	s := &fakeSearcher{results: map[string][]index.Chunk{
		"q": {localChunk("a.pdf", "primary local")},
	}}
	e := NewEngine(s, &fakeRephraser{phrasings: []string{"r1", "r2", "r3"}}, log.NewNop())

	_, err := e.Retrieve(context.Background(), "q")
	require.NoError(t, err)

	assert.Contains(t, s.calls, "r1")
	assert.Contains(t, s.calls, "r2")
	assert.NotContains(t, s.calls, "r3")
}

func TestRetrieveRephraseFailureDegrades(t *testing.T) {
	t.Parallel()

	s := &fakeSearcher{results: map[string][]index.Chunk{
		"q": {localChunk("a.pdf", "primary local")},
	}}
	e := NewEngine(s, &fakeRephraser{err: errors.New("model down")}, log.NewNop())

	got, err := e.Retrieve(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "primary local", got[0].Text)
}

func TestRetrieveDeduplicates(t *testing.T) {
	t.Parallel()

	shared := "identical opening fifty characters of text padding!!"
	s := &fakeSearcher{results: map[string][]index.Chunk{
		"q": {
			localChunk("a.pdf", shared+" tail one"),
			localChunk("a.pdf", shared+" tail two"), // same source, same prefix
			localChunk("b.pdf", shared+" tail one"), // different source survives
		},
	}}
	e := NewEngine(s, nil, log.NewNop())

	got, err := e.Retrieve(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a.pdf", got[0].Source(), "first occurrence wins")
	assert.Equal(t, "b.pdf", got[1].Source())
}

func TestRetrieveTruncatesToTwenty(t *testing.T) {
	t.Parallel()

	var broad []index.Chunk
	for i := range 10 {
		broad = append(broad, localChunk(fmt.Sprintf("l%d.pdf", i), fmt.Sprintf("local number %d content", i)))
	}
	for i := range 20 {
		broad = append(broad, blogChunk(fmt.Sprintf("https://blog/%d", i), fmt.Sprintf("blog number %d content", i)))
	}

	var extra []index.Chunk
	for i := range 10 {
		extra = append(extra, localChunk(fmt.Sprintf("r%d.pdf", i), fmt.Sprintf("rephrase local %d content", i)))
	}

	s := &fakeSearcher{results: map[string][]index.Chunk{
		"q":  broad,
		"r1": extra[:5],
		"r2": extra[5:],
	}}
	e := NewEngine(s, &fakeRephraser{phrasings: []string{"r1", "r2"}}, log.NewNop())

	got, err := e.Retrieve(context.Background(), "q")
	require.NoError(t, err)
	assert.Len(t, got, 20)
}
