// Package retrieve implements hybrid retrieval over the vector index.
// A single semantic pass under-represents the small local document set
// (PDF, Excel, Word) against the much larger blog corpus, so the
// engine layers a local-first quota, term-variant fallback searches
// and a rephrase fan-out on top of the broad pass.
package retrieve

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudshift-ai/migbot/internal/index"
)

const (
	// broadK is the breadth of the initial pass.
	broadK = 100
	// fallbackK is the breadth of each fallback variant search.
	fallbackK = 50
	// fallbackLocalTarget stops the fallback loop early.
	fallbackLocalTarget = 5
	// localQuota caps local chunks in the primary set.
	localQuota = 10
	// primaryCap caps the primary set, local plus blog.
	primaryCap = 15
	// rephraseK is the breadth of each rephrasing search.
	rephraseK = 20
	// rephraseMax bounds how many rephrasings are searched.
	rephraseMax = 2
	// rephrasePerKind caps local and blog additions per rephrasing.
	rephrasePerKind = 5
	// resultCap is the final size limit after deduplication.
	resultCap = 20
	// dedupPrefixLen is how much chunk text keys deduplication.
	dedupPrefixLen = 50
)

// Searcher is the similarity-search surface the engine consumes.
type Searcher interface {
	SimilaritySearch(ctx context.Context, query string, k int) ([]index.Chunk, error)
}

// Rephraser produces alternative phrasings of a query.
type Rephraser interface {
	Rephrase(ctx context.Context, query string) ([]string, error)
}

// Engine runs the multi-pass retrieval pipeline.
type Engine struct {
	searcher  Searcher
	rephraser Rephraser
	logger    *slog.Logger
}

// NewEngine creates a retrieval engine. The rephraser may be nil; the
// fan-out step is then skipped entirely.
func NewEngine(searcher Searcher, rephraser Rephraser, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{searcher: searcher, rephraser: rephraser, logger: logger}
}

// Retrieve returns up to 20 chunks relevant to the query, local
// documents first. Only the broad pass can fail the call; every later
// pass degrades to whatever was already gathered.
func (e *Engine) Retrieve(ctx context.Context, query string) ([]index.Chunk, error) {
	broad, err := e.searcher.SimilaritySearch(ctx, query, broadK)
	if err != nil {
		return nil, fmt.Errorf("broad search: %w", err)
	}
	local, blog := partition(broad)

	if len(local) == 0 {
		local = e.fallbackLocal(ctx, query)
	}

	results := compose(local, blog)

	e.bestEffort("rephrase fan-out", func() error {
		extra, err := e.rephraseFanOut(ctx, query)
		if err != nil {
			return err
		}
		results = append(results, extra...)
		return nil
	})

	results = dedupe(results)
	if len(results) > resultCap {
		results = results[:resultCap]
	}
	return results, nil
}

// fallbackLocal hunts for local matches with simpler term variants
// when the broad pass found none. Each variant failure is swallowed;
// the loop stops once enough locals are gathered.
func (e *Engine) fallbackLocal(ctx context.Context, query string) []index.Chunk {
	var local []index.Chunk
	seen := make(map[string]bool)

	for _, variant := range queryVariants(query) {
		if len(local) >= fallbackLocalTarget {
			break
		}

		e.bestEffort("fallback variant", func() error {
			hits, err := e.searcher.SimilaritySearch(ctx, variant, fallbackK)
			if err != nil {
				return err
			}
			for _, c := range hits {
				if !c.IsLocal() {
					continue
				}
				key := dedupKey(c)
				if seen[key] {
					continue
				}
				seen[key] = true
				local = append(local, c)
				if len(local) >= fallbackLocalTarget {
					break
				}
			}
			return nil
		})
	}
	return local
}

// rephraseFanOut searches alternative phrasings of the query and
// collects a bounded slice of local and blog matches per phrasing.
func (e *Engine) rephraseFanOut(ctx context.Context, query string) ([]index.Chunk, error) {
	if e.rephraser == nil {
		return nil, nil
	}

	phrasings, err := e.rephraser.Rephrase(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("rephrasing query: %w", err)
	}
	if len(phrasings) > rephraseMax {
		phrasings = phrasings[:rephraseMax]
	}

	var extra []index.Chunk
	for _, p := range phrasings {
		hits, err := e.searcher.SimilaritySearch(ctx, p, rephraseK)
		if err != nil {
			return nil, fmt.Errorf("searching rephrasing: %w", err)
		}
		local, blog := partition(hits)
		extra = append(extra, capped(local, rephrasePerKind)...)
		extra = append(extra, capped(blog, rephrasePerKind)...)
	}
	return extra, nil
}

// bestEffort runs an enhancement step, logging instead of propagating
// its failure. The primary result set is never at risk from a step
// wrapped here.
func (e *Engine) bestEffort(step string, fn func() error) {
	if err := fn(); err != nil {
		e.logger.Warn("retrieval enhancement failed", "step", step, "error", err)
	}
}

// queryVariants returns the fallback search variants in priority
// order: verbatim, lower-cased, first token, underscore-joined.
func queryVariants(query string) []string {
	fields := strings.Fields(query)
	variants := []string{query, strings.ToLower(query)}
	if len(fields) > 0 {
		variants = append(variants, fields[0])
	}
	if len(fields) > 1 {
		variants = append(variants, strings.Join(fields, "_"))
	}
	return variants
}

// partition splits chunks into local documents and everything else,
// preserving relevance order within each side.
func partition(chunks []index.Chunk) (local, blog []index.Chunk) {
	for _, c := range chunks {
		if c.IsLocal() {
			local = append(local, c)
		} else {
			blog = append(blog, c)
		}
	}
	return local, blog
}

// compose builds the primary set: up to localQuota local chunks, then
// blog chunks filling up to primaryCap.
func compose(local, blog []index.Chunk) []index.Chunk {
	out := capped(local, localQuota)
	if room := primaryCap - len(out); room > 0 {
		out = append(out, capped(blog, room)...)
	}
	return out
}

// dedupe keeps the first occurrence of each chunk keyed by source and
// text prefix. The short prefix is a heuristic; distinct chunks with a
// shared opening can collapse, and shifted overlaps from one source
// can survive.
func dedupe(chunks []index.Chunk) []index.Chunk {
	seen := make(map[string]bool, len(chunks))
	out := chunks[:0]
	for _, c := range chunks {
		key := dedupKey(c)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

func dedupKey(c index.Chunk) string {
	text := c.Text
	if runes := []rune(text); len(runes) > dedupPrefixLen {
		text = string(runes[:dedupPrefixLen])
	}
	return c.Source() + "|" + text
}

func capped(chunks []index.Chunk, n int) []index.Chunk {
	if len(chunks) > n {
		return chunks[:n]
	}
	return chunks
}
