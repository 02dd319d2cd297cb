// Package ingest provides the document ingestion adapters: per-format
// readers that produce normalized index chunks tagged with their
// source type, plus the text splitter they share.
//
// Adapters isolate per-document failures: a malformed file is logged
// and skipped, never aborting the whole rebuild. A missing optional
// source directory yields an empty result.
package ingest

import (
	"strings"
)

// ChunkConfig configures how document text is split into chunks.
type ChunkConfig struct {
	ChunkSize    int // maximum chunk size in characters
	ChunkOverlap int // overlap carried between adjacent chunks
	MinChunkSize int // chunks shorter than this are dropped
}

// DefaultChunkConfig returns the chunking defaults used for all
// document sources.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		ChunkSize:    1000,
		ChunkOverlap: 200,
		MinChunkSize: 100,
	}
}

// Split breaks text into chunks, preferring paragraph boundaries and
// falling back to a fixed-size split for oversized paragraphs.
func Split(text string, cfg ChunkConfig) []string {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1000
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = 0
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		c := strings.TrimSpace(current.String())
		if len(c) >= cfg.MinChunkSize {
			chunks = append(chunks, c)
		}
		current.Reset()
	}

	for _, paragraph := range strings.Split(text, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}

		if current.Len() > 0 && current.Len()+len(paragraph) > cfg.ChunkSize {
			tail := tailOverlap(current.String(), cfg.ChunkOverlap)
			flush()
			if tail != "" {
				current.WriteString(tail)
				current.WriteString("\n\n")
			}
		}

		current.WriteString(paragraph)
		current.WriteString("\n\n")
	}
	flush()

	return splitOversized(chunks, cfg)
}

// splitOversized force-splits any chunk still larger than ChunkSize.
// Happens when a single paragraph exceeds the chunk size.
func splitOversized(chunks []string, cfg ChunkConfig) []string {
	var out []string
	for _, chunk := range chunks {
		if len(chunk) <= cfg.ChunkSize {
			out = append(out, chunk)
			continue
		}

		runes := []rune(chunk)
		step := cfg.ChunkSize - cfg.ChunkOverlap
		if step <= 0 {
			step = cfg.ChunkSize
		}
		for start := 0; start < len(runes); start += step {
			end := min(start+cfg.ChunkSize, len(runes))
			piece := strings.TrimSpace(string(runes[start:end]))
			if len(piece) >= cfg.MinChunkSize {
				out = append(out, piece)
			}
			if end == len(runes) {
				break
			}
		}
	}
	return out
}

// tailOverlap returns the last size characters of text, advanced to the
// next word boundary where possible.
func tailOverlap(text string, size int) string {
	text = strings.TrimSpace(text)
	if size <= 0 || text == "" {
		return ""
	}
	if size >= len(text) {
		return text
	}
	tail := text[len(text)-size:]
	if i := strings.Index(tail, " "); i > 0 {
		return tail[i+1:]
	}
	return tail
}
