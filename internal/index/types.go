package index

// Source type values for chunk metadata. Local documents are pdf,
// excel and doc; everything else is treated as web content by the
// retrieval engine.
const (
	SourceTypePDF   = "pdf"
	SourceTypeExcel = "excel"
	SourceTypeDoc   = "doc"
	SourceTypeWeb   = "web"
)

// Metadata keys set by ingestion adapters.
const (
	MetaSourceType = "source_type"
	MetaSource     = "source"
)

// Chunk is a unit of indexed text with provenance metadata.
// Chunks are immutable once produced by ingestion; retrieval results
// reference them without mutation.
type Chunk struct {
	Text     string
	Metadata map[string]string
}

// SourceType returns the source_type metadata value.
func (c Chunk) SourceType() string {
	return c.Metadata[MetaSourceType]
}

// Source returns the source metadata value.
func (c Chunk) Source() string {
	return c.Metadata[MetaSource]
}

// IsLocal reports whether the chunk came from a local document source
// (PDF, Excel or Word) as opposed to web content.
func (c Chunk) IsLocal() bool {
	switch c.SourceType() {
	case SourceTypePDF, SourceTypeExcel, SourceTypeDoc:
		return true
	}
	return false
}
