package domain

type ContentType string

const (
	ContentTypeText  ContentType = "text"
	ContentTypeTable ContentType = "table"
)

// ChunkMetadata carries the provenance of a chunk. Page is 0 when attribution
// failed; table fields are set only for table chunks.
type ChunkMetadata struct {
	Source           string      `json:"source"`
	TotalPages       int         `json:"total_pages"`
	ContentType      ContentType `json:"content_type"`
	Page             int         `json:"page,omitempty"`
	TableIndex       int         `json:"table_index,omitempty"`
	TableChunk       int         `json:"table_chunk,omitempty"`
	TableTotalChunks int         `json:"table_total_chunks,omitempty"`
}

// Chunk is the unit of embedding and retrieval. Immutable once created and
// content-addressed by Text for deduplication.
type Chunk struct {
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
}

type RetrievalSignal string

const (
	SignalVector  RetrievalSignal = "vector"
	SignalLexical RetrievalSignal = "lexical"
)

// RetrievalCandidate exists only during a single query's lifetime.
type RetrievalCandidate struct {
	Chunk  Chunk
	Signal RetrievalSignal
	Score  float64
}

// Answer is the generated response with its supporting chunks.
type Answer struct {
	Text    string  `json:"text"`
	Sources []Chunk `json:"sources"`
}
