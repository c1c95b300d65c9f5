package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

// Document is the record of one source PDF tracked through the pipeline.
type Document struct {
	ID          string         `json:"id"`
	Filename    string         `json:"filename"`
	StoragePath string         `json:"storage_path"`
	TotalPages  int            `json:"total_pages,omitempty"`
	TextChunks  int            `json:"text_chunks,omitempty"`
	TableChunks int            `json:"table_chunks,omitempty"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// CorpusStats summarizes the chunk corpus across all ingested sources.
type CorpusStats struct {
	TotalChunks int `json:"total_chunks"`
	TextChunks  int `json:"text_chunks"`
	TableChunks int `json:"table_chunks"`
	Sources     int `json:"sources"`
}
