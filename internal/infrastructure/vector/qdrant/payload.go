package qdrant

import (
	"fmt"

	"github.com/idanlevi/policy-rag/internal/core/domain"
)

// Payload keys mirror ChunkMetadata so the stored corpus is keyed by
// (source, content_type, page, table_index, table_chunk) alongside the text.
func chunkPayload(chunk domain.Chunk) map[string]any {
	payload := map[string]any{
		"text":         chunk.Text,
		"source":       chunk.Metadata.Source,
		"total_pages":  chunk.Metadata.TotalPages,
		"content_type": string(chunk.Metadata.ContentType),
		"page":         chunk.Metadata.Page,
	}
	if chunk.Metadata.ContentType == domain.ContentTypeTable {
		payload["table_index"] = chunk.Metadata.TableIndex
		payload["table_chunk"] = chunk.Metadata.TableChunk
		payload["table_total_chunks"] = chunk.Metadata.TableTotalChunks
	}
	return payload
}

func chunkFromPayload(payload map[string]any) domain.Chunk {
	return domain.Chunk{
		Text: payloadString(payload, "text"),
		Metadata: domain.ChunkMetadata{
			Source:           payloadString(payload, "source"),
			TotalPages:       payloadInt(payload, "total_pages"),
			ContentType:      domain.ContentType(payloadString(payload, "content_type")),
			Page:             payloadInt(payload, "page"),
			TableIndex:       payloadInt(payload, "table_index"),
			TableChunk:       payloadInt(payload, "table_chunk"),
			TableTotalChunks: payloadInt(payload, "table_total_chunks"),
		},
	}
}

func payloadString(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func payloadInt(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
