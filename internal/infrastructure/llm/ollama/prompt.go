package ollama

import (
	"fmt"
	"strings"

	"github.com/idanlevi/policy-rag/internal/core/domain"
)

func buildAnswerPrompt(question string, chunks []domain.Chunk) string {
	var contextBuilder strings.Builder
	for idx, chunk := range chunks {
		ref := fmt.Sprintf("[%d] source=%s", idx+1, chunk.Metadata.Source)
		if chunk.Metadata.Page > 0 {
			ref += fmt.Sprintf(" page=%d", chunk.Metadata.Page)
		}
		if chunk.Metadata.ContentType == domain.ContentTypeTable {
			ref += " (table)"
		}
		contextBuilder.WriteString(ref + "\n" + chunk.Text + "\n\n")
	}

	return fmt.Sprintf(`Answer the user question only from the policy excerpts below.
Cite the excerpt number and page for every claim.
If the excerpts are insufficient, say so directly.

Question:
%s

Excerpts:
%s
`, question, contextBuilder.String())
}
