package tiktoken

import (
	"strings"
	"sync"

	tiktokenlib "github.com/pkoukk/tiktoken-go"
)

const DefaultEncoding = "cl100k_base"

// Tokenizer counts and truncates text in the embedding model's vocabulary.
// The underlying encoding is expensive to build, so it is loaded on first
// use and cached for the lifetime of the process.
type Tokenizer struct {
	encoding string

	once sync.Once
	enc  *tiktokenlib.Tiktoken
	err  error
}

func New(encoding string) *Tokenizer {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	return &Tokenizer{encoding: encoding}
}

func (t *Tokenizer) instance() (*tiktokenlib.Tiktoken, error) {
	t.once.Do(func() {
		t.enc, t.err = tiktokenlib.GetEncoding(t.encoding)
	})
	return t.enc, t.err
}

func (t *Tokenizer) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	enc, err := t.instance()
	if err != nil {
		return estimateTokens(text)
	}
	return len(enc.Encode(text, nil, nil))
}

func (t *Tokenizer) TruncateToTokens(text string, maxTokens int) string {
	if text == "" || maxTokens <= 0 {
		return ""
	}
	enc, err := t.instance()
	if err != nil {
		return text
	}
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return enc.Decode(tokens[:maxTokens])
}

// estimateTokens approximates a token count when the encoding cannot be
// loaded (offline vocabularies). Roughly 1.33 tokens per word.
func estimateTokens(text string) int {
	words := len(strings.Fields(text))
	tokens := int(float64(words) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
