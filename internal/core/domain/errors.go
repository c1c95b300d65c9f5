package domain

import (
	"errors"
	"fmt"
)

// Error kinds carried through the pipeline. Callers branch on the kind with
// IsKind; the wrapped cause keeps the original failure for logs.
var (
	// ErrDocumentNotFound marks lookups for an unknown document id.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrInvalidInput marks requests or source files the pipeline cannot
	// work with (unreadable PDFs, empty extractions, bad parameters).
	ErrInvalidInput = errors.New("invalid input")
	// ErrTemporary marks failures of a backing service that may succeed on
	// a later attempt.
	ErrTemporary = errors.New("temporary failure")
)

// WrapError attaches a kind and an operation name to err so the kind
// survives further wrapping.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
