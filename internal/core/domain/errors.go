package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrTemporary        = errors.New("temporary failure")

	// ErrNoGrounding marks retrieval that produced nothing even after the
	// relaxed-threshold retry. Callers treat it as "answer without sources",
	// never as a request failure.
	ErrNoGrounding = errors.New("no grounding available")

	// ErrInvalidAnswer marks a generator response that failed quality checks
	// and was replaced by fallback synthesis.
	ErrInvalidAnswer = errors.New("generated answer failed validation")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
