package plaintext

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/antonvels/edu-rag-chat/internal/core/domain"
	"github.com/antonvels/edu-rag-chat/internal/core/ports"
)

type Extractor struct {
	storage ports.ObjectStorage
}

func NewExtractor(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.Document) (domain.ExtractedText, error) {
	reader, err := e.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return domain.ExtractedText{}, fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return domain.ExtractedText{}, fmt.Errorf("read source document: %w", err)
	}

	if !utf8.Valid(raw) {
		return domain.ExtractedText{}, fmt.Errorf("unsupported binary format: %s", doc.Filename)
	}

	return domain.ExtractedText{Text: strings.TrimSpace(string(raw))}, nil
}
