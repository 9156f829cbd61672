package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

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

	pdfReader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return domain.ExtractedText{}, fmt.Errorf("parse pdf %s: %w", doc.Filename, err)
	}

	var b strings.Builder
	total := pdfReader.NumPage()
	for pageNum := 1; pageNum <= total; pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single broken page should not sink the document.
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}

	return domain.ExtractedText{
		Text:  strings.TrimSpace(b.String()),
		Pages: total,
	}, nil
}
