package xlsx

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

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

	book, err := excelize.OpenReader(reader)
	if err != nil {
		return domain.ExtractedText{}, fmt.Errorf("parse workbook %s: %w", doc.Filename, err)
	}
	defer book.Close()

	var b strings.Builder
	sheets := book.GetSheetList()
	for _, sheet := range sheets {
		rows, err := book.GetRows(sheet)
		if err != nil {
			return domain.ExtractedText{}, fmt.Errorf("read sheet %s: %w", sheet, err)
		}

		var sheetText strings.Builder
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, "\t"))
			if line == "" {
				continue
			}
			sheetText.WriteString(line)
			sheetText.WriteString("\n")
		}
		if sheetText.Len() == 0 {
			continue
		}

		fmt.Fprintf(&b, "Sheet: %s\n%s\n", sheet, sheetText.String())
	}

	return domain.ExtractedText{
		Text:  strings.TrimSpace(b.String()),
		Pages: len(sheets),
	}, nil
}
