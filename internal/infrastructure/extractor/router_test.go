package extractor

import (
	"context"
	"testing"

	"github.com/antonvels/edu-rag-chat/internal/core/domain"
)

type stubExtractor struct {
	name  string
	calls int
}

func (s *stubExtractor) Extract(_ context.Context, _ *domain.Document) (domain.ExtractedText, error) {
	s.calls++
	return domain.ExtractedText{Text: s.name}, nil
}

func TestRouterDispatchesByExtension(t *testing.T) {
	fallback := &stubExtractor{name: "plain"}
	pdfStub := &stubExtractor{name: "pdf"}

	router := NewRouter(fallback).Register(".pdf", pdfStub)

	got, err := router.Extract(context.Background(), &domain.Document{Filename: "Guide.PDF"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got.Text != "pdf" {
		t.Fatalf("expected pdf extractor, got %q", got.Text)
	}
	if fallback.calls != 0 {
		t.Fatalf("fallback should not be called")
	}
}

func TestRouterFallsBackForUnknownExtension(t *testing.T) {
	fallback := &stubExtractor{name: "plain"}
	router := NewRouter(fallback).Register("pdf", &stubExtractor{name: "pdf"})

	got, err := router.Extract(context.Background(), &domain.Document{Filename: "notes.md"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got.Text != "plain" {
		t.Fatalf("expected fallback extractor, got %q", got.Text)
	}
}
