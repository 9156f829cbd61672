package ports

import (
	"context"
	"io"

	"github.com/antonvels/edu-rag-chat/internal/core/domain"
)

// ChatService is the inbound contract for grounded question answering. Ask
// always terminates with a response object; degraded paths lower the
// confidence instead of erroring.
type ChatService interface {
	Ask(ctx context.Context, req domain.ChatRequest) *domain.ChatResponse
}

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType, namespace string, body io.Reader) (*domain.Document, error)
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous document processing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}
