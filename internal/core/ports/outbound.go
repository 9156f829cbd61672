package ports

import (
	"context"
	"io"

	"github.com/antonvels/edu-rag-chat/internal/core/domain"
)

// ChunkStore performs similarity search over indexed document chunks. The store
// owns embedding; callers pass plain query text. Implementations must keep
// ordering stable for identical queries against an unchanged index.
type ChunkStore interface {
	Search(ctx context.Context, query string, topK int, filter domain.SearchFilter) ([]domain.RetrievedChunk, error)
	Neighbors(ctx context.Context, chunkID string, contextSize int) ([]domain.RetrievedChunk, error)
}

// AnswerGenerator creates the final user-facing answer. Treated as unreliable:
// it may error, return empty text, or return text that fails validation.
type AnswerGenerator interface {
	Generate(ctx context.Context, prompt, contextText string, history []domain.ChatMessage) (domain.GeneratedAnswer, error)
}

// ConversationStore is the durable record of threads and messages. Thread
// memory stays in-process; this store only persists what was said.
type ConversationStore interface {
	EnsureThread(ctx context.Context, threadID string) error
	AppendMessage(ctx context.Context, threadID, role, content string) error
	ListRecentMessages(ctx context.Context, threadID string, limit int) ([]domain.ChatMessage, error)
}

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SetPages(ctx context.Context, id string, pages int) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored document. Pages is zero for
// formats without a page concept.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (domain.ExtractedText, error)
}

// Embedder builds vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Chunker splits text into semantically usable chunks.
type Chunker interface {
	Split(text string) []string
}

// VectorIndexer writes chunk vectors into the search index.
type VectorIndexer interface {
	IndexChunks(ctx context.Context, doc *domain.Document, chunks []string, vectors [][]float32) error
}
