package qdrant

import (
	"context"
	"fmt"

	"github.com/antonvels/edu-rag-chat/internal/core/domain"
	"github.com/antonvels/edu-rag-chat/internal/core/ports"
)

// Store pairs the vector client with an embedder so retrieval callers can
// search by plain query text.
type Store struct {
	embedder ports.Embedder
	client   *Client
}

func NewStore(embedder ports.Embedder, client *Client) *Store {
	return &Store{embedder: embedder, client: client}
}

func (s *Store) Search(ctx context.Context, query string, topK int, filter domain.SearchFilter) ([]domain.RetrievedChunk, error) {
	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return s.client.Search(ctx, vector, topK, filter)
}

func (s *Store) Neighbors(ctx context.Context, chunkID string, contextSize int) ([]domain.RetrievedChunk, error) {
	return s.client.Neighbors(ctx, chunkID, contextSize)
}
