package domain

import "strconv"

type SearchFilter struct {
	Namespace string
}

// QueryComplexity buckets a query for retrieval breadth.
type QueryComplexity string

const (
	ComplexitySimple   QueryComplexity = "simple"
	ComplexityModerate QueryComplexity = "moderate"
	ComplexityComplex  QueryComplexity = "complex"
)

// Retrieval strategy tags attached to candidates for observability and scoring.
const (
	StrategyPrimary  = "primary"
	StrategyEnhanced = "enhanced"
	StrategyKeyword  = "keyword"
	StrategyNeighbor = "neighbor"
)

// RetrievedChunk is a read-only view over a chunk returned by the vector store.
// Similarity is the store's score; EnhancedRelevance is the composite score the
// retrieval engine ranks by.
type RetrievedChunk struct {
	ID                string  `json:"id"`
	Text              string  `json:"text"`
	Filename          string  `json:"filename"`
	ChunkIndex        int     `json:"chunk_index"`
	Similarity        float64 `json:"similarity_score"`
	EnhancedRelevance float64 `json:"enhanced_relevance"`
	Strategy          string  `json:"strategy,omitempty"`
}

// Key identifies a chunk across strategies for dedup.
func (c RetrievedChunk) Key() string {
	if c.ID != "" {
		return c.ID
	}
	return c.Filename + "#" + strconv.Itoa(c.ChunkIndex)
}
