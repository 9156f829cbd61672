package usecase

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/antonvels/edu-rag-chat/internal/core/domain"
	"github.com/antonvels/edu-rag-chat/internal/core/rules"
)

type fakeChunkStore struct {
	chunks    []domain.RetrievedChunk
	neighbors []domain.RetrievedChunk
	failOn    string
	queries   []string
}

func (f *fakeChunkStore) Search(_ context.Context, query string, topK int, _ domain.SearchFilter) ([]domain.RetrievedChunk, error) {
	f.queries = append(f.queries, query)
	if f.failOn != "" && query == f.failOn {
		return nil, fmt.Errorf("search backend unavailable")
	}
	if len(f.chunks) > topK {
		return append([]domain.RetrievedChunk(nil), f.chunks[:topK]...), nil
	}
	return append([]domain.RetrievedChunk(nil), f.chunks...), nil
}

func (f *fakeChunkStore) Neighbors(_ context.Context, _ string, _ int) ([]domain.RetrievedChunk, error) {
	return append([]domain.RetrievedChunk(nil), f.neighbors...), nil
}

func manyChunks(n int, similarity float64) []domain.RetrievedChunk {
	out := make([]domain.RetrievedChunk, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.RetrievedChunk{
			ID:         fmt.Sprintf("c-%d", i),
			Text:       fmt.Sprintf("assessment passage %d about student learning", i),
			Filename:   fmt.Sprintf("doc-%d.pdf", i%3),
			ChunkIndex: i,
			Similarity: similarity,
		})
	}
	return out
}

func TestClassifyComplexity(t *testing.T) {
	e := NewRetrievalEngine(&fakeChunkStore{}, rules.Default(), RetrievalCaps{}, nil)

	cases := map[string]domain.QueryComplexity{
		"formative assessment": domain.ComplexitySimple,
		"how do teachers use formative assessment results": domain.ComplexityModerate,
		"compare formative and summative assessment":       domain.ComplexityComplex,
	}
	for query, want := range cases {
		if got := e.Classify(query); got != want {
			t.Fatalf("query %q: expected %s, got %s", query, want, got)
		}
	}
}

func TestRetrieveRespectsComplexityCaps(t *testing.T) {
	store := &fakeChunkStore{chunks: manyChunks(20, 0.9)}
	e := NewRetrievalEngine(store, rules.Default(), RetrievalCaps{}, nil)

	for complexity, limit := range map[domain.QueryComplexity]int{
		domain.ComplexitySimple:   4,
		domain.ComplexityModerate: 6,
		domain.ComplexityComplex:  8,
	} {
		got, err := e.Retrieve(context.Background(), "formative assessment practices", complexity, domain.SearchFilter{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) > limit {
			t.Fatalf("complexity %s: expected at most %d chunks, got %d", complexity, limit, len(got))
		}
	}
}

func TestRetrieveRelaxedThresholdBackoff(t *testing.T) {
	store := &fakeChunkStore{chunks: manyChunks(3, 0.28)}
	e := NewRetrievalEngine(store, rules.Default(), RetrievalCaps{}, nil)

	got, err := e.Retrieve(context.Background(), "assessment practices", domain.ComplexitySimple, domain.SearchFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) == 0 {
		t.Fatalf("expected relaxed threshold to admit 0.28-similarity chunks")
	}
}

func TestRetrieveEmptyWhenNothingClearsThreshold(t *testing.T) {
	store := &fakeChunkStore{chunks: manyChunks(3, 0.1)}
	e := NewRetrievalEngine(store, rules.Default(), RetrievalCaps{}, nil)

	got, err := e.Retrieve(context.Background(), "assessment practices", domain.ComplexitySimple, domain.SearchFilter{})
	if len(got) != 0 {
		t.Fatalf("expected empty result below all thresholds, got %d", len(got))
	}
	if !domain.IsKind(err, domain.ErrNoGrounding) {
		t.Fatalf("expected no-grounding error kind, got %v", err)
	}
}

func TestRetrieveDegradesOnStrategyFailure(t *testing.T) {
	query := "what about formative assessment tools"
	store := &fakeChunkStore{
		chunks: manyChunks(5, 0.8),
		failOn: query,
	}
	e := NewRetrievalEngine(store, rules.Default(), RetrievalCaps{}, nil)

	got, err := e.Retrieve(context.Background(), query, domain.ComplexitySimple, domain.SearchFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) == 0 {
		t.Fatalf("expected surviving strategies to still produce chunks")
	}
	if len(store.queries) < 2 {
		t.Fatalf("expected more than the primary strategy to run, got %v", store.queries)
	}
}

func TestRetrieveEnhancedStrategyOnTriggerKeyword(t *testing.T) {
	store := &fakeChunkStore{chunks: manyChunks(5, 0.8)}
	e := NewRetrievalEngine(store, rules.Default(), RetrievalCaps{}, nil)

	if _, err := e.Retrieve(context.Background(), "formative assessment practices", domain.ComplexitySimple, domain.SearchFilter{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	enhanced := false
	for _, q := range store.queries {
		if strings.Contains(q, "assessment for learning") {
			enhanced = true
			break
		}
	}
	if !enhanced {
		t.Fatalf("expected trigger keyword to add an enhanced search, queries: %v", store.queries)
	}
}

func TestRetrieveExpandsNeighborsWhenThin(t *testing.T) {
	store := &fakeChunkStore{
		chunks: []domain.RetrievedChunk{
			{ID: "c-1", Text: "assessment passage", Filename: "doc.pdf", ChunkIndex: 3, Similarity: 0.9},
		},
		neighbors: []domain.RetrievedChunk{
			{ID: "c-0", Text: "preceding passage", Filename: "doc.pdf", ChunkIndex: 2, Similarity: 0},
			{ID: "c-2", Text: "following passage", Filename: "doc.pdf", ChunkIndex: 4, Similarity: 0},
		},
	}
	e := NewRetrievalEngine(store, rules.Default(), RetrievalCaps{}, nil)

	got, err := e.Retrieve(context.Background(), "assessment passage details", domain.ComplexitySimple, domain.SearchFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) < 2 {
		t.Fatalf("expected neighbor expansion, got %d chunks", len(got))
	}
	foundNeighbor := false
	for _, c := range got {
		if c.Strategy == domain.StrategyNeighbor {
			foundNeighbor = true
			if c.EnhancedRelevance <= 0 {
				t.Fatalf("neighbor chunk missing decayed relevance: %+v", c)
			}
		}
	}
	if !foundNeighbor {
		t.Fatalf("expected at least one neighbor-tagged chunk, got %+v", got)
	}
}

func TestRetrieveRanksByEnhancedRelevance(t *testing.T) {
	store := &fakeChunkStore{chunks: []domain.RetrievedChunk{
		{ID: "low", Text: "unrelated passage text", Filename: "a.pdf", ChunkIndex: 0, Similarity: 0.5},
		{ID: "high", Text: "formative assessment feedback for student learning", Filename: "b.pdf", ChunkIndex: 0, Similarity: 0.5},
	}}
	e := NewRetrievalEngine(store, rules.Default(), RetrievalCaps{}, nil)

	got, err := e.Retrieve(context.Background(), "formative assessment feedback", domain.ComplexitySimple, domain.SearchFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) < 2 {
		t.Fatalf("expected both chunks admitted, got %d", len(got))
	}
	if got[0].ID != "high" {
		t.Fatalf("expected domain-matching chunk ranked first, got %q", got[0].ID)
	}
}
