package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/antonvels/edu-rag-chat/internal/core/domain"
	"github.com/antonvels/edu-rag-chat/internal/core/rules"
)

type fakeThreadStore struct {
	threads  map[string]struct{}
	messages []domain.ChatMessage
}

func (f *fakeThreadStore) EnsureThread(_ context.Context, threadID string) error {
	if f.threads == nil {
		f.threads = make(map[string]struct{})
	}
	f.threads[threadID] = struct{}{}
	return nil
}

func (f *fakeThreadStore) AppendMessage(_ context.Context, _, role, content string) error {
	f.messages = append(f.messages, domain.ChatMessage{Role: role, Content: content})
	return nil
}

func (f *fakeThreadStore) ListRecentMessages(_ context.Context, _ string, _ int) ([]domain.ChatMessage, error) {
	return append([]domain.ChatMessage(nil), f.messages...), nil
}

func newChatUseCase(store *fakeChunkStore, gen *fakeGenerator, conversations *fakeThreadStore) *ChatUseCase {
	rs := rules.Default()
	return NewChatUseCase(
		NewQueryNormalizer(rs),
		NewFollowUpDetector(rs),
		NewRetrievalEngine(store, rs, RetrievalCaps{}, nil),
		NewContextComposer(0),
		NewResponseSynthesizer(gen, rs, nil),
		conversations,
		rs,
		10,
		"test-model",
		nil,
	)
}

func TestAskFreshQuestionIsNotFollowUp(t *testing.T) {
	store := &fakeChunkStore{chunks: manyChunks(5, 0.8)}
	gen := &fakeGenerator{answer: "Formative assessment is ongoing evaluation during instruction. It guides teaching adjustments."}
	conversations := &fakeThreadStore{}
	uc := newChatUseCase(store, gen, conversations)

	resp := uc.Ask(context.Background(), domain.ChatRequest{ThreadID: "t1", Query: "What is formative assessment?"})
	if resp == nil {
		t.Fatalf("Ask must always return a response")
	}
	if resp.IsFollowUp {
		t.Fatalf("first question must not be a follow-up")
	}
	if resp.ChunksUsed == 0 {
		t.Fatalf("expected grounded answer, got %+v", resp)
	}
	if len(resp.Sources) == 0 {
		t.Fatalf("expected source citations")
	}
	if len(conversations.messages) != 2 {
		t.Fatalf("expected user+assistant persisted, got %d", len(conversations.messages))
	}
}

func TestAskTellMeMoreInheritsContext(t *testing.T) {
	store := &fakeChunkStore{chunks: manyChunks(5, 0.8)}
	gen := &fakeGenerator{answer: "Formative assessment is ongoing evaluation during instruction. It guides teaching adjustments."}
	uc := newChatUseCase(store, gen, &fakeThreadStore{})

	uc.Ask(context.Background(), domain.ChatRequest{ThreadID: "t1", Query: "What is formative assessment?"})
	store.queries = nil

	resp := uc.Ask(context.Background(), domain.ChatRequest{ThreadID: "t1", Query: "tell me more"})
	if !resp.IsFollowUp {
		t.Fatalf("expected follow-up classification, got %+v", resp)
	}
	if resp.FollowUp == nil || resp.FollowUp.Confidence < 0.85 {
		t.Fatalf("expected high-confidence follow-up context, got %+v", resp.FollowUp)
	}
	inherited := false
	for _, q := range store.queries {
		if strings.Contains(q, "assessment") {
			inherited = true
			break
		}
	}
	if !inherited {
		t.Fatalf("expected retrieval query enriched with prior topic, got %v", store.queries)
	}
}

func TestAskThreadSwitchResetsMemory(t *testing.T) {
	store := &fakeChunkStore{chunks: manyChunks(5, 0.8)}
	gen := &fakeGenerator{answer: "Formative assessment is ongoing evaluation during instruction. It guides teaching adjustments."}
	uc := newChatUseCase(store, gen, &fakeThreadStore{})

	first := uc.Ask(context.Background(), domain.ChatRequest{ThreadID: "t1", Query: "What is formative assessment?"})

	// Identical history payload, different thread: isolation overrides the
	// raw history list.
	history := []domain.ChatMessage{
		{Role: "user", Content: "What is formative assessment?"},
		{Role: "assistant", Content: first.Text},
	}
	resp := uc.Ask(context.Background(), domain.ChatRequest{ThreadID: "t2", Query: "tell me more", History: history})
	if resp.IsFollowUp {
		t.Fatalf("foreign thread history must not drive follow-up detection")
	}
}

func TestAskThreadSwitchBackStartsFresh(t *testing.T) {
	store := &fakeChunkStore{chunks: manyChunks(5, 0.8)}
	gen := &fakeGenerator{answer: "Formative assessment is ongoing evaluation during instruction. It guides teaching adjustments."}
	uc := newChatUseCase(store, gen, &fakeThreadStore{})

	uc.Ask(context.Background(), domain.ChatRequest{ThreadID: "t1", Query: "What is formative assessment?"})
	uc.Ask(context.Background(), domain.ChatRequest{ThreadID: "t2", Query: "What is summative assessment?"})

	resp := uc.Ask(context.Background(), domain.ChatRequest{ThreadID: "t1", Query: "tell me more"})
	if resp.IsFollowUp {
		t.Fatalf("memory must not be restored after a thread switch, got %+v", resp)
	}
}

func TestAskEmptyRetrievalYieldsClarification(t *testing.T) {
	store := &fakeChunkStore{}
	gen := &fakeGenerator{answer: "unused"}
	uc := newChatUseCase(store, gen, &fakeThreadStore{})

	resp := uc.Ask(context.Background(), domain.ChatRequest{ThreadID: "t1", Query: "What is formative assessment?"})
	if resp.Confidence != 0 {
		t.Fatalf("expected zero confidence without grounding, got %f", resp.Confidence)
	}
	if len(resp.Sources) != 0 {
		t.Fatalf("expected no sources, got %+v", resp.Sources)
	}
	if resp.Text == "" {
		t.Fatalf("clarification text must not be empty")
	}
}

func TestAskThreadSummaryAnsweredFromMemory(t *testing.T) {
	store := &fakeChunkStore{chunks: manyChunks(5, 0.8)}
	gen := &fakeGenerator{answer: "Formative assessment is ongoing evaluation during instruction. It guides teaching adjustments."}
	uc := newChatUseCase(store, gen, &fakeThreadStore{})

	uc.Ask(context.Background(), domain.ChatRequest{ThreadID: "t1", Query: "What is formative assessment?"})
	store.queries = nil

	resp := uc.Ask(context.Background(), domain.ChatRequest{ThreadID: "t1", Query: "summarize our conversation"})
	if !strings.Contains(resp.Text, "What is formative assessment?") {
		t.Fatalf("summary must recount prior turns, got %q", resp.Text)
	}
	if len(store.queries) != 0 {
		t.Fatalf("thread summary must not hit retrieval, got %v", store.queries)
	}
}

func TestAskEmptyQueryStillAnswers(t *testing.T) {
	store := &fakeChunkStore{}
	gen := &fakeGenerator{}
	uc := newChatUseCase(store, gen, &fakeThreadStore{})

	resp := uc.Ask(context.Background(), domain.ChatRequest{ThreadID: "t1", Query: "   "})
	if resp == nil || resp.Text == "" {
		t.Fatalf("empty query must still produce a response, got %+v", resp)
	}
	if resp.Confidence != 0 {
		t.Fatalf("expected zero confidence, got %f", resp.Confidence)
	}
}

func TestAskColdStartSeedsFromHistory(t *testing.T) {
	store := &fakeChunkStore{chunks: manyChunks(5, 0.8)}
	gen := &fakeGenerator{answer: "Formative assessment is ongoing evaluation during instruction. It guides teaching adjustments."}
	uc := newChatUseCase(store, gen, &fakeThreadStore{})

	history := []domain.ChatMessage{
		{Role: "user", Content: "What is formative assessment?"},
		{Role: "assistant", Content: "Formative assessment is ongoing evaluation woven into teaching."},
	}
	resp := uc.Ask(context.Background(), domain.ChatRequest{ThreadID: "t1", Query: "tell me more", History: history})
	if !resp.IsFollowUp {
		t.Fatalf("history supplied on first contact must seed memory, got %+v", resp)
	}
}

func FuzzAskNeverPanics(f *testing.F) {
	f.Add("What is formative assessment?")
	f.Add("")
	f.Add("it")
	f.Add("summarize")
	f.Add(strings.Repeat("assessment ", 500))
	f.Add("질문 на разных языках 😀")

	store := &fakeChunkStore{chunks: manyChunks(5, 0.8)}
	gen := &fakeGenerator{answer: "Formative assessment is ongoing evaluation during instruction. It guides teaching adjustments."}
	uc := newChatUseCase(store, gen, &fakeThreadStore{})

	f.Fuzz(func(t *testing.T, query string) {
		resp := uc.Ask(context.Background(), domain.ChatRequest{ThreadID: "t1", Query: query})
		if resp == nil {
			t.Fatalf("Ask returned nil for %q", query)
		}
		if resp.Text == "" {
			t.Fatalf("Ask returned empty text for %q", query)
		}
		if resp.Confidence < 0 || resp.Confidence > 1 {
			t.Fatalf("confidence out of range for %q: %f", query, resp.Confidence)
		}
	})
}
