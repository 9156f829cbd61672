package usecase

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/antonvels/edu-rag-chat/internal/core/domain"
	"github.com/antonvels/edu-rag-chat/internal/core/ports"
	"github.com/antonvels/edu-rag-chat/internal/core/rules"
)

const defaultThreadID = "default"

// MemoryObserver receives thread-memory events the response object does not
// expose. Implementations must be cheap; calls happen under the chat mutex.
type MemoryObserver interface {
	MemoryReset()
	RelatedHit()
}

// ChatUseCase runs the full answer pipeline: normalize, detect follow-up,
// retrieve, compose, synthesize, then record the turn in thread memory. It
// owns a single ThreadMemory slot bound to whichever thread spoke last; a
// different thread id wipes it. The mutex serializes requests so interleaved
// resets and appends cannot corrupt memory.
//
// Ask never fails: every degraded path still yields a response object with a
// confidence score.
type ChatUseCase struct {
	normalizer    *QueryNormalizer
	detector      *FollowUpDetector
	retrieval     *RetrievalEngine
	composer      *ContextComposer
	synthesizer   *ResponseSynthesizer
	conversations ports.ConversationStore
	modelName     string
	logger        *slog.Logger
	observer      MemoryObserver
	seedLimit     int

	mu     sync.Mutex
	memory *ThreadMemory
}

// WithObserver attaches a memory-event observer. Call before serving traffic.
func (uc *ChatUseCase) WithObserver(observer MemoryObserver) *ChatUseCase {
	uc.observer = observer
	return uc
}

// WithHistorySeed caps how many stored messages a cold start restores.
func (uc *ChatUseCase) WithHistorySeed(limit int) *ChatUseCase {
	if limit > 0 {
		uc.seedLimit = limit
	}
	return uc
}

func NewChatUseCase(
	normalizer *QueryNormalizer,
	detector *FollowUpDetector,
	retrieval *RetrievalEngine,
	composer *ContextComposer,
	synthesizer *ResponseSynthesizer,
	conversations ports.ConversationStore,
	rs *rules.Ruleset,
	memoryCap int,
	modelName string,
	logger *slog.Logger,
) *ChatUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatUseCase{
		normalizer:    normalizer,
		detector:      detector,
		retrieval:     retrieval,
		composer:      composer,
		synthesizer:   synthesizer,
		conversations: conversations,
		modelName:     modelName,
		logger:        logger,
		seedLimit:     20,
		memory:        NewThreadMemory(rs, memoryCap),
	}
}

// Ask answers one query in the context of its thread.
func (uc *ChatUseCase) Ask(ctx context.Context, req domain.ChatRequest) (resp *domain.ChatResponse) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			uc.logger.Error("chat pipeline panic", "panic", r)
			resp = &domain.ChatResponse{
				Query:      req.Query,
				Text:       "Something went wrong while answering. Please try again.",
				Sources:    []domain.Source{},
				Confidence: 0,
				Timestamp:  time.Now().UTC(),
			}
		}
	}()

	threadID := strings.TrimSpace(req.ThreadID)
	if threadID == "" {
		threadID = defaultThreadID
	}

	reset := uc.memory.EnsureThread(threadID)
	if reset {
		uc.logger.Info("thread memory reset", "thread_id", threadID)
		if uc.observer != nil {
			uc.observer.MemoryReset()
		}
	} else if uc.memory.Len() == 0 {
		// Cold start on an already-bound thread: restore from caller history,
		// falling back to the durable conversation record.
		seed := req.History
		if len(seed) == 0 && uc.conversations != nil {
			stored, err := uc.conversations.ListRecentMessages(ctx, threadID, uc.seedLimit)
			if err != nil {
				uc.logger.Warn("load stored history failed", "thread_id", threadID, "error", err)
			} else {
				seed = stored
			}
		}
		uc.memory.Seed(seed)
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		result := uc.synthesizer.clarify("", domain.FollowUpContext{})
		return uc.respond(req.Query, nil, domain.FollowUpContext{}, result)
	}

	// History comes from memory, not the raw request: after a thread switch
	// the caller's history list is foreign and must not drive detection.
	history := uc.memory.History()
	followUp := uc.detector.Detect(query, history)

	if followUp.Type == domain.FollowUpTypeThreadSummary {
		return uc.summarizeThread(ctx, threadID, query, followUp)
	}

	processed := uc.normalizer.Normalize(query, &followUp)
	complexity := uc.retrieval.Classify(processed)
	chunks, retrieveErr := uc.retrieval.Retrieve(ctx, processed, complexity, domain.SearchFilter{})
	if retrieveErr != nil {
		uc.logger.Warn("retrieval found no grounding", "thread_id", threadID, "error", retrieveErr)
	}

	contextText := uc.composer.Compose(chunks)
	result := uc.synthesizer.Synthesize(ctx, query, contextText, chunks, followUp, history)

	if result.Outcome == OutcomeClarification && !followUp.IsFollowUp {
		if related := uc.memory.FindRelated(query); len(related) > 0 {
			result.Text += " Earlier in this conversation we touched on " + related[0].Term + "; I can expand on that if it helps."
			if uc.observer != nil {
				uc.observer.RelatedHit()
			}
		}
	}

	uc.memory.RecordTurn(query, result.Text)
	uc.persistTurn(ctx, threadID, query, result.Text)

	uc.logger.Info("chat answered",
		"thread_id", threadID,
		"complexity", string(complexity),
		"chunks_used", len(chunks),
		"is_follow_up", followUp.IsFollowUp,
		"outcome", result.Outcome,
	)

	return uc.respond(query, chunks, followUp, result)
}

// summarizeThread answers "what did we discuss" requests straight from
// memory, skipping retrieval.
func (uc *ChatUseCase) summarizeThread(ctx context.Context, threadID, query string, followUp domain.FollowUpContext) *domain.ChatResponse {
	summary := uc.memory.Summary()
	confidence := 0.9
	if summary == "" {
		summary = "We have not discussed anything in this conversation yet."
		confidence = 0
	}

	uc.memory.RecordTurn(query, summary)
	uc.persistTurn(ctx, threadID, query, summary)

	return uc.respond(query, nil, followUp, SynthesisResult{
		Text:       summary,
		Confidence: confidence,
		Outcome:    OutcomeGenerated,
	})
}

// persistTurn writes the exchange to the durable conversation store. Storage
// trouble degrades to a log line; answering has priority over persistence.
func (uc *ChatUseCase) persistTurn(ctx context.Context, threadID, question, answer string) {
	if uc.conversations == nil {
		return
	}
	if err := uc.conversations.EnsureThread(ctx, threadID); err != nil {
		uc.logger.Warn("ensure thread failed", "thread_id", threadID, "error", err)
		return
	}
	if err := uc.conversations.AppendMessage(ctx, threadID, "user", question); err != nil {
		uc.logger.Warn("persist user message failed", "thread_id", threadID, "error", err)
		return
	}
	if err := uc.conversations.AppendMessage(ctx, threadID, "assistant", answer); err != nil {
		uc.logger.Warn("persist assistant message failed", "thread_id", threadID, "error", err)
	}
}

func (uc *ChatUseCase) respond(query string, chunks []domain.RetrievedChunk, followUp domain.FollowUpContext, result SynthesisResult) *domain.ChatResponse {
	sources := make([]domain.Source, 0, len(chunks))
	seen := make(map[string]struct{}, len(chunks))
	for _, chunk := range chunks {
		if chunk.Filename == "" {
			continue
		}
		if _, dup := seen[chunk.Filename]; dup {
			continue
		}
		seen[chunk.Filename] = struct{}{}
		sources = append(sources, domain.Source{
			Filename:       chunk.Filename,
			RelevanceScore: chunk.EnhancedRelevance,
		})
	}

	resp := &domain.ChatResponse{
		Query:      query,
		Text:       result.Text,
		Reasoning:  result.Reasoning,
		Sources:    sources,
		ChunksUsed: len(chunks),
		Confidence: result.Confidence,
		ModelUsed:  uc.modelName,
		IsFollowUp: followUp.IsFollowUp,
		Timestamp:  time.Now().UTC(),
	}
	if followUp.IsFollowUp {
		fu := followUp
		resp.FollowUp = &fu
	}
	return resp
}
