package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/antonvels/edu-rag-chat/internal/core/domain"
	"github.com/antonvels/edu-rag-chat/internal/core/ports"
	"github.com/antonvels/edu-rag-chat/internal/core/rules"
)

// RetrievalCaps bounds the final chunk count per complexity class. TopK per
// strategy is twice the cap so re-scoring has candidates to reject.
type RetrievalCaps struct {
	Simple   int
	Moderate int
	Complex  int
}

func (c RetrievalCaps) normalized() RetrievalCaps {
	if c.Simple <= 0 {
		c.Simple = 4
	}
	if c.Moderate <= 0 {
		c.Moderate = 6
	}
	if c.Complex <= 0 {
		c.Complex = 8
	}
	return c
}

func (c RetrievalCaps) forComplexity(complexity domain.QueryComplexity) int {
	switch complexity {
	case domain.ComplexityComplex:
		return c.Complex
	case domain.ComplexityModerate:
		return c.Moderate
	default:
		return c.Simple
	}
}

// RetrievalEngine runs the multi-strategy chunk search: a primary semantic
// pass, trigger-keyword enhanced passes, and a keyword-only fallback, unioned
// and re-ranked by a composite relevance score. A failing strategy degrades to
// whatever the others returned; a fully empty result is reported as
// ErrNoGrounding, which callers log and absorb.
type RetrievalEngine struct {
	store  ports.ChunkStore
	rules  *rules.Ruleset
	caps   RetrievalCaps
	logger *slog.Logger
}

func NewRetrievalEngine(store ports.ChunkStore, rs *rules.Ruleset, caps RetrievalCaps, logger *slog.Logger) *RetrievalEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetrievalEngine{
		store:  store,
		rules:  rs,
		caps:   caps.normalized(),
		logger: logger,
	}
}

// Classify buckets the query by word count and analytic phrasing. Comparison
// or analysis verbs force COMPLEX regardless of length.
func (e *RetrievalEngine) Classify(query string) domain.QueryComplexity {
	words := strings.Fields(strings.ToLower(query))
	for _, w := range words {
		for _, verb := range e.rules.ComparisonVerbs {
			if w == verb {
				return domain.ComplexityComplex
			}
		}
	}
	switch {
	case len(words) > 12:
		return domain.ComplexityComplex
	case len(words) > 6:
		return domain.ComplexityModerate
	default:
		return domain.ComplexitySimple
	}
}

// Retrieve returns the ranked, size-bounded chunk list for a processed query.
// An empty result carries an ErrNoGrounding-kinded error so the caller can
// record the degradation; it is never a request failure.
func (e *RetrievalEngine) Retrieve(ctx context.Context, query string, complexity domain.QueryComplexity, filter domain.SearchFilter) ([]domain.RetrievedChunk, error) {
	limit := e.caps.forComplexity(complexity)
	topK := limit * 2

	candidates := e.runStrategies(ctx, query, topK, complexity, filter)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("retrieve %q: %w", query, domain.ErrNoGrounding)
	}

	e.scoreCandidates(query, candidates)

	admitted := e.admit(candidates, e.rules.Thresholds.Similarity)
	if len(admitted) == 0 {
		admitted = e.admit(candidates, e.rules.Thresholds.Relaxed)
	}
	if len(admitted) == 0 {
		return nil, fmt.Errorf("retrieve %q after relaxed retry: %w", query, domain.ErrNoGrounding)
	}

	if len(admitted) < 2 {
		admitted = e.expandNeighbors(ctx, admitted)
	}

	sort.SliceStable(admitted, func(i, j int) bool {
		return admitted[i].EnhancedRelevance > admitted[j].EnhancedRelevance
	})
	if len(admitted) > limit {
		admitted = admitted[:limit]
	}
	return admitted, nil
}

// runStrategies executes each named search and unions the results,
// deduplicated by chunk key with the higher similarity kept.
func (e *RetrievalEngine) runStrategies(ctx context.Context, query string, topK int, complexity domain.QueryComplexity, filter domain.SearchFilter) []domain.RetrievedChunk {
	type strategy struct {
		name  string
		query string
	}
	strategies := []strategy{{name: domain.StrategyPrimary, query: query}}

	for _, trigger := range e.rules.SearchTriggers {
		if strings.Contains(query, trigger.Keyword) {
			strategies = append(strategies, strategy{
				name:  domain.StrategyEnhanced,
				query: query + " " + trigger.Append,
			})
		}
	}

	if keywords := e.coreKeywords(query); keywords != "" && keywords != query {
		strategies = append(strategies, strategy{name: domain.StrategyKeyword, query: keywords})
	}

	seen := make(map[string]int)
	merged := make([]domain.RetrievedChunk, 0, topK*len(strategies))
	for _, s := range strategies {
		chunks, err := e.store.Search(ctx, s.query, topK, filter)
		if err != nil {
			e.logger.Warn("retrieval strategy failed",
				"strategy", s.name,
				"complexity", string(complexity),
				"error", err,
			)
			continue
		}
		for _, chunk := range chunks {
			chunk.Strategy = s.name
			if s.name == domain.StrategyKeyword && chunk.Similarity < e.rules.Thresholds.KeywordFloor {
				continue
			}
			key := chunk.Key()
			if at, dup := seen[key]; dup {
				if chunk.Similarity > merged[at].Similarity {
					merged[at].Similarity = chunk.Similarity
				}
				continue
			}
			seen[key] = len(merged)
			merged = append(merged, chunk)
		}
	}
	return merged
}

func (e *RetrievalEngine) coreKeywords(query string) string {
	keywords := make([]string, 0, 8)
	for _, w := range strings.Fields(query) {
		if len(w) < 4 {
			continue
		}
		if _, stop := e.rules.StopwordSet[w]; stop {
			continue
		}
		keywords = append(keywords, w)
		if len(keywords) == 8 {
			break
		}
	}
	return strings.Join(keywords, " ")
}

// scoreCandidates computes enhanced relevance: base similarity plus a capped
// domain-term bonus plus a query-keyword overlap bonus.
func (e *RetrievalEngine) scoreCandidates(query string, chunks []domain.RetrievedChunk) {
	queryTokens := toTokenSet(query)
	for i := range chunks {
		text := strings.ToLower(chunks[i].Text)

		domainMatches := 0
		for term := range e.rules.DomainTermSet {
			if strings.Contains(text, term) {
				domainMatches++
			}
		}
		domainBonus := float64(domainMatches) * e.rules.Thresholds.DomainBonusWeight
		if domainBonus > e.rules.Thresholds.DomainBonusCap {
			domainBonus = e.rules.Thresholds.DomainBonusCap
		}

		overlap := tokenOverlap(queryTokens, toTokenSet(text))

		chunks[i].EnhancedRelevance = chunks[i].Similarity + domainBonus + overlap*e.rules.Thresholds.OverlapBonus
	}
}

// admit filters by similarity threshold; the first few candidates get a small
// slack below the bar so sparse indexes still produce grounding.
func (e *RetrievalEngine) admit(chunks []domain.RetrievedChunk, threshold float64) []domain.RetrievedChunk {
	out := make([]domain.RetrievedChunk, 0, len(chunks))
	for i, chunk := range chunks {
		bar := threshold
		if i < e.rules.Thresholds.EarlyAdmitCount {
			bar -= e.rules.Thresholds.EarlySlack
		}
		if chunk.Similarity >= bar {
			out = append(out, chunk)
		}
	}
	return out
}

// expandNeighbors pulls adjacent chunks of the best candidate when the
// admitted set is too thin to compose a useful context.
func (e *RetrievalEngine) expandNeighbors(ctx context.Context, admitted []domain.RetrievedChunk) []domain.RetrievedChunk {
	best := admitted[0]
	for _, c := range admitted[1:] {
		if c.EnhancedRelevance > best.EnhancedRelevance {
			best = c
		}
	}

	neighbors, err := e.store.Neighbors(ctx, best.ID, 2)
	if err != nil {
		e.logger.Warn("neighbor expansion failed", "chunk_id", best.ID, "error", err)
		return admitted
	}

	seen := make(map[string]struct{}, len(admitted))
	for _, c := range admitted {
		seen[c.Key()] = struct{}{}
	}
	for _, n := range neighbors {
		if _, dup := seen[n.Key()]; dup {
			continue
		}
		n.Strategy = domain.StrategyNeighbor
		n.EnhancedRelevance = best.EnhancedRelevance * e.rules.Thresholds.NeighborDecay
		admitted = append(admitted, n)
		seen[n.Key()] = struct{}{}
	}
	return admitted
}
