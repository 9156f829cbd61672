package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/antonvels/edu-rag-chat/internal/core/domain"
	"github.com/antonvels/edu-rag-chat/internal/core/ports"
	"github.com/antonvels/edu-rag-chat/internal/core/rules"
)

// SynthesisOutcome labels which terminal path produced the response text.
const (
	OutcomeGenerated     = "generated"
	OutcomeFallback      = "fallback"
	OutcomeClarification = "clarification"
)

// SynthesisResult carries the answer plus how it was produced.
type SynthesisResult struct {
	Text       string
	Reasoning  string
	Confidence float64
	Outcome    string
}

// ResponseSynthesizer produces the final answer text. The external generator
// is treated as unreliable: an error, an empty result, or a response failing
// the validity check all route to a deterministic template built from the
// composed context, so the caller always receives an answer object.
type ResponseSynthesizer struct {
	generator ports.AnswerGenerator
	rules     *rules.Ruleset
	logger    *slog.Logger
}

func NewResponseSynthesizer(generator ports.AnswerGenerator, rs *rules.Ruleset, logger *slog.Logger) *ResponseSynthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResponseSynthesizer{generator: generator, rules: rs, logger: logger}
}

// Synthesize answers the query from the composed context. Empty context takes
// the clarification path; a failed or invalid generation takes the fallback
// path. Neither returns an error.
func (s *ResponseSynthesizer) Synthesize(
	ctx context.Context,
	query, contextText string,
	chunks []domain.RetrievedChunk,
	followUp domain.FollowUpContext,
	history []domain.ChatMessage,
) SynthesisResult {
	if strings.TrimSpace(contextText) == "" {
		return s.clarify(query, followUp)
	}

	prompt := s.buildPrompt(query, followUp)
	answer, err := s.generator.Generate(ctx, prompt, contextText, history)
	if err != nil {
		s.logger.Warn("answer generation failed", "error", err)
		return s.fallback(query, chunks)
	}
	if err := s.validateAnswer(answer.Text, query); err != nil {
		s.logger.Warn("answer rejected", "error", err, "length", len(answer.Text))
		return s.fallback(query, chunks)
	}

	return SynthesisResult{
		Text:       strings.TrimSpace(answer.Text),
		Reasoning:  answer.Reasoning,
		Confidence: confidenceFor(chunks),
		Outcome:    OutcomeGenerated,
	}
}

func (s *ResponseSynthesizer) buildPrompt(query string, followUp domain.FollowUpContext) string {
	var b strings.Builder
	b.WriteString("Answer the question using ONLY the supplied context. ")
	b.WriteString("If the context does not contain the answer, say so plainly.\n")

	if followUp.IsFollowUp && followUp.PreviousQuestion != "" {
		fmt.Fprintf(&b, "\nThis is a follow-up. Pronouns like \"it\" or \"that\" refer to the previous exchange.\nPrevious question: %s\n", followUp.PreviousQuestion)
		if followUp.PreviousTopic != "" {
			fmt.Fprintf(&b, "Previous topic: %s\n", followUp.PreviousTopic)
		}
	}

	if s.wantsBrevity(query) {
		b.WriteString("\nKeep the answer brief, a few sentences at most.\n")
	} else {
		b.WriteString("\nGive a comprehensive answer with concrete details from the context.\n")
	}

	fmt.Fprintf(&b, "\nQuestion: %s", query)
	return b.String()
}

func (s *ResponseSynthesizer) wantsBrevity(query string) bool {
	lower := strings.ToLower(query)
	for _, cue := range s.rules.BrevityCues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}

// validateAnswer is the minimal quality gate on generator output: no canned
// refusals, some domain vocabulary, some relation to the query, and more than
// one sentence. Failures carry the ErrInvalidAnswer kind.
func (s *ResponseSynthesizer) validateAnswer(text, query string) error {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 20 {
		return fmt.Errorf("too short: %w", domain.ErrInvalidAnswer)
	}

	lower := strings.ToLower(trimmed)
	for _, phrase := range s.rules.RefusalPhrases {
		if strings.Contains(lower, phrase) {
			return fmt.Errorf("refusal phrase %q: %w", phrase, domain.ErrInvalidAnswer)
		}
	}

	hasDomainTerm := false
	for term := range s.rules.DomainTermSet {
		if strings.Contains(lower, term) {
			hasDomainTerm = true
			break
		}
	}
	if !hasDomainTerm {
		return fmt.Errorf("no domain vocabulary: %w", domain.ErrInvalidAnswer)
	}

	if len(trimmed) <= 200 {
		queryTokens := toTokenSet(query)
		if tokenOverlap(queryTokens, toTokenSet(lower)) == 0 {
			return fmt.Errorf("no query overlap: %w", domain.ErrInvalidAnswer)
		}
	}

	if len(splitSentences(trimmed)) < 2 {
		return fmt.Errorf("single sentence: %w", domain.ErrInvalidAnswer)
	}
	return nil
}

// fallback formats an answer directly from the best retrieved chunks using a
// small set of query-type templates.
func (s *ResponseSynthesizer) fallback(query string, chunks []domain.RetrievedChunk) SynthesisResult {
	if len(chunks) == 0 {
		return s.clarify(query, domain.FollowUpContext{})
	}

	best := chunks[0]
	for _, c := range chunks[1:] {
		if c.EnhancedRelevance > best.EnhancedRelevance {
			best = c
		}
	}
	snippet := strings.TrimSpace(best.Text)

	var text string
	switch classifyQueryType(query) {
	case "definition":
		text = fmt.Sprintf("Based on the available material: %s", snippet)
	case "howto":
		text = fmt.Sprintf("The material describes the following approach: %s", snippet)
	case "why":
		text = fmt.Sprintf("The material offers this explanation: %s", snippet)
	default:
		text = fmt.Sprintf("Here is the most relevant passage I found: %s", snippet)
	}
	if best.Filename != "" {
		text += fmt.Sprintf(" (from %s)", best.Filename)
	}

	confidence := confidenceFor(chunks) * 0.7
	return SynthesisResult{Text: text, Confidence: confidence, Outcome: OutcomeFallback}
}

// clarify handles the no-grounding path. A follow-up with prior context gets
// the previous answer excerpt and a targeted question instead of a bare "not
// found".
func (s *ResponseSynthesizer) clarify(query string, followUp domain.FollowUpContext) SynthesisResult {
	if followUp.IsFollowUp && followUp.PreviousResponse != "" {
		excerpt := followUp.PreviousResponse
		if len(excerpt) > 300 {
			excerpt = truncateBytes(excerpt, 300) + "..."
		}
		text := fmt.Sprintf(
			"I could not find new material for that. Earlier I said: %q. Which part would you like me to go deeper on?",
			excerpt,
		)
		return SynthesisResult{Text: text, Confidence: 0, Outcome: OutcomeClarification}
	}

	text := "I could not find relevant material for that question. Could you rephrase it or add more detail about what you are looking for?"
	if strings.TrimSpace(query) == "" {
		text = "Please enter a question and I will search the available material for an answer."
	}
	return SynthesisResult{Text: text, Confidence: 0, Outcome: OutcomeClarification}
}

func classifyQueryType(query string) string {
	lower := strings.ToLower(strings.TrimSpace(query))
	switch {
	case strings.HasPrefix(lower, "what is"), strings.HasPrefix(lower, "what are"), strings.HasPrefix(lower, "define"):
		return "definition"
	case strings.HasPrefix(lower, "how"):
		return "howto"
	case strings.HasPrefix(lower, "why"):
		return "why"
	default:
		return "general"
	}
}

// confidenceFor blends average similarity with small bonuses for chunk count
// and source diversity, clamped to [0,1].
func confidenceFor(chunks []domain.RetrievedChunk) float64 {
	if len(chunks) == 0 {
		return 0
	}

	sum := 0.0
	files := make(map[string]struct{})
	for _, c := range chunks {
		sum += c.Similarity
		if c.Filename != "" {
			files[c.Filename] = struct{}{}
		}
	}

	confidence := sum / float64(len(chunks))

	countBonus := float64(len(chunks)) * 0.05
	if countBonus > 0.2 {
		countBonus = 0.2
	}
	diversityBonus := float64(len(files)) * 0.03
	if diversityBonus > 0.1 {
		diversityBonus = 0.1
	}
	confidence += countBonus + diversityBonus

	if confidence > 1 {
		confidence = 1
	}
	if confidence < 0 {
		confidence = 0
	}
	return confidence
}
