package usecase

import (
	"strings"

	"github.com/antonvels/edu-rag-chat/internal/core/domain"
	"github.com/antonvels/edu-rag-chat/internal/core/rules"
)

// FollowUpDetector decides whether a query continues the current thread's
// conversation. It is state-free: all inputs arrive per call and the decision
// is layered pattern matching plus weighted keyword scoring, tuned to reject
// independent factual questions while catching short contextual ones.
type FollowUpDetector struct {
	rules *rules.Ruleset
}

func NewFollowUpDetector(rs *rules.Ruleset) *FollowUpDetector {
	return &FollowUpDetector{rules: rs}
}

// Detect classifies the query against thread-scoped history. History must
// already be filtered to the active thread; fewer than two entries means no
// prior exchange and therefore no follow-up.
func (d *FollowUpDetector) Detect(query string, history []domain.ChatMessage) domain.FollowUpContext {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || len(history) < 2 {
		return domain.FollowUpContext{Confidence: d.rules.Thresholds.FollowUpRejected, DetectionReason: "no_prior_exchange"}
	}

	prevQuestion, prevResponse := lastExchange(history)
	if prevResponse == "" {
		return domain.FollowUpContext{Confidence: d.rules.Thresholds.FollowUpRejected, DetectionReason: "no_prior_exchange"}
	}

	for _, re := range d.rules.ThreadSummaryRes {
		if re.MatchString(q) {
			return domain.FollowUpContext{
				IsFollowUp:       true,
				Type:             domain.FollowUpTypeThreadSummary,
				PreviousQuestion: prevQuestion,
				PreviousResponse: prevResponse,
				QueryFocus:       "thread_summary",
				Confidence:       0.99,
				DetectionReason:  "thread_summary_pattern",
			}
		}
	}

	ultraHigh := false
	for _, re := range d.rules.UltraHighRes {
		if re.MatchString(q) {
			ultraHigh = true
			break
		}
	}

	semantic := d.semanticScore(q)
	context := d.contextScore(q)

	var confidence float64
	var reason string
	switch {
	case ultraHigh:
		confidence, reason = 0.99, "ultra_high_pattern"
	case semantic+context >= 5 && semantic >= 3:
		confidence, reason = d.rules.Thresholds.FollowUpHigh, "semantic_and_context"
	case semantic+context >= 4 && semantic >= 3:
		confidence, reason = d.rules.Thresholds.FollowUpMedium, "combined_score"
	default:
		reason = "below_threshold"
		if d.looksStandalone(q) {
			reason = "standalone_question"
		}
		return domain.FollowUpContext{Confidence: d.rules.Thresholds.FollowUpRejected, DetectionReason: reason}
	}

	return domain.FollowUpContext{
		IsFollowUp:       true,
		PreviousTopic:    d.extractTopic(prevResponse),
		PreviousKeywords: d.extractKeywords(prevQuestion, prevResponse),
		PreviousQuestion: prevQuestion,
		PreviousResponse: prevResponse,
		QueryFocus:       d.classifyFocus(q),
		Confidence:       confidence,
		DetectionReason:  reason,
	}
}

// semanticScore counts weighted hits from the follow-up vocabulary buckets:
// reference words weigh 3, continuation words 2, clarification words and
// question modifiers 1.
func (d *FollowUpDetector) semanticScore(query string) int {
	words := toWordSet(query)
	score := 0
	for _, w := range d.rules.ReferenceWords {
		if _, ok := words[w]; ok {
			score += 3
		}
	}
	for _, w := range d.rules.ContinuationWords {
		if _, ok := words[w]; ok {
			score += 2
		}
	}
	for _, w := range d.rules.ClarificationWords {
		if _, ok := words[w]; ok {
			score++
		}
	}
	for _, phrase := range d.rules.QuestionModifiers {
		if strings.Contains(query, phrase) {
			score++
		}
	}
	return score
}

// contextScore adds heuristics about the query's shape: brevity, missing
// domain vocabulary, bare pronouns, and implicit continuation phrasing all
// suggest the query leans on prior context.
func (d *FollowUpDetector) contextScore(query string) int {
	words := strings.Fields(query)
	score := 0

	if len(words) <= 4 {
		score += 2
	}

	hasDomainTerm := false
	pronouns := 0
	for _, w := range words {
		w = strings.Trim(w, ".,;:!?\"'()")
		if _, ok := d.rules.DomainTermSet[w]; ok {
			hasDomainTerm = true
		}
		if _, ok := d.rules.PronounSet[w]; ok {
			pronouns++
		}
	}
	if !hasDomainTerm {
		score += 2
	}
	score += pronouns

	if len(words) > 0 && len(words) <= 5 && !hasDomainTerm {
		first := strings.Trim(words[0], ".,;:!?\"'()")
		for _, starter := range d.rules.QuestionStarters {
			if first == starter {
				score += 2
				break
			}
		}
	}

	for _, re := range d.rules.ImplicitRes {
		if re.MatchString(query) {
			score += 2
			break
		}
	}
	return score
}

func (d *FollowUpDetector) looksStandalone(query string) bool {
	for _, indicator := range d.rules.StandaloneIndicators {
		if strings.Contains(query, indicator) {
			return true
		}
	}
	return false
}

// extractTopic scores each sentence of the previous answer by weighted domain
// keyword hits and returns the best sentence's significant words, capped at
// eight.
func (d *FollowUpDetector) extractTopic(answer string) string {
	best := ""
	bestScore := 0
	for _, sentence := range splitSentences(answer) {
		lower := strings.ToLower(sentence)
		score := 0
		for _, kw := range d.rules.TopicSentenceKeywords {
			if strings.Contains(lower, kw.Phrase) {
				score += kw.Weight
			}
		}
		if score > bestScore {
			bestScore = score
			best = lower
		}
	}
	if best == "" {
		return ""
	}

	significant := make([]string, 0, 8)
	for _, w := range strings.Fields(best) {
		w = strings.Trim(w, ".,;:!?\"'()")
		if len(w) < 3 {
			continue
		}
		if _, stop := d.rules.StopwordSet[w]; stop {
			continue
		}
		significant = append(significant, w)
		if len(significant) == 8 {
			break
		}
	}
	return strings.Join(significant, " ")
}

// extractKeywords pulls stopword-filtered terms of four or more characters
// from the previous exchange, question first.
func (d *FollowUpDetector) extractKeywords(question, answer string) []string {
	seen := make(map[string]struct{})
	keywords := make([]string, 0, 10)
	for _, source := range []string{question, answer} {
		for _, w := range strings.Fields(strings.ToLower(source)) {
			w = strings.Trim(w, ".,;:!?\"'()")
			if len(w) < 4 {
				continue
			}
			if _, stop := d.rules.StopwordSet[w]; stop {
				continue
			}
			if _, dup := seen[w]; dup {
				continue
			}
			seen[w] = struct{}{}
			keywords = append(keywords, w)
			if len(keywords) == 10 {
				return keywords
			}
		}
	}
	return keywords
}

func (d *FollowUpDetector) classifyFocus(query string) string {
	words := toWordSet(query)
	for _, rule := range d.rules.FocusRules {
		for _, w := range rule.Words {
			if _, ok := words[w]; ok {
				return rule.Focus
			}
		}
	}
	return "general_elaboration"
}

func lastExchange(history []domain.ChatMessage) (question, response string) {
	for i := len(history) - 1; i >= 0; i-- {
		role := strings.ToLower(strings.TrimSpace(history[i].Role))
		content := strings.TrimSpace(history[i].Content)
		if content == "" {
			continue
		}
		if response == "" && role == "assistant" {
			response = content
			continue
		}
		if response != "" && role == "user" {
			question = content
			return question, response
		}
	}
	return question, response
}

func splitSentences(text string) []string {
	out := make([]string, 0, 8)
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			s := strings.TrimSpace(text[start:i])
			if s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}
