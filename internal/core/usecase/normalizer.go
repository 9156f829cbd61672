package usecase

import (
	"strings"

	"github.com/antonvels/edu-rag-chat/internal/core/domain"
	"github.com/antonvels/edu-rag-chat/internal/core/rules"
)

// QueryNormalizer rewrites a raw query into the form retrieval runs against:
// lower-cased, stripped of interrogative boilerplate, typo-corrected, and
// augmented with recall vocabulary. It never fails; any input maps to a string.
type QueryNormalizer struct {
	rules *rules.Ruleset
}

func NewQueryNormalizer(rs *rules.Ruleset) *QueryNormalizer {
	return &QueryNormalizer{rules: rs}
}

// Normalize produces the processed query. A contextual follow-up inherits up
// to three leading topic words and two unused keywords from the previous
// exchange; every other follow-up searches fresh.
func (n *QueryNormalizer) Normalize(raw string, followUp *domain.FollowUpContext) string {
	query := strings.ToLower(strings.TrimSpace(raw))
	if query == "" {
		return query
	}

	for _, re := range n.rules.QuestionPrefixRes {
		query = re.ReplaceAllString(query, "")
	}
	query = strings.TrimSpace(query)

	words := strings.Fields(query)
	for i, w := range words {
		if fixed, ok := n.rules.TypoFixes[w]; ok {
			words[i] = fixed
			continue
		}
		if expanded, ok := n.rules.Abbreviations[w]; ok {
			words[i] = expanded
		}
	}
	query = strings.Join(words, " ")

	// A query carrying any rule's full recall vocabulary has been augmented
	// already (or needs no recall help); skipping keeps Normalize idempotent.
	if !n.alreadyAugmented(query) {
		for _, aug := range n.rules.Augmentations {
			if containsAllWords(query, aug.RequireAll) {
				query = query + " " + aug.Append
				break
			}
		}
	}

	if n.isContextualFollowUp(query, followUp) {
		query = n.prependPreviousContext(query, followUp)
	}

	return strings.TrimSpace(query)
}

// isContextualFollowUp gates context inheritance: high confidence, an
// elaboration-style focus, a short query, and at least one referential token.
func (n *QueryNormalizer) isContextualFollowUp(query string, followUp *domain.FollowUpContext) bool {
	if followUp == nil || !followUp.IsFollowUp {
		return false
	}
	if followUp.Confidence < n.rules.Thresholds.FollowUpContextual {
		return false
	}
	focusOK := false
	for _, focus := range n.rules.ContextualFoci {
		if followUp.QueryFocus == focus {
			focusOK = true
			break
		}
	}
	if !focusOK {
		return false
	}
	words := strings.Fields(query)
	if len(words) > 10 {
		return false
	}
	for _, w := range words {
		for _, token := range n.rules.ContextualTokens {
			if w == token {
				return true
			}
		}
	}
	return false
}

func (n *QueryNormalizer) prependPreviousContext(query string, followUp *domain.FollowUpContext) string {
	parts := make([]string, 0, 6)

	topicWords := strings.Fields(followUp.PreviousTopic)
	if len(topicWords) > 3 {
		topicWords = topicWords[:3]
	}
	parts = append(parts, topicWords...)

	used := toWordSet(query + " " + strings.Join(topicWords, " "))
	added := 0
	for _, kw := range followUp.PreviousKeywords {
		if added >= 2 {
			break
		}
		kw = strings.ToLower(kw)
		if _, seen := used[kw]; seen {
			continue
		}
		parts = append(parts, kw)
		used[kw] = struct{}{}
		added++
	}

	if len(parts) == 0 {
		return query
	}
	return strings.Join(parts, " ") + " " + query
}

func (n *QueryNormalizer) alreadyAugmented(query string) bool {
	for _, aug := range n.rules.Augmentations {
		if containsAllWords(query, strings.Fields(aug.Append)) {
			return true
		}
	}
	return false
}

func containsAllWords(query string, required []string) bool {
	if len(required) == 0 {
		return false
	}
	set := toWordSet(query)
	for _, term := range required {
		if _, ok := set[term]; !ok {
			return false
		}
	}
	return true
}

func toWordSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?\"'()")
		if f == "" {
			continue
		}
		out[f] = struct{}{}
	}
	return out
}
