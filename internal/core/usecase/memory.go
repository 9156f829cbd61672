package usecase

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/antonvels/edu-rag-chat/internal/core/domain"
	"github.com/antonvels/edu-rag-chat/internal/core/rules"
)

const defaultMemoryCap = 10

// ThreadMemory retains the last exchanges of one conversation thread together
// with inverted topic and concept indices. It is scoped to exactly one thread:
// a thread id change discards everything, because cross-thread bleed corrupts
// follow-up detection and is worse than losing memory.
//
// ThreadMemory is not safe for concurrent use; the owning orchestrator
// serializes access per thread.
type ThreadMemory struct {
	rules *rules.Ruleset
	cap   int

	threadID  string
	qaPairs   []domain.QAPair
	topics    map[string][]int
	concepts  map[string][]int
	lastReset time.Time
}

func NewThreadMemory(rs *rules.Ruleset, capacity int) *ThreadMemory {
	if capacity <= 0 {
		capacity = defaultMemoryCap
	}
	return &ThreadMemory{
		rules:    rs,
		cap:      capacity,
		topics:   make(map[string][]int),
		concepts: make(map[string][]int),
	}
}

// EnsureThread binds memory to the given thread id. A mismatch with the
// stored id wipes all state and starts fresh; the first bind of a new
// instance is not counted as a reset.
func (m *ThreadMemory) EnsureThread(threadID string) (reset bool) {
	if m.threadID == threadID {
		return false
	}
	firstBind := m.threadID == ""
	m.threadID = threadID
	m.qaPairs = nil
	m.topics = make(map[string][]int)
	m.concepts = make(map[string][]int)
	m.lastReset = time.Now().UTC()
	return !firstBind
}

func (m *ThreadMemory) ThreadID() string { return m.threadID }

func (m *ThreadMemory) Len() int { return len(m.qaPairs) }

// History renders retained pairs as chronological chat messages, oldest first.
func (m *ThreadMemory) History() []domain.ChatMessage {
	out := make([]domain.ChatMessage, 0, len(m.qaPairs)*2)
	for _, qa := range m.qaPairs {
		out = append(out,
			domain.ChatMessage{Role: "user", Content: qa.Question, CreatedAt: qa.Timestamp},
			domain.ChatMessage{Role: "assistant", Content: qa.Answer, CreatedAt: qa.Timestamp},
		)
	}
	return out
}

// Seed restores memory from caller-supplied history, typically after a
// restart. It only applies to an empty memory; retained state always wins.
func (m *ThreadMemory) Seed(history []domain.ChatMessage) {
	if len(m.qaPairs) > 0 {
		return
	}
	var question string
	for _, msg := range history {
		role := strings.ToLower(strings.TrimSpace(msg.Role))
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		switch role {
		case "user":
			question = content
		case "assistant":
			if question != "" {
				m.RecordTurn(question, content)
				question = ""
			}
		}
	}
}

// RecordTurn appends one answered exchange, extracts its topics and concepts,
// and updates the inverted indices. Exceeding the cap evicts the oldest pair
// and re-bases every index entry.
func (m *ThreadMemory) RecordTurn(question, answer string) {
	combined := strings.ToLower(question + " " + answer)
	qa := domain.QAPair{
		Question:  question,
		Answer:    answer,
		Index:     len(m.qaPairs),
		Topics:    m.extractTopics(combined),
		Concepts:  m.extractConcepts(combined),
		Timestamp: time.Now().UTC(),
	}
	m.qaPairs = append(m.qaPairs, qa)

	for _, topic := range qa.Topics {
		m.topics[topic] = append(m.topics[topic], qa.Index)
	}
	for _, concept := range qa.Concepts {
		m.concepts[concept] = append(m.concepts[concept], qa.Index)
	}

	if len(m.qaPairs) > m.cap {
		m.evictOldest()
	}
}

// extractTopics matches the weighted topic phrase table against the exchange
// text; the table is ordered by weight so the strongest phrases win the five
// slots.
func (m *ThreadMemory) extractTopics(text string) []string {
	out := make([]string, 0, 5)
	for _, phrase := range m.rules.TopicPhrases {
		if strings.Contains(text, phrase.Phrase) {
			out = append(out, phrase.Phrase)
			if len(out) == 5 {
				break
			}
		}
	}
	return out
}

func (m *ThreadMemory) extractConcepts(text string) []string {
	words := toWordSet(text)
	out := make([]string, 0, 5)
	for _, concept := range m.rules.ConceptKeywords {
		if _, ok := words[concept]; ok {
			out = append(out, concept)
			if len(out) == 5 {
				break
			}
		}
	}
	return out
}

func (m *ThreadMemory) evictOldest() {
	evicted := len(m.qaPairs) - m.cap
	m.qaPairs = m.qaPairs[evicted:]
	for i := range m.qaPairs {
		m.qaPairs[i].Index = i
	}
	m.topics = rebaseIndex(m.topics, evicted, len(m.qaPairs))
	m.concepts = rebaseIndex(m.concepts, evicted, len(m.qaPairs))
}

func rebaseIndex(index map[string][]int, offset, size int) map[string][]int {
	out := make(map[string][]int, len(index))
	for term, refs := range index {
		kept := refs[:0]
		for _, ref := range refs {
			ref -= offset
			if ref >= 0 && ref < size {
				kept = append(kept, ref)
			}
		}
		if len(kept) > 0 {
			out[term] = kept
		}
	}
	return out
}

// FindRelated returns retained pairs whose topics or concepts intersect the
// query's, most recent first, with topic matches ranked above concept matches
// at equal recency.
func (m *ThreadMemory) FindRelated(query string) []domain.RelatedQA {
	lower := strings.ToLower(query)
	queryWords := toWordSet(lower)

	type hit struct {
		matchType string
		term      string
	}
	hits := make(map[int]hit)

	for _, phrase := range m.rules.TopicPhrases {
		if !strings.Contains(lower, phrase.Phrase) {
			continue
		}
		for _, idx := range m.topics[phrase.Phrase] {
			if _, taken := hits[idx]; !taken {
				hits[idx] = hit{matchType: domain.MatchTypeTopic, term: phrase.Phrase}
			}
		}
	}
	for _, concept := range m.rules.ConceptKeywords {
		if _, ok := queryWords[concept]; !ok {
			continue
		}
		for _, idx := range m.concepts[concept] {
			if _, taken := hits[idx]; !taken {
				hits[idx] = hit{matchType: domain.MatchTypeConcept, term: concept}
			}
		}
	}

	out := make([]domain.RelatedQA, 0, len(hits))
	for idx, h := range hits {
		if idx < 0 || idx >= len(m.qaPairs) {
			continue
		}
		out = append(out, domain.RelatedQA{QA: m.qaPairs[idx], MatchType: h.matchType, Term: h.term})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].QA.Index != out[j].QA.Index {
			return out[i].QA.Index > out[j].QA.Index
		}
		return out[i].MatchType == domain.MatchTypeTopic && out[j].MatchType != domain.MatchTypeTopic
	})
	return out
}

// Summary renders the retained exchanges as a numbered digest for
// thread-summary requests.
func (m *ThreadMemory) Summary() string {
	if len(m.qaPairs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Here is what we have discussed in this conversation:\n")
	for i, qa := range m.qaPairs {
		fmt.Fprintf(&b, "\n%d. You asked: %s\n", i+1, qa.Question)
		answer := qa.Answer
		if len(answer) > 200 {
			answer = truncateBytes(answer, 200) + "..."
		}
		fmt.Fprintf(&b, "   I explained: %s\n", answer)
	}
	return b.String()
}
