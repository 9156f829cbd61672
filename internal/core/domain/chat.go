package domain

import "time"

// ChatMessage is one turn of thread history as supplied by the caller.
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

type ChatRequest struct {
	ThreadID string        `json:"thread_id,omitempty"`
	Query    string        `json:"query"`
	History  []ChatMessage `json:"history,omitempty"`
}

// FollowUpContext is computed fresh per request and never persisted.
type FollowUpContext struct {
	IsFollowUp       bool     `json:"is_follow_up"`
	Type             string   `json:"type,omitempty"`
	PreviousTopic    string   `json:"previous_topic,omitempty"`
	PreviousKeywords []string `json:"previous_keywords,omitempty"`
	PreviousQuestion string   `json:"previous_question,omitempty"`
	PreviousResponse string   `json:"previous_response,omitempty"`
	QueryFocus       string   `json:"query_focus,omitempty"`
	Confidence       float64  `json:"confidence"`
	DetectionReason  string   `json:"detection_reason,omitempty"`
}

// FollowUpTypeThreadSummary marks "what did we discuss" style requests that are
// answered from thread memory independent of topic matching.
const FollowUpTypeThreadSummary = "thread_summary"

// QAPair is one retained exchange inside thread memory.
type QAPair struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Index     int       `json:"index"`
	Topics    []string  `json:"topics,omitempty"`
	Concepts  []string  `json:"concepts,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// RelatedQA is a memory lookup hit: a retained pair plus how it matched.
type RelatedQA struct {
	QA        QAPair `json:"qa"`
	MatchType string `json:"match_type"`
	Term      string `json:"term"`
}

const (
	MatchTypeTopic   = "topic"
	MatchTypeConcept = "concept"
)

type Source struct {
	Filename       string  `json:"filename"`
	RelevanceScore float64 `json:"relevance_score"`
}

type ChatResponse struct {
	Query      string           `json:"query"`
	Text       string           `json:"response"`
	Reasoning  string           `json:"reasoning,omitempty"`
	Sources    []Source         `json:"sources"`
	ChunksUsed int              `json:"chunks_used"`
	Confidence float64          `json:"confidence"`
	ModelUsed  string           `json:"model_used,omitempty"`
	IsFollowUp bool             `json:"is_follow_up"`
	FollowUp   *FollowUpContext `json:"follow_up_context,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
}

// GeneratedAnswer is what the external answer generator returns on success.
type GeneratedAnswer struct {
	Text      string `json:"text"`
	Reasoning string `json:"reasoning,omitempty"`
}
