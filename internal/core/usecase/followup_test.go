package usecase

import (
	"strings"
	"testing"

	"github.com/antonvels/edu-rag-chat/internal/core/domain"
	"github.com/antonvels/edu-rag-chat/internal/core/rules"
)

func exchangeHistory() []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: "user", Content: "What is formative assessment?"},
		{Role: "assistant", Content: "Formative assessment is ongoing evaluation woven into instruction. Teachers use the feedback to adjust teaching while learning is still in progress."},
	}
}

func TestDetectRequiresPriorExchange(t *testing.T) {
	d := NewFollowUpDetector(rules.Default())

	got := d.Detect("tell me more about that", nil)
	if got.IsFollowUp {
		t.Fatalf("expected no follow-up without history, got %+v", got)
	}
	if got.DetectionReason != "no_prior_exchange" {
		t.Fatalf("unexpected reason %q", got.DetectionReason)
	}
}

func TestDetectBarePronounIsFollowUp(t *testing.T) {
	d := NewFollowUpDetector(rules.Default())

	for _, q := range []string{"it", "that", "this", "it?", "that?!"} {
		got := d.Detect(q, exchangeHistory())
		if !got.IsFollowUp {
			t.Fatalf("expected %q to be a follow-up", q)
		}
		if got.Confidence < 0.85 {
			t.Fatalf("expected confidence >= 0.85 for %q, got %f", q, got.Confidence)
		}
	}
}

func TestDetectTellMeMoreIsFollowUp(t *testing.T) {
	d := NewFollowUpDetector(rules.Default())

	got := d.Detect("tell me more", exchangeHistory())
	if !got.IsFollowUp {
		t.Fatalf("expected follow-up, got %+v", got)
	}
	if got.Confidence < 0.85 {
		t.Fatalf("expected confidence >= 0.85, got %f", got.Confidence)
	}
	if !strings.Contains(got.PreviousTopic, "assessment") {
		t.Fatalf("expected topic derived from prior answer, got %q", got.PreviousTopic)
	}
	if got.PreviousQuestion != "What is formative assessment?" {
		t.Fatalf("unexpected previous question %q", got.PreviousQuestion)
	}
}

func TestDetectStandaloneQuestionIsNotFollowUp(t *testing.T) {
	d := NewFollowUpDetector(rules.Default())

	got := d.Detect("what is summative assessment in higher education", exchangeHistory())
	if got.IsFollowUp {
		t.Fatalf("independent factual question misclassified: %+v", got)
	}
}

func TestDetectThreadSummaryPattern(t *testing.T) {
	d := NewFollowUpDetector(rules.Default())

	for _, q := range []string{"summarize our conversation", "what have we discussed so far"} {
		got := d.Detect(q, exchangeHistory())
		if !got.IsFollowUp || got.Type != domain.FollowUpTypeThreadSummary {
			t.Fatalf("expected thread summary classification for %q, got %+v", q, got)
		}
		if got.Confidence < 0.99 {
			t.Fatalf("expected confidence 0.99 for %q, got %f", q, got.Confidence)
		}
	}
}

func TestDetectFocusClassification(t *testing.T) {
	d := NewFollowUpDetector(rules.Default())

	cases := map[string]string{
		"more examples of that": "examples",
		"more types of it":      "types",
	}
	for query, want := range cases {
		got := d.Detect(query, exchangeHistory())
		if !got.IsFollowUp {
			t.Fatalf("expected %q to be a follow-up", query)
		}
		if got.QueryFocus != want {
			t.Fatalf("query %q: expected focus %q, got %q", query, want, got.QueryFocus)
		}
	}
}

func TestDetectKeywordsFilterStopwordsAndShortTerms(t *testing.T) {
	d := NewFollowUpDetector(rules.Default())

	got := d.Detect("tell me more", exchangeHistory())
	for _, kw := range got.PreviousKeywords {
		if len(kw) < 4 {
			t.Fatalf("keyword %q shorter than 4 chars", kw)
		}
		if _, stop := rules.Default().StopwordSet[kw]; stop {
			t.Fatalf("stopword %q leaked into keywords", kw)
		}
	}
	if len(got.PreviousKeywords) == 0 {
		t.Fatalf("expected keywords extracted from prior exchange")
	}
}
