package usecase

import (
	"strings"
	"testing"

	"github.com/antonvels/edu-rag-chat/internal/core/domain"
	"github.com/antonvels/edu-rag-chat/internal/core/rules"
)

func TestNormalizeStripsBoilerplateAndFixesTypos(t *testing.T) {
	n := NewQueryNormalizer(rules.Default())

	got := n.Normalize("What is formitive assesment?", nil)
	if strings.Contains(got, "what is") {
		t.Fatalf("expected interrogative prefix stripped, got %q", got)
	}
	if !strings.Contains(got, "formative") || !strings.Contains(got, "assessment") {
		t.Fatalf("expected typos corrected, got %q", got)
	}
}

func TestNormalizeExpandsAbbreviations(t *testing.T) {
	n := NewQueryNormalizer(rules.Default())

	got := n.Normalize("how does ai help teachers", nil)
	if !strings.Contains(got, "artificial intelligence") {
		t.Fatalf("expected abbreviation expanded, got %q", got)
	}
}

func TestNormalizeAugmentsDomainQueries(t *testing.T) {
	n := NewQueryNormalizer(rules.Default())

	got := n.Normalize("formative assessment benefits", nil)
	if !strings.Contains(got, "assessment for learning") {
		t.Fatalf("expected recall augmentation appended, got %q", got)
	}
}

func TestNormalizeIdempotentWithoutFollowUp(t *testing.T) {
	n := NewQueryNormalizer(rules.Default())

	queries := []string{
		"grading rubric criteria",
		"student feedback practices",
		"curriculum design principles",
		"formative assessment",
		"assessment",
		"evaluation",
		"What is formative assessment?",
	}
	for _, q := range queries {
		once := n.Normalize(q, nil)
		twice := n.Normalize(once, nil)
		if once != twice {
			t.Fatalf("normalize not idempotent for %q: %q vs %q", q, once, twice)
		}
	}
}

func TestNormalizeContextualFollowUpInheritsTopic(t *testing.T) {
	n := NewQueryNormalizer(rules.Default())

	fu := &domain.FollowUpContext{
		IsFollowUp:       true,
		Confidence:       0.99,
		QueryFocus:       "general_elaboration",
		PreviousTopic:    "formative assessment ongoing evaluation",
		PreviousKeywords: []string{"feedback", "classroom"},
	}

	got := n.Normalize("tell me more", fu)
	if !strings.HasPrefix(got, "formative assessment ongoing") {
		t.Fatalf("expected topic words prepended, got %q", got)
	}
	if !strings.Contains(got, "feedback") || !strings.Contains(got, "classroom") {
		t.Fatalf("expected unused keywords prepended, got %q", got)
	}
}

func TestNormalizeNonContextualFollowUpSearchesFresh(t *testing.T) {
	n := NewQueryNormalizer(rules.Default())

	fu := &domain.FollowUpContext{
		IsFollowUp:    true,
		Confidence:    0.99,
		QueryFocus:    "comparison",
		PreviousTopic: "formative assessment",
	}

	got := n.Normalize("grading rubric criteria", fu)
	if strings.Contains(got, "formative") {
		t.Fatalf("comparison follow-up must not inherit prior topic, got %q", got)
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	n := NewQueryNormalizer(rules.Default())

	if got := n.Normalize("", nil); got != "" {
		t.Fatalf("expected empty output for empty input, got %q", got)
	}
	if got := n.Normalize("   ", nil); got != "" {
		t.Fatalf("expected empty output for blank input, got %q", got)
	}
}
