package rules

func defaultTables() Tables {
	return Tables{
		QuestionPrefixes: []string{
			`^what\s+(is|are|do|does|can)\s+`,
			`^how\s+(do|does|can|to)\s+`,
			`^tell\s+me\s+about\s+`,
			`^explain\s+`,
			`^describe\s+`,
			`^define\s+`,
			`^what\s+types?\s+of\s+`,
			`^different\s+types\s+of\s+`,
			`^list\s+of\s+`,
			`\?+$`,
		},
		TypoFixes: map[string]string{
			"assesment":  "assessment",
			"assesments": "assessments",
			"evalution":  "evaluation",
			"evalutions": "evaluations",
			"curiculum":  "curriculum",
			"pedagogie":  "pedagogy",
			"sumative":   "summative",
			"formitive":  "formative",
		},
		Abbreviations: map[string]string{
			"ai":  "artificial intelligence",
			"ml":  "machine learning",
			"nlp": "natural language processing",
			"lms": "learning management system",
			"iep": "individualized education program",
		},
		Augmentations: []Augmentation{
			{RequireAll: []string{"formative", "assessment"}, Append: "ongoing assessment assessment for learning continuous evaluation"},
			{RequireAll: []string{"summative", "assessment"}, Append: "final assessment assessment of learning end evaluation"},
			{RequireAll: []string{"assessment"}, Append: "evaluation testing grading"},
			{RequireAll: []string{"evaluation"}, Append: "assessment testing"},
		},
		ThreadSummaryPatterns: []string{
			`(summarize|summary).*(conversation|chat|discussion|thread)`,
			`(what|tell).*(we|have).*(discussed|talked|covered)`,
			`(recap|overview).*(conversation|discussion)`,
			`(conversation|chat|discussion).*(so far|summary|overview)`,
			`^(summarize|summary|recap)$`,
		},
		UltraHighPatterns: []string{
			`(what|tell).*(we|you).*(discussed|talked|said|mentioned)`,
			`(what|how).*(above|previous|earlier|before)`,
			`(more|bit more|little more|tell more).*(about|on).*(that|this|it)`,
			`(elaborate|expand|explain).*(that|this|it|above)`,
			`(can|could).*(you|u).*(say|tell|explain).*(more|bit|little)`,
			`^(that|this|it|those|these).*(is|are|means|refers)`,
			`^(above|previous|earlier).*(mentioned|discussed|said)`,
			`^(more|bit|little).*(info|information|details)`,
			`^(tell|say|explain).*(more|bit)`,
			`^(more|bit more|little more|tell more|say more)$`,
			`^(that|this|it|above|those|these)$`,
			`^(what|how|why).*(that|this|it)$`,
			`^(explain|elaborate|expand)$`,
		},
		ImplicitPatterns: []string{
			`(can|could|would).*(you|u).*(tell|say|explain|show)`,
			`(want|need|like).*(to know|know more|understand)`,
			`^(ok|okay|alright).*(but|and|so).*(what|how|why)`,
			`(yes|yeah|yep).*(but|and|so).*(what|how|tell)`,
			`^(and|but|so|then).*(what|how|why|tell)`,
			`(still|also|too).*(want|need|like).*(know|understand)`,
		},
		StandaloneIndicators: []string{
			"what is", "how to", "explain", "define", "tell me about",
			"difference between", "types of", "examples of", "list of",
		},
		ReferenceWords:     []string{"that", "this", "it", "above", "previous", "earlier", "mentioned", "said"},
		ContinuationWords:  []string{"more", "further", "additional", "continue", "next", "also", "besides", "moreover"},
		ClarificationWords: []string{"clarify", "explain", "elaborate", "expand", "detail", "specific"},
		QuestionModifiers:  []string{"more about", "bit more", "little more", "tell me", "say more", "go on"},
		DomainTerms: []string{
			"assessment", "evaluation", "formative", "summative", "learning",
			"teaching", "education", "student", "curriculum", "instruction",
			"pedagogy", "feedback", "grading", "rubric",
		},
		Pronouns:         []string{"it", "this", "that", "these", "those", "they", "them"},
		QuestionStarters: []string{"what", "how", "why", "when", "where", "which"},
		Stopwords: []string{
			"what", "is", "are", "the", "and", "or", "but", "in", "on", "at",
			"to", "for", "of", "with", "by", "from", "how", "does", "do",
			"can", "will", "would", "tell", "me", "about", "explain",
			"describe", "give", "information", "different", "types", "type",
			"kind", "kinds", "that", "this", "with", "they", "have", "been",
			"from", "also",
		},
		TopicSentenceKeywords: []WeightedPhrase{
			{Phrase: "assessment", Weight: 3},
			{Phrase: "evaluation", Weight: 3},
			{Phrase: "formative", Weight: 3},
			{Phrase: "summative", Weight: 3},
			{Phrase: "learning", Weight: 2},
			{Phrase: "teaching", Weight: 2},
			{Phrase: "education", Weight: 2},
			{Phrase: "student", Weight: 2},
			{Phrase: "grading", Weight: 2},
			{Phrase: "testing", Weight: 2},
			{Phrase: "feedback", Weight: 2},
			{Phrase: "performance", Weight: 2},
			{Phrase: "curriculum", Weight: 2},
			{Phrase: "instruction", Weight: 2},
			{Phrase: "pedagogy", Weight: 2},
		},
		TopicPhrases: []WeightedPhrase{
			{Phrase: "summative assessment", Weight: 5},
			{Phrase: "formative assessment", Weight: 5},
			{Phrase: "learning objectives", Weight: 4},
			{Phrase: "student performance", Weight: 4},
			{Phrase: "educational technology", Weight: 4},
			{Phrase: "curriculum design", Weight: 4},
			{Phrase: "instructional strategies", Weight: 4},
			{Phrase: "learning outcomes", Weight: 4},
			{Phrase: "educational research", Weight: 4},
			{Phrase: "assessment", Weight: 3},
			{Phrase: "evaluation", Weight: 3},
			{Phrase: "feedback", Weight: 3},
			{Phrase: "grading", Weight: 3},
			{Phrase: "testing", Weight: 3},
			{Phrase: "pedagogy", Weight: 3},
		},
		ConceptKeywords: []string{
			"assessment", "evaluation", "learning", "teaching", "education",
			"student", "curriculum", "instruction", "pedagogy", "feedback",
			"performance", "outcomes", "objectives", "standards", "methods",
			"strategies", "techniques", "approaches", "frameworks", "models",
		},
		FocusRules: []FocusRule{
			{Focus: "examples", Words: []string{"example", "examples", "instance", "case"}},
			{Focus: "types", Words: []string{"type", "types", "kind", "kinds", "category"}},
			{Focus: "process", Words: []string{"how", "process", "step", "steps", "method"}},
			{Focus: "purpose", Words: []string{"why", "purpose", "reason", "goal", "benefit"}},
			{Focus: "definition", Words: []string{"what", "define", "meaning", "mean"}},
			{Focus: "comparison", Words: []string{"difference", "compare", "versus", "vs"}},
			{Focus: "implementation", Words: []string{"implement", "use", "apply", "practice"}},
		},
		SearchTriggers: []SearchTrigger{
			{Keyword: "formative", Append: "classroom checks feedback loops assessment for learning"},
			{Keyword: "summative", Append: "final exams standardized testing assessment of learning"},
			{Keyword: "rubric", Append: "scoring criteria performance levels"},
			{Keyword: "feedback", Append: "student feedback descriptive comments improvement"},
		},
		ComparisonVerbs: []string{
			"compare", "difference", "differences", "versus", "vs", "contrast",
			"analyze", "analyse", "evaluate", "relationship", "relate",
		},
		BrevityCues: []string{"briefly", "in short", "short answer", "one sentence", "quickly", "tldr"},
		RefusalPhrases: []string{
			"provide more context",
			"i need more information",
			"please clarify",
			"i don't understand",
			"insufficient information",
			"cannot answer",
			"i'm sorry, but",
			"i cannot provide",
			"unable to determine",
			"more specific question",
		},
		ContextualFoci:   []string{"general_elaboration", "examples", "types"},
		ContextualTokens: []string{"more", "examples", "types", "that", "this", "it"},
		Thresholds: Thresholds{
			Similarity:        0.35,
			Relaxed:           0.25,
			KeywordFloor:      0.20,
			EarlyAdmitCount:   5,
			EarlySlack:        0.05,
			DomainBonusWeight: 0.03,
			DomainBonusCap:    0.12,
			OverlapBonus:      0.10,
			NeighborDecay:     0.8,

			FollowUpContextual: 0.85,
			FollowUpHigh:       0.90,
			FollowUpMedium:     0.85,
			FollowUpRejected:   0.1,
		},
	}
}
