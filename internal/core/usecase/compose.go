package usecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/antonvels/edu-rag-chat/internal/core/domain"
)

const defaultContextBudget = 8000

// ContextComposer turns ranked chunks into the single context string handed
// to the answer generator. Chunks are regrouped by source document and put
// back into document order inside each group, because passages read in
// sequence ground the generator better than a raw relevance ordering.
type ContextComposer struct {
	budget int
}

func NewContextComposer(budget int) *ContextComposer {
	if budget <= 0 {
		budget = defaultContextBudget
	}
	return &ContextComposer{budget: budget}
}

// Compose concatenates tagged chunk texts up to the character budget. Groups
// are ordered by their best relevance score so truncation drops the weakest
// document first.
func (c *ContextComposer) Compose(chunks []domain.RetrievedChunk) string {
	if len(chunks) == 0 {
		return ""
	}

	groups := make(map[string][]domain.RetrievedChunk)
	order := make([]string, 0, 4)
	for _, chunk := range chunks {
		if _, seen := groups[chunk.Filename]; !seen {
			order = append(order, chunk.Filename)
		}
		groups[chunk.Filename] = append(groups[chunk.Filename], chunk)
	}

	best := make(map[string]float64, len(order))
	for filename, group := range groups {
		sort.Slice(group, func(i, j int) bool {
			return group[i].ChunkIndex < group[j].ChunkIndex
		})
		top := group[0].EnhancedRelevance
		for _, chunk := range group[1:] {
			if chunk.EnhancedRelevance > top {
				top = chunk.EnhancedRelevance
			}
		}
		best[filename] = top
	}
	sort.SliceStable(order, func(i, j int) bool {
		return best[order[i]] > best[order[j]]
	})

	var b strings.Builder
	for _, filename := range order {
		for _, chunk := range groups[filename] {
			section := fmt.Sprintf("[Source: %s, Section %d]\n%s", chunk.Filename, chunk.ChunkIndex+1, strings.TrimSpace(chunk.Text))
			if b.Len() > 0 {
				if b.Len()+len(section)+len(contextSeparator) > c.budget {
					return b.String()
				}
				b.WriteString(contextSeparator)
			} else if len(section) > c.budget {
				return truncateBytes(section, c.budget)
			}
			b.WriteString(section)
		}
	}
	return b.String()
}

const contextSeparator = "\n\n---\n\n"
