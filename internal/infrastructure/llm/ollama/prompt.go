package ollama

import (
	"fmt"
	"strings"

	"github.com/antonvels/edu-rag-chat/internal/core/domain"
)

// historyWindow bounds how much transcript goes to the model. Older turns add
// tokens without improving grounded answers.
const historyWindow = 6

func buildGenerationInput(prompt, contextText string, history []domain.ChatMessage) string {
	var b strings.Builder

	if len(history) > 0 {
		start := len(history) - historyWindow
		if start < 0 {
			start = 0
		}
		b.WriteString("Conversation so far:\n")
		for _, msg := range history[start:] {
			role := msg.Role
			if role == "" {
				role = "user"
			}
			fmt.Fprintf(&b, "%s: %s\n", role, strings.TrimSpace(msg.Content))
		}
		b.WriteString("\n")
	}

	if strings.TrimSpace(contextText) != "" {
		b.WriteString("Context:\n")
		b.WriteString(contextText)
		b.WriteString("\n\n")
	}

	b.WriteString(prompt)
	return b.String()
}
