package usecase

import (
	"strings"

	"frontdesk/internal/domain"
)

const (
	maxReplyLength = 160
	ellipsis       = "..."
)

// personaPrompt is fixed; it is never built from user input.
func personaPrompt() string {
	return strings.Join([]string{
		"You are Sarah, a friendly receptionist for a Roofing Company.",
		"Your goal is to get the customer's Name, Issue, and Address.",
		"Keep replies short (under 160 chars). Be professional and helpful.",
		"Do not make up prices or guarantees. If asked about pricing, say you'll have someone call them.",
		"Your earlier replies appear in the conversation as Agent.",
	}, "\n")
}

func buildPrompt(history []domain.Turn) string {
	lines := make([]string, 0, len(history))
	for _, t := range history {
		lines = append(lines, speaker(t.Role)+": "+t.Text)
	}
	return personaPrompt() + "\n\nConversation:\n" + strings.Join(lines, "\n") + "\n\nRespond as Sarah:"
}

func speaker(r domain.Role) string {
	if r == domain.RoleAgent {
		return "Agent"
	}
	return "Customer"
}

// truncateReply caps s at maxReplyLength characters. Longer text keeps its first
// 157 characters followed by an ellipsis.
func truncateReply(s string) string {
	runes := []rune(s)
	if len(runes) <= maxReplyLength {
		return s
	}
	return string(runes[:maxReplyLength-len(ellipsis)]) + ellipsis
}
