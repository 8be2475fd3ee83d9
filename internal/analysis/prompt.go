package analysis

import (
	"fmt"
	"strings"

	"github.com/mikey/llm-spam-scorer/internal/core"
)

// DefaultSystemPrompt fixes the output contract of the scoring conversation
const DefaultSystemPrompt = "You are an AI that determines the probability that an email is spam. " +
	"Analyze the content, subject, and sender of emails. " +
	"Return ONLY a number between 0 and 100 representing the percentage " +
	"probability that the email is spam."

// buildPrompt embeds the email and asks for a 0-100 answer
func buildPrompt(email core.Email, body string) string {
	var b strings.Builder
	if email.From != "" {
		fmt.Fprintf(&b, "From: %s\n", email.From)
	}
	if email.Subject != "" {
		fmt.Fprintf(&b, "Subject: %s\n", email.Subject)
	}
	if strings.TrimSpace(body) == "" {
		body = "[empty body]"
	}
	fmt.Fprintf(&b, "Email content: %s\n\n", body)
	b.WriteString("Based on this email, what is the probability (0-100) that this is spam?")
	return b.String()
}
