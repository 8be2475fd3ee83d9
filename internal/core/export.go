package core

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ExportFormat selects the output of Export
type ExportFormat string

const (
	ExportJSON ExportFormat = "json"
	ExportText ExportFormat = "text"
)

// ParseExportFormat validates a format string
func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case ExportJSON, ExportText:
		return f, nil
	default:
		return "", &ValidationError{Field: "format", Reason: fmt.Sprintf("unsupported export format %q, use json or text", s)}
	}
}

const exportTimeLayout = "2006-01-02 15:04:05"

// Export renders one conversation as JSON or plain text
func (m *ConversationManager) Export(id, format string) (string, error) {
	f, err := ParseExportFormat(format)
	if err != nil {
		return "", err
	}
	conv, ok := m.GetConversation(id)
	if !ok {
		return "", &NotFoundError{ID: id}
	}

	if f == ExportJSON {
		data, err := json.MarshalIndent(conv.ToRecord(), "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal conversation: %w", err)
		}
		return string(data), nil
	}
	return FormatText(conv), nil
}

// FormatText renders a title heading followed by one "[timestamp] Role: content" line per message
func FormatText(conv *Conversation) string {
	title := conv.Title()
	if title == "" {
		title = conv.ID()
	}

	caser := cases.Title(language.English)

	var b strings.Builder
	fmt.Fprintf(&b, "Conversation: %s\n", title)
	for _, msg := range conv.Messages() {
		fmt.Fprintf(&b, "[%s] %s: %s\n",
			msg.Timestamp().Format(exportTimeLayout),
			caser.String(string(msg.Role())),
			msg.Content())
	}
	return b.String()
}
