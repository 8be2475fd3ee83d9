package ports

import (
	"context"

	"github.com/mikey/llm-spam-scorer/internal/core"
)

// InboxSource defines the interface for retrieving messages to analyze
type InboxSource interface {
	// Messages returns up to limit messages from folder in source order; limit <= 0 means all
	Messages(ctx context.Context, folder string, limit int) ([]core.Email, error)
}
