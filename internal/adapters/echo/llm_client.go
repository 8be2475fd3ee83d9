package echo

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/llm-spam-scorer/internal/core"
)

const providerName = "echo"

// EchoClient is a deterministic Backend that needs no network.
// With a fixed reply it always answers that; otherwise it echoes the last non-system message.
type EchoClient struct {
	reply  string
	logger *zap.Logger
}

// NewEchoClient creates a new echo backend
func NewEchoClient(reply string, logger *zap.Logger) *EchoClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EchoClient{
		reply:  reply,
		logger: logger,
	}
}

// GenerateResponse implements core.Backend
func (c *EchoClient) GenerateResponse(ctx context.Context, messages []core.Message) (core.Message, error) {
	if err := ctx.Err(); err != nil {
		return core.Message{}, core.NewBackendError(providerName, err)
	}
	if len(messages) == 0 {
		return core.Message{}, core.NewBackendError(providerName, fmt.Errorf("empty message history"))
	}

	content := c.reply
	if content == "" {
		for i := len(messages) - 1; i >= 0; i-- {
			if messages[i].Role() != core.RoleSystem {
				content = "Echo: " + messages[i].Content()
				break
			}
		}
	}
	if content == "" {
		content = "Echo: " + messages[len(messages)-1].Content()
	}

	c.logger.Debug("Echo backend replying", zap.Int("history", len(messages)))

	msg, err := core.NewMessage(content, core.RoleAssistant)
	if err != nil {
		return core.Message{}, core.NewBackendError(providerName, err)
	}
	return msg, nil
}
