package openai

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/mikey/llm-spam-scorer/internal/core"
)

const providerName = "openai"

// OpenAIClient is an implementation of the core.Backend interface using OpenAI chat completions
type OpenAIClient struct {
	client      *openai.Client
	modelName   string
	maxTokens   int
	temperature float32
	topP        float32
	logger      *zap.Logger
}

// NewOpenAIClient creates a new OpenAI backend
func NewOpenAIClient(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) *OpenAIClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAIClient{
		client:      client,
		modelName:   modelName,
		maxTokens:   maxTokens,
		temperature: temperature,
		topP:        topP,
		logger:      logger,
	}
}

// SetModel changes the model used for subsequent requests
func (c *OpenAIClient) SetModel(modelName string) {
	c.modelName = modelName
}

// Model returns the configured model name
func (c *OpenAIClient) Model() string {
	return c.modelName
}

// GenerateResponse sends the whole history as a chat completion request
func (c *OpenAIClient) GenerateResponse(ctx context.Context, messages []core.Message) (core.Message, error) {
	if len(messages) == 0 {
		return core.Message{}, core.NewBackendError(providerName, fmt.Errorf("empty message history"))
	}

	req := openai.ChatCompletionRequest{
		Model:       c.modelName,
		Messages:    toChatMessages(messages),
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
	}

	// Call OpenAI API
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return core.Message{}, core.NewBackendError(providerName, fmt.Errorf("failed to create chat completion: %w", err))
	}

	if len(resp.Choices) == 0 {
		return core.Message{}, core.NewBackendError(providerName, fmt.Errorf("empty response from OpenAI"))
	}

	c.logger.Debug("OpenAI completion received",
		zap.String("model", resp.Model),
		zap.String("response_id", resp.ID),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))

	reply, err := core.NewMessage(resp.Choices[0].Message.Content, core.RoleAssistant)
	if err != nil {
		return core.Message{}, core.NewBackendError(providerName, fmt.Errorf("unusable completion: %w", err))
	}
	return reply, nil
}

func toChatMessages(messages []core.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		msg := openai.ChatCompletionMessage{Content: m.Content()}
		switch m.Role() {
		case core.RoleSystem:
			msg.Role = openai.ChatMessageRoleSystem
		case core.RoleAssistant:
			msg.Role = openai.ChatMessageRoleAssistant
		case core.RoleFunction:
			msg.Role = openai.ChatMessageRoleFunction
			msg.Name = "function"
		default:
			msg.Role = openai.ChatMessageRoleUser
		}
		out = append(out, msg)
	}
	return out
}
