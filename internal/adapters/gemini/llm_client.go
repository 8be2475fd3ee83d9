package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/mikey/llm-spam-scorer/internal/core"
)

const providerName = "gemini"

// GeminiClient is an implementation of the core.Backend interface using Google Gemini
type GeminiClient struct {
	client      *genai.Client
	modelName   string
	maxTokens   int
	temperature float32
	topP        float32
	logger      *zap.Logger
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(
	ctx context.Context,
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) (*GeminiClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Create a new Gemini client
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client:      client,
		modelName:   modelName,
		maxTokens:   maxTokens,
		temperature: temperature,
		topP:        topP,
		logger:      logger,
	}, nil
}

// Close closes the Gemini client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// GenerateResponse replays the history as a chat session and sends the final message
func (c *GeminiClient) GenerateResponse(ctx context.Context, messages []core.Message) (core.Message, error) {
	system, history, last, err := splitHistory(messages)
	if err != nil {
		return core.Message{}, core.NewBackendError(providerName, err)
	}

	// A model is cheap to build and not safe to share between chats
	model := c.client.GenerativeModel(c.modelName)
	model.SetTemperature(c.temperature)
	model.SetTopP(c.topP)
	if c.maxTokens > 0 {
		model.SetMaxOutputTokens(int32(c.maxTokens))
	}
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	session := model.StartChat()
	session.History = history

	resp, err := session.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return core.Message{}, core.NewBackendError(providerName, fmt.Errorf("failed to generate content with Gemini: %w", err))
	}

	text, err := responseText(resp)
	if err != nil {
		return core.Message{}, core.NewBackendError(providerName, err)
	}

	c.logger.Debug("Gemini response received",
		zap.String("model", c.modelName),
		zap.Int("history", len(history)))

	reply, err := core.NewMessage(text, core.RoleAssistant)
	if err != nil {
		return core.Message{}, core.NewBackendError(providerName, fmt.Errorf("unusable response: %w", err))
	}
	return reply, nil
}

// splitHistory separates system instructions, prior turns and the message to send
func splitHistory(messages []core.Message) (string, []*genai.Content, string, error) {
	var system []string
	var turns []core.Message
	for _, m := range messages {
		if m.Role() == core.RoleSystem {
			system = append(system, m.Content())
			continue
		}
		turns = append(turns, m)
	}
	if len(turns) == 0 {
		return "", nil, "", fmt.Errorf("no message to send")
	}

	history := make([]*genai.Content, 0, len(turns)-1)
	for _, m := range turns[:len(turns)-1] {
		role := "user"
		if m.Role() == core.RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Content())},
		})
	}

	return strings.Join(system, "\n\n"), history, turns[len(turns)-1].Content(), nil
}

// responseText concatenates the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from Gemini")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no text in Gemini response")
	}
	return b.String(), nil
}
