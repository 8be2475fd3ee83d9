package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/mikey/llm-spam-scorer/internal/core"
)

const (
	providerName     = "bedrock"
	anthropicVersion = "bedrock-2023-05-31"
)

// InvokeModelAPI is the subset of the Bedrock runtime client used here
type InvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockClient is an implementation of the core.Backend interface using Amazon Bedrock
type BedrockClient struct {
	client      InvokeModelAPI
	modelID     string
	maxTokens   int
	temperature float32
	topP        float32
	logger      *zap.Logger
}

// NewBedrockClient creates a new Bedrock client
func NewBedrockClient(
	client InvokeModelAPI,
	modelID string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) *BedrockClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BedrockClient{
		client:      client,
		modelID:     modelID,
		maxTokens:   maxTokens,
		temperature: temperature,
		topP:        topP,
		logger:      logger,
	}
}

// GenerateResponse invokes the model with a payload shaped for its family
func (c *BedrockClient) GenerateResponse(ctx context.Context, messages []core.Message) (core.Message, error) {
	if len(messages) == 0 {
		return core.Message{}, core.NewBackendError(providerName, fmt.Errorf("empty message history"))
	}

	payload, err := c.buildPayload(messages)
	if err != nil {
		return core.Message{}, core.NewBackendError(providerName, fmt.Errorf("failed to marshal request payload: %w", err))
	}

	// Call Bedrock API
	resp, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return core.Message{}, core.NewBackendError(providerName, fmt.Errorf("failed to invoke Bedrock model: %w", err))
	}

	responseText, err := c.parseResponse(resp.Body)
	if err != nil {
		return core.Message{}, core.NewBackendError(providerName, err)
	}

	c.logger.Debug("Bedrock response received",
		zap.String("model_id", c.modelID),
		zap.Int("response_bytes", len(resp.Body)))

	reply, err := core.NewMessage(responseText, core.RoleAssistant)
	if err != nil {
		return core.Message{}, core.NewBackendError(providerName, fmt.Errorf("unusable response: %w", err))
	}
	return reply, nil
}

func (c *BedrockClient) buildPayload(messages []core.Message) ([]byte, error) {
	switch {
	case c.isAnthropicMessagesModel():
		system, turns := anthropicTurns(messages)
		body := map[string]interface{}{
			"anthropic_version": anthropicVersion,
			"max_tokens":        c.maxTokens,
			"temperature":       c.temperature,
			"top_p":             c.topP,
			"messages":          turns,
		}
		if system != "" {
			body["system"] = system
		}
		return json.Marshal(body)

	case c.isAnthropicModel():
		// Legacy Claude text completion
		return json.Marshal(map[string]interface{}{
			"prompt":               transcript(messages, "\n\nHuman: ", "\n\nAssistant: ") + "\n\nAssistant:",
			"max_tokens_to_sample": c.maxTokens,
			"temperature":          c.temperature,
			"top_p":                c.topP,
		})

	case c.isAmazonTitanModel():
		// Amazon Titan models
		return json.Marshal(map[string]interface{}{
			"inputText": transcript(messages, "User: ", "Bot: ") + "\nBot:",
			"textGenerationConfig": map[string]interface{}{
				"maxTokenCount": c.maxTokens,
				"temperature":   c.temperature,
				"topP":          c.topP,
			},
		})

	default:
		return json.Marshal(map[string]interface{}{
			"prompt":      transcript(messages, "User: ", "Assistant: ") + "\nAssistant:",
			"max_tokens":  c.maxTokens,
			"temperature": c.temperature,
			"top_p":       c.topP,
		})
	}
}

func (c *BedrockClient) parseResponse(body []byte) (string, error) {
	switch {
	case c.isAnthropicMessagesModel():
		var claudeResp struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		}
		if err := json.Unmarshal(body, &claudeResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		var b strings.Builder
		for _, block := range claudeResp.Content {
			if block.Type == "text" {
				b.WriteString(block.Text)
			}
		}
		return b.String(), nil

	case c.isAnthropicModel():
		var claudeResp struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(body, &claudeResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		return claudeResp.Completion, nil

	case c.isAmazonTitanModel():
		var titanResp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &titanResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Titan response: %w", err)
		}
		if len(titanResp.Results) == 0 {
			return "", fmt.Errorf("empty response from Titan model")
		}
		return titanResp.Results[0].OutputText, nil

	default:
		// Try a generic approach
		var genericResp struct {
			Output     string `json:"output"`
			Text       string `json:"text"`
			Response   string `json:"response"`
			Generation string `json:"generation"`
		}
		if err := json.Unmarshal(body, &genericResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal generic response: %w", err)
		}
		for _, s := range []string{genericResp.Output, genericResp.Text, genericResp.Response, genericResp.Generation} {
			if s != "" {
				return s, nil
			}
		}
		// Just use the raw response as a string
		return string(body), nil
	}
}

// isAnthropicModel checks if the model is an Anthropic Claude model, including cross-region profiles
func (c *BedrockClient) isAnthropicModel() bool {
	return strings.Contains(c.modelID, "anthropic.claude")
}

// isAnthropicMessagesModel checks if the Claude model only speaks the messages API
func (c *BedrockClient) isAnthropicMessagesModel() bool {
	if !c.isAnthropicModel() {
		return false
	}
	return !strings.Contains(c.modelID, "claude-v2") && !strings.Contains(c.modelID, "claude-instant")
}

// isAmazonTitanModel checks if the model is an Amazon Titan model
func (c *BedrockClient) isAmazonTitanModel() bool {
	return strings.HasPrefix(c.modelID, "amazon.titan")
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

// anthropicTurns lifts system messages out and merges adjacent turns of the same role
func anthropicTurns(messages []core.Message) (string, []anthropicMessage) {
	var system []string
	var turns []anthropicMessage
	for _, m := range messages {
		role := "user"
		switch m.Role() {
		case core.RoleSystem:
			system = append(system, m.Content())
			continue
		case core.RoleAssistant:
			role = "assistant"
		}
		if n := len(turns); n > 0 && turns[n-1].Role == role {
			turns[n-1].Content = append(turns[n-1].Content, anthropicContent{Type: "text", Text: m.Content()})
			continue
		}
		turns = append(turns, anthropicMessage{
			Role:    role,
			Content: []anthropicContent{{Type: "text", Text: m.Content()}},
		})
	}
	return strings.Join(system, "\n\n"), turns
}

// transcript renders the history as a plain-text dialogue. System text leads the prompt unlabelled.
func transcript(messages []core.Message, userLabel, assistantLabel string) string {
	var b strings.Builder
	for _, m := range messages {
		switch m.Role() {
		case core.RoleSystem:
			b.WriteString(m.Content())
		case core.RoleAssistant:
			b.WriteString(assistantLabel)
			b.WriteString(m.Content())
		default:
			b.WriteString(userLabel)
			b.WriteString(m.Content())
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
