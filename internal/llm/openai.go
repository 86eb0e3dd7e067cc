package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/codefionn/codeflink/internal/consts"
	"github.com/codefionn/codeflink/internal/logger"
	"github.com/codefionn/codeflink/internal/session"
	"github.com/codefionn/codeflink/internal/tools"
)

const openAIDefaultBaseURL = "https://api.openai.com/v1"

// OpenAIClient implements Gateway against the OpenAI chat-completions API
type OpenAIClient struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	toolDefs    []toolDefinition
	temperature float64
	maxTokens   int
}

// NewOpenAIClient constructs a gateway that talks directly to the OpenAI API.
// The tool schema is derived from the registry at construction time.
func NewOpenAIClient(apiKey, baseURL string, registry *tools.Registry, temperature float64, maxTokens int) (*OpenAIClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("openai client requires an API key")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = openAIDefaultBaseURL
	}

	return &OpenAIClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: consts.Timeout2Minutes,
		},
		toolDefs:    buildToolDefinitions(registry),
		temperature: temperature,
		maxTokens:   maxTokens,
	}, nil
}

func (c *OpenAIClient) Complete(ctx context.Context, messages []*session.Message, model string) (*Completion, error) {
	payload := &chatRequest{
		Model:      model,
		Messages:   convertMessages(messages),
		Tools:      c.toolDefs,
		ToolChoice: "auto",
	}
	if c.temperature != 0 {
		temp := c.temperature
		payload.Temperature = &temp
	}
	if c.maxTokens != 0 {
		maxTokens := c.maxTokens
		payload.MaxTokens = &maxTokens
	}

	httpReq, err := c.newChatRequest(ctx, payload)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai completion failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("openai completion failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("openai completion failed: %w", err)
	}

	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message == nil {
		logger.Warn("openai response contained no choices")
		return nil, ErrNoChoices
	}

	msg := chatResp.Choices[0].Message
	completion := &Completion{}
	if msg.Content != nil {
		completion.Text = *msg.Content
	}
	for _, call := range msg.ToolCalls {
		completion.ToolCalls = append(completion.ToolCalls, ToolCallRequest{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		})
	}

	return completion, nil
}

func (c *OpenAIClient) newChatRequest(ctx context.Context, payload *chatRequest) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("openai failed to encode payload: %w", err)
	}

	url := fmt.Sprintf("%s/chat/completions", strings.TrimRight(c.baseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	return req, nil
}

func buildToolDefinitions(registry *tools.Registry) []toolDefinition {
	list := registry.List()
	defs := make([]toolDefinition, 0, len(list))
	for _, tool := range list {
		defs = append(defs, toolDefinition{
			Type: "function",
			Function: functionDefinition{
				Name:        tool.Name(),
				Description: tool.Description(),
				Parameters:  tool.Parameters(),
			},
		})
	}
	return defs
}

type chatRequest struct {
	Model       string           `json:"model"`
	Messages    []chatMessage    `json:"messages"`
	Tools       []toolDefinition `json:"tools,omitempty"`
	ToolChoice  string           `json:"tool_choice,omitempty"`
	Temperature *float64         `json:"temperature,omitempty"`
	MaxTokens   *int             `json:"max_tokens,omitempty"`
}

type toolDefinition struct {
	Type     string             `json:"type"`
	Function functionDefinition `json:"function"`
}

type functionDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Index        int          `json:"index"`
	Message      *chatMessage `json:"message"`
	FinishReason string       `json:"finish_reason"`
}
