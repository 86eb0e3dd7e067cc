// Package provider wraps the OpenAI SDK for account-level concerns: API key
// validation and model discovery. The completion path itself lives in
// internal/llm.
package provider

import (
	"context"
	"fmt"
	"sort"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ModelInfo describes a chat model available to the configured API key
type ModelInfo struct {
	ID      string
	OwnedBy string
	Created int64
}

// OpenAIProvider lists models and validates credentials against the OpenAI API
type OpenAIProvider struct {
	client openai.Client
}

// NewOpenAIProvider creates a provider for the given credentials
func NewOpenAIProvider(apiKey, baseURL string) *OpenAIProvider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIProvider{client: openai.NewClient(opts...)}
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

// ListModels returns the chat-capable models, sorted by id. Embeddings, audio
// and image models are filtered out.
func (p *OpenAIProvider) ListModels(ctx context.Context) ([]*ModelInfo, error) {
	var models []*ModelInfo

	iter := p.client.Models.ListAutoPaging(ctx)
	for iter.Next() {
		model := iter.Current()
		if !isChatModel(model.ID) {
			continue
		}
		models = append(models, &ModelInfo{
			ID:      model.ID,
			OwnedBy: model.OwnedBy,
			Created: model.Created,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, nil
}

// Validate checks that the configured API key is accepted
func (p *OpenAIProvider) Validate(ctx context.Context) error {
	if _, err := p.client.Models.List(ctx); err != nil {
		return fmt.Errorf("openai credentials rejected: %w", err)
	}
	return nil
}

func isChatModel(id string) bool {
	if !strings.HasPrefix(id, "gpt-") && !strings.HasPrefix(id, "o1") && !strings.HasPrefix(id, "o3") {
		return false
	}
	// Fine-tuned model ids contain colons
	if strings.Contains(id, ":") {
		return false
	}
	for _, excluded := range []string{"audio", "realtime", "transcribe", "tts", "search", "instruct"} {
		if strings.Contains(id, excluded) {
			return false
		}
	}
	return true
}
