package llm

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/newsradar/internal/domain"
)

// OpenAIProvider implements Provider via the OpenAI chat completions API.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates an OpenAI LLM provider. baseURL is optional
// and allows OpenAI-compatible gateways.
func NewOpenAIProvider(apiKey, baseURL, model string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIProvider{client: openai.NewClientWithConfig(cfg), model: model}
}

// GenerateDraft produces a neutral draft brief for the story.
func (p *OpenAIProvider) GenerateDraft(ctx context.Context, story StoryContext) (string, error) {
	content, err := p.complete(ctx, draftSystemPrompt, draftUserPrompt(story))
	if err != nil {
		return "", fmt.Errorf("generate draft: %w: %w", domain.ErrDraftProviderError, err)
	}
	return content, nil
}

// ExtractEntities extracts structured entities from the text.
func (p *OpenAIProvider) ExtractEntities(ctx context.Context, text string) (domain.Entities, error) {
	content, err := p.complete(ctx, entitySystemPrompt, text)
	if err != nil {
		return domain.Entities{}, fmt.Errorf("extract entities: %w", err)
	}

	var entities domain.Entities
	if err := json.Unmarshal([]byte(cleanJSONResponse(content)), &entities); err != nil {
		return domain.Entities{}, fmt.Errorf("parse entities response: %w, content: %s", err, content)
	}
	return entities, nil
}

func (p *OpenAIProvider) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}
	return resp.Choices[0].Message.Content, nil
}
