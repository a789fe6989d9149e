package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/kailas-cloud/newsradar/internal/domain"
)

// AnthropicProvider implements Provider via the Anthropic messages API.
type AnthropicProvider struct {
	client *anthropic.Client
	model  anthropic.Model
}

// NewAnthropicProvider creates an Anthropic LLM provider.
func NewAnthropicProvider(apiKey, model string) *AnthropicProvider {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	if model == "" {
		model = string(anthropic.ModelClaude3_5HaikuLatest)
	}
	return &AnthropicProvider{client: &client, model: anthropic.Model(model)}
}

// GenerateDraft produces a neutral draft brief for the story.
func (p *AnthropicProvider) GenerateDraft(ctx context.Context, story StoryContext) (string, error) {
	content, err := p.complete(ctx, draftSystemPrompt, draftUserPrompt(story))
	if err != nil {
		return "", fmt.Errorf("generate draft: %w: %w", domain.ErrDraftProviderError, err)
	}
	return content, nil
}

// ExtractEntities extracts structured entities from the text.
func (p *AnthropicProvider) ExtractEntities(ctx context.Context, text string) (domain.Entities, error) {
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

func (p *AnthropicProvider) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("no response from anthropic")
	}
	return resp.Content[0].Text, nil
}
