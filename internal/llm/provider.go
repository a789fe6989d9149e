// Package llm implements the draft-generation and entity-extraction
// collaborators behind a single provider interface, with OpenAI and
// Anthropic implementations.
package llm

import (
	"context"
	"strings"

	"github.com/kailas-cloud/newsradar/internal/domain"
)

// StoryContext is the input assembled for draft generation.
type StoryContext struct {
	Headline    string
	Excerpts    []string
	SourceCount int
}

// Provider is the LLM collaborator contract. Both operations are
// best-effort from the pipeline's perspective: callers bound them with
// timeouts and degrade on error.
type Provider interface {
	GenerateDraft(ctx context.Context, story StoryContext) (string, error)
	ExtractEntities(ctx context.Context, text string) (domain.Entities, error)
}

// cleanJSONResponse strips markdown fences some models wrap around JSON.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
