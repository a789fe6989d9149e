package llm

import (
	"fmt"
	"strings"
)

const promptVersion = "v1"

const draftSystemPrompt = `You are a financial news editor. Write a short, neutral draft brief
about the story described by the excerpts below.

Rules:
1. Lead with the single most material fact
2. Keep all numbers, names, dates and percentages exactly as given
3. No urgency words, no ALL CAPS, no dramatic metaphors
4. Attribute uncertainty where the excerpts disagree
5. 3-5 sentences, plain prose, no headline`

const entitySystemPrompt = `Extract the named entities from the news text.

Output as JSON only, no other text:
{
  "companies": ["..."],
  "people": ["..."],
  "locations": ["..."],
  "tickers": ["..."]
}

Use empty arrays for categories with no entities. Do not invent tickers.`

func draftUserPrompt(story StoryContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Headline: %s\n", story.Headline)
	fmt.Fprintf(&b, "Covered by %d distinct sources.\n\nExcerpts:\n", story.SourceCount)
	for i, e := range story.Excerpts {
		fmt.Fprintf(&b, "%d. %s\n", i+1, e)
	}
	return b.String()
}
