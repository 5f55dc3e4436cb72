package ai

import "context"

// TextGenerator generates text from a system prompt and user prompt.
// Both the hosted Solar backend and the self-hosted backend implement
// this interface.
type TextGenerator interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
