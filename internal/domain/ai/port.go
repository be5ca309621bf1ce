package ai

import "context"

// Client is the single abstraction point over the LLM provider.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
