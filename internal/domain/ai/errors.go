package ai

import "errors"

// ErrNotConfigured indicates no API key is set. The orchestrator embeds it
// as a degraded result string instead of failing the batch.
var ErrNotConfigured = errors.New("OpenAI API key not configured. Set ai.apiKey in config or OPENAI_API_KEY")
