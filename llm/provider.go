package llm

import (
	"context"
	"errors"
	"fmt"

	"newsbrief/config"
)

// ErrNotConfigured is returned when the selected provider has no API key.
var ErrNotConfigured = errors.New("llm provider not configured")

// GenerateRequest is one chat-completion call.
type GenerateRequest struct {
	System      string
	Prompt      string
	Temperature float64
}

// Provider abstracts a text-generation backend.
type Provider interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	ModelName() string
}

// New returns the provider selected by LLM_PROVIDER.
func New(cfg *config.Config) (Provider, error) {
	switch cfg.LLMProvider {
	case "cohere":
		if cfg.CohereAPIKey == "" {
			return nil, fmt.Errorf("%w: COHERE_API_KEY is empty", ErrNotConfigured)
		}
		return NewCohereChat(cfg.CohereAPIKey, cfg.CohereModel), nil
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY is empty", ErrNotConfigured)
		}
		return NewOpenAIChat(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIOrgID), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}
