package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/quizmind/internal/logger"
	"github.com/abhisek/quizmind/internal/store"
)

// NewProvider creates a Provider from configuration, wrapped so that every
// attempt is recorded in eventRepo and transient failures are retried.
// A nil eventRepo disables request recording.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, log *logger.Logger) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	retry := cfg.Retry
	if cfg.Timeout > 0 {
		retry.AttemptTimeout = cfg.Timeout
	}

	// caller → retry → logging → base
	p := base
	if eventRepo != nil {
		p = WithLogging(p, eventRepo, log)
	}
	return WithRetry(p, retry), nil
}
