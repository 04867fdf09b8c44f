package llm

import (
	"context"
	"fmt"

	"github.com/ciclofficina/tracker/internal/logging"
)

// NewProvider builds the configured provider wrapped as
// caller → retry → logging → base, so every attempt is recorded.
func NewProvider(ctx context.Context, cfg Config, recorder EventRecorder, log *logging.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "mock":
		base = NewMockProvider()
	}
	if err != nil {
		return nil, fmt.Errorf("initialize %s provider: %w", cfg.Provider, err)
	}

	return WithRetry(WithLogging(base, cfg.Provider, recorder, log), cfg.Retry, log), nil
}
