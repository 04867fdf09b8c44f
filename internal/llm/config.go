package llm

import (
	"fmt"
	"os"
	"time"
)

// Config selects and configures the LLM provider. An empty Provider
// disables LLM features.
type Config struct {
	// Provider is one of "anthropic", "openai", "gemini" or "mock".
	Provider string `yaml:"provider"`

	Anthropic AnthropicConfig `yaml:"anthropic"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Retry     RetryConfig     `yaml:"retry"`

	// Timeout bounds a whole Generate call, retries included.
	Timeout time.Duration `yaml:"timeout"`
}

type AnthropicConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"` // any OpenAI-compatible endpoint
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// RetryConfig tunes the backoff of WithRetry.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	InitialWait time.Duration `yaml:"initial_wait"`
	MaxWait     time.Duration `yaml:"max_wait"`
	Multiplier  float64       `yaml:"multiplier"`
}

func DefaultConfig() Config {
	return Config{
		Anthropic: AnthropicConfig{Model: "claude-haiku"},
		OpenAI:    OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:    GeminiConfig{Model: "gemini-flash"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2,
		},
		Timeout: 60 * time.Second,
	}
}

// ApplyEnv overlays TRACKER_* variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Provider, "TRACKER_LLM_PROVIDER")
	set(&c.Anthropic.APIKey, "TRACKER_ANTHROPIC_API_KEY")
	set(&c.Anthropic.Model, "TRACKER_ANTHROPIC_MODEL")
	set(&c.OpenAI.APIKey, "TRACKER_OPENAI_API_KEY")
	set(&c.OpenAI.Model, "TRACKER_OPENAI_MODEL")
	set(&c.OpenAI.BaseURL, "TRACKER_OPENAI_BASE_URL")
	set(&c.Gemini.APIKey, "TRACKER_GEMINI_API_KEY")
	set(&c.Gemini.Model, "TRACKER_GEMINI_MODEL")
	if v := getenv("TRACKER_LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Timeout = d
		}
	}
}

// Discover fills in the first provider whose vendor key is present in
// the environment (Gemini, OpenAI, then Anthropic). It does nothing when
// a provider is already selected and reports whether one is selected
// afterwards.
func (c *Config) Discover() bool {
	if c.Provider != "" {
		return true
	}
	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		c.Provider, c.Gemini.APIKey = "gemini", k
	} else if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		c.Provider, c.OpenAI.APIKey = "openai", k
	} else if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		c.Provider, c.Anthropic.APIKey = "anthropic", k
	}
	return c.Provider != ""
}

// Validate checks that the selected provider has a key.
func (c Config) Validate() error {
	missing := func(env string) error {
		return fmt.Errorf("%s is required for the %s provider", env, c.Provider)
	}
	switch c.Provider {
	case "":
		return ErrNotConfigured
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return missing("TRACKER_ANTHROPIC_API_KEY")
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			return missing("TRACKER_OPENAI_API_KEY")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return missing("TRACKER_GEMINI_API_KEY")
		}
	case "mock":
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	return nil
}
