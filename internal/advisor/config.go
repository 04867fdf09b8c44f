package advisor

// Config tunes the prompt and the model call.
type Config struct {
	MaxTokens   int
	Temperature float64

	// MaxCandidates caps the catalog lines sent to the model.
	MaxCandidates int

	// MaxSuggestions caps what is asked for and what is kept.
	MaxSuggestions int
}

func DefaultConfig() Config {
	return Config{
		MaxTokens:      1024,
		Temperature:    0.2,
		MaxCandidates:  150,
		MaxSuggestions: 5,
	}
}
