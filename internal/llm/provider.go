package llm

import (
	"context"
	"encoding/json"
)

// Provider generates a structured answer for a prompt.
type Provider interface {
	// Generate sends req to the model. When req.Schema is set the returned
	// Content has already been validated against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID reports the model the provider talks to.
	ModelID() string
}

// Request is a single prompt.
type Request struct {
	System   string
	Messages []Message

	// Schema asks the provider for JSON output of this shape. Nil means
	// free text.
	Schema *Schema

	MaxTokens   int
	Temperature float64
}

// Message is one turn of the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// UserPrompt is shorthand for a request made of a single user message.
func UserPrompt(system, prompt string) Request {
	return Request{
		System:   system,
		Messages: []Message{{Role: RoleUser, Content: prompt}},
	}
}

// Schema names a JSON Schema document. Name doubles as the cache key for
// the compiled schema and as the tool or format name sent to providers.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Response is the model output.
type Response struct {
	Content json.RawMessage
	Usage   Usage
	Model   string

	// StopReason is "end" or "max_tokens".
	StopReason string
}

// Decode unmarshals the response content into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Content, v); err != nil {
		return &ErrInvalidResponse{Content: r.Content, Err: err}
	}
	return nil
}

// Usage counts tokens for one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

const (
	stopEnd       = "end"
	stopMaxTokens = "max_tokens"
)

// finish validates content against the request schema and assembles the
// response shared by every provider.
func finish(req Request, content json.RawMessage, usage Usage, model, stop string) (*Response, error) {
	if stop == stopMaxTokens && req.Schema != nil {
		return nil, &ErrMaxTokensExceeded{Content: content}
	}
	if err := validateResponse(req.Schema, content); err != nil {
		return nil, err
	}
	return &Response{Content: content, Usage: usage, Model: model, StopReason: stop}, nil
}

// resolveModel maps a short alias to a provider model id. Unknown names
// pass through unchanged.
func resolveModel(name string, aliases map[string]string) string {
	if id, ok := aliases[name]; ok {
		return id
	}
	return name
}
