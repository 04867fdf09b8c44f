package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func openaiServer(t *testing.T, status int, body map[string]any) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)

	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", Model: "gpt-4o-mini", BaseURL: srv.URL + "/v1"})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func openaiCompletion(content, finish string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1234567890,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
		"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 25, "total_tokens": 65},
	}
}

func TestOpenAIProvider_Generate(t *testing.T) {
	p := openaiServer(t, http.StatusOK, openaiCompletion(`{"code":"RUOTE-2","weight":3}`, "stop"))

	req := UserPrompt("You map workshop prerequisites.", "Suggest.")
	req.Schema = suggestionSchema()
	resp, err := p.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Usage.InputTokens != 40 || resp.Usage.OutputTokens != 25 {
		t.Fatalf("usage = %+v", resp.Usage)
	}
	var out struct{ Code string }
	if err := resp.Decode(&out); err != nil || out.Code != "RUOTE-2" {
		t.Fatalf("decode = %+v, %v", out, err)
	}
}

func TestOpenAIProvider_NoChoices(t *testing.T) {
	body := openaiCompletion("", "stop")
	body["choices"] = []map[string]any{}
	p := openaiServer(t, http.StatusOK, body)

	_, err := p.Generate(context.Background(), UserPrompt("", "x"))
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse, got %T (%v)", err, err)
	}
}

func TestOpenAIProvider_Errors(t *testing.T) {
	errBody := func(kind string) map[string]any {
		return map[string]any{"error": map[string]any{"type": kind, "message": kind}}
	}
	t.Run("rate limit", func(t *testing.T) {
		p := openaiServer(t, http.StatusTooManyRequests, errBody("tokens"))
		_, err := p.Generate(context.Background(), UserPrompt("", "x"))
		var rl *ErrRateLimit
		if !errors.As(err, &rl) {
			t.Fatalf("expected ErrRateLimit, got %T (%v)", err, err)
		}
	})
	t.Run("server error", func(t *testing.T) {
		p := openaiServer(t, http.StatusBadGateway, errBody("server_error"))
		_, err := p.Generate(context.Background(), UserPrompt("", "x"))
		var unavail *ErrProviderUnavailable
		if !errors.As(err, &unavail) {
			t.Fatalf("expected ErrProviderUnavailable, got %T (%v)", err, err)
		}
	})
}

func TestNewOpenAIProvider_RequiresKey(t *testing.T) {
	if _, err := NewOpenAIProvider(OpenAIConfig{Model: "gpt-4o"}); err == nil {
		t.Fatal("expected error without API key")
	}
}
