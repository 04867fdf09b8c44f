package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

var suggestion = json.RawMessage(`{"prerequisites":[{"code":"FRENI-1","type":"mandatory"}]}`)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, InitialWait: time.Millisecond, MaxWait: 5 * time.Millisecond, Multiplier: 2}
}

func unavailable() MockResponse {
	return MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("502 bad gateway")}}
}

func TestRetryPolicy(t *testing.T) {
	tests := []struct {
		name      string
		attempts  int
		responses []MockResponse
		wantCalls int
		wantErr   any
	}{
		{
			name:      "first answer wins",
			attempts:  3,
			responses: []MockResponse{{Content: suggestion}},
			wantCalls: 1,
		},
		{
			name:      "gateway error then answer",
			attempts:  3,
			responses: []MockResponse{unavailable(), {Content: suggestion}},
			wantCalls: 2,
		},
		{
			name:      "rate limit honours retry-after",
			attempts:  3,
			responses: []MockResponse{{Err: &ErrRateLimit{RetryAfter: time.Millisecond, Err: errors.New("429")}}, {Content: suggestion}},
			wantCalls: 2,
		},
		{
			name:      "gives up after the last attempt",
			attempts:  3,
			responses: []MockResponse{unavailable(), unavailable(), unavailable(), {Content: suggestion}},
			wantCalls: 3,
			wantErr:   new(*ErrProviderUnavailable),
		},
		{
			name:      "truncated output is final",
			attempts:  3,
			responses: []MockResponse{{Err: &ErrMaxTokensExceeded{Content: json.RawMessage(`{"prereq`)}}},
			wantCalls: 1,
			wantErr:   new(*ErrMaxTokensExceeded),
		},
		{
			name:      "rejected request is final",
			attempts:  3,
			responses: []MockResponse{{Err: &ErrRejected{Status: 401, Err: errors.New("invalid x-api-key")}}},
			wantCalls: 1,
			wantErr:   new(*ErrRejected),
		},
		{
			name:     "schema violation gets one more try",
			attempts: 4,
			responses: []MockResponse{
				{Err: &ErrInvalidResponse{Err: errors.New("missing prerequisites")}},
				{Err: &ErrInvalidResponse{Err: errors.New("missing prerequisites")}},
				{Content: suggestion},
			},
			wantCalls: 2,
			wantErr:   new(*ErrInvalidResponse),
		},
		{
			name:      "zero attempts still calls once",
			attempts:  0,
			responses: []MockResponse{{Content: suggestion}},
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockProvider(tt.responses...)
			p := WithRetry(mock, fastRetry(tt.attempts), nil)

			resp, err := p.Generate(context.Background(), Request{})
			if got := mock.CallCount(); got != tt.wantCalls {
				t.Errorf("calls = %d, want %d", got, tt.wantCalls)
			}
			if tt.wantErr != nil {
				if err == nil || !errors.As(err, tt.wantErr) {
					t.Fatalf("error = %v, want %T", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(resp.Content) != string(suggestion) {
				t.Errorf("content = %s", resp.Content)
			}
		})
	}
}

func TestRetryStopsOnCancelledContext(t *testing.T) {
	mock := NewMockProvider(unavailable(), MockResponse{Content: suggestion})
	p := WithRetry(mock, RetryConfig{MaxAttempts: 3, InitialWait: time.Hour, MaxWait: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Generate(ctx, Request{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if mock.CallCount() != 1 {
		t.Errorf("calls = %d, want 1", mock.CallCount())
	}
}

func TestRetryKeepsModelID(t *testing.T) {
	if id := WithRetry(NewMockProvider(), fastRetry(2), nil).ModelID(); id != "mock" {
		t.Fatalf("ModelID = %q", id)
	}
}

func TestBackoffCapped(t *testing.T) {
	r := &RetryProvider{cfg: RetryConfig{InitialWait: 10 * time.Millisecond, MaxWait: 50 * time.Millisecond, Multiplier: 10}}
	for attempt := 0; attempt < 5; attempt++ {
		// cap plus 20% jitter
		if w := r.backoff(attempt, errors.New("x")); w > 60*time.Millisecond {
			t.Fatalf("attempt %d waited %s", attempt, w)
		}
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   any
	}{
		{429, new(*ErrRateLimit)},
		{401, new(*ErrRejected)},
		{404, new(*ErrRejected)},
		{408, new(*ErrProviderUnavailable)},
		{500, new(*ErrProviderUnavailable)},
		{529, new(*ErrProviderUnavailable)},
	}
	for _, tt := range tests {
		if err := classifyStatus(tt.status, errors.New("sdk")); !errors.As(err, tt.want) {
			t.Errorf("status %d: got %T", tt.status, err)
		}
	}
}
