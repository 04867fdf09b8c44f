package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockResponse is one queued answer of a MockProvider.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// MockJSON queues v marshalled as JSON.
func MockJSON(v any) MockResponse {
	b, err := json.Marshal(v)
	if err != nil {
		return MockResponse{Err: err}
	}
	return MockResponse{Content: b}
}

// MockProvider answers from a FIFO queue and records every request.
// Responses are checked against the request schema like real providers.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	Calls     []Request
}

func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)
	if len(m.responses) == 0 {
		return nil, &ErrProviderUnavailable{}
	}
	next := m.responses[0]
	m.responses = m.responses[1:]
	if next.Err != nil {
		return nil, next.Err
	}
	return finish(req, next.Content, next.Usage, "mock", stopEnd)
}

func (m *MockProvider) ModelID() string { return "mock" }

// AddResponse queues another answer.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
