package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ciclofficina/tracker/internal/logging"
)

// RequestEvent describes one provider call.
type RequestEvent struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// EventRecorder persists request events.
type EventRecorder interface {
	AppendLLMRequest(ctx context.Context, ev RequestEvent) error
}

// LoggingProvider records every call made through it.
type LoggingProvider struct {
	inner    Provider
	provider string
	recorder EventRecorder
	log      *logging.Logger
}

// WithLogging wraps p. recorder may be nil, in which case calls are only
// logged.
func WithLogging(p Provider, provider string, recorder EventRecorder, log *logging.Logger) Provider {
	if log == nil {
		log = logging.Nop()
	}
	return &LoggingProvider{inner: p, provider: provider, recorder: recorder, log: log}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)

	ev := RequestEvent{
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: renderRequest(req),
	}
	if resp != nil {
		ev.InputTokens = resp.Usage.InputTokens
		ev.OutputTokens = resp.Usage.OutputTokens
		if resp.Model != "" {
			ev.Model = resp.Model
		}
		ev.ResponseBody = string(resp.Content)
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
	}

	l.log.Debug("llm request", "provider", ev.Provider, "model", ev.Model, "purpose", ev.Purpose,
		"latency_ms", ev.LatencyMs, "success", ev.Success)
	if l.recorder != nil {
		// A failed write never fails the request.
		if recErr := l.recorder.AppendLLMRequest(ctx, ev); recErr != nil {
			l.log.Warn("failed to record LLM request", "error", recErr)
		}
	}
	return resp, err
}

func (l *LoggingProvider) ModelID() string { return l.inner.ModelID() }

func renderRequest(req Request) string {
	var b strings.Builder
	if req.System != "" {
		fmt.Fprintf(&b, "[system]\n%s\n\n", req.System)
	}
	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", m.Role, m.Content)
	}
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n%s\n", req.Schema.Name, def)
		}
	}
	return b.String()
}
