package llm

import (
	"context"
	"errors"
	"testing"
)

type recorderFunc func(ctx context.Context, ev RequestEvent) error

func (f recorderFunc) AppendLLMRequest(ctx context.Context, ev RequestEvent) error { return f(ctx, ev) }

func TestLoggingProvider_RecordsSuccess(t *testing.T) {
	var got []RequestEvent
	rec := recorderFunc(func(_ context.Context, ev RequestEvent) error {
		got = append(got, ev)
		return nil
	})
	mock := NewMockProvider(MockResponse{Content: []byte(`{"ok":true}`), Usage: Usage{InputTokens: 7, OutputTokens: 3}})
	p := WithLogging(mock, "mock", rec, nil)

	ctx := WithPurpose(context.Background(), PurposePrerequisites)
	if _, err := p.Generate(ctx, UserPrompt("sys", "hello")); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("recorded %d events", len(got))
	}
	ev := got[0]
	if !ev.Success || ev.Purpose != PurposePrerequisites || ev.InputTokens != 7 || ev.OutputTokens != 3 {
		t.Fatalf("event = %+v", ev)
	}
	if ev.Provider != "mock" || ev.ResponseBody != `{"ok":true}` {
		t.Fatalf("event = %+v", ev)
	}
	if ev.RequestBody != "[system]\nsys\n\n[user]\nhello\n\n" {
		t.Fatalf("request body = %q", ev.RequestBody)
	}
}

func TestLoggingProvider_RecordsFailure(t *testing.T) {
	var got RequestEvent
	rec := recorderFunc(func(_ context.Context, ev RequestEvent) error {
		got = ev
		return nil
	})
	p := WithLogging(NewMockProvider(MockResponse{Err: errors.New("boom")}), "mock", rec, nil)

	if _, err := p.Generate(context.Background(), Request{}); err == nil {
		t.Fatal("expected error")
	}
	if got.Success || got.ErrorMessage != "boom" || got.Purpose != PurposeUnknown {
		t.Fatalf("event = %+v", got)
	}
}

func TestLoggingProvider_RecorderFailureIgnored(t *testing.T) {
	rec := recorderFunc(func(context.Context, RequestEvent) error { return errors.New("disk full") })
	p := WithLogging(NewMockProvider(MockResponse{Content: []byte(`{}`)}), "mock", rec, nil)

	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("recorder failure leaked: %v", err)
	}
}

func TestLoggingProvider_NilRecorder(t *testing.T) {
	p := WithLogging(NewMockProvider(MockResponse{Content: []byte(`{}`)}), "mock", nil, nil)
	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatal(err)
	}
}
