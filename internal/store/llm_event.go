package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/ciclofficina/tracker/internal/llm"
)

var llmEventFields = []string{
	"id", "timestamp", "provider", "model", "purpose", "input_tokens",
	"output_tokens", "latency_ms", "success", "error_message",
	"request_body", "response_body",
}

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	Purpose string    // exact purpose match when set
	After   int       // id > After
	Before  int       // id < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
}

// LLMEvent is one recorded LLM request.
type LLMEvent struct {
	ID           int       `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	Purpose      string    `json:"purpose"`
	InputTokens  int       `json:"inputTokens"`
	OutputTokens int       `json:"outputTokens"`
	LatencyMs    int64     `json:"latencyMs"`
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	RequestBody  string    `json:"requestBody,omitempty"`
	ResponseBody string    `json:"responseBody,omitempty"`
}

// PurposeUsage aggregates token usage for one purpose.
type PurposeUsage struct {
	Purpose      string `json:"purpose"`
	Calls        int    `json:"calls"`
	InputTokens  int    `json:"inputTokens"`
	OutputTokens int    `json:"outputTokens"`
	AvgLatencyMs int64  `json:"avgLatencyMs"`
}

// EventRepo records LLM requests. It implements llm.EventRecorder.
type EventRepo struct {
	db *sql.DB
}

// AppendLLMRequest records an LLM API call event.
func (r *EventRepo) AppendLLMRequest(ctx context.Context, ev llm.RequestEvent) error {
	ins := builder.Insert(tableLLMEvents).
		Columns(llmEventFields[1:]...).
		Values(
			time.Now().UTC(), ev.Provider, ev.Model, ev.Purpose, ev.InputTokens,
			ev.OutputTokens, ev.LatencyMs, ev.Success, ev.ErrorMessage,
			ev.RequestBody, ev.ResponseBody,
		)
	if _, err := exec(ctx, r.db, ins); err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

// QueryLLMEvents returns events matching opts, newest first.
func (r *EventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error) {
	sel := builder.Select(llmEventFields...).
		From(entsql.Table(tableLLMEvents)).
		OrderBy(entsql.Desc("id"))

	var preds []*entsql.Predicate
	if opts.Purpose != "" {
		preds = append(preds, entsql.EQ("purpose", opts.Purpose))
	}
	if opts.After > 0 {
		preds = append(preds, entsql.GT("id", opts.After))
	}
	if opts.Before > 0 {
		preds = append(preds, entsql.LT("id", opts.Before))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("timestamp", opts.From.UTC()))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("timestamp", opts.To.UTC()))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	rows, err := query(ctx, r.db, sel)
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	defer rows.Close()

	var out []LLMEvent
	for rows.Next() {
		var e LLMEvent
		err := rows.Scan(&e.ID, &e.Timestamp, &e.Provider, &e.Model, &e.Purpose,
			&e.InputTokens, &e.OutputTokens, &e.LatencyMs, &e.Success,
			&e.ErrorMessage, &e.RequestBody, &e.ResponseBody)
		if err != nil {
			return nil, fmt.Errorf("scan LLM event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetLLMEvent returns the event with id, or nil.
func (r *EventRepo) GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error) {
	events, err := r.QueryLLMEvents(ctx, QueryOpts{After: id - 1, Before: id + 1, Limit: 1})
	if err != nil || len(events) == 0 {
		return nil, err
	}
	return &events[0], nil
}

// LLMUsageByPurpose aggregates calls and tokens per purpose.
func (r *EventRepo) LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error) {
	sel := builder.Select(
		"purpose",
		entsql.Count("*"),
		entsql.Sum("input_tokens"),
		entsql.Sum("output_tokens"),
		entsql.Avg("latency_ms"),
	).
		From(entsql.Table(tableLLMEvents)).
		GroupBy("purpose").
		OrderBy("purpose")

	rows, err := query(ctx, r.db, sel)
	if err != nil {
		return nil, fmt.Errorf("query LLM usage: %w", err)
	}
	defer rows.Close()

	var out []PurposeUsage
	for rows.Next() {
		var (
			u   PurposeUsage
			avg float64
		)
		if err := rows.Scan(&u.Purpose, &u.Calls, &u.InputTokens, &u.OutputTokens, &avg); err != nil {
			return nil, fmt.Errorf("scan LLM usage: %w", err)
		}
		u.AvgLatencyMs = int64(avg)
		out = append(out, u)
	}
	return out, rows.Err()
}
