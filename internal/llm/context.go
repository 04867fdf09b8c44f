package llm

import "context"

type contextKey string

const purposeKey contextKey = "llm_purpose"

// Purposes recorded with each request.
const (
	PurposePrerequisites = "prerequisites"
	PurposeUnknown       = "unknown"
)

// WithPurpose labels requests made with ctx.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

// PurposeFrom returns the label set by WithPurpose.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok && v != "" {
		return v
	}
	return PurposeUnknown
}
