package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/ciclofficina/tracker/internal/logging"
)

// RetryProvider retries transient failures with exponential backoff.
type RetryProvider struct {
	inner Provider
	cfg   RetryConfig
	log   *logging.Logger
}

// WithRetry wraps p. A nil log discards retry messages.
func WithRetry(p Provider, cfg RetryConfig, log *logging.Logger) Provider {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if log == nil {
		log = logging.Nop()
	}
	return &RetryProvider{inner: p, cfg: cfg, log: log}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	var (
		lastErr        error
		invalidRetried bool
	)
	for attempt := 0; attempt < r.cfg.MaxAttempts; attempt++ {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retryable(err, &invalidRetried) || attempt == r.cfg.MaxAttempts-1 {
			break
		}

		wait := r.backoff(attempt, err)
		r.log.Debug("retrying LLM request", "attempt", attempt+1, "wait", wait, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, lastErr
}

func (r *RetryProvider) ModelID() string { return r.inner.ModelID() }

// retryable reports whether err is worth another attempt. Schema
// violations get exactly one more try.
func retryable(err error, invalidRetried *bool) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var (
		maxTok   *ErrMaxTokensExceeded
		rejected *ErrRejected
	)
	if errors.As(err, &maxTok) || errors.As(err, &rejected) {
		return false
	}
	var inv *ErrInvalidResponse
	if errors.As(err, &inv) {
		if *invalidRetried {
			return false
		}
		*invalidRetried = true
	}
	return true
}

func (r *RetryProvider) backoff(attempt int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}
	mult := r.cfg.Multiplier
	if mult <= 0 {
		mult = 2
	}
	wait := math.Min(float64(r.cfg.InitialWait)*math.Pow(mult, float64(attempt)), float64(r.cfg.MaxWait))
	// ±20% jitter
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	return time.Duration(math.Max(wait, 0))
}
