package llm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RateLimitedProvider holds requests back so that no more than rpm are
// sent in any rolling minute. It never retries; it only delays.
type RateLimitedProvider struct {
	provider Provider
	rpm      int
	interval time.Duration

	mu     sync.Mutex
	tokens float64
	last   time.Time
}

// NewRateLimitedProvider wraps provider with a limit of rpm requests per
// minute. A non-positive rpm returns provider unchanged.
func NewRateLimitedProvider(provider Provider, rpm int) Provider {
	if rpm <= 0 {
		return provider
	}
	return &RateLimitedProvider{
		provider: provider,
		rpm:      rpm,
		interval: time.Minute / time.Duration(rpm),
		tokens:   float64(rpm),
		last:     time.Now(),
	}
}

func (r *RateLimitedProvider) Name() string {
	return r.provider.Name()
}

// Unwrap returns the wrapped provider.
func (r *RateLimitedProvider) Unwrap() Provider { return r.provider }

func (r *RateLimitedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := r.wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limit (%d/min): %w", r.rpm, err)
	}
	return r.provider.Complete(ctx, req)
}

// reserve takes a token if one is available, otherwise reports how long
// until the next one.
func (r *RateLimitedProvider) reserve(now time.Time) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tokens += now.Sub(r.last).Minutes() * float64(r.rpm)
	if r.tokens > float64(r.rpm) {
		r.tokens = float64(r.rpm)
	}
	r.last = now

	if r.tokens >= 1 {
		r.tokens--
		return 0
	}
	return time.Duration((1 - r.tokens) * float64(r.interval))
}

func (r *RateLimitedProvider) wait(ctx context.Context) error {
	for {
		delay := r.reserve(time.Now())
		if delay <= 0 {
			return nil
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
