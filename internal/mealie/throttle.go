package mealie

import (
	"context"

	"golang.org/x/time/rate"
)

// Throttle bounds the request rate against the recipe service
type Throttle struct {
	limiter *rate.Limiter
}

// NewThrottle creates a throttle. A non-positive rate disables throttling.
func NewThrottle(requestsPerSecond float64, burst int) *Throttle {
	if burst <= 0 {
		burst = 5
	}

	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}

	return &Throttle{limiter: rate.NewLimiter(limit, burst)}
}

// Wait blocks until a request may be sent or ctx is done
func (t *Throttle) Wait(ctx context.Context) error {
	if t == nil {
		return nil
	}
	return t.limiter.Wait(ctx)
}

// Allow reports whether a request may be sent right now, consuming a token if so
func (t *Throttle) Allow() bool {
	if t == nil {
		return true
	}
	return t.limiter.Allow()
}
