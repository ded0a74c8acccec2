package ratelimit

import (
	"context"

	"golang.org/x/time/rate"

	"sqsbackoff/pkg/metrics"
)

// Throttle paces outbound calls. A nil *Throttle never waits.
type Throttle struct {
	name    string
	limiter *rate.Limiter
}

// NewThrottle returns nil when rps is not positive.
func NewThrottle(name string, rps float64, burst int) *Throttle {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &Throttle{
		name:    name,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Wait blocks until a token is available or ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	if t == nil {
		return nil
	}
	if t.limiter.Allow() {
		metrics.RateLimitRequestsTotal.WithLabelValues(t.name, "allowed").Inc()
		return nil
	}
	metrics.RateLimitRequestsTotal.WithLabelValues(t.name, "delayed").Inc()
	return t.limiter.Wait(ctx)
}
