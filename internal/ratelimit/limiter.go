package ratelimit

import "context"

// RateLimiter controls outbound send throughput per push gateway.
type RateLimiter interface {
	Allow(ctx context.Context, gateway string) (bool, error)
	Wait(ctx context.Context, gateway string) error
}
