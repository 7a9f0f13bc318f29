package ratelimit

import "context"

// RateLimiter controls outbound delivery throughput per scope.
type RateLimiter interface {
	Allow(ctx context.Context, scope string) (bool, error)
	Wait(ctx context.Context, scope string) error
}

// Nop is a pass-through limiter for deployments without Redis.
type Nop struct{}

func (Nop) Allow(ctx context.Context, scope string) (bool, error) { return true, nil }

func (Nop) Wait(ctx context.Context, scope string) error { return nil }
