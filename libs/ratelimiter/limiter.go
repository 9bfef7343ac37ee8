package ratelimiter

import "errors"

// CRPT document API quota: a coarse number of calls per time unit, so a fixed
// window refilled to full is good enough (no need for per-call expiry times)
type Limiter interface {
	TryAcquire() bool
	Release()
}

var ErrConfiguration = errors.New("invalid configuration")
