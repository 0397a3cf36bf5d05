package rate

import "errors"

var (
	// ErrRateLimited is returned once a failed-login budget is exhausted.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps Redis faults.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
