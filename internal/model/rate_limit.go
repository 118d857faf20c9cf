package model

import "time"

// RateLimitDecision is the outcome of one hit against a fixed window.
type RateLimitDecision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}
