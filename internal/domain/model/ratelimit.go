package model

import (
	"fmt"
	"time"
)

// RateLimit is whatever rate-limit state the transport reported with a
// response. Nil means the transport reported nothing.
type RateLimit struct {
	Remaining  int
	RetryAfter time.Duration
}

func (r *RateLimit) String() string {
	if r == nil {
		return "unreported"
	}
	if r.RetryAfter > 0 {
		return fmt.Sprintf("remaining=%d retry_after=%s", r.Remaining, r.RetryAfter)
	}
	return fmt.Sprintf("remaining=%d", r.Remaining)
}
