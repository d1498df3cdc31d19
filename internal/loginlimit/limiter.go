// AngelaMos | 2026
// limiter.go

package loginlimit

import (
	"context"
	"math"
	"time"
)

// Policy bounds failed attempts per key inside a sliding window.
type Policy struct {
	MaxAttempts int
	Window      time.Duration
}

type Result struct {
	Blocked    bool
	RetryAfter time.Duration
	Attempts   int
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds, never below 1
// for a blocked result.
func (r Result) RetryAfterSeconds() int {
	if !r.Blocked {
		return 0
	}
	secs := int(math.Ceil(r.RetryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

type Limiter interface {
	Check(ctx context.Context, key string) (Result, error)
	RecordFailure(ctx context.Context, key string) error
	Clear(ctx context.Context, key string) error
}

func evaluate(p Policy, count int, oldest, now time.Time) Result {
	if count < p.MaxAttempts {
		return Result{Attempts: count}
	}

	retry := oldest.Add(p.Window).Sub(now)
	if retry <= 0 {
		retry = time.Millisecond
	}

	return Result{Blocked: true, RetryAfter: retry, Attempts: count}
}
