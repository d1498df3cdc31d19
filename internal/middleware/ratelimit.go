// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/core"
)

const rateKeyPrefix = "ratelimit:ip:"

type RateLimitConfig struct {
	Limit redis_rate.Limit
	// KeyFunc defaults to the client IP.
	KeyFunc func(*http.Request) string
	// FailOpen lets requests through when neither redis nor the local
	// buckets can answer.
	FailOpen   bool
	BypassFunc func(*http.Request) bool
}

// BypassPaths skips rate limiting for the given exact paths.
func BypassPaths(paths ...string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return func(r *http.Request) bool {
		_, ok := set[r.URL.Path]
		return ok
	}
}

// RateLimiter enforces a GCRA budget in redis and degrades to per-process
// token buckets while redis is unreachable.
type RateLimiter struct {
	redis *redis_rate.Limiter
	local *localBuckets
	cfg   RateLimitConfig
}

func NewRateLimiter(rdb *redis.Client, cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByIP
	}

	return &RateLimiter{
		redis: redis_rate.NewLimiter(rdb),
		local: newLocalBuckets(cfg.Limit),
		cfg:   cfg,
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.cfg.BypassFunc != nil && rl.cfg.BypassFunc(r) {
			next.ServeHTTP(w, r)
			return
		}

		key := rl.cfg.KeyFunc(r)

		res, err := rl.redis.Allow(r.Context(), key, rl.cfg.Limit)
		if err != nil {
			slog.DebugContext(r.Context(), "redis rate limiter unavailable, using local buckets",
				"error", err,
			)
			res, err = rl.local.allow(key, time.Now())
		}
		if err != nil {
			if rl.cfg.FailOpen {
				slog.WarnContext(r.Context(), "rate limiter error, failing open",
					"error", err,
					"key", key,
				)
				next.ServeHTTP(w, r)
				return
			}
			core.ServiceUnavailable(w, "Service temporairement indisponible")
			return
		}

		writeLimitHeaders(w, rl.cfg.Limit, res)

		if res.Allowed == 0 {
			retry := int(math.Ceil(res.RetryAfter.Seconds()))
			retry = max(retry, 1)
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			core.JSONError(w, core.RateLimitedError(retry))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func KeyByIP(r *http.Request) string {
	return rateKeyPrefix + ClientIP(r)
}

func writeLimitHeaders(w http.ResponseWriter, limit redis_rate.Limit, res *redis_rate.Result) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(max(res.Remaining, 0)))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(res.ResetAfter).Unix(), 10))
}

// localBuckets holds one token bucket per key. Idle buckets are swept
// inline on access.
type localBuckets struct {
	mu        sync.Mutex
	limit     redis_rate.Limit
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

const (
	bucketIdleTTL = 10 * time.Minute
	sweepEvery    = 5 * time.Minute
)

func newLocalBuckets(limit redis_rate.Limit) *localBuckets {
	return &localBuckets{
		limit:     limit,
		buckets:   make(map[string]*bucket),
		lastSweep: time.Now(),
	}
}

func (l *localBuckets) allow(key string, now time.Time) (*redis_rate.Result, error) {
	if l.limit.Period <= 0 || l.limit.Rate <= 0 {
		return nil, fmt.Errorf("invalid rate limit %+v", l.limit)
	}
	perSec := float64(l.limit.Rate) / l.limit.Period.Seconds()
	interval := time.Duration(float64(time.Second) / perSec)

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= sweepEvery {
		for k, b := range l.buckets {
			if now.Sub(b.seen) > bucketIdleTTL {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rate.Limit(perSec), max(l.limit.Burst, 1))}
		l.buckets[key] = b
	}
	b.seen = now

	res := &redis_rate.Result{
		Limit:      l.limit,
		RetryAfter: -1,
		ResetAfter: interval,
	}
	if b.lim.AllowN(now, 1) {
		res.Allowed = 1
	} else {
		res.RetryAfter = interval
	}
	res.Remaining = int(b.lim.TokensAt(now))

	return res, nil
}

func PerMinute(rate, burst int) redis_rate.Limit {
	return PerWindow(rate, burst, time.Minute)
}

// PerWindow allows rate requests per period. A non-positive period means
// one minute.
func PerWindow(rate, burst int, period time.Duration) redis_rate.Limit {
	if period <= 0 {
		period = time.Minute
	}
	return redis_rate.Limit{Rate: rate, Burst: burst, Period: period}
}
