// AngelaMos | 2026
// limiter_test.go

package loginlimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
}

var testPolicy = Policy{MaxAttempts: 5, Window: 15 * time.Minute}

func newMemory(clock *fakeClock) Limiter {
	m := NewMemory(testPolicy)
	m.now = clock.Now
	return m
}

func newRedisLimiter(t *testing.T, clock *fakeClock) Limiter {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	r := NewRedis(client, testPolicy)
	r.now = clock.Now
	return r
}

var backends = map[string]func(*testing.T, *fakeClock) Limiter{
	"memory": func(_ *testing.T, c *fakeClock) Limiter { return newMemory(c) },
	"redis":  newRedisLimiter,
}

func TestBlocksAfterMaxAttemptsAndUnblocksAfterWindow(t *testing.T) {
	for name, build := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clock := newClock()
			l := build(t, clock)

			for i := 0; i < 5; i++ {
				res, err := l.Check(ctx, "1.2.3.4")
				require.NoError(t, err)
				require.False(t, res.Blocked, "attempt %d", i+1)
				require.NoError(t, l.RecordFailure(ctx, "1.2.3.4"))
				clock.Advance(time.Second)
			}

			res, err := l.Check(ctx, "1.2.3.4")
			require.NoError(t, err)
			assert.True(t, res.Blocked)
			assert.Equal(t, 5, res.Attempts)
			assert.Greater(t, res.RetryAfter, time.Duration(0))
			assert.LessOrEqual(t, res.RetryAfter, testPolicy.Window)
			assert.GreaterOrEqual(t, res.RetryAfterSeconds(), 1)

			clock.Advance(testPolicy.Window)

			res, err = l.Check(ctx, "1.2.3.4")
			require.NoError(t, err)
			assert.False(t, res.Blocked)
		})
	}
}

func TestRetryAfterCountsFromOldestAttempt(t *testing.T) {
	for name, build := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clock := newClock()
			l := build(t, clock)

			for i := 0; i < 5; i++ {
				require.NoError(t, l.RecordFailure(ctx, "k"))
			}
			clock.Advance(5 * time.Minute)

			res, err := l.Check(ctx, "k")
			require.NoError(t, err)
			require.True(t, res.Blocked)
			assert.Equal(t, 10*time.Minute, res.RetryAfter)
			assert.Equal(t, 600, res.RetryAfterSeconds())
		})
	}
}

func TestClearResetsKey(t *testing.T) {
	for name, build := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			l := build(t, newClock())

			for i := 0; i < 5; i++ {
				require.NoError(t, l.RecordFailure(ctx, "k"))
			}
			require.NoError(t, l.Clear(ctx, "k"))

			res, err := l.Check(ctx, "k")
			require.NoError(t, err)
			assert.False(t, res.Blocked)
			assert.Zero(t, res.Attempts)
		})
	}
}

func TestKeysAreIndependent(t *testing.T) {
	for name, build := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			l := build(t, newClock())

			for i := 0; i < 5; i++ {
				require.NoError(t, l.RecordFailure(ctx, "a"))
			}

			res, err := l.Check(ctx, "b")
			require.NoError(t, err)
			assert.False(t, res.Blocked)
		})
	}
}

func TestConcurrentFailuresAreNotLost(t *testing.T) {
	for name, build := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			l := build(t, newClock())

			var wg sync.WaitGroup
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					assert.NoError(t, l.RecordFailure(ctx, "k"))
				}()
			}
			wg.Wait()

			res, err := l.Check(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, 50, res.Attempts)
		})
	}
}

func TestMemoryCleanupDropsStaleKeys(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	m := NewMemory(testPolicy)
	m.now = clock.Now

	require.NoError(t, m.RecordFailure(ctx, "a"))
	require.NoError(t, m.RecordFailure(ctx, "b"))
	assert.Equal(t, 2, m.keys())

	clock.Advance(testPolicy.Window + time.Second)
	m.Cleanup()
	assert.Equal(t, 0, m.keys())
}

func TestResultRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 0, Result{}.RetryAfterSeconds())
	assert.Equal(t, 1, Result{Blocked: true, RetryAfter: 10 * time.Millisecond}.RetryAfterSeconds())
	assert.Equal(t, 3, Result{Blocked: true, RetryAfter: 2100 * time.Millisecond}.RetryAfterSeconds())
}
