// AngelaMos | 2026
// memory.go

package loginlimit

import (
	"context"
	"sync"
	"time"
)

// Memory keeps failure timestamps per key in process memory.
type Memory struct {
	policy Policy
	now    func() time.Time

	mu       sync.Mutex
	attempts map[string][]time.Time
}

func NewMemory(p Policy) *Memory {
	return &Memory{
		policy:   p,
		now:      time.Now,
		attempts: make(map[string][]time.Time),
	}
}

func (m *Memory) Check(_ context.Context, key string) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	recent := m.prune(key, now)
	if len(recent) == 0 {
		return Result{}, nil
	}

	return evaluate(m.policy, len(recent), recent[0], now), nil
}

func (m *Memory) RecordFailure(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	recent := m.prune(key, now)
	m.attempts[key] = append(recent, now)

	return nil
}

func (m *Memory) Clear(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.attempts, key)
	m.mu.Unlock()
	return nil
}

// Cleanup drops keys whose attempts all fell out of the window.
func (m *Memory) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key := range m.attempts {
		m.prune(key, now)
	}
}

// StartJanitor runs Cleanup every interval until ctx is done.
func (m *Memory) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Cleanup()
			}
		}
	}()
}

// prune must be called with mu held.
func (m *Memory) prune(key string, now time.Time) []time.Time {
	list := m.attempts[key]
	cutoff := now.Add(-m.policy.Window)

	i := 0
	for i < len(list) && !list[i].After(cutoff) {
		i++
	}

	if i == len(list) {
		delete(m.attempts, key)
		return nil
	}

	list = list[i:]
	m.attempts[key] = list
	return list
}

func (m *Memory) keys() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.attempts)
}
