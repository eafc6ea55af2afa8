package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is a process-local sliding window. Windows are pruned lazily
// on each check and never removed, so memory grows with the number of
// distinct identifiers seen.
type MemoryLimiter struct {
	config  Config
	now     func() time.Time
	mu      sync.Mutex
	windows map[string][]time.Time
}

func NewMemoryLimiter(config Config) *MemoryLimiter {
	return &MemoryLimiter{
		config:  config,
		now:     time.Now,
		windows: make(map[string][]time.Time),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, identifier string) (bool, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	recent := prune(l.windows[identifier], now, l.config.Window)
	if len(recent) >= l.config.MaxAttempts {
		l.windows[identifier] = recent
		return false, nil
	}

	l.windows[identifier] = append(recent, now)
	return true, nil
}

// prune drops timestamps older than window, reusing the backing array.
func prune(timestamps []time.Time, now time.Time, window time.Duration) []time.Time {
	kept := timestamps[:0]
	for _, ts := range timestamps {
		if now.Sub(ts) < window {
			kept = append(kept, ts)
		}
	}
	return kept
}
