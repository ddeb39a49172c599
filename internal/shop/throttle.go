package shop

import (
	"sync"
	"time"
)

// loginThrottle bounds login attempts per username in a sliding
// window, keeping offline guessing through the terminal as slow as
// the bcrypt check already makes it.
type loginThrottle struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	hits   map[string][]time.Time
}

func newLoginThrottle(limit int, window time.Duration) *loginThrottle {
	return &loginThrottle{
		limit:  limit,
		window: window,
		hits:   make(map[string][]time.Time),
	}
}

func (l *loginThrottle) allow(username string) bool {
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	ts := prune(l.hits[username], cutoff)
	if len(ts) >= l.limit {
		l.hits[username] = ts
		return false
	}

	l.hits[username] = append(ts, now)
	return true
}

func prune(ts []time.Time, cutoff time.Time) []time.Time {
	n := 0
	for _, t := range ts {
		if t.After(cutoff) {
			ts[n] = t
			n++
		}
	}
	return ts[:n]
}
