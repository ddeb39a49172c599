package filter

import (
	"context"
	"sync"
)

// Mem is a counting filter: exact membership with per-item counts so
// Remove is always safe. It trades the probabilistic space savings
// for determinism, which is what the tests want.
type Mem struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewMem() *Mem {
	return &Mem{counts: make(map[string]int)}
}

func (m *Mem) Add(_ context.Context, item string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[item]++
	return nil
}

func (m *Mem) Exists(_ context.Context, item string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[item] > 0, nil
}

func (m *Mem) Remove(_ context.Context, item string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.counts[item] > 1 {
		m.counts[item]--
		return nil
	}
	delete(m.counts, item)
	return nil
}
