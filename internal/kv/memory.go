package kv

import (
	"bytes"
	"context"
	"path"
	"sort"
	"sync"
	"time"
)

// Mem is an in-memory Store with the same lazy-expiry semantics as
// Redis: expired keys vanish at read time, an empty list deletes its
// key. It backs the memory deployment mode and the tests.
type Mem struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]*memEntry

	scanSeq uint64
	scans   map[uint64][]string
}

type memEntry struct {
	value  []byte
	fields map[string]string
	list   [][]byte
	expiry time.Time // zero means no expiry
}

func NewMem() *Mem {
	return NewMemWithClock(time.Now)
}

// NewMemWithClock injects the time source, letting tests drive TTL
// expiry deterministically.
func NewMemWithClock(now func() time.Time) *Mem {
	return &Mem{
		now:     now,
		entries: make(map[string]*memEntry),
		scans:   make(map[uint64][]string),
	}
}

// live returns the entry for key, reaping it first if expired.
// Callers must hold mu.
func (m *Mem) live(key string) *memEntry {
	e, ok := m.entries[key]
	if !ok {
		return nil
	}
	if !e.expiry.IsZero() && !m.now().Before(e.expiry) {
		delete(m.entries, key)
		return nil
	}
	return e
}

func (m *Mem) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.live(key)
	if e == nil || e.value == nil {
		return nil, ErrNotFound
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

func (m *Mem) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := &memEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiry = m.now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

func (m *Mem) HSet(_ context.Context, key string, fields map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.live(key)
	if e == nil {
		e = &memEntry{fields: make(map[string]string)}
		m.entries[key] = e
	}
	if e.fields == nil {
		e.fields = make(map[string]string)
	}
	for k, v := range fields {
		e.fields[k] = v
	}
	return nil
}

func (m *Mem) HGet(_ context.Context, key, field string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.live(key)
	if e == nil || e.fields == nil {
		return "", ErrNotFound
	}
	v, ok := e.fields[field]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *Mem) ListPush(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.live(key)
	if e == nil {
		e = &memEntry{}
		m.entries[key] = e
	}
	v := append([]byte(nil), value...)
	e.list = append([][]byte{v}, e.list...)
	return nil
}

func (m *Mem) ListTrim(_ context.Context, key string, start, stop int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.live(key)
	if e == nil {
		return nil
	}
	lo, hi := normalizeRange(start, stop, int64(len(e.list)))
	if lo > hi {
		delete(m.entries, key)
		return nil
	}
	e.list = e.list[lo : hi+1]
	return nil
}

func (m *Mem) ListRange(_ context.Context, key string, start, stop int64) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.live(key)
	if e == nil {
		return nil, nil
	}
	lo, hi := normalizeRange(start, stop, int64(len(e.list)))
	if lo > hi {
		return nil, nil
	}
	out := make([][]byte, 0, hi-lo+1)
	for _, v := range e.list[lo : hi+1] {
		out = append(out, append([]byte(nil), v...))
	}
	return out, nil
}

func (m *Mem) ListRemove(_ context.Context, key string, count int64, value []byte) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.live(key)
	if e == nil {
		return 0, nil
	}

	var removed int64
	kept := e.list[:0]
	for _, v := range e.list {
		if (count <= 0 || removed < count) && bytes.Equal(v, value) {
			removed++
			continue
		}
		kept = append(kept, v)
	}
	e.list = kept
	if len(e.list) == 0 && e.value == nil && e.fields == nil {
		delete(m.entries, key)
	}
	return removed, nil
}

func (m *Mem) ListLen(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.live(key)
	if e == nil {
		return 0, nil
	}
	return int64(len(e.list)), nil
}

func (m *Mem) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live(key) != nil, nil
}

func (m *Mem) Expire(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.live(key)
	if e == nil {
		return nil
	}
	if ttl > 0 {
		e.expiry = m.now().Add(ttl)
	} else {
		delete(m.entries, key)
	}
	return nil
}

func (m *Mem) TTL(_ context.Context, key string) (time.Duration, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.live(key)
	if e == nil {
		return 0, false, nil
	}
	if e.expiry.IsZero() {
		return 0, true, nil
	}
	return e.expiry.Sub(m.now()), true, nil
}

func (m *Mem) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

// Scan pages through matching keys. A zero cursor snapshots the
// matching keyspace; non-zero cursors continue a snapshot, so keys
// deleted between iterations (the invalidation pattern) are still
// handed out exactly once, like redis guarantees for stable keys.
func (m *Mem) Scan(_ context.Context, cursor uint64, match string, count int64) ([]string, uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if count <= 0 {
		count = 10
	}

	var rest []string
	if cursor == 0 {
		rest = make([]string, 0, len(m.entries))
		for k := range m.entries {
			if m.live(k) == nil {
				continue
			}
			if ok, _ := path.Match(match, k); ok {
				rest = append(rest, k)
			}
		}
		sort.Strings(rest)
	} else {
		rest = m.scans[cursor]
		delete(m.scans, cursor)
	}

	if int64(len(rest)) <= count {
		return rest, 0, nil
	}

	m.scanSeq++
	m.scans[m.scanSeq] = rest[count:]
	return rest[:count], m.scanSeq, nil
}

func (m *Mem) Ping(context.Context) error { return nil }
func (m *Mem) Close() error               { return nil }

func normalizeRange(start, stop, n int64) (int64, int64) {
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	return start, stop
}
