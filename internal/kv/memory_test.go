package kv

import (
	"context"
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClockedMem() (*Mem, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	return NewMemWithClock(clock.now), clock
}

func TestMem_SetGetExpiry(t *testing.T) {
	m, clock := newClockedMem()
	ctx := context.Background()

	if err := m.Set(ctx, "k", []byte("v"), 60*time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := m.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "v" {
		t.Fatalf("got %q, want %q", got, "v")
	}

	ttl, found, err := m.TTL(ctx, "k")
	if err != nil || !found {
		t.Fatalf("TTL: found=%v err=%v", found, err)
	}
	if ttl != 60*time.Second {
		t.Fatalf("ttl = %v, want 60s", ttl)
	}

	clock.advance(61 * time.Second)

	if _, err := m.Get(ctx, "k"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}
	if _, found, _ := m.TTL(ctx, "k"); found {
		t.Fatalf("expired key still reports TTL")
	}
}

func TestMem_ListOps(t *testing.T) {
	m, _ := newClockedMem()
	ctx := context.Background()

	for _, v := range []string{"a", "b", "c"} {
		if err := m.ListPush(ctx, "l", []byte(v)); err != nil {
			t.Fatalf("ListPush: %v", err)
		}
	}

	// head is the most recently pushed
	got, err := m.ListRange(ctx, "l", 0, -1)
	if err != nil {
		t.Fatalf("ListRange: %v", err)
	}
	want := []string{"c", "b", "a"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if string(got[i]) != want[i] {
			t.Fatalf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	n, err := m.ListRemove(ctx, "l", 1, []byte("b"))
	if err != nil || n != 1 {
		t.Fatalf("ListRemove = %d, %v", n, err)
	}
	if l, _ := m.ListLen(ctx, "l"); l != 2 {
		t.Fatalf("ListLen = %d, want 2", l)
	}
}

func TestMem_ListTrimEmptyDeletesKey(t *testing.T) {
	m, _ := newClockedMem()
	ctx := context.Background()

	if err := m.ListPush(ctx, "l", []byte("init")); err != nil {
		t.Fatalf("ListPush: %v", err)
	}
	if err := m.ListTrim(ctx, "l", 1, 0); err != nil {
		t.Fatalf("ListTrim: %v", err)
	}

	ok, err := m.Exists(ctx, "l")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if ok {
		t.Fatalf("empty list should delete the key, like redis")
	}
}

func TestMem_ScanPagination(t *testing.T) {
	m, _ := newClockedMem()
	ctx := context.Background()

	keys := []string{
		"product:data:tops:1",
		"product:data:tops:2",
		"product:data:tops:3",
		"product:name:tops:1",
		"session:abc",
	}
	for _, k := range keys {
		if err := m.Set(ctx, k, []byte("x"), 0); err != nil {
			t.Fatalf("Set %s: %v", k, err)
		}
	}

	var (
		cursor uint64
		found  []string
	)
	for {
		batch, next, err := m.Scan(ctx, cursor, "product:data:*", 2)
		if err != nil {
			t.Fatalf("Scan: %v", err)
		}
		found = append(found, batch...)
		if next == 0 {
			break
		}
		cursor = next
	}

	if len(found) != 3 {
		t.Fatalf("scan found %d keys, want 3: %v", len(found), found)
	}
	for _, k := range found {
		if k == "session:abc" || k == "product:name:tops:1" {
			t.Fatalf("scan matched out-of-namespace key %s", k)
		}
	}
}

func TestMem_HashOps(t *testing.T) {
	m, _ := newClockedMem()
	ctx := context.Background()

	if err := m.HSet(ctx, "h", map[string]string{"username": "alice"}); err != nil {
		t.Fatalf("HSet: %v", err)
	}
	v, err := m.HGet(ctx, "h", "username")
	if err != nil {
		t.Fatalf("HGet: %v", err)
	}
	if v != "alice" {
		t.Fatalf("HGet = %q, want alice", v)
	}
	if _, err := m.HGet(ctx, "h", "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for missing field, got %v", err)
	}
}
