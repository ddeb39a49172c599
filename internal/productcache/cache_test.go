package productcache

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"MiniShop/internal/catalog"
	"MiniShop/internal/kv"
)

// spyCatalog counts exact-id lookups so tests can assert how many
// times the cache fell through.
type spyCatalog struct {
	*catalog.MemStore
	lookups int
}

func (s *spyCatalog) GetByID(ctx context.Context, collection string, id int64) (catalog.Document, bool, error) {
	s.lookups++
	return s.MemStore.GetByID(ctx, collection, id)
}

func newCache(t *testing.T) (*Cache, *spyCatalog, *kv.Mem) {
	t.Helper()

	cat := &spyCatalog{MemStore: catalog.NewMemStore()}
	cat.Put("tops", catalog.Document{"_id": int64(5), "Name": "Blue Hat", "Price": 14.99})

	mem := kv.NewMem()
	return New(mem, cat, time.Minute, nil, nil), cat, mem
}

func TestReadThrough(t *testing.T) {
	c, cat, mem := newCache(t)
	ctx := context.Background()

	doc, found, err := c.GetDetails(ctx, "tops", 5)
	if err != nil || !found {
		t.Fatalf("GetDetails: found=%v err=%v", found, err)
	}
	if cat.lookups != 1 {
		t.Fatalf("first read used %d catalog lookups, want 1", cat.lookups)
	}
	if doc.Name() != "Blue Hat" {
		t.Fatalf("Name = %q", doc.Name())
	}

	// Both keys are populated by the miss-fill.
	if ok, _ := mem.Exists(ctx, "product:data:tops:5"); !ok {
		t.Fatalf("data key not populated")
	}
	raw, err := mem.Get(ctx, "product:name:tops:5")
	if err != nil {
		t.Fatalf("name key not populated: %v", err)
	}
	if string(raw) != "Blue Hat" {
		t.Fatalf("name key = %q", raw)
	}

	// Second read within the TTL window: zero catalog access,
	// identical data.
	doc2, found, err := c.GetDetails(ctx, "tops", 5)
	if err != nil || !found {
		t.Fatalf("second GetDetails: found=%v err=%v", found, err)
	}
	if cat.lookups != 1 {
		t.Fatalf("cache hit still queried the catalog (%d lookups)", cat.lookups)
	}
	b1, _ := json.Marshal(doc)
	b2, _ := json.Marshal(doc2)
	if string(b1) != string(b2) {
		t.Fatalf("hit returned different data: %s vs %s", b1, b2)
	}
}

func TestInvalidateAllForcesRefetch(t *testing.T) {
	c, cat, _ := newCache(t)
	ctx := context.Background()

	if _, _, err := c.GetDetails(ctx, "tops", 5); err != nil {
		t.Fatalf("warm-up read: %v", err)
	}

	n, err := c.InvalidateAll(ctx)
	if err != nil {
		t.Fatalf("InvalidateAll: %v", err)
	}
	if n != 2 {
		t.Fatalf("invalidated %d keys, want 2 (data + name)", n)
	}

	if _, _, err := c.GetDetails(ctx, "tops", 5); err != nil {
		t.Fatalf("read after invalidation: %v", err)
	}
	if cat.lookups != 2 {
		t.Fatalf("post-invalidation read used %d lookups, want 2", cat.lookups)
	}
}

func TestInvalidateAllScansInBatches(t *testing.T) {
	c, cat, _ := newCache(t)
	ctx := context.Background()

	// More entries than one scan batch.
	for i := int64(100); i < int64(100+scanBatch+50); i++ {
		cat.Put("bulk", catalog.Document{"_id": i, "Name": fmt.Sprintf("Item %d", i)})
		if _, _, err := c.GetDetails(ctx, "bulk", i); err != nil {
			t.Fatalf("fill %d: %v", i, err)
		}
	}

	n, err := c.InvalidateAll(ctx)
	if err != nil {
		t.Fatalf("InvalidateAll: %v", err)
	}
	want := int64((scanBatch + 50) * 2)
	if n != want {
		t.Fatalf("invalidated %d keys, want %d", n, want)
	}
}

func TestMissingProductIsNotCached(t *testing.T) {
	c, cat, mem := newCache(t)
	ctx := context.Background()

	_, found, err := c.GetDetails(ctx, "tops", 99)
	if err != nil {
		t.Fatalf("GetDetails: %v", err)
	}
	if found {
		t.Fatalf("missing product reported found")
	}
	if ok, _ := mem.Exists(ctx, "product:data:tops:99"); ok {
		t.Fatalf("negative result was cached")
	}

	// Every miss for an absent id goes back to the catalog.
	if _, _, err := c.GetDetails(ctx, "tops", 99); err != nil {
		t.Fatalf("second GetDetails: %v", err)
	}
	if cat.lookups != 2 {
		t.Fatalf("lookups = %d, want 2", cat.lookups)
	}
}

type downKV struct {
	*kv.Mem
}

func (d downKV) Get(context.Context, string) ([]byte, error) {
	return nil, fmt.Errorf("%w: connection refused", kv.ErrUnavailable)
}

func TestBypassesCacheWhenBackendDown(t *testing.T) {
	cat := &spyCatalog{MemStore: catalog.NewMemStore()}
	cat.Put("tops", catalog.Document{"_id": int64(5), "Name": "Blue Hat"})

	c := New(downKV{kv.NewMem()}, cat, time.Minute, nil, nil)

	doc, found, err := c.GetDetails(context.Background(), "tops", 5)
	if err != nil {
		t.Fatalf("expected degrade, got error: %v", err)
	}
	if !found || doc.Name() != "Blue Hat" {
		t.Fatalf("degraded read failed: found=%v doc=%v", found, doc)
	}
	if cat.lookups != 1 {
		t.Fatalf("lookups = %d, want 1", cat.lookups)
	}
}

func TestDisplayNameServedFromNameKey(t *testing.T) {
	c, cat, _ := newCache(t)
	ctx := context.Background()

	if _, _, err := c.GetDetails(ctx, "tops", 5); err != nil {
		t.Fatalf("warm-up: %v", err)
	}

	name, found, err := c.DisplayName(ctx, "tops", 5)
	if err != nil || !found {
		t.Fatalf("DisplayName: found=%v err=%v", found, err)
	}
	if name != "Blue Hat" {
		t.Fatalf("DisplayName = %q", name)
	}
	if cat.lookups != 1 {
		t.Fatalf("name hit queried the catalog (%d lookups)", cat.lookups)
	}
}
