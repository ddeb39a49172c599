package integration

import (
	"context"
	"testing"
	"time"

	"MiniShop/internal/basket"
	"MiniShop/internal/catalog"
	"MiniShop/internal/filter"
	"MiniShop/internal/kv"
	"MiniShop/internal/productcache"
	"MiniShop/internal/session"
	"MiniShop/internal/user"
)

type system struct {
	users    *user.Store
	sessions *session.Manager
	baskets  *basket.Store
	cache    *productcache.Cache
	catalog  *catalog.MemStore
}

func newSystem(t *testing.T) *system {
	t.Helper()

	mem := kv.NewMem()
	baskets := basket.NewStore(mem)
	cat := catalog.NewMemStore()
	cat.Put("tops", catalog.Document{"_id": int64(5), "Name": "Blue Hat", "Price": 14.99})

	return &system{
		users:    user.NewStore(mem, filter.NewMem(), baskets),
		sessions: session.NewManager(mem, 360*time.Second, nil),
		baskets:  baskets,
		cache:    productcache.New(mem, cat, time.Minute, nil, nil),
		catalog:  cat,
	}
}

func TestSystem_RegisterShopLogout(t *testing.T) {
	sys := newSystem(t)
	ctx := context.Background()

	if err := sys.users.Register(ctx, "alice", "pw123"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := sys.users.Verify(ctx, "alice", "pw123"); err != nil {
		t.Fatalf("login: %v", err)
	}

	token, err := sys.sessions.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if ok, _ := sys.sessions.IsValid(ctx, token); !ok {
		t.Fatalf("fresh session invalid")
	}

	// Pick the product through the read-through cache, the way the
	// front end does, and snapshot it into the basket.
	doc, found, err := sys.cache.GetDetails(ctx, "tops", 5)
	if err != nil || !found {
		t.Fatalf("product lookup: found=%v err=%v", found, err)
	}

	item := basket.Item{Collection: "tops", ID: doc.ID(), Name: doc.Name()}
	if err := sys.baskets.Add(ctx, "alice", item); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if n, _ := sys.baskets.Len(ctx, "alice"); n != 1 {
		t.Fatalf("count after add = %d, want 1", n)
	}

	removed, err := sys.baskets.Remove(ctx, "alice", 5, "tops")
	if err != nil || !removed {
		t.Fatalf("remove item = %v, %v", removed, err)
	}
	if n, _ := sys.baskets.Len(ctx, "alice"); n != 0 {
		t.Fatalf("count after remove = %d, want 0", n)
	}

	if err := sys.sessions.Destroy(ctx, token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if ok, _ := sys.sessions.IsValid(ctx, token); ok {
		t.Fatalf("session valid after logout")
	}

	if _, err := sys.cache.InvalidateAll(ctx); err != nil {
		t.Fatalf("post-logout cache flush: %v", err)
	}
}
