package shop_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"MiniShop/internal/basket"
	"MiniShop/internal/catalog"
	"MiniShop/internal/filter"
	"MiniShop/internal/kv"
	"MiniShop/internal/productcache"
	"MiniShop/internal/session"
	"MiniShop/internal/shop"
	"MiniShop/internal/user"
)

func newShop(t *testing.T, script string) (*shop.Shop, *bytes.Buffer) {
	t.Helper()

	mem := kv.NewMem()
	baskets := basket.NewStore(mem)
	cat := catalog.NewSeededMemStore()

	var out bytes.Buffer
	s := shop.New(shop.Shop{
		Users:    user.NewStore(mem, filter.NewMem(), baskets),
		Sessions: session.NewManager(mem, time.Minute, nil),
		Baskets:  baskets,
		Cache:    productcache.New(mem, cat, time.Minute, nil, nil),
		Catalog:  cat,
	}, strings.NewReader(script), &out)

	return s, &out
}

func TestScriptedShoppingTrip(t *testing.T) {
	script := strings.Join([]string{
		"1", "alice", "pw123", // create account
		"2", "alice", "pw123", // log in
		"5", "Hat", "hats", "1", // search, pick Blue Hat, add it
		"4", // show basket
		"6", "1", "hats", // remove Blue Hat
		"7", // log out
		"q",
	}, "\n") + "\n"

	s, out := newShop(t, script)
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, marker := range []string{
		"User created successfully.",
		"Logged in.",
		"Blue Hat",
		"Item added.",
		"Item removed.",
		"Logged out.",
	} {
		if !strings.Contains(out.String(), marker) {
			t.Fatalf("output missing %q:\n%s", marker, out.String())
		}
	}

	if strings.Contains(out.String(), "Something went wrong") {
		t.Fatalf("error boundary tripped:\n%s", out.String())
	}
}

func TestWrongPasswordStaysLoggedOut(t *testing.T) {
	script := strings.Join([]string{
		"1", "alice", "pw123",
		"2", "alice", "nope",
		"q",
	}, "\n") + "\n"

	s, out := newShop(t, script)
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !strings.Contains(out.String(), "Username or password is wrong") {
		t.Fatalf("missing rejection message:\n%s", out.String())
	}
	if strings.Contains(out.String(), "Items in basket") {
		t.Fatalf("reached the authenticated menu without logging in")
	}
}

func TestEndOfInputCleansUp(t *testing.T) {
	// Input ends right after login; Run must exit without error and
	// without reaching the guest menu again.
	script := strings.Join([]string{
		"1", "alice", "pw123",
		"2", "alice", "pw123",
	}, "\n") + "\n"

	s, _ := newShop(t, script)
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
