// Package basket keeps each user's basket as an ordered list of
// JSON-encoded line items in the key-value store, most recently added
// first. Items are denormalized snapshots taken at add time; they may
// go stale relative to the catalog and never reference the cache.
package basket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"MiniShop/internal/kv"
)

// ErrEmptyItem rejects an add with no item data.
var ErrEmptyItem = errors.New("basket: empty item")

// Item is one basket line. Duplicates are allowed and coexist as
// separate entries.
type Item struct {
	Collection string `json:"collection"`
	ID         int64  `json:"_id"`
	Name       string `json:"name"`
}

type Store struct {
	kv kv.Store
}

func NewStore(store kv.Store) *Store {
	return &Store{kv: store}
}

func basketKey(username string) string {
	return "user:" + username + ":basket"
}

// EnsureExists initializes an empty basket without touching an
// existing one. The push-then-trim dance creates the list atomically
// per operation; under redis semantics an empty list and an absent
// key are the same thing, so a concurrent Add is never clobbered.
func (s *Store) EnsureExists(ctx context.Context, username string) error {
	key := basketKey(username)

	exists, err := s.kv.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("basket init: %w", err)
	}
	if exists {
		return nil
	}

	if err := s.kv.ListPush(ctx, key, []byte("init")); err != nil {
		return fmt.Errorf("basket init: %w", err)
	}
	return s.kv.ListTrim(ctx, key, 1, 0)
}

// Add prepends a normalized line item. Only a zero-value item is
// rejected; there is no dedup and no capacity bound.
func (s *Store) Add(ctx context.Context, username string, item Item) error {
	if item == (Item{}) {
		return ErrEmptyItem
	}

	data, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return s.kv.ListPush(ctx, basketKey(username), data)
}

// Remove deletes the first entry matching (id, collection), scanning
// from the head, so with duplicates the most recently added one wins.
// It reports false when nothing matched.
func (s *Store) Remove(ctx context.Context, username string, id int64, collection string) (bool, error) {
	key := basketKey(username)

	raws, err := s.kv.ListRange(ctx, key, 0, -1)
	if err != nil {
		return false, fmt.Errorf("basket remove: %w", err)
	}

	for _, raw := range raws {
		var item Item
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}
		if item.ID == id && item.Collection == collection {
			if _, err := s.kv.ListRemove(ctx, key, 1, raw); err != nil {
				return false, fmt.Errorf("basket remove: %w", err)
			}
			return true, nil
		}
	}
	return false, nil
}

// Items returns the basket in current order, head first.
func (s *Store) Items(ctx context.Context, username string) ([]Item, error) {
	raws, err := s.kv.ListRange(ctx, basketKey(username), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("basket items: %w", err)
	}

	items := make([]Item, 0, len(raws))
	for _, raw := range raws {
		var item Item
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Store) Len(ctx context.Context, username string) (int64, error) {
	return s.kv.ListLen(ctx, basketKey(username))
}

// Drop removes the basket entirely; used when the account is deleted.
func (s *Store) Drop(ctx context.Context, username string) error {
	return s.kv.Delete(ctx, basketKey(username))
}
