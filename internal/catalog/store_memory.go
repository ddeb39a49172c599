package catalog

import (
	"context"
	"regexp"
	"sort"
	"sync"
)

// MemStore keeps collections as ordered document slices. It backs the
// no-database deployment mode and the tests.
type MemStore struct {
	mu          sync.RWMutex
	collections map[string][]Document
}

func NewMemStore() *MemStore {
	return &MemStore{collections: make(map[string][]Document)}
}

// NewSeededMemStore returns a MemStore with a small demo catalog.
func NewSeededMemStore() *MemStore {
	s := NewMemStore()
	s.Put("tops", Document{"_id": int64(1), "Name": "Red Shirt", "Price": 19.99})
	s.Put("tops", Document{"_id": int64(2), "Name": "Blue Hoodie", "Price": 39.99})
	s.Put("tops", Document{"_id": int64(3), "Name": "Shirts Bundle", "Price": 49.99})
	s.Put("hats", Document{"_id": int64(1), "Name": "Blue Hat", "Price": 14.99})
	s.Put("hats", Document{"_id": int64(2), "Name": "Straw Hat", "Price": 9.99})
	return s
}

// Put appends a document, preserving insertion order as the
// collection's natural order.
func (s *MemStore) Put(collection string, doc Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[collection] = append(s.collections[collection], doc)
}

func (s *MemStore) Collections(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemStore) ListAll(_ context.Context, collection string) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := s.collections[collection]
	out := make([]Document, len(docs))
	copy(out, docs)
	return out, nil
}

func (s *MemStore) GetByID(_ context.Context, collection string, id int64) (Document, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, doc := range s.collections[collection] {
		if doc.ID() == id {
			return doc, true, nil
		}
	}
	return nil, false, nil
}

func (s *MemStore) Search(_ context.Context, collection, query string) ([]Document, error) {
	re, err := regexp.Compile(wordPattern(query))
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Document, 0, 4)
	for _, doc := range s.collections[collection] {
		if re.MatchString(doc.Name()) {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (s *MemStore) Ping(context.Context) error { return nil }
