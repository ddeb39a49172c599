// Package catalog is the query layer over the persistent product
// catalog. The backing document store is a collaborator; the
// query-shaping logic (word-boundary search expressions) lives here.
package catalog

import "context"

// Document is a schemaless catalog record. The catalog guarantees
// nothing beyond an integer "_id" and a "Name" field.
type Document map[string]any

// ID returns the document id, tolerating the numeric types JSON
// decoding produces.
func (d Document) ID() int64 {
	switch v := d["_id"].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

func (d Document) Name() string {
	s, _ := d["Name"].(string)
	return s
}

// Store is the document catalog collaborator. It is read-only from
// the core's point of view: nothing here ever mutates it.
type Store interface {
	// Collections enumerates the collection names.
	Collections(ctx context.Context) ([]string, error)

	// ListAll returns every document of a collection in natural
	// (id) order.
	ListAll(ctx context.Context, collection string) ([]Document, error)

	// GetByID is an exact-match lookup. A valid but missing id is
	// reported via found=false, never as an error.
	GetByID(ctx context.Context, collection string, id int64) (Document, bool, error)

	// Search matches documents whose Name contains query as a whole
	// word, case-insensitively. The query is literal text: regex
	// metacharacters in it carry no meaning. An empty result is an
	// empty slice, not an error.
	Search(ctx context.Context, collection, query string) ([]Document, error)

	Ping(ctx context.Context) error
}
