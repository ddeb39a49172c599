// Package filter provides the probabilistic membership collaborator
// used for fast username existence checks without loading the
// credential record. Implementations must never report false
// negatives; false positives are tolerated.
//
// Deletion caveat: removing items is only safe for filter
// constructions that track fingerprints or counts (cuckoo and
// counting filters qualify, plain Bloom filters do not), and only for
// items that were actually added. Both implementations here satisfy
// that, but any replacement must too.
package filter

import "context"

type Filter interface {
	Add(ctx context.Context, item string) error
	Exists(ctx context.Context, item string) (bool, error)
	// Remove deletes one occurrence of item. Removing an item that
	// was never added is undefined for probabilistic filters and must
	// be guarded by an Exists check at the call site.
	Remove(ctx context.Context, item string) error
}
