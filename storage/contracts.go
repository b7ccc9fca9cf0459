// Package storage defines the narrow, read-only contracts the query
// subsystem consumes from the page manager / index / document layers
// that spec.md §1 places out of scope (storage scanner, index catalog,
// index access path), plus two implementations: an in-memory reference
// store for tests (storage/memstore) and a BadgerDB-backed single-file
// store (badger_store.go) that gives nimbusdb an actual embedded,
// single-file persistence layer to exercise those contracts against.
package storage

import (
	"context"

	"github.com/nimbusdb/nimbusdb/query"
)

// DocRef is a lightweight reference to a stored document: its id and its
// collection, without the document body. Index access paths yield these;
// the executor resolves them to full documents via Fetcher.
type DocRef struct {
	Collection string
	ID         query.Value
}

// DocumentIterator yields full documents from a collection scan
// (spec.md §6 "Storage scanner contract").
type DocumentIterator interface {
	Next(ctx context.Context) bool
	Document() map[string]query.Value
	Err() error
	Close() error
}

// RefIterator yields document references from an index scan/seek.
type RefIterator interface {
	Next(ctx context.Context) bool
	Ref() DocRef
	Err() error
	Close() error
}

// Scanner yields all documents of a named collection (spec.md §6).
type Scanner interface {
	Scan(ctx context.Context, collection string) (DocumentIterator, error)
}

// Fetcher resolves a DocRef to its full document, used after an index
// scan/seek yields references. The executor returns the fetched
// document as is; it does not map it to a record.
type Fetcher interface {
	FetchByID(ctx context.Context, collection string, id query.Value) (map[string]query.Value, bool, error)
}

// IndexAccess supports seek(key), seek_unique(key) and scan(range)
// against one named index (spec.md §6).
type IndexAccess interface {
	Seek(ctx context.Context, key query.Value) (RefIterator, error)
	SeekUnique(ctx context.Context, key query.Value) (*DocRef, error)
	Scan(ctx context.Context, r query.IndexScanRange) (RefIterator, error)
}

// IndexCatalog lists the indexes declared for a collection and resolves
// one by name (spec.md §6). Get returns (nil, errs.ErrIndexMissing) when
// the named index is absent; the executor must fall back to a full scan
// rather than treat this as fatal (spec.md §7).
type IndexCatalog interface {
	List(collection string) ([]query.IndexStatistics, error)
	Get(collection, name string) (IndexAccess, error)
}
