// Package memstore is an in-memory reference implementation of the
// storage.Scanner/IndexCatalog/Fetcher contracts, used by the query
// subsystem's tests so they do not need a real BadgerDB file on disk.
//
// Grounded on the teacher's datalog/storage/simple_batch_scanner.go (an
// iterator wrapping a pre-built slice, advanced with Next/Close) for the
// iterator shape, and testdata_builder.go for the "small builder struct
// you Put documents into, then hand to the matcher/planner" idiom.
package memstore

import (
	"context"
	"sort"

	"github.com/nimbusdb/nimbusdb/errs"
	"github.com/nimbusdb/nimbusdb/query"
	"github.com/nimbusdb/nimbusdb/storage"
)

type indexEntry struct {
	key query.Value // []query.Value for composite indexes, single Value for simple ones
	id  query.Value
}

type index struct {
	stats   query.IndexStatistics
	entries []indexEntry
}

// Store is an in-memory collection/document/index store.
type Store struct {
	docs    map[string]map[string]map[string]query.Value
	order   map[string][]string
	indexes map[string]map[string]*index
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		docs:    make(map[string]map[string]map[string]query.Value),
		order:   make(map[string][]string),
		indexes: make(map[string]map[string]*index),
	}
}

// Put inserts or replaces a document; id is read from doc["_id"].
func (s *Store) Put(collection string, doc map[string]query.Value) {
	id, ok := doc["_id"]
	if !ok {
		return
	}
	idKey := query.ToString(id)
	if s.docs[collection] == nil {
		s.docs[collection] = make(map[string]map[string]query.Value)
	}
	if _, existed := s.docs[collection][idKey]; !existed {
		s.order[collection] = append(s.order[collection], idKey)
	}
	s.docs[collection][idKey] = doc
	s.reindex(collection)
}

// Delete removes a document by id.
func (s *Store) Delete(collection string, id query.Value) {
	idKey := query.ToString(id)
	delete(s.docs[collection], idKey)
	s.reindex(collection)
}

// CreateIndex declares a secondary index over fields; rebuilds eagerly.
func (s *Store) CreateIndex(collection, name string, fields []string, unique bool) {
	if s.indexes[collection] == nil {
		s.indexes[collection] = make(map[string]*index)
	}
	s.indexes[collection][name] = &index{
		stats: query.IndexStatistics{Name: name, Fields: fields, IsUnique: unique},
	}
	s.reindex(collection)
}

func (s *Store) reindex(collection string) {
	for _, idx := range s.indexes[collection] {
		idx.entries = idx.entries[:0]
		for _, idKey := range s.order[collection] {
			doc, ok := s.docs[collection][idKey]
			if !ok {
				continue
			}
			idx.entries = append(idx.entries, indexEntry{
				key: compositeKey(doc, idx.stats.Fields),
				id:  doc["_id"],
			})
		}
		sort.Slice(idx.entries, func(i, j int) bool {
			return compareComposite(idx.entries[i].key, idx.entries[j].key) < 0
		})
	}
}

func compositeKey(doc map[string]query.Value, fields []string) query.Value {
	if len(fields) == 1 {
		return doc[fields[0]]
	}
	key := make([]query.Value, len(fields))
	for i, f := range fields {
		key[i] = doc[f]
	}
	return key
}

func compareComposite(a, b query.Value) int {
	as, aok := a.([]query.Value)
	bs, bok := b.([]query.Value)
	if !aok || !bok {
		return query.CompareValues(a, b)
	}
	for i := 0; i < len(as) && i < len(bs); i++ {
		if c := query.CompareValues(as[i], bs[i]); c != 0 {
			return c
		}
	}
	return len(as) - len(bs)
}

// --- storage.Scanner ---

func (s *Store) Scan(ctx context.Context, collection string) (storage.DocumentIterator, error) {
	ids := s.order[collection]
	docs := make([]map[string]query.Value, 0, len(ids))
	for _, idKey := range ids {
		if d, ok := s.docs[collection][idKey]; ok {
			docs = append(docs, d)
		}
	}
	return &docIterator{docs: docs, pos: -1}, nil
}

type docIterator struct {
	docs []map[string]query.Value
	pos  int
}

func (it *docIterator) Next(ctx context.Context) bool {
	it.pos++
	return it.pos < len(it.docs)
}
func (it *docIterator) Document() map[string]query.Value { return it.docs[it.pos] }
func (it *docIterator) Err() error                        { return nil }
func (it *docIterator) Close() error                       { return nil }

// --- storage.Fetcher ---

func (s *Store) FetchByID(ctx context.Context, collection string, id query.Value) (map[string]query.Value, bool, error) {
	doc, ok := s.docs[collection][query.ToString(id)]
	return doc, ok, nil
}

// --- storage.IndexCatalog ---

func (s *Store) List(collection string) ([]query.IndexStatistics, error) {
	var out []query.IndexStatistics
	for _, idx := range s.indexes[collection] {
		out = append(out, idx.stats)
	}
	return out, nil
}

func (s *Store) Get(collection, name string) (storage.IndexAccess, error) {
	idx, ok := s.indexes[collection][name]
	if !ok {
		return nil, errs.IndexMissingf("index %s.%s not found", collection, name)
	}
	return &indexAccess{collection: collection, idx: idx}, nil
}

type indexAccess struct {
	collection string
	idx        *index
}

func (a *indexAccess) Seek(ctx context.Context, key query.Value) (storage.RefIterator, error) {
	var refs []storage.DocRef
	for _, e := range a.idx.entries {
		if query.CompareValues(e.key, key) == 0 {
			refs = append(refs, storage.DocRef{Collection: a.collection, ID: e.id})
		}
	}
	return &refIterator{refs: refs, pos: -1}, nil
}

func (a *indexAccess) SeekUnique(ctx context.Context, key query.Value) (*storage.DocRef, error) {
	for _, e := range a.idx.entries {
		if query.CompareValues(e.key, key) == 0 {
			ref := storage.DocRef{Collection: a.collection, ID: e.id}
			return &ref, nil
		}
	}
	return nil, nil
}

func (a *indexAccess) Scan(ctx context.Context, r query.IndexScanRange) (storage.RefIterator, error) {
	var refs []storage.DocRef
	for _, e := range a.idx.entries {
		if r.Min != nil {
			c := query.CompareValues(e.key, r.Min)
			if c < 0 || (c == 0 && !r.IncludeMin) {
				continue
			}
		}
		if r.Max != nil {
			c := query.CompareValues(e.key, r.Max)
			if c > 0 || (c == 0 && !r.IncludeMax) {
				continue
			}
		}
		refs = append(refs, storage.DocRef{Collection: a.collection, ID: e.id})
	}
	return &refIterator{refs: refs, pos: -1}, nil
}

type refIterator struct {
	refs []storage.DocRef
	pos  int
}

func (it *refIterator) Next(ctx context.Context) bool {
	it.pos++
	return it.pos < len(it.refs)
}
func (it *refIterator) Ref() storage.DocRef { return it.refs[it.pos] }
func (it *refIterator) Err() error          { return nil }
func (it *refIterator) Close() error        { return nil }
