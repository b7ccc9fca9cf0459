package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/nimbusdb/nimbusdb/codec"
	"github.com/nimbusdb/nimbusdb/errs"
	"github.com/nimbusdb/nimbusdb/query"
)

// BadgerStore is the single-file, embedded persistence layer nimbusdb's
// query subsystem runs against: it implements Scanner, Fetcher and
// IndexCatalog/IndexAccess over a BadgerDB database, playing the role
// spec.md §1 assigns to the (out-of-scope) page manager and index
// structures.
//
// Grounded on the teacher's datalog/storage/badger_store.go NewBadgerStore
// options block and its db.Update/db.View transaction wrapping, adapted
// from a fixed E/A/V/Tx datom store to a collection/document/secondary-
// index store: documents replace datoms, and index entries are written
// and removed alongside document writes rather than across five fixed
// EAVT/AEVT/AVET/VAET/TAEV indices.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (creating if absent) a BadgerDB database at path.
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	opts.MemTableSize = 64 << 20
	opts.BlockCacheSize = 64 << 20
	opts.IndexCacheSize = 32 << 20
	opts.ValueThreshold = 1 << 10

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("nimbusdb: opening badger store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// --- key layout ---
//
// d:<collection>:<id>            -> encoded document
// m:<collection>:<index name>    -> encoded index metadata (fields, unique)
// x:<collection>:<index name>:<id> -> encoded (composite key, id) entry

func docKey(collection, idKey string) []byte {
	return []byte("d:" + collection + ":" + idKey)
}

func docPrefix(collection string) []byte {
	return []byte("d:" + collection + ":")
}

func metaKey(collection, name string) []byte {
	return []byte("m:" + collection + ":" + name)
}

func metaPrefix(collection string) []byte {
	return []byte("m:" + collection + ":")
}

func entryKey(collection, name, idKey string) []byte {
	return []byte("x:" + collection + ":" + name + ":" + idKey)
}

func entryPrefix(collection, name string) []byte {
	return []byte("x:" + collection + ":" + name + ":")
}

// Put inserts or replaces a document, maintaining every declared index
// for its collection.
func (s *BadgerStore) Put(collection string, doc map[string]query.Value) error {
	id, ok := doc["_id"]
	if !ok {
		return errs.InvalidArgumentf("document missing _id field")
	}
	idKey := query.ToString(id)

	return s.db.Update(func(txn *badger.Txn) error {
		var old map[string]query.Value
		if item, err := txn.Get(docKey(collection, idKey)); err == nil {
			_ = item.Value(func(val []byte) error {
				old, _ = codec.DecodeDocument(val)
				return nil
			})
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		if err := txn.Set(docKey(collection, idKey), codec.EncodeDocument(doc)); err != nil {
			return err
		}

		metas, err := s.listMetaTxn(txn, collection)
		if err != nil {
			return err
		}
		for _, meta := range metas {
			if old != nil {
				if err := txn.Delete(entryKey(collection, meta.Name, idKey)); err != nil && err != badger.ErrKeyNotFound {
					return err
				}
			}
			entry := codec.EncodeDocument(map[string]query.Value{
				"key": compositeKeyOf(doc, meta.Fields),
				"id":  id,
			})
			if err := txn.Set(entryKey(collection, meta.Name, idKey), entry); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes a document and its index entries.
func (s *BadgerStore) Delete(collection string, id query.Value) error {
	idKey := query.ToString(id)
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(docKey(collection, idKey)); err != nil && err != badger.ErrKeyNotFound {
			return err
		}
		metas, err := s.listMetaTxn(txn, collection)
		if err != nil {
			return err
		}
		for _, meta := range metas {
			if err := txn.Delete(entryKey(collection, meta.Name, idKey)); err != nil && err != badger.ErrKeyNotFound {
				return err
			}
		}
		return nil
	})
}

// CreateIndex declares a secondary index and backfills it from existing
// documents in the collection.
func (s *BadgerStore) CreateIndex(collection, name string, fields []string, unique bool) error {
	return s.db.Update(func(txn *badger.Txn) error {
		metaDoc := map[string]query.Value{
			"fields": fieldsToValue(fields),
			"unique": unique,
		}
		if err := txn.Set(metaKey(collection, name), codec.EncodeDocument(metaDoc)); err != nil {
			return err
		}

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := docPrefix(collection)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			idKey := strings.TrimPrefix(string(item.Key()), string(prefix))
			var doc map[string]query.Value
			if err := item.Value(func(val []byte) error {
				var derr error
				doc, derr = codec.DecodeDocument(val)
				return derr
			}); err != nil {
				return err
			}
			entry := codec.EncodeDocument(map[string]query.Value{
				"key": compositeKeyOf(doc, fields),
				"id":  doc["_id"],
			})
			if err := txn.Set(entryKey(collection, name, idKey), entry); err != nil {
				return err
			}
		}
		return nil
	})
}

func fieldsToValue(fields []string) query.Value {
	out := make([]query.Value, len(fields))
	for i, f := range fields {
		out[i] = f
	}
	return out
}

func valueToFields(v query.Value) []string {
	seq, _ := v.([]query.Value)
	out := make([]string, len(seq))
	for i, e := range seq {
		out[i], _ = e.(string)
	}
	return out
}

func compositeKeyOf(doc map[string]query.Value, fields []string) query.Value {
	if len(fields) == 1 {
		return doc[fields[0]]
	}
	key := make([]query.Value, len(fields))
	for i, f := range fields {
		key[i] = doc[f]
	}
	return key
}

func compareIndexKey(a, b query.Value) int {
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

type indexMeta struct {
	Name   string
	Fields []string
	Unique bool
}

func (s *BadgerStore) listMetaTxn(txn *badger.Txn, collection string) ([]indexMeta, error) {
	var metas []indexMeta
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()
	prefix := metaPrefix(collection)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		name := strings.TrimPrefix(string(item.Key()), string(prefix))
		var doc map[string]query.Value
		if err := item.Value(func(val []byte) error {
			var derr error
			doc, derr = codec.DecodeDocument(val)
			return derr
		}); err != nil {
			return nil, err
		}
		unique, _ := doc["unique"].(bool)
		metas = append(metas, indexMeta{
			Name:   name,
			Fields: valueToFields(doc["fields"]),
			Unique: unique,
		})
	}
	return metas, nil
}

// --- storage.Scanner ---

func (s *BadgerStore) Scan(ctx context.Context, collection string) (DocumentIterator, error) {
	var docs []map[string]query.Value
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := docPrefix(collection)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var doc map[string]query.Value
			if err := item.Value(func(val []byte) error {
				var derr error
				doc, derr = codec.DecodeDocument(val)
				return derr
			}); err != nil {
				return err
			}
			docs = append(docs, doc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sliceDocIterator{docs: docs, pos: -1}, nil
}

type sliceDocIterator struct {
	docs []map[string]query.Value
	pos  int
}

func (it *sliceDocIterator) Next(ctx context.Context) bool {
	it.pos++
	return it.pos < len(it.docs)
}
func (it *sliceDocIterator) Document() map[string]query.Value { return it.docs[it.pos] }
func (it *sliceDocIterator) Err() error                        { return nil }
func (it *sliceDocIterator) Close() error                       { return nil }

// --- storage.Fetcher ---

func (s *BadgerStore) FetchByID(ctx context.Context, collection string, id query.Value) (map[string]query.Value, bool, error) {
	var doc map[string]query.Value
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(docKey(collection, query.ToString(id)))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			var derr error
			doc, derr = codec.DecodeDocument(val)
			return derr
		})
	})
	return doc, found, err
}

// --- storage.IndexCatalog ---

func (s *BadgerStore) List(collection string) ([]query.IndexStatistics, error) {
	var out []query.IndexStatistics
	err := s.db.View(func(txn *badger.Txn) error {
		metas, err := s.listMetaTxn(txn, collection)
		if err != nil {
			return err
		}
		for _, m := range metas {
			out = append(out, query.IndexStatistics{Name: m.Name, Fields: m.Fields, IsUnique: m.Unique})
		}
		return nil
	})
	return out, err
}

func (s *BadgerStore) Get(collection, name string) (IndexAccess, error) {
	var meta *indexMeta
	err := s.db.View(func(txn *badger.Txn) error {
		metas, err := s.listMetaTxn(txn, collection)
		if err != nil {
			return err
		}
		for i := range metas {
			if metas[i].Name == name {
				meta = &metas[i]
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, errs.IndexMissingf("index %s.%s not found", collection, name)
	}
	return &badgerIndexAccess{store: s, collection: collection, name: name}, nil
}

type badgerIndexAccess struct {
	store      *BadgerStore
	collection string
	name       string
}

func (a *badgerIndexAccess) entries(ctx context.Context) ([]DocRef, []query.Value, error) {
	var refs []DocRef
	var keys []query.Value
	err := a.store.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := entryPrefix(a.collection, a.name)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var doc map[string]query.Value
			if err := item.Value(func(val []byte) error {
				var derr error
				doc, derr = codec.DecodeDocument(val)
				return derr
			}); err != nil {
				return err
			}
			refs = append(refs, DocRef{Collection: a.collection, ID: doc["id"]})
			keys = append(keys, doc["key"])
		}
		return nil
	})
	return refs, keys, err
}

func (a *badgerIndexAccess) Seek(ctx context.Context, key query.Value) (RefIterator, error) {
	refs, keys, err := a.entries(ctx)
	if err != nil {
		return nil, err
	}
	var matched []DocRef
	for i, k := range keys {
		if compareIndexKey(k, key) == 0 {
			matched = append(matched, refs[i])
		}
	}
	return &sliceRefIterator{refs: matched, pos: -1}, nil
}

func (a *badgerIndexAccess) SeekUnique(ctx context.Context, key query.Value) (*DocRef, error) {
	refs, keys, err := a.entries(ctx)
	if err != nil {
		return nil, err
	}
	for i, k := range keys {
		if compareIndexKey(k, key) == 0 {
			ref := refs[i]
			return &ref, nil
		}
	}
	return nil, nil
}

func (a *badgerIndexAccess) Scan(ctx context.Context, r query.IndexScanRange) (RefIterator, error) {
	refs, keys, err := a.entries(ctx)
	if err != nil {
		return nil, err
	}
	type pair struct {
		ref DocRef
		key query.Value
	}
	pairs := make([]pair, len(refs))
	for i := range refs {
		pairs[i] = pair{refs[i], keys[i]}
	}
	sort.Slice(pairs, func(i, j int) bool {
		return compareIndexKey(pairs[i].key, pairs[j].key) < 0
	})

	var matched []DocRef
	for _, p := range pairs {
		if r.Min != nil {
			c := compareIndexKey(p.key, r.Min)
			if c < 0 || (c == 0 && !r.IncludeMin) {
				continue
			}
		}
		if r.Max != nil {
			c := compareIndexKey(p.key, r.Max)
			if c > 0 || (c == 0 && !r.IncludeMax) {
				continue
			}
		}
		matched = append(matched, p.ref)
	}
	return &sliceRefIterator{refs: matched, pos: -1}, nil
}

type sliceRefIterator struct {
	refs []DocRef
	pos  int
}

func (it *sliceRefIterator) Next(ctx context.Context) bool {
	it.pos++
	return it.pos < len(it.refs)
}
func (it *sliceRefIterator) Ref() DocRef  { return it.refs[it.pos] }
func (it *sliceRefIterator) Err() error   { return nil }
func (it *sliceRefIterator) Close() error { return nil }
