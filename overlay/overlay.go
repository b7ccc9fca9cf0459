// Package overlay models the transaction-scoped log of pending
// inserts/updates/deletes that shadows base storage during reads
// (spec.md §3 invariant 5, §6 Overlay contract).
//
// Grounded on Design Notes §9 "Overlay integration": "Model the overlay
// as an ordered log of typed operations (Insert/Update/Delete with
// (collection, id, doc?)); the executor consults a hash-indexed view
// built once per plan, so membership checks are amortized O(1)." Each
// Log.View call builds its hash-indexed snapshot eagerly, under the log's
// mutex; there is no lazy or sync.Once-guarded build.
package overlay

import (
	"sync"

	"github.com/nimbusdb/nimbusdb/query"
)

// OpKind tags a logged operation.
type OpKind int

const (
	OpInsert OpKind = iota
	OpUpdate
	OpDelete
)

// Op is one entry of the transaction's ordered log.
type Op struct {
	Kind       OpKind
	Collection string
	ID         query.Value
	Doc        map[string]query.Value // nil for Delete
}

// Log is the ordered, append-only record of a transaction's pending
// writes. It is safe to read concurrently with Append via View.
type Log struct {
	mu  sync.Mutex
	ops []Op
}

// New returns an empty transaction log.
func New() *Log {
	return &Log{}
}

// Append records an operation. Overlay entries referencing unknown ids
// are not validated here — they are no-ops at read time, never fatal
// (spec.md §7 "Overlay errors").
func (l *Log) Append(op Op) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ops = append(l.ops, op)
}

// View builds a point-in-time, hash-indexed snapshot of the log for one
// collection, amortizing membership checks to O(1) across a single
// query's execution (Design Notes §9).
func (l *Log) View(collection string) *View {
	l.mu.Lock()
	ops := make([]Op, len(l.ops))
	copy(ops, l.ops)
	l.mu.Unlock()

	v := &View{
		inserted: make(map[string]map[string]query.Value),
		updated:  make(map[string]map[string]query.Value),
		deleted:  make(map[string]bool),
		order:    nil,
	}
	seenInOrder := make(map[string]bool)
	for _, op := range ops {
		if op.Collection != collection {
			continue
		}
		key := query.ToString(op.ID)
		switch op.Kind {
		case OpInsert:
			v.inserted[key] = op.Doc
			delete(v.deleted, key)
			if !seenInOrder[key] {
				seenInOrder[key] = true
				v.order = append(v.order, key)
			}
		case OpUpdate:
			v.updated[key] = op.Doc
			delete(v.deleted, key)
		case OpDelete:
			v.deleted[key] = true
			delete(v.inserted, key)
			delete(v.updated, key)
		}
	}
	return v
}

// View is a read-only, hash-indexed snapshot of one collection's pending
// operations, consulted by the executor while merging base storage with
// the transaction overlay (spec.md §4.5).
type View struct {
	inserted map[string]map[string]query.Value
	updated  map[string]map[string]query.Value
	deleted  map[string]bool
	order    []string
}

// Inserts returns the pending-insert documents in log order.
func (v *View) Inserts() []map[string]query.Value {
	out := make([]map[string]query.Value, 0, len(v.order))
	for _, key := range v.order {
		if doc, ok := v.inserted[key]; ok {
			out = append(out, doc)
		}
	}
	return out
}

// IsDeleted reports whether id was deleted within this view.
func (v *View) IsDeleted(id query.Value) bool {
	return v.deleted[query.ToString(id)]
}

// Updated returns the replacement document for id, if any.
func (v *View) Updated(id query.Value) (map[string]query.Value, bool) {
	doc, ok := v.updated[query.ToString(id)]
	return doc, ok
}
