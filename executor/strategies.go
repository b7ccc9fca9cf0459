package executor

import (
	"context"
	"errors"

	"github.com/nimbusdb/nimbusdb/errs"
	"github.com/nimbusdb/nimbusdb/overlay"
	"github.com/nimbusdb/nimbusdb/query"
	"github.com/nimbusdb/nimbusdb/storage"
)

// errFallbackToScan signals the caller (Execute) to retry the plan as a
// full table scan, per spec.md §4.5's "transparently fall back" rule for
// index scan/seek when the index is missing at execution time.
var errFallbackToScan = errors.New("executor: index unavailable, falling back to scan")

// fullTableScan implements spec.md §4.5 "Full table scan".
func (e *Executor) fullTableScan(ctx context.Context, plan *query.QueryExecutionPlan, view *overlay.View) ([]Row, error) {
	it, err := e.scanner.Scan(ctx, plan.Collection)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	emitted := make(map[string]bool)
	var rows []Row

	for it.Next(ctx) {
		if err := e.checkCancelled(); err != nil {
			return nil, err
		}
		doc := it.Document()
		id := docID(doc)
		key := query.ToString(id)

		if view != nil {
			if replacement, ok := view.Updated(id); ok {
				doc = replacement
			}
			if view.IsDeleted(id) {
				emitted[key] = true
				continue
			}
		}

		if !e.matchesTag(doc, plan.Collection) {
			continue
		}
		ok, err := e.evalPredicate(plan.QueryExpression, doc)
		if err != nil {
			return nil, err
		}
		emitted[key] = true
		if ok {
			rows = append(rows, Row{Document: doc})
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}

	if view != nil {
		for _, doc := range view.Inserts() {
			id := docID(doc)
			key := query.ToString(id)
			if emitted[key] || view.IsDeleted(id) {
				continue
			}
			if !e.matchesTag(doc, plan.Collection) {
				continue
			}
			ok, err := e.evalPredicate(plan.QueryExpression, doc)
			if err != nil {
				return nil, err
			}
			if ok {
				rows = append(rows, Row{Document: doc})
			}
		}
	}

	return rows, nil
}

// scanRangeFromKeys translates index_scan_keys into an IndexScanRange
// (spec.md §4.5 "Index scan" translation table). Only Eq/Gt/Ge/Lt/Le
// comparisons on a single field are recognized; a mix of comparisons on
// different fields intersects into the tightest bound seen.
func scanRangeFromKeys(keys []query.IndexScanKey) query.IndexScanRange {
	var r query.IndexScanRange
	for _, k := range keys {
		switch k.Comparison {
		case query.OpEq:
			r.Min, r.IncludeMin = k.Value, true
			r.Max, r.IncludeMax = k.Value, true
		case query.OpGt:
			r.Min, r.IncludeMin = k.Value, false
		case query.OpGe:
			r.Min, r.IncludeMin = k.Value, true
		case query.OpLt:
			r.Max, r.IncludeMax = k.Value, false
		case query.OpLe:
			r.Max, r.IncludeMax = k.Value, true
		}
	}
	return r
}

// indexScan implements spec.md §4.5 "Index scan".
func (e *Executor) indexScan(ctx context.Context, plan *query.QueryExecutionPlan, view *overlay.View) ([]Row, error) {
	if plan.UseIndex == nil {
		return nil, errFallbackToScan
	}
	access, err := e.catalog.Get(plan.Collection, plan.UseIndex.Name)
	if err != nil {
		if errors.Is(err, errs.ErrIndexMissing) {
			return nil, errFallbackToScan
		}
		return nil, err
	}

	rng := scanRangeFromKeys(plan.IndexScanKeys)
	refs, err := access.Scan(ctx, rng)
	if err != nil {
		return nil, err
	}
	defer refs.Close()

	return e.resolveRefs(ctx, plan, refs, view)
}

// indexSeek implements spec.md §4.5 "Index seek".
func (e *Executor) indexSeek(ctx context.Context, plan *query.QueryExecutionPlan, view *overlay.View) ([]Row, error) {
	if plan.UseIndex == nil || len(plan.IndexScanKeys) == 0 {
		return nil, errFallbackToScan
	}
	for _, k := range plan.IndexScanKeys {
		if k.Comparison != query.OpEq {
			return nil, errFallbackToScan
		}
	}
	access, err := e.catalog.Get(plan.Collection, plan.UseIndex.Name)
	if err != nil {
		if errors.Is(err, errs.ErrIndexMissing) {
			return nil, errFallbackToScan
		}
		return nil, err
	}

	key := seekKeyOf(plan.IndexScanKeys)

	if plan.UseIndex.IsUnique {
		ref, err := access.SeekUnique(ctx, key)
		if err != nil {
			return nil, err
		}
		if ref == nil {
			return nil, nil
		}
		return e.resolveOne(ctx, plan, *ref, view)
	}

	refs, err := access.Seek(ctx, key)
	if err != nil {
		return nil, err
	}
	defer refs.Close()
	return e.resolveRefs(ctx, plan, refs, view)
}

func seekKeyOf(keys []query.IndexScanKey) query.Value {
	if len(keys) == 1 {
		return keys[0].Value
	}
	composite := make([]query.Value, len(keys))
	for i, k := range keys {
		composite[i] = k.Value
	}
	return composite
}

// primaryKeyLookup implements spec.md §4.5 "Primary-key lookup".
func (e *Executor) primaryKeyLookup(ctx context.Context, plan *query.QueryExecutionPlan, view *overlay.View) ([]Row, error) {
	if len(plan.IndexScanKeys) == 0 {
		return nil, nil
	}
	id := plan.IndexScanKeys[0].Value

	if view != nil {
		if view.IsDeleted(id) {
			return nil, nil
		}
		if doc, ok := view.Updated(id); ok {
			return e.checkAndWrap(plan, doc)
		}
		for _, doc := range view.Inserts() {
			if query.ToString(docID(doc)) == query.ToString(id) {
				return e.checkAndWrap(plan, doc)
			}
		}
	}

	doc, found, err := e.fetcher.FetchByID(ctx, plan.Collection, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return e.checkAndWrap(plan, doc)
}

func (e *Executor) checkAndWrap(plan *query.QueryExecutionPlan, doc map[string]query.Value) ([]Row, error) {
	if plan.NeedsRecheck() {
		ok, err := e.evalPredicate(plan.QueryExpression, doc)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
	}
	return []Row{{Document: doc}}, nil
}

// resolveRefs fetches each reference's document, applies overlay rules,
// re-checks the predicate, and yields the resulting rows. Used by both
// index scan and non-unique index seek, which differ only in how they
// produce the ref iterator.
func (e *Executor) resolveRefs(ctx context.Context, plan *query.QueryExecutionPlan, refs storage.RefIterator, view *overlay.View) ([]Row, error) {
	var rows []Row
	for refs.Next(ctx) {
		if err := e.checkCancelled(); err != nil {
			return nil, err
		}
		ref := refs.Ref()
		row, ok, err := e.resolveOneDoc(ctx, plan, ref, view)
		if err != nil {
			return nil, err
		}
		if ok {
			rows = append(rows, row)
		}
	}
	if err := refs.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// resolveOne resolves a single DocRef (the unique-index seek path, which
// never iterates).
func (e *Executor) resolveOne(ctx context.Context, plan *query.QueryExecutionPlan, ref storage.DocRef, view *overlay.View) ([]Row, error) {
	row, ok, err := e.resolveOneDoc(ctx, plan, ref, view)
	if err != nil || !ok {
		return nil, err
	}
	return []Row{row}, nil
}

func (e *Executor) resolveOneDoc(ctx context.Context, plan *query.QueryExecutionPlan, ref storage.DocRef, view *overlay.View) (Row, bool, error) {
	var doc map[string]query.Value
	if view != nil {
		if view.IsDeleted(ref.ID) {
			return Row{}, false, nil
		}
		if replacement, ok := view.Updated(ref.ID); ok {
			doc = replacement
		}
	}
	if doc == nil {
		d, found, err := e.fetcher.FetchByID(ctx, ref.Collection, ref.ID)
		if err != nil {
			return Row{}, false, err
		}
		if !found {
			return Row{}, false, nil
		}
		doc = d
	}

	if plan.NeedsRecheck() {
		ok, err := e.evalPredicate(plan.QueryExpression, doc)
		if err != nil {
			return Row{}, false, err
		}
		if !ok {
			return Row{}, false, nil
		}
	}
	return Row{Document: doc}, true, nil
}
