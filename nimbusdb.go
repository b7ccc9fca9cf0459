// Package nimbusdb exposes Queryable, the chainable, lazy query surface
// that sits on top of the executor and deferred pipeline (spec.md §4.7).
//
// Grounded on the teacher's constructor-validates-its-dependencies
// pattern (executor.New, storage.NewBadgerStore, planner.New all reject
// nil/empty arguments up front rather than failing later).
package nimbusdb

import (
	"context"

	"github.com/nimbusdb/nimbusdb/errs"
	"github.com/nimbusdb/nimbusdb/executor"
	"github.com/nimbusdb/nimbusdb/overlay"
	"github.com/nimbusdb/nimbusdb/pipeline"
	"github.com/nimbusdb/nimbusdb/query"
)

// Provider supplies the transaction overlay a Queryable merges against.
// A nil View (Provider.View returning nil) means no overlay is
// active, equivalent to reading committed storage only.
type Provider interface {
	View(collection string) *overlay.View
}

// Queryable is an immutable (executor, collection, provider, expression)
// bundle (spec.md §4.7). Every operator method returns a new Queryable
// with the chain extended by one step; nothing is evaluated until a
// terminal is called or the value is enumerated.
type Queryable struct {
	exec       *executor.Executor
	collection string
	provider   Provider
	expr       pipeline.Expression
}

// New builds the root Queryable over a collection. exec, collection, and
// provider must all be non-empty/non-nil (spec.md §4.7 "Constructors
// validate that executor, collection name, and provider are non-null").
func New(exec *executor.Executor, collection string, provider Provider) (*Queryable, error) {
	if exec == nil {
		return nil, errs.InvalidArgumentf("nimbusdb.New: executor must not be nil")
	}
	if collection == "" {
		return nil, errs.InvalidArgumentf("nimbusdb.New: collection name must not be empty")
	}
	if provider == nil {
		return nil, errs.InvalidArgumentf("nimbusdb.New: provider must not be nil")
	}
	return &Queryable{exec: exec, collection: collection, provider: provider}, nil
}

func (q *Queryable) extend(step pipeline.Step) *Queryable {
	return &Queryable{exec: q.exec, collection: q.collection, provider: q.provider, expr: q.expr.Append(step)}
}

// Where appends a filter stage.
func (q *Queryable) Where(predicate *query.Node) *Queryable {
	return q.extend(pipeline.Step{Kind: pipeline.OpWhere, Predicate: predicate})
}

// Select appends a projection stage.
func (q *Queryable) Select(selector *query.Node) *Queryable {
	return q.extend(pipeline.Step{Kind: pipeline.OpSelect, Selector: selector})
}

// OrderBy appends an ascending sort stage.
func (q *Queryable) OrderBy(key *query.Node) *Queryable {
	return q.extend(pipeline.Step{Kind: pipeline.OpOrderBy, Selector: key})
}

// OrderByDescending appends a descending sort stage.
func (q *Queryable) OrderByDescending(key *query.Node) *Queryable {
	return q.extend(pipeline.Step{Kind: pipeline.OpOrderByDescending, Selector: key})
}

// ThenBy extends a preceding OrderBy/OrderByDescending with a secondary
// ascending key.
func (q *Queryable) ThenBy(key *query.Node) *Queryable {
	return q.extend(pipeline.Step{Kind: pipeline.OpThenBy, Selector: key})
}

// ThenByDescending extends a preceding order with a secondary descending
// key.
func (q *Queryable) ThenByDescending(key *query.Node) *Queryable {
	return q.extend(pipeline.Step{Kind: pipeline.OpThenByDescending, Selector: key})
}

// Skip appends a pagination stage dropping the first n elements.
func (q *Queryable) Skip(n *query.Node) *Queryable {
	return q.extend(pipeline.Step{Kind: pipeline.OpSkip, N: n})
}

// Take appends a pagination stage keeping only the first n elements.
func (q *Queryable) Take(n *query.Node) *Queryable {
	return q.extend(pipeline.Step{Kind: pipeline.OpTake, N: n})
}

// Distinct appends a deduplication stage.
func (q *Queryable) Distinct() *Queryable {
	return q.extend(pipeline.Step{Kind: pipeline.OpDistinct})
}

// GroupBy appends a grouping stage.
func (q *Queryable) GroupBy(key *query.Node) *Queryable {
	return q.extend(pipeline.Step{Kind: pipeline.OpGroupBy, Selector: key})
}

// run executes the chain: push the root predicate (if any) down into the
// executor, run the remainder of the expression over the returned rows,
// and hand back the plan alongside the materialized result (spec.md
// §4.7 "Enumeration delegates to the pipeline").
func (q *Queryable) run(ctx context.Context) (*query.QueryExecutionPlan, []query.Value, error) {
	predicate, rest, _ := q.expr.PushdownPredicate()

	view := q.provider.View(q.collection)
	plan, rows, err := q.exec.Execute(ctx, q.collection, predicate, view)
	if err != nil {
		return nil, nil, err
	}

	values := make([]query.Value, len(rows))
	for i, r := range rows {
		values[i] = r.Document
	}

	out, err := pipeline.Run(rest, values)
	if err != nil {
		return nil, nil, err
	}
	return plan, out, nil
}

// ToSlice materializes the full chain into a []query.Value, per spec.md
// §4.7 "enumeration consumes a fresh stream each time".
func (q *Queryable) ToSlice(ctx context.Context) ([]query.Value, error) {
	_, rows, err := q.run(ctx)
	return rows, err
}

// Plan runs the chain and returns the access path actually used,
// alongside the result (the PlanReport side-channel of report.go wraps
// this for callers that only want the plan).
func (q *Queryable) Plan(ctx context.Context) (*query.QueryExecutionPlan, []query.Value, error) {
	return q.run(ctx)
}

// Count runs the chain and returns the row count.
func (q *Queryable) Count(ctx context.Context) (int, error) {
	_, rows, err := q.run(ctx)
	if err != nil {
		return 0, err
	}
	return pipeline.Count(rows), nil
}

// LongCount is Count exposed as int64.
func (q *Queryable) LongCount(ctx context.Context) (int64, error) {
	_, rows, err := q.run(ctx)
	if err != nil {
		return 0, err
	}
	return pipeline.LongCount(rows), nil
}

// Any runs the chain and reports whether any row satisfies predicate (or
// the stream is non-empty, if predicate is nil).
func (q *Queryable) Any(ctx context.Context, predicate *query.Node) (bool, error) {
	_, rows, err := q.run(ctx)
	if err != nil {
		return false, err
	}
	return pipeline.Any(rows, predicate)
}

// All runs the chain and reports whether every row satisfies predicate.
func (q *Queryable) All(ctx context.Context, predicate *query.Node) (bool, error) {
	_, rows, err := q.run(ctx)
	if err != nil {
		return false, err
	}
	return pipeline.All(rows, predicate)
}

// First runs the chain and returns the first row satisfying predicate.
func (q *Queryable) First(ctx context.Context, predicate *query.Node) (query.Value, error) {
	_, rows, err := q.run(ctx)
	if err != nil {
		return nil, err
	}
	return pipeline.First(rows, predicate)
}

// FirstOrDefault is First but returns nil instead of erroring on no match.
func (q *Queryable) FirstOrDefault(ctx context.Context, predicate *query.Node) (query.Value, error) {
	_, rows, err := q.run(ctx)
	if err != nil {
		return nil, err
	}
	return pipeline.FirstOrDefault(rows, predicate)
}

// Single runs the chain and returns the one row satisfying predicate.
func (q *Queryable) Single(ctx context.Context, predicate *query.Node) (query.Value, error) {
	_, rows, err := q.run(ctx)
	if err != nil {
		return nil, err
	}
	return pipeline.Single(rows, predicate)
}

// SingleOrDefault is Single but returns nil on zero matches.
func (q *Queryable) SingleOrDefault(ctx context.Context, predicate *query.Node) (query.Value, error) {
	_, rows, err := q.run(ctx)
	if err != nil {
		return nil, err
	}
	return pipeline.SingleOrDefault(rows, predicate)
}

// Last runs the chain and returns the last row satisfying predicate.
func (q *Queryable) Last(ctx context.Context, predicate *query.Node) (query.Value, error) {
	_, rows, err := q.run(ctx)
	if err != nil {
		return nil, err
	}
	return pipeline.Last(rows, predicate)
}

// LastOrDefault is Last but returns nil instead of erroring on no match.
func (q *Queryable) LastOrDefault(ctx context.Context, predicate *query.Node) (query.Value, error) {
	_, rows, err := q.run(ctx)
	if err != nil {
		return nil, err
	}
	return pipeline.LastOrDefault(rows, predicate)
}

// ElementAt runs the chain and returns the row at index i.
func (q *Queryable) ElementAt(ctx context.Context, i int) (query.Value, error) {
	_, rows, err := q.run(ctx)
	if err != nil {
		return nil, err
	}
	return pipeline.ElementAt(rows, i)
}

// ElementAtOrDefault is ElementAt but returns nil instead of erroring on
// an out-of-range index.
func (q *Queryable) ElementAtOrDefault(ctx context.Context, i int) (query.Value, error) {
	_, rows, err := q.run(ctx)
	if err != nil {
		return nil, err
	}
	return pipeline.ElementAtOrDefault(rows, i), nil
}

// Sum runs the chain and returns the decimal sum of selector(row).
func (q *Queryable) Sum(ctx context.Context, selector *query.Node) (query.Value, error) {
	_, rows, err := q.run(ctx)
	if err != nil {
		return nil, err
	}
	return pipeline.Sum(rows, selector)
}

// Average runs the chain and returns the decimal average of selector(row).
func (q *Queryable) Average(ctx context.Context, selector *query.Node) (query.Value, error) {
	_, rows, err := q.run(ctx)
	if err != nil {
		return nil, err
	}
	return pipeline.Average(rows, selector)
}

// Min runs the chain and returns the minimum of selector(row).
func (q *Queryable) Min(ctx context.Context, selector *query.Node) (query.Value, error) {
	_, rows, err := q.run(ctx)
	if err != nil {
		return nil, err
	}
	return pipeline.Min(rows, selector)
}

// Max runs the chain and returns the maximum of selector(row).
func (q *Queryable) Max(ctx context.Context, selector *query.Node) (query.Value, error) {
	_, rows, err := q.run(ctx)
	if err != nil {
		return nil, err
	}
	return pipeline.Max(rows, selector)
}
