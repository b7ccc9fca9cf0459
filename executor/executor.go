// Package executor runs a query optimizer's plan against storage and a
// transaction overlay (spec.md §4.5). Execute returns the matching rows
// as a fully materialized slice of documents; it does not stream them
// lazily and does not map them to host records.
//
// Grounded on the teacher's datalog/executor/executor.go constructor
// pattern (NewExecutor/NewExecutorWithOptions, an Options() accessor) and
// datalog/executor/indexed_memory_matcher.go's fallback-to-full-scan
// posture when an index turns out to be unusable at execution time.
package executor

import (
	"context"
	"strings"

	"github.com/nimbusdb/nimbusdb/errs"
	"github.com/nimbusdb/nimbusdb/eval"
	"github.com/nimbusdb/nimbusdb/overlay"
	"github.com/nimbusdb/nimbusdb/planner"
	"github.com/nimbusdb/nimbusdb/query"
	"github.com/nimbusdb/nimbusdb/storage"
)

// ExecutorOptions configures the executor (spec.md §4.5/§5).
type ExecutorOptions struct {
	// CollectionTagField, if non-empty, names a document field the full
	// table scan strategy verifies before applying the predicate (spec.md
	// §4.5 "verify a collection tag if one is present in the document").
	CollectionTagField string

	// Cancelled, if non-nil, is polled between row deliveries; when it
	// returns true the executor aborts with errs.ErrCancelled (spec.md §5
	// "Cancellation").
	Cancelled func() bool
}

// Executor runs plans against a Scanner/Fetcher/IndexCatalog and a
// transaction overlay.
type Executor struct {
	scanner  storage.Scanner
	fetcher  storage.Fetcher
	catalog  storage.IndexCatalog
	planner  *planner.Planner
	options  ExecutorOptions
}

// New builds an Executor with default options.
func New(scanner storage.Scanner, fetcher storage.Fetcher, catalog storage.IndexCatalog) *Executor {
	return NewWithOptions(scanner, fetcher, catalog, ExecutorOptions{})
}

// NewWithOptions builds an Executor with explicit options.
func NewWithOptions(scanner storage.Scanner, fetcher storage.Fetcher, catalog storage.IndexCatalog, opts ExecutorOptions) *Executor {
	return &Executor{
		scanner: scanner,
		fetcher: fetcher,
		catalog: catalog,
		planner: planner.New(catalog),
		options: opts,
	}
}

// Options returns the executor's configuration.
func (e *Executor) Options() ExecutorOptions {
	return e.options
}

// Row is one document emitted by Execute. The access path used is
// reported separately, by the plan Execute returns (see PlanReport in the
// root package).
type Row struct {
	Document map[string]query.Value
}

// Execute validates collection, asks the optimizer for a plan, and
// dispatches to the matching strategy (spec.md §4.5 "Top-level
// operation"). view may be nil, meaning no overlay is active.
func (e *Executor) Execute(ctx context.Context, collection string, predicate *query.Node, view *overlay.View) (*query.QueryExecutionPlan, []Row, error) {
	if strings.TrimSpace(collection) == "" {
		return nil, nil, errs.InvalidArgumentf("collection name must not be empty")
	}

	plan, err := e.planner.Plan(collection, predicate)
	if err != nil {
		return nil, nil, err
	}

	var rows []Row
	switch plan.Strategy {
	case query.PrimaryKeyLookup:
		rows, err = e.primaryKeyLookup(ctx, plan, view)
	case query.IndexSeek:
		rows, err = e.indexSeek(ctx, plan, view)
		if err == errFallbackToScan {
			plan.Strategy = query.FullTableScan
			plan.UseIndex = nil
			rows, err = e.fullTableScan(ctx, plan, view)
		}
	case query.IndexScan:
		rows, err = e.indexScan(ctx, plan, view)
		if err == errFallbackToScan {
			plan.Strategy = query.FullTableScan
			plan.UseIndex = nil
			rows, err = e.fullTableScan(ctx, plan, view)
		}
	default:
		rows, err = e.fullTableScan(ctx, plan, view)
	}
	if err != nil {
		return nil, nil, err
	}
	return plan, rows, nil
}

// checkCancelled honours spec.md §5's "terminals must check a
// cancellation flag between row deliveries" contract at the executor
// boundary too, since it is the layer that actually touches storage I/O.
func (e *Executor) checkCancelled() error {
	if e.options.Cancelled != nil && e.options.Cancelled() {
		return errs.Cancelledf("execution cancelled")
	}
	return nil
}

func (e *Executor) matchesTag(doc map[string]query.Value, collection string) bool {
	if e.options.CollectionTagField == "" {
		return true
	}
	tag, present := doc[e.options.CollectionTagField]
	if !present {
		return true
	}
	return query.ToString(tag) == collection
}

func (e *Executor) evalPredicate(predicate *query.Node, doc map[string]query.Value) (bool, error) {
	if predicate == nil {
		return true, nil
	}
	return eval.Evaluate(predicate, eval.Document(doc))
}

func docID(doc map[string]query.Value) query.Value {
	return doc["_id"]
}
