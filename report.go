package nimbusdb

import (
	"context"

	"github.com/nimbusdb/nimbusdb/query"
)

// PlanReport answers "did this query use an index, and which one" without
// requiring callers to reflect on the executor internals (spec.md §9 Open
// Question #2: "the observability of whether a given query actually used
// an index is not directly exposed by the executor ... a thin PlanReport
// side-channel ... should be added so tests and metrics can assert index
// usage").
type PlanReport struct {
	Collection string
	Strategy   query.Strategy
	IndexName  string // "" when Strategy is FullTableScan or PrimaryKeyLookup
}

// UsedIndex reports whether the plan used an index path: a secondary
// index (IndexScan/IndexSeek) or the primary-key lookup. It is false only
// for a full table scan.
func (p PlanReport) UsedIndex() bool {
	return p.Strategy != query.FullTableScan
}

// Explain runs the chain and returns its PlanReport alongside the
// materialized result, without requiring the caller to know about
// query.QueryExecutionPlan.
func (q *Queryable) Explain(ctx context.Context) (PlanReport, []query.Value, error) {
	plan, rows, err := q.run(ctx)
	if err != nil {
		return PlanReport{}, nil, err
	}
	report := PlanReport{Collection: plan.Collection, Strategy: plan.Strategy}
	if plan.UseIndex != nil {
		report.IndexName = plan.UseIndex.Name
	}
	return report, rows, nil
}
