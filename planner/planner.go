// Package planner chooses a query execution strategy (spec.md §4.4):
// full table scan, index scan, index seek, or primary-key lookup, and
// extracts the index keys the executor needs to drive that strategy.
//
// Grounded on the teacher's datalog/planner/planner.go (a Planner struct
// with a single Plan entry point) and planner_patterns.go (the
// score-then-pick-highest index selection loop nimbusdb's selectIndex
// mirrors).
package planner

import (
	"github.com/nimbusdb/nimbusdb/query"
)

// PrimaryKeyField is the implicit primary key's field name.
const PrimaryKeyField = "_id"

// IndexCatalog is the narrow view of spec.md §6's index catalog contract
// the optimizer needs: enumerate the indexes declared for a collection.
type IndexCatalog interface {
	List(collection string) ([]query.IndexStatistics, error)
}

// Planner is the query optimizer.
type Planner struct {
	catalog IndexCatalog
}

// New builds a Planner backed by catalog.
func New(catalog IndexCatalog) *Planner {
	return &Planner{catalog: catalog}
}

// Plan implements spec.md §4.4's algorithm end to end.
func (p *Planner) Plan(collection string, predicate *query.Node) (*query.QueryExecutionPlan, error) {
	plan := &query.QueryExecutionPlan{
		Collection:         collection,
		OriginalExpression: predicate,
		QueryExpression:    predicate,
	}

	if predicate == nil {
		plan.Strategy = query.FullTableScan
		return plan, nil
	}

	keys := CollectIndexScanKeys(predicate)

	for _, k := range keys {
		if k.Field == PrimaryKeyField && k.Comparison == query.OpEq {
			plan.Strategy = query.PrimaryKeyLookup
			plan.IndexScanKeys = []query.IndexScanKey{k}
			return plan, nil
		}
	}

	indexes, err := p.catalog.List(collection)
	if err != nil {
		// An unreadable catalog degrades to a full scan rather than
		// failing the query outright; the full scan evaluates the
		// predicate against every row.
		plan.Strategy = query.FullTableScan
		return plan, nil
	}

	best, bestScore, bestKeys := selectIndex(indexes, keys)
	if best == nil || bestScore <= 0 {
		plan.Strategy = query.FullTableScan
		return plan, nil
	}

	plan.UseIndex = best
	plan.IndexScanKeys = bestKeys
	if best.IsUnique && allEqOnLeadingFields(best, bestKeys) {
		plan.Strategy = query.IndexSeek
	} else {
		plan.Strategy = query.IndexScan
	}
	return plan, nil
}

// allEqOnLeadingFields reports whether every key on the index's leading
// fields uses Eq comparison, the condition for IndexSeek (spec.md §4.4
// step 6).
func allEqOnLeadingFields(idx *query.IndexStatistics, keys []query.IndexScanKey) bool {
	byField := make(map[string]query.IndexScanKey, len(keys))
	for _, k := range keys {
		byField[k.Field] = k
	}
	for _, f := range idx.Fields {
		k, ok := byField[f]
		if !ok {
			break
		}
		if k.Comparison != query.OpEq {
			return false
		}
	}
	return true
}
