package query

// Strategy is the optimizer's decided access path (spec.md §3, §4.4).
type Strategy int

const (
	FullTableScan Strategy = iota
	IndexScan
	IndexSeek
	PrimaryKeyLookup
)

func (s Strategy) String() string {
	switch s {
	case FullTableScan:
		return "FullTableScan"
	case IndexScan:
		return "IndexScan"
	case IndexSeek:
		return "IndexSeek"
	case PrimaryKeyLookup:
		return "PrimaryKeyLookup"
	default:
		return "Unknown"
	}
}

// IndexScanKey names a single field/value/comparison the optimizer
// extracted from a predicate (spec.md §3).
type IndexScanKey struct {
	Field      string
	Value      Value
	Comparison BinaryOp // one of Eq, NotEq, Lt, Le, Gt, Ge
}

// IndexScanRange is the range form of a set of IndexScanKeys, built by
// the executor's index-scan strategy (spec.md §4.5).
type IndexScanRange struct {
	IncludeMin bool
	Min        Value // nil => unbounded below
	IncludeMax bool
	Max        Value // nil => unbounded above
}

// Unbounded reports whether the range has no lower or upper bound,
// equivalent to a sorted full scan through the index (spec.md §4.5).
func (r IndexScanRange) Unbounded() bool {
	return r.Min == nil && r.Max == nil
}

// IndexStatistics describes one index as reported by the index catalog
// (spec.md §6).
type IndexStatistics struct {
	Name     string
	Fields   []string
	IsUnique bool
}

// QueryExecutionPlan is the optimizer's decision (spec.md §3).
type QueryExecutionPlan struct {
	Collection         string
	Strategy           Strategy
	UseIndex           *IndexStatistics // nil for FullTableScan
	IndexScanKeys      []IndexScanKey
	QueryExpression    *Node // parsed predicate, used to re-check results
	OriginalExpression *Node // the predicate exactly as given to the optimizer
}

// NeedsRecheck reports whether the executor must re-apply the original
// predicate to each candidate row. Per spec.md invariant 4, the only
// strategy allowed to skip the re-check is an exact Eq seek on a unique
// index whose whole predicate is that single Eq comparison; any further
// conjunct is always re-checked.
func (p *QueryExecutionPlan) NeedsRecheck() bool {
	if p.Strategy == IndexSeek && p.UseIndex != nil && p.UseIndex.IsUnique {
		if len(p.IndexScanKeys) == 1 && p.IndexScanKeys[0].Comparison == OpEq &&
			p.QueryExpression != nil && p.QueryExpression.Kind == KindBinary && p.QueryExpression.BinOp == OpEq {
			return false
		}
	}
	return true
}

// AotGrouping pairs a group key with the materialized ordered sequence of
// row values sharing that key (spec.md §3 "Grouping").
type AotGrouping struct {
	Key  Value
	Rows []Value
}

// Sum returns the decimal sum of selector(row) over the group, skipping
// nulls (spec.md §4.3 Sequence Sum).
func (g AotGrouping) Sum(selector func(Value) Value) Value {
	return seqSum(g.values(selector))
}

// Average returns the decimal average, 0 for an empty group.
func (g AotGrouping) Average(selector func(Value) Value) Value {
	return seqAverage(g.values(selector))
}

// Min returns the minimum of selector(row) over the group, nil if empty
// or all-null.
func (g AotGrouping) Min(selector func(Value) Value) Value {
	return seqMin(g.values(selector))
}

// Max returns the maximum of selector(row) over the group.
func (g AotGrouping) Max(selector func(Value) Value) Value {
	return seqMax(g.values(selector))
}

// Count returns the number of rows in the group.
func (g AotGrouping) Count() int {
	return len(g.Rows)
}

func (g AotGrouping) values(selector func(Value) Value) []Value {
	if selector == nil {
		return g.Rows
	}
	out := make([]Value, len(g.Rows))
	for i, r := range g.Rows {
		out[i] = selector(r)
	}
	return out
}
