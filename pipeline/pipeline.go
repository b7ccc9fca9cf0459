// Package pipeline interprets a deferred chain of LINQ-shaped operators
// over a materialized row stream (spec.md §4.6), plus the terminal
// reducers the Queryable façade exposes (spec.md §4.7).
//
// Grounded on Design Notes §9 "Pipeline as an interpreter": "The pipeline
// traverses the expression tree, not a host-language IQueryable adapter
// ... a closed, tagged set of operators with direct pattern matching is
// sufficient." No teacher file implements a lazy operator chain (datalog
// has no such API); the tagged-step Expression here follows the same
// closed-variant style as query/expr.go's Node, generalized from a
// predicate tree to an operator sequence.
package pipeline

import (
	"github.com/nimbusdb/nimbusdb/eval"
	"github.com/nimbusdb/nimbusdb/query"
)

// OpKind tags one step of a deferred pipeline.
type OpKind int

const (
	OpWhere OpKind = iota
	OpSelect
	OpOrderBy
	OpOrderByDescending
	OpThenBy
	OpThenByDescending
	OpSkip
	OpTake
	OpDistinct
	OpGroupBy
)

// Step is one operator in the deferred chain. Predicate/Selector are
// *query.Node expressions evaluated once per row via rowOf; N is the
// literal argument to Skip/Take (spec.md §4.6: "n must be a literal
// constant; non-literal n is a no-op").
type Step struct {
	Kind      OpKind
	Predicate *query.Node
	Selector  *query.Node
	N         *query.Node
}

// Expression is the ordered, immutable list of steps a Queryable façade
// carries (spec.md §4.7: "Any operator returns a new façade with an
// extended expression").
type Expression []Step

// Append returns a new Expression with step appended; Expression is never
// mutated in place so multiple façades can share a prefix safely.
func (e Expression) Append(step Step) Expression {
	out := make(Expression, len(e)+1)
	copy(out, e)
	out[len(e)] = step
	return out
}

// PushdownPredicate implements spec.md §4.6 "Predicate push-down": if the
// expression contains exactly one Where step at the root and no
// subsequent Where, its predicate is returned for the executor to apply;
// multiple Wheres are not pushed down (ok is false) and are instead
// filtered in-memory after execution.
func (e Expression) PushdownPredicate() (predicate *query.Node, rest Expression, ok bool) {
	if len(e) == 0 || e[0].Kind != OpWhere {
		return nil, e, false
	}
	for _, step := range e[1:] {
		if step.Kind == OpWhere {
			return nil, e, false
		}
	}
	return e[0].Predicate, e[1:], true
}

// rowOf wraps a raw stream element for expression evaluation: documents
// dispatch through eval.Document, anything else through eval.Record
// (Design Notes §9's Row sum type).
func rowOf(v query.Value) eval.Row {
	if doc, ok := v.(map[string]query.Value); ok {
		return eval.Document(doc)
	}
	return eval.Record(v)
}

// evalSelector evaluates selector against element, treating a nil
// selector as the identity function.
func evalSelector(selector *query.Node, element query.Value) (query.Value, error) {
	if selector == nil {
		return element, nil
	}
	return eval.EvaluateValue(selector, rowOf(element))
}

// literalN extracts a literal int64 argument for Skip/Take; spec.md
// §4.6 treats a non-literal n as a no-op and a negative n as 0.
func literalN(n *query.Node) (int, bool) {
	if n == nil || n.Kind != query.KindConstant {
		return 0, false
	}
	i, ok := query.AsInt64(n.ConstValue)
	if !ok {
		return 0, false
	}
	if i < 0 {
		i = 0
	}
	return int(i), true
}
