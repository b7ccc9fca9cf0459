package pipeline

import (
	"sort"

	"github.com/nimbusdb/nimbusdb/query"
)

// ordering records the sequence of (key selector, descending) pairs built
// up by OrderBy/ThenBy so ThenBy can extend rather than replace the sort.
type ordering struct {
	keys        []*query.Node
	descendings []bool
}

// Run evaluates the full step sequence against rows, in order, returning
// the resulting stream (spec.md §4.6 "Operators").
func Run(steps Expression, rows []query.Value) ([]query.Value, error) {
	var ord *ordering

	for _, step := range steps {
		var err error
		switch step.Kind {
		case OpWhere:
			rows, err = applyWhere(step, rows)
			ord = nil
		case OpSelect:
			rows, err = applySelect(step, rows)
			ord = nil
		case OpOrderBy:
			ord = &ordering{keys: []*query.Node{step.Selector}, descendings: []bool{false}}
			rows, err = applyOrder(ord, rows)
		case OpOrderByDescending:
			ord = &ordering{keys: []*query.Node{step.Selector}, descendings: []bool{true}}
			rows, err = applyOrder(ord, rows)
		case OpThenBy:
			rows, err = applyThenBy(&ord, step.Selector, false, rows)
		case OpThenByDescending:
			rows, err = applyThenBy(&ord, step.Selector, true, rows)
		case OpSkip:
			rows = applySkip(step, rows)
		case OpTake:
			rows = applyTake(step, rows)
		case OpDistinct:
			rows, err = applyDistinct(rows)
			ord = nil
		case OpGroupBy:
			rows, err = applyGroupBy(step, rows)
			ord = nil
		}
		if err != nil {
			return nil, err
		}
	}
	return rows, nil
}

func applyWhere(step Step, rows []query.Value) ([]query.Value, error) {
	var out []query.Value
	for _, r := range rows {
		ok, err := eval2bool(step.Predicate, r)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func eval2bool(predicate *query.Node, element query.Value) (bool, error) {
	if predicate == nil {
		return true, nil
	}
	v, err := evalSelector(predicate, element)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	return ok && b, nil
}

// applySelect projects rows through f. After a non-identity Select the
// stream becomes untyped (spec.md §4.6): elements may no longer be
// documents, so later steps address them via eval.Record reflection.
func applySelect(step Step, rows []query.Value) ([]query.Value, error) {
	out := make([]query.Value, len(rows))
	for i, r := range rows {
		v, err := evalSelector(step.Selector, r)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func applyOrder(ord *ordering, rows []query.Value) ([]query.Value, error) {
	return stableSortBy(ord, rows)
}

// applyThenBy extends an existing order; if the input is not already
// ordered (ord is nil), it degenerates to OrderBy/OrderByDescending
// (spec.md §4.6 "ThenBy").
func applyThenBy(ord **ordering, key *query.Node, descending bool, rows []query.Value) ([]query.Value, error) {
	if *ord == nil {
		*ord = &ordering{keys: []*query.Node{key}, descendings: []bool{descending}}
	} else {
		(*ord).keys = append((*ord).keys, key)
		(*ord).descendings = append((*ord).descendings, descending)
	}
	return stableSortBy(*ord, rows)
}

func stableSortBy(ord *ordering, rows []query.Value) ([]query.Value, error) {
	type keyedRow struct {
		row  query.Value
		keys []query.Value
	}
	keyed := make([]keyedRow, len(rows))
	for i, r := range rows {
		keys := make([]query.Value, len(ord.keys))
		for j, k := range ord.keys {
			v, err := evalSelector(k, r)
			if err != nil {
				return nil, err
			}
			keys[j] = v
		}
		keyed[i] = keyedRow{row: r, keys: keys}
	}

	sort.SliceStable(keyed, func(i, j int) bool {
		for k := range ord.keys {
			c := query.CompareValues(keyed[i].keys[k], keyed[j].keys[k])
			if c == 0 {
				continue
			}
			if ord.descendings[k] {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	out := make([]query.Value, len(keyed))
	for i, kr := range keyed {
		out[i] = kr.row
	}
	return out, nil
}

// applySkip/applyTake: n must be a literal constant; a non-literal n is a
// no-op, and a negative n is treated as 0 (spec.md §4.6).
func applySkip(step Step, rows []query.Value) []query.Value {
	n, ok := literalN(step.N)
	if !ok {
		return rows
	}
	if n >= len(rows) {
		return nil
	}
	return rows[n:]
}

func applyTake(step Step, rows []query.Value) []query.Value {
	n, ok := literalN(step.N)
	if !ok {
		return rows
	}
	if n >= len(rows) {
		return rows
	}
	return rows[:n]
}

// applyDistinct deduplicates by structural equality using the
// value-domain comparator, preserving first occurrence (spec.md §4.6).
func applyDistinct(rows []query.Value) ([]query.Value, error) {
	var out []query.Value
	for _, r := range rows {
		dup := false
		for _, seen := range out {
			if query.Equal(seen, r) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, r)
		}
	}
	return out, nil
}

// applyGroupBy materializes the stream, groups by key (null key → empty
// string), and emits one query.AotGrouping per distinct key in
// first-encounter order (spec.md §4.6 "GroupBy").
func applyGroupBy(step Step, rows []query.Value) ([]query.Value, error) {
	var order []string
	groups := make(map[string]*query.AotGrouping)

	for _, r := range rows {
		key, err := evalSelector(step.Selector, r)
		if err != nil {
			return nil, err
		}
		groupKey := query.ToString(key)
		if _, ok := groups[groupKey]; !ok {
			groups[groupKey] = &query.AotGrouping{Key: key}
			order = append(order, groupKey)
		}
		g := groups[groupKey]
		g.Rows = append(g.Rows, r)
	}

	out := make([]query.Value, len(order))
	for i, k := range order {
		out[i] = *groups[k]
	}
	return out, nil
}
