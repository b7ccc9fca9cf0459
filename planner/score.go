package planner

import "github.com/nimbusdb/nimbusdb/query"

// CollectIndexScanKeys flattens the AndAlso spine of predicate and
// recognizes Binary(cmp, Member(field), Constant(value)) or its mirror
// image (spec.md §4.4 step 2). Comparison kinds other than the six named
// produce no key; anything that isn't a direct field/value comparison is
// simply not a candidate (it still gets re-checked by the executor).
func CollectIndexScanKeys(predicate *query.Node) []query.IndexScanKey {
	var keys []query.IndexScanKey
	var walk func(n *query.Node)
	walk = func(n *query.Node) {
		if n == nil {
			return
		}
		if n.Kind == query.KindBinary && n.BinOp == query.OpAndAlso {
			walk(n.Left)
			walk(n.Right)
			return
		}
		if k, ok := asScanKey(n); ok {
			keys = append(keys, k)
		}
	}
	walk(predicate)
	return keys
}

func asScanKey(n *query.Node) (query.IndexScanKey, bool) {
	if n == nil || n.Kind != query.KindBinary || !n.BinOp.IsComparison() {
		return query.IndexScanKey{}, false
	}
	if field, ok := fieldName(n.Left); ok {
		if v, ok := constValue(n.Right); ok {
			return query.IndexScanKey{Field: field, Value: v, Comparison: n.BinOp}, true
		}
	}
	if field, ok := fieldName(n.Right); ok {
		if v, ok := constValue(n.Left); ok {
			return query.IndexScanKey{Field: field, Value: v, Comparison: mirror(n.BinOp)}, true
		}
	}
	return query.IndexScanKey{}, false
}

func fieldName(n *query.Node) (string, bool) {
	if n != nil && n.Kind == query.KindMember && n.Target == nil {
		return n.MemberName, true
	}
	return "", false
}

func constValue(n *query.Node) (query.Value, bool) {
	if n != nil && n.Kind == query.KindConstant {
		return n.ConstValue, true
	}
	return nil, false
}

// mirror flips a comparison so `5 > field` becomes field < 5, etc.
func mirror(op query.BinaryOp) query.BinaryOp {
	switch op {
	case query.OpLt:
		return query.OpGt
	case query.OpLe:
		return query.OpGe
	case query.OpGt:
		return query.OpLt
	case query.OpGe:
		return query.OpLe
	default:
		return op // Eq/NotEq are symmetric
	}
}

// selectIndex scores every candidate index against the available keys
// and returns the highest scorer, the fields-ordered subset of keys that
// apply to it, and its score (spec.md §4.4 step 4-5): +10 per covered
// prefix field, +5 if unique, +2 per matched field beyond the prefix.
// Ties are broken by catalog declaration order (the first max found
// wins, since later equal scores never replace it).
func selectIndex(indexes []query.IndexStatistics, keys []query.IndexScanKey) (*query.IndexStatistics, int, []query.IndexScanKey) {
	byField := make(map[string]query.IndexScanKey, len(keys))
	for _, k := range keys {
		byField[k.Field] = k
	}

	var best *query.IndexStatistics
	bestScore := 0
	var bestKeys []query.IndexScanKey

	for i := range indexes {
		idx := &indexes[i]
		if len(idx.Fields) == 0 {
			continue
		}
		if _, ok := byField[idx.Fields[0]]; !ok {
			continue // leading field not covered: score 0, skip
		}

		score := 0
		var matched []query.IndexScanKey
		prefixBroken := false
		for pos, f := range idx.Fields {
			k, ok := byField[f]
			if !ok {
				prefixBroken = true
				continue
			}
			matched = append(matched, k)
			if !prefixBroken {
				score += 10
			} else if pos > 0 {
				score += 2
			}
		}
		if idx.IsUnique {
			score += 5
		}

		if score > bestScore {
			best = idx
			bestScore = score
			bestKeys = matched
		}
	}

	return best, bestScore, bestKeys
}
