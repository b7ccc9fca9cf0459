package query

import "github.com/shopspring/decimal"

// seqSum, seqAverage, seqMin, seqMax implement the shared reduction rules
// spec.md §4.3 defines for the Sequence Sum/Average/Min/Max functions and
// reuses for AotGrouping and the pipeline's terminal Sum/Average/Min/Max
// operators: Sum/Average are always decimal-valued, nulls are skipped,
// Min/Max use native comparison and return nil for an empty or all-null
// input, and an empty Average is 0.

func seqSum(values []Value) Value {
	total := decimal.Zero
	for _, v := range values {
		if v == nil {
			continue
		}
		d, ok := AsDecimal(v)
		if !ok {
			continue
		}
		total = total.Add(d)
	}
	return total
}

func seqAverage(values []Value) Value {
	total := decimal.Zero
	count := 0
	for _, v := range values {
		if v == nil {
			continue
		}
		d, ok := AsDecimal(v)
		if !ok {
			continue
		}
		total = total.Add(d)
		count++
	}
	if count == 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(count)))
}

func seqMin(values []Value) Value {
	var best Value
	found := false
	for _, v := range values {
		if v == nil {
			continue
		}
		if !found || CompareValues(v, best) < 0 {
			best = v
			found = true
		}
	}
	if !found {
		return nil
	}
	return best
}

func seqMax(values []Value) Value {
	var best Value
	found := false
	for _, v := range values {
		if v == nil {
			continue
		}
		if !found || CompareValues(v, best) > 0 {
			best = v
			found = true
		}
	}
	if !found {
		return nil
	}
	return best
}

// SeqSum, SeqAverage, SeqMin, SeqMax are the exported forms used by the
// evaluator's Sequence function family and the pipeline's terminals.
func SeqSum(values []Value) Value     { return seqSum(values) }
func SeqAverage(values []Value) Value { return seqAverage(values) }
func SeqMin(values []Value) Value     { return seqMin(values) }
func SeqMax(values []Value) Value     { return seqMax(values) }
