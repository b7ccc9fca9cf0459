package pipeline

import (
	"github.com/nimbusdb/nimbusdb/errs"
	"github.com/nimbusdb/nimbusdb/query"
)

// Count returns the element count.
func Count(rows []query.Value) int { return len(rows) }

// LongCount is Count exposed as int64, mirroring the host LINQ distinction
// between a 32-bit and 64-bit count terminal.
func LongCount(rows []query.Value) int64 { return int64(len(rows)) }

// Any reports whether any row satisfies predicate (or the stream is
// non-empty, if predicate is nil).
func Any(rows []query.Value, predicate *query.Node) (bool, error) {
	if predicate == nil {
		return len(rows) > 0, nil
	}
	for _, r := range rows {
		ok, err := eval2bool(predicate, r)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// All reports whether every row satisfies predicate. A non-boolean
// predicate result counts as false for that row (spec.md §4.6 "All with
// a non-boolean predicate result returns false").
func All(rows []query.Value, predicate *query.Node) (bool, error) {
	for _, r := range rows {
		ok, err := eval2bool(predicate, r)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// First returns the first row satisfying predicate (or the first row, if
// predicate is nil); a domain-specific error on an empty/underfilled
// stream (spec.md §7 "Pipeline errors").
func First(rows []query.Value, predicate *query.Node) (query.Value, error) {
	for _, r := range rows {
		ok, err := eval2bool(predicate, r)
		if err != nil {
			return nil, err
		}
		if ok {
			return r, nil
		}
	}
	return nil, errs.InvalidArgumentf("First: sequence contains no matching element")
}

// FirstOrDefault is First but returns nil instead of erroring.
func FirstOrDefault(rows []query.Value, predicate *query.Node) (query.Value, error) {
	for _, r := range rows {
		ok, err := eval2bool(predicate, r)
		if err != nil {
			return nil, err
		}
		if ok {
			return r, nil
		}
	}
	return nil, nil
}

// Single returns the one row satisfying predicate, erroring if zero or
// more than one match.
func Single(rows []query.Value, predicate *query.Node) (query.Value, error) {
	var found query.Value
	count := 0
	for _, r := range rows {
		ok, err := eval2bool(predicate, r)
		if err != nil {
			return nil, err
		}
		if ok {
			found = r
			count++
			if count > 1 {
				return nil, errs.InvalidArgumentf("Single: sequence contains more than one matching element")
			}
		}
	}
	if count == 0 {
		return nil, errs.InvalidArgumentf("Single: sequence contains no matching element")
	}
	return found, nil
}

// SingleOrDefault is Single but returns nil on zero matches; more than one
// match is still an error (the host contract distinguishes "none" from
// "ambiguous").
func SingleOrDefault(rows []query.Value, predicate *query.Node) (query.Value, error) {
	var found query.Value
	count := 0
	for _, r := range rows {
		ok, err := eval2bool(predicate, r)
		if err != nil {
			return nil, err
		}
		if ok {
			found = r
			count++
			if count > 1 {
				return nil, errs.InvalidArgumentf("SingleOrDefault: sequence contains more than one matching element")
			}
		}
	}
	if count == 0 {
		return nil, nil
	}
	return found, nil
}

// Last returns the last row satisfying predicate.
func Last(rows []query.Value, predicate *query.Node) (query.Value, error) {
	for i := len(rows) - 1; i >= 0; i-- {
		ok, err := eval2bool(predicate, rows[i])
		if err != nil {
			return nil, err
		}
		if ok {
			return rows[i], nil
		}
	}
	return nil, errs.InvalidArgumentf("Last: sequence contains no matching element")
}

// LastOrDefault is Last but returns nil instead of erroring.
func LastOrDefault(rows []query.Value, predicate *query.Node) (query.Value, error) {
	for i := len(rows) - 1; i >= 0; i-- {
		ok, err := eval2bool(predicate, rows[i])
		if err != nil {
			return nil, err
		}
		if ok {
			return rows[i], nil
		}
	}
	return nil, nil
}

// ElementAt returns the row at index i, erroring if out of bounds.
func ElementAt(rows []query.Value, i int) (query.Value, error) {
	if i < 0 || i >= len(rows) {
		return nil, errs.InvalidArgumentf("ElementAt: index %d out of range", i)
	}
	return rows[i], nil
}

// ElementAtOrDefault is ElementAt but returns nil instead of erroring.
func ElementAtOrDefault(rows []query.Value, i int) query.Value {
	if i < 0 || i >= len(rows) {
		return nil
	}
	return rows[i]
}

func selectorValues(rows []query.Value, selector *query.Node) ([]query.Value, error) {
	out := make([]query.Value, len(rows))
	for i, r := range rows {
		v, err := evalSelector(selector, r)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Sum returns the decimal sum of selector(row), always decimal-valued
// (spec.md §4.6).
func Sum(rows []query.Value, selector *query.Node) (query.Value, error) {
	values, err := selectorValues(rows, selector)
	if err != nil {
		return nil, err
	}
	return query.SeqSum(values), nil
}

// Average returns the decimal average of selector(row).
func Average(rows []query.Value, selector *query.Node) (query.Value, error) {
	values, err := selectorValues(rows, selector)
	if err != nil {
		return nil, err
	}
	return query.SeqAverage(values), nil
}

// Min returns the minimum of selector(row).
func Min(rows []query.Value, selector *query.Node) (query.Value, error) {
	values, err := selectorValues(rows, selector)
	if err != nil {
		return nil, err
	}
	return query.SeqMin(values), nil
}

// Max returns the maximum of selector(row).
func Max(rows []query.Value, selector *query.Node) (query.Value, error) {
	values, err := selectorValues(rows, selector)
	if err != nil {
		return nil, err
	}
	return query.SeqMax(values), nil
}
