package eval

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nimbusdb/nimbusdb/errs"
	"github.com/nimbusdb/nimbusdb/query"
)

// dispatchFunction evaluates a Function node by name (spec.md §4.3). An
// unknown name raises NotSupported; a known name with an unsupported
// arity raises NotSupported or InvalidArgument per that function's own
// contract, matching spec.md §4.2's closing rule.
func dispatchFunction(expr *query.Node, row Row) (query.Value, error) {
	meta, ok := query.DefaultRegistry.Lookup(expr.FuncName)
	if !ok {
		return nil, errs.NotSupportedf("unknown function %q", expr.FuncName)
	}

	var recv query.Value
	haveRecv := expr.Receiver != nil
	if haveRecv {
		v, err := EvaluateValue(expr.Receiver, row)
		if err != nil {
			return nil, err
		}
		recv = v
	}

	args := make([]query.Value, len(expr.Args))
	for i, a := range expr.Args {
		v, err := EvaluateValue(a, row)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	// Sum/Average/sequence Min/Max take an optional *selector* expression,
	// evaluated once per sequence element (with the element standing in
	// for the implicit row) rather than once against the outer row like
	// every other function argument — handle them before the eager-args
	// switch below.
	switch expr.FuncName {
	case "Sum":
		return seqReduceSelector(recv, expr.Args, query.SeqSum)
	case "Average":
		return seqReduceSelector(recv, expr.Args, query.SeqAverage)
	case "Min":
		if haveRecv {
			return seqReduceSelector(recv, expr.Args, query.SeqMin)
		}
	case "Max":
		if haveRecv {
			return seqReduceSelector(recv, expr.Args, query.SeqMax)
		}
	}

	switch expr.FuncName {
	case "Contains":
		if haveRecv && query.KindOf(recv) == query.KindString {
			return strFunc1(recv, args, strings.Contains)
		}
		return seqContains(recv, args)
	case "StartsWith":
		return strFunc1(recv, args, strings.HasPrefix)
	case "EndsWith":
		return strFunc1(recv, args, strings.HasSuffix)
	case "ToLower":
		return strTransform(recv, strings.ToLower)
	case "ToUpper":
		return strTransform(recv, strings.ToUpper)
	case "Trim":
		return strTransform(recv, strings.TrimSpace)
	case "Substring":
		return strSubstring(recv, args)
	case "Replace":
		return strReplace(recv, args)

	case "Abs":
		return mathAbs(args)
	case "Ceiling":
		return mathUnary(args, math.Ceil)
	case "Floor":
		return mathUnary(args, math.Floor)
	case "Sqrt":
		return mathSqrt(args)
	case "Round":
		return mathRound(args)
	case "Pow":
		return mathPow(args)
	case "Min":
		return mathMinMax(args, false)
	case "Max":
		return mathMinMax(args, true)

	case "Count":
		return seqCount(recv, args)

	case "AddDays":
		return dateAdd(recv, args, func(t time.Time, n float64) time.Time { return t.AddDate(0, 0, int(n)) })
	case "AddHours":
		return dateAdd(recv, args, func(t time.Time, n float64) time.Time { return t.Add(time.Duration(n * float64(time.Hour))) })
	case "AddMinutes":
		return dateAdd(recv, args, func(t time.Time, n float64) time.Time { return t.Add(time.Duration(n * float64(time.Minute))) })
	case "AddSeconds":
		return dateAdd(recv, args, func(t time.Time, n float64) time.Time { return t.Add(time.Duration(n * float64(time.Second))) })
	case "AddMonths":
		return dateAdd(recv, args, func(t time.Time, n float64) time.Time { return t.AddDate(0, int(n), 0) })
	case "AddYears":
		return dateAdd(recv, args, func(t time.Time, n float64) time.Time { return t.AddDate(int(n), 0, 0) })
	case "ToString":
		return query.ToString(recv), nil

	default:
		return nil, errs.NotSupportedf("unknown function %q", expr.FuncName)
	}
}

// --- string family ---

func strFunc1(recv query.Value, args []query.Value, f func(s, sub string) bool) (query.Value, error) {
	s, ok := recv.(string)
	if !ok || len(args) != 1 {
		return false, nil
	}
	sub, ok := args[0].(string)
	if !ok {
		return false, nil
	}
	return f(s, sub), nil
}

func strTransform(recv query.Value, f func(string) string) (query.Value, error) {
	s, ok := recv.(string)
	if !ok {
		return nil, nil
	}
	return f(s), nil
}

func strSubstring(recv query.Value, args []query.Value) (query.Value, error) {
	s, ok := recv.(string)
	if !ok {
		return nil, nil
	}
	switch len(args) {
	case 1:
		start, ok := query.AsInt64(args[0])
		if !ok || start < 0 || int(start) > len(s) {
			return nil, errs.InvalidArgumentf("Substring: invalid start %v", args[0])
		}
		return s[start:], nil
	case 2:
		start, ok1 := query.AsInt64(args[0])
		length, ok2 := query.AsInt64(args[1])
		if !ok1 || !ok2 || start < 0 || length < 0 || int(start+length) > len(s) {
			return nil, errs.InvalidArgumentf("Substring: invalid bounds %v,%v", args[0], args[1])
		}
		return s[start : start+length], nil
	default:
		return nil, errs.InvalidArgumentf("Substring: unsupported arity %d", len(args))
	}
}

func strReplace(recv query.Value, args []query.Value) (query.Value, error) {
	s, ok := recv.(string)
	if !ok || len(args) != 2 {
		return nil, nil
	}
	old, ok := args[0].(string)
	if !ok {
		return s, nil
	}
	repl, ok := args[1].(string)
	if !ok {
		return s, nil
	}
	return strings.ReplaceAll(s, old, repl), nil
}

// --- math family ---

func mathAbs(args []query.Value) (query.Value, error) {
	if len(args) != 1 {
		return nil, errs.NotSupportedf("Abs: unsupported arity %d", len(args))
	}
	if query.KindOf(args[0]) == query.KindDecimal {
		d := args[0].(decimal.Decimal)
		return d.Abs(), nil
	}
	f, ok := query.AsFloat64(args[0])
	if !ok {
		return nil, nil
	}
	if f < 0 {
		f = -f
	}
	return f, nil
}

func mathUnary(args []query.Value, f func(float64) float64) (query.Value, error) {
	if len(args) != 1 {
		return nil, errs.NotSupportedf("unsupported arity %d", len(args))
	}
	v, ok := query.AsFloat64(args[0])
	if !ok {
		return nil, nil
	}
	return f(v), nil
}

func mathSqrt(args []query.Value) (query.Value, error) {
	if len(args) == 0 {
		return 0.0, nil
	}
	if len(args) != 1 {
		return nil, errs.NotSupportedf("Sqrt: unsupported arity %d", len(args))
	}
	v, ok := query.AsFloat64(args[0])
	if !ok || v < 0 {
		return nil, nil
	}
	return math.Sqrt(v), nil
}

func mathRound(args []query.Value) (query.Value, error) {
	switch len(args) {
	case 1:
		v, ok := query.AsFloat64(args[0])
		if !ok {
			return nil, nil
		}
		return math.Round(v), nil
	case 2:
		v, ok := query.AsFloat64(args[0])
		digits, ok2 := query.AsInt64(args[1])
		if !ok || !ok2 {
			return nil, nil
		}
		scale := math.Pow10(int(digits))
		return math.Round(v*scale) / scale, nil
	default:
		return nil, errs.NotSupportedf("Round: unsupported arity %d", len(args))
	}
}

func mathMinMax(args []query.Value, max bool) (query.Value, error) {
	if len(args) < 1 {
		return nil, errs.InvalidArgumentf("Min/Max: at least one argument required")
	}
	best, ok := query.AsFloat64(args[0])
	if !ok {
		return nil, nil
	}
	for _, a := range args[1:] {
		f, ok := query.AsFloat64(a)
		if !ok {
			continue
		}
		if (max && f > best) || (!max && f < best) {
			best = f
		}
	}
	return best, nil
}

func mathPow(args []query.Value) (query.Value, error) {
	if len(args) < 2 {
		return 0.0, nil
	}
	base, ok1 := query.AsFloat64(args[0])
	exp, ok2 := query.AsFloat64(args[1])
	if !ok1 || !ok2 {
		return nil, nil
	}
	return math.Pow(base, exp), nil
}

// --- sequence family ---

func asSequence(v query.Value) ([]query.Value, bool) {
	switch s := v.(type) {
	case []query.Value:
		return s, true
	case map[string]query.Value:
		out := make([]query.Value, 0, len(s))
		for _, val := range s {
			out = append(out, val)
		}
		return out, true
	default:
		return nil, false
	}
}

func seqContains(recv query.Value, args []query.Value) (query.Value, error) {
	seq, ok := asSequence(recv)
	if !ok || len(args) != 1 {
		return false, nil
	}
	for _, e := range seq {
		if query.Equal(e, args[0]) {
			return true, nil
		}
	}
	return false, nil
}

func seqCount(recv query.Value, args []query.Value) (query.Value, error) {
	target := recv
	if target == nil && len(args) == 1 {
		target = args[0]
	}
	n, ok := query.Len(target)
	if !ok {
		return int64(0), nil
	}
	return int64(n), nil
}

// seqReduceSelector evaluates an optional selector expression against
// every element of the receiver sequence, wrapping each element as its
// own Row so Member access inside the selector resolves against the
// element rather than the outer row, then folds with reduce (spec.md
// §4.3 Sequence Sum/Average/Min/Max).
func seqReduceSelector(recv query.Value, selectorArgs []*query.Node, reduce func([]query.Value) query.Value) (query.Value, error) {
	seq, ok := asSequence(recv)
	if !ok {
		return reduce(nil), nil
	}
	if len(selectorArgs) == 0 {
		return reduce(seq), nil
	}
	if len(selectorArgs) != 1 {
		return nil, errs.NotSupportedf("unsupported selector arity %d", len(selectorArgs))
	}
	selector := selectorArgs[0]
	projected := make([]query.Value, len(seq))
	for i, elem := range seq {
		v, err := EvaluateValue(selector, elementRow(elem))
		if err != nil {
			return nil, err
		}
		projected[i] = v
	}
	return reduce(projected), nil
}

// elementRow wraps a sequence element as a Row so a selector expression's
// Member/Parameter nodes resolve against that element.
func elementRow(elem query.Value) Row {
	if m, ok := elem.(map[string]query.Value); ok {
		return Document(m)
	}
	return Record(elem)
}

func dateAdd(recv query.Value, args []query.Value, f func(time.Time, float64) time.Time) (query.Value, error) {
	t, ok := recv.(time.Time)
	if !ok || len(args) != 1 {
		return nil, errs.NotSupportedf("date function on non-date receiver")
	}
	n, ok := query.AsFloat64(args[0])
	if !ok {
		return nil, nil
	}
	return f(t, n), nil
}
