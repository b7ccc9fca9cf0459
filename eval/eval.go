package eval

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nimbusdb/nimbusdb/errs"
	"github.com/nimbusdb/nimbusdb/query"
)

// Evaluate interprets expr against row and coerces the result to a bool
// (spec.md §4.2): a non-boolean result evaluates to false, except the
// explicit hard error below. Predicate evaluation errors propagate to
// the caller (spec.md §7); every other well-typed failure is silent.
func Evaluate(expr *query.Node, row Row) (bool, error) {
	if expr == nil {
		return false, nil
	}
	if expr.Kind == query.KindConstant {
		b, ok := expr.ConstValue.(bool)
		if !ok {
			return false, fmt.Errorf("boolean evaluation of non-boolean constant %v: invalid state", expr.ConstValue)
		}
		return b, nil
	}
	if expr.Kind == query.KindBinary && (expr.BinOp == query.OpAndAlso || expr.BinOp == query.OpOrElse) {
		return evalLogical(expr, row)
	}
	if expr.Kind == query.KindUnary && expr.UnOp == query.OpNot {
		operand, err := Evaluate(expr.Operand, row)
		if err != nil {
			return false, err
		}
		return !operand, nil
	}
	if expr.Kind == query.KindBinary && expr.BinOp.IsComparison() {
		return evalComparison(expr, row)
	}

	v, err := EvaluateValue(expr, row)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, nil
	}
	return b, nil
}

// EvaluateValue interprets expr against row, producing a raw value
// rather than a coerced boolean (spec.md §4.2).
func EvaluateValue(expr *query.Node, row Row) (query.Value, error) {
	if expr == nil {
		return nil, nil
	}
	switch expr.Kind {
	case query.KindConstant:
		return expr.ConstValue, nil
	case query.KindParameter:
		return rowValue(row), nil
	case query.KindMember:
		return evalMember(expr, row)
	case query.KindBinary:
		return evalBinaryValue(expr, row)
	case query.KindUnary:
		return evalUnaryValue(expr, row)
	case query.KindFunction:
		return dispatchFunction(expr, row)
	case query.KindConstructor:
		return evalConstructor(expr, row)
	case query.KindMemberInit:
		return evalMemberInit(expr, row)
	case query.KindConditional:
		return evalConditional(expr, row)
	default:
		return nil, errs.NotSupportedf("unrecognized node kind %v", expr.Kind)
	}
}

func rowValue(row Row) query.Value {
	if row.isDoc {
		return row.doc
	}
	return row.rec
}

func evalMember(expr *query.Node, row Row) (query.Value, error) {
	if expr.Target == nil {
		return row.member(expr.MemberName), nil
	}
	targetVal, err := EvaluateValue(expr.Target, row)
	if err != nil {
		return nil, err
	}
	if targetVal == nil {
		return nil, nil
	}
	if t, ok := targetVal.(time.Time); ok {
		return dateMember(t, expr.MemberName), nil
	}
	return Record(targetVal).member(expr.MemberName), nil
}

// dateMember implements spec.md §4.3's DateTime member allowlist; any
// other member name on a date-time evaluates to null.
func dateMember(t time.Time, name string) query.Value {
	if !query.DateTimeMembers[name] {
		return nil
	}
	switch name {
	case "Year":
		return int64(t.Year())
	case "Month":
		return int64(t.Month())
	case "Day":
		return int64(t.Day())
	case "Hour":
		return int64(t.Hour())
	case "Minute":
		return int64(t.Minute())
	case "Second":
		return int64(t.Second())
	case "Date":
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	case "DayOfWeek":
		return int64(t.Weekday())
	default:
		return nil
	}
}

// evalLogical implements the AndAlso/OrElse semantics of spec.md §4.2:
// an operand is "boolean" only when it is itself true, false, or a
// boolean-valued member/constant/sub-expression; any other operand
// forces the compound false, except OrElse still yields true when the
// *other* operand is true. Short-circuiting avoids evaluating the right
// operand when the left side already decides the result.
func evalLogical(expr *query.Node, row Row) (bool, error) {
	lv, lBool, err := truthiness(expr.Left, row)
	if err != nil {
		return false, err
	}

	switch expr.BinOp {
	case query.OpAndAlso:
		if !lBool || !lv {
			return false, nil
		}
		rv, rBool, err := truthiness(expr.Right, row)
		if err != nil {
			return false, err
		}
		return rBool && rv, nil
	case query.OpOrElse:
		if lBool && lv {
			return true, nil
		}
		rv, rBool, err := truthiness(expr.Right, row)
		if err != nil {
			return false, err
		}
		return rBool && rv, nil
	default:
		return false, errs.NotSupportedf("not a logical operator: %v", expr.BinOp)
	}
}

// truthiness evaluates a node to its raw value and reports whether that
// value is an actual Go bool (as opposed to some other non-boolean type).
func truthiness(n *query.Node, row Row) (value bool, isBool bool, err error) {
	v, err := EvaluateValue(n, row)
	if err != nil {
		return false, false, err
	}
	b, ok := v.(bool)
	return b, ok, nil
}

// evalComparison implements the six comparison ops: null handling first
// (Eq(null,null)=true, any other null comparison is false), then the
// value-domain total order otherwise (spec.md §4.2 Binary).
func evalComparison(expr *query.Node, row Row) (bool, error) {
	lv, err := EvaluateValue(expr.Left, row)
	if err != nil {
		return false, err
	}
	rv, err := EvaluateValue(expr.Right, row)
	if err != nil {
		return false, err
	}

	if lv == nil || rv == nil {
		switch expr.BinOp {
		case query.OpEq:
			return lv == nil && rv == nil, nil
		case query.OpNotEq:
			return !(lv == nil && rv == nil), nil
		default:
			return false, nil
		}
	}

	cmp := query.CompareValues(lv, rv)
	switch expr.BinOp {
	case query.OpEq:
		return cmp == 0, nil
	case query.OpNotEq:
		return cmp != 0, nil
	case query.OpLt:
		return cmp < 0, nil
	case query.OpLe:
		return cmp <= 0, nil
	case query.OpGt:
		return cmp > 0, nil
	case query.OpGe:
		return cmp >= 0, nil
	default:
		return false, errs.NotSupportedf("not a comparison operator: %v", expr.BinOp)
	}
}

func evalBinaryValue(expr *query.Node, row Row) (query.Value, error) {
	if expr.BinOp == query.OpAndAlso || expr.BinOp == query.OpOrElse {
		b, err := evalLogical(expr, row)
		return b, err
	}
	if expr.BinOp.IsComparison() {
		return evalComparison(expr, row)
	}

	lv, err := EvaluateValue(expr.Left, row)
	if err != nil {
		return nil, err
	}
	rv, err := EvaluateValue(expr.Right, row)
	if err != nil {
		return nil, err
	}

	if expr.BinOp == query.OpAdd {
		if query.KindOf(lv) == query.KindString || query.KindOf(rv) == query.KindString {
			return query.ToString(lv) + query.ToString(rv), nil
		}
	}
	return arith(expr.BinOp, lv, rv)
}

// arith implements Sub/Mul/Div and the numeric form of Add: decimal when
// either operand is decimal-kinded, integer when both operands are
// integer-kinded (except Div, which always yields a float), float64
// otherwise.
func arith(op query.BinaryOp, l, r query.Value) (query.Value, error) {
	lk, rk := query.KindOf(l), query.KindOf(r)
	if lk == query.KindDecimal || rk == query.KindDecimal {
		ld, _ := query.AsDecimal(l)
		rd, _ := query.AsDecimal(r)
		switch op {
		case query.OpAdd:
			return ld.Add(rd), nil
		case query.OpSub:
			return ld.Sub(rd), nil
		case query.OpMul:
			return ld.Mul(rd), nil
		case query.OpDiv:
			if rd.IsZero() {
				return decimal.Zero, nil
			}
			return ld.Div(rd), nil
		}
	}

	bothInt := (lk == query.KindInt32 || lk == query.KindInt64) && (rk == query.KindInt32 || rk == query.KindInt64)
	if bothInt && op != query.OpDiv {
		li, _ := query.AsInt64(l)
		ri, _ := query.AsInt64(r)
		switch op {
		case query.OpAdd:
			return li + ri, nil
		case query.OpSub:
			return li - ri, nil
		case query.OpMul:
			return li * ri, nil
		}
	}

	lf, lok := query.AsFloat64(l)
	rf, rok := query.AsFloat64(r)
	if !lok || !rok {
		return nil, nil
	}
	switch op {
	case query.OpAdd:
		return lf + rf, nil
	case query.OpSub:
		return lf - rf, nil
	case query.OpMul:
		return lf * rf, nil
	case query.OpDiv:
		if rf == 0 {
			return 0.0, nil
		}
		return lf / rf, nil
	default:
		return nil, errs.NotSupportedf("not an arithmetic operator: %v", op)
	}
}

func evalUnaryValue(expr *query.Node, row Row) (query.Value, error) {
	switch expr.UnOp {
	case query.OpNot:
		b, err := Evaluate(expr.Operand, row)
		return !b, err
	case query.OpNegate:
		v, err := EvaluateValue(expr.Operand, row)
		if err != nil {
			return nil, err
		}
		return arith(query.OpSub, int64(0), v)
	case query.OpConvert:
		return evalConvert(expr, row)
	case query.OpArrayLength:
		v, err := EvaluateValue(expr.Operand, row)
		if err != nil {
			return nil, err
		}
		n, ok := query.Len(v)
		if !ok {
			return nil, nil
		}
		return int64(n), nil
	default:
		return nil, errs.NotSupportedf("unsupported unary operator: %v", expr.UnOp)
	}
}

// evalConvert implements numeric<->numeric, any->string and
// string->numeric conversion; null input is preserved (spec.md §4.2).
func evalConvert(expr *query.Node, row Row) (query.Value, error) {
	v, err := EvaluateValue(expr.Operand, row)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	switch expr.ResultType {
	case query.KindString:
		return query.ToString(v), nil
	case query.KindInt32:
		return convertToInt(v, 32)
	case query.KindInt64:
		return convertToInt(v, 64)
	case query.KindFloat64:
		return convertToFloat(v)
	case query.KindDecimal:
		d, ok := query.AsDecimal(v)
		if !ok {
			if s, ok := v.(string); ok {
				if parsed, err := decimal.NewFromString(s); err == nil {
					return parsed, nil
				}
			}
			return nil, nil
		}
		return d, nil
	default:
		return v, nil
	}
}

func convertToInt(v query.Value, bits int) (query.Value, error) {
	if i, ok := query.AsInt64(v); ok {
		if bits == 32 {
			return int32(i), nil
		}
		return i, nil
	}
	if f, ok := query.AsFloat64(v); ok {
		if bits == 32 {
			return int32(f), nil
		}
		return int64(f), nil
	}
	if s, ok := v.(string); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return nil, nil
		}
		if bits == 32 {
			return int32(n), nil
		}
		return n, nil
	}
	return nil, nil
}

func convertToFloat(v query.Value) (query.Value, error) {
	if f, ok := query.AsFloat64(v); ok {
		return f, nil
	}
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, nil
		}
		return f, nil
	}
	return nil, nil
}

func evalConstructor(expr *query.Node, row Row) (query.Value, error) {
	args := make([]query.Value, len(expr.CtorArgs))
	for i, a := range expr.CtorArgs {
		v, err := EvaluateValue(a, row)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	// A bare Constructor with no registered host type builder materializes
	// as a sequence of its arguments, matching spec.md's composite
	// "ordered sequence of values" value kind.
	return query.Value([]query.Value(args)), nil
}

func evalMemberInit(expr *query.Node, row Row) (query.Value, error) {
	doc := make(map[string]query.Value, len(expr.Bindings))
	for name, sub := range expr.Bindings {
		v, err := EvaluateValue(sub, row)
		if err != nil {
			return nil, err
		}
		doc[name] = v
	}
	return doc, nil
}

func evalConditional(expr *query.Node, row Row) (query.Value, error) {
	test, err := Evaluate(expr.Test, row)
	if err != nil {
		return nil, err
	}
	if test {
		return EvaluateValue(expr.IfTrue, row)
	}
	return EvaluateValue(expr.IfFalse, row)
}
