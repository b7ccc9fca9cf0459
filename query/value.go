// Package query holds the neutral intermediate form the query subsystem
// compiles predicates and projections into (spec.md §3, §4.1): the value
// domain, the expression algebra, the function catalog and the plan
// entities consumed by the planner and executor.
package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nimbusdb/nimbusdb/ident"
)

// Value is any value in the document/record value domain: nil, bool,
// int32, int64, float64, decimal.Decimal, string, []byte, time.Time,
// ident.ID, []Value (sequence) or map[string]Value (document).
//
// Like the teacher's datalog.Value, this is interface{} with a fixed set
// of valid dynamic types rather than a closed sum type — Go has no sum
// types, and reflecting on interface{} here mirrors datalog/value.go's
// own comment: "Just like C++ uses boost::variant with direct types, we
// use interface{} with direct Go types."
type Value = interface{}

// Kind tags a Value's dynamic type for dispatch in the evaluator and
// optimizer without repeated type switches.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt32
	KindInt64
	KindFloat64
	KindDecimal
	KindString
	KindBytes
	KindTime
	KindIdentifier
	KindSequence
	KindDocument
	KindUnknown
)

// KindOf classifies a Value.
func KindOf(v Value) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case int32:
		return KindInt32
	case int, int64:
		return KindInt64
	case float32, float64:
		return KindFloat64
	case decimal.Decimal:
		return KindDecimal
	case string:
		return KindString
	case []byte:
		return KindBytes
	case time.Time:
		return KindTime
	case ident.ID:
		return KindIdentifier
	case []Value:
		return KindSequence
	case map[string]Value:
		return KindDocument
	default:
		return KindUnknown
	}
}

// IsNumeric reports whether a Kind participates in numeric coercion.
func (k Kind) IsNumeric() bool {
	switch k {
	case KindInt32, KindInt64, KindFloat64, KindDecimal:
		return true
	default:
		return false
	}
}

// AsFloat64 coerces any numeric Value to a 64-bit float, the common
// ground for cross-numeric comparison and arithmetic (spec.md §4.2).
func AsFloat64(v Value) (float64, bool) {
	switch n := v.(type) {
	case int32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case decimal.Decimal:
		f, _ := n.Float64()
		return f, true
	default:
		return 0, false
	}
}

// AsInt64 coerces an integer-kinded Value to int64; used by Convert,
// integer arithmetic, Substring/Round arguments and Skip/Take counts.
func AsInt64(v Value) (int64, bool) {
	switch n := v.(type) {
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

// AsDecimal coerces any numeric Value to a decimal, used by Sum/Average
// which spec.md §4.3 defines as always decimal-valued.
func AsDecimal(v Value) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case int32:
		return decimal.NewFromInt32(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case float32:
		return decimal.NewFromFloat32(n), true
	case float64:
		return decimal.NewFromFloat(n), true
	case decimal.Decimal:
		return n, true
	default:
		return decimal.Decimal{}, false
	}
}

// ToString stringifies any Value; used by cross-kind stringification
// fallback comparisons, Unary Convert-to-string, and ToString() calls.
// Mirrors the teacher's datalog/compare.go stringValue helper.
func ToString(v Value) string {
	if v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case bool:
		if s {
			return "true"
		}
		return "false"
	case time.Time:
		return s.Format(time.RFC3339Nano)
	case decimal.Decimal:
		return s.String()
	case ident.ID:
		return s.String()
	case []Value:
		parts := make([]string, len(s))
		for i, e := range s {
			parts[i] = ToString(e)
		}
		return "[" + strings.Join(parts, " ") + "]"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Len returns the element count of a sequence or document Value, or the
// byte length of a string, used by ArrayLength and the Count
// function/property. ok is false for values with no length.
func Len(v Value) (int, bool) {
	switch s := v.(type) {
	case []Value:
		return len(s), true
	case map[string]Value:
		return len(s), true
	case string:
		return len(s), true
	default:
		return 0, false
	}
}
