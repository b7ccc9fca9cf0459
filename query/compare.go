package query

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nimbusdb/nimbusdb/ident"
)

// CompareValues implements the total ordering over the value domain from
// spec.md §3/§4.6: same-kind native compare; cross-numeric kinds coerced
// to float64; cross-kind involving a string uses ordinal string compare;
// every other cross-kind pair compares via stringification. nil is less
// than any non-nil value, equal to nil.
//
// Grounded on the teacher's datalog/compare.go CompareValues: the same
// nil-handling, the same "numeric ladder, then string, then fallback to
// stringified ordinal compare" structure.
func CompareValues(left, right Value) int {
	if left == nil && right == nil {
		return 0
	}
	if left == nil {
		return -1
	}
	if right == nil {
		return 1
	}

	lk, rk := KindOf(left), KindOf(right)

	if lk.IsNumeric() && rk.IsNumeric() {
		lf, _ := AsFloat64(left)
		rf, _ := AsFloat64(right)
		return compareFloat64(lf, rf)
	}

	if lk == KindString && rk == KindString {
		return strings.Compare(left.(string), right.(string))
	}

	if lk == KindString || rk == KindString {
		return strings.Compare(ToString(left), ToString(right))
	}

	if lk == rk {
		switch lk {
		case KindBool:
			return compareBool(left.(bool), right.(bool))
		case KindTime:
			return compareTime(left.(time.Time), right.(time.Time))
		case KindIdentifier:
			return left.(ident.ID).Compare(right.(ident.ID))
		case KindBytes:
			return strings.Compare(string(left.([]byte)), string(right.([]byte)))
		case KindDecimal:
			return left.(decimal.Decimal).Cmp(right.(decimal.Decimal))
		}
	}

	return strings.Compare(ToString(left), ToString(right))
}

// Equal reports value-domain equality: strings compare ordinally, other
// kinds via CompareValues == 0 (spec.md §4.2 "Equality of strings is
// ordinal").
func Equal(left, right Value) bool {
	return CompareValues(left, right) == 0
}

func compareFloat64(l, r float64) int {
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	default:
		return 0
	}
}

func compareBool(l, r bool) int {
	switch {
	case l == r:
		return 0
	case !l && r:
		return -1
	default:
		return 1
	}
}

func compareTime(l, r time.Time) int {
	switch {
	case l.Before(r):
		return -1
	case l.After(r):
		return 1
	default:
		return 0
	}
}
