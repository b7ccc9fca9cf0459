package eval_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nimbusdb/nimbusdb/eval"
	"github.com/nimbusdb/nimbusdb/query"
)

// Freezes the non-boolean AndAlso/OrElse contract spec.md §9 Open
// Question #1 asks for: a non-boolean operand forces AndAlso false
// outright, but OrElse still yields true when the *other* operand is
// true (spec.md's worked examples: OrElse(1, true) -> true,
// OrElse(1, false) -> false).
func TestAndAlsoNonBooleanOperandCollapsesFalse(t *testing.T) {
	nonBool := query.Constant(int64(1))

	result, err := eval.Evaluate(query.Binary(query.OpAndAlso, nonBool, query.Constant(true)), eval.Document(nil))
	require.NoError(t, err)
	require.False(t, result)

	result, err = eval.Evaluate(query.Binary(query.OpAndAlso, nonBool, query.Constant(false)), eval.Document(nil))
	require.NoError(t, err)
	require.False(t, result)
}

func TestOrElseNonBooleanOperandStillTrueIfOtherIsTrue(t *testing.T) {
	nonBool := query.Constant(int64(1))

	result, err := eval.Evaluate(query.Binary(query.OpOrElse, nonBool, query.Constant(true)), eval.Document(nil))
	require.NoError(t, err)
	require.True(t, result)

	result, err = eval.Evaluate(query.Binary(query.OpOrElse, nonBool, query.Constant(false)), eval.Document(nil))
	require.NoError(t, err)
	require.False(t, result)
}

// Three combinations with the non-boolean operand on the right,
// exercising evalLogical's short-circuit path for AndAlso/OrElse too.
func TestAndAlsoOrElseNonBooleanOnRight(t *testing.T) {
	nonBool := query.Constant("not a bool")

	result, err := eval.Evaluate(query.Binary(query.OpAndAlso, query.Constant(true), nonBool), eval.Document(nil))
	require.NoError(t, err)
	require.False(t, result)

	result, err = eval.Evaluate(query.Binary(query.OpOrElse, query.Constant(true), nonBool), eval.Document(nil))
	require.NoError(t, err)
	require.True(t, result)

	result, err = eval.Evaluate(query.Binary(query.OpOrElse, query.Constant(false), nonBool), eval.Document(nil))
	require.NoError(t, err)
	require.False(t, result)
}
