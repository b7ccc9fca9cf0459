package eval_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nimbusdb/nimbusdb/eval"
	"github.com/nimbusdb/nimbusdb/query"
)

func callMath(t *testing.T, name string, args ...query.Value) query.Value {
	t.Helper()
	nodes := make([]*query.Node, len(args))
	for i, a := range args {
		nodes[i] = query.Constant(a)
	}
	v, err := eval.EvaluateValue(query.Call(name, nil, nodes...), eval.Document(nil))
	require.NoError(t, err)
	return v
}

func TestMathSqrt(t *testing.T) {
	require.InDelta(t, 3.0, callMath(t, "Sqrt", 9.0).(float64), 1e-9)
	require.InDelta(t, 1.4142135623730951, callMath(t, "Sqrt", 2.0).(float64), 1e-9)
}

func TestMathCeilingAndFloor(t *testing.T) {
	require.Equal(t, 3.0, callMath(t, "Ceiling", 2.1))
	require.Equal(t, -2.0, callMath(t, "Ceiling", -2.1))
	require.Equal(t, 2.0, callMath(t, "Floor", 2.9))
	require.Equal(t, -3.0, callMath(t, "Floor", -2.1))
}

func TestMathPowFractionalExponent(t *testing.T) {
	// Pow(2, 2.25) ~= 4.756828, not the sqrt(base)-for-any-fraction
	// approximation a previous implementation produced (~5.657).
	require.InDelta(t, 4.756828460010884, callMath(t, "Pow", 2.0, 2.25).(float64), 1e-9)
}

func TestMathPowIntegerAndNegativeExponent(t *testing.T) {
	require.InDelta(t, 8.0, callMath(t, "Pow", 2.0, 3.0).(float64), 1e-9)
	require.InDelta(t, 0.25, callMath(t, "Pow", 2.0, -2.0).(float64), 1e-9)
	require.InDelta(t, 1.0, callMath(t, "Pow", 5.0, 0.0).(float64), 1e-9)
}

func TestMathRound(t *testing.T) {
	require.Equal(t, 3.0, callMath(t, "Round", 2.5))
	require.Equal(t, 2.35, callMath(t, "Round", 2.346, int64(2)))
}
