package pipeline_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nimbusdb/nimbusdb/pipeline"
	"github.com/nimbusdb/nimbusdb/query"
)

func docs() []query.Value {
	return []query.Value{
		map[string]query.Value{"_id": "1", "category": "A", "value": int64(10)},
		map[string]query.Value{"_id": "2", "category": "A", "value": int64(20)},
		map[string]query.Value{"_id": "3", "category": "B", "value": int64(30)},
		map[string]query.Value{"_id": "4", "category": "B", "value": int64(40)},
		map[string]query.Value{"_id": "5", "category": "B", "value": int64(50)},
	}
}

func TestPushdownPredicateSingleWhere(t *testing.T) {
	expr := pipeline.Expression{}.Append(pipeline.Step{Kind: pipeline.OpWhere, Predicate: query.Eq(query.Field("category"), query.Val("A"))})
	predicate, rest, ok := expr.PushdownPredicate()
	require.True(t, ok)
	require.NotNil(t, predicate)
	require.Len(t, rest, 0)
}

func TestPushdownPredicateMultipleWheresNotPushed(t *testing.T) {
	expr := pipeline.Expression{}.
		Append(pipeline.Step{Kind: pipeline.OpWhere, Predicate: query.Eq(query.Field("category"), query.Val("A"))}).
		Append(pipeline.Step{Kind: pipeline.OpWhere, Predicate: query.Gt(query.Field("value"), query.Val(int64(5)))})
	_, _, ok := expr.PushdownPredicate()
	require.False(t, ok)
}

func TestOrderByThenBy(t *testing.T) {
	expr := pipeline.Expression{}.
		Append(pipeline.Step{Kind: pipeline.OpOrderBy, Selector: query.Field("category")}).
		Append(pipeline.Step{Kind: pipeline.OpThenByDescending, Selector: query.Field("value")})

	out, err := pipeline.Run(expr, docs())
	require.NoError(t, err)
	require.Len(t, out, 5)
	first := out[0].(map[string]query.Value)
	require.Equal(t, "A", first["category"])
	last := out[len(out)-1].(map[string]query.Value)
	require.Equal(t, "B", last["category"])
}

func TestSkipTake(t *testing.T) {
	expr := pipeline.Expression{}.
		Append(pipeline.Step{Kind: pipeline.OpSkip, N: query.Val(int64(1))}).
		Append(pipeline.Step{Kind: pipeline.OpTake, N: query.Val(int64(2))})

	out, err := pipeline.Run(expr, docs())
	require.NoError(t, err)
	require.Len(t, out, 2)
}

func TestGroupBySum(t *testing.T) {
	expr := pipeline.Expression{}.Append(pipeline.Step{Kind: pipeline.OpGroupBy, Selector: query.Field("category")})
	out, err := pipeline.Run(expr, docs())
	require.NoError(t, err)
	require.Len(t, out, 2)

	a := out[0].(query.AotGrouping)
	require.Equal(t, "A", a.Key)
	sum := a.Sum(func(v query.Value) query.Value {
		return v.(map[string]query.Value)["value"]
	})
	require.Equal(t, decimal.NewFromInt(30), sum)
}

func TestDistinct(t *testing.T) {
	rows := []query.Value{int64(1), int64(2), int64(1), int64(3), int64(2)}
	expr := pipeline.Expression{}.Append(pipeline.Step{Kind: pipeline.OpDistinct})
	out, err := pipeline.Run(expr, rows)
	require.NoError(t, err)
	require.Equal(t, []query.Value{int64(1), int64(2), int64(3)}, out)
}

func TestTerminalsFirstAndAny(t *testing.T) {
	rows := docs()
	v, err := pipeline.First(rows, query.Eq(query.Field("category"), query.Val("B")))
	require.NoError(t, err)
	require.Equal(t, "3", v.(map[string]query.Value)["_id"])

	any, err := pipeline.Any(rows, query.Gt(query.Field("value"), query.Val(int64(45))))
	require.NoError(t, err)
	require.True(t, any)
}
