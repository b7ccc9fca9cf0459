package nimbusdb_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	nimbusdb "github.com/nimbusdb/nimbusdb"
	"github.com/nimbusdb/nimbusdb/executor"
	"github.com/nimbusdb/nimbusdb/overlay"
	"github.com/nimbusdb/nimbusdb/query"
	"github.com/nimbusdb/nimbusdb/storage/memstore"
)

type noOverlay struct{}

func (noOverlay) View(collection string) *overlay.View { return overlay.New().View(collection) }

func seedStore() *memstore.Store {
	s := memstore.New()
	s.Put("people", map[string]query.Value{"_id": "1", "name": "Ada", "age": int64(30)})
	s.Put("people", map[string]query.Value{"_id": "2", "name": "Grace", "age": int64(40)})
	s.Put("people", map[string]query.Value{"_id": "3", "name": "Hedy", "age": int64(50)})
	return s
}

func TestQueryableWhereAndCount(t *testing.T) {
	store := seedStore()
	exec := executor.New(store, store, store)
	q, err := nimbusdb.New(exec, "people", noOverlay{})
	require.NoError(t, err)

	n, err := q.Where(query.Gt(query.Field("age"), query.Val(int64(35)))).Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestQueryableOrderBySkipTake(t *testing.T) {
	store := seedStore()
	exec := executor.New(store, store, store)
	q, err := nimbusdb.New(exec, "people", noOverlay{})
	require.NoError(t, err)

	rows, err := q.OrderByDescending(query.Field("age")).Skip(query.Val(int64(1))).Take(query.Val(int64(1))).ToSlice(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "Grace", rows[0].(map[string]query.Value)["name"])
}

func TestQueryableLongCount(t *testing.T) {
	store := seedStore()
	exec := executor.New(store, store, store)
	q, err := nimbusdb.New(exec, "people", noOverlay{})
	require.NoError(t, err)

	n, err := q.Where(query.Gt(query.Field("age"), query.Val(int64(35)))).LongCount(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
}

func TestQueryableElementAtOrDefault(t *testing.T) {
	store := seedStore()
	exec := executor.New(store, store, store)
	q, err := nimbusdb.New(exec, "people", noOverlay{})
	require.NoError(t, err)

	v, err := q.OrderBy(query.Field("age")).ElementAtOrDefault(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, "Ada", v.(map[string]query.Value)["name"])

	missing, err := q.OrderBy(query.Field("age")).ElementAtOrDefault(context.Background(), 99)
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestQueryableExplainReportsFullTableScan(t *testing.T) {
	store := seedStore()
	exec := executor.New(store, store, store)
	q, err := nimbusdb.New(exec, "people", noOverlay{})
	require.NoError(t, err)

	report, rows, err := q.Where(query.Gt(query.Field("age"), query.Val(int64(10)))).Explain(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, query.FullTableScan, report.Strategy)
	require.False(t, report.UsedIndex())
}

func TestQueryableRejectsNilExecutor(t *testing.T) {
	_, err := nimbusdb.New(nil, "people", noOverlay{})
	require.Error(t, err)
}

func TestQueryableRejectsEmptyCollection(t *testing.T) {
	store := seedStore()
	exec := executor.New(store, store, store)
	_, err := nimbusdb.New(exec, "", noOverlay{})
	require.Error(t, err)
}
