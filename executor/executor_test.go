package executor_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nimbusdb/nimbusdb/executor"
	"github.com/nimbusdb/nimbusdb/overlay"
	"github.com/nimbusdb/nimbusdb/query"
	"github.com/nimbusdb/nimbusdb/storage/memstore"
)

func seedStore() *memstore.Store {
	s := memstore.New()
	s.Put("users", map[string]query.Value{"_id": "1", "name": "ada", "age": int64(30)})
	s.Put("users", map[string]query.Value{"_id": "2", "name": "bob", "age": int64(25)})
	s.Put("users", map[string]query.Value{"_id": "3", "name": "cleo", "age": int64(40)})
	s.CreateIndex("users", "by_age", []string{"age"}, false)
	s.CreateIndex("users", "by_id_unique", []string{"_id"}, true)
	return s
}

func TestExecuteFullTableScan(t *testing.T) {
	s := seedStore()
	ex := executor.New(s, s, s)

	predicate := query.Gt(query.Field("name"), query.Val("b"))
	plan, rows, err := ex.Execute(context.Background(), "users", predicate, nil)
	require.NoError(t, err)
	require.Equal(t, query.FullTableScan, plan.Strategy)
	require.Len(t, rows, 2)
}

func TestExecuteIndexScan(t *testing.T) {
	s := seedStore()
	ex := executor.New(s, s, s)

	predicate := query.Ge(query.Field("age"), query.Val(int64(30)))
	plan, rows, err := ex.Execute(context.Background(), "users", predicate, nil)
	require.NoError(t, err)
	require.Equal(t, query.IndexScan, plan.Strategy)
	require.Len(t, rows, 2)
}

func TestExecutePrimaryKeyLookup(t *testing.T) {
	s := seedStore()
	ex := executor.New(s, s, s)

	predicate := query.Eq(query.Field("_id"), query.Val("2"))
	plan, rows, err := ex.Execute(context.Background(), "users", predicate, nil)
	require.NoError(t, err)
	require.Equal(t, query.PrimaryKeyLookup, plan.Strategy)
	require.Len(t, rows, 1)
	require.Equal(t, "bob", rows[0].Document["name"])
}

func TestExecuteOverlayDeleteSuppressesRow(t *testing.T) {
	s := seedStore()
	ex := executor.New(s, s, s)

	log := overlay.New()
	log.Append(overlay.Op{Kind: overlay.OpDelete, Collection: "users", ID: "2"})
	view := log.View("users")

	_, rows, err := ex.Execute(context.Background(), "users", nil, view)
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestExecuteOverlayInsertIsVisible(t *testing.T) {
	s := seedStore()
	ex := executor.New(s, s, s)

	log := overlay.New()
	log.Append(overlay.Op{Kind: overlay.OpInsert, Collection: "users", ID: "4", Doc: map[string]query.Value{"_id": "4", "name": "dax", "age": int64(50)}})
	view := log.View("users")

	_, rows, err := ex.Execute(context.Background(), "users", nil, view)
	require.NoError(t, err)
	require.Len(t, rows, 4)
}

func TestExecuteEmptyCollectionNameRejected(t *testing.T) {
	s := seedStore()
	ex := executor.New(s, s, s)

	_, _, err := ex.Execute(context.Background(), "  ", nil, nil)
	require.Error(t, err)
}
