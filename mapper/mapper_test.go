package mapper_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nimbusdb/nimbusdb/mapper"
	"github.com/nimbusdb/nimbusdb/query"
)

type person struct {
	ID   string `db:"_id"`
	Name string
	Age  int64
}

func TestDocToRecord(t *testing.T) {
	doc := map[string]query.Value{
		"_id":  "1",
		"name": "Ada",
		"age":  int64(30),
	}
	p, err := mapper.DocToRecord[person](doc)
	require.NoError(t, err)
	require.Equal(t, "1", p.ID)
	require.Equal(t, "Ada", p.Name)
	require.Equal(t, int64(30), p.Age)
}

func TestRecordToDoc(t *testing.T) {
	p := person{ID: "2", Name: "Grace", Age: 40}
	doc := mapper.RecordToDoc(p)
	require.Equal(t, "2", doc["_id"])
	require.Equal(t, "Grace", doc["name"])
	require.Equal(t, int64(40), doc["age"])
}

func TestRecordToDocPointer(t *testing.T) {
	p := &person{ID: "3", Name: "Hedy", Age: 50}
	doc := mapper.RecordToDoc(p)
	require.Equal(t, "3", doc["_id"])
}

func TestDocToRecordMissingFieldsZero(t *testing.T) {
	doc := map[string]query.Value{"_id": "4"}
	p, err := mapper.DocToRecord[person](doc)
	require.NoError(t, err)
	require.Equal(t, "4", p.ID)
	require.Equal(t, "", p.Name)
	require.Equal(t, int64(0), p.Age)
}
