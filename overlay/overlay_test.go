package overlay_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nimbusdb/nimbusdb/overlay"
	"github.com/nimbusdb/nimbusdb/query"
)

func TestInsertsDedupsReinsertedID(t *testing.T) {
	log := overlay.New()
	doc1 := map[string]query.Value{"_id": "1", "name": "first"}
	doc2 := map[string]query.Value{"_id": "1", "name": "second"}

	log.Append(overlay.Op{Kind: overlay.OpInsert, Collection: "people", ID: "1", Doc: doc1})
	log.Append(overlay.Op{Kind: overlay.OpDelete, Collection: "people", ID: "1"})
	log.Append(overlay.Op{Kind: overlay.OpInsert, Collection: "people", ID: "1", Doc: doc2})

	view := log.View("people")
	inserts := view.Inserts()
	require.Len(t, inserts, 1)
	require.Equal(t, doc2, inserts[0])
}

func TestInsertsPreservesLogOrder(t *testing.T) {
	log := overlay.New()
	log.Append(overlay.Op{Kind: overlay.OpInsert, Collection: "people", ID: "1", Doc: map[string]query.Value{"_id": "1"}})
	log.Append(overlay.Op{Kind: overlay.OpInsert, Collection: "people", ID: "2", Doc: map[string]query.Value{"_id": "2"}})

	inserts := log.View("people").Inserts()
	require.Len(t, inserts, 2)
	require.Equal(t, "1", inserts[0]["_id"])
	require.Equal(t, "2", inserts[1]["_id"])
}

func TestIsDeletedAndUpdated(t *testing.T) {
	log := overlay.New()
	log.Append(overlay.Op{Kind: overlay.OpUpdate, Collection: "people", ID: "5", Doc: map[string]query.Value{"_id": "5", "name": "updated"}})
	log.Append(overlay.Op{Kind: overlay.OpDelete, Collection: "people", ID: "6"})

	view := log.View("people")
	require.True(t, view.IsDeleted("6"))
	require.False(t, view.IsDeleted("5"))

	doc, ok := view.Updated("5")
	require.True(t, ok)
	require.Equal(t, "updated", doc["name"])
}
