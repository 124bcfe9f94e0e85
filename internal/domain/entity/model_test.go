package entity_test

import (
	"encoding/json"
	"testing"

	"github.com/rpggio/localfirst/internal/domain/entity"
	"github.com/stretchr/testify/require"
)

func TestEntity_JSONFlatShape(t *testing.T) {
	e := entity.Entity{
		ID:     "p1",
		Fields: map[string]any{"name": "Acme", "tags": []any{"web", "retainer"}},
	}
	e.MarkLocal()

	data, err := json.Marshal(e)
	require.NoError(t, err)

	var flat map[string]any
	require.NoError(t, json.Unmarshal(data, &flat))
	require.Equal(t, "p1", flat["id"])
	require.Equal(t, true, flat["isLocal"])
	require.Equal(t, false, flat["isSynced"])
	require.Equal(t, "Acme", flat["name"])

	var back entity.Entity
	require.NoError(t, json.Unmarshal(data, &back))
	require.Equal(t, e, back)
}

func TestEntity_NumericID(t *testing.T) {
	var e entity.Entity
	require.NoError(t, json.Unmarshal([]byte(`{"id":42,"name":"x"}`), &e))
	require.Equal(t, "42", e.ID)
	require.NotContains(t, e.Fields, "id")
}

func TestEntity_RejectsNonObject(t *testing.T) {
	var e entity.Entity
	require.Error(t, json.Unmarshal([]byte(`null`), &e))
	require.Error(t, json.Unmarshal([]byte(`[1]`), &e))
}

func TestEntity_MergeIsShallowAndKeepsID(t *testing.T) {
	orig := entity.New(map[string]any{"id": "c1", "name": "Old", "email": "a@b.c"})
	merged := orig.Merge(map[string]any{"id": "other", "name": "New"})

	require.Equal(t, "c1", merged.ID)
	require.Equal(t, "New", merged.Fields["name"])
	require.Equal(t, "a@b.c", merged.Fields["email"])
	require.Equal(t, "Old", orig.Fields["name"], "merge must not mutate the original")
}

func TestEntity_MergeFieldsIgnoresReservedKeys(t *testing.T) {
	orig := entity.Entity{ID: "local-1", IsLocal: true, Fields: map[string]any{"name": "Old"}}
	merged := orig.MergeFields(map[string]any{"id": "c9", "isLocal": false, "isSynced": true, "name": "New"})

	require.Equal(t, "local-1", merged.ID)
	require.True(t, merged.IsLocal)
	require.False(t, merged.IsSynced)
	require.Equal(t, map[string]any{"name": "New"}, merged.Fields)
	require.Equal(t, "Old", orig.Fields["name"])
}

func TestEntity_SyncFlags(t *testing.T) {
	var e entity.Entity
	e.MarkLocal()
	require.True(t, e.IsLocal)
	require.False(t, e.IsSynced)

	e.MarkSynced()
	require.False(t, e.IsLocal)
	require.True(t, e.IsSynced)

	e.MarkPending()
	require.False(t, e.IsSynced)
}

func TestEntity_String(t *testing.T) {
	e := entity.New(map[string]any{"n": 3.5, "tags": []any{"a", "b"}})
	require.Equal(t, "3.5", e.String("n"))
	require.Equal(t, "a, b", e.String("tags"))
	require.Equal(t, "", e.String("missing"))
}

func TestValidateRequired(t *testing.T) {
	e := entity.New(map[string]any{"name": "  ", "email": "x@y.z"})
	err := entity.ValidateRequired(e, []string{"name", "email", "phone"})
	require.ErrorIs(t, err, entity.ErrInvalidInput)
	require.Contains(t, err.Error(), "name, phone")

	require.NoError(t, entity.ValidateRequired(e, []string{"email"}))
}
