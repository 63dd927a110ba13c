package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_Order(t *testing.T) {
	rec := NewRecord().
		Set("b", Int(1)).
		Set("a", Int(2)).
		Set("b", Int(3))

	assert.Equal(t, []string{"b", "a"}, rec.Keys())
	assert.Equal(t, 2, rec.Len())
	v, ok := rec.Get("b")
	require.True(t, ok)
	assert.Equal(t, Int(3), v)

	_, ok = rec.Get("missing")
	assert.False(t, ok)
}

func TestRecord_NilSafe(t *testing.T) {
	var rec *Record
	assert.Equal(t, 0, rec.Len())
	assert.Nil(t, rec.Keys())
	_, ok := rec.Get("a")
	assert.False(t, ok)

	var zero Record
	zero.Set("a", Null())
	assert.Equal(t, 1, zero.Len())
}

func TestRecord_Merge(t *testing.T) {
	cond := NewRecord().Set("id", Int(5)).Set("name", Text("old"))
	data := NewRecord().Set("name", Text("new")).Set("email", Text("a@b.c"))

	merged := cond.Merge(data)
	assert.Equal(t, []string{"id", "name", "email"}, merged.Keys())
	v, _ := merged.Get("name")
	assert.Equal(t, Text("new"), v)

	// Inputs are untouched.
	v, _ = cond.Get("name")
	assert.Equal(t, Text("old"), v)
	assert.Equal(t, 2, cond.Len())
}

func TestRecord_Map(t *testing.T) {
	rec := NewRecord().Set("id", Int(1)).Set("note", Null())
	assert.Equal(t, map[string]any{"id": int64(1), "note": nil}, rec.Map())
}

func TestRecordFromMap(t *testing.T) {
	rec, err := RecordFromMap(map[string]any{"z": 1, "a": "x", "m": nil})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "m", "z"}, rec.Keys())

	_, err = RecordFromMap(map[string]any{"tags": []string{"a"}})
	require.Error(t, err)
	var enc *EncodingError
	require.True(t, errors.As(err, &enc))
	assert.Equal(t, "tags", enc.Column)
	assert.Contains(t, err.Error(), `"tags"`)
}
